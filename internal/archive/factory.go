package archive

import (
	"context"
	"fmt"

	"pdfcore/internal/config"
	"pdfcore/internal/infra/archive/fs"
	"pdfcore/internal/infra/archive/memory"
	"pdfcore/internal/infra/archive/s3"
)

// OpenStore selects an object store backend from cfg.
func OpenStore(ctx context.Context, cfg config.Archive) (Store, error) {
	switch Driver(cfg.Driver) {
	case DriverFilesystem, "":
		return fs.New(cfg.FSRoot)
	case DriverMemory:
		return memory.New(), nil
	case DriverS3:
		return s3.New(ctx, s3.Config{
			Bucket:    cfg.S3Bucket,
			Region:    cfg.S3Region,
			Endpoint:  cfg.S3Endpoint,
			PathStyle: cfg.S3PathStyle,
		})
	default:
		return nil, fmt.Errorf("unknown archive driver %s", cfg.Driver)
	}
}

// Open returns a session archive on the configured backend.
func Open(ctx context.Context, cfg config.Archive) (*Archive, error) {
	store, err := OpenStore(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return New(store), nil
}
