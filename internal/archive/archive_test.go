package archive

import (
	"context"
	"errors"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"pdfcore/internal/config"
	"pdfcore/internal/infra/archive/memory"
	"pdfcore/internal/infra/archive/s3"
	"pdfcore/internal/session"
	"pdfcore/pkg/domain"
)

func snapshot() domain.Snapshot {
	s := domain.NewSnapshot()
	s.Distributions[0] = domain.Distribution{ID: 0, Name: "Gaussian 1", Mean: 0, StdDev: 1, ParentIDs: []domain.DistributionID{}, Kind: domain.KindLeaf}
	s.Distributions[1] = domain.Distribution{ID: 1, Name: "Gaussian 2", Mean: 2, StdDev: 1, ParentIDs: []domain.DistributionID{}, Kind: domain.KindLeaf}
	s.Distributions[2] = domain.Distribution{ID: 2, Name: "Product 3", Mean: 1, StdDev: 0.7071067811865476, ParentIDs: []domain.DistributionID{0, 1}, Kind: domain.KindProduct}
	s.NextID = 3
	return s
}

func backends(t *testing.T) map[string]*Archive {
	t.Helper()
	fsArchive, err := Open(context.Background(), config.Archive{Driver: config.ArchiveFilesystem, FSRoot: filepath.Join(t.TempDir(), "a")})
	if err != nil {
		t.Fatalf("open fs: %v", err)
	}
	return map[string]*Archive{
		"fs":     fsArchive,
		"memory": New(memory.New()),
		"s3":     New(s3.NewMockForTests()),
	}
}

func TestArchiveRoundTripAcrossBackends(t *testing.T) {
	for name, a := range backends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			want := snapshot()
			entry, err := a.Save(ctx, "demo", want)
			if err != nil {
				t.Fatalf("save: %v", err)
			}
			if entry.Name != "demo" || entry.Version != session.CurrentVersion || entry.Distributions != 3 || entry.Size == 0 {
				t.Fatalf("unexpected entry %+v", entry)
			}
			got, err := a.Load(ctx, "demo")
			if err != nil {
				t.Fatalf("load: %v", err)
			}
			if !reflect.DeepEqual(got, want) {
				t.Fatalf("round trip mismatch:\n got %+v\nwant %+v", got, want)
			}
			if _, err := a.Save(ctx, "another.v2", domain.NewSnapshot()); err != nil {
				t.Fatalf("save second: %v", err)
			}
			entries, err := a.List(ctx)
			if err != nil {
				t.Fatalf("list: %v", err)
			}
			if len(entries) != 2 || entries[0].Name != "another.v2" || entries[1].Name != "demo" || entries[1].Distributions != 3 {
				t.Fatalf("unexpected entries %+v", entries)
			}
			if ok, err := a.Remove(ctx, "demo"); !ok || err != nil {
				t.Fatalf("remove: %v %v", ok, err)
			}
			if _, err := a.Load(ctx, "demo"); !errors.Is(err, ErrNotFound) {
				t.Fatalf("expected not found after remove, got %v", err)
			}
			if ok, err := a.Remove(ctx, "demo"); ok || err != nil {
				t.Fatalf("second remove: %v %v", ok, err)
			}
		})
	}
}

func TestArchiveSaveOverwrites(t *testing.T) {
	a := New(memory.New())
	ctx := context.Background()
	if _, err := a.Save(ctx, "s", snapshot()); err != nil {
		t.Fatalf("save: %v", err)
	}
	if _, err := a.Save(ctx, "s", domain.NewSnapshot()); err != nil {
		t.Fatalf("overwrite: %v", err)
	}
	got, err := a.Load(ctx, "s")
	if err != nil || len(got.Distributions) != 0 {
		t.Fatalf("expected overwritten empty session, got %+v %v", got, err)
	}
}

func TestArchiveRawDocuments(t *testing.T) {
	a := New(memory.New())
	ctx := context.Background()
	data, err := session.Encode(snapshot())
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	if _, err := a.SaveRaw(ctx, "raw", data); err != nil {
		t.Fatalf("save raw: %v", err)
	}
	back, err := a.LoadRaw(ctx, "raw")
	if err != nil || string(back) != string(data) {
		t.Fatalf("raw mismatch: %v", err)
	}
	if _, err := a.SaveRaw(ctx, "bad", []byte("{")); !errors.Is(err, session.ErrDecode) {
		t.Fatalf("expected decode error, got %v", err)
	}
	if _, err := a.Store().Put(ctx, "sessions/corrupt.json", strings.NewReader("nope"), PutOptions{}); err != nil {
		t.Fatalf("put corrupt: %v", err)
	}
	if _, err := a.Load(ctx, "corrupt"); !errors.Is(err, session.ErrDecode) {
		t.Fatalf("expected decode error on load, got %v", err)
	}
}

func TestArchiveListSkipsForeignKeys(t *testing.T) {
	a := New(memory.New())
	ctx := context.Background()
	for _, k := range []string{"sessions/notes.txt", "sessions/nested/x.json", "other/y.json"} {
		if _, err := a.Store().Put(ctx, k, strings.NewReader("{}"), PutOptions{}); err != nil {
			t.Fatalf("put %s: %v", k, err)
		}
	}
	entries, err := a.List(ctx)
	if err != nil || len(entries) != 0 {
		t.Fatalf("expected no entries, got %+v %v", entries, err)
	}
}

func TestValidateName(t *testing.T) {
	for _, ok := range []string{"a", "demo-1", "run_2.final", "X"} {
		if err := ValidateName(ok); err != nil {
			t.Fatalf("%q: %v", ok, err)
		}
	}
	for _, bad := range []string{"", ".hidden", "a/b", "../x", "sp ace", strings.Repeat("x", maxNameLen+1)} {
		if err := ValidateName(bad); !errors.Is(err, ErrInvalidName) {
			t.Fatalf("%q: expected invalid name, got %v", bad, err)
		}
	}
	a := New(memory.New())
	if _, err := a.Save(context.Background(), "a/b", snapshot()); !errors.Is(err, ErrInvalidName) {
		t.Fatalf("expected invalid name on save, got %v", err)
	}
}

func TestOpenStoreDrivers(t *testing.T) {
	ctx := context.Background()
	s, err := OpenStore(ctx, config.Archive{Driver: config.ArchiveMemory})
	if err != nil || s.Driver() != DriverMemory {
		t.Fatalf("memory: %v %v", s, err)
	}
	if _, err := OpenStore(ctx, config.Archive{Driver: "ftp"}); err == nil {
		t.Fatalf("expected unknown driver error")
	}
	if _, err := OpenStore(ctx, config.Archive{Driver: config.ArchiveS3}); err == nil {
		t.Fatalf("expected missing bucket error")
	}
}
