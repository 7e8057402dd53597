// Package archive stores named session documents in an object store. The
// backend is chosen by configuration: a local directory, process memory, or
// an S3-compatible bucket.
package archive

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"pdfcore/internal/archive/core"
	"pdfcore/internal/session"
	"pdfcore/pkg/domain"
)

type (
	// Driver identifies an archive backend driver.
	Driver = core.Driver
	// PutOptions configures an object write.
	PutOptions = core.PutOptions
	// Info describes stored object metadata.
	Info = core.Info
	// Store is the interface archive backends implement.
	Store = core.Store
)

const (
	DriverFilesystem = core.DriverFilesystem
	DriverS3         = core.DriverS3
	DriverMemory     = core.DriverMemory
)

var (
	ErrNotFound   = core.ErrNotFound
	ErrInvalidKey = core.ErrInvalidKey
	// ErrInvalidName rejects session names that cannot be used as a key.
	ErrInvalidName = errors.New("archive: invalid session name")
)

const (
	keyPrefix   = "sessions/"
	keySuffix   = ".json"
	contentType = "application/json"
	// maxNameLen keeps keys well inside S3's 1024 byte limit.
	maxNameLen = 200
)

// Entry describes one archived session.
type Entry struct {
	Name          string    `json:"name"`
	Size          int64     `json:"size_bytes"`
	SavedAt       time.Time `json:"saved_at"`
	Version       int       `json:"version,omitempty"`
	Distributions int       `json:"distributions,omitempty"`
}

// Archive saves and restores session snapshots by name.
type Archive struct {
	store Store
}

// New wraps an object store.
func New(store Store) *Archive { return &Archive{store: store} }

// Store returns the underlying object store.
func (a *Archive) Store() Store { return a.store }

// ValidateName accepts names made of letters, digits, '-', '_', and '.',
// not starting with '.'.
func ValidateName(name string) error {
	if name == "" || len(name) > maxNameLen || strings.HasPrefix(name, ".") {
		return fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_', r == '.':
		default:
			return fmt.Errorf("%w: %q contains %q", ErrInvalidName, name, r)
		}
	}
	return nil
}

func keyFor(name string) (string, error) {
	if err := ValidateName(name); err != nil {
		return "", err
	}
	return keyPrefix + name + keySuffix, nil
}

// Save encodes snapshot and writes it under name, replacing any earlier
// document with that name.
func (a *Archive) Save(ctx context.Context, name string, snapshot domain.Snapshot) (Entry, error) {
	key, err := keyFor(name)
	if err != nil {
		return Entry{}, err
	}
	data, err := session.Encode(snapshot)
	if err != nil {
		return Entry{}, err
	}
	return a.put(ctx, name, key, data, len(snapshot.Distributions))
}

// SaveRaw writes an already encoded document. The payload is validated
// by decoding before it is stored.
func (a *Archive) SaveRaw(ctx context.Context, name string, data []byte) (Entry, error) {
	key, err := keyFor(name)
	if err != nil {
		return Entry{}, err
	}
	snapshot, err := session.Decode(data)
	if err != nil {
		return Entry{}, err
	}
	return a.put(ctx, name, key, data, len(snapshot.Distributions))
}

func (a *Archive) put(ctx context.Context, name, key string, data []byte, count int) (Entry, error) {
	info, err := a.store.Put(ctx, key, bytes.NewReader(data), PutOptions{
		ContentType: contentType,
		Metadata: map[string]string{
			"version":       strconv.Itoa(session.CurrentVersion),
			"distributions": strconv.Itoa(count),
		},
	})
	if err != nil {
		return Entry{}, fmt.Errorf("archive %s: %w", name, err)
	}
	return entryFrom(name, info), nil
}

// Load reads and decodes the named session.
func (a *Archive) Load(ctx context.Context, name string) (domain.Snapshot, error) {
	data, err := a.LoadRaw(ctx, name)
	if err != nil {
		return domain.Snapshot{}, err
	}
	snapshot, err := session.Decode(data)
	if err != nil {
		return domain.Snapshot{}, fmt.Errorf("restore %s: %w", name, err)
	}
	return snapshot, nil
}

// LoadRaw returns the stored document bytes without decoding them.
func (a *Archive) LoadRaw(ctx context.Context, name string) ([]byte, error) {
	key, err := keyFor(name)
	if err != nil {
		return nil, err
	}
	_, rc, err := a.store.Get(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("restore %s: %w", name, err)
	}
	defer func() { _ = rc.Close() }()
	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, fmt.Errorf("restore %s: %w", name, err)
	}
	return data, nil
}

// List returns archived sessions ordered by name.
func (a *Archive) List(ctx context.Context) ([]Entry, error) {
	infos, err := a.store.List(ctx, keyPrefix)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	entries := make([]Entry, 0, len(infos))
	for _, info := range infos {
		name, ok := strings.CutSuffix(strings.TrimPrefix(info.Key, keyPrefix), keySuffix)
		if !ok || ValidateName(name) != nil {
			continue
		}
		if info.Metadata == nil && a.store.Driver() == DriverS3 {
			if head, err := a.store.Head(ctx, info.Key); err == nil {
				info.Metadata = head.Metadata
			}
		}
		entries = append(entries, entryFrom(name, info))
	}
	return entries, nil
}

// Remove deletes the named session, reporting whether it existed.
func (a *Archive) Remove(ctx context.Context, name string) (bool, error) {
	key, err := keyFor(name)
	if err != nil {
		return false, err
	}
	ok, err := a.store.Delete(ctx, key)
	if err != nil {
		return false, fmt.Errorf("remove %s: %w", name, err)
	}
	return ok, nil
}

func entryFrom(name string, info Info) Entry {
	e := Entry{Name: name, Size: info.Size, SavedAt: info.LastModified}
	e.Version, _ = strconv.Atoi(info.Metadata["version"])
	e.Distributions, _ = strconv.Atoi(info.Metadata["distributions"])
	return e
}
