// Package session encodes and decodes session documents: every distribution
// record, the id allocator, and the display settings as indented JSON.
// Decoding is all-or-nothing: a document either yields a fully validated
// snapshot or a *DecodeError, never a partial result.
package session

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	"pdfcore/pkg/domain"
)

// CurrentVersion is the schema version written by Encode.
const CurrentVersion = 1

// ErrDecode is matched by every *DecodeError.
var ErrDecode = errors.New("session decode failed")

// DecodeError reports why a document could not be loaded.
type DecodeError struct {
	// Field locates the offending value, e.g. "distributions.3.std_dev".
	// Empty for whole-document failures.
	Field string
	Err   error
}

func (e *DecodeError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("decode session: %v", e.Err)
	}
	return fmt.Sprintf("decode session: %s: %v", e.Field, e.Err)
}

// Unwrap returns the underlying cause.
func (e *DecodeError) Unwrap() error { return e.Err }

// Is matches ErrDecode.
func (e *DecodeError) Is(target error) bool { return target == ErrDecode }

func decodeErr(field string, err error) error {
	return &DecodeError{Field: field, Err: err}
}

type outDocument struct {
	Version        int                   `json:"version"`
	Distributions  map[string]outRecord  `json:"distributions"`
	NextID         domain.DistributionID `json:"next_id"`
	ShowShading    bool                  `json:"show_shading"`
	ShadingOpacity float64               `json:"shading_opacity"`
	ShowStdMarkers bool                  `json:"show_std_markers"`
}

type outRecord struct {
	ID        domain.DistributionID   `json:"id"`
	Name      string                  `json:"name"`
	Mean      float64                 `json:"mean"`
	StdDev    float64                 `json:"std_dev"`
	ParentIDs []domain.DistributionID `json:"parent_ids"`
	Kind      domain.Kind             `json:"kind"`
	IsProduct bool                    `json:"is_product"`
}

// Encode serializes the snapshot. Product records carry their derived
// values since loading does not recompute them.
func Encode(snapshot domain.Snapshot) ([]byte, error) {
	doc := outDocument{
		Version:        CurrentVersion,
		Distributions:  make(map[string]outRecord, len(snapshot.Distributions)),
		NextID:         snapshot.NextID,
		ShowShading:    snapshot.Settings.ShowShading,
		ShadingOpacity: snapshot.Settings.ShadingOpacity,
		ShowStdMarkers: snapshot.Settings.ShowStdMarkers,
	}
	for id, d := range snapshot.Distributions {
		parents := d.ParentIDs
		if parents == nil {
			parents = []domain.DistributionID{}
		}
		doc.Distributions[id.String()] = outRecord{
			ID:        d.ID,
			Name:      d.Name,
			Mean:      d.Mean,
			StdDev:    d.StdDev,
			ParentIDs: parents,
			Kind:      d.Kind,
			IsProduct: d.IsProduct(),
		}
	}
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode session: %w", err)
	}
	return data, nil
}

type inDocument struct {
	Version        *int                   `json:"version"`
	Distributions  map[string]*inRecord   `json:"distributions"`
	NextID         *domain.DistributionID `json:"next_id"`
	ShowShading    *bool                  `json:"show_shading"`
	ShadingOpacity *float64               `json:"shading_opacity"`
	ShowStdMarkers *bool                  `json:"show_std_markers"`
}

type inRecord struct {
	ID        *domain.DistributionID  `json:"id"`
	Name      *string                 `json:"name"`
	Mean      *float64                `json:"mean"`
	StdDev    *float64                `json:"std_dev"`
	ParentIDs []domain.DistributionID `json:"parent_ids"`
	Kind      *domain.Kind            `json:"kind"`
	IsProduct *bool                   `json:"is_product"`
}

// Decode parses and validates a session document. Documents written before
// the version field existed, and records that carry only is_product, are
// accepted.
func Decode(data []byte) (domain.Snapshot, error) {
	var doc inDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return domain.Snapshot{}, decodeErr("", err)
	}
	if doc.Distributions == nil {
		return domain.Snapshot{}, decodeErr("distributions", errMissing)
	}
	if doc.NextID == nil {
		return domain.Snapshot{}, decodeErr("next_id", errMissing)
	}
	if doc.ShowShading == nil {
		return domain.Snapshot{}, decodeErr("show_shading", errMissing)
	}
	if doc.ShadingOpacity == nil {
		return domain.Snapshot{}, decodeErr("shading_opacity", errMissing)
	}
	if doc.ShowStdMarkers == nil {
		return domain.Snapshot{}, decodeErr("show_std_markers", errMissing)
	}

	snapshot := domain.Snapshot{
		Distributions: make(map[domain.DistributionID]domain.Distribution, len(doc.Distributions)),
		NextID:        *doc.NextID,
		Settings: domain.DisplaySettings{
			ShowShading:    *doc.ShowShading,
			ShadingOpacity: *doc.ShadingOpacity,
			ShowStdMarkers: *doc.ShowStdMarkers,
		},
	}
	for key, rec := range doc.Distributions {
		d, err := decodeRecord(key, rec)
		if err != nil {
			return domain.Snapshot{}, err
		}
		snapshot.Distributions[d.ID] = d
	}
	if err := snapshot.Validate(); err != nil {
		return domain.Snapshot{}, decodeErr("", err)
	}
	return snapshot, nil
}

var errMissing = errors.New("required field missing")

func decodeRecord(key string, rec *inRecord) (domain.Distribution, error) {
	field := "distributions." + key
	parsed, err := strconv.ParseUint(key, 10, 32)
	if err != nil {
		return domain.Distribution{}, decodeErr(field, fmt.Errorf("key is not a distribution id: %w", err))
	}
	if strconv.FormatUint(parsed, 10) != key {
		return domain.Distribution{}, decodeErr(field, fmt.Errorf("key %q is not in canonical decimal form", key))
	}
	if rec == nil {
		return domain.Distribution{}, decodeErr(field, errors.New("record is null"))
	}
	switch {
	case rec.ID == nil:
		return domain.Distribution{}, decodeErr(field+".id", errMissing)
	case rec.Name == nil:
		return domain.Distribution{}, decodeErr(field+".name", errMissing)
	case rec.Mean == nil:
		return domain.Distribution{}, decodeErr(field+".mean", errMissing)
	case rec.StdDev == nil:
		return domain.Distribution{}, decodeErr(field+".std_dev", errMissing)
	case rec.ParentIDs == nil:
		return domain.Distribution{}, decodeErr(field+".parent_ids", errMissing)
	}
	if domain.DistributionID(parsed) != *rec.ID {
		return domain.Distribution{}, decodeErr(field+".id", fmt.Errorf("id %s does not match key", *rec.ID))
	}
	kind, err := recordKind(rec)
	if err != nil {
		return domain.Distribution{}, decodeErr(field+".kind", err)
	}
	return domain.Distribution{
		ID:        *rec.ID,
		Name:      *rec.Name,
		Mean:      *rec.Mean,
		StdDev:    *rec.StdDev,
		ParentIDs: append([]domain.DistributionID{}, rec.ParentIDs...),
		Kind:      kind,
	}, nil
}

func recordKind(rec *inRecord) (domain.Kind, error) {
	if rec.Kind == nil {
		if rec.IsProduct == nil {
			return "", errors.New("neither kind nor is_product present")
		}
		if *rec.IsProduct {
			return domain.KindProduct, nil
		}
		return domain.KindLeaf, nil
	}
	kind := *rec.Kind
	if !kind.Valid() {
		return "", fmt.Errorf("unknown kind %q", kind)
	}
	if rec.IsProduct != nil && *rec.IsProduct != (kind == domain.KindProduct) {
		return "", fmt.Errorf("kind %q disagrees with is_product=%t", kind, *rec.IsProduct)
	}
	return kind, nil
}
