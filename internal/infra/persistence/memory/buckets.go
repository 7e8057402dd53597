package memory

import (
	"encoding/json"
	"fmt"

	"pdfcore/pkg/domain"
)

// State bucket names used by the durable snapshot stores.
const (
	BucketDistributions = "distributions"
	BucketAllocator     = "allocator"
	BucketSettings      = "settings"
)

// Buckets lists every state bucket in write order.
var Buckets = []string{BucketDistributions, BucketAllocator, BucketSettings}

type allocatorPayload struct {
	NextID DistributionID `json:"next_id"`
}

// EncodeBuckets splits a snapshot into the JSON payloads stored per bucket.
func EncodeBuckets(snapshot Snapshot) (map[string][]byte, error) {
	out := make(map[string][]byte, len(Buckets))
	var err error
	if out[BucketDistributions], err = json.Marshal(snapshot.Sorted()); err != nil {
		return nil, fmt.Errorf("encode %s: %w", BucketDistributions, err)
	}
	if out[BucketAllocator], err = json.Marshal(allocatorPayload{NextID: snapshot.NextID}); err != nil {
		return nil, fmt.Errorf("encode %s: %w", BucketAllocator, err)
	}
	if out[BucketSettings], err = json.Marshal(snapshot.Settings); err != nil {
		return nil, fmt.Errorf("encode %s: %w", BucketSettings, err)
	}
	return out, nil
}

// DecodeBuckets rebuilds a snapshot from stored payloads. Missing buckets
// fall back to an empty session; unknown buckets are ignored.
func DecodeBuckets(payloads map[string][]byte) (Snapshot, error) {
	snapshot := domain.NewSnapshot()
	if data := payloads[BucketDistributions]; len(data) > 0 {
		var list []Distribution
		if err := json.Unmarshal(data, &list); err != nil {
			return Snapshot{}, fmt.Errorf("decode %s: %w", BucketDistributions, err)
		}
		for _, d := range list {
			snapshot.Distributions[d.ID] = d
		}
	}
	if data := payloads[BucketAllocator]; len(data) > 0 {
		var alloc allocatorPayload
		if err := json.Unmarshal(data, &alloc); err != nil {
			return Snapshot{}, fmt.Errorf("decode %s: %w", BucketAllocator, err)
		}
		snapshot.NextID = alloc.NextID
	}
	if data := payloads[BucketSettings]; len(data) > 0 {
		if err := json.Unmarshal(data, &snapshot.Settings); err != nil {
			return Snapshot{}, fmt.Errorf("decode %s: %w", BucketSettings, err)
		}
	}
	return snapshot, nil
}
