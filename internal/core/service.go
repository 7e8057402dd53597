// Package core is the inbound and outbound surface of a distribution
// session. The Service runs every edit through a store transaction (which
// propagates product updates before commit), records logs, metrics, spans,
// and audit entries per operation, and serves plot data from the committed
// state.
package core

import (
	"context"
	"errors"
	"fmt"
	"time"

	"pdfcore/internal/archive"
	"pdfcore/internal/infra/persistence/memory"
	"pdfcore/internal/sampler"
	"pdfcore/internal/session"
	"pdfcore/pkg/domain"
	"pdfcore/pkg/gaussian"
)

// Operation names used for logs, metrics, spans, and audit entries.
const (
	OpCreateLeaf          = "create_leaf"
	OpCreateProduct       = "create_product"
	OpSetLeafParameters   = "set_leaf_parameters"
	OpDeleteDistribution  = "delete_distribution"
	OpUpdateSettings      = "update_settings"
	OpEnsureDefault       = "ensure_default"
	OpPropagate           = "propagate"
	OpSaveSession         = "save_session"
	OpLoadSession         = "load_session"
	OpArchiveSession      = "archive_session"
	OpRestoreSession      = "restore_session"
	OpListArchived        = "list_archived_sessions"
	OpDeleteArchived      = "delete_archived_session"
	defaultLeafNameFormat = "Gaussian %d"
	defaultProductFormat  = "Product %d"
)

type auditTarget struct {
	entity EntityType
	action Action
}

var auditedOperations = map[string]auditTarget{
	OpCreateLeaf:         {EntityDistribution, ActionCreate},
	OpCreateProduct:      {EntityDistribution, ActionCreate},
	OpSetLeafParameters:  {EntityDistribution, ActionUpdate},
	OpDeleteDistribution: {EntityDistribution, ActionDelete},
	OpUpdateSettings:     {EntitySettings, ActionUpdate},
	OpEnsureDefault:      {EntityDistribution, ActionCreate},
	OpLoadSession:        {EntityDistribution, ActionUpdate},
	OpRestoreSession:     {EntityDistribution, ActionUpdate},
}

// ErrNoArchive is returned by archive operations on a service built without
// WithArchive.
var ErrNoArchive = errors.New("session archive not configured")

// Service exposes transactional session operations over a PersistentStore.
type Service struct {
	store      PersistentStore
	archive    *archive.Archive
	plugins    map[string]PluginMetadata
	logger     Logger
	metrics    MetricsRecorder
	tracer     Tracer
	audit      AuditRecorder
	clock      Clock
	resolution int
}

// NewService constructs a service backed by the supplied store.
func NewService(store PersistentStore, opts ...ServiceOption) *Service {
	s := &Service{
		store:      store,
		plugins:    make(map[string]PluginMetadata),
		logger:     noopLogger{},
		metrics:    noopMetrics{},
		tracer:     noopTracer{},
		audit:      noopAudit{},
		clock:      ClockFunc(func() time.Time { return time.Now().UTC() }),
		resolution: sampler.DefaultResolution,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// NewInMemoryService creates a service over a fresh in-memory store.
func NewInMemoryService(engine *RulesEngine, opts ...ServiceOption) *Service {
	return NewService(memory.NewStore(engine), opts...)
}

// Store returns the underlying storage implementation.
func (s *Service) Store() PersistentStore { return s.store }

// Resolution returns the curve sample count used by Frame.
func (s *Service) Resolution() int { return s.resolution }

func (s *Service) run(ctx context.Context, op string, fn func(context.Context) (string, error)) error {
	ctx, span := s.tracer.Start(ctx, op)
	start := time.Now()
	entityID, err := fn(ctx)
	elapsed := time.Since(start)
	span.End(err)
	s.metrics.Observe(ctx, op, err == nil, elapsed)
	if err != nil {
		s.logger.Error("operation failed", "operation", op, "error", err, "duration", elapsed)
	} else {
		s.logger.Debug("operation completed", "operation", op, "entity_id", entityID, "duration", elapsed)
	}
	s.recordAudit(ctx, op, entityID, elapsed, err)
	return err
}

func (s *Service) recordAudit(ctx context.Context, op, entityID string, duration time.Duration, err error) {
	target, ok := auditedOperations[op]
	if !ok {
		return
	}
	entry := AuditEntry{
		Operation: op,
		Entity:    target.entity,
		Action:    target.action,
		EntityID:  entityID,
		Status:    AuditStatusSuccess,
		Duration:  duration,
		Timestamp: s.clock.Now(),
	}
	if err != nil {
		entry.Status = AuditStatusError
		entry.Error = err.Error()
	}
	s.audit.Record(ctx, entry)
}

// mutate runs fn in a store transaction and reports warnings and the
// propagation outcome.
func (s *Service) mutate(ctx context.Context, op string, fn func(Transaction) error) (Result, error) {
	res, err := s.store.RunInTransaction(ctx, fn)
	if err != nil {
		return res, err
	}
	s.afterCommit(ctx, op, res)
	return res, nil
}

func (s *Service) afterCommit(ctx context.Context, op string, res Result) {
	for _, v := range res.BySeverity(SeverityWarn) {
		s.logger.Warn("rule warning", "operation", op, "rule", v.Rule, "distribution", v.EntityID.String(), "message", v.Message)
	}
	if pr, ok := s.metrics.(PropagationRecorder); ok {
		pr.ObservePropagation(ctx, s.store.LastPropagation(), len(s.store.ListDistributions()))
	}
}

// createdID is the audit entity id of a create operation, empty on failure.
func createdID(d Distribution, err error) string {
	if err != nil {
		return ""
	}
	return d.ID.String()
}

// CreateLeaf adds a directly edited distribution. An empty name becomes
// "Gaussian N" where N is one past the allocated id.
func (s *Service) CreateLeaf(ctx context.Context, name string, mean, stdDev float64) (Distribution, Result, error) {
	var created Distribution
	var res Result
	err := s.run(ctx, OpCreateLeaf, func(ctx context.Context) (string, error) {
		var err error
		res, err = s.mutate(ctx, OpCreateLeaf, func(tx Transaction) error {
			if name == "" {
				name = fmt.Sprintf(defaultLeafNameFormat, tx.Snapshot().NextID()+1)
			}
			created, err = tx.CreateLeaf(name, mean, stdDev)
			return err
		})
		return createdID(created, err), err
	})
	return created, res, err
}

// CreateProduct derives a distribution from parentIDs, kept in the given
// order. An empty name becomes "Product N".
func (s *Service) CreateProduct(ctx context.Context, name string, parentIDs []DistributionID) (Distribution, Result, error) {
	var created Distribution
	var res Result
	err := s.run(ctx, OpCreateProduct, func(ctx context.Context) (string, error) {
		var err error
		res, err = s.mutate(ctx, OpCreateProduct, func(tx Transaction) error {
			if name == "" {
				name = fmt.Sprintf(defaultProductFormat, tx.Snapshot().NextID()+1)
			}
			created, err = tx.CreateProduct(name, parentIDs)
			return err
		})
		return createdID(created, err), err
	})
	return created, res, err
}

// CreateProductFromSelection multiplies the selected distributions in
// selection order and clears the selection on success.
func (s *Service) CreateProductFromSelection(ctx context.Context, name string, sel *Selection) (Distribution, Result, error) {
	d, res, err := s.CreateProduct(ctx, name, sel.IDs())
	if err != nil {
		return d, res, err
	}
	sel.Clear()
	return d, res, nil
}

// SetLeafParameters edits a leaf; dependent products are recomputed before
// the call returns.
func (s *Service) SetLeafParameters(ctx context.Context, id DistributionID, mean, stdDev float64) (Distribution, Result, error) {
	var updated Distribution
	var res Result
	err := s.run(ctx, OpSetLeafParameters, func(ctx context.Context) (string, error) {
		var err error
		res, err = s.mutate(ctx, OpSetLeafParameters, func(tx Transaction) error {
			updated, err = tx.SetParameters(id, mean, stdDev)
			return err
		})
		return id.String(), err
	})
	return updated, res, err
}

// DeleteDistribution removes one record. Dependent products are frozen at
// their last values. Every given selection is pruned to the ids still stored.
func (s *Service) DeleteDistribution(ctx context.Context, id DistributionID, selections ...*Selection) (Result, error) {
	var res Result
	err := s.run(ctx, OpDeleteDistribution, func(ctx context.Context) (string, error) {
		var err error
		res, err = s.mutate(ctx, OpDeleteDistribution, func(tx Transaction) error {
			return tx.DeleteDistribution(id)
		})
		return id.String(), err
	})
	if err == nil {
		for _, sel := range selections {
			sel.Prune(s.exists)
		}
	}
	return res, err
}

// UpdateSettings applies mutator to the display settings.
func (s *Service) UpdateSettings(ctx context.Context, mutator func(*DisplaySettings) error) (DisplaySettings, Result, error) {
	var updated DisplaySettings
	var res Result
	err := s.run(ctx, OpUpdateSettings, func(ctx context.Context) (string, error) {
		var err error
		res, err = s.mutate(ctx, OpUpdateSettings, func(tx Transaction) error {
			updated, err = tx.UpdateSettings(mutator)
			return err
		})
		return "", err
	})
	return updated, res, err
}

// EnsureDefault seeds a standard normal leaf into an empty session and
// reports whether it did.
func (s *Service) EnsureDefault(ctx context.Context) (bool, error) {
	seeded := false
	err := s.run(ctx, OpEnsureDefault, func(ctx context.Context) (string, error) {
		var created Distribution
		_, err := s.mutate(ctx, OpEnsureDefault, func(tx Transaction) error {
			if len(tx.Snapshot().ListDistributions()) > 0 {
				return nil
			}
			var err error
			created, err = tx.CreateLeaf(fmt.Sprintf(defaultLeafNameFormat, tx.Snapshot().NextID()+1), 0, 1)
			seeded = err == nil
			return err
		})
		if !seeded {
			return "", err
		}
		return createdID(created, err), err
	})
	return seeded && err == nil, err
}

// Propagate runs an explicit propagation pass over the committed state.
func (s *Service) Propagate(ctx context.Context) (PropagationReport, error) {
	var report PropagationReport
	err := s.run(ctx, OpPropagate, func(ctx context.Context) (string, error) {
		var err error
		report, err = s.store.Propagate(ctx)
		if err == nil {
			s.afterCommit(ctx, OpPropagate, Result{})
		}
		return "", err
	})
	return report, err
}

// SaveSession encodes the committed session.
func (s *Service) SaveSession(ctx context.Context) ([]byte, error) {
	var data []byte
	err := s.run(ctx, OpSaveSession, func(context.Context) (string, error) {
		var err error
		data, err = session.Encode(s.store.ExportState())
		return "", err
	})
	return data, err
}

// LoadSession decodes data and swaps it in whole. On failure the live
// session is untouched; on success sel is cleared.
func (s *Service) LoadSession(ctx context.Context, data []byte, sel *Selection) error {
	return s.run(ctx, OpLoadSession, func(ctx context.Context) (string, error) {
		snapshot, err := session.Decode(data)
		if err != nil {
			return "", err
		}
		return "", s.importSnapshot(ctx, snapshot, sel)
	})
}

func (s *Service) importSnapshot(ctx context.Context, snapshot Snapshot, sel *Selection) error {
	if err := s.store.ImportState(ctx, snapshot); err != nil {
		return err
	}
	sel.Clear()
	s.logger.Info("session loaded", "distributions", len(snapshot.Distributions), "next_id", snapshot.NextID.String())
	return nil
}

// ArchiveSession saves the committed session under name.
func (s *Service) ArchiveSession(ctx context.Context, name string) (archive.Entry, error) {
	var entry archive.Entry
	err := s.run(ctx, OpArchiveSession, func(ctx context.Context) (string, error) {
		if s.archive == nil {
			return name, ErrNoArchive
		}
		var err error
		entry, err = s.archive.Save(ctx, name, s.store.ExportState())
		return name, err
	})
	return entry, err
}

// RestoreSession loads the named archived session, with LoadSession's
// all-or-nothing semantics.
func (s *Service) RestoreSession(ctx context.Context, name string, sel *Selection) error {
	return s.run(ctx, OpRestoreSession, func(ctx context.Context) (string, error) {
		if s.archive == nil {
			return name, ErrNoArchive
		}
		snapshot, err := s.archive.Load(ctx, name)
		if err != nil {
			return name, err
		}
		return name, s.importSnapshot(ctx, snapshot, sel)
	})
}

// ListArchivedSessions lists archived sessions ordered by name.
func (s *Service) ListArchivedSessions(ctx context.Context) ([]archive.Entry, error) {
	var entries []archive.Entry
	err := s.run(ctx, OpListArchived, func(ctx context.Context) (string, error) {
		if s.archive == nil {
			return "", ErrNoArchive
		}
		var err error
		entries, err = s.archive.List(ctx)
		return "", err
	})
	return entries, err
}

// DeleteArchivedSession removes an archived session, reporting whether it
// existed.
func (s *Service) DeleteArchivedSession(ctx context.Context, name string) (bool, error) {
	var removed bool
	err := s.run(ctx, OpDeleteArchived, func(ctx context.Context) (string, error) {
		if s.archive == nil {
			return name, ErrNoArchive
		}
		var err error
		removed, err = s.archive.Remove(ctx, name)
		return name, err
	})
	return removed, err
}

// List returns every distribution ordered by id.
func (s *Service) List() []Distribution { return s.store.ListDistributions() }

// Get returns one distribution.
func (s *Service) Get(id DistributionID) (Distribution, bool) { return s.store.GetDistribution(id) }

// Settings returns the committed display settings.
func (s *Service) Settings() DisplaySettings { return s.store.Settings() }

// LastPropagation returns the report of the most recent propagation pass.
func (s *Service) LastPropagation() PropagationReport { return s.store.LastPropagation() }

func (s *Service) exists(id DistributionID) bool {
	_, ok := s.store.GetDistribution(id)
	return ok
}

func (s *Service) lookup(id DistributionID) (Distribution, error) {
	d, ok := s.store.GetDistribution(id)
	if !ok {
		return Distribution{}, domain.UnknownIDError{ID: id}
	}
	return d, nil
}

// Curve samples the distribution's density over view at n points.
func (s *Service) Curve(id DistributionID, view sampler.View, n int) ([]sampler.Point, error) {
	d, err := s.lookup(id)
	if err != nil {
		return nil, err
	}
	return sampler.Curve(d.Params(), view, n)
}

// FillPolygon returns the area-under-curve outline with n interior vertices.
func (s *Service) FillPolygon(id DistributionID, view sampler.View, n int) ([]sampler.Point, error) {
	d, err := s.lookup(id)
	if err != nil {
		return nil, err
	}
	return sampler.FillPolygon(d.Params(), view, n)
}

// Markers returns the seven sigma marker positions of the distribution.
func (s *Service) Markers(id DistributionID) ([7]float64, error) {
	d, err := s.lookup(id)
	if err != nil {
		return [7]float64{}, err
	}
	return sampler.Markers(d.Params()), nil
}

// AutoFit frames every distribution in the session.
func (s *Service) AutoFit() (sampler.Bounds, bool) {
	dists := s.store.ListDistributions()
	ps := make([]gaussian.Params, 0, len(dists))
	for _, d := range dists {
		ps = append(ps, d.Params())
	}
	return sampler.AutoFit(ps)
}

// Frame samples every distribution over view at the configured resolution,
// honoring the display settings.
func (s *Service) Frame(view sampler.View) ([]sampler.Trace, error) {
	return sampler.Frame(s.store.ListDistributions(), s.store.Settings(), view, s.resolution)
}
