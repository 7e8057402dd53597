// Package memory provides the in-memory distribution store. It is the arena
// every other backend builds on: durable stores embed it and snapshot its
// state after each committed transaction.
package memory

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"sync"

	"pdfcore/pkg/domain"
	"pdfcore/pkg/gaussian"
)

// Compile-time contract assertion ensuring memory.Store adheres to the domain persistence interface.
var _ domain.PersistentStore = (*Store)(nil)

type (
	// Distribution aliases domain.Distribution.
	Distribution = domain.Distribution
	// DistributionID aliases domain.DistributionID.
	DistributionID = domain.DistributionID
	// DisplaySettings aliases domain.DisplaySettings.
	DisplaySettings = domain.DisplaySettings
	// Snapshot aliases domain.Snapshot.
	Snapshot = domain.Snapshot
	// Change aliases domain.Change captured in transactions.
	Change = domain.Change
	// Result aliases domain.Result summarizing rule evaluation.
	Result = domain.Result
	// RulesEngine aliases domain.RulesEngine used to evaluate rules.
	RulesEngine = domain.RulesEngine
	// Transaction aliases domain.Transaction representing a mutable unit of work.
	Transaction = domain.Transaction
	// TransactionView aliases domain.TransactionView providing read-only state.
	TransactionView = domain.TransactionView
	// PropagationReport aliases domain.PropagationReport.
	PropagationReport = domain.PropagationReport
)

type memoryState struct {
	distributions map[DistributionID]Distribution
	nextID        DistributionID
	settings      DisplaySettings
}

func newMemoryState() memoryState {
	return memoryState{
		distributions: make(map[DistributionID]Distribution),
		settings:      domain.DefaultDisplaySettings(),
	}
}

func (s memoryState) clone() memoryState {
	out := memoryState{
		distributions: make(map[DistributionID]Distribution, len(s.distributions)),
		nextID:        s.nextID,
		settings:      s.settings,
	}
	for id, d := range s.distributions {
		out.distributions[id] = d.Clone()
	}
	return out
}

func snapshotFromMemoryState(state memoryState) Snapshot {
	return Snapshot{
		Distributions: state.clone().distributions,
		NextID:        state.nextID,
		Settings:      state.settings,
	}
}

func memoryStateFromSnapshot(s Snapshot) memoryState {
	c := s.Clone()
	return memoryState{distributions: c.Distributions, nextID: c.NextID, settings: c.Settings}
}

// migrateSnapshot normalizes fields older or hand-built snapshots may leave
// unset so the arena never holds nil maps or nil parent lists.
func migrateSnapshot(snapshot Snapshot) Snapshot {
	if snapshot.Distributions == nil {
		snapshot.Distributions = map[DistributionID]Distribution{}
	}
	for id, d := range snapshot.Distributions {
		if d.ParentIDs == nil {
			d.ParentIDs = []DistributionID{}
		}
		if d.Kind == "" {
			d.Kind = domain.KindLeaf
			if len(d.ParentIDs) > 0 {
				d.Kind = domain.KindProduct
			}
		}
		snapshot.Distributions[id] = d
	}
	return snapshot
}

// Store provides an in-memory transactional store for distributions.
type Store struct {
	mu     sync.RWMutex
	state  memoryState
	engine *RulesEngine
	last   PropagationReport
}

// NewStore constructs an in-memory store backed by the provided rules engine.
func NewStore(engine *RulesEngine) *Store {
	if engine == nil {
		engine = domain.NewRulesEngine()
	}
	return &Store{
		state:  newMemoryState(),
		engine: engine,
	}
}

// ExportState clones the current store state for external persistence.
func (s *Store) ExportState() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return snapshotFromMemoryState(s.state)
}

// ImportState replaces the store state with the provided snapshot. The
// snapshot is validated first; on error the live state is untouched. Product
// parameters are taken as stored and not recomputed.
func (s *Store) ImportState(_ context.Context, snapshot Snapshot) error {
	migrated := migrateSnapshot(snapshot.Clone())
	if err := migrated.Validate(); err != nil {
		return fmt.Errorf("import state: %w", err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = memoryStateFromSnapshot(migrated)
	s.last = PropagationReport{}
	return nil
}

// RulesEngine exposes the currently configured engine for integration points like plugins.
func (s *Store) RulesEngine() *RulesEngine {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.engine
}

// LastPropagation returns the report of the most recent committed pass.
func (s *Store) LastPropagation() PropagationReport {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cloneReport(s.last)
}

type transaction struct {
	state   memoryState
	changes []Change
}

type transactionView struct {
	state *memoryState
}

func newTransactionView(state *memoryState) TransactionView {
	return transactionView{state: state}
}

// ListDistributions returns every distribution ordered by id.
func (v transactionView) ListDistributions() []Distribution {
	return sortedDistributions(v.state.distributions)
}

// FindDistribution looks up a distribution by id.
func (v transactionView) FindDistribution(id DistributionID) (Distribution, bool) {
	d, ok := v.state.distributions[id]
	if !ok {
		return Distribution{}, false
	}
	return d.Clone(), true
}

// Settings returns the display settings.
func (v transactionView) Settings() DisplaySettings { return v.state.settings }

// NextID returns the id the next created distribution will receive.
func (v transactionView) NextID() DistributionID { return v.state.nextID }

// RunInTransaction executes fn within a transactional copy of the store state.
// When fn recorded changes, the propagation pass runs before the rules engine
// sees the state, so rules and callers never observe stale products.
func (s *Store) RunInTransaction(ctx context.Context, fn func(tx Transaction) error) (Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx := &transaction{state: s.state.clone()}
	if err := fn(tx); err != nil {
		return Result{}, err
	}

	report := s.last
	if len(tx.changes) > 0 {
		var err error
		report, err = tx.propagate()
		if err != nil {
			return Result{}, err
		}
	}

	var result Result
	if s.engine != nil {
		view := newTransactionView(&tx.state)
		res, err := s.engine.Evaluate(ctx, view, tx.changes)
		if err != nil {
			return Result{}, err
		}
		result = res
		if res.HasBlocking() {
			return res, domain.RuleViolationError{Result: res}
		}
	}

	s.state = tx.state
	s.last = report
	return result, nil
}

// View executes fn against a read-only snapshot of the store state.
func (s *Store) View(_ context.Context, fn func(TransactionView) error) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snapshot := s.state.clone()
	return fn(newTransactionView(&snapshot))
}

// GetDistribution returns a distribution by id.
func (s *Store) GetDistribution(id DistributionID) (Distribution, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	d, ok := s.state.distributions[id]
	if !ok {
		return Distribution{}, false
	}
	return d.Clone(), true
}

// ListDistributions returns all distributions ordered by id.
func (s *Store) ListDistributions() []Distribution {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return sortedDistributions(s.state.distributions)
}

// Settings returns the current display settings.
func (s *Store) Settings() DisplaySettings {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.settings
}

func (tx *transaction) recordChange(change Change) {
	tx.changes = append(tx.changes, change)
}

// Snapshot returns a read-only view over the transactional state.
func (tx *transaction) Snapshot() TransactionView {
	return newTransactionView(&tx.state)
}

// FindDistribution exposes lookup within the transaction scope.
func (tx *transaction) FindDistribution(id DistributionID) (Distribution, bool) {
	return newTransactionView(&tx.state).FindDistribution(id)
}

// allocate issues the next id. MaxUint32 itself is never issued since the
// allocator position must stay above every stored id.
func (tx *transaction) allocate() (DistributionID, error) {
	id := tx.state.nextID
	if id == math.MaxUint32 {
		return 0, domain.ErrIDsExhausted
	}
	tx.state.nextID++
	return id, nil
}

// CreateLeaf stores a new directly edited distribution.
func (tx *transaction) CreateLeaf(name string, mean, stdDev float64) (Distribution, error) {
	if err := domain.ValidateParameters(mean, stdDev); err != nil {
		return Distribution{}, err
	}
	id, err := tx.allocate()
	if err != nil {
		return Distribution{}, err
	}
	d := Distribution{
		ID:        id,
		Name:      name,
		Mean:      mean,
		StdDev:    stdDev,
		ParentIDs: []DistributionID{},
		Kind:      domain.KindLeaf,
	}
	tx.state.distributions[d.ID] = d
	tx.recordChange(Change{Entity: domain.EntityDistribution, Action: domain.ActionCreate, After: d.Clone()})
	return d.Clone(), nil
}

// CreateProduct stores a distribution derived from parentIDs. Parent order
// and duplicates are preserved.
func (tx *transaction) CreateProduct(name string, parentIDs []DistributionID) (Distribution, error) {
	params := make([]gaussian.Params, 0, len(parentIDs))
	var missing []DistributionID
	for _, pid := range parentIDs {
		parent, ok := tx.state.distributions[pid]
		if !ok {
			missing = append(missing, pid)
			continue
		}
		params = append(params, parent.Params())
	}
	if len(params) < 2 {
		return Distribution{}, domain.InsufficientParentsError{Requested: len(parentIDs), Resolved: len(params)}
	}
	if len(missing) > 0 {
		return Distribution{}, domain.UnknownIDError{ID: missing[0]}
	}
	id, err := tx.allocate()
	if err != nil {
		return Distribution{}, err
	}
	product := gaussian.Product(params...)
	d := Distribution{
		ID:        id,
		Name:      name,
		Mean:      product.Mean,
		StdDev:    product.StdDev,
		ParentIDs: append([]DistributionID(nil), parentIDs...),
		Kind:      domain.KindProduct,
	}
	tx.state.distributions[d.ID] = d
	tx.recordChange(Change{Entity: domain.EntityDistribution, Action: domain.ActionCreate, After: d.Clone()})
	return d.Clone(), nil
}

// SetParameters edits a leaf. Products are derived and cannot be edited.
func (tx *transaction) SetParameters(id DistributionID, mean, stdDev float64) (Distribution, error) {
	current, ok := tx.state.distributions[id]
	if !ok {
		return Distribution{}, domain.UnknownIDError{ID: id}
	}
	if current.IsProduct() {
		return Distribution{}, domain.InvalidParameterError{ID: id, Reason: "product parameters are derived from parents"}
	}
	if err := domain.ValidateParameters(mean, stdDev); err != nil {
		var ipe domain.InvalidParameterError
		if errors.As(err, &ipe) {
			ipe.ID = id
			return Distribution{}, ipe
		}
		return Distribution{}, err
	}
	before := current.Clone()
	current.Mean = mean
	current.StdDev = stdDev
	tx.state.distributions[id] = current
	tx.recordChange(Change{Entity: domain.EntityDistribution, Action: domain.ActionUpdate, Before: before, After: current.Clone()})
	return current.Clone(), nil
}

// DeleteDistribution removes exactly one record. Products referencing it
// keep their last values.
func (tx *transaction) DeleteDistribution(id DistributionID) error {
	current, ok := tx.state.distributions[id]
	if !ok {
		return domain.UnknownIDError{ID: id}
	}
	delete(tx.state.distributions, id)
	tx.recordChange(Change{Entity: domain.EntityDistribution, Action: domain.ActionDelete, Before: current.Clone()})
	return nil
}

// UpdateSettings mutates the display settings using the provided mutator.
func (tx *transaction) UpdateSettings(mutator func(*DisplaySettings) error) (DisplaySettings, error) {
	before := tx.state.settings
	next := before
	if err := mutator(&next); err != nil {
		return DisplaySettings{}, err
	}
	if err := next.Validate(); err != nil {
		return DisplaySettings{}, err
	}
	tx.state.settings = next
	tx.recordChange(Change{Entity: domain.EntitySettings, Action: domain.ActionUpdate, Before: before, After: next})
	return next, nil
}

func sortedDistributions(dists map[DistributionID]Distribution) []Distribution {
	out := make([]Distribution, 0, len(dists))
	for _, d := range dists {
		out = append(out, d.Clone())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func cloneReport(r PropagationReport) PropagationReport {
	return PropagationReport{
		Recomputed: append([]DistributionID(nil), r.Recomputed...),
		Stale:      append([]DistributionID(nil), r.Stale...),
	}
}
