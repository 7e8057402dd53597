package domain

import "context"

// Transaction exposes the mutations a persistence implementation must support
// within an atomic scope. Propagation runs once fn returns, before commit.
type Transaction interface {
	Snapshot() TransactionView
	FindDistribution(id DistributionID) (Distribution, bool)
	CreateLeaf(name string, mean, stdDev float64) (Distribution, error)
	CreateProduct(name string, parentIDs []DistributionID) (Distribution, error)
	SetParameters(id DistributionID, mean, stdDev float64) (Distribution, error)
	DeleteDistribution(id DistributionID) error
	UpdateSettings(mutator func(*DisplaySettings) error) (DisplaySettings, error)
}

// TransactionView provides read-only access to snapshot data for rules.
type TransactionView interface {
	RuleView
	NextID() DistributionID
}

// PropagationReport summarizes one propagation pass.
type PropagationReport struct {
	// Recomputed lists products whose parameters were rederived, in pass order.
	Recomputed []DistributionID
	// Stale lists products left at their last values because a parent is missing.
	Stale []DistributionID
}

// PersistentStore is a minimal abstraction over durable backends. It mirrors
// the subset of store capabilities used directly by higher layers.
type PersistentStore interface {
	RunInTransaction(ctx context.Context, fn func(Transaction) error) (Result, error)
	View(ctx context.Context, fn func(TransactionView) error) error
	Propagate(ctx context.Context) (PropagationReport, error)
	GetDistribution(id DistributionID) (Distribution, bool)
	ListDistributions() []Distribution
	Settings() DisplaySettings
	ExportState() Snapshot
	ImportState(ctx context.Context, snapshot Snapshot) error
	LastPropagation() PropagationReport
	RulesEngine() *RulesEngine
}
