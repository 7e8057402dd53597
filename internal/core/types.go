package core

import "pdfcore/pkg/domain"

type (
	Distribution       = domain.Distribution
	DistributionID     = domain.DistributionID
	DisplaySettings    = domain.DisplaySettings
	Snapshot           = domain.Snapshot
	Kind               = domain.Kind
	EntityType         = domain.EntityType
	Severity           = domain.Severity
	Change             = domain.Change
	Action             = domain.Action
	Violation          = domain.Violation
	Result             = domain.Result
	Rule               = domain.Rule
	RuleView           = domain.RuleView
	RulesEngine        = domain.RulesEngine
	RuleViolationError = domain.RuleViolationError
	PropagationReport  = domain.PropagationReport
)

const (
	KindLeaf    = domain.KindLeaf
	KindProduct = domain.KindProduct
)

const (
	EntityDistribution = domain.EntityDistribution
	EntitySettings     = domain.EntitySettings
)

const (
	SeverityBlock = domain.SeverityBlock
	SeverityWarn  = domain.SeverityWarn
	SeverityLog   = domain.SeverityLog
)

const (
	ActionCreate = domain.ActionCreate
	ActionUpdate = domain.ActionUpdate
	ActionDelete = domain.ActionDelete
)
