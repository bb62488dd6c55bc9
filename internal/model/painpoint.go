package model

// PainCategory names the class of problem a pain point represents.
type PainCategory string

// Pain point category constants.
const (
	PainRepetitiveTask     PainCategory = "repetitive_task"
	PainRecurringError     PainCategory = "recurring_error"
	PainWorkflowBottleneck PainCategory = "workflow_bottleneck"
	PainManualProcess      PainCategory = "manual_process"
)

// Severity ranks how badly a pain point hurts.
type Severity string

// Severity constants, ordered from least to most severe.
const (
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

// PainPoint is a classified, severity-ranked problem derived from one or more
// behavioral patterns. Created transiently per session; persisted only as part
// of the session record.
type PainPoint struct {
	ID                  string       `json:"id"`
	Category            PainCategory `json:"category"`
	Severity            Severity     `json:"severity"`
	Description         string       `json:"description"`
	SourcePatternIDs    []string     `json:"source_pattern_ids,omitempty"`
	TimeCostMinPerWeek  float64      `json:"time_cost_min_per_week"`
	AutomationPotential float64      `json:"automation_potential"`
}
