package synth

import (
	"fmt"

	"github.com/quillback/autoscout/internal/model"
)

// sharedDeliverables ship with every proposal regardless of category.
var sharedDeliverables = []string{
	"runbook documentation",
	"automated test suite",
	"integration guide",
}

// proposalTemplate generates a proposal's prose per pain category.
type proposalTemplate struct {
	titleFormat string
	descFormat  string
	specifics   []string
	metrics     []string
}

var templates = map[model.PainCategory]proposalTemplate{
	model.PainRepetitiveTask: {
		titleFormat: "Automate: %s",
		descFormat: "Build an automation that eliminates the repetitive work behind %q, " +
			"currently costing about %.0f minutes per week.",
		specifics: []string{
			"automation script or bot for the repeated task",
			"trigger configuration (schedule or event hook)",
		},
		metrics: []string{
			"weekly minutes on this task reduced by at least 80%",
			"zero manual invocations after rollout week two",
		},
	},
	model.PainRecurringError: {
		titleFormat: "Eliminate recurring failure: %s",
		descFormat: "Diagnose and fix the root cause of %q, then add guards so the failure " +
			"class cannot silently recur. Current remediation cost is about %.0f minutes per week.",
		specifics: []string{
			"root-cause fix with regression test",
			"automated detection and alerting for the failure class",
		},
		metrics: []string{
			"zero recurrences in the 30 days after delivery",
			"mean time to detect under 5 minutes",
		},
	},
	model.PainWorkflowBottleneck: {
		titleFormat: "Unblock workflow: %s",
		descFormat: "Restructure the workflow around %q to remove the waiting, " +
			"currently costing about %.0f minutes per week of idle time.",
		specifics: []string{
			"parallelized or queued workflow replacing the serial wait",
			"wait-time dashboard for the affected stage",
		},
		metrics: []string{
			"stage wait time reduced by at least 50%",
			"throughput of the affected workflow doubled",
		},
	},
	model.PainManualProcess: {
		titleFormat: "Digitize process: %s",
		descFormat: "Replace the manual process behind %q with a tool-assisted flow, " +
			"currently costing about %.0f minutes per week.",
		specifics: []string{
			"self-service tool replacing the manual steps",
			"migration of existing process state",
		},
		metrics: []string{
			"manual steps reduced to zero",
			"process completion time reduced by at least 60%",
		},
	},
}

func templateFor(category model.PainCategory) proposalTemplate {
	if tmpl, ok := templates[category]; ok {
		return tmpl
	}
	return templates[model.PainManualProcess]
}

func (t proposalTemplate) title(pp model.PainPoint) string {
	return fmt.Sprintf(t.titleFormat, pp.Description)
}

func (t proposalTemplate) description(pp model.PainPoint) string {
	return fmt.Sprintf(t.descFormat, pp.Description, pp.TimeCostMinPerWeek)
}

func (t proposalTemplate) deliverables(_ model.PainPoint) []string {
	out := append([]string(nil), t.specifics...)
	return append(out, sharedDeliverables...)
}

func (t proposalTemplate) successMetrics(_ model.PainPoint) []string {
	return append([]string(nil), t.metrics...)
}
