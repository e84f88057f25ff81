package harness

import (
	"github.com/roach88/nftreg/internal/metrics"
)

// Trace phases.
const (
	PhaseSetup = "setup"
	PhaseFlow  = "flow"
)

// TraceStep records one executed step: what was called, how it ended and
// which events it committed. Identities are rendered as account names.
type TraceStep struct {
	Phase   string           `json:"phase"`
	Op      string           `json:"op"`
	Caller  string           `json:"caller,omitempty"`
	Args    map[string]any   `json:"args,omitempty"`
	Outcome string           `json:"outcome"` // "ok" or an error code
	Result  any              `json:"result,omitempty"`
	Events  []map[string]any `json:"events"`
}

// Result is the outcome of a test scenario execution.
type Result struct {
	// Pass indicates overall test success.
	// True if every expect clause and assertion matched.
	Pass bool `json:"pass"`

	// Trace contains every setup and flow step in order.
	Trace []TraceStep `json:"trace"`

	// Errors contains validation error messages.
	// Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`

	// Stats summarizes the operations the scenario performed.
	Stats metrics.Stats `json:"stats"`
}

// NewResult creates a new passing result.
func NewResult() *Result {
	return &Result{
		Pass:   true,
		Trace:  []TraceStep{},
		Errors: []string{},
	}
}

// AddError adds a validation error and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}

// canonical converts the step to canonical-JSON-compatible values.
func (s TraceStep) canonical() map[string]any {
	m := map[string]any{
		"phase":   s.Phase,
		"op":      s.Op,
		"outcome": s.Outcome,
	}
	if s.Caller != "" {
		m["caller"] = s.Caller
	}
	if len(s.Args) > 0 {
		m["args"] = s.Args
	}
	if s.Result != nil {
		m["result"] = s.Result
	}
	events := make([]any, len(s.Events))
	for i, ev := range s.Events {
		events[i] = ev
	}
	m["events"] = events
	return m
}
