// Package trigger decides whether a validated notification should produce a
// ticket. Matching is exact and case-sensitive; anything else is the normal
// no-op path.
package trigger

import "legalbridge.app/bridge/internal/model"

// Decision is the result of evaluating a notification against the trigger label.
type Decision struct {
	Matched bool
	// StatusLabel is the label that was compared, kept for diagnostics.
	StatusLabel string
}

// Evaluator compares status labels against a single configured trigger label.
type Evaluator struct {
	label string
}

func NewEvaluator(triggerLabel string) *Evaluator {
	return &Evaluator{label: triggerLabel}
}

// Label returns the configured trigger label.
func (e *Evaluator) Label() string {
	return e.label
}

// Evaluate is pure: no side effects, no network.
func (e *Evaluator) Evaluate(n *model.Notification) Decision {
	status := n.StatusLabel()
	return Decision{
		Matched:     status == e.label,
		StatusLabel: status,
	}
}
