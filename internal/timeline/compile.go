package timeline

import (
	"fmt"
	"time"
)

// CompiledStep is a template step with its absolute schedule, embedded
// in an order. Completed/Current are owned by Evaluate, not Compile.
type CompiledStep struct {
	Name         string    `json:"name"`
	ScheduledFor time.Time `json:"scheduledFor"`
	Completed    bool      `json:"completed"`
	Current      bool      `json:"current"`
}

// Compile anchors a relative template at an instant. Offsets are
// cumulative: each step is scheduled its own duration after the previous
// step, so [("A","30 minutes"),("B","1 hour")] anchored at T yields
// A@T+30m, B@T+90m. Timestamps are therefore non-decreasing in template
// order. A step that fails the duration grammar aborts compilation, bad
// steps are never skipped.
func Compile(template []StepTemplate, anchor time.Time) ([]CompiledStep, error) {
	steps := make([]CompiledStep, 0, len(template))
	cursor := anchor.UTC()

	for i, st := range template {
		off, err := ParseDuration(st.ScheduledFor)
		if err != nil {
			return nil, fmt.Errorf("step %d: %w", i+1, err)
		}
		cursor = cursor.Add(off.Duration())
		steps = append(steps, CompiledStep{
			Name:         st.Name,
			ScheduledFor: cursor,
		})
	}

	return steps, nil
}
