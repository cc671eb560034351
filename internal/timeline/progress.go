package timeline

import (
	"math"
	"time"
)

// Progress is the evaluated state of a compiled timeline at an instant.
type Progress struct {
	Steps            []CompiledStep
	CurrentStepIndex int
	Percent          int
	Terminal         bool
}

// Evaluate recomputes completion flags against now. A step is completed
// once now reaches its schedule. The current step is the first
// non-completed one; when every step is completed the timeline is
// terminal, no step is current and the index stays at the last step.
// The input slice is not mutated.
func Evaluate(steps []CompiledStep, now time.Time) Progress {
	out := make([]CompiledStep, len(steps))
	copy(out, steps)

	completed := 0
	currentIdx := -1
	for i := range out {
		out[i].Current = false
		out[i].Completed = !now.Before(out[i].ScheduledFor)
		if out[i].Completed {
			completed++
		} else if currentIdx == -1 {
			currentIdx = i
		}
	}

	terminal := len(out) > 0 && completed == len(out)
	if currentIdx == -1 {
		currentIdx = len(out) - 1
		if currentIdx < 0 {
			currentIdx = 0
		}
	}
	if !terminal && len(out) > 0 {
		out[currentIdx].Current = true
	}

	percent := 0
	if len(out) > 0 {
		percent = int(math.Round(100 * float64(completed) / float64(len(out))))
	}

	return Progress{
		Steps:            out,
		CurrentStepIndex: currentIdx,
		Percent:          percent,
		Terminal:         terminal,
	}
}
