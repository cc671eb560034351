package timeline

import (
	"fmt"
	"strings"

	"github.com/cartpulse/order-tracker/internal/apperr"
)

// StepTemplate is one entry of a product's fulfillment template. The
// offset stays relative ("30 minutes"); compilation to an absolute
// instant happens per order, never on the template itself.
type StepTemplate struct {
	Name         string `json:"name"`
	ScheduledFor string `json:"scheduledFor"`
}

// ValidationResult reports the first failing step, 1-based. The message
// is store-facing copy, so it names the step position and what is wrong.
type ValidationResult struct {
	Valid        bool
	FailingIndex int
	Err          error
}

// ValidateTemplate enforces the structural rules on a candidate template
// before it is stored: at least one step, non-blank names, offsets within
// the duration grammar. Only the first failure is reported.
func ValidateTemplate(steps []StepTemplate) ValidationResult {
	if len(steps) == 0 {
		return ValidationResult{
			Valid: false,
			Err:   fmt.Errorf("%w: customSteps must contain at least 1 step", apperr.ErrValidationFailed),
		}
	}

	for i, step := range steps {
		pos := i + 1

		if strings.TrimSpace(step.Name) == "" {
			return ValidationResult{
				Valid:        false,
				FailingIndex: pos,
				Err:          fmt.Errorf("%w: step %d: name is required", apperr.ErrValidationFailed, pos),
			}
		}

		if _, err := ParseDuration(step.ScheduledFor); err != nil {
			return ValidationResult{
				Valid:        false,
				FailingIndex: pos,
				Err:          fmt.Errorf("step %d: %w", pos, err),
			}
		}
	}

	return ValidationResult{Valid: true}
}
