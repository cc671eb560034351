package orders

type Status string

const (
	StatusNew        Status = "new"
	StatusInProgress Status = "in_progress"
	StatusCompleted  Status = "completed"
	StatusCanceled   Status = "canceled"
)

var validNext = map[Status]map[Status]bool{
	StatusNew:        {StatusInProgress: true, StatusCompleted: true, StatusCanceled: true},
	StatusInProgress: {StatusCompleted: true, StatusCanceled: true},
	StatusCompleted:  {},
	StatusCanceled:   {},
}

func CanTransition(from, to Status) bool {
	return validNext[from][to]
}

// StatusFor derives the order status from evaluated progress. Cancels
// are driven by collaborators, never by the timeline.
func StatusFor(current Status, percent int) Status {
	if current == StatusCanceled {
		return current
	}
	switch {
	case percent >= 100:
		return StatusCompleted
	case percent > 0:
		return StatusInProgress
	default:
		return current
	}
}
