package models

// Status is the record's position in the fixed six-stage workflow.
type Status string

const (
	StatusOpen       Status = "open"
	StatusAnalysis   Status = "analysis"
	StatusResolution Status = "resolution"
	StatusSolved     Status = "solved"
	StatusClosing    Status = "closing"
	StatusClosed     Status = "closed"
)

// statusOrder fixes the linear workflow. Adjacency checks and successor
// lookups both derive from it so the graph lives in exactly one place.
var statusOrder = []Status{
	StatusOpen,
	StatusAnalysis,
	StatusResolution,
	StatusSolved,
	StatusClosing,
	StatusClosed,
}

// Statuses returns the workflow stages in order.
func Statuses() []Status {
	out := make([]Status, len(statusOrder))
	copy(out, statusOrder)
	return out
}

func (s Status) IsValid() bool {
	for _, known := range statusOrder {
		if s == known {
			return true
		}
	}
	return false
}

// Terminal reports whether the status has no outgoing edges.
func (s Status) Terminal() bool { return s == StatusClosed }

// Next returns the graph successor. ok is false for the terminal status and
// for values outside the enumeration.
func (s Status) Next() (Status, bool) {
	for i, known := range statusOrder {
		if s == known && i+1 < len(statusOrder) {
			return statusOrder[i+1], true
		}
	}
	return "", false
}
