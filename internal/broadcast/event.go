// Package broadcast is a small in-process group messaging layer: events are sent to named groups, and every member
// of a group receives its own copy.
package broadcast

const (
	// ProgressGroup is the group that download progress is published to.
	ProgressGroup = "progress_group"
	// ProgressUpdate is the type of events carrying a download's completion percentage.
	ProgressUpdate = "progress_update"
)

type Event struct {
	Type                   string  `json:"type"`
	PercentageOfCompletion float64 `json:"percentage_of_completion"`
}

func NewProgressUpdate(percentage float64) Event {
	return Event{Type: ProgressUpdate, PercentageOfCompletion: percentage}
}
