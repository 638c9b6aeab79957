package broadcast

import (
	"github.com/alanbriolat/video-grabber"
)

// PercentageOfCompletion is how much of total has been downloaded when remaining bytes are still to come. An unknown
// (non-positive) total counts as no progress.
func PercentageOfCompletion(total, remaining int64) float64 {
	if total <= 0 {
		return 0
	}
	return float64(total-remaining) / float64(total) * 100
}

// Reporter publishes download progress to a group as ProgressUpdate events.
type Reporter struct {
	layer *Layer
	group string
}

func NewReporter(layer *Layer, group string) *Reporter {
	if group == "" {
		group = ProgressGroup
	}
	return &Reporter{layer: layer, group: group}
}

// OnProgress publishes the completion percentage of a stream download, with the stream's size as the total.
func (r *Reporter) OnProgress(stream *video_grabber.Stream, bytesRemaining int64) float64 {
	return r.report(stream.Filesize, bytesRemaining)
}

// ProgressFunc adapts the Reporter to a download's progress callback, for when the total is only known once the
// download starts.
func (r *Reporter) ProgressFunc() video_grabber.ProgressFunc {
	return func(bytesRemaining int64, total int64) {
		r.report(total, bytesRemaining)
	}
}

func (r *Reporter) report(total, remaining int64) float64 {
	percentage := PercentageOfCompletion(total, remaining)
	r.layer.GroupSend(r.group, NewProgressUpdate(percentage))
	return percentage
}
