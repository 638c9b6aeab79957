package video_grabber

import (
	"errors"
	"fmt"
	"mime"
	"strings"
)

var (
	ErrNoStreams = errors.New("no streams available")
)

// A Stream is one downloadable encoding of a source video.
type Stream struct {
	// ID is provider-specific, e.g. the YouTube itag.
	ID       string
	MimeType string
	// Quality is a human-readable label, e.g. "360p".
	Quality string
	// Height in pixels, or 0 if unknown or audio-only.
	Height int
	// Filesize in bytes, or 0 if unknown until the download starts.
	Filesize int64
}

// Ext returns the file extension (without ".") implied by the stream's MIME type.
func (s *Stream) Ext() string {
	mediaType, _, err := mime.ParseMediaType(s.MimeType)
	if err != nil {
		mediaType = strings.TrimSpace(strings.SplitN(s.MimeType, ";", 2)[0])
	}
	if parts := strings.SplitN(mediaType, "/", 2); len(parts) == 2 && parts[1] != "" {
		return parts[1]
	}
	return "bin"
}

func (s *Stream) String() string {
	return fmt.Sprintf("Stream{ID:%q, MimeType:%q, Quality:%q, Height:%d, Filesize:%d}", s.ID, s.MimeType, s.Quality, s.Height, s.Filesize)
}

// A StreamSelector picks one of a source's streams.
type StreamSelector func(streams []Stream) (*Stream, error)

// LowestResolution selects the stream with the smallest height, preferring mp4 streams when there are any.
func LowestResolution(streams []Stream) (*Stream, error) {
	return pickByHeight(streams, func(candidate, current int) bool { return candidate < current })
}

// HighestResolution selects the stream with the largest height, preferring mp4 streams when there are any.
func HighestResolution(streams []Stream) (*Stream, error) {
	return pickByHeight(streams, func(candidate, current int) bool { return candidate > current })
}

// DefaultStream is what gets downloaded when no particular stream is asked for.
var DefaultStream StreamSelector = HighestResolution

func pickByHeight(streams []Stream, better func(candidate, current int) bool) (*Stream, error) {
	candidates := prefer(all(streams), func(s *Stream) bool { return s.Height > 0 })
	candidates = prefer(candidates, func(s *Stream) bool { return s.Ext() == "mp4" })
	if len(candidates) == 0 {
		return nil, ErrNoStreams
	}
	best := candidates[0]
	for _, s := range candidates[1:] {
		if better(s.Height, best.Height) {
			best = s
		}
	}
	return best, nil
}

func all(streams []Stream) []*Stream {
	res := make([]*Stream, 0, len(streams))
	for i := range streams {
		res = append(res, &streams[i])
	}
	return res
}

// prefer narrows streams to those matching f, unless none do.
func prefer(streams []*Stream, f func(*Stream) bool) []*Stream {
	var matching []*Stream
	for _, s := range streams {
		if f(s) {
			matching = append(matching, s)
		}
	}
	if len(matching) > 0 {
		return matching
	}
	return streams
}
