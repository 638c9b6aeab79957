package video_grabber

import (
	"context"
)

type SourceInfo struct {
	ID    string
	Title string
}

type Source interface {
	// URL should return the canonical URL for this source. It is assumed that the Provider.Match that created the
	// Source would successfully match this canonical URL.
	URL() string
	// Recon should fetch information about the video, such as its title and available streams.
	Recon(ctx context.Context) (ResolvedSource, error)
}

// A ResolvedSource is a Source after a successful Recon.
type ResolvedSource interface {
	Info() SourceInfo
	Streams() []Stream
	// Download should fetch the chosen stream (one of Streams()) into the Download.
	Download(d Download, stream *Stream) error
}

// Fetch downloads one stream of a resolved source, chosen by the selector.
func Fetch(d Download, resolved ResolvedSource, selector StreamSelector) (*Stream, error) {
	if selector == nil {
		selector = DefaultStream
	}
	stream, err := selector(resolved.Streams())
	if err != nil {
		return nil, err
	}
	Logger(d.Context()).Sugar().Debugf("selected %v for %v", stream, resolved.Info().ID)
	if err := resolved.Download(d, stream); err != nil {
		return stream, err
	}
	return stream, nil
}
