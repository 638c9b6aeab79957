package youtube

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"github.com/kkdai/youtube/v2"

	"github.com/alanbriolat/video-grabber"
)

// Client is the part of *youtube.Client used to resolve and download videos.
type Client interface {
	GetVideoContext(ctx context.Context, url string) (*youtube.Video, error)
	GetStreamContext(ctx context.Context, video *youtube.Video, format *youtube.Format) (io.ReadCloser, int64, error)
}

type Config struct {
	// NewClient creates the client for each recon/download; the default creates a fresh *youtube.Client.
	NewClient func() Client
}

func NewConfig() Config {
	return Config{
		NewClient: func() Client { return &youtube.Client{} },
	}
}

func (c Config) Match(s string) (video_grabber.Source, error) {
	parsedURL, err := url.Parse(strings.TrimSpace(s))
	if err != nil {
		return nil, err
	}
	videoID, err := extractVideoID(parsedURL)
	if err != nil {
		return nil, err
	}
	return &source{config: c, videoID: videoID}, nil
}

func (c Config) Provider() video_grabber.Provider {
	return video_grabber.Provider{Name: "youtube", Match: c.Match}
}

func New() video_grabber.Provider {
	return NewConfig().Provider()
}

type source struct {
	config  Config
	videoID string
}

func (s *source) URL() string {
	return fmt.Sprintf("https://www.youtube.com/watch?v=%s", s.videoID)
}

func (s *source) String() string {
	return s.URL()
}

func (s *source) Recon(ctx context.Context) (video_grabber.ResolvedSource, error) {
	client := s.config.NewClient()
	video, err := client.GetVideoContext(ctx, s.URL())
	if errors.Is(err, youtube.ErrInvalidCharactersInVideoID) || errors.Is(err, youtube.ErrVideoIDMinLength) {
		return nil, fmt.Errorf("%w: %v", video_grabber.ErrNoMatch, err)
	} else if err != nil {
		return nil, fmt.Errorf("failed to get video info: %w", err)
	}
	return newResolvedSource(s, client, video), nil
}

type resolvedSource struct {
	*source
	client  Client
	video   *youtube.Video
	formats map[string]*youtube.Format
	streams []video_grabber.Stream
}

func newResolvedSource(s *source, client Client, video *youtube.Video) *resolvedSource {
	r := &resolvedSource{
		source:  s,
		client:  client,
		video:   video,
		formats: make(map[string]*youtube.Format),
	}
	// Only formats with both video and audio, like a plain "download this video" would give you
	formats := video.Formats.WithAudioChannels()
	for i := range formats {
		f := &formats[i]
		if f.Height == 0 && f.Width == 0 {
			continue
		}
		id := strconv.Itoa(f.ItagNo)
		r.formats[id] = f
		r.streams = append(r.streams, video_grabber.Stream{
			ID:       id,
			MimeType: f.MimeType,
			Quality:  f.QualityLabel,
			Height:   f.Height,
			Filesize: f.ContentLength,
		})
	}
	return r
}

func (r *resolvedSource) Info() video_grabber.SourceInfo {
	title := r.video.Title
	if title == "" {
		title = r.video.ID
	}
	return video_grabber.SourceInfo{ID: r.video.ID, Title: title}
}

func (r *resolvedSource) Streams() []video_grabber.Stream {
	return append([]video_grabber.Stream(nil), r.streams...)
}

func (r *resolvedSource) Download(d video_grabber.Download, stream *video_grabber.Stream) error {
	format, ok := r.formats[stream.ID]
	if !ok {
		return fmt.Errorf("unknown stream %v for video %v", stream.ID, r.video.ID)
	}
	filename, err := d.Filename(r.Info(), stream)
	if err != nil {
		return fmt.Errorf("failed to build filename: %w", err)
	}
	body, size, err := r.client.GetStreamContext(d.Context(), r.video, format)
	if err != nil {
		return fmt.Errorf("failed to get stream: %w", err)
	}
	defer body.Close()
	if stream.Filesize > 0 {
		size = stream.Filesize
	}
	d.AddExpectedBytes(size)
	return d.SaveStream(filename, body)
}

func (r *resolvedSource) String() string {
	return fmt.Sprintf("%s [%s]", r.video.Title, r.video.ID)
}

var videoIDPattern = regexp.MustCompile(`^[0-9A-Za-z_-]{11}$`)

// Extract video ID from YouTube URL.
//
// Allowed URL formats:
//		http(s?)://(www.|m.|music.)?youtube.com/(watch|details)?v={VIDEO_ID}
//		http(s?)://(www.|m.|music.)?youtube.com/(v|embed|shorts)/{VIDEO_ID}
//		http(s?)://youtu.be/{VIDEO_ID}
func extractVideoID(url *url.URL) (string, error) {
	var id string
	switch url.Hostname() {
	case "www.youtube.com", "youtube.com", "m.youtube.com", "music.youtube.com":
		segments := strings.Split(strings.Trim(url.Path, "/"), "/")
		switch {
		case len(segments) >= 2 && (segments[0] == "v" || segments[0] == "embed" || segments[0] == "shorts"):
			id = segments[1]
		case url.Path == "/watch" || url.Path == "/details":
			if !url.Query().Has("v") {
				return "", fmt.Errorf("missing ?v= query parameter")
			}
			id = url.Query().Get("v")
		}
	case "youtu.be":
		id = strings.Trim(url.Path, "/")
	default:
		return "", fmt.Errorf("unrecognised hostname %q", url.Hostname())
	}
	if id == "" {
		return "", fmt.Errorf("could not extract video ID")
	}
	if !videoIDPattern.MatchString(id) {
		return "", fmt.Errorf("invalid video ID %q", id)
	}
	return id, nil
}

func init() {
	video_grabber.DefaultProviderRegistry.MustAdd(New())
}
