package raw

import (
	"context"
	"fmt"
	"mime"
	"net/url"
	"path"
	"strings"

	"github.com/alanbriolat/video-grabber"
	"github.com/alanbriolat/video-grabber/generic"
	"github.com/alanbriolat/video-grabber/util"
)

type Config struct {
	Protocols  generic.Set[string]
	Extensions generic.Set[string]
}

func NewConfig() Config {
	return Config{
		Protocols: generic.NewSet(
			"http",
			"https",
		),
		Extensions: generic.NewSet(
			"flv",
			"m4v",
			"mkv",
			"mp4",
			"webm",
		),
	}
}

func (c *Config) Match(s string) (video_grabber.Source, error) {
	// Expect string to be a URL
	parsedURL, err := url.Parse(s)
	if err != nil {
		return nil, err
	}
	// Check that scheme/protocol is valid
	if !c.Protocols.Contains(parsedURL.Scheme) {
		return nil, fmt.Errorf("unknown URL scheme %q", parsedURL.Scheme)
	}
	// Attempt to extract filename and extension
	filename, err := util.FilenameFromURL(parsedURL)
	if err != nil {
		return nil, err
	}
	extension := strings.TrimPrefix(strings.ToLower(path.Ext(filename)), ".")
	if extension == "" {
		return nil, fmt.Errorf("no file extension found")
	}
	if !c.Extensions.Contains(extension) {
		return nil, fmt.Errorf("unknown file extension %q", extension)
	}
	res := source{
		url:       s,
		filename:  filename,
		extension: extension,
	}
	return &res, nil
}

func (c Config) Provider() video_grabber.Provider {
	return video_grabber.Provider{
		Name:  "raw",
		Match: c.Match,
	}
}

type source struct {
	url       string
	filename  string
	extension string
}

func (s *source) URL() string {
	return s.url
}

func (s *source) String() string {
	return s.URL()
}

// Recon is a no-op, the only thing we know about a raw file is its URL.
func (s *source) Recon(ctx context.Context) (video_grabber.ResolvedSource, error) {
	return s, nil
}

func (s *source) Info() video_grabber.SourceInfo {
	return video_grabber.SourceInfo{
		ID:    s.filename,
		Title: strings.TrimSuffix(s.filename, path.Ext(s.filename)),
	}
}

func (s *source) Streams() []video_grabber.Stream {
	mimeType := mime.TypeByExtension("." + s.extension)
	if mimeType == "" {
		mimeType = "video/" + s.extension
	}
	return []video_grabber.Stream{{ID: "raw", MimeType: mimeType}}
}

// Download ignores the filename template, the file keeps the name it has in the URL.
func (s *source) Download(d video_grabber.Download, stream *video_grabber.Stream) error {
	return d.SaveURL(s.filename, s.url)
}

func init() {
	video_grabber.DefaultProviderRegistry.MustAdd(
		NewConfig().Provider().WithPriority(video_grabber.PriorityLowest),
	)
}
