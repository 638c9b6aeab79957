package video_grabber

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"sync"

	"github.com/dustin/go-humanize"

	"github.com/alanbriolat/video-grabber/download"
)

// ProgressFunc receives how many bytes are still to be downloaded out of the total expected.
type ProgressFunc func(bytesRemaining int64, total int64)

type Download interface {
	// AddDownloadedBytes increases how many bytes have been successfully downloaded so far.
	AddDownloadedBytes(n int64)

	// AddExpectedBytes increases how many bytes are expected to be downloaded.
	AddExpectedBytes(n int64)

	// Cancel the Download, stopping any in-progress I/O activity.
	Cancel()

	// Context is the cancellable context of this Download.
	Context() context.Context

	// Filename renders the target file name for a stream using the Download's config.
	Filename(info SourceInfo, stream *Stream) (string, error)

	// Files returns the paths of all files saved so far.
	Files() []string

	// Progress returns the downloaded and expected bytes of the download.
	Progress() (int64, int64)

	// SaveHTTPRequest will execute the http.Request with Context() and then download the resulting stream like SaveStream.
	SaveHTTPRequest(filename string, req *http.Request) error

	// SaveStream will download the stream to the named file in TargetDir, calling AddDownloadedBytes as necessary.
	// The file only appears in TargetDir once the stream has been read to the end.
	SaveStream(filename string, stream io.Reader) error

	// SaveURL will make a GET request to the URL and then download the resulting stream like SaveStream.
	SaveURL(filename string, url string) error

	// TargetDir is the directory that files are saved to.
	TargetDir() string

	// Write will ignore the data but will send the byte count to AddDownloadedBytes. Allows progress tracking using
	// io.MultiWriter (but ensure the Download is the last writer to avoid counting failed writes).
	Write(p []byte) (n int, err error)
}

type downloadImpl struct {
	ctx              context.Context
	cancel           context.CancelFunc
	config           DownloadConfig
	httpClient       *http.Client
	progressCallback ProgressFunc
	targetDir        string

	mu              sync.Mutex
	expectedBytes   int64
	downloadedBytes int64
	files           []string
}

func (d *downloadImpl) AddDownloadedBytes(n int64) {
	d.mu.Lock()
	d.downloadedBytes += n
	d.mu.Unlock()
	d.notify()
}

func (d *downloadImpl) AddExpectedBytes(n int64) {
	if n <= 0 {
		// Unknown length, e.g. ContentLength == -1
		return
	}
	d.mu.Lock()
	d.expectedBytes += n
	d.mu.Unlock()
	d.notify()
}

func (d *downloadImpl) notify() {
	if d.progressCallback == nil {
		return
	}
	downloaded, expected := d.Progress()
	remaining := expected - downloaded
	if remaining < 0 {
		remaining = 0
	}
	d.progressCallback(remaining, expected)
}

func (d *downloadImpl) Cancel() {
	d.cancel()
}

func (d *downloadImpl) Context() context.Context {
	return d.ctx
}

func (d *downloadImpl) Filename(info SourceInfo, stream *Stream) (string, error) {
	return d.config.Filename(info, stream)
}

func (d *downloadImpl) Files() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]string(nil), d.files...)
}

func (d *downloadImpl) Progress() (int64, int64) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.downloadedBytes, d.expectedBytes
}

func (d *downloadImpl) SaveHTTPRequest(filename string, req *http.Request) error {
	if req == nil {
		return fmt.Errorf("nil request")
	}
	req = req.WithContext(d.Context())
	resp, err := d.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("download failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("download failed: unexpected status %v", resp.Status)
	}
	d.AddExpectedBytes(resp.ContentLength)
	return d.SaveStream(filename, resp.Body)
}

func (d *downloadImpl) SaveStream(filename string, stream io.Reader) error {
	filename = SanitizeFilename(filename)
	log := Logger(d.ctx).Sugar().Named("download")
	return download.WithState(func(state *download.State) error {
		f, err := state.CreateTemp(filename + ".*.part")
		if err != nil {
			return fmt.Errorf("failed to open target file: %w", err)
		}
		defer f.Close()

		n, err := io.Copy(io.MultiWriter(f, d), &readerContext{ctx: d.ctx, r: stream})
		if err != nil {
			return fmt.Errorf("failed to save stream: %w", err)
		}
		path, err := state.Commit(f, filename)
		if err != nil {
			return err
		}
		d.mu.Lock()
		d.files = append(d.files, path)
		d.mu.Unlock()
		log.Infof("saved %v (%v)", path, humanize.Bytes(uint64(n)))
		return nil
	}, download.WithTargetDir(d.targetDir))
}

func (d *downloadImpl) SaveURL(filename string, url string) error {
	req, err := http.NewRequest(http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	return d.SaveHTTPRequest(filename, req)
}

func (d *downloadImpl) TargetDir() string {
	return d.targetDir
}

func (d *downloadImpl) Write(p []byte) (n int, err error) {
	n = len(p)
	d.AddDownloadedBytes(int64(n))
	return n, nil
}

type DownloadBuilder interface {
	Build() (Download, error)
	WithConfig(config DownloadConfig) DownloadBuilder
	WithContext(ctx context.Context) DownloadBuilder
	WithHTTPClient(client *http.Client) DownloadBuilder
	WithProgressCallback(f ProgressFunc) DownloadBuilder
	WithTargetDir(dir string) DownloadBuilder
}

type downloadBuilder struct {
	ctx              context.Context
	config           DownloadConfig
	httpClient       *http.Client
	progressCallback ProgressFunc
	targetDir        string
}

func NewDownloadBuilder() DownloadBuilder {
	return &downloadBuilder{
		ctx:        context.Background(),
		config:     NewDownloadConfig(),
		httpClient: http.DefaultClient,
		targetDir:  ".",
	}
}

func (b *downloadBuilder) Build() (Download, error) {
	if b.targetDir == "" {
		return nil, fmt.Errorf("empty target dir")
	}
	d := &downloadImpl{
		config:           b.config,
		httpClient:       b.httpClient,
		progressCallback: b.progressCallback,
		targetDir:        b.targetDir,
	}
	d.ctx, d.cancel = context.WithCancel(b.ctx)
	return d, nil
}

func (b *downloadBuilder) WithConfig(config DownloadConfig) DownloadBuilder {
	b.config = config
	return b
}

func (b *downloadBuilder) WithContext(ctx context.Context) DownloadBuilder {
	b.ctx = ctx
	return b
}

func (b *downloadBuilder) WithHTTPClient(client *http.Client) DownloadBuilder {
	b.httpClient = client
	return b
}

func (b *downloadBuilder) WithProgressCallback(f ProgressFunc) DownloadBuilder {
	b.progressCallback = f
	return b
}

func (b *downloadBuilder) WithTargetDir(dir string) DownloadBuilder {
	b.targetDir = dir
	return b
}
