package web

import (
	"errors"
	"fmt"
	"net/http"
	"os"

	"go.uber.org/zap"

	"github.com/alanbriolat/video-grabber"
	"github.com/alanbriolat/video-grabber/internal/broadcast"
	"github.com/alanbriolat/video-grabber/internal/session"
)

const (
	SessionCookie = "session_id"

	NoMatchMessage = "Sorry, we couldn't find a YouTube video that matches your link. Please try again."
)

type pageData struct {
	ErrorMessage string
}

type homeHandler struct {
	*config
	log      *zap.Logger
	reporter *broadcast.Reporter
}

func newHomeHandler(cfg *config, logger *zap.Logger) *homeHandler {
	return &homeHandler{
		config:   cfg,
		log:      logger.Named("home"),
		reporter: broadcast.NewReporter(cfg.layer, broadcast.ProgressGroup),
	}
}

func (h *homeHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	id := h.clientID(w, r)
	log := h.log.With(zap.String("client", string(id)))
	var err error
	if r.Method == http.MethodPost {
		err = h.post(r, id, log)
	} else {
		err = h.get(r, id, log)
	}
	switch {
	case err == nil:
		h.render(w, pageData{}, log)
	case errors.Is(err, video_grabber.ErrNoMatch):
		log.Info("no match", zap.Error(err))
		h.render(w, pageData{ErrorMessage: NoMatchMessage}, log)
	default:
		log.Error("request failed", zap.Error(err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
	}
}

// post downloads the lowest resolution stream of the submitted link into the work dir, and remembers the link for
// the client's next GET.
func (h *homeHandler) post(r *http.Request, id session.ClientID, log *zap.Logger) error {
	link := r.PostFormValue("link")
	match, err := h.registry.Match(link)
	if err != nil {
		return err
	}
	if err := h.sessions.SetLink(id, link); err != nil {
		return err
	}
	return h.fetch(r, match, h.workDir, video_grabber.LowestResolution, nil, log)
}

// get downloads the default stream of the client's remembered link into the platform's download directory,
// publishing progress as it goes.
func (h *homeHandler) get(r *http.Request, id session.ClientID, log *zap.Logger) error {
	dir, err := h.resolver.OutputDir()
	if err != nil {
		return err
	}
	link, err := h.sessions.TakeLink(id)
	if errors.Is(err, session.ErrClientNotFound) || (err == nil && link == "") {
		return nil
	} else if err != nil {
		return err
	}
	match, err := h.registry.Match(link)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create download directory: %w", err)
	}
	return h.fetch(r, match, dir, video_grabber.DefaultStream, h.reporter.ProgressFunc(), log)
}

func (h *homeHandler) fetch(r *http.Request, match *video_grabber.Match, dir string, selector video_grabber.StreamSelector, progress video_grabber.ProgressFunc, log *zap.Logger) error {
	ctx := video_grabber.WithLogger(r.Context(), log)
	log.Info("matched", zap.String("provider", match.ProviderName), zap.String("url", match.Source.URL()))
	resolved, err := match.Source.Recon(ctx)
	if err != nil {
		return err
	}
	d, err := video_grabber.NewDownloadBuilder().
		WithConfig(h.downloadConfig).
		WithContext(ctx).
		WithHTTPClient(h.httpClient).
		WithProgressCallback(progress).
		WithTargetDir(dir).
		Build()
	if err != nil {
		return err
	}
	defer d.Cancel()
	stream, err := video_grabber.Fetch(d, resolved, selector)
	if err != nil {
		return err
	}
	log.Info("downloaded", zap.Stringer("stream", stream), zap.Strings("files", d.Files()))
	return nil
}

func (h *homeHandler) render(w http.ResponseWriter, data pageData, log *zap.Logger) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := templates.ExecuteTemplate(w, "index.html", &data); err != nil {
		log.Error("failed to render page", zap.Error(err))
	}
}

// clientID identifies the client by its session cookie, issuing a new one if it is missing or malformed.
func (h *homeHandler) clientID(w http.ResponseWriter, r *http.Request) session.ClientID {
	if cookie, err := r.Cookie(SessionCookie); err == nil {
		if id, ok := session.ParseClientID(cookie.Value); ok {
			return id
		}
	}
	id := session.NewClientID()
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookie,
		Value:    string(id),
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	return id
}
