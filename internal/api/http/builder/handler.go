package builder

import (
	"bytes"
	"context"
	"embed"
	"errors"
	"html/template"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/oshokin/exe-builder/internal/capture"
	"github.com/oshokin/exe-builder/internal/domain/build"
	"github.com/oshokin/exe-builder/internal/emit"
	"github.com/oshokin/exe-builder/internal/logger"
	"github.com/oshokin/exe-builder/internal/render"
	repo "github.com/oshokin/exe-builder/internal/repository/session"
	service "github.com/oshokin/exe-builder/internal/service/builder"
)

const (
	// SessionCookieName is the cookie that carries the session id.
	SessionCookieName = "exe_builder_session"
	// NoticeMissingMainFile is shown when an action needs the main file.
	NoticeMissingMainFile = "Please add a main Python file first"
	// BundleFilename names the "download all" archive.
	BundleFilename = "exe-builder-bundle.zip"
	// fallbackContentType is served for files without a sniffed type.
	fallbackContentType = "application/octet-stream"
	// DefaultMaxUploadBytes bounds a single uploaded file.
	DefaultMaxUploadBytes int64 = 32 << 20

	// requestBodyFactor bounds a whole multipart request relative to one file.
	requestBodyFactor = 8
	// multipartMemory is how much of a multipart body is kept in memory.
	multipartMemory = 8 << 20
)

//go:embed templates/index.html
var templatesFS embed.FS

// Service abstracts the builder operations the transport depends on.
type Service interface {
	Open(ctx context.Context, id string) (string, *build.Session)
	SetMainFile(ctx context.Context, id string, sources []capture.Source) (*build.Session, error)
	RemoveMainFile(ctx context.Context, id string) (*build.Session, error)
	AddAdditionalFiles(ctx context.Context, id string, sources []capture.Source) (*build.Session, []capture.Rejection, error)
	RemoveAdditionalFile(ctx context.Context, id string, index int) (*build.Session, error)
	UpdateConfig(ctx context.Context, id string, update service.ConfigUpdate) (*build.Session, error)
	Generate(ctx context.Context, id string) (string, error)
	MainFile(ctx context.Context, id string) (build.FileRecord, error)
	AdditionalFile(ctx context.Context, id string, index int) (build.FileRecord, error)
	Companion() string
	DownloadAll(ctx context.Context, id string, w io.Writer) error
}

// Handler serves the builder form and its endpoints.
type Handler struct {
	// service performs the builder operations.
	service Service
	// page is the form template.
	page *template.Template
	// maxUploadBytes bounds a single uploaded file.
	maxUploadBytes int64
	// sessionTTL is the cookie lifetime; zero makes it a browser-session cookie.
	sessionTTL time.Duration
}

// Option configures the Handler.
type Option func(*Handler)

// WithMaxUploadBytes sets the per-file upload limit.
func WithMaxUploadBytes(n int64) Option {
	return func(h *Handler) {
		if n > 0 {
			h.maxUploadBytes = n
		}
	}
}

// WithSessionTTL sets the cookie lifetime.
func WithSessionTTL(ttl time.Duration) Option {
	return func(h *Handler) {
		h.sessionTTL = ttl
	}
}

// pageView is the data passed to the form template.
type pageView struct {
	// Session is the state being edited.
	Session *build.Session
	// Packages is the comma-separated form of the packages list.
	Packages string
	// Excludes is the comma-separated form of the excluded packages.
	Excludes string
	// Generated holds the setup.py preview, if any.
	Generated string
	// Notices are shown above the form.
	Notices []string
	// MainAccept lists the extensions accepted for the main file.
	MainAccept string
	// AdditionalAccept lists the extensions accepted for additional files.
	AdditionalAccept string
}

// NewHandler parses the form template and wires the service.
func NewHandler(svc Service, opts ...Option) (*Handler, error) {
	page, err := template.New("index.html").
		Funcs(template.FuncMap{"join": build.JoinList}).
		ParseFS(templatesFS, "templates/index.html")
	if err != nil {
		return nil, err
	}

	h := &Handler{
		service:        svc,
		page:           page,
		maxUploadBytes: DefaultMaxUploadBytes,
	}

	for _, opt := range opts {
		opt(h)
	}

	return h, nil
}

// Routes returns the router with request logging applied.
func (h *Handler) Routes() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /{$}", h.index)
	mux.HandleFunc("POST /main", h.setMainFile)
	mux.HandleFunc("POST /main/remove", h.removeMainFile)
	mux.HandleFunc("POST /files", h.addAdditionalFiles)
	mux.HandleFunc("POST /files/{index}/remove", h.removeAdditionalFile)
	mux.HandleFunc("POST /config", h.updateConfig)
	mux.HandleFunc("POST /generate", h.generate)
	mux.HandleFunc("GET /download/setup.py", h.downloadScript)
	mux.HandleFunc("GET /download/build.bat", h.downloadCompanion)
	mux.HandleFunc("GET /download/all", h.downloadAll)
	mux.HandleFunc("GET /download/main", h.downloadMainFile)
	mux.HandleFunc("GET /download/files/{index}", h.downloadAdditionalFile)
	mux.HandleFunc("GET /healthz", healthz)

	return withRequestLogging(mux)
}

func (h *Handler) index(w http.ResponseWriter, r *http.Request) {
	ctx, _, session := h.session(w, r)

	h.renderPage(ctx, w, http.StatusOK, pageView{Session: session})
}

func (h *Handler) setMainFile(w http.ResponseWriter, r *http.Request) {
	ctx, id, session := h.session(w, r)

	headers, err := h.uploads(w, r, "file")
	if err != nil {
		h.fail(ctx, w, session, http.StatusBadRequest, "Could not read the upload: "+err.Error())

		return
	}

	if _, err = h.service.SetMainFile(ctx, id, capture.UploadSources(headers)); err != nil {
		h.handleError(ctx, w, session, err)

		return
	}

	redirectHome(w, r)
}

func (h *Handler) removeMainFile(w http.ResponseWriter, r *http.Request) {
	ctx, id, session := h.session(w, r)

	if _, err := h.service.RemoveMainFile(ctx, id); err != nil {
		h.handleError(ctx, w, session, err)

		return
	}

	redirectHome(w, r)
}

func (h *Handler) addAdditionalFiles(w http.ResponseWriter, r *http.Request) {
	ctx, id, session := h.session(w, r)

	headers, err := h.uploads(w, r, "files")
	if err != nil {
		h.fail(ctx, w, session, http.StatusBadRequest, "Could not read the upload: "+err.Error())

		return
	}

	updated, rejected, err := h.service.AddAdditionalFiles(ctx, id, capture.UploadSources(headers))
	if err != nil {
		h.handleError(ctx, w, session, err)

		return
	}

	if len(rejected) == 0 {
		redirectHome(w, r)

		return
	}

	notices := make([]string, 0, len(rejected))
	for _, rejection := range rejected {
		notices = append(notices, "Skipped "+rejection.Error())
	}

	h.renderPage(ctx, w, http.StatusOK, pageView{Session: updated, Notices: notices})
}

func (h *Handler) removeAdditionalFile(w http.ResponseWriter, r *http.Request) {
	ctx, id, session := h.session(w, r)

	index, err := strconv.Atoi(r.PathValue("index"))
	if err != nil {
		h.fail(ctx, w, session, http.StatusBadRequest, "Invalid file index")

		return
	}

	if _, err = h.service.RemoveAdditionalFile(ctx, id, index); err != nil {
		h.handleError(ctx, w, session, err)

		return
	}

	redirectHome(w, r)
}

func (h *Handler) updateConfig(w http.ResponseWriter, r *http.Request) {
	ctx, id, session := h.session(w, r)

	if err := r.ParseForm(); err != nil {
		h.fail(ctx, w, session, http.StatusBadRequest, "Could not read the form")

		return
	}

	form := r.PostForm

	_, err := h.service.UpdateConfig(ctx, id, func(cfg *build.BuildConfig) error {
		setters := map[string]func(string){
			"app_name":    cfg.SetAppName,
			"version":     cfg.SetVersion,
			"description": cfg.SetDescription,
			"author":      cfg.SetAuthor,
			"packages":    cfg.SetPackages,
			"excludes":    cfg.SetExcludePackages,
			"icon":        cfg.SetIcon,
		}

		for key, set := range setters {
			if form.Has(key) {
				set(form.Get(key))
			}
		}

		if form.Has("base") {
			return cfg.SetBaseOption(form.Get("base"))
		}

		return nil
	})
	if err != nil {
		h.handleError(ctx, w, session, err)

		return
	}

	redirectHome(w, r)
}

func (h *Handler) generate(w http.ResponseWriter, r *http.Request) {
	ctx, id, session := h.session(w, r)

	script, err := h.service.Generate(ctx, id)
	if err != nil {
		h.handleError(ctx, w, session, err)

		return
	}

	h.renderPage(ctx, w, http.StatusOK, pageView{Session: session, Generated: script})
}

func (h *Handler) downloadScript(w http.ResponseWriter, r *http.Request) {
	ctx, id, session := h.session(w, r)

	script, err := h.service.Generate(ctx, id)
	if err != nil {
		h.handleError(ctx, w, session, err)

		return
	}

	attachment(w, render.ScriptFilename, "text/x-python; charset=utf-8", []byte(script))
}

func (h *Handler) downloadCompanion(w http.ResponseWriter, _ *http.Request) {
	attachment(w, render.CompanionFilename, "text/plain; charset=utf-8", []byte(h.service.Companion()))
}

func (h *Handler) downloadAll(w http.ResponseWriter, r *http.Request) {
	ctx, id, session := h.session(w, r)

	var buf bytes.Buffer
	if err := h.service.DownloadAll(ctx, id, &buf); err != nil {
		h.handleError(ctx, w, session, err)

		return
	}

	attachment(w, BundleFilename, "application/zip", buf.Bytes())
}

func (h *Handler) downloadMainFile(w http.ResponseWriter, r *http.Request) {
	ctx, id, session := h.session(w, r)

	file, err := h.service.MainFile(ctx, id)
	if err != nil {
		h.handleError(ctx, w, session, err)

		return
	}

	serveFile(w, file)
}

func (h *Handler) downloadAdditionalFile(w http.ResponseWriter, r *http.Request) {
	ctx, id, session := h.session(w, r)

	index, err := strconv.Atoi(r.PathValue("index"))
	if err != nil {
		h.fail(ctx, w, session, http.StatusBadRequest, "Invalid file index")

		return
	}

	file, err := h.service.AdditionalFile(ctx, id, index)
	if err != nil {
		h.handleError(ctx, w, session, err)

		return
	}

	serveFile(w, file)
}

func healthz(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = io.WriteString(w, "ok\n")
}

// session resolves the session of the request and refreshes the cookie.
func (h *Handler) session(w http.ResponseWriter, r *http.Request) (context.Context, string, *build.Session) {
	var requested string
	if cookie, err := r.Cookie(SessionCookieName); err == nil {
		requested = cookie.Value
	}

	id, session := h.service.Open(r.Context(), requested)

	cookie := &http.Cookie{
		Name:     SessionCookieName,
		Value:    id,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	}
	if h.sessionTTL > 0 {
		cookie.MaxAge = int(h.sessionTTL.Seconds())
	}

	http.SetCookie(w, cookie)

	return logger.WithKV(r.Context(), "session", id), id, session
}

// uploads parses a multipart body and returns the files posted under field.
func (h *Handler) uploads(w http.ResponseWriter, r *http.Request, field string) ([]*multipart.FileHeader, error) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadBytes*requestBodyFactor)

	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		return nil, err
	}

	return r.MultipartForm.File[field], nil
}

// handleError maps service errors to a status code and a notice.
func (h *Handler) handleError(ctx context.Context, w http.ResponseWriter, session *build.Session, err error) {
	var rejection capture.Rejection

	switch {
	case errors.Is(err, emit.ErrNoMainFile):
		h.fail(ctx, w, session, http.StatusConflict, NoticeMissingMainFile)
	case errors.Is(err, capture.ErrNoFiles):
		h.fail(ctx, w, session, http.StatusBadRequest, "No file was uploaded")
	case errors.As(err, &rejection):
		h.fail(ctx, w, session, http.StatusBadRequest, "Rejected "+rejection.Error())
	case errors.Is(err, build.ErrIndexOutOfRange),
		errors.Is(err, build.ErrUnknownBaseOption):
		h.fail(ctx, w, session, http.StatusBadRequest, err.Error())
	case errors.Is(err, repo.ErrNotFound):
		h.fail(ctx, w, session, http.StatusGone, "Your session has expired, please start again")
	default:
		logger.ErrorKV(ctx, "Request failed", "error", err)
		h.fail(ctx, w, session, http.StatusInternalServerError, "Something went wrong, please try again")
	}
}

// fail renders the form with a notice and the given status.
func (h *Handler) fail(ctx context.Context, w http.ResponseWriter, session *build.Session, code int, notice string) {
	logger.WarnKV(ctx, "Request refused", "status", code, "notice", notice)

	h.renderPage(ctx, w, code, pageView{Session: session, Notices: []string{notice}})
}

func (h *Handler) renderPage(ctx context.Context, w http.ResponseWriter, code int, view pageView) {
	if view.Session == nil {
		view.Session = build.NewSession()
	}

	view.Packages = build.JoinList(view.Session.Config.Packages)
	view.Excludes = build.JoinList(view.Session.Config.ExcludePackages)
	view.MainAccept = strings.Join(capture.MainFilter.Extensions(), ",")
	view.AdditionalAccept = strings.Join(capture.AdditionalFilter.Extensions(), ",")

	var buf bytes.Buffer
	if err := h.page.Execute(&buf, view); err != nil {
		logger.ErrorKV(ctx, "Failed to render the form", "error", err)
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)

		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(code)
	_, _ = w.Write(buf.Bytes())
}

func redirectHome(w http.ResponseWriter, r *http.Request) {
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// serveFile sends a captured file back verbatim with its sniffed type.
func serveFile(w http.ResponseWriter, file build.FileRecord) {
	contentType := file.ContentType
	if contentType == "" {
		contentType = fallbackContentType
	}

	attachment(w, file.Name, contentType, []byte(file.Content))
}

func attachment(w http.ResponseWriter, filename, contentType string, body []byte) {
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": filename}))
	w.Header().Set("Content-Length", strconv.Itoa(len(body)))
	_, _ = w.Write(body)
}
