// Package http serves built archives as file downloads.
package http

import (
	"bytes"
	"errors"
	"log/slog"
	"mime"
	nethttp "net/http"
	"path"
	"strings"
	"time"

	"github.com/meigma/storezip"
	"github.com/meigma/storezip/internal/pathutil"
)

// ContentType is the media type of a ZIP archive.
const ContentType = "application/zip"

const defaultFilename = "bundle.zip"

// ServeArchive writes archive as a download named filename.
//
// The name is reduced to its last path element and given a .zip suffix
// when missing. The response carries a strong ETag derived from the
// archive digest and is served with net/http.ServeContent, so range and
// conditional requests are honored.
func ServeArchive(w nethttp.ResponseWriter, r *nethttp.Request, filename string, archive []byte) {
	name := downloadName(filename)

	h := w.Header()
	h.Set("Content-Type", ContentType)
	h.Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": name}))
	h.Set("ETag", `"`+storezip.Digest(archive).Encoded()+`"`)
	h.Set("X-Content-Type-Options", "nosniff")

	nethttp.ServeContent(w, r, name, time.Time{}, bytes.NewReader(archive))
}

func downloadName(filename string) string {
	name, ok := pathutil.Sanitize(filename)
	if !ok {
		return defaultFilename
	}
	name = pathutil.Base(name)
	if !strings.EqualFold(path.Ext(name), ".zip") {
		name += ".zip"
	}
	return name
}

// BuildFunc decides the contents of a bundle for a request. It returns the
// entries to archive and the download file name.
type BuildFunc func(r *nethttp.Request) (entries []storezip.Entry, filename string, err error)

// Handler builds an archive per request and serves it as a download.
type Handler struct {
	build  BuildFunc
	opts   []storezip.Option
	logger *slog.Logger
}

// Option configures a Handler.
type Option func(*Handler)

// WithBuildOptions sets the options passed to storezip.Build.
func WithBuildOptions(opts ...storezip.Option) Option {
	return func(h *Handler) {
		h.opts = append(h.opts, opts...)
	}
}

// WithLogger sets the logger used for build failures.
func WithLogger(logger *slog.Logger) Option {
	return func(h *Handler) {
		h.logger = logger
	}
}

// NewHandler returns a Handler that serves the archive described by build.
func NewHandler(build BuildFunc, opts ...Option) *Handler {
	h := &Handler{build: build}
	for _, opt := range opts {
		opt(h)
	}
	if h.logger == nil {
		h.logger = slog.New(slog.DiscardHandler)
	}
	return h
}

// ServeHTTP implements net/http.Handler.
func (h *Handler) ServeHTTP(w nethttp.ResponseWriter, r *nethttp.Request) {
	if r.Method != nethttp.MethodGet && r.Method != nethttp.MethodHead {
		w.Header().Set("Allow", "GET, HEAD")
		nethttp.Error(w, "method not allowed", nethttp.StatusMethodNotAllowed)
		return
	}

	entries, filename, err := h.build(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	archive, err := storezip.Build(entries, h.opts...)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	ServeArchive(w, r, filename, archive)
}

func (h *Handler) fail(w nethttp.ResponseWriter, r *nethttp.Request, err error) {
	status := statusFor(err)
	h.logger.Warn("archive build failed", "path", r.URL.Path, "status", status, "error", err)
	nethttp.Error(w, nethttp.StatusText(status), status)
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, storezip.ErrInvalidPath),
		errors.Is(err, storezip.ErrDuplicatePath):
		return nethttp.StatusBadRequest
	case errors.Is(err, storezip.ErrTooManyEntries),
		errors.Is(err, storezip.ErrSizeOverflow):
		return nethttp.StatusRequestEntityTooLarge
	default:
		return nethttp.StatusInternalServerError
	}
}
