// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package handlers implements the theming HTTP endpoints: the admin
// settings API and the public branded assets.
package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"
	"time"

	"cloudtheme/internal/i18n"
	"cloudtheme/internal/imaging"
	"cloudtheme/internal/middleware"
	"cloudtheme/internal/models"
	"cloudtheme/internal/storage"
	"cloudtheme/internal/store"
	"cloudtheme/internal/theming"
)

const (
	// maxUploadSize is the largest accepted upload request (20 MB).
	maxUploadSize = 20 << 20

	// multipartMemory is how much of a multipart body is buffered in
	// memory before spilling to temporary files.
	multipartMemory = 8 << 20

	// Upload form fields.
	logoField       = "uploadlogo"
	backgroundField = "upload-login-background"

	imageMaxAge      = time.Hour
	stylesheetMaxAge = 24 * time.Hour
	scriptMaxAge     = time.Hour
	expiresAhead     = 24 * time.Hour
)

// Response status discriminators.
const (
	statusSuccess = "success"
	statusError   = "error"
	statusFailure = "failure"
)

// Stylesheets compiles and stores the theming stylesheet per cache-buster.
type Stylesheets interface {
	Process(ctx context.Context, partition string, vars map[string]string) error
	Artifact(ctx context.Context, partition string) ([]byte, error)
}

// ChangeHistory lists recent cache-buster bumps.
type ChangeHistory interface {
	RecentEntries(ctx context.Context, limit int) ([]store.CacheLogEntry, error)
}

// History page size bounds.
const (
	defaultHistoryLimit = 20
	maxHistoryLimit     = 100
)

// Theming groups the theming endpoints.
type Theming struct {
	settings *theming.Settings
	blobs    storage.Store
	images   imaging.Processor
	styles   Stylesheets
	tr       *i18n.Translator
	history  ChangeHistory
	now      func() time.Time
}

// NewTheming creates the theming handler group.
func NewTheming(settings *theming.Settings, blobs storage.Store, images imaging.Processor, styles Stylesheets, tr *i18n.Translator) *Theming {
	return &Theming{
		settings: settings,
		blobs:    blobs,
		images:   images,
		styles:   styles,
		tr:       tr,
		now:      time.Now,
	}
}

// WithHistory enables the change history endpoint.
func (h *Theming) WithHistory(history ChangeHistory) *Theming {
	h.history = history
	return h
}

// t localizes a message key for the request's negotiated language.
func (h *Theming) t(r *http.Request, key string) string {
	return h.tr.T(i18n.LanguageFromContext(r.Context()), key)
}

// internalError logs err and answers with a generic localized message.
func (h *Theming) internalError(w http.ResponseWriter, r *http.Request, msg string, err error) {
	slog.Error(msg, "error", err, "request_id", middleware.RequestIDFromCtx(r.Context()))
	writeJSON(w, http.StatusInternalServerError, map[string]any{
		"data":   map[string]any{"message": h.t(r, i18n.MsgInternalError)},
		"status": statusError,
	})
}

// UpdateStylesheet validates and stores a single setting. Parameters are
// read from a JSON body or from form values.
func (h *Theming) UpdateStylesheet(w http.ResponseWriter, r *http.Request) {
	params, err := readParams(r, "setting", "value")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{
			"data":   map[string]any{"message": err.Error()},
			"status": statusError,
		})
		return
	}

	setting := params["setting"]
	value := trimSetting(params["value"])

	if msg := validateSetting(setting, value); msg != "" {
		writeJSON(w, http.StatusOK, map[string]any{
			"data":   map[string]any{"message": h.t(r, msg)},
			"status": statusError,
		})
		return
	}

	if err := h.settings.Set(r.Context(), setting, value); err != nil {
		h.internalError(w, r, "update setting", err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"data":   map[string]any{"message": h.t(r, i18n.MsgSaved)},
		"status": statusSuccess,
	})
}

// UndoChanges reverts a setting to its default and returns that default.
func (h *Theming) UndoChanges(w http.ResponseWriter, r *http.Request) {
	params, err := readParams(r, "setting")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{
			"data":   map[string]any{"message": err.Error()},
			"status": statusError,
		})
		return
	}

	value, err := h.settings.Revert(r.Context(), params["setting"])
	if errors.Is(err, theming.ErrProtectedSetting) {
		writeJSON(w, http.StatusOK, map[string]any{
			"data":   map[string]any{"message": h.t(r, i18n.MsgUnknownSetting)},
			"status": statusError,
		})
		return
	}
	if err != nil {
		h.internalError(w, r, "revert setting", err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"data": map[string]any{
			"value":   value,
			"message": h.t(r, i18n.MsgSaved),
		},
		"status": statusSuccess,
	})
}

// UpdateLogo stores an uploaded logo and/or login background. The logo is
// stored as uploaded; the background is decoded, downscaled and re-encoded.
// A background that cannot be decoded fails the request but does not undo
// a logo stored by the same request.
func (h *Theming) UpdateLogo(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	r.Body = http.MaxBytesReader(w, r.Body, maxUploadSize)
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeJSON(w, http.StatusRequestEntityTooLarge, map[string]any{
				"data": map[string]any{"message": h.t(r, i18n.MsgFileTooLarge)},
			})
			return
		}
		// Anything else (not multipart, malformed body) means no usable file.
	}
	if r.MultipartForm != nil {
		defer r.MultipartForm.RemoveAll()
	}

	logo, logoHeader := formFile(r, logoField)
	background, backgroundHeader := formFile(r, backgroundField)
	if logo != nil {
		defer logo.Close()
	}
	if background != nil {
		defer background.Close()
	}

	if logo == nil && background == nil {
		writeJSON(w, http.StatusUnprocessableEntity, map[string]any{
			"data": map[string]any{"message": h.t(r, i18n.MsgNoFileUploaded)},
		})
		return
	}

	var name string

	if logo != nil {
		data, err := io.ReadAll(logo)
		if err != nil {
			h.internalError(w, r, "read logo upload", err)
			return
		}
		mime := imageMime(logoHeader.Header.Get("Content-Type"), data)
		if mime == "" {
			slog.Warn("logo rejected", "filename", logoHeader.Filename,
				"content_type", logoHeader.Header.Get("Content-Type"))
			writeJSON(w, http.StatusUnprocessableEntity, map[string]any{
				"data":   map[string]any{"message": h.t(r, i18n.MsgUnsupportedType)},
				"status": statusFailure,
			})
			return
		}
		if err := h.blobs.Put(ctx, models.ImagesFolder, models.LogoBlob, data); err != nil {
			h.internalError(w, r, "store logo", err)
			return
		}
		if err := h.settings.Set(ctx, models.SettingLogoMime, mime); err != nil {
			h.internalError(w, r, "record logo mime", err)
			return
		}
		name = logoHeader.Filename
	}

	if background != nil {
		data, err := io.ReadAll(background)
		if err != nil {
			h.internalError(w, r, "read background upload", err)
			return
		}
		processed, err := h.images.ProcessBackground(data)
		if errors.Is(err, imaging.ErrUnsupportedImage) {
			slog.Warn("background rejected", "filename", backgroundHeader.Filename, "error", err)
			writeJSON(w, http.StatusUnprocessableEntity, map[string]any{
				"data":   map[string]any{"message": h.t(r, i18n.MsgUnsupportedType)},
				"status": statusFailure,
			})
			return
		}
		if err != nil {
			h.internalError(w, r, "process background", err)
			return
		}
		if err := h.blobs.Put(ctx, models.ImagesFolder, models.BackgroundBlob, processed); err != nil {
			h.internalError(w, r, "store background", err)
			return
		}
		if err := h.settings.Set(ctx, models.SettingBackgroundMime, imaging.BackgroundMime); err != nil {
			h.internalError(w, r, "record background mime", err)
			return
		}
		name = backgroundHeader.Filename
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"data": map[string]any{
			"name":    name,
			"message": h.t(r, i18n.MsgSaved),
		},
		"status": statusSuccess,
	})
}

// Settings returns every resolved theming value for the admin UI.
func (h *Theming) Settings(w http.ResponseWriter, r *http.Request) {
	snap, err := h.settings.Snapshot(r.Context())
	if err != nil {
		h.internalError(w, r, "load theming snapshot", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"data":   snap,
		"status": statusSuccess,
	})
}

// History lists the most recent settings changes, newest first. Without a
// history backend the list is empty.
func (h *Theming) History(w http.ResponseWriter, r *http.Request) {
	limit := defaultHistoryLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			writeJSON(w, http.StatusBadRequest, map[string]any{
				"data":   map[string]any{"message": "invalid limit"},
				"status": statusError,
			})
			return
		}
		limit = min(n, maxHistoryLimit)
	}

	entries := []store.CacheLogEntry{}
	if h.history != nil {
		recent, err := h.history.RecentEntries(r.Context(), limit)
		if err != nil {
			h.internalError(w, r, "load change history", err)
			return
		}
		if recent != nil {
			entries = recent
		}
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"data":   map[string]any{"entries": entries},
		"status": statusSuccess,
	})
}

// Logo serves the uploaded logo.
func (h *Theming) Logo(w http.ResponseWriter, r *http.Request) {
	h.serveImage(w, r, models.LogoBlob, h.settings.LogoMime)
}

// LoginBackground serves the uploaded login background.
func (h *Theming) LoginBackground(w http.ResponseWriter, r *http.Request) {
	h.serveImage(w, r, models.BackgroundBlob, h.settings.BackgroundMime)
}

func (h *Theming) serveImage(w http.ResponseWriter, r *http.Request, blob string, mimeOf func(context.Context) (string, error)) {
	ctx := r.Context()

	data, err := h.blobs.Get(ctx, models.ImagesFolder, blob)
	if errors.Is(err, storage.ErrNotFound) {
		http.NotFound(w, r)
		return
	}
	if err != nil {
		h.internalError(w, r, "load "+blob, err)
		return
	}

	mime, err := mimeOf(ctx)
	if err != nil {
		h.internalError(w, r, "load "+blob+" mime", err)
		return
	}
	if !isImageMime(mime) {
		mime = http.DetectContentType(data)
		if !isImageMime(mime) {
			mime = "application/octet-stream"
		}
	}

	now := h.now()
	setCacheHeaders(w, imageMaxAge, now.Add(expiresAhead))
	w.Header().Set("Content-Type", mime)
	writeBody(w, data)
}

// Stylesheet compiles the theming stylesheet for the current cache-buster
// when needed and serves it.
func (h *Theming) Stylesheet(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	buster, err := h.settings.CacheBuster(ctx)
	if err != nil {
		h.internalError(w, r, "load cache buster", err)
		return
	}
	partition := strconv.FormatInt(buster, 10)

	vars, err := h.settings.ScssVariables(ctx)
	if err != nil {
		h.internalError(w, r, "load stylesheet variables", err)
		return
	}
	if err := h.styles.Process(ctx, partition, vars); err != nil {
		slog.Error("compile stylesheet", "cachebuster", partition, "error", err)
	}

	css, err := h.styles.Artifact(ctx, partition)
	if errors.Is(err, storage.ErrNotFound) {
		http.NotFound(w, r)
		return
	}
	if err != nil {
		h.internalError(w, r, "load stylesheet", err)
		return
	}

	setCacheHeaders(w, stylesheetMaxAge, h.now().Add(expiresAhead))
	w.Header().Set("Content-Type", "text/css")
	writeBody(w, css)
}

// Script serves a script exposing the current theme to the client.
func (h *Theming) Script(w http.ResponseWriter, r *http.Request) {
	js, err := h.buildScript(r.Context())
	if err != nil {
		h.internalError(w, r, "build theming script", err)
		return
	}

	setCacheHeaders(w, scriptMaxAge, h.now())
	w.Header().Set("Content-Type", "text/javascript")
	w.Header().Set("Content-Disposition", `attachment; filename="javascript"`)
	writeBody(w, []byte(js))
}

func (h *Theming) buildScript(ctx context.Context) (string, error) {
	name, err := h.settings.Name(ctx)
	if err != nil {
		return "", err
	}
	url, err := h.settings.BaseURL(ctx)
	if err != nil {
		return "", err
	}
	slogan, err := h.settings.Slogan(ctx)
	if err != nil {
		return "", err
	}
	color, err := h.settings.Color(ctx)
	if err != nil {
		return "", err
	}
	buster, err := h.settings.CacheBuster(ctx)
	if err != nil {
		return "", err
	}

	fields := []struct {
		key   string
		value any
	}{
		{"name", name},
		{"url", url},
		{"slogan", slogan},
		{"color", color},
		{"inverted", theming.InvertTextColor(color)},
		{"cacheBuster", strconv.FormatInt(buster, 10)},
	}

	var b strings.Builder
	b.WriteString("(function() {\n\tOCA.Theming = {\n")
	for i, f := range fields {
		encoded, err := json.Marshal(f.value)
		if err != nil {
			return "", err
		}
		b.WriteString("\t\t" + f.key + ": ")
		b.Write(encoded)
		if i < len(fields)-1 {
			b.WriteByte(',')
		}
		b.WriteByte('\n')
	}
	b.WriteString("\t};\n})();")
	return b.String(), nil
}

// imageMime returns the declared type when it is an image type, otherwise
// the sniffed type when that is one, otherwise "".
func imageMime(declared string, data []byte) string {
	if isImageMime(declared) {
		return declared
	}
	if sniffed := http.DetectContentType(data); isImageMime(sniffed) {
		return sniffed
	}
	return ""
}

func isImageMime(mime string) bool {
	return strings.HasPrefix(strings.ToLower(strings.TrimSpace(mime)), "image/")
}

// formFile returns the uploaded file for field, or nil when absent.
func formFile(r *http.Request, field string) (multipart.File, *multipart.FileHeader) {
	if r.MultipartForm == nil {
		return nil, nil
	}
	file, header, err := r.FormFile(field)
	if err != nil {
		return nil, nil
	}
	return file, header
}
