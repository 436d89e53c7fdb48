package web

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"html/template"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/csrf"
	"github.com/yuin/goldmark"
	goldmarkHTML "github.com/yuin/goldmark/renderer/html"
)

// timeNow is a variable for testability.
var timeNow = time.Now

//go:embed content/about.md
var aboutMarkdown []byte

// mdRenderer is a goldmark instance configured for safe HTML output.
// Raw HTML in markdown input is escaped (WithUnsafe is NOT set).
var mdRenderer = goldmark.New(
	goldmark.WithRendererOptions(
		goldmarkHTML.WithHardWraps(),
	),
)

var pageTemplate = template.Must(template.New("page").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<meta name="csrf-token" content="{{.CSRFToken}}">
<title>{{.Title}} | Medibook</title>
</head>
<body>
<main>{{.Body}}</main>
</body>
</html>
`))

// envelope is the JSON shape every API response shares.
type envelope struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("response_encode_failed", "error", err)
	}
}

// reject reports a business rejection. The status stays 200 so the panel reads the message.
func reject(w http.ResponseWriter, message string) {
	writeJSON(w, http.StatusOK, envelope{Success: false, Message: message})
}

// internalError logs the real error and returns a generic message to the client.
func internalError(w http.ResponseWriter, err error) {
	slog.Error("internal_error", "error", err.Error())
	writeJSON(w, http.StatusInternalServerError, envelope{Success: false, Message: "internal server error"})
}

// strictDecode decodes JSON from the request body, rejecting unknown fields.
func strictDecode(r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(nil, r.Body, 1<<16))
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}

// handleAbout renders the static About page from embedded markdown.
func (a *app) handleAbout(w http.ResponseWriter, r *http.Request) {
	var buf bytes.Buffer
	if err := mdRenderer.Convert(aboutMarkdown, &buf); err != nil {
		internalError(w, err)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	err := pageTemplate.Execute(w, map[string]any{
		"Title":     "About",
		"Body":      template.HTML(buf.String()),
		"CSRFToken": csrf.Token(r),
	})
	if err != nil {
		slog.Error("template_render_failed", "page", "about", "error", err)
	}
}

// handleHealth reports whether the database answers.
func (a *app) handleHealth(w http.ResponseWriter, r *http.Request) {
	if a.ping != nil {
		if err := a.ping(r.Context()); err != nil {
			slog.Error("health_check_failed", "error", err)
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleAdminPerf returns timing aggregates for the last `minutes` minutes (default 15).
// The endpoint is served only when a perf token is configured, and requires it in X-Perf-Token.
func (a *app) handleAdminPerf(w http.ResponseWriter, r *http.Request) {
	if a.perfToken == "" || r.Header.Get("X-Perf-Token") != a.perfToken {
		http.NotFound(w, r)
		return
	}
	minutes := 15
	if v := r.URL.Query().Get("minutes"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			minutes = n
		}
	}
	since := timeNow().Add(-time.Duration(minutes) * time.Minute)
	writeJSON(w, http.StatusOK, a.collector.Snapshot(since, 10))
}
