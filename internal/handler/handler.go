// Package handler holds the JSON API handlers. Every response is either
// {"data": ...} or {"error": "<short message>"}.
package handler

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/templui/linkstash/internal/apperr"
	"github.com/templui/linkstash/internal/ctxkeys"
	"github.com/templui/linkstash/internal/repository"
)

// maxBodyBytes caps JSON request bodies. Imports are the largest.
const maxBodyBytes = 16 << 20

var errEmptyBody = apperr.Validation("request body is empty")

type envelope struct {
	Data  any    `json:"data,omitempty"`
	Error string `json:"error,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v envelope) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

func respond(w http.ResponseWriter, status int, data any) {
	writeJSON(w, status, envelope{Data: data})
}

// respondError maps err onto its status and public message. Store and
// unknown errors are logged; their text never reaches the client.
func respondError(w http.ResponseWriter, r *http.Request, err error) {
	status := apperr.Status(err)
	if status >= http.StatusInternalServerError {
		slog.ErrorContext(r.Context(), "request failed", "error", err, "path", r.URL.Path)
	}
	writeJSON(w, status, envelope{Error: apperr.Public(err)})
}

func decode(r *http.Request, v any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		var syntaxErr *json.SyntaxError
		var typeErr *json.UnmarshalTypeError
		switch {
		case errors.Is(err, io.EOF):
			return errEmptyBody
		case errors.As(err, &syntaxErr), errors.As(err, &typeErr):
			return apperr.Validation("request body is not valid JSON")
		default:
			return apperr.Validation("invalid request body")
		}
	}
	return nil
}

func pathID(r *http.Request, name string) (int64, error) {
	id, err := strconv.ParseInt(r.PathValue(name), 10, 64)
	if err != nil || id <= 0 {
		return 0, apperr.Validation("invalid " + name)
	}
	return id, nil
}

func queryInt(r *http.Request, name string) (int, error) {
	v := r.URL.Query().Get(name)
	if v == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return 0, apperr.Validation("invalid " + name)
	}
	return n, nil
}

func queryID(r *http.Request, name string) (*int64, error) {
	v := r.URL.Query().Get(name)
	if v == "" {
		return nil, nil
	}
	id, err := strconv.ParseInt(v, 10, 64)
	if err != nil || id <= 0 {
		return nil, apperr.Validation("invalid " + name)
	}
	return &id, nil
}

// scope returns the caller's scope. Routes are wrapped in RequireAuth, so a
// missing scope is a wiring bug.
func scope(r *http.Request) repository.Scope {
	s, ok := ctxkeys.Scope(r.Context())
	if !ok {
		panic("handler: route served without an authenticated scope")
	}
	return s
}
