package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/templui/linkstash/internal/apperr"
	"github.com/templui/linkstash/internal/service"
)

type StorageHandler struct {
	storageService *service.StorageService
}

func NewStorageHandler(storageService *service.StorageService) *StorageHandler {
	return &StorageHandler{
		storageService: storageService,
	}
}

func (h *StorageHandler) Scan(w http.ResponseWriter, r *http.Request) {
	report, err := h.storageService.Scan(r.Context(), scope(r))
	if err != nil {
		respondError(w, r, err)
		return
	}
	respond(w, http.StatusOK, report)
}

// Cleanup deletes the listed keys, or every current orphan when the body
// has no keys. ?dryRun=true reports what would be deleted.
func (h *StorageHandler) Cleanup(w http.ResponseWriter, r *http.Request) {
	dryRun := false
	if v := r.URL.Query().Get("dryRun"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			respondError(w, r, apperr.Validation("invalid dryRun"))
			return
		}
		dryRun = b
	}

	var in struct {
		Keys []string `json:"keys"`
	}
	if err := decode(r, &in); err != nil && !errors.Is(err, errEmptyBody) {
		respondError(w, r, err)
		return
	}

	res, err := h.storageService.Cleanup(r.Context(), scope(r), in.Keys, dryRun)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respond(w, http.StatusOK, res)
}
