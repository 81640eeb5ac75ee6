package handler

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/templui/linkstash/internal/model"
	"github.com/templui/linkstash/internal/service"
)

type BackupHandler struct {
	backupService *service.BackupService
}

func NewBackupHandler(backupService *service.BackupService) *BackupHandler {
	return &BackupHandler{
		backupService: backupService,
	}
}

// Export downloads the caller's envelope as a JSON attachment. The body is
// the bare envelope, the same document Import and `linkctl export` use.
func (h *BackupHandler) Export(w http.ResponseWriter, r *http.Request) {
	env, err := h.backupService.Export(r.Context(), scope(r))
	if err != nil {
		respondError(w, r, err)
		return
	}

	filename := fmt.Sprintf("linkstash-export-%s.json", env.ExportedAt.Format(time.DateOnly))
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filename))
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(env); err != nil {
		slog.ErrorContext(r.Context(), "failed to encode export", "error", err)
	}
}

func (h *BackupHandler) Import(w http.ResponseWriter, r *http.Request) {
	var env model.Export
	if err := decode(r, &env); err != nil {
		respondError(w, r, err)
		return
	}

	res, err := h.backupService.Import(r.Context(), scope(r), &env)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respond(w, http.StatusOK, res)
}
