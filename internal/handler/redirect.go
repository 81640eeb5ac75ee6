package handler

import (
	"net/http"

	"github.com/templui/linkstash/internal/service"
)

type RedirectHandler struct {
	redirectService *service.RedirectService
}

func NewRedirectHandler(redirectService *service.RedirectService) *RedirectHandler {
	return &RedirectHandler{
		redirectService: redirectService,
	}
}

// Redirect sends the visitor on to the link's target.
func (h *RedirectHandler) Redirect(w http.ResponseWriter, r *http.Request) {
	link, err := h.redirectService.Resolve(r.Context(), r.PathValue("slug"))
	if err != nil {
		respondError(w, r, err)
		return
	}

	w.Header().Set("Cache-Control", "private, max-age=0")
	http.Redirect(w, r, link.URL, http.StatusFound)
}
