package handler

import (
	"log/slog"
	"net/http"

	"github.com/templui/linkstash/internal/apperr"
	"github.com/templui/linkstash/internal/service"
)

// maxUploadMemory is how much of a multipart form is held in memory; the
// rest spills to temp files.
const maxUploadMemory = 10 << 20

type UploadHandler struct {
	uploadService *service.UploadService
}

func NewUploadHandler(uploadService *service.UploadService) *UploadHandler {
	return &UploadHandler{
		uploadService: uploadService,
	}
}

func (h *UploadHandler) Upload(w http.ResponseWriter, r *http.Request) {
	f, closeFile, err := formFile(r)
	if err != nil {
		respondError(w, r, err)
		return
	}
	defer closeFile()

	upload, err := h.uploadService.Upload(r.Context(), scope(r), f)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respond(w, http.StatusCreated, upload)
}

func (h *UploadHandler) Screenshot(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		respondError(w, r, err)
		return
	}
	f, closeFile, err := formFile(r)
	if err != nil {
		respondError(w, r, err)
		return
	}
	defer closeFile()

	link, err := h.uploadService.UploadScreenshot(r.Context(), scope(r), id, f)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respond(w, http.StatusOK, link)
}

// List returns the caller's uploads, or the one stored under ?key=.
func (h *UploadHandler) List(w http.ResponseWriter, r *http.Request) {
	if key := r.URL.Query().Get("key"); key != "" {
		upload, err := h.uploadService.ByKey(r.Context(), scope(r), key)
		if err != nil {
			respondError(w, r, err)
			return
		}
		respond(w, http.StatusOK, upload)
		return
	}

	uploads, err := h.uploadService.List(r.Context(), scope(r))
	if err != nil {
		respondError(w, r, err)
		return
	}
	respond(w, http.StatusOK, uploads)
}

func (h *UploadHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		respondError(w, r, err)
		return
	}

	upload, err := h.uploadService.Get(r.Context(), scope(r), id)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respond(w, http.StatusOK, upload)
}

func (h *UploadHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		respondError(w, r, err)
		return
	}

	if err := h.uploadService.Delete(r.Context(), scope(r), id); err != nil {
		respondError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// formFile reads the "file" part of a multipart request.
func formFile(r *http.Request) (service.UploadFile, func(), error) {
	if err := r.ParseMultipartForm(maxUploadMemory); err != nil {
		return service.UploadFile{}, nil, apperr.Validation("failed to parse form")
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		return service.UploadFile{}, nil, apperr.Validation("no file uploaded")
	}

	closeFile := func() {
		if err := file.Close(); err != nil {
			slog.Error("failed to close file", "error", err)
		}
	}
	return service.UploadFile{Filename: header.Filename, Size: header.Size, Body: file}, closeFile, nil
}
