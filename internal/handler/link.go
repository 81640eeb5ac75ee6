package handler

import (
	"net/http"

	"github.com/templui/linkstash/internal/apperr"
	"github.com/templui/linkstash/internal/model"
	"github.com/templui/linkstash/internal/repository"
	"github.com/templui/linkstash/internal/service"
)

// maxBulkIDs bounds one bulk lookup request.
const maxBulkIDs = 1000

type LinkHandler struct {
	linkService *service.LinkService
}

func NewLinkHandler(linkService *service.LinkService) *LinkHandler {
	return &LinkHandler{
		linkService: linkService,
	}
}

func (h *LinkHandler) Create(w http.ResponseWriter, r *http.Request) {
	var in service.CreateLinkInput
	if err := decode(r, &in); err != nil {
		respondError(w, r, err)
		return
	}

	link, err := h.linkService.Create(r.Context(), scope(r), in)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respond(w, http.StatusCreated, link)
}

func (h *LinkHandler) List(w http.ResponseWriter, r *http.Request) {
	var (
		f   repository.LinkFilter
		err error
	)
	if f.FolderID, err = queryID(r, "folder"); err != nil {
		respondError(w, r, err)
		return
	}
	if f.TagID, err = queryID(r, "tag"); err != nil {
		respondError(w, r, err)
		return
	}
	if f.Limit, err = queryInt(r, "limit"); err != nil {
		respondError(w, r, err)
		return
	}
	if f.Offset, err = queryInt(r, "offset"); err != nil {
		respondError(w, r, err)
		return
	}
	f.Search = r.URL.Query().Get("q")

	links, err := h.linkService.List(r.Context(), scope(r), f)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respond(w, http.StatusOK, links)
}

func (h *LinkHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		respondError(w, r, err)
		return
	}

	link, err := h.linkService.Get(r.Context(), scope(r), id)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respond(w, http.StatusOK, link)
}

// Bulk fetches many links by id. Ids the caller does not own are left out.
func (h *LinkHandler) Bulk(w http.ResponseWriter, r *http.Request) {
	var in struct {
		IDs []int64 `json:"ids"`
	}
	if err := decode(r, &in); err != nil {
		respondError(w, r, err)
		return
	}
	if len(in.IDs) > maxBulkIDs {
		respondError(w, r, apperr.Validation("too many ids"))
		return
	}

	links, err := h.linkService.ByIDs(r.Context(), scope(r), in.IDs)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respond(w, http.StatusOK, links)
}

func (h *LinkHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		respondError(w, r, err)
		return
	}
	var in model.LinkInput
	if err := decode(r, &in); err != nil {
		respondError(w, r, err)
		return
	}

	link, err := h.linkService.Update(r.Context(), scope(r), id, in)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respond(w, http.StatusOK, link)
}

func (h *LinkHandler) Rename(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		respondError(w, r, err)
		return
	}
	var in struct {
		Slug string `json:"slug"`
	}
	if err := decode(r, &in); err != nil {
		respondError(w, r, err)
		return
	}

	link, err := h.linkService.Rename(r.Context(), scope(r), id, in.Slug)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respond(w, http.StatusOK, link)
}

func (h *LinkHandler) SetTags(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		respondError(w, r, err)
		return
	}
	var in struct {
		TagIDs []int64 `json:"tagIds"`
	}
	if err := decode(r, &in); err != nil {
		respondError(w, r, err)
		return
	}

	tags, err := h.linkService.SetTags(r.Context(), scope(r), id, in.TagIDs)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respond(w, http.StatusOK, tags)
}

func (h *LinkHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		respondError(w, r, err)
		return
	}

	if err := h.linkService.Delete(r.Context(), scope(r), id); err != nil {
		respondError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type nameInput struct {
	Name string `json:"name"`
}

func (h *LinkHandler) CreateFolder(w http.ResponseWriter, r *http.Request) {
	var in nameInput
	if err := decode(r, &in); err != nil {
		respondError(w, r, err)
		return
	}

	folder, err := h.linkService.CreateFolder(r.Context(), scope(r), in.Name)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respond(w, http.StatusCreated, folder)
}

func (h *LinkHandler) Folders(w http.ResponseWriter, r *http.Request) {
	folders, err := h.linkService.Folders(r.Context(), scope(r))
	if err != nil {
		respondError(w, r, err)
		return
	}
	respond(w, http.StatusOK, folders)
}

func (h *LinkHandler) RenameFolder(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		respondError(w, r, err)
		return
	}
	var in nameInput
	if err := decode(r, &in); err != nil {
		respondError(w, r, err)
		return
	}

	folder, err := h.linkService.RenameFolder(r.Context(), scope(r), id, in.Name)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respond(w, http.StatusOK, folder)
}

func (h *LinkHandler) DeleteFolder(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		respondError(w, r, err)
		return
	}

	if err := h.linkService.DeleteFolder(r.Context(), scope(r), id); err != nil {
		respondError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *LinkHandler) CreateTag(w http.ResponseWriter, r *http.Request) {
	var in nameInput
	if err := decode(r, &in); err != nil {
		respondError(w, r, err)
		return
	}

	tag, err := h.linkService.CreateTag(r.Context(), scope(r), in.Name)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respond(w, http.StatusCreated, tag)
}

func (h *LinkHandler) Tags(w http.ResponseWriter, r *http.Request) {
	tags, err := h.linkService.Tags(r.Context(), scope(r))
	if err != nil {
		respondError(w, r, err)
		return
	}
	respond(w, http.StatusOK, tags)
}

func (h *LinkHandler) DeleteTag(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		respondError(w, r, err)
		return
	}

	if err := h.linkService.DeleteTag(r.Context(), scope(r), id); err != nil {
		respondError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
