package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/emrgen/redline/internal/doctree"
	"github.com/emrgen/redline/internal/overlay"
	"github.com/emrgen/redline/internal/service"
	"github.com/gorilla/mux"
	"github.com/pkg/errors"
)

// Handler serves the document API over a DocumentService.
type Handler struct {
	docs *service.DocumentService
}

func NewHandler(docs *service.DocumentService) *Handler {
	return &Handler{docs: docs}
}

// RegisterRoutes registers the /v1 document routes on router.
func (h *Handler) RegisterRoutes(router *mux.Router) {
	api := router.PathPrefix("/v1/documents").Subrouter()

	api.HandleFunc("", h.createDocument).Methods(http.MethodPost)
	api.HandleFunc("", h.listDocuments).Methods(http.MethodGet)
	api.HandleFunc("/{id}", h.getDocument).Methods(http.MethodGet)
	api.HandleFunc("/{id}", h.deleteDocument).Methods(http.MethodDelete)
	api.HandleFunc("/{id}/title", h.setTitle).Methods(http.MethodPut)
	api.HandleFunc("/{id}/mode", h.setMode).Methods(http.MethodPut)
	api.HandleFunc("/{id}/transactions", h.apply).Methods(http.MethodPost)
	api.HandleFunc("/{id}/paste", h.paste).Methods(http.MethodPost)
	api.HandleFunc("/{id}/import", h.importMarkdown).Methods(http.MethodPost)
	api.HandleFunc("/{id}/export", h.exportMarkdown).Methods(http.MethodGet)
	api.HandleFunc("/{id}/flush", h.flush).Methods(http.MethodPost)

	api.HandleFunc("/{id}/comments", h.listComments).Methods(http.MethodGet)
	api.HandleFunc("/{id}/comments", h.addComment).Methods(http.MethodPost)
	api.HandleFunc("/{id}/comments/{comment}/resolve", h.resolveComment).Methods(http.MethodPost)
	api.HandleFunc("/{id}/comments/{comment}", h.deleteComment).Methods(http.MethodDelete)

	api.HandleFunc("/{id}/suggestions", h.listSuggestions).Methods(http.MethodGet)
	api.HandleFunc("/{id}/suggestions/accept", h.resolveAll(true)).Methods(http.MethodPost)
	api.HandleFunc("/{id}/suggestions/reject", h.resolveAll(false)).Methods(http.MethodPost)
	api.HandleFunc("/{id}/suggestions/{suggestion}/accept", h.resolveSuggestion(true)).Methods(http.MethodPost)
	api.HandleFunc("/{id}/suggestions/{suggestion}/reject", h.resolveSuggestion(false)).Methods(http.MethodPost)

	api.HandleFunc("/{id}/backups", h.listBackups).Methods(http.MethodGet)
	api.HandleFunc("/{id}/backups/{version}", h.getBackup).Methods(http.MethodGet)
	api.HandleFunc("/{id}/backups/{version}/restore", h.restoreBackup).Methods(http.MethodPost)
}

func decode(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return errors.Wrap(ErrBadRequest, err.Error())
	}
	return nil
}

type createDocumentRequest struct {
	Title   string `json:"title"`
	Content string `json:"content"`
}

func (h *Handler) createDocument(w http.ResponseWriter, r *http.Request) {
	var req createDocumentRequest
	if err := decode(r, &req); err != nil {
		respondError(w, err)
		return
	}
	doc, err := h.docs.CreateDocument(r.Context(), req.Title, req.Content)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, documentOf(doc), http.StatusCreated)
}

func (h *Handler) listDocuments(w http.ResponseWriter, r *http.Request) {
	docs, err := h.docs.ListDocuments(r.Context())
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, map[string]any{"documents": documentsOf(docs)}, http.StatusOK)
}

func (h *Handler) getDocument(w http.ResponseWriter, r *http.Request) {
	view, err := h.docs.GetDocument(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, view, http.StatusOK)
}

func (h *Handler) deleteDocument(w http.ResponseWriter, r *http.Request) {
	if err := h.docs.DeleteDocument(r.Context(), mux.Vars(r)["id"]); err != nil {
		respondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) setTitle(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Title string `json:"title"`
	}
	if err := decode(r, &req); err != nil {
		respondError(w, err)
		return
	}
	if err := h.docs.SetTitle(r.Context(), mux.Vars(r)["id"], req.Title); err != nil {
		respondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) setMode(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Mode overlay.Mode `json:"mode"`
	}
	if err := decode(r, &req); err != nil {
		respondError(w, err)
		return
	}
	if err := h.docs.SetMode(r.Context(), mux.Vars(r)["id"], req.Mode); err != nil {
		respondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) apply(w http.ResponseWriter, r *http.Request) {
	tx := doctree.NewTransaction()
	if err := decode(r, tx); err != nil {
		respondError(w, err)
		return
	}
	id := mux.Vars(r)["id"]
	if err := h.docs.Apply(r.Context(), id, tx); err != nil {
		respondError(w, err)
		return
	}
	h.getDocument(w, r)
}

func (h *Handler) paste(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Pos  int    `json:"pos"`
		Text string `json:"text"`
	}
	if err := decode(r, &req); err != nil {
		respondError(w, err)
		return
	}
	if err := h.docs.Paste(r.Context(), mux.Vars(r)["id"], req.Pos, req.Text); err != nil {
		respondError(w, err)
		return
	}
	h.getDocument(w, r)
}

func (h *Handler) importMarkdown(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Content string `json:"content"`
	}
	if err := decode(r, &req); err != nil {
		respondError(w, err)
		return
	}
	if err := h.docs.Import(r.Context(), mux.Vars(r)["id"], req.Content); err != nil {
		respondError(w, err)
		return
	}
	h.getDocument(w, r)
}

func (h *Handler) exportMarkdown(w http.ResponseWriter, r *http.Request) {
	annotated, _ := strconv.ParseBool(r.URL.Query().Get("annotated"))
	name, text, err := h.docs.Export(r.Context(), mux.Vars(r)["id"], annotated)
	if err != nil {
		respondError(w, err)
		return
	}
	w.Header().Set("Content-Type", "text/markdown; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	_, _ = w.Write([]byte(text))
}

func (h *Handler) flush(w http.ResponseWriter, r *http.Request) {
	if err := h.docs.Flush(r.Context(), mux.Vars(r)["id"]); err != nil {
		respondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) listComments(w http.ResponseWriter, r *http.Request) {
	comments, err := h.docs.ListComments(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, map[string]any{"comments": commentsOf(comments)}, http.StatusOK)
}

type addCommentRequest struct {
	From int    `json:"from"`
	To   int    `json:"to"`
	Text string `json:"text"`
}

func (h *Handler) addComment(w http.ResponseWriter, r *http.Request) {
	var req addCommentRequest
	if err := decode(r, &req); err != nil {
		respondError(w, err)
		return
	}
	comment, err := h.docs.AddComment(r.Context(), mux.Vars(r)["id"], doctree.Range{From: req.From, To: req.To}, req.Text)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, commentOf(comment), http.StatusCreated)
}

func (h *Handler) resolveComment(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	comment, err := h.docs.ResolveComment(r.Context(), vars["id"], vars["comment"])
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, commentOf(comment), http.StatusOK)
}

func (h *Handler) deleteComment(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	if err := h.docs.DeleteComment(r.Context(), vars["id"], vars["comment"]); err != nil {
		respondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) listSuggestions(w http.ResponseWriter, r *http.Request) {
	suggestions, err := h.docs.ListSuggestions(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, map[string]any{"suggestions": suggestions}, http.StatusOK)
}

func (h *Handler) resolveSuggestion(accept bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		vars := mux.Vars(r)
		resolve := h.docs.RejectSuggestion
		if accept {
			resolve = h.docs.AcceptSuggestion
		}
		found, err := resolve(r.Context(), vars["id"], vars["suggestion"])
		if err != nil {
			respondError(w, err)
			return
		}
		respondJSON(w, map[string]any{"found": found}, http.StatusOK)
	}
}

func (h *Handler) resolveAll(accept bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		count, err := h.docs.ResolveAll(r.Context(), mux.Vars(r)["id"], accept)
		if err != nil {
			respondError(w, err)
			return
		}
		respondJSON(w, map[string]any{"resolved": count}, http.StatusOK)
	}
}

func (h *Handler) listBackups(w http.ResponseWriter, r *http.Request) {
	backups, err := h.docs.ListBackups(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, map[string]any{"backups": backupsOf(backups)}, http.StatusOK)
}

func version(r *http.Request) (int64, error) {
	v, err := strconv.ParseInt(mux.Vars(r)["version"], 10, 64)
	if err != nil {
		return 0, errors.Wrap(ErrBadRequest, "version must be a number")
	}
	return v, nil
}

func (h *Handler) getBackup(w http.ResponseWriter, r *http.Request) {
	v, err := version(r)
	if err != nil {
		respondError(w, err)
		return
	}
	backup, err := h.docs.GetBackup(r.Context(), mux.Vars(r)["id"], v)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, backupOf(backup), http.StatusOK)
}

func (h *Handler) restoreBackup(w http.ResponseWriter, r *http.Request) {
	v, err := version(r)
	if err != nil {
		respondError(w, err)
		return
	}
	doc, err := h.docs.RestoreBackup(r.Context(), mux.Vars(r)["id"], v)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, documentOf(doc), http.StatusOK)
}
