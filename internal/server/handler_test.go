package server

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/emrgen/redline/internal/compress"
	"github.com/emrgen/redline/internal/doctree"
	"github.com/emrgen/redline/internal/overlay"
	"github.com/emrgen/redline/internal/service"
	"github.com/emrgen/redline/internal/session"
	"github.com/emrgen/redline/internal/store"
	"github.com/emrgen/redline/internal/tester"
	"github.com/sony/gobreaker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T) *httptest.Server {
	docs, err := service.NewDocumentService(store.NewGormStore(tester.TestDB(), compress.NewNop()), nil, service.Config{SaveDelay: time.Hour})
	require.NoError(t, err)
	srv := httptest.NewServer(NewRouter(docs))
	t.Cleanup(func() {
		srv.Close()
		docs.Close()
	})
	return srv
}

func call(t *testing.T, srv *httptest.Server, method, path string, body any, out any) *http.Response {
	var payload bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&payload).Encode(body))
	}
	req, err := http.NewRequest(method, srv.URL+path, &payload)
	require.NoError(t, err)
	req.Header.Set(userIDHeader, "u1")
	req.Header.Set(userNameHeader, "Ada")

	resp, err := srv.Client().Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { _ = resp.Body.Close() })
	if out != nil {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
	}
	return resp
}

func TestHandler_DocumentLifecycle(t *testing.T) {
	srv := newTestServer(t)

	var doc documentResponse
	resp := call(t, srv, http.MethodPost, "/v1/documents", createDocumentRequest{Title: "Notes", Content: "Hello world"}, &doc)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.Equal(t, "u1", doc.UserID)

	var list struct {
		Documents []documentResponse `json:"documents"`
	}
	resp = call(t, srv, http.MethodGet, "/v1/documents", nil, &list)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.NotEmpty(t, list.Documents)

	tx := doctree.NewTransaction().InsertText(7, "big ")
	var view service.DocumentView
	resp = call(t, srv, http.MethodPost, "/v1/documents/"+doc.ID+"/transactions", tx, &view)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.False(t, view.Saved)

	var comment commentResponse
	resp = call(t, srv, http.MethodPost, "/v1/documents/"+doc.ID+"/comments", addCommentRequest{From: 11, To: 16, Text: "which?"}, &comment)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.Equal(t, "Ada", comment.UserName)

	resp = call(t, srv, http.MethodPut, "/v1/documents/"+doc.ID+"/mode", map[string]string{"mode": "suggesting"}, nil)
	require.Equal(t, http.StatusNoContent, resp.StatusCode)
	resp = call(t, srv, http.MethodPost, "/v1/documents/"+doc.ID+"/paste", map[string]any{"pos": 1, "text": "Oh "}, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var suggestions struct {
		Suggestions []overlay.Suggestion `json:"suggestions"`
	}
	call(t, srv, http.MethodGet, "/v1/documents/"+doc.ID+"/suggestions", nil, &suggestions)
	require.Len(t, suggestions.Suggestions, 1)

	var resolved struct {
		Resolved int `json:"resolved"`
	}
	call(t, srv, http.MethodPost, "/v1/documents/"+doc.ID+"/suggestions/accept", nil, &resolved)
	assert.Equal(t, 1, resolved.Resolved)

	resp = call(t, srv, http.MethodGet, "/v1/documents/"+doc.ID+"/export", nil, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, `attachment; filename="notes.md"`, resp.Header.Get("Content-Disposition"))
	var text bytes.Buffer
	_, err := text.ReadFrom(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, "Oh Hello big world", text.String())

	resp = call(t, srv, http.MethodDelete, "/v1/documents/"+doc.ID, nil, nil)
	require.Equal(t, http.StatusNoContent, resp.StatusCode)
	resp = call(t, srv, http.MethodGet, "/v1/documents/"+doc.ID, nil, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestHandler_Errors(t *testing.T) {
	srv := newTestServer(t)

	var doc documentResponse
	call(t, srv, http.MethodPost, "/v1/documents", createDocumentRequest{Title: "Notes", Content: "Hello"}, &doc)

	tests := []struct {
		name   string
		method string
		path   string
		body   any
		status int
	}{
		{"unknown document", http.MethodGet, "/v1/documents/missing", nil, http.StatusNotFound},
		{"out of range", http.MethodPost, "/v1/documents/" + doc.ID + "/transactions", doctree.NewTransaction().InsertText(99, "x"), http.StatusBadRequest},
		{"unknown step", http.MethodPost, "/v1/documents/" + doc.ID + "/transactions", map[string]any{"steps": []map[string]any{{"type": "explode"}}}, http.StatusBadRequest},
		{"empty comment", http.MethodPost, "/v1/documents/" + doc.ID + "/comments", addCommentRequest{From: 1, To: 3, Text: " "}, http.StatusBadRequest},
		{"bad version", http.MethodGet, "/v1/documents/" + doc.ID + "/backups/latest", nil, http.StatusBadRequest},
		{"unknown mode", http.MethodPut, "/v1/documents/" + doc.ID + "/mode", map[string]string{"mode": "drafting"}, http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var body errorResponse
			resp := call(t, srv, tt.method, tt.path, tt.body, &body)
			assert.Equal(t, tt.status, resp.StatusCode)
			assert.NotEmpty(t, body.Error)
		})
	}
}

func TestStatusOf(t *testing.T) {
	tests := []struct {
		err    error
		status int
	}{
		{&session.NotFoundError{Kind: "comment", ID: "c1"}, http.StatusNotFound},
		{&overlay.ReadOnlyError{Op: "apply"}, http.StatusForbidden},
		{session.ErrClosed, http.StatusConflict},
		{&session.PersistenceError{Op: "save", Err: gobreaker.ErrOpenState}, http.StatusServiceUnavailable},
		{errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.status, statusOf(tt.err), tt.err.Error())
	}
}
