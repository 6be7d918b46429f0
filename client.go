package redline

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/emrgen/redline/internal/doctree"
)

// Client talks to the redline HTTP API as one user.
type Client struct {
	baseURL  string
	http     *http.Client
	userID   string
	userName string
}

// NewClient creates a client for the server at baseURL, e.g.
// http://localhost:8030.
func NewClient(baseURL, userID, userName string) *Client {
	return &Client{
		baseURL:  strings.TrimSuffix(baseURL, "/"),
		http:     &http.Client{Timeout: 30 * time.Second},
		userID:   userID,
		userName: userName,
	}
}

// APIError is a non-2xx answer of the server.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%d %s: %s", e.Status, http.StatusText(e.Status), e.Message)
}

type Document struct {
	ID        string          `json:"id"`
	UserID    string          `json:"userId"`
	Title     string          `json:"title"`
	Version   int64           `json:"version"`
	Content   json.RawMessage `json:"content,omitempty"`
	CreatedAt time.Time       `json:"createdAt"`
	UpdatedAt time.Time       `json:"updatedAt"`
}

// DocumentView is the live state of an open document.
type DocumentView struct {
	ID      string        `json:"id"`
	Title   string        `json:"title"`
	Mode    string        `json:"mode"`
	Content *doctree.Node `json:"content"`
	Saved   bool          `json:"saved"`
}

type Comment struct {
	ID        string    `json:"id"`
	UserID    string    `json:"userId"`
	UserName  string    `json:"userName"`
	Content   string    `json:"content"`
	From      int       `json:"from"`
	To        int       `json:"to"`
	Resolved  bool      `json:"resolved"`
	CreatedAt time.Time `json:"createdAt"`
}

type Suggestion struct {
	ID      string          `json:"id"`
	Type    string          `json:"type"`
	UserID  string          `json:"userId"`
	Content string          `json:"content"`
	Ranges  []doctree.Range `json:"ranges"`
}

type Backup struct {
	ID        string          `json:"id"`
	Version   int64           `json:"version"`
	Title     string          `json:"title"`
	Content   json.RawMessage `json:"content,omitempty"`
	CreatedAt time.Time       `json:"createdAt"`
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) (*http.Response, error) {
	var payload io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, err
		}
		payload = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, payload)
	if err != nil {
		return nil, err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.userID != "" {
		req.Header.Set("X-User-Id", c.userID)
		req.Header.Set("X-User-Name", c.userName)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		var failure struct {
			Error string `json:"error"`
		}
		_ = json.NewDecoder(resp.Body).Decode(&failure)
		return resp, &APIError{Status: resp.StatusCode, Message: failure.Error}
	}

	switch out := out.(type) {
	case nil:
	case *bytes.Buffer:
		_, err = out.ReadFrom(resp.Body)
	default:
		err = json.NewDecoder(resp.Body).Decode(out)
	}
	return resp, err
}

func documentPath(id string, parts ...string) string {
	path := "/v1/documents/" + url.PathEscape(id)
	for _, p := range parts {
		path += "/" + url.PathEscape(p)
	}
	return path
}

func (c *Client) CreateDocument(ctx context.Context, title, content string) (*Document, error) {
	var doc Document
	_, err := c.do(ctx, http.MethodPost, "/v1/documents", map[string]string{"title": title, "content": content}, &doc)
	return &doc, err
}

func (c *Client) ListDocuments(ctx context.Context) ([]*Document, error) {
	var res struct {
		Documents []*Document `json:"documents"`
	}
	_, err := c.do(ctx, http.MethodGet, "/v1/documents", nil, &res)
	return res.Documents, err
}

func (c *Client) GetDocument(ctx context.Context, id string) (*DocumentView, error) {
	var view DocumentView
	_, err := c.do(ctx, http.MethodGet, documentPath(id), nil, &view)
	return &view, err
}

func (c *Client) DeleteDocument(ctx context.Context, id string) error {
	_, err := c.do(ctx, http.MethodDelete, documentPath(id), nil, nil)
	return err
}

func (c *Client) SetTitle(ctx context.Context, id, title string) error {
	_, err := c.do(ctx, http.MethodPut, documentPath(id, "title"), map[string]string{"title": title}, nil)
	return err
}

// SetMode switches the document to editing, suggesting or viewing.
func (c *Client) SetMode(ctx context.Context, id, mode string) error {
	_, err := c.do(ctx, http.MethodPut, documentPath(id, "mode"), map[string]string{"mode": mode}, nil)
	return err
}

func (c *Client) Apply(ctx context.Context, id string, tx *doctree.Transaction) (*DocumentView, error) {
	var view DocumentView
	_, err := c.do(ctx, http.MethodPost, documentPath(id, "transactions"), tx, &view)
	return &view, err
}

func (c *Client) Paste(ctx context.Context, id string, pos int, text string) (*DocumentView, error) {
	var view DocumentView
	_, err := c.do(ctx, http.MethodPost, documentPath(id, "paste"), map[string]any{"pos": pos, "text": text}, &view)
	return &view, err
}

// Import replaces the content of the document with markdown.
func (c *Client) Import(ctx context.Context, id, markdown string) (*DocumentView, error) {
	var view DocumentView
	_, err := c.do(ctx, http.MethodPost, documentPath(id, "import"), map[string]string{"content": markdown}, &view)
	return &view, err
}

// Export returns the suggested file name and the markdown of the document.
func (c *Client) Export(ctx context.Context, id string, annotated bool) (string, string, error) {
	var text bytes.Buffer
	resp, err := c.do(ctx, http.MethodGet, documentPath(id, "export")+"?annotated="+strconv.FormatBool(annotated), nil, &text)
	if err != nil {
		return "", "", err
	}
	name := id + ".md"
	if _, params, err := mime.ParseMediaType(resp.Header.Get("Content-Disposition")); err == nil && params["filename"] != "" {
		name = params["filename"]
	}
	return name, text.String(), nil
}

func (c *Client) Flush(ctx context.Context, id string) error {
	_, err := c.do(ctx, http.MethodPost, documentPath(id, "flush"), nil, nil)
	return err
}

func (c *Client) ListComments(ctx context.Context, id string) ([]*Comment, error) {
	var res struct {
		Comments []*Comment `json:"comments"`
	}
	_, err := c.do(ctx, http.MethodGet, documentPath(id, "comments"), nil, &res)
	return res.Comments, err
}

func (c *Client) AddComment(ctx context.Context, id string, from, to int, text string) (*Comment, error) {
	var comment Comment
	_, err := c.do(ctx, http.MethodPost, documentPath(id, "comments"), map[string]any{"from": from, "to": to, "text": text}, &comment)
	return &comment, err
}

// ResolveComment toggles the resolved flag of a comment.
func (c *Client) ResolveComment(ctx context.Context, id, commentID string) (*Comment, error) {
	var comment Comment
	_, err := c.do(ctx, http.MethodPost, documentPath(id, "comments", commentID, "resolve"), nil, &comment)
	return &comment, err
}

func (c *Client) DeleteComment(ctx context.Context, id, commentID string) error {
	_, err := c.do(ctx, http.MethodDelete, documentPath(id, "comments", commentID), nil, nil)
	return err
}

func (c *Client) ListSuggestions(ctx context.Context, id string) ([]*Suggestion, error) {
	var res struct {
		Suggestions []*Suggestion `json:"suggestions"`
	}
	_, err := c.do(ctx, http.MethodGet, documentPath(id, "suggestions"), nil, &res)
	return res.Suggestions, err
}

func verb(accept bool) string {
	if accept {
		return "accept"
	}
	return "reject"
}

// ResolveSuggestion accepts or rejects one suggestion and reports whether
// it existed.
func (c *Client) ResolveSuggestion(ctx context.Context, id, suggestionID string, accept bool) (bool, error) {
	var res struct {
		Found bool `json:"found"`
	}
	_, err := c.do(ctx, http.MethodPost, documentPath(id, "suggestions", suggestionID, verb(accept)), nil, &res)
	return res.Found, err
}

// ResolveAll accepts or rejects every suggestion and returns how many.
func (c *Client) ResolveAll(ctx context.Context, id string, accept bool) (int, error) {
	var res struct {
		Resolved int `json:"resolved"`
	}
	_, err := c.do(ctx, http.MethodPost, documentPath(id, "suggestions", verb(accept)), nil, &res)
	return res.Resolved, err
}

func (c *Client) ListBackups(ctx context.Context, id string) ([]*Backup, error) {
	var res struct {
		Backups []*Backup `json:"backups"`
	}
	_, err := c.do(ctx, http.MethodGet, documentPath(id, "backups"), nil, &res)
	return res.Backups, err
}

func (c *Client) GetBackup(ctx context.Context, id string, version int64) (*Backup, error) {
	var backup Backup
	_, err := c.do(ctx, http.MethodGet, documentPath(id, "backups", strconv.FormatInt(version, 10)), nil, &backup)
	return &backup, err
}

func (c *Client) RestoreBackup(ctx context.Context, id string, version int64) (*Document, error) {
	var doc Document
	_, err := c.do(ctx, http.MethodPost, documentPath(id, "backups", strconv.FormatInt(version, 10), "restore"), nil, &doc)
	return &doc, err
}
