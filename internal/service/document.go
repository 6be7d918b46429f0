package service

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/emrgen/redline/internal/doctree"
	"github.com/emrgen/redline/internal/markdown"
	"github.com/emrgen/redline/internal/model"
	"github.com/emrgen/redline/internal/overlay"
	"github.com/emrgen/redline/internal/queue"
	"github.com/emrgen/redline/internal/session"
	"github.com/emrgen/redline/internal/store"
	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/sirupsen/logrus"
)

const closeTimeout = 30 * time.Second

// Config tunes the editing sessions the service opens.
type Config struct {
	SessionCacheSize int
	SaveDelay        time.Duration
	Reanchor         bool
}

// DocumentService opens one editing session per document and routes every
// document operation through it. Sessions are kept in an LRU; an evicted
// session is flushed and closed.
type DocumentService struct {
	store    store.Store
	events   queue.DocumentQueue
	config   Config
	mu       sync.Mutex
	sessions *lru.Cache[string, *openSession]
	closed   bool
}

type openSession struct {
	session  *session.Session
	mu       sync.Mutex
	lastUsed time.Time
}

func (o *openSession) touch() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.lastUsed = time.Now()
}

func (o *openSession) idleSince() time.Time {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.lastUsed
}

// DocumentView is the state of a document as seen by a client.
type DocumentView struct {
	ID      string        `json:"id"`
	Title   string        `json:"title"`
	Mode    overlay.Mode  `json:"mode"`
	Content *doctree.Node `json:"content"`
	Saved   bool          `json:"saved"`
}

// NewDocumentService creates a new DocumentService. events may be nil.
func NewDocumentService(store store.Store, events queue.DocumentQueue, config Config) (*DocumentService, error) {
	if config.SessionCacheSize <= 0 {
		config.SessionCacheSize = 128
	}
	if config.SaveDelay <= 0 {
		config.SaveDelay = session.DefaultSaveDelay
	}

	service := &DocumentService{
		store:  store,
		events: events,
		config: config,
	}
	sessions, err := lru.NewWithEvict[string, *openSession](config.SessionCacheSize, service.evicted)
	if err != nil {
		return nil, err
	}
	service.sessions = sessions

	return service, nil
}

func (d *DocumentService) evicted(id string, o *openSession) {
	ctx, cancel := context.WithTimeout(context.Background(), closeTimeout)
	defer cancel()
	if err := o.session.Close(ctx); err != nil {
		logrus.Errorf("error closing session of %s: %v", id, err)
	}
}

func (d *DocumentService) sessionOptions() []session.Option {
	opts := []session.Option{
		session.WithSaveDelay(d.config.SaveDelay),
		session.WithErrorHandler(func(err *session.PersistenceError) {
			logrus.Errorf("document save failed: %v", err)
		}),
	}
	if d.config.Reanchor {
		opts = append(opts, session.WithReanchoring())
	}
	if d.events != nil {
		opts = append(opts, session.WithEvents(d.events))
	}
	return opts
}

// open returns the session of the document, opening it if needed, acting
// for the user of ctx.
func (d *DocumentService) open(ctx context.Context, id string) (*session.Session, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return nil, ErrServiceClosed
	}

	user, _ := session.UserFromContext(ctx)
	if o, ok := d.sessions.Get(id); ok {
		o.touch()
		o.session.SetUser(user)
		return o.session, nil
	}

	s, err := session.Open(ctx, id, d.store, d.store, session.ContextUsers{}, d.sessionOptions()...)
	if err != nil {
		return nil, err
	}
	d.sessions.Add(id, &openSession{session: s, lastUsed: time.Now()})
	return s, nil
}

// withSession runs f on the session of the document. A session closed by
// eviction between lookup and use is reopened once.
func (d *DocumentService) withSession(ctx context.Context, id string, f func(s *session.Session) error) error {
	for attempt := 0; ; attempt++ {
		s, err := d.open(ctx, id)
		if err != nil {
			return err
		}
		err = f(s)
		if errors.Is(err, session.ErrClosed) && attempt == 0 {
			continue
		}
		return err
	}
}

func (d *DocumentService) forget(id string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.sessions.Remove(id)
}

// CreateDocument creates a document for the user of ctx. A non-empty
// markdown text becomes its content.
func (d *DocumentService) CreateDocument(ctx context.Context, title, text string) (*model.Document, error) {
	root := doctree.NewDocument(nil).Root()
	if strings.TrimSpace(text) != "" {
		root = doctree.FromProjection(markdown.Parse(text))
	}
	content, err := json.Marshal(root)
	if err != nil {
		return nil, err
	}

	doc := &model.Document{
		UserID:  userID(ctx),
		Title:   strings.TrimSpace(title),
		Content: content,
	}
	if err := d.store.CreateDocument(ctx, doc); err != nil {
		return nil, err
	}

	logrus.Infof("created document %s", doc.ID)
	return doc, nil
}

// ListDocuments lists the documents of the user of ctx, newest first.
func (d *DocumentService) ListDocuments(ctx context.Context) ([]*model.Document, error) {
	return d.store.ListDocuments(ctx, userID(ctx))
}

// GetDocument returns the live state of a document.
func (d *DocumentService) GetDocument(ctx context.Context, id string) (*DocumentView, error) {
	var view *DocumentView
	err := d.withSession(ctx, id, func(s *session.Session) error {
		view = &DocumentView{
			ID:      id,
			Title:   s.Title(),
			Mode:    s.Mode(),
			Content: s.Snapshot(),
			Saved:   !s.Status().Dirty(),
		}
		return nil
	})
	return view, err
}

// DeleteDocument deletes the document with its comments and backups.
func (d *DocumentService) DeleteDocument(ctx context.Context, id string) error {
	d.mu.Lock()
	o, ok := d.sessions.Peek(id)
	d.mu.Unlock()

	if ok {
		defer d.forget(id)
		return o.session.Delete(ctx)
	}

	if err := d.store.DeleteDocument(ctx, id); err != nil {
		return notFound("document", id, err)
	}
	d.publish(ctx, &queue.DocumentEvent{Type: queue.EventDocumentDeleted, DocumentID: id, UserID: userID(ctx), At: time.Now()})
	return nil
}

func (d *DocumentService) publish(ctx context.Context, event *queue.DocumentEvent) {
	if d.events == nil {
		return
	}
	if err := d.events.Publish(ctx, event); err != nil {
		logrus.Warnf("error publishing %s: %v", event.Type, err)
	}
}

func (d *DocumentService) SetTitle(ctx context.Context, id, title string) error {
	return d.withSession(ctx, id, func(s *session.Session) error {
		return s.SetTitle(title)
	})
}

func (d *DocumentService) SetMode(ctx context.Context, id string, mode overlay.Mode) error {
	return d.withSession(ctx, id, func(s *session.Session) error {
		return s.SetMode(mode)
	})
}

// Apply runs a transaction against the document.
func (d *DocumentService) Apply(ctx context.Context, id string, tx *doctree.Transaction) error {
	return d.withSession(ctx, id, func(s *session.Session) error {
		_, err := s.Apply(tx)
		return err
	})
}

func (d *DocumentService) Paste(ctx context.Context, id string, pos int, text string) error {
	return d.withSession(ctx, id, func(s *session.Session) error {
		_, err := s.Paste(pos, text)
		return err
	})
}

// Import replaces the content of the document with markdown text.
func (d *DocumentService) Import(ctx context.Context, id, text string) error {
	return d.withSession(ctx, id, func(s *session.Session) error {
		return s.Import(text)
	})
}

// Export returns the file name and the markdown of the document.
func (d *DocumentService) Export(ctx context.Context, id string, annotated bool) (string, string, error) {
	var name, text string
	err := d.withSession(ctx, id, func(s *session.Session) error {
		name = markdown.ExportFileName(s.Title(), annotated)
		if annotated {
			text = s.AnnotatedMarkdown()
		} else {
			text = s.Markdown()
		}
		return nil
	})
	return name, text, err
}

// Flush saves pending edits of an open document.
func (d *DocumentService) Flush(ctx context.Context, id string) error {
	d.mu.Lock()
	o, ok := d.sessions.Peek(id)
	d.mu.Unlock()
	if !ok {
		return nil
	}
	return o.session.Flush(ctx)
}

// SweepIdle closes the sessions not used for idle and returns how many.
func (d *DocumentService) SweepIdle(_ context.Context, idle time.Duration) int {
	d.mu.Lock()
	defer d.mu.Unlock()

	deadline := time.Now().Add(-idle)
	count := 0
	for _, id := range d.sessions.Keys() {
		o, ok := d.sessions.Peek(id)
		if ok && o.idleSince().Before(deadline) {
			d.sessions.Remove(id)
			count++
		}
	}
	return count
}

// OpenSessions returns the number of open sessions.
func (d *DocumentService) OpenSessions() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.sessions.Len()
}

// Close flushes and closes every session.
func (d *DocumentService) Close() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.closed = true
	d.sessions.Purge()
}

func userID(ctx context.Context) string {
	user, _ := session.UserFromContext(ctx)
	if user == nil {
		return ""
	}
	return user.ID
}
