package store

import (
	"context"
	"errors"
	"testing"
	"time"

	mapset "github.com/deckarep/golang-set/v2"
	"github.com/emrgen/redline/internal/cache"
	"github.com/emrgen/redline/internal/compress"
	"github.com/emrgen/redline/internal/model"
	"github.com/emrgen/redline/internal/tester"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newDocument(t *testing.T, s Store, content string) *model.Document {
	doc := &model.Document{UserID: "u1", Title: "Notes", Content: []byte(content)}
	require.NoError(t, s.CreateDocument(context.TODO(), doc))
	require.NotEmpty(t, doc.ID)
	return doc
}

func TestGormStore_Documents(t *testing.T) {
	for _, name := range []string{compress.NameNop, compress.NameGZip, compress.NameLZ4} {
		t.Run(name, func(t *testing.T) {
			encoder, err := compress.Lookup(name)
			require.NoError(t, err)
			s := NewGormStore(tester.TestDB(), encoder)
			ctx := context.TODO()

			doc := newDocument(t, s, `{"type":"doc"}`)

			got, err := s.LoadDocument(ctx, doc.ID)
			require.NoError(t, err)
			assert.Equal(t, `{"type":"doc"}`, string(got.Content))
			assert.Equal(t, "Notes", got.Title)

			require.NoError(t, s.SaveDocumentTitle(ctx, doc.ID, "Plans"))
			got, err = s.LoadDocument(ctx, doc.ID)
			require.NoError(t, err)
			assert.Equal(t, "Plans", got.Title)

			require.NoError(t, s.DeleteDocument(ctx, doc.ID))
			_, err = s.LoadDocument(ctx, doc.ID)
			assert.ErrorIs(t, err, model.ErrNotFound)
			assert.ErrorIs(t, s.DeleteDocument(ctx, doc.ID), model.ErrNotFound)
		})
	}
}

func TestGormStore_ListDocuments(t *testing.T) {
	s := NewGormStore(tester.TestDB(), nil)
	user := uuid.NewString()
	for i := 0; i < 3; i++ {
		require.NoError(t, s.CreateDocument(context.TODO(), &model.Document{UserID: user, Content: []byte("{}")}))
	}

	docs, err := s.ListDocuments(context.TODO(), user)
	require.NoError(t, err)
	assert.Len(t, docs, 3)
	for _, doc := range docs {
		assert.Empty(t, doc.Content)
	}
}

func TestGormStore_SaveKeepsBackups(t *testing.T) {
	s := NewGormStore(tester.TestDB(), compress.NewGZip())
	ctx := context.TODO()
	doc := newDocument(t, s, "v0")

	at := time.Now().UTC().Truncate(time.Second)
	require.NoError(t, s.SaveDocumentContent(ctx, doc.ID, []byte("v1"), at))
	require.NoError(t, s.SaveDocumentContent(ctx, doc.ID, []byte("v2"), at.Add(time.Second)))

	got, err := s.LoadDocument(ctx, doc.ID)
	require.NoError(t, err)
	assert.Equal(t, "v2", string(got.Content))
	assert.Equal(t, int64(2), got.Version)

	backups, err := s.ListDocumentBackups(ctx, doc.ID)
	require.NoError(t, err)
	require.Len(t, backups, 2)
	assert.Equal(t, int64(1), backups[0].Version)
	assert.Equal(t, int64(0), backups[1].Version)

	backup, err := s.GetDocumentBackup(ctx, doc.ID, 0)
	require.NoError(t, err)
	assert.Equal(t, "v0", string(backup.Content))

	restored, err := s.RestoreDocument(ctx, doc.ID, 0, at.Add(2*time.Second))
	require.NoError(t, err)
	assert.Equal(t, "v0", string(restored.Content))
	assert.Equal(t, int64(3), restored.Version)

	backup, err = s.GetDocumentBackup(ctx, doc.ID, 2)
	require.NoError(t, err)
	assert.Equal(t, "v2", string(backup.Content))

	_, err = s.GetDocumentBackup(ctx, doc.ID, 42)
	assert.ErrorIs(t, err, model.ErrNotFound)
	assert.ErrorIs(t, s.SaveDocumentContent(ctx, uuid.NewString(), []byte("x"), at), model.ErrNotFound)
}

func TestGormStore_DeleteDocumentBackups(t *testing.T) {
	s := NewGormStore(tester.TestDB(), nil)
	ctx := context.TODO()
	doc := newDocument(t, s, "v0")

	start := time.Now().UTC()
	for i := 1; i <= 3; i++ {
		require.NoError(t, s.SaveDocumentContent(ctx, doc.ID, []byte{byte('0' + i)}, start.Add(time.Duration(i)*time.Second)))
	}

	backups, err := s.ListDocumentBackupsByTime(ctx, start, start.Add(time.Minute))
	require.NoError(t, err)
	var versions []int64
	for _, b := range backups {
		if b.ID == doc.ID {
			versions = append(versions, b.Version)
		}
	}
	assert.Equal(t, []int64{0, 1, 2}, versions)

	err = s.DeleteDocumentBackups(ctx, map[string]mapset.Set[int64]{doc.ID: mapset.NewSet[int64](0, 1)})
	require.NoError(t, err)

	backups, err = s.ListDocumentBackups(ctx, doc.ID)
	require.NoError(t, err)
	require.Len(t, backups, 1)
	assert.Equal(t, int64(2), backups[0].Version)
}

func TestGormStore_Comments(t *testing.T) {
	s := NewGormStore(tester.TestDB(), nil)
	ctx := context.TODO()
	doc := newDocument(t, s, "{}")

	c := &model.Comment{DocumentID: doc.ID, UserID: "u1", Content: "fix this", PositionFrom: 6, PositionTo: 11}
	require.NoError(t, s.InsertComment(ctx, c))
	require.NoError(t, s.UpdateComment(ctx, c.ID, true))
	require.NoError(t, s.UpdateCommentAnchor(ctx, c.ID, 8, 13))

	comments, err := s.ListComments(ctx, doc.ID)
	require.NoError(t, err)
	require.Len(t, comments, 1)
	assert.True(t, comments[0].Resolved)
	assert.Equal(t, 8, comments[0].PositionFrom)
	assert.Equal(t, 13, comments[0].PositionTo)

	require.NoError(t, s.DeleteComment(ctx, c.ID))
	assert.ErrorIs(t, s.DeleteComment(ctx, c.ID), model.ErrNotFound)
	assert.ErrorIs(t, s.UpdateComment(ctx, c.ID, false), model.ErrNotFound)
}

func TestGormStore_Transaction(t *testing.T) {
	s := NewGormStore(tester.TestDB(), nil)
	ctx := context.TODO()
	id := uuid.NewString()

	err := s.Transaction(ctx, func(tx Store) error {
		if err := tx.CreateDocument(ctx, &model.Document{ID: id, UserID: "u1"}); err != nil {
			return err
		}
		return errors.New("abort")
	})
	assert.Error(t, err)

	_, err = s.LoadDocument(ctx, id)
	assert.ErrorIs(t, err, model.ErrNotFound)
}

func TestCachedStore(t *testing.T) {
	client := tester.Redis()
	defer client.Close()
	documents := cache.NewRedisDocumentCache(client, compress.NewGZip(), time.Minute)
	s := NewCachedStore(NewGormStore(tester.TestDB(), nil), documents)
	ctx := context.TODO()

	doc := newDocument(t, s, "v0")
	_, err := s.LoadDocument(ctx, doc.ID)
	require.NoError(t, err)

	cached, err := documents.GetDocument(ctx, doc.ID)
	require.NoError(t, err)
	require.NotNil(t, cached)
	assert.Equal(t, "v0", string(cached.Content))

	require.NoError(t, s.SaveDocumentContent(ctx, doc.ID, []byte("v1"), time.Now()))
	cached, err = documents.GetDocument(ctx, doc.ID)
	require.NoError(t, err)
	assert.Nil(t, cached)

	got, err := s.LoadDocument(ctx, doc.ID)
	require.NoError(t, err)
	assert.Equal(t, "v1", string(got.Content))
}

type failingStore struct {
	Store
	calls int
}

func (f *failingStore) LoadDocument(context.Context, string) (*model.Document, error) {
	f.calls++
	return nil, errors.New("connection refused")
}

func (f *failingStore) SaveDocumentTitle(context.Context, string, string) error {
	f.calls++
	return model.ErrNotFound
}

func TestBreakerStore_OpensAfterFailures(t *testing.T) {
	inner := &failingStore{}
	config := DefaultBreakerConfig()
	config.MinRequests = 3
	config.FailureRatio = 1
	s := NewBreakerStore(inner, config)

	for i := 0; i < 3; i++ {
		_, err := s.LoadDocument(context.TODO(), "d1")
		assert.EqualError(t, err, "connection refused")
	}

	_, err := s.LoadDocument(context.TODO(), "d1")
	assert.Error(t, err)
	assert.Equal(t, 3, inner.calls)
}

func TestBreakerStore_NotFoundIsNotAFailure(t *testing.T) {
	inner := &failingStore{}
	config := DefaultBreakerConfig()
	config.MinRequests = 2
	config.FailureRatio = 1
	s := NewBreakerStore(inner, config)

	for i := 0; i < 5; i++ {
		assert.ErrorIs(t, s.SaveDocumentTitle(context.TODO(), "d1", "x"), model.ErrNotFound)
	}
	assert.Equal(t, 5, inner.calls)
}
