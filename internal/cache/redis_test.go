package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/emrgen/redline/internal/compress"
	"github.com/emrgen/redline/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newCache(t *testing.T) (*RedisDocumentCache, *miniredis.Miniredis) {
	server := miniredis.RunT(t)
	client := NewRedisClient(server.Addr(), "", 0)
	t.Cleanup(func() { client.Close() })
	return NewRedisDocumentCache(client, compress.NewBrotli(), time.Minute), server
}

func TestRedisDocumentCache(t *testing.T) {
	c, server := newCache(t)
	ctx := context.TODO()

	doc, err := c.GetDocument(ctx, "d1")
	require.NoError(t, err)
	assert.Nil(t, doc)

	version, err := c.GetDocumentVersion(ctx, "d1")
	require.NoError(t, err)
	assert.Zero(t, version)

	err = c.SetDocument(ctx, &model.Document{ID: "d1", Title: "Notes", Content: []byte(`{"type":"doc"}`), Version: 3})
	require.NoError(t, err)
	assert.True(t, server.Exists("document:d1"))

	doc, err = c.GetDocument(ctx, "d1")
	require.NoError(t, err)
	require.NotNil(t, doc)
	assert.Equal(t, "Notes", doc.Title)
	assert.Equal(t, []byte(`{"type":"doc"}`), doc.Content)

	version, err = c.GetDocumentVersion(ctx, "d1")
	require.NoError(t, err)
	assert.Equal(t, int64(3), version)

	require.NoError(t, c.DeleteDocument(ctx, "d1"))
	doc, err = c.GetDocument(ctx, "d1")
	require.NoError(t, err)
	assert.Nil(t, doc)
}

func TestRedisDocumentCache_Expires(t *testing.T) {
	c, server := newCache(t)
	ctx := context.TODO()

	require.NoError(t, c.SetDocument(ctx, &model.Document{ID: "d1"}))
	server.FastForward(2 * time.Minute)

	doc, err := c.GetDocument(ctx, "d1")
	require.NoError(t, err)
	assert.Nil(t, doc)
}
