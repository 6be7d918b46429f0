package cache

import (
	"context"
	"errors"
	"time"

	"github.com/emrgen/redline/internal/compress"
	"github.com/emrgen/redline/internal/model"
	pkgerrors "github.com/pkg/errors"
	redis "github.com/redis/go-redis/v9"
)

const documentVersionHash = "document:version"

func documentKey(id string) string {
	return "document:" + id
}

var _ DocumentCache = (*RedisDocumentCache)(nil)

// RedisDocumentCache keeps loaded documents in redis, compressed with
// encoder. The version of every cached document is kept in one hash.
type RedisDocumentCache struct {
	client  *redis.Client
	encoder compress.Compress
	ttl     time.Duration
}

func NewRedisDocumentCache(client *redis.Client, encoder compress.Compress, ttl time.Duration) *RedisDocumentCache {
	if encoder == nil {
		encoder = compress.NewGZip()
	}
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &RedisDocumentCache{client: client, encoder: encoder, ttl: ttl}
}

// NewRedisClient connects to the redis server at addr.
func NewRedisClient(addr, password string, db int) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
		Protocol: 2,
	})
}

func (r *RedisDocumentCache) GetDocumentVersion(ctx context.Context, id string) (int64, error) {
	version, err := r.client.HGet(ctx, documentVersionHash, id).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, pkgerrors.Wrapf(err, "get version of %s", id)
	}
	return version, nil
}

func (r *RedisDocumentCache) GetDocument(ctx context.Context, id string) (*model.Document, error) {
	buf, err := r.client.Get(ctx, documentKey(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, pkgerrors.Wrapf(err, "get document %s", id)
	}

	data, err := r.encoder.Decode(buf)
	if err != nil {
		return nil, pkgerrors.Wrapf(err, "decode cached document %s", id)
	}
	doc := &model.Document{}
	if err := doc.UnmarshalBinary(data); err != nil {
		return nil, pkgerrors.Wrapf(err, "unmarshal cached document %s", id)
	}

	return doc, nil
}

func (r *RedisDocumentCache) SetDocument(ctx context.Context, doc *model.Document) error {
	data, err := doc.MarshalBinary()
	if err != nil {
		return err
	}
	buf, err := r.encoder.Encode(data)
	if err != nil {
		return err
	}

	_, err = r.client.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.Set(ctx, documentKey(doc.ID), buf, r.ttl)
		p.HSet(ctx, documentVersionHash, doc.ID, doc.Version)
		return nil
	})
	return pkgerrors.Wrapf(err, "cache document %s", doc.ID)
}

func (r *RedisDocumentCache) DeleteDocument(ctx context.Context, id string) error {
	_, err := r.client.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.Del(ctx, documentKey(id))
		p.HDel(ctx, documentVersionHash, id)
		return nil
	})
	return pkgerrors.Wrapf(err, "evict document %s", id)
}
