package image

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"

	"focusroom/internal/logging"
)

// Cache key schema:
//
//	room:images:<hash>:analysis  JSON-serialized AnalysisResult
//	room:images:<hash>:filename  original filename
//	room:images:index            list of hashes in upload order
const indexKey = "room:images:index"

func analysisKey(hash string) string { return "room:images:" + hash + ":analysis" }
func filenameKey(hash string) string { return "room:images:" + hash + ":filename" }

// Cache stores image analyses keyed by content hash. All methods degrade
// silently: a cache outage costs a repeated vision call, never a failed
// command.
type Cache interface {
	GetAnalysis(ctx context.Context, hash string) (AnalysisResult, bool)
	SetAnalysis(ctx context.Context, hash, filename string, result AnalysisResult)
	Filename(ctx context.Context, hash string) string
	Index(ctx context.Context) []string
	ClearIndex(ctx context.Context)
}

// ===== REDIS CACHE =====

// RedisCache shares the history store's Redis connection.
type RedisCache struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewRedisCache creates a cache with the given analysis TTL.
func NewRedisCache(rdb *redis.Client, ttl time.Duration) *RedisCache {
	if ttl <= 0 {
		ttl = 7 * 24 * time.Hour
	}
	return &RedisCache{rdb: rdb, ttl: ttl}
}

func (c *RedisCache) GetAnalysis(ctx context.Context, hash string) (AnalysisResult, bool) {
	raw, err := c.rdb.Get(ctx, analysisKey(hash)).Result()
	if err != nil {
		return AnalysisResult{}, false
	}
	var result AnalysisResult
	if err := json.Unmarshal([]byte(raw), &result); err != nil {
		logging.ImageDebug("Discarding corrupt cached analysis for %s: %v", hash, err)
		return AnalysisResult{}, false
	}
	return result, true
}

func (c *RedisCache) SetAnalysis(ctx context.Context, hash, filename string, result AnalysisResult) {
	data, err := json.Marshal(result)
	if err != nil {
		return
	}
	if err := c.rdb.Set(ctx, analysisKey(hash), data, c.ttl).Err(); err != nil {
		logging.Image("Failed to cache analysis for %s: %v", hash, err)
		return
	}
	c.rdb.Set(ctx, filenameKey(hash), filename, c.ttl)

	// Only append to the index if the hash is new.
	existing, err := c.rdb.LRange(ctx, indexKey, 0, -1).Result()
	if err == nil {
		for _, h := range existing {
			if h == hash {
				return
			}
		}
	}
	c.rdb.RPush(ctx, indexKey, hash)
}

func (c *RedisCache) Filename(ctx context.Context, hash string) string {
	name, err := c.rdb.Get(ctx, filenameKey(hash)).Result()
	if err != nil {
		return ""
	}
	return name
}

func (c *RedisCache) Index(ctx context.Context) []string {
	hashes, err := c.rdb.LRange(ctx, indexKey, 0, -1).Result()
	if err != nil {
		return nil
	}
	return hashes
}

// ClearIndex removes the session image index. Individual analyses stay
// cached until their TTL so a reload stays cheap.
func (c *RedisCache) ClearIndex(ctx context.Context) {
	c.rdb.Del(ctx, indexKey)
}

// ===== MEMORY CACHE =====

// MemoryCache backs --no-redis runs and tests.
type MemoryCache struct {
	analyses  map[string]AnalysisResult
	filenames map[string]string
	index     []string
}

// NewMemoryCache creates an empty in-memory cache.
func NewMemoryCache() *MemoryCache {
	return &MemoryCache{
		analyses:  make(map[string]AnalysisResult),
		filenames: make(map[string]string),
	}
}

func (c *MemoryCache) GetAnalysis(ctx context.Context, hash string) (AnalysisResult, bool) {
	r, ok := c.analyses[hash]
	return r, ok
}

func (c *MemoryCache) SetAnalysis(ctx context.Context, hash, filename string, result AnalysisResult) {
	c.analyses[hash] = result
	c.filenames[hash] = filename
	for _, h := range c.index {
		if h == hash {
			return
		}
	}
	c.index = append(c.index, hash)
}

func (c *MemoryCache) Filename(ctx context.Context, hash string) string {
	return c.filenames[hash]
}

func (c *MemoryCache) Index(ctx context.Context) []string {
	out := make([]string, len(c.index))
	copy(out, c.index)
	return out
}

func (c *MemoryCache) ClearIndex(ctx context.Context) {
	c.index = nil
}
