package fulfil

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strconv"
	"time"
)

type countRequest struct {
	Filters []Condition `json:"filters,omitempty"`
}

// Count returns the number of records matching the relation's conditions.
// The result is cached on the relation and, when the client has a shared
// cache, in that cache.
func (r *Relation) Count(ctx context.Context) (int64, error) {
	if r.count != nil {
		return *r.count, nil
	}

	if r.modelName == "" {
		return 0, ErrModelNameMissing
	}

	if r.client == nil {
		return 0, ErrTransportRequired
	}

	key := r.countCacheKey()

	if count, ok := r.sharedCount(ctx, key); ok {
		r.count = &count

		return count, nil
	}

	r.client.logger.Debug("Counting relation", map[string]interface{}{
		"model":   r.modelName,
		"filters": len(r.conditions),
	})

	resp, err := r.client.transport.Put(ctx, modelPath(r.modelName, "search_count"), countRequest{Filters: r.conditions})
	if err != nil {
		return 0, fmt.Errorf("failed to count %s: %w", r.modelName, err)
	}

	var raw json.Number

	err = decodeJSON(resp.Body, &raw)
	if err != nil {
		return 0, fmt.Errorf("%w: %s", ErrInvalidCount, string(resp.Body))
	}

	count, err := raw.Int64()
	if err != nil {
		return 0, fmt.Errorf("%w: %s", ErrInvalidCount, raw.String())
	}

	r.count = &count
	r.storeSharedCount(ctx, key, count)

	return count, nil
}

// Counted reports whether Count has a cached result.
func (r *Relation) Counted() bool {
	return r.count != nil
}

// Recount drops the cached count, including the shared entry, and counts
// again.
func (r *Relation) Recount(ctx context.Context) (int64, error) {
	r.count = nil

	if r.client != nil && r.client.cache != nil && r.modelName != "" {
		err := r.client.cache.Delete(ctx, r.countCacheKey())
		if err != nil {
			r.client.logger.Warn("Failed to drop shared count", map[string]interface{}{
				"model": r.modelName,
				"error": err.Error(),
			})
		}
	}

	return r.Count(ctx)
}

// countCacheKey is "count.<model>.<hash of cache scope and filters>".
func (r *Relation) countCacheKey() string {
	filters, err := json.Marshal(r.conditions)
	if err != nil {
		filters = []byte(fmt.Sprint(r.conditions))
	}

	hash := sha256.New()
	hash.Write([]byte(r.client.cacheScope))
	hash.Write([]byte{0})
	hash.Write(filters)
	sum := hash.Sum(nil)

	return "count." + r.modelName + "." + hex.EncodeToString(sum[:8])
}

func (r *Relation) sharedCount(ctx context.Context, key string) (int64, bool) {
	if r.client.cache == nil {
		return 0, false
	}

	entry, err := r.client.cache.Get(ctx, key)
	if err != nil {
		return 0, false
	}

	count, err := strconv.ParseInt(string(entry.Data), 10, 64)
	if err != nil {
		return 0, false
	}

	return count, true
}

func (r *Relation) storeSharedCount(ctx context.Context, key string, count int64) {
	if r.client.cache == nil {
		return
	}

	err := r.client.cache.Set(ctx, key, &CacheEntry{
		Data:      []byte(strconv.FormatInt(count, 10)),
		ExpiresAt: time.Now().Add(r.client.cacheTTL),
	})
	if err != nil {
		r.client.logger.Warn("Failed to store shared count", map[string]interface{}{
			"model": r.modelName,
			"error": err.Error(),
		})
	}
}
