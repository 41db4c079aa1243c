package pipeline

import (
	"context"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/GoSim-25-26J-441/erp-backend/internal/auth"
	"github.com/GoSim-25-26J-441/erp-backend/internal/cache"
)

// Cacheable is implemented by queries whose responses may be cached per company.
type Cacheable interface {
	UseCache() bool
	SlidingExpiration() time.Duration
	AbsoluteExpiration() time.Duration
}

// CachingBehavior serves Cacheable queries from the store and fills it on a miss.
type CachingBehavior struct {
	logger *zap.Logger
	store  cache.Store
	stats  *cache.Stats
}

func NewCachingBehavior(logger *zap.Logger, store cache.Store, stats *cache.Stats) *CachingBehavior {
	return &CachingBehavior{logger: logger, store: store, stats: stats}
}

func (b *CachingBehavior) Handle(ctx context.Context, call *Call, next Next) (any, error) {
	req, ok := call.Request.(Cacheable)
	if !ok || !req.UseCache() || b.store == nil {
		return next(ctx)
	}

	companyID, err := auth.FromContext(ctx).CompanyID(ctx)
	if err != nil {
		b.logger.Warn("skipping cache, company could not be resolved", zap.String("request_name", call.Name), zap.Error(err))
		return next(ctx)
	}

	key, err := CacheKey(companyID, call.Name, call.Request)
	if err != nil {
		b.logger.Warn("skipping cache, request could not be keyed", zap.String("request_name", call.Name), zap.Error(err))
		return next(ctx)
	}

	if data, hit, err := b.store.Get(ctx, key); err != nil {
		b.logger.Warn("cache read failed", zap.String("key", key), zap.Error(err))
	} else if hit {
		resp, err := call.Decode(data)
		if err == nil {
			b.logger.Debug("Cache hit for " + key)
			b.record(true)
			return resp, nil
		}
		b.logger.Warn("discarding undecodable cache entry", zap.String("key", key), zap.Error(err))
	}

	b.logger.Debug("Cache miss for " + key)
	b.record(false)

	resp, err := next(ctx)
	if err != nil {
		return nil, err
	}

	data, err := json.Marshal(resp)
	if err != nil {
		b.logger.Warn("could not encode response for cache", zap.String("key", key), zap.Error(err))
		return resp, nil
	}
	opts := cache.Options{Sliding: req.SlidingExpiration(), Absolute: req.AbsoluteExpiration()}
	if err := b.store.Set(ctx, key, data, opts); err != nil {
		b.logger.Warn("cache write failed", zap.String("key", key), zap.Error(err))
	}
	return resp, nil
}

func (b *CachingBehavior) record(hit bool) {
	if b.stats == nil {
		return
	}
	if hit {
		b.stats.Hit()
	} else {
		b.stats.Miss()
	}
}

// CacheKeyPrefix scopes keys to a company and request type.
func CacheKeyPrefix(companyID int, requestName string) string {
	return fmt.Sprintf("ERP:%d:%s:", companyID, requestName)
}

// CacheKey is ERP:{company}:{request}:{base64 sha256 of the JSON request}.
func CacheKey(companyID int, requestName string, req any) (string, error) {
	payload, err := json.Marshal(req)
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(payload)
	return CacheKeyPrefix(companyID, requestName) + base64.StdEncoding.EncodeToString(sum[:]), nil
}
