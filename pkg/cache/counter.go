// Package cache keeps the unconditional record count in Redis so that frequent
// total-record lookups do not each scan the patient table.
package cache

import (
	"context"
	"strconv"
	"time"

	"github.com/Gobusters/ectologger"

	"github.com/Ramsey-B/clover/pkg/blocking"
	"github.com/Ramsey-B/clover/pkg/metrics"
)

const TotalRecordsKey = "clover:total_records"

// Counter executes count queries
type Counter interface {
	CountRows(ctx context.Context, q *blocking.CountQuery) (int64, error)
}

// TotalRecordsCounter caches the result of total-record queries for ttl and passes every
// other query through. Cache failures fall back to counting.
type TotalRecordsCounter struct {
	next   Counter
	store  Store
	ttl    time.Duration
	logger ectologger.Logger
}

func NewTotalRecordsCounter(next Counter, store Store, ttl time.Duration, logger ectologger.Logger) *TotalRecordsCounter {
	return &TotalRecordsCounter{
		next:   next,
		store:  store,
		ttl:    ttl,
		logger: logger,
	}
}

func (c *TotalRecordsCounter) CountRows(ctx context.Context, q *blocking.CountQuery) (int64, error) {
	if !isTotalRecords(q) {
		return c.next.CountRows(ctx, q)
	}

	log := c.logger.WithContext(ctx).WithField("key", TotalRecordsKey)

	cached, err := c.store.Get(ctx, TotalRecordsKey)
	switch {
	case err == nil:
		if n, perr := strconv.ParseInt(cached, 10, 64); perr == nil {
			metrics.TotalRecordsCacheTotal.WithLabelValues("hit").Inc()
			return n, nil
		}
		log.WithField("value", cached).Warn("Discarding unparsable cached total")
		metrics.TotalRecordsCacheTotal.WithLabelValues("error").Inc()
	case err == ErrMiss:
		metrics.TotalRecordsCacheTotal.WithLabelValues("miss").Inc()
	default:
		log.WithError(err).Warn("Failed to read cached total records")
		metrics.TotalRecordsCacheTotal.WithLabelValues("error").Inc()
	}

	n, err := c.next.CountRows(ctx, q)
	if err != nil {
		return 0, err
	}
	if err := c.store.Set(ctx, TotalRecordsKey, strconv.FormatInt(n, 10), c.ttl); err != nil {
		log.WithError(err).Warn("Failed to cache total records")
	}
	return n, nil
}

// Invalidate drops the cached total so the next lookup counts again
func (c *TotalRecordsCounter) Invalidate(ctx context.Context) error {
	return c.store.Del(ctx, TotalRecordsKey)
}

func isTotalRecords(q *blocking.CountQuery) bool {
	return !q.Distinct && len(q.Where.Terms) == 0
}
