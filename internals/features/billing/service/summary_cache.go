package service

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"

	"majibill_backend/internals/features/billing/dto"
	billingModel "majibill_backend/internals/features/billing/model"
)

type summaryKey struct {
	admin uuid.UUID
	kind  billingModel.BillType
}

type summaryEntry struct {
	val *dto.SummaryResponse
	exp time.Time
}

// SummaryCache memoises per-admin bill summaries. Every ledger write path
// calls Invalidate; the TTL only bounds memory for idle admins.
type SummaryCache struct {
	mu    sync.RWMutex
	ttl   time.Duration
	items map[summaryKey]summaryEntry
	gens  map[uuid.UUID]uint64
	group singleflight.Group
}

func NewSummaryCache(ttl time.Duration) *SummaryCache {
	if ttl <= 0 {
		ttl = time.Minute
	}
	return &SummaryCache{ttl: ttl, items: map[summaryKey]summaryEntry{}, gens: map[uuid.UUID]uint64{}}
}

func (c *SummaryCache) get(k summaryKey) (*dto.SummaryResponse, uint64, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	e, ok := c.items[k]
	if !ok || time.Now().After(e.exp) {
		return nil, c.gens[k.admin], false
	}
	return e.val, 0, true
}

// Load returns the cached summary or fills it with fill, sharing one fill
// between concurrent callers.
func (c *SummaryCache) Load(k summaryKey, fill func() (*dto.SummaryResponse, error)) (*dto.SummaryResponse, error) {
	v, gen, ok := c.get(k)
	if ok {
		return v, nil
	}
	shared, err, _ := c.group.Do(k.admin.String()+"|"+string(k.kind), func() (any, error) {
		val, err := fill()
		if err != nil {
			return nil, err
		}
		c.mu.Lock()
		// a write since the fill started makes this result stale
		if c.gens[k.admin] == gen {
			c.items[k] = summaryEntry{val: val, exp: time.Now().Add(c.ttl)}
		}
		c.mu.Unlock()
		return val, nil
	})
	if err != nil {
		return nil, err
	}
	return shared.(*dto.SummaryResponse), nil
}

func (c *SummaryCache) Invalidate(adminID uuid.UUID) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.gens[adminID]++
	for k := range c.items {
		if k.admin == adminID {
			delete(c.items, k)
		}
	}
	c.group.Forget(adminID.String() + "|" + string(billingModel.BillTypeWater))
	c.group.Forget(adminID.String() + "|" + string(billingModel.BillTypeRent))
	c.group.Forget(adminID.String() + "|")
}
