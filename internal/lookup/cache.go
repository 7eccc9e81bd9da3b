package lookup

import (
	"clinical-lookup/internal/metrics"
	"clinical-lookup/internal/records"
)

// Kind is the type of a cached record.
type Kind string

const (
	KindHistory Kind = "history"
	KindOrder   Kind = "order"
	KindResult  Kind = "result"
)

type cacheKey struct {
	kind Kind
	id   uint
}

// Cache memoizes records fetched for the selected patient. Entries are
// only dropped by Clear.
type Cache struct {
	entries map[cacheKey]any
	metrics *metrics.Collector
}

// NewCache creates an empty cache. m may be nil.
func NewCache(m *metrics.Collector) *Cache {
	return &Cache{entries: make(map[cacheKey]any), metrics: m}
}

func (c *Cache) Get(kind Kind, id uint) (any, bool) {
	v, ok := c.entries[cacheKey{kind, id}]
	c.metrics.CacheLookup(string(kind), ok)
	return v, ok
}

func (c *Cache) Put(kind Kind, id uint, v any) {
	c.entries[cacheKey{kind, id}] = v
}

// Clear drops every entry.
func (c *Cache) Clear() {
	clear(c.entries)
}

func (c *Cache) Len() int {
	return len(c.entries)
}

func (c *Cache) History(patientID uint) (*records.PatientHistory, bool) {
	return get[records.PatientHistory](c, KindHistory, patientID)
}

func (c *Cache) Order(id uint) (*records.OrderDetail, bool) {
	return get[records.OrderDetail](c, KindOrder, id)
}

func (c *Cache) Result(id uint) (*records.ResultDetail, bool) {
	return get[records.ResultDetail](c, KindResult, id)
}

func get[T any](c *Cache, kind Kind, id uint) (*T, bool) {
	v, ok := c.Get(kind, id)
	if !ok {
		return nil, false
	}
	t, ok := v.(*T)
	return t, ok
}
