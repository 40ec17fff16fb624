package document

import (
	"container/list"
	"sync"
)

// CacheStats reports page cache usage
type CacheStats struct {
	Hits     int64   `json:"hits"`
	Misses   int64   `json:"misses"`
	HitRate  float64 `json:"hit_rate"`
	Size     int     `json:"size"`
	Capacity int     `json:"capacity"`
	// Pages are the cached page numbers, most recently used first
	Pages []int `json:"pages"`
}

// pageCache keeps the most recently rendered pages
type pageCache struct {
	mu       sync.Mutex
	capacity int
	order    *list.List // front is most recently used
	items    map[int]*list.Element
	hits     int64
	misses   int64
}

type cacheEntry struct {
	page int
	view *PageView
}

func newPageCache(capacity int) *pageCache {
	if capacity <= 0 {
		capacity = defaultCacheSize
	}
	return &pageCache{
		capacity: capacity,
		order:    list.New(),
		items:    make(map[int]*list.Element),
	}
}

func (c *pageCache) Get(page int) (*PageView, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if el, ok := c.items[page]; ok {
		c.order.MoveToFront(el)
		c.hits++
		return el.Value.(*cacheEntry).view, true
	}
	c.misses++
	return nil, false
}

func (c *pageCache) Put(page int, view *PageView) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if el, ok := c.items[page]; ok {
		el.Value.(*cacheEntry).view = view
		c.order.MoveToFront(el)
		return
	}

	c.items[page] = c.order.PushFront(&cacheEntry{page: page, view: view})
	if c.order.Len() > c.capacity {
		oldest := c.order.Back()
		c.order.Remove(oldest)
		delete(c.items, oldest.Value.(*cacheEntry).page)
	}
}

// Pages returns cached page numbers, most recently used first
func (c *pageCache) Pages() []int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.pagesLocked()
}

func (c *pageCache) pagesLocked() []int {
	out := make([]int, 0, c.order.Len())
	for el := c.order.Front(); el != nil; el = el.Next() {
		out = append(out, el.Value.(*cacheEntry).page)
	}
	return out
}

func (c *pageCache) Stats() CacheStats {
	c.mu.Lock()
	defer c.mu.Unlock()

	total := c.hits + c.misses
	hitRate := float64(0)
	if total > 0 {
		hitRate = float64(c.hits) / float64(total) * 100
	}
	return CacheStats{
		Hits:     c.hits,
		Misses:   c.misses,
		HitRate:  hitRate,
		Size:     len(c.items),
		Capacity: c.capacity,
		Pages:    c.pagesLocked(),
	}
}
