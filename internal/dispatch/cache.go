package dispatch

import (
	"sync"

	"github.com/alnah/medreport/internal/report"
)

// cacheKey identifies a memoized report. Transcripts compare by exact
// byte equality.
type cacheKey struct {
	transcript string
	kind       report.Kind
}

// flightKey is the singleflight key for k.
func (k cacheKey) flightKey() string {
	return k.kind.String() + "\x00" + k.transcript
}

// memoCache stores generated report text for the lifetime of a Dispatcher.
// It is unbounded.
type memoCache struct {
	mu      sync.RWMutex
	entries map[cacheKey]string
}

func newMemoCache() *memoCache {
	return &memoCache{entries: make(map[cacheKey]string)}
}

func (c *memoCache) get(k cacheKey) (string, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	text, ok := c.entries[k]
	return text, ok
}

// put stores text under k unless an entry already exists.
// Returns true if a new entry was added.
func (c *memoCache) put(k cacheKey, text string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.entries[k]; ok {
		return false
	}
	c.entries[k] = text
	return true
}

// clear removes all entries and returns how many were removed.
func (c *memoCache) clear() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := len(c.entries)
	clear(c.entries)
	return n
}

func (c *memoCache) len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}
