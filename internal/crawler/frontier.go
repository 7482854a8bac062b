package crawler

import (
	"sync"

	"github.com/seoaudit/seoaudit/internal/audit"
)

// frontierItem is one URL waiting to be crawled.
type frontierItem struct {
	URL   string
	Depth int
}

// frontier is the in-memory crawl queue. URLs are de-duplicated by their
// normalized hash, depth-capped, and admission-capped at maxPages so the
// audit never fetches more pages than the project allows.
type frontier struct {
	mu       sync.Mutex
	cond     *sync.Cond
	queue    []frontierItem
	seen     map[string]bool
	inFlight int
	admitted int
	maxPages int
	maxDepth int
	closed   bool
}

func newFrontier(maxPages, maxDepth int) *frontier {
	f := &frontier{
		seen:     make(map[string]bool),
		maxPages: maxPages,
		maxDepth: maxDepth,
	}
	f.cond = sync.NewCond(&f.mu)
	return f
}

// push admits a normalized URL at the given depth. It reports false when
// the URL was already seen or a limit rejects it.
func (f *frontier) push(normalizedURL string, depth int) bool {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.closed {
		return false
	}
	if f.maxDepth > 0 && depth > f.maxDepth {
		return false
	}
	hash := audit.HashURL(normalizedURL)
	if f.seen[hash] {
		return false
	}
	if f.maxPages > 0 && f.admitted >= f.maxPages {
		return false
	}

	f.seen[hash] = true
	f.admitted++
	f.queue = append(f.queue, frontierItem{URL: normalizedURL, Depth: depth})
	f.cond.Signal()
	return true
}

// next blocks until an item is available. It returns false when the
// frontier has drained: the queue is empty and no worker is mid-item that
// could still push more.
func (f *frontier) next() (frontierItem, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()

	for {
		if len(f.queue) > 0 {
			item := f.queue[0]
			f.queue = f.queue[1:]
			f.inFlight++
			return item, true
		}
		if f.closed || f.inFlight == 0 {
			// Nothing queued and nobody working: wake all waiters so
			// every worker exits.
			f.cond.Broadcast()
			return frontierItem{}, false
		}
		f.cond.Wait()
	}
}

// done marks one dequeued item as fully processed.
func (f *frontier) done() {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.inFlight--
	if f.inFlight == 0 && len(f.queue) == 0 {
		f.cond.Broadcast()
	}
}

// close drains the frontier, releasing all blocked workers. Used on
// cancellation.
func (f *frontier) close() {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.closed = true
	f.queue = nil
	f.cond.Broadcast()
}
