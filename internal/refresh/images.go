package refresh

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"golang.org/x/sync/singleflight"
)

// ImageResolver turns a storage key into a displayable URI.
type ImageResolver interface {
	ResolveImage(ctx context.Context, key string) (string, error)
}

// directPrefixes mark refs that are already usable: inline data, local
// handles and absolute remote addresses.
var directPrefixes = []string{"data:", "blob:", "file:", "http://", "https://"}

// IsDirectURI reports whether ref can be displayed without resolution.
func IsDirectURI(ref string) bool {
	lower := strings.ToLower(ref)
	for _, p := range directPrefixes {
		if strings.HasPrefix(lower, p) {
			return true
		}
	}
	return false
}

// ImageState is the resolution state of one image ref.
type ImageState int

const (
	ImageAbsent ImageState = iota
	ImagePending
	ImageResolved
	ImageFailed
)

func (s ImageState) String() string {
	switch s {
	case ImagePending:
		return "pending"
	case ImageResolved:
		return "resolved"
	case ImageFailed:
		return "failed"
	default:
		return "absent"
	}
}

// ImageEntry is the cached outcome for one ref.
type ImageEntry struct {
	State ImageState
	URI   string
	Err   error
}

func (e ImageEntry) settled() bool {
	return e.State == ImageResolved || e.State == ImageFailed
}

// ImageCache memoizes image ref resolution. Each distinct storage key has
// at most one request outstanding; failures stay cached until no holder
// shows the ref any more.
type ImageCache struct {
	resolver ImageResolver
	group    singleflight.Group

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu        sync.Mutex
	entries   map[string]ImageEntry
	holds     map[string]int // ref -> number of holders showing it
	closed    bool
	listeners listeners
}

// NewImageCache creates a cache backed by resolver. A nil resolver fails
// every storage key and only direct URIs resolve.
func NewImageCache(resolver ImageResolver) *ImageCache {
	ctx, cancel := context.WithCancel(context.Background())
	return &ImageCache{
		resolver: resolver,
		ctx:      ctx,
		cancel:   cancel,
		entries:  make(map[string]ImageEntry),
		holds:    make(map[string]int),
	}
}

// Subscribe registers fn to run whenever an entry settles.
func (c *ImageCache) Subscribe(fn func()) func() {
	return c.listeners.add(fn)
}

// Lookup returns the cached entry for ref without blocking.
func (c *ImageCache) Lookup(ref string) ImageEntry {
	if ref == "" {
		return ImageEntry{}
	}
	if IsDirectURI(ref) {
		return ImageEntry{State: ImageResolved, URI: ref}
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.entries[ref]
}

// Resolve returns the URI for ref, resolving it if needed. Concurrent
// calls for the same key share one request. ctx only bounds the wait;
// the shared request keeps running for the other callers.
func (c *ImageCache) Resolve(ctx context.Context, ref string) (string, error) {
	if ref == "" {
		return "", fmt.Errorf("%w: empty reference", ErrImageResolution)
	}

	c.mu.Lock()
	if e, ok := c.entries[ref]; ok && e.settled() {
		c.mu.Unlock()
		return e.URI, e.Err
	}
	if IsDirectURI(ref) {
		c.entries[ref] = ImageEntry{State: ImageResolved, URI: ref}
		c.mu.Unlock()
		return ref, nil
	}
	c.entries[ref] = ImageEntry{State: ImagePending}
	c.mu.Unlock()

	ch := c.group.DoChan(ref, func() (interface{}, error) {
		return c.resolve(ref)
	})

	select {
	case res := <-ch:
		uri, _ := res.Val.(string)
		return uri, res.Err
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

// Prefetch starts resolution for every ref not yet in the cache. It does
// nothing after Close.
func (c *ImageCache) Prefetch(refs []string) {
	for _, ref := range refs {
		if ref == "" || IsDirectURI(ref) {
			continue
		}

		c.mu.Lock()
		if c.closed {
			c.mu.Unlock()
			return
		}
		_, known := c.entries[ref]
		if !known {
			c.entries[ref] = ImageEntry{State: ImagePending}
			c.wg.Add(1)
		}
		c.mu.Unlock()
		if known {
			continue
		}

		go func(ref string) {
			defer c.wg.Done()
			_, _, _ = c.group.Do(ref, func() (interface{}, error) {
				return c.resolve(ref)
			})
		}(ref)
	}
}

// ImageHolder is one list's claim on the refs it currently shows. Several
// holders can share a cache; an entry is forgotten only once no holder
// shows its ref.
type ImageHolder struct {
	cache *ImageCache
	refs  map[string]struct{}
}

// Holder registers a new, empty holder.
func (c *ImageCache) Holder() *ImageHolder {
	return &ImageHolder{cache: c, refs: make(map[string]struct{})}
}

// Retain replaces the holder's refs with refs. Settled entries that no
// holder shows any more are forgotten, so a ref that leaves every dataset
// and later returns is resolved again.
func (h *ImageHolder) Retain(refs []string) {
	next := make(map[string]struct{}, len(refs))
	for _, ref := range refs {
		if ref != "" && !IsDirectURI(ref) {
			next[ref] = struct{}{}
		}
	}

	c := h.cache
	c.mu.Lock()
	defer c.mu.Unlock()
	for ref := range next {
		if _, ok := h.refs[ref]; !ok {
			c.holds[ref]++
		}
	}
	for ref := range h.refs {
		if _, ok := next[ref]; !ok {
			c.dropLocked(ref)
		}
	}
	h.refs = next
}

// Release drops every ref the holder shows.
func (h *ImageHolder) Release() {
	c := h.cache
	c.mu.Lock()
	defer c.mu.Unlock()
	for ref := range h.refs {
		c.dropLocked(ref)
	}
	h.refs = make(map[string]struct{})
}

func (c *ImageCache) dropLocked(ref string) {
	c.holds[ref]--
	if c.holds[ref] > 0 {
		return
	}
	delete(c.holds, ref)
	if e, ok := c.entries[ref]; ok && e.settled() {
		delete(c.entries, ref)
	}
}

// Len returns the number of cached entries.
func (c *ImageCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// Close abandons outstanding requests and waits for prefetches to exit.
// Later prefetches are ignored.
func (c *ImageCache) Close() {
	c.mu.Lock()
	c.closed = true
	c.mu.Unlock()
	c.cancel()
	c.wg.Wait()
}

// resolve performs the request for one key and records the outcome.
func (c *ImageCache) resolve(ref string) (string, error) {
	c.mu.Lock()
	if e, ok := c.entries[ref]; ok && e.settled() {
		c.mu.Unlock()
		return e.URI, e.Err
	}
	c.mu.Unlock()

	entry := c.fetch(ref)

	c.mu.Lock()
	c.entries[ref] = entry
	c.mu.Unlock()

	c.listeners.notify()
	return entry.URI, entry.Err
}

func (c *ImageCache) fetch(ref string) (entry ImageEntry) {
	defer func() {
		if r := recover(); r != nil {
			entry = ImageEntry{State: ImageFailed, Err: fmt.Errorf("%w: %s: %v", ErrImageResolution, ref, r)}
		}
	}()

	if c.resolver == nil {
		return ImageEntry{State: ImageFailed, Err: fmt.Errorf("%w: %s: no resolver", ErrImageResolution, ref)}
	}

	uri, err := c.resolver.ResolveImage(c.ctx, ref)
	if err != nil {
		return ImageEntry{State: ImageFailed, Err: fmt.Errorf("%w: %s: %v", ErrImageResolution, ref, err)}
	}
	if uri == "" {
		return ImageEntry{State: ImageFailed, Err: fmt.Errorf("%w: %s: empty uri", ErrImageResolution, ref)}
	}
	return ImageEntry{State: ImageResolved, URI: uri}
}
