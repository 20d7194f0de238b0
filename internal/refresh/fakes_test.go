package refresh

import (
	"context"
	"sync"
	"time"

	"github.com/evcraddock/visitor-desk/internal/visitor"
)

type fakeFetcher struct {
	mu       sync.Mutex
	calls    int
	tokens   []string
	visitors []visitor.Visitor
	total    int
	err      error
	panicMsg string

	// When gate is non-nil, FetchVisitors signals started and then waits
	// for gate to be closed.
	gate    chan struct{}
	started chan struct{}
}

func (f *fakeFetcher) FetchVisitors(ctx context.Context, token string) ([]visitor.Visitor, int, error) {
	f.mu.Lock()
	f.calls++
	f.tokens = append(f.tokens, token)
	gate, started := f.gate, f.started
	visitors, total, err, panicMsg := f.visitors, f.total, f.err, f.panicMsg
	f.mu.Unlock()

	if gate != nil {
		if started != nil {
			started <- struct{}{}
		}
		select {
		case <-gate:
		case <-ctx.Done():
			return nil, 0, ctx.Err()
		}
	}
	if panicMsg != "" {
		panic(panicMsg)
	}
	if err != nil {
		return nil, 0, err
	}
	out := make([]visitor.Visitor, len(visitors))
	copy(out, visitors)
	return out, total, nil
}

func (f *fakeFetcher) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func (f *fakeFetcher) set(visitors []visitor.Visitor, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.visitors = visitors
	f.total = len(visitors)
	f.err = err
}

// block makes the next fetches wait until the returned func is called.
func (f *fakeFetcher) block() (started <-chan struct{}, release func()) {
	f.mu.Lock()
	defer f.mu.Unlock()
	gate := make(chan struct{})
	ch := make(chan struct{}, 8)
	f.gate = gate
	f.started = ch
	var once sync.Once
	return ch, func() {
		once.Do(func() {
			f.mu.Lock()
			f.gate = nil
			f.started = nil
			f.mu.Unlock()
			close(gate)
		})
	}
}

type fakeResolver struct {
	mu    sync.Mutex
	calls map[string]int
	uris  map[string]string
	err   error
	gate  chan struct{}
}

func newFakeResolver() *fakeResolver {
	return &fakeResolver{
		calls: make(map[string]int),
		uris:  make(map[string]string),
	}
}

func (r *fakeResolver) ResolveImage(ctx context.Context, key string) (string, error) {
	r.mu.Lock()
	r.calls[key]++
	gate, err := r.gate, r.err
	uri, ok := r.uris[key]
	r.mu.Unlock()

	if gate != nil {
		<-gate
	}
	if err != nil {
		return "", err
	}
	if !ok {
		uri = "https://images.example.com/" + key
	}
	return uri, nil
}

func (r *fakeResolver) Calls(key string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.calls[key]
}

func (r *fakeResolver) Total() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, c := range r.calls {
		n += c
	}
	return n
}

func staticToken(token string) CredentialSource {
	return CredentialFunc(func() (string, error) { return token, nil })
}

func sampleVisitors() []visitor.Visitor {
	created := time.Date(2024, 1, 15, 9, 0, 0, 0, time.UTC)
	return []visitor.Visitor{
		{ID: 2, Name: "Grace Hopper", Status: visitor.Pending, AddedBy: "ada@example.com", ImageRef: "img-2", CreatedAt: created},
		{ID: 1, Name: "Alan Turing", Status: visitor.CheckedIn, AddedBy: "bob@example.com", CreatedAt: created},
	}
}

func waitFor(ch <-chan struct{}) {
	select {
	case <-ch:
	case <-time.After(5 * time.Second):
		panic("timed out waiting for signal")
	}
}
