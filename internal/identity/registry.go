package identity

import (
	"fmt"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"
)

const defaultRegistrySize = 10000

// Registry keeps one mounted provider per session key.
// When the registry is full the least recently used provider is unmounted.
type Registry struct {
	source Source
	opts   []Option

	mu        sync.Mutex
	providers *lru.Cache[string, *Provider]
}

// NewRegistry creates a registry holding at most size providers.
func NewRegistry(source Source, size int, opts ...Option) (*Registry, error) {
	if size <= 0 {
		size = defaultRegistrySize
	}
	providers, err := lru.NewWithEvict[string, *Provider](size, func(_ string, p *Provider) {
		p.Close()
	})
	if err != nil {
		return nil, fmt.Errorf("create provider cache: %w", err)
	}
	return &Registry{source: source, opts: opts, providers: providers}, nil
}

// Mount returns the live provider for key, creating and initializing one
// when none exists, the credentials changed, or the first fetch of the
// mounted one failed and has not recovered. An empty key yields a
// short-lived anonymous provider that is not retained.
func (r *Registry) Mount(key string, creds Credentials) *Provider {
	if key == "" {
		p := r.newProvider("", Credentials{})
		p.Initialize()
		return p
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if existing, ok := r.providers.Get(key); ok {
		if existing.Credentials() == creds && !existing.Degraded() {
			return existing
		}
		r.providers.Remove(key)
		existing.Close()
	}

	p := r.newProvider(key, creds)
	r.providers.Add(key, p)
	p.Initialize()
	return p
}

// Lookup returns the provider mounted for key without creating one.
func (r *Registry) Lookup(key string) (*Provider, bool) {
	return r.providers.Peek(key)
}

// Unmount closes and forgets the provider for key.
func (r *Registry) Unmount(key string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if p, ok := r.providers.Peek(key); ok {
		r.providers.Remove(key)
		p.Close()
	}
}

// Len returns the number of mounted providers.
func (r *Registry) Len() int {
	return r.providers.Len()
}

// Close unmounts every provider.
func (r *Registry) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.providers.Purge()
}

func (r *Registry) newProvider(key string, creds Credentials) *Provider {
	opts := append(append([]Option{}, r.opts...), WithKey(key))
	return NewProvider(r.source, creds, opts...)
}
