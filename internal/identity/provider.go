package identity

import (
	"context"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/spec-kit/webapp-gateway/internal/domain"
	"github.com/spec-kit/webapp-gateway/internal/events"
)

const defaultFetchTimeout = 5 * time.Second

// Fetch outcomes reported to the Recorder.
const (
	OutcomeResolved        = "resolved"
	OutcomeAnonymous       = "anonymous"
	OutcomeUnauthenticated = "unauthenticated"
	OutcomeFailed          = "failed"
	OutcomeDiscarded       = "discarded"
)

// Recorder receives the outcome of every fetch.
type Recorder interface {
	RecordIdentityFetch(outcome string)
}

// Option configures a Provider.
type Option func(*Provider)

// WithLogger sets the provider logger.
func WithLogger(logger *zap.Logger) Option {
	return func(p *Provider) {
		if logger != nil {
			p.logger = logger
		}
	}
}

// WithDispatcher publishes identity transitions to d.
func WithDispatcher(d events.Dispatcher) Option {
	return func(p *Provider) { p.events = d }
}

// WithRecorder reports fetch outcomes to r.
func WithRecorder(r Recorder) Option {
	return func(p *Provider) { p.metrics = r }
}

// WithFetchTimeout bounds each fetch against the source.
func WithFetchTimeout(d time.Duration) Option {
	return func(p *Provider) {
		if d > 0 {
			p.timeout = d
		}
	}
}

// WithKey names the provider, usually after the session it serves.
func WithKey(key string) Option {
	return func(p *Provider) { p.key = key }
}

// Provider owns the identity of one session and publishes it to subscribers.
//
// The first fetch starts on Initialize. Until it settles Ready stays open and
// the published snapshot is Loading. Refresh calls made while a fetch is in
// flight join that fetch instead of starting another one, so concurrent
// callers share a single result and a single published transition.
type Provider struct {
	key     string
	source  Source
	creds   Credentials
	logger  *zap.Logger
	events  events.Dispatcher
	metrics Recorder
	timeout time.Duration

	lifetime context.Context
	cancel   context.CancelFunc

	initOnce sync.Once
	ready    chan struct{}
	flight   singleflight.Group
	current  atomic.Pointer[Snapshot]

	fetches atomic.Uint64

	mu         sync.Mutex
	generation uint64
	settled    uint64
	degraded   bool
	closed     bool
	watchers   map[uint64]chan Snapshot
	nextWatch  uint64
}

var _ Subscription = (*Provider)(nil)

// NewProvider builds a provider for creds. It does not fetch until Initialize.
func NewProvider(source Source, creds Credentials, opts ...Option) *Provider {
	lifetime, cancel := context.WithCancel(context.Background())
	p := &Provider{
		source:   source,
		creds:    creds,
		logger:   zap.NewNop(),
		timeout:  defaultFetchTimeout,
		lifetime: lifetime,
		cancel:   cancel,
		ready:    make(chan struct{}),
		watchers: make(map[uint64]chan Snapshot),
	}
	for _, opt := range opts {
		opt(p)
	}
	p.current.Store(&Snapshot{State: StateUninitialized})
	return p
}

// Key returns the provider name.
func (p *Provider) Key() string {
	return p.key
}

// Credentials returns the credentials the provider resolves.
func (p *Provider) Credentials() Credentials {
	return p.creds
}

// Current returns the latest snapshot.
func (p *Provider) Current() Snapshot {
	return *p.current.Load()
}

// Ready is closed once the first fetch has settled.
func (p *Provider) Ready() <-chan struct{} {
	return p.ready
}

// Done is closed when the provider is unmounted.
func (p *Provider) Done() <-chan struct{} {
	return p.lifetime.Done()
}

// Initialize starts the first fetch. Only the first call has an effect.
func (p *Provider) Initialize() {
	p.initOnce.Do(func() {
		p.mu.Lock()
		if p.closed || p.current.Load().State != StateUninitialized {
			p.mu.Unlock()
			return
		}
		gen := p.generation
		p.setLocked(Snapshot{State: StateLoading, Loading: true})
		p.mu.Unlock()

		go func() { <-p.join(gen) }()
	})
}

// Refresh fetches the identity again and waits for the result.
//
// A Refresh issued while another fetch is in flight waits on that fetch.
// Transient failures are returned to the caller and leave the published
// identity untouched; a "no session" answer publishes no identity and is
// not an error.
func (p *Provider) Refresh(ctx context.Context) error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return ErrClosed
	}
	gen := p.generation
	if p.current.Load().State == StateUninitialized {
		p.setLocked(Snapshot{State: StateLoading, Loading: true})
	}
	p.mu.Unlock()

	select {
	case res := <-p.join(gen):
		return res.Err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Reset publishes "not authenticated" without fetching and discards any
// fetch still in flight.
func (p *Provider) Reset() {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.generation++
	next := p.setLocked(Snapshot{State: StateReady, ResolvedAt: time.Now()})
	p.mu.Unlock()

	p.emit(events.EventIdentityCleared, events.IdentityClearedPayload{Reason: "logout", Version: next.Version})
}

// Close unmounts the provider. Results of fetches still in flight are dropped
// and watchers are released. Close is idempotent.
func (p *Provider) Close() {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.closed = true
	p.generation++
	for id, ch := range p.watchers {
		close(ch)
		delete(p.watchers, id)
	}
	p.mu.Unlock()
	p.cancel()
}

// Watch streams snapshots starting with the current one. Slow readers only
// see the latest value.
func (p *Provider) Watch() (<-chan Snapshot, func()) {
	ch := make(chan Snapshot, 1)

	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		close(ch)
		return ch, func() {}
	}
	id := p.nextWatch
	p.nextWatch++
	p.watchers[id] = ch
	ch <- *p.current.Load()
	p.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			p.mu.Lock()
			defer p.mu.Unlock()
			if c, ok := p.watchers[id]; ok {
				delete(p.watchers, id)
				close(c)
			}
		})
	}
}

// join attaches the caller to the fetch in flight for gen, starting one if needed.
func (p *Provider) join(gen uint64) <-chan singleflight.Result {
	key := flightKey(gen)
	return p.flight.DoChan(key, func() (interface{}, error) {
		return nil, p.fetch(key, gen)
	})
}

// Degraded reports whether the first fetch failed transiently and no fetch
// has succeeded since.
func (p *Provider) Degraded() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.degraded
}

func (p *Provider) fetch(key string, gen uint64) error {
	seq := p.fetches.Add(1)
	if p.creds.Anonymous() {
		p.flight.Forget(key)
		return p.settle(gen, seq, nil, nil)
	}

	ctx, cancel := context.WithTimeout(p.lifetime, p.timeout)
	defer cancel()

	id, err := p.source.CurrentIdentity(ctx, p.creds)
	// Callers arriving after the answer must start a new fetch; settle
	// drops this answer if such a fetch has already published.
	p.flight.Forget(key)
	return p.settle(gen, seq, id, err)
}

// settle publishes the answer of fetch number seq started under gen.
func (p *Provider) settle(gen, seq uint64, id *domain.Identity, err error) error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		p.record(OutcomeDiscarded)
		return ErrClosed
	}
	if gen != p.generation || seq < p.settled {
		p.mu.Unlock()
		p.record(OutcomeDiscarded)
		return nil
	}
	p.settled = seq
	initial := p.current.Load().State != StateReady
	if err == nil || IsUnauthenticated(err) {
		p.degraded = false
	}

	switch {
	case err == nil:
		next := p.setLocked(Snapshot{State: StateReady, Identity: id.Clone(), ResolvedAt: time.Now()})
		p.mu.Unlock()
		if id == nil {
			p.record(OutcomeAnonymous)
			p.emit(events.EventIdentityCleared, events.IdentityClearedPayload{Reason: "no identity", Version: next.Version})
			return nil
		}
		p.record(OutcomeResolved)
		p.emit(events.EventIdentityResolved, events.IdentityResolvedPayload{
			UserID:  id.ID,
			Roles:   id.Roles.Slice(),
			Version: next.Version,
		})
		return nil

	case IsUnauthenticated(err):
		next := p.setLocked(Snapshot{State: StateReady, ResolvedAt: time.Now()})
		p.mu.Unlock()
		p.record(OutcomeUnauthenticated)
		p.emit(events.EventIdentityCleared, events.IdentityClearedPayload{Reason: "no session", Version: next.Version})
		return nil

	case initial:
		p.degraded = true
		next := p.setLocked(Snapshot{State: StateReady, ResolvedAt: time.Now()})
		p.mu.Unlock()
		p.record(OutcomeFailed)
		p.logger.Warn("initial identity fetch failed; treating session as signed out",
			zap.String("session", p.key), zap.Error(err))
		p.emit(events.EventIdentityCleared, events.IdentityClearedPayload{Reason: "fetch failed", Version: next.Version})
		return err

	default:
		p.mu.Unlock()
		p.record(OutcomeFailed)
		p.logger.Warn("identity refresh failed", zap.String("session", p.key), zap.Error(err))
		p.emit(events.EventIdentityRefreshFailed, events.IdentityRefreshFailedPayload{Error: err.Error()})
		return err
	}
}

// setLocked publishes next. p.mu must be held.
func (p *Provider) setLocked(next Snapshot) Snapshot {
	next.Version = p.current.Load().Version + 1
	p.current.Store(&next)

	if next.State == StateReady {
		select {
		case <-p.ready:
		default:
			close(p.ready)
		}
	}

	for _, ch := range p.watchers {
		select {
		case ch <- next:
		default:
			select {
			case <-ch:
			default:
			}
			ch <- next
		}
	}
	return next
}

func (p *Provider) record(outcome string) {
	if p.metrics != nil {
		p.metrics.RecordIdentityFetch(outcome)
	}
}

func (p *Provider) emit(eventType events.EventType, payload interface{}) {
	if p.events == nil {
		return
	}
	event := events.Event{
		ID:         uuid.NewString(),
		Type:       eventType,
		SessionKey: p.key,
		Timestamp:  time.Now().UTC(),
		Payload:    payload,
	}
	if err := p.events.Publish(context.Background(), event); err != nil {
		p.logger.Warn("identity event handler failed", zap.String("event", string(eventType)), zap.Error(err))
	}
}

func flightKey(gen uint64) string {
	return strconv.FormatUint(gen, 10)
}
