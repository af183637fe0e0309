package monitor

import (
	"context"
	"sort"
	"sync"
	"time"

	"mcwatch/internal/eventbus"
	"mcwatch/internal/probe"
	"mcwatch/internal/reconcile"
	"mcwatch/internal/store"
	logx "mcwatch/pkg/logx"
)

const DefaultInterval = 60 * time.Second

// Prober is satisfied by *probe.Pinger.
type Prober interface {
	Ping(ctx context.Context, srv store.Server) (probe.Status, error)
}

// Applier is satisfied by *reconcile.Reconciler.
type Applier interface {
	Apply(ctx context.Context, srv store.Server, st probe.Status, probeErr error) (reconcile.Result, error)
}

// ConfigSource is the read side of the guild configuration. Cycles read it
// fresh at every tick; the command layer is the only writer.
type ConfigSource interface {
	Servers(guildID string) []store.Server
	Guilds() []string
}

// arm is one guild's active recurring loop.
type arm struct {
	cancel context.CancelFunc
	done   chan struct{}
}

type Service struct {
	prober Prober
	rec    Applier
	cfg    ConfigSource
	bus    eventbus.Bus
	log    logx.Logger

	mu       sync.Mutex
	baseCtx  context.Context
	interval time.Duration
	arms     map[string]*arm

	// last observed online state, keyed guildID+"/"+host. Used only to detect
	// transitions for the notifier; not persisted.
	omu  sync.Mutex
	seen map[string]bool
}

func New(cfg ConfigSource, prober Prober, rec Applier, bus eventbus.Bus, interval time.Duration, log logx.Logger) *Service {
	if interval <= 0 {
		interval = DefaultInterval
	}
	if log.IsZero() {
		log = logx.Nop()
	}
	return &Service{
		prober:   prober,
		rec:      rec,
		cfg:      cfg,
		bus:      bus,
		log:      log,
		interval: interval,
		arms:     map[string]*arm{},
		seen:     map[string]bool{},
	}
}

// Run binds the service to its lifetime context and arms every guild that has
// servers configured. Cancelling ctx stops all loops.
func (s *Service) Run(ctx context.Context) {
	s.mu.Lock()
	s.baseCtx = ctx
	s.mu.Unlock()

	for _, guildID := range s.cfg.Guilds() {
		s.Start(guildID)
	}
}

// Start arms (or re-arms) the guild's recurring loop. If the guild is already
// armed, the previous loop is torn down first, so a guild never has two
// concurrent loops. One cycle fires immediately, then every interval.
func (s *Service) Start(guildID string) {
	s.mu.Lock()
	base := s.baseCtx
	if base == nil {
		base = context.Background()
	}
	interval := s.interval

	if prev, ok := s.arms[guildID]; ok {
		prev.cancel()
		delete(s.arms, guildID)
	}

	ctx, cancel := context.WithCancel(base)
	a := &arm{cancel: cancel, done: make(chan struct{})}
	s.arms[guildID] = a
	s.mu.Unlock()

	s.log.Debug("guild armed", logx.String("guild", guildID), logx.Duration("interval", interval))

	go func() {
		defer close(a.done)
		s.runCycle(ctx, guildID)

		t := time.NewTicker(interval)
		defer t.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-t.C:
				s.runCycle(ctx, guildID)
			}
		}
	}()
}

// Stop disarms the guild. No-op if it was not armed. In-flight units finish
// on their own (they are bounded by the probe timeout).
func (s *Service) Stop(guildID string) {
	s.mu.Lock()
	a, ok := s.arms[guildID]
	if ok {
		a.cancel()
		delete(s.arms, guildID)
	}
	s.mu.Unlock()

	if ok {
		s.log.Debug("guild disarmed", logx.String("guild", guildID))
	}

	s.omu.Lock()
	prefix := guildID + "/"
	for k := range s.seen {
		if len(k) > len(prefix) && k[:len(prefix)] == prefix {
			delete(s.seen, k)
		}
	}
	s.omu.Unlock()
}

// StopAll disarms every guild and waits for the loops to exit.
func (s *Service) StopAll() {
	s.mu.Lock()
	arms := s.arms
	s.arms = map[string]*arm{}
	s.mu.Unlock()

	for _, a := range arms {
		a.cancel()
	}
	for _, a := range arms {
		<-a.done
	}
}

// SetInterval applies a new polling interval and re-arms active guilds so it
// takes effect without waiting out the old tickers.
func (s *Service) SetInterval(d time.Duration) {
	if d <= 0 {
		return
	}
	s.mu.Lock()
	if d == s.interval {
		s.mu.Unlock()
		return
	}
	s.interval = d
	active := make([]string, 0, len(s.arms))
	for guildID := range s.arms {
		active = append(active, guildID)
	}
	s.mu.Unlock()

	s.log.Info("poll interval changed", logx.Duration("interval", d), logx.Int("guilds", len(active)))
	for _, guildID := range active {
		s.Start(guildID)
	}
}

// Armed reports whether the guild currently has an active loop.
func (s *Service) Armed(guildID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.arms[guildID]
	return ok
}

// ActiveGuilds lists armed guilds, sorted.
func (s *Service) ActiveGuilds() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, 0, len(s.arms))
	for guildID := range s.arms {
		out = append(out, guildID)
	}
	sort.Strings(out)
	return out
}

// Forget drops the remembered online/offline state for one server so a
// re-added entry starts with a clean slate.
func (s *Service) Forget(guildID, host string) {
	s.omu.Lock()
	delete(s.seen, guildID+"/"+host)
	s.omu.Unlock()
}
