package monitor

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"mcwatch/internal/eventbus"
	"mcwatch/internal/probe"
	"mcwatch/internal/reconcile"
	"mcwatch/internal/store"
	logx "mcwatch/pkg/logx"
)

type fakeConfig struct {
	mu      sync.Mutex
	servers map[string][]store.Server
}

func (f *fakeConfig) Servers(guildID string) []store.Server {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]store.Server(nil), f.servers[guildID]...)
}

func (f *fakeConfig) Guilds() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, 0, len(f.servers))
	for g := range f.servers {
		out = append(out, g)
	}
	return out
}

type fakeProber struct {
	calls atomic.Int64
	fn    func(srv store.Server) (probe.Status, error)
}

func (f *fakeProber) Ping(ctx context.Context, srv store.Server) (probe.Status, error) {
	f.calls.Add(1)
	if f.fn != nil {
		return f.fn(srv)
	}
	return probe.Status{Online: 1, Max: 10}, nil
}

type fakeApplier struct {
	mu    sync.Mutex
	hosts []string
}

func (f *fakeApplier) Apply(ctx context.Context, srv store.Server, st probe.Status, probeErr error) (reconcile.Result, error) {
	f.mu.Lock()
	f.hosts = append(f.hosts, srv.Host)
	f.mu.Unlock()
	return reconcile.Updated, nil
}

func (f *fakeApplier) applied() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.hosts...)
}

func srv(host string) store.Server {
	return store.Server{Host: host, ChannelID: "c-" + host, Port: 25565, Edition: store.EditionJava}
}

func TestEmptyGuildCycleIsNoOp(t *testing.T) {
	t.Parallel()
	prober := &fakeProber{}
	applier := &fakeApplier{}
	s := New(&fakeConfig{servers: map[string][]store.Server{}}, prober, applier, nil, time.Minute, logx.Nop())

	s.runCycle(context.Background(), "g1")

	if n := prober.calls.Load(); n != 0 {
		t.Fatalf("probe calls = %d, want 0", n)
	}
	if got := applier.applied(); len(got) != 0 {
		t.Fatalf("applied = %v, want none", got)
	}
}

func TestCycleFansOutPerServer(t *testing.T) {
	t.Parallel()
	cfg := &fakeConfig{servers: map[string][]store.Server{
		"g1": {srv("a.example.com"), srv("b.example.com"), srv("c.example.com")},
	}}
	prober := &fakeProber{}
	applier := &fakeApplier{}
	s := New(cfg, prober, applier, nil, time.Minute, logx.Nop())

	s.runCycle(context.Background(), "g1")

	if n := prober.calls.Load(); n != 3 {
		t.Fatalf("probe calls = %d, want 3", n)
	}
	if got := applier.applied(); len(got) != 3 {
		t.Fatalf("applied = %v, want 3 hosts", got)
	}
}

func TestUnitPanicDoesNotAbortSiblings(t *testing.T) {
	t.Parallel()
	cfg := &fakeConfig{servers: map[string][]store.Server{
		"g1": {srv("bad.example.com"), srv("good.example.com")},
	}}
	prober := &fakeProber{fn: func(sv store.Server) (probe.Status, error) {
		if sv.Host == "bad.example.com" {
			panic("unit blew up")
		}
		return probe.Status{Online: 2, Max: 8}, nil
	}}
	applier := &fakeApplier{}
	s := New(cfg, prober, applier, nil, time.Minute, logx.Nop())

	s.runCycle(context.Background(), "g1")

	got := applier.applied()
	if len(got) != 1 || got[0] != "good.example.com" {
		t.Fatalf("applied = %v, want only the healthy host", got)
	}
}

func TestStartIsIdempotentRearm(t *testing.T) {
	t.Parallel()
	cfg := &fakeConfig{servers: map[string][]store.Server{"g1": {srv("a.example.com")}}}
	s := New(cfg, &fakeProber{}, &fakeApplier{}, nil, time.Hour, logx.Nop())
	t.Cleanup(s.StopAll)

	s.Start("g1")
	s.Start("g1")

	if got := s.ActiveGuilds(); len(got) != 1 || got[0] != "g1" {
		t.Fatalf("ActiveGuilds = %v, want exactly [g1]", got)
	}
}

func TestStopDisarmsAndStopsProbing(t *testing.T) {
	t.Parallel()
	cfg := &fakeConfig{servers: map[string][]store.Server{"g1": {srv("a.example.com")}}}
	prober := &fakeProber{}
	s := New(cfg, prober, &fakeApplier{}, nil, 20*time.Millisecond, logx.Nop())
	t.Cleanup(s.StopAll)

	s.Start("g1")
	time.Sleep(90 * time.Millisecond)
	s.Stop("g1")
	if s.Armed("g1") {
		t.Fatal("guild still armed after Stop")
	}

	// Let any in-flight tick settle, then verify probing ceased.
	time.Sleep(50 * time.Millisecond)
	before := prober.calls.Load()
	time.Sleep(80 * time.Millisecond)
	if after := prober.calls.Load(); after != before {
		t.Fatalf("probe calls kept growing after Stop: %d -> %d", before, after)
	}

	// Stop on a stopped guild is a no-op.
	s.Stop("g1")
}

func TestGuildsFailIndependently(t *testing.T) {
	t.Parallel()
	cfg := &fakeConfig{servers: map[string][]store.Server{
		"g1": {srv("down.example.com")},
		"g2": {srv("up.example.com")},
	}}
	prober := &fakeProber{fn: func(sv store.Server) (probe.Status, error) {
		if sv.Host == "down.example.com" {
			return probe.Status{}, errors.New("network unreachable")
		}
		return probe.Status{Online: 4, Max: 16}, nil
	}}
	applier := &fakeApplier{}
	s := New(cfg, prober, applier, nil, time.Minute, logx.Nop())

	s.runCycle(context.Background(), "g1")
	s.runCycle(context.Background(), "g2")

	if got := applier.applied(); len(got) != 2 {
		t.Fatalf("applied = %v, want both guilds reconciled", got)
	}
}

func TestTransitionPublishedOnFlipOnly(t *testing.T) {
	t.Parallel()
	cfg := &fakeConfig{servers: map[string][]store.Server{"g1": {srv("a.example.com")}}}

	var down atomic.Bool
	prober := &fakeProber{fn: func(sv store.Server) (probe.Status, error) {
		if down.Load() {
			return probe.Status{}, errors.New("down")
		}
		return probe.Status{Online: 5, Max: 20}, nil
	}}

	bus := eventbus.New()
	events, unsub := bus.Subscribe(8)
	t.Cleanup(unsub)

	s := New(cfg, prober, &fakeApplier{}, bus, time.Minute, logx.Nop())

	// First observation: no event (restart must not re-announce).
	s.runCycle(context.Background(), "g1")
	// Same state again: still no event.
	s.runCycle(context.Background(), "g1")
	select {
	case tr := <-events:
		t.Fatalf("unexpected transition %+v", tr)
	default:
	}

	down.Store(true)
	s.runCycle(context.Background(), "g1")
	select {
	case tr := <-events:
		if tr.Online || tr.Host != "a.example.com" || tr.GuildID != "g1" {
			t.Fatalf("transition = %+v", tr)
		}
	case <-time.After(time.Second):
		t.Fatal("expected offline transition")
	}

	down.Store(false)
	s.runCycle(context.Background(), "g1")
	select {
	case tr := <-events:
		if !tr.Online || tr.Players != 5 || tr.Max != 20 {
			t.Fatalf("transition = %+v", tr)
		}
	case <-time.After(time.Second):
		t.Fatal("expected online transition")
	}
}

func TestForgetResetsTransitionState(t *testing.T) {
	t.Parallel()
	cfg := &fakeConfig{servers: map[string][]store.Server{"g1": {srv("a.example.com")}}}
	prober := &fakeProber{fn: func(sv store.Server) (probe.Status, error) {
		return probe.Status{}, errors.New("down")
	}}

	bus := eventbus.New()
	events, unsub := bus.Subscribe(8)
	t.Cleanup(unsub)

	s := New(cfg, prober, &fakeApplier{}, bus, time.Minute, logx.Nop())
	s.runCycle(context.Background(), "g1")
	s.Forget("g1", "a.example.com")
	// After Forget, the next observation is "first" again: no event even
	// though the last published state was never offline.
	s.runCycle(context.Background(), "g1")

	select {
	case tr := <-events:
		t.Fatalf("unexpected transition %+v", tr)
	default:
	}
}
