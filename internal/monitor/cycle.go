package monitor

import (
	"context"
	"runtime/debug"
	"sync"
	"time"

	"mcwatch/internal/eventbus"
	"mcwatch/internal/store"
	logx "mcwatch/pkg/logx"
)

// runCycle runs one full pass over the guild's servers.
//
// Every server gets its own goroutine; the cycle joins on all of them and is
// done once every unit has settled, whatever its outcome. A guild with no
// servers is a no-op (no network, no writes).
func (s *Service) runCycle(ctx context.Context, guildID string) {
	servers := s.cfg.Servers(guildID)
	if len(servers) == 0 {
		return
	}

	start := time.Now()
	var wg sync.WaitGroup
	for _, srv := range servers {
		wg.Add(1)
		go func(srv store.Server) {
			defer wg.Done()
			defer func() {
				if r := recover(); r != nil {
					s.log.Error("panic in monitor unit",
						logx.String("guild", guildID),
						logx.String("host", srv.Host),
						logx.Any("panic", r),
						logx.Stack(string(debug.Stack())))
				}
			}()
			s.runUnit(ctx, guildID, srv)
		}(srv)
	}
	wg.Wait()

	s.log.Trace("cycle complete",
		logx.String("guild", guildID),
		logx.Int("servers", len(servers)),
		logx.Duration("took", time.Since(start)))
}

// runUnit probes one server and reconciles its channel label. Errors stop
// here: they are logged with guild+host context and never reach the cycle or
// the guild's timer.
func (s *Service) runUnit(ctx context.Context, guildID string, srv store.Server) {
	st, probeErr := s.prober.Ping(ctx, srv)
	if probeErr != nil {
		s.log.Debug("probe failed",
			logx.String("guild", guildID),
			logx.String("host", srv.Host),
			logx.Err(probeErr))
	}

	res, err := s.rec.Apply(ctx, srv, st, probeErr)
	if err != nil {
		s.log.Warn("reconcile failed",
			logx.String("guild", guildID),
			logx.String("host", srv.Host),
			logx.Err(err))
	} else {
		s.log.Trace("reconciled",
			logx.String("guild", guildID),
			logx.String("host", srv.Host),
			logx.String("result", res.String()))
	}

	s.noteOutcome(guildID, srv, st.Online, st.Max, probeErr == nil)
}

// noteOutcome remembers the server's last observed state and publishes a
// transition when it flips. First observations do not publish: a bot restart
// must not re-announce every server.
func (s *Service) noteOutcome(guildID string, srv store.Server, players, max int, online bool) {
	key := guildID + "/" + srv.Host

	s.omu.Lock()
	prev, known := s.seen[key]
	s.seen[key] = online
	s.omu.Unlock()

	if !known || prev == online || s.bus == nil {
		return
	}
	s.bus.Publish(eventbus.Transition{
		GuildID:   guildID,
		Host:      srv.Host,
		ChannelID: srv.ChannelID,
		Online:    online,
		Players:   players,
		Max:       max,
	})
}
