// Package notifier announces status transitions.
//
// It subscribes to the event bus and posts a short message into the monitored
// channel when a server flips between online and offline. Announcements are
// best-effort: the queue is bounded, sends are rate-limited, and failures are
// logged and dropped (the channel label already carries the current state).
package notifier

import (
	"context"
	"fmt"
	"sync"

	"golang.org/x/time/rate"

	"mcwatch/internal/eventbus"
	logx "mcwatch/pkg/logx"
)

type Config struct {
	Enabled    bool
	QueueSize  int
	RatePerSec int
}

// Sender posts a message to a channel. The Discord adapter satisfies this.
type Sender interface {
	SendMessage(ctx context.Context, channelID, text string) error
}

type Service struct {
	cfg     Config
	sender  Sender
	bus     eventbus.Bus
	log     logx.Logger
	limiter *rate.Limiter

	mu     sync.Mutex
	cancel context.CancelFunc
	unsub  func()
	wg     sync.WaitGroup
}

func New(cfg Config, sender Sender, bus eventbus.Bus, log logx.Logger) *Service {
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = 64
	}
	if cfg.RatePerSec <= 0 {
		cfg.RatePerSec = 1
	}
	if log.IsZero() {
		log = logx.Nop()
	}
	return &Service{
		cfg:     cfg,
		sender:  sender,
		bus:     bus,
		log:     log,
		limiter: rate.NewLimiter(rate.Limit(cfg.RatePerSec), cfg.RatePerSec),
	}
}

func (s *Service) Start(ctx context.Context) {
	if !s.cfg.Enabled || s.bus == nil || s.sender == nil {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancel != nil {
		return // already running
	}

	runCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel

	events, unsub := s.bus.Subscribe(s.cfg.QueueSize)
	s.unsub = unsub

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		for {
			select {
			case <-runCtx.Done():
				return
			case tr, ok := <-events:
				if !ok {
					return
				}
				s.announce(runCtx, tr)
			}
		}
	}()
	s.log.Info("notifier started", logx.Int("rate_per_sec", s.cfg.RatePerSec))
}

func (s *Service) Stop() {
	s.mu.Lock()
	cancel := s.cancel
	unsub := s.unsub
	s.cancel = nil
	s.unsub = nil
	s.mu.Unlock()

	if unsub != nil {
		unsub()
	}
	if cancel != nil {
		cancel()
	}
	s.wg.Wait()
}

func (s *Service) announce(ctx context.Context, tr eventbus.Transition) {
	if err := s.limiter.Wait(ctx); err != nil {
		return
	}
	msg := formatTransition(tr)
	if err := s.sender.SendMessage(ctx, tr.ChannelID, msg); err != nil {
		s.log.Warn("announcement failed",
			logx.String("guild", tr.GuildID),
			logx.String("host", tr.Host),
			logx.Err(err))
	}
}

func formatTransition(tr eventbus.Transition) string {
	if tr.Online {
		return fmt.Sprintf("🟢 **%s** is back online (%d/%d players)", tr.Host, tr.Players, tr.Max)
	}
	return fmt.Sprintf("🔴 **%s** went offline", tr.Host)
}
