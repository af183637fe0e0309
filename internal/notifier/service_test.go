package notifier

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"mcwatch/internal/eventbus"
	logx "mcwatch/pkg/logx"
)

type fakeSender struct {
	mu   sync.Mutex
	sent []string
}

func (f *fakeSender) SendMessage(ctx context.Context, channelID, text string) error {
	f.mu.Lock()
	f.sent = append(f.sent, channelID+": "+text)
	f.mu.Unlock()
	return nil
}

func (f *fakeSender) messages() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.sent...)
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("condition not met in time")
}

func TestAnnouncesTransitions(t *testing.T) {
	t.Parallel()
	bus := eventbus.New()
	sender := &fakeSender{}
	s := New(Config{Enabled: true, RatePerSec: 100}, sender, bus, logx.Nop())
	s.Start(context.Background())
	t.Cleanup(s.Stop)

	bus.Publish(eventbus.Transition{
		GuildID: "g1", Host: "mc.example.com", ChannelID: "c1",
		Online: true, Players: 5, Max: 20,
	})
	waitFor(t, func() bool { return len(sender.messages()) == 1 })

	got := sender.messages()[0]
	if !strings.HasPrefix(got, "c1: ") || !strings.Contains(got, "mc.example.com") || !strings.Contains(got, "5/20") {
		t.Fatalf("message = %q", got)
	}

	bus.Publish(eventbus.Transition{
		GuildID: "g1", Host: "mc.example.com", ChannelID: "c1", Online: false,
	})
	waitFor(t, func() bool { return len(sender.messages()) == 2 })
	if !strings.Contains(sender.messages()[1], "went offline") {
		t.Fatalf("message = %q", sender.messages()[1])
	}
}

func TestDisabledNotifierIgnoresBus(t *testing.T) {
	t.Parallel()
	bus := eventbus.New()
	sender := &fakeSender{}
	s := New(Config{Enabled: false}, sender, bus, logx.Nop())
	s.Start(context.Background())
	t.Cleanup(s.Stop)

	bus.Publish(eventbus.Transition{GuildID: "g1", Host: "h", ChannelID: "c1", Online: false})
	time.Sleep(50 * time.Millisecond)
	if got := sender.messages(); len(got) != 0 {
		t.Fatalf("messages = %v, want none", got)
	}
}
