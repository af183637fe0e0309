// Package reconcile turns probe outcomes into channel-name updates.
//
// It is stateless across cycles: the current label is read fresh from the
// surface every time, and a write happens only when the rendered label
// differs. Channel renames are rate-limited by the platform, so skipping
// redundant writes is the whole point.
package reconcile

import (
	"context"
	"fmt"

	"mcwatch/internal/probe"
	"mcwatch/internal/store"
	"mcwatch/internal/transport"
	logx "mcwatch/pkg/logx"
)

// Result says what one reconciliation did.
type Result int

const (
	// Skipped: nothing written (label already current, or channel not manageable).
	Skipped Result = iota
	// Updated: the channel label was rewritten.
	Updated
	// Errored: the write (or the fallback write) failed.
	Errored
)

func (r Result) String() string {
	switch r {
	case Updated:
		return "updated"
	case Errored:
		return "errored"
	default:
		return "skipped"
	}
}

type Reconciler struct {
	surface transport.Surface
	log     logx.Logger
}

func New(surface transport.Surface, log logx.Logger) *Reconciler {
	if log.IsZero() {
		log = logx.Nop()
	}
	return &Reconciler{surface: surface, log: log}
}

// Apply reconciles one server's channel label with its probe outcome.
//
// probeErr nil means the server is online with the given status; non-nil means
// the offline template applies. If the online path itself fails mid-way, the
// reconciler still tries to leave the channel in the offline state before
// reporting the error.
func (r *Reconciler) Apply(ctx context.Context, srv store.Server, st probe.Status, probeErr error) (Result, error) {
	if !r.surface.Manageable(ctx, srv.ChannelID) {
		r.log.Warn("channel not manageable; skipping label update",
			logx.String("host", srv.Host), logx.String("channel", srv.ChannelID))
		return Skipped, nil
	}

	if probeErr != nil {
		return r.setLabel(ctx, srv.ChannelID, Clamp(srv.OfflineTemplate, transport.MaxLabelLen))
	}

	label := Clamp(Render(srv.OnlineTemplate, st.Online, st.Max), transport.MaxLabelLen)
	res, err := r.setLabel(ctx, srv.ChannelID, label)
	if err != nil {
		// Online rendering/write failed: fall back to the offline label so the
		// channel never shows a stale "online" count.
		if fbRes, fbErr := r.setLabel(ctx, srv.ChannelID, Clamp(srv.OfflineTemplate, transport.MaxLabelLen)); fbErr == nil {
			r.log.Warn("online label write failed; fell back to offline label",
				logx.String("host", srv.Host), logx.Err(err))
			_ = fbRes
		}
		return Errored, err
	}
	return res, nil
}

// setLabel writes the label only when it differs from what the channel shows
// right now. Setting an identical label twice is a no-op by construction.
func (r *Reconciler) setLabel(ctx context.Context, channelID, label string) (Result, error) {
	current, err := r.surface.ChannelName(ctx, channelID)
	if err != nil {
		return Errored, fmt.Errorf("read channel name: %w", err)
	}
	if current == label {
		return Skipped, nil
	}
	if err := r.surface.Rename(ctx, channelID, label); err != nil {
		return Errored, fmt.Errorf("rename channel: %w", err)
	}
	return Updated, nil
}
