package app

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"

	"mcwatch/internal/storage"
	logx "mcwatch/pkg/logx"
)

// pruneSpec runs the nightly audit prune during the quiet hours.
const pruneSpec = "0 4 * * *"

// maintenance prunes aged audit entries on a schedule.
type maintenance struct {
	cron      *cron.Cron
	audit     storage.Store
	retention time.Duration
	log       logx.Logger
}

func newMaintenance(audit storage.Store, retention time.Duration, log logx.Logger) *maintenance {
	m := &maintenance{
		cron:      cron.New(),
		audit:     audit,
		retention: retention,
		log:       log,
	}
	if _, err := m.cron.AddFunc(pruneSpec, m.prune); err != nil {
		// pruneSpec is a constant; this only fires if it is edited into
		// something unparsable.
		log.Error("invalid maintenance schedule", logx.String("spec", pruneSpec), logx.Err(err))
	}
	return m
}

func (m *maintenance) Start() {
	m.cron.Start()
	m.log.Info("maintenance scheduled",
		logx.String("spec", pruneSpec),
		logx.Duration("retention", m.retention))
}

func (m *maintenance) Stop() {
	<-m.cron.Stop().Done()
}

func (m *maintenance) prune() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	cutoff := time.Now().Add(-m.retention)
	n, err := m.audit.Prune(ctx, cutoff)
	if err != nil {
		m.log.Warn("audit prune failed", logx.Err(err))
		return
	}
	if n > 0 {
		m.log.Info("audit entries pruned", logx.Int("removed", n), logx.Time("cutoff", cutoff))
	}
}
