// Package app wires the bot together: config, logging, the Discord adapter,
// the guild store, the monitor, and the optional notifier/audit/maintenance
// services. It owns startup order and bounded shutdown.
package app

import (
	"context"
	"fmt"
	"time"

	"mcwatch/internal/config"
	"mcwatch/internal/eventbus"
	"mcwatch/internal/monitor"
	"mcwatch/internal/notifier"
	"mcwatch/internal/probe"
	"mcwatch/internal/reconcile"
	"mcwatch/internal/runtime/supervisor"
	"mcwatch/internal/storage"
	"mcwatch/internal/store"
	discord "mcwatch/internal/transport/discord/adapter"
	"mcwatch/internal/transport/discord/router"
	logx "mcwatch/pkg/logx"
)

const (
	defaultInterval     = 60 * time.Second
	defaultProbeTimeout = 5 * time.Second
	defaultGuildsPath   = "./data/guilds.json"
)

type App struct {
	cfgPath string

	cfgm *config.Manager
	sup  *supervisor.Supervisor

	log  logx.Logger
	logs *logx.Service
	bus  eventbus.Bus

	guilds *store.Store
	audit  storage.Store

	adapter *discord.Adapter
	mon     *monitor.Service
	notif   *notifier.Service
	router  *router.Router
	maint   *maintenance
}

func New(cfgPath string) (*App, error) {
	cfgm := config.NewManager(cfgPath)
	cfg, err := cfgm.Load()
	if err != nil {
		return nil, err
	}

	bootLog := logx.NewConsole(cfg.Logging.Level).With(logx.String("comp", "discord"))
	ad, err := discord.New(discord.Config{
		Token:   cfg.Discord.Token,
		GuildID: cfg.Discord.GuildID,
	}, bootLog)
	if err != nil {
		return nil, err
	}

	// logx.New applies the config immediately; bootstrap with the Discord sink
	// disabled so a not-yet-connected adapter can't produce a startup warning,
	// then Apply the real config once the sender is wired.
	baseLogCfg := mapLogConfig(cfg)
	baseLogCfg.Discord.Enabled = false
	logSvc, log := logx.New(baseLogCfg, ad)
	log = log.With(logx.String("comp", "app"))
	logSvc.Apply(mapLogConfig(cfg))

	interval, probeTimeout, guildsPath, err := mapMonitorConfig(cfg)
	if err != nil {
		return nil, err
	}

	guilds := store.New(guildsPath, log.With(logx.String("comp", "store")))
	if err := guilds.Load(); err != nil {
		return nil, fmt.Errorf("load guild config: %w", err)
	}

	var audit storage.Store
	if sc, retention, err := mapStorageConfig(cfg); err != nil {
		return nil, err
	} else if sc.Driver != "" {
		st, err := storage.Open(sc, log.With(logx.String("comp", "storage")))
		if err != nil {
			return nil, err
		}
		audit = st
		if audit != nil {
			log.Info("audit storage enabled",
				logx.String("driver", sc.Driver),
				logx.Duration("retention", retention))
		}
	}

	bus := eventbus.New()
	pinger := probe.New(probeTimeout, log.With(logx.String("comp", "probe")))
	rec := reconcile.New(ad, log.With(logx.String("comp", "reconcile")))
	mon := monitor.New(guilds, pinger, rec, bus, interval, log.With(logx.String("comp", "monitor")))

	ncfg, err := mapNotifierConfig(cfg)
	if err != nil {
		return nil, err
	}
	notif := notifier.New(ncfg, ad, bus, log.With(logx.String("comp", "notifier")))

	rt := router.New(guilds, mon, audit, log.With(logx.String("comp", "commands")))

	var maint *maintenance
	if _, retention, _ := mapStorageConfig(cfg); audit != nil && retention > 0 {
		maint = newMaintenance(audit, retention, log.With(logx.String("comp", "maintenance")))
	}

	return &App{
		cfgPath: cfgPath,
		cfgm:    cfgm,
		log:     log,
		logs:    logSvc,
		bus:     bus,
		guilds:  guilds,
		audit:   audit,
		adapter: ad,
		mon:     mon,
		notif:   notif,
		router:  rt,
		maint:   maint,
	}, nil
}

// Done is closed when the app's run context ends (fatal error or Stop).
func (a *App) Done() <-chan struct{} {
	if a.sup == nil {
		ch := make(chan struct{})
		close(ch)
		return ch
	}
	return a.sup.Context().Done()
}

// Err returns the first fatal error observed, if any.
func (a *App) Err() error {
	if a.sup == nil {
		return nil
	}
	return a.sup.Err()
}

func (a *App) Start(ctx context.Context) error {
	a.sup = supervisor.New(ctx,
		supervisor.WithLogger(a.log.With(logx.String("comp", "supervisor"))),
		supervisor.WithCancelOnError(true))

	a.cfgm.SetLogger(a.log.With(logx.String("comp", "config")))
	a.cfgm.SetValidator(func(_ context.Context, cfg *config.Config) error {
		return validateConfig(cfg)
	})

	if err := a.adapter.Start(a.sup.Context(), a.router); err != nil {
		return err
	}

	a.mon.Run(a.sup.Context())
	a.notif.Start(a.sup.Context())
	if a.maint != nil {
		a.maint.Start()
	}

	a.sup.Go0("config.reload", func(c context.Context) { a.reloadLoop(c) })
	a.sup.GoRestart("config.watch", func(c context.Context) error {
		return a.cfgm.Watch(c)
	})

	notifyReady(a.sup, a.log)

	a.log.Info("app started",
		logx.Int("guilds", len(a.guilds.Guilds())),
		logx.String("guilds_path", a.guilds.Path()))
	return nil
}

func (a *App) Stop(ctx context.Context) error {
	if a.sup == nil {
		return nil
	}
	a.log.Info("stopping")
	notifyStopping(a.log)

	a.sup.Cancel()

	step := func(name string, max time.Duration, fn func(context.Context) error) {
		stepCtx, cancel := context.WithTimeout(ctx, max)
		defer cancel()

		done := make(chan error, 1)
		go func() {
			defer func() {
				if r := recover(); r != nil {
					done <- fmt.Errorf("panic in stop step %s: %v", name, r)
				}
			}()
			done <- fn(stepCtx)
		}()

		select {
		case err := <-done:
			if err != nil {
				a.log.Warn("stop step failed", logx.String("name", name), logx.Err(err))
			}
		case <-stepCtx.Done():
			a.log.Warn("stop step deadline reached (continuing)",
				logx.String("name", name), logx.Err(stepCtx.Err()))
		}
	}

	if a.maint != nil {
		step("maintenance", time.Second, func(context.Context) error { a.maint.Stop(); return nil })
	}
	step("monitor", 3*time.Second, func(context.Context) error { a.mon.StopAll(); return nil })
	step("notifier", time.Second, func(context.Context) error { a.notif.Stop(); return nil })

	// Final durable write so a mutation racing shutdown isn't lost.
	step("store", 2*time.Second, func(context.Context) error { return a.guilds.Save() })

	step("adapter", 2*time.Second, func(c context.Context) error { return a.adapter.Stop(c) })
	if a.audit != nil {
		step("storage", time.Second, func(context.Context) error { return a.audit.Close() })
	}
	step("supervisor", 2*time.Second, func(c context.Context) error { return a.sup.Wait(c) })

	a.log.Info("stopped")
	if a.logs != nil {
		_ = a.logs.Close()
	}
	return nil
}

// reloadLoop applies hot-reloadable settings as the config file changes.
// Logging level/sinks and the poll interval apply live; discord token, guilds
// path, probe timeout, notifier, and storage changes need a restart.
func (a *App) reloadLoop(ctx context.Context) {
	sub := a.cfgm.Subscribe(8)
	defer a.cfgm.Unsubscribe(sub)

	for {
		select {
		case <-ctx.Done():
			return
		case newCfg, ok := <-sub:
			if !ok {
				return
			}
			// Coalesce bursts, keep only the newest.
			for {
				select {
				case newer := <-sub:
					if newer != nil {
						newCfg = newer
					}
				default:
					goto apply
				}
			}
		apply:
			a.logs.Apply(mapLogConfig(newCfg))

			if interval, _, _, err := mapMonitorConfig(newCfg); err == nil {
				a.mon.SetInterval(interval)
			}

			a.log.Info("config reloaded")
		}
	}
}
