// Package router maps slash-command invocations onto configuration mutations.
//
// It is deliberately thin: validate input, mutate the store, persist, then
// re-arm or disarm the guild's monitor. The durable save always happens
// before the monitor is touched, so a crash in between leaves the durable
// state at "not yet monitoring" rather than the reverse.
package router

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"mcwatch/internal/storage"
	"mcwatch/internal/store"
	"mcwatch/internal/transport"
	logx "mcwatch/pkg/logx"
)

const (
	defaultOnlineTemplate  = "🟢 {online}/{max} players"
	defaultOfflineTemplate = "🔴 offline"

	commandTimeout  = 10 * time.Second
	maxAutocomplete = 25
)

// Monitor is the scheduling surface the router drives.
type Monitor interface {
	Start(guildID string)
	Stop(guildID string)
	Forget(guildID, host string)
}

type Router struct {
	store   *store.Store
	monitor Monitor
	audit   storage.Store // nil when audit storage is disabled
	log     logx.Logger

	handle HandlerFunc
}

func New(st *store.Store, mon Monitor, audit storage.Store, log logx.Logger) *Router {
	if log.IsZero() {
		log = logx.Nop()
	}
	r := &Router{store: st, monitor: mon, audit: audit, log: log}
	r.handle = Chain(r.dispatch,
		MWPanicRecover(log),
		MWRequestLog(log),
		MWTimeout(commandTimeout),
	)
	return r
}

// Handle implements transport.Handler.
func (r *Router) Handle(ctx context.Context, inv *transport.Invocation) (string, error) {
	return r.handle(ctx, inv)
}

func (r *Router) dispatch(ctx context.Context, inv *transport.Invocation) (string, error) {
	switch inv.Command {
	case "add":
		return r.handleAdd(ctx, inv)
	case "remove":
		return r.handleRemove(ctx, inv)
	case "list":
		return r.handleList(ctx, inv)
	default:
		return "", fmt.Errorf("unknown command %q", inv.Command)
	}
}

func (r *Router) handleAdd(ctx context.Context, inv *transport.Invocation) (string, error) {
	if !inv.CanManage {
		return "You need the Manage Channels permission to do that.", nil
	}

	host := strings.ToLower(strings.TrimSpace(inv.Options["host"]))
	if host == "" || strings.ContainsAny(host, " ;/") {
		return fmt.Sprintf("`%s` is not a valid host.", inv.Options["host"]), nil
	}
	channelID := inv.Options["channel"]
	if channelID == "" {
		return "A status channel is required.", nil
	}

	edition, ok := store.ParseEdition(inv.Options["edition"])
	if !ok {
		return fmt.Sprintf("Unknown edition `%s` (use `java` or `bedrock`).", inv.Options["edition"]), nil
	}

	port := 0
	if raw := strings.TrimSpace(inv.Options["port"]); raw != "" {
		p, err := strconv.Atoi(raw)
		if err != nil || p < 1 || p > 65535 {
			return fmt.Sprintf("`%s` is not a valid port.", raw), nil
		}
		port = p
	}
	if port == 0 {
		port = edition.DefaultPort()
	}

	onlineTpl := inv.Options["online_template"]
	if strings.TrimSpace(onlineTpl) == "" {
		onlineTpl = defaultOnlineTemplate
	}
	offlineTpl := inv.Options["offline_template"]
	if strings.TrimSpace(offlineTpl) == "" {
		offlineTpl = defaultOfflineTemplate
	}

	srv := store.Server{
		Host:            host,
		ChannelID:       channelID,
		Port:            port,
		Edition:         edition,
		OnlineTemplate:  onlineTpl,
		OfflineTemplate: offlineTpl,
	}

	prev, existed := r.store.Server(inv.GuildID, host)
	r.store.PutServer(inv.GuildID, srv)
	if err := r.store.Save(); err != nil {
		// Keep durable and in-memory state consistent: put back whatever was
		// there before the mutation and leave monitoring exactly as it was.
		if existed {
			r.store.PutServer(inv.GuildID, prev)
		} else {
			r.store.RemoveServer(inv.GuildID, host)
		}
		r.appendAudit(inv, "add", host, false, err)
		return "Saving the configuration failed; the server was not added.", err
	}

	r.monitor.Forget(inv.GuildID, host)
	r.monitor.Start(inv.GuildID)
	r.appendAudit(inv, "add", host, true, nil)

	return fmt.Sprintf("Monitoring **%s** (%s, port %d) in <#%s>.", host, edition, port, channelID), nil
}

func (r *Router) handleRemove(ctx context.Context, inv *transport.Invocation) (string, error) {
	if !inv.CanManage {
		return "You need the Manage Channels permission to do that.", nil
	}

	host := strings.ToLower(strings.TrimSpace(inv.Options["host"]))
	removed, guildEmpty := r.store.RemoveServer(inv.GuildID, host)
	if !removed {
		return fmt.Sprintf("**%s** is not being monitored here.", host), nil
	}

	if err := r.store.Save(); err != nil {
		r.appendAudit(inv, "remove", host, false, err)
		return "Saving the configuration failed; the removal may not survive a restart.", err
	}

	r.monitor.Forget(inv.GuildID, host)
	if guildEmpty {
		r.monitor.Stop(inv.GuildID)
	} else {
		r.monitor.Start(inv.GuildID)
	}
	r.appendAudit(inv, "remove", host, true, nil)

	return fmt.Sprintf("Stopped monitoring **%s**.", host), nil
}

func (r *Router) handleList(ctx context.Context, inv *transport.Invocation) (string, error) {
	servers := r.store.Servers(inv.GuildID)
	if len(servers) == 0 {
		return "No servers are being monitored in this guild.", nil
	}

	var b strings.Builder
	b.WriteString("Monitored servers:\n")
	for _, srv := range servers {
		fmt.Fprintf(&b, "- **%s**:%d (%s) → <#%s>\n", srv.Host, srv.Port, srv.Edition, srv.ChannelID)
	}
	return b.String(), nil
}

// Autocomplete implements transport.Handler: host suggestions for /mcstatus remove.
func (r *Router) Autocomplete(ctx context.Context, inv *transport.Invocation, option, partial string) []transport.Choice {
	if inv.Command != "remove" || option != "host" {
		return nil
	}
	partial = strings.ToLower(strings.TrimSpace(partial))

	hosts := make([]string, 0)
	for _, srv := range r.store.Servers(inv.GuildID) {
		if partial == "" || strings.Contains(srv.Host, partial) {
			hosts = append(hosts, srv.Host)
		}
	}
	sort.Strings(hosts)
	if len(hosts) > maxAutocomplete {
		hosts = hosts[:maxAutocomplete]
	}

	choices := make([]transport.Choice, 0, len(hosts))
	for _, h := range hosts {
		choices = append(choices, transport.Choice{Name: h, Value: h})
	}
	return choices
}

func (r *Router) appendAudit(inv *transport.Invocation, action, host string, ok bool, cause error) {
	if r.audit == nil {
		return
	}
	e := storage.Entry{
		GuildID:   inv.GuildID,
		ActorID:   inv.UserID,
		ActorName: inv.Username,
		Action:    action,
		Host:      host,
		OK:        ok,
	}
	if cause != nil {
		e.Error = cause.Error()
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := r.audit.Append(ctx, e); err != nil {
		r.log.Warn("audit append failed", logx.String("action", action), logx.Err(err))
	}
}
