// Package adapter connects mcwatch to Discord.
//
// Inbound it translates slash-command interactions into transport.Invocations
// and routes them to the registered handler; outbound it implements the
// transport.Surface the monitor reconciles against. Channel renames are
// throttled locally per channel (Discord allows two renames per channel per
// ten minutes) so the reconciler's retry-next-cycle behavior does the waiting
// instead of the HTTP client.
package adapter

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/bwmarrin/discordgo"
	"golang.org/x/time/rate"

	"mcwatch/internal/transport"
	logx "mcwatch/pkg/logx"
)

// ErrRenameThrottled is returned when a rename is locally rate limited.
// The next monitoring cycle retries it naturally.
var ErrRenameThrottled = errors.New("channel rename throttled")

const interactionTimeout = 15 * time.Second

type Config struct {
	Token string

	// GuildID scopes slash-command registration to one guild when set
	// (instant propagation, useful in development). Empty means global.
	GuildID string
}

type Adapter struct {
	cfg Config
	log logx.Logger

	session *discordgo.Session

	mu            sync.Mutex
	handler       transport.Handler
	removeHandler func()
	running       bool

	// one limiter per channel; renames are the scarce resource here
	limMu    sync.Mutex
	limiters map[string]*rate.Limiter
}

func New(cfg Config, log logx.Logger) (*Adapter, error) {
	if strings.TrimSpace(cfg.Token) == "" {
		return nil, errors.New("discord token is empty")
	}
	if log.IsZero() {
		log = logx.Nop()
	}

	s, err := discordgo.New("Bot " + cfg.Token)
	if err != nil {
		return nil, err
	}
	// Channel metadata is all we need; no message content.
	s.Identify.Intents = discordgo.IntentsGuilds

	return &Adapter{
		cfg:      cfg,
		log:      log,
		session:  s,
		limiters: map[string]*rate.Limiter{},
	}, nil
}

func (a *Adapter) Start(ctx context.Context, h transport.Handler) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.running {
		return errors.New("adapter already started")
	}

	a.handler = h
	a.removeHandler = a.session.AddHandler(a.onInteraction)

	if err := a.session.Open(); err != nil {
		a.removeHandler()
		a.removeHandler = nil
		return fmt.Errorf("open gateway: %w", err)
	}

	appID := a.session.State.User.ID
	if _, err := a.session.ApplicationCommandBulkOverwrite(appID, a.cfg.GuildID, commandDefinitions()); err != nil {
		_ = a.session.Close()
		a.removeHandler()
		a.removeHandler = nil
		return fmt.Errorf("register commands: %w", err)
	}

	a.running = true
	a.log.Info("discord adapter started",
		logx.String("user", a.session.State.User.Username),
		logx.Bool("guild_scoped", a.cfg.GuildID != ""))
	return nil
}

func (a *Adapter) Stop(ctx context.Context) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if !a.running {
		return nil
	}
	a.running = false
	if a.removeHandler != nil {
		a.removeHandler()
		a.removeHandler = nil
	}
	return a.session.Close()
}

// ---- Surface ----

func (a *Adapter) Manageable(ctx context.Context, channelID string) bool {
	// Fetch fresh: a deleted channel must read as unmanageable, not cached.
	if _, err := a.session.Channel(channelID, discordgo.WithContext(ctx)); err != nil {
		return false
	}
	perms, err := a.session.UserChannelPermissions(a.session.State.User.ID, channelID)
	if err != nil {
		return false
	}
	return perms&discordgo.PermissionManageChannels != 0
}

func (a *Adapter) ChannelName(ctx context.Context, channelID string) (string, error) {
	ch, err := a.session.Channel(channelID, discordgo.WithContext(ctx))
	if err != nil {
		return "", err
	}
	return ch.Name, nil
}

func (a *Adapter) Rename(ctx context.Context, channelID, name string) error {
	if !a.renameLimiter(channelID).Allow() {
		return ErrRenameThrottled
	}
	_, err := a.session.ChannelEdit(channelID, &discordgo.ChannelEdit{Name: name}, discordgo.WithContext(ctx))
	return err
}

func (a *Adapter) SendMessage(ctx context.Context, channelID, text string) error {
	_, err := a.session.ChannelMessageSend(channelID, text, discordgo.WithContext(ctx))
	return err
}

func (a *Adapter) renameLimiter(channelID string) *rate.Limiter {
	a.limMu.Lock()
	defer a.limMu.Unlock()
	lim, ok := a.limiters[channelID]
	if !ok {
		// Discord's documented cap: 2 renames per channel per 10 minutes.
		lim = rate.NewLimiter(rate.Every(5*time.Minute), 2)
		a.limiters[channelID] = lim
	}
	return lim
}

// ---- Interactions ----

func (a *Adapter) onInteraction(s *discordgo.Session, i *discordgo.InteractionCreate) {
	a.mu.Lock()
	h := a.handler
	a.mu.Unlock()
	if h == nil {
		return
	}

	switch i.Type {
	case discordgo.InteractionApplicationCommand:
		a.handleCommand(h, i)
	case discordgo.InteractionApplicationCommandAutocomplete:
		a.handleAutocomplete(h, i)
	}
}

func (a *Adapter) handleCommand(h transport.Handler, i *discordgo.InteractionCreate) {
	ctx, cancel := context.WithTimeout(context.Background(), interactionTimeout)
	defer cancel()

	inv, _, _ := a.buildInvocation(i)
	if inv == nil {
		return
	}

	reply, err := h.Handle(ctx, inv)
	if err != nil {
		a.log.Warn("command failed",
			logx.String("command", inv.Command),
			logx.String("guild", inv.GuildID),
			logx.Err(err))
		if reply == "" {
			reply = "Something went wrong; the change may not have been applied."
		}
	}

	respErr := a.session.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Content: reply,
			Flags:   discordgo.MessageFlagsEphemeral,
		},
	}, discordgo.WithContext(ctx))
	if respErr != nil {
		a.log.Warn("interaction response failed", logx.Err(respErr))
	}
}

func (a *Adapter) handleAutocomplete(h transport.Handler, i *discordgo.InteractionCreate) {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	inv, focusedName, focusedValue := a.buildInvocation(i)
	if inv == nil || focusedName == "" {
		return
	}

	var choices []*discordgo.ApplicationCommandOptionChoice
	for _, c := range h.Autocomplete(ctx, inv, focusedName, focusedValue) {
		choices = append(choices, &discordgo.ApplicationCommandOptionChoice{Name: c.Name, Value: c.Value})
	}

	err := a.session.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionApplicationCommandAutocompleteResult,
		Data: &discordgo.InteractionResponseData{Choices: choices},
	}, discordgo.WithContext(ctx))
	if err != nil {
		a.log.Debug("autocomplete response failed", logx.Err(err))
	}
}

// buildInvocation flattens an interaction into a transport.Invocation.
// For autocomplete interactions it also returns the focused option.
func (a *Adapter) buildInvocation(i *discordgo.InteractionCreate) (inv *transport.Invocation, focusedName, focusedValue string) {
	data := i.ApplicationCommandData()
	if data.Name != commandName || len(data.Options) == 0 {
		return nil, "", ""
	}
	sub := data.Options[0]
	if sub.Type != discordgo.ApplicationCommandOptionSubCommand {
		return nil, "", ""
	}

	inv = &transport.Invocation{
		GuildID:   i.GuildID,
		ChannelID: i.ChannelID,
		Command:   sub.Name,
		Options:   map[string]string{},
	}
	if i.Member != nil && i.Member.User != nil {
		inv.UserID = i.Member.User.ID
		inv.Username = i.Member.User.Username
		inv.CanManage = i.Member.Permissions&discordgo.PermissionManageChannels != 0
	}

	for _, opt := range sub.Options {
		var val string
		switch opt.Type {
		case discordgo.ApplicationCommandOptionString:
			val = opt.StringValue()
		case discordgo.ApplicationCommandOptionInteger:
			val = fmt.Sprintf("%d", opt.IntValue())
		case discordgo.ApplicationCommandOptionChannel:
			// ChannelValue(nil) resolves the ID without a state lookup.
			val = opt.ChannelValue(nil).ID
		default:
			val = fmt.Sprint(opt.Value)
		}
		inv.Options[opt.Name] = val
		if opt.Focused {
			focusedName, focusedValue = opt.Name, val
		}
	}
	return inv, focusedName, focusedValue
}
