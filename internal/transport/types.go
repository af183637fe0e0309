package transport

import "context"

// MaxLabelLen is the platform limit for a channel name, in runes.
const MaxLabelLen = 100

// Surface is the rendering surface the monitor writes status into.
//
// Implementations talk to the tenant platform (Discord). All methods are
// best-effort network calls; Rename in particular may fail due to platform
// rate limits, and callers are expected to retry on the next cycle rather
// than synchronously.
type Surface interface {
	// Manageable reports whether the bot can read and rename the channel.
	// A missing or deleted channel is simply not manageable.
	Manageable(ctx context.Context, channelID string) bool

	// ChannelName returns the channel's current name, read fresh (not cached).
	ChannelName(ctx context.Context, channelID string) (string, error)

	// Rename sets the channel's name.
	Rename(ctx context.Context, channelID, name string) error
}

// Invocation is one slash-command invocation, platform-neutral.
type Invocation struct {
	GuildID   string
	ChannelID string
	UserID    string
	Username  string

	// CanManage reports whether the platform says the invoking member may
	// manage channels in this guild. The router gates mutations on it.
	CanManage bool

	// Command is the matched subcommand, e.g. "add", "remove", "list".
	Command string
	// Options holds the invocation's named option values as strings.
	Options map[string]string
}

// Choice is one autocomplete suggestion.
type Choice struct {
	Name  string
	Value string
}

// Handler consumes slash-command invocations.
type Handler interface {
	// Handle executes the invocation and returns the reply text shown to the
	// requester (always ephemeral).
	Handle(ctx context.Context, inv *Invocation) (string, error)

	// Autocomplete returns suggestions for the option currently being typed.
	Autocomplete(ctx context.Context, inv *Invocation, option, partial string) []Choice
}

// Adapter is the platform connection: it feeds invocations to a Handler and
// implements the Surface the monitor reconciles against.
type Adapter interface {
	Surface

	Start(ctx context.Context, h Handler) error
	Stop(ctx context.Context) error

	// SendMessage posts a plain message to a channel. Used by the status
	// notifier and the optional log sink.
	SendMessage(ctx context.Context, channelID, text string) error
}
