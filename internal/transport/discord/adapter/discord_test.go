package adapter

import (
	"testing"

	"github.com/bwmarrin/discordgo"

	logx "mcwatch/pkg/logx"
)

func newTestAdapter(t *testing.T) *Adapter {
	t.Helper()
	a, err := New(Config{Token: "test-token"}, logx.Nop())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return a
}

func TestNewRejectsEmptyToken(t *testing.T) {
	t.Parallel()
	if _, err := New(Config{Token: "   "}, logx.Nop()); err == nil {
		t.Fatal("expected error for empty token")
	}
}

func TestBuildInvocationFlattensOptions(t *testing.T) {
	t.Parallel()
	a := newTestAdapter(t)

	i := &discordgo.InteractionCreate{Interaction: &discordgo.Interaction{
		Type:      discordgo.InteractionApplicationCommand,
		GuildID:   "g1",
		ChannelID: "c-invoked",
		Member: &discordgo.Member{
			User:        &discordgo.User{ID: "u1", Username: "tester"},
			Permissions: discordgo.PermissionManageChannels,
		},
		Data: discordgo.ApplicationCommandInteractionData{
			Name: commandName,
			Options: []*discordgo.ApplicationCommandInteractionDataOption{
				{
					Type: discordgo.ApplicationCommandOptionSubCommand,
					Name: "add",
					Options: []*discordgo.ApplicationCommandInteractionDataOption{
						{Type: discordgo.ApplicationCommandOptionString, Name: "host", Value: "mc.example.com"},
						{Type: discordgo.ApplicationCommandOptionChannel, Name: "channel", Value: "chan-1"},
						{Type: discordgo.ApplicationCommandOptionInteger, Name: "port", Value: float64(19132)},
					},
				},
			},
		},
	}}

	inv, focusedName, _ := a.buildInvocation(i)
	if inv == nil {
		t.Fatal("buildInvocation returned nil")
	}
	if inv.GuildID != "g1" || inv.Command != "add" || !inv.CanManage {
		t.Fatalf("invocation = %+v", inv)
	}
	if inv.Options["host"] != "mc.example.com" ||
		inv.Options["channel"] != "chan-1" ||
		inv.Options["port"] != "19132" {
		t.Fatalf("options = %v", inv.Options)
	}
	if focusedName != "" {
		t.Fatalf("focusedName = %q, want none", focusedName)
	}
}

func TestBuildInvocationReportsFocusedOption(t *testing.T) {
	t.Parallel()
	a := newTestAdapter(t)

	i := &discordgo.InteractionCreate{Interaction: &discordgo.Interaction{
		Type:    discordgo.InteractionApplicationCommandAutocomplete,
		GuildID: "g1",
		Data: discordgo.ApplicationCommandInteractionData{
			Name: commandName,
			Options: []*discordgo.ApplicationCommandInteractionDataOption{
				{
					Type: discordgo.ApplicationCommandOptionSubCommand,
					Name: "remove",
					Options: []*discordgo.ApplicationCommandInteractionDataOption{
						{Type: discordgo.ApplicationCommandOptionString, Name: "host", Value: "alp", Focused: true},
					},
				},
			},
		},
	}}

	inv, focusedName, focusedValue := a.buildInvocation(i)
	if inv == nil || inv.Command != "remove" {
		t.Fatalf("invocation = %+v", inv)
	}
	if focusedName != "host" || focusedValue != "alp" {
		t.Fatalf("focused = %q %q", focusedName, focusedValue)
	}
}

func TestBuildInvocationIgnoresForeignCommands(t *testing.T) {
	t.Parallel()
	a := newTestAdapter(t)

	i := &discordgo.InteractionCreate{Interaction: &discordgo.Interaction{
		Type: discordgo.InteractionApplicationCommand,
		Data: discordgo.ApplicationCommandInteractionData{Name: "other"},
	}}
	if inv, _, _ := a.buildInvocation(i); inv != nil {
		t.Fatalf("invocation = %+v, want nil", inv)
	}
}

// The registered option names are the router's contract; catch drift early.
func TestCommandDefinitionsCoverRouterOptions(t *testing.T) {
	t.Parallel()

	defs := commandDefinitions()
	if len(defs) != 1 || defs[0].Name != commandName {
		t.Fatalf("definitions = %+v", defs)
	}

	want := map[string][]string{
		"add":    {"host", "channel", "edition", "port", "online_template", "offline_template"},
		"remove": {"host"},
		"list":   nil,
	}
	for _, sub := range defs[0].Options {
		expected, ok := want[sub.Name]
		if !ok {
			t.Fatalf("unexpected subcommand %q", sub.Name)
		}
		delete(want, sub.Name)

		got := map[string]bool{}
		for _, opt := range sub.Options {
			got[opt.Name] = true
		}
		for _, name := range expected {
			if !got[name] {
				t.Fatalf("%s is missing option %q", sub.Name, name)
			}
		}
	}
	if len(want) != 0 {
		t.Fatalf("missing subcommands: %v", want)
	}
}
