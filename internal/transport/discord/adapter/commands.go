package adapter

import "github.com/bwmarrin/discordgo"

const commandName = "mcstatus"

// commandDefinitions returns the /mcstatus command tree registered on start.
// Option names here must match the keys the router reads from
// transport.Invocation.Options.
func commandDefinitions() []*discordgo.ApplicationCommand {
	var (
		minPort float64 = 1
		maxPort float64 = 65535
	)

	return []*discordgo.ApplicationCommand{
		{
			Name:        commandName,
			Description: "Monitor Minecraft servers and mirror their status into channel names",
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionSubCommand,
					Name:        "add",
					Description: "Start monitoring a server",
					Options: []*discordgo.ApplicationCommandOption{
						{
							Type:        discordgo.ApplicationCommandOptionString,
							Name:        "host",
							Description: "Server hostname or IP",
							Required:    true,
						},
						{
							Type:        discordgo.ApplicationCommandOptionChannel,
							Name:        "channel",
							Description: "Channel whose name shows the status",
							Required:    true,
							ChannelTypes: []discordgo.ChannelType{
								discordgo.ChannelTypeGuildVoice,
								discordgo.ChannelTypeGuildText,
							},
						},
						{
							Type:        discordgo.ApplicationCommandOptionString,
							Name:        "edition",
							Description: "Server edition (default: java)",
							Choices: []*discordgo.ApplicationCommandOptionChoice{
								{Name: "Java", Value: "java"},
								{Name: "Bedrock", Value: "bedrock"},
							},
						},
						{
							Type:        discordgo.ApplicationCommandOptionInteger,
							Name:        "port",
							Description: "Server port (default: 25565 Java, 19132 Bedrock)",
							MinValue:    &minPort,
							MaxValue:    maxPort,
						},
						{
							Type:        discordgo.ApplicationCommandOptionString,
							Name:        "online_template",
							Description: "Channel name when online; {online} and {max} are substituted",
						},
						{
							Type:        discordgo.ApplicationCommandOptionString,
							Name:        "offline_template",
							Description: "Channel name when offline",
						},
					},
				},
				{
					Type:        discordgo.ApplicationCommandOptionSubCommand,
					Name:        "remove",
					Description: "Stop monitoring a server",
					Options: []*discordgo.ApplicationCommandOption{
						{
							Type:         discordgo.ApplicationCommandOptionString,
							Name:         "host",
							Description:  "Server hostname",
							Required:     true,
							Autocomplete: true,
						},
					},
				},
				{
					Type:        discordgo.ApplicationCommandOptionSubCommand,
					Name:        "list",
					Description: "List monitored servers in this guild",
				},
			},
		},
	}
}
