package store

import "strings"

// Edition selects the wire protocol used to query a server.
type Edition string

const (
	EditionJava    Edition = "java"
	EditionBedrock Edition = "bedrock"
)

const (
	DefaultJavaPort    = 25565
	DefaultBedrockPort = 19132
)

// ParseEdition normalizes user input; empty defaults to Java.
func ParseEdition(s string) (Edition, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "java":
		return EditionJava, true
	case "bedrock", "pe", "mcpe":
		return EditionBedrock, true
	default:
		return "", false
	}
}

// DefaultPort returns the edition's protocol default.
func (e Edition) DefaultPort() int {
	if e == EditionBedrock {
		return DefaultBedrockPort
	}
	return DefaultJavaPort
}

// Server is one monitored endpoint plus its display configuration.
// Host is the lookup key and unique within a guild.
type Server struct {
	Host            string  `json:"-"`
	ChannelID       string  `json:"channel_id"`
	Port            int     `json:"port"`
	Edition         Edition `json:"edition"`
	OnlineTemplate  string  `json:"online_template"`
	OfflineTemplate string  `json:"offline_template"`
}

// GuildConfig holds everything monitored for one guild.
type GuildConfig struct {
	Servers map[string]Server `json:"servers"`
}
