package reconcile

import (
	"strconv"
	"strings"
)

// Render substitutes the player-count placeholders into a label template.
// Unknown placeholders are left as-is: templates are free text owned by the
// guild operator.
func Render(template string, online, max int) string {
	r := strings.NewReplacer(
		"{online}", strconv.Itoa(online),
		"{max}", strconv.Itoa(max),
	)
	return r.Replace(template)
}

// Clamp truncates a rendered label to the platform's channel-name limit,
// counting runes (channel names may contain emoji).
func Clamp(label string, maxRunes int) string {
	if maxRunes <= 0 {
		return label
	}
	runes := []rune(label)
	if len(runes) <= maxRunes {
		return label
	}
	return string(runes[:maxRunes])
}
