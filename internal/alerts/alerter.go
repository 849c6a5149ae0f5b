package alerts

import (
	"encoding/json"
	"fmt"
)

// Alerter is the identity a message is posted as
type Alerter struct {
	Username string
	Emoji    string
}

// MarshalJSON stores an alerter as ["username", "emoji"]
func (a Alerter) MarshalJSON() ([]byte, error) {
	return json.Marshal([2]string{a.Username, a.Emoji})
}

// UnmarshalJSON reads the ["username", "emoji"] form
func (a *Alerter) UnmarshalJSON(data []byte) error {
	var pair []string
	if err := json.Unmarshal(data, &pair); err != nil {
		return fmt.Errorf("alerter must be a [username, emoji] pair: %w", err)
	}
	if len(pair) != 2 {
		return fmt.Errorf("alerter must be a [username, emoji] pair, got %d values", len(pair))
	}
	a.Username, a.Emoji = pair[0], pair[1]
	return nil
}

// AlertText is a message that can be switched off without removing it
type AlertText struct {
	Text   string
	Active bool
}

// NewAlertText returns an active message
func NewAlertText(text string) AlertText {
	return AlertText{Text: text, Active: true}
}

func (t AlertText) String() string {
	return t.Text
}

// DefaultAlerters returns the alerters seeded into a new registry
func DefaultAlerters() map[string]Alerter {
	return map[string]Alerter{
		"alert":    {Username: "Alert", Emoji: ":rotating_light:"},
		"mufasa":   {Username: "Mufasa", Emoji: ":lion_face:"},
		"robot":    {Username: "Alert_Bot", Emoji: ":robot_face:"},
		"skull":    {Username: "Stalfos", Emoji: ":skull:"},
		"dinosaur": {Username: "Rex", Emoji: ":t-rex:"},
	}
}
