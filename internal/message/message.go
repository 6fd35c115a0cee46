// Package message carries human-readable notifications to players.
package message

// Color is the display colour of a message.
type Color string

const (
	ColorDefault Color = ""
	ColorRed     Color = "red"
	ColorGreen   Color = "green"
)

// Severity classifies a message for logging and presentation.
type Severity int

const (
	SeverityInfo Severity = iota
	SeverityWarning
	SeveritySuccess
)

func (s Severity) String() string {
	switch s {
	case SeverityWarning:
		return "warning"
	case SeveritySuccess:
		return "success"
	default:
		return "info"
	}
}

// Message is a single line of text shown to a player.
type Message struct {
	Text     string
	Color    Color
	Severity Severity
}

// Raw creates an uncoloured informational message.
func Raw(text string) Message {
	return Message{Text: text, Severity: SeverityInfo}
}

// Warning creates a red warning message.
func Warning(text string) Message {
	return Message{Text: text, Color: ColorRed, Severity: SeverityWarning}
}

// Success creates a green confirmation message.
func Success(text string) Message {
	return Message{Text: text, Color: ColorGreen, Severity: SeveritySuccess}
}

// Sender delivers messages to one player.
type Sender interface {
	SendMessage(msg Message)
}
