package domain

import "time"

type MessageType string

const (
	MessageTypeWishes MessageType = "wishes"
	MessageTypeAdvice MessageType = "advice"
	MessageTypeMemory MessageType = "memory"
	MessageTypeOther  MessageType = "other"
)

func ParseMessageType(s string) (MessageType, bool) {
	switch MessageType(s) {
	case MessageTypeWishes, MessageTypeAdvice, MessageTypeMemory, MessageTypeOther:
		return MessageType(s), true
	default:
		return "", false
	}
}

// MaxMessageLength is the upper bound, in characters, of a guest message body.
const MaxMessageLength = 500

// GuestMessage is a free-text note left by an invitee.
type GuestMessage struct {
	ID            MessageID
	ReservationID ReservationID

	GuestName   string
	Message     string
	MessageType MessageType

	IsPublic  bool
	IsBlocked bool

	CreatedAt time.Time
	UpdatedAt time.Time
}

// VisibleOnWall reports whether the message appears on the public message wall.
func (m GuestMessage) VisibleOnWall() bool {
	return m.IsPublic && !m.IsBlocked
}

type MessageStats struct {
	Total   int
	Public  int
	Private int
	Blocked int
	Active  int
}
