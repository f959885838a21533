package enums

type EventType string

const (
	EventMatchCreated   EventType = "match.created"
	EventMessageCreated EventType = "message.created"
)
