package chat

// Outbound event names.
const (
	EventChat     = "chat_msg"
	EventSystem   = "system_msg"
	EventResponse = "res"
)

// SystemSender is the author shown on join and leave notices.
const SystemSender = "Server"

// Event is a single outbound frame.
type Event struct {
	Name string `json:"event"`
	Data any    `json:"data,omitempty"`
}

// SystemMessage is broadcast to a room when its membership changes.
type SystemMessage struct {
	Timestamp int64  `json:"timestamp"`
	Sender    string `json:"sender"`
	Message   string `json:"message"`
}

// ChatMessage is broadcast to a room when a member talks.
type ChatMessage struct {
	Timestamp int64  `json:"timestamp"`
	SenderID  string `json:"senderId"`
	Message   string `json:"message"`
}
