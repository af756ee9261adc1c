package core

// EventKind is a notification the core emits to clients.
type EventKind int

const (
	// EventChatHistory delivers recent room history to one client.
	EventChatHistory EventKind = iota
	// EventMessage carries a chat or system message to a room.
	EventMessage
	// EventOnlineUsers delivers the viewer's filtered presence list.
	EventOnlineUsers
	// EventUserOnline announces a newly connected user to its presence peers.
	EventUserOnline
	// EventUserTyping notifies a room that someone started typing.
	EventUserTyping
	// EventUserStoppedTyping notifies a room that someone stopped typing.
	EventUserStoppedTyping
	// EventError notifies one client about a rejected request.
	EventError
)

func (k EventKind) String() string {
	switch k {
	case EventChatHistory:
		return "chatHistory"
	case EventMessage:
		return "message"
	case EventOnlineUsers:
		return "onlineUsers"
	case EventUserOnline:
		return "userOnline"
	case EventUserTyping:
		return "userTyping"
	case EventUserStoppedTyping:
		return "userStoppedTyping"
	case EventError:
		return "error"
	default:
		return "unknown"
	}
}

// OnlineUser is one row of a presence view.
type OnlineUser struct {
	UserID   string
	Username string
}

// Event is sent to clients to describe what happened in the system.
type Event struct {
	Kind     EventKind
	Room     string
	User     string // display name for typing and presence notices
	UserID   string
	Message  *Message
	Messages []Message    // EventChatHistory
	Online   []OnlineUser // EventOnlineUsers, shared between viewers; read only
	Error    *CoreError
}
