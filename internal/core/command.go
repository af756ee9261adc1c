package core

// CommandKind describes what the client wants to do.
type CommandKind int

const (
	// CommandSendMessage submits a chat message to a room or a recipient.
	CommandSendMessage CommandKind = iota
	// CommandJoinRoom subscribes the client to a room.
	CommandJoinRoom
	// CommandLeaveRoom unsubscribes the client from a room.
	CommandLeaveRoom
	// CommandStartTyping marks the client as typing in a room.
	CommandStartTyping
	// CommandStopTyping clears the typing mark.
	CommandStopTyping
	// CommandJoinPrivateRoom subscribes the client to its pairwise room with another user.
	CommandJoinPrivateRoom
)

// Command represents an action requested by a client. Only the fields that
// belong to Kind are read.
type Command struct {
	Kind        CommandKind
	Room        string
	Content     string
	RecipientID string
	OtherUserID string
}
