package http

import (
	"bytes"
	"encoding/json"

	"github.com/samber/lo"

	"github.com/vovakirdan/chatrelay/internal/core"
	"github.com/vovakirdan/chatrelay/internal/proto"
)

func inboundToCommand(inbound proto.Inbound) (*core.Command, *proto.Error) {
	switch inbound.Type {
	case proto.InboundTypeMessage:
		var msg proto.MessageData
		if perr := decode(inbound.Data, &msg); perr != nil {
			return nil, perr
		}
		return &core.Command{
			Kind:        core.CommandSendMessage,
			Content:     msg.Content,
			Room:        msg.RoomID,
			RecipientID: msg.RecipientID,
		}, nil
	case proto.InboundTypeJoinRoom, proto.InboundTypeLeaveRoom:
		room, perr := decodeRoom(inbound.Data)
		if perr != nil {
			return nil, perr
		}
		kind := core.CommandJoinRoom
		if inbound.Type == proto.InboundTypeLeaveRoom {
			kind = core.CommandLeaveRoom
		}
		return &core.Command{Kind: kind, Room: room}, nil
	case proto.InboundTypeTyping, proto.InboundTypeStopTyping:
		var typing proto.TypingData
		if perr := decode(inbound.Data, &typing); perr != nil {
			return nil, perr
		}
		kind := core.CommandStartTyping
		if inbound.Type == proto.InboundTypeStopTyping {
			kind = core.CommandStopTyping
		}
		return &core.Command{Kind: kind, Room: typing.RoomID}, nil
	case proto.InboundTypeJoinPrivateRoom:
		var private proto.PrivateRoomData
		if perr := decode(inbound.Data, &private); perr != nil {
			return nil, perr
		}
		return &core.Command{Kind: core.CommandJoinPrivateRoom, OtherUserID: private.OtherUserID}, nil
	case proto.InboundTypeHello:
		return nil, &proto.Error{Code: core.ErrCodeBadRequest, Msg: "already authenticated"}
	default:
		return nil, &proto.Error{Code: core.ErrCodeBadRequest, Msg: "unknown message type"}
	}
}

// decode unmarshals and validates a payload. Missing data decodes as an empty object.
func decode(data json.RawMessage, v any) *proto.Error {
	if len(bytes.TrimSpace(data)) != 0 {
		if err := json.Unmarshal(data, v); err != nil {
			return &proto.Error{Code: core.ErrCodeBadRequest, Msg: "malformed payload"}
		}
	}
	if err := proto.Validate(v); err != nil {
		return &proto.Error{Code: core.ErrCodeValidation, Msg: err.Error()}
	}
	return nil
}

// decodeRoom accepts either {"roomId": "..."} or a bare JSON string.
func decodeRoom(data json.RawMessage) (string, *proto.Error) {
	var bare string
	if err := json.Unmarshal(data, &bare); err == nil {
		data, _ = json.Marshal(proto.RoomData{RoomID: bare})
	}
	var room proto.RoomData
	if perr := decode(data, &room); perr != nil {
		return "", perr
	}
	return room.RoomID, nil
}

func outboundFromEvent(event *core.Event) proto.Outbound {
	name := event.Kind.String()
	switch event.Kind {
	case core.EventChatHistory:
		return proto.Outbound{
			Type:  proto.OutboundTypeEvent,
			Event: name,
			Data: proto.EventChatHistory{
				RoomID:   event.Room,
				Messages: chatMessages(event.Messages),
			},
		}
	case core.EventMessage:
		if event.Message == nil {
			break
		}
		return proto.Outbound{
			Type:  proto.OutboundTypeEvent,
			Event: name,
			Data:  chatMessage(*event.Message),
		}
	case core.EventOnlineUsers:
		return proto.Outbound{
			Type:  proto.OutboundTypeEvent,
			Event: name,
			Data:  onlineUsers(event.Online),
		}
	case core.EventUserOnline:
		return proto.Outbound{
			Type:  proto.OutboundTypeEvent,
			Event: name,
			Data:  proto.OnlineUser{UserID: event.UserID, Username: event.User},
		}
	case core.EventUserTyping, core.EventUserStoppedTyping:
		return proto.Outbound{
			Type:  proto.OutboundTypeEvent,
			Event: name,
			Data:  proto.EventTyping{Username: event.User, UserID: event.UserID, RoomID: event.Room},
		}
	case core.EventError:
		if event.Error == nil {
			return proto.Outbound{Type: proto.OutboundTypeError, Error: &proto.Error{Code: "unknown", Msg: "unknown error"}}
		}
		return proto.Outbound{
			Type:  proto.OutboundTypeError,
			Error: &proto.Error{Code: event.Error.Code, Msg: event.Error.Message},
		}
	}
	return proto.Outbound{Type: proto.OutboundTypeEvent, Event: name}
}

func chatMessage(m core.Message) proto.ChatMessage {
	return proto.ChatMessage{
		ID:         m.ID,
		Content:    m.Content,
		SenderID:   m.SenderID,
		SenderName: m.SenderName,
		RoomID:     m.RoomID,
		Timestamp:  m.CreatedAt,
		Type:       string(m.Kind),
	}
}

func chatMessages(msgs []core.Message) []proto.ChatMessage {
	return lo.Map(msgs, func(m core.Message, _ int) proto.ChatMessage { return chatMessage(m) })
}

func onlineUsers(users []core.OnlineUser) []proto.OnlineUser {
	return lo.Map(users, func(u core.OnlineUser, _ int) proto.OnlineUser {
		return proto.OnlineUser{UserID: u.UserID, Username: u.Username}
	})
}
