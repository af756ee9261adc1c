package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/rs/zerolog"

	"github.com/vovakirdan/chatrelay/internal/proto"
)

func main() {
	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()
	if err := run(&logger); err != nil {
		logger.Error().Err(err).Msg("ws_smoke failed")
		os.Exit(1)
	}
}

func run(logger *zerolog.Logger) error {
	addr := flag.String("addr", "ws://localhost:8080/ws", "WebSocket address")
	token := flag.String("token", "", "JWT from /api/login; empty connects as a guest")
	session := flag.String("session", "SMOKE", "guest session code")
	name := flag.String("name", "tester", "guest display name")
	room := flag.String("room", "", "room to post to (ignored for guests)")
	text := flag.String("text", "hello from smoke test", "message text to send")
	timeout := flag.Duration("timeout", 5*time.Second, "total timeout for the run")
	flag.Parse()

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	conn, _, err := websocket.Dial(ctx, *addr, nil)
	if err != nil {
		return fmt.Errorf("dial: %w", err)
	}
	defer conn.Close(websocket.StatusNormalClosure, "bye")

	send := func(typ string, data any) error {
		payload, err := json.Marshal(data)
		if err != nil {
			return fmt.Errorf("marshal %s: %w", typ, err)
		}
		if err := wsjson.Write(ctx, conn, proto.Inbound{Type: typ, Data: payload}); err != nil {
			return fmt.Errorf("send %s: %w", typ, err)
		}
		return nil
	}

	hello := proto.HelloData{Token: *token, Protocol: proto.ProtocolVersion}
	if *token == "" {
		hello = proto.HelloData{Guest: true, SessionID: *session, GuestName: *name, Protocol: proto.ProtocolVersion}
	}
	if err := send(proto.InboundTypeHello, hello); err != nil {
		return err
	}
	if *room != "" {
		if err := send(proto.InboundTypeJoinRoom, proto.RoomData{RoomID: *room}); err != nil {
			return err
		}
	}
	if err := send(proto.InboundTypeMessage, proto.MessageData{Content: *text, RoomID: *room}); err != nil {
		return err
	}

	for {
		var outbound struct {
			Type  string          `json:"type"`
			Event string          `json:"event"`
			Data  json.RawMessage `json:"data"`
			Error *proto.Error    `json:"error"`
		}
		if err := wsjson.Read(ctx, conn, &outbound); err != nil {
			return fmt.Errorf("read: %w", err)
		}

		if outbound.Error != nil {
			return errors.New(outbound.Error.Code + ": " + outbound.Error.Msg)
		}
		ev := logger.Info().Str("event", outbound.Event)
		if len(outbound.Data) > 0 {
			ev = ev.RawJSON("data", outbound.Data)
		}
		ev.Msg("received")

		if outbound.Event == "message" {
			var msg proto.ChatMessage
			if err := json.Unmarshal(outbound.Data, &msg); err == nil && msg.Content == *text {
				logger.Info().Str("room", msg.RoomID).Msg("round trip ok")
				return nil
			}
		}
	}
}
