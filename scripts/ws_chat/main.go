package main

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"

	"github.com/abbb1399/coding-together-server/internal/proto"
)

func main() {
	if err := run(); err != nil {
		log.Printf("ws_chat: %v", err)
		os.Exit(1)
	}
}

func run() error {
	addr := flag.String("addr", "ws://localhost:8080/ws", "WebSocket address")
	user := flag.String("user", "cli-user", "display name")
	room := flag.String("room", "general", "room to join")
	flag.Parse()

	baseCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithCancel(baseCtx)
	defer cancel()

	conn, _, err := websocket.Dial(ctx, *addr, nil)
	if err != nil {
		return fmt.Errorf("dial: %w", err)
	}
	defer conn.Close(websocket.StatusNormalClosure, "bye")

	var seq int64

	send := func(msgType string, data any) error {
		seq++
		raw, err := json.Marshal(data)
		if err != nil {
			return err
		}
		return wsjson.Write(ctx, conn, proto.Inbound{Type: msgType, Seq: seq, Data: raw})
	}

	if err := send(proto.InboundTypeJoin, proto.JoinData{Username: *user, Room: *room}); err != nil {
		return fmt.Errorf("join: %w", err)
	}

	// Print server events as they come.
	go func() {
		defer cancel()
		for {
			var out proto.Outbound
			if err := wsjson.Read(ctx, conn, &out); err != nil {
				if !errors.Is(err, context.Canceled) {
					log.Printf("read: %v", err)
				}
				return
			}
			switch {
			case out.Error != nil:
				fmt.Printf("! %s: %s\n", out.Error.Code, out.Error.Msg)
			case out.Event == proto.EventNameMessage:
				var msg proto.EventMessage
				if raw, err := json.Marshal(out.Data); err == nil {
					_ = json.Unmarshal(raw, &msg)
				}
				fmt.Printf("[%s] %s\n", msg.Sender, msg.Body)
			case out.Event == proto.EventNameRoomData:
				var data proto.EventRoomData
				if raw, err := json.Marshal(out.Data); err == nil {
					_ = json.Unmarshal(raw, &data)
				}
				fmt.Printf("* %s: %s\n", data.Room, strings.Join(data.Users, ", "))
			}
		}
	}()

	// Read stdin lines and send them as chat messages.
	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if line == "/quit" {
			return nil
		}
		if err := send(proto.InboundTypeMsg, proto.MsgData{Body: line}); err != nil {
			return fmt.Errorf("send: %w", err)
		}
		select {
		case <-ctx.Done():
			return nil
		default:
		}
	}
	return scanner.Err()
}
