package http

import (
	"encoding/json"

	"github.com/abbb1399/coding-together-server/internal/core"
	"github.com/abbb1399/coding-together-server/internal/proto"
)

// inboundToCommand translates a wire message into a core command. Field
// validation (empty username/room) is the registry's job so the client
// gets a proper invalid_input ack rather than a transport error.
func inboundToCommand(inbound proto.Inbound) (*core.Command, *proto.Error, error) {
	switch inbound.Type {
	case proto.InboundTypeJoin:
		var join proto.JoinData
		if err := json.Unmarshal(inbound.Data, &join); err != nil {
			return nil, nil, err
		}
		return &core.Command{
			Kind:     core.CommandJoin,
			Seq:      inbound.Seq,
			Username: join.Username,
			Room:     join.Room,
		}, nil, nil
	case proto.InboundTypeMsg:
		var msg proto.MsgData
		if err := json.Unmarshal(inbound.Data, &msg); err != nil {
			return nil, nil, err
		}
		return &core.Command{
			Kind: core.CommandSendMessage,
			Seq:  inbound.Seq,
			Body: msg.Body,
		}, nil, nil
	default:
		return nil, &proto.Error{Code: "invalid_message", Msg: "unknown message type"}, nil
	}
}

func outboundFromEvent(event *core.Event) proto.Outbound {
	switch event.Kind {
	case core.EventMessage:
		return proto.Outbound{
			Type:  proto.OutboundTypeEvent,
			Event: proto.EventNameMessage,
			Data: proto.EventMessage{
				ID:        event.Message.ID,
				Sender:    event.Message.Sender,
				Body:      event.Message.Body,
				Timestamp: event.Message.CreatedAt.UnixMilli(),
			},
		}
	case core.EventRoomData:
		return proto.Outbound{
			Type:  proto.OutboundTypeEvent,
			Event: proto.EventNameRoomData,
			Data: proto.EventRoomData{
				Room:  event.Room,
				Users: event.Users,
			},
		}
	case core.EventAck:
		out := proto.Outbound{
			Type: proto.OutboundTypeAck,
			Seq:  event.Seq,
		}
		if event.Error != nil {
			out.Error = &proto.Error{Code: event.Error.Code, Msg: event.Error.Message}
		}
		return out
	default:
		return proto.Outbound{Type: proto.OutboundTypeEvent}
	}
}
