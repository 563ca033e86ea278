package core

import (
	"context"
	"fmt"
	"reflect"
	"testing"
	"time"
)

func startHub(t *testing.T) *Hub {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	t.Cleanup(cancel)

	hub := NewHub(nil)
	go hub.Run(ctx)
	return hub
}

// joinOK joins and consumes the joiner's own roster event and ack,
// returning the roster. The join notice goes to the other members only,
// so a fresh client sees exactly these two events.
func joinOK(t *testing.T, c *Client, seq int64, username, room string) []string {
	t.Helper()

	c.Commands <- &Command{Kind: CommandJoin, Seq: seq, Username: username, Room: room}

	roster := nextEvent(t, c.Events)
	if roster.Kind != EventRoomData {
		t.Fatalf("expected roster event first, got %+v", roster)
	}
	ack := nextEvent(t, c.Events)
	if ack.Kind != EventAck || ack.Error != nil || ack.Seq != seq {
		t.Fatalf("expected successful ack with seq %d, got %+v", seq, ack)
	}
	return roster.Users
}

// joinErr joins expecting a failed ack and returns its error.
func joinErr(t *testing.T, c *Client, seq int64, username, room string) *CoreError {
	t.Helper()

	c.Commands <- &Command{Kind: CommandJoin, Seq: seq, Username: username, Room: room}

	ack := nextEvent(t, c.Events)
	if ack.Kind != EventAck || ack.Seq != seq {
		t.Fatalf("expected ack with seq %d, got %+v", seq, ack)
	}
	if ack.Error == nil {
		t.Fatal("expected join to fail")
	}
	return ack.Error
}

func TestHubJoinNotifiesRoom(t *testing.T) {
	hub := startHub(t)

	alice := NewClient("c1")
	bob := NewClient("c2")
	hub.RegisterClient(alice)
	hub.RegisterClient(bob)

	if users := joinOK(t, alice, 1, "alice", "r1"); !reflect.DeepEqual(users, []string{"alice"}) {
		t.Fatalf("roster = %v, want [alice]", users)
	}
	if users := joinOK(t, bob, 1, "bob", "r1"); !reflect.DeepEqual(users, []string{"alice", "bob"}) {
		t.Fatalf("roster = %v, want [alice bob]", users)
	}

	// Alice sees bob's join notice first, then the updated roster.
	notice := nextEvent(t, alice.Events)
	if notice.Kind != EventMessage || notice.Message.Sender != AdminSender || notice.Message.Body != "bob has joined" {
		t.Fatalf("expected Admin join notice, got %+v", notice)
	}
	roster := nextEvent(t, alice.Events)
	if roster.Kind != EventRoomData || !reflect.DeepEqual(roster.Users, []string{"alice", "bob"}) {
		t.Fatalf("expected roster [alice bob], got %+v", roster)
	}

	// Bob must not receive a notice about his own join.
	expectNoEvent(t, bob.Events)
}

func TestHubDuplicateNameRejected(t *testing.T) {
	hub := startHub(t)

	alice := NewClient("c1")
	impostor := NewClient("c2")
	hub.RegisterClient(alice)
	hub.RegisterClient(impostor)

	joinOK(t, alice, 1, "alice", "r1")

	cerr := joinErr(t, impostor, 1, "alice", "r1")
	if cerr.Code != ErrCodeNameTaken {
		t.Fatalf("expected name_taken, got %+v", cerr)
	}

	// The failed join must have no observable effect on alice.
	expectNoEvent(t, alice.Events)

	if got, want := hub.UsersInRoom("r1"), []string{"alice"}; !reflect.DeepEqual(got, want) {
		t.Fatalf("roster = %v, want %v", got, want)
	}
}

func TestHubInvalidJoinRejected(t *testing.T) {
	hub := startHub(t)

	c := NewClient("c1")
	hub.RegisterClient(c)

	cerr := joinErr(t, c, 7, "  ", "r1")
	if cerr.Code != ErrCodeInvalidInput {
		t.Fatalf("expected invalid_input, got %+v", cerr)
	}
	if len(hub.UsersInRoom("r1")) != 0 {
		t.Fatal("failed join must leave registry unchanged")
	}
}

func TestHubMessageDeliveredToWholeRoom(t *testing.T) {
	hub := startHub(t)

	alice := NewClient("c1")
	bob := NewClient("c2")
	outsider := NewClient("c3")
	hub.RegisterClient(alice)
	hub.RegisterClient(bob)
	hub.RegisterClient(outsider)

	joinOK(t, alice, 1, "alice", "r1")
	joinOK(t, bob, 1, "bob", "r1")
	joinOK(t, outsider, 1, "carol", "r2")

	// Drain bob's join notifications from alice's channel.
	nextEvent(t, alice.Events)
	nextEvent(t, alice.Events)

	alice.Commands <- &Command{Kind: CommandSendMessage, Seq: 2, Body: "hi"}

	for _, c := range []*Client{alice, bob} {
		ev := mustEvent(t, c.Events, EventMessage)
		if ev.Message.Sender != "alice" || ev.Message.Body != "hi" {
			t.Fatalf("unexpected message event: %+v", ev.Message)
		}
		if ev.Message.ID == "" || ev.Message.CreatedAt.IsZero() {
			t.Fatalf("message missing id or timestamp: %+v", ev.Message)
		}
	}

	ack := mustEvent(t, alice.Events, EventAck)
	if ack.Error != nil || ack.Seq != 2 {
		t.Fatalf("unexpected send ack: %+v", ack)
	}

	// Carol is in another room and must not see the message.
	expectNoEvent(t, outsider.Events)
}

func TestHubMessageWithoutJoinAcksError(t *testing.T) {
	hub := startHub(t)

	c := NewClient("c1")
	hub.RegisterClient(c)

	c.Commands <- &Command{Kind: CommandSendMessage, Seq: 9, Body: "hi"}
	ack := nextEvent(t, c.Events)
	if ack.Kind != EventAck || ack.Error == nil || ack.Error.Code != ErrCodeNotJoined {
		t.Fatalf("expected not_joined ack, got %+v", ack)
	}
}

func TestHubSlowConsumerDoesNotBlockRoom(t *testing.T) {
	hub := startHub(t)

	alice := NewClient("c1")
	bob := NewClient("c2")
	slow := NewClient("c3")
	hub.RegisterClient(alice)
	hub.RegisterClient(bob)
	hub.RegisterClient(slow)

	joinOK(t, alice, 1, "alice", "r1")
	joinOK(t, bob, 1, "bob", "r1")
	joinOK(t, slow, 1, "carol", "r1")

	// Drain the join notifications the earlier members received: alice
	// saw bob's and carol's joins, bob saw carol's.
	for i := 0; i < 4; i++ {
		nextEvent(t, alice.Events)
	}
	nextEvent(t, bob.Events)
	nextEvent(t, bob.Events)

	// Carol stops reading. Send more messages than her event buffer
	// holds; deliveries to her overflow and are dropped, while bob keeps
	// receiving every message without delay.
	sends := cap(slow.Events) + 4
	for i := 0; i < sends; i++ {
		alice.Commands <- &Command{Kind: CommandSendMessage, Seq: int64(i + 2), Body: fmt.Sprintf("m%d", i)}
		ev := nextEvent(t, bob.Events)
		if ev.Kind != EventMessage || ev.Message.Body != fmt.Sprintf("m%d", i) {
			t.Fatalf("bob missed message %d, got %+v", i, ev)
		}
	}

	if len(slow.Events) != cap(slow.Events) {
		t.Fatalf("slow consumer buffer = %d, want full (%d)", len(slow.Events), cap(slow.Events))
	}

	// The hub loop itself is not wedged: a fresh client can still join
	// and gets the full roster back.
	dana := NewClient("c4")
	hub.RegisterClient(dana)
	if users := joinOK(t, dana, 1, "dana", "r1"); !reflect.DeepEqual(users, []string{"alice", "bob", "carol", "dana"}) {
		t.Fatalf("roster = %v, want [alice bob carol dana]", users)
	}
}

func TestHubDisconnectNotifiesRoom(t *testing.T) {
	hub := startHub(t)

	alice := NewClient("c1")
	bob := NewClient("c2")
	hub.RegisterClient(alice)
	hub.RegisterClient(bob)

	joinOK(t, alice, 1, "alice", "r1")
	joinOK(t, bob, 1, "bob", "r1")

	hub.UnregisterClient(alice)

	notice := mustEvent(t, bob.Events, EventMessage)
	if notice.Message.Sender != AdminSender || notice.Message.Body != "alice has left" {
		t.Fatalf("expected Admin leave notice, got %+v", notice.Message)
	}

	roster := mustEvent(t, bob.Events, EventRoomData)
	if !reflect.DeepEqual(roster.Users, []string{"bob"}) {
		t.Fatalf("roster = %v, want [bob]", roster.Users)
	}

	if got, want := hub.UsersInRoom("r1"), []string{"bob"}; !reflect.DeepEqual(got, want) {
		t.Fatalf("roster = %v, want %v", got, want)
	}
}

func TestHubDisconnectBeforeJoinIsSilent(t *testing.T) {
	hub := startHub(t)

	alice := NewClient("c1")
	ghost := NewClient("c2")
	hub.RegisterClient(alice)
	hub.RegisterClient(ghost)

	joinOK(t, alice, 1, "alice", "r1")

	hub.UnregisterClient(ghost)

	expectNoEvent(t, alice.Events)
	if got, want := hub.UsersInRoom("r1"), []string{"alice"}; !reflect.DeepEqual(got, want) {
		t.Fatalf("roster = %v, want %v", got, want)
	}
}

func TestHubRejoinMovesRooms(t *testing.T) {
	hub := startHub(t)

	alice := NewClient("c1")
	bob := NewClient("c2")
	hub.RegisterClient(alice)
	hub.RegisterClient(bob)

	joinOK(t, bob, 1, "bob", "r1")
	joinOK(t, alice, 1, "alice", "r1")

	// Alice rejoins straight into r2; her r1 membership is replaced and
	// bob hears about the departure before alice's new room forms.
	joinOK(t, alice, 2, "alice", "r2")

	// Bob first sees alice's join notice, then her departure.
	notice := mustEvent(t, bob.Events, EventMessage)
	if notice.Message.Body != "alice has joined" {
		t.Fatalf("expected join notice, got %+v", notice.Message)
	}
	notice = mustEvent(t, bob.Events, EventMessage)
	if notice.Message.Body != "alice has left" {
		t.Fatalf("expected leave notice, got %+v", notice.Message)
	}

	if got, want := hub.UsersInRoom("r1"), []string{"bob"}; !reflect.DeepEqual(got, want) {
		t.Fatalf("r1 roster = %v, want %v", got, want)
	}
	if got, want := hub.UsersInRoom("r2"), []string{"alice"}; !reflect.DeepEqual(got, want) {
		t.Fatalf("r2 roster = %v, want %v", got, want)
	}
}

// Full session: join, duplicate-name rejection, second join, chat
// message to the whole room, disconnect notice for the remaining user.
func TestHubChatSession(t *testing.T) {
	hub := startHub(t)

	c1 := NewClient("c1")
	c2 := NewClient("c2")
	hub.RegisterClient(c1)
	hub.RegisterClient(c2)

	if users := joinOK(t, c1, 1, "alice", "r1"); !reflect.DeepEqual(users, []string{"alice"}) {
		t.Fatalf("roster = %v, want [alice]", users)
	}

	if cerr := joinErr(t, c2, 1, "alice", "r1"); cerr.Code != ErrCodeNameTaken {
		t.Fatalf("expected name_taken for c2, got %+v", cerr)
	}

	if users := joinOK(t, c2, 2, "bob", "r1"); !reflect.DeepEqual(users, []string{"alice", "bob"}) {
		t.Fatalf("roster = %v, want [alice bob]", users)
	}

	notice := nextEvent(t, c1.Events)
	if notice.Kind != EventMessage || notice.Message.Body != "bob has joined" {
		t.Fatalf("expected join notice for bob, got %+v", notice)
	}
	roster := nextEvent(t, c1.Events)
	if roster.Kind != EventRoomData || !reflect.DeepEqual(roster.Users, []string{"alice", "bob"}) {
		t.Fatalf("expected roster [alice bob], got %+v", roster)
	}

	c1.Commands <- &Command{Kind: CommandSendMessage, Seq: 2, Body: "hi"}
	for _, c := range []*Client{c1, c2} {
		ev := mustEvent(t, c.Events, EventMessage)
		if ev.Message.Sender != "alice" || ev.Message.Body != "hi" {
			t.Fatalf("unexpected message: %+v", ev.Message)
		}
	}

	hub.UnregisterClient(c1)
	leave := mustEvent(t, c2.Events, EventMessage)
	if leave.Message.Body != "alice has left" {
		t.Fatalf("expected leave notice, got %+v", leave.Message)
	}
	roster = mustEvent(t, c2.Events, EventRoomData)
	if !reflect.DeepEqual(roster.Users, []string{"bob"}) {
		t.Fatalf("roster = %v, want [bob]", roster.Users)
	}
}
