package server_test

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"courier/internal/domain"
)

// dialWS opens a duplex channel against the fixture.
func dialWS(t *testing.T, f *fixture) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(f.ts.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial %s: %v", url, err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

// readFrame reads one frame into a generic map, failing on timeout.
func readFrame(t *testing.T, conn *websocket.Conn) map[string]any {
	t.Helper()
	if err := conn.SetReadDeadline(time.Now().Add(2 * time.Second)); err != nil {
		t.Fatalf("set deadline: %v", err)
	}
	var frame map[string]any
	if err := conn.ReadJSON(&frame); err != nil {
		t.Fatalf("read frame: %v", err)
	}
	return frame
}

// register binds the connection to a contact code and waits for the ack.
func register(t *testing.T, conn *websocket.Conn, contactCode string) string {
	t.Helper()
	if err := conn.WriteJSON(map[string]string{
		"type":        domain.FrameRegisterUser,
		"contactCode": contactCode,
	}); err != nil {
		t.Fatalf("write register_user: %v", err)
	}
	frame := readFrame(t, conn)
	if frame["type"] != domain.FrameRegistrationSuccess {
		t.Fatalf("want registration_success, got %+v", frame)
	}
	sessionID, _ := frame["sessionId"].(string)
	if sessionID == "" {
		t.Fatalf("registration_success without sessionId: %+v", frame)
	}
	return sessionID
}

func TestWS_PublishWithSubscriber_PushedNotPooled(t *testing.T) {
	f := newFixture(t, nil)

	conn := dialWS(t, f)
	register(t, conn, "R")

	resp, body := f.postJSON(t, "/api/message", publishBody("m2", "R", "Y"))
	if resp.StatusCode != 200 {
		t.Fatalf("publish status %d", resp.StatusCode)
	}
	var ack domain.PublishAck
	if err := json.Unmarshal(body, &ack); err != nil {
		t.Fatalf("decode ack: %v", err)
	}
	if !ack.Delivered || ack.Pooled {
		t.Fatalf("want delivered and not pooled: %+v", ack)
	}

	frame := readFrame(t, conn)
	if frame["type"] != domain.FrameNewMessage || frame["messageId"] != "m2" {
		t.Fatalf("unexpected push frame: %+v", frame)
	}
	if frame["message"] != "Y" {
		t.Fatalf("payload not forwarded verbatim: %+v", frame)
	}

	// The envelope was pushed, so a pull finds nothing.
	_, body = f.get(t, "/api/messages/R")
	var pull domain.PullResponse
	if err := json.Unmarshal(body, &pull); err != nil {
		t.Fatalf("decode pull: %v", err)
	}
	if len(pull.Messages) != 0 {
		t.Fatalf("pushed envelope still pulled: %+v", pull.Messages)
	}
}

func TestWS_TwoSubscribersSameMailbox_BothReceive(t *testing.T) {
	f := newFixture(t, nil)

	c1 := dialWS(t, f)
	register(t, c1, "R")
	c2 := dialWS(t, f)
	register(t, c2, "R")

	_, body := f.postJSON(t, "/api/message", publishBody("m4", "R", "X"))
	var ack domain.PublishAck
	if err := json.Unmarshal(body, &ack); err != nil {
		t.Fatalf("decode ack: %v", err)
	}
	if !ack.Delivered {
		t.Fatal("want delivered=true")
	}

	for i, conn := range []*websocket.Conn{c1, c2} {
		frame := readFrame(t, conn)
		if frame["type"] != domain.FrameNewMessage || frame["messageId"] != "m4" {
			t.Fatalf("subscriber %d got %+v", i+1, frame)
		}
	}
	if f.wire.Pool.Size() != 0 {
		t.Fatal("pool retained the pushed envelope")
	}
}

func TestWS_StatusUpdate_BroadcastToEverySession(t *testing.T) {
	f := newFixture(t, nil)

	sender := dialWS(t, f)
	register(t, sender, "A")
	bound := dialWS(t, f)
	register(t, bound, "B")
	unbound := dialWS(t, f)

	if err := sender.WriteJSON(map[string]any{
		"type":          domain.FrameStatusUpdate,
		"status":        "away",
		"customMessage": "brb",
		"userId":        "A",
	}); err != nil {
		t.Fatalf("write status_update: %v", err)
	}

	// Every open session receives the frame verbatim, sender included.
	for i, conn := range []*websocket.Conn{sender, bound, unbound} {
		frame := readFrame(t, conn)
		if frame["type"] != domain.FrameStatusUpdate {
			t.Fatalf("conn %d got %+v", i, frame)
		}
		if frame["customMessage"] != "brb" {
			t.Fatalf("broadcast not verbatim: %+v", frame)
		}
	}
}

func TestWS_RealTimeMessage_ForwardedNeverPooled(t *testing.T) {
	f := newFixture(t, nil)

	caller := dialWS(t, f)
	register(t, caller, "A")
	callee := dialWS(t, f)
	register(t, callee, "B")
	bystander := dialWS(t, f)
	register(t, bystander, "C")

	if err := caller.WriteJSON(map[string]any{
		"type":                 domain.FrameRealTimeMessage,
		"recipientContactCode": "B",
		"callType":             "VOICE_CALL_INIT",
		"callId":               "call-1",
	}); err != nil {
		t.Fatalf("write real_time_message: %v", err)
	}

	frame := readFrame(t, callee)
	if frame["type"] != domain.FrameRealTimeMessage || frame["callId"] != "call-1" {
		t.Fatalf("callee got %+v", frame)
	}
	if f.wire.Pool.Size() != 0 {
		t.Fatal("real-time frame was pooled")
	}

	// The bystander hears nothing.
	bystander.SetReadDeadline(time.Now().Add(200 * time.Millisecond))
	var stray map[string]any
	if err := bystander.ReadJSON(&stray); err == nil {
		t.Fatalf("bystander received %+v", stray)
	}
}

func TestWS_UnknownFrame_ErrorWithoutClosing(t *testing.T) {
	f := newFixture(t, nil)

	conn := dialWS(t, f)
	if err := conn.WriteJSON(map[string]string{"type": "make_coffee"}); err != nil {
		t.Fatalf("write: %v", err)
	}

	frame := readFrame(t, conn)
	if frame["type"] != domain.FrameError {
		t.Fatalf("want error frame, got %+v", frame)
	}

	// The session survived and can still register.
	register(t, conn, "R")
}

func TestWS_RegisterWithoutContactCode_ErrorFrame(t *testing.T) {
	f := newFixture(t, nil)

	conn := dialWS(t, f)
	if err := conn.WriteJSON(map[string]string{"type": domain.FrameRegisterUser}); err != nil {
		t.Fatalf("write: %v", err)
	}
	frame := readFrame(t, conn)
	if frame["type"] != domain.FrameError {
		t.Fatalf("want error frame, got %+v", frame)
	}
}

func TestWS_CloseCleansSession(t *testing.T) {
	f := newFixture(t, nil)

	conn := dialWS(t, f)
	register(t, conn, "R")
	if f.wire.Sessions.Count() != 1 {
		t.Fatalf("want 1 session, got %d", f.wire.Sessions.Count())
	}

	conn.Close()

	deadline := time.Now().Add(2 * time.Second)
	for f.wire.Sessions.Count() != 0 {
		if time.Now().After(deadline) {
			t.Fatal("closed session still registered")
		}
		time.Sleep(10 * time.Millisecond)
	}

	// Publishing to the departed recipient pools the envelope.
	_, body := f.postJSON(t, "/api/message", publishBody("m5", "R", "X"))
	var ack domain.PublishAck
	if err := json.Unmarshal(body, &ack); err != nil {
		t.Fatalf("decode ack: %v", err)
	}
	if ack.Delivered || !ack.Pooled {
		t.Fatalf("want pooled after disconnect: %+v", ack)
	}
}

func TestWS_BindDoesNotDrainPool(t *testing.T) {
	f := newFixture(t, nil)

	// Publish first, bind later: the binding must not retroactively push.
	f.postJSON(t, "/api/message", publishBody("m6", "R", "X"))

	conn := dialWS(t, f)
	register(t, conn, "R")

	conn.SetReadDeadline(time.Now().Add(200 * time.Millisecond))
	var stray map[string]any
	if err := conn.ReadJSON(&stray); err == nil {
		t.Fatalf("bind retroactively pushed %+v", stray)
	}

	// The envelope is still there for an explicit pull.
	_, body := f.get(t, "/api/messages/R")
	var pull domain.PullResponse
	if err := json.Unmarshal(body, &pull); err != nil {
		t.Fatalf("decode pull: %v", err)
	}
	if len(pull.Messages) != 1 || pull.Messages[0].MessageID != "m6" {
		t.Fatalf("pull after bind: %+v", pull.Messages)
	}
}
