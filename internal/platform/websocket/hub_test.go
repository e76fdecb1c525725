package websocket

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	gorillawebsocket "github.com/gorilla/websocket"
)

func newClient(id string, buf int) *Client {
	return &Client{ID: id, Send: make(chan []byte, buf)}
}

func TestHub_RegisterAndUnregister(t *testing.T) {
	hub := NewHub(nil)
	c := newClient("c-1", 1)

	hub.Register(c)
	if hub.ClientCount() != 1 {
		t.Fatalf("expected 1 client, got %d", hub.ClientCount())
	}

	hub.Unregister(c)
	hub.Unregister(c) // segunda vez no debe cerrar de nuevo
	if hub.ClientCount() != 0 {
		t.Fatalf("expected 0 clients, got %d", hub.ClientCount())
	}
	if _, ok := <-c.Send; ok {
		t.Fatalf("expected Send to be closed")
	}
}

func TestHub_OnCountReportsChanges(t *testing.T) {
	hub := NewHub(nil)
	var seen []int
	hub.OnCount(func(n int) { seen = append(seen, n) })

	a, b := newClient("a", 1), newClient("b", 1)
	hub.Register(a)
	hub.Register(b)
	hub.Unregister(a)
	hub.Close()

	want := []int{1, 2, 1, 0}
	if len(seen) != len(want) {
		t.Fatalf("expected %v, got %v", want, seen)
	}
	for i := range want {
		if seen[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, seen)
		}
	}
}

func TestHub_BroadcastSkipsFullBuffers(t *testing.T) {
	hub := NewHub(nil)
	fast := newClient("fast", 2)
	slow := newClient("slow", 1)
	hub.Register(fast)
	hub.Register(slow)

	slow.Send <- []byte("pendiente")

	sent := hub.Broadcast(Message{Type: "snapshot", Data: json.RawMessage(`[]`)})
	if sent != 1 {
		t.Fatalf("expected delivery to 1 client, got %d", sent)
	}

	var got Message
	if err := json.Unmarshal(<-fast.Send, &got); err != nil {
		t.Fatalf("invalid message: %v", err)
	}
	if got.Type != "snapshot" || got.Timestamp.IsZero() {
		t.Fatalf("unexpected message %+v", got)
	}
}

func TestHub_CloseDisconnectsAll(t *testing.T) {
	hub := NewHub(nil)
	a, b := newClient("a", 1), newClient("b", 1)
	hub.Register(a)
	hub.Register(b)

	hub.Close()

	if hub.ClientCount() != 0 {
		t.Fatalf("expected no clients after Close")
	}
	if _, ok := <-a.Send; ok {
		t.Fatalf("expected a.Send closed")
	}
}

func TestHub_HandlerSendsHelloThenBroadcast(t *testing.T) {
	hub := NewHub(nil)
	srv := httptest.NewServer(hub.Handler(func(ctx context.Context) (Message, error) {
		return Message{Type: "snapshot", Data: json.RawMessage(`[{"id":"x"}]`)}, nil
	}))
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := gorillawebsocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var hello Message
	if err := conn.ReadJSON(&hello); err != nil {
		t.Fatalf("read hello: %v", err)
	}
	if hello.Type != "snapshot" || string(hello.Data) != `[{"id":"x"}]` {
		t.Fatalf("unexpected hello %+v", hello)
	}

	deadline := time.Now().Add(2 * time.Second)
	for hub.ClientCount() == 0 && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
	if hub.Broadcast(Message{Type: "snapshot", Data: json.RawMessage(`[]`)}) != 1 {
		t.Fatalf("expected broadcast to reach the client")
	}

	var next Message
	if err := conn.ReadJSON(&next); err != nil {
		t.Fatalf("read broadcast: %v", err)
	}
	if string(next.Data) != `[]` {
		t.Fatalf("unexpected broadcast %+v", next)
	}
}

func TestHub_HandlerHelloNeverOverridesLaterBroadcast(t *testing.T) {
	hub := NewHub(nil)
	delivered := make(chan int, 1)
	srv := httptest.NewServer(hub.Handler(func(ctx context.Context) (Message, error) {
		// un cambio llega mientras se arma el hello
		go func() {
			delivered <- hub.Broadcast(Message{Type: "snapshot", Data: json.RawMessage(`["v2"]`)})
		}()
		time.Sleep(50 * time.Millisecond)
		return Message{Type: "snapshot", Data: json.RawMessage(`["v1"]`)}, nil
	}))
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := gorillawebsocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	select {
	case n := <-delivered:
		if n != 1 {
			t.Fatalf("expected broadcast to reach the new client, got %d", n)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("broadcast never completed")
	}

	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var got []string
	for i := 0; i < 2; i++ {
		var msg Message
		if err := conn.ReadJSON(&msg); err != nil {
			t.Fatalf("read message %d: %v", i, err)
		}
		got = append(got, string(msg.Data))
	}
	if got[0] != `["v1"]` || got[1] != `["v2"]` {
		t.Fatalf("expected hello then broadcast, got %v", got)
	}
}

func TestHub_HandlerHelloErrorLeavesNoClient(t *testing.T) {
	hub := NewHub(nil)
	srv := httptest.NewServer(hub.Handler(func(ctx context.Context) (Message, error) {
		return Message{}, errors.New("store down")
	}))
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	_, resp, err := gorillawebsocket.DefaultDialer.Dial(url, nil)
	if err == nil {
		t.Fatalf("expected dial to fail")
	}
	if resp == nil || resp.StatusCode != http.StatusBadGateway {
		t.Fatalf("expected 502, got %+v", resp)
	}
	if hub.ClientCount() != 0 {
		t.Fatalf("expected no registered clients, got %d", hub.ClientCount())
	}
}

func TestHub_EnqueueAfterCloseIsDropped(t *testing.T) {
	hub := NewHub(nil)
	c := newClient("late", 1)
	hub.Register(c)
	hub.Close()

	if hub.enqueue(c, []byte("hello")) {
		t.Fatalf("expected enqueue to skip a closed client")
	}
}
