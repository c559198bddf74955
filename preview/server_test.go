package preview

import (
	"bytes"
	"encoding/json"
	"image"
	"image/color"
	"image/png"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/guanlun/psan1-rendering-engine/renderer"
)

func TestPublishFrame(t *testing.T) {
	s := NewServer()
	server := httptest.NewServer(s.Handler())
	defer server.Close()
	defer s.Close()

	conn := dial(t, server.URL)
	defer conn.Close()
	waitForClients(t, s, 1)

	img := image.NewRGBA(image.Rect(0, 0, 4, 2))
	img.Set(1, 1, color.RGBA{255, 0, 0, 255})

	stats := renderer.FrameStats{
		Tracer:          renderer.TracerStat{Id: "cpu", FrameW: 4, FrameH: 2, Rays: 16},
		FrameNumber:     7,
		Substeps:        1,
		SyncedColliders: 12,
		RenderTime:      20 * time.Millisecond,
	}
	if err := s.Publish(stats, img); err != nil {
		t.Fatal(err)
	}

	conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	msgType, data, err := conn.ReadMessage()
	if err != nil {
		t.Fatal(err)
	}
	if msgType != websocket.TextMessage {
		t.Fatalf("expected a text message; got type %d", msgType)
	}

	var msg FrameMessage
	if err = json.Unmarshal(data, &msg); err != nil {
		t.Fatal(err)
	}
	if msg.Type != "frame" || msg.Tracer != "cpu" || msg.FrameNumber != 7 || msg.Width != 4 || msg.Height != 2 || msg.SyncedColliders != 12 || msg.Rays != 16 {
		t.Fatalf("unexpected frame message: %+v", msg)
	}
	if msg.RenderMs != 20 {
		t.Fatalf("expected render time to be 20ms; got %f", msg.RenderMs)
	}

	msgType, data, err = conn.ReadMessage()
	if err != nil {
		t.Fatal(err)
	}
	if msgType != websocket.BinaryMessage {
		t.Fatalf("expected a binary message; got type %d", msgType)
	}
	decoded, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatal(err)
	}
	if r, _, _, _ := decoded.At(1, 1).RGBA(); r != 0xffff {
		t.Fatalf("expected red pixel at (1, 1); got %v", decoded.At(1, 1))
	}
}

func TestServeLastFrame(t *testing.T) {
	s := NewServer()
	server := httptest.NewServer(s.Handler())
	defer server.Close()

	res, err := http.Get(server.URL + "/frame.png")
	if err != nil {
		t.Fatal(err)
	}
	res.Body.Close()
	if res.StatusCode != http.StatusNotFound {
		t.Fatalf("expected status 404 before the first frame; got %d", res.StatusCode)
	}

	if err = s.Publish(renderer.FrameStats{}, image.NewRGBA(image.Rect(0, 0, 3, 3))); err != nil {
		t.Fatal(err)
	}

	res, err = http.Get(server.URL + "/frame.png")
	if err != nil {
		t.Fatal(err)
	}
	defer res.Body.Close()
	if ct := res.Header.Get("Content-Type"); ct != "image/png" {
		t.Fatalf("expected content type image/png; got %s", ct)
	}
	cfg, err := png.DecodeConfig(res.Body)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Width != 3 || cfg.Height != 3 {
		t.Fatalf("expected a 3x3 frame; got %dx%d", cfg.Width, cfg.Height)
	}
}

func TestReceiveKeys(t *testing.T) {
	s := NewServer()
	server := httptest.NewServer(s.Handler())
	defer server.Close()
	defer s.Close()

	conn := dial(t, server.URL)
	defer conn.Close()

	for _, key := range []string{"z", "invalid", "", " "} {
		if err := conn.WriteJSON(ControlMessage{Key: key}); err != nil {
			t.Fatal(err)
		}
	}

	for _, expKey := range []byte{'z', ' '} {
		select {
		case key := <-s.Keys():
			if key != expKey {
				t.Fatalf("expected key %q; got %q", expKey, key)
			}
		case <-time.After(5 * time.Second):
			t.Fatalf("timeout waiting for key %q", expKey)
		}
	}
}

func TestReceiveResizes(t *testing.T) {
	s := NewServer()
	server := httptest.NewServer(s.Handler())
	defer server.Close()
	defer s.Close()

	conn := dial(t, server.URL)
	defer conn.Close()

	msgs := []string{
		`{"resize": [640, 480]}`,
		`{"resize": [640]}`,
		`{"key": "z", "resize": [320, 200]}`,
	}
	for _, msg := range msgs {
		if err := conn.WriteMessage(websocket.TextMessage, []byte(msg)); err != nil {
			t.Fatal(err)
		}
	}

	for _, exp := range []ResizeRequest{{640, 480}, {320, 200}} {
		select {
		case req := <-s.Resizes():
			if req != exp {
				t.Fatalf("expected resize request %v; got %v", exp, req)
			}
		case <-time.After(5 * time.Second):
			t.Fatalf("timeout waiting for resize request %v", exp)
		}
	}

	select {
	case key := <-s.Keys():
		if key != 'z' {
			t.Fatalf("expected key 'z'; got %q", key)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("timeout waiting for key")
	}
}

func TestDisconnectedClientsAreRemoved(t *testing.T) {
	s := NewServer()
	server := httptest.NewServer(s.Handler())
	defer server.Close()
	defer s.Close()

	conn := dial(t, server.URL)
	waitForClients(t, s, 1)

	conn.Close()
	waitForClients(t, s, 0)
}

func TestListen(t *testing.T) {
	s := NewServer()
	if err := s.Listen("127.0.0.1:0"); err != nil {
		t.Fatal(err)
	}
	defer s.Close()

	if err := s.Listen("127.0.0.1:0"); err != ErrAlreadyListening {
		t.Fatalf("expected ErrAlreadyListening; got %v", err)
	}

	conn := dial(t, "http://"+s.Addr())
	defer conn.Close()
	waitForClients(t, s, 1)
}

func dial(t *testing.T, serverURL string) *websocket.Conn {
	wsURL := "ws" + strings.TrimPrefix(serverURL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatal(err)
	}
	return conn
}

func waitForClients(t *testing.T, s *Server, count int) {
	deadline := time.Now().Add(5 * time.Second)
	for s.NumClients() != count {
		if time.Now().After(deadline) {
			t.Fatalf("expected %d connected clients; got %d", count, s.NumClients())
		}
		time.Sleep(10 * time.Millisecond)
	}
}
