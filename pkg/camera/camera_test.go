package camera

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

func jpeg(body ...byte) []byte {
	out := append([]byte{}, soi...)
	out = append(out, body...)
	return append(out, eoi...)
}

type recordingSink struct {
	frames [][]byte
}

func (s *recordingSink) Broadcast(frame []byte) {
	s.frames = append(s.frames, frame)
}

func TestRelay_ConsumeSplitsFrames(t *testing.T) {
	var stream bytes.Buffer
	stream.Write([]byte{0x00, 0x01})
	stream.Write(jpeg(0x10, 0x11))
	stream.Write(jpeg(0x20))
	stream.Write(soi)
	stream.Write([]byte{0x30})

	sink := &recordingSink{}
	r := NewRelay(nil, sink, zerolog.Nop())
	if err := r.Consume(&stream); err != nil {
		t.Fatal(err)
	}

	if len(sink.frames) != 2 {
		t.Fatalf("expected 2 frames, got %d", len(sink.frames))
	}
	if !bytes.Equal(sink.frames[0], jpeg(0x10, 0x11)) {
		t.Errorf("unexpected first frame % x", sink.frames[0])
	}
	latest, err := r.Latest()
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(latest.Data, jpeg(0x20)) {
		t.Errorf("expected latest frame to be the second one, got % x", latest.Data)
	}
	if r.Frames() != 2 {
		t.Errorf("expected 2 frames counted, got %d", r.Frames())
	}
}

// chunkReader returns one byte per Read to exercise markers split across reads.
type chunkReader struct {
	data []byte
}

func (c *chunkReader) Read(p []byte) (int, error) {
	if len(c.data) == 0 {
		return 0, io.EOF
	}
	p[0] = c.data[0]
	c.data = c.data[1:]
	return 1, nil
}

func TestSplitJPEG_MarkersAcrossReads(t *testing.T) {
	sink := &recordingSink{}
	r := NewRelay(nil, sink, zerolog.Nop())
	stream := append(jpeg(0xAA), jpeg(0xBB, 0xFF)...)
	if err := r.Consume(&chunkReader{data: stream}); err != nil {
		t.Fatal(err)
	}
	if len(sink.frames) != 2 {
		t.Fatalf("expected 2 frames, got %d", len(sink.frames))
	}
	if !bytes.Equal(sink.frames[1], jpeg(0xBB, 0xFF)) {
		t.Errorf("unexpected second frame % x", sink.frames[1])
	}
}

func TestRelay_LatestBeforeCapture(t *testing.T) {
	r := NewRelay(nil, nil, zerolog.Nop())
	if _, err := r.Latest(); !errors.Is(err, ErrNoFrame) {
		t.Errorf("expected ErrNoFrame, got %v", err)
	}
	if err := r.Run(context.Background()); !errors.Is(err, ErrNoCommand) {
		t.Errorf("expected ErrNoCommand, got %v", err)
	}
}

func TestRelay_RunCapturesProcessOutput(t *testing.T) {
	cmd := []string{"sh", "-c", `printf '\377\330\001\377\331'`}
	r := NewRelay(cmd, nil, zerolog.Nop())
	if err := r.Run(context.Background()); err != nil {
		t.Fatalf("expected clean exit, got %v", err)
	}
	latest, err := r.Latest()
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(latest.Data, jpeg(0x01)) {
		t.Errorf("unexpected frame % x", latest.Data)
	}

	failing := NewRelay([]string{"sh", "-c", "exit 3"}, nil, zerolog.Nop())
	if err := failing.Run(context.Background()); err == nil {
		t.Error("expected error for non-zero exit status")
	}
}

func TestRelay_RunStopsOnOversizedFrame(t *testing.T) {
	// An SOI followed by 20 MiB without EOI exceeds the frame limit.
	cmd := []string{"sh", "-c", `printf '\377\330'; head -c 20971520 /dev/zero`}
	r := NewRelay(cmd, nil, zerolog.Nop())

	done := make(chan error, 1)
	go func() { done <- r.Run(context.Background()) }()

	select {
	case err := <-done:
		if !errors.Is(err, bufio.ErrTooLong) {
			t.Errorf("expected bufio.ErrTooLong, got %v", err)
		}
	case <-time.After(10 * time.Second):
		t.Fatal("expected Run to return after the frame limit was hit")
	}
	if r.Frames() != 0 {
		t.Errorf("expected no frames, got %d", r.Frames())
	}
}

func TestHub_BroadcastsBinaryFrames(t *testing.T) {
	hub := NewHub(zerolog.Nop())
	go hub.Run()
	defer hub.Close()

	srv := httptest.NewServer(http.HandlerFunc(hub.ServeWS))
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatal(err)
	}
	defer func() { _ = conn.Close() }()

	deadline := time.Now().Add(2 * time.Second)
	for hub.Clients() != 1 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	if hub.Clients() != 1 {
		t.Fatalf("expected 1 client, got %d", hub.Clients())
	}

	frame := jpeg(0x42)
	hub.Broadcast(frame)

	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	kind, msg, err := conn.ReadMessage()
	if err != nil {
		t.Fatal(err)
	}
	if kind != websocket.BinaryMessage {
		t.Errorf("expected binary message, got %d", kind)
	}
	if !bytes.Equal(msg, frame) {
		t.Errorf("expected % x, got % x", frame, msg)
	}

	_ = conn.Close()
	deadline = time.Now().Add(2 * time.Second)
	for hub.Clients() != 0 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	if hub.Clients() != 0 {
		t.Errorf("expected client to unregister, got %d", hub.Clients())
	}
}
