package api

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/urmzd/growbox/pkg/camera"
)

func TestCameraRouter_Snapshot(t *testing.T) {
	gin.SetMode(gin.TestMode)
	hub := camera.NewHub(zerolog.Nop())
	go hub.Run()
	defer hub.Close()

	relay := camera.NewRelay(nil, hub, zerolog.Nop())
	router := NewCameraRouter(relay, hub, "")

	w := httptest.NewRecorder()
	router.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/snapshot.jpg?t=1", nil))
	if w.Code != http.StatusServiceUnavailable {
		t.Errorf("expected 503 before the first frame, got %d", w.Code)
	}

	frame := []byte{0xFF, 0xD8, 0x01, 0x02, 0xFF, 0xD9}
	if err := relay.Consume(bytes.NewReader(frame)); err != nil {
		t.Fatal(err)
	}

	w = httptest.NewRecorder()
	router.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/snapshot.jpg?t=2", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); ct != "image/jpeg" {
		t.Errorf("expected image/jpeg, got %s", ct)
	}
	if !bytes.Equal(w.Body.Bytes(), frame) {
		t.Errorf("expected latest frame, got % x", w.Body.Bytes())
	}
}
