package fetch

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"
)

func newLiveServer(t *testing.T, frames []string) *httptest.Server {
	t.Helper()
	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		for _, frame := range frames {
			if err := conn.WriteMessage(websocket.TextMessage, []byte(frame)); err != nil {
				return
			}
		}
		// Hold the connection open until the client goes away
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func wsURL(srv *httptest.Server) string {
	return "ws" + strings.TrimPrefix(srv.URL, "http")
}

func TestLiveListenerSignalsOnUpdate(t *testing.T) {
	srv := newLiveServer(t, []string{
		`{"type": "heartbeat"}`,
		`{"type": "schedule_updated"}`,
	})

	l := NewLiveListener(wsURL(srv))
	defer l.Close()

	select {
	case <-l.UpdateChannel():
		// Success
	case <-time.After(5 * time.Second):
		t.Fatal("Expected update signal but got timeout")
	}
}

func TestLiveListenerIgnoresOtherFrames(t *testing.T) {
	srv := newLiveServer(t, []string{
		`{"type": "heartbeat"}`,
		`not even json`,
	})

	l := NewLiveListener(wsURL(srv))
	defer l.Close()

	select {
	case <-l.UpdateChannel():
		t.Fatal("Non-update frames must not signal")
	case <-time.After(300 * time.Millisecond):
		// Success
	}
}

func TestLiveListenerCloseStops(t *testing.T) {
	srv := newLiveServer(t, nil)

	l := NewLiveListener(wsURL(srv))
	require.NotNil(t, l)
	l.Close()

	select {
	case <-l.UpdateChannel():
		t.Fatal("Closed listener must not signal")
	case <-time.After(200 * time.Millisecond):
	}
}
