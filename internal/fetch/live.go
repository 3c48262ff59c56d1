package fetch

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/gorilla/websocket"
)

const (
	liveReadLimit      = 64 * 1024
	liveInitialBackoff = time.Second
	liveMaxBackoff     = 2 * time.Minute
	livePongWait       = 90 * time.Second
)

// liveMessage is the announcement frame the schedule backend pushes.
type liveMessage struct {
	Type string `json:"type"`
}

// LiveListener holds a websocket connection to the schedule backend's
// update feed and signals whenever the backend announces a schedule
// change. The listener never carries payload itself; a signal just means
// "refetch now" and goes through the normal conditional-GET path.
type LiveListener struct {
	url      string
	updateCh chan struct{}
	cancel   context.CancelFunc
}

// NewLiveListener connects to the given websocket URL in the background
// and reconnects with exponential backoff on failure.
func NewLiveListener(url string) *LiveListener {
	ctx, cancel := context.WithCancel(context.Background())
	l := &LiveListener{
		url:      url,
		updateCh: make(chan struct{}, 1),
		cancel:   cancel,
	}
	go l.run(ctx)
	return l
}

// UpdateChannel delivers one signal per announced schedule change.
func (l *LiveListener) UpdateChannel() <-chan struct{} {
	return l.updateCh
}

// Close tears down the connection.
func (l *LiveListener) Close() {
	l.cancel()
}

func (l *LiveListener) run(ctx context.Context) {
	backoff := liveInitialBackoff
	for {
		if ctx.Err() != nil {
			return
		}

		if l.listen(ctx) {
			backoff = liveInitialBackoff
		}

		select {
		case <-ctx.Done():
			return
		case <-time.After(backoff):
		}
		backoff *= 2
		if backoff > liveMaxBackoff {
			backoff = liveMaxBackoff
		}
	}
}

// listen runs one connection until it drops. Returns true if the
// connection was established (resets the backoff).
func (l *LiveListener) listen(ctx context.Context) bool {
	dialer := websocket.Dialer{HandshakeTimeout: 10 * time.Second}
	conn, _, err := dialer.DialContext(ctx, l.url, nil)
	if err != nil {
		fetchLog.Debug("live_dial_failed",
			slog.String("url", l.url),
			slog.String("error", err.Error()))
		return false
	}
	defer conn.Close()
	fetchLog.Info("live_connected", slog.String("url", l.url))

	conn.SetReadLimit(liveReadLimit)
	_ = conn.SetReadDeadline(time.Now().Add(livePongWait))
	conn.SetPingHandler(func(appData string) error {
		_ = conn.SetReadDeadline(time.Now().Add(livePongWait))
		return conn.WriteControl(websocket.PongMessage, []byte(appData), time.Now().Add(10*time.Second))
	})

	go func() {
		<-ctx.Done()
		conn.Close()
	}()

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() == nil {
				fetchLog.Debug("live_disconnected", slog.String("error", err.Error()))
			}
			return true
		}
		_ = conn.SetReadDeadline(time.Now().Add(livePongWait))

		var msg liveMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			continue
		}
		if msg.Type != "schedule_updated" {
			continue
		}
		select {
		case l.updateCh <- struct{}{}:
		default: // an update signal is already pending
		}
	}
}
