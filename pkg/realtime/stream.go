package realtime

import (
	"context"
	"net/http"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"go.uber.org/zap"
)

// StreamOptions tunes a WebSocket event stream.
type StreamOptions struct {
	OriginPatterns []string
	WriteTimeout   time.Duration
	Buffer         int
}

// Stream upgrades the request and writes every hub event to the socket until
// either side goes away. Authentication happens before Stream is called.
func (h *Hub) Stream(w http.ResponseWriter, r *http.Request, opts StreamOptions) error {
	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{OriginPatterns: opts.OriginPatterns})
	if err != nil {
		return err
	}
	defer conn.CloseNow()

	writeTimeout := opts.WriteTimeout
	if writeTimeout <= 0 {
		writeTimeout = 5 * time.Second
	}

	// Clients never send application frames; CloseRead handles control
	// frames and cancels ctx once the peer disconnects.
	ctx := conn.CloseRead(r.Context())

	sub := h.Subscribe(opts.Buffer)
	defer h.Unsubscribe(sub)

	if err := writeEvent(ctx, conn, Event{Name: EventReady}, writeTimeout); err != nil {
		return err
	}

	for {
		select {
		case <-ctx.Done():
			_ = conn.Close(websocket.StatusNormalClosure, "closed")
			return nil
		case evt, ok := <-sub:
			if !ok {
				_ = conn.Close(websocket.StatusGoingAway, "shutting down")
				return nil
			}
			if err := writeEvent(ctx, conn, evt, writeTimeout); err != nil {
				h.logger.Debug("event stream write failed", zap.Error(err))
				_ = conn.Close(websocket.StatusNormalClosure, "write_failed")
				return nil
			}
		}
	}
}

func writeEvent(ctx context.Context, conn *websocket.Conn, evt Event, timeout time.Duration) error {
	writeCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	return wsjson.Write(writeCtx, conn, evt)
}
