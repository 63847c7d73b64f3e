package realtime

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"go.uber.org/zap"
)

// Listen dials url and calls handle for every event until the connection
// drops or ctx ends. onReady runs after the server's ready frame.
func Listen(ctx context.Context, url, token string, onReady func(), handle func(Event)) error {
	header := http.Header{}
	if token != "" {
		header.Set("Authorization", "Bearer "+token)
	}
	conn, resp, err := websocket.Dial(ctx, url, &websocket.DialOptions{HTTPHeader: header})
	if err != nil {
		if resp != nil {
			return fmt.Errorf("dial %s: status %d: %w", url, resp.StatusCode, err)
		}
		return fmt.Errorf("dial %s: %w", url, err)
	}
	defer conn.CloseNow()

	for {
		var evt Event
		if err := wsjson.Read(ctx, conn, &evt); err != nil {
			if websocket.CloseStatus(err) == websocket.StatusNormalClosure || errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		}
		if evt.Name == EventReady {
			if onReady != nil {
				onReady()
			}
			continue
		}
		handle(evt)
	}
}

// Follow keeps a Listen session alive, reconnecting with capped exponential
// backoff until ctx ends.
func Follow(ctx context.Context, url, token string, logger *zap.Logger, onReady func(), handle func(Event)) {
	if logger == nil {
		logger = zap.NewNop()
	}
	backoff := time.Second
	const maxBackoff = 30 * time.Second
	for {
		start := time.Now()
		err := Listen(ctx, url, token, onReady, handle)
		if ctx.Err() != nil {
			return
		}
		if time.Since(start) > maxBackoff {
			backoff = time.Second
		}
		logger.Warn("event stream disconnected", zap.Error(err), zap.Duration("retry_in", backoff))

		timer := time.NewTimer(backoff)
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
		}
		backoff *= 2
		if backoff > maxBackoff {
			backoff = maxBackoff
		}
	}
}
