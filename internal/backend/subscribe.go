package backend

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// Subscribe opens the push channel for a schema. The first connection is
// made before returning. After a drop the client reconnects with
// exponential backoff and emits EventReconnected once the channel is back.
func (c *Client) Subscribe(ctx context.Context, name string) (<-chan Event, error) {
	ws, err := c.dial(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("subscribe to %s: %w", name, err)
	}

	events := make(chan Event, 16)
	go c.run(ctx, name, ws, events)
	return events, nil
}

func (c *Client) dial(ctx context.Context, name string) (*websocket.Conn, error) {
	header := http.Header{}
	if c.token != "" {
		header.Set("Authorization", "Bearer "+c.token)
	}
	ws, resp, err := c.dialer.DialContext(ctx, c.subscriptionURL(name), header)
	if err != nil {
		if resp != nil {
			return nil, &HTTPError{StatusCode: resp.StatusCode, Status: resp.Status}
		}
		return nil, err
	}
	return ws, nil
}

func (c *Client) run(ctx context.Context, name string, ws *websocket.Conn, events chan<- Event) {
	defer close(events)
	logger := c.logger.With(zap.String("schema", name))

	for {
		c.read(ctx, ws, events, logger)
		ws.Close()
		if ctx.Err() != nil {
			return
		}

		logger.Warn("push channel dropped, reconnecting")
		next, err := c.reconnect(ctx, name, logger)
		if err != nil {
			if ctx.Err() == nil {
				logger.Error("push channel lost", zap.Error(err))
			}
			return
		}
		ws = next

		logger.Info("push channel reconnected")
		if !send(ctx, events, Event{Type: EventReconnected, Name: name}) {
			ws.Close()
			return
		}
	}
}

// read forwards messages until the connection fails or ctx is done.
func (c *Client) read(ctx context.Context, ws *websocket.Conn, events chan<- Event, logger *zap.Logger) {
	stop := context.AfterFunc(ctx, func() {
		ws.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(time.Second))
		ws.Close()
	})
	defer stop()

	for {
		var ev Event
		if err := ws.ReadJSON(&ev); err != nil {
			var closeErr *websocket.CloseError
			if errors.As(err, &closeErr) && closeErr.Code == websocket.CloseNormalClosure {
				logger.Debug("push channel closed by server")
			} else if ctx.Err() == nil {
				logger.Debug("push channel read failed", zap.Error(err))
			}
			return
		}
		if !send(ctx, events, ev) {
			return
		}
	}
}

func (c *Client) reconnect(ctx context.Context, name string, logger *zap.Logger) (*websocket.Conn, error) {
	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = c.reconnectMin
	policy.MaxInterval = c.reconnectMax
	policy.MaxElapsedTime = 0

	var ws *websocket.Conn
	err := backoff.RetryNotify(func() error {
		conn, err := c.dial(ctx, name)
		if err != nil {
			if errors.Is(err, ErrUnauthorized) || errors.Is(err, ErrNotFound) {
				return backoff.Permanent(err)
			}
			return err
		}
		ws = conn
		return nil
	}, backoff.WithContext(policy, ctx), func(err error, wait time.Duration) {
		logger.Debug("reconnect failed", zap.Error(err), zap.Duration("retry_in", wait))
	})
	if err != nil {
		return nil, err
	}
	return ws, nil
}

func send(ctx context.Context, events chan<- Event, ev Event) bool {
	select {
	case events <- ev:
		return true
	case <-ctx.Done():
		return false
	}
}
