package backend

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/fasthttp/websocket"

	"idconsole/internal/api"
	"idconsole/internal/logging"
	"idconsole/internal/services"
)

const (
	channelHandshakeTimeout = 10 * time.Second
	channelWriteTimeout     = 5 * time.Second
)

// Channel is an open push channel for one job.
type Channel struct {
	conn      *websocket.Conn
	jobID     string
	writeMu   sync.Mutex
	closeOnce sync.Once
	closeErr  error
}

// SubscribeJob opens the push channel for job id. The session cookies, bearer
// token, CSRF token, and request id travel with the handshake.
func (c *Client) SubscribeJob(ctx context.Context, id string) (*Channel, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, services.Wrap(services.ErrValidation, componentName, "subscribe job", "job id is required", nil)
	}

	target := c.endpoint("/ws/jobs/"+url.PathEscape(id), nil)
	switch target.Scheme {
	case "https":
		target.Scheme = "wss"
	default:
		target.Scheme = "ws"
	}

	header := http.Header{}
	rid := c.decorate(ctx, header, http.MethodGet)
	// The handshake is a GET, but the channel is session-bound so the CSRF
	// token is sent when available.
	if token := c.csrfToken(); token != "" {
		header.Set(CSRFHeader, token)
	}
	header.Set("Origin", c.base.Scheme+"://"+c.base.Host)
	if c.jar != nil {
		for _, cookie := range c.jar.Cookies(c.base) {
			header.Add("Cookie", cookie.String())
		}
	}

	dialer := websocket.Dialer{
		Proxy:            http.ProxyFromEnvironment,
		HandshakeTimeout: channelHandshakeTimeout,
	}
	conn, resp, err := dialer.DialContext(ctx, target.String(), header)
	if err != nil {
		if resp != nil && resp.StatusCode >= 400 {
			herr := decodeHTTPError("subscribe job", resp)
			resp.Body.Close()
			return nil, services.Wrap(services.ErrChannel, componentName, "subscribe job", "handshake rejected", herr)
		}
		return nil, services.Wrap(services.ErrChannel, componentName, "subscribe job", "dial", err)
	}

	c.logger.Debug("job channel opened",
		logging.String(logging.FieldJobID, id),
		logging.String(logging.FieldCorrelationID, rid),
	)
	return &Channel{conn: conn, jobID: id}, nil
}

// JobID returns the job the channel is bound to.
func (ch *Channel) JobID() string {
	return ch.jobID
}

// Next blocks until the next job message arrives, ctx ends, or the channel
// fails. Pings are answered and skipped.
func (ch *Channel) Next(ctx context.Context) (api.ChannelMessage, error) {
	stop := context.AfterFunc(ctx, func() {
		_ = ch.conn.SetReadDeadline(time.Now())
	})
	defer stop()

	for {
		_, data, err := ch.conn.ReadMessage()
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return api.ChannelMessage{}, ctxErr
			}
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				return api.ChannelMessage{}, services.Wrap(services.ErrChannel, componentName, "channel", "closed by backend", err)
			}
			return api.ChannelMessage{}, services.Wrap(services.ErrChannel, componentName, "channel", "read", err)
		}

		// A frame that is not a JSON message still signals a change.
		var msg api.ChannelMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			return api.ChannelMessage{Type: api.ChannelMessageChanged, JobID: ch.jobID}, nil
		}
		if msg.Type == api.ChannelMessagePing {
			if err := ch.write(api.ChannelMessage{Type: api.ChannelMessagePong, JobID: ch.jobID}); err != nil {
				return api.ChannelMessage{}, services.Wrap(services.ErrChannel, componentName, "channel", "pong", err)
			}
			continue
		}
		if msg.JobID == "" {
			if msg.Job != nil && msg.Job.ID != "" {
				msg.JobID = msg.Job.ID
			} else {
				msg.JobID = ch.jobID
			}
		}
		return msg, nil
	}
}

func (ch *Channel) write(msg api.ChannelMessage) error {
	ch.writeMu.Lock()
	defer ch.writeMu.Unlock()
	_ = ch.conn.SetWriteDeadline(time.Now().Add(channelWriteTimeout))
	return ch.conn.WriteJSON(msg)
}

// Close sends a close frame and releases the connection. Safe to call more
// than once.
func (ch *Channel) Close() error {
	ch.closeOnce.Do(func() {
		ch.writeMu.Lock()
		deadline := time.Now().Add(time.Second)
		_ = ch.conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), deadline)
		ch.writeMu.Unlock()
		ch.closeErr = ch.conn.Close()
	})
	return ch.closeErr
}
