package realtime

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/gorilla/websocket"

	"github.com/BlandineRdl/EquimApp-sub001/internal/feed"
)

// Ensure WebsocketFeed implements Feed
var _ Feed = (*WebsocketFeed)(nil)

// WebsocketFeed opens per-group change channels against the authority's
// websocket endpoint.
type WebsocketFeed struct {
	baseURL string
	token   func() string
	dialer  *websocket.Dialer
}

// NewWebsocketFeed creates a feed transport for the given authority base
// URL (http/https; the scheme is rewritten to ws/wss). token supplies the
// session token, passed as a query parameter because browsers cannot set
// headers on websocket upgrades.
func NewWebsocketFeed(baseURL string, token func() string) *WebsocketFeed {
	if token == nil {
		token = func() string { return "" }
	}
	return &WebsocketFeed{baseURL: baseURL, token: token, dialer: websocket.DefaultDialer}
}

// Open dials the group's feed endpoint.
func (f *WebsocketFeed) Open(ctx context.Context, groupID string) (Conn, error) {
	u, err := url.Parse(f.baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid feed base url: %w", err)
	}
	switch {
	case u.Scheme == "https":
		u.Scheme = "wss"
	default:
		u.Scheme = "ws"
	}
	u.Path = strings.TrimSuffix(u.Path, "/") + "/v1/groups/" + url.PathEscape(groupID) + "/feed"
	if token := f.token(); token != "" {
		q := u.Query()
		q.Set("token", token)
		u.RawQuery = q.Encode()
	}

	conn, resp, err := f.dialer.DialContext(ctx, u.String(), nil)
	if err != nil {
		if resp != nil {
			return nil, fmt.Errorf("feed dial rejected with status %d: %w", resp.StatusCode, err)
		}
		return nil, fmt.Errorf("feed dial failed: %w", err)
	}
	return &wsConn{conn: conn}, nil
}

type wsConn struct {
	conn *websocket.Conn
}

// Next blocks until the next notification arrives. Close unblocks it.
func (c *wsConn) Next(ctx context.Context) (feed.Notification, error) {
	var n feed.Notification
	if err := c.conn.ReadJSON(&n); err != nil {
		return feed.Notification{}, err
	}
	return n, nil
}

func (c *wsConn) Close() error {
	return c.conn.Close()
}
