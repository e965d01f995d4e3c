// Package client is a Go client for the train control gateway. Each
// call sends one command and waits for its paired response, mirroring
// the request/response contract of the protocol.
package client

import (
	"crypto/tls"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/url"

	"github.com/gorilla/websocket"

	"github.com/xasher20/HMI-Design-Development-in-IIOT/proto"
)

type Options struct {
	// Insecure dials ws:// instead of wss://.
	Insecure bool
	// SkipVerify accepts the gateway's self-signed exhibit certificate.
	SkipVerify bool
}

type Client struct {
	conn *websocket.Conn
}

// Connect dials the gateway and consumes the welcome status message.
func Connect(addr string, opts Options) (*Client, error) {
	u := url.URL{Scheme: "wss", Host: addr, Path: "/"}
	if opts.Insecure {
		u.Scheme = "ws"
	}

	dialer := *websocket.DefaultDialer
	if opts.SkipVerify {
		dialer.TLSClientConfig = &tls.Config{InsecureSkipVerify: true}
	}

	conn, _, err := dialer.Dial(u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to gateway: %w", err)
	}

	c := &Client{conn: conn}

	welcome, err := c.read()
	if err != nil {
		conn.Close()
		return nil, err
	}
	if welcome.Type != proto.TypeStatus {
		conn.Close()
		return nil, fmt.Errorf("expected welcome status, got %q", welcome.Type)
	}

	slog.Debug("Connected to gateway", "addr", addr, "welcome", welcome.Message)
	return c, nil
}

// Authenticate sends credentials and returns the gateway's verdict.
func (c *Client) Authenticate(username, password string) (proto.Response, error) {
	return c.do(proto.Message{Type: proto.TypeAuth, Username: username, Password: password})
}

// SetVelocity requests a new train velocity.
func (c *Client) SetVelocity(velocity float64) (proto.Response, error) {
	return c.do(proto.Message{Type: proto.TypeCommand, Value: proto.NewValue(velocity)})
}

// Gate sends a gate action, proto.ActionOpen or proto.ActionClose.
func (c *Client) Gate(action string) (proto.Response, error) {
	return c.do(proto.Message{Type: proto.TypeGate, Action: action})
}

// Turbine sends a turbine action, proto.ActionStart or proto.ActionStop.
func (c *Client) Turbine(action string) (proto.Response, error) {
	return c.do(proto.Message{Type: proto.TypeTurbine, Action: action})
}

func (c *Client) do(msg proto.Message) (proto.Response, error) {
	data, err := json.Marshal(msg)
	if err != nil {
		return proto.Response{}, fmt.Errorf("failed to marshal message: %w", err)
	}

	if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
		return proto.Response{}, fmt.Errorf("failed to send message: %w", err)
	}

	return c.read()
}

func (c *Client) read() (proto.Response, error) {
	_, messageBytes, err := c.conn.ReadMessage()
	if err != nil {
		return proto.Response{}, fmt.Errorf("connection closed: %w", err)
	}

	var resp proto.Response
	if err := json.Unmarshal(messageBytes, &resp); err != nil {
		return proto.Response{}, fmt.Errorf("invalid JSON from gateway: %w", err)
	}
	return resp, nil
}

func (c *Client) Close() error {
	err := c.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	if err != nil {
		slog.Warn("Failed to send close message", "error", err)
	}
	return c.conn.Close()
}
