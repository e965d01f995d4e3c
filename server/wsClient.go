package server

import (
	"encoding/json"
	"log/slog"

	"github.com/gorilla/websocket"

	"github.com/xasher20/HMI-Design-Development-in-IIOT/proto"
)

type WSClient struct {
	session *Session
	conn    *websocket.Conn
}

func NewWSClient(conn *websocket.Conn, remoteAddr string) *WSClient {
	return &WSClient{
		conn:    conn,
		session: NewSession("ws", remoteAddr),
	}
}

func (c *WSClient) Send(resp proto.Response) error {
	jsonData, err := json.Marshal(resp)
	if err != nil {
		return err
	}

	if err := c.conn.WriteMessage(websocket.TextMessage, jsonData); err != nil {
		return err
	}

	slog.Debug("Sent response", "to", c.session.ID, "type", resp.Type)
	return nil
}

func (c *WSClient) Session() *Session {
	return c.session
}
