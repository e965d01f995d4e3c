package server

import (
	"github.com/google/uuid"

	"github.com/xasher20/HMI-Design-Development-in-IIOT/proto"
)

type Transport interface {
	Start() error
	OnMessage(func(Client, []byte))
	OnConnect(func(Client) error)
	OnDisconnect(func(Client))
	Shutdown() error
}

// Client is one connected control surface. Raw inbound bytes go to the
// dispatcher through the transport callbacks; responses go back through
// Send.
type Client interface {
	Send(proto.Response) error
	Session() *Session
}

func generateSessionID(prefix string) string {
	return prefix + "-" + uuid.NewString()
}
