package server

import (
	"context"
	"log/slog"
)

// ControlServer ties transports to the dispatcher: every accepted
// connection gets a session, every inbound message goes through the
// state machine, and disconnects are logged with the identity that was
// bound to the session.
type ControlServer struct {
	dispatcher *Dispatcher
	registry   *SessionRegistry
	transports []Transport
}

func NewControlServer(dispatcher *Dispatcher) *ControlServer {
	return &ControlServer{
		dispatcher: dispatcher,
		registry:   NewSessionRegistry(),
	}
}

func (s *ControlServer) RegisterTransport(t Transport) {
	t.OnConnect(func(client Client) error {
		s.registry.Store(client)
		return s.dispatcher.HandleConnect(client)
	})
	t.OnMessage(s.dispatcher.HandleMessage)
	t.OnDisconnect(func(client Client) {
		sess := client.Session()
		s.registry.Delete(sess.ID)
		if sess.Authenticated() {
			slog.Info("User disconnected", "session", sess.ID, "username", sess.Identity())
		}
	})
	s.transports = append(s.transports, t)
}

// Sessions returns the currently connected clients.
func (s *ControlServer) Sessions() []Client {
	return s.registry.List()
}

// Start runs every registered transport and blocks until the context is
// cancelled, then shuts them down.
func (s *ControlServer) Start(ctx context.Context) error {
	for _, t := range s.transports {
		go func(t Transport) {
			if err := t.Start(); err != nil {
				slog.Error("Transport failed", "error", err.Error())
			}
		}(t)
	}

	<-ctx.Done()
	slog.Info("Shutting down transports")

	for _, t := range s.transports {
		if err := t.Shutdown(); err != nil {
			slog.Error("There was an error when shutting down a transport", "error", err.Error())
		}
	}
	return nil
}
