package server

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/xasher20/HMI-Design-Development-in-IIOT/actuator"
	"github.com/xasher20/HMI-Design-Development-in-IIOT/proto"
)

// CredentialVerifier checks an operator's username/password pair. The
// error is reserved for provisioning failures, not credential
// mismatches.
type CredentialVerifier interface {
	Verify(username, password string) (bool, error)
}

// Recorder receives one audit record per dispatched command. It must
// never block.
type Recorder interface {
	Record(username, command, value string, success bool)
}

// Dispatcher is the protocol state machine: it parses inbound messages,
// gates them on the session's authentication state, routes them to the
// actuator gateway and produces exactly one response per message. Every
// failure is converted into a response; nothing here ever closes the
// connection.
type Dispatcher struct {
	gateway actuator.Gateway
	creds   CredentialVerifier
	audit   Recorder

	// Delay imposed after a failed authentication attempt. It stalls
	// only the offending session's read loop.
	AuthFailDelay time.Duration
}

func NewDispatcher(gateway actuator.Gateway, creds CredentialVerifier, audit Recorder) *Dispatcher {
	return &Dispatcher{
		gateway:       gateway,
		creds:         creds,
		audit:         audit,
		AuthFailDelay: time.Second,
	}
}

// HandleConnect sends the welcome message for a new session.
func (d *Dispatcher) HandleConnect(client Client) error {
	return client.Send(proto.Status("Connected to server. Please authenticate."))
}

// HandleMessage dispatches one inbound message and sends its response.
func (d *Dispatcher) HandleMessage(client Client, raw []byte) {
	resp := d.Dispatch(client.Session(), raw)
	if err := client.Send(resp); err != nil {
		slog.Warn("Failed to send response", "session", client.Session().ID, "error", err.Error())
	}
}

// Dispatch runs one message through the state machine and returns the
// response to send.
func (d *Dispatcher) Dispatch(sess *Session, raw []byte) proto.Response {
	var msg proto.Message
	if err := json.Unmarshal(raw, &msg); err != nil {
		slog.Warn("Invalid JSON received", "session", sess.ID, "error", err.Error())
		return proto.Error("Invalid message format")
	}

	switch msg.Type {
	case proto.TypeAuth:
		return d.handleAuth(sess, &msg)
	case proto.TypeCommand:
		return d.authenticated(sess, &msg, d.handleVelocity)
	case proto.TypeGate:
		return d.authenticated(sess, &msg, d.handleGate)
	case proto.TypeTurbine:
		return d.authenticated(sess, &msg, d.handleTurbine)
	default:
		slog.Warn("Unknown message type received", "session", sess.ID, "type", msg.Type)
		return proto.Error("Unknown command type")
	}
}

// authenticated gates a handler on the session state and on structural
// validation of the message.
func (d *Dispatcher) authenticated(sess *Session, msg *proto.Message, handle func(*Session, *proto.Message) proto.Response) proto.Response {
	if !sess.Authenticated() {
		return proto.Error("Authentication required")
	}
	if err := msg.Validate(); err != nil {
		return proto.Error(err.Error())
	}
	return handle(sess, msg)
}

func (d *Dispatcher) handleAuth(sess *Session, msg *proto.Message) proto.Response {
	if err := msg.Validate(); err != nil {
		return proto.Error(err.Error())
	}

	ok, err := d.creds.Verify(msg.Username, msg.Password)
	if err != nil {
		slog.Error("Credential store unavailable", "error", err.Error())
		return proto.Result(proto.TypeAuth, false, "Authentication unavailable")
	}

	if !ok {
		slog.Warn("Failed authentication attempt", "session", sess.ID, "username", msg.Username, "remote_addr", sess.RemoteAddr)
		if d.AuthFailDelay > 0 {
			time.Sleep(d.AuthFailDelay)
		}
		return proto.Result(proto.TypeAuth, false, "Invalid credentials")
	}

	sess.Authenticate(msg.Username)
	slog.Info("User authenticated", "session", sess.ID, "username", msg.Username, "remote_addr", sess.RemoteAddr)
	return proto.Result(proto.TypeAuth, true, fmt.Sprintf("Welcome, %s!", msg.Username))
}

func (d *Dispatcher) handleVelocity(sess *Session, msg *proto.Message) proto.Response {
	velocity := msg.Value.Float()
	value := strconv.FormatFloat(velocity, 'f', -1, 64)

	err := d.gateway.SetVelocity(velocity)
	d.record(sess, "velocity", value, err)
	if err != nil {
		return proto.Result(proto.TypeCommand, false, err.Error())
	}

	slog.Info("Velocity set", "session", sess.ID, "username", sess.Identity(), "velocity", velocity)
	return proto.Result(proto.TypeCommand, true, fmt.Sprintf("Velocity set to: %s", value))
}

func (d *Dispatcher) handleGate(sess *Session, msg *proto.Message) proto.Response {
	err := d.gateway.SetGate(msg.Action == proto.ActionOpen)
	d.record(sess, "gate", msg.Action, err)
	if err != nil {
		return proto.Result(proto.TypeGate, false, err.Error())
	}

	slog.Info("Gate command executed", "session", sess.ID, "username", sess.Identity(), "action", msg.Action)
	return proto.Result(proto.TypeGate, true, fmt.Sprintf("Gate %s command executed", msg.Action))
}

func (d *Dispatcher) handleTurbine(sess *Session, msg *proto.Message) proto.Response {
	err := d.gateway.SetTurbine(msg.Action == proto.ActionStart)
	d.record(sess, "turbine", msg.Action, err)
	if err != nil {
		return proto.Result(proto.TypeTurbine, false, err.Error())
	}

	slog.Info("Turbine command executed", "session", sess.ID, "username", sess.Identity(), "action", msg.Action)
	return proto.Result(proto.TypeTurbine, true, fmt.Sprintf("Turbine %s command executed", msg.Action))
}

func (d *Dispatcher) record(sess *Session, command, value string, err error) {
	if d.audit == nil {
		return
	}
	d.audit.Record(sess.Identity(), command, value, err == nil)
}
