package proto

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Inbound message types.
const (
	TypeAuth    = "auth"
	TypeCommand = "command" // velocity set-point
	TypeGate    = "gate"
	TypeTurbine = "turbine"
)

// Outbound message types.
const (
	TypeStatus          = "status"
	TypeAuthResponse    = "auth_response"
	TypeCommandResponse = "command_response"
	TypeGateResponse    = "gate_response"
	TypeTurbineResponse = "turbine_response"
	TypeError           = "error"
)

// Actuator actions carried in the "action" field.
const (
	ActionOpen  = "Open"
	ActionClose = "Close"
	ActionStart = "Start"
	ActionStop  = "Stop"
)

// Message is the inbound JSON envelope, one object per websocket frame.
// Fields other than Type are populated depending on the message type.
type Message struct {
	Type     string `json:"type"`
	Username string `json:"username,omitempty"`
	Password string `json:"password,omitempty"`
	Value    Value  `json:"value,omitzero"`
	Action   string `json:"action,omitempty"`
}

// Value is a numeric field that accepts both a JSON number and a quoted
// numeric string. HMI clients send either depending on the slider widget.
type Value struct {
	set bool
	f   float64
}

func NewValue(f float64) Value {
	return Value{set: true, f: f}
}

func (v Value) Float() float64 { return v.f }
func (v Value) IsSet() bool    { return v.set }

func (v *Value) UnmarshalJSON(data []byte) error {
	s := strings.TrimSpace(string(data))
	if s == "null" {
		return nil
	}
	if strings.HasPrefix(s, `"`) {
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		s = strings.TrimSpace(s)
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return fmt.Errorf("value is not numeric: %q", s)
	}
	v.set = true
	v.f = f
	return nil
}

func (v Value) MarshalJSON() ([]byte, error) {
	if !v.set {
		return []byte("null"), nil
	}
	return json.Marshal(v.f)
}

// Validate checks that the fields required for the message type are
// present and well formed. Unknown types are left to the dispatcher.
func (m *Message) Validate() error {
	switch m.Type {
	case TypeAuth:
		if m.Username == "" {
			return fmt.Errorf("missing required field: username")
		}
		if m.Password == "" {
			return fmt.Errorf("missing required field: password")
		}
	case TypeCommand:
		if !m.Value.IsSet() {
			return fmt.Errorf("missing required field: value")
		}
	case TypeGate:
		if m.Action == "" {
			return fmt.Errorf("missing required field: action")
		}
		if m.Action != ActionOpen && m.Action != ActionClose {
			return fmt.Errorf("invalid gate action: %q", m.Action)
		}
	case TypeTurbine:
		if m.Action == "" {
			return fmt.Errorf("missing required field: action")
		}
	}
	return nil
}

// Response is the outbound JSON envelope. Success is a pointer so that
// "status" and "error" messages omit the field entirely.
type Response struct {
	Type    string `json:"type"`
	Success *bool  `json:"success,omitempty"`
	Message string `json:"message"`
}

// OK reports whether the response carries success=true.
func (r Response) OK() bool {
	return r.Success != nil && *r.Success
}

func Status(message string) Response {
	return Response{Type: TypeStatus, Message: message}
}

func Error(message string) Response {
	return Response{Type: TypeError, Message: message}
}

// Result builds the response paired with the given request type.
func Result(requestType string, success bool, message string) Response {
	return Response{Type: ResponseTypeFor(requestType), Success: &success, Message: message}
}

// ResponseTypeFor maps a request type to its response type.
func ResponseTypeFor(requestType string) string {
	switch requestType {
	case TypeAuth:
		return TypeAuthResponse
	case TypeCommand:
		return TypeCommandResponse
	case TypeGate:
		return TypeGateResponse
	case TypeTurbine:
		return TypeTurbineResponse
	default:
		return TypeError
	}
}
