package proto

import (
	"encoding/json"
	"testing"
)

func TestMessage_UnmarshalNumericValue(t *testing.T) {
	var msg Message
	if err := json.Unmarshal([]byte(`{"type":"command","value":60}`), &msg); err != nil {
		t.Fatalf("Failed to unmarshal: %v", err)
	}

	if !msg.Value.IsSet() {
		t.Error("Expected value to be set")
	}

	if msg.Value.Float() != 60 {
		t.Errorf("Expected value 60, got %v", msg.Value.Float())
	}
}

func TestMessage_UnmarshalStringValue(t *testing.T) {
	var msg Message
	if err := json.Unmarshal([]byte(`{"type":"command","value":"60"}`), &msg); err != nil {
		t.Fatalf("Failed to unmarshal: %v", err)
	}

	if msg.Value.Float() != 60 {
		t.Errorf("Expected value 60, got %v", msg.Value.Float())
	}
}

func TestMessage_UnmarshalNonNumericValue(t *testing.T) {
	var msg Message
	err := json.Unmarshal([]byte(`{"type":"command","value":"fast"}`), &msg)
	if err == nil {
		t.Error("Expected error for non-numeric value")
	}
}

func TestMessage_Validate(t *testing.T) {
	tests := []struct {
		name    string
		msg     Message
		wantErr bool
	}{
		{"valid auth", Message{Type: TypeAuth, Username: "admin", Password: "admin123"}, false},
		{"auth missing username", Message{Type: TypeAuth, Password: "admin123"}, true},
		{"auth missing password", Message{Type: TypeAuth, Username: "admin"}, true},
		{"valid command", Message{Type: TypeCommand, Value: NewValue(60)}, false},
		{"command missing value", Message{Type: TypeCommand}, true},
		{"valid gate open", Message{Type: TypeGate, Action: ActionOpen}, false},
		{"valid gate close", Message{Type: TypeGate, Action: ActionClose}, false},
		{"gate invalid action", Message{Type: TypeGate, Action: "open"}, true},
		{"gate missing action", Message{Type: TypeGate}, true},
		{"valid turbine", Message{Type: TypeTurbine, Action: ActionStart}, false},
		{"turbine missing action", Message{Type: TypeTurbine}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.msg.Validate()
			if tt.wantErr && err == nil {
				t.Error("Expected validation error, got nil")
			}
			if !tt.wantErr && err != nil {
				t.Errorf("Expected no error, got %v", err)
			}
		})
	}
}

func TestResponse_Marshal(t *testing.T) {
	data, err := json.Marshal(Result(TypeAuth, true, "Welcome, admin!"))
	if err != nil {
		t.Fatalf("Failed to marshal: %v", err)
	}

	expected := `{"type":"auth_response","success":true,"message":"Welcome, admin!"}`
	if string(data) != expected {
		t.Errorf("Expected %s, got %s", expected, string(data))
	}
}

func TestResponse_StatusOmitsSuccess(t *testing.T) {
	data, err := json.Marshal(Status("Connected to server. Please authenticate."))
	if err != nil {
		t.Fatalf("Failed to marshal: %v", err)
	}

	var raw map[string]any
	json.Unmarshal(data, &raw)
	if _, ok := raw["success"]; ok {
		t.Error("Expected status response to omit success field")
	}
}

func TestResponseTypeFor(t *testing.T) {
	cases := map[string]string{
		TypeAuth:    TypeAuthResponse,
		TypeCommand: TypeCommandResponse,
		TypeGate:    TypeGateResponse,
		TypeTurbine: TypeTurbineResponse,
		"bogus":     TypeError,
	}

	for req, want := range cases {
		if got := ResponseTypeFor(req); got != want {
			t.Errorf("ResponseTypeFor(%q) = %q, want %q", req, got, want)
		}
	}
}
