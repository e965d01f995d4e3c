// Package web serves the synchronous HTTPS relay: an alternate gate
// control surface for HMIs that cannot hold a websocket open. It shares
// the actuator gateway and credential store with the websocket server.
package web

import (
	"crypto/tls"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/xasher20/HMI-Design-Development-in-IIOT/actuator"
	"github.com/xasher20/HMI-Design-Development-in-IIOT/proto"
	"github.com/xasher20/HMI-Design-Development-in-IIOT/server"
)

type relayRequest struct {
	Token  string `json:"token"`
	Action string `json:"action"`
}

type relayResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// Relay is the HTTP control surface. Authentication is a base64
// "username:password" token checked against the same credential store
// as the websocket channel.
type Relay struct {
	Addr      string
	tlsConfig *tls.Config
	gateway   actuator.Gateway
	creds     server.CredentialVerifier
	audit     server.Recorder
	server    *http.Server
}

func NewRelay(addr string, tlsConfig *tls.Config, gateway actuator.Gateway, creds server.CredentialVerifier, audit server.Recorder) *Relay {
	return &Relay{
		Addr:      addr,
		tlsConfig: tlsConfig,
		gateway:   gateway,
		creds:     creds,
		audit:     audit,
	}
}

func (rl *Relay) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(cors)
	r.Get("/", rl.handleHealth)
	r.Post("/", rl.handleGate)
	return r
}

func (rl *Relay) Start() error {
	scheme := "https"
	if rl.tlsConfig == nil {
		scheme = "http"
	}
	slog.Info("Starting relay server", "addr", rl.Addr, "scheme", scheme)

	rl.server = &http.Server{
		Addr:      rl.Addr,
		Handler:   rl.Routes(),
		TLSConfig: rl.tlsConfig,
	}

	var err error
	if rl.tlsConfig != nil {
		err = rl.server.ListenAndServeTLS("", "")
	} else {
		err = rl.server.ListenAndServe()
	}
	if err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

func (rl *Relay) Shutdown() error {
	slog.Info("Shutting down relay server", "addr", rl.Addr)
	if rl.server != nil {
		return rl.server.Close()
	}
	return nil
}

func (rl *Relay) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("<html><body><h1>Train Control Server</h1><p>The relay server is running properly.</p></body></html>"))
}

func (rl *Relay) handleGate(w http.ResponseWriter, r *http.Request) {
	var req relayRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, relayResponse{Success: false, Message: "Invalid JSON format"})
		return
	}

	if req.Token == "" {
		writeJSON(w, relayResponse{Success: false, Message: "Authentication required"})
		return
	}

	username, ok := rl.verifyToken(req.Token)
	if !ok {
		slog.Warn("Relay token rejected", "remote_addr", r.RemoteAddr)
		writeJSON(w, relayResponse{Success: false, Message: "Invalid authentication token"})
		return
	}

	if req.Action != proto.ActionOpen && req.Action != proto.ActionClose {
		writeJSON(w, relayResponse{Success: false, Message: fmt.Sprintf("invalid gate action: %q", req.Action)})
		return
	}

	err := rl.gateway.SetGate(req.Action == proto.ActionOpen)
	if rl.audit != nil {
		rl.audit.Record(username, "gate_http", req.Action, err == nil)
	}
	if err != nil {
		writeJSON(w, relayResponse{Success: false, Message: err.Error()})
		return
	}

	slog.Info("Relay gate command executed", "username", username, "action", req.Action)
	writeJSON(w, relayResponse{Success: true, Message: fmt.Sprintf("Gate %s command executed", req.Action)})
}

// verifyToken decodes a base64 "username:password" token and checks it
// against the credential store. Both halves are verified; knowing a
// username alone grants nothing.
func (rl *Relay) verifyToken(token string) (string, bool) {
	decoded, err := base64.StdEncoding.DecodeString(token)
	if err != nil {
		return "", false
	}

	parts := strings.SplitN(string(decoded), ":", 2)
	if len(parts) != 2 {
		return "", false
	}

	ok, err := rl.creds.Verify(parts[0], parts[1])
	if err != nil {
		slog.Error("Credential store unavailable", "error", err.Error())
		return "", false
	}
	return parts[0], ok
}

func writeJSON(w http.ResponseWriter, resp relayResponse) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(resp)
}

func cors(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}
