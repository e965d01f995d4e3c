package server

import (
	"crypto/tls"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // HMI panels connect from file:// and kiosk origins
	},
}

// WSTransport serves the websocket control channel. With a TLS config it
// listens as wss; without one it serves plaintext, which main only
// permits behind an explicit --insecure flag.
type WSTransport struct {
	Addr         string
	tlsConfig    *tls.Config
	server       *http.Server
	onMessage    func(Client, []byte)
	onConnect    func(Client) error
	onDisconnect func(Client)

	// nclients counts admitted connections, including those still in
	// onConnect and not yet in the clients map; admission reserves a
	// slot so a burst of upgrades cannot overshoot maxClients.
	clients  map[string]Client
	nclients int
	cmu      sync.RWMutex

	listener net.Listener
	lmu      sync.Mutex

	maxClients int
	connected  bool
}

func NewWSTransport(addr string, tlsConfig *tls.Config) *WSTransport {
	return &WSTransport{
		Addr:       addr,
		tlsConfig:  tlsConfig,
		maxClients: 16,
		clients:    make(map[string]Client),
	}
}

func (t *WSTransport) Start() error {
	scheme := "wss"
	if t.tlsConfig == nil {
		scheme = "ws"
	}
	slog.Info("Starting WebSocket server", "addr", t.Addr, "scheme", scheme)

	if t.onConnect == nil || t.onDisconnect == nil || t.onMessage == nil {
		return fmt.Errorf("the OnConnect, OnDisconnect, or OnMessage function is not defined. This transport is likely being called outside of the control server")
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/", t.handleWebSocket)

	t.server = &http.Server{
		Addr:      t.Addr,
		Handler:   mux,
		TLSConfig: t.tlsConfig,
	}

	ln, err := net.Listen("tcp", t.Addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", t.Addr, err)
	}
	if t.tlsConfig != nil {
		ln = tls.NewListener(ln, t.tlsConfig)
	}

	t.lmu.Lock()
	t.listener = ln
	t.lmu.Unlock()

	t.connected = true

	if err := t.server.Serve(ln); err != nil && err != http.ErrServerClosed {
		t.connected = false
		return err
	}

	return nil
}

// ListenAddr returns the bound address once Start has opened the
// listener, or the configured address before that. With ":0" configured
// the bound address carries the kernel-assigned port.
func (t *WSTransport) ListenAddr() string {
	t.lmu.Lock()
	defer t.lmu.Unlock()
	if t.listener != nil {
		return t.listener.Addr().String()
	}
	return t.Addr
}

func (t *WSTransport) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	if origin := r.Header.Get("Origin"); origin != "" {
		slog.Debug("Connection request", "origin", origin, "remote_addr", r.RemoteAddr)
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Error("Failed to upgrade connection", "error", err)
		return
	}

	t.cmu.Lock()
	if t.nclients >= t.maxClients {
		t.cmu.Unlock()
		slog.Warn("Max clients reached, rejecting connection", "remote_addr", r.RemoteAddr)
		conn.Close()
		return
	}
	t.nclients++
	t.cmu.Unlock()

	go t.handleConnection(conn, r.RemoteAddr)
}

func (t *WSTransport) handleConnection(conn *websocket.Conn, remoteAddr string) {
	slog.Info("Client connected", "remote_addr", remoteAddr)

	client := NewWSClient(conn, remoteAddr)

	defer func() {
		client.Session().Close()

		t.cmu.Lock()
		delete(t.clients, client.Session().ID)
		t.nclients--
		t.cmu.Unlock()

		t.onDisconnect(client)

		conn.Close()
		slog.Info("Client disconnected", "remote_addr", remoteAddr, "session", client.Session().ID)
	}()

	if err := t.onConnect(client); err != nil {
		slog.Error("Failed to register client", "remote_addr", remoteAddr, "error", err.Error())
		return
	}

	t.cmu.Lock()
	t.clients[client.Session().ID] = client
	t.cmu.Unlock()

	// Messages are dispatched synchronously, so each session processes
	// its commands strictly in arrival order.
	for {
		_, messageBytes, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				slog.Warn("WebSocket connection error", "remote_addr", remoteAddr, "error", err)
			}
			break
		}

		t.onMessage(client, messageBytes)
	}
}

func (t *WSTransport) Shutdown() error {
	slog.Info("Shutting down WebSocket server", "addr", t.Addr)
	t.connected = false
	if t.server != nil {
		return t.server.Close()
	}
	return nil
}

func (t *WSTransport) OnMessage(fn func(Client, []byte)) {
	t.onMessage = fn
}

func (t *WSTransport) OnConnect(fn func(Client) error) {
	t.onConnect = fn
}

func (t *WSTransport) OnDisconnect(fn func(Client)) {
	t.onDisconnect = fn
}

func (t *WSTransport) SetMaxClients(n int) {
	t.maxClients = n
}
