package server

import (
	"fmt"
	"log/slog"
	"net"
	"os"
	"strconv"

	"github.com/hashicorp/mdns"
)

// MDNSService is the mDNS service type advertised for the websocket
// control endpoint; HMI panels on the exhibit LAN discover the gateway
// through it instead of hardcoding an address.
const MDNSService = "_trainctl-ws._tcp"

// AdvertiseMDNS announces the websocket endpoint on the local network.
// The returned server must be shut down on exit.
func AdvertiseMDNS(listenAddr string) (*mdns.Server, error) {
	_, portStr, err := net.SplitHostPort(listenAddr)
	if err != nil {
		return nil, fmt.Errorf("invalid listen address %q: %w", listenAddr, err)
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		return nil, fmt.Errorf("invalid listen port %q: %w", portStr, err)
	}

	host, err := os.Hostname()
	if err != nil {
		host = "train-gateway"
	}

	service, err := mdns.NewMDNSService(host, MDNSService, "", "", port, nil,
		[]string{"train control gateway websocket endpoint"})
	if err != nil {
		return nil, fmt.Errorf("failed to create mDNS service: %w", err)
	}

	srv, err := mdns.NewServer(&mdns.Config{Zone: service})
	if err != nil {
		return nil, fmt.Errorf("failed to start mDNS server: %w", err)
	}

	slog.Info("Advertising gateway over mDNS", "service", MDNSService, "port", port)
	return srv, nil
}
