package client

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/hashicorp/mdns"
)

// serviceType matches the advertisement published by the gateway.
const serviceType = "_trainctl-ws._tcp"

// DiscoveredGateway is a gateway found on the local network.
type DiscoveredGateway struct {
	ServiceName string
	Address     string
	Port        int
	TXTRecords  []string
}

// Discover finds the first advertised gateway via mDNS.
func Discover(timeout time.Duration) (*DiscoveredGateway, error) {
	if timeout == 0 {
		timeout = 5 * time.Second
	}

	entriesCh := make(chan *mdns.ServiceEntry, 4)

	go func() {
		defer close(entriesCh)
		mdns.Lookup(serviceType, entriesCh)
	}()

	select {
	case entry := <-entriesCh:
		if entry == nil {
			return nil, fmt.Errorf("no %s service found", serviceType)
		}

		var address string
		if entry.AddrV4 != nil {
			address = entry.AddrV4.String()
		} else if entry.AddrV6 != nil {
			address = fmt.Sprintf("[%s]", entry.AddrV6.String())
		} else {
			return nil, fmt.Errorf("no valid address found for service")
		}

		gateway := &DiscoveredGateway{
			ServiceName: entry.Name,
			Address:     address,
			Port:        entry.Port,
			TXTRecords:  entry.InfoFields,
		}

		slog.Info("Discovered gateway",
			"service_name", gateway.ServiceName,
			"address", gateway.Address,
			"port", gateway.Port,
		)

		return gateway, nil

	case <-time.After(timeout):
		return nil, fmt.Errorf("mDNS discovery timeout for %s", serviceType)
	}
}
