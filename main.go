package main

import (
	"context"
	"crypto/tls"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/xasher20/HMI-Design-Development-in-IIOT/actuator"
	"github.com/xasher20/HMI-Design-Development-in-IIOT/audit"
	"github.com/xasher20/HMI-Design-Development-in-IIOT/auth"
	"github.com/xasher20/HMI-Design-Development-in-IIOT/certs"
	"github.com/xasher20/HMI-Design-Development-in-IIOT/config"
	"github.com/xasher20/HMI-Design-Development-in-IIOT/server"
	"github.com/xasher20/HMI-Design-Development-in-IIOT/web"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("Failed to load configuration", "error", err.Error())
		os.Exit(1)
	}

	// Logs go to stderr so the optional stdio MCP server owns stdout.
	logger := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.LogLevel})
	slog.SetDefault(slog.New(logger))

	var tlsConfig *tls.Config
	if cfg.Insecure {
		slog.Warn("TLS disabled by --insecure, serving plaintext control channels")
	} else {
		tlsConfig, err = certs.Load(cfg.CertFile, cfg.KeyFile)
		if err != nil {
			slog.Error("TLS provisioning failed, refusing to serve unencrypted", "error", err.Error())
			os.Exit(1)
		}
	}

	auditLog, err := audit.Open(cfg.AuditDB)
	if err != nil {
		slog.Error("Failed to open audit log", "error", err.Error())
		os.Exit(1)
	}
	defer auditLog.Close()

	serialTimeout := time.Duration(cfg.SerialTimeoutSeconds * float64(time.Second))
	coils := actuator.NewModbusCoilWriter(cfg.ModbusAddr)
	defer coils.Close()

	gateway := actuator.NewHardwareGateway(actuator.Options{
		OpenSerial:    actuator.SerialPortOpener(cfg.SerialDevice, cfg.SerialBaud, serialTimeout),
		WriteTimeout:  serialTimeout,
		Coils:         coils,
		GateCoil:      cfg.GateCoil,
		TurbineCoil:   cfg.TurbineCoil,
		GateActiveLow: cfg.GateActiveLow,
	})

	creds := auth.NewStore(cfg.UsersFile)
	dispatcher := server.NewDispatcher(gateway, creds, auditLog)

	controlServer := server.NewControlServer(dispatcher)
	wsTransport := server.NewWSTransport(cfg.ListenAddr, tlsConfig)
	wsTransport.SetMaxClients(cfg.MaxClients)
	controlServer.RegisterTransport(wsTransport)

	relay := web.NewRelay(cfg.RelayAddr, tlsConfig, gateway, creds, auditLog)
	go func() {
		if err := relay.Start(); err != nil {
			slog.Error("Relay server failed", "error", err.Error())
		}
	}()

	if cfg.EnableMDNS {
		mdnsServer, err := server.AdvertiseMDNS(cfg.ListenAddr)
		if err != nil {
			slog.Warn("mDNS advertisement unavailable", "error", err.Error())
		} else {
			defer mdnsServer.Shutdown()
		}
	}

	if cfg.EnableMCP {
		mcpServer := server.NewMCPServer(controlServer, auditLog)
		go func() {
			if err := mcpServer.Start(); err != nil {
				slog.Error("MCP server failed", "error", err.Error())
			}
		}()
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	controlServer.Start(ctx)

	if err := relay.Shutdown(); err != nil {
		slog.Error("There was an error when shutting down the relay server", "error", err.Error())
	}
}
