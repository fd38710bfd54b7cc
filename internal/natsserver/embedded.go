// Package natsserver runs an in-process NATS server so a single narrad
// binary needs no external broker.
package natsserver

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/narralabs/narra-core/internal/config"
	"github.com/nats-io/nats-server/v2/server"
)

// Narration replies carry whole MP3 files inline, so the payload ceiling is
// raised well past the NATS 1 MiB default.
const maxPayload = 16 << 20

const readyTimeout = 5 * time.Second

type EmbeddedServer struct {
	ns  *server.Server
	log *slog.Logger
}

// Start brings up the embedded server when bus.embedded is enabled and
// returns nil otherwise. Signal handling stays with the daemon; the server
// never installs its own handlers.
func Start(cfg config.BusConfig, log *slog.Logger) (*EmbeddedServer, error) {
	if !cfg.Embedded {
		return nil, nil
	}

	opts := &server.Options{
		ServerName: "narra-bus",
		Host:       "0.0.0.0",
		Port:       cfg.Port,
		MaxPayload: maxPayload,
		NoSigs:     true,
	}

	ns, err := server.NewServer(opts)
	if err != nil {
		return nil, fmt.Errorf("create embedded NATS server: %w", err)
	}

	go ns.Start()
	if !ns.ReadyForConnections(readyTimeout) {
		ns.Shutdown()
		return nil, fmt.Errorf("embedded NATS server not ready after %s", readyTimeout)
	}

	log.Info("embedded NATS server started", slog.String("url", ns.ClientURL()))

	return &EmbeddedServer{ns: ns, log: log}, nil
}

// ClientURL is the address local services connect to. Useful when the server
// was started on an ephemeral port.
func (e *EmbeddedServer) ClientURL() string {
	return e.ns.ClientURL()
}

func (e *EmbeddedServer) Shutdown() {
	if e == nil || e.ns == nil {
		return
	}
	e.log.Info("shutting down embedded NATS server")
	e.ns.Shutdown()
	e.ns.WaitForShutdown()
}
