// Command teleop bridges VR controller deltas from the transport to the
// arm IK solver.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/walkielabs/go-walkie/internal/config"
	"github.com/walkielabs/go-walkie/internal/log"
	"github.com/walkielabs/go-walkie/pkg/robot"
	"github.com/walkielabs/go-walkie/pkg/teleop"
	"github.com/walkielabs/go-walkie/pkg/transport"
)

func main() {
	_ = godotenv.Load()

	log.Init(config.LogLevel())
	logger := log.With("cmd", "teleop")

	cfg := transport.DefaultConfig()
	cfg.URL = config.Get("NATS_URL", config.DefaultNATSURL)

	client, err := transport.New(cfg, log.L())
	if err != nil {
		logger.Error("invalid transport config", "error", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		fmt.Println("\nshutting down...")
		cancel()
	}()

	if err := client.ConnectWithRetry(ctx); err != nil {
		logger.Error("failed to connect transport", "error", err)
		os.Exit(1)
	}
	defer client.Close()

	daemon := robot.NewHTTPClient(config.DaemonAddr())

	handler := teleop.New(client, daemon, daemon, client.Topics().ArmPose(), nil, log.L())
	if err := handler.Start(); err != nil {
		logger.Error("failed to start teleop session", "error", err)
		os.Exit(1)
	}
	logger.Info("teleop session active", "topic", client.Topics().ArmPose())

	<-ctx.Done()

	if err := handler.Stop(); err != nil {
		logger.Warn("failed to stop teleop session", "error", err)
	}
}
