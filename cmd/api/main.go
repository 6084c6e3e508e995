package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"fincopilot/internal/bootstrap"
	"fincopilot/pkg/logger"
)

const shutdownTimeout = 15 * time.Second

func main() {
	container := bootstrap.NewContainer()
	container.MustInit()
	defer logger.Sync()

	log := logger.Get()
	log.Infof("Starting %s in %s mode", container.Config.App.Name, container.Config.App.Env)

	if err := container.Start(); err != nil {
		log.Fatalf("Failed to start: %v", err)
	}

	waitForShutdown(container)
}

// waitForShutdown blocks until an interrupt arrives or the container
// cancels itself, then drains everything within the shutdown timeout.
func waitForShutdown(container *bootstrap.Container) {
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)

	select {
	case s := <-sig:
		logger.Get().Infof("Received signal: %v", s)
	case <-container.Context.Done():
		logger.Get().Info("Internal shutdown requested")
	}

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	container.Shutdown(ctx)
}
