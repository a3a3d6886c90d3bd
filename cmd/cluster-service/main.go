package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"cluster-service/internal/app"
	"cluster-service/internal/config"
	"cluster-service/internal/logger"
)

func main() {
	var serviceLogLevel int
	var configPath string
	flag.IntVar(&serviceLogLevel, "log", 3, "Service log level (0=NONE, 1=ERROR, 2=WARN, 3=INFO, 4=DEBUG)")
	flag.StringVar(&configPath, "config", "/etc/cluster-service/config.toml", "Deployment config path")

	flag.Parse()

	// Create standard logger with appropriate format
	var stdLogger *log.Logger
	if os.Getenv("INVOCATION_ID") != "" {
		// Running under systemd, use minimal format
		stdLogger = log.New(os.Stdout, "", 0)
	} else {
		// Running interactively, use timestamps
		stdLogger = log.New(os.Stdout, "", log.LstdFlags|log.Lmicroseconds|log.Lmsgprefix)
	}

	l := logger.NewLogger(stdLogger, logger.LogLevel(serviceLogLevel))

	l.Infof("Starting cluster service...")

	cfg, err := config.Load(configPath)
	if err != nil {
		l.Fatalf("Failed to load config: %v", err)
	}

	c := app.Bootstrap(cfg, l)
	a := app.New(c)

	ctx, cancel := context.WithCancel(context.Background())

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigChan
		l.Infof("Received signal %v, shutting down...", sig)
		cancel()
	}()

	if err := a.Run(ctx); err != nil {
		l.Fatalf("Service failed: %v", err)
	}
	c.Clear()
	l.Infof("Shutdown complete")
}
