package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/aquamarinepk/aqm"
	"github.com/bistroclub/bistro/cmd/utils/internal/commands"
)

const (
	appName    = "bistro-utils"
	appVersion = "0.1.0"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	config, err := aqm.LoadConfig("UTILS", os.Args[2:])
	if err != nil {
		log.Fatalf("Cannot load config: %v", err)
	}

	logLevel, _ := config.GetString("log.level")
	if logLevel == "" {
		logLevel = "info"
	}
	logger := aqm.NewLogger(logLevel)

	ctx, stop := signal.NotifyContext(
		context.Background(),
		os.Interrupt,
		syscall.SIGINT,
		syscall.SIGTERM,
	)
	defer stop()

	command := os.Args[1]

	switch command {
	case "seed-help":
		err = commands.SeedHelp(ctx, config, logger)
	case "watch-help":
		err = commands.WatchHelp(ctx, config, logger)
	case "help", "-h", "--help":
		printUsage()
		return
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", command)
		printUsage()
		os.Exit(1)
	}

	if err != nil {
		log.Fatalf("%s failed: %v", command, err)
	}
}

func printUsage() {
	fmt.Printf(`%s (%s) - local development utilities

Usage:
  utils <command> [flags]

Commands:
  seed-help     Publish a batch of sample help requests to the hub topic
  watch-help    Subscribe to the help topic and print pushed events
  help          Show this help

Configuration (UTILS namespace):
  nats.url      Hub URL (default nats://localhost:4222)
  seed.count    Number of sample requests for seed-help (default 3)
`, appName, appVersion)
}
