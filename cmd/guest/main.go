package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/aquamarinepk/aqm"
	"github.com/aquamarinepk/aqm/middleware"
	"github.com/bistroclub/bistro/internal/cart"
	"github.com/bistroclub/bistro/internal/guest"
	"github.com/bistroclub/bistro/internal/help"
	"github.com/bistroclub/bistro/internal/menu"
	"github.com/bistroclub/bistro/internal/orders"
	"github.com/bistroclub/bistro/internal/storage"
	"github.com/bistroclub/bistro/internal/table"
)

const (
	appNamespace = "GUEST"
	appName      = "guest"
	appVersion   = "0.1.0"
)

func main() {
	config, err := aqm.LoadConfig(appNamespace, os.Args[1:])
	if err != nil {
		log.Fatalf("Cannot setup %s(%s): %v", appName, appVersion, err)
	}

	logLevel, _ := config.GetString("log.level")
	logger := aqm.NewLogger(logLevel)

	ctx, stop := signal.NotifyContext(
		context.Background(),
		os.Interrupt,
		syscall.SIGINT,
		syscall.SIGTERM,
		syscall.SIGQUIT,
	)
	defer stop()

	storageDir, _ := config.GetString("storage.dir")
	if storageDir == "" {
		storageDir = "./data/guest"
	}
	store := storage.NewFileStore(storageDir, logger)

	catalog := menu.NewCatalog()
	engine := cart.NewEngine(store, logger)
	tables := table.NewContext(store, logger)

	natsURL, _ := config.GetString("nats.url")
	if natsURL == "" {
		natsURL = "nats://localhost:4222"
	}

	board := help.NewBoard(logger)
	channel := help.NewChannel(help.Config{URL: natsURL}, board, logger)

	ordersURL, _ := config.GetString("orders.url")
	if ordersURL == "" {
		ordersURL = "http://localhost:8084/api/order"
	}
	client := orders.NewClient(ordersURL, catalog, logger)

	handler := guest.NewHandler(catalog, engine, tables, client, channel, config, logger)

	stack := middleware.DefaultStack(middleware.StackOptions{
		Logger: logger,
	})

	options := []aqm.Option{
		aqm.WithConfig(config),
		aqm.WithLogger(logger),
		aqm.WithHTTPMiddleware(stack...),
		aqm.WithHTTPServerModules("web.port", handler),
		aqm.WithLifecycle(channel),
		aqm.WithHealthChecks(appName),
	}

	ms := aqm.NewMicro(options...)
	logger.Infof("Starting %s(%s)", appName, appVersion)

	if err := ms.Run(ctx); err != nil {
		log.Fatalf("%s(%s) stopped with error: %v", appName, appVersion, err)
	}

	logger.Infof("%s(%s) stopped", appName, appVersion)
}
