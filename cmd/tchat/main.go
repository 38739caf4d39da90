package main

import (
	"context"
	"errors"
	"flag"
	"net"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"

	"github.com/ledzpl/tchat/internal/chat"
	"github.com/ledzpl/tchat/pkg/tcpserver"
)

func main() {
	addr := flag.String("addr", ":8080", "TCP address for the chat server")
	maxClients := flag.Int("max-clients", chat.DefaultRegistryCapacity, "Maximum concurrent authenticated clients")
	queueSize := flag.Int("queue-size", chat.DefaultQueueCapacity, "Broadcast queue capacity")
	debug := flag.Bool("debug", false, "Enable debug logging")
	flag.Parse()

	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).
		With().Timestamp().Logger().
		Level(zerolog.InfoLevel)
	if *debug {
		logger = logger.Level(zerolog.DebugLevel)
	}

	registry := chat.NewRegistry(*maxClients)
	queue := chat.NewQueue(*queueSize)
	broadcaster := chat.NewBroadcaster(registry, queue, logger)
	server := tcpserver.New(*addr, logger)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	go broadcaster.Run(ctx)

	err := server.ListenAndServe(ctx, func(conn net.Conn) {
		chat.HandleSession(conn, registry, queue, logger)
	})

	if err != nil && !errors.Is(err, context.Canceled) {
		logger.Fatal().Err(err).Msg("server stopped with error")
	}
	logger.Info().Msg("server shut down")
}
