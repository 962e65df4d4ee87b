package main

import (
	"chat-relay/domain"
	"chat-relay/infrastructure/discovery"
	grpcserver "chat-relay/infrastructure/grpc/server"
	tcpserver "chat-relay/infrastructure/tcp/server"
	"chat-relay/internal"
	"chat-relay/observability"
	"chat-relay/repositories"
	"chat-relay/runtime"
	"chat-relay/runtime/workers"
	"chat-relay/services"
	"context"
	"fmt"
	"log/slog"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Netflix/go-env"
	"github.com/dgraph-io/badger/v4"
	"github.com/joho/godotenv"
	"github.com/mama165/sdk-go/logs"
)

// Exit codes reported to the service manager.
const (
	exitOK      = 0
	exitRuntime = 1
	exitConfig  = 2
)

func main() {
	code, err := run()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Relay server terminated with error: %v\n", err)
	}
	os.Exit(code)
}

// run wires every component and owns the shutdown order, so deferred cleanups
// always execute before the process exits.
func run() (int, error) {
	// 1. Configuration & Logger
	_ = godotenv.Load()
	var config internal.Config
	if _, err := env.UnmarshalFromEnviron(&config); err != nil {
		return exitConfig, fmt.Errorf("config error: %w", err)
	}
	if err := config.Validate(); err != nil {
		return exitConfig, err
	}
	log := logs.GetLoggerFromString(config.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 2. Transfer journal (BadgerDB)
	db, err := badger.Open(buildBadgerOpts(config, log, ctx))
	if err != nil {
		return exitRuntime, fmt.Errorf("database opening failed: %w", err)
	}
	defer func() {
		log.Info("Closing BadgerDB...")
		_ = db.Close()
	}()
	journal := repositories.NewTransferRepository(db, log, config.JournalTTL)

	// 3. Relay core
	monitoring := observability.NewMonitoringManager(log)
	registry := runtime.NewRegistry()
	router := runtime.NewRouter(registry, log)
	offers := runtime.NewOfferBook(config.OfferTTL)
	coordinator := runtime.NewCoordinator(ctx, log, registry, router, offers,
		runtime.NewAddressResolver(config.AdvertiseHost), config.Coordinator()).
		WithJournal(journal).
		WithMonitoring(monitoring)
	service := services.NewChatService(log, registry, router, coordinator, config.UniqueNames)
	parser := domain.NewCommandParser(config.QuitKeyword)

	// 4. Control endpoint
	chatServer := tcpserver.NewChatServer(log, service, parser, config.WriteTimeout)
	if err := chatServer.Listen(config.Address()); err != nil {
		return exitRuntime, err
	}

	// 5. Background workers
	sup := workers.NewSupervisor(log, config.RestartInterval)
	sup.Add(
		workers.NewOfferReaperWorker(log, offers, config.OfferSweepInterval),
		workers.NewStatsReporterWorker(log, monitoring, registry, offers, config.StatsInterval),
	)
	supDone := make(chan struct{})
	go func() {
		defer close(supDone)
		sup.Run(ctx)
	}()
	defer func() {
		sup.Stop()
		<-supDone
		log.Info("Background workers stopped")
	}()

	// 6. Health endpoint
	var health *grpcserver.HealthServer
	if config.HealthPort > 0 {
		listener, err := net.Listen("tcp", config.HealthAddress())
		if err != nil {
			return exitRuntime, fmt.Errorf("failed to listen on %s: %w", config.HealthAddress(), err)
		}
		health = grpcserver.NewHealthServer(log)
		go func() {
			if err := health.Serve(listener); err != nil {
				log.Error("Health server stopped", "error", err)
			}
		}()
		defer health.Stop()
		health.SetServing(true)
	}

	// 7. Debug inspector
	if config.DebugPort > 0 {
		inspector := internal.NewDebugServer(log, journal, monitoring, 100)
		if err := inspector.Start(config.DebugAddress()); err != nil {
			return exitRuntime, err
		}
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			_ = inspector.Shutdown(shutdownCtx)
		}()
	}

	// 8. mDNS announce
	if config.MDNSAnnounce {
		announcer := discovery.NewAnnouncer(log)
		hostname, _ := os.Hostname()
		port := chatServer.Addr().(*net.TCPAddr).Port
		if err := announcer.Announce(fmt.Sprintf("chat-relay-%s", hostname), port, config.RelayRoleTags); err != nil {
			log.Warn("mDNS announce failed", "error", err)
		} else {
			defer announcer.Shutdown()
		}
	}

	// 9. Serve until a signal arrives
	log.Info("Chat relay listening", "address", chatServer.Addr().String(),
		"unique_names", config.UniqueNames, "role_tags", config.RelayRoleTags)
	if err := chatServer.Serve(ctx); err != nil {
		return exitRuntime, err
	}

	// 10. Final cleanup
	if health != nil {
		health.SetServing(false)
	}
	coordinator.Wait()
	log.Info("Program stopped cleanly")
	return exitOK, nil
}

// buildBadgerOpts keeps the journal in memory when no directory is configured.
func buildBadgerOpts(config internal.Config, logger *slog.Logger, ctx context.Context) badger.Options {
	options := badger.DefaultOptions(config.BadgerFilepath)
	if config.BadgerFilepath == "" {
		options = badger.DefaultOptions("").WithInMemory(true)
	}

	if logger.Enabled(ctx, slog.LevelDebug) {
		options = options.WithLoggingLevel(badger.DEBUG)
	} else {
		options = options.WithLoggingLevel(badger.WARNING)
	}
	return options
}
