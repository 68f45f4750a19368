// Command hostbot runs the Warcraft III custom-game hosting bot: it
// accepts game-client TCP connections, answers LAN/UDP discovery
// probes, and ticks every hosted game's lifecycle on a fixed interval.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/wc3hostbot/core/internal/bot"
	"github.com/wc3hostbot/core/internal/collab/store"
	"github.com/wc3hostbot/core/internal/config"
	"github.com/wc3hostbot/core/internal/conn"
	"github.com/wc3hostbot/core/internal/core"
	"github.com/wc3hostbot/core/internal/game"
	"github.com/wc3hostbot/core/internal/netio"
)

const (
	ConfigPath   = "config/hostbot.yaml"
	tickInterval = 50 * time.Millisecond
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		slog.Info("shutting down", "signal", sig)
		cancel()
	}()

	if err := run(ctx); err != nil {
		slog.Error("fatal", "err", err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	cfgPath := config.ConfigPathFromEnv(ConfigPath)
	cfg, err := config.LoadBotConfig(cfgPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: parseLogLevel(cfg.LogLevel),
	})))
	slog.Info("hostbot starting", "bind", cfg.BindAddress, "game_port", cfg.GamePort, "discovery_port", cfg.DiscoveryPort)

	if err := config.Watch(ctx, cfgPath, func(reloaded config.BotConfig) {
		cfg = reloaded
		slog.Info("config reloaded", "path", cfgPath)
	}); err != nil {
		slog.Warn("config hot-reload unavailable", "err", err)
	}

	if dsn := os.Getenv("HOSTBOT_DATABASE_DSN"); dsn != "" {
		if err := store.RunMigrations(ctx, dsn); err != nil {
			return fmt.Errorf("running persisted-state migrations: %w", err)
		}
		persisted, err := store.New(ctx, dsn)
		if err != nil {
			return fmt.Errorf("connecting persisted-state store: %w", err)
		}
		defer persisted.Close()
		slog.Info("persisted-state store connected")
	}

	registry := game.NewRegistry()
	conns := bot.NewConnTable()
	// host is the command surface an external collaborator (CLI, chat
	// bridge, internal/collab/bus wrapper) drives; this binary only
	// wires the sockets and ticks games, so nothing here calls it.
	_ = bot.NewHost(registry, conns)

	scheduler := bot.NewScheduler(registry, conns, tickInterval)

	gameAddr := fmt.Sprintf("%s:%d", cfg.BindAddress, cfg.GamePort)
	gameLn, err := netio.ListenTCP(ctx, gameAddr)
	if err != nil {
		return fmt.Errorf("listening on game port: %w", err)
	}
	defer gameLn.Close()

	acceptor := bot.NewAcceptor(registry, conns, admissionPolicy(cfg))

	discoveryAddr := fmt.Sprintf("%s:%d", cfg.BindAddress, cfg.DiscoveryPort)
	udpRaw, err := netio.ListenUDP(ctx, discoveryAddr)
	if err != nil {
		return fmt.Errorf("listening on discovery port: %w", err)
	}
	udpSock := netio.NewUDPSocket(udpRaw)
	defer udpSock.Close()
	discovery := bot.NewDiscoveryDispatcher(registry, udpSock, cfg.DiscoveryPort)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		slog.Info("starting game scheduler", "interval", tickInterval)
		if err := scheduler.Start(gctx); err != nil && gctx.Err() == nil {
			return fmt.Errorf("scheduler: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		slog.Info("accepting game connections", "addr", gameAddr)
		if err := acceptor.Serve(gctx, gameLn); err != nil && gctx.Err() == nil {
			return fmt.Errorf("acceptor: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		slog.Info("discovery dispatcher started", "addr", discoveryAddr)
		ticker := time.NewTicker(time.Second)
		defer ticker.Stop()
		epoch := time.Now()
		for {
			select {
			case <-gctx.Done():
				return nil
			case <-ticker.C:
				now := core.Tick(time.Since(epoch).Milliseconds())
				discovery.PollIncoming(now)
				discovery.Tick(now)
			}
		}
	})

	if err := g.Wait(); err != nil {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}

func parseLogLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func admissionPolicy(cfg config.BotConfig) conn.Policy {
	policy := conn.DefaultPolicy()
	switch cfg.UnsafeNameHandler {
	case "deny":
		policy.NameHandler = conn.NameDeny
	case "allow":
		policy.NameHandler = conn.NameAllow
	default:
		policy.NameHandler = conn.NameCensor
	}
	return policy
}
