package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"
	"unicode/utf8"

	"github.com/eden/gameserver/internal/command"
	"github.com/eden/gameserver/internal/command/builtin"
	"github.com/eden/gameserver/internal/config"
	"github.com/eden/gameserver/internal/core/event"
	"github.com/eden/gameserver/internal/data"
	"github.com/eden/gameserver/internal/handler"
	gonet "github.com/eden/gameserver/internal/net"
	"github.com/eden/gameserver/internal/net/packet"
	"github.com/eden/gameserver/internal/persist"
	"github.com/eden/gameserver/internal/schedule"
	"github.com/eden/gameserver/internal/scripting"
	"github.com/eden/gameserver/internal/update"
	"github.com/eden/gameserver/internal/world"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		os.Exit(1)
	}
}

// ── Startup display helpers ────────────────────────────────────────

func printBanner(serverName string, worldID uint32) {
	fmt.Println()
	fmt.Println("\033[36;1m  ┌───────────────────────────────────────────┐\033[0m")
	fmt.Println("\033[36;1m  │\033[0m            eden world server              \033[36;1m│\033[0m")
	fmt.Println("\033[36;1m  └───────────────────────────────────────────┘\033[0m")
	fmt.Println()
	fmt.Printf("  \033[1mserver:\033[0m %s \033[90m(world %d)\033[0m\n\n", serverName, worldID)
}

func printSection(title string) {
	lineLen := 46 - utf8.RuneCountInString(title) - 1
	if lineLen < 3 {
		lineLen = 3
	}
	fmt.Printf("  \033[33m── %s %s\033[0m\n", title, strings.Repeat("─", lineLen))
}

func printStat(label string, count int) {
	numStr := fmt.Sprintf("%d", count)
	dotsLen := 42 - utf8.RuneCountInString(label) - len(numStr)
	if dotsLen < 3 {
		dotsLen = 3
	}
	fmt.Printf("  %s \033[90m%s\033[0m \033[32m%s\033[0m\n", label, strings.Repeat("·", dotsLen), numStr)
}

func printOK(msg string) {
	fmt.Printf("  \033[32m✓\033[0m %s\n", msg)
}

func printReady(msg string) {
	fmt.Printf("  \033[32m▶\033[0m %s\n", msg)
}

// ── Main server logic ─────────────────────────────────────────────

func run() error {
	// 1. Load config
	cfgPath := "config/server.toml"
	if p := os.Getenv("EDEN_CONFIG"); p != "" {
		cfgPath = p
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	// 2. Init logger
	log, err := newLogger(cfg.Logging)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer log.Sync()

	printBanner(cfg.Server.Name, cfg.Server.WorldID)

	// 3. Connect to PostgreSQL and run migrations
	printSection("database")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	db, err := persist.NewDB(ctx, cfg.Database, log)
	if err != nil {
		return fmt.Errorf("database: %w", err)
	}
	defer db.Close()
	printOK("PostgreSQL connected")

	if err := persist.RunMigrations(ctx, db.Pool, log); err != nil {
		return fmt.Errorf("migrations: %w", err)
	}
	printOK("migrations applied")

	// 4. Build the world and load maps
	printSection("world")

	bus := event.NewBus(log)
	prefix, _ := utf8.DecodeRuneInString(cfg.World.CommandPrefix)
	commands := command.NewManager(prefix, log)
	syncer := update.NewClientSynchronizer()
	ws := world.NewService(world.Options{
		Commands:     commands,
		Synchronizer: syncer,
		Bus:          bus,
		Log:          log,
	})

	defs, err := data.LoadMapDefinitions(cfg.World.MapDir)
	if err != nil {
		return fmt.Errorf("load maps: %w", err)
	}
	if len(defs) == 0 {
		return fmt.Errorf("no maps in %s", cfg.World.MapDir)
	}
	for _, def := range defs {
		if err := ws.LoadMap(def); err != nil {
			return fmt.Errorf("load map %d: %w", def.ID, err)
		}
	}
	spawn, err := startPosition(defs, cfg.World.StartMap)
	if err != nil {
		return err
	}
	printStat("maps", ws.Maps().Len())
	printStat("npcs", ws.Registry().Npcs.Len())
	printStat("mobs", ws.Registry().Mobs.Len())

	// 5. Commands: built-ins first so scripts can override them
	builtin.RegisterAll(commands, ws, builtin.Options{
		GroundItemTTL: cfg.World.GroundItemTTL,
		MaxSpawnCount: cfg.World.MaxSpawnCount,
	})
	engine, err := scripting.NewEngine(cfg.World.ScriptDir, ws, commands, log)
	if err != nil {
		return fmt.Errorf("scripting: %w", err)
	}
	defer engine.Close()
	printStat("scripted commands", len(engine.Commands()))
	printStat("commands", len(commands.Identifiers()))

	subscribeWorldEvents(bus, log)

	// 6. Register packet handlers
	pktReg := packet.NewRegistry(log)
	handler.RegisterAll(pktReg, &handler.Deps{
		World:    ws,
		Factions: persist.NewFactionRepo(db),
		Config:   cfg,
		Spawn:    spawn,
		Log:      log,
	})

	// 7. Start network server
	netServer, err := gonet.NewServer(cfg.Network.BindAddress, gonet.SessionOptions{
		OutQueueSize: cfg.Network.OutQueueSize,
		MaxFrameSize: cfg.Network.MaxFrameSize,
		ReadTimeout:  cfg.Network.ReadTimeout,
		WriteTimeout: cfg.Network.WriteTimeout,
	}, pktReg, log)
	if err != nil {
		return fmt.Errorf("listen: %w", err)
	}
	go netServer.AcceptLoop()

	if n := cfg.World.StatusReportTick; n > 0 {
		status := schedule.Every("status report", n, n, func() error {
			fields := []zap.Field{
				zap.Uint64("tick", ws.Ticks()),
				zap.Duration("tick_cost", ws.LastTickDuration()),
				zap.Int("sessions", netServer.SessionCount()),
				zap.Int("characters", ws.CharacterCount()),
				zap.Int("npcs", ws.Registry().Npcs.Len()),
				zap.Int("mobs", ws.Registry().Mobs.Len()),
				zap.Int("items", ws.Registry().Items.Len()),
				zap.Int("tasks", ws.Scheduler().Len()),
			}
			log.Info("world status", append(fields, db.PoolFields()...)...)
			return nil
		})
		if err := ws.Schedule(status); err != nil {
			return fmt.Errorf("schedule status report: %w", err)
		}
	}

	// 8. Start game loop
	shutdownCh := make(chan os.Signal, 1)
	signal.Notify(shutdownCh, syscall.SIGINT, syscall.SIGTERM)

	ticker := time.NewTicker(cfg.Network.TickRate)
	defer ticker.Stop()

	printSection("ready")
	printReady(fmt.Sprintf("listening on %s", netServer.Addr().String()))
	printReady(fmt.Sprintf("game loop started (tick: %s)", cfg.Network.TickRate))
	fmt.Println()

	for {
		select {
		case <-ticker.C:
			ws.Tick(cfg.Network.TickRate)
		case sig := <-shutdownCh:
			log.Info("shutdown signal received", zap.String("signal", sig.String()))
			netServer.Shutdown()
			// Apply the unregistrations queued by closing sessions.
			ws.Tick(cfg.Network.TickRate)
			log.Info("server stopped")
			return nil
		}
	}
}

// startPosition returns the spawn point of the configured start map, or of
// the first loaded map.
func startPosition(defs []*data.MapDefinition, startMap uint16) (world.Position, error) {
	def := defs[0]
	if startMap != 0 {
		def = nil
		for _, d := range defs {
			if d.ID == startMap {
				def = d
				break
			}
		}
		if def == nil {
			return world.Position{}, fmt.Errorf("start map %d: %w", startMap, world.ErrUnknownMap)
		}
	}
	p := def.SpawnPoint()
	return world.NewPosition(def.ID, p.X, p.Y, p.Z), nil
}

func subscribeWorldEvents(bus *event.Bus, log *zap.Logger) {
	event.Subscribe(bus, func(e event.CharacterEntered) {
		log.Info("character entered world",
			zap.String("character", e.Name),
			zap.Uint32("id", e.CharacterID),
			zap.Uint16("map", e.MapID),
		)
	})
	event.Subscribe(bus, func(e event.CharacterLeft) {
		log.Info("character left world",
			zap.String("character", e.Name),
			zap.Uint32("id", e.CharacterID),
		)
	})
	event.Subscribe(bus, func(e event.EntityDespawned) {
		log.Debug("entity despawned", zap.String("kind", e.Kind), zap.Uint32("id", e.ID))
	})
}

func newLogger(cfg config.LoggingConfig) (*zap.Logger, error) {
	var level zapcore.Level
	if err := level.UnmarshalText([]byte(cfg.Level)); err != nil {
		level = zapcore.InfoLevel
	}

	var zapCfg zap.Config
	if cfg.Format == "json" {
		zapCfg = zap.NewProductionConfig()
	} else {
		zapCfg = zap.NewDevelopmentConfig()
		zapCfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
		zapCfg.EncoderConfig.EncodeTime = zapcore.TimeEncoderOfLayout("15:04:05")
		zapCfg.EncoderConfig.ConsoleSeparator = "  "
		zapCfg.DisableCaller = true
		zapCfg.DisableStacktrace = true
	}
	zapCfg.Level = zap.NewAtomicLevelAt(level)

	return zapCfg.Build()
}
