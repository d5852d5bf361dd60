package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/scenecore/scenecore/internal/collision"
	"github.com/scenecore/scenecore/internal/config"
	"github.com/scenecore/scenecore/internal/core/ecs"
	"github.com/scenecore/scenecore/internal/core/event"
	coresys "github.com/scenecore/scenecore/internal/core/system"
	"github.com/scenecore/scenecore/internal/data"
	"github.com/scenecore/scenecore/internal/persist"
	"github.com/scenecore/scenecore/internal/scene"
	"github.com/scenecore/scenecore/internal/scripting"
	"github.com/scenecore/scenecore/internal/system"
	"github.com/scenecore/scenecore/internal/tags"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		os.Exit(1)
	}
}

// ── Startup display helpers ────────────────────────────────────────

func printBanner(cfgPath string) {
	fmt.Println()
	fmt.Println("\033[36;1m  ┌───────────────────────────────────────────┐\033[0m")
	fmt.Println("\033[36;1m  │\033[0m             scenecore  v0.1.0             \033[36;1m│\033[0m")
	fmt.Println("\033[36;1m  │\033[0m     scene graph · collision · scripting   \033[36;1m│\033[0m")
	fmt.Println("\033[36;1m  └───────────────────────────────────────────┘\033[0m")
	fmt.Println()
	fmt.Printf("  \033[1mconfig:\033[0m %s\n\n", cfgPath)
}

func printSection(title string) {
	lineLen := max(46-len(title)-1, 3)
	fmt.Printf("  \033[33m── %s %s\033[0m\n", title, strings.Repeat("─", lineLen))
}

func printStat(label string, count int) {
	numStr := fmt.Sprintf("%d", count)
	dotsLen := max(42-len(label)-len(numStr), 3)
	fmt.Printf("  %s \033[90m%s\033[0m \033[32m%s\033[0m\n", label, strings.Repeat("·", dotsLen), numStr)
}

func printOK(msg string) {
	fmt.Printf("  \033[32m✓\033[0m %s\n", msg)
}

func printReady(msg string) {
	fmt.Printf("  \033[32m▶\033[0m %s\n", msg)
}

// ── Engine assembly ───────────────────────────────────────────────

type engine struct {
	world     *ecs.World
	graph     *scene.Graph
	bus       *event.Bus
	collision *collision.System
	tags      *tags.Store
	mode      collision.RaycastMode
}

func newEngine(cfg *config.Config, log *zap.Logger) (*engine, error) {
	mode, err := collision.ParseRaycastMode(cfg.Collision.RaycastMode)
	if err != nil {
		return nil, err
	}
	e := &engine{
		world: ecs.NewWorld(),
		graph: scene.NewGraph(cfg.Scene.InitialCapacity, log.Named("scene")),
		bus:   event.NewBus(),
		tags:  tags.NewStore(cfg.Scene.PoolPageSize),
		mode:  mode,
	}
	e.collision = collision.New(e.graph, cfg.Collision.LeafSize, log.Named("collision"))
	e.collision.Subscribe(e.bus)

	systems := e.world.Systems()
	ecs.CreateSystem(systems, e.graph)
	ecs.RegisterComponent[scene.Graph, scene.Geometry](systems)
	ecs.CreateSystem(systems, e.collision)
	ecs.RegisterComponent[collision.System, collision.Collider](systems)
	ecs.CreateSystem(systems, e.tags)
	ecs.RegisterComponent[tags.Store, tags.Tags](systems)
	e.world.Registry().Register(e.tags)
	return e, nil
}

// populate fills the scene from the stored snapshot when one exists,
// otherwise from the scene file. Both sources are optional.
func (e *engine) populate(ctx context.Context, cfg *config.Config, repo *persist.SnapshotRepo, log *zap.Logger) error {
	var file *data.Scene
	if cfg.Scene.File != "" {
		s, err := data.LoadScene(cfg.Scene.File)
		if err != nil {
			return err
		}
		file = s
	}

	if repo != nil {
		rows, err := repo.Load(ctx, cfg.Database.SnapshotName)
		switch {
		case err == nil:
			var meshes scene.MeshSource
			if file != nil {
				lib, err := file.MeshLibrary()
				if err != nil {
					return err
				}
				e.graph.SetMeshSource(lib)
				meshes = lib
			}
			if err := persist.Restore(rows, e.graph, e.world.Entities(), meshes); err != nil {
				return fmt.Errorf("restore snapshot: %w", err)
			}
			// Colliders are not persisted; anything with geometry collides.
			e.graph.Each(func(o *scene.Object) {
				if scene.HasComponent[scene.Geometry](o) {
					e.collision.AddCollidable(o.ID)
				}
			})
			log.Info("scene restored", zap.String("snapshot", cfg.Database.SnapshotName), zap.Int("objects", len(rows)))
			return nil
		case errors.Is(err, persist.ErrSnapshotNotFound):
			log.Info("no snapshot stored", zap.String("snapshot", cfg.Database.SnapshotName))
		default:
			return err
		}
	}

	if file == nil {
		return nil
	}
	ids, err := file.Instantiate(e.world, e.graph)
	if err != nil {
		return fmt.Errorf("instantiate %s: %w", cfg.Scene.File, err)
	}
	log.Info("scene loaded", zap.String("file", cfg.Scene.File), zap.Int("entities", len(ids)))
	return nil
}

// ── Main loop ─────────────────────────────────────────────────────

func run() error {
	// 1. Load config
	cfg, cfgPath, err := config.LoadFromEnv()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	// 2. Init logger
	log, err := newLogger(cfg.Logging)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer log.Sync()

	printBanner(cfgPath)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	// 3. Optional PostgreSQL snapshots
	var repo *persist.SnapshotRepo
	if cfg.Database.Enabled {
		printSection("database")
		db, err := persist.NewDB(ctx, cfg.Database, log.Named("db"))
		if err != nil {
			return fmt.Errorf("database: %w", err)
		}
		defer db.Close()
		printOK("PostgreSQL connected")

		version, err := persist.RunMigrations(ctx, db.Pool)
		if err != nil {
			return fmt.Errorf("migrations: %w", err)
		}
		printOK(fmt.Sprintf("migrations applied (version %d)", version))
		repo = persist.NewSnapshotRepo(db)
		if cfg.Database.ResetSnapshot {
			if err := repo.Delete(ctx, cfg.Database.SnapshotName); err != nil {
				return err
			}
			printOK(fmt.Sprintf("snapshot %q reset", cfg.Database.SnapshotName))
		}
		fmt.Println()
	}

	// 4. Scene
	printSection("scene")
	eng, err := newEngine(cfg, log)
	if err != nil {
		return err
	}
	defer func() {
		if err := eng.world.Systems().Close(); err != nil {
			log.Warn("closing systems", zap.Error(err))
		}
	}()
	if err := eng.populate(ctx, cfg, repo, log); err != nil {
		return fmt.Errorf("populate scene: %w", err)
	}
	if repairs := eng.graph.FixParentChildOrphans(); repairs > 0 {
		printStat("link repairs", repairs)
	}
	eng.collision.SetupAcceleration()
	printStat("objects", eng.graph.Len())
	printStat("roots", len(eng.graph.Roots()))
	printStat("collidables", eng.collision.Stats().Collidables)
	printStat("tagged", eng.tags.Len())
	log.Debug("scene ready",
		zap.Uint64("revision", eng.graph.Revision()),
		zap.Uint64("last_entity", uint64(eng.world.Entities().Last())),
	)
	fmt.Println()

	// 5. Scripts
	printSection("scripting")
	lua, err := scripting.NewEngine(cfg.Scripting.Dir, scripting.Deps{
		World:     eng.world,
		Graph:     eng.graph,
		Collision: eng.collision,
		Mode:      eng.mode,
	}, log.Named("lua"))
	if err != nil {
		return fmt.Errorf("scripting: %w", err)
	}
	defer lua.Close()
	printOK(fmt.Sprintf("scripts loaded from %s", cfg.Scripting.Dir))
	fmt.Println()

	// 6. Register systems
	runner := coresys.NewRunner()
	runner.Register(system.NewDispatchSystem(eng.bus))
	runner.Register(system.NewScriptSystem(lua))
	runner.Register(system.NewTransformSystem(eng.graph, eng.bus))
	runner.Register(system.NewAccelerationSystem(eng.collision))
	var snapshots *system.SnapshotSystem
	if repo != nil {
		snapshots = system.NewSnapshotSystem(eng.graph, repo, cfg.Database.SnapshotName, log.Named("snapshot"), cfg.Database.SnapshotInterval)
		runner.Register(snapshots)
	}
	runner.Register(system.NewCleanupSystem(eng.world, eng.graph, eng.bus, log.Named("cleanup")))
	log.Debug("systems registered", zap.Int("count", runner.Len()))

	// 7. Tick loop
	shutdownCh := make(chan os.Signal, 1)
	signal.Notify(shutdownCh, syscall.SIGINT, syscall.SIGTERM)

	ticker := time.NewTicker(cfg.Scene.TickRate)
	defer ticker.Stop()

	printSection("running")
	printReady(fmt.Sprintf("tick loop started (tick: %s)", cfg.Scene.TickRate))
	if cfg.Scene.Ticks > 0 {
		printReady(fmt.Sprintf("stopping after %d ticks", cfg.Scene.Ticks))
	}
	fmt.Println()

	shutdown := func() {
		if snapshots != nil {
			_ = snapshots.SaveNow()
		}
		st := eng.collision.Stats()
		log.Info("scene stopped",
			zap.Uint64("ticks", runner.Ticks()),
			zap.Int("objects", eng.graph.Len()),
			zap.Int("bvh_builds", st.Builds),
		)
	}

	for {
		select {
		case <-ticker.C:
			runner.Tick(cfg.Scene.TickRate)
			if d := runner.LastTickDuration(); d > cfg.Scene.TickRate {
				log.Debug("tick overran", zap.Duration("took", d), zap.Duration("budget", cfg.Scene.TickRate))
			}
			if cfg.Scene.Ticks > 0 && runner.Ticks() >= uint64(cfg.Scene.Ticks) {
				shutdown()
				return nil
			}
		case sig := <-shutdownCh:
			log.Info("shutdown signal received", zap.String("signal", sig.String()))
			shutdown()
			return nil
		}
	}
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
