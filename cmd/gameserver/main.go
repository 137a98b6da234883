// Package main provides the game server binary: it loads configuration and
// content, connects storage, and runs the rules engine service under the
// lifecycle manager.
package main

import (
	"context"
	"flag"
	"log"
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/ravenfell/server/internal/config"
	"github.com/ravenfell/server/internal/game/combat"
	"github.com/ravenfell/server/internal/game/dice"
	"github.com/ravenfell/server/internal/game/effect"
	"github.com/ravenfell/server/internal/game/inventory"
	"github.com/ravenfell/server/internal/game/loot"
	"github.com/ravenfell/server/internal/game/monster"
	"github.com/ravenfell/server/internal/game/passive"
	"github.com/ravenfell/server/internal/game/progression"
	"github.com/ravenfell/server/internal/game/ruleset"
	"github.com/ravenfell/server/internal/gameserver"
	"github.com/ravenfell/server/internal/observability"
	"github.com/ravenfell/server/internal/scripting"
	"github.com/ravenfell/server/internal/server"
	"github.com/ravenfell/server/internal/storage/postgres"
)

func main() {
	start := time.Now()

	configPath := flag.String("config", "configs/dev.yaml", "path to configuration file")
	flag.Parse()

	ctx := context.Background()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("loading config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logging)
	if err != nil {
		log.Fatalf("initializing logger: %v", err)
	}
	defer logger.Sync()

	logger.Info("starting game server", zap.String("name", cfg.Server.Name))

	src := dice.NewCryptoSource()
	roller := dice.NewLoggedRoller(src, logger)

	content, err := loadContent(cfg.Content, logger)
	if err != nil {
		logger.Fatal("loading content", zap.Error(err))
	}

	// Connect to PostgreSQL for account and character persistence.
	dbStart := time.Now()
	pool, err := postgres.NewPool(ctx, cfg.Database)
	if err != nil {
		logger.Fatal("connecting to database", zap.Error(err))
	}
	logger.Info("database connected",
		zap.String("host", cfg.Database.Host),
		zap.Duration("elapsed", time.Since(dbStart)),
	)
	charRepo := postgres.NewCharacterRepository(pool.DB())
	progressRepo := postgres.NewProgressRepository(pool.DB())

	// Initialise the effect hook scripting engine.
	var scriptMgr *scripting.Manager
	if cfg.Content.ScriptsDir != "" {
		if info, statErr := os.Stat(cfg.Content.ScriptsDir); statErr == nil && info.IsDir() {
			scriptStart := time.Now()
			scriptMgr = scripting.NewManager(roller, logger)
			if err := scriptMgr.LoadGlobal(cfg.Content.ScriptsDir, cfg.Scripting.InstructionLimit); err != nil {
				logger.Fatal("loading effect scripts",
					zap.String("dir", cfg.Content.ScriptsDir), zap.Error(err))
			}
			logger.Info("effect scripts loaded",
				zap.String("dir", cfg.Content.ScriptsDir),
				zap.Duration("elapsed", time.Since(scriptStart)))
		} else {
			logger.Warn("scripts_dir not found, scripting disabled",
				zap.String("dir", cfg.Content.ScriptsDir))
		}
	}

	lootGen := loot.NewGenerator(content.Items, src)
	combatEngine := combat.NewEngine(content.Effects, content.Items, lootGen, src, logger)
	progressionEngine := progression.NewEngine(content.Classes, content.Items, cfg.Game.LevelCap)

	svc := gameserver.NewService(gameserver.Config{
		Characters:    charRepo,
		Progress:      progressRepo,
		Content:       content,
		Combat:        combatEngine,
		Progression:   progressionEngine,
		Scripts:       scriptMgr,
		RespecRefund:  cfg.Game.RespecRefund,
		BackpackSlots: cfg.Game.BackpackSlots,
		Logger:        logger,
	})
	lifecycle := server.NewLifecycle(logger, cfg.Server.ShutdownTimeout)

	lifecycle.Add("postgres", &server.FuncService{
		StartFn: func() error {
			for {
				time.Sleep(30 * time.Second)
				if err := pool.Health(ctx, 5*time.Second); err != nil {
					logger.Warn("database health check failed", zap.Error(err))
				}
			}
		},
		StopFn: func() {
			pool.Close()
		},
	})

	if scriptMgr != nil {
		lifecycle.Add("scripting", &server.FuncService{
			StartFn: func() error { select {} },
			StopFn:  scriptMgr.Close,
		})
	}

	// No transport is bundled; the browser/Twitch gateway talks to svc from
	// its own process. Until then the lifecycle owns a stats loop over it.
	statsQuit := make(chan struct{})
	lifecycle.Add("gameserver", &server.FuncService{
		StartFn: func() error {
			ticker := time.NewTicker(time.Minute)
			defer ticker.Stop()
			for {
				select {
				case <-ticker.C:
					logger.Info("gameserver stats",
						zap.Int("active_encounters", svc.ActiveEncounters()),
						zap.Int32("db_conns", pool.Stat().TotalConns()),
					)
				case <-statsQuit:
					return nil
				}
			}
		},
		StopFn: func() { close(statsQuit) },
	})

	logger.Info("game server initialized",
		zap.Duration("startup", time.Since(start)),
		zap.Int("activeSessions", combatEngine.ActiveSessions()),
	)

	if err := lifecycle.Run(ctx); err != nil {
		logger.Fatal("server error", zap.Error(err))
	}
}

// loadContent loads and indexes every content pack named in the config.
func loadContent(cfg config.ContentConfig, logger *zap.Logger) (gameserver.Content, error) {
	var content gameserver.Content
	var err error

	loadStart := time.Now()
	if content.Classes, err = ruleset.LoadRegistry(cfg.ClassesDir); err != nil {
		return content, err
	}
	if content.Items, err = inventory.LoadRegistry(cfg.ItemsDir); err != nil {
		return content, err
	}
	if content.Monsters, err = monster.LoadDirectory(cfg.MonstersDir); err != nil {
		return content, err
	}
	if content.Effects, err = effect.LoadDirectory(cfg.EffectsDir); err != nil {
		return content, err
	}
	if content.Passives, err = passive.LoadDirectory(cfg.PassivesDir); err != nil {
		return content, err
	}
	logger.Info("content loaded",
		zap.Int("classes", len(content.Classes.All())),
		zap.Int("effects", len(content.Effects.All())),
		zap.Int("monsters", content.Monsters.Count()),
		zap.Duration("elapsed", time.Since(loadStart)),
	)
	return content, nil
}
