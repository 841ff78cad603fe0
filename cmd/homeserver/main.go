package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/charmbracelet/log"
	sse "github.com/r3labs/sse/v2"
	"github.com/wheelibin/homeserver/internal/config"
	"github.com/wheelibin/homeserver/internal/hue"
	"github.com/wheelibin/homeserver/internal/lights"
	"github.com/wheelibin/homeserver/internal/module"
	"github.com/wheelibin/homeserver/internal/repos"
	"github.com/wheelibin/homeserver/internal/router"
	"github.com/wheelibin/homeserver/internal/schedule"
	"github.com/wheelibin/homeserver/internal/server"
	"github.com/wheelibin/homeserver/internal/state"
	"github.com/wheelibin/homeserver/internal/storage"
	"gopkg.in/natefinch/lumberjack.v2"
)

func main() {

	// read the config file
	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Unable to load config", "err", err)
	}

	logger := newLogger(cfg)
	logger.Info("homeserver starting", "port", cfg.Port)

	// create/wire up services
	store := storage.NewStore(logger, cfg.StorageFile)

	var history *repos.UpdateRepo
	db, err := repos.OpenDatabase(cfg.DatabaseFile)
	if err != nil {
		logger.Error("Unable to open the database, light history is disabled", "err", err)
	} else {
		defer db.Close()
		if history, err = repos.NewUpdateRepo(logger, db); err != nil {
			logger.Error("Unable to initialise light history", "err", err)
		}
	}

	hueService := hue.NewService(logger, hue.ServiceConfig{
		DiscoveryURL: cfg.Hue.DiscoveryURL,
		DeviceType:   cfg.Hue.DeviceType,
		Timeout:      cfg.Hue.Timeout,
	}, store)

	events := sse.New()
	events.AutoReplay = false
	defer events.Close()

	env := &module.Env{
		Logger:  logger,
		Config:  cfg,
		Router:  router.NewRouter(),
		Modules: module.NewManager(logger),
		Store:   store,
		Hue:     hueService,
		History: history,
		Events:  events,
	}
	env.Modules.Initialize(env, map[string]module.Constructor{
		"lights": lights.New,
		"state":  state.New,
		"sun":    schedule.New,
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// start finding bridges straight away rather than on the first request
	hueService.Initialize(ctx)

	srv := server.New(logger, env.Router, hueService.CachedLightCount)
	if err := srv.Run(ctx, fmt.Sprintf(":%d", cfg.Port), events.Close); err != nil {
		logger.Error("Server stopped", "err", err)
		return
	}

	logger.Info("homeserver is closing")
}

func newLogger(cfg config.Config) *log.Logger {
	var out io.Writer = os.Stderr
	if cfg.LogFile != "" {
		out = &lumberjack.Logger{
			Filename: cfg.LogFile,
			MaxSize:  10,
			MaxAge:   3,
		}
	}

	return log.NewWithOptions(out, log.Options{
		Level:           parseLevel(cfg.LogLevel),
		ReportTimestamp: true,
		TimeFormat:      "2006/01/02 15:04:05",
	})
}

func parseLevel(level string) log.Level {
	switch strings.ToLower(level) {
	case "debug":
		return log.DebugLevel
	case "warn", "warning":
		return log.WarnLevel
	case "error":
		return log.ErrorLevel
	default:
		return log.InfoLevel
	}
}
