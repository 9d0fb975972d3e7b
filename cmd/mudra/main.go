package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/akamensky/argparse"
	"go.uber.org/zap"

	"github.com/ayusman/mudra/internal/app"
	"github.com/ayusman/mudra/internal/config"
	"github.com/ayusman/mudra/internal/detector"
	"github.com/ayusman/mudra/internal/logger"
	"github.com/ayusman/mudra/internal/metrics"
	"github.com/ayusman/mudra/internal/plugin"
	"github.com/ayusman/mudra/internal/server"
	"github.com/ayusman/mudra/internal/store"
	"github.com/ayusman/mudra/internal/tray"
)

// shutdownGrace bounds how long shutdown waits for a source read to return.
const shutdownGrace = 5 * time.Second

func main() {
	parser := argparse.NewParser("mudra", "Hand gesture reveal/conceal detector")
	envFile := parser.String("", "env", &argparse.Options{Help: "Path to a .env file", Default: ".env"})
	addr := parser.String("", "addr", &argparse.Options{Help: "HTTP listen address (overrides MUDRA_ADDR)", Default: ""})
	dbPath := parser.String("", "db", &argparse.Options{Help: "SQLite configuration database (default: <data dir>/mudra.db)", Default: ""})
	replay := parser.String("", "replay", &argparse.Options{Help: "Replay landmark frames from a JSON-lines file", Default: ""})
	source := parser.String("", "source", &argparse.Options{Help: "Landmark extractor command line", Default: ""})
	withTray := parser.Flag("", "tray", &argparse.Options{Help: "Show a system tray icon", Default: false})
	observe := parser.Flag("", "observe", &argparse.Options{Help: "Emit per-frame observation events", Default: false})
	err := parser.Parse(os.Args)
	if err != nil {
		fmt.Print(parser.Usage(err))
		os.Exit(1)
	}

	cfg, err := config.Load(*envFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "mudra: %v\n", err)
		os.Exit(1)
	}

	log, closeLog, err := logger.New(logger.Options{
		File:       cfg.ResolvedLogFile(),
		Production: cfg.IsProduction(),
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "mudra: %v\n", err)
		os.Exit(1)
	}
	defer closeLog()

	if *dbPath == "" {
		*dbPath = cfg.DBPath()
	}
	st, err := store.New(*dbPath)
	if err != nil {
		log.Fatal("failed to open store", zap.String("path", *dbPath), zap.Error(err))
	}
	defer st.Close()

	if err := loadStoredConfig(cfg, st, log); err != nil {
		log.Fatal("invalid stored configuration", zap.Error(err))
	}

	flags := map[string]string{"addr": *addr, "replay_file": *replay, "source_cmd": *source}
	for key, value := range flags {
		if value == "" {
			continue
		}
		if err := cfg.Set(key, value); err != nil {
			log.Fatal("invalid flag", zap.String("flag", key), zap.Error(err))
		}
	}
	if *observe {
		cfg.Gesture.EmitObserved = true
	}
	if err := cfg.Validate(); err != nil {
		log.Fatal("invalid configuration", zap.Error(err))
	}

	m := metrics.New()

	plugins := plugin.NewManager(cfg.ResolvedPluginDir(), log)
	if err := plugins.Discover(); err != nil {
		log.Warn("plugin discovery failed", zap.Error(err))
	}

	src, err := openSource(cfg, log)
	if err != nil {
		log.Fatal("failed to open landmark source", zap.Error(err))
	}

	application, err := app.New(cfg, app.Deps{
		Source:   src,
		Store:    st,
		Plugins:  plugins,
		Executor: plugin.NewExecutor(plugin.DefaultTimeout),
		Metrics:  m,
		Logger:   log,
	})
	if err != nil {
		log.Fatal("failed to create app", zap.Error(err))
	}
	defer application.Close()

	events := server.NewBroadcaster(log, func(delta int) { m.EventClients.Add(int64(delta)) })
	application.AddSink("events", events)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var tr *tray.Tray
	if *withTray {
		tr = tray.New(log)
		tr.OnToggle(application.SetEnabled)
		tr.OnSettings(func() { log.Info("settings are served over HTTP", zap.String("addr", cfg.Addr)) })
		tr.OnQuit(stop)
		application.AddSink("tray", tr)
	}

	srv := server.New(server.Config{
		StaticDir: findWebDir(cfg.DataDir),
		Store:     st,
		Engine:    application.Engine(),
		Processor: application,
		Plugins:   plugins,
		Events:    events,
		Metrics:   m,
		Logger:    log,
	})

	serverDone := make(chan struct{})
	go func() {
		defer close(serverDone)
		if err := srv.ListenAndServe(ctx, cfg.Addr); err != nil {
			log.Error("server failed", zap.Error(err))
		}
		stop()
	}()

	runDone := make(chan struct{})
	if src != nil {
		go func() {
			defer close(runDone)
			if err := application.Run(ctx); err != nil {
				log.Error("detection pipeline failed", zap.Error(err))
			}
			if cfg.ReplayFile != "" {
				stop()
			}
		}()
	} else {
		close(runDone)
		log.Info("no landmark source configured, accepting frames over HTTP only")
	}

	if tr != nil {
		go func() {
			<-ctx.Done()
			tr.Quit()
		}()
		tr.Run()
		stop()
	}

	<-ctx.Done()
	log.Info("shutting down")

	// The deferred application.Close must run after both producers stop.
	<-serverDone
	select {
	case <-runDone:
	case <-time.After(shutdownGrace):
		log.Warn("detection pipeline still blocked on its source, closing anyway")
	}
}

// loadStoredConfig applies the settings and gesture tags kept in the store.
func loadStoredConfig(cfg *config.Config, st *store.Store, log *zap.Logger) error {
	settings, err := st.Settings().All()
	if err != nil {
		return fmt.Errorf("read settings: %w", err)
	}
	if err := cfg.Apply(settings, log); err != nil {
		return err
	}

	tags, err := st.Tags().List()
	if err != nil {
		return fmt.Errorf("read gesture tags: %w", err)
	}
	return cfg.ApplyTags(tags)
}

// openSource returns the configured landmark source, or nil when frames only
// arrive over HTTP.
func openSource(cfg *config.Config, log *zap.Logger) (detector.Source, error) {
	switch {
	case cfg.ReplayFile != "":
		f, err := os.Open(cfg.ReplayFile)
		if err != nil {
			return nil, err
		}
		return detector.NewReplaySource(f, log), nil
	case len(cfg.SourceCmd) > 0:
		return detector.NewSubprocessSource(cfg.SourceCmd, detector.DefaultConfig(), log)
	}
	return nil, nil
}

// findWebDir searches for the web directory in common locations.
// It checks: "web", "../web", "../../web", and <data dir>/web.
// Returns the first existing directory or empty string if none found.
func findWebDir(dataDir string) string {
	relativePaths := []string{"web", "../web", "../../web"}
	for _, p := range relativePaths {
		if info, err := os.Stat(p); err == nil && info.IsDir() {
			absPath, err := filepath.Abs(p)
			if err == nil {
				return absPath
			}
			return p
		}
	}

	dataWebDir := filepath.Join(dataDir, "web")
	if info, err := os.Stat(dataWebDir); err == nil && info.IsDir() {
		return dataWebDir
	}

	return ""
}
