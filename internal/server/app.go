// Package server initializes and runs the chirp server: the shared
// directory, the sync engine, and the WebSocket listener, with graceful
// shutdown on the usual signals.
package server

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/dmitrijs2005/chirp/internal/logging"
	"github.com/dmitrijs2005/chirp/internal/server/config"
	"github.com/dmitrijs2005/chirp/internal/server/directory"
	"github.com/dmitrijs2005/chirp/internal/server/feed"
	"github.com/dmitrijs2005/chirp/internal/server/web"
)

type App struct {
	config *config.Config
	logger logging.Logger
	dir    *directory.Directory
	engine *feed.Engine
	ids    *directory.IDAllocator
}

func NewApp(c *config.Config) (*App, error) {
	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: parseLevel(c.LogLevel)})
	logger := logging.NewSlogLogger(slog.New(handler))

	dir := directory.New()

	return &App{
		config: c,
		logger: logger,
		dir:    dir,
		engine: feed.NewEngine(dir),
		ids:    &directory.IDAllocator{},
	}, nil
}

func parseLevel(s string) slog.Level {
	var l slog.Level
	if err := l.UnmarshalText([]byte(s)); err != nil {
		return slog.LevelInfo
	}
	return l
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

func (app *App) startWebServer(ctx context.Context, cancelFunc context.CancelFunc) {
	s := web.NewServer(app.config, app.dir, app.engine, app.ids, app.logger)

	if err := s.Run(ctx); err != nil {
		app.logger.Error(ctx, err.Error())
		cancelFunc()
	}
}

func (app *App) Run(ctx context.Context) {
	ctx, cancelFunc := context.WithCancel(ctx)

	app.logger.Info(ctx, "Starting app...")

	app.initSignalHandler(cancelFunc)

	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		app.startWebServer(ctx, cancelFunc)
	}()

	wg.Wait()
}
