package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/gorilla/mux"
	"golang.org/x/sync/errgroup"

	"github.com/granametro/metrobot/api/handlers"
	"github.com/granametro/metrobot/internal/alerts"
	"github.com/granametro/metrobot/internal/bot"
	"github.com/granametro/metrobot/internal/config"
	"github.com/granametro/metrobot/internal/favorites"
	"github.com/granametro/metrobot/pkg/metro"
)

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))

	configPath := flag.String("config", config.DefaultPath, "Config file path")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Error("load config", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Transit client with background stop-registry refresh
	metroCfg := metro.Config{
		BaseURL:         cfg.API.BaseURL,
		Timeout:         cfg.API.Timeout(),
		CacheTTL:        cfg.API.CacheTTL(),
		RefreshInterval: cfg.Bot.RefreshInterval(),
	}
	client, err := metro.NewLocal(metroCfg, logger)
	if err != nil {
		logger.Error("create metro client", "error", err)
		os.Exit(1)
	}
	defer client.Close()
	logger.Info("stop registry loaded", "stops", len(client.Stops()))

	// User state
	favStore, err := favorites.NewStore(filepath.Join(cfg.Data.Dir, "favoritos.json"), cfg.Bot.FavoritesLimit)
	if err != nil {
		logger.Error("load favorites", "error", err)
		os.Exit(1)
	}

	var alertStore *alerts.Store
	if cfg.Alerts.Enabled {
		alertStore, err = alerts.NewStore(filepath.Join(cfg.Data.Dir, "avisos.json"))
		if err != nil {
			logger.Error("load alerts", "error", err)
			os.Exit(1)
		}
	}

	// Telegram connection
	api, err := tgbotapi.NewBotAPI(cfg.Telegram.Token)
	if err != nil {
		logger.Error("connect to Telegram", "error", err)
		os.Exit(1)
	}
	logger.Info("authorized on Telegram", "account", api.Self.UserName)

	updateCfg := tgbotapi.NewUpdate(0)
	updateCfg.Timeout = 30
	updates := api.GetUpdatesChan(updateCfg)

	b := bot.New(api, client, favStore, alertStore, cfg.Bot, logger)

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("bot started")
		return b.Run(ctx, updates)
	})

	if cfg.Alerts.Enabled {
		sweeper := alerts.NewSweeper(alertStore, client, b, cfg.Alerts.PollInterval(), logger)
		g.Go(func() error {
			logger.Info("alert sweeper started", "interval", cfg.Alerts.PollInterval())
			return sweeper.Run(ctx)
		})
	}

	if cfg.Server.Addr != "" {
		r := mux.NewRouter()
		handlers.NewHandler(client).RegisterRoutes(r)

		srv := &http.Server{
			Addr:         cfg.Server.Addr,
			Handler:      r,
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 15 * time.Second,
			IdleTimeout:  60 * time.Second,
		}

		g.Go(func() error {
			logger.Info("ops server started", "addr", cfg.Server.Addr)
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				return err
			}
			return nil
		})
		g.Go(func() error {
			<-ctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		})
	}

	g.Go(func() error {
		<-ctx.Done()
		api.StopReceivingUpdates()
		return nil
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("shutdown with error", "error", err)
		os.Exit(1)
	}
	logger.Info("bot stopped")
}
