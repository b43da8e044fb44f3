package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"tg_inline_menu_bot/internal/config"
	"tg_inline_menu_bot/internal/domain"
	"tg_inline_menu_bot/internal/feature/showcase"
	"tg_inline_menu_bot/internal/feature/user"
	"tg_inline_menu_bot/internal/health"
	"tg_inline_menu_bot/internal/logging"
	"tg_inline_menu_bot/internal/menu"
	"tg_inline_menu_bot/internal/metrics"
	"tg_inline_menu_bot/internal/store"
	"tg_inline_menu_bot/internal/telegram"
)

const (
	mongoConnectTimeout    = 10 * time.Second
	mongoIndexTimeout      = 5 * time.Second
	mongoDisconnectTimeout = 5 * time.Second
	userPreloadTimeout     = 10 * time.Second
	healthShutdownTimeout  = 5 * time.Second
)

var errTelegramStopped = errors.New("telegram client stopped before shutdown signal")

func main() {
	configOnly := flag.Bool("config-only", false, "load and print configuration then exit")
	printTree := flag.Bool("print-tree", false, "print the menu tree as YAML then exit")
	flag.Parse()

	if *printTree {
		if err := writeTree(); err != nil {
			fmt.Fprintf(os.Stderr, "menu tree error: %v\n", err)
			os.Exit(1)
		}
		return
	}

	cfg, err := config.Load()
	if err != nil {
		logging.Error("configuration error", logging.Fields{"error": err})
		fmt.Fprintf(os.Stderr, "configuration error: %v\n", err)
		os.Exit(1)
	}

	logger, err := logging.Setup(cfg)
	if err != nil {
		logging.Error("logger setup error", logging.Fields{"error": err})
		fmt.Fprintf(os.Stderr, "logger setup error: %v\n", err)
		os.Exit(1)
	}

	if *configOnly {
		logging.Info("configuration check", logging.Fields{"event": "config_only"})
		fmt.Println("configuration check: ok")
		fmt.Println(config.FormatRedacted(cfg))
		return
	}

	logger.WithFields(logging.Fields{
		"event":     "startup",
		"mongo_db":  cfg.MongoDB,
		"http_port": cfg.HTTPPort,
	}).Info("configuration loaded")

	recorder := metrics.NewRecorder()

	demo := showcase.New(showcase.WithLogger(logger))
	engine, err := demo.Engine(menu.WithObserver(recorder))
	if err != nil {
		logger.WithError(err).Error("menu setup error")
		fmt.Fprintf(os.Stderr, "menu setup error: %v\n", err)
		os.Exit(1)
	}

	tree, err := engine.Tree()
	if err != nil {
		logger.WithError(err).Warn("failed to describe menu tree")
	} else {
		logger.WithFields(logging.Fields{
			"event": "menu_tree",
			"paths": len(engine.Paths()),
		}).Info("menu tree mounted")
		logger.WithField("event", "menu_tree").Debug(tree)
	}

	connectCtx, cancel := context.WithTimeout(context.Background(), mongoConnectTimeout)
	mongoManager, err := store.NewManager(connectCtx, cfg)
	cancel()
	if err != nil {
		logger.WithError(err).Error("mongo connection error")
		fmt.Fprintf(os.Stderr, "mongo connection error: %v\n", err)
		os.Exit(1)
	}

	logger.WithField("event", "mongo_connect").Info("connected to mongo")

	indexCtx, cancelIndexes := context.WithTimeout(context.Background(), mongoIndexTimeout)
	if err := mongoManager.EnsureBaseIndexes(indexCtx); err != nil {
		cancelIndexes()
		logger.WithError(err).Error("mongo index setup error")
		fmt.Fprintf(os.Stderr, "mongo index setup error: %v\n", err)
		os.Exit(1)
	}
	cancelIndexes()

	logger.WithField("event", "mongo_indexes").Info("ensured base mongo indexes")

	userRepository := domain.NewUserRepository(mongoManager.Users())
	preloadCtx, cancelPreload := context.WithTimeout(context.Background(), userPreloadTimeout)
	users, err := userRepository.Find(preloadCtx)
	cancelPreload()
	if err != nil {
		logger.WithError(err).Error("user preload error")
		fmt.Fprintf(os.Stderr, "user preload error: %v\n", err)
		os.Exit(1)
	}

	logger.WithFields(logging.Fields{
		"event": "users_loaded",
		"count": len(users),
	}).Info("preloaded users")
	for _, u := range users {
		logger.WithFields(logging.Fields{
			"event":   "user_loaded",
			"user_id": u.UserID,
			"name":    u.FullName(),
		}).Debug("known user")
	}

	userRegistrar := user.NewRegistrar(mongoManager.Users(), logger)

	tgClient, err := telegram.NewClient(cfg, logger,
		telegram.WithMenu(engine),
		telegram.WithUserRegistrar(userRegistrar),
		telegram.WithMetrics(recorder),
	)
	if err != nil {
		logger.WithError(err).Error("telegram client setup error")
		fmt.Fprintf(os.Stderr, "telegram client setup error: %v\n", err)
		os.Exit(1)
	}

	logger.WithField("event", "telegram_ready").Info("telegram client initialized")

	healthServer := health.NewServer(cfg.HTTPPort, mongoManager, logger,
		health.WithMetricsHandler(recorder.Handler()),
		health.WithUserCounter(store.NewStatsProvider(mongoManager.Users())),
	)

	signalCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	g, gCtx := errgroup.WithContext(signalCtx)

	g.Go(func() error {
		tgClient.Start(gCtx)
		if gCtx.Err() == nil {
			return errTelegramStopped
		}
		return nil
	})

	g.Go(healthServer.ListenAndServe)

	g.Go(func() error {
		<-gCtx.Done()

		if signalCtx.Err() != nil {
			logger.WithField("event", "shutdown_signal").Info("received termination signal, stopping services")
		}

		shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), healthShutdownTimeout)
		defer cancelShutdown()

		return healthServer.Shutdown(shutdownCtx)
	})

	runErr := g.Wait()
	stop()
	if runErr != nil {
		logger.WithError(runErr).Error("service stopped with error")
	}

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), mongoDisconnectTimeout)
	if err := mongoManager.Close(shutdownCtx); err != nil {
		logger.WithError(err).Error("mongo disconnect error")
	} else {
		logger.WithField("event", "mongo_disconnect").Info("mongo client disconnected")
	}
	cancelShutdown()

	logger.WithField("event", "shutdown_complete").Info("shutdown complete")

	if runErr != nil {
		os.Exit(1)
	}
}

// writeTree prints the demo menu tree without connecting to anything.
func writeTree() error {
	engine, err := showcase.New().Engine()
	if err != nil {
		return err
	}

	tree, err := engine.Tree()
	if err != nil {
		return err
	}

	fmt.Print(tree)
	return nil
}
