package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/sirupsen/logrus"

	"github.com/Kerhoff/InSync/internal/api"
	"github.com/Kerhoff/InSync/internal/backend"
	"github.com/Kerhoff/InSync/internal/config"
	"github.com/Kerhoff/InSync/internal/fetcher"
	"github.com/Kerhoff/InSync/internal/handlers"
	"github.com/Kerhoff/InSync/internal/metrics"
	"github.com/Kerhoff/InSync/internal/mutation"
	"github.com/Kerhoff/InSync/internal/repository"
	"github.com/Kerhoff/InSync/internal/repository/memory"
	"github.com/Kerhoff/InSync/internal/repository/postgres"
	"github.com/Kerhoff/InSync/internal/repository/redis"
	"github.com/Kerhoff/InSync/internal/repository/sqlite"
	"github.com/Kerhoff/InSync/internal/service"
	"github.com/Kerhoff/InSync/internal/telegram"
	"github.com/Kerhoff/InSync/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	l := logger.New(cfg.LogLevel, cfg.LogFormat)
	l.Info("Starting InSync...")

	// Device storage
	kv, closeStore, err := openStore(cfg, l)
	if err != nil {
		l.Fatalf("Failed to open %s identity store: %v", cfg.IdentityStore, err)
	}
	defer closeStore()

	// Backend access
	m := metrics.New()
	f := fetcher.New(fetcher.Options{
		BaseURL:   cfg.APIBaseURL,
		Timeout:   cfg.RequestTimeout,
		UserAgent: "InSync-Telegram/1.0",
	}, m, l)

	// Service layer
	svc := service.New(backend.NewClient(f, l), mutation.NewSubmitter(f, m, l), kv, m, l, cfg.UploadsBaseURL)
	defer svc.Close()

	// Telegram bot
	bot, err := telegram.NewBot(cfg.TelegramToken, l)
	if err != nil {
		l.Fatalf("Failed to create Telegram bot: %v", err)
	}
	downloader := telegram.NewDownloader(cfg.RequestTimeout, l)

	// Register command handlers
	bot.RegisterCommand("start", "Welcome message", handlers.NewStartHandler(l))
	bot.RegisterCommand("help", "Show all commands", handlers.NewHelpHandler(l))

	// Account handlers
	bot.RegisterCommand("login", "Log in with email and password", handlers.NewLoginHandler(svc, l))
	bot.RegisterCommand("signup", "Create an account", handlers.NewSignupHandler(svc, downloader, l))
	bot.RegisterCommand("logout", "Log out", handlers.NewLogoutHandler(svc, l))
	bot.RegisterCommand("home", "Your profile and family", handlers.NewHomeHandler(svc, l))

	// Event handlers
	bot.RegisterCommand("events", "Upcoming events", handlers.NewEventsHandler(svc, l))
	bot.RegisterCommand("newevent", "Draft a new event", handlers.NewNewEventHandler(svc, l))
	bot.RegisterCommand("eventphoto", "Attach a photo to the draft", handlers.NewEventPhotoHandler(svc, downloader, l))
	bot.RegisterCommand("confirm", "Create the drafted event", handlers.NewConfirmHandler(svc, l))
	bot.RegisterCommand("cancel", "Discard the draft", handlers.NewCancelHandler(svc, l))
	bot.RegisterCommand("editevent", "Edit an event", handlers.NewEditEventHandler(svc, l))
	bot.RegisterCommand("delevent", "Delete an event", handlers.NewDeleteEventHandler(svc, l))
	bot.RegisterCommand("story", "Add a story photo to an event", handlers.NewStoryHandler(svc, downloader, l))
	bot.RegisterCommand("export", "Download upcoming events", handlers.NewExportHandler(svc, l))

	// Gallery handlers
	bot.RegisterCommand("gallery", "Your photos", handlers.NewGalleryHandler(svc, l))
	bot.RegisterCommand("family", "Family members you can tag", handlers.NewFamilyHandler(svc, l))
	bot.RegisterCommand("upload", "Upload a photo", handlers.NewUploadHandler(svc, downloader, l))
	bot.RegisterCommand("replace", "Replace a photo", handlers.NewReplaceHandler(svc, downloader, l))

	// Status handlers
	bot.RegisterCommand("status", "Show or set your status", handlers.NewStatusHandler(svc, l))

	if err := bot.PublishCommands(); err != nil {
		l.Warnf("Failed to publish command list: %v", err)
	}

	// Context for graceful shutdown
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// Start auto status scheduler
	go func() {
		err := svc.StartAutoStatusScheduler(ctx, cfg.AutoStatusSchedule, func(chatID int64, text string) {
			msg := tgbotapi.NewMessage(chatID, text)
			msg.ParseMode = tgbotapi.ModeMarkdown
			bot.SendRaw(msg)
		})
		if err != nil {
			l.Errorf("Auto status scheduler error: %v", err)
		}
	}()

	// Start HTTP server for health, metrics and session views
	apiServer := api.NewServer(svc, m, l)
	httpServer := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           apiServer.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		l.Infof("HTTP server listening on :%s", cfg.Port)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			l.Errorf("HTTP server error: %v", err)
		}
	}()

	// Start Telegram bot polling
	go func() {
		if err := bot.Start(ctx); err != nil {
			l.Errorf("Bot error: %v", err)
		}
	}()

	l.Info("InSync started successfully")

	<-ctx.Done()
	l.Info("Received shutdown signal...")

	shutdownCtx, stop := context.WithTimeout(context.Background(), 5*time.Second)
	defer stop()
	l.Info("Shutting down HTTP server...")
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		l.Errorf("HTTP server shutdown error: %v", err)
	}

	l.Info("InSync stopped")
}

// openStore opens the configured durable key-value store.
func openStore(cfg *config.Config, l *logrus.Logger) (repository.KeyValueStore, func(), error) {
	switch cfg.IdentityStore {
	case config.StoreMemory:
		l.Warn("Using in-memory identity store, logins are lost on restart")
		return memory.NewKeyValueRepository(), func() {}, nil

	case config.StoreSQLite, config.StorePostgres:
		driver, dsn := config.DriverSQLite, cfg.SQLitePath
		if cfg.IdentityStore == config.StorePostgres {
			driver, dsn = config.DriverPostgres, cfg.DatabaseURL
		}
		db, err := config.NewDatabase(driver, dsn, l)
		if err != nil {
			return nil, nil, err
		}
		if err := db.Migrate(); err != nil {
			db.Close()
			return nil, nil, fmt.Errorf("failed to run migrations: %w", err)
		}
		closeDB := func() {
			if err := db.Close(); err != nil {
				l.Errorf("Failed to close database: %v", err)
			}
		}
		if driver == config.DriverPostgres {
			return postgres.NewKeyValueRepository(db.DB), closeDB, nil
		}
		return sqlite.NewKeyValueRepository(db.DB), closeDB, nil

	case config.StoreRedis:
		client := redis.NewClient(redis.Options{Addr: cfg.RedisAddr, Password: cfg.RedisPassword, DB: cfg.RedisDB})
		kv := redis.NewKeyValueRepository(client, "insync:")
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if p, ok := kv.(repository.Pinger); ok {
			if err := p.Ping(ctx); err != nil {
				client.Close()
				return nil, nil, err
			}
		}
		return kv, func() { client.Close() }, nil
	}
	return nil, nil, fmt.Errorf("unknown identity store %q", cfg.IdentityStore)
}
