package main

import (
	"log/slog"
	"net/http"
	"os"

	"github.com/taskvault/taskvault"
	"github.com/taskvault/taskvault/stores"
	gormstores "github.com/taskvault/taskvault/stores/gorm"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	cfg, err := taskvault.LoadConfig()
	if err != nil {
		logger.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	var users taskvault.UserStore
	var tasks taskvault.TaskStore
	if cfg.DatabaseURL != "" {
		db, err := gormstores.Open(cfg.DatabaseURL)
		if err != nil {
			logger.Error("database connection failed", "error", err)
			os.Exit(1)
		}
		users = gormstores.NewUserStore(db)
		tasks = gormstores.NewTaskStore(db)
		logger.Info("using postgres store")
	} else {
		users = stores.NewFSUserStore(cfg.StoragePath)
		tasks = stores.NewFSTaskStore(cfg.StoragePath)
		logger.Info("using file store", "path", cfg.StoragePath)
	}

	codec := taskvault.NewTokenCodec(cfg.JWTSecret, cfg.JWTIssuer, cfg.TokenTTL())
	hasher := taskvault.NewBcryptHasher(cfg.BcryptCost)

	server := taskvault.NewServer(
		taskvault.NewAccountService(users, hasher, codec),
		taskvault.NewTaskService(tasks),
		taskvault.NewMiddleware(codec, users),
		logger,
	)

	logger.Info("listening", "addr", cfg.Addr)
	if err := http.ListenAndServe(cfg.Addr, server.Handler()); err != nil {
		logger.Error("server stopped", "error", err)
		os.Exit(1)
	}
}
