package main

import (
	"net/http"

	"go.uber.org/zap"

	fsbackend "github.com/piwall/piwall/internal/backend/fs"
	"github.com/piwall/piwall/internal/config"
	"github.com/piwall/piwall/internal/links"
	"github.com/piwall/piwall/internal/server"
	"github.com/piwall/piwall/web"
)

func main() {
	logger, err := zap.NewProduction()
	if err != nil {
		panic(err)
	}
	defer logger.Sync() //nolint:errcheck

	cfg, err := config.Load(config.FindConfigFile())
	if err != nil {
		logger.Fatal("load config", zap.Error(err))
	}

	if cfg.UploadToken == "" {
		logger.Warn("UPLOAD_TOKEN is not set, uploads and deletions are disabled")
	}

	store, err := fsbackend.New(cfg.MediaDir, cfg.AllowedExtensions, cfg.MaxUploadBytes)
	if err != nil {
		logger.Fatal("media store", zap.Error(err))
	}

	registry, err := links.Open(cfg.LinksDB)
	if err != nil {
		logger.Fatal("link registry", zap.Error(err))
	}
	defer registry.Close()

	srv := server.New(store, registry, server.Options{
		UploadToken: cfg.UploadToken,
		StaticFS:    web.FS,
		Logger:      logger,
	})

	logger.Info("piwall starting",
		zap.String("addr", cfg.ListenAddr),
		zap.String("media_dir", cfg.MediaDir),
	)
	if err := http.ListenAndServe(cfg.ListenAddr, srv); err != nil {
		logger.Fatal("server error", zap.Error(err))
	}
}
