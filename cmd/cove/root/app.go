package root

import (
	"context"

	"cove/internal/config"
	"cove/internal/logging"
	"cove/internal/service"
	"cove/internal/storage"
)

func loadConfig() (*config.Config, error) {
	home, err := config.ResolveHome(homeFlag)
	if err != nil {
		return nil, err
	}
	return config.Load(home)
}

// openService wires config, the file logger, the database and the command queue.
// cleanup tears them down in reverse order.
func openService(ctx context.Context) (*service.Service, func(), error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, nil, err
	}
	log, err := logging.New(cfg.LogPath(), cfg.File.Log.Level)
	if err != nil {
		return nil, nil, err
	}
	db, err := storage.Open(ctx, cfg.DBPath())
	if err != nil {
		_ = log.Close()
		return nil, nil, err
	}
	svc := service.New(db, service.Options{
		UserID: cfg.User(),
		Policy: cfg.ColdStoragePolicy(),
		Logger: log.Logger,
	})
	cleanup := func() {
		svc.Close()
		_ = db.Close()
		_ = log.Close()
	}
	return svc, cleanup, nil
}

// withService runs fn against a freshly opened service.
func withService(fn func(ctx context.Context, svc *service.Service) error) error {
	ctx := context.Background()
	svc, cleanup, err := openService(ctx)
	if err != nil {
		return err
	}
	defer cleanup()
	return fn(ctx, svc)
}

// shortID is how task IDs are printed; any unique prefix is accepted back.
func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
