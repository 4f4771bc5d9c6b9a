package app

import (
	"context"
	"time"

	log "github.com/carousell/ct-go/pkg/logger/log_context"
	"go.uber.org/fx"

	"github.com/skillswap/skillswap/internal/config"
	"github.com/skillswap/skillswap/internal/repo/mongodb"
)

func newMongoDB(lc fx.Lifecycle, cfg *config.Config) (*mongodb.DB, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	db, err := mongodb.NewConnection(ctx, cfg.Database.URI, cfg.Database.Database)
	if err != nil {
		return nil, err
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			if err := db.EnsureIndexes(ctx); err != nil {
				return err
			}
			log.Infow(ctx, "mongodb ready", "database", cfg.Database.Database)
			return nil
		},
		OnStop: func(ctx context.Context) error {
			return db.Close(ctx)
		},
	})

	return db, nil
}
