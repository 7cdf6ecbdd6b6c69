package app

import (
	"context"
	"fmt"

	"cras-cadastro/internal/config"
	"cras-cadastro/internal/db"
	familydomain "cras-cadastro/internal/domain/family"
	"cras-cadastro/internal/repository/inmemory"
	"cras-cadastro/internal/repository/postgres/records"
	redisrepo "cras-cadastro/internal/repository/redis"
	s3repo "cras-cadastro/internal/repository/s3"
	sqliterepo "cras-cadastro/internal/repository/sqlite"
	"cras-cadastro/pkg/logger"
)

type closer func() error

// newStore opens the record store selected by STORE_DRIVER.
func newStore(ctx context.Context, cfg config.Config, log logger.Logger) (familydomain.Store, closer, error) {
	noop := func() error { return nil }

	switch cfg.Store.Driver {
	case config.StoreMemory:
		store, err := inmemory.NewRecordStore()
		return store, noop, err

	case config.StorePostgres:
		gormDB, err := db.NewPostgres(cfg.DB, log)
		if err != nil {
			return nil, nil, err
		}
		sqlDB, err := gormDB.DB()
		if err != nil {
			return nil, nil, fmt.Errorf("postgres handle: %w", err)
		}
		if err := db.Migrate(gormDB); err != nil {
			sqlDB.Close()
			return nil, nil, fmt.Errorf("migrate: %w", err)
		}
		return records.NewPostgres(gormDB, cfg.Store.Key), sqlDB.Close, nil

	case config.StoreSQLite:
		sqlDB, err := db.NewSQLite(cfg.Store.SQLitePath)
		if err != nil {
			return nil, nil, err
		}
		return sqliterepo.NewRecordStore(sqlDB, cfg.Store.Key), sqlDB.Close, nil

	case config.StoreRedis:
		client, err := db.NewRedis(cfg.Redis)
		if err != nil {
			return nil, nil, err
		}
		return redisrepo.NewRecordStore(client, cfg.Store.Key), client.Close, nil

	case config.StoreS3:
		store, err := s3repo.New(ctx, s3repo.Config{
			Bucket:          cfg.S3.Bucket,
			Region:          cfg.S3.Region,
			Endpoint:        cfg.S3.Endpoint,
			PathStyle:       cfg.S3.PathStyle,
			AccessKeyID:     cfg.S3.AccessKeyID,
			SecretAccessKey: cfg.S3.SecretAccessKey,
			Key:             cfg.Store.Key + ".json",
		})
		return store, noop, err

	default:
		return nil, nil, fmt.Errorf("unknown store driver %q", cfg.Store.Driver)
	}
}
