// Copyright 2026 The SISPAT Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/sispat/sispat/internal/authz"
	"github.com/sispat/sispat/internal/config"
	"github.com/sispat/sispat/internal/observability/logger"
	"github.com/sispat/sispat/internal/store/file"
	"github.com/sispat/sispat/internal/store/postgres"
	"github.com/sispat/sispat/internal/store/redis"
)

func postgresConfig(cfg *config.Config) postgres.Config {
	return postgres.Config{
		URL:          cfg.Database.URL,
		Host:         cfg.Database.Host,
		Port:         cfg.Database.Port,
		User:         cfg.Database.User,
		Password:     cfg.Database.Password,
		Database:     cfg.Database.Database,
		SSLMode:      cfg.Database.SSLMode,
		MaxOpenConns: cfg.Database.MaxOpenConns,
		MaxIdleConns: cfg.Database.MaxIdleConns,
	}
}

// openStore connects the configured registry backend. The returned func
// releases it.
func openStore(ctx context.Context, cfg *config.Config) (authz.Store, func(), error) {
	switch cfg.Store.Backend {
	case config.BackendPostgres:
		db, err := postgres.New(ctx, postgresConfig(cfg))
		if err != nil {
			return nil, nil, err
		}
		slog.Info("connected to database", logger.Backend(cfg.Store.Backend))
		return postgres.NewRoleRepository(db), db.Close, nil

	case config.BackendRedis:
		s, err := redis.Open(ctx, redis.Config{
			Address:  cfg.Redis.Address,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
			Prefix:   cfg.Redis.Prefix,
		})
		if err != nil {
			return nil, nil, err
		}
		slog.Info("connected to redis", logger.Backend(cfg.Store.Backend), slog.String("key", s.Key()))
		return s, func() { _ = s.Close() }, nil

	case config.BackendFile:
		slog.Info("using file role store", logger.Backend(cfg.Store.Backend), slog.String("path", cfg.Store.FilePath))
		return file.NewRoleStore(cfg.Store.FilePath), func() {}, nil

	default:
		return nil, nil, fmt.Errorf("unknown store backend %q", cfg.Store.Backend)
	}
}

func runMigrate(cfg *config.Config) error {
	if cfg.Store.Backend != config.BackendPostgres {
		fmt.Printf("Store backend %q needs no migration.\n", cfg.Store.Backend)
		return nil
	}

	ctx := context.Background()
	db, err := postgres.New(ctx, postgresConfig(cfg))
	if err != nil {
		return err
	}
	defer db.Close()

	fmt.Println("Applying initial schema...")
	if err := db.Migrate(ctx, postgres.InitialSchema); err != nil {
		return err
	}
	fmt.Println("Migration successful.")
	return nil
}
