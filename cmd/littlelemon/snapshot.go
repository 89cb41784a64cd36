package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	menuredis "github.com/wyfcoding/littlelemon/internal/menu/infrastructure/persistence/redis"
	"github.com/wyfcoding/littlelemon/pkg/cache"
)

var errNoSnapshot = errors.New("no menu snapshot projected yet")

type snapshotReader interface {
	Get(ctx context.Context) (*menuredis.MenuSnapshot, error)
	GetByCategory(ctx context.Context, category string) (*menuredis.MenuSnapshot, error)
}

func newSnapshotCommand() *cobra.Command {
	var category string
	cmd := &cobra.Command{
		Use:   "snapshot",
		Short: "Print the menu read model projected into Redis",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, _, err := loadConfig(configPath)
			if err != nil {
				return err
			}
			if !cfg.Redis.Enabled {
				return errors.New("redis is not enabled")
			}
			rc, err := cache.New(cache.Config{
				Host:         cfg.Redis.Host,
				Port:         cfg.Redis.Port,
				Password:     cfg.Redis.Password,
				DB:           cfg.Redis.DB,
				MaxPoolSize:  cfg.Redis.MaxPoolSize,
				ConnTimeout:  cfg.Redis.ConnTimeout,
				ReadTimeout:  cfg.Redis.ReadTimeout,
				WriteTimeout: cfg.Redis.WriteTimeout,
			})
			if err != nil {
				return fmt.Errorf("failed to connect redis: %w", err)
			}
			defer rc.Close()

			ctx, cancel := context.WithTimeout(cmd.Context(), 10*time.Second)
			defer cancel()
			repo := menuredis.NewSnapshotRedisRepository(rc, 0)
			return showSnapshot(ctx, cmd, repo, category)
		},
	}
	cmd.Flags().StringVar(&category, "category", "", "only print one category, ignoring case")
	return cmd
}

func showSnapshot(ctx context.Context, cmd *cobra.Command, repo snapshotReader, category string) error {
	var (
		snap *menuredis.MenuSnapshot
		err  error
	)
	if category == "" {
		snap, err = repo.Get(ctx)
	} else {
		snap, err = repo.GetByCategory(ctx, category)
	}
	if err != nil {
		return err
	}
	if snap == nil {
		return errNoSnapshot
	}
	return printJSON(cmd, snap)
}
