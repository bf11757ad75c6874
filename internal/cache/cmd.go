package cache

import (
	"fmt"
	"log/slog"
	"maps"
	"slices"
	"strings"

	"github.com/spf13/viper"
)

// InvalidateCacheCmd represents the cache invalidate subcommand
type InvalidateCacheCmd struct {
	Source string `arg:"" help:"Cache source to invalidate: openlibrary" required:""`
}

func (i *InvalidateCacheCmd) Run() error {
	tableName, ok := sourceTables[i.Source]
	if !ok {
		valid := slices.Sorted(maps.Keys(sourceTables))
		return fmt.Errorf("invalid cache source '%s'; valid sources are: %s", i.Source, strings.Join(valid, ", "))
	}

	slog.Info("Invalidating cache", "source", i.Source, "database", viper.GetString("cache.dbfile"))

	cacheInstance, err := GetGlobalCache()
	if err != nil {
		return fmt.Errorf("failed to open cache database: %w", err)
	}

	rowsDeleted, err := cacheInstance.InvalidateSource(tableName)
	if err != nil {
		return fmt.Errorf("failed to invalidate cache: %w", err)
	}

	slog.Info("Cache invalidated", "source", i.Source, "rows_deleted", rowsDeleted)
	return nil
}

// PruneCacheCmd removes entries older than the configured TTL.
type PruneCacheCmd struct{}

func (p *PruneCacheCmd) Run() error {
	cacheInstance, err := GetGlobalCache()
	if err != nil {
		return fmt.Errorf("failed to open cache database: %w", err)
	}

	ttl := configuredTTL()
	for _, table := range slices.Sorted(maps.Keys(ValidCacheTableNames)) {
		rows, err := cacheInstance.ClearExpired(table, ttl)
		if err != nil {
			return err
		}
		slog.Info("Cache pruned", "table", table, "ttl", ttl, "rows_deleted", rows)
	}
	return nil
}
