// Command cachetool manages the shared geocode cache: creates the schema,
// preloads ONS snapshots so runs resolve offline, and reports entry
// counts.
package main

import (
	"context"
	"database/sql"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/redis/go-redis/v9"

	"github.com/marmstr93ng/PostcodeParse/internal/adapters/cache"
	"github.com/marmstr93ng/PostcodeParse/internal/adapters/ons"
	"github.com/marmstr93ng/PostcodeParse/internal/config"
	"github.com/marmstr93ng/PostcodeParse/internal/domain"
	"github.com/marmstr93ng/PostcodeParse/internal/platform/db"
	"github.com/marmstr93ng/PostcodeParse/internal/ports"
)

func main() {
	snapshot := flag.String("snapshot", "", "ONS snapshot CSV to preload (preload command)")
	flag.Usage = func() {
		fmt.Fprintln(flag.CommandLine.Output(), "Usage: cachetool [flags] init|preload|stats")
		flag.PrintDefaults()
	}
	flag.Parse()

	if flag.NArg() != 1 {
		flag.Usage()
		os.Exit(2)
	}
	command := flag.Arg(0)

	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}
	if cfg.Cache.Backend == "off" {
		log.Fatal("CACHE_BACKEND is off; nothing to manage")
	}

	ctx := context.Background()

	if err := runCommand(ctx, cfg, command, *snapshot); err != nil {
		log.Fatal(err)
	}
}

func runCommand(ctx context.Context, cfg *config.Config, command string, snapshot string) error {
	if cfg.Cache.Backend == "redis" {
		return runRedis(ctx, cfg, command, snapshot)
	}

	sqlDB, err := openSQL(cfg)
	if err != nil {
		return err
	}
	defer sqlDB.Close()

	switch command {
	case "init":
		if err := cache.InitSchema(ctx, sqlDB); err != nil {
			return err
		}
		log.Println("Schema ready.")
		return nil

	case "preload":
		if err := cache.InitSchema(ctx, sqlDB); err != nil {
			return err
		}

		var store ports.GeocodeCache
		if cfg.Cache.Backend == "postgres" {
			store = cache.NewSQLGeocodeCache(sqlDB)
		} else {
			store = cache.NewSqliteGeocodeCache(sqlDB)
		}
		return preload(ctx, store, snapshot)

	case "stats":
		n, err := cache.CountEntries(ctx, sqlDB)
		if err != nil {
			return err
		}
		log.Printf("%d cached postcodes", n)
		return nil

	default:
		return fmt.Errorf("unknown command %q (want init, preload or stats)", command)
	}
}

func runRedis(ctx context.Context, cfg *config.Config, command string, snapshot string) error {
	client := redis.NewClient(&redis.Options{Addr: cfg.Cache.RedisAddr, DB: cfg.Cache.RedisDB})
	defer client.Close()

	if err := client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis ping: %w", err)
	}

	switch command {
	case "init":
		// Redis needs no schema; the ping above already proved liveness.
		log.Println("Redis reachable.")
		return nil

	case "preload":
		return preload(ctx, cache.NewRedisGeocodeCache(client), snapshot)

	case "stats":
		var n int64
		iter := client.Scan(ctx, 0, "geocode:*", 0).Iterator()
		for iter.Next(ctx) {
			n++
		}
		if err := iter.Err(); err != nil {
			return fmt.Errorf("redis scan: %w", err)
		}
		log.Printf("%d cached postcodes", n)
		return nil

	default:
		return fmt.Errorf("unknown command %q (want init, preload or stats)", command)
	}
}

func openSQL(cfg *config.Config) (*sql.DB, error) {
	if cfg.Cache.Backend == "postgres" {
		return db.OpenPostgres(cfg.Cache.DatabaseURL)
	}
	return db.OpenSQLite(cfg.Cache.SQLitePath)
}

func preload(ctx context.Context, store ports.GeocodeCache, snapshot string) error {
	if snapshot == "" {
		return fmt.Errorf("preload needs -snapshot <ONS csv>")
	}

	log.Printf("Preloading %s...", snapshot)
	n, err := cache.Preload(ctx, store, func(fn func(domain.Postcode, domain.Coordinates) error) error {
		return ons.ScanSnapshot(ctx, snapshot, fn)
	})
	if err != nil {
		return err
	}

	log.Printf("Preloaded %d postcodes.", n)
	return nil
}
