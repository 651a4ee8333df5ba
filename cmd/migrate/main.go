package main

import (
	"flag"
	"os"

	"github.com/geocoder89/schedulehub/internal/config"
	"github.com/geocoder89/schedulehub/internal/db"
	"github.com/geocoder89/schedulehub/internal/observability"
)

func main() {
	down := flag.Int("down", 0, "roll back this many migrations instead of migrating up")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		observability.NewLogger("prod").Error("config load failed", "err", err)
		os.Exit(1)
	}

	log := observability.NewLogger(cfg.Env)

	if *down > 0 {
		if err := db.MigrateDown(cfg.DBURL, *down); err != nil {
			log.Error("migrate down failed", "err", err)
			os.Exit(1)
		}
		log.Info("migrations rolled back", "steps", *down)
		return
	}

	if err := db.Migrate(cfg.DBURL); err != nil {
		log.Error("migrate up failed", "err", err)
		os.Exit(1)
	}

	log.Info("migrations applied")
}
