// migrate applies the embedded SQL migrations: the directory set against the
// directory database and the regional set against every regional database.
package main

import (
	"flag"
	"fmt"
	"os"

	"talentgrid/backend/internal/config"
	"talentgrid/backend/internal/db/migrate"
)

func main() {
	direction := flag.String("direction", "up", "Migration direction: up or down")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "config:", err)
		os.Exit(1)
	}
	if cfg.DirectoryDatabaseURL == "" {
		fmt.Fprintln(os.Stderr, "DIRECTORY_DATABASE_URL is not set")
		os.Exit(1)
	}
	regionURLs, err := cfg.RegionURLs()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	if err := migrate.Run(cfg.DirectoryDatabaseURL, migrate.SetDirectory, *direction); err != nil {
		fmt.Fprintln(os.Stderr, "migrate directory:", err)
		os.Exit(1)
	}
	for rg, dsn := range regionURLs {
		if err := migrate.Run(dsn, migrate.SetRegional, *direction); err != nil {
			fmt.Fprintf(os.Stderr, "migrate region %s: %v\n", rg, err)
			os.Exit(1)
		}
	}
}
