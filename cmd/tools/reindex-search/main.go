// cmd/tools/reindex-search/main.go
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"collections-dashboard/internal/common/config"
	"collections-dashboard/internal/common/database"
	"collections-dashboard/internal/common/logger"
	"collections-dashboard/internal/filters"
	"collections-dashboard/internal/jobs"
	"collections-dashboard/internal/search"
	"collections-dashboard/internal/store"
)

func main() {
	configPath := flag.String("config", "", "Path to a config file (default: configs/config.yaml lookup)")
	month := flag.String("month", "", "EMI month to index (Mon-YY); defaults to the current month")
	all := flag.Bool("all", false, "Index every month")
	timeout := flag.Duration("timeout", 10*time.Minute, "Overall timeout")
	flag.Parse()

	var (
		cfg *config.Config
		err error
	)
	if *configPath != "" {
		cfg, err = config.LoadFromFile(*configPath)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		fmt.Printf("Error loading config: %v\n", err)
		os.Exit(1)
	}

	log := logger.NewStructured(cfg.Logging.Level, "console")

	loc, err := time.LoadLocation(cfg.Jobs.Timezone)
	if err != nil {
		loc = time.UTC
	}

	target := *month
	switch {
	case *all:
		target = ""
	case target == "":
		target = filters.CurrentEmiMonth(time.Now().In(loc))
	default:
		if _, err := filters.ParseEmiMonth(target); err != nil {
			fmt.Printf("Error: invalid month %q, expected Mon-YY\n", target)
			os.Exit(1)
		}
		target = filters.NormalizeEmiMonth(target)
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	pg, err := database.NewPostgres(cfg.Database.Postgres)
	if err != nil {
		fmt.Printf("Error connecting to postgres: %v\n", err)
		os.Exit(1)
	}
	defer pg.Close()

	es, err := database.NewElasticsearch(cfg.Database.Elasticsearch)
	if err != nil {
		fmt.Printf("Error connecting to elasticsearch: %v\n", err)
		os.Exit(1)
	}
	if err := es.Ping(ctx); err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}

	index := search.NewIndex(es.Client, cfg.Search.Index, log)
	job := jobs.NewSearchReindexJob(store.New(pg.DB), index, loc, log)

	indexed, err := job.Reindex(ctx, target)
	if err != nil {
		fmt.Printf("Error reindexing: %v\n", err)
		os.Exit(1)
	}

	scope := target
	if scope == "" {
		scope = "all months"
	}
	fmt.Printf("Indexed %d applications (%s) into %s\n", indexed, scope, index.Name())
}
