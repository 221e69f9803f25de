package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/dustin/go-humanize"

	"github.com/nikunjparasar/cmu-bus-tub/internal/buffer"
	"github.com/nikunjparasar/cmu-bus-tub/internal/config"
	"github.com/nikunjparasar/cmu-bus-tub/internal/storage/disk"
)

func main() {
	cfgPath := flag.String("config", "", "path to a YAML config file (optional, defaults used otherwise)")
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

	cfg := config.Default()
	if *cfgPath != "" {
		loaded, err := config.Load(*cfgPath)
		if err != nil {
			logger.Error("load config", "error", err)
			os.Exit(1)
		}
		cfg = loaded
	}

	diskMgr, err := disk.NewManager(cfg.DataFile, cfg.InitialPages)
	if err != nil {
		logger.Error("open disk manager", "error", err)
		os.Exit(1)
	}
	defer diskMgr.Close()

	pool := buffer.NewPool(cfg.PoolSize, cfg.ReplacerK, diskMgr, buffer.WithLogger(logger))

	id, data, err := pool.NewPage()
	if err != nil {
		logger.Error("new page", "error", err)
		os.Exit(1)
	}
	copy(data[:], "hello, bustub")

	if !pool.UnpinPage(id, true) {
		logger.Error("unpin page", "page_id", id)
		os.Exit(1)
	}
	if err := pool.FlushPage(id); err != nil {
		logger.Error("flush page", "page_id", id, "error", err)
		os.Exit(1)
	}

	stats := pool.Stats()
	fmt.Printf("pool_size=%s resident=%d free=%d evictable=%d next_page_id=%d\n",
		humanize.Comma(int64(stats.PoolSize)), stats.Resident, stats.Free, stats.Evictable, stats.NextPageID)
}
