// Command import loads a car park CSV file into the record store.
//
//	import -file carparks.csv
//
// Rejected rows are listed with their line number and reason; the accepted
// rows are committed in one batch.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/parkwhere/internal/config"
	"github.com/parkwhere/internal/importer/csvsource"
	"github.com/parkwhere/internal/pkg/logger"
	"github.com/parkwhere/internal/repository/sqldb"
	"github.com/parkwhere/internal/usecase"
)

func main() {
	file := flag.String("file", "", "CSV file to import")
	timeout := flag.Duration("timeout", 5*time.Minute, "import timeout")
	flag.Parse()

	if *file == "" {
		fmt.Fprintln(os.Stderr, "usage: import -file <carparks.csv>")
		os.Exit(2)
	}

	cfg, err := config.Load()
	if err != nil {
		panic(fmt.Sprintf("Failed to load config: %v", err))
	}
	if cfg.Store.Driver == "memory" {
		fmt.Fprintln(os.Stderr, "STORE_DRIVER=memory keeps nothing; use sqlite or pgx")
		os.Exit(2)
	}

	log, err := logger.New(cfg.Log.Level)
	if err != nil {
		panic(fmt.Sprintf("Failed to initialize logger: %v", err))
	}
	defer log.Sync()

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	if err := run(ctx, cfg, log, *file); err != nil {
		log.Error("Import failed", zap.Error(err))
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, log *zap.Logger, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	rows, err := csvsource.ReadRows(f)
	if err != nil {
		return err
	}

	db, err := sqldb.Open(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer db.Close()

	importUC := usecase.NewImportUseCase(sqldb.NewSpotRepository(db, log), nil, logger.Component(log, "import"))
	batch, err := importUC.Import(ctx, rows)

	for _, r := range batch.Rejected() {
		fmt.Printf("line %d\t%s\t%s\n", r.Row.Line, r.Row.ID, r.Reason)
	}
	fmt.Printf("batch %s: %d accepted, %d rejected, committed=%t\n",
		batch.ID, batch.AcceptedCount(), batch.RejectedCount(), batch.Committed)
	return err
}
