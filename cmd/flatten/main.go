// Command flatten reduces a raw warning archive to fire-weather warnings from
// a set of offices and flattens each warning into one record per covered day.
// The result is written as flattened JSON, into a SQLite store, or both. Fire
// records can be imported into the same store.
//
// Usage:
//
//	go run ./cmd/flatten \
//	  -archive data/RFWs_2006_2015.json \
//	  -out data/RFWs_Northwest.json \
//	  -sqlite data/rfw.db \
//	  -fires data/Fires_Northwest.json
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"

	sharedobs "github.com/couchcryptid/storm-data-shared/observability"

	"github.com/couchcryptid/rfw-verification/internal/adapter/jsonfile"
	"github.com/couchcryptid/rfw-verification/internal/adapter/sqlite"
	"github.com/couchcryptid/rfw-verification/internal/domain"
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	archivePath := flag.String("archive", "", "raw warning archive JSON ({\"features\": [...]})")
	offices := flag.String("offices", strings.Join(domain.NorthwestOffices, ","), "comma-separated issuing offices to keep")
	out := flag.String("out", "", "output path for flattened warnings JSON")
	dbPath := flag.String("sqlite", "", "SQLite database to store flattened warnings in")
	firesPath := flag.String("fires", "", "fire records JSON to import into the SQLite database")
	logLevel := flag.String("log-level", "info", "debug, info, warn, or error")
	flag.Parse()

	if *archivePath == "" || (*out == "" && *dbPath == "") {
		flag.Usage()
		return fmt.Errorf("-archive and one of -out or -sqlite are required")
	}
	if *firesPath != "" && *dbPath == "" {
		return fmt.Errorf("-fires requires -sqlite")
	}

	logger := sharedobs.NewLogger(*logLevel, "text")

	products, err := readProducts(*archivePath)
	if err != nil {
		return err
	}
	reduced := domain.ReduceProducts(products, splitOffices(*offices))
	warnings := domain.FlattenAll(reduced)
	logger.Info("warnings flattened",
		"products", len(products),
		"reduced", len(reduced),
		"flattened", len(warnings),
	)

	if *out != "" {
		if err := writeWarnings(*out, warnings); err != nil {
			return err
		}
		logger.Info("wrote flattened warnings", "path", *out)
	}

	if *dbPath == "" {
		return nil
	}
	store, err := sqlite.Open(*dbPath, logger)
	if err != nil {
		return err
	}
	defer store.Close()

	ctx := context.Background()
	if err := store.SaveWarnings(ctx, warnings); err != nil {
		return fmt.Errorf("save warnings: %w", err)
	}
	logger.Info("stored flattened warnings", "path", *dbPath, "count", len(warnings))

	if *firesPath != "" {
		f, err := os.Open(*firesPath)
		if err != nil {
			return err
		}
		defer f.Close()
		fires, err := jsonfile.ReadFires(f)
		if err != nil {
			return fmt.Errorf("read %s: %w", *firesPath, err)
		}
		if err := store.SaveEvents(ctx, fires); err != nil {
			return fmt.Errorf("save fires: %w", err)
		}
		logger.Info("stored fires", "path", *dbPath, "count", len(fires))
	}
	return nil
}

func readProducts(path string) ([]domain.WarningProduct, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	products, err := jsonfile.ReadProducts(f)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return products, nil
}

func writeWarnings(path string, warnings []domain.WarningRecord) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := jsonfile.WriteWarnings(f, warnings); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func splitOffices(s string) []string {
	var out []string
	for _, o := range strings.Split(s, ",") {
		if o = strings.TrimSpace(o); o != "" {
			out = append(out, strings.ToUpper(o))
		}
	}
	return out
}
