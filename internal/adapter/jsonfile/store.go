// Package jsonfile reads and writes warning and fire records in the JSON
// export formats of the fire-weather dataset.
package jsonfile

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/couchcryptid/rfw-verification/internal/domain"
)

// Store loads records from a warnings file and a fires file.
// It implements domain.RecordStore.
type Store struct {
	warningsPath string
	firesPath    string
	logger       *slog.Logger
}

// NewStore creates a store over the two JSON files.
func NewStore(warningsPath, firesPath string, logger *slog.Logger) *Store {
	return &Store{warningsPath: warningsPath, firesPath: firesPath, logger: logger}
}

// LoadRecords reads both files in full.
func (s *Store) LoadRecords(ctx context.Context) (domain.Records, error) {
	if err := ctx.Err(); err != nil {
		return domain.Records{}, err
	}
	warnings, err := readFile(s.warningsPath, ReadWarnings)
	if err != nil {
		return domain.Records{}, err
	}
	if err := ctx.Err(); err != nil {
		return domain.Records{}, err
	}
	events, err := readFile(s.firesPath, ReadFires)
	if err != nil {
		return domain.Records{}, err
	}

	s.logger.Debug("records loaded from json",
		"warnings_path", s.warningsPath,
		"warnings", len(warnings),
		"fires_path", s.firesPath,
		"fires", len(events),
	)
	return domain.Records{Warnings: warnings, Events: events}, nil
}

func readFile[T any](path string, read func(io.Reader) ([]T, error)) ([]T, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	out, err := read(f)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return out, nil
}

// ReadWarnings decodes a JSON array of warnings. Warnings that carry no
// FLAT_DATE are flattened into one record per covered day.
func ReadWarnings(r io.Reader) ([]domain.WarningRecord, error) {
	var raw []warningJSON
	if err := json.NewDecoder(r).Decode(&raw); err != nil {
		return nil, fmt.Errorf("decode warnings: %w", err)
	}
	out := make([]domain.WarningRecord, 0, len(raw))
	for i, w := range raw {
		recs, err := w.records()
		if err != nil {
			return nil, fmt.Errorf("warning %d: %w", i, err)
		}
		out = append(out, recs...)
	}
	return out, nil
}

// ReadFires decodes a JSON array of fire records.
func ReadFires(r io.Reader) ([]domain.EventRecord, error) {
	var raw []fireJSON
	if err := json.NewDecoder(r).Decode(&raw); err != nil {
		return nil, fmt.Errorf("decode fires: %w", err)
	}
	out := make([]domain.EventRecord, len(raw))
	for i, f := range raw {
		rec, err := f.record()
		if err != nil {
			return nil, fmt.Errorf("fire %d: %w", i, err)
		}
		out[i] = rec
	}
	return out, nil
}

// ReadProducts decodes the raw warning archive ({"features": [{"attributes": ...}]}).
func ReadProducts(r io.Reader) ([]domain.WarningProduct, error) {
	var archive archiveJSON
	if err := json.NewDecoder(r).Decode(&archive); err != nil {
		return nil, fmt.Errorf("decode warning archive: %w", err)
	}
	out := make([]domain.WarningProduct, len(archive.Features))
	for i, f := range archive.Features {
		p, err := f.product()
		if err != nil {
			return nil, fmt.Errorf("feature %d: %w", i, err)
		}
		out[i] = p
	}
	return out, nil
}

// WriteWarnings encodes flattened warnings in the format ReadWarnings reads,
// numbering them with OBJECTID in order.
func WriteWarnings(w io.Writer, records []domain.WarningRecord) error {
	out := make([]warningJSON, len(records))
	for i, r := range records {
		out[i] = fromRecord(i, r)
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "    ")
	if err := enc.Encode(out); err != nil {
		return fmt.Errorf("encode warnings: %w", err)
	}
	return nil
}
