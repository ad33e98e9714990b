// Package sqlite persists warning and fire records in a SQLite database.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	_ "modernc.org/sqlite"

	"github.com/couchcryptid/rfw-verification/internal/domain"
)

// Store is a SQLite-backed record store.
// It implements domain.RecordStore.
type Store struct {
	db     *sql.DB
	logger *slog.Logger
}

// Open opens (creating if needed) the database at path and applies the schema.
func Open(path string, logger *slog.Logger) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("error opening database: %w", err)
	}
	// One connection keeps ":memory:" databases alive across calls.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("error while pinging database: %w", err)
	}

	s := &Store{db: db, logger: logger}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("error while migrating database: %w", err)
	}
	return s, nil
}

func (s *Store) migrate() error {
	schema := `
		CREATE TABLE IF NOT EXISTS warnings (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			office TEXT NOT NULL,
			zone TEXT NOT NULL,
			state TEXT,
			status TEXT,
			issued TEXT NOT NULL,
			expired TEXT NOT NULL,
			init_issued TEXT,
			init_expired TEXT,
			flat_date INTEGER NOT NULL,
			days INTEGER NOT NULL DEFAULT 1
		);

		CREATE TABLE IF NOT EXISTS fires (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			source_id TEXT,
			disc_date INTEGER NOT NULL,
			zone TEXT NOT NULL,
			office TEXT NOT NULL,
			cause_code INTEGER NOT NULL,
			forested INTEGER NOT NULL,
			size_acres REAL NOT NULL,
			bi_perc REAL,
			erc_perc REAL,
			fm100_perc REAL,
			fm1000_perc REAL
		);

		CREATE INDEX IF NOT EXISTS idx_warnings_flat_date ON warnings(flat_date);
		CREATE INDEX IF NOT EXISTS idx_fires_disc_date ON fires(disc_date);
	`
	_, err := s.db.Exec(schema)
	return err
}

func (s *Store) Close() error {
	return s.db.Close()
}

// SaveWarnings inserts flattened warnings in one transaction.
func (s *Store) SaveWarnings(ctx context.Context, records []domain.WarningRecord) error {
	return s.inTx(ctx, `
		INSERT INTO warnings (office, zone, state, status, issued, expired, init_issued, init_expired, flat_date, days)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		len(records), func(stmt *sql.Stmt, i int) error {
			r := records[i]
			_, err := stmt.ExecContext(ctx,
				r.Office, r.Zone, r.State, r.Status,
				domain.FormatTimestamp(r.Issued), domain.FormatTimestamp(r.Expired),
				domain.FormatTimestamp(r.InitialIssued), domain.FormatTimestamp(r.InitialExpired),
				r.FlatDate.Int(), r.Days,
			)
			return err
		})
}

// SaveEvents inserts fire records in one transaction.
func (s *Store) SaveEvents(ctx context.Context, records []domain.EventRecord) error {
	return s.inTx(ctx, `
		INSERT INTO fires (source_id, disc_date, zone, office, cause_code, forested, size_acres,
			bi_perc, erc_perc, fm100_perc, fm1000_perc)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		len(records), func(stmt *sql.Stmt, i int) error {
			r := records[i]
			_, err := stmt.ExecContext(ctx,
				r.ID, r.DiscoveryDate.Int(), r.Zone, r.Office, r.CauseCode, r.Forested, r.SizeAcres,
				nullIndex(r, domain.IndexBurningIndex), nullIndex(r, domain.IndexEnergyRelease),
				nullIndex(r, domain.IndexFuelMoisture100), nullIndex(r, domain.IndexFuelMoisture1K),
			)
			return err
		})
}

func (s *Store) inTx(ctx context.Context, query string, n int, exec func(*sql.Stmt, int) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	stmt, err := tx.PrepareContext(ctx, query)
	if err != nil {
		return fmt.Errorf("prepare: %w", err)
	}
	defer stmt.Close()

	for i := range n {
		if err := exec(stmt, i); err != nil {
			return fmt.Errorf("insert row %d: %w", i, err)
		}
	}
	return tx.Commit()
}

// LoadRecords reads every warning and fire in insertion order.
func (s *Store) LoadRecords(ctx context.Context) (domain.Records, error) {
	warnings, err := s.loadWarnings(ctx)
	if err != nil {
		return domain.Records{}, err
	}
	events, err := s.loadEvents(ctx)
	if err != nil {
		return domain.Records{}, err
	}
	s.logger.Debug("records loaded from sqlite", "warnings", len(warnings), "fires", len(events))
	return domain.Records{Warnings: warnings, Events: events}, nil
}

func (s *Store) loadWarnings(ctx context.Context) ([]domain.WarningRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT office, zone, state, status, issued, expired, init_issued, init_expired, flat_date, days
		FROM warnings ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("query warnings: %w", err)
	}
	defer rows.Close()

	var out []domain.WarningRecord
	for rows.Next() {
		var r domain.WarningRecord
		var state, status, initIssued, initExpired sql.NullString
		var issued, expired string
		var flat int
		if err := rows.Scan(&r.Office, &r.Zone, &state, &status, &issued, &expired,
			&initIssued, &initExpired, &flat, &r.Days); err != nil {
			return nil, fmt.Errorf("scan warning: %w", err)
		}
		r.State, r.Status = state.String, status.String
		if r.Issued, err = domain.ParseTimestamp(issued); err != nil {
			return nil, err
		}
		if r.Expired, err = domain.ParseTimestamp(expired); err != nil {
			return nil, err
		}
		if r.InitialIssued, err = optionalTimestamp(initIssued); err != nil {
			return nil, err
		}
		if r.InitialExpired, err = optionalTimestamp(initExpired); err != nil {
			return nil, err
		}
		if r.FlatDate, err = domain.DateFromInt(flat); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func (s *Store) loadEvents(ctx context.Context) ([]domain.EventRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT source_id, disc_date, zone, office, cause_code, forested, size_acres,
			bi_perc, erc_perc, fm100_perc, fm1000_perc
		FROM fires ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("query fires: %w", err)
	}
	defer rows.Close()

	var out []domain.EventRecord
	for rows.Next() {
		var r domain.EventRecord
		var id sql.NullString
		var disc int
		var bi, erc, fm100, fm1000 sql.NullFloat64
		if err := rows.Scan(&id, &disc, &r.Zone, &r.Office, &r.CauseCode, &r.Forested, &r.SizeAcres,
			&bi, &erc, &fm100, &fm1000); err != nil {
			return nil, fmt.Errorf("scan fire: %w", err)
		}
		r.ID = id.String
		if r.DiscoveryDate, err = domain.DateFromInt(disc); err != nil {
			return nil, err
		}
		r.DangerIndices = make(map[string]float64, 4)
		for name, v := range map[string]sql.NullFloat64{
			domain.IndexBurningIndex:    bi,
			domain.IndexEnergyRelease:   erc,
			domain.IndexFuelMoisture100: fm100,
			domain.IndexFuelMoisture1K:  fm1000,
		} {
			if v.Valid {
				r.DangerIndices[name] = v.Float64
			}
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func nullIndex(r domain.EventRecord, name string) sql.NullFloat64 {
	v, ok := r.DangerIndex(name)
	return sql.NullFloat64{Float64: v, Valid: ok}
}

func optionalTimestamp(s sql.NullString) (time.Time, error) {
	if !s.Valid || s.String == "" {
		return time.Time{}, nil
	}
	return domain.ParseTimestamp(s.String)
}
