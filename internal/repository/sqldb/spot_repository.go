package sqldb

import (
	"context"
	"database/sql"
	stderrors "errors"
	"fmt"
	"iter"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/parkwhere/internal/domain"
	"github.com/parkwhere/internal/domain/repository"
	"github.com/parkwhere/internal/pkg/errors"
	"github.com/parkwhere/internal/pkg/validator"
	"go.uber.org/zap"
)

// allPageSize bounds how many rows All holds a connection for.
const allPageSize = 500

const spotColumns = `id, latitude, longitude, capacity, available_count, lot_type, address, source, active, last_updated_at`

const upsertSQL = `
INSERT INTO parking_spots (` + spotColumns + `)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT (id) DO UPDATE SET
	latitude        = excluded.latitude,
	longitude       = excluded.longitude,
	capacity        = excluded.capacity,
	available_count = excluded.available_count,
	lot_type        = excluded.lot_type,
	address         = excluded.address,
	source          = excluded.source,
	active          = excluded.active,
	last_updated_at = excluded.last_updated_at`

type spotRow struct {
	ID             string  `db:"id"`
	Latitude       float64 `db:"latitude"`
	Longitude      float64 `db:"longitude"`
	Capacity       int     `db:"capacity"`
	AvailableCount int     `db:"available_count"`
	LotType        string  `db:"lot_type"`
	Address        string  `db:"address"`
	Source         string  `db:"source"`
	Active         bool    `db:"active"`
	LastUpdatedAt  int64   `db:"last_updated_at"`
}

func (r spotRow) toDomain() domain.ParkingSpot {
	return domain.ParkingSpot{
		ID:             r.ID,
		Latitude:       r.Latitude,
		Longitude:      r.Longitude,
		Capacity:       r.Capacity,
		AvailableCount: r.AvailableCount,
		LotType:        domain.LotType(r.LotType),
		Address:        r.Address,
		Source:         domain.SpotSource(r.Source),
		Active:         r.Active,
		LastUpdatedAt:  fromNanos(r.LastUpdatedAt),
	}
}

func toNanos(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return t.UnixNano()
}

func fromNanos(n int64) time.Time {
	if n == 0 {
		return time.Time{}
	}
	return time.Unix(0, n).UTC()
}

func upsertArgs(s domain.ParkingSpot) []interface{} {
	return []interface{}{
		s.ID, s.Latitude, s.Longitude, s.Capacity, s.AvailableCount,
		string(s.LotType), s.Address, string(s.Source), s.Active, toNanos(s.LastUpdatedAt),
	}
}

// SpotRepository persists the catalog in the parking_spots table. Queries are
// written with "?" and rebound for the connected driver.
type SpotRepository struct {
	db     *DB
	logger *zap.Logger
}

var _ repository.SpotRepository = (*SpotRepository)(nil)

func NewSpotRepository(db *DB, logger *zap.Logger) *SpotRepository {
	return &SpotRepository{
		db:     db,
		logger: logger,
	}
}

// Upsert inserts or replaces a spot. LastUpdatedAt is kept to the nanosecond
// and always read back in UTC.
func (r *SpotRepository) Upsert(ctx context.Context, spot domain.ParkingSpot) error {
	if err := validator.ValidateSpot(spot); err != nil {
		return err
	}

	if _, err := r.db.ExecContext(ctx, r.db.Rebind(upsertSQL), upsertArgs(spot)...); err != nil {
		r.logger.Error("Failed to upsert parking spot", zap.String("id", spot.ID), zap.Error(err))
		return errors.ErrStore.Wrap(fmt.Errorf("upsert %s: %w", spot.ID, err))
	}
	return nil
}

// UpsertBatch writes every spot in one transaction. Any validation or
// database failure rolls the whole batch back.
func (r *SpotRepository) UpsertBatch(ctx context.Context, spots []domain.ParkingSpot) error {
	for _, s := range spots {
		if err := validator.ValidateSpot(s); err != nil {
			return err
		}
	}
	if len(spots) == 0 {
		return nil
	}

	err := r.db.Transaction(ctx, func(tx *sqlx.Tx) error {
		stmt, err := tx.PreparexContext(ctx, tx.Rebind(upsertSQL))
		if err != nil {
			return fmt.Errorf("prepare upsert: %w", err)
		}
		defer stmt.Close()

		for _, s := range spots {
			if _, err := stmt.ExecContext(ctx, upsertArgs(s)...); err != nil {
				return fmt.Errorf("upsert %s: %w", s.ID, err)
			}
		}
		return nil
	})
	if err != nil {
		r.logger.Error("Batch upsert rolled back", zap.Int("spots", len(spots)), zap.Error(err))
		return errors.ErrStore.Wrap(err)
	}

	r.logger.Debug("Batch upsert committed", zap.Int("spots", len(spots)))
	return nil
}

func (r *SpotRepository) Get(ctx context.Context, id string) (*domain.ParkingSpot, error) {
	query := r.db.Rebind(`SELECT ` + spotColumns + ` FROM parking_spots WHERE id = ?`)

	var row spotRow
	if err := r.db.GetContext(ctx, &row, query, id); err != nil {
		if stderrors.Is(err, sql.ErrNoRows) {
			return nil, errors.ErrSpotNotFound
		}
		return nil, errors.ErrStore.Wrap(fmt.Errorf("get %s: %w", id, err))
	}

	spot := row.toDomain()
	return &spot, nil
}

func (r *SpotRepository) GetMany(ctx context.Context, ids []string) (map[string]domain.ParkingSpot, error) {
	out := make(map[string]domain.ParkingSpot, len(ids))
	if len(ids) == 0 {
		return out, nil
	}

	query, args, err := sqlx.In(`SELECT `+spotColumns+` FROM parking_spots WHERE id IN (?)`, ids)
	if err != nil {
		return nil, errors.ErrStore.Wrap(fmt.Errorf("build IN query: %w", err))
	}

	var rows []spotRow
	if err := r.db.SelectContext(ctx, &rows, r.db.Rebind(query), args...); err != nil {
		return nil, errors.ErrStore.Wrap(fmt.Errorf("get many: %w", err))
	}

	for _, row := range rows {
		out[row.ID] = row.toDomain()
	}
	return out, nil
}

// All pages through the table by id, so a long consumer never pins a
// connection. Each range starts a new read from the first page.
func (r *SpotRepository) All(ctx context.Context) iter.Seq2[domain.ParkingSpot, error] {
	query := r.db.Rebind(`SELECT ` + spotColumns + ` FROM parking_spots WHERE id > ? ORDER BY id LIMIT ?`)

	return func(yield func(domain.ParkingSpot, error) bool) {
		after := ""
		for {
			var page []spotRow
			if err := r.db.SelectContext(ctx, &page, query, after, allPageSize); err != nil {
				yield(domain.ParkingSpot{}, errors.ErrStore.Wrap(fmt.Errorf("scan catalog: %w", err)))
				return
			}

			for _, row := range page {
				if !yield(row.toDomain(), nil) {
					return
				}
			}

			if len(page) < allPageSize {
				return
			}
			after = page[len(page)-1].ID
		}
	}
}

func (r *SpotRepository) MarkInactive(ctx context.Context, id string, at time.Time) error {
	query := r.db.Rebind(`UPDATE parking_spots SET active = ?, last_updated_at = ? WHERE id = ?`)

	res, err := r.db.ExecContext(ctx, query, false, toNanos(at), id)
	if err != nil {
		return errors.ErrStore.Wrap(fmt.Errorf("mark inactive %s: %w", id, err))
	}

	n, err := res.RowsAffected()
	if err != nil {
		return errors.ErrStore.Wrap(err)
	}
	if n == 0 {
		return errors.ErrSpotNotFound
	}
	return nil
}

// Count returns the number of stored records, active or not.
func (r *SpotRepository) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.db.GetContext(ctx, &n, `SELECT COUNT(*) FROM parking_spots`); err != nil {
		return 0, errors.ErrStore.Wrap(err)
	}
	return n, nil
}
