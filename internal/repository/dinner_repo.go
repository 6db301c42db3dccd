package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"sundaytable/internal/database"
	"sundaytable/internal/models"
)

// DinnerRepository handles database operations for dinners and family responses
type DinnerRepository struct {
	db database.DBTX
}

// NewDinnerRepository creates a new dinner repository
func NewDinnerRepository(db database.DBTX) *DinnerRepository {
	return &DinnerRepository{db: db}
}

// WithTx returns a repository bound to tx
func (r *DinnerRepository) WithTx(tx database.DBTX) *DinnerRepository {
	return &DinnerRepository{db: tx}
}

const dinnerColumns = `date_key, confirmed, host_id, meal_log, version, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanDinner(row rowScanner) (models.Dinner, error) {
	var (
		d       models.Dinner
		dateKey string
		hostID  sql.NullString
		mealLog sql.NullString
	)
	if err := row.Scan(&dateKey, &d.Confirmed, &hostID, &mealLog, &d.Version, &d.CreatedAt, &d.UpdatedAt); err != nil {
		return models.Dinner{}, err
	}
	d.Date = models.DateKey(dateKey)
	d.HostID = hostID.String
	d.Responses = map[string]models.Availability{}
	if mealLog.Valid && mealLog.String != "" {
		var log models.MealLog
		if err := json.Unmarshal([]byte(mealLog.String), &log); err != nil {
			return models.Dinner{}, fmt.Errorf("failed to decode meal log for %s: %w", dateKey, err)
		}
		d.MealLog = &log
	}
	return d, nil
}

func encodeMealLog(log *models.MealLog) (sql.NullString, error) {
	if log == nil {
		return sql.NullString{}, nil
	}
	b, err := json.Marshal(log)
	if err != nil {
		return sql.NullString{}, fmt.Errorf("failed to encode meal log: %w", err)
	}
	return sql.NullString{String: string(b), Valid: true}, nil
}

func nullableHost(hostID string) sql.NullString {
	return sql.NullString{String: hostID, Valid: hostID != ""}
}

// GetDinner loads a dinner and its responses
func (r *DinnerRepository) GetDinner(ctx context.Context, date models.DateKey) (*models.Dinner, error) {
	query := `SELECT ` + dinnerColumns + ` FROM dinners WHERE date_key = ?`
	d, err := scanDinner(r.db.QueryRowContext(ctx, query, string(date)))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get dinner %s: %w", date, err)
	}

	rows, err := r.db.QueryContext(ctx,
		`SELECT family_id, state FROM dinner_responses WHERE date_key = ?`, string(date),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get responses for %s: %w", date, err)
	}
	defer rows.Close()

	for rows.Next() {
		var familyID, state string
		if err := rows.Scan(&familyID, &state); err != nil {
			return nil, fmt.Errorf("failed to scan response: %w", err)
		}
		a, err := models.ParseAvailability(state)
		if err != nil {
			return nil, err
		}
		d.Responses[familyID] = a
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return &d, nil
}

// ListDinners returns every stored dinner ordered by date
func (r *DinnerRepository) ListDinners(ctx context.Context) ([]models.Dinner, error) {
	return r.list(ctx, `SELECT `+dinnerColumns+` FROM dinners ORDER BY date_key`)
}

// ListDinnersBetween returns dinners with from <= date <= to, ordered by date
func (r *DinnerRepository) ListDinnersBetween(ctx context.Context, from, to models.DateKey) ([]models.Dinner, error) {
	return r.list(ctx,
		`SELECT `+dinnerColumns+` FROM dinners WHERE date_key >= ? AND date_key <= ? ORDER BY date_key`,
		string(from), string(to),
	)
}

func (r *DinnerRepository) list(ctx context.Context, query string, args ...interface{}) ([]models.Dinner, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list dinners: %w", err)
	}
	var dinners []models.Dinner
	index := map[models.DateKey]int{}
	for rows.Next() {
		d, err := scanDinner(rows)
		if err != nil {
			rows.Close()
			return nil, fmt.Errorf("failed to scan dinner: %w", err)
		}
		index[d.Date] = len(dinners)
		dinners = append(dinners, d)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(dinners) == 0 {
		return dinners, nil
	}

	respRows, err := r.db.QueryContext(ctx, `SELECT date_key, family_id, state FROM dinner_responses`)
	if err != nil {
		return nil, fmt.Errorf("failed to list responses: %w", err)
	}
	defer respRows.Close()

	for respRows.Next() {
		var dateKey, familyID, state string
		if err := respRows.Scan(&dateKey, &familyID, &state); err != nil {
			return nil, fmt.Errorf("failed to scan response: %w", err)
		}
		i, ok := index[models.DateKey(dateKey)]
		if !ok {
			continue
		}
		a, err := models.ParseAvailability(state)
		if err != nil {
			return nil, err
		}
		dinners[i].Responses[familyID] = a
	}
	return dinners, respRows.Err()
}

// InsertDinner writes a new dinner row together with its responses. The row
// starts at version 1 unless d already carries one. It reports false when
// the date already exists.
func (r *DinnerRepository) InsertDinner(ctx context.Context, d models.Dinner, now time.Time) (bool, error) {
	mealLog, err := encodeMealLog(d.MealLog)
	if err != nil {
		return false, err
	}
	version := d.Version
	if version < 1 {
		version = 1
	}
	createdAt := d.CreatedAt
	if createdAt.IsZero() {
		createdAt = now
	}
	query := r.db.GetDialect().InsertIgnore(
		`INSERT INTO dinners (` + dinnerColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?)`,
	)
	result, err := r.db.ExecContext(ctx, query,
		string(d.Date), d.Confirmed, nullableHost(d.HostID), mealLog, version, createdAt, now,
	)
	if err != nil {
		return false, fmt.Errorf("failed to insert dinner %s: %w", d.Date, err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to check dinner insert: %w", err)
	}
	if n == 0 {
		return false, nil
	}

	for familyID, state := range d.Responses {
		if err := r.PutResponse(ctx, d.Date, familyID, state, now); err != nil {
			return false, err
		}
	}
	return true, nil
}

// UpdateDinner rewrites the dinner row if its version still equals
// expectedVersion, bumping the version. Responses are written separately.
func (r *DinnerRepository) UpdateDinner(ctx context.Context, d models.Dinner, expectedVersion int64, now time.Time) (bool, error) {
	mealLog, err := encodeMealLog(d.MealLog)
	if err != nil {
		return false, err
	}
	query := `
		UPDATE dinners
		SET confirmed = ?, host_id = ?, meal_log = ?, version = version + 1, updated_at = ?
		WHERE date_key = ? AND version = ?
	`
	result, err := r.db.ExecContext(ctx, query,
		d.Confirmed, nullableHost(d.HostID), mealLog, now, string(d.Date), expectedVersion,
	)
	if err != nil {
		return false, fmt.Errorf("failed to update dinner %s: %w", d.Date, err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to check dinner update: %w", err)
	}
	return n == 1, nil
}

// PutResponse stores one family's response; Unset removes the row
func (r *DinnerRepository) PutResponse(ctx context.Context, date models.DateKey, familyID string, state models.Availability, now time.Time) error {
	_, err := r.db.ExecContext(ctx,
		`DELETE FROM dinner_responses WHERE date_key = ? AND family_id = ?`, string(date), familyID,
	)
	if err != nil {
		return fmt.Errorf("failed to clear response: %w", err)
	}
	if state == models.Unset {
		return nil
	}
	_, err = r.db.ExecContext(ctx,
		`INSERT INTO dinner_responses (date_key, family_id, state, updated_at) VALUES (?, ?, ?, ?)`,
		string(date), familyID, state.String(), now,
	)
	if err != nil {
		return fmt.Errorf("failed to store response: %w", err)
	}
	return nil
}

// DeleteAll removes every dinner and response
func (r *DinnerRepository) DeleteAll(ctx context.Context) error {
	for _, table := range []string{"dinner_responses", "dinners"} {
		if _, err := r.db.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return fmt.Errorf("failed to clear %s: %w", table, err)
		}
	}
	return nil
}
