package postgres

import (
	"context"
	"errors"

	"github.com/gofrs/uuid/v5"
	"github.com/jackc/pgx/v5"

	"github.com/chronica-app/chronica/internal/errs"
	"github.com/chronica-app/chronica/internal/model"
)

// EntryRepo implements EntryRepository using PostgreSQL.
type EntryRepo struct{ db *DB }

// NewEntryRepo constructs an entry repository.
func NewEntryRepo(db *DB) *EntryRepo { return &EntryRepo{db: db} }

const entryCols = `id, user_id, title, content, date, ts, location, latitude, longitude, image_base64, audio_file_name`

// Create inserts a complete entry document.
func (r *EntryRepo) Create(ctx context.Context, e *model.Entry) error {
	const q = `
INSERT INTO entries (id, user_id, title, content, date, ts, location, latitude, longitude, image_base64, audio_file_name)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)`
	lat, lng := geoCols(e.Geo)
	_, err := r.db.Pool.Exec(ctx, q,
		e.ID, e.UserID, e.Title, e.Content, e.Date, e.Timestamp,
		e.Location, lat, lng, e.ImageBase64, e.AudioFileName)
	return err
}

// Update applies a partial update. Media columns are only written when the
// corresponding Changed flag is set; everything else keeps its stored value.
func (r *EntryRepo) Update(ctx context.Context, userID, entryID uuid.UUID, p model.EntryPatch) error {
	const q = `
UPDATE entries SET
  title=$3, content=$4, location=$5, latitude=$6, longitude=$7,
  image_base64    = CASE WHEN $8::bool  THEN $9  ELSE image_base64 END,
  audio_file_name = CASE WHEN $10::bool THEN $11 ELSE audio_file_name END
WHERE id=$1 AND user_id=$2`
	lat, lng := geoCols(p.Geo)
	tag, err := r.db.Pool.Exec(ctx, q,
		entryID, userID, p.Title, p.Content, p.Location, lat, lng,
		p.ImageChanged, p.ImageBase64, p.AudioChanged, p.AudioFileName)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return errs.ErrNotFound
	}
	return nil
}

// Delete removes an entry document.
func (r *EntryRepo) Delete(ctx context.Context, userID, entryID uuid.UUID) error {
	const q = `DELETE FROM entries WHERE id=$1 AND user_id=$2`
	tag, err := r.db.Pool.Exec(ctx, q, entryID, userID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return errs.ErrNotFound
	}
	return nil
}

// Get returns a single entry by ID.
func (r *EntryRepo) Get(ctx context.Context, userID, entryID uuid.UUID) (*model.Entry, error) {
	const q = `
SELECT ` + entryCols + `
FROM entries WHERE user_id=$1 AND id=$2`
	row := r.db.Pool.QueryRow(ctx, q, userID, entryID)
	e, err := scanEntry(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, errs.ErrNotFound
		}
		return nil, err
	}
	return e, nil
}

// ListByUser returns all entries of a user, newest first.
func (r *EntryRepo) ListByUser(ctx context.Context, userID uuid.UUID) ([]model.Entry, error) {
	const q = `
SELECT ` + entryCols + `
FROM entries WHERE user_id=$1
ORDER BY ts DESC`
	return r.list(ctx, q, userID)
}

// ListWithLocation returns the user's geo-tagged entries, newest first.
func (r *EntryRepo) ListWithLocation(ctx context.Context, userID uuid.UUID) ([]model.Entry, error) {
	const q = `
SELECT ` + entryCols + `
FROM entries
WHERE user_id=$1 AND latitude IS NOT NULL AND longitude IS NOT NULL
ORDER BY ts DESC`
	return r.list(ctx, q, userID)
}

func (r *EntryRepo) list(ctx context.Context, q string, userID uuid.UUID) ([]model.Entry, error) {
	rows, err := r.db.Pool.Query(ctx, q, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Entry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *e)
	}
	return out, rows.Err()
}

func scanEntry(row interface{ Scan(dest ...any) error }) (*model.Entry, error) {
	var (
		e        model.Entry
		lat, lng *float64
	)
	if err := row.Scan(&e.ID, &e.UserID, &e.Title, &e.Content, &e.Date, &e.Timestamp,
		&e.Location, &lat, &lng, &e.ImageBase64, &e.AudioFileName); err != nil {
		return nil, err
	}
	if lat != nil && lng != nil {
		e.Geo = &model.GeoPoint{Latitude: *lat, Longitude: *lng}
	}
	return &e, nil
}

// geoCols splits an optional point into nullable column values.
func geoCols(p *model.GeoPoint) (lat, lng *float64) {
	if p == nil {
		return nil, nil
	}
	return &p.Latitude, &p.Longitude
}
