package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/mattn/go-sqlite3"

	"github.com/hivoco/flipbook-api/pkg/models"
)

// fixed width so that text ordering matches time ordering
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) time.Time {
	t, err := time.Parse(timeLayout, s)
	if err != nil {
		return time.Time{}
	}
	return t
}

func isUniqueViolation(err error) bool {
	var se sqlite3.Error
	return errors.As(err, &se) && se.ExtendedCode == sqlite3.ErrConstraintUnique
}

type SQLiteBrochures struct {
	DB *sql.DB
}

func NewSQLiteBrochures(db *sql.DB) *SQLiteBrochures {
	return &SQLiteBrochures{DB: db}
}

const brochureColumns = `id, name, display_name, person_name, total_pages, images, is_landscape, created_at, updated_at`

func (r *SQLiteBrochures) Insert(ctx context.Context, b *models.Brochure) error {
	images, err := json.Marshal(nonNil(b.Images))
	if err != nil {
		return fmt.Errorf("encode images: %w", err)
	}

	_, err = r.DB.ExecContext(ctx, `
		INSERT INTO brochures (`+brochureColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, b.ID, b.Name, b.DisplayName, nullString(b.PersonName), b.TotalPages, string(images),
		b.IsLandScape, formatTime(b.CreatedAt), formatTime(b.UpdatedAt))
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicateName
		}
		return fmt.Errorf("insert brochure: %w", err)
	}
	return nil
}

func (r *SQLiteBrochures) GetByName(ctx context.Context, name string) (*models.Brochure, error) {
	row := r.DB.QueryRowContext(ctx, `SELECT `+brochureColumns+` FROM brochures WHERE name = ?`, name)

	b, err := scanBrochure(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("scan brochure: %w", err)
	}
	return b, nil
}

func (r *SQLiteBrochures) Exists(ctx context.Context, name string) (bool, error) {
	var n int
	if err := r.DB.QueryRowContext(ctx, `SELECT COUNT(*) FROM brochures WHERE name = ?`, name).Scan(&n); err != nil {
		return false, fmt.Errorf("exists scan: %w", err)
	}
	return n > 0, nil
}

func (r *SQLiteBrochures) List(ctx context.Context, q BrochureListQuery) ([]models.Brochure, error) {
	col := SortFields[NormalizeSort(q.SortBy)]
	dir := "ASC"
	if q.Desc {
		dir = "DESC"
	}

	rows, err := r.DB.QueryContext(ctx, `
		SELECT `+brochureColumns+`
		FROM brochures
		ORDER BY `+col+` `+dir+`, id `+dir+`
		LIMIT ? OFFSET ?
	`, q.Limit, q.Offset)
	if err != nil {
		return nil, fmt.Errorf("list query: %w", err)
	}
	defer rows.Close()

	out := make([]models.Brochure, 0, q.Limit)
	for rows.Next() {
		b, err := scanBrochure(rows)
		if err != nil {
			return nil, fmt.Errorf("list scan: %w", err)
		}
		out = append(out, *b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows err: %w", err)
	}
	return out, nil
}

func (r *SQLiteBrochures) Count(ctx context.Context) (int64, error) {
	var total int64
	if err := r.DB.QueryRowContext(ctx, `SELECT COUNT(*) FROM brochures`).Scan(&total); err != nil {
		return 0, fmt.Errorf("count scan: %w", err)
	}
	return total, nil
}

func (r *SQLiteBrochures) Update(ctx context.Context, b *models.Brochure) (bool, error) {
	images, err := json.Marshal(nonNil(b.Images))
	if err != nil {
		return false, fmt.Errorf("encode images: %w", err)
	}

	res, err := r.DB.ExecContext(ctx, `
		UPDATE brochures
		SET display_name = ?, person_name = ?, total_pages = ?, images = ?, is_landscape = ?, updated_at = ?
		WHERE name = ?
	`, b.DisplayName, nullString(b.PersonName), b.TotalPages, string(images), b.IsLandScape,
		formatTime(b.UpdatedAt), b.Name)
	if err != nil {
		return false, fmt.Errorf("update brochure: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return n > 0, nil
}

func (r *SQLiteBrochures) Delete(ctx context.Context, name string) (bool, error) {
	res, err := r.DB.ExecContext(ctx, `DELETE FROM brochures WHERE name = ?`, name)
	if err != nil {
		return false, fmt.Errorf("delete brochure: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return n > 0, nil
}

func (r *SQLiteBrochures) Ping(ctx context.Context) error {
	return r.DB.PingContext(ctx)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanBrochure(s rowScanner) (*models.Brochure, error) {
	var (
		b          models.Brochure
		personName sql.NullString
		imagesJSON string
		createdAt  string
		updatedAt  string
	)
	if err := s.Scan(&b.ID, &b.Name, &b.DisplayName, &personName, &b.TotalPages, &imagesJSON,
		&b.IsLandScape, &createdAt, &updatedAt); err != nil {
		return nil, err
	}

	b.PersonName = personName.String
	b.CreatedAt = parseTime(createdAt)
	b.UpdatedAt = parseTime(updatedAt)
	if err := json.Unmarshal([]byte(imagesJSON), &b.Images); err != nil {
		return nil, fmt.Errorf("decode images for %q: %w", b.Name, err)
	}
	if b.Images == nil {
		b.Images = []string{}
	}
	return &b, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
