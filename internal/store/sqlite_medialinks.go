package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/hivoco/flipbook-api/pkg/models"
)

type SQLiteMediaLinks struct {
	DB *sql.DB
}

func NewSQLiteMediaLinks(db *sql.DB) *SQLiteMediaLinks {
	return &SQLiteMediaLinks{DB: db}
}

const mediaLinkColumns = `id, brochure_name, page_number, link, link_type,
	coord_x, coord_y, coord_width, coord_height, is_image, images,
	priority, is_active, click_count, last_clicked_at, created_at, updated_at`

func (r *SQLiteMediaLinks) Insert(ctx context.Context, ml *models.MediaLink) error {
	images, err := json.Marshal(nonNil(ml.Images))
	if err != nil {
		return fmt.Errorf("encode images: %w", err)
	}

	_, err = r.DB.ExecContext(ctx, `
		INSERT INTO media_links (`+mediaLinkColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, ml.ID, ml.BrochureName, ml.PageNumber, nullString(ml.Link), ml.LinkType,
		ml.Coordinates.X, ml.Coordinates.Y, ml.Coordinates.Width, ml.Coordinates.Height,
		ml.IsImage, string(images), ml.Priority, ml.IsActive, ml.ClickCount,
		nullTime(ml.LastClickedAt), formatTime(ml.CreatedAt), formatTime(ml.UpdatedAt))
	if err != nil {
		return fmt.Errorf("insert media link: %w", err)
	}
	return nil
}

func (r *SQLiteMediaLinks) GetByID(ctx context.Context, id string) (*models.MediaLink, error) {
	row := r.DB.QueryRowContext(ctx, `SELECT `+mediaLinkColumns+` FROM media_links WHERE id = ?`, id)

	ml, err := scanMediaLink(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("scan media link: %w", err)
	}
	return ml, nil
}

func (r *SQLiteMediaLinks) ListByBrochure(ctx context.Context, brochureName string, f MediaLinkFilter) ([]models.MediaLink, error) {
	where := []string{"brochure_name = ?"}
	args := []any{brochureName}

	if f.PageNumber != nil {
		where = append(where, "page_number = ?")
		args = append(args, *f.PageNumber)
	}
	if f.LinkType != "" {
		where = append(where, "link_type = ?")
		args = append(args, f.LinkType)
	}
	if f.IsActive != nil {
		where = append(where, "is_active = ?")
		args = append(args, *f.IsActive)
	}

	rows, err := r.DB.QueryContext(ctx, `
		SELECT `+mediaLinkColumns+`
		FROM media_links
		WHERE `+strings.Join(where, " AND ")+`
		ORDER BY priority DESC, created_at DESC
	`, args...)
	if err != nil {
		return nil, fmt.Errorf("list media links: %w", err)
	}
	defer rows.Close()

	out := []models.MediaLink{}
	for rows.Next() {
		ml, err := scanMediaLink(rows)
		if err != nil {
			return nil, fmt.Errorf("list scan: %w", err)
		}
		out = append(out, *ml)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows err: %w", err)
	}
	return out, nil
}

func (r *SQLiteMediaLinks) Update(ctx context.Context, ml *models.MediaLink) (bool, error) {
	images, err := json.Marshal(nonNil(ml.Images))
	if err != nil {
		return false, fmt.Errorf("encode images: %w", err)
	}

	res, err := r.DB.ExecContext(ctx, `
		UPDATE media_links
		SET brochure_name = ?, page_number = ?, link = ?, link_type = ?,
		    coord_x = ?, coord_y = ?, coord_width = ?, coord_height = ?,
		    is_image = ?, images = ?, priority = ?, is_active = ?, updated_at = ?
		WHERE id = ?
	`, ml.BrochureName, ml.PageNumber, nullString(ml.Link), ml.LinkType,
		ml.Coordinates.X, ml.Coordinates.Y, ml.Coordinates.Width, ml.Coordinates.Height,
		ml.IsImage, string(images), ml.Priority, ml.IsActive, formatTime(ml.UpdatedAt), ml.ID)
	if err != nil {
		return false, fmt.Errorf("update media link: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return n > 0, nil
}

func (r *SQLiteMediaLinks) Delete(ctx context.Context, id string) (bool, error) {
	res, err := r.DB.ExecContext(ctx, `DELETE FROM media_links WHERE id = ?`, id)
	if err != nil {
		return false, fmt.Errorf("delete media link: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return n > 0, nil
}

func (r *SQLiteMediaLinks) DeleteByBrochure(ctx context.Context, brochureName string) (int64, error) {
	res, err := r.DB.ExecContext(ctx, `DELETE FROM media_links WHERE brochure_name = ?`, brochureName)
	if err != nil {
		return 0, fmt.Errorf("delete media links: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected: %w", err)
	}
	return n, nil
}

// IncrementClick bumps the counter in a single statement.
func (r *SQLiteMediaLinks) IncrementClick(ctx context.Context, id string, at time.Time) (*models.MediaLink, error) {
	res, err := r.DB.ExecContext(ctx, `
		UPDATE media_links
		SET click_count = click_count + 1, last_clicked_at = ?
		WHERE id = ?
	`, formatTime(at), id)
	if err != nil {
		return nil, fmt.Errorf("increment click: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return nil, nil
	}
	return r.GetByID(ctx, id)
}

func (r *SQLiteMediaLinks) ClickStats(ctx context.Context, brochureName string) ([]models.ClickStat, error) {
	query := `
		SELECT id, brochure_name, page_number, link_type, link, click_count, last_clicked_at
		FROM media_links
	`
	var args []any
	if brochureName != "" {
		query += ` WHERE brochure_name = ?`
		args = append(args, brochureName)
	}
	query += ` ORDER BY click_count DESC, brochure_name ASC, page_number ASC`

	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("click stats query: %w", err)
	}
	defer rows.Close()

	var out []models.ClickStat
	for rows.Next() {
		var (
			s           models.ClickStat
			link        sql.NullString
			lastClicked sql.NullString
		)
		if err := rows.Scan(&s.ID, &s.BrochureName, &s.PageNumber, &s.LinkType, &link, &s.ClickCount, &lastClicked); err != nil {
			return nil, fmt.Errorf("click stats scan: %w", err)
		}
		s.Link = link.String
		if lastClicked.Valid {
			t := parseTime(lastClicked.String)
			s.LastClickedAt = &t
		}
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows err: %w", err)
	}
	return out, nil
}

func scanMediaLink(s rowScanner) (*models.MediaLink, error) {
	var (
		ml          models.MediaLink
		link        sql.NullString
		imagesJSON  string
		lastClicked sql.NullString
		createdAt   string
		updatedAt   string
	)
	if err := s.Scan(&ml.ID, &ml.BrochureName, &ml.PageNumber, &link, &ml.LinkType,
		&ml.Coordinates.X, &ml.Coordinates.Y, &ml.Coordinates.Width, &ml.Coordinates.Height,
		&ml.IsImage, &imagesJSON, &ml.Priority, &ml.IsActive, &ml.ClickCount, &lastClicked,
		&createdAt, &updatedAt); err != nil {
		return nil, err
	}

	ml.Link = link.String
	if lastClicked.Valid {
		t := parseTime(lastClicked.String)
		ml.LastClickedAt = &t
	}
	ml.CreatedAt = parseTime(createdAt)
	ml.UpdatedAt = parseTime(updatedAt)
	if err := json.Unmarshal([]byte(imagesJSON), &ml.Images); err != nil {
		return nil, fmt.Errorf("decode images for %s: %w", ml.ID, err)
	}
	if len(ml.Images) == 0 {
		ml.Images = nil
	}
	return &ml, nil
}

func nullTime(t *time.Time) sql.NullString {
	if t == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: formatTime(*t), Valid: true}
}
