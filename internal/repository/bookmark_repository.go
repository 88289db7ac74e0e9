package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/bedrik/gospelbot/internal/models"
)

type SQLBookmarkRepository struct {
	db *sql.DB
}

func NewSQLBookmarkRepository(db *sql.DB) *SQLBookmarkRepository {
	return &SQLBookmarkRepository{db: db}
}

func (r *SQLBookmarkRepository) List(ctx context.Context, userID int64) ([]models.Bookmark, error) {
	const query = `
SELECT id, user_id, reference, created_at
FROM bookmarks WHERE user_id = ? ORDER BY created_at, id`
	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("list bookmarks: %w", err)
	}
	defer rows.Close()

	var out []models.Bookmark
	for rows.Next() {
		var b models.Bookmark
		if err := rows.Scan(&b.ID, &b.UserID, &b.Reference, &b.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan bookmark: %w", err)
		}
		out = append(out, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate bookmarks: %w", err)
	}
	return out, nil
}

func (r *SQLBookmarkRepository) Find(ctx context.Context, userID int64, reference string) (*models.Bookmark, error) {
	const query = `
SELECT id, user_id, reference, created_at
FROM bookmarks WHERE user_id = ? AND reference = ?`
	row := r.db.QueryRowContext(ctx, query, userID, reference)
	var b models.Bookmark
	if err := row.Scan(&b.ID, &b.UserID, &b.Reference, &b.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("scan bookmark: %w", err)
	}
	return &b, nil
}

func (r *SQLBookmarkRepository) Create(ctx context.Context, bookmark *models.Bookmark) error {
	const query = `INSERT INTO bookmarks (user_id, reference) VALUES (?, ?)`
	res, err := r.db.ExecContext(ctx, query, bookmark.UserID, bookmark.Reference)
	if err != nil {
		return fmt.Errorf("insert bookmark: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("bookmark last insert id: %w", err)
	}
	bookmark.ID = id
	return nil
}

func (r *SQLBookmarkRepository) Delete(ctx context.Context, userID, id int64) (bool, error) {
	const query = `DELETE FROM bookmarks WHERE id = ? AND user_id = ?`
	res, err := r.db.ExecContext(ctx, query, id, userID)
	if err != nil {
		return false, fmt.Errorf("delete bookmark: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("bookmark rows affected: %w", err)
	}
	return affected > 0, nil
}
