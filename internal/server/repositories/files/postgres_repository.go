package files

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/filekeeper/internal/common"
	"github.com/dmitrijs2005/filekeeper/internal/dbx"
	"github.com/dmitrijs2005/filekeeper/internal/server/models"
)

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Create(ctx context.Context, file *models.File) error {
	query := `
		INSERT INTO files (name, extension, mime_type, size, url, upload_date, user_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at, updated_at
	`
	err := r.db.QueryRowContext(ctx, query,
		file.Name, file.Extension, file.MimeType, file.Size, file.URL, file.UploadDate, file.UserID,
	).Scan(&file.ID, &file.CreatedAt, &file.UpdatedAt)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *PostgresRepository) FindOwned(ctx context.Context, id int64, userID string) (*models.File, error) {
	query := `
		SELECT id, name, extension, mime_type, size, url, upload_date, user_id, created_at, updated_at
		FROM files
		WHERE id = $1 AND user_id = $2
	`
	f := &models.File{}
	err := r.db.QueryRowContext(ctx, query, id, userID).Scan(
		&f.ID, &f.Name, &f.Extension, &f.MimeType, &f.Size, &f.URL, &f.UploadDate, &f.UserID, &f.CreatedAt, &f.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return f, nil
}

func (r *PostgresRepository) ListOwned(ctx context.Context, userID string, limit, offset int) ([]*models.File, int64, error) {
	var total int64
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM files WHERE user_id = $1`, userID).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count files: %w", err)
	}

	query := `
		SELECT id, name, extension, mime_type, size, url, upload_date, user_id, created_at, updated_at
		FROM files
		WHERE user_id = $1
		ORDER BY id
		LIMIT $2 OFFSET $3
	`
	rows, err := r.db.QueryContext(ctx, query, userID, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to select files: %w", err)
	}
	defer rows.Close()

	result := make([]*models.File, 0, limit)
	for rows.Next() {
		f := &models.File{}
		if err := rows.Scan(&f.ID, &f.Name, &f.Extension, &f.MimeType, &f.Size, &f.URL, &f.UploadDate, &f.UserID, &f.CreatedAt, &f.UpdatedAt); err != nil {
			return nil, 0, err
		}
		result = append(result, f)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	return result, total, nil
}

func (r *PostgresRepository) Update(ctx context.Context, file *models.File) error {
	query := `
		UPDATE files
		SET name = $1, extension = $2, mime_type = $3, size = $4, url = $5, upload_date = $6, updated_at = now()
		WHERE id = $7 AND user_id = $8
		RETURNING updated_at
	`
	err := r.db.QueryRowContext(ctx, query,
		file.Name, file.Extension, file.MimeType, file.Size, file.URL, file.UploadDate, file.ID, file.UserID,
	).Scan(&file.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return common.ErrorNotFound
		}
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *PostgresRepository) Delete(ctx context.Context, id int64, userID string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM files WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return fmt.Errorf("failed to delete file: %w", err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if n == 0 {
		return common.ErrorNotFound
	}
	return nil
}
