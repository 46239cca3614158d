package database

import (
	"context"
	"encoding/json"
	"fmt"

	"insights/models"
)

const uploadSelect = `
	SELECT u.id::text, u.filename, u.filepath, u.status, u.uploaded_by_id::text, u.summary_json, u.uploaded_at,
	       usr.name, usr.email
	FROM csv_uploads u
	JOIN users usr ON usr.id = u.uploaded_by_id`

func scanUpload(row rowScanner) (*models.CsvUpload, error) {
	var up models.CsvUpload
	var summary []byte
	ref := &models.UserRef{}
	if err := row.Scan(&up.ID, &up.Filename, &up.Filepath, &up.Status, &up.UploadedByID, &summary, &up.UploadedAt,
		&ref.Name, &ref.Email); err != nil {
		return nil, err
	}
	ref.ID = up.UploadedByID
	up.UploadedBy = ref
	if len(summary) > 0 {
		var s models.UploadSummary
		if err := json.Unmarshal(summary, &s); err != nil {
			return nil, fmt.Errorf("decode upload summary: %w", err)
		}
		up.SummaryJSON = &s
	}
	return &up, nil
}

// CreateUpload stores the metadata of a saved file.
func (s *Store) CreateUpload(ctx context.Context, up *models.CsvUpload) (*models.CsvUpload, error) {
	summary, err := json.Marshal(up.SummaryJSON)
	if err != nil {
		return nil, fmt.Errorf("encode upload summary: %w", err)
	}
	status := up.Status
	if status == "" {
		status = models.UploadActive
	}

	var id string
	err = s.pool.QueryRow(ctx, `
		INSERT INTO csv_uploads (filename, filepath, status, uploaded_by_id, summary_json)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id::text`, up.Filename, up.Filepath, status, up.UploadedByID, summary).Scan(&id)
	if err != nil {
		return nil, fmt.Errorf("create upload: %w", err)
	}
	return s.GetUpload(ctx, id)
}

func (s *Store) GetUpload(ctx context.Context, id string) (*models.CsvUpload, error) {
	up, err := scanUpload(s.pool.QueryRow(ctx, uploadSelect+` WHERE u.id = $1`, id))
	if err != nil {
		return nil, notFound(err)
	}
	return up, nil
}

// ListUploads returns uploads newest first, optionally for one uploader.
// A limit <= 0 returns all.
func (s *Store) ListUploads(ctx context.Context, uploadedByID string, limit int) ([]models.CsvUpload, error) {
	query := uploadSelect + ` WHERE ($1 = '' OR u.uploaded_by_id::text = $1) ORDER BY u.uploaded_at DESC`
	args := []interface{}{uploadedByID}
	if limit > 0 {
		query += ` LIMIT $2`
		args = append(args, limit)
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list uploads: %w", err)
	}
	defer rows.Close()

	uploads := make([]models.CsvUpload, 0)
	for rows.Next() {
		up, err := scanUpload(rows)
		if err != nil {
			return nil, fmt.Errorf("scan upload: %w", err)
		}
		uploads = append(uploads, *up)
	}
	return uploads, rows.Err()
}

func (s *Store) UpdateUploadStatus(ctx context.Context, id, status string) (*models.CsvUpload, error) {
	tag, err := s.pool.Exec(ctx, `UPDATE csv_uploads SET status = $2 WHERE id = $1`, id, status)
	if err != nil {
		return nil, notFound(err)
	}
	if tag.RowsAffected() == 0 {
		return nil, ErrNotFound
	}
	return s.GetUpload(ctx, id)
}

func (s *Store) DeleteUpload(ctx context.Context, id string) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM csv_uploads WHERE id = $1`, id)
	if err != nil {
		return notFound(err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
