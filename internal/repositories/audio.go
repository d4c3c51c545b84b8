package repositories

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/desertthunder/gestaopro/internal/models"
	"github.com/desertthunder/gestaopro/internal/shared"
)

// AudioRepository keeps receipts of audio files uploaded to the backend.
type AudioRepository struct {
	db *sql.DB
}

// NewAudioRepository creates a new [AudioRepository] with the given database connection
func NewAudioRepository(db *sql.DB) *AudioRepository {
	return &AudioRepository{db: db}
}

const audioColumns = `id, sequence, name, url, uploaded_at, deleted_at`

// Create stores a receipt with a generated ID and sequence.
func (r *AudioRepository) Create(audio *models.AudioFile) error {
	if audio.Name == "" || audio.URL == "" {
		return fmt.Errorf("%w: audio name and url are required", shared.ErrInvalidInput)
	}

	sequence, err := NextSequence(r.db, "audio_files")
	if err != nil {
		return fmt.Errorf("failed to generate sequence: %w", err)
	}

	audio.ID = shared.GenerateID()
	audio.Sequence = sequence
	if audio.UploadedAt.IsZero() {
		audio.UploadedAt = time.Now().UTC()
	}

	query := `INSERT INTO audio_files (id, sequence, name, url, uploaded_at) VALUES (?, ?, ?, ?, ?)`

	if _, err := r.db.Exec(query, audio.ID, audio.Sequence, audio.Name, audio.URL, audio.UploadedAt); err != nil {
		return fmt.Errorf("failed to insert audio file: %w", err)
	}
	return nil
}

// Get retrieves a receipt by ID, excluding soft-deleted ones
func (r *AudioRepository) Get(id string) (*models.AudioFile, error) {
	query := `SELECT ` + audioColumns + ` FROM audio_files WHERE id = ? AND deleted_at IS NULL`

	audio, err := scanAudio(r.db.QueryRow(query, id))
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: audio file %s", shared.ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query audio file: %w", err)
	}
	return audio, nil
}

// GetByName returns the most recent upload with the given file name.
func (r *AudioRepository) GetByName(name string) (*models.AudioFile, error) {
	query := `
		SELECT ` + audioColumns + ` FROM audio_files
		WHERE name = ? AND deleted_at IS NULL
		ORDER BY sequence DESC LIMIT 1
	`

	audio, err := scanAudio(r.db.QueryRow(query, name))
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: audio file %s", shared.ErrNotFound, name)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query audio file: %w", err)
	}
	return audio, nil
}

// List returns every live receipt in upload order.
func (r *AudioRepository) List() ([]*models.AudioFile, error) {
	query := `SELECT ` + audioColumns + ` FROM audio_files WHERE deleted_at IS NULL ORDER BY sequence ASC`

	rows, err := r.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to query audio files: %w", err)
	}
	defer rows.Close()

	files := []*models.AudioFile{}
	for rows.Next() {
		audio, err := scanAudio(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan audio file: %w", err)
		}
		files = append(files, audio)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}
	return files, nil
}

// Delete soft-deletes a receipt by ID. The file itself stays on the backend.
func (r *AudioRepository) Delete(id string) error {
	query := `UPDATE audio_files SET deleted_at = ? WHERE id = ? AND deleted_at IS NULL`

	result, err := r.db.Exec(query, time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("failed to delete audio file: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("%w: audio file not found or already deleted: %s", shared.ErrNotFound, id)
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanAudio(row scanner) (*models.AudioFile, error) {
	var (
		audio     models.AudioFile
		deletedAt sql.NullTime
	)
	if err := row.Scan(&audio.ID, &audio.Sequence, &audio.Name, &audio.URL, &audio.UploadedAt, &deletedAt); err != nil {
		return nil, err
	}
	if deletedAt.Valid {
		audio.DeletedAt = &deletedAt.Time
	}
	return &audio, nil
}
