package repositories

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/desertthunder/gestaopro/internal/models"
)

// AlertSettingsRepository persists the single row of sound alert preferences.
type AlertSettingsRepository struct {
	db *sql.DB
}

// NewAlertSettingsRepository creates a new [AlertSettingsRepository] with the given database connection
func NewAlertSettingsRepository(db *sql.DB) *AlertSettingsRepository {
	return &AlertSettingsRepository{db: db}
}

// Get returns the stored settings, or [models.DefaultAlertSettings] when nothing was saved yet.
func (r *AlertSettingsRepository) Get() (*models.AlertSettings, error) {
	query := `SELECT mode, interval_minutes, audio_name, updated_at FROM alert_settings WHERE id = 1`

	var (
		mode      string
		settings  models.AlertSettings
		updatedAt time.Time
	)

	err := r.db.QueryRow(query).Scan(&mode, &settings.IntervalMinutes, &settings.AudioName, &updatedAt)
	if err == sql.ErrNoRows {
		defaults := models.DefaultAlertSettings()
		return &defaults, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query alert settings: %w", err)
	}

	settings.Mode = models.AlertMode(mode)
	settings.UpdatedAt = updatedAt
	return &settings, nil
}

// Save validates and stores settings, stamping UpdatedAt.
func (r *AlertSettingsRepository) Save(settings *models.AlertSettings) error {
	if err := settings.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	settings.UpdatedAt = time.Now().UTC()

	query := `
		INSERT INTO alert_settings (id, mode, interval_minutes, audio_name, updated_at) VALUES (1, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			mode = excluded.mode,
			interval_minutes = excluded.interval_minutes,
			audio_name = excluded.audio_name,
			updated_at = excluded.updated_at
	`

	_, err := r.db.Exec(query, string(settings.Mode), settings.IntervalMinutes, settings.AudioName, settings.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to save alert settings: %w", err)
	}
	return nil
}
