package models

import (
	"fmt"
	"time"
)

// AlertMode selects when the dashboard plays a sound alert.
type AlertMode string

const (
	AlertDisabled AlertMode = "disabled"
	AlertOnOrder  AlertMode = "on-order"
	AlertInterval AlertMode = "interval"
)

// Interval bounds accepted for [AlertInterval] mode, in minutes.
const (
	MinAlertInterval = 1
	MaxAlertInterval = 60
)

// KnownAudioNames are the stock alert sounds served by the backend.
var KnownAudioNames = []string{
	"novo_pedido.mp3",
	"estoque_baixo.mp3",
	"pedido_concluido.mp3",
	"alerta_geral.mp3",
}

// ParseAlertMode validates s.
func ParseAlertMode(s string) (AlertMode, error) {
	switch m := AlertMode(s); m {
	case AlertDisabled, AlertOnOrder, AlertInterval:
		return m, nil
	}
	return "", fmt.Errorf("unknown alert mode %q", s)
}

// AlertSettings are the local sound alert preferences.
type AlertSettings struct {
	Mode            AlertMode `json:"mode"`
	IntervalMinutes int       `json:"interval_minutes"`
	AudioName       string    `json:"audio_name"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// DefaultAlertSettings returns the settings used before anything is saved.
func DefaultAlertSettings() AlertSettings {
	return AlertSettings{Mode: AlertDisabled, IntervalMinutes: 5, AudioName: KnownAudioNames[0]}
}

// Validate checks the mode and, for interval mode, the interval bounds.
func (s AlertSettings) Validate() error {
	if _, err := ParseAlertMode(string(s.Mode)); err != nil {
		return err
	}
	if s.Mode == AlertInterval && (s.IntervalMinutes < MinAlertInterval || s.IntervalMinutes > MaxAlertInterval) {
		return fmt.Errorf("interval must be between %d and %d minutes, got %d", MinAlertInterval, MaxAlertInterval, s.IntervalMinutes)
	}
	if s.AudioName == "" {
		return fmt.Errorf("audio name is required")
	}
	return nil
}

// Interval returns the interval as a [time.Duration].
func (s AlertSettings) Interval() time.Duration {
	return time.Duration(s.IntervalMinutes) * time.Minute
}

// AudioFile is the receipt of an audio upload: the backend keeps the file, we keep where it lives.
type AudioFile struct {
	ID         string     `json:"id"`
	Sequence   int        `json:"-"`
	Name       string     `json:"name"`
	URL        string     `json:"url"`
	UploadedAt time.Time  `json:"uploaded_at"`
	DeletedAt  *time.Time `json:"-"`
}
