package repositories

import (
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/desertthunder/gestaopro/internal/models"
	"github.com/desertthunder/gestaopro/internal/shared"
)

// setupTestDB creates an in-memory SQLite database with migrations applied
func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := shared.NewDatabase(":memory:")
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}

	if err := shared.RunMigrations(db); err != nil {
		db.Close()
		t.Fatalf("failed to run migrations: %v", err)
	}

	return db
}

func TestNextSequence(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	for want := 1; want <= 3; want++ {
		got, err := NextSequence(db, "audio_files")
		if err != nil {
			t.Fatalf("NextSequence failed: %v", err)
		}
		if got != want {
			t.Errorf("expected sequence %d, got %d", want, got)
		}
	}

	if _, err := NextSequence(db, "missing"); err == nil {
		t.Error("expected error for a table without a sequence")
	}
}

func TestAlertSettingsRepository(t *testing.T) {
	t.Run("GetDefaults", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		settings, err := NewAlertSettingsRepository(db).Get()
		if err != nil {
			t.Fatalf("failed to get settings: %v", err)
		}

		want := models.DefaultAlertSettings()
		if settings.Mode != want.Mode || settings.IntervalMinutes != want.IntervalMinutes || settings.AudioName != want.AudioName {
			t.Errorf("expected defaults %+v, got %+v", want, settings)
		}
	})

	t.Run("SaveAndGet", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		repo := NewAlertSettingsRepository(db)
		settings := &models.AlertSettings{Mode: models.AlertInterval, IntervalMinutes: 15, AudioName: "alerta_geral.mp3"}

		if err := repo.Save(settings); err != nil {
			t.Fatalf("failed to save settings: %v", err)
		}
		if settings.UpdatedAt.IsZero() {
			t.Error("UpdatedAt should be set after save")
		}

		got, err := repo.Get()
		if err != nil {
			t.Fatalf("failed to get settings: %v", err)
		}
		if got.Mode != models.AlertInterval {
			t.Errorf("expected mode %s, got %s", models.AlertInterval, got.Mode)
		}
		if got.IntervalMinutes != 15 {
			t.Errorf("expected interval 15, got %d", got.IntervalMinutes)
		}
		if got.AudioName != "alerta_geral.mp3" {
			t.Errorf("expected audio alerta_geral.mp3, got %s", got.AudioName)
		}
	})

	t.Run("SaveOverwrites", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		repo := NewAlertSettingsRepository(db)
		first := &models.AlertSettings{Mode: models.AlertInterval, IntervalMinutes: 10, AudioName: "novo_pedido.mp3"}
		second := &models.AlertSettings{Mode: models.AlertOnOrder, IntervalMinutes: 10, AudioName: "pedido_concluido.mp3"}

		if err := repo.Save(first); err != nil {
			t.Fatalf("failed to save first settings: %v", err)
		}
		if err := repo.Save(second); err != nil {
			t.Fatalf("failed to save second settings: %v", err)
		}

		var count int
		if err := db.QueryRow("SELECT COUNT(*) FROM alert_settings").Scan(&count); err != nil {
			t.Fatalf("failed to count rows: %v", err)
		}
		if count != 1 {
			t.Errorf("expected a single settings row, got %d", count)
		}

		got, err := repo.Get()
		if err != nil {
			t.Fatalf("failed to get settings: %v", err)
		}
		if got.Mode != models.AlertOnOrder || got.AudioName != "pedido_concluido.mp3" {
			t.Errorf("expected second settings, got %+v", got)
		}
	})

	t.Run("SaveValidationError", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		repo := NewAlertSettingsRepository(db)
		tests := []*models.AlertSettings{
			{Mode: "loud", IntervalMinutes: 5, AudioName: "novo_pedido.mp3"},
			{Mode: models.AlertInterval, IntervalMinutes: 0, AudioName: "novo_pedido.mp3"},
			{Mode: models.AlertInterval, IntervalMinutes: 61, AudioName: "novo_pedido.mp3"},
			{Mode: models.AlertDisabled, IntervalMinutes: 5},
		}
		for _, settings := range tests {
			if err := repo.Save(settings); err == nil {
				t.Errorf("expected validation error for %+v", settings)
			}
		}
	})

	t.Run("ClosedDatabase", func(t *testing.T) {
		db := setupTestDB(t)
		db.Close()

		repo := NewAlertSettingsRepository(db)
		if _, err := repo.Get(); err == nil {
			t.Error("expected error from closed database")
		}
		if err := repo.Save(&models.AlertSettings{Mode: models.AlertDisabled, AudioName: "novo_pedido.mp3"}); err == nil {
			t.Error("expected error from closed database")
		}
	})
}

func TestAudioRepository(t *testing.T) {
	t.Run("Create", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		repo := NewAudioRepository(db)
		audio := &models.AudioFile{Name: "novo_pedido.mp3", URL: "/uploads/novo_pedido.mp3"}

		if err := repo.Create(audio); err != nil {
			t.Fatalf("failed to create audio file: %v", err)
		}
		if audio.ID == "" {
			t.Error("audio ID should be set after creation")
		}
		if audio.Sequence != 1 {
			t.Errorf("expected sequence 1, got %d", audio.Sequence)
		}
		if audio.UploadedAt.IsZero() {
			t.Error("UploadedAt should be set after creation")
		}
	})

	t.Run("CreateValidationError", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		err := NewAudioRepository(db).Create(&models.AudioFile{Name: "x.mp3"})
		if !errors.Is(err, shared.ErrInvalidInput) {
			t.Errorf("expected ErrInvalidInput, got %v", err)
		}
	})

	t.Run("Get", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		repo := NewAudioRepository(db)
		uploaded := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
		audio := &models.AudioFile{Name: "a.mp3", URL: "/uploads/a.mp3", UploadedAt: uploaded}
		if err := repo.Create(audio); err != nil {
			t.Fatalf("failed to create audio file: %v", err)
		}

		got, err := repo.Get(audio.ID)
		if err != nil {
			t.Fatalf("failed to get audio file: %v", err)
		}
		if got.Name != "a.mp3" || got.URL != "/uploads/a.mp3" {
			t.Errorf("unexpected audio file %+v", got)
		}
		if !got.UploadedAt.Equal(uploaded) {
			t.Errorf("expected uploaded_at %v, got %v", uploaded, got.UploadedAt)
		}
		if got.DeletedAt != nil {
			t.Error("DeletedAt should be nil")
		}
	})

	t.Run("GetNotFound", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		_, err := NewAudioRepository(db).Get("nonexistent-id")
		if !errors.Is(err, shared.ErrNotFound) {
			t.Errorf("expected ErrNotFound, got %v", err)
		}
	})

	t.Run("GetByNameReturnsLatest", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		repo := NewAudioRepository(db)
		older := &models.AudioFile{Name: "bell.mp3", URL: "/uploads/bell.mp3?v=1"}
		newer := &models.AudioFile{Name: "bell.mp3", URL: "/uploads/bell.mp3?v=2"}
		for _, a := range []*models.AudioFile{older, newer} {
			if err := repo.Create(a); err != nil {
				t.Fatalf("failed to create audio file: %v", err)
			}
		}

		got, err := repo.GetByName("bell.mp3")
		if err != nil {
			t.Fatalf("failed to get audio by name: %v", err)
		}
		if got.ID != newer.ID {
			t.Errorf("expected latest upload %s, got %s", newer.ID, got.ID)
		}

		if _, err := repo.GetByName("other.mp3"); !errors.Is(err, shared.ErrNotFound) {
			t.Errorf("expected ErrNotFound, got %v", err)
		}
	})

	t.Run("List", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		repo := NewAudioRepository(db)

		empty, err := repo.List()
		if err != nil {
			t.Fatalf("failed to list audio files: %v", err)
		}
		if empty == nil || len(empty) != 0 {
			t.Errorf("expected empty non-nil list, got %v", empty)
		}

		for _, name := range models.KnownAudioNames {
			if err := repo.Create(&models.AudioFile{Name: name, URL: "/uploads/" + name}); err != nil {
				t.Fatalf("failed to create audio file: %v", err)
			}
		}

		files, err := repo.List()
		if err != nil {
			t.Fatalf("failed to list audio files: %v", err)
		}
		if len(files) != len(models.KnownAudioNames) {
			t.Fatalf("expected %d files, got %d", len(models.KnownAudioNames), len(files))
		}
		for i, f := range files {
			if f.Name != models.KnownAudioNames[i] {
				t.Errorf("expected file %d to be %s, got %s", i, models.KnownAudioNames[i], f.Name)
			}
		}
	})

	t.Run("Delete", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		repo := NewAudioRepository(db)
		audio := &models.AudioFile{Name: "a.mp3", URL: "/uploads/a.mp3"}
		if err := repo.Create(audio); err != nil {
			t.Fatalf("failed to create audio file: %v", err)
		}

		if err := repo.Delete(audio.ID); err != nil {
			t.Fatalf("failed to delete audio file: %v", err)
		}

		if _, err := repo.Get(audio.ID); !errors.Is(err, shared.ErrNotFound) {
			t.Errorf("expected deleted file to be hidden, got %v", err)
		}

		files, err := repo.List()
		if err != nil {
			t.Fatalf("failed to list audio files: %v", err)
		}
		if len(files) != 0 {
			t.Errorf("expected no live files, got %d", len(files))
		}

		var deletedAt sql.NullTime
		if err := db.QueryRow("SELECT deleted_at FROM audio_files WHERE id = ?", audio.ID).Scan(&deletedAt); err != nil {
			t.Fatalf("failed to read row: %v", err)
		}
		if !deletedAt.Valid {
			t.Error("row should be kept with deleted_at set")
		}

		if err := repo.Delete(audio.ID); !errors.Is(err, shared.ErrNotFound) {
			t.Errorf("expected ErrNotFound on second delete, got %v", err)
		}
	})

	t.Run("ClosedDatabase", func(t *testing.T) {
		db := setupTestDB(t)
		db.Close()

		repo := NewAudioRepository(db)
		if err := repo.Create(&models.AudioFile{Name: "a.mp3", URL: "/a"}); err == nil {
			t.Error("expected error from closed database")
		}
		if _, err := repo.List(); err == nil {
			t.Error("expected error from closed database")
		}
		if err := repo.Delete("id"); err == nil {
			t.Error("expected error from closed database")
		}
	})
}
