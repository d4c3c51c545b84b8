package tasks

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/gestaopro/internal/formatter"
	"github.com/desertthunder/gestaopro/internal/models"
	"github.com/desertthunder/gestaopro/internal/services"
	"github.com/desertthunder/gestaopro/internal/shared"
	"golang.org/x/time/rate"
)

// ManifestName is the file written next to the exported entities.
const ManifestName = "backup_manifest.json"

// Worker pool bounds for [BackupEngine.Run].
const (
	DefaultBackupWorkers = 5
	MaxBackupWorkers     = 10
	DefaultBackupRate    = 5.0
)

// BackupEntities returns the backend entities behind every dashboard section that owns records.
func BackupEntities() []string {
	entities := []string{}
	for _, p := range models.AllPermissions() {
		if p.HasRecords() {
			entities = append(entities, models.EntityForPermission(p))
		}
	}
	return entities
}

// BackupOpts contains configuration for entity backups.
type BackupOpts struct {
	Format     formatter.Format // Export format: json, csv, markdown
	OutputDir  string           // Base output directory (default: gestaopro_backup_{epoch})
	NumWorkers int              // Concurrent writers (default: 5, max: 10)
	RateLimit  float64          // Backend requests per second (default: 5)
}

// EntityBackupResult is the outcome of backing up one entity.
type EntityBackupResult struct {
	Entity   string `json:"entity"`
	Records  int    `json:"records"`
	File     string `json:"file,omitempty"`
	Success  bool   `json:"success"`
	ErrorMsg string `json:"error,omitempty"`
	Err      error  `json:"-"`
}

// BackupResult summarizes a backup run and is written as the manifest.
type BackupResult struct {
	StartedAt       time.Time            `json:"started_at"`
	FinishedAt      time.Time            `json:"finished_at"`
	Format          formatter.Format     `json:"format"`
	OutputDirectory string               `json:"output_directory"`
	TotalEntities   int                  `json:"total_entities"`
	Successful      int                  `json:"successful"`
	Failed          int                  `json:"failed"`
	Results         []EntityBackupResult `json:"results"`
	ManifestPath    string               `json:"-"`
}

type backupJob struct {
	entity  string
	records []models.Record
}

// BackupEngine copies backend entities to local files.
type BackupEngine struct {
	backend services.Backend
	logger  *log.Logger
}

// NewBackupEngine creates a [BackupEngine] reading from backend.
func NewBackupEngine(backend services.Backend, logger *log.Logger) *BackupEngine {
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	return &BackupEngine{backend: backend, logger: shared.WithLogger(logger, "component", "backup")}
}

// Run lists each entity once, at most RateLimit requests per second, and hands the records to
// a pool of writers. A failed entity is recorded in the result and does not stop the others.
//
// The manifest is written unless ctx is canceled, in which case the partial result and the
// context error are returned.
func (e *BackupEngine) Run(
	ctx context.Context,
	prog chan<- ProgressUpdate,
	entities []string,
	opts BackupOpts,
) (*BackupResult, error) {
	if e.backend == nil {
		return nil, fmt.Errorf("%w: backend not initialized", shared.ErrServiceUnavailable)
	}

	if opts.Format == "" {
		opts.Format = formatter.FormatJSON
	}
	if opts.Format == formatter.FormatTable {
		return nil, fmt.Errorf("%w: table output cannot be used for backups", shared.ErrInvalidFlag)
	}
	if opts.OutputDir == "" {
		opts.OutputDir = fmt.Sprintf("gestaopro_backup_%d", time.Now().Unix())
	}
	if opts.NumWorkers <= 0 {
		opts.NumWorkers = DefaultBackupWorkers
	}
	if opts.NumWorkers > MaxBackupWorkers {
		opts.NumWorkers = MaxBackupWorkers
	}
	if opts.RateLimit <= 0 {
		opts.RateLimit = DefaultBackupRate
	}

	if err := os.MkdirAll(opts.OutputDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	result := &BackupResult{
		StartedAt:       time.Now().UTC(),
		Format:          opts.Format,
		OutputDirectory: opts.OutputDir,
		TotalEntities:   len(entities),
		Results:         make([]EntityBackupResult, 0, len(entities)),
	}

	limiter := rate.NewLimiter(rate.Limit(opts.RateLimit), 1)

	jobs := make(chan backupJob, len(entities))
	results := make(chan EntityBackupResult, len(entities))

	var wg sync.WaitGroup
	for i := 0; i < opts.NumWorkers; i++ {
		wg.Add(1)
		go e.backupWorker(ctx, &wg, jobs, results, opts)
	}

	go func() {
		defer close(jobs)
		for i, entity := range entities {
			if err := limiter.Wait(ctx); err != nil {
				return
			}

			sendProgress(prog, fetchEntityUpdate(i+1, len(entities), entity))

			records, err := e.backend.List(ctx, entity)
			if err != nil {
				results <- failedBackup(entity, fmt.Errorf("failed to fetch records: %w", err))
				continue
			}

			jobs <- backupJob{entity: entity, records: records}
		}
	}()

	go func() {
		wg.Wait()
		close(results)
	}()

	completed := 0
	for res := range results {
		completed++
		result.Results = append(result.Results, res)

		if res.Success {
			result.Successful++
			sendProgress(prog, backupCompletedUpdate(completed, len(entities), res))
		} else {
			result.Failed++
			e.logger.Warn("entity backup failed", "entity", res.Entity, "error", res.Err)
			sendProgress(prog, backupFailedUpdate(completed, len(entities), res))
		}
	}

	sort.Slice(result.Results, func(i, j int) bool {
		return result.Results[i].Entity < result.Results[j].Entity
	})
	result.FinishedAt = time.Now().UTC()

	if err := ctx.Err(); err != nil {
		return result, err
	}

	manifestPath := filepath.Join(opts.OutputDir, ManifestName)
	if err := formatter.WriteManifest(result, manifestPath); err != nil {
		return result, fmt.Errorf("backup completed but failed to write manifest: %w", err)
	}
	result.ManifestPath = manifestPath
	sendProgress(prog, manifestUpdate(manifestPath))

	e.logger.Info("backup finished", "dir", opts.OutputDir, "successful", result.Successful, "failed", result.Failed)
	return result, nil
}

// backupWorker is a worker goroutine that writes entities from the jobs channel.
func (e *BackupEngine) backupWorker(
	ctx context.Context,
	wg *sync.WaitGroup,
	jobs <-chan backupJob,
	results chan<- EntityBackupResult,
	opts BackupOpts,
) {
	defer wg.Done()

	for job := range jobs {
		if ctx.Err() != nil {
			results <- failedBackup(job.entity, ctx.Err())
			continue
		}

		path, err := formatter.WriteRecords(opts.Format, job.entity, job.records, filepath.Join(opts.OutputDir, job.entity))
		if err != nil {
			results <- failedBackup(job.entity, err)
			continue
		}

		results <- EntityBackupResult{
			Entity:  job.entity,
			Records: len(job.records),
			File:    path,
			Success: true,
		}
	}
}

func failedBackup(entity string, err error) EntityBackupResult {
	return EntityBackupResult{Entity: entity, Err: err, ErrorMsg: err.Error()}
}
