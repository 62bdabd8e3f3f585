package usecase

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/parkwhere/internal/domain"
	"github.com/parkwhere/internal/domain/repository"
	"github.com/parkwhere/internal/metrics"
	"github.com/parkwhere/internal/pkg/errors"
	"github.com/parkwhere/internal/pkg/validator"
)

const (
	ReasonDuplicateID = "duplicate_id"
	reasonMalformed   = "malformed: "

	// maxTrackedJobs bounds how many asynchronous imports can be looked up
	maxTrackedJobs = 100
)

// ImportResult - completion report of an asynchronous import
type ImportResult struct {
	Batch domain.ImportBatch
	Err   error
}

type JobStatus string

const (
	JobPending JobStatus = "pending"
	JobDone    JobStatus = "done"
	JobFailed  JobStatus = "failed"
)

// ImportJob - state of an asynchronous import as seen by Job
type ImportJob struct {
	ID     uuid.UUID
	Status JobStatus
	Rows   int
	Batch  *domain.ImportBatch
	Err    error
}

// ImportUseCase - validates typed rows and commits the accepted ones
type ImportUseCase struct {
	store   repository.SpotRepository
	refresh RefreshTrigger
	logger  *zap.Logger
	now     func() time.Time

	jobsMu   sync.Mutex
	jobs     map[uuid.UUID]*ImportJob
	jobOrder []uuid.UUID
}

// NewImportUseCase - creates an ImportUseCase; refresh may be nil
func NewImportUseCase(store repository.SpotRepository, refresh RefreshTrigger, logger *zap.Logger) *ImportUseCase {
	if refresh == nil {
		refresh = noopTrigger{}
	}
	return &ImportUseCase{
		store:   store,
		refresh: refresh,
		logger:  logger,
		now:     func() time.Time { return time.Now().UTC() },
		jobs:    make(map[uuid.UUID]*ImportJob),
	}
}

// Import validates every row on its own; a rejected row never aborts the
// batch. Accepted rows are written with one UpsertBatch, so on a store
// failure none of them are committed and the batch comes back with
// Committed=false together with the store error.
func (uc *ImportUseCase) Import(ctx context.Context, rows []domain.RawRow) (domain.ImportBatch, error) {
	return uc.importBatch(ctx, uuid.New(), rows)
}

func (uc *ImportUseCase) importBatch(ctx context.Context, batchID uuid.UUID, rows []domain.RawRow) (domain.ImportBatch, error) {
	now := uc.now()

	outcomes := make([]domain.RowOutcome, len(rows))
	accepted := make([]domain.ParkingSpot, 0, len(rows))
	seen := make(map[string]struct{}, len(rows))

	for i, row := range rows {
		outcomes[i] = domain.RowOutcome{Row: row}

		spot, reason := uc.validateRow(row, now)
		if reason == "" {
			if _, dup := seen[spot.ID]; dup {
				reason = ReasonDuplicateID
			}
		}
		if reason != "" {
			outcomes[i].Reason = reason
			metrics.ImportRowsTotal.WithLabelValues("rejected").Inc()
			continue
		}

		seen[spot.ID] = struct{}{}
		outcomes[i].Accepted = true
		accepted = append(accepted, spot)
		metrics.ImportRowsTotal.WithLabelValues("accepted").Inc()
	}

	if len(accepted) == 0 {
		uc.logger.Info("Import batch had no valid rows",
			zap.String("batch_id", batchID.String()),
			zap.Int("rows", len(rows)),
		)
		return domain.NewImportBatch(batchID, now, outcomes, false), nil
	}

	if err := uc.store.UpsertBatch(ctx, accepted); err != nil {
		metrics.ImportBatchesTotal.WithLabelValues("store_error").Inc()
		uc.logger.Error("Import batch rolled back",
			zap.String("batch_id", batchID.String()),
			zap.Int("accepted", len(accepted)),
			zap.Error(err),
		)
		return domain.NewImportBatch(batchID, now, outcomes, false), err
	}

	metrics.ImportBatchesTotal.WithLabelValues("committed").Inc()
	batch := domain.NewImportBatch(batchID, now, outcomes, true)

	uc.logger.Info("Import batch committed",
		zap.String("batch_id", batchID.String()),
		zap.Int("accepted", batch.AcceptedCount()),
		zap.Int("rejected", batch.RejectedCount()),
	)

	uc.refresh.TriggerImport()
	return batch, nil
}

// ImportAsync runs Import off the caller's goroutine. The batch id is known
// up front: the result is delivered on the returned channel, which is closed
// afterwards, and can also be looked up with Job.
func (uc *ImportUseCase) ImportAsync(ctx context.Context, rows []domain.RawRow) (uuid.UUID, <-chan ImportResult) {
	own := make([]domain.RawRow, len(rows))
	copy(own, rows)

	id := uuid.New()
	uc.trackJob(&ImportJob{ID: id, Status: JobPending, Rows: len(own)})

	done := make(chan ImportResult, 1)
	go func() {
		defer close(done)
		batch, err := uc.importBatch(ctx, id, own)
		uc.finishJob(id, batch, err)
		done <- ImportResult{Batch: batch, Err: err}
	}()
	return id, done
}

// Job returns the state of a recent asynchronous import.
func (uc *ImportUseCase) Job(id uuid.UUID) (ImportJob, bool) {
	uc.jobsMu.Lock()
	defer uc.jobsMu.Unlock()

	job, ok := uc.jobs[id]
	if !ok {
		return ImportJob{}, false
	}
	return *job, true
}

func (uc *ImportUseCase) trackJob(job *ImportJob) {
	uc.jobsMu.Lock()
	defer uc.jobsMu.Unlock()

	uc.jobs[job.ID] = job
	uc.jobOrder = append(uc.jobOrder, job.ID)

	// forget the oldest finished jobs; pending ones stay visible
	for i := 0; len(uc.jobs) > maxTrackedJobs && i < len(uc.jobOrder); {
		old := uc.jobOrder[i]
		if uc.jobs[old].Status == JobPending {
			i++
			continue
		}
		delete(uc.jobs, old)
		uc.jobOrder = append(uc.jobOrder[:i], uc.jobOrder[i+1:]...)
	}
}

func (uc *ImportUseCase) finishJob(id uuid.UUID, batch domain.ImportBatch, err error) {
	uc.jobsMu.Lock()
	defer uc.jobsMu.Unlock()

	job, ok := uc.jobs[id]
	if !ok {
		return
	}
	job.Batch = &batch
	job.Err = err
	job.Status = JobDone
	if err != nil {
		job.Status = JobFailed
	}
}

func (uc *ImportUseCase) validateRow(row domain.RawRow, now time.Time) (domain.ParkingSpot, string) {
	if row.ParseError != "" {
		return domain.ParkingSpot{}, reasonMalformed + row.ParseError
	}

	spot := domain.ParkingSpot{
		ID:             strings.TrimSpace(row.ID),
		Latitude:       row.Latitude,
		Longitude:      row.Longitude,
		Capacity:       row.Capacity,
		AvailableCount: row.AvailableCount,
		LotType:        domain.LotType(strings.ToUpper(strings.TrimSpace(string(row.LotType)))).Normalize(),
		Address:        strings.TrimSpace(row.Address),
		Source:         domain.SourceImported,
		Active:         true,
		LastUpdatedAt:  now,
	}

	if err := validator.ValidateSpot(spot); err != nil {
		return domain.ParkingSpot{}, strings.Join(errors.Reasons(err), ", ")
	}
	return spot, ""
}
