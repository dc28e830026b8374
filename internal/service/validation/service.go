package validation

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/ignite/idea-validator/internal/domain"
	"github.com/ignite/idea-validator/internal/keywords"
	"github.com/ignite/idea-validator/internal/orchestrator"
	"github.com/ignite/idea-validator/internal/pkg/distlock"
	"github.com/ignite/idea-validator/internal/pkg/logger"
)

const (
	minIdeaLen = 10
	maxIdeaLen = 5000

	// lockTTL must outlive the scraping deadline plus post-processing so a
	// crashed worker's lock expires rather than wedging the job.
	lockTTL = 10 * time.Minute
)

// Archiver persists a finished job's aggregate to cold storage. Archiving
// is best-effort; failures are logged, never surfaced to the caller.
type Archiver interface {
	Archive(ctx context.Context, jobID string, result *domain.AggregatedResult) error
}

// ProgressTracker records a job's coarse progress for pollers.
type ProgressTracker interface {
	SetPhase(ctx context.Context, jobID, phase string)
}

// LockFactory builds the distributed lock guarding one job's processing run.
type LockFactory func(jobID string, ttl time.Duration) distlock.DistLock

// Service implements the validation job lifecycle. All public methods are
// safe for concurrent use.
type Service struct {
	repo     Repository
	orch     *orchestrator.Orchestrator
	locks    LockFactory
	progress ProgressTracker
	archiver Archiver
}

// Option configures optional service collaborators.
type Option func(*Service)

// WithLocks installs a distributed lock factory. Without one, concurrent
// Process calls for the same job are only guarded by the database status
// transition.
func WithLocks(f LockFactory) Option {
	return func(s *Service) { s.locks = f }
}

// WithProgress installs a progress tracker.
func WithProgress(p ProgressTracker) Option {
	return func(s *Service) { s.progress = p }
}

// WithArchiver installs a cold-storage archiver for finished aggregates.
func WithArchiver(a Archiver) Option {
	return func(s *Service) { s.archiver = a }
}

// NewService creates a validation service backed by the given repository and
// orchestrator.
func NewService(repo Repository, orch *orchestrator.Orchestrator, opts ...Option) *Service {
	s := &Service{repo: repo, orch: orch}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Create validates and persists a new idea in pending status.
func (s *Service) Create(ctx context.Context, ideaText string) (*domain.Validation, error) {
	ideaText = strings.TrimSpace(ideaText)
	if len(ideaText) < minIdeaLen {
		return nil, ErrIdeaTooShort
	}
	if len(ideaText) > maxIdeaLen {
		return nil, ErrIdeaTooLong
	}

	v := &domain.Validation{
		ID:       uuid.New().String(),
		IdeaText: ideaText,
		Status:   domain.ValidationPending,
	}
	id, err := s.repo.Create(ctx, v)
	if err != nil {
		return nil, err
	}
	v.ID = id
	s.setPhase(ctx, v.ID, "queued")
	return v, nil
}

// Get returns a single validation.
func (s *Service) Get(ctx context.Context, id string) (*domain.Validation, error) {
	return s.repo.Get(ctx, id)
}

// Results loads the stored aggregate for a validation.
func (s *Service) Results(ctx context.Context, id string) (*domain.AggregatedResult, error) {
	return s.repo.GetResults(ctx, id)
}

// Sources returns the registered scraper names.
func (s *Service) Sources() []string {
	return s.orch.ListSources()
}

// Process runs the full pipeline for one job: extract keywords, scrape all
// sources, persist the aggregate and set the terminal status. It returns
// ErrAlreadyProcessing when another worker holds the job.
func (s *Service) Process(ctx context.Context, id string) error {
	if s.locks != nil {
		lock := s.locks(id, lockTTL)
		acquired, err := lock.Acquire(ctx)
		if err != nil {
			return fmt.Errorf("acquire lock for %s: %w", id, err)
		}
		if !acquired {
			return ErrAlreadyProcessing
		}
		defer func() {
			if err := lock.Release(context.WithoutCancel(ctx)); err != nil {
				logger.Warn("lock release failed", "job_id", id, "error", err.Error())
			}
		}()
	}

	v, err := s.repo.Get(ctx, id)
	if err != nil {
		return err
	}
	if v.Status == domain.ValidationProcessing {
		return ErrAlreadyProcessing
	}

	if err := s.repo.MarkProcessing(ctx, id); err != nil {
		return err
	}

	s.setPhase(ctx, id, "extracting_keywords")
	kws := keywords.Extract(v.IdeaText)
	logger.Info("keywords extracted", "job_id", id, "count", len(kws))

	result, err := s.orch.Scrape(ctx, id, kws, v.IdeaText)
	if err != nil {
		s.setPhase(ctx, id, "failed")
		if ferr := s.repo.Finish(ctx, id, domain.ValidationFailed, err.Error()); ferr != nil {
			logger.Error("finish after scrape error failed", "job_id", id, "error", ferr.Error())
		}
		return fmt.Errorf("scrape %s: %w", id, err)
	}

	if err := s.repo.SaveResults(ctx, id, result); err != nil {
		s.setPhase(ctx, id, "failed")
		if ferr := s.repo.Finish(ctx, id, domain.ValidationFailed, err.Error()); ferr != nil {
			logger.Error("finish after save error failed", "job_id", id, "error", ferr.Error())
		}
		return fmt.Errorf("save results for %s: %w", id, err)
	}

	meta := result.Metadata
	status := domain.JobStatusFor(meta.SourcesSuccessful, meta.SourcesPartial, meta.SourcesFailed)
	if err := s.repo.Finish(ctx, id, status, meta.Error); err != nil {
		return fmt.Errorf("finish %s: %w", id, err)
	}
	s.setPhase(ctx, id, "done")

	if s.archiver != nil {
		if err := s.archiver.Archive(ctx, id, result); err != nil {
			logger.Warn("archive failed", "job_id", id, "error", err.Error())
		}
	}

	logger.Info("validation processed", "job_id", id, "status", string(status))
	return nil
}

func (s *Service) setPhase(ctx context.Context, id, phase string) {
	if s.progress != nil {
		s.progress.SetPhase(ctx, id, phase)
	}
}
