package cron

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"scorekeeper/metrics"
	"scorekeeper/repository"
	"scorekeeper/service"

	"gorm.io/gorm"
)

type RecurringJob struct {
	JobType                  repository.JobType `json:"job_type" binding:"required"`
	SleepAfterEachRunSeconds int                `json:"sleep_after_each_run_seconds" binding:"required"`
	Cancel                   context.CancelFunc `json:"-"`
	EndDate                  time.Time          `json:"end_date" binding:"required"`
}

type RecurringJobService struct {
	appearanceService *service.AppearanceService
	entityService     *service.EntityService
	jobRepository     *repository.RecurringJobsRepository
	mu                sync.Mutex
	Jobs              map[repository.JobType]*RecurringJob
}

func NewRecurringJobService(db *gorm.DB, appearanceService *service.AppearanceService, entityService *service.EntityService) *RecurringJobService {
	return &RecurringJobService{
		appearanceService: appearanceService,
		entityService:     entityService,
		jobRepository:     repository.NewRecurringJobsRepository(db),
		Jobs:              make(map[repository.JobType]*RecurringJob),
	}
}

// InitializeJobs restarts the persisted jobs that have not ended yet.
func (s *RecurringJobService) InitializeJobs() error {
	repoJobs, err := s.jobRepository.GetAllJobs()
	if err != nil {
		return err
	}
	for _, job := range repoJobs {
		if job.EndDate.Before(time.Now()) {
			continue
		}
		err := s.StartJob(&RecurringJob{
			JobType:                  job.JobType,
			SleepAfterEachRunSeconds: job.SleepAfterEachRunSeconds,
			EndDate:                  job.EndDate,
		})
		if err != nil {
			slog.Error("failed to restart recurring job", "job_type", job.JobType, "error", err)
		}
	}
	return nil
}

// StartJob persists job and runs it until its end date, replacing a running job of the same type.
func (s *RecurringJobService) StartJob(job *RecurringJob) error {
	run, err := s.runner(job.JobType)
	if err != nil {
		return err
	}
	if job.SleepAfterEachRunSeconds <= 0 {
		return fmt.Errorf("sleep after each run must be positive, got %d", job.SleepAfterEachRunSeconds)
	}
	err = s.jobRepository.CreateRecurringJob(&repository.RecurringJob{
		JobType:                  job.JobType,
		SleepAfterEachRunSeconds: job.SleepAfterEachRunSeconds,
		EndDate:                  job.EndDate,
	})
	if err != nil {
		return err
	}

	s.mu.Lock()
	if existingJob, ok := s.Jobs[job.JobType]; ok && existingJob.Cancel != nil {
		existingJob.Cancel()
	}
	ctx, cancel := context.WithTimeout(context.Background(), time.Until(job.EndDate))
	job.Cancel = cancel
	s.Jobs[job.JobType] = job
	s.mu.Unlock()

	go loop(ctx, job, run)
	return nil
}

func (s *RecurringJobService) StopJob(jobType repository.JobType) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if job, ok := s.Jobs[jobType]; ok && job.Cancel != nil {
		job.Cancel()
	}
	delete(s.Jobs, jobType)
}

func (s *RecurringJobService) GetJobs() []*RecurringJob {
	s.mu.Lock()
	defer s.mu.Unlock()
	jobs := make([]*RecurringJob, 0, len(s.Jobs))
	for _, job := range s.Jobs {
		jobs = append(jobs, job)
	}
	return jobs
}

func (s *RecurringJobService) runner(jobType repository.JobType) (func(context.Context) error, error) {
	switch jobType {
	case repository.ResortHierarchy:
		return func(ctx context.Context) error {
			_, err := s.entityService.ResortHierarchy(ctx)
			return err
		}, nil
	case repository.RecomputeConfirmed:
		return func(ctx context.Context) error {
			count, err := s.appearanceService.RecomputeConfirmed(ctx)
			slog.Debug("recomputed confirmed appearances", "count", count)
			return err
		}, nil
	}
	return nil, fmt.Errorf("invalid recurring job type %q", jobType)
}

func loop(ctx context.Context, job *RecurringJob, run func(context.Context) error) {
	sleep := time.Duration(job.SleepAfterEachRunSeconds) * time.Second
	for {
		if err := run(ctx); err != nil {
			slog.Error("recurring job run failed", "job_type", job.JobType, "error", err)
			metrics.JobsProcessedCounter.WithLabelValues(string(job.JobType), "failed").Inc()
		} else {
			metrics.JobsProcessedCounter.WithLabelValues(string(job.JobType), "ok").Inc()
		}
		select {
		case <-ctx.Done():
			return
		case <-time.After(sleep):
		}
	}
}
