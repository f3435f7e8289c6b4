package repository

import (
	"time"

	"gorm.io/gorm"
)

type JobType string

const (
	ResortHierarchy     JobType = "ResortHierarchy"
	RecomputeConfirmed  JobType = "RecomputeConfirmed"
	RecomputeAppearance JobType = "RecomputeAppearance"
)

type RecurringJob struct {
	JobType                  JobType   `gorm:"primaryKey;not null;unique"`
	SleepAfterEachRunSeconds int       `gorm:"not null"`
	EndDate                  time.Time `gorm:"not null"`
}

type RecurringJobsRepository struct {
	DB *gorm.DB
}

func NewRecurringJobsRepository(db *gorm.DB) *RecurringJobsRepository {
	return &RecurringJobsRepository{DB: db}
}

func (r *RecurringJobsRepository) CreateRecurringJob(job *RecurringJob) error {
	return r.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Delete(&RecurringJob{}, "job_type = ?", job.JobType).Error; err != nil {
			return err
		}
		return tx.Create(job).Error
	})
}

func (r *RecurringJobsRepository) GetRecurringJob(jobType JobType) (job *RecurringJob, err error) {
	err = r.DB.Where("job_type = ?", jobType).First(&job).Error
	return job, err
}

func (r *RecurringJobsRepository) GetAllJobs() (jobs []*RecurringJob, err error) {
	err = r.DB.Find(&jobs).Error
	return jobs, err
}
