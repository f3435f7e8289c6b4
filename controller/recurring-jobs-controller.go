package controller

import (
	"fmt"
	"time"

	"scorekeeper/client"
	"scorekeeper/cron"
	"scorekeeper/repository"

	"github.com/gin-gonic/gin"
)

type RecurringJobsController struct {
	recurringJobService *cron.RecurringJobService
	jobs                client.JobQueue
}

type JobCreate struct {
	JobType                  repository.JobType `json:"job_type" binding:"required"`
	SleepAfterEachRunSeconds int                `json:"sleep_after_each_run_seconds" binding:"required"`
	DurationInSeconds        *int               `json:"duration_in_seconds"`
	EndDate                  *time.Time         `json:"end_date"`
}

type JobEnqueue struct {
	JobType  repository.JobType `json:"job_type" binding:"required"`
	EntityID int                `json:"entity_id"`
}

func (j *JobCreate) toJob() (*cron.RecurringJob, error) {
	if j.DurationInSeconds != nil && j.EndDate != nil {
		return nil, fmt.Errorf("cannot specify both duration and end date")
	}
	if j.DurationInSeconds == nil && j.EndDate == nil {
		return nil, fmt.Errorf("must specify either duration or end date")
	}
	if j.DurationInSeconds != nil {
		endDate := time.Now().Add(time.Duration(*j.DurationInSeconds) * time.Second)
		j.EndDate = &endDate
	}
	return &cron.RecurringJob{
		JobType:                  j.JobType,
		SleepAfterEachRunSeconds: j.SleepAfterEachRunSeconds,
		EndDate:                  *j.EndDate,
	}, nil
}

func NewRecurringJobsController(deps *Dependencies) *RecurringJobsController {
	return &RecurringJobsController{
		recurringJobService: deps.Recurring,
		jobs:                deps.Jobs,
	}
}

func setupRecurringJobsController(deps *Dependencies) []RouteInfo {
	c := NewRecurringJobsController(deps)
	baseUrl := "/jobs"
	routes := []RouteInfo{
		{Method: "GET", Path: "", HandlerFunc: c.getJobsHandler()},
		{Method: "POST", Path: "", HandlerFunc: c.startJobHandler()},
		{Method: "POST", Path: "/queue", HandlerFunc: c.enqueueJobHandler()},
		{Method: "DELETE", Path: "/:job_type", HandlerFunc: c.stopJobHandler()},
	}
	for i, route := range routes {
		routes[i].Path = baseUrl + route.Path
		routes[i].Authenticated = true
		routes[i].RoleRequired = adminOnly
	}
	return routes
}

// @id GetJobs
// @Description Get all running recurring jobs
// @Tags jobs
// @Produce json
// @Success 200 {array} cron.RecurringJob
// @Router /jobs [get]
func (c *RecurringJobsController) getJobsHandler() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		ctx.JSON(200, c.recurringJobService.GetJobs())
	}
}

// @id StartJob
// @Description Start a recurring job, replacing a running job of the same type
// @Tags jobs
// @Accept json
// @Produce json
// @Param job body JobCreate true "Job to create"
// @Success 201 {object} cron.RecurringJob
// @Router /jobs [post]
func (c *RecurringJobsController) startJobHandler() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		var jobCreate JobCreate
		if err := ctx.BindJSON(&jobCreate); err != nil {
			ctx.JSON(400, gin.H{"error": err.Error()})
			return
		}
		job, err := jobCreate.toJob()
		if err != nil {
			ctx.JSON(400, gin.H{"error": err.Error()})
			return
		}
		err = c.recurringJobService.StartJob(job)
		if err != nil {
			ctx.JSON(400, gin.H{"error": err.Error()})
			return
		}
		ctx.JSON(201, job)
	}
}

// @id StopJob
// @Description Stop a recurring job
// @Tags jobs
// @Param job_type path string true "Job type"
// @Success 204
// @Router /jobs/{job_type} [delete]
func (c *RecurringJobsController) stopJobHandler() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		c.recurringJobService.StopJob(repository.JobType(ctx.Param("job_type")))
		ctx.Status(204)
	}
}

// @id EnqueueJob
// @Description Queue a one-off background job
// @Tags jobs
// @Accept json
// @Produce json
// @Param job body JobEnqueue true "Job to queue"
// @Success 202 {object} client.Job
// @Router /jobs/queue [post]
func (c *RecurringJobsController) enqueueJobHandler() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		var body JobEnqueue
		if err := ctx.BindJSON(&body); err != nil {
			ctx.JSON(400, gin.H{"error": err.Error()})
			return
		}
		job := client.NewJob(body.JobType, body.EntityID)
		if err := c.jobs.Enqueue(ctx.Request.Context(), job); err != nil {
			ctx.JSON(503, gin.H{"error": err.Error()})
			return
		}
		ctx.JSON(202, job)
	}
}
