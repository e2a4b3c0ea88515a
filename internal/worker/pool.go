package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"coursegen-backend/internal/models"
	"coursegen-backend/internal/services"
)

const (
	QueueModuleGeneration = "queue:module-generation"
	maxAttempts           = 3
	lockTTL               = 10 * time.Minute
	pollTimeout           = 2 * time.Second
)

// ModuleGenerator is the part of the course service the workers drive.
type ModuleGenerator interface {
	GenerateModule(ctx context.Context, courseID, moduleTitle, moduleDescription string) (*models.Lesson, error)
}

// Queue pushes module-generation jobs onto Redis.
type Queue struct {
	redis *redis.Client
}

func NewQueue(client *redis.Client) *Queue {
	return &Queue{redis: client}
}

func (q *Queue) Enqueue(ctx context.Context, job *models.Job) error {
	data, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("failed to encode job: %w", err)
	}
	return q.redis.LPush(ctx, jobQueueName(job.Type), data).Err()
}

// Pool pre-generates lessons in the background. Each job goes through the same
// cached GenerateModule path as an HTTP request, so a lesson a user already
// opened is never generated twice.
type Pool struct {
	redis       *redis.Client
	generator   ModuleGenerator
	events      services.EventPublisher
	workerCount int
	logger      zerolog.Logger
	stopChan    chan struct{}
	wg          sync.WaitGroup
	now         func() time.Time
}

func NewPool(
	redisClient *redis.Client,
	generator ModuleGenerator,
	events services.EventPublisher,
	workerCount int,
	logger zerolog.Logger,
) *Pool {
	return &Pool{
		redis:       redisClient,
		generator:   generator,
		events:      events,
		workerCount: workerCount,
		logger:      logger.With().Str("component", "worker").Logger(),
		stopChan:    make(chan struct{}),
		now:         time.Now,
	}
}

func (p *Pool) Start() {
	for i := 0; i < p.workerCount; i++ {
		p.wg.Add(1)
		go p.worker(i)
	}
	p.logger.Info().Int("workers", p.workerCount).Msg("started worker goroutines")
}

// Stop signals the workers and waits for in-flight jobs to finish. Scheduled
// retries stay in Redis and are picked up by the next pool.
func (p *Pool) Stop() {
	close(p.stopChan)
	p.wg.Wait()
}

func (p *Pool) worker(id int) {
	defer p.wg.Done()
	log := p.logger.With().Int("worker", id).Logger()

	for {
		select {
		case <-p.stopChan:
			log.Info().Msg("worker shutting down")
			return
		default:
		}

		ctx := context.Background()

		if _, err := p.promoteDue(ctx); err != nil {
			log.Debug().Err(err).Msg("retry promotion failed")
		}

		result, err := p.redis.BLPop(ctx, pollTimeout, QueueModuleGeneration).Result()
		if err != nil {
			if !errors.Is(err, redis.Nil) {
				log.Debug().Err(err).Msg("queue poll failed")
			}
			continue
		}
		if len(result) < 2 {
			continue
		}

		var job models.Job
		if err := json.Unmarshal([]byte(result[1]), &job); err != nil {
			log.Error().Err(err).Msg("failed to parse job")
			continue
		}

		lockKey := fmt.Sprintf("job_lock:%s", job.ID.String())
		locked, err := p.redis.SetNX(ctx, lockKey, "1", lockTTL).Result()
		if err != nil || !locked {
			continue
		}

		log.Info().
			Str("job_id", job.ID.String()).
			Str("course_id", job.CourseID.String()).
			Str("module", job.ModuleTitle).
			Msg("processing job")

		if err := p.process(ctx, &job); err != nil {
			p.handleFailure(ctx, &job, err)
		}

		p.redis.Del(ctx, lockKey)
	}
}

func (p *Pool) process(ctx context.Context, job *models.Job) error {
	switch job.Type {
	case models.JobTypeModuleGeneration:
		_, err := p.generator.GenerateModule(ctx, job.CourseID.String(), job.ModuleTitle, job.ModuleDescription)
		return err
	default:
		return &permanentError{fmt.Errorf("unknown job type: %s", job.Type)}
	}
}

func (p *Pool) handleFailure(ctx context.Context, job *models.Job, err error) {
	job.RetryCount++
	log := p.logger.With().
		Str("job_id", job.ID.String()).
		Str("course_id", job.CourseID.String()).
		Str("module", job.ModuleTitle).
		Int("attempt", job.RetryCount).
		Logger()

	if backoff, ok := retryAfter(job.RetryCount, err); ok {
		log.Warn().Err(err).Dur("backoff", backoff).Msg("job failed, retrying")
		if serr := p.scheduleRetry(ctx, job, backoff); serr != nil {
			log.Error().Err(serr).Msg("failed to schedule retry")
		}
		return
	}

	log.Error().Err(err).Msg("job failed permanently")
	p.events.Publish(ctx, job.CourseID, models.WSMessage{
		Type: models.EventJobFailed,
		Payload: models.ErrorEvent{
			JobID:        job.ID,
			CourseID:     job.CourseID,
			ErrorCode:    errorCode(err),
			ErrorMessage: err.Error(),
		},
	})
}

// scheduleRetry parks job in the delayed set, scored by the time it becomes due.
func (p *Pool) scheduleRetry(ctx context.Context, job *models.Job, backoff time.Duration) error {
	data, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("failed to encode job: %w", err)
	}
	return p.redis.ZAdd(ctx, delayedQueueName(job.Type), redis.Z{
		Score:  float64(p.now().Add(backoff).UnixMilli()),
		Member: data,
	}).Err()
}

// promoteDue moves retries whose backoff has elapsed onto the work queue and
// returns how many it moved. ZRem decides which worker owns each entry.
func (p *Pool) promoteDue(ctx context.Context) (int, error) {
	delayed := delayedQueueName(models.JobTypeModuleGeneration)
	due, err := p.redis.ZRangeByScore(ctx, delayed, &redis.ZRangeBy{
		Min: "-inf",
		Max: strconv.FormatInt(p.now().UnixMilli(), 10),
	}).Result()
	if err != nil {
		return 0, err
	}

	moved := 0
	for _, member := range due {
		removed, err := p.redis.ZRem(ctx, delayed, member).Result()
		if err != nil {
			return moved, err
		}
		if removed == 0 {
			continue
		}
		if err := p.redis.LPush(ctx, QueueModuleGeneration, member).Err(); err != nil {
			return moved, err
		}
		moved++
	}
	return moved, nil
}

type permanentError struct{ err error }

func (e *permanentError) Error() string { return e.err.Error() }
func (e *permanentError) Unwrap() error { return e.err }

// retryAfter reports whether a job that has failed attempts times with err
// should run again, and after what delay. Only provider and store failures are
// retried; a deleted course or a bad job never will succeed.
func retryAfter(attempts int, err error) (time.Duration, bool) {
	var notFound *services.NotFoundError
	var invalid *services.ValidationError
	var permanent *permanentError
	if errors.As(err, &notFound) || errors.As(err, &invalid) || errors.As(err, &permanent) {
		return 0, false
	}
	if attempts >= maxAttempts {
		return 0, false
	}
	return time.Duration(1<<uint(attempts)) * time.Second, true
}

func errorCode(err error) string {
	var notFound *services.NotFoundError
	var provider *services.ProviderError
	switch {
	case errors.As(err, &notFound):
		return "NOT_FOUND"
	case errors.As(err, &provider):
		return "GENERATION_FAILED"
	default:
		return "JOB_FAILED"
	}
}

func delayedQueueName(jobType string) string {
	return jobQueueName(jobType) + ":delayed"
}

func jobQueueName(jobType string) string {
	switch jobType {
	case models.JobTypeModuleGeneration:
		return QueueModuleGeneration
	default:
		return "queue:" + jobType
	}
}
