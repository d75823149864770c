package notification

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"

	"baroni/internal/logger"
	"baroni/internal/metrics"
)

const (
	queueKey  = "notifications"
	failedKey = "notifications:failed"

	maxTries = 3
)

// Job is one queued push notification.
type Job struct {
	UserID  int       `json:"user_id"`
	Title   string    `json:"title"`
	Body    string    `json:"body"`
	Tries   int       `json:"tries"`
	Created time.Time `json:"created"`
}

// Service is a fire-and-forget notification sink: Notify enqueues to a redis
// list and returns; a background worker drains the list and delivers.
type Service struct {
	redis *redis.Client
}

func New(redisAddr string) *Service {
	return &Service{
		redis: redis.NewClient(&redis.Options{
			Addr: redisAddr,
		}),
	}
}

// NewWithClient exists for tests.
func NewWithClient(client *redis.Client) *Service {
	return &Service{redis: client}
}

func (s *Service) Notify(ctx context.Context, userID int, title, body string) error {
	job := Job{
		UserID:  userID,
		Title:   title,
		Body:    body,
		Tries:   0,
		Created: time.Now(),
	}

	data, err := json.Marshal(job)
	if err != nil {
		logger.Errorf("Failed to marshal notification job: %v", err)
		return err
	}

	if err := s.redis.LPush(ctx, queueKey, data).Err(); err != nil {
		logger.Errorf("Failed to queue notification for user %d: %v", userID, err)
		return err
	}

	logger.Infof("Notification queued: %q for user %d", title, userID)
	return nil
}

func (s *Service) Start(ctx context.Context) {
	logger.Info("Notification service started")

	for {
		select {
		case <-ctx.Done():
			logger.Info("Notification service stopped")
			return
		default:
			s.processNext(ctx)
		}
	}
}

func (s *Service) processNext(ctx context.Context) {
	result, err := s.redis.BRPop(ctx, 2*time.Second, queueKey).Result()
	if err != nil {
		return
	}

	var job Job
	if err := json.Unmarshal([]byte(result[1]), &job); err != nil {
		logger.Errorf("Bad notification data: %v", err)
		return
	}

	job.Tries++
	if err := s.deliver(job); err != nil {
		logger.Errorf("Failed to deliver notification to user %d: %v", job.UserID, err)

		if job.Tries < maxTries {
			time.Sleep(5 * time.Second)
			data, _ := json.Marshal(job)
			s.redis.LPush(context.Background(), queueKey, data)
			logger.Infof("Retrying notification for user %d (attempt %d)", job.UserID, job.Tries+1)
		} else {
			s.saveFailed(job, err)
		}
		return
	}

	logger.Debugf("Notification delivered to user %d", job.UserID)
}

// deliver hands the job to the push gateway. The gateway integration is stubbed:
// delivery is logged and accepted.
func (s *Service) deliver(job Job) error {
	logger.Infow("push notification",
		"user_id", job.UserID,
		"title", job.Title,
		"body", job.Body,
	)
	return nil
}

func (s *Service) saveFailed(job Job, cause error) {
	failed := map[string]interface{}{
		"job":   job,
		"error": cause.Error(),
		"time":  time.Now(),
	}
	data, _ := json.Marshal(failed)
	s.redis.LPush(context.Background(), failedKey, data)
	logger.Errorf("Notification for user %d moved to failed queue after %d attempts", job.UserID, job.Tries)
}

func (s *Service) QueueLength(ctx context.Context) int64 {
	length, _ := s.redis.LLen(ctx, queueKey).Result()
	metrics.NotificationQueueLength.Set(float64(length))
	return length
}

func (s *Service) Close() error {
	return s.redis.Close()
}
