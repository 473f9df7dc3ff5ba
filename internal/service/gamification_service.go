package service

import (
	"context"
	"database/sql"
	"errors"
	"sync"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/edupredict-api/internal/models"
	appErrors "github.com/noah-isme/edupredict-api/pkg/errors"
	"github.com/noah-isme/edupredict-api/pkg/gamification"
	"github.com/noah-isme/edupredict-api/pkg/jobs"
)

// JobTypeLevelUp is the queue job type that persists a level-up notification.
const JobTypeLevelUp = "notification.level_up"

type gamificationStore interface {
	FindByUserID(ctx context.Context, userID string) (*models.StudentDetail, error)
	UpdateGamification(ctx context.Context, studentID string, state gamification.State, badges models.StringList) error
}

type notificationWriter interface {
	Create(ctx context.Context, n *models.Notification) error
}

type jobDispatcher interface {
	Enqueue(job jobs.Job) error
}

// GamificationService credits XP and publishes level-up notifications.
// Awards for the same user are serialised in-process.
type GamificationService struct {
	students      gamificationStore
	notifications notificationWriter
	queue         jobDispatcher
	cache         *CacheService
	metrics       *MetricsService
	validator     *validator.Validate
	logger        *zap.Logger

	locks sync.Map
}

// NewGamificationService constructs the service. A nil queue delivers
// notifications synchronously.
func NewGamificationService(students gamificationStore, notifications notificationWriter, queue jobDispatcher, cache *CacheService, metrics *MetricsService, validate *validator.Validate, logger *zap.Logger) *GamificationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &GamificationService{
		students:      students,
		notifications: notifications,
		queue:         queue,
		cache:         cache,
		metrics:       metrics,
		validator:     validate,
		logger:        logger,
	}
}

// Summary returns the dashboard XP block for a user.
func (s *GamificationService) Summary(ctx context.Context, userID string) (*models.GamificationSummary, error) {
	student, err := s.load(ctx, userID)
	if err != nil {
		return nil, err
	}
	summary := gamificationSummary(&student.Student)
	return &summary, nil
}

// AwardRequest validates req and credits the target user.
func (s *GamificationService) AwardRequest(ctx context.Context, req models.AwardXPRequest) (*models.XPAward, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid xp payload")
	}
	return s.Award(ctx, req.UserID, req.Amount)
}

// Award credits amount XP to the user's student profile, persists the new
// state and publishes one notification per level gained.
func (s *GamificationService) Award(ctx context.Context, userID string, amount int) (*models.XPAward, error) {
	if amount < 0 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "xp amount must not be negative")
	}

	mu := s.lockFor(userID)
	mu.Lock()
	defer mu.Unlock()

	student, err := s.load(ctx, userID)
	if err != nil {
		return nil, err
	}

	next, events, err := gamification.AddXP(student.State, amount)
	if errors.Is(err, gamification.ErrXPOverflow) {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "xp total out of range")
	}
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "stored gamification state is invalid")
	}

	badges := student.Badges
	if next.Title != student.Title && !containsString(badges, next.Title) {
		badges = append(append(models.StringList{}, badges...), next.Title)
	}

	if err := s.students.UpdateGamification(ctx, student.ID, next, badges); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to save gamification state")
	}
	s.cache.Delete(ctx, progressCacheKey(userID))
	s.metrics.RecordLevelUps(len(events))

	for _, ev := range events {
		s.publish(ctx, userID, ev)
	}
	if len(events) > 0 {
		s.logger.Info("student levelled up",
			zap.String("user_id", userID),
			zap.Int("level", next.Level),
			zap.String("title", next.Title),
		)
	}

	if events == nil {
		events = []gamification.Event{}
	}
	return &models.XPAward{Amount: amount, State: next, Events: events}, nil
}

// HandleLevelUp is the queue handler for JobTypeLevelUp.
func (s *GamificationService) HandleLevelUp(ctx context.Context, job jobs.Job) error {
	n, ok := job.Payload.(models.Notification)
	if !ok {
		return errors.New("level up job payload is not a notification")
	}
	return s.notifications.Create(ctx, &n)
}

func (s *GamificationService) publish(ctx context.Context, userID string, ev gamification.Event) {
	n := models.Notification{
		ID:      uuid.NewString(),
		UserID:  userID,
		Type:    models.NotificationLevelUp,
		Title:   ev.Heading,
		Message: ev.Message,
	}
	if s.queue != nil {
		err := s.queue.Enqueue(jobs.Job{ID: n.ID, Type: JobTypeLevelUp, Payload: n})
		if err == nil {
			return
		}
		s.logger.Warn("level up notification not queued, writing inline", zap.String("user_id", userID), zap.Error(err))
	}
	if err := s.notifications.Create(ctx, &n); err != nil {
		s.logger.Warn("failed to write level up notification", zap.String("user_id", userID), zap.Error(err))
	}
}

func (s *GamificationService) load(ctx context.Context, userID string) (*models.StudentDetail, error) {
	student, err := s.students.FindByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}
	return student, nil
}

func (s *GamificationService) lockFor(userID string) *sync.Mutex {
	mu, _ := s.locks.LoadOrStore(userID, &sync.Mutex{})
	return mu.(*sync.Mutex)
}

func gamificationSummary(st *models.Student) models.GamificationSummary {
	badges := st.Badges
	if badges == nil {
		badges = models.StringList{}
	}
	return models.GamificationSummary{
		Level:         st.Level,
		XP:            st.XP,
		NextLevelXP:   st.NextLevelXP,
		XPToNextLevel: st.XPToNextLevel(),
		Title:         st.Title,
		Badges:        badges,
	}
}

func containsString(list []string, v string) bool {
	for _, item := range list {
		if item == v {
			return true
		}
	}
	return false
}
