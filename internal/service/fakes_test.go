package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/edupredict-api/internal/models"
	appErrors "github.com/noah-isme/edupredict-api/pkg/errors"
	"github.com/noah-isme/edupredict-api/pkg/gamification"
	"github.com/noah-isme/edupredict-api/pkg/jobs"
)

// memCache is an in-memory CacheRepository storing JSON like the redis one.
type memCache struct {
	mu       sync.Mutex
	items    map[string][]byte
	deleted  []string
	patterns []string
}

func newMemCache() *memCache {
	return &memCache{items: map[string][]byte{}}
}

func (m *memCache) Get(ctx context.Context, key string, dest interface{}) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	data, ok := m.items[key]
	if !ok {
		return appErrors.ErrCacheMiss
	}
	return json.Unmarshal(data, dest)
}

func (m *memCache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.items[key] = data
	return nil
}

func (m *memCache) Delete(ctx context.Context, keys ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, k := range keys {
		delete(m.items, k)
		m.deleted = append(m.deleted, k)
	}
	return nil
}

func (m *memCache) DeleteByPattern(ctx context.Context, pattern string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.patterns = append(m.patterns, pattern)
	prefix := strings.TrimSuffix(pattern, "*")
	for k := range m.items {
		if strings.HasPrefix(k, prefix) {
			delete(m.items, k)
		}
	}
	return nil
}

func (m *memCache) has(key string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.items[key]
	return ok
}

func newTestCache(repo CacheRepository) *CacheService {
	return NewCacheService(repo, nil, time.Minute, zap.NewNop(), true)
}

// studentStore keeps student profiles keyed by user id.
type studentStore struct {
	mu      sync.Mutex
	byUser  map[string]*models.StudentDetail
	updates int
	listErr error
	findErr error
}

func newStudentStore(details ...models.StudentDetail) *studentStore {
	s := &studentStore{byUser: map[string]*models.StudentDetail{}}
	for i := range details {
		d := details[i]
		s.byUser[d.UserID] = &d
	}
	return s
}

func copyDetail(d *models.StudentDetail) *models.StudentDetail {
	out := *d
	out.Badges = append(models.StringList{}, d.Badges...)
	out.Subjects = append([]models.Subject{}, d.Subjects...)
	return &out
}

func (s *studentStore) FindByUserID(ctx context.Context, userID string) (*models.StudentDetail, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.findErr != nil {
		return nil, s.findErr
	}
	d, ok := s.byUser[userID]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return copyDetail(d), nil
}

func (s *studentStore) byStudentID(id string) *models.StudentDetail {
	for _, d := range s.byUser {
		if d.ID == id {
			return d
		}
	}
	return nil
}

func (s *studentStore) UpdateMetrics(ctx context.Context, student *models.Student) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	d := s.byStudentID(student.ID)
	if d == nil {
		return sql.ErrNoRows
	}
	subjects := d.Subjects
	d.Student = *student
	d.Subjects = subjects
	s.updates++
	return nil
}

func (s *studentStore) ReplaceSubjects(ctx context.Context, studentID string, subjects []models.Subject) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	d := s.byStudentID(studentID)
	if d == nil {
		return sql.ErrNoRows
	}
	d.Subjects = append([]models.Subject{}, subjects...)
	s.updates++
	return nil
}

func (s *studentStore) UpdateGamification(ctx context.Context, studentID string, state gamification.State, badges models.StringList) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	d := s.byStudentID(studentID)
	if d == nil {
		return sql.ErrNoRows
	}
	d.State = state
	d.Badges = append(models.StringList{}, badges...)
	s.updates++
	return nil
}

func (s *studentStore) List(ctx context.Context, filter models.StudentFilter) ([]models.StudentDetail, int, error) {
	all, err := s.ListAll(ctx, filter)
	if err != nil {
		return nil, 0, err
	}
	return all, len(all), nil
}

func (s *studentStore) ListAll(ctx context.Context, filter models.StudentFilter) ([]models.StudentDetail, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listErr != nil {
		return nil, s.listErr
	}
	out := make([]models.StudentDetail, 0, len(s.byUser))
	for _, d := range s.byUser {
		if filter.Grade != "" && d.Grade != filter.Grade {
			continue
		}
		out = append(out, *copyDetail(d))
	}
	return out, nil
}

// notificationLog records notifications in memory.
type notificationLog struct {
	mu    sync.Mutex
	items []models.Notification
	err   error
}

func (n *notificationLog) Create(ctx context.Context, item *models.Notification) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.err != nil {
		return n.err
	}
	n.items = append(n.items, *item)
	return nil
}

func (n *notificationLog) ListByUser(ctx context.Context, userID string, unreadOnly bool, limit int) ([]models.Notification, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := []models.Notification{}
	for _, item := range n.items {
		if item.UserID != userID || (unreadOnly && item.ReadAt != nil) {
			continue
		}
		out = append(out, item)
	}
	return out, nil
}

func (n *notificationLog) MarkRead(ctx context.Context, id, userID string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	for i := range n.items {
		if n.items[i].ID == id && n.items[i].UserID == userID {
			if n.items[i].ReadAt == nil {
				now := time.Now()
				n.items[i].ReadAt = &now
			}
			return nil
		}
	}
	return sql.ErrNoRows
}

// queueStub captures enqueued jobs.
type queueStub struct {
	mu   sync.Mutex
	jobs []jobs.Job
	err  error
}

func (q *queueStub) Enqueue(job jobs.Job) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.err != nil {
		return q.err
	}
	q.jobs = append(q.jobs, job)
	return nil
}

// awarderStub records XP awards.
type awarderStub struct {
	calls []int
	err   error
}

func (a *awarderStub) Award(ctx context.Context, userID string, amount int) (*models.XPAward, error) {
	a.calls = append(a.calls, amount)
	if a.err != nil {
		return nil, a.err
	}
	return &models.XPAward{Amount: amount, State: gamification.DefaultState(), Events: []gamification.Event{}}, nil
}

func sampleStudent(userID string) models.StudentDetail {
	st := models.NewStudent(userID)
	st.ID = "student-" + userID
	st.AssignmentCompletion = 80
	st.QuizScores = 70
	st.Participation = 60
	st.StudyHours = 12
	return models.StudentDetail{Student: *st, Name: "Student " + userID, Email: userID + "@example.com"}
}
