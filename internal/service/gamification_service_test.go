package service

import (
	"context"
	"errors"
	"math"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/edupredict-api/internal/models"
	appErrors "github.com/noah-isme/edupredict-api/pkg/errors"
	"github.com/noah-isme/edupredict-api/pkg/gamification"
	"github.com/noah-isme/edupredict-api/pkg/jobs"
)

func newGamificationFixture(queue jobDispatcher, details ...models.StudentDetail) (*GamificationService, *studentStore, *notificationLog, *memCache) {
	store := newStudentStore(details...)
	notes := &notificationLog{}
	cache := newMemCache()
	svc := NewGamificationService(store, notes, queue, newTestCache(cache), nil, nil, zap.NewNop())
	return svc, store, notes, cache
}

func TestGamificationAwardWithoutLevelUp(t *testing.T) {
	svc, store, notes, _ := newGamificationFixture(nil, sampleStudent("u1"))

	award, err := svc.Award(context.Background(), "u1", 250)
	require.NoError(t, err)
	assert.Equal(t, 250, award.State.XP)
	assert.Equal(t, 1, award.State.Level)
	assert.NotNil(t, award.Events)
	assert.Empty(t, award.Events)
	assert.Empty(t, notes.items)
	assert.Equal(t, 250, store.byUser["u1"].XP)
}

func TestGamificationAwardMultipleLevelsNotifiesInline(t *testing.T) {
	svc, store, notes, cache := newGamificationFixture(nil, sampleStudent("u1"))
	require.NoError(t, cache.Set(context.Background(), progressCacheKey("u1"), "stale", 0))

	award, err := svc.Award(context.Background(), "u1", 2600)
	require.NoError(t, err)
	assert.Equal(t, gamification.State{XP: 100, Level: 3, NextLevelXP: 2250, Title: gamification.DefaultTitle}, award.State)
	require.Len(t, award.Events, 2)
	require.Len(t, notes.items, 2)
	assert.Equal(t, models.NotificationLevelUp, notes.items[0].Type)
	assert.Equal(t, "u1", notes.items[1].UserID)
	assert.Contains(t, notes.items[1].Message, "Level 3")
	assert.False(t, cache.has(progressCacheKey("u1")))
	assert.Equal(t, 3, store.byUser["u1"].Level)
}

func TestGamificationAwardTitleBecomesBadge(t *testing.T) {
	detail := sampleStudent("u1")
	detail.State = gamification.State{XP: 0, Level: 4, NextLevelXP: 100, Title: gamification.DefaultTitle}
	svc, store, _, _ := newGamificationFixture(nil, detail)

	award, err := svc.Award(context.Background(), "u1", 100)
	require.NoError(t, err)
	assert.Equal(t, "Sidekick", award.State.Title)
	assert.Equal(t, models.StringList{"Sidekick"}, store.byUser["u1"].Badges)

	store.byUser["u1"].State = gamification.State{XP: 0, Level: 5, NextLevelXP: 10, Title: "Sidekick"}
	_, err = svc.Award(context.Background(), "u1", 10)
	require.NoError(t, err)
	assert.Equal(t, models.StringList{"Sidekick"}, store.byUser["u1"].Badges)
}

func TestGamificationAwardRejectsOverflow(t *testing.T) {
	detail := sampleStudent("u1")
	detail.State = gamification.State{XP: 10, Level: 1, NextLevelXP: 1000, Title: gamification.DefaultTitle}
	svc, store, notes, _ := newGamificationFixture(nil, detail)

	_, err := svc.Award(context.Background(), "u1", math.MaxInt)
	assert.ErrorIs(t, err, appErrors.ErrValidation)
	assert.Equal(t, 10, store.byUser["u1"].XP)
	assert.Empty(t, notes.items)
}

func TestGamificationAwardQueuesNotifications(t *testing.T) {
	queue := &queueStub{}
	svc, _, notes, _ := newGamificationFixture(queue, sampleStudent("u1"))

	_, err := svc.Award(context.Background(), "u1", 1000)
	require.NoError(t, err)
	require.Len(t, queue.jobs, 1)
	assert.Equal(t, JobTypeLevelUp, queue.jobs[0].Type)
	assert.Empty(t, notes.items)

	require.NoError(t, svc.HandleLevelUp(context.Background(), queue.jobs[0]))
	require.Len(t, notes.items, 1)
	assert.Equal(t, "LEVEL UP!", notes.items[0].Title)
}

func TestGamificationAwardFallsBackWhenQueueRejects(t *testing.T) {
	queue := &queueStub{err: errors.New("queue stopped")}
	svc, _, notes, _ := newGamificationFixture(queue, sampleStudent("u1"))

	_, err := svc.Award(context.Background(), "u1", 1000)
	require.NoError(t, err)
	assert.Len(t, notes.items, 1)
}

func TestGamificationHandleLevelUpRejectsPayload(t *testing.T) {
	svc, _, _, _ := newGamificationFixture(nil)
	err := svc.HandleLevelUp(context.Background(), jobs.Job{ID: "j1", Type: JobTypeLevelUp, Payload: "nope"})
	require.Error(t, err)
}

func TestGamificationAwardErrors(t *testing.T) {
	svc, _, _, _ := newGamificationFixture(nil, sampleStudent("u1"))
	ctx := context.Background()

	_, err := svc.Award(ctx, "u1", -5)
	assert.ErrorIs(t, err, appErrors.ErrValidation)

	_, err = svc.Award(ctx, "ghost", 5)
	assert.ErrorIs(t, err, appErrors.ErrNotFound)

	_, err = svc.AwardRequest(ctx, models.AwardXPRequest{Amount: 200000, UserID: "u1"})
	assert.ErrorIs(t, err, appErrors.ErrValidation)
}

func TestGamificationAwardConcurrentSameUser(t *testing.T) {
	svc, store, _, _ := newGamificationFixture(nil, sampleStudent("u1"))

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.Award(context.Background(), "u1", 10)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()
	assert.Equal(t, 200, store.byUser["u1"].XP)
}

func TestGamificationSummary(t *testing.T) {
	detail := sampleStudent("u1")
	detail.XP = 400
	detail.Badges = nil
	svc, _, _, _ := newGamificationFixture(nil, detail)

	summary, err := svc.Summary(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, 600, summary.XPToNextLevel)
	assert.NotNil(t, summary.Badges)
}
