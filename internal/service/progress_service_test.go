package service

import (
	"context"
	"errors"
	"os"
	"sync"
	"testing"
	"time"

	"disaster_edu_backend/internal/catalog"
	"disaster_edu_backend/internal/progress"
	"disaster_edu_backend/internal/session"
	"disaster_edu_backend/internal/util"
	"disaster_edu_backend/pkg/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestMain(m *testing.M) {
	logger.Log = zap.NewNop()
	os.Exit(m.Run())
}

// fakeProfileStore 内存档案存储，按 ProfileStore 的部分更新语义应用补丁
type fakeProfileStore struct {
	mu       sync.Mutex
	profiles map[string]*progress.Profile

	failPatch bool
	getCalls  int
	lastPatch *progress.ProfilePatch
}

func newFakeStore() *fakeProfileStore {
	return &fakeProfileStore{profiles: make(map[string]*progress.Profile)}
}

func (f *fakeProfileStore) GetProfile(ctx context.Context, userID string) (*progress.Profile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.getCalls++
	p, ok := f.profiles[userID]
	if !ok {
		return nil, util.ErrUserNotFound
	}
	return p.Clone(), nil
}

func (f *fakeProfileStore) PatchProfile(ctx context.Context, userID string, patch *progress.ProfilePatch) (*progress.Profile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.failPatch {
		return nil, errors.New("db gone")
	}

	p, ok := f.profiles[userID]
	if !ok {
		return nil, util.ErrUserNotFound
	}
	f.lastPatch = patch

	if patch.ModuleProgress != nil {
		p.ModuleProgress = *patch.ModuleProgress
	}
	if patch.RecentActivity != nil {
		p.RecentActivity = *patch.RecentActivity
	}
	if patch.ModulesCompleted != nil {
		p.ModulesCompleted = *patch.ModulesCompleted
	}
	if patch.OverallProgress != nil {
		p.OverallProgress = *patch.OverallProgress
	}
	if patch.TotalPoints != nil {
		p.TotalPoints = *patch.TotalPoints
	}
	if patch.TotalHours != nil {
		p.TotalHours = *patch.TotalHours
	}
	if patch.LastAccessedModuleID != nil {
		p.LastAccessedModuleID = patch.LastAccessedModuleID
	}
	return p.Clone(), nil
}

func newTestProgressService(store ProfileStore) (*ProgressService, *session.Manager) {
	sessions := session.NewManager()
	svc := NewProgressService(store, sessions, catalog.Default(), time.Second)
	base := time.Date(2025, 3, 9, 12, 0, 0, 0, time.UTC)
	n := 0
	svc.now = func() time.Time {
		n++
		return base.Add(time.Duration(n) * time.Second)
	}
	return svc, sessions
}

func seedUser(store *fakeProfileStore, sessions *session.Manager, userID string) {
	p := &progress.Profile{ID: userID, FirstName: "Alex"}
	store.profiles[userID] = p.Clone()
	sessions.Attach(userID, p)
}

func TestCompleteLessonOptimisticUpdate(t *testing.T) {
	store := newFakeStore()
	svc, sessions := newTestProgressService(store)
	seedUser(store, sessions, "u1")

	got, err := svc.CompleteLesson("u1", 1, "Earthquake Safety", "Natural Disasters", "Introduction to Earthquakes", true)
	require.NoError(t, err)

	// 本地推导立即可见
	require.Len(t, got.ModuleProgress, 1)
	assert.Equal(t, 33, got.ModuleProgress[0].Progress)
	assert.Equal(t, 100, got.TotalPoints)
	require.Len(t, got.RecentActivity, 1)
	assert.Equal(t, progress.ActivityStarted, got.RecentActivity[0].Type)
	assert.Equal(t, 100, got.RecentActivity[0].Points)

	svc.Flush()

	// 后台补丁按字段落库
	require.NotNil(t, store.lastPatch)
	assert.NotNil(t, store.lastPatch.ModuleProgress)
	assert.Equal(t, 33, store.profiles["u1"].ModuleProgress[0].Progress)
	assert.Equal(t, SyncDone, svc.Status("u1"))
}

func TestCompleteLessonModuleFinished(t *testing.T) {
	store := newFakeStore()
	svc, sessions := newTestProgressService(store)
	seedUser(store, sessions, "u1")

	_, err := svc.CompleteLesson("u1", 2, "Flood Response", "Natural Disasters", "Understanding Flood Alerts", true)
	require.NoError(t, err)
	got, err := svc.CompleteLesson("u1", 2, "Flood Response", "Natural Disasters", "Water Safety & Sanitation", true)
	require.NoError(t, err)

	assert.Equal(t, 100, got.ModuleProgress[0].Progress)
	assert.Equal(t, 1, got.ModulesCompleted)
	assert.Equal(t, 8, got.OverallProgress)

	// 模块完成后活动流里只剩一条 completed，替换掉先前的 started
	require.Len(t, got.RecentActivity, 1)
	assert.Equal(t, progress.ActivityCompleted, got.RecentActivity[0].Type)

	svc.Flush()
}

func TestCompleteLessonPersistFailureKeepsOptimistic(t *testing.T) {
	store := newFakeStore()
	svc, sessions := newTestProgressService(store)
	seedUser(store, sessions, "u1")
	store.failPatch = true

	got, err := svc.CompleteLesson("u1", 1, "Earthquake Safety", "Natural Disasters", "Introduction to Earthquakes", true)
	require.NoError(t, err)
	assert.Equal(t, 100, got.TotalPoints)

	svc.Flush()

	// 失败不回滚：缓存保留乐观值，状态标成 failed
	assert.Equal(t, 100, sessions.Get("u1").Get().TotalPoints)
	assert.Equal(t, SyncFailed, svc.Status("u1"))
	assert.Zero(t, store.profiles["u1"].TotalPoints)
}

func TestCompleteLessonServerIsCanonical(t *testing.T) {
	store := newFakeStore()
	svc, sessions := newTestProgressService(store)
	seedUser(store, sessions, "u1")
	// 服务端已有别的会话写入的积分
	store.profiles["u1"].TotalPoints = 500

	_, err := svc.CompleteLesson("u1", 1, "Earthquake Safety", "Natural Disasters", "Introduction to Earthquakes", true)
	require.NoError(t, err)
	svc.Flush()

	// 成功同步后缓存被服务端权威档案整体回填
	assert.Equal(t, 100, sessions.Get("u1").Get().TotalPoints)
	assert.Equal(t, SyncDone, svc.Status("u1"))
}

func TestCompleteLessonUnknownModule(t *testing.T) {
	store := newFakeStore()
	svc, sessions := newTestProgressService(store)
	seedUser(store, sessions, "u1")

	_, err := svc.CompleteLesson("u1", 99, "Ghost", "", "Lesson X", true)
	require.Error(t, err)
	assert.True(t, errors.Is(err, util.ErrUnknownModule))

	// 缓存与活动流原样不动，也没有触发持久化
	cur := sessions.Get("u1").Get()
	assert.Empty(t, cur.ModuleProgress)
	assert.Empty(t, cur.RecentActivity)
	svc.Flush()
	assert.Nil(t, store.lastPatch)
	assert.Equal(t, SyncIdle, svc.Status("u1"))
}

func TestCompleteLessonWithoutSession(t *testing.T) {
	store := newFakeStore()
	svc, _ := newTestProgressService(store)

	_, err := svc.CompleteLesson("ghost", 1, "Earthquake Safety", "", "Introduction to Earthquakes", true)
	assert.True(t, errors.Is(err, util.ErrNotAuthenticated))
}

func TestMarkAccessed(t *testing.T) {
	store := newFakeStore()
	svc, sessions := newTestProgressService(store)
	seedUser(store, sessions, "u1")

	got, err := svc.MarkAccessed("u1", 3, "Fire Safety")
	require.NoError(t, err)
	require.NotNil(t, got.LastAccessedModuleID)
	assert.Equal(t, 3, *got.LastAccessedModuleID)

	// 重复访问去重，活动流里同一模块只留一条 accessed
	got, err = svc.MarkAccessed("u1", 3, "Fire Safety")
	require.NoError(t, err)
	require.Len(t, got.RecentActivity, 1)
	assert.Equal(t, progress.ActivityAccessed, got.RecentActivity[0].Type)

	svc.Flush()

	// 补丁只动活动流和最近访问，进度字段不被触碰
	require.NotNil(t, store.lastPatch)
	assert.Nil(t, store.lastPatch.ModuleProgress)
	assert.Nil(t, store.lastPatch.TotalPoints)
	assert.NotNil(t, store.lastPatch.LastAccessedModuleID)
}

func TestProfileReattachesAfterRestart(t *testing.T) {
	store := newFakeStore()
	svc, sessions := newTestProgressService(store)
	store.profiles["u1"] = &progress.Profile{ID: "u1", TotalPoints: 300}

	// 会话缺失（如服务重启）时从存储装载并挂载
	p, err := svc.Profile(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, 300, p.TotalPoints)
	require.NotNil(t, sessions.Get("u1"))

	// 第二次直接命中缓存
	_, err = svc.Profile(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, 1, store.getCalls)
}

func TestProfileUnknownUser(t *testing.T) {
	store := newFakeStore()
	svc, _ := newTestProgressService(store)

	_, err := svc.Profile(context.Background(), "nobody")
	assert.True(t, errors.Is(err, util.ErrUserNotFound))
}

func TestStatusDefaultsToIdle(t *testing.T) {
	svc, _ := newTestProgressService(newFakeStore())
	assert.Equal(t, SyncIdle, svc.Status("u1"))
}
