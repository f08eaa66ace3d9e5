package service

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"disaster_edu_backend/internal/catalog"
	"disaster_edu_backend/internal/progress"
	"disaster_edu_backend/internal/session"
	"disaster_edu_backend/internal/util"
	"disaster_edu_backend/pkg/logger"
	"disaster_edu_backend/pkg/monitoring"

	"go.uber.org/zap"
)

// ProfileStore 档案的持久化边界。PatchProfile 是部分更新：nil 字段不动，
// 非 nil 字段整体覆盖，返回写入后的权威档案。
type ProfileStore interface {
	GetProfile(ctx context.Context, userID string) (*progress.Profile, error)
	PatchProfile(ctx context.Context, userID string, patch *progress.ProfilePatch) (*progress.Profile, error)
}

// SyncStatus 最近一次后台持久化的状态，只用于前端的"同步中"提示
type SyncStatus string

const (
	SyncIdle    SyncStatus = "idle"
	SyncPending SyncStatus = "syncing"
	SyncDone    SyncStatus = "synced"
	SyncFailed  SyncStatus = "failed"
)

// ProgressService 把课时完成/模块访问事件排成"本地乐观更新 + 后台持久化"。
// 本地推导在会话的 Update 临界区内串行；远程写在临界区外异步进行，
// 成功时用服务端权威档案整体回填缓存，失败时乐观状态保留、只记日志，
// 调用方的导航流程从不等待网络结果。
type ProgressService struct {
	Store    ProfileStore
	Sessions *session.Manager
	Catalog  *catalog.Catalog

	persistTimeout atomic.Int64 // 纳秒，配置热更新时可被替换
	now            func() time.Time

	statusMu sync.Mutex
	status   map[string]SyncStatus
	inflight sync.WaitGroup
}

func NewProgressService(store ProfileStore, sessions *session.Manager, cat *catalog.Catalog, persistTimeout time.Duration) *ProgressService {
	s := &ProgressService{
		Store:    store,
		Sessions: sessions,
		Catalog:  cat,
		now:      time.Now,
		status:   make(map[string]SyncStatus),
	}
	s.persistTimeout.Store(int64(persistTimeout))
	return s
}

// SetPersistTimeout 调整后续持久化的超时，已在途的写不受影响
func (s *ProgressService) SetPersistTimeout(d time.Duration) {
	if d > 0 {
		s.persistTimeout.Store(int64(d))
	}
}

// CompleteLesson 处理一次课时完成/撤销事件。返回本地推导出的新档案，
// 调用方立即据此推进 UI；持久化在后台完成。目录里没有的模块返回
// ErrUnknownModule 且缓存不变，未登录会话返回 ErrNotAuthenticated。
func (s *ProgressService) CompleteLesson(userID string, moduleID int, moduleTitle, category, lessonName string, completed bool) (*progress.Profile, error) {
	st := s.Sessions.Get(userID)
	if st == nil {
		return nil, util.ErrNotAuthenticated
	}

	var patch *progress.ProfilePatch

	updated, err := st.Update(func(cur *progress.Profile) (*progress.Profile, error) {
		if cur == nil {
			return nil, util.ErrNotAuthenticated
		}

		newProg, err := progress.RecordLessonCompletion(cur.ModuleProgress, moduleID, moduleTitle, category, lessonName, completed, s.Catalog)
		if err != nil {
			return nil, err
		}

		modPct := 0
		for _, m := range newProg {
			if m.ID == moduleID {
				modPct = m.Progress
				break
			}
		}

		typ := progress.ActivityStarted
		if modPct == 100 {
			typ = progress.ActivityCompleted
		}
		points := 0
		if completed {
			points = 100
		}

		newLog := progress.PushActivity(cur.RecentActivity, progress.NewActivityEntry(typ, moduleTitle, points, s.now()))
		agg := progress.RecomputeAggregates(newProg, s.Catalog)

		next := cur.Clone()
		next.ModuleProgress = newProg
		next.RecentActivity = newLog
		next.ModulesCompleted = agg.ModulesCompleted
		next.OverallProgress = agg.OverallProgress
		next.TotalPoints = agg.TotalPoints
		next.TotalHours = agg.TotalHours

		patch = &progress.ProfilePatch{
			ModuleProgress:   &newProg,
			RecentActivity:   &newLog,
			ModulesCompleted: &agg.ModulesCompleted,
			OverallProgress:  &agg.OverallProgress,
			TotalPoints:      &agg.TotalPoints,
			TotalHours:       &agg.TotalHours,
		}
		return next, nil
	})
	if err != nil {
		return nil, err
	}

	s.persistAsync(userID, patch)
	return updated, nil
}

// MarkAccessed 记录模块访问：只动活动流和 lastAccessedModuleId，
// 持久化同样后台进行，不阻塞模块内容的渲染。
func (s *ProgressService) MarkAccessed(userID string, moduleID int, moduleTitle string) (*progress.Profile, error) {
	st := s.Sessions.Get(userID)
	if st == nil {
		return nil, util.ErrNotAuthenticated
	}

	var patch *progress.ProfilePatch

	updated, err := st.Update(func(cur *progress.Profile) (*progress.Profile, error) {
		if cur == nil {
			return nil, util.ErrNotAuthenticated
		}

		newLog := progress.PushActivity(cur.RecentActivity, progress.NewActivityEntry(progress.ActivityAccessed, moduleTitle, 0, s.now()))

		next := cur.Clone()
		next.RecentActivity = newLog
		id := moduleID
		next.LastAccessedModuleID = &id

		patch = &progress.ProfilePatch{
			RecentActivity:       &newLog,
			LastAccessedModuleID: &id,
		}
		return next, nil
	})
	if err != nil {
		return nil, err
	}

	s.persistAsync(userID, patch)
	return updated, nil
}

// Profile 取当前档案：优先会话缓存，缓存缺失（比如服务重启后）时从存储
// 重新装载并挂载会话。
func (s *ProgressService) Profile(ctx context.Context, userID string) (*progress.Profile, error) {
	if st := s.Sessions.Get(userID); st != nil {
		if p := st.Get(); p != nil {
			return p, nil
		}
	}

	p, err := s.Store.GetProfile(ctx, userID)
	if err != nil {
		return nil, err
	}
	s.Sessions.Attach(userID, p)
	return p, nil
}

func (s *ProgressService) Status(userID string) SyncStatus {
	s.statusMu.Lock()
	defer s.statusMu.Unlock()
	if st, ok := s.status[userID]; ok {
		return st
	}
	return SyncIdle
}

// Flush 等待所有在途的后台持久化结束，优雅停机时调用
func (s *ProgressService) Flush() {
	s.inflight.Wait()
}

func (s *ProgressService) persistAsync(userID string, patch *progress.ProfilePatch) {
	s.setStatus(userID, SyncPending)
	s.inflight.Add(1)

	go func() {
		defer s.inflight.Done()

		ctx, cancel := context.WithTimeout(context.Background(), time.Duration(s.persistTimeout.Load()))
		defer cancel()

		canonical, err := s.Store.PatchProfile(ctx, userID, patch)
		if err != nil {
			// 失败不回滚：乐观状态保留，下一次成功同步前冗余统计可能与服务端短暂不一致
			monitoring.ProgressSyncCounter.WithLabelValues("failure").Inc()
			s.setStatus(userID, SyncFailed)
			logger.Log.Warn("progress persist failed, keeping optimistic state",
				zap.String("userID", userID),
				zap.Error(err),
			)
			return
		}

		// 服务端是权威：其他会话的并发写入以最后落库的为准
		if st := s.Sessions.Get(userID); st != nil {
			st.Set(canonical)
		}
		monitoring.ProgressSyncCounter.WithLabelValues("success").Inc()
		s.setStatus(userID, SyncDone)
	}()
}

func (s *ProgressService) setStatus(userID string, st SyncStatus) {
	s.statusMu.Lock()
	s.status[userID] = st
	s.statusMu.Unlock()
}
