package session

import (
	"sync"

	"disaster_edu_backend/internal/progress"
)

// State 单个登录会话的内存档案缓存。所有进度相关的写入都经由 Update 串行化，
// 视图侧只读 Get。State 本身不落盘。
type State struct {
	mu      sync.RWMutex
	applyMu sync.Mutex
	profile *progress.Profile
}

func NewState(p *progress.Profile) *State {
	return &State{profile: p}
}

// Get 当前缓存的档案快照，未登录时为 nil。返回值按只读使用，
// 修改必须走 Update 生成新快照。
func (s *State) Get() *progress.Profile {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.profile
}

// Set 整体替换缓存的档案，不做字段级合并
func (s *State) Set(p *progress.Profile) {
	s.mu.Lock()
	s.profile = p
	s.mu.Unlock()
}

// Clear 登出时清空
func (s *State) Clear() {
	s.Set(nil)
}

// Update 串行执行"读快照 → 计算 → 替换"的临界区。fn 返回错误时缓存不变，
// 返回的新档案整体替换旧值。同一会话并发的进度事件在这里排队，
// 避免后一次计算基于过期快照覆盖前一次的结果。
func (s *State) Update(fn func(*progress.Profile) (*progress.Profile, error)) (*progress.Profile, error) {
	s.applyMu.Lock()
	defer s.applyMu.Unlock()

	next, err := fn(s.Get())
	if err != nil {
		return nil, err
	}
	s.Set(next)
	return next, nil
}

// Manager 按用户维护会话状态：登录时建，登出时清。
// 注入到需要它的服务里，不做包级单例。
type Manager struct {
	mu     sync.Mutex
	states map[string]*State
}

func NewManager() *Manager {
	return &Manager{states: make(map[string]*State)}
}

// Attach 登录成功后挂载会话并填入档案，重复登录复用同一个 State
func (m *Manager) Attach(userID string, p *progress.Profile) *State {
	m.mu.Lock()
	defer m.mu.Unlock()

	st, ok := m.states[userID]
	if !ok {
		st = NewState(p)
		m.states[userID] = st
		return st
	}
	st.Set(p)
	return st
}

// Get 取用户的会话状态，未登录返回 nil
func (m *Manager) Get(userID string) *State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.states[userID]
}

// Drop 登出时移除会话
func (m *Manager) Drop(userID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if st, ok := m.states[userID]; ok {
		st.Clear()
		delete(m.states, userID)
	}
}
