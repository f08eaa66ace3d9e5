package session

import (
	"errors"
	"sync"
	"testing"

	"disaster_edu_backend/internal/progress"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStateUpdateReplacesSnapshot(t *testing.T) {
	st := NewState(&progress.Profile{ID: "u1", TotalPoints: 0})

	out, err := st.Update(func(p *progress.Profile) (*progress.Profile, error) {
		cp := p.Clone()
		cp.TotalPoints = 100
		return cp, nil
	})
	require.NoError(t, err)
	assert.Equal(t, 100, out.TotalPoints)
	assert.Equal(t, 100, st.Get().TotalPoints)
}

func TestStateUpdateErrorLeavesCache(t *testing.T) {
	st := NewState(&progress.Profile{ID: "u1", TotalPoints: 42})

	_, err := st.Update(func(p *progress.Profile) (*progress.Profile, error) {
		return nil, errors.New("boom")
	})
	require.Error(t, err)
	assert.Equal(t, 42, st.Get().TotalPoints)
}

func TestStateUpdateSerialized(t *testing.T) {
	st := NewState(&progress.Profile{ID: "u1"})

	// 并发自增，每次都基于最新快照计算，丢更新会让计数小于 N
	const n = 64
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = st.Update(func(p *progress.Profile) (*progress.Profile, error) {
				cp := p.Clone()
				cp.TotalPoints += 100
				return cp, nil
			})
		}()
	}
	wg.Wait()

	assert.Equal(t, n*100, st.Get().TotalPoints)
}

func TestManagerAttachReusesState(t *testing.T) {
	m := NewManager()

	st1 := m.Attach("u1", &progress.Profile{ID: "u1", TotalPoints: 1})
	st2 := m.Attach("u1", &progress.Profile{ID: "u1", TotalPoints: 2})

	assert.Same(t, st1, st2)
	assert.Equal(t, 2, st1.Get().TotalPoints)
}

func TestManagerDrop(t *testing.T) {
	m := NewManager()
	st := m.Attach("u1", &progress.Profile{ID: "u1"})

	m.Drop("u1")

	assert.Nil(t, m.Get("u1"))
	// 已被持有的引用也读不到旧档案
	assert.Nil(t, st.Get())
}

func TestManagerGetUnknownUser(t *testing.T) {
	m := NewManager()
	assert.Nil(t, m.Get("nobody"))
}
