package progress

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProfileCloneIsDeep(t *testing.T) {
	last := 1
	p := &Profile{
		ID: "u1",
		ModuleProgress: []ModuleProgress{{
			ID:      1,
			Lessons: []LessonProgress{{Name: "Introduction to Earthquakes", Completed: true}},
		}},
		RecentActivity:       []ActivityEntry{{ID: 1, Module: "Earthquake Safety"}},
		LastAccessedModuleID: &last,
	}

	cp := p.Clone()
	cp.ModuleProgress[0].Lessons[0].Completed = false
	cp.RecentActivity[0].Module = "changed"
	*cp.LastAccessedModuleID = 3

	assert.True(t, p.ModuleProgress[0].Lessons[0].Completed)
	assert.Equal(t, "Earthquake Safety", p.RecentActivity[0].Module)
	assert.Equal(t, 1, *p.LastAccessedModuleID)
}

func TestDecodeEmptyColumns(t *testing.T) {
	prog, err := DecodeModuleProgress("")
	require.NoError(t, err)
	assert.Nil(t, prog)

	log, err := DecodeActivity("")
	require.NoError(t, err)
	assert.Nil(t, log)
}

func TestEncodeNilAsEmptyArray(t *testing.T) {
	// 前端拿到的永远是数组，不是 null
	s, err := EncodeModuleProgress(nil)
	require.NoError(t, err)
	assert.Equal(t, "[]", s)

	s, err = EncodeActivity(nil)
	require.NoError(t, err)
	assert.Equal(t, "[]", s)
}
