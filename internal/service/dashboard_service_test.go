package service

import (
	"context"
	"testing"

	"disaster_edu_backend/internal/catalog"
	"disaster_edu_backend/internal/progress"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetUserDashboard(t *testing.T) {
	store := newFakeStore()
	svc, sessions := newTestProgressService(store)
	seedUser(store, sessions, "u1")
	dash := NewDashboardService(svc, catalog.Default())

	_, err := svc.CompleteLesson("u1", 1, "Earthquake Safety", "Natural Disasters", "Introduction to Earthquakes", true)
	require.NoError(t, err)
	_, err = svc.MarkAccessed("u1", 1, "Earthquake Safety")
	require.NoError(t, err)
	svc.Flush()

	d, err := dash.GetUserDashboard(context.Background(), "u1")
	require.NoError(t, err)

	assert.Equal(t, 100, d.Stats.TotalPoints)
	// 0.33 * 2h -> 0.66 -> 1
	assert.Equal(t, 1, d.Stats.TotalHours)

	// 模块一览覆盖整个目录，未开始的模块进度为 0
	require.Len(t, d.Modules, 3)
	assert.Equal(t, 33, d.Modules[0].Progress)
	assert.Zero(t, d.Modules[1].Progress)

	// 续学入口指向上次访问的模块和下一个未完成课时
	require.NotNil(t, d.ContinueLearning)
	assert.Equal(t, 1, d.ContinueLearning.ModuleID)
	assert.Equal(t, 33, d.ContinueLearning.Progress)
	assert.Equal(t, "Drop, Cover, and Hold On", d.ContinueLearning.NextLesson)
}

func TestGetUserDashboardNoActivity(t *testing.T) {
	store := newFakeStore()
	svc, sessions := newTestProgressService(store)
	seedUser(store, sessions, "u1")
	dash := NewDashboardService(svc, catalog.Default())

	d, err := dash.GetUserDashboard(context.Background(), "u1")
	require.NoError(t, err)

	assert.Nil(t, d.ContinueLearning)
	assert.Empty(t, d.RecentActivity)
	require.Len(t, d.Modules, 3)
}

func TestNextLessonAllDone(t *testing.T) {
	mod, ok := catalog.Default().Get(2)
	require.True(t, ok)

	mp := progress.ModuleProgress{
		ID: 2,
		Lessons: []progress.LessonProgress{
			{Name: "Understanding Flood Alerts", Completed: true},
			{Name: "Water Safety & Sanitation", Completed: true},
		},
	}
	assert.Equal(t, "", nextLesson(mod, mp))
}
