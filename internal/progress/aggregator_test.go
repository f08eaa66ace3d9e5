package progress

import (
	"errors"
	"testing"
	"time"

	"disaster_edu_backend/internal/catalog"
	"disaster_edu_backend/internal/util"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testCatalog() *catalog.Catalog {
	return catalog.Default()
}

func TestRecordLessonCompletionRounding(t *testing.T) {
	cat := testCatalog()

	// 模块 1 共 3 个课时，逐个完成应得 33 / 67 / 100
	prog, err := RecordLessonCompletion(nil, 1, "Earthquake Safety", "Natural Disasters", "Introduction to Earthquakes", true, cat)
	require.NoError(t, err)
	require.Len(t, prog, 1)
	assert.Equal(t, 33, prog[0].Progress)

	prog, err = RecordLessonCompletion(prog, 1, "Earthquake Safety", "Natural Disasters", "Drop, Cover, and Hold On", true, cat)
	require.NoError(t, err)
	assert.Equal(t, 67, prog[0].Progress)

	prog, err = RecordLessonCompletion(prog, 1, "Earthquake Safety", "Natural Disasters", "Post-Quake Evacuation", true, cat)
	require.NoError(t, err)
	assert.Equal(t, 100, prog[0].Progress)
	assert.Len(t, prog[0].Lessons, 3)
}

func TestRecordLessonCompletionDoesNotMutateInput(t *testing.T) {
	cat := testCatalog()

	in, err := RecordLessonCompletion(nil, 1, "Earthquake Safety", "Natural Disasters", "Introduction to Earthquakes", true, cat)
	require.NoError(t, err)

	out, err := RecordLessonCompletion(in, 1, "Earthquake Safety", "Natural Disasters", "Drop, Cover, and Hold On", true, cat)
	require.NoError(t, err)

	assert.Equal(t, 33, in[0].Progress)
	assert.Len(t, in[0].Lessons, 1)
	assert.Equal(t, 67, out[0].Progress)
}

func TestRecordLessonCompletionIdempotent(t *testing.T) {
	cat := testCatalog()

	first, err := RecordLessonCompletion(nil, 1, "Earthquake Safety", "Natural Disasters", "Introduction to Earthquakes", true, cat)
	require.NoError(t, err)

	second, err := RecordLessonCompletion(first, 1, "Earthquake Safety", "Natural Disasters", "Introduction to Earthquakes", true, cat)
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestRecordLessonCompletionUncomplete(t *testing.T) {
	cat := testCatalog()

	prog, err := RecordLessonCompletion(nil, 2, "Flood Response", "Natural Disasters", "Understanding Flood Alerts", true, cat)
	require.NoError(t, err)
	prog, err = RecordLessonCompletion(prog, 2, "Flood Response", "Natural Disasters", "Water Safety & Sanitation", true, cat)
	require.NoError(t, err)
	require.Equal(t, 100, prog[0].Progress)

	// 撤销完成会把进度拉回，不做单调性限制
	prog, err = RecordLessonCompletion(prog, 2, "Flood Response", "Natural Disasters", "Water Safety & Sanitation", false, cat)
	require.NoError(t, err)
	assert.Equal(t, 50, prog[0].Progress)
	assert.Len(t, prog[0].Lessons, 2)
}

func TestRecordLessonCompletionUnknownModule(t *testing.T) {
	cat := testCatalog()

	seed, err := RecordLessonCompletion(nil, 1, "Earthquake Safety", "Natural Disasters", "Introduction to Earthquakes", true, cat)
	require.NoError(t, err)

	out, err := RecordLessonCompletion(seed, 99, "Ghost Module", "General", "Lesson X", true, cat)
	assert.Nil(t, out)
	require.Error(t, err)
	assert.True(t, errors.Is(err, util.ErrUnknownModule))

	// 出错时原快照保持不变
	assert.Len(t, seed, 1)
	assert.Equal(t, 33, seed[0].Progress)
}

func TestRecordLessonCompletionRetiredModuleEntry(t *testing.T) {
	cat := testCatalog()

	// 已经存在的条目即使模块被下架也继续可写，分母退回已见过的课时数
	seed := []ModuleProgress{{
		ID:       99,
		Title:    "Retired Module",
		Category: "General",
		Progress: 0,
		Lessons: []LessonProgress{
			{Name: "Old Lesson A", Completed: false},
			{Name: "Old Lesson B", Completed: false},
		},
	}}

	out, err := RecordLessonCompletion(seed, 99, "Retired Module", "General", "Old Lesson A", true, cat)
	require.NoError(t, err)
	assert.Equal(t, 50, out[0].Progress)
}

func TestRecordLessonCompletionDefaultCategory(t *testing.T) {
	cat := testCatalog()

	prog, err := RecordLessonCompletion(nil, 3, "Fire Safety", "", "The Fire Triangle", true, cat)
	require.NoError(t, err)
	assert.Equal(t, "General", prog[0].Category)
}

func TestRecomputeAggregatesFullModule(t *testing.T) {
	cat := testCatalog()

	var prog []ModuleProgress
	var err error
	for _, name := range []string{"Introduction to Earthquakes", "Drop, Cover, and Hold On", "Post-Quake Evacuation"} {
		prog, err = RecordLessonCompletion(prog, 1, "Earthquake Safety", "Natural Disasters", name, true, cat)
		require.NoError(t, err)
	}

	agg := RecomputeAggregates(prog, cat)
	assert.Equal(t, 1, agg.ModulesCompleted)
	// 1/12 的课程 -> 8%
	assert.Equal(t, 8, agg.OverallProgress)
	assert.Equal(t, 300, agg.TotalPoints)
	assert.Equal(t, 2, agg.TotalHours)

	// 重算是确定性的
	assert.Equal(t, agg, RecomputeAggregates(prog, cat))
}

func TestRecomputeAggregatesAfterUncomplete(t *testing.T) {
	cat := testCatalog()

	var prog []ModuleProgress
	var err error
	for _, name := range []string{"Understanding Flood Alerts", "Water Safety & Sanitation"} {
		prog, err = RecordLessonCompletion(prog, 2, "Flood Response", "Natural Disasters", name, true, cat)
		require.NoError(t, err)
	}
	require.Equal(t, 1, RecomputeAggregates(prog, cat).ModulesCompleted)

	prog, err = RecordLessonCompletion(prog, 2, "Flood Response", "Natural Disasters", "Water Safety & Sanitation", false, cat)
	require.NoError(t, err)

	agg := RecomputeAggregates(prog, cat)
	assert.Zero(t, agg.ModulesCompleted)
	assert.Equal(t, 100, agg.TotalPoints)
}

func TestRecomputeAggregatesPartial(t *testing.T) {
	cat := testCatalog()

	prog, err := RecordLessonCompletion(nil, 1, "Earthquake Safety", "Natural Disasters", "Introduction to Earthquakes", true, cat)
	require.NoError(t, err)
	prog, err = RecordLessonCompletion(prog, 3, "Fire Safety", "Emergency Response", "The Fire Triangle", true, cat)
	require.NoError(t, err)
	prog, err = RecordLessonCompletion(prog, 3, "Fire Safety", "Emergency Response", "Fire Extinguisher P.A.S.S.", true, cat)
	require.NoError(t, err)

	agg := RecomputeAggregates(prog, cat)
	assert.Equal(t, 1, agg.ModulesCompleted)
	assert.Equal(t, 8, agg.OverallProgress)
	assert.Equal(t, 300, agg.TotalPoints)
	// 0.33*2h + 1.0*3h = 3.66 -> 4
	assert.Equal(t, 4, agg.TotalHours)
}

func TestRecomputeAggregatesEmpty(t *testing.T) {
	agg := RecomputeAggregates(nil, testCatalog())
	assert.Zero(t, agg.ModulesCompleted)
	assert.Zero(t, agg.OverallProgress)
	assert.Zero(t, agg.TotalPoints)
	assert.Zero(t, agg.TotalHours)
}

func TestPushActivityNewestFirstAndCapped(t *testing.T) {
	now := time.Now()
	var log []ActivityEntry
	for i := 0; i < 7; i++ {
		log = PushActivity(log, NewActivityEntry(ActivityStarted, moduleName(i), 0, now.Add(time.Duration(i)*time.Second)))
	}

	require.Len(t, log, MaxActivityLog)
	assert.Equal(t, moduleName(6), log[0].Module)
	assert.Equal(t, moduleName(2), log[4].Module)
}

func TestPushActivityAccessedDedup(t *testing.T) {
	now := time.Now()
	log := PushActivity(nil, NewActivityEntry(ActivityAccessed, "Earthquake Safety", 0, now))
	log = PushActivity(log, NewActivityEntry(ActivityAccessed, "Flood Response", 0, now.Add(time.Second)))
	log = PushActivity(log, NewActivityEntry(ActivityAccessed, "Earthquake Safety", 0, now.Add(2*time.Second)))

	require.Len(t, log, 2)
	assert.Equal(t, "Earthquake Safety", log[0].Module)
	assert.Equal(t, "Flood Response", log[1].Module)
}

func TestPushActivityAccessedKeepsProgressEntries(t *testing.T) {
	now := time.Now()
	log := PushActivity(nil, NewActivityEntry(ActivityStarted, "Earthquake Safety", 0, now))
	log = PushActivity(log, NewActivityEntry(ActivityAccessed, "Earthquake Safety", 0, now.Add(time.Second)))

	// accessed 只去重同类条目，started 记录保留
	require.Len(t, log, 2)
	assert.Equal(t, ActivityAccessed, log[0].Type)
	assert.Equal(t, ActivityStarted, log[1].Type)
}

func TestPushActivityStartedReplacedByCompleted(t *testing.T) {
	now := time.Now()
	log := PushActivity(nil, NewActivityEntry(ActivityStarted, "Earthquake Safety", 0, now))
	log = PushActivity(log, NewActivityEntry(ActivityCompleted, "Earthquake Safety", 100, now.Add(time.Second)))

	require.Len(t, log, 1)
	assert.Equal(t, ActivityCompleted, log[0].Type)
	assert.Equal(t, 100, log[0].Points)
}

func TestNewActivityEntry(t *testing.T) {
	now := time.Date(2025, 3, 9, 15, 4, 5, 0, time.UTC)
	e := NewActivityEntry(ActivityCompleted, "Fire Safety", 100, now)

	assert.Equal(t, now.UnixMilli(), e.ID)
	assert.Equal(t, "Mar 9, 2025", e.Date)
	assert.Equal(t, ActivityCompleted, e.Type)
	assert.Equal(t, "Fire Safety", e.Module)
	assert.Equal(t, 100, e.Points)
}

func moduleName(i int) string {
	return "Module " + string(rune('A'+i))
}
