package progress

import (
	"fmt"
	"math"
	"time"

	"disaster_edu_backend/internal/catalog"
	"disaster_edu_backend/internal/util"
)

// RecordLessonCompletion 把一次课时完成/撤销事件合并到进度快照里，返回新切片，
// 入参不被修改。目标模块不存在时新建条目，此时模块必须在课程目录里（需要课时
// 总数做分母），否则返回 ErrUnknownModule。重复标记同一课时是幂等的；
// completed=false 会把进度往回拉，这里不做单调性限制。
func RecordLessonCompletion(prog []ModuleProgress, moduleID int, title, category, lessonName string, completed bool, cat *catalog.Catalog) ([]ModuleProgress, error) {
	out := cloneModuleProgress(prog)

	idx := -1
	for i := range out {
		if out[i].ID == moduleID {
			idx = i
			break
		}
	}

	if idx == -1 {
		if _, ok := cat.Get(moduleID); !ok {
			return nil, fmt.Errorf("%w: id=%d", util.ErrUnknownModule, moduleID)
		}
		if category == "" {
			category = "General"
		}
		out = append(out, ModuleProgress{
			ID:       moduleID,
			Title:    title,
			Category: category,
			Progress: 0,
			Lessons:  []LessonProgress{{Name: lessonName, Completed: completed}},
		})
		idx = len(out) - 1
	} else {
		mod := &out[idx]
		found := false
		for i := range mod.Lessons {
			if mod.Lessons[i].Name == lessonName {
				mod.Lessons[i].Completed = completed
				found = true
				break
			}
		}
		if !found {
			mod.Lessons = append(mod.Lessons, LessonProgress{Name: lessonName, Completed: completed})
		}
	}

	mod := &out[idx]
	// 分母取课程目录里的课时总数；模块已不在目录里时退回到已见过的课时数
	total := cat.LessonCount(moduleID)
	if total == 0 {
		total = len(mod.Lessons)
	}
	mod.Progress = roundPct(countCompleted(mod.Lessons), total)

	return out, nil
}

// RecomputeAggregates 从完整进度快照重算全部冗余统计，纯函数、可重入
func RecomputeAggregates(prog []ModuleProgress, cat *catalog.Catalog) Aggregates {
	var agg Aggregates

	hours := 0.0
	for _, m := range prog {
		if m.Progress == 100 {
			agg.ModulesCompleted++
		}
		agg.TotalPoints += countCompleted(m.Lessons) * 100
		hours += float64(m.Progress) / 100 * float64(cat.DurationHours(m.ID))
	}

	agg.OverallProgress = roundPct(agg.ModulesCompleted, catalog.TotalCurriculumModules)
	agg.TotalHours = int(math.Round(hours))

	return agg
}

// PushActivity 去重后把新条目插到活动流头部并截断。accessed 事件按
// (类型, 模块) 去重；started/completed 按模块去重且互相替换，保证可见的
// 活动流里每个模块最多一行进度类条目。
func PushActivity(log []ActivityEntry, entry ActivityEntry) []ActivityEntry {
	out := make([]ActivityEntry, 0, len(log)+1)
	out = append(out, entry)

	for _, e := range log {
		if e.Module == entry.Module {
			if entry.Type == ActivityAccessed {
				if e.Type == ActivityAccessed {
					continue
				}
			} else if e.Type != ActivityAccessed {
				continue
			}
		}
		out = append(out, e)
	}

	if len(out) > MaxActivityLog {
		out = out[:MaxActivityLog]
	}
	return out
}

// NewActivityEntry 构造活动条目，ID 取毫秒时间戳，日期按展示格式渲染
func NewActivityEntry(typ ActivityType, moduleTitle string, points int, now time.Time) ActivityEntry {
	return ActivityEntry{
		ID:     now.UnixMilli(),
		Type:   typ,
		Module: moduleTitle,
		Date:   now.Format(util.ActivityDateFormat),
		Points: points,
	}
}

func countCompleted(lessons []LessonProgress) int {
	n := 0
	for _, l := range lessons {
		if l.Completed {
			n++
		}
	}
	return n
}

// roundPct 百分比取整（四舍五入，0.5 远离零），并压到 [0,100]
func roundPct(part, total int) int {
	if total <= 0 {
		return 0
	}
	p := int(math.Round(float64(part) / float64(total) * 100))
	if p < 0 {
		p = 0
	}
	if p > 100 {
		p = 100
	}
	return p
}
