package service

import (
	"context"

	"disaster_edu_backend/internal/catalog"
	"disaster_edu_backend/internal/progress"
)

type DashboardService struct {
	Progress *ProgressService
	Catalog  *catalog.Catalog
}

func NewDashboardService(progressService *ProgressService, cat *catalog.Catalog) *DashboardService {
	return &DashboardService{
		Progress: progressService,
		Catalog:  cat,
	}
}

type Dashboard struct {
	Stats            LearningStats            `json:"stats"`
	RecentActivity   []progress.ActivityEntry `json:"recentActivity"`
	ContinueLearning *ContinueLearning        `json:"continueLearning,omitempty"`
	Modules          []ModuleOverview         `json:"modules"`
}

type LearningStats struct {
	ModulesCompleted int `json:"modulesCompleted"`
	OverallProgress  int `json:"overallProgress"`
	TotalPoints      int `json:"totalPoints"`
	TotalHours       int `json:"totalHours"`
	CurrentStreak    int `json:"currentStreak"`
}

// ContinueLearning 上次访问的模块和建议的下一课时
type ContinueLearning struct {
	ModuleID   int    `json:"moduleId"`
	Title      string `json:"title"`
	Progress   int    `json:"progress"`
	NextLesson string `json:"nextLesson,omitempty"`
}

type ModuleOverview struct {
	ModuleID int    `json:"moduleId"`
	Title    string `json:"title"`
	Category string `json:"category"`
	Progress int    `json:"progress"`
}

// GetUserDashboard 组装学员仪表盘：统计卡、活动流、续学入口、模块进度一览
func (s *DashboardService) GetUserDashboard(ctx context.Context, userID string) (*Dashboard, error) {
	p, err := s.Progress.Profile(ctx, userID)
	if err != nil {
		return nil, err
	}

	d := &Dashboard{
		Stats: LearningStats{
			ModulesCompleted: p.ModulesCompleted,
			OverallProgress:  p.OverallProgress,
			TotalPoints:      p.TotalPoints,
			TotalHours:       p.TotalHours,
			CurrentStreak:    p.CurrentStreak,
		},
		RecentActivity: p.RecentActivity,
	}

	byID := make(map[int]progress.ModuleProgress, len(p.ModuleProgress))
	for _, m := range p.ModuleProgress {
		byID[m.ID] = m
	}

	for _, m := range s.Catalog.All() {
		mp := byID[m.ID]
		d.Modules = append(d.Modules, ModuleOverview{
			ModuleID: m.ID,
			Title:    m.Title,
			Category: m.Category,
			Progress: mp.Progress,
		})
	}

	if p.LastAccessedModuleID != nil {
		if mod, ok := s.Catalog.Get(*p.LastAccessedModuleID); ok {
			mp := byID[mod.ID]
			d.ContinueLearning = &ContinueLearning{
				ModuleID:   mod.ID,
				Title:      mod.Title,
				Progress:   mp.Progress,
				NextLesson: nextLesson(mod, mp),
			}
		}
	}

	return d, nil
}

// nextLesson 按目录顺序找第一个还没完成的课时
func nextLesson(mod *catalog.Module, mp progress.ModuleProgress) string {
	done := make(map[string]bool, len(mp.Lessons))
	for _, l := range mp.Lessons {
		if l.Completed {
			done[l.Name] = true
		}
	}
	for _, l := range mod.Lessons {
		if !done[l.Title] {
			return l.Title
		}
	}
	return ""
}
