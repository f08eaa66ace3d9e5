package progress

import (
	"encoding/json"
	"time"
)

type ActivityType string

const (
	ActivityStarted   ActivityType = "started"
	ActivityCompleted ActivityType = "completed"
	ActivityAccessed  ActivityType = "accessed"
)

// MaxActivityLog 活动流保留的最大条数
const MaxActivityLog = 5

// LessonProgress 单个课时的完成状态。课时以名称为关联键（沿用既有数据格式，
// 改课时标题会断档，见 DESIGN.md）。
type LessonProgress struct {
	Name      string `json:"name"`
	Completed bool   `json:"completed"`
}

// ModuleProgress 一个模块的学习进度。Progress 是派生值，只由聚合函数写入。
type ModuleProgress struct {
	ID       int              `json:"id"`
	Title    string           `json:"title"`
	Category string           `json:"category"`
	Progress int              `json:"progress"`
	Lessons  []LessonProgress `json:"lessons"`
}

// ActivityEntry 最近活动条目，ID 取毫秒时间戳
type ActivityEntry struct {
	ID     int64        `json:"id"`
	Type   ActivityType `json:"type"`
	Module string       `json:"module"`
	Date   string       `json:"date"`
	Points int          `json:"points"`
}

// Aggregates 从完整进度快照一次性重算出的冗余统计
type Aggregates struct {
	ModulesCompleted int `json:"modulesCompleted"`
	OverallProgress  int `json:"overallProgress"`
	TotalPoints      int `json:"totalPoints"`
	TotalHours       int `json:"totalHours"`
}

// Profile 解码后的用户档案，SessionState 缓存的就是它。
// 核心代码只操作结构化数据，数据库列里的 JSON 文本在 repository 层编解码。
type Profile struct {
	ID           string     `json:"id"`
	FirstName    string     `json:"firstName"`
	LastName     string     `json:"lastName"`
	Email        string     `json:"email"`
	Phone        string     `json:"phone"`
	DateOfBirth  *time.Time `json:"dateOfBirth"`
	Location     string     `json:"location"`
	Bio          string     `json:"bio"`
	Organization string     `json:"organization"`
	Role         string     `json:"role"`
	ProfilePhoto string     `json:"profilePhoto"`
	CoverPhoto   string     `json:"coverPhoto"`
	CreatedAt    time.Time  `json:"createdAt"`

	ModuleProgress       []ModuleProgress `json:"moduleProgress"`
	RecentActivity       []ActivityEntry  `json:"recentActivity"`
	LastAccessedModuleID *int             `json:"lastAccessedModuleId"`
	ModulesCompleted     int              `json:"modulesCompleted"`
	OverallProgress      int              `json:"overallProgress"`
	TotalPoints          int              `json:"totalPoints"`
	TotalHours           int              `json:"totalHours"`
	CurrentStreak        int              `json:"currentStreak"`
}

// Clone 深拷贝，乐观更新在副本上进行，失败时原快照不受影响
func (p *Profile) Clone() *Profile {
	if p == nil {
		return nil
	}
	cp := *p
	cp.ModuleProgress = cloneModuleProgress(p.ModuleProgress)
	cp.RecentActivity = append([]ActivityEntry(nil), p.RecentActivity...)
	if p.LastAccessedModuleID != nil {
		id := *p.LastAccessedModuleID
		cp.LastAccessedModuleID = &id
	}
	return &cp
}

// ProfilePatch 部分更新：nil 字段不动，非 nil 字段整体覆盖（服务端不做数组合并）
type ProfilePatch struct {
	ModuleProgress       *[]ModuleProgress
	RecentActivity       *[]ActivityEntry
	ModulesCompleted     *int
	OverallProgress      *int
	TotalPoints          *int
	TotalHours           *int
	LastAccessedModuleID *int
}

func cloneModuleProgress(in []ModuleProgress) []ModuleProgress {
	if in == nil {
		return nil
	}
	out := make([]ModuleProgress, len(in))
	for i, m := range in {
		m.Lessons = append([]LessonProgress(nil), m.Lessons...)
		out[i] = m
	}
	return out
}

// DecodeModuleProgress 解析数据库列里的 JSON 文本，空串视为无进度
func DecodeModuleProgress(raw string) ([]ModuleProgress, error) {
	if raw == "" {
		return nil, nil
	}
	var out []ModuleProgress
	if err := json.Unmarshal([]byte(raw), &out); err != nil {
		return nil, err
	}
	return out, nil
}

func EncodeModuleProgress(progress []ModuleProgress) (string, error) {
	if progress == nil {
		progress = []ModuleProgress{}
	}
	b, err := json.Marshal(progress)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func DecodeActivity(raw string) ([]ActivityEntry, error) {
	if raw == "" {
		return nil, nil
	}
	var out []ActivityEntry
	if err := json.Unmarshal([]byte(raw), &out); err != nil {
		return nil, err
	}
	return out, nil
}

func EncodeActivity(log []ActivityEntry) (string, error) {
	if log == nil {
		log = []ActivityEntry{}
	}
	b, err := json.Marshal(log)
	if err != nil {
		return "", err
	}
	return string(b), nil
}
