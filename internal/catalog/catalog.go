package catalog

import (
	"disaster_edu_backend/internal/util"
)

// TotalCurriculumModules 规划中的课程模块总数。总体进度按这个常量折算，
// 而不是按目前已上线的模块数，课程补齐之前该值保持 12。
const TotalCurriculumModules = 12

type Lesson struct {
	ID    int    `json:"id"`
	Title string `json:"title"`
}

// Module 课程模块的静态元数据，内容本体不在本服务范围内
// swagger:model Module
type Module struct {
	ID           int      `json:"id"`
	Title        string   `json:"title"`
	Level        string   `json:"level"`
	Description  string   `json:"description"`
	Duration     string   `json:"duration"` // 展示用时长，如 "2 hours"
	BaseEnrolled int      `json:"baseEnrolled"`
	Image        string   `json:"image"`
	Category     string   `json:"category"`
	Lessons      []Lesson `json:"lessons"`
}

// Catalog 只读课程目录
type Catalog struct {
	modules []Module
	byID    map[int]*Module
}

func New(modules []Module) *Catalog {
	c := &Catalog{modules: modules, byID: make(map[int]*Module, len(modules))}
	for i := range c.modules {
		c.byID[c.modules[i].ID] = &c.modules[i]
	}
	return c
}

// Default 返回内置课程目录
func Default() *Catalog {
	return New(builtinModules)
}

func (c *Catalog) All() []Module {
	return c.modules
}

func (c *Catalog) Get(id int) (*Module, bool) {
	m, ok := c.byID[id]
	return m, ok
}

// LessonCount 模块的课时总数，进度百分比以它为分母；未知模块返回 0
func (c *Catalog) LessonCount(id int) int {
	m, ok := c.byID[id]
	if !ok {
		return 0
	}
	return len(m.Lessons)
}

// DurationHours 模块时长的整数小时数，取展示字符串的前导数字（"2 hours" -> 2）
func (c *Catalog) DurationHours(id int) int {
	m, ok := c.byID[id]
	if !ok {
		return 0
	}
	return util.LeadingInt(m.Duration)
}
