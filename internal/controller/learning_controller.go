package controller

import (
	"errors"

	"disaster_edu_backend/internal/catalog"
	"disaster_edu_backend/internal/service"
	"disaster_edu_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type LearningController struct {
	ProgressService *service.ProgressService
	Catalog         *catalog.Catalog
}

func NewLearningController(progressService *service.ProgressService, cat *catalog.Catalog) *LearningController {
	return &LearningController{
		ProgressService: progressService,
		Catalog:         cat,
	}
}

// ListModules godoc
// @Summary 课程模块列表
// @Description 返回课程目录里的全部模块
// @Tags 学习
// @Produce  json
// @Success 200 {object} util.Response{data=[]catalog.Module}
// @Router /api/modules [get]
func (c *LearningController) ListModules(ctx *gin.Context) {
	util.Success(ctx, c.Catalog.All())
}

// GetModule godoc
// @Summary 模块详情
// @Description 按 ID 返回单个模块的元数据
// @Tags 学习
// @Produce  json
// @Param   id path int true "模块 ID"
// @Success 200 {object} util.Response{data=catalog.Module}
// @Failure 404 {object} util.Response
// @Router /api/modules/{id} [get]
func (c *LearningController) GetModule(ctx *gin.Context) {
	id := util.MustParseInt(ctx.Param("id"))
	mod, ok := c.Catalog.Get(id)
	if !ok {
		util.NotFound(ctx)
		return
	}
	util.Success(ctx, mod)
}

// CompleteLessonRequest 课时完成/撤销事件
// swagger:model CompleteLessonRequest
type CompleteLessonRequest struct {
	LessonName string `json:"lessonName" binding:"required"`
	Completed  *bool  `json:"completed" binding:"required"`
}

// CompleteLesson godoc
// @Summary 上报课时完成状态
// @Description 乐观更新本地进度并立即返回新档案，持久化在后台进行
// @Tags 学习
// @Accept  json
// @Produce  json
// @Security ApiKeyAuth
// @Param   id path int true "模块 ID"
// @Param   body body CompleteLessonRequest true "课时状态"
// @Success 200 {object} util.Response{data=progress.Profile}
// @Failure 400 {object} util.Response
// @Failure 401 {object} util.Response
// @Failure 404 {object} util.Response "模块不在课程目录里"
// @Router /api/learning/modules/{id}/lessons/complete [post]
func (c *LearningController) CompleteLesson(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx)
		return
	}

	var req CompleteLessonRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	moduleID := util.MustParseInt(ctx.Param("id"))
	title, categoryName := "", ""
	if mod, ok := c.Catalog.Get(moduleID); ok {
		title, categoryName = mod.Title, mod.Category
	}

	profile, err := c.ProgressService.CompleteLesson(claims.UserID, moduleID, title, categoryName, req.LessonName, *req.Completed)
	if err != nil {
		switch {
		case errors.Is(err, util.ErrNotAuthenticated):
			util.Unauthorized(ctx)
		case errors.Is(err, util.ErrUnknownModule):
			util.NotFound(ctx)
		default:
			util.LogInternalError(ctx, err)
		}
		return
	}

	util.Success(ctx, profile)
}

// MarkAccessed godoc
// @Summary 记录模块访问
// @Description 更新活动流和最近访问模块，不阻塞内容渲染
// @Tags 学习
// @Produce  json
// @Security ApiKeyAuth
// @Param   id path int true "模块 ID"
// @Success 200 {object} util.Response{data=progress.Profile}
// @Failure 401 {object} util.Response
// @Failure 404 {object} util.Response
// @Router /api/learning/modules/{id}/access [post]
func (c *LearningController) MarkAccessed(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx)
		return
	}

	moduleID := util.MustParseInt(ctx.Param("id"))
	mod, ok := c.Catalog.Get(moduleID)
	if !ok {
		util.NotFound(ctx)
		return
	}

	profile, err := c.ProgressService.MarkAccessed(claims.UserID, mod.ID, mod.Title)
	if err != nil {
		if errors.Is(err, util.ErrNotAuthenticated) {
			util.Unauthorized(ctx)
		} else {
			util.LogInternalError(ctx, err)
		}
		return
	}

	util.Success(ctx, profile)
}

// SyncStatus godoc
// @Summary 进度同步状态
// @Description 最近一次后台持久化的状态，用于"同步中"提示
// @Tags 学习
// @Produce  json
// @Security ApiKeyAuth
// @Success 200 {object} util.Response{data=object}
// @Router /api/learning/sync-status [get]
func (c *LearningController) SyncStatus(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx)
		return
	}
	util.Success(ctx, gin.H{"status": c.ProgressService.Status(claims.UserID)})
}
