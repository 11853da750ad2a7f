package api_router

import (
	"github.com/haierkeys/note-keeper-service/internal/app"
	"github.com/haierkeys/note-keeper-service/internal/dto"
	pkgapp "github.com/haierkeys/note-keeper-service/pkg/app"
	"github.com/haierkeys/note-keeper-service/pkg/code"
	apperrors "github.com/haierkeys/note-keeper-service/pkg/errors"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// NoteHandler 笔记 API 路由处理器
// 使用 App Container 注入依赖，支持统一错误处理
type NoteHandler struct {
	*Handler
}

// NewNoteHandler 创建 NoteHandler 实例
func NewNoteHandler(a *app.App) *NoteHandler {
	return &NoteHandler{
		Handler: NewHandler(a),
	}
}

// noteTarget 解析当前用户和路径中的笔记 ID
// 非法 ID 与不存在的笔记同样返回 404
func (h *NoteHandler) noteTarget(c *gin.Context) (uid int64, id int64, ok bool) {
	response := pkgapp.NewResponse(c)

	uid = pkgapp.GetUID(c)
	if uid == 0 {
		h.App.Logger().Error("NoteHandler err uid=0")
		response.ToResponse(code.ErrorInvalidUserAuthToken)
		return 0, 0, false
	}

	id, ok = parseID(c.Param("id"))
	if !ok {
		response.ToResponse(code.ErrorNoteNotFound)
		return 0, 0, false
	}
	return uid, id, true
}

// List 获取笔记列表
// @Summary 获取笔记列表
// @Description 支持按标题或内容搜索、按标签过滤（任一匹配）和排序
// @Tags 笔记
// @Security UserAuthToken
// @Produce json
// @Param params query dto.NoteListRequest true "查询参数"
// @Success 200 {array} dto.NoteDTO "成功"
// @Router /api/notes [get]
func (h *NoteHandler) List(c *gin.Context) {
	response := pkgapp.NewResponse(c)
	params := &dto.NoteListRequest{}

	valid, errs := pkgapp.BindAndValid(c, params)
	if !valid {
		h.App.Logger().Warn("NoteHandler.List.BindAndValid err", zap.Error(errs))
		response.ToResponse(code.ErrorInvalidParams.WithDetails(errs.ErrorsToString()).WithData(errs.MapsToString()))
		return
	}

	uid := pkgapp.GetUID(c)
	if uid == 0 {
		response.ToResponse(code.ErrorInvalidUserAuthToken)
		return
	}

	ctx := c.Request.Context()

	notes, err := h.App.NoteService.List(ctx, uid, params)
	if err != nil {
		h.logError(ctx, "NoteHandler.List", err)
		apperrors.ErrorResponse(c, err)
		return
	}

	response.ToResponse(code.Success.WithData(notes))
}

// Create 创建笔记
// @Summary 创建笔记
// @Tags 笔记
// @Security UserAuthToken
// @Accept json
// @Produce json
// @Param params body dto.NoteCreateRequest true "笔记内容"
// @Success 201 {object} dto.NoteDTO "创建成功"
// @Failure 400 {object} pkgapp.Res "参数错误"
// @Router /api/notes [post]
func (h *NoteHandler) Create(c *gin.Context) {
	response := pkgapp.NewResponse(c)
	params := &dto.NoteCreateRequest{}

	valid, errs := pkgapp.BindAndValid(c, params)
	if !valid {
		h.App.Logger().Warn("NoteHandler.Create.BindAndValid err", zap.Error(errs))
		response.ToResponse(code.ErrorInvalidParams.WithDetails(errs.ErrorsToString()).WithData(errs.MapsToString()))
		return
	}

	uid := pkgapp.GetUID(c)
	if uid == 0 {
		response.ToResponse(code.ErrorInvalidUserAuthToken)
		return
	}

	ctx := c.Request.Context()

	note, err := h.App.NoteService.Create(ctx, uid, params)
	if err != nil {
		h.logError(ctx, "NoteHandler.Create", err)
		apperrors.ErrorResponse(c, err)
		return
	}

	response.ToResponse(code.Created.WithData(note))
}

// Get 获取单条笔记详情
// @Summary 获取笔记详情
// @Tags 笔记
// @Security UserAuthToken
// @Produce json
// @Param id path int true "笔记 ID"
// @Success 200 {object} dto.NoteDTO "成功"
// @Failure 404 {object} pkgapp.Res "笔记不存在"
// @Router /api/notes/{id} [get]
func (h *NoteHandler) Get(c *gin.Context) {
	uid, id, ok := h.noteTarget(c)
	if !ok {
		return
	}

	ctx := c.Request.Context()

	note, err := h.App.NoteService.Get(ctx, uid, id)
	if err != nil {
		h.logError(ctx, "NoteHandler.Get", err)
		apperrors.ErrorResponse(c, err)
		return
	}

	pkgapp.NewResponse(c).ToResponse(code.Success.WithData(note))
}

// Update 更新笔记
// @Summary 更新笔记
// @Description 只修改提交的字段，更新前的状态写入历史；携带 version 时不一致返回 409
// @Tags 笔记
// @Security UserAuthToken
// @Accept json
// @Produce json
// @Param id path int true "笔记 ID"
// @Param params body dto.NoteUpdateRequest true "更新内容"
// @Success 200 {object} dto.NoteDTO "成功"
// @Failure 404 {object} pkgapp.Res "笔记不存在"
// @Failure 409 {object} pkgapp.Res "版本冲突"
// @Router /api/notes/{id} [put]
func (h *NoteHandler) Update(c *gin.Context) {
	response := pkgapp.NewResponse(c)
	params := &dto.NoteUpdateRequest{}

	valid, errs := pkgapp.BindAndValid(c, params)
	if !valid {
		h.App.Logger().Warn("NoteHandler.Update.BindAndValid err", zap.Error(errs))
		response.ToResponse(code.ErrorInvalidParams.WithDetails(errs.ErrorsToString()).WithData(errs.MapsToString()))
		return
	}

	uid, id, ok := h.noteTarget(c)
	if !ok {
		return
	}

	ctx := c.Request.Context()

	note, err := h.App.NoteService.Update(ctx, uid, id, params)
	if err != nil {
		h.logError(ctx, "NoteHandler.Update", err)
		apperrors.ErrorResponse(c, err)
		return
	}

	response.ToResponse(code.Success.WithData(note))
}

// Delete 删除笔记
// @Summary 删除笔记
// @Tags 笔记
// @Security UserAuthToken
// @Param id path int true "笔记 ID"
// @Success 204 "删除成功"
// @Failure 404 {object} pkgapp.Res "笔记不存在"
// @Router /api/notes/{id} [delete]
func (h *NoteHandler) Delete(c *gin.Context) {
	uid, id, ok := h.noteTarget(c)
	if !ok {
		return
	}

	ctx := c.Request.Context()

	if err := h.App.NoteService.Delete(ctx, uid, id); err != nil {
		h.logError(ctx, "NoteHandler.Delete", err)
		apperrors.ErrorResponse(c, err)
		return
	}

	pkgapp.NewResponse(c).ToResponse(code.Deleted)
}

// History 获取笔记历史
// @Summary 获取笔记历史
// @Description 按时间倒序返回更新前的快照，最多 10 条
// @Tags 笔记
// @Security UserAuthToken
// @Produce json
// @Param id path int true "笔记 ID"
// @Success 200 {array} dto.NoteHistoryDTO "成功"
// @Router /api/notes/{id}/history [get]
func (h *NoteHandler) History(c *gin.Context) {
	uid, id, ok := h.noteTarget(c)
	if !ok {
		return
	}

	ctx := c.Request.Context()

	history, err := h.App.NoteService.History(ctx, uid, id)
	if err != nil {
		h.logError(ctx, "NoteHandler.History", err)
		apperrors.ErrorResponse(c, err)
		return
	}

	pkgapp.NewResponse(c).ToResponse(code.Success.WithData(history))
}

// HistoryDiff 历史快照与当前内容的差异
// @Summary 获取历史差异
// @Tags 笔记
// @Security UserAuthToken
// @Produce json
// @Param id path int true "笔记 ID"
// @Param index path int true "历史索引，0 为最新"
// @Success 200 {object} dto.NoteHistoryDiffDTO "成功"
// @Router /api/notes/{id}/history/{index}/diff [get]
func (h *NoteHandler) HistoryDiff(c *gin.Context) {
	uid, id, ok := h.noteTarget(c)
	if !ok {
		return
	}
	index, ok := parseIndex(c.Param("index"))
	if !ok {
		pkgapp.NewResponse(c).ToResponse(code.ErrorNoteHistoryNotFound)
		return
	}

	ctx := c.Request.Context()

	diff, err := h.App.NoteService.HistoryDiff(ctx, uid, id, index)
	if err != nil {
		h.logError(ctx, "NoteHandler.HistoryDiff", err)
		apperrors.ErrorResponse(c, err)
		return
	}

	pkgapp.NewResponse(c).ToResponse(code.Success.WithData(diff))
}

// RestoreHistory 恢复历史快照
// @Summary 恢复历史快照
// @Description 用快照的标题和内容更新笔记，当前状态写入历史
// @Tags 笔记
// @Security UserAuthToken
// @Produce json
// @Param id path int true "笔记 ID"
// @Param index path int true "历史索引，0 为最新"
// @Success 200 {object} dto.NoteDTO "成功"
// @Router /api/notes/{id}/history/{index}/restore [put]
func (h *NoteHandler) RestoreHistory(c *gin.Context) {
	uid, id, ok := h.noteTarget(c)
	if !ok {
		return
	}
	index, ok := parseIndex(c.Param("index"))
	if !ok {
		pkgapp.NewResponse(c).ToResponse(code.ErrorNoteHistoryNotFound)
		return
	}

	ctx := c.Request.Context()

	note, err := h.App.NoteService.RestoreHistory(ctx, uid, id, index)
	if err != nil {
		h.logError(ctx, "NoteHandler.RestoreHistory", err)
		apperrors.ErrorResponse(c, err)
		return
	}

	pkgapp.NewResponse(c).ToResponse(code.Success.WithData(note))
}
