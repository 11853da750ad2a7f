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

// TagHandler 标签 API 路由处理器
type TagHandler struct {
	*Handler
}

// NewTagHandler 创建 TagHandler 实例
func NewTagHandler(a *app.App) *TagHandler {
	return &TagHandler{Handler: NewHandler(a)}
}

// List 获取标签列表
// @Summary 获取标签列表
// @Tags 标签
// @Security UserAuthToken
// @Produce json
// @Success 200 {array} dto.TagDTO "成功"
// @Router /api/tags [get]
func (h *TagHandler) List(c *gin.Context) {
	response := pkgapp.NewResponse(c)

	uid := pkgapp.GetUID(c)
	if uid == 0 {
		response.ToResponse(code.ErrorInvalidUserAuthToken)
		return
	}

	ctx := c.Request.Context()

	tags, err := h.App.TagService.List(ctx, uid)
	if err != nil {
		h.logError(ctx, "TagHandler.List", err)
		apperrors.ErrorResponse(c, err)
		return
	}

	response.ToResponse(code.Success.WithData(tags))
}

// Create 创建标签
// @Summary 创建标签
// @Tags 标签
// @Security UserAuthToken
// @Accept json
// @Produce json
// @Param params body dto.TagCreateRequest true "标签名称"
// @Success 201 {object} dto.TagDTO "创建成功"
// @Failure 409 {object} pkgapp.Res "标签已存在"
// @Router /api/tags [post]
func (h *TagHandler) Create(c *gin.Context) {
	response := pkgapp.NewResponse(c)
	params := &dto.TagCreateRequest{}

	valid, errs := pkgapp.BindAndValid(c, params)
	if !valid {
		h.App.Logger().Warn("TagHandler.Create.BindAndValid err", zap.Error(errs))
		response.ToResponse(code.ErrorInvalidParams.WithDetails(errs.ErrorsToString()).WithData(errs.MapsToString()))
		return
	}

	uid := pkgapp.GetUID(c)
	if uid == 0 {
		response.ToResponse(code.ErrorInvalidUserAuthToken)
		return
	}

	ctx := c.Request.Context()

	tag, err := h.App.TagService.Create(ctx, uid, params)
	if err != nil {
		h.logError(ctx, "TagHandler.Create", err)
		apperrors.ErrorResponse(c, err)
		return
	}

	response.ToResponse(code.Created.WithData(tag))
}

// Delete 删除标签，并从该用户所有笔记上移除
// @Summary 删除标签
// @Tags 标签
// @Security UserAuthToken
// @Param id path int true "标签 ID"
// @Success 204 "删除成功"
// @Failure 404 {object} pkgapp.Res "标签不存在"
// @Router /api/tags/{id} [delete]
func (h *TagHandler) Delete(c *gin.Context) {
	response := pkgapp.NewResponse(c)

	uid := pkgapp.GetUID(c)
	if uid == 0 {
		response.ToResponse(code.ErrorInvalidUserAuthToken)
		return
	}

	id, ok := parseID(c.Param("id"))
	if !ok {
		response.ToResponse(code.ErrorTagNotFound)
		return
	}

	ctx := c.Request.Context()

	if err := h.App.TagService.Delete(ctx, uid, id); err != nil {
		h.logError(ctx, "TagHandler.Delete", err)
		apperrors.ErrorResponse(c, err)
		return
	}

	response.ToResponse(code.Deleted)
}
