package api_router

import (
	"net/http"

	"github.com/haierkeys/note-keeper-service/internal/app"
	pkgapp "github.com/haierkeys/note-keeper-service/pkg/app"
	"github.com/haierkeys/note-keeper-service/pkg/code"

	"github.com/gin-gonic/gin"
)

// HealthHandler 健康检查处理器
type HealthHandler struct {
	*Handler
}

// NewHealthHandler 创建健康检查处理器实例
func NewHealthHandler(a *app.App) *HealthHandler {
	return &HealthHandler{Handler: NewHandler(a)}
}

// HealthResponse 健康检查响应
type HealthResponse struct {
	Status string `json:"status"`
}

// Check liveness probe, no auth and no database round trip
// Check 存活检查，无需认证
// @Summary 健康检查
// @Tags 系统
// @Produce json
// @Success 200 {object} HealthResponse
// @Router /health [get]
func (h *HealthHandler) Check(c *gin.Context) {
	c.JSON(http.StatusOK, HealthResponse{Status: "ok"})
}

// Version 返回服务端版本信息
// @Summary 获取服务端版本信息
// @Tags 系统
// @Produce json
// @Success 200 {object} pkgapp.VersionInfo
// @Router /api/version [get]
func (h *HealthHandler) Version(c *gin.Context) {
	pkgapp.NewResponse(c).ToResponse(code.Success.WithData(h.App.Version()))
}
