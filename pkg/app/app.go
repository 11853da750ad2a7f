package app

import (
	"net/http"

	"github.com/haierkeys/note-keeper-service/pkg/code"

	"github.com/gin-gonic/gin"
)

const (
	// TraceIDKey key of the trace id in gin.Context and request context
	// TraceIDKey gin.Context 与 request context 中存储 Trace ID 的键
	TraceIDKey = "trace_id"
	// LangKey key of the request language in gin.Context
	// LangKey gin.Context 中存储请求语言的键
	LangKey = "lang"
)

// VersionInfo version information // 版本信息
type VersionInfo struct {
	Version   string `json:"version"`
	GitTag    string `json:"gitTag"`
	BuildTime string `json:"buildTime"`
}

type Response struct {
	Ctx *gin.Context
}

// Res is the error body: Code/Message/Details/TraceID
// Res 错误响应体：Code/Message/Details/TraceID
type Res struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Details []string    `json:"details,omitempty"`
	Data    interface{} `json:"data,omitempty"`
	TraceID string      `json:"traceId,omitempty"`
}

func NewResponse(ctx *gin.Context) *Response {
	return &Response{
		Ctx: ctx,
	}
}

// GetTraceID gets the request trace id
// GetTraceID 获取请求 Trace ID
func GetTraceID(c *gin.Context) string {
	if c == nil {
		return ""
	}
	return c.GetString(TraceIDKey)
}

// GetLang gets the request language
// GetLang 获取请求语言
func GetLang(c *gin.Context) string {
	if c == nil {
		return code.GetGlobalDefaultLang()
	}
	if l := c.GetString(LangKey); l != "" {
		return l
	}
	return code.GetGlobalDefaultLang()
}

// ToResponse writes the code to the client
// Success codes write their data as the bare body, error codes write Res
// ToResponse 输出到客户端
// 成功码直接输出数据作为响应体，错误码输出 Res
func (r *Response) ToResponse(codeObj *code.Code) {
	status := codeObj.StatusCode()
	r.Ctx.Set("status_code", status)

	if codeObj.Status() {
		if status == http.StatusNoContent {
			r.Ctx.Status(status)
			return
		}
		if codeObj.HaveData() {
			r.send(status, codeObj.Data())
			return
		}
		r.send(status, gin.H{"message": codeObj.Lang.GetMessageIn(GetLang(r.Ctx))})
		return
	}

	content := Res{
		Code:    codeObj.Code(),
		Message: codeObj.Lang.GetMessageIn(GetLang(r.Ctx)),
		TraceID: GetTraceID(r.Ctx),
	}
	if codeObj.HaveDetails() {
		content.Details = codeObj.Details()
	}
	if codeObj.HaveData() {
		content.Data = codeObj.Data()
	}
	r.send(status, content)
}

func (r *Response) send(statusCode int, content interface{}) {
	r.Ctx.JSON(statusCode, content)
}

// GetRequestIP gets the request IP
// GetRequestIP 获取ip
func GetRequestIP(c *gin.Context) string {
	reqIP := c.ClientIP()
	if reqIP == "::1" {
		reqIP = "127.0.0.1"
	}
	return reqIP
}
