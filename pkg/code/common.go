package code

import "net/http"

// 成功码
var (
	Success = NewSuss(1, http.StatusOK, lang{en: "Success", zh_cn: "成功"})
	Created = NewSuss(2, http.StatusCreated, lang{en: "Created", zh_cn: "创建成功"})
	Deleted = NewSuss(3, http.StatusNoContent, lang{en: "Deleted", zh_cn: "删除成功"})
)

// 通用错误码
var (
	ErrorServerInternal       = NewError(500, http.StatusInternalServerError, lang{en: "Internal Server Error", zh_cn: "服务器内部错误"})
	ErrorNotFoundAPI          = NewError(404, http.StatusNotFound, lang{en: "Not Found", zh_cn: "接口不存在"})
	ErrorInvalidParams        = NewError(400, http.StatusBadRequest, lang{en: "Invalid parameters", zh_cn: "参数错误"})
	ErrorTooManyRequests      = NewError(429, http.StatusTooManyRequests, lang{en: "Too many requests", zh_cn: "请求过多"})
	ErrorNotUserAuthToken     = NewError(401, http.StatusUnauthorized, lang{en: "No token provided", zh_cn: "未提供认证令牌"})
	ErrorInvalidUserAuthToken = NewError(402, http.StatusUnauthorized, lang{en: "Invalid or expired token", zh_cn: "令牌无效或已过期"})
	ErrorDBQuery              = NewError(503, http.StatusInternalServerError, lang{en: "Database error", zh_cn: "数据库错误"})
	ErrorWriteQueueBusy       = NewError(504, http.StatusServiceUnavailable, lang{en: "Server busy, please retry later", zh_cn: "服务繁忙，请稍后重试"})
)

// 用户错误码
var (
	ErrorUserRegisterIsDisable  = NewError(1001, http.StatusForbidden, lang{en: "Registration is disabled", zh_cn: "注册已关闭"})
	ErrorUserEmailAlreadyExists = NewError(1002, http.StatusConflict, lang{en: "Email already in use", zh_cn: "邮箱已被使用"})
	ErrorUserLoginFailed        = NewError(1003, http.StatusUnauthorized, lang{en: "Invalid credentials", zh_cn: "邮箱或密码错误"})
	ErrorUserRegister           = NewError(1004, http.StatusInternalServerError, lang{en: "Registration failed", zh_cn: "注册失败"})
	ErrorPasswordNotValid       = NewError(1005, http.StatusBadRequest, lang{en: "Password is not valid", zh_cn: "密码不合法"})
	ErrorTokenGenerate          = NewError(1006, http.StatusInternalServerError, lang{en: "Failed to generate token", zh_cn: "生成令牌失败"})
)

// 笔记错误码
var (
	ErrorNoteNotFound        = NewError(2001, http.StatusNotFound, lang{en: "Note not found", zh_cn: "笔记不存在"})
	ErrorNoteTitleRequired   = NewError(2002, http.StatusBadRequest, lang{en: "Title is required", zh_cn: "标题不能为空"})
	ErrorNoteVersionConflict = NewError(2003, http.StatusConflict, lang{en: "Note has been modified", zh_cn: "笔记已被修改"})
	ErrorNoteHistoryNotFound = NewError(2004, http.StatusNotFound, lang{en: "History entry not found", zh_cn: "历史记录不存在"})
)

// 标签错误码
var (
	ErrorTagNotFound = NewError(3001, http.StatusNotFound, lang{en: "Tag not found", zh_cn: "标签不存在"})
	ErrorTagExist    = NewError(3002, http.StatusConflict, lang{en: "Tag already exists", zh_cn: "标签已存在"})
)
