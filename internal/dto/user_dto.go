// Package dto Defines data transfer objects (request parameters and response structs)
// Package dto 定义数据传输对象（请求参数和响应结构体）
package dto

// UserRegisterRequest User registration request parameters
// 用户注册请求参数
type UserRegisterRequest struct {
	Email    string `json:"email" form:"email" binding:"required,email,max=255"`      // User email // 用户邮件
	Password string `json:"password" form:"password" binding:"required,min=6,max=72"` // User password // 用户密码
	Name     string `json:"name" form:"name" binding:"required,notblank,max=255"`     // Display name // 显示名称
}

// UserLoginRequest User login request parameters
// 用户登录请求参数
type UserLoginRequest struct {
	Email    string `json:"email" form:"email" binding:"required"`       // Email // 邮件
	Password string `json:"password" form:"password" binding:"required"` // Password // 密码
}

// ---------------- DTO / Response ----------------

// UserDTO User data transfer object
// UserDTO 用户数据传输对象
type UserDTO struct {
	ID    int64  `json:"id"`    // User ID // 用户 ID
	Email string `json:"email"` // Email address // 邮件地址
	Name  string `json:"name"`  // Display name // 显示名称
}

// AuthDTO token and the authenticated user
// AuthDTO 令牌及对应用户
type AuthDTO struct {
	Token string   `json:"token"`
	User  *UserDTO `json:"user"`
}
