package dto

// TagDTO Tag data transfer object
// TagDTO 标签数据传输对象
type TagDTO struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// TagCreateRequest Request parameters for creating a tag
// 创建标签请求参数
type TagCreateRequest struct {
	Name string `json:"name" form:"name" binding:"required,notblank,max=50"`
}
