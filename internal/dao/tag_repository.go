package dao

import (
	"context"
	"time"

	"github.com/haierkeys/note-keeper-service/internal/domain"
	"github.com/haierkeys/note-keeper-service/internal/model"
	"github.com/haierkeys/note-keeper-service/pkg/timex"

	"gorm.io/gorm"
)

// tagRepository 实现 domain.TagRepository 接口
type tagRepository struct {
	dao *Dao
}

// NewTagRepository 创建 TagRepository 实例
func NewTagRepository(dao *Dao) domain.TagRepository {
	return &tagRepository{dao: dao}
}

func (r *tagRepository) toDomain(m *model.Tag) *domain.Tag {
	return &domain.Tag{
		ID:        m.ID,
		UID:       m.UID,
		Name:      m.Name,
		CreatedAt: time.Time(m.CreatedAt),
	}
}

// GetByID 根据ID获取标签
func (r *tagRepository) GetByID(ctx context.Context, id, uid int64) (*domain.Tag, error) {
	var m model.Tag
	if err := r.dao.DB(ctx).Where("id = ? AND uid = ?", id, uid).First(&m).Error; err != nil {
		return nil, err
	}
	return r.toDomain(&m), nil
}

// GetByName 根据名称获取标签
func (r *tagRepository) GetByName(ctx context.Context, name string, uid int64) (*domain.Tag, error) {
	var m model.Tag
	if err := r.dao.DB(ctx).Where("uid = ? AND name = ?", uid, name).First(&m).Error; err != nil {
		return nil, err
	}
	return r.toDomain(&m), nil
}

// Create 创建标签，名称重复时返回 domain.ErrDuplicated
func (r *tagRepository) Create(ctx context.Context, tag *domain.Tag) (*domain.Tag, error) {
	m := &model.Tag{
		UID:       tag.UID,
		Name:      tag.Name,
		CreatedAt: timex.Now(),
	}
	if err := r.dao.DB(ctx).Create(m).Error; err != nil {
		return nil, translateError(err)
	}
	return r.toDomain(m), nil
}

// List 按名称升序列出标签
func (r *tagRepository) List(ctx context.Context, uid int64) ([]*domain.Tag, error) {
	var models []*model.Tag
	if err := r.dao.DB(ctx).Where("uid = ?", uid).Order("name ASC").Find(&models).Error; err != nil {
		return nil, err
	}
	tags := make([]*domain.Tag, 0, len(models))
	for _, m := range models {
		tags = append(tags, r.toDomain(m))
	}
	return tags, nil
}

// FilterOwned 过滤出属于该用户的标签 ID
func (r *tagRepository) FilterOwned(ctx context.Context, ids []int64, uid int64) ([]int64, error) {
	if len(ids) == 0 {
		return []int64{}, nil
	}
	var owned []int64
	err := r.dao.DB(ctx).Model(&model.Tag{}).
		Where("uid = ? AND id IN ?", uid, ids).
		Pluck("id", &owned).Error
	if err != nil {
		return nil, err
	}

	set := make(map[int64]struct{}, len(owned))
	for _, id := range owned {
		set[id] = struct{}{}
	}
	result := make([]int64, 0, len(owned))
	for _, id := range ids {
		if _, ok := set[id]; ok {
			result = append(result, id)
		}
	}
	return result, nil
}

// Delete 删除标签，并在同一事务内解除该用户笔记的关联
func (r *tagRepository) Delete(ctx context.Context, id, uid int64) error {
	return r.dao.Transaction(ctx, func(tx *gorm.DB) error {
		res := tx.Where("id = ? AND uid = ?", id, uid).Delete(&model.Tag{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return tx.Where("tag_id = ? AND uid = ?", id, uid).Delete(&model.NoteTag{}).Error
	})
}

// 确保 tagRepository 实现了 domain.TagRepository 接口
var _ domain.TagRepository = (*tagRepository)(nil)
