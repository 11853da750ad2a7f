package dao

import (
	"context"
	"time"

	"github.com/haierkeys/note-keeper-service/internal/domain"
	"github.com/haierkeys/note-keeper-service/internal/model"
	"github.com/haierkeys/note-keeper-service/pkg/util"

	"gorm.io/gorm"
)

// noteHistoryRepository 实现 domain.NoteHistoryRepository 接口
type noteHistoryRepository struct {
	dao *Dao
}

// NewNoteHistoryRepository 创建 NoteHistoryRepository 实例
func NewNoteHistoryRepository(dao *Dao) domain.NoteHistoryRepository {
	return &noteHistoryRepository{dao: dao}
}

func (r *noteHistoryRepository) toDomain(m *model.NoteHistory) *domain.NoteHistory {
	return &domain.NoteHistory{
		ID:      m.ID,
		NoteID:  m.NoteID,
		UID:     m.UID,
		Title:   m.Title,
		Content: m.Content,
		SavedAt: time.Time(m.SavedAt),
	}
}

// ListByNoteID 按时间倒序列出历史
func (r *noteHistoryRepository) ListByNoteID(ctx context.Context, noteID, uid int64) ([]*domain.NoteHistory, error) {
	var models []*model.NoteHistory
	err := r.dao.DB(ctx).
		Where("note_id = ? AND uid = ?", noteID, uid).
		Order("id DESC").
		Find(&models).Error
	if err != nil {
		return nil, err
	}
	list := make([]*domain.NoteHistory, 0, len(models))
	for _, m := range models {
		list = append(list, r.toDomain(m))
	}
	return list, nil
}

// OwnersOverLimit 返回至少有一篇笔记历史超过 keep 条的用户
func (r *noteHistoryRepository) OwnersOverLimit(ctx context.Context, keep int) ([]int64, error) {
	keep = domain.HistoryLimit(keep)

	var uids []int64
	err := r.dao.DB(ctx).Model(&model.NoteHistory{}).
		Group("uid, note_id").
		Having("COUNT(*) > ?", keep).
		Pluck("uid", &uids).Error
	if err != nil {
		return nil, err
	}
	return util.UniqueIDs(uids), nil
}

// TrimOwner 清理该用户每篇笔记超出保留条数的历史，调用方需在该用户的写队列中执行
func (r *noteHistoryRepository) TrimOwner(ctx context.Context, uid int64, keep int) (int64, error) {
	keep = domain.HistoryLimit(keep)

	var noteIDs []int64
	err := r.dao.DB(ctx).Model(&model.NoteHistory{}).
		Where("uid = ?", uid).
		Group("note_id").
		Having("COUNT(*) > ?", keep).
		Pluck("note_id", &noteIDs).Error
	if err != nil {
		return 0, err
	}

	var total int64
	for _, noteID := range noteIDs {
		err := r.dao.Transaction(ctx, func(tx *gorm.DB) error {
			n, err := trimNoteHistory(tx, noteID, keep)
			total += n
			return err
		})
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

// 确保 noteHistoryRepository 实现了 domain.NoteHistoryRepository 接口
var _ domain.NoteHistoryRepository = (*noteHistoryRepository)(nil)
