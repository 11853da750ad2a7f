package dao

import (
	"context"
	"strings"
	"time"

	"github.com/haierkeys/note-keeper-service/internal/domain"
	"github.com/haierkeys/note-keeper-service/internal/model"
	"github.com/haierkeys/note-keeper-service/pkg/timex"
	"github.com/haierkeys/note-keeper-service/pkg/util"

	"gorm.io/gorm"
)

// noteSortColumns 排序字段到列名的映射
var noteSortColumns = map[string]string{
	domain.NoteSortCreatedAt: "created_at",
	domain.NoteSortUpdatedAt: "updated_at",
	domain.NoteSortTitle:     "title",
}

// noteRepository 实现 domain.NoteRepository 接口
type noteRepository struct {
	dao *Dao
}

// NewNoteRepository 创建 NoteRepository 实例
func NewNoteRepository(dao *Dao) domain.NoteRepository {
	return &noteRepository{dao: dao}
}

func (r *noteRepository) toDomain(m *model.Note, tags []*domain.Tag) *domain.Note {
	if tags == nil {
		tags = []*domain.Tag{}
	}
	return &domain.Note{
		ID:        m.ID,
		UID:       m.UID,
		Title:     m.Title,
		Content:   m.Content,
		Tags:      tags,
		Version:   m.Version,
		CreatedAt: time.Time(m.CreatedAt),
		UpdatedAt: time.Time(m.UpdatedAt),
	}
}

// noteTagRow 笔记标签联表查询结果
type noteTagRow struct {
	NoteID    int64
	ID        int64
	UID       int64
	Name      string
	CreatedAt timex.Time
}

// loadTags 批量加载笔记的标签，按关联顺序排列
func (r *noteRepository) loadTags(db *gorm.DB, uid int64, noteIDs []int64) (map[int64][]*domain.Tag, error) {
	result := make(map[int64][]*domain.Tag, len(noteIDs))
	if len(noteIDs) == 0 {
		return result, nil
	}

	var rows []noteTagRow
	err := db.Table(model.TableNameNoteTag+" AS nt").
		Select("nt.note_id, t.id, t.uid, t.name, t.created_at").
		Joins("JOIN "+model.TableNameTag+" AS t ON t.id = nt.tag_id AND t.uid = nt.uid").
		Where("nt.uid = ? AND nt.note_id IN ?", uid, noteIDs).
		Order("nt.note_id, nt.position").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	for _, row := range rows {
		result[row.NoteID] = append(result[row.NoteID], &domain.Tag{
			ID:        row.ID,
			UID:       row.UID,
			Name:      row.Name,
			CreatedAt: time.Time(row.CreatedAt),
		})
	}
	return result, nil
}

func (r *noteRepository) get(db *gorm.DB, id, uid int64) (*domain.Note, error) {
	var m model.Note
	if err := db.Where("id = ? AND uid = ?", id, uid).First(&m).Error; err != nil {
		return nil, err
	}
	tags, err := r.loadTags(db, uid, []int64{id})
	if err != nil {
		return nil, err
	}
	return r.toDomain(&m, tags[id]), nil
}

// replaceTags 用 tagIDs 覆盖笔记的标签关联
func (r *noteRepository) replaceTags(tx *gorm.DB, noteID, uid int64, tagIDs []int64) error {
	if err := tx.Where("note_id = ? AND uid = ?", noteID, uid).Delete(&model.NoteTag{}).Error; err != nil {
		return err
	}
	if len(tagIDs) == 0 {
		return nil
	}
	rows := make([]*model.NoteTag, 0, len(tagIDs))
	for i, tagID := range tagIDs {
		rows = append(rows, &model.NoteTag{NoteID: noteID, TagID: tagID, UID: uid, Position: i})
	}
	return tx.Create(&rows).Error
}

// GetByID 根据ID获取笔记
func (r *noteRepository) GetByID(ctx context.Context, id, uid int64) (*domain.Note, error) {
	return r.get(r.dao.DB(ctx), id, uid)
}

// Create 创建笔记
func (r *noteRepository) Create(ctx context.Context, note *domain.Note, tagIDs []int64, uid int64) (*domain.Note, error) {
	var created *domain.Note
	err := r.dao.Transaction(ctx, func(tx *gorm.DB) error {
		now := timex.Now()
		m := &model.Note{
			UID:           uid,
			Title:         note.Title,
			Content:       note.Content,
			SearchTitle:   foldForSearch(note.Title),
			SearchContent: foldForSearch(note.Content),
			Version:       1,
			CreatedAt:     now,
			UpdatedAt:     now,
		}
		if err := tx.Create(m).Error; err != nil {
			return err
		}
		if err := r.replaceTags(tx, m.ID, uid, tagIDs); err != nil {
			return err
		}
		var err error
		created, err = r.get(tx, m.ID, uid)
		return err
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

// Update 写入更新前快照，裁剪历史，再应用字段变更
func (r *noteRepository) Update(ctx context.Context, id, uid int64, update domain.NoteUpdate, keepHistory int) (*domain.Note, error) {
	var updated *domain.Note
	err := r.dao.Transaction(ctx, func(tx *gorm.DB) error {
		var current model.Note
		if err := tx.Where("id = ? AND uid = ?", id, uid).First(&current).Error; err != nil {
			return err
		}
		if update.Version != nil && *update.Version != current.Version {
			return domain.ErrVersionConflict
		}

		if err := prependSnapshot(tx, &current, keepHistory); err != nil {
			return err
		}

		now := timex.Now()

		fields := map[string]interface{}{
			"version":    current.Version + 1,
			"updated_at": now,
		}
		if update.Title != nil {
			fields["title"] = *update.Title
			fields["search_title"] = foldForSearch(*update.Title)
		}
		if update.Content != nil {
			fields["content"] = *update.Content
			fields["search_content"] = foldForSearch(*update.Content)
		}
		res := tx.Model(&model.Note{}).
			Where("id = ? AND uid = ? AND version = ?", current.ID, uid, current.Version).
			Updates(fields)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return domain.ErrVersionConflict
		}

		if update.TagIDs != nil {
			if err := r.replaceTags(tx, current.ID, uid, *update.TagIDs); err != nil {
				return err
			}
		}

		var err error
		updated, err = r.get(tx, current.ID, uid)
		return err
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// prependSnapshot 写入当前状态的快照，并删除新历史列表之外的旧记录
func prependSnapshot(tx *gorm.DB, current *model.Note, keep int) error {
	var existing []int64
	err := tx.Model(&model.NoteHistory{}).
		Where("note_id = ?", current.ID).
		Order("id DESC").
		Pluck("id", &existing).Error
	if err != nil {
		return err
	}

	snapshot := &model.NoteHistory{
		NoteID:  current.ID,
		UID:     current.UID,
		Title:   current.Title,
		Content: current.Content,
		SavedAt: timex.Now(),
	}
	if err := tx.Create(snapshot).Error; err != nil {
		return err
	}

	history := make([]*domain.NoteHistory, 0, len(existing))
	for _, id := range existing {
		history = append(history, &domain.NoteHistory{ID: id})
	}
	kept := domain.PrependHistory(history, &domain.NoteHistory{ID: snapshot.ID}, keep)

	keptIDs := make(map[int64]struct{}, len(kept))
	for _, h := range kept {
		keptIDs[h.ID] = struct{}{}
	}
	var stale []int64
	for _, id := range existing {
		if _, ok := keptIDs[id]; !ok {
			stale = append(stale, id)
		}
	}
	if len(stale) == 0 {
		return nil
	}
	return tx.Where("id IN ?", stale).Delete(&model.NoteHistory{}).Error
}

// trimNoteHistory 只保留最新的 keep 条历史
func trimNoteHistory(tx *gorm.DB, noteID int64, keep int) (int64, error) {
	var ids []int64
	err := tx.Model(&model.NoteHistory{}).
		Where("note_id = ?", noteID).
		Order("id DESC").
		Pluck("id", &ids).Error
	if err != nil || len(ids) <= keep {
		return 0, err
	}
	res := tx.Where("id IN ?", ids[keep:]).Delete(&model.NoteHistory{})
	return res.RowsAffected, res.Error
}

// Delete 删除笔记及其标签关联和历史
func (r *noteRepository) Delete(ctx context.Context, id, uid int64) error {
	return r.dao.Transaction(ctx, func(tx *gorm.DB) error {
		res := tx.Where("id = ? AND uid = ?", id, uid).Delete(&model.Note{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		if err := tx.Where("note_id = ? AND uid = ?", id, uid).Delete(&model.NoteTag{}).Error; err != nil {
			return err
		}
		return tx.Where("note_id = ? AND uid = ?", id, uid).Delete(&model.NoteHistory{}).Error
	})
}

// foldForSearch lowercases with full Unicode rules, stored next to title and content
// foldForSearch 按 Unicode 规则转小写，与标题、内容一同存储
func foldForSearch(s string) string {
	return strings.ToLower(s)
}

// fillSearchColumns writes the folded copies for notes stored before the columns existed
// fillSearchColumns 为搜索列出现之前写入的笔记补写小写副本
func fillSearchColumns(db *gorm.DB) error {
	var batch []*model.Note
	return db.Model(&model.Note{}).
		Where("search_title = '' AND title <> ''").
		FindInBatches(&batch, 200, func(tx *gorm.DB, _ int) error {
			for _, m := range batch {
				err := tx.Model(&model.Note{}).Where("id = ?", m.ID).UpdateColumns(map[string]interface{}{
					"search_title":   foldForSearch(m.Title),
					"search_content": foldForSearch(m.Content),
				}).Error
				if err != nil {
					return err
				}
			}
			return nil
		}).Error
}

// List 按搜索、标签、排序条件列出笔记
func (r *noteRepository) List(ctx context.Context, uid int64, query domain.NoteListQuery) ([]*domain.Note, error) {
	db := r.dao.DB(ctx)
	q := db.Model(&model.Note{}).Where("uid = ?", uid)

	if search := strings.TrimSpace(query.Search); search != "" {
		// SQL LOWER 在 SQLite 下只处理 ASCII，这里比较写入时在 Go 中折叠好的列
		pattern := "%" + util.EscapeLike(foldForSearch(search)) + "%"
		q = q.Where("(search_title LIKE ? ESCAPE '"+util.LikeEscapeChar+"' OR search_content LIKE ? ESCAPE '"+util.LikeEscapeChar+"')", pattern, pattern)
	}

	if len(query.TagIDs) > 0 {
		q = q.Where("EXISTS (SELECT 1 FROM "+model.TableNameNoteTag+" nt WHERE nt.note_id = "+model.TableNameNote+".id AND nt.uid = ? AND nt.tag_id IN ?)", uid, query.TagIDs)
	}

	direction := " DESC"
	if query.Asc {
		direction = " ASC"
	}
	q = q.Order(noteSortColumns[query.NormalizedSort()] + direction).Order("id" + direction)

	var models []*model.Note
	if err := q.Find(&models).Error; err != nil {
		return nil, err
	}

	ids := make([]int64, 0, len(models))
	for _, m := range models {
		ids = append(ids, m.ID)
	}
	tags, err := r.loadTags(db, uid, ids)
	if err != nil {
		return nil, err
	}

	notes := make([]*domain.Note, 0, len(models))
	for _, m := range models {
		notes = append(notes, r.toDomain(m, tags[m.ID]))
	}
	return notes, nil
}

// 确保 noteRepository 实现了 domain.NoteRepository 接口
var _ domain.NoteRepository = (*noteRepository)(nil)
