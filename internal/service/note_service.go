package service

import (
	"context"
	"errors"
	"strings"

	"github.com/haierkeys/note-keeper-service/internal/domain"
	"github.com/haierkeys/note-keeper-service/internal/dto"
	"github.com/haierkeys/note-keeper-service/pkg/code"
	"github.com/haierkeys/note-keeper-service/pkg/logger"
	"github.com/haierkeys/note-keeper-service/pkg/timex"
	"github.com/haierkeys/note-keeper-service/pkg/util"

	"github.com/sergi/go-diff/diffmatchpatch"
	"go.uber.org/zap"
)

// NoteService defines the note business service interface
// NoteService 定义笔记业务服务接口
type NoteService interface {
	// Create 创建笔记，不属于当前用户的标签 ID 被忽略
	Create(ctx context.Context, uid int64, params *dto.NoteCreateRequest) (*dto.NoteDTO, error)

	// Get 获取笔记
	Get(ctx context.Context, uid int64, id int64) (*dto.NoteDTO, error)

	// Update 更新笔记，更新前的状态写入历史
	Update(ctx context.Context, uid int64, id int64, params *dto.NoteUpdateRequest) (*dto.NoteDTO, error)

	// Delete 删除笔记及其历史
	Delete(ctx context.Context, uid int64, id int64) error

	// List 按搜索、标签、排序条件列出笔记
	List(ctx context.Context, uid int64, params *dto.NoteListRequest) ([]*dto.NoteDTO, error)

	// History 按时间倒序返回历史快照
	History(ctx context.Context, uid int64, id int64) ([]*dto.NoteHistoryDTO, error)

	// HistoryDiff 返回第 index 条快照到当前内容的差异
	HistoryDiff(ctx context.Context, uid int64, id int64, index int) (*dto.NoteHistoryDiffDTO, error)

	// RestoreHistory 用第 index 条快照的标题和内容更新笔记
	RestoreHistory(ctx context.Context, uid int64, id int64, index int) (*dto.NoteDTO, error)
}

// noteService implementation of NoteService interface
// noteService 实现 NoteService 接口
type noteService struct {
	noteRepo    domain.NoteRepository        // Note repository // 笔记仓库
	tagRepo     domain.TagRepository         // Tag repository // 标签仓库
	historyRepo domain.NoteHistoryRepository // History repository // 历史记录仓库
	writer      WriteExecutor                // Per-owner write queue // 按用户串行的写队列
	logger      *zap.Logger
	config      *AppServiceConfig
}

// NewNoteService creates NoteService instance
// NewNoteService 创建 NoteService 实例
func NewNoteService(noteRepo domain.NoteRepository, tagRepo domain.TagRepository, historyRepo domain.NoteHistoryRepository, writer WriteExecutor, lg *zap.Logger, config *AppServiceConfig) NoteService {
	if lg == nil {
		lg = zap.NewNop()
	}
	if config == nil {
		config = &AppServiceConfig{HistoryKeepVersions: domain.MaxNoteHistory}
	}
	return &noteService{
		noteRepo:    noteRepo,
		tagRepo:     tagRepo,
		historyRepo: historyRepo,
		writer:      writer,
		logger:      lg,
		config:      config,
	}
}

// NoteToDTO converts a domain note into its response shape
// NoteToDTO 将领域笔记转换为响应结构
func NoteToDTO(n *domain.Note) *dto.NoteDTO {
	tags := make([]*dto.TagDTO, 0, len(n.Tags))
	for _, t := range n.Tags {
		tags = append(tags, &dto.TagDTO{ID: t.ID, Name: t.Name})
	}
	return &dto.NoteDTO{
		ID:        n.ID,
		Title:     n.Title,
		Content:   n.Content,
		Tags:      tags,
		Owner:     n.UID,
		Version:   n.Version,
		CreatedAt: timex.Time(n.CreatedAt),
		UpdatedAt: timex.Time(n.UpdatedAt),
	}
}

// ownedTags 过滤掉不属于该用户的标签 ID
func (s *noteService) ownedTags(ctx context.Context, uid int64, ids []int64) ([]int64, error) {
	ids = util.UniqueIDs(ids)
	if len(ids) == 0 {
		return []int64{}, nil
	}
	return s.tagRepo.FilterOwned(ctx, ids, uid)
}

// Create 创建笔记
func (s *noteService) Create(ctx context.Context, uid int64, params *dto.NoteCreateRequest) (*dto.NoteDTO, error) {
	title := strings.TrimSpace(params.Title)
	if title == "" {
		return nil, code.ErrorNoteTitleRequired
	}

	tagIDs, err := s.ownedTags(ctx, uid, params.Tags)
	if err != nil {
		return nil, storeError(s.logger, "NoteService.Create", uid, err, nil)
	}

	var note *domain.Note
	err = executeWrite(ctx, s.writer, uid, func(ctx context.Context) error {
		var err error
		note, err = s.noteRepo.Create(ctx, &domain.Note{Title: title, Content: params.Content}, tagIDs, uid)
		return err
	})
	if err != nil {
		return nil, storeError(s.logger, "NoteService.Create", uid, err, nil)
	}

	s.logger.Debug("note created", zap.Int64(logger.FieldUID, uid), zap.Int64(logger.FieldNoteID, note.ID))
	return NoteToDTO(note), nil
}

// Get 获取笔记
func (s *noteService) Get(ctx context.Context, uid int64, id int64) (*dto.NoteDTO, error) {
	note, err := s.noteRepo.GetByID(ctx, id, uid)
	if err != nil {
		return nil, storeError(s.logger, "NoteService.Get", uid, err, code.ErrorNoteNotFound)
	}
	return NoteToDTO(note), nil
}

// Update 更新笔记
func (s *noteService) Update(ctx context.Context, uid int64, id int64, params *dto.NoteUpdateRequest) (*dto.NoteDTO, error) {
	update := domain.NoteUpdate{
		Content: params.Content,
		Version: params.Version,
	}

	if params.Title != nil {
		title := strings.TrimSpace(*params.Title)
		if title == "" {
			return nil, code.ErrorNoteTitleRequired
		}
		update.Title = &title
	}

	if params.Tags != nil {
		tagIDs, err := s.ownedTags(ctx, uid, *params.Tags)
		if err != nil {
			return nil, storeError(s.logger, "NoteService.Update", uid, err, nil)
		}
		update.TagIDs = &tagIDs
	}

	note, err := s.update(ctx, uid, id, update)
	if err != nil {
		return nil, err
	}
	return NoteToDTO(note), nil
}

func (s *noteService) update(ctx context.Context, uid int64, id int64, update domain.NoteUpdate) (*domain.Note, error) {
	var note *domain.Note
	err := executeWrite(ctx, s.writer, uid, func(ctx context.Context) error {
		var err error
		note, err = s.noteRepo.Update(ctx, id, uid, update, s.config.HistoryKeepVersions)
		return err
	})
	if errors.Is(err, domain.ErrVersionConflict) {
		return nil, code.ErrorNoteVersionConflict
	}
	if err != nil {
		return nil, storeError(s.logger, "NoteService.Update", uid, err, code.ErrorNoteNotFound)
	}
	return note, nil
}

// Delete 删除笔记
func (s *noteService) Delete(ctx context.Context, uid int64, id int64) error {
	err := executeWrite(ctx, s.writer, uid, func(ctx context.Context) error {
		return s.noteRepo.Delete(ctx, id, uid)
	})
	if err != nil {
		return storeError(s.logger, "NoteService.Delete", uid, err, code.ErrorNoteNotFound)
	}
	s.logger.Debug("note deleted", zap.Int64(logger.FieldUID, uid), zap.Int64(logger.FieldNoteID, id))
	return nil
}

// List 列出笔记
func (s *noteService) List(ctx context.Context, uid int64, params *dto.NoteListRequest) ([]*dto.NoteDTO, error) {
	query := domain.NoteListQuery{
		Search: params.Search,
		TagIDs: util.ParseIDList(params.Tags),
		SortBy: params.Sort,
		Asc:    strings.EqualFold(params.Order, "asc"),
	}
	// A tag filter without a single valid id matches no note
	// 标签过滤条件中没有合法 ID 时不匹配任何笔记
	if strings.TrimSpace(params.Tags) != "" && len(query.TagIDs) == 0 {
		return []*dto.NoteDTO{}, nil
	}

	notes, err := s.noteRepo.List(ctx, uid, query)
	if err != nil {
		return nil, storeError(s.logger, "NoteService.List", uid, err, nil)
	}

	list := make([]*dto.NoteDTO, 0, len(notes))
	for _, n := range notes {
		list = append(list, NoteToDTO(n))
	}
	return list, nil
}

// historyOf 返回笔记及其历史，笔记不存在时返回 ErrorNoteNotFound
func (s *noteService) historyOf(ctx context.Context, uid int64, id int64) (*domain.Note, []*domain.NoteHistory, error) {
	note, err := s.noteRepo.GetByID(ctx, id, uid)
	if err != nil {
		return nil, nil, storeError(s.logger, "NoteService.History", uid, err, code.ErrorNoteNotFound)
	}
	history, err := s.historyRepo.ListByNoteID(ctx, id, uid)
	if err != nil {
		return nil, nil, storeError(s.logger, "NoteService.History", uid, err, nil)
	}
	return note, history, nil
}

// History 返回历史快照
func (s *noteService) History(ctx context.Context, uid int64, id int64) ([]*dto.NoteHistoryDTO, error) {
	_, history, err := s.historyOf(ctx, uid, id)
	if err != nil {
		return nil, err
	}
	list := make([]*dto.NoteHistoryDTO, 0, len(history))
	for _, h := range history {
		list = append(list, &dto.NoteHistoryDTO{
			Title:   h.Title,
			Content: h.Content,
			SavedAt: timex.Time(h.SavedAt),
		})
	}
	return list, nil
}

func (s *noteService) snapshotAt(ctx context.Context, uid int64, id int64, index int) (*domain.Note, *domain.NoteHistory, error) {
	note, history, err := s.historyOf(ctx, uid, id)
	if err != nil {
		return nil, nil, err
	}
	if index < 0 || index >= len(history) {
		return nil, nil, code.ErrorNoteHistoryNotFound
	}
	return note, history[index], nil
}

// HistoryDiff 计算快照到当前内容的差异
func (s *noteService) HistoryDiff(ctx context.Context, uid int64, id int64, index int) (*dto.NoteHistoryDiffDTO, error) {
	note, snapshot, err := s.snapshotAt(ctx, uid, id, index)
	if err != nil {
		return nil, err
	}

	dmp := diffmatchpatch.New()
	titleDiffs := dmp.DiffCleanupSemantic(dmp.DiffMain(snapshot.Title, note.Title, false))
	contentDiffs := dmp.DiffCleanupSemantic(dmp.DiffMain(snapshot.Content, note.Content, false))

	return &dto.NoteHistoryDiffDTO{
		Index:        index,
		SavedAt:      timex.Time(snapshot.SavedAt),
		TitleDiffs:   titleDiffs,
		ContentDiffs: contentDiffs,
	}, nil
}

// RestoreHistory 恢复历史快照，恢复本身也会产生一条历史
func (s *noteService) RestoreHistory(ctx context.Context, uid int64, id int64, index int) (*dto.NoteDTO, error) {
	_, snapshot, err := s.snapshotAt(ctx, uid, id, index)
	if err != nil {
		return nil, err
	}

	title, content := snapshot.Title, snapshot.Content
	note, err := s.update(ctx, uid, id, domain.NoteUpdate{Title: &title, Content: &content})
	if err != nil {
		return nil, err
	}

	s.logger.Info("note restored from history",
		zap.Int64(logger.FieldUID, uid),
		zap.Int64(logger.FieldNoteID, id),
		zap.Int("index", index))
	return NoteToDTO(note), nil
}
