package service

import (
	"context"
	"errors"

	"github.com/haierkeys/note-keeper-service/internal/domain"
	"github.com/haierkeys/note-keeper-service/internal/dto"
	"github.com/haierkeys/note-keeper-service/pkg/code"
	"github.com/haierkeys/note-keeper-service/pkg/logger"
	"github.com/haierkeys/note-keeper-service/pkg/util"

	"github.com/jinzhu/copier"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// TagService 定义标签业务服务接口
type TagService interface {
	// List 按名称升序列出标签
	List(ctx context.Context, uid int64) ([]*dto.TagDTO, error)

	// Create 创建标签，名称转为小写
	Create(ctx context.Context, uid int64, params *dto.TagCreateRequest) (*dto.TagDTO, error)

	// Delete 删除标签，并从该用户所有笔记上移除
	Delete(ctx context.Context, uid int64, id int64) error
}

type tagService struct {
	tagRepo domain.TagRepository
	writer  WriteExecutor
	logger  *zap.Logger
}

// NewTagService 创建 TagService 实例
func NewTagService(tagRepo domain.TagRepository, writer WriteExecutor, lg *zap.Logger) TagService {
	if lg == nil {
		lg = zap.NewNop()
	}
	return &tagService{tagRepo: tagRepo, writer: writer, logger: lg}
}

// List 列出标签
func (s *tagService) List(ctx context.Context, uid int64) ([]*dto.TagDTO, error) {
	tags, err := s.tagRepo.List(ctx, uid)
	if err != nil {
		return nil, storeError(s.logger, "TagService.List", uid, err, nil)
	}

	list := make([]*dto.TagDTO, 0, len(tags))
	if err := copier.Copy(&list, &tags); err != nil {
		return nil, code.ErrorServerInternal.WithDetails(err.Error())
	}
	return list, nil
}

// Create 创建标签
func (s *tagService) Create(ctx context.Context, uid int64, params *dto.TagCreateRequest) (*dto.TagDTO, error) {
	name := util.NormalizeTagName(params.Name)
	if name == "" {
		return nil, code.ErrorInvalidParams.WithDetails("name is required")
	}

	existing, err := s.tagRepo.GetByName(ctx, name, uid)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, storeError(s.logger, "TagService.Create", uid, err, nil)
	}
	if existing != nil {
		return nil, code.ErrorTagExist
	}

	var tag *domain.Tag
	err = executeWrite(ctx, s.writer, uid, func(ctx context.Context) error {
		var err error
		tag, err = s.tagRepo.Create(ctx, &domain.Tag{UID: uid, Name: name})
		return err
	})
	if errors.Is(err, domain.ErrDuplicated) {
		return nil, code.ErrorTagExist
	}
	if err != nil {
		return nil, storeError(s.logger, "TagService.Create", uid, err, nil)
	}

	result := &dto.TagDTO{}
	if err := copier.Copy(result, tag); err != nil {
		return nil, code.ErrorServerInternal.WithDetails(err.Error())
	}
	return result, nil
}

// Delete 删除标签
func (s *tagService) Delete(ctx context.Context, uid int64, id int64) error {
	err := executeWrite(ctx, s.writer, uid, func(ctx context.Context) error {
		return s.tagRepo.Delete(ctx, id, uid)
	})
	if err != nil {
		return storeError(s.logger, "TagService.Delete", uid, err, code.ErrorTagNotFound)
	}
	s.logger.Debug("tag deleted", zap.Int64(logger.FieldUID, uid), zap.Int64(logger.FieldTagID, id))
	return nil
}
