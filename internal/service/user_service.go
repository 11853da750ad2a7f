package service

import (
	"context"
	"errors"

	"github.com/haierkeys/note-keeper-service/internal/domain"
	"github.com/haierkeys/note-keeper-service/internal/dto"
	"github.com/haierkeys/note-keeper-service/pkg/app"
	"github.com/haierkeys/note-keeper-service/pkg/code"
	"github.com/haierkeys/note-keeper-service/pkg/logger"
	"github.com/haierkeys/note-keeper-service/pkg/util"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// UserService 定义用户业务服务接口
type UserService interface {
	// Register 用户注册，成功后直接返回登录令牌
	Register(ctx context.Context, params *dto.UserRegisterRequest) (*dto.AuthDTO, error)

	// Login 用户登录
	Login(ctx context.Context, params *dto.UserLoginRequest, clientIP string) (*dto.AuthDTO, error)

	// GetInfo 获取用户信息
	GetInfo(ctx context.Context, uid int64) (*dto.UserDTO, error)
}

// userService 实现 UserService 接口
type userService struct {
	userRepo     domain.UserRepository
	tokenManager app.TokenManager
	logger       *zap.Logger
	config       *ServiceConfig
}

// NewUserService 创建 UserService 实例
func NewUserService(userRepo domain.UserRepository, tokenManager app.TokenManager, lg *zap.Logger, config *ServiceConfig) UserService {
	if lg == nil {
		lg = zap.NewNop()
	}
	return &userService{
		userRepo:     userRepo,
		tokenManager: tokenManager,
		logger:       lg,
		config:       config,
	}
}

func (s *userService) domainToDTO(user *domain.User) *dto.UserDTO {
	return &dto.UserDTO{
		ID:    user.UID,
		Email: user.Email,
		Name:  user.Name,
	}
}

func (s *userService) authResult(user *domain.User) (*dto.AuthDTO, error) {
	token, err := s.tokenManager.Generate(user.UID, user.Email)
	if err != nil {
		s.logger.Error("generate token failed", zap.Int64(logger.FieldUID, user.UID), zap.Error(err))
		return nil, code.ErrorTokenGenerate
	}
	return &dto.AuthDTO{Token: token, User: s.domainToDTO(user)}, nil
}

// Register 用户注册
func (s *userService) Register(ctx context.Context, params *dto.UserRegisterRequest) (*dto.AuthDTO, error) {
	if s.config == nil || !s.config.User.RegisterIsEnable {
		return nil, code.ErrorUserRegisterIsDisable
	}

	email := util.NormalizeEmail(params.Email)

	existing, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, storeError(s.logger, "UserService.Register", 0, err, nil)
	}
	if existing != nil {
		return nil, code.ErrorUserEmailAlreadyExists
	}

	hash, err := util.GeneratePasswordHash(params.Password)
	if err != nil {
		return nil, code.ErrorPasswordNotValid.WithDetails(err.Error())
	}

	user, err := s.userRepo.Create(ctx, &domain.User{
		Email:    email,
		Name:     params.Name,
		Password: hash,
	})
	if errors.Is(err, domain.ErrDuplicated) {
		return nil, code.ErrorUserEmailAlreadyExists
	}
	if err != nil {
		s.logger.Error("create user failed", zap.Error(err))
		return nil, code.ErrorUserRegister
	}

	s.logger.Info("user registered", zap.Int64(logger.FieldUID, user.UID))
	return s.authResult(user)
}

// Login 用户登录，未知邮箱与错误密码返回同一错误
func (s *userService) Login(ctx context.Context, params *dto.UserLoginRequest, clientIP string) (*dto.AuthDTO, error) {
	user, err := s.userRepo.GetByEmail(ctx, util.NormalizeEmail(params.Email))
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, code.ErrorUserLoginFailed
	}
	if err != nil {
		return nil, storeError(s.logger, "UserService.Login", 0, err, nil)
	}

	if !util.CheckPasswordHash(user.Password, params.Password) {
		s.logger.Warn("login failed", zap.Int64(logger.FieldUID, user.UID), zap.String("clientIp", clientIP))
		return nil, code.ErrorUserLoginFailed
	}

	return s.authResult(user)
}

// GetInfo 获取用户信息
func (s *userService) GetInfo(ctx context.Context, uid int64) (*dto.UserDTO, error) {
	user, err := s.userRepo.GetByUID(ctx, uid)
	if err != nil {
		return nil, storeError(s.logger, "UserService.GetInfo", uid, err, code.ErrorInvalidUserAuthToken)
	}
	return s.domainToDTO(user), nil
}
