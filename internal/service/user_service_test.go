package service

import (
	"context"
	"testing"
	"time"

	"github.com/haierkeys/note-keeper-service/internal/dto"
	"github.com/haierkeys/note-keeper-service/pkg/app"
	"github.com/haierkeys/note-keeper-service/pkg/code"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestUserService(enabled bool) (UserService, app.TokenManager) {
	tm := app.NewTokenManager(app.TokenConfig{SecretKey: "test-secret", Expiry: time.Hour})
	cfg := &ServiceConfig{User: UserServiceConfig{RegisterIsEnable: enabled}}
	return NewUserService(newMockUserRepo(), tm, nil, cfg), tm
}

func TestUserService_Register(t *testing.T) {
	ctx := context.Background()
	svc, tm := newTestUserService(true)

	res, err := svc.Register(ctx, &dto.UserRegisterRequest{Email: " Ann@Example.com ", Password: "secret1", Name: "Ann"})
	require.NoError(t, err)
	assert.Equal(t, "ann@example.com", res.User.Email)
	assert.Equal(t, "Ann", res.User.Name)

	claims, err := tm.Parse(res.Token)
	require.NoError(t, err)
	assert.Equal(t, res.User.ID, claims.UID)

	_, err = svc.Register(ctx, &dto.UserRegisterRequest{Email: "ann@example.com", Password: "secret2", Name: "Other"})
	assert.ErrorIs(t, err, code.ErrorUserEmailAlreadyExists)

	info, err := svc.GetInfo(ctx, res.User.ID)
	require.NoError(t, err)
	assert.Equal(t, res.User, info)
}

func TestUserService_RegisterDisabled(t *testing.T) {
	svc, _ := newTestUserService(false)
	_, err := svc.Register(context.Background(), &dto.UserRegisterRequest{Email: "a@b.c", Password: "secret1", Name: "A"})
	assert.ErrorIs(t, err, code.ErrorUserRegisterIsDisable)
}

func TestUserService_Login(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestUserService(true)

	_, err := svc.Register(ctx, &dto.UserRegisterRequest{Email: "ann@example.com", Password: "secret1", Name: "Ann"})
	require.NoError(t, err)

	res, err := svc.Login(ctx, &dto.UserLoginRequest{Email: "ANN@example.com", Password: "secret1"}, "127.0.0.1")
	require.NoError(t, err)
	assert.NotEmpty(t, res.Token)

	_, err = svc.Login(ctx, &dto.UserLoginRequest{Email: "ann@example.com", Password: "wrong"}, "127.0.0.1")
	assert.ErrorIs(t, err, code.ErrorUserLoginFailed)

	_, err = svc.Login(ctx, &dto.UserLoginRequest{Email: "nobody@example.com", Password: "secret1"}, "127.0.0.1")
	assert.ErrorIs(t, err, code.ErrorUserLoginFailed)
}
