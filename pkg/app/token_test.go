package app

import (
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

func TestTokenManager_GenerateAndParse(t *testing.T) {
	cfg := TokenConfig{
		SecretKey: "user-secret",
		Expiry:    24 * time.Hour,
		Issuer:    "user-issuer",
	}
	tm := NewTokenManager(cfg)

	uid := int64(1001)
	email := "test@example.com"

	// 1. 测试生成和解析
	token, err := tm.Generate(uid, email)
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}

	claims, err := tm.Parse(token)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	if claims.UID != uid {
		t.Errorf("Expected UID %d, got %d", uid, claims.UID)
	}
	if claims.Email != email {
		t.Errorf("Expected Email %s, got %s", email, claims.Email)
	}
	if claims.Issuer != cfg.Issuer {
		t.Errorf("Expected Issuer %s, got %s", cfg.Issuer, claims.Issuer)
	}

	// 验证 ExpiresAt (允许 1 秒内的误差)
	expectedExp := time.Now().Add(cfg.Expiry)
	if d := claims.ExpiresAt.Sub(expectedExp); d > time.Second || d < -time.Second {
		t.Errorf("Expected ExpiresAt around %v, got %v", expectedExp, claims.ExpiresAt)
	}

	// 2. 测试错误的密钥
	wrongKey := NewTokenManager(TokenConfig{SecretKey: "wrong-secret"})
	wrongToken, _ := wrongKey.Generate(uid, email)
	if _, err := tm.Parse(wrongToken); err == nil {
		t.Error("Expected error when parsing token with wrong secret key, but got nil")
	}

	// 3. 测试篡改后的 Token
	if err := tm.Validate(token + "tampered"); err == nil {
		t.Error("Expected error for tampered token, but got nil")
	}
}

func TestTokenManager_Expired(t *testing.T) {
	tm := NewTokenManager(TokenConfig{SecretKey: "user-secret", Expiry: time.Hour}).(*tokenManager)
	tm.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }

	token, err := tm.Generate(7, "old@example.com")
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}

	if _, err := tm.Parse(token); err == nil {
		t.Fatal("Expected error for expired token, but got nil")
	}
}

func TestTokenManager_DefaultExpiry(t *testing.T) {
	tm := NewTokenManager(TokenConfig{SecretKey: "k"}).(*tokenManager)
	if tm.config.Expiry != 7*24*time.Hour {
		t.Errorf("Expected default expiry 7d, got %v", tm.config.Expiry)
	}
	if tm.config.Issuer != DefaultTokenIssuer {
		t.Errorf("Expected default issuer %s, got %s", DefaultTokenIssuer, tm.config.Issuer)
	}
}

func TestParseTokenWithKey_RejectsNoneAlg(t *testing.T) {
	claims := &UserEntity{UID: 1, Email: "a@b.c"}
	unsigned, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
	if err != nil {
		t.Fatalf("SignedString failed: %v", err)
	}
	if _, err := ParseTokenWithKey(unsigned, "k"); err == nil {
		t.Error("Expected error for none signing method, but got nil")
	}
}

func TestGetUID(t *testing.T) {
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())

	if uid := GetUID(c); uid != 0 {
		t.Errorf("Expected 0 without token, got %d", uid)
	}

	tm := NewTokenManager(TokenConfig{SecretKey: "k"})
	token, _ := tm.Generate(42, "x@y.z")
	if err := SetTokenToContextWithKey(c, token, "k"); err != nil {
		t.Fatalf("SetTokenToContextWithKey failed: %v", err)
	}
	if uid := GetUID(c); uid != 42 {
		t.Errorf("Expected 42, got %d", uid)
	}
	if u := GetUser(c); u == nil || u.Email != "x@y.z" {
		t.Errorf("Expected user x@y.z, got %+v", u)
	}
}
