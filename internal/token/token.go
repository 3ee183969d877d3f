package token

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/resume-hub/backend/internal/config"
)

var (
	ErrTokenExpired = errors.New("令牌已过期")
	ErrTokenInvalid = errors.New("无效的令牌")
)

// Manager 负责签发和校验访问令牌与刷新令牌。
// 两种令牌使用各自的密钥和有效期，全部来自注入的配置。
type Manager struct {
	accessSecret      []byte
	refreshSecret     []byte
	accessExpiration  time.Duration
	refreshExpiration time.Duration
	now               func() time.Time
}

func NewManager(cfg *config.Config) *Manager {
	return &Manager{
		accessSecret:      []byte(cfg.AccessToken.Secret),
		refreshSecret:     []byte(cfg.RefreshToken.Secret),
		accessExpiration:  time.Duration(cfg.AccessToken.Expiration) * time.Second,
		refreshExpiration: time.Duration(cfg.RefreshToken.Expiration) * time.Second,
		now:               time.Now,
	}
}

func (m *Manager) IssueAccessToken(userID int64) (string, error) {
	return m.issue(userID, m.accessSecret, m.accessExpiration)
}

func (m *Manager) IssueRefreshToken(userID int64) (string, error) {
	return m.issue(userID, m.refreshSecret, m.refreshExpiration)
}

// VerifyAccessToken 校验签名和有效期，返回令牌中携带的用户 ID。
// 用刷新令牌冒充访问令牌会因为密钥不同而签名校验失败。
func (m *Manager) VerifyAccessToken(tokenString string) (int64, error) {
	return m.verify(tokenString, m.accessSecret)
}

func (m *Manager) VerifyRefreshToken(tokenString string) (int64, error) {
	return m.verify(tokenString, m.refreshSecret)
}

func (m *Manager) issue(userID int64, secret []byte, expiration time.Duration) (string, error) {
	now := m.now()

	// jti 保证同一秒内签发的两个令牌也不相同，轮换后的新旧令牌必须可区分
	jti := make([]byte, 16)
	if _, err := rand.Read(jti); err != nil {
		return "", err
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		ExpiresAt: jwt.NewNumericDate(now.Add(expiration)),
		IssuedAt:  jwt.NewNumericDate(now),
		NotBefore: jwt.NewNumericDate(now),
		Subject:   strconv.FormatInt(userID, 10),
		ID:        hex.EncodeToString(jti),
	})

	return token.SignedString(secret)
}

func (m *Manager) verify(tokenString string, secret []byte) (int64, error) {
	claims := &jwt.RegisteredClaims{}
	_, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		return secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(m.now))
	if err != nil {
		switch {
		case errors.Is(err, jwt.ErrTokenExpired):
			return 0, ErrTokenExpired
		default:
			return 0, ErrTokenInvalid
		}
	}

	userID, err := strconv.ParseInt(claims.Subject, 10, 64)
	if err != nil {
		return 0, ErrTokenInvalid
	}

	return userID, nil
}
