package session

import (
	"context"
	"database/sql"
	"errors"

	"github.com/resume-hub/backend/internal/domain"
)

var (
	ErrUserNotFound   = errors.New("没有与认证信息匹配的用户")
	ErrSessionRevoked = errors.New("认证信息已被废弃")
)

type TokenPair struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

type Tokens interface {
	IssueAccessToken(userID int64) (string, error)
	IssueRefreshToken(userID int64) (string, error)
	VerifyRefreshToken(tokenString string) (int64, error)
}

type Users interface {
	GetUserByID(id int64) (*domain.User, error)
}

// Manager 维护单用户单会话的约束：
// 签发时覆盖写入，校验时要求出示的刷新令牌和存储的完全一致，
// 因此旧令牌在轮换后立即失效，重放窗口只有一次。
type Manager struct {
	tokens Tokens
	store  Store
	users  Users
}

func NewManager(tokens Tokens, store Store, users Users) *Manager {
	return &Manager{
		tokens: tokens,
		store:  store,
		users:  users,
	}
}

// Start 签发一对新令牌并覆盖该用户已有的会话。
func (m *Manager) Start(ctx context.Context, userID int64) (*TokenPair, error) {
	accessToken, err := m.tokens.IssueAccessToken(userID)
	if err != nil {
		return nil, err
	}

	refreshToken, err := m.tokens.IssueRefreshToken(userID)
	if err != nil {
		return nil, err
	}

	if err := m.store.Save(ctx, userID, refreshToken); err != nil {
		return nil, err
	}

	return &TokenPair{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
	}, nil
}

// Validate 校验出示的刷新令牌并解析出对应的用户。
// 令牌本身的错误原样返回（token.ErrTokenExpired / token.ErrTokenInvalid），
// 用户已注销返回 ErrUserNotFound，令牌已被轮换淘汰返回 ErrSessionRevoked。
func (m *Manager) Validate(ctx context.Context, refreshToken string) (*domain.User, error) {
	userID, err := m.tokens.VerifyRefreshToken(refreshToken)
	if err != nil {
		return nil, err
	}

	user, err := m.users.GetUserByID(userID)
	if err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			return nil, ErrUserNotFound
		default:
			return nil, err
		}
	}

	stored, err := m.store.Get(ctx, user.ID)
	if err != nil {
		switch {
		case errors.Is(err, ErrNoSession):
			return nil, ErrSessionRevoked
		default:
			return nil, err
		}
	}

	if stored != refreshToken {
		return nil, ErrSessionRevoked
	}

	return user, nil
}

// Refresh 在校验通过后签发新令牌对并覆盖旧会话（用一次换一次）。
func (m *Manager) Refresh(ctx context.Context, refreshToken string) (*domain.User, *TokenPair, error) {
	user, err := m.Validate(ctx, refreshToken)
	if err != nil {
		return nil, nil, err
	}

	pair, err := m.Start(ctx, user.ID)
	if err != nil {
		return nil, nil, err
	}

	return user, pair, nil
}

// End 删除会话，之后的 Refresh 都会失败。
func (m *Manager) End(ctx context.Context, userID int64) error {
	return m.store.Delete(ctx, userID)
}
