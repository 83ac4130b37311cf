package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"DocChat/backend/go/internal/identity"
	"DocChat/backend/go/internal/models"
	"DocChat/backend/go/internal/user_service/store"

	"github.com/golang-jwt/jwt"
	"golang.org/x/crypto/bcrypt"
)

var (
	// ErrAccountExists 表示邮箱或用户名已被注册。
	ErrAccountExists = errors.New("email or username already registered")
	// ErrInvalidCredentials 表示用户不存在或密码错误, 两者不做区分。
	ErrInvalidCredentials = errors.New("invalid email or password")
	// ErrInvalidInput 表示注册参数不合法。
	ErrInvalidInput = errors.New("invalid registration input")
)

const issuer = "docchat"

// UserStore 是 Service 依赖的持久化接口, 由 store.Store 实现。
type UserStore interface {
	CreateUser(ctx context.Context, user *models.User) error
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	ExistsByEmailOrUsername(ctx context.Context, email, username string) (bool, error)
}

// Service 封装了注册、登录和令牌校验的业务逻辑。
type Service struct {
	store     UserStore
	jwtSecret []byte
	tokenTTL  time.Duration
	now       func() time.Time
}

// NewService 创建一个新的 Service 实例。
func NewService(s UserStore, jwtSecret string, tokenTTL time.Duration) *Service {
	if tokenTTL <= 0 {
		tokenTTL = 60 * time.Minute
	}
	return &Service{
		store:     s,
		jwtSecret: []byte(jwtSecret),
		tokenTTL:  tokenTTL,
		now:       time.Now,
	}
}

// Register 处理新用户通过邮箱注册的逻辑。
func (s *Service) Register(ctx context.Context, email, username, password string) (*models.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	username = strings.TrimSpace(username)
	if email == "" || username == "" || password == "" {
		return nil, fmt.Errorf("%w: email, username and password are required", ErrInvalidInput)
	}
	if len(username) > 20 {
		return nil, fmt.Errorf("%w: username longer than 20 characters", ErrInvalidInput)
	}

	exists, err := s.store.ExistsByEmailOrUsername(ctx, email, username)
	if err != nil {
		return nil, fmt.Errorf("检查用户是否存在失败: %w", err)
	}
	if exists {
		return nil, ErrAccountExists
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("密码哈希失败: %w", err)
	}

	user := &models.User{
		Username: username,
		Email:    email,
		Password: string(hashedPassword),
		Status:   models.StatusActive,
	}
	if err := s.store.CreateUser(ctx, user); err != nil {
		return nil, fmt.Errorf("创建用户失败: %w", err)
	}
	return user, nil
}

// Login 校验邮箱和密码, 成功时返回签名后的 JWT。
func (s *Service) Login(ctx context.Context, email, password string) (string, error) {
	user, err := s.store.GetUserByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		if errors.Is(err, store.ErrUserNotFound) {
			return "", ErrInvalidCredentials
		}
		return "", fmt.Errorf("查询用户失败: %w", err)
	}
	if user.Status != models.StatusActive {
		return "", ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		return "", ErrInvalidCredentials
	}
	return s.IssueToken(identity.Identity{ID: strconv.FormatUint(uint64(user.ID), 10), Email: user.Email})
}

// IssueToken 为指定身份生成一个新的 JWT。
func (s *Service) IssueToken(id identity.Identity) (string, error) {
	now := s.now()
	claims := jwt.MapClaims{
		"sub":   id.ID,
		"email": id.Email,
		"iss":   issuer,
		"iat":   now.Unix(),
		"exp":   now.Add(s.tokenTTL).Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.jwtSecret)
}

// VerifyToken 校验 JWT 的签名和有效期, 返回其中携带的身份。
func (s *Service) VerifyToken(tokenString string) (identity.Identity, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		// 确保 token 的签名方法是我们期望的
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return s.jwtSecret, nil
	})
	if err != nil {
		return identity.Identity{}, fmt.Errorf("%w: %v", identity.ErrUnauthenticated, err)
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return identity.Identity{}, identity.ErrUnauthenticated
	}
	// MapClaims.Valid 不要求 exp 存在, 这里强制要求。
	if !claims.VerifyExpiresAt(s.now().Unix(), true) {
		return identity.Identity{}, fmt.Errorf("%w: token expired", identity.ErrUnauthenticated)
	}
	sub, _ := claims["sub"].(string)
	email, _ := claims["email"].(string)
	if strings.TrimSpace(sub) == "" {
		return identity.Identity{}, fmt.Errorf("%w: token has no subject", identity.ErrUnauthenticated)
	}
	return identity.Identity{ID: sub, Email: email}, nil
}
