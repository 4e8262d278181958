package services

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"locshare/internal/auth"
	"locshare/internal/config"
	"locshare/internal/models"
	"locshare/internal/storage"
)

// RegisterInput carries the registration form.
type RegisterInput struct {
	Username string
	Email    string
	Password string
	Phone    *string
}

// AuthService 定义了用户认证服务的接口。
type AuthService interface {
	Register(ctx context.Context, input RegisterInput) (token string, user *models.User, err error)
	Login(ctx context.Context, email, password string) (token string, user *models.User, err error)
}

// authService 是 AuthService 的实现。
type authService struct {
	userRepo storage.UserRepository
	authCfg  config.AuthConfig
	tokenCfg config.TokensConfig
}

// NewAuthService 创建一个新的 AuthService 实例。
func NewAuthService(userRepo storage.UserRepository, authCfg config.AuthConfig, tokenCfg config.TokensConfig) AuthService {
	return &authService{
		userRepo: userRepo,
		authCfg:  authCfg,
		tokenCfg: tokenCfg,
	}
}

// Register creates a user with a fresh public identifier and logs them in.
func (s *authService) Register(ctx context.Context, input RegisterInput) (string, *models.User, error) {
	input.Username = strings.TrimSpace(input.Username)
	input.Email = strings.ToLower(strings.TrimSpace(input.Email))
	if input.Phone != nil && strings.TrimSpace(*input.Phone) == "" {
		input.Phone = nil
	}
	if err := validateRegisterInput(input); err != nil {
		return "", nil, err
	}

	// 检查邮箱是否存在
	if _, err := s.userRepo.GetByEmail(ctx, input.Email); err == nil {
		return "", nil, ErrUserAlreadyExists
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return "", nil, fmt.Errorf("检查邮箱时出错: %w", err)
	}
	if input.Phone != nil {
		if _, err := s.userRepo.GetByPhone(ctx, *input.Phone); err == nil {
			return "", nil, ErrUserAlreadyExists
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return "", nil, fmt.Errorf("检查手机号时出错: %w", err)
		}
	}

	hashedPassword, err := auth.HashPassword(input.Password)
	if err != nil {
		return "", nil, fmt.Errorf("密码哈希失败: %w", err)
	}

	newUser := &models.User{
		UID:           uuid.NewString(),
		Username:      input.Username,
		Email:         input.Email,
		Phone:         input.Phone,
		PasswordHash:  hashedPassword,
		Status:        models.UserStatusActive,
		TokensBalance: s.tokenCfg.InitialBalance,
	}
	if err := s.userRepo.Create(ctx, newUser); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return "", nil, ErrUserAlreadyExists
		}
		return "", nil, fmt.Errorf("创建用户失败: %w", err)
	}

	token, _, err := auth.GenerateToken(newUser.ID, newUser.UID, s.authCfg)
	if err != nil {
		return "", nil, fmt.Errorf("生成令牌失败: %w", err)
	}
	newUser.PasswordHash = ""
	return token, newUser, nil
}

// Login 处理用户登录逻辑。
func (s *authService) Login(ctx context.Context, email, password string) (string, *models.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		return "", nil, kindError(ErrInvalidInput, "邮箱和密码不能为空")
	}

	user, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", nil, ErrInvalidCredentials
		}
		return "", nil, fmt.Errorf("通过邮箱查找用户失败: %w", err)
	}
	if !auth.CheckPasswordHash(password, user.PasswordHash) {
		return "", nil, ErrInvalidCredentials
	}
	if user.Status == models.UserStatusDisabled {
		return "", nil, ErrAccountDisabled
	}

	token, _, err := auth.GenerateToken(user.ID, user.UID, s.authCfg)
	if err != nil {
		return "", nil, fmt.Errorf("生成令牌失败: %w", err)
	}
	user.PasswordHash = ""
	return token, user, nil
}

func validateRegisterInput(input RegisterInput) error {
	if input.Username == "" || len(input.Username) > 255 {
		return kindError(ErrInvalidInput, "用户名不能为空且不超过 255 个字符")
	}
	if _, err := mail.ParseAddress(input.Email); err != nil || len(input.Email) > 255 {
		return kindError(ErrInvalidInput, "邮箱格式无效")
	}
	if len(input.Password) < auth.MinPasswordLength || len(input.Password) > 72 {
		// bcrypt 只接受 72 字节以内的密码
		return kindError(ErrInvalidInput, fmt.Sprintf("密码长度须在 %d 到 72 个字符之间", auth.MinPasswordLength))
	}
	if input.Phone != nil {
		for _, r := range *input.Phone {
			if r < '0' || r > '9' {
				return kindError(ErrInvalidInput, "手机号只能包含数字")
			}
		}
	}
	return nil
}
