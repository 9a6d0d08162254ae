package service

import (
	"context"
	"errors"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/studioreel/internal/hybrid"
	"github.com/studioreel/internal/store"
)

// ErrBadCredentials 表示用户名或密码错误。
var ErrBadCredentials = errors.New("invalid username or password")

// Users 是管理员账号集合的协调器绑定。
type Users = hybrid.Collection[store.User, *store.User]

// UserService 提供管理员账号的初始化与登录校验。
type UserService struct {
	col *Users
}

// NewUserService 创建 UserService 实例。
func NewUserService(col *Users) *UserService {
	return &UserService{col: col}
}

// Ensure 存在性检查：若提供的用户名与密码均非空且不存在对应账号，则创建一个 bcrypt 哈希的用户。
func (s *UserService) Ensure(ctx context.Context, username, password string) error {
	trimmedUser := strings.TrimSpace(username)
	trimmedPassword := strings.TrimSpace(password)
	if trimmedUser == "" || trimmedPassword == "" {
		return nil
	}

	existing, err := s.find(ctx, trimmedUser)
	if err != nil {
		return err
	}
	if existing != nil {
		return nil
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(trimmedPassword), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	_, err = s.col.Create(ctx, store.User{Username: trimmedUser, Password: string(hashed)})
	return err
}

// Authenticate 校验用户名与密码，成功时返回用户记录。
func (s *UserService) Authenticate(ctx context.Context, username, password string) (*store.User, error) {
	user, err := s.find(ctx, strings.TrimSpace(username))
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrBadCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		return nil, ErrBadCredentials
	}
	return user, nil
}

func (s *UserService) find(ctx context.Context, username string) (*store.User, error) {
	users, err := s.col.List(ctx, hybrid.ListOptions[store.User]{
		Where: "username = ?",
		Args:  []any{username},
		Match: func(u store.User) bool { return u.Username == username },
	})
	if err != nil {
		return nil, err
	}
	if len(users) == 0 {
		return nil, nil
	}
	return &users[0], nil
}
