package service

import (
	"errors"
	"fmt"

	"icu-monitor/internal/repository"
)

var (
	// ErrUnauthorized 未登录或凭证无效
	ErrUnauthorized = errors.New("unauthorized")
	// ErrTokenExpired token 过期，HTTP 层返回 60401
	ErrTokenExpired = fmt.Errorf("token expired: %w", ErrUnauthorized)
	// ErrForbidden 角色不允许
	ErrForbidden = errors.New("forbidden")
)

// Error 带对外消息的业务错误；Kind 用于 errors.Is 映射状态码
type Error struct {
	Kind    error
	Message string
}

func (e *Error) Error() string { return e.Message }

func (e *Error) Unwrap() error { return e.Kind }

func newError(kind error, format string, args ...any) error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

func notFound(format string, args ...any) error {
	return newError(repository.ErrNotFound, format, args...)
}

func invalid(format string, args ...any) error {
	return newError(repository.ErrInvalidInput, format, args...)
}

func conflict(format string, args ...any) error {
	return newError(repository.ErrConflict, format, args...)
}

// orNotFound 把仓储层 ErrNotFound 换成对外消息，其他错误原样返回
func orNotFound(err error, message string) error {
	if errors.Is(err, repository.ErrNotFound) {
		return notFound("%s", message)
	}
	return err
}
