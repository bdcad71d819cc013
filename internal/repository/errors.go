package repository

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"
)

var (
	// ErrNotFound 记录不存在
	ErrNotFound = errors.New("not found")
	// ErrConflict 唯一约束冲突
	ErrConflict = errors.New("already exists")
	// ErrDeviceInUse 设备已有 active 绑定
	ErrDeviceInUse = errors.New("device in use")
	// ErrInvalidInput 参数校验失败
	ErrInvalidInput = errors.New("invalid input")
)

// pgUniqueViolation unique_violation
const pgUniqueViolation = "23505"

// wrapErr 把 sql.ErrNoRows / 唯一冲突映射为 ErrNotFound / ErrConflict
func wrapErr(what string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%s: %w", what, ErrNotFound)
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && string(pqErr.Code) == pgUniqueViolation {
		return fmt.Errorf("%s: %w", what, ErrConflict)
	}
	return fmt.Errorf("%s: %w", what, err)
}

// checkAffected UPDATE/DELETE 0 行视为不存在
func checkAffected(what string, res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: %w", what, err)
	}
	if n == 0 {
		return fmt.Errorf("%s: %w", what, ErrNotFound)
	}
	return nil
}

// rowScanner *sql.Row 与 *sql.Rows 共用
type rowScanner interface {
	Scan(dest ...any) error
}
