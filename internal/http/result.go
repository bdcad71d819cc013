package httpapi

import (
	"errors"

	"icu-monitor/internal/service"
)

// 信封 code
const (
	ResultSuccess = 2000
	ResultError   = -1
	// ResultTokenExpired 与 HTTP 401 一起返回，icuctl 据此清除本地会话
	ResultTokenExpired = 60401
)

// Result 所有 JSON 接口的统一信封；/ws 帧和 Excel 下载不走信封
type Result[T any] struct {
	Code    int    `json:"code"`
	Type    string `json:"type"` // success | error
	Message string `json:"message"`
	Result  T      `json:"result"`
}

func Ok[T any](result T) Result[T] {
	return Result[T]{Code: ResultSuccess, Type: "success", Message: "ok", Result: result}
}

// Fail result 恒为 null
func Fail(message string) Result[any] {
	return Result[any]{Code: ResultError, Type: "error", Message: message}
}

// failFor 按错误选择信封 code
func failFor(err error) Result[any] {
	body := Fail(err.Error())
	if errors.Is(err, service.ErrTokenExpired) {
		body.Code = ResultTokenExpired
	}
	return body
}
