// Package apperr 定义业务错误分类
// 每个错误带有稳定的机器可读 Kind，HTTP 层据此映射状态码
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind 错误类别
type Kind string

const (
	KindDuplicateUsername  Kind = "DuplicateUsername"
	KindDuplicateEmail     Kind = "DuplicateEmail"
	KindInvalidCredentials Kind = "InvalidCredentials"
	KindUnauthenticated    Kind = "Unauthenticated"
	KindForbidden          Kind = "Forbidden"
	KindSelfReference      Kind = "SelfReference"
	KindNotFound           Kind = "NotFound"
	KindStorageUnavailable Kind = "StorageUnavailable"
	KindValidation         Kind = "ValidationError"
	KindTooManyAttempts    Kind = "TooManyAttempts"
)

// Error 业务错误
type Error struct {
	Kind    Kind
	Message string
	Err     error // 底层原因，不对外暴露
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

// Is 同类错误视为相等，便于 errors.Is(err, apperr.ErrNotFound)
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return t.Kind == e.Kind
}

// 哨兵错误
var (
	ErrDuplicateUsername  = &Error{Kind: KindDuplicateUsername, Message: "username already exists"}
	ErrDuplicateEmail     = &Error{Kind: KindDuplicateEmail, Message: "email already exists"}
	ErrInvalidCredentials = &Error{Kind: KindInvalidCredentials, Message: "invalid credentials"}
	ErrUnauthenticated    = &Error{Kind: KindUnauthenticated, Message: "authentication required"}
	ErrForbidden          = &Error{Kind: KindForbidden, Message: "operation not permitted"}
	ErrSelfReference      = &Error{Kind: KindSelfReference, Message: "a user cannot relate to itself"}
	ErrNotFound           = &Error{Kind: KindNotFound, Message: "resource not found"}
	ErrStorageUnavailable = &Error{Kind: KindStorageUnavailable, Message: "storage unavailable, retry later"}
	ErrValidation         = &Error{Kind: KindValidation, Message: "invalid request"}
	ErrTooManyAttempts    = &Error{Kind: KindTooManyAttempts, Message: "too many failed attempts, retry later"}
)

// New 创建指定类别的错误
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Wrap 包装底层错误
func Wrap(kind Kind, message string, err error) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

// Validation 参数校验错误
func Validation(message string) *Error {
	return New(KindValidation, message)
}

// NotFound 资源不存在
func NotFound(message string) *Error {
	return New(KindNotFound, message)
}

// Storage 存储层不可用
func Storage(err error) *Error {
	return Wrap(KindStorageUnavailable, ErrStorageUnavailable.Message, err)
}

// KindOf 提取错误类别，非业务错误返回空串
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

// MessageOf 对外可见的错误信息，非业务错误返回通用信息
func MessageOf(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}
	return "internal server error"
}

// HTTPStatus 错误类别对应的HTTP状态码
func HTTPStatus(err error) int {
	switch KindOf(err) {
	case KindValidation, KindDuplicateUsername, KindDuplicateEmail, KindSelfReference:
		return http.StatusBadRequest
	case KindInvalidCredentials, KindUnauthenticated:
		return http.StatusUnauthorized
	case KindForbidden:
		return http.StatusForbidden
	case KindNotFound:
		return http.StatusNotFound
	case KindTooManyAttempts:
		return http.StatusTooManyRequests
	case KindStorageUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
