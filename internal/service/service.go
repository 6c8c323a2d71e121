package service

import (
	"context"
	"errors"
	"time"

	"social-graph/pkg/apperr"
)

// withTimeout 为单次业务操作设置存储超时
func withTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, d)
}

// storageErr 已分类的业务错误原样返回，其余一律视为存储不可用
func storageErr(err error) error {
	if err == nil {
		return nil
	}
	var ae *apperr.Error
	if errors.As(err, &ae) {
		return err
	}
	return apperr.Storage(err)
}
