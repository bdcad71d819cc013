package store

import (
	"context"
	"errors"
	"time"
)

const revokedKeyPrefix = "icu:auth:revoked:"

// TokenRevoker 登出后的 jti 黑名单，保留到 token 过期
type TokenRevoker struct {
	kv KV
}

func NewTokenRevoker(kv KV) *TokenRevoker { return &TokenRevoker{kv: kv} }

// Revoke ttl <= 0 时不写入（token 已过期）
func (t *TokenRevoker) Revoke(ctx context.Context, jti string, ttl time.Duration) error {
	if jti == "" || ttl <= 0 {
		return nil
	}
	return t.kv.Set(ctx, revokedKeyPrefix+jti, "1", ttl)
}

func (t *TokenRevoker) IsRevoked(ctx context.Context, jti string) (bool, error) {
	if jti == "" {
		return false, nil
	}
	_, err := t.kv.Get(ctx, revokedKeyPrefix+jti)
	if errors.Is(err, ErrMiss) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}
