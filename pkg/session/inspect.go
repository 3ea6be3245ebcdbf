package session

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ErrNoToken はトークンが空の場合に返るエラー。
var ErrNoToken = errors.New("トークンがありません")

// TokenInfo はトークンのクレームから読み取った情報。
type TokenInfo struct {
	// UserID はトークンのユーザーID。
	UserID string `json:"user_id"`
	// Name はトークンのユーザー名。
	Name string `json:"name"`
	// Issuer はトークンの発行者。
	Issuer string `json:"issuer"`
	// ExpiresAt は有効期限。期限が無い場合はゼロ値。
	ExpiresAt time.Time `json:"expires_at"`
}

// Expired はnow時点で有効期限が切れているかどうかを返す。
func (i *TokenInfo) Expired(now time.Time) bool {
	return !i.ExpiresAt.IsZero() && now.After(i.ExpiresAt)
}

// tokenClaims はログインAPIが発行するJWTのクレーム。
type tokenClaims struct {
	jwt.RegisteredClaims
	UserID string `json:"user_id"`
	Name   string `json:"name"`
}

// InspectToken はJWTのクレームを署名検証せずに読み取る。
// 表示用であり、認可の判断には使わないこと。
func InspectToken(token string) (*TokenInfo, error) {
	if token == "" {
		return nil, ErrNoToken
	}

	claims := &tokenClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return nil, fmt.Errorf("トークンのパースに失敗: %w", err)
	}

	info := &TokenInfo{
		UserID: claims.UserID,
		Name:   claims.Name,
		Issuer: claims.Issuer,
	}
	if claims.ExpiresAt != nil {
		info.ExpiresAt = claims.ExpiresAt.Time
	}
	return info, nil
}
