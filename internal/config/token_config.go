package config

import "time"

type TokenConfig interface {
	GetJWTSecret() string
	GetIssuer() string
	GetRefreshTokenLength() int
	GetAccessTokenExpiry() time.Duration
	GetRefreshTokenExpiry() time.Duration
}

type Token struct {
	src source
}

var _ TokenConfig = Token{}

func (t Token) GetJWTSecret() string {
	return t.src.get("JWT_SECRET", "clingclang-dev-secret")
}

func (t Token) GetIssuer() string {
	return t.src.get("JWT_ISSUER", "clingclang")
}

func (Token) GetRefreshTokenLength() int {
	return 32 // 32 bytes = 256 bits
}

func (t Token) GetAccessTokenExpiry() time.Duration {
	return t.src.getDuration("ACCESS_TOKEN_EXPIRY", 15*time.Minute)
}

func (t Token) GetRefreshTokenExpiry() time.Duration {
	return t.src.getDuration("REFRESH_TOKEN_EXPIRY", 7*24*time.Hour) // 7 days
}
