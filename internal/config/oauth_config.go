package config

import (
	"os"
	"strconv"
	"time"
)

// OAuthConfig covers the token and protocol lifecycle knobs: per trust-domain
// signing secrets, token TTLs and the refresh-token rotation window.
type OAuthConfig interface {
	GetChallengeExpiry() time.Duration
	GetSessionExpiry() time.Duration
	GetAuthCodeExpiry() time.Duration

	GetWebAccessSecret() string
	GetWebRefreshSecret() string
	GetAppAccessSecret() string
	GetAppRefreshSecret() string

	GetAccessTokenExpiry() time.Duration
	GetWebRefreshTokenExpiry() time.Duration
	GetAppRefreshTokenExpiry() time.Duration

	GetRefreshRotationThreshold() time.Duration
	GetRevocationRetentionCap() time.Duration
}

type OAuth struct{}

var _ OAuthConfig = OAuth{}

func (OAuth) GetChallengeExpiry() time.Duration {
	return durationEnv("CHALLENGE_EXPIRE_SECONDS", 180*time.Second)
}

func (OAuth) GetSessionExpiry() time.Duration {
	return durationEnv("SESSION_EXPIRE_SECONDS", time.Hour)
}

func (OAuth) GetAuthCodeExpiry() time.Duration {
	return durationEnv("AUTH_CODE_EXPIRE_SECONDS", 600*time.Second)
}

func (OAuth) GetWebAccessSecret() string {
	return GetEnv("ACCESS_SECRET_KEY", "dev-web-access-secret")
}

func (OAuth) GetWebRefreshSecret() string {
	return GetEnv("REFRESH_SECRET_KEY", "dev-web-refresh-secret")
}

func (OAuth) GetAppAccessSecret() string {
	return GetEnv("APP_ACCESS_SECRET_KEY", "dev-app-access-secret")
}

func (OAuth) GetAppRefreshSecret() string {
	return GetEnv("APP_REFRESH_SECRET_KEY", "dev-app-refresh-secret")
}

func (OAuth) GetAccessTokenExpiry() time.Duration {
	return durationEnv("ACCESS_TOKEN_EXPIRE_SECONDS", 30*time.Minute)
}

func (OAuth) GetWebRefreshTokenExpiry() time.Duration {
	return durationEnv("REFRESH_TOKEN_EXPIRE_SECONDS", 14*24*time.Hour)
}

func (OAuth) GetAppRefreshTokenExpiry() time.Duration {
	return durationEnv("APP_REFRESH_TOKEN_EXPIRE_SECONDS", 30*24*time.Hour)
}

func (OAuth) GetRefreshRotationThreshold() time.Duration {
	return durationEnv("REFRESH_ROTATION_THRESHOLD_SECONDS", 30*24*time.Hour)
}

func (OAuth) GetRevocationRetentionCap() time.Duration {
	return durationEnv("REVOCATION_RETENTION_CAP_SECONDS", 7*24*time.Hour)
}

// durationEnv reads a duration expressed in whole seconds from the environment.
func durationEnv(envVar string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(envVar)
	if value == "" {
		return defaultValue
	}
	seconds, err := strconv.Atoi(value)
	if err != nil || seconds <= 0 {
		return defaultValue
	}
	return time.Duration(seconds) * time.Second
}
