package config

type SecurityConfig interface {
	GetEnableRateLimiting() bool
	GetChallengeRatePerMinute() int
}

type Security struct{}

var _ SecurityConfig = Security{}

func (Security) GetEnableRateLimiting() bool {
	return GetEnv("ENABLE_RATE_LIMITING", "true") == "true"
}

// GetChallengeRatePerMinute bounds how often a single client key can mint or
// poll challenges. Polling a QR page is expected, so the default is generous.
func (Security) GetChallengeRatePerMinute() int {
	return 60
}
