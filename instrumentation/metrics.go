package instrumentation

import (
	"context"

	"github.com/pkg/errors"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Metrics holds the metric instruments for the authentication flows.
type Metrics struct {
	HTTPRequestsTotal   metric.Int64Counter
	HTTPRequestDuration metric.Float64Histogram

	ChallengesIssued  metric.Int64Counter
	CardVerifications metric.Int64Counter
	CodesIssued       metric.Int64Counter
	CodesExchanged    metric.Int64Counter
	TokensIssued      metric.Int64Counter
	TokensRefreshed   metric.Int64Counter
	TokensRevoked     metric.Int64Counter

	RateLimitExceeded metric.Int64Counter
}

func newMetrics(meter metric.Meter) (*Metrics, error) {
	m := &Metrics{}

	var err error
	m.HTTPRequestsTotal, err = meter.Int64Counter(
		"ospass.http.requests.total",
		metric.WithDescription("Total number of HTTP requests"),
		metric.WithUnit("{request}"),
	)
	if err != nil {
		return nil, errors.Wrap(err, "create http.requests.total counter")
	}

	m.HTTPRequestDuration, err = meter.Float64Histogram(
		"ospass.http.request.duration",
		metric.WithDescription("HTTP request duration in milliseconds"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return nil, errors.Wrap(err, "create http.request.duration histogram")
	}

	m.ChallengesIssued, err = meter.Int64Counter(
		"ospass.challenge.issued",
		metric.WithDescription("Number of card challenges issued"),
		metric.WithUnit("{challenge}"),
	)
	if err != nil {
		return nil, errors.Wrap(err, "create challenge.issued counter")
	}

	m.CardVerifications, err = meter.Int64Counter(
		"ospass.card.verifications",
		metric.WithDescription("Number of card response verifications"),
		metric.WithUnit("{verification}"),
	)
	if err != nil {
		return nil, errors.Wrap(err, "create card.verifications counter")
	}

	m.CodesIssued, err = meter.Int64Counter(
		"ospass.code.issued",
		metric.WithDescription("Number of authorization codes issued"),
		metric.WithUnit("{code}"),
	)
	if err != nil {
		return nil, errors.Wrap(err, "create code.issued counter")
	}

	m.CodesExchanged, err = meter.Int64Counter(
		"ospass.code.exchanged",
		metric.WithDescription("Number of authorization codes exchanged for tokens"),
		metric.WithUnit("{exchange}"),
	)
	if err != nil {
		return nil, errors.Wrap(err, "create code.exchanged counter")
	}

	m.TokensIssued, err = meter.Int64Counter(
		"ospass.token.issued",
		metric.WithDescription("Number of token pairs issued"),
		metric.WithUnit("{pair}"),
	)
	if err != nil {
		return nil, errors.Wrap(err, "create token.issued counter")
	}

	m.TokensRefreshed, err = meter.Int64Counter(
		"ospass.token.refreshed",
		metric.WithDescription("Number of access tokens refreshed"),
		metric.WithUnit("{refresh}"),
	)
	if err != nil {
		return nil, errors.Wrap(err, "create token.refreshed counter")
	}

	m.TokensRevoked, err = meter.Int64Counter(
		"ospass.token.revoked",
		metric.WithDescription("Number of access tokens revoked"),
		metric.WithUnit("{revocation}"),
	)
	if err != nil {
		return nil, errors.Wrap(err, "create token.revoked counter")
	}

	m.RateLimitExceeded, err = meter.Int64Counter(
		"ospass.rate_limit.exceeded",
		metric.WithDescription("Number of rate limit violations"),
		metric.WithUnit("{violation}"),
	)
	if err != nil {
		return nil, errors.Wrap(err, "create rate_limit.exceeded counter")
	}

	return m, nil
}

// RecordHTTPRequest records one served HTTP request.
func (m *Metrics) RecordHTTPRequest(ctx context.Context, method, endpoint string, statusCode int, durationMs float64) {
	if m == nil {
		return
	}
	m.HTTPRequestsTotal.Add(ctx, 1, metric.WithAttributes(
		attribute.String("method", method),
		attribute.String("endpoint", endpoint),
		attribute.Int("status", statusCode),
	))
	m.HTTPRequestDuration.Record(ctx, durationMs, metric.WithAttributes(
		attribute.String("endpoint", endpoint),
	))
}

// RecordChallengeIssued records a challenge handed to a card holder.
func (m *Metrics) RecordChallengeIssued(ctx context.Context) {
	if m == nil {
		return
	}
	m.ChallengesIssued.Add(ctx, 1)
}

// RecordCardVerification records a card response check and its outcome.
func (m *Metrics) RecordCardVerification(ctx context.Context, success bool) {
	if m == nil {
		return
	}
	m.CardVerifications.Add(ctx, 1, metric.WithAttributes(
		attribute.Bool("success", success),
	))
}

// RecordCodeIssued records an authorization code granted to a service.
func (m *Metrics) RecordCodeIssued(ctx context.Context, apiKey string) {
	if m == nil {
		return
	}
	m.CodesIssued.Add(ctx, 1, metric.WithAttributes(
		attribute.String("api_key", apiKey),
	))
}

// RecordCodeExchange records an authorization code exchange attempt.
func (m *Metrics) RecordCodeExchange(ctx context.Context, apiKey string, success bool) {
	if m == nil {
		return
	}
	m.CodesExchanged.Add(ctx, 1, metric.WithAttributes(
		attribute.String("api_key", apiKey),
		attribute.Bool("success", success),
	))
}

// RecordTokensIssued records a freshly minted access/refresh pair.
func (m *Metrics) RecordTokensIssued(ctx context.Context, domain string) {
	if m == nil {
		return
	}
	m.TokensIssued.Add(ctx, 1, metric.WithAttributes(
		attribute.String("domain", domain),
	))
}

// RecordTokenRefresh records a refresh operation and whether the refresh
// token itself was rotated.
func (m *Metrics) RecordTokenRefresh(ctx context.Context, domain string, rotated bool) {
	if m == nil {
		return
	}
	m.TokensRefreshed.Add(ctx, 1, metric.WithAttributes(
		attribute.String("domain", domain),
		attribute.Bool("rotated", rotated),
	))
}

// RecordTokenRevocation records an access token revocation.
func (m *Metrics) RecordTokenRevocation(ctx context.Context, domain string) {
	if m == nil {
		return
	}
	m.TokensRevoked.Add(ctx, 1, metric.WithAttributes(
		attribute.String("domain", domain),
	))
}

// RecordRateLimitExceeded records a request dropped by a limiter.
func (m *Metrics) RecordRateLimitExceeded(ctx context.Context, limiterType string) {
	if m == nil {
		return
	}
	m.RateLimitExceeded.Add(ctx, 1, metric.WithAttributes(
		attribute.String("limiter_type", limiterType),
	))
}
