package httpclient

import (
	"context"
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// リクエスト結果の分類。メトリクスのoutcomeラベルに使用する。
const (
	outcomeSuccess     = "success"
	outcomeStatusError = "status_error"
	outcomeTimeout     = "timeout"
	outcomeError       = "error"
)

// Metrics はゲートウェイのPrometheusメトリクス。
// Observe をレスポンスインターセプターとして登録し、
// Show/Hide を持つのでインジケーターの Display としても登録できる。
type Metrics struct {
	requests  *prometheus.CounterVec
	duration  *prometheus.HistogramVec
	indicator prometheus.Gauge
}

// NewMetrics はメトリクスを生成し、regに登録する。
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		requests: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "spagate_gateway_requests_total",
			Help: "Total requests settled by the request gateway",
		}, []string{"method", "outcome"}),
		duration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "spagate_gateway_request_duration_seconds",
			Help:    "Time from dispatch to settlement of gateway requests",
			Buckets: prometheus.DefBuckets,
		}, []string{"method"}),
		indicator: factory.NewGauge(prometheus.GaugeOpts{
			Name: "spagate_loading_indicator_visible",
			Help: "1 while the loading indicator is visible",
		}),
	}
}

// WithMetrics はメトリクス記録用のレスポンスインターセプターを追加する。
func WithMetrics(m *Metrics) Option {
	return WithResponseInterceptor(m.Observe)
}

// Observe は完了したリクエストを記録する。
func (m *Metrics) Observe(_ context.Context, req *Request, _ *Response, err error) {
	m.requests.WithLabelValues(req.Method, classify(err)).Inc()
	if !req.SentAt.IsZero() {
		m.duration.WithLabelValues(req.Method).Observe(time.Since(req.SentAt).Seconds())
	}
}

// Show はインジケーター表示中のゲージを1にする。
func (m *Metrics) Show() { m.indicator.Set(1) }

// Hide はインジケーター表示中のゲージを0にする。
func (m *Metrics) Hide() { m.indicator.Set(0) }

func classify(err error) string {
	if err == nil {
		return outcomeSuccess
	}
	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		return outcomeStatusError
	}
	if IsTimeout(err) {
		return outcomeTimeout
	}
	return outcomeError
}
