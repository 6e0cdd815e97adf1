// Package metrics はPrometheusメトリクスの収集と公開を提供する。
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsCollector はメトリクス収集のインターフェース。
// フォーム送信・APIクライアント・ミドルウェア・ワーカーから利用する。
type MetricsCollector interface {
	RecordAuthAttempt(kind, outcome string)
	ObserveAPICall(op, outcome string, duration time.Duration)
	RecordSessionCascade(op string)
	RecordHTTPStatus(statusCode int)
	RecordSessionsCleaned(count int64)
	RecordPanic()
}

// Collector はPrometheusメトリクスを収集する実装。
type Collector struct {
	authAttempts    *prometheus.CounterVec
	apiCalls        *prometheus.CounterVec
	apiLatency      *prometheus.HistogramVec
	sessionCascades *prometheus.CounterVec
	httpStatus      *prometheus.CounterVec
	sessionsCleaned prometheus.Counter
	panics          prometheus.Counter
}

// NewCollector は新しいCollectorを生成し、指定されたレジストリにメトリクスを登録する。
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		authAttempts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "queendahyun_auth_attempts_total",
			Help: "認証試行の合計数（種別・結果別）",
		}, []string{"kind", "outcome"}),
		apiCalls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "queendahyun_api_calls_total",
			Help: "外部API呼び出しの合計数（操作・結果別）",
		}, []string{"op", "outcome"}),
		apiLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "queendahyun_api_latency_seconds",
			Help:    "外部API呼び出しのレイテンシ（秒）",
			Buckets: prometheus.DefBuckets,
		}, []string{"op"}),
		sessionCascades: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "queendahyun_session_cascades_total",
			Help: "トークン拒否によって破棄されたセッション数",
		}, []string{"op"}),
		httpStatus: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "queendahyun_http_status_total",
			Help: "HTTPステータスコード別のレスポンス数",
		}, []string{"status_code"}),
		sessionsCleaned: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "queendahyun_sessions_cleaned_total",
			Help: "期限切れで削除されたブラウザセッション数",
		}),
		panics: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "queendahyun_http_panics_total",
			Help: "ハンドラー内で回復したpanicの数",
		}),
	}

	reg.MustRegister(
		c.authAttempts,
		c.apiCalls,
		c.apiLatency,
		c.sessionCascades,
		c.httpStatus,
		c.sessionsCleaned,
		c.panics,
	)

	return c
}

// RecordAuthAttempt は認証試行（signup, login, google）の結果を記録する。
func (c *Collector) RecordAuthAttempt(kind, outcome string) {
	c.authAttempts.WithLabelValues(kind, outcome).Inc()
}

// ObserveAPICall は外部API呼び出しの結果とレイテンシを記録する。
func (c *Collector) ObserveAPICall(op, outcome string, duration time.Duration) {
	c.apiCalls.WithLabelValues(op, outcome).Inc()
	c.apiLatency.WithLabelValues(op).Observe(duration.Seconds())
}

// RecordSessionCascade はトークン拒否によるセッション破棄を記録する。
func (c *Collector) RecordSessionCascade(op string) {
	c.sessionCascades.WithLabelValues(op).Inc()
}

// RecordHTTPStatus はHTTPステータスコードを記録する。
func (c *Collector) RecordHTTPStatus(statusCode int) {
	c.httpStatus.WithLabelValues(strconv.Itoa(statusCode)).Inc()
}

// RecordSessionsCleaned は削除された期限切れセッション数を記録する。
func (c *Collector) RecordSessionsCleaned(count int64) {
	c.sessionsCleaned.Add(float64(count))
}

// RecordPanic は回復したpanicを記録する。
func (c *Collector) RecordPanic() {
	c.panics.Inc()
}

// Handler はPrometheusスクレイプ用のHTTPハンドラーを返す。
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

// SetupMetricsRoute は/metricsエンドポイントを提供するHTTPハンドラーを返す。
// Prometheusスクレイプに対応する。
func SetupMetricsRoute(gatherer prometheus.Gatherer) http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/metrics", Handler(gatherer))
	return mux
}
