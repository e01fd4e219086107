// Package metrics はPrometheusメトリクスの収集と公開を提供する。
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// 処理結果のラベル値
const (
	ResultSuccess       = "success"
	ResultBusinessError = "business_error"
	ResultError         = "error"
	// ResultSkipped は対象アカウントが存在しない・無効化済みのため申請のみ破棄した場合。
	ResultSkipped = "skipped"
)

// MetricsCollector はメトリクス収集のインターフェース。
// サービス層やミドルウェアから利用する。
type MetricsCollector interface {
	RecordApprovalDecision(kind, decision, result string)
	RecordSettlement(operation, result string)
	RecordPaymentCall(operation string, success bool, duration time.Duration)
	RecordMfaVerification(method string, success bool)
	RecordHTTPStatus(statusCode int)
}

// Collector はPrometheusメトリクスを収集する実装。
type Collector struct {
	approvalDecisions *prometheus.CounterVec
	settlements       *prometheus.CounterVec
	paymentCalls      *prometheus.CounterVec
	paymentLatency    *prometheus.HistogramVec
	mfaVerifications  *prometheus.CounterVec
	httpStatus        *prometheus.CounterVec
}

var _ MetricsCollector = (*Collector)(nil)

// NewCollector は新しいCollectorを生成し、指定されたレジストリにメトリクスを登録する。
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		approvalDecisions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "careerconsult_approval_decisions_total",
			Help: "本人確認・職務経歴申請の審査件数",
		}, []string{"kind", "decision", "result"}),
		settlements: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "careerconsult_settlements_total",
			Help: "精算操作の件数",
		}, []string{"operation", "result"}),
		paymentCalls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "careerconsult_payment_calls_total",
			Help: "決済サービス呼び出しの件数",
		}, []string{"operation", "result"}),
		paymentLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "careerconsult_payment_call_latency_seconds",
			Help:    "決済サービス呼び出しのレイテンシ（秒）",
			Buckets: prometheus.DefBuckets,
		}, []string{"operation"}),
		mfaVerifications: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "careerconsult_mfa_verifications_total",
			Help: "二段階認証の検証件数",
		}, []string{"method", "result"}),
		httpStatus: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "careerconsult_http_status_total",
			Help: "HTTPステータスコード別のレスポンス数",
		}, []string{"status_code"}),
	}

	reg.MustRegister(
		c.approvalDecisions,
		c.settlements,
		c.paymentCalls,
		c.paymentLatency,
		c.mfaVerifications,
		c.httpStatus,
	)

	return c
}

// RecordApprovalDecision は申請の審査結果を記録する。
func (c *Collector) RecordApprovalDecision(kind, decision, result string) {
	c.approvalDecisions.WithLabelValues(kind, decision, result).Inc()
}

// RecordSettlement は精算操作の結果を記録する。
func (c *Collector) RecordSettlement(operation, result string) {
	c.settlements.WithLabelValues(operation, result).Inc()
}

// RecordPaymentCall は決済サービス呼び出しの結果とレイテンシを記録する。
func (c *Collector) RecordPaymentCall(operation string, success bool, duration time.Duration) {
	result := ResultSuccess
	if !success {
		result = ResultError
	}
	c.paymentCalls.WithLabelValues(operation, result).Inc()
	c.paymentLatency.WithLabelValues(operation).Observe(duration.Seconds())
}

// RecordMfaVerification は二段階認証の検証結果を記録する。
func (c *Collector) RecordMfaVerification(method string, success bool) {
	result := ResultSuccess
	if !success {
		result = ResultBusinessError
	}
	c.mfaVerifications.WithLabelValues(method, result).Inc()
}

// RecordHTTPStatus はHTTPステータスコードを記録する。
func (c *Collector) RecordHTTPStatus(statusCode int) {
	c.httpStatus.WithLabelValues(strconv.Itoa(statusCode)).Inc()
}

// NopCollector は何も記録しないMetricsCollector。テストやメトリクス無効時に使う。
type NopCollector struct{}

var _ MetricsCollector = NopCollector{}

func (NopCollector) RecordApprovalDecision(kind, decision, result string)                   {}
func (NopCollector) RecordSettlement(operation, result string)                              {}
func (NopCollector) RecordPaymentCall(operation string, success bool, duration time.Duration) {}
func (NopCollector) RecordMfaVerification(method string, success bool)                      {}
func (NopCollector) RecordHTTPStatus(statusCode int)                                        {}

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
