package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

// findCounter はラベルが一致するカウンタの値を返す。見つからない場合はfalse。
func findCounter(t *testing.T, reg *prometheus.Registry, name string, labels map[string]string) (float64, bool) {
	t.Helper()

	mfs, err := reg.Gather()
	if err != nil {
		t.Fatalf("failed to gather metrics: %v", err)
	}
	for _, mf := range mfs {
		if mf.GetName() != name {
			continue
		}
		for _, m := range mf.GetMetric() {
			if labelsMatch(m, labels) {
				return m.GetCounter().GetValue(), true
			}
		}
	}
	return 0, false
}

func labelsMatch(m *dto.Metric, want map[string]string) bool {
	got := make(map[string]string, len(m.GetLabel()))
	for _, lp := range m.GetLabel() {
		got[lp.GetName()] = lp.GetValue()
	}
	for k, v := range want {
		if got[k] != v {
			return false
		}
	}
	return true
}

// TestNewCollector_ReturnsNonNil はCollectorが正常に生成されることを検証する。
func TestNewCollector_ReturnsNonNil(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	if c == nil {
		t.Fatal("expected non-nil Collector")
	}
}

// TestRecordApprovalDecision_IncrementsCounterWithLabels は審査件数がラベル別に増加することを検証する。
func TestRecordApprovalDecision_IncrementsCounterWithLabels(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	c.RecordApprovalDecision("identity", "approve", ResultSuccess)
	c.RecordApprovalDecision("identity", "approve", ResultSuccess)
	c.RecordApprovalDecision("career", "reject", ResultSkipped)

	val, ok := findCounter(t, reg, "careerconsult_approval_decisions_total",
		map[string]string{"kind": "identity", "decision": "approve", "result": ResultSuccess})
	if !ok {
		t.Fatal("identity approve counter not found")
	}
	if val != 2 {
		t.Errorf("identity approve = %v, want 2", val)
	}

	val, ok = findCounter(t, reg, "careerconsult_approval_decisions_total",
		map[string]string{"kind": "career", "decision": "reject", "result": ResultSkipped})
	if !ok || val != 1 {
		t.Errorf("career reject skipped = %v (found=%v), want 1", val, ok)
	}
}

// TestRecordSettlement_IncrementsCounter は精算操作の件数が増加することを検証する。
func TestRecordSettlement_IncrementsCounter(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	c.RecordSettlement("make_payment", ResultBusinessError)

	val, ok := findCounter(t, reg, "careerconsult_settlements_total",
		map[string]string{"operation": "make_payment", "result": ResultBusinessError})
	if !ok || val != 1 {
		t.Errorf("make_payment business_error = %v (found=%v), want 1", val, ok)
	}
}

// TestRecordPaymentCall_RecordsResultAndLatency は決済呼び出しの結果とレイテンシが記録されることを検証する。
func TestRecordPaymentCall_RecordsResultAndLatency(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	c.RecordPaymentCall("capture", true, 200*time.Millisecond)
	c.RecordPaymentCall("capture", false, 2*time.Second)

	if val, ok := findCounter(t, reg, "careerconsult_payment_calls_total",
		map[string]string{"operation": "capture", "result": ResultSuccess}); !ok || val != 1 {
		t.Errorf("capture success = %v (found=%v), want 1", val, ok)
	}
	if val, ok := findCounter(t, reg, "careerconsult_payment_calls_total",
		map[string]string{"operation": "capture", "result": ResultError}); !ok || val != 1 {
		t.Errorf("capture error = %v (found=%v), want 1", val, ok)
	}

	mfs, err := reg.Gather()
	if err != nil {
		t.Fatalf("failed to gather metrics: %v", err)
	}
	for _, mf := range mfs {
		if mf.GetName() == "careerconsult_payment_call_latency_seconds" {
			h := mf.GetMetric()[0].GetHistogram()
			if h.GetSampleCount() != 2 {
				t.Errorf("sample count = %d, want 2", h.GetSampleCount())
			}
			return
		}
	}
	t.Error("careerconsult_payment_call_latency_seconds metric not found")
}

// TestRecordMfaVerification_IncrementsCounter は二段階認証の検証件数が記録されることを検証する。
func TestRecordMfaVerification_IncrementsCounter(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	c.RecordMfaVerification("pass_code", false)

	if val, ok := findCounter(t, reg, "careerconsult_mfa_verifications_total",
		map[string]string{"method": "pass_code", "result": ResultBusinessError}); !ok || val != 1 {
		t.Errorf("pass_code failure = %v (found=%v), want 1", val, ok)
	}
}

// TestRecordHTTPStatus_IncrementsCounterWithLabel はステータスコード別に記録されることを検証する。
func TestRecordHTTPStatus_IncrementsCounterWithLabel(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	c.RecordHTTPStatus(200)
	c.RecordHTTPStatus(200)
	c.RecordHTTPStatus(400)

	if val, ok := findCounter(t, reg, "careerconsult_http_status_total", map[string]string{"status_code": "200"}); !ok || val != 2 {
		t.Errorf("status 200 = %v (found=%v), want 2", val, ok)
	}
	if val, ok := findCounter(t, reg, "careerconsult_http_status_total", map[string]string{"status_code": "400"}); !ok || val != 1 {
		t.Errorf("status 400 = %v (found=%v), want 1", val, ok)
	}
}

// TestMetricsHandler_ReturnsPrometheusFormat は/metricsエンドポイントがPrometheus形式で返すことを検証する。
func TestMetricsHandler_ReturnsPrometheusFormat(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	c.RecordApprovalDecision("identity", "approve", ResultSuccess)
	c.RecordSettlement("refund", ResultSuccess)
	c.RecordPaymentCall("refund", true, 100*time.Millisecond)
	c.RecordHTTPStatus(200)

	handler := Handler(reg)
	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	w := httptest.NewRecorder()

	handler.ServeHTTP(w, req)

	resp := w.Result()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d, want %d", resp.StatusCode, http.StatusOK)
	}

	body, _ := io.ReadAll(resp.Body)
	bodyStr := string(body)

	expectedMetrics := []string{
		"careerconsult_approval_decisions_total",
		"careerconsult_settlements_total",
		"careerconsult_payment_calls_total",
		"careerconsult_payment_call_latency_seconds",
		"careerconsult_http_status_total",
	}
	for _, metric := range expectedMetrics {
		if !strings.Contains(bodyStr, metric) {
			t.Errorf("response body does not contain %q", metric)
		}
	}
}

// TestNopCollector_DoesNotPanic はNopCollectorが何もせずに戻ることを検証する。
func TestNopCollector_DoesNotPanic(t *testing.T) {
	var c MetricsCollector = NopCollector{}
	c.RecordApprovalDecision("identity", "approve", ResultSuccess)
	c.RecordSettlement("refund", ResultError)
	c.RecordPaymentCall("refund", false, time.Second)
	c.RecordMfaVerification("recovery_code", true)
	c.RecordHTTPStatus(500)
}

// TestMultipleCollectors_IndependentRegistries は異なるレジストリで独立に動作することを検証する。
func TestMultipleCollectors_IndependentRegistries(t *testing.T) {
	reg1 := prometheus.NewRegistry()
	reg2 := prometheus.NewRegistry()
	c1 := NewCollector(reg1)
	c2 := NewCollector(reg2)

	c1.RecordHTTPStatus(200)
	c2.RecordHTTPStatus(200)
	c2.RecordHTTPStatus(200)

	val1, _ := findCounter(t, reg1, "careerconsult_http_status_total", map[string]string{"status_code": "200"})
	val2, _ := findCounter(t, reg2, "careerconsult_http_status_total", map[string]string{"status_code": "200"})

	if val1 != 1 {
		t.Errorf("reg1 status 200 = %v, want 1", val1)
	}
	if val2 != 2 {
		t.Errorf("reg2 status 200 = %v, want 2", val2)
	}
}
