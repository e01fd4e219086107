package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"
)

// Pinger は依存先の疎通確認を行うインターフェース。*sql.DBと*redis.Clientのラッパーが実装する。
type Pinger interface {
	PingContext(ctx context.Context) error
}

// HealthHandler はヘルスチェックのHTTPハンドラー。
type HealthHandler struct {
	pingers map[string]Pinger
	timeout time.Duration
}

// NewHealthHandler はHealthHandlerを生成する。
func NewHealthHandler(pingers map[string]Pinger) *HealthHandler {
	return &HealthHandler{pingers: pingers, timeout: 3 * time.Second}
}

type healthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}

// Health は依存先すべての疎通を確認する。1つでも失敗した場合は503を返す。
// GET /health
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	resp := healthResponse{Status: "ok", Checks: make(map[string]string, len(h.pingers))}
	for name, p := range h.pingers {
		if err := p.PingContext(ctx); err != nil {
			slog.Error("health check failed", slog.String("target", name), slog.String("error", err.Error()))
			resp.Status = "unavailable"
			resp.Checks[name] = "ng"
			continue
		}
		resp.Checks[name] = "ok"
	}

	status := http.StatusOK
	if resp.Status != "ok" {
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, resp)
}
