package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/hitoshi/queendahyun/internal/middleware"
	"github.com/hitoshi/queendahyun/internal/model"
)

// HealthChecker は依存先の疎通確認を行う。*sql.DBが満たす。
type HealthChecker interface {
	PingContext(ctx context.Context) error
}

// HealthResponse はヘルスチェックの応答。
type HealthResponse struct {
	Status  string `json:"status"`
	Storage string `json:"storage"`
}

// NewHealthHandler はヘルスチェックハンドラーを返す。
// checkerがnilの場合（メモリストレージ）はストレージを"memory"として常に正常とみなす。
// GET /health
func NewHealthHandler(checker HealthChecker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		resp := HealthResponse{Status: "ok", Storage: "memory"}

		if checker != nil {
			ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
			defer cancel()
			if err := checker.PingContext(ctx); err != nil {
				slog.Error("health check failed", slog.String("error", err.Error()))
				middleware.WriteErrorResponse(w, http.StatusServiceUnavailable, model.NewUnavailableError("database"))
				return
			}
			resp.Storage = "postgres"
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		json.NewEncoder(w).Encode(resp)
	}
}

// writeSessionUnavailable はセッションストレージに到達できない場合の応答を書き込む。
func writeSessionUnavailable(w http.ResponseWriter) {
	middleware.WriteErrorResponse(w, http.StatusServiceUnavailable, model.NewUnavailableError("session storage"))
}
