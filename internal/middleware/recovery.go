package middleware

import (
	"log/slog"
	"net/http"
	"runtime/debug"
)

// PanicRecorder はハンドラー内で回復したpanicの記録先。
type PanicRecorder interface {
	RecordPanic()
}

// NewRecoveryMiddleware はハンドラーのpanicを回復して500を返すミドルウェアを生成する。
// recorderがnilの場合は記録しない。
// レスポンスを書き始めた後のpanicではステータスを書き換えられないため、接続を中断する。
func NewRecoveryMiddleware(recorder PanicRecorder) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sr := &statusRecorder{ResponseWriter: w, statusCode: http.StatusOK}
			defer func() {
				rec := recover()
				if rec == nil {
					return
				}
				if rec == http.ErrAbortHandler {
					panic(rec)
				}
				if recorder != nil {
					recorder.RecordPanic()
				}
				// ロギングミドルウェアより外側にいるため、リクエストIDはレスポンスヘッダーから読む
				slog.Error("panic recovered",
					slog.Any("panic", rec),
					slog.String("request_id", w.Header().Get(RequestIDHeader)),
					slog.String("method", r.Method),
					slog.String("path", r.URL.Path),
					slog.Bool("response_started", sr.written),
					slog.String("stack", string(debug.Stack())),
				)
				if sr.written {
					panic(http.ErrAbortHandler)
				}
				WriteInternalServerError(w)
			}()
			next.ServeHTTP(sr, r)
		})
	}
}
