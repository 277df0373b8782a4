package logger

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func useObservedLogger(t *testing.T) *observer.ObservedLogs {
	t.Helper()
	core, logs := observer.New(zapcore.DebugLevel)
	restore := zap.ReplaceGlobals(zap.New(core))
	t.Cleanup(restore)
	return logs
}

func TestDescribeSQL(t *testing.T) {
	cases := []struct {
		sql, op, table string
	}{
		{`SELECT * FROM "bills" WHERE id = ?`, "SELECT", "bills"},
		{"INSERT INTO `payments` (`id`) VALUES (?)", "INSERT", "payments"},
		{`UPDATE bills SET status = ? WHERE id = ?`, "UPDATE", "bills"},
		{`DELETE FROM water_tariffs WHERE id = ?`, "DELETE", "water_tariffs"},
		{`WITH t AS (SELECT 1) SELECT * FROM t`, "SELECT", "t"},
		{``, "UNKNOWN", ""},
	}
	for _, tc := range cases {
		op, table := describeSQL(tc.sql)
		assert.Equal(t, tc.op, op, tc.sql)
		assert.Equal(t, tc.table, table, tc.sql)
	}
}

func TestAccessLevel(t *testing.T) {
	assert.Equal(t, zapcore.DebugLevel, accessLevel("/health", http.StatusOK))
	assert.Equal(t, zapcore.InfoLevel, accessLevel("/api/bills/:id", http.StatusOK))
	assert.Equal(t, zapcore.InfoLevel, accessLevel("/api/bills/:id", http.StatusNotFound))
	assert.Equal(t, zapcore.WarnLevel, accessLevel("/api/bills/:id/pay", http.StatusConflict))
	assert.Equal(t, zapcore.ErrorLevel, accessLevel("/api/bills/:id/pay", http.StatusInternalServerError))
}

func TestGinMiddlewareLogsRequestWithCorrelationFields(t *testing.T) {
	gin.SetMode(gin.TestMode)
	logs := useObservedLogger(t)

	r := gin.New()
	r.Use(GinMiddleware(MiddlewareConfig{
		ErrorClassifier: func(error) (string, string) { return "conflict", "duplicate_bill" },
	}))
	r.POST("/api/villages/:village_id/bills", func(c *gin.Context) {
		_ = c.Error(assert.AnError)
		c.Status(http.StatusConflict)
	})

	req := httptest.NewRequest(http.MethodPost, "/api/villages/v-1/bills", nil)
	req.Header.Set(HeaderRequestID, "req-42")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, "req-42", w.Header().Get(HeaderRequestID))
	entries := logs.FilterMessage("http_request").All()
	require.Len(t, entries, 1)
	assert.Equal(t, zapcore.WarnLevel, entries[0].Level)

	fields := entries[0].ContextMap()
	assert.Equal(t, "req-42", fields["request_id"])
	assert.Equal(t, "v-1", fields["village_id"])
	assert.Equal(t, "conflict", fields["error_type"])
	assert.Equal(t, "duplicate_bill", fields["error_code"])
}

func TestGinMiddlewareGeneratesRequestID(t *testing.T) {
	gin.SetMode(gin.TestMode)
	useObservedLogger(t)

	r := gin.New()
	r.Use(GinMiddleware(MiddlewareConfig{}))
	r.GET("/health", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Len(t, w.Header().Get(HeaderRequestID), 36)
}

func TestWithContextWithoutFieldsReturnsBase(t *testing.T) {
	base := zap.NewNop()
	assert.Same(t, base, WithContext(context.Background(), base))
	assert.Equal(t, "abc", RequestIDFromContext(WithRequestID(context.Background(), " abc ")))
}
