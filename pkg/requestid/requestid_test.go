package requestid_test

import (
	"bytes"
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/storefront/pkg/logger"
	"github.com/dmitrymomot/storefront/pkg/requestid"
)

func serve(t *testing.T, mw func(http.Handler) http.Handler, header string) (string, string) {
	t.Helper()

	var seen string
	h := mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = requestid.FromContext(r.Context())
		w.WriteHeader(http.StatusNoContent)
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if header != "" {
		req.Header.Set(requestid.Header, header)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	require.Equal(t, http.StatusNoContent, rec.Code)

	return seen, rec.Header().Get(requestid.Header)
}

func TestMiddleware(t *testing.T) {
	t.Parallel()

	t.Run("generates an id when none is sent", func(t *testing.T) {
		t.Parallel()
		seen, echoed := serve(t, requestid.Middleware(), "")
		assert.Len(t, seen, 26)
		assert.Equal(t, seen, echoed)
	})

	t.Run("keeps a well formed client id", func(t *testing.T) {
		t.Parallel()
		seen, echoed := serve(t, requestid.Middleware(), "checkout-42_a")
		assert.Equal(t, "checkout-42_a", seen)
		assert.Equal(t, "checkout-42_a", echoed)
	})

	t.Run("replaces malformed client ids", func(t *testing.T) {
		t.Parallel()
		for _, bad := range []string{"a b", "x/y", "<script>", strings.Repeat("a", 129)} {
			seen, echoed := serve(t, requestid.Middleware(), bad)
			assert.NotEqual(t, bad, seen)
			assert.Equal(t, seen, echoed)
		}
	})

	t.Run("custom generator", func(t *testing.T) {
		t.Parallel()
		mw := requestid.Middleware(requestid.WithGenerator(func() string { return "fixed" }))
		seen, _ := serve(t, mw, "")
		assert.Equal(t, "fixed", seen)
	})
}

func TestValid(t *testing.T) {
	t.Parallel()

	assert.True(t, requestid.Valid("01J9Z3"))
	assert.True(t, requestid.Valid(strings.Repeat("a", 128)))
	assert.False(t, requestid.Valid(""))
	assert.False(t, requestid.Valid(strings.Repeat("a", 129)))
	assert.False(t, requestid.Valid("a@b"))
}

func TestLoggerExtractor(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	log := logger.New(
		logger.WithOutput(&buf),
		logger.WithContextExtractors(requestid.LoggerExtractor()),
	)

	log.InfoContext(requestid.WithContext(context.Background(), "req-1"), "hello")
	assert.Contains(t, buf.String(), `"request_id":"req-1"`)

	buf.Reset()
	log.Log(context.Background(), slog.LevelInfo, "no id")
	assert.NotContains(t, buf.String(), "request_id")
}
