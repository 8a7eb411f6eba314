package httpapi

import (
	"net/http"
	"net/http/httptest"
	"testing"

	sqlmock "github.com/DATA-DOG/go-sqlmock"

	"github.com/withobsrvr/referral-accrual-engine/internal/logging"
)

func newTestServer(t *testing.T) (*Server, sqlmock.Sqlmock, func()) {
	t.Helper()
	db, mock, err := sqlmock.New(
		sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp),
		sqlmock.MonitorPingsOption(true),
	)
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	logger := logging.NewComponentLogger("test", "v0.0.0-test")
	srv := New(db, logger, Defaults{})
	return srv, mock, func() { db.Close() }
}

func TestHealthzAlwaysOK(t *testing.T) {
	srv, _, closeFn := newTestServer(t)
	defer closeFn()

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", rec.Code)
	}
}

func TestReadyzFailsWhenStoreUnreachable(t *testing.T) {
	srv, mock, closeFn := newTestServer(t)
	defer closeFn()

	mock.ExpectPing().WillReturnError(http.ErrServerClosed)

	req := httptest.NewRequest(http.MethodGet, "/readyz", nil)
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)

	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want 503", rec.Code)
	}
}
