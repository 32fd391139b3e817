package itest

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/zamalek-residents/member-registry/internal/adapters/httpapi"
	memclock "github.com/zamalek-residents/member-registry/internal/adapters/memory/clock"
	memmemberrepo "github.com/zamalek-residents/member-registry/internal/adapters/memory/memberrepo"
	postgres_testutil "github.com/zamalek-residents/member-registry/internal/adapters/postgres/testutil"
	sqlmemberrepo "github.com/zamalek-residents/member-registry/internal/adapters/sqlstore/memberrepo"
	xlsxmemberrepo "github.com/zamalek-residents/member-registry/internal/adapters/xlsx/memberrepo"
	"github.com/zamalek-residents/member-registry/internal/app/auth"
	"github.com/zamalek-residents/member-registry/internal/app/members"
	"github.com/zamalek-residents/member-registry/internal/platform/database"
	"github.com/zamalek-residents/member-registry/internal/platform/metrics"
	memberrepoport "github.com/zamalek-residents/member-registry/internal/ports/out/memberrepo"
)

type backend string

const (
	backendMemory   backend = "memory"
	backendSQLite   backend = "sqlite"
	backendXLSX     backend = "xlsx"
	backendPostgres backend = "postgres"
)

func backendsFromEnv(t *testing.T) []backend {
	t.Helper()
	switch strings.ToLower(strings.TrimSpace(os.Getenv("ITEST_BACKEND"))) {
	case "", "local":
		return []backend{backendMemory, backendSQLite, backendXLSX}
	case "memory":
		return []backend{backendMemory}
	case "sqlite":
		return []backend{backendSQLite}
	case "xlsx":
		return []backend{backendXLSX}
	case "postgres":
		return []backend{backendPostgres}
	case "all":
		return []backend{backendMemory, backendSQLite, backendXLSX, backendPostgres}
	default:
		t.Fatalf("unknown ITEST_BACKEND value (expected local|memory|sqlite|xlsx|postgres|all)")
		return nil
	}
}

type testServer struct {
	baseURL string
	client  *http.Client
}

// newTestServer starts the full router over a backend seeded with the sample members.
func newTestServer(t *testing.T, b backend) *testServer {
	t.Helper()

	clk := memclock.NewManualClock(time.Date(2024, 4, 1, 10, 0, 0, 0, time.UTC))
	ctx := context.Background()

	var memberRepo memberrepoport.Repository
	switch b {
	case backendMemory:
		memberRepo = memmemberrepo.NewSeededRepo()
	case backendSQLite:
		db, err := database.OpenSQLite(filepath.Join(t.TempDir(), "registry.db"), database.Options{})
		if err != nil {
			t.Fatalf("open sqlite: %v", err)
		}
		t.Cleanup(func() { _ = database.Close(db) })
		repo, err := sqlmemberrepo.Open(ctx, db, true)
		if err != nil {
			t.Fatalf("open sql repo: %v", err)
		}
		memberRepo = repo
	case backendXLSX:
		repo, err := xlsxmemberrepo.Open(filepath.Join(t.TempDir(), "members.xlsx"))
		if err != nil {
			t.Fatalf("open xlsx repo: %v", err)
		}
		memberRepo = repo
	case backendPostgres:
		pool := postgres_testutil.OpenPool(t)
		postgres_testutil.ResetMembers(t, pool)
		db, err := database.OpenPostgres(pool, database.Options{})
		if err != nil {
			t.Fatalf("open postgres gorm: %v", err)
		}
		repo, err := sqlmemberrepo.Open(ctx, db, true)
		if err != nil {
			t.Fatalf("open sql repo: %v", err)
		}
		memberRepo = repo
	default:
		t.Fatalf("unknown backend: %s", b)
	}

	creds, err := auth.HashCredentials(auth.DefaultUsers(), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("hash credentials: %v", err)
	}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	api := httpapi.NewServer(members.NewService(memberRepo, clk), auth.NewService(creds), metrics.New(), logger)
	handler := httpapi.NewRouter(api, httpapi.RouterOptions{Logger: logger})

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	return &testServer{
		baseURL: srv.URL,
		client:  srv.Client(),
	}
}

func (s *testServer) url(path string) string {
	if strings.HasPrefix(path, "/") {
		return s.baseURL + path
	}
	return s.baseURL + "/" + path
}

func (s *testServer) doJSON(t *testing.T, method string, path string, body any) (int, []byte, http.Header) {
	t.Helper()

	var r io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		r = bytes.NewReader(b)
	}
	req, err := http.NewRequest(method, s.url(path), r)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		t.Fatalf("do request: %v", err)
	}
	defer resp.Body.Close()
	out, _ := io.ReadAll(resp.Body)
	return resp.StatusCode, out, resp.Header
}

type envelope struct {
	Success  bool            `json:"success"`
	Message  string          `json:"message"`
	Data     json.RawMessage `json:"data"`
	Count    *int            `json:"count"`
	Username string          `json:"username"`
}

func mustUnmarshal[T any](t *testing.T, b []byte) T {
	t.Helper()
	var out T
	if err := json.Unmarshal(b, &out); err != nil {
		t.Fatalf("unmarshal: %v\nbody=%s", err, string(b))
	}
	return out
}

// requireStatus checks the status and the envelope's success flag.
func requireStatus(t *testing.T, status int, body []byte, want int) envelope {
	t.Helper()
	if status != want {
		t.Fatalf("status=%d want=%d body=%s", status, want, string(body))
	}
	env := mustUnmarshal[envelope](t, body)
	if env.Success != (want == http.StatusOK) {
		t.Fatalf("success=%v for status %d body=%s", env.Success, status, string(body))
	}
	return env
}

func requireHeaderPresent(t *testing.T, h http.Header, key string) {
	t.Helper()
	if strings.TrimSpace(h.Get(key)) == "" {
		t.Fatalf("expected header %q to be present", key)
	}
}
