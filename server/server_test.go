package server

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/blogem/devlog-collector/client"
	"github.com/blogem/devlog-collector/controllers"
	"github.com/blogem/devlog-collector/database"
	"github.com/blogem/devlog-collector/models"
	"github.com/blogem/devlog-collector/repositories"
	"github.com/blogem/devlog-collector/services"
)

type testServer struct {
	baseURL string
	repos   *repositories.Repositories
}

func startServer(t *testing.T, repos *repositories.Repositories, policy AcceptPolicy) *testServer {
	t.Helper()

	ctrl := controllers.NewControllers(services.NewServices(repos), controllers.DefaultDashboardSettings)
	router := NewRouter(ctrl, RouterOptions{Quiet: true, Audit: repos.Audit})

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- New(router, policy).Serve(ctx, ln)
	}()

	t.Cleanup(func() {
		cancel()
		select {
		case err := <-done:
			assert.NoError(t, err)
		case <-time.After(10 * time.Second):
			t.Error("server did not shut down")
		}
	})

	return &testServer{baseURL: "http://" + ln.Addr().String(), repos: repos}
}

func noRedirectClient() *http.Client {
	return &http.Client{
		Timeout: 5 * time.Second,
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}
}

func fetchLogs(t *testing.T, baseURL string) []models.LogRecord {
	t.Helper()
	resp, err := http.Get(baseURL + "/logs")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var records []models.LogRecord
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&records))
	return records
}

func TestServer_Routes(t *testing.T) {
	srv := startServer(t, repositories.NewRepositories(repositories.DefaultLogCapacity, nil), nil)
	hc := noRedirectClient()

	tests := []struct {
		method string
		path   string
		status int
	}{
		{http.MethodGet, "/", http.StatusOK},
		{http.MethodGet, "/logs", http.StatusOK},
		{http.MethodGet, "/health", http.StatusOK},
		{http.MethodGet, "/clear", http.StatusFound},
		{http.MethodGet, "/log", http.StatusNotFound},
		{http.MethodPost, "/logs", http.StatusNotFound},
		{http.MethodDelete, "/", http.StatusNotFound},
		{http.MethodGet, "/nope", http.StatusNotFound},
		{http.MethodPut, "/log", http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			req, err := http.NewRequest(tt.method, srv.baseURL+tt.path, nil)
			require.NoError(t, err)

			resp, err := hc.Do(req)
			require.NoError(t, err)
			io.Copy(io.Discard, resp.Body)
			resp.Body.Close()

			assert.Equal(t, tt.status, resp.StatusCode)
			if tt.status == http.StatusFound {
				assert.Equal(t, "/", resp.Header.Get("Location"))
			}
		})
	}
}

func TestServer_IngestExportClear(t *testing.T) {
	srv := startServer(t, repositories.NewRepositories(repositories.DefaultLogCapacity, nil), nil)
	ctx := context.Background()

	plain := client.New(srv.baseURL)
	gzipped := client.New(srv.baseURL, client.WithGzip())

	for i := 1; i <= 5; i++ {
		c := plain
		if i%2 == 0 {
			c = gzipped
		}
		record := *models.NewLogRecord()
		record.Tag = fmt.Sprintf("R%d", i)
		require.NoError(t, c.Send(ctx, record))
	}

	records := fetchLogs(t, srv.baseURL)
	require.Len(t, records, 5)
	for i, r := range records {
		assert.Equal(t, fmt.Sprintf("R%d", i+1), r.Tag)
		assert.Equal(t, "127.0.0.1", r.ClientIP)
		assert.NotEmpty(t, r.ServerTimestamp)
	}

	resp, err := noRedirectClient().Get(srv.baseURL + "/clear")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusFound, resp.StatusCode)

	assert.Empty(t, fetchLogs(t, srv.baseURL))
}

func TestServer_MalformedIngest(t *testing.T) {
	srv := startServer(t, repositories.NewRepositories(repositories.DefaultLogCapacity, nil), nil)

	resp, err := http.Post(srv.baseURL+"/log", "application/json", strings.NewReader(`{"tag": `))
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()

	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	assert.Contains(t, string(body), "Error processing log")
	assert.Equal(t, 0, srv.repos.Logs.Size())

	err = client.New(srv.baseURL).Send(context.Background(), models.LogRecord{Extra: map[string]json.RawMessage{"x": json.RawMessage(`1`)}})
	assert.NoError(t, err, "empty strings are valid field values")
}

func TestServer_ConcurrentClients(t *testing.T) {
	const (
		clients   = 10
		perClient = 150
	)
	srv := startServer(t, repositories.NewRepositories(repositories.DefaultLogCapacity, nil), nil)

	var wg sync.WaitGroup
	errs := make(chan error, clients)
	for c := 0; c < clients; c++ {
		wg.Add(1)
		go func(c int) {
			defer wg.Done()
			cl := client.New(srv.baseURL)
			for i := 0; i < perClient; i++ {
				record := *models.NewLogRecord()
				record.Tag = fmt.Sprintf("client%d", c)
				record.Message = fmt.Sprintf("client%d-%d", c, i)
				if err := cl.Send(context.Background(), record); err != nil {
					errs <- err
					return
				}
			}
		}(c)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	records := fetchLogs(t, srv.baseURL)
	require.Len(t, records, repositories.DefaultLogCapacity)

	seen := make(map[string]bool, len(records))
	for _, r := range records {
		assert.False(t, seen[r.Message], "duplicate record %s", r.Message)
		seen[r.Message] = true
	}
}

func TestServer_PeerDisconnectDoesNotAffectOthers(t *testing.T) {
	srv := startServer(t, repositories.NewRepositories(repositories.DefaultLogCapacity, nil), nil)
	for i := 0; i < 50; i++ {
		require.NoError(t, client.New(srv.baseURL).Send(context.Background(), *models.NewLogRecord()))
	}

	addr := strings.TrimPrefix(srv.baseURL, "http://")
	for i := 0; i < 20; i++ {
		conn, err := net.Dial("tcp", addr)
		require.NoError(t, err)
		fmt.Fprintf(conn, "GET /logs HTTP/1.1\r\nHost: %s\r\n\r\n", addr)
		// Close without reading the response
		conn.Close()
	}

	resp, err := http.Get(srv.baseURL + "/")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Len(t, fetchLogs(t, srv.baseURL), 50)
}

func TestServer_AuditTrail(t *testing.T) {
	db, err := database.Open(filepath.Join(t.TempDir(), "audit.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	repos := repositories.NewRepositories(repositories.DefaultLogCapacity, db)
	srv := startServer(t, repos, nil)

	require.NoError(t, client.New(srv.baseURL).Send(context.Background(), *models.NewLogRecord()))
	resp, err := noRedirectClient().Get(srv.baseURL + "/clear")
	require.NoError(t, err)
	resp.Body.Close()

	assert.Eventually(t, func() bool {
		entries, err := repos.Audit.Recent(context.Background(), 10)
		return err == nil && len(entries) == 2
	}, 3*time.Second, 20*time.Millisecond)

	entries, err := repos.Audit.Recent(context.Background(), 10)
	require.NoError(t, err)
	paths := []string{entries[0].Path, entries[1].Path}
	assert.ElementsMatch(t, []string{"/log", "/clear"}, paths)
}

func TestServer_MaxConnectionsPolicy(t *testing.T) {
	srv := startServer(t, repositories.NewRepositories(repositories.DefaultLogCapacity, nil), MaxConnections(2))

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			// Fresh transports so every request needs its own connection
			hc := &http.Client{Timeout: 5 * time.Second, Transport: &http.Transport{DisableKeepAlives: true}}
			resp, err := hc.Get(srv.baseURL + "/health")
			if assert.NoError(t, err) {
				resp.Body.Close()
				assert.Equal(t, http.StatusOK, resp.StatusCode)
			}
		}()
	}
	wg.Wait()
}

func TestAcceptPolicies(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()

	assert.Same(t, ln, Unbounded().Wrap(ln))
	assert.Same(t, ln, MaxConnections(0).Wrap(ln))
	assert.NotSame(t, ln, MaxConnections(4).Wrap(ln))
}
