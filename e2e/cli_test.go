package e2e_test

import (
	"archive/zip"
	"context"
	"encoding/json"
	"log/slog"
	"net"
	"net/http"
	"net/http/httptest"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/replaybrowser/replaybrowser/internal/api"
	"github.com/replaybrowser/replaybrowser/internal/factory"
	"github.com/replaybrowser/replaybrowser/internal/model"
)

// cliRunner manages CLI binary execution
type cliRunner struct {
	binaryPath string
	serverURL  string
	tokenFile  string
}

func newCLIRunner(t *testing.T, serverURL string) *cliRunner {
	t.Helper()

	// Find project root (where go.mod is)
	projectRoot := findProjectRoot(t)

	// Build the CLI binary
	binaryPath := filepath.Join(projectRoot, "bin", "rplbrowse-test")
	cmd := exec.Command("go", "build", "-o", binaryPath, "./cmd/rplbrowse")
	cmd.Dir = projectRoot
	output, err := cmd.CombinedOutput()
	require.NoError(t, err, "failed to build CLI: %s", string(output))

	// Create temp token file
	tokenFile := filepath.Join(t.TempDir(), "token")

	return &cliRunner{
		binaryPath: binaryPath,
		serverURL:  serverURL,
		tokenFile:  tokenFile,
	}
}

func (r *cliRunner) run(args ...string) (string, error) {
	fullArgs := append([]string{
		"--server", r.serverURL,
		"--token-file", r.tokenFile,
		"--output", "json",
	}, args...)

	cmd := exec.Command(r.binaryPath, fullArgs...)
	output, err := cmd.CombinedOutput()
	return string(output), err
}

func (r *cliRunner) runWithToken(token string, args ...string) (string, error) {
	fullArgs := append([]string{
		"--server", r.serverURL,
		"--token", token,
		"--output", "json",
	}, args...)

	cmd := exec.Command(r.binaryPath, fullArgs...)
	output, err := cmd.CombinedOutput()
	return string(output), err
}

func findProjectRoot(t *testing.T) string {
	t.Helper()

	dir, err := os.Getwd()
	require.NoError(t, err)

	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			t.Fatal("could not find project root (go.mod)")
		}
		dir = parent
	}
}

// testServer manages a real HTTP server plus a stub identity provider
type testServer struct {
	app      *factory.App
	addr     string
	shutdown func()
}

// stub identity provider: username is "u-" + identifier unless overridden
var identityNames = map[string]string{
	"alice-id": "Alice",
	"bob-id":   "Bob",
	"root-id":  "Root",
}

func startTestServer(t *testing.T) *testServer {
	t.Helper()

	identitySrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := strings.TrimPrefix(r.URL.Path, "/players/")
		name, ok := identityNames[id]
		if !ok {
			name = "u-" + id
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]string{"userId": id, "userName": name})
	}))

	// Find a free port
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := listener.Addr().String()
	require.NoError(t, listener.Close())

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))

	app, err := factory.New(context.Background(), factory.Config{
		Logger:         logger,
		StorageType:    factory.StorageTypeMemory,
		IdentityAPIURL: identitySrv.URL,
	})
	require.NoError(t, err)

	router := api.NewRouter(api.RouterConfig{
		Logger:         logger,
		Clock:          app.Clock,
		AuthService:    app.AuthService,
		AccountService: app.AccountService,
		ReplayService:  app.ReplayService,
		ExportService:  app.ExportService,
	})

	server := &http.Server{
		Addr:    addr,
		Handler: router,
	}

	// Start server
	go func() {
		if err := server.ListenAndServe(); err != http.ErrServerClosed {
			t.Logf("server error: %v", err)
		}
	}()

	// Wait for server to be ready
	serverURL := "http://" + addr
	waitForServer(t, serverURL+"/api/v1/health")

	return &testServer{
		app:  app,
		addr: serverURL,
		shutdown: func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = server.Shutdown(ctx)
			identitySrv.Close()
		},
	}
}

func waitForServer(t *testing.T, url string) {
	t.Helper()

	client := &http.Client{Timeout: 100 * time.Millisecond}
	deadline := time.Now().Add(5 * time.Second)

	for time.Now().Before(deadline) {
		resp, err := client.Get(url)
		if err == nil {
			_ = resp.Body.Close()
			if resp.StatusCode == http.StatusOK {
				return
			}
		}
		time.Sleep(50 * time.Millisecond)
	}

	t.Fatal("server did not become ready in time")
}

func (ts *testServer) seedReplay(t *testing.T, id string, date time.Time, players ...model.Player) {
	t.Helper()

	err := ts.app.Storage.SaveReplay(context.Background(), &model.Replay{
		ID:         model.ReplayID(id),
		Map:        "Box Station",
		Gamemode:   "Traitor",
		ServerID:   "srv-1",
		ServerName: "Wizards Den",
		Duration:   90 * time.Minute,
		Date:       date,
		Players:    players,
	})
	require.NoError(t, err)
}

func (ts *testServer) makeAdmin(t *testing.T, id string) {
	t.Helper()

	account, err := ts.app.Storage.GetAccount(context.Background(), model.Identifier(id))
	require.NoError(t, err)
	account.IsAdmin = true
	require.NoError(t, ts.app.Storage.SaveAccount(context.Background(), account))
}

// Response types for JSON parsing
type authResponse struct {
	Account struct {
		Identifier string `json:"identifier"`
		Username   string `json:"username"`
		IsAdmin    bool   `json:"is_admin"`
	} `json:"account"`
	SessionToken string `json:"session_token"`
}

type accountResponse struct {
	Identifier string `json:"identifier"`
	Username   string `json:"username"`
	History    []struct {
		Action  string `json:"action"`
		Details string `json:"details"`
	} `json:"history"`
}

type replayResponse struct {
	ID      string `json:"id"`
	Map     string `json:"map"`
	Players []struct {
		Identifier string `json:"identifier"`
		ICName     string `json:"ic_name"`
		Redacted   bool   `json:"redacted"`
	} `json:"players"`
}

type deleteResponse struct {
	Permanent           bool `json:"permanent"`
	RedactionIncomplete bool `json:"redaction_incomplete"`
	RecordsScanned      int  `json:"records_scanned"`
	RecordsRedacted     int  `json:"records_redacted"`
}

type healthResponse struct {
	Status string `json:"status"`
}

type messageResponse struct {
	Message string `json:"message"`
}

// Tests

func TestCLI_HealthCheck(t *testing.T) {
	ts := startTestServer(t)
	defer ts.shutdown()

	cli := newCLIRunner(t, ts.addr)

	output, err := cli.run("health")
	require.NoError(t, err, "output: %s", output)

	var resp healthResponse
	require.NoError(t, json.Unmarshal([]byte(output), &resp))
	assert.Equal(t, "ok", resp.Status)
}

func TestCLI_AccountCommands(t *testing.T) {
	ts := startTestServer(t)
	defer ts.shutdown()

	cli := newCLIRunner(t, ts.addr)

	// Login
	output, err := cli.run("account", "login", "--id", "alice-id")
	require.NoError(t, err, "output: %s", output)

	var authResp authResponse
	require.NoError(t, json.Unmarshal([]byte(output), &authResp))
	assert.Equal(t, "alice-id", authResp.Account.Identifier)
	assert.Equal(t, "Alice", authResp.Account.Username)
	assert.False(t, authResp.Account.IsAdmin)
	assert.NotEmpty(t, authResp.SessionToken)

	// Show (token should be saved in token file)
	output, err = cli.run("account", "show")
	require.NoError(t, err, "output: %s", output)

	var account accountResponse
	require.NoError(t, json.Unmarshal([]byte(output), &account))
	assert.Equal(t, "alice-id", account.Identifier)
	require.NotEmpty(t, account.History)
	assert.Equal(t, "created", account.History[0].Action)

	// Logout
	output, err = cli.run("account", "logout")
	require.NoError(t, err, "output: %s", output)

	var msgResp messageResponse
	require.NoError(t, json.Unmarshal([]byte(output), &msgResp))
	assert.Equal(t, "Logged out", msgResp.Message)

	// Session is gone now
	output, err = cli.runWithToken(authResp.SessionToken, "account", "show")
	assert.Error(t, err)
	assert.Contains(t, output, "UNAUTHORIZED")
}

func TestCLI_ReplayCommands(t *testing.T) {
	ts := startTestServer(t)
	defer ts.shutdown()

	ts.seedReplay(t, "r1", time.Now().Add(-2*time.Hour),
		model.Player{Identifier: "alice-id", ICName: "Ellen Tohn", OOCName: "Alice", Role: "Captain"})
	ts.seedReplay(t, "r2", time.Now().Add(-1*time.Hour),
		model.Player{Identifier: "bob-id", ICName: "Urist McHands", OOCName: "Bob", Role: "Clown"})

	cli := newCLIRunner(t, ts.addr)

	// List, newest first
	output, err := cli.run("replay", "list")
	require.NoError(t, err, "output: %s", output)

	var replays []replayResponse
	require.NoError(t, json.Unmarshal([]byte(output), &replays))
	require.Len(t, replays, 2)
	assert.Equal(t, "r2", replays[0].ID)
	assert.Equal(t, "r1", replays[1].ID)

	// Show
	output, err = cli.run("replay", "show", "r1")
	require.NoError(t, err, "output: %s", output)

	var replay replayResponse
	require.NoError(t, json.Unmarshal([]byte(output), &replay))
	assert.Equal(t, "Box Station", replay.Map)
	require.Len(t, replay.Players, 1)
	assert.Equal(t, "Ellen Tohn", replay.Players[0].ICName)

	// Search by player name
	output, err = cli.run("replay", "search", "urist")
	require.NoError(t, err, "output: %s", output)

	require.NoError(t, json.Unmarshal([]byte(output), &replays))
	require.Len(t, replays, 1)
	assert.Equal(t, "r2", replays[0].ID)

	// Unknown replay
	output, err = cli.run("replay", "show", "nope")
	assert.Error(t, err)
	assert.Contains(t, output, "REPLAY_NOT_FOUND")
}

func TestCLI_FavoritesFlow(t *testing.T) {
	ts := startTestServer(t)
	defer ts.shutdown()

	ts.seedReplay(t, "r1", time.Now(),
		model.Player{Identifier: "alice-id", ICName: "Ellen Tohn", OOCName: "Alice"})

	cli := newCLIRunner(t, ts.addr)

	output, err := cli.run("account", "login", "--id", "alice-id")
	require.NoError(t, err, "output: %s", output)

	output, err = cli.run("account", "favorites", "add", "r1")
	require.NoError(t, err, "output: %s", output)

	output, err = cli.run("account", "favorites", "list")
	require.NoError(t, err, "output: %s", output)

	var favorites []replayResponse
	require.NoError(t, json.Unmarshal([]byte(output), &favorites))
	require.Len(t, favorites, 1)
	assert.Equal(t, "r1", favorites[0].ID)

	output, err = cli.run("account", "favorites", "remove", "r1")
	require.NoError(t, err, "output: %s", output)

	output, err = cli.run("account", "favorites", "list")
	require.NoError(t, err, "output: %s", output)
	require.NoError(t, json.Unmarshal([]byte(output), &favorites))
	assert.Empty(t, favorites)
}

func TestCLI_PermanentDeleteFlow(t *testing.T) {
	ts := startTestServer(t)
	defer ts.shutdown()

	ts.seedReplay(t, "r1", time.Now(),
		model.Player{Identifier: "alice-id", ICName: "Ellen Tohn", OOCName: "Alice"},
		model.Player{Identifier: "bob-id", ICName: "Urist McHands", OOCName: "Bob"})

	cli := newCLIRunner(t, ts.addr)

	output, err := cli.run("account", "login", "--id", "alice-id")
	require.NoError(t, err, "output: %s", output)

	// Permanent delete
	output, err = cli.run("account", "delete", "--permanent")
	require.NoError(t, err, "output: %s", output)

	var delResp deleteResponse
	require.NoError(t, json.Unmarshal([]byte(output), &delResp))
	assert.True(t, delResp.Permanent)
	assert.False(t, delResp.RedactionIncomplete)
	assert.Equal(t, 1, delResp.RecordsScanned)
	assert.Equal(t, 1, delResp.RecordsRedacted)

	// The identifier is tombstoned: logging in again is rejected
	output, err = cli.run("account", "login", "--id", "alice-id")
	assert.Error(t, err)
	assert.Contains(t, output, "IDENTIFIER_TOMBSTONED")

	// The replay survives with Alice's record scrubbed and Bob's intact
	output, err = cli.run("replay", "show", "r1")
	require.NoError(t, err, "output: %s", output)

	var replay replayResponse
	require.NoError(t, json.Unmarshal([]byte(output), &replay))
	require.Len(t, replay.Players, 2)
	assert.True(t, replay.Players[0].Redacted)
	assert.Equal(t, model.RedactedSentinel, replay.Players[0].ICName)
	assert.False(t, replay.Players[1].Redacted)
	assert.Equal(t, "Urist McHands", replay.Players[1].ICName)
}

func TestCLI_AdminCommands(t *testing.T) {
	ts := startTestServer(t)
	defer ts.shutdown()

	ts.seedReplay(t, "r1", time.Now(),
		model.Player{Identifier: "ghost-id", ICName: "Ghost", OOCName: "Ghost"})

	cli := newCLIRunner(t, ts.addr)

	output, err := cli.run("account", "login", "--id", "root-id")
	require.NoError(t, err, "output: %s", output)

	// Not an admin yet
	output, err = cli.run("admin", "delete", "ghost-id", "--permanent")
	assert.Error(t, err)
	assert.Contains(t, output, "NOT_ADMIN")

	ts.makeAdmin(t, "root-id")

	// Pre-emptive tombstone of an identifier that never logged in
	output, err = cli.run("admin", "delete", "ghost-id", "--permanent")
	require.NoError(t, err, "output: %s", output)

	var delResp deleteResponse
	require.NoError(t, json.Unmarshal([]byte(output), &delResp))
	assert.True(t, delResp.Permanent)
	assert.Equal(t, 1, delResp.RecordsRedacted)

	// The ghost can never create an account
	ghost := newCLIRunner(t, ts.addr)
	output, err = ghost.run("account", "login", "--id", "ghost-id")
	assert.Error(t, err)
	assert.Contains(t, output, "IDENTIFIER_TOMBSTONED")
}

func TestCLI_ExportDownload(t *testing.T) {
	ts := startTestServer(t)
	defer ts.shutdown()

	ts.seedReplay(t, "r1", time.Now(),
		model.Player{Identifier: "alice-id", ICName: "Ellen Tohn", OOCName: "Alice"},
		model.Player{Identifier: "bob-id", ICName: "Urist McHands", OOCName: "Bob"})

	cli := newCLIRunner(t, ts.addr)

	output, err := cli.run("account", "login", "--id", "alice-id")
	require.NoError(t, err, "output: %s", output)

	dest := filepath.Join(t.TempDir(), "export.zip")
	output, err = cli.run("account", "export", "-f", dest)
	require.NoError(t, err, "output: %s", output)

	var msgResp messageResponse
	require.NoError(t, json.Unmarshal([]byte(output), &msgResp))
	assert.Contains(t, msgResp.Message, dest)

	archive, err := zip.OpenReader(dest)
	require.NoError(t, err)
	defer func() { _ = archive.Close() }()

	names := make([]string, 0, len(archive.File))
	for _, f := range archive.File {
		names = append(names, f.Name)
	}
	assert.ElementsMatch(t, []string{"user.json", "history.json", "replay-r1.json"}, names)
}

func TestCLI_ErrorHandling(t *testing.T) {
	ts := startTestServer(t)
	defer ts.shutdown()

	cli := newCLIRunner(t, ts.addr)

	// Show account without auth
	output, err := cli.run("account", "show")
	assert.Error(t, err)
	assert.Contains(t, output, "UNAUTHORIZED")

	// Malformed identifier
	output, err = cli.run("account", "login", "--id", "not a valid id!")
	assert.Error(t, err)
	assert.Contains(t, output, "INVALID_IDENTIFIER")
}
