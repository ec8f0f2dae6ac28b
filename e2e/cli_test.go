package e2e_test

import (
	"context"
	"encoding/json"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/exec"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcoot/domonhunt/internal/api"
	"github.com/mcoot/domonhunt/internal/bot"
	"github.com/mcoot/domonhunt/internal/factory"
)

const (
	ownerID      = "owner"
	gatewayToken = "e2e-token"
)

// cliRunner manages CLI binary execution
type cliRunner struct {
	binaryPath string
	serverURL  string
}

func newCLIRunner(t *testing.T, serverURL string) *cliRunner {
	t.Helper()

	projectRoot := findProjectRoot(t)

	binaryPath := filepath.Join(t.TempDir(), "domon-test")
	cmd := exec.Command("go", "build", "-o", binaryPath, "./cmd/domon")
	cmd.Dir = projectRoot
	output, err := cmd.CombinedOutput()
	require.NoError(t, err, "failed to build CLI: %s", string(output))

	return &cliRunner{
		binaryPath: binaryPath,
		serverURL:  serverURL,
	}
}

// run executes the CLI as user with JSON output. An empty user omits --user
func (r *cliRunner) run(user string, args ...string) (string, error) {
	fullArgs := []string{
		"--server", r.serverURL,
		"--token", gatewayToken,
		"--output", "json",
	}
	if user != "" {
		fullArgs = append(fullArgs, "--user", user)
	}
	fullArgs = append(fullArgs, args...)

	cmd := exec.Command(r.binaryPath, fullArgs...)
	// Keep the caller's DOMON_* settings out of the test
	cmd.Env = []string{"PATH=" + os.Getenv("PATH"), "HOME=" + os.Getenv("HOME")}
	output, err := cmd.CombinedOutput()
	return string(output), err
}

func (r *cliRunner) mustRun(t *testing.T, user string, args ...string) string {
	t.Helper()
	out, err := r.run(user, args...)
	require.NoError(t, err, "command %v failed: %s", args, out)
	return out
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

// testServer manages a real HTTP server for e2e tests
type testServer struct {
	server   *http.Server
	addr     string
	shutdown func()
}

func startTestServer(t *testing.T) *testServer {
	t.Helper()

	// Find a free port
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := listener.Addr().String()
	require.NoError(t, listener.Close())

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
	ctx := context.Background()

	app, err := factory.New(ctx, factory.Config{
		Logger: logger,
		Bot:    bot.Config{OwnerID: ownerID},
	})
	require.NoError(t, err)
	require.NoError(t, app.Load(ctx))

	router := api.NewRouter(api.RouterConfig{
		Logger:          logger,
		Bot:             app.Bot,
		Ledger:          app.Ledger,
		SpawnController: app.SpawnController,
		BattleManager:   app.BattleManager,
		Catalog:         app.Catalog,
		Clock:           app.Clock,
		Hubs:            app.Hubs,
		Metrics:         app.Metrics,
		GatewayToken:    gatewayToken,
	})

	server := &http.Server{
		Addr:    addr,
		Handler: router,
	}

	go func() {
		if err := server.ListenAndServe(); err != http.ErrServerClosed {
			t.Logf("server error: %v", err)
		}
	}()

	serverURL := "http://" + addr
	waitForServer(t, serverURL+"/api/v1/health")

	return &testServer{
		server: server,
		addr:   serverURL,
		shutdown: func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = server.Shutdown(ctx)
			_ = app.Close(ctx)
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

// Response types for JSON parsing
type replyResponse struct {
	Command string `json:"command"`
	Text    string `json:"text"`
}

type playerResponse struct {
	ID          string         `json:"id"`
	DisplayName string         `json:"display_name"`
	XP          int            `json:"xp"`
	Inventory   map[string]int `json:"inventory"`
	Collection  []struct {
		Number int    `json:"number"`
		Name   string `json:"name"`
	} `json:"collection"`
}

type spawnResponse struct {
	Phase    string `json:"phase"`
	Channel  string `json:"channel"`
	Claimant string `json:"claimant"`
	Creature *struct {
		Name string `json:"name"`
	} `json:"creature"`
}

type domodexResponse struct {
	Page    int `json:"page"`
	Pages   int `json:"pages"`
	Entries []struct {
		Number int    `json:"number"`
		Name   string `json:"name"`
	} `json:"entries"`
}

type creatureResponse struct {
	Number int    `json:"number"`
	Name   string `json:"name"`
}

func decode[T any](t *testing.T, out string) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal([]byte(out), &v), "output: %s", out)
	return v
}

func TestCLI_HealthCheck(t *testing.T) {
	server := startTestServer(t)
	defer server.shutdown()

	cli := newCLIRunner(t, server.addr)

	out := cli.mustRun(t, "", "health")
	var health map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &health))
	assert.Equal(t, "ok", health["status"])
}

func TestCLI_PlayerCommands(t *testing.T) {
	server := startTestServer(t)
	defer server.shutdown()

	cli := newCLIRunner(t, server.addr)

	// Unknown players have no ledger entry yet
	_, err := cli.run("alice", "player")
	assert.Error(t, err)

	reply := decode[replyResponse](t, cli.mustRun(t, "alice", "--name", "Alice", "start"))
	assert.Equal(t, "start", reply.Command)
	assert.Contains(t, reply.Text, "Welcome")

	player := decode[playerResponse](t, cli.mustRun(t, "alice", "player"))
	assert.Equal(t, "alice", player.ID)
	assert.Equal(t, "Alice", player.DisplayName)
	assert.Equal(t, 5, player.Inventory["Domoball"])
	assert.Equal(t, 1, player.Inventory["Scan Tool"])
	assert.Empty(t, player.Collection)

	// Command failures are answered in chat rather than failing the request
	reply = decode[replyResponse](t, cli.mustRun(t, "alice", "say", "start"))
	assert.Contains(t, reply.Text, "already have an account")

	// Other users can be looked up by id
	player = decode[playerResponse](t, cli.mustRun(t, "bob", "player", "alice"))
	assert.Equal(t, "alice", player.ID)
}

func TestCLI_Domodex(t *testing.T) {
	server := startTestServer(t)
	defer server.shutdown()

	cli := newCLIRunner(t, server.addr)

	page := decode[domodexResponse](t, cli.mustRun(t, "", "domodex"))
	assert.Equal(t, 1, page.Page)
	assert.Equal(t, 6, page.Pages)
	require.Len(t, page.Entries, 30)
	assert.Equal(t, 1, page.Entries[0].Number)

	creature := decode[creatureResponse](t, cli.mustRun(t, "", "info", "1"))
	assert.Equal(t, 1, creature.Number)
	assert.Equal(t, "Craquos", creature.Name)

	creature = decode[creatureResponse](t, cli.mustRun(t, "", "info", "craquos"))
	assert.Equal(t, 1, creature.Number)

	_, err := cli.run("", "info", "missingno")
	assert.Error(t, err)
}

func TestCLI_CaptureFlow(t *testing.T) {
	server := startTestServer(t)
	defer server.shutdown()

	cli := newCLIRunner(t, server.addr)

	spawn := decode[spawnResponse](t, cli.mustRun(t, "", "spawn"))
	assert.Equal(t, "idle", spawn.Phase)

	cli.mustRun(t, "alice", "start")

	reply := decode[replyResponse](t, cli.mustRun(t, "alice", "say", "forcespawn"))
	assert.Contains(t, reply.Text, "Only the bot owner")

	cli.mustRun(t, ownerID, "say", "setspawn")
	cli.mustRun(t, ownerID, "say", "give", "alice", "1", "Architectrap")
	cli.mustRun(t, ownerID, "say", "forcespawn")

	spawn = decode[spawnResponse](t, cli.mustRun(t, "", "spawn"))
	assert.Equal(t, "spawned", spawn.Phase)
	assert.Equal(t, "general", spawn.Channel)
	require.NotNil(t, spawn.Creature)

	cli.mustRun(t, "alice", "scan")

	spawn = decode[spawnResponse](t, cli.mustRun(t, "", "spawn"))
	assert.Equal(t, "scanned", spawn.Phase)
	assert.Equal(t, "alice", spawn.Claimant)

	// The Architectrap makes the capture certain
	cli.mustRun(t, "alice", "capture")

	player := decode[playerResponse](t, cli.mustRun(t, "alice", "player"))
	require.Len(t, player.Collection, 1)
	assert.Equal(t, spawn.Creature.Name, player.Collection[0].Name)
	assert.Equal(t, 5, player.Inventory["Domoball"])
	assert.Zero(t, player.Inventory["Architectrap"])

	spawn = decode[spawnResponse](t, cli.mustRun(t, "", "spawn"))
	assert.Equal(t, "idle", spawn.Phase)
}

func TestCLI_ErrorHandling(t *testing.T) {
	server := startTestServer(t)
	defer server.shutdown()

	cli := newCLIRunner(t, server.addr)

	t.Run("command without a user", func(t *testing.T) {
		_, err := cli.run("", "start")
		assert.Error(t, err)
	})

	t.Run("unknown command", func(t *testing.T) {
		reply := decode[replyResponse](t, cli.mustRun(t, "alice", "say", "dance"))
		assert.Equal(t, "dance", reply.Command)
		assert.Contains(t, reply.Text, "Unknown command")
	})

	t.Run("no battle running", func(t *testing.T) {
		_, err := cli.run("alice", "battle")
		assert.Error(t, err)
	})

	t.Run("bad domodex page", func(t *testing.T) {
		_, err := cli.run("", "domodex", "two")
		assert.Error(t, err)
	})
}
