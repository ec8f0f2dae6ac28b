package api_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcoot/domonhunt/internal/api"
	"github.com/mcoot/domonhunt/internal/api/apierr"
	"github.com/mcoot/domonhunt/internal/api/request"
	"github.com/mcoot/domonhunt/internal/api/response"
	"github.com/mcoot/domonhunt/internal/factory"
	"github.com/mcoot/domonhunt/internal/model"
	"github.com/mcoot/domonhunt/internal/testutil"
)

const testToken = "s3cret"

// testServer creates a test server with all dependencies
type testServer struct {
	handler http.Handler
	app     *factory.TestApp
	token   string
}

func newTestServer(t *testing.T, token string) *testServer {
	t.Helper()

	app := factory.NewTestApp()
	require.NoError(t, app.Load(t.Context()))
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		_ = app.Close(ctx)
	})

	router := api.NewRouter(api.RouterConfig{
		Logger:          testutil.NopLogger(),
		Bot:             app.Bot,
		Ledger:          app.Ledger,
		SpawnController: app.SpawnController,
		BattleManager:   app.BattleManager,
		Catalog:         app.Catalog,
		Clock:           app.Clock,
		Hubs:            app.Hubs,
		Metrics:         app.Metrics,
		GatewayToken:    token,
	})

	return &testServer{
		handler: router,
		app:     app,
		token:   token,
	}
}

func (ts *testServer) request(method, path string, body any, token string) *httptest.ResponseRecorder {
	var reqBody *bytes.Buffer
	if body != nil {
		b, _ := json.Marshal(body)
		reqBody = bytes.NewBuffer(b)
	} else {
		reqBody = bytes.NewBuffer(nil)
	}

	req := httptest.NewRequest(method, path, reqBody)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	rr := httptest.NewRecorder()
	ts.handler.ServeHTTP(rr, req)
	return rr
}

func (ts *testServer) command(t *testing.T, user, text string) response.CommandReply {
	t.Helper()
	rr := ts.request(http.MethodPost, "/api/v1/commands", request.CommandRequest{
		User:        user,
		DisplayName: user,
		Channel:     "general",
		Text:        text,
	}, ts.token)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	var reply response.CommandReply
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &reply))
	return reply
}

func decodeError(t *testing.T, rr *httptest.ResponseRecorder) apierr.APIError {
	t.Helper()
	var body apierr.ErrorResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	return body.Error
}

func TestHealthCheck(t *testing.T) {
	ts := newTestServer(t, "")

	rr := ts.request(http.MethodGet, "/api/v1/health", nil, "")
	assert.Equal(t, http.StatusOK, rr.Code)

	var health response.Health
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &health))
	assert.Equal(t, "ok", health.Status)
	assert.False(t, health.ActiveSpawn)
	assert.Equal(t, "no-store", rr.Header().Get("Cache-Control"))
}

func TestKeepAlive(t *testing.T) {
	ts := newTestServer(t, "")

	rr := ts.request(http.MethodGet, "/", nil, "")
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, api.KeepAliveText, rr.Body.String())

	rr = ts.request(http.MethodHead, "/", nil, "")
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Empty(t, rr.Body.String())
}

func TestMetricsEndpoint(t *testing.T) {
	ts := newTestServer(t, "")
	ts.request(http.MethodGet, "/api/v1/health", nil, "")

	rr := ts.request(http.MethodGet, "/metrics", nil, "")
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "domon_http_requests_total")
}

func TestRunCommand(t *testing.T) {
	ts := newTestServer(t, "")

	reply := ts.command(t, "alice", "!start")
	assert.Equal(t, "start", reply.Command)
	assert.NotEmpty(t, reply.Text)

	reply = ts.command(t, "alice", "!inventory")
	assert.Contains(t, reply.Text, model.Domoball)

	reply = ts.command(t, "alice", "!nonsense")
	assert.NotEmpty(t, reply.Text)
}

func TestRunCommandValidation(t *testing.T) {
	ts := newTestServer(t, "")

	tests := []struct {
		name string
		body any
	}{
		{"missing user", request.CommandRequest{Channel: "general", Text: "!start"}},
		{"missing channel", request.CommandRequest{User: "alice", Text: "!start"}},
		{"missing prefix", request.CommandRequest{User: "alice", Channel: "general", Text: "start"}},
		{"blank channel", request.CommandRequest{User: "alice", Channel: "   ", Text: "!start"}},
		{"user too long", request.CommandRequest{User: strings.Repeat("a", 129), Channel: "general", Text: "!start"}},
		{"not json", "!start"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := ts.request(http.MethodPost, "/api/v1/commands", tt.body, "")
			assert.Equal(t, http.StatusBadRequest, rr.Code)
			assert.Equal(t, apierr.CodeInvalidRequest, decodeError(t, rr).Code)
		})
	}
}

func TestGatewayTokenRequired(t *testing.T) {
	ts := newTestServer(t, testToken)
	body := request.CommandRequest{User: "alice", Channel: "general", Text: "!help"}

	rr := ts.request(http.MethodPost, "/api/v1/commands", body, "")
	assert.Equal(t, http.StatusUnauthorized, rr.Code)

	rr = ts.request(http.MethodPost, "/api/v1/commands", body, "wrong")
	assert.Equal(t, http.StatusUnauthorized, rr.Code)

	rr = ts.request(http.MethodPost, "/api/v1/commands", body, testToken)
	assert.Equal(t, http.StatusOK, rr.Code)

	// read-only routes stay open
	rr = ts.request(http.MethodGet, "/api/v1/spawn", nil, "")
	assert.Equal(t, http.StatusOK, rr.Code)
}

func TestOwnerCommandsNeedGatewayToken(t *testing.T) {
	ts := newTestServer(t, "")
	ts.command(t, "mallory", "!start")

	reply := ts.command(t, factory.TestOwnerID, "!give mallory 999")
	assert.Equal(t, "Only the bot owner can use this command.", reply.Text)

	p, err := ts.app.Ledger.Get(t.Context(), "mallory")
	require.NoError(t, err)
	assert.Equal(t, 5, p.Inventory[model.Domoball])

	// the same caller is trusted once a token guards the route
	ts = newTestServer(t, testToken)
	ts.command(t, "mallory", "!start")
	reply = ts.command(t, factory.TestOwnerID, "!give mallory 2")
	assert.Contains(t, reply.Text, "Gave 2")
}

func TestGetPlayer(t *testing.T) {
	ts := newTestServer(t, "")

	rr := ts.request(http.MethodGet, "/api/v1/players/alice", nil, "")
	assert.Equal(t, http.StatusNotFound, rr.Code)
	assert.Equal(t, apierr.CodePlayerNotFound, decodeError(t, rr).Code)

	ts.command(t, "alice", "!start")

	rr = ts.request(http.MethodGet, "/api/v1/players/alice", nil, "")
	require.Equal(t, http.StatusOK, rr.Code)

	var p response.Player
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &p))
	assert.Equal(t, "alice", p.ID)
	assert.Equal(t, 5, p.Inventory[model.Domoball])
	assert.Equal(t, 1, p.Inventory[model.ScanTool])
	assert.Empty(t, p.Collection)
}

func TestGetSpawn(t *testing.T) {
	ts := newTestServer(t, testToken)

	rr := ts.request(http.MethodGet, "/api/v1/spawn", nil, "")
	require.Equal(t, http.StatusOK, rr.Code)

	var sp response.Spawn
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &sp))
	assert.Equal(t, string(model.SpawnIdle), sp.Phase)
	assert.Nil(t, sp.Creature)

	ts.command(t, factory.TestOwnerID, "!setspawn")
	ts.command(t, factory.TestOwnerID, "!forcespawn")
	ts.command(t, "alice", "!start")
	ts.command(t, "alice", "!scan")

	rr = ts.request(http.MethodGet, "/api/v1/spawn", nil, "")
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &sp))
	assert.Equal(t, string(model.SpawnScanned), sp.Phase)
	assert.Equal(t, "general", sp.Channel)
	assert.Equal(t, "alice", sp.Claimant)
	assert.InDelta(t, 120, sp.ClaimRemaining, 0.001)
	require.NotNil(t, sp.Creature)
	assert.Equal(t, "Craquos", sp.Creature.Name)
}

func TestDomodex(t *testing.T) {
	ts := newTestServer(t, "")

	rr := ts.request(http.MethodGet, "/api/v1/domodex", nil, "")
	require.Equal(t, http.StatusOK, rr.Code)
	var page response.DomodexPage
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &page))
	assert.Equal(t, 1, page.Page)
	assert.Equal(t, 6, page.Pages)
	assert.Len(t, page.Entries, 30)
	assert.Equal(t, "Craquos", page.Entries[0].Name)

	rr = ts.request(http.MethodGet, "/api/v1/domodex?page=99", nil, "")
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &page))
	assert.Equal(t, 6, page.Page)
	assert.Len(t, page.Entries, 1)

	rr = ts.request(http.MethodGet, "/api/v1/domodex?page=two", nil, "")
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr = ts.request(http.MethodGet, "/api/v1/domodex/craquos", nil, "")
	require.Equal(t, http.StatusOK, rr.Code)
	var c model.Creature
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &c))
	assert.Equal(t, 1, c.Number)

	rr = ts.request(http.MethodGet, "/api/v1/domodex/1", nil, "")
	assert.Equal(t, http.StatusOK, rr.Code)

	rr = ts.request(http.MethodGet, "/api/v1/domodex/nobody", nil, "")
	assert.Equal(t, http.StatusNotFound, rr.Code)
	assert.Equal(t, apierr.CodeCreatureNotFound, decodeError(t, rr).Code)
}

func TestGetBattle(t *testing.T) {
	ts := newTestServer(t, "")

	rr := ts.request(http.MethodGet, "/api/v1/battles/general", nil, "")
	assert.Equal(t, http.StatusNotFound, rr.Code)
	assert.Equal(t, apierr.CodeNoActiveBattle, decodeError(t, rr).Code)

	for _, id := range []string{"alice", "bob"} {
		ts.command(t, id, "!start")
		c, err := ts.app.Catalog.ByName("Craquos")
		require.NoError(t, err)
		_, err = ts.app.Ledger.Update(t.Context(), model.PlayerID(id), func(p *model.PlayerRecord) error {
			p.Collection = append(p.Collection, c)
			return nil
		})
		require.NoError(t, err)
	}
	ts.command(t, "alice", "!battle @bob")

	rr = ts.request(http.MethodGet, "/api/v1/battles/general", nil, "")
	require.Equal(t, http.StatusOK, rr.Code)
	var view model.BattleView
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &view))
	assert.Equal(t, model.BattlePicking, view.Status)
	assert.Equal(t, model.PlayerID("alice"), view.Challenger.Owner)
	assert.Equal(t, model.PlayerID("bob"), view.Opponent.Owner)
}

func TestWebsocketGateway(t *testing.T) {
	ts := newTestServer(t, testToken)
	server := httptest.NewServer(ts.handler)
	t.Cleanup(server.Close)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	base := "ws" + strings.TrimPrefix(server.URL, "http") + "/api/v1/gateway?user=alice&name=Alice&channel=general"

	_, resp, err := websocket.Dial(ctx, base, nil)
	require.Error(t, err)
	if resp != nil {
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	}

	conn, _, err := websocket.Dial(ctx, base+"&token="+testToken, nil)
	require.NoError(t, err)
	defer conn.CloseNow()

	require.NoError(t, conn.Write(ctx, websocket.MessageText, []byte("!start")))

	var ev model.Event
	require.NoError(t, wsjson.Read(ctx, conn, &ev))
	assert.Equal(t, model.EventReply, ev.Type)
	assert.NotEmpty(t, ev.Message.PlainText())

	p, err := ts.app.Ledger.Get(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, "Alice", p.DisplayName)

	// a forced spawn in another channel is broadcast to the spawn channel watchers
	ts.command(t, factory.TestOwnerID, "!setspawn")
	rr := ts.request(http.MethodPost, "/api/v1/commands", request.CommandRequest{
		User: factory.TestOwnerID, Channel: "admin", Text: "!forcespawn",
	}, testToken)
	require.Equal(t, http.StatusOK, rr.Code)

	require.NoError(t, wsjson.Read(ctx, conn, &ev))
	assert.Equal(t, model.EventSpawnAppeared, ev.Type)
	assert.Contains(t, ev.Message.PlainText(), "Craquos")
}
