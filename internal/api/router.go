package api

import (
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/mcoot/domonhunt/internal/api/handler"
	"github.com/mcoot/domonhunt/internal/api/middleware"
	"github.com/mcoot/domonhunt/internal/api/response"
	"github.com/mcoot/domonhunt/internal/bot"
	"github.com/mcoot/domonhunt/internal/catalog"
	"github.com/mcoot/domonhunt/internal/dependencies/clock"
	"github.com/mcoot/domonhunt/internal/gateway"
	"github.com/mcoot/domonhunt/internal/metrics"
	commonmw "github.com/mcoot/domonhunt/internal/middleware"
	"github.com/mcoot/domonhunt/internal/services/battle"
	"github.com/mcoot/domonhunt/internal/services/ledger"
	"github.com/mcoot/domonhunt/internal/services/spawn"
)

// KeepAliveText is served at the root for uptime pingers
const KeepAliveText = "DOMON Bot is running!"

// RouterConfig holds configuration for the API router
type RouterConfig struct {
	Logger          *slog.Logger
	Bot             *bot.Bot
	Ledger          *ledger.Service
	SpawnController *spawn.Controller
	BattleManager   *battle.Manager
	Catalog         *catalog.Catalog
	Clock           clock.Clock
	Hubs            *gateway.Hubs
	Metrics         *metrics.Manager
	GatewayToken    string // empty leaves command routes open to anonymous players
	AllowedOrigins  []string
}

// NewRouter creates a new API router with all routes configured
func NewRouter(cfg RouterConfig) http.Handler {
	r := mux.NewRouter()

	access := handler.Access{
		Authenticated:  cfg.GatewayToken != "",
		OriginPatterns: cfg.AllowedOrigins,
	}

	// Create handlers
	commandHandler := handler.NewCommandHandler(cfg.Bot, access)
	playerHandler := handler.NewPlayerHandler(cfg.Ledger)
	spawnHandler := handler.NewSpawnHandler(cfg.SpawnController, cfg.Catalog, cfg.Clock)
	battleHandler := handler.NewBattleHandler(cfg.BattleManager)
	domodexHandler := handler.NewDomodexHandler(cfg.Catalog)
	gatewayHandler := handler.NewGatewayHandler(cfg.Hubs, cfg.Bot, access, cfg.Logger)

	// API subrouter with common middleware
	api := r.PathPrefix("/api/v1").Subrouter()
	api.Use(middleware.Recovery(cfg.Logger))
	api.Use(commonmw.Logging(cfg.Logger))
	api.Use(commonmw.Metrics(cfg.Metrics))

	// Routes that act as a player need the gateway token
	protected := api.NewRoute().Subrouter()
	protected.Use(middleware.GatewayToken(cfg.GatewayToken))
	protected.HandleFunc("/commands", commandHandler.Run).Methods(http.MethodPost)
	protected.HandleFunc("/gateway", gatewayHandler.Connect).Methods(http.MethodGet)

	// Read-only routes
	api.HandleFunc("/channels/{channel}/events", gatewayHandler.Events).Methods(http.MethodGet)
	api.HandleFunc("/players/{id}", playerHandler.Get).Methods(http.MethodGet)
	api.HandleFunc("/spawn", spawnHandler.Get).Methods(http.MethodGet)
	api.HandleFunc("/battles/{scope}", battleHandler.Get).Methods(http.MethodGet)
	api.HandleFunc("/domodex", domodexHandler.List).Methods(http.MethodGet)
	api.HandleFunc("/domodex/{query}", domodexHandler.Get).Methods(http.MethodGet)

	// Health check endpoint (no auth)
	api.HandleFunc("/health", healthHandler(cfg)).Methods(http.MethodGet)

	r.Handle("/metrics", cfg.Metrics.Handler()).Methods(http.MethodGet)
	r.HandleFunc("/", keepAliveHandler).Methods(http.MethodGet, http.MethodHead)

	return r
}

func healthHandler(cfg RouterConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		response.JSON(w, http.StatusOK, response.Health{
			Status:        "ok",
			ActiveSpawn:   cfg.SpawnController.State().Active,
			Subscriptions: cfg.Hubs.Subscribers(),
		})
	}
}

func keepAliveHandler(w http.ResponseWriter, r *http.Request) {
	response.Text(w, r, http.StatusOK, KeepAliveText)
}
