// Package api provides the UI bridge: an HTTP API over the schema store and a
// websocket that tells connected editors when the store state changed.
package api

import (
	"context"
	"fmt"
	"net/http"
	"sort"
	"sync"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"evalgo.org/schemaeditor/internal/auth"
	"evalgo.org/schemaeditor/internal/config"
	"evalgo.org/schemaeditor/internal/debounce"
	"evalgo.org/schemaeditor/internal/notify"
	"evalgo.org/schemaeditor/internal/store"
	"evalgo.org/schemaeditor/internal/version"
)

// Server represents the UI bridge server.
type Server struct {
	echo       *echo.Echo
	store      *store.Store
	config     *config.Config
	wsHub      *Hub
	authMiddle *auth.Middleware
	logger     *zap.Logger

	mu       sync.Mutex
	changed  map[store.Event]bool
	debounce *debounce.Debouncer
	unsubs   []func()
}

// NewEcho creates an echo instance with the middleware shared by the UI
// bridge and the development backend.
func NewEcho(server config.ServerConfig, security config.SecurityConfig) *echo.Echo {
	e := echo.New()

	e.HideBanner = true
	e.HidePort = true
	e.Debug = server.Debug
	e.HTTPErrorHandler = HTTPErrorHandler

	e.Use(middleware.LoggerWithConfig(middleware.LoggerConfig{
		Format: "[${time_rfc3339}] ${status} ${method} ${uri} (${latency_human})\n",
		Skipper: func(c echo.Context) bool {
			return !server.Debug
		},
	}))
	e.Use(middleware.Recover())
	e.Use(SecurityHeaders)

	if len(security.AllowedOrigins) > 0 {
		e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
			AllowOrigins: security.AllowedOrigins,
			AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete},
			AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization},
		}))
	}

	e.Use(middleware.RequestID())

	if security.RateLimit > 0 {
		e.Use(middleware.RateLimiter(middleware.NewRateLimiterMemoryStore(
			rate.Limit(security.RateLimit),
		)))
	}

	e.Use(ValidateContentType)
	e.Use(ValidateAcceptHeader)

	return e
}

// New creates a new UI bridge server over st.
func New(cfg *config.Config, st *store.Store, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	logger = logger.Named("api")

	hub := NewHub(logger)
	server := &Server{
		echo:       NewEcho(cfg.Server, cfg.Security),
		store:      st,
		config:     cfg,
		wsHub:      hub,
		authMiddle: auth.NewMiddleware(cfg.Security),
		logger:     logger,
		changed:    make(map[store.Event]bool),
		debounce:   debounce.New(stateDebounce(cfg)),
	}

	go hub.Run()

	server.unsubs = append(server.unsubs,
		st.OnChange(server.stateChanged),
		st.Notifications().Subscribe(server.notified),
	)

	server.setupRoutes()

	return server
}

// stateDebounce coalesces bursts of store events into one push.
func stateDebounce(cfg *config.Config) time.Duration {
	if cfg.Editor.Debounce > 0 && cfg.Editor.Debounce < debounce.DefaultWindow {
		return cfg.Editor.Debounce
	}
	return 100 * time.Millisecond
}

func (s *Server) stateChanged(ev store.Event) {
	s.mu.Lock()
	s.changed[ev] = true
	s.mu.Unlock()
	s.debounce.Trigger(s.flushState)
}

func (s *Server) flushState() {
	s.mu.Lock()
	events := make([]store.Event, 0, len(s.changed))
	for ev := range s.changed {
		events = append(events, ev)
	}
	s.changed = make(map[store.Event]bool)
	s.mu.Unlock()

	if len(events) == 0 {
		return
	}
	sort.Slice(events, func(i, j int) bool { return events[i] < events[j] })
	if err := s.wsHub.Broadcast("", StateChangedEvent{
		Type:      eventStateChanged,
		Events:    events,
		Timestamp: time.Now(),
	}); err != nil {
		s.logger.Error("failed to broadcast state change", zap.Error(err))
	}
}

func (s *Server) notified(n notify.Notification) {
	if err := s.wsHub.Broadcast("", NotificationEvent{
		Type:         eventNotification,
		Notification: n,
		Timestamp:    time.Now(),
	}); err != nil {
		s.logger.Error("failed to broadcast notification", zap.Error(err))
	}
}

// setupRoutes configures API routes.
func (s *Server) setupRoutes() {
	read, write := s.authMiddle.RequireRead, s.authMiddle.RequireWrite

	s.echo.GET("/health", s.healthCheck)

	v1 := s.echo.Group("/api/v1")
	v1.GET("/state", s.getState, read)
	v1.PUT("/settings/depth", s.setMaxDepth, write)
	v1.PUT("/search", s.setSearch, write)
	v1.GET("/search", s.getSearch, read)
	v1.POST("/validate", s.validateResource, read)
	v1.DELETE("/selection", s.clearSelection, write)

	schemas := v1.Group("/schemas")
	schemas.GET("", s.listSchemas, read)
	schemas.POST("", s.createSchema, write)
	schemas.POST("/:name/select", s.selectSchema, ValidateNameParam, write)

	schema := v1.Group("/schema")
	schema.POST("/refresh", s.refreshSchema, write)
	schema.POST("/submit", s.submitSchema, write)
	schema.POST("/discard", s.discardSchema, write)
	schema.GET("/requests", s.listRequests, read)
	schema.GET("/validation", s.getValidationErrors, read)

	boxes := v1.Group("/boxes")
	boxes.GET("", s.listBoxes, read)
	boxes.POST("", s.createBox, write)
	boxes.GET("/groups", s.groupBoxes, read)
	boxes.GET("/:name", s.getBox, ValidateNameParam, read)
	boxes.PUT("/:name", s.updateBox, ValidateNameParam, write)
	boxes.POST("/:name/rename", s.renameBox, ValidateNameParam, write)
	boxes.DELETE("/:name", s.deleteBox, ValidateNameParam, write)
	boxes.POST("/:name/select", s.selectBox, ValidateNameParam, write)
	boxes.GET("/:name/tree", s.resolveTree, ValidateNameParam, ValidateQueryParams, read)
	boxes.GET("/:name/dictionaries", s.dictionariesForBox, ValidateNameParam, read)
	boxes.POST("/:name/dictionaries", s.addDictionaryRelation, ValidateNameParam, write)
	boxes.DELETE("/:name/dictionaries/:dictionary", s.removeDictionaryRelation, ValidateNameParam, write)

	linkRoutes := v1.Group("/links")
	linkRoutes.GET("", s.listLinks, read)
	linkRoutes.POST("", s.addLink, write)
	linkRoutes.GET("/definitions", s.listLinkDefinitions, read)
	linkRoutes.GET("/invalid", s.listInvalidLinks, read)
	linkRoutes.DELETE("/invalid", s.deleteInvalidLinks, write)
	linkRoutes.PUT("/:name", s.changeLink, ValidateNameParam, write)
	linkRoutes.DELETE("/:name", s.deleteLink, ValidateNameParam, write)

	v1.GET("/trees", s.getTrees, read)

	dicts := v1.Group("/dictionaries")
	dicts.GET("", s.listDictionaries, read)
	dicts.POST("", s.createDictionary, write)
	dicts.POST("/migrate", s.migrateDictionaries, write)
	dicts.GET("/:name", s.getDictionary, ValidateNameParam, read)
	dicts.PUT("/:name", s.updateDictionary, ValidateNameParam, write)
	dicts.DELETE("/:name", s.deleteDictionary, ValidateNameParam, write)
	dicts.POST("/:name/select", s.selectDictionary, ValidateNameParam, write)
	dicts.GET("/:name/boxes", s.boxesForDictionary, ValidateNameParam, read)

	hist := v1.Group("/history")
	hist.GET("", s.getHistory, read)
	hist.POST("/undo", s.undo, write)
	hist.POST("/redo", s.redo, write)

	notes := v1.Group("/notifications")
	notes.GET("", s.listNotifications, read)
	notes.DELETE("", s.clearNotifications, write)
	notes.DELETE("/:id", s.dismissNotification, write)

	v1.GET("/ws", s.handleWebSocket, read)
	v1.GET("/ws/stats", s.getWebSocketStats, read)
}

// Start starts the HTTP server.
func (s *Server) Start() error {
	addr := s.config.Server.Address()

	s.logger.Info("starting UI bridge",
		zap.String("address", "http://"+addr),
		zap.String("backend", s.config.Backend.URL),
		zap.Bool("auth", s.config.Security.AuthEnabled))

	s.echo.Server.ReadTimeout = s.config.Server.ReadTimeout
	s.echo.Server.WriteTimeout = s.config.Server.WriteTimeout

	return s.echo.Start(addr)
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down UI bridge")

	for _, unsub := range s.unsubs {
		unsub()
	}
	s.debounce.Cancel()
	s.wsHub.Stop()

	if err := s.echo.Shutdown(ctx); err != nil {
		return fmt.Errorf("error shutting down server: %w", err)
	}
	return nil
}

// healthCheck handles health check requests.
func (s *Server) healthCheck(c echo.Context) error {
	info := version.Get()
	return c.JSON(http.StatusOK, map[string]interface{}{
		"status":  "healthy",
		"service": "schemaeditor",
		"version": info.Version,
		"schema":  s.store.SchemaName(),
		"clients": s.wsHub.ClientCount(),
	})
}

// ServeHTTP allows Server to implement http.Handler for testing
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.echo.ServeHTTP(w, r)
}
