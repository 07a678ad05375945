package devbackend

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"evalgo.org/schemaeditor/internal/api"
	"evalgo.org/schemaeditor/internal/auth"
	"evalgo.org/schemaeditor/internal/backend"
	"evalgo.org/schemaeditor/internal/config"
	"evalgo.org/schemaeditor/models"
)

// Server serves a Repository over HTTP.
type Server struct {
	echo       *echo.Echo
	repo       *Repository
	hub        *api.Hub
	authMiddle *auth.Middleware
	config     *config.Config
	logger     *zap.Logger
}

// New creates a development backend server over repo.
func New(cfg *config.Config, repo *Repository, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	logger = logger.Named("devbackend")

	s := &Server{
		echo:       api.NewEcho(config.ServerConfig{Debug: cfg.Server.Debug}, cfg.Security),
		repo:       repo,
		hub:        api.NewHub(logger),
		authMiddle: auth.NewMiddleware(cfg.Security),
		config:     cfg,
		logger:     logger,
	}
	go s.hub.Run()

	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	read, write := s.authMiddle.RequireRead, s.authMiddle.RequireWrite

	s.echo.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]interface{}{
			"status":  "healthy",
			"service": "schemaeditor-dev-backend",
			"schemas": len(s.repo.List()),
		})
	})

	s.echo.GET("/schemas", s.listSchemas, read)
	s.echo.GET("/schema/:name", s.getSchema, api.ValidateNameParam, read)
	s.echo.PUT("/schema/:name", s.createSchema, api.ValidateNameParam, write)
	s.echo.POST("/schema/:name", s.submit, api.ValidateNameParam, write)
	s.echo.GET("/subscriptions/schema/:name", s.subscribe, api.ValidateNameParam, read)
}

func (s *Server) listSchemas(c echo.Context) error {
	return c.JSON(http.StatusOK, s.repo.List())
}

func (s *Server) getSchema(c echo.Context) error {
	state, err := s.repo.Get(c.Param("name"))
	if err != nil {
		return repoError(err)
	}
	return c.JSON(http.StatusOK, state)
}

func (s *Server) createSchema(c echo.Context) error {
	name := c.Param("name")
	res, err := s.repo.Create(name)
	if err != nil {
		return repoError(err)
	}
	s.logger.Info("schema created", zap.String("schema", name))
	return c.JSON(http.StatusCreated, res)
}

// submit applies a batch. Rejected batches still answer 200 and carry the
// validation errors in the body.
func (s *Server) submit(c echo.Context) error {
	name := c.Param("name")

	var changes []models.RequestModel
	if err := c.Bind(&changes); err != nil {
		return api.BadRequestError("Invalid request body", err.Error())
	}

	result, err := s.repo.Apply(name, changes)
	if err != nil {
		return repoError(err)
	}

	if result.CommitRef == nil {
		s.logger.Info("batch rejected", zap.String("schema", name), zap.Int("requests", len(changes)))
		s.publish(backend.Event{Type: backend.EventStatusUpdate, Name: name, Status: StatusRejected})
	} else {
		s.logger.Info("batch committed", zap.String("schema", name), zap.String("commit", *result.CommitRef), zap.Int("requests", len(changes)))
		s.publish(backend.Event{Type: backend.EventStatusUpdate, Name: name, Status: StatusApplied})
		s.publish(backend.Event{Type: backend.EventRepositoryUpdate, Name: name})
	}
	return c.JSON(http.StatusOK, result)
}

func (s *Server) subscribe(c echo.Context) error {
	name := c.Param("name")
	if _, err := s.repo.Get(name); err != nil {
		return repoError(err)
	}
	return s.hub.Serve(c, name)
}

func (s *Server) publish(ev backend.Event) {
	if err := s.hub.Broadcast(ev.Name, ev); err != nil {
		s.logger.Error("failed to publish event", zap.String("schema", ev.Name), zap.Error(err))
	}
}

// Touch announces a repository change made outside the HTTP API, such as
// an edit by another user.
func (s *Server) Touch(name string) {
	s.publish(backend.Event{Type: backend.EventRepositoryUpdate, Name: name})
}

func repoError(err error) error {
	switch {
	case errors.Is(err, ErrSchemaNotFound):
		return api.NewAPIError(http.StatusNotFound, "Schema not found", err.Error())
	case errors.Is(err, ErrSchemaExists):
		return api.ConflictError("Schema already exists", err.Error())
	}
	return err
}

// Start starts the HTTP server.
func (s *Server) Start() error {
	addr := s.config.DevBackend.Address()
	s.logger.Info("starting development backend",
		zap.String("address", "http://"+addr),
		zap.Strings("schemas", s.repo.List()))

	s.echo.Server.ReadTimeout = s.config.Server.ReadTimeout
	return s.echo.Start(addr)
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.hub.Stop()
	if err := s.echo.Shutdown(ctx); err != nil {
		return fmt.Errorf("error shutting down dev backend: %w", err)
	}
	return nil
}

// ServeHTTP allows Server to implement http.Handler for testing
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.echo.ServeHTTP(w, r)
}

// Subscribers returns the number of open push channels.
func (s *Server) Subscribers() int {
	return s.hub.ClientCount()
}

// Close stops the push hub.
func (s *Server) Close() {
	s.hub.Stop()
}
