package commands

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"go.uber.org/zap"

	"evalgo.org/schemaeditor/internal/backend"
	"evalgo.org/schemaeditor/internal/logging"
	"evalgo.org/schemaeditor/internal/notify"
	"evalgo.org/schemaeditor/internal/store"
)

var schemaName string

// errNoSchemaName is returned when neither --schema nor
// editor.default_schema names a schema.
var errNoSchemaName = errors.New("no schema given: use --schema or set editor.default_schema")

func newLogger() (*zap.Logger, error) {
	logger, err := logging.New(cfg.Logging)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	return logger, nil
}

func newClient(logger *zap.Logger) (*backend.Client, error) {
	client, err := backend.NewClient(cfg.Backend.URL, backend.Options{
		Token:        cfg.Backend.Token,
		Timeout:      cfg.Backend.Timeout,
		ReconnectMin: cfg.Backend.ReconnectMin,
		ReconnectMax: cfg.Backend.ReconnectMax,
		Logger:       logger,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create backend client: %w", err)
	}
	return client, nil
}

func newStore(client backend.Backend, liveUpdates bool, logger *zap.Logger) *store.Store {
	return store.New(client, notify.NewService(0), store.Options{
		MaxDepth:     cfg.Editor.MaxDepth,
		HistoryLimit: cfg.Editor.HistoryLimit,
		Debounce:     cfg.Editor.Debounce,
		LiveUpdates:  liveUpdates,
		Logger:       logger,
	})
}

// targetSchema returns the schema named by --schema, falling back to the
// configured default.
func targetSchema() (string, error) {
	if schemaName != "" {
		return schemaName, nil
	}
	if cfg.Editor.DefaultSchema != "" {
		return cfg.Editor.DefaultSchema, nil
	}
	return "", errNoSchemaName
}

// openSchema builds a store without live updates and loads the target
// schema into it. The caller closes the store.
func openSchema(ctx context.Context) (*store.Store, *zap.Logger, error) {
	name, err := targetSchema()
	if err != nil {
		return nil, nil, err
	}
	logger, err := newLogger()
	if err != nil {
		return nil, nil, err
	}
	client, err := newClient(logger)
	if err != nil {
		return nil, nil, err
	}

	st := newStore(client, false, logger)
	if err := st.SelectSchema(ctx, name); err != nil {
		st.Close()
		return nil, nil, fmt.Errorf("failed to load schema %s: %w", name, err)
	}
	return st, logger, nil
}

func printJSON(w io.Writer, data interface{}) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(data)
}
