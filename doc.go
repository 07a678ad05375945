// Package schemaeditor is the state core of a topology editor for
// component schemas.
//
// # Overview
//
// A schema is a named set of resources held by a schema backend. The editor
// loads one schema at a time and exposes it as boxes (deployable
// components), pins (their named connection endpoints), links (directed
// pin-to-pin connections) and dictionaries (configuration documents boxes
// refer to). Every edit is recorded twice: as a snapshot on the undo/redo
// history and as a pending request in the submission queue. Submitting the
// queue sends one batch to the backend, whose push channel reports the
// outcome and any concurrent changes.
//
// The module consists of:
//   - Editor store: boxes, links, dictionaries, history and pending requests
//   - Link resolver: connection trees around a box up to a depth limit
//   - Backend client: HTTP commands plus a websocket push channel
//   - UI bridge: REST API and websocket that expose the editor state
//   - Dev backend: an in-memory schema backend with validation
//
// # Architecture
//
//	┌─────────────────┐
//	│   UI / CLI      │
//	└────────┬────────┘
//	         │
//	┌────────▼────────┐
//	│  UI Bridge      │
//	│  (Echo REST/WS) │
//	└────────┬────────┘
//	         │
//	┌────────▼────────┐       ┌─────────────────┐
//	│  Editor Store   │◄──────┤  Push Channel   │
//	│  (history/queue)│       │  (websocket)    │
//	└────────┬────────┘       └────────▲────────┘
//	         │                         │
//	┌────────▼─────────────────────────┴┐
//	│  Schema Backend (real or dev)     │
//	└───────────────────────────────────┘
//
// # Usage
//
// Start an in-memory backend seeded with a demo topology:
//
//	schemaeditor dev-backend
//
// Start the UI bridge against it:
//
//	schemaeditor serve --schema demo
//
// Inspect a schema from the command line:
//
//	schemaeditor boxes list -s demo --group
//	schemaeditor links resolve codec-fix -s demo --depth 2
//	schemaeditor dictionaries migrate -s demo --submit
//	schemaeditor watch -s demo
//
// # Configuration
//
// Configuration can be provided via:
//   - YAML file (config.yaml, ./configs, $HOME/.schemaeditor, /etc/schemaeditor)
//   - Environment variables (SE_ prefix)
//   - .env file
//
// Example configuration:
//
//	backend:
//	  url: http://localhost:8081
//	  token: ""
//	editor:
//	  max_depth: 2
//	  history_limit: 100
//	  debounce: 600ms
//	  live_updates: true
//	server:
//	  port: 8080
//	dev_backend:
//	  port: 8081
//	  seed_schema: demo
//	logging:
//	  level: info
//	  format: text
//
// # API Endpoints
//
// Schemas:
//   - GET    /api/v1/schemas                 - List schemas
//   - POST   /api/v1/schemas                 - Create schema
//   - POST   /api/v1/schemas/:name/select    - Load schema
//   - POST   /api/v1/schema/submit           - Submit pending requests
//   - POST   /api/v1/schema/discard          - Drop pending requests
//
// Boxes and Links:
//   - GET    /api/v1/boxes                   - List boxes (paginated)
//   - GET    /api/v1/boxes/:name/tree        - Resolve connection tree
//   - POST   /api/v1/boxes/:name/rename      - Rename box
//   - GET    /api/v1/links                   - List links
//   - GET    /api/v1/links/invalid           - Links with a missing endpoint
//
// Dictionaries and History:
//   - GET    /api/v1/dictionaries            - List dictionaries
//   - POST   /api/v1/dictionaries/migrate    - Convert legacy relations
//   - POST   /api/v1/history/undo            - Undo last edit
//   - POST   /api/v1/history/redo            - Redo last undone edit
//
// WebSocket:
//   - GET /api/v1/ws          - State change events
//   - GET /api/v1/ws/stats    - WebSocket statistics
//
// # Development
//
// Run tests:
//
//	go test ./...
//
// Build the binary:
//
//	go build -o schemaeditor ./cmd/schemaeditor
//
// # Technology Stack
//
//   - Go 1.25+
//   - Echo v4 (Web framework)
//   - Gorilla WebSocket (push channel and UI events)
//   - Cobra/Viper (CLI and configuration)
//   - Zap (structured logging)
package schemaeditor
