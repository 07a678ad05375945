package commands

import (
	"bytes"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"evalgo.org/schemaeditor/internal/auth"
	"evalgo.org/schemaeditor/internal/config"
	"evalgo.org/schemaeditor/internal/devbackend"
	"evalgo.org/schemaeditor/models"
)

// withBackend points the CLI at a dev backend seeded with "demo".
func withBackend(t *testing.T) *devbackend.Repository {
	t.Helper()

	repo := devbackend.NewRepository()
	require.NoError(t, repo.Seed("demo"))
	srv := devbackend.New(config.Default(), repo, nil)
	t.Cleanup(srv.Close)
	ts := httptest.NewServer(srv)
	t.Cleanup(ts.Close)

	t.Setenv("SE_BACKEND_URL", ts.URL)
	t.Setenv("SE_LOGGING_LEVEL", "error")
	return repo
}

// run executes the root command with args and returns its stdout.
func run(t *testing.T, args ...string) (string, error) {
	t.Helper()

	// flag variables outlive a single Execute
	schemaName = ""
	boxesMatch, boxesGroup, boxesFormat = "", false, "table"
	linksDirection, linksDepth, linksFormat = "to", 0, "tree"
	migrateSubmit = false

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	t.Cleanup(func() {
		rootCmd.SetOut(nil)
		rootCmd.SetErr(nil)
		rootCmd.SetArgs(nil)
	})

	err := rootCmd.Execute()
	return out.String(), err
}

func TestSchemasList(t *testing.T) {
	withBackend(t)

	out, err := run(t, "schemas", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "demo")
}

func TestSchemasCreate(t *testing.T) {
	repo := withBackend(t)

	out, err := run(t, "schemas", "create", "staging")
	require.NoError(t, err)
	assert.Contains(t, out, "staging")
	assert.Contains(t, repo.List(), "staging")
}

func TestBoxesList(t *testing.T) {
	withBackend(t)

	out, err := run(t, "boxes", "list", "-s", "demo")
	require.NoError(t, err)
	assert.Contains(t, out, "NAME")
	for _, name := range []string{"conn-fix", "codec-fix", "act", "check1", "estore"} {
		assert.Contains(t, out, name)
	}

	out, err = run(t, "boxes", "list", "-s", "demo", "--match", "codec*", "--format", "json")
	require.NoError(t, err)
	var boxes []models.Box
	require.NoError(t, json.Unmarshal([]byte(out), &boxes))
	require.Len(t, boxes, 1)
	assert.Equal(t, "codec-fix", boxes[0].Name)
}

func TestBoxesList_Group(t *testing.T) {
	withBackend(t)

	out, err := run(t, "boxes", "list", "-s", "demo", "--group")
	require.NoError(t, err)
	assert.Contains(t, out, "th2-codec (1)")
	assert.Contains(t, out, "  codec-fix")
}

func TestBoxesList_NeedsSchema(t *testing.T) {
	withBackend(t)

	_, err := run(t, "boxes", "list")
	assert.ErrorIs(t, err, errNoSchemaName)
}

func TestLinksResolve(t *testing.T) {
	withBackend(t)

	out, err := run(t, "links", "resolve", "codec-fix", "-s", "demo", "--direction", "from", "--format", "tree")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "codec-fix (from)"), out)
	assert.Contains(t, out, "-> act")
	assert.Contains(t, out, "-> check1")

	_, err = run(t, "links", "resolve", "codec-fix", "-s", "demo", "--direction", "sideways")
	assert.ErrorContains(t, err, "invalid direction")

	_, err = run(t, "links", "resolve", "nope", "-s", "demo")
	assert.ErrorContains(t, err, "box not found")
}

func TestLinksInvalid(t *testing.T) {
	withBackend(t)

	out, err := run(t, "links", "invalid", "-s", "demo", "--format", "table")
	require.NoError(t, err)
	assert.Contains(t, out, "All links are valid")
}

func TestDictionariesMigrate(t *testing.T) {
	repo := withBackend(t)

	out, err := run(t, "dictionaries", "migrate", "-s", "demo")
	require.NoError(t, err)
	assert.Contains(t, out, "codec-fix: fix50-generic")
	assert.Contains(t, out, "Run with --submit")

	out, err = run(t, "dictionaries", "migrate", "-s", "demo", "--submit")
	require.NoError(t, err)
	assert.Contains(t, out, "Migration submitted")

	state, err := repo.Get("demo")
	require.NoError(t, err)
	entities, err := state.Entities()
	require.NoError(t, err)
	for _, def := range models.SplitEntities(entities).LinkDefinitions {
		assert.Empty(t, def.Spec.DictionariesRelation, def.Name)
	}

	out, err = run(t, "dictionaries", "migrate", "-s", "demo")
	require.NoError(t, err)
	assert.Contains(t, out, "No legacy dictionary relations")
}

func TestToken(t *testing.T) {
	withBackend(t)

	out, err := run(t, "token", "--subject", "alice", "--role", "write", "--secret", "test-secret")
	require.NoError(t, err)

	_, rest, ok := strings.Cut(out, "Token:\n")
	require.True(t, ok, out)
	token := strings.TrimSpace(strings.SplitN(rest, "\n", 2)[0])

	security := config.Default().Security
	security.JWTSecret = "test-secret"
	claims, err := auth.NewJWTService(security).ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, "alice", claims.Subject)
	assert.True(t, claims.Has(auth.RoleWrite))
}

func TestConfigShow(t *testing.T) {
	withBackend(t)

	out, err := run(t, "config", "show")
	require.NoError(t, err)
	assert.Contains(t, out, "backend:")
	assert.Contains(t, out, "max_depth: 2")
}
