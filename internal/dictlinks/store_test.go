package dictlinks

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"evalgo.org/schemaeditor/models"
)

func legacyDef(rels ...models.DictionaryRelation) *models.LinkDefinition {
	def := models.NewLinkDefinition("links")
	def.Spec.DictionariesRelation = rels
	return def
}

func TestMigrateToMulti_MergesByBox(t *testing.T) {
	s := New()
	s.Load([]*models.LinkDefinition{legacyDef(
		models.DictionaryRelation{Name: "r1", Box: "b1", Dictionary: models.DictionaryRef{Name: "d1"}},
		models.DictionaryRelation{Name: "r2", Box: "b1", Dictionary: models.DictionaryRef{Name: "d2"}},
	)})

	created := s.MigrateToMulti()
	require.Len(t, created, 1)
	assert.Equal(t, "b1", created[0].Box)
	assert.Equal(t, []models.DictionaryAlias{{Name: "d1"}, {Name: "d2"}}, created[0].Dictionaries)
	assert.Empty(t, s.Legacy())
	assert.Equal(t, created, s.Multi())
}

func TestMigrateToMulti_KeepsOrderAndAliases(t *testing.T) {
	s := New()
	s.Load([]*models.LinkDefinition{legacyDef(
		models.DictionaryRelation{Box: "b2", Dictionary: models.DictionaryRef{Name: "d3", Type: "MAIN"}},
		models.DictionaryRelation{Box: "b1", Dictionary: models.DictionaryRef{Name: "d1", Type: "LEVEL1"}},
		models.DictionaryRelation{Box: "b2", Dictionary: models.DictionaryRef{Name: "d4", Type: "LEVEL2"}},
	)})

	created := s.MigrateToMulti()
	require.Len(t, created, 2)
	assert.Equal(t, "b2", created[0].Box)
	assert.Equal(t, []models.DictionaryAlias{{Name: "d3", Alias: "MAIN"}, {Name: "d4", Alias: "LEVEL2"}}, created[0].Dictionaries)
	assert.Equal(t, "b1", created[1].Box)
}

func TestMigrateToMulti_Idempotent(t *testing.T) {
	s := New()
	s.Load([]*models.LinkDefinition{legacyDef(
		models.DictionaryRelation{Box: "b1", Dictionary: models.DictionaryRef{Name: "d1"}},
	)})

	first := s.MigrateToMulti()
	before := s.Multi()
	second := s.MigrateToMulti()

	assert.Len(t, first, 1)
	assert.Empty(t, second)
	assert.Equal(t, before, s.Multi())
	assert.False(t, s.HasLegacy())
}

func TestMigrateToMulti_FoldsIntoExistingRelation(t *testing.T) {
	def := legacyDef(
		models.DictionaryRelation{Box: "b1", Dictionary: models.DictionaryRef{Name: "d1", Type: "MAIN"}},
		models.DictionaryRelation{Box: "b1", Dictionary: models.DictionaryRef{Name: "d0"}},
		models.DictionaryRelation{Box: "b2", Dictionary: models.DictionaryRef{Name: "d2"}},
	)
	def.Spec.MultiDictionariesRelation = []models.MultiDictionaryRelation{{
		Name:         "b1-dictionaries",
		Box:          "b1",
		Dictionaries: []models.DictionaryAlias{{Name: "d0"}},
	}}
	s := New()
	s.Load([]*models.LinkDefinition{def})

	created := s.MigrateToMulti()
	require.Len(t, created, 2)

	multi := s.Multi()
	require.Len(t, multi, 2)
	assert.Equal(t, "b1", multi[0].Box)
	assert.Equal(t, []models.DictionaryAlias{{Name: "d0"}, {Name: "d1", Alias: "MAIN"}}, multi[0].Dictionaries)
	assert.Equal(t, "b2", multi[1].Box)
	assert.Equal(t, []string{"b1"}, s.BoxesForDictionary("d0"))
}

func TestAddRemoveRelation(t *testing.T) {
	s := New()
	assert.True(t, s.AddRelation("codec", models.DictionaryAlias{Name: "fix50", Alias: "MAIN"}))
	assert.False(t, s.AddRelation("codec", models.DictionaryAlias{Name: "fix50", Alias: "OTHER"}))
	assert.True(t, s.AddRelation("codec", models.DictionaryAlias{Name: "fix44"}))

	require.Len(t, s.Multi(), 1)
	assert.Len(t, s.DictionariesForBox("codec"), 2)
	assert.Equal(t, []string{"codec"}, s.BoxesForDictionary("fix44"))

	assert.True(t, s.RemoveRelation("codec", "fix50"))
	assert.False(t, s.RemoveRelation("codec", "fix50"))
	assert.True(t, s.RemoveRelation("codec", "fix44"))
	assert.Empty(t, s.Multi(), "empty relations are dropped")
}

func TestRenames(t *testing.T) {
	s := New()
	s.Load([]*models.LinkDefinition{legacyDef(
		models.DictionaryRelation{Box: "old", Dictionary: models.DictionaryRef{Name: "d-old"}},
	)})
	s.AddRelation("old", models.DictionaryAlias{Name: "d2"})

	assert.True(t, s.RenameBox("old", "new"))
	assert.Empty(t, s.DictionariesForBox("old"))
	assert.Len(t, s.DictionariesForBox("new"), 2)

	assert.True(t, s.RenameDictionary("d-old", "d-new"))
	assert.Equal(t, []string{"new"}, s.BoxesForDictionary("d-new"))
	assert.False(t, s.RenameDictionary("missing", "x"))
}

func TestRemoveBoxAndDictionary(t *testing.T) {
	s := New()
	s.AddRelation("a", models.DictionaryAlias{Name: "d1"})
	s.AddRelation("b", models.DictionaryAlias{Name: "d1"})
	s.AddRelation("b", models.DictionaryAlias{Name: "d2"})

	assert.True(t, s.RemoveDictionary("d1"))
	assert.Empty(t, s.BoxesForDictionary("d1"))
	assert.Equal(t, []string{"b"}, s.BoxesForDictionary("d2"))

	assert.True(t, s.RemoveBox("b"))
	assert.Empty(t, s.Multi())
}
