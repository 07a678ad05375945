package registry

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"evalgo.org/schemaeditor/models"
)

func testBox(name, typ string) *models.Box {
	return &models.Box{Name: name, Kind: models.KindBox, Spec: models.BoxSpec{Type: typ}}
}

func newLoaded() *Registry {
	r := New()
	r.Load(
		[]*models.Box{testBox("codec-fix", "th2-codec"), testBox("conn-fix", "th2-conn"), testBox("codec-itch", "th2-codec"), {Name: "estore", Kind: models.KindEstore}},
		[]*models.Dictionary{{Name: "fix50", Kind: models.KindDictionary}},
	)
	return r
}

func TestRegistry_LoadCopies(t *testing.T) {
	b := testBox("a", "t")
	r := New()
	r.Load([]*models.Box{b}, nil)
	b.Spec.Type = "mutated"

	got, ok := r.Box("a")
	require.True(t, ok)
	assert.Equal(t, "t", got.Spec.Type)

	got.Spec.Type = "mutated"
	again, _ := r.Box("a")
	assert.Equal(t, "t", again.Spec.Type)
}

func TestRegistry_PutReplaceRemove(t *testing.T) {
	r := newLoaded()
	v := r.Version()

	assert.True(t, r.PutBox(testBox("new", "th2-act")))
	assert.False(t, r.PutBox(testBox("new", "th2-check")))
	assert.Greater(t, r.Version(), v)

	require.True(t, r.SelectBox("conn-fix"))
	require.True(t, r.ReplaceBox("conn-fix", testBox("conn-fix-2", "th2-conn")))
	assert.Equal(t, "conn-fix-2", r.SelectedBox().Name, "selection follows rename")

	_, ok := r.RemoveBox("conn-fix-2")
	assert.True(t, ok)
	assert.Nil(t, r.SelectedBox())
	_, ok = r.RemoveBox("conn-fix-2")
	assert.False(t, ok)
}

func TestRegistry_Selection(t *testing.T) {
	r := newLoaded()
	assert.False(t, r.SelectBox("missing"))
	assert.True(t, r.SelectBox("codec-fix"))
	assert.True(t, r.SelectDictionary("fix50"))
	assert.Nil(t, r.SelectedBox(), "selecting a dictionary clears the box selection")
	assert.Equal(t, "fix50", r.SelectedDictionary().Name)
	assert.True(t, r.SelectDictionary(""))
	assert.Nil(t, r.SelectedDictionary())
}

func TestRegistry_GroupByType(t *testing.T) {
	groups := newLoaded().GroupByType()
	require.Len(t, groups, 3)

	assert.Equal(t, "Th2Estore", groups[0].Type)
	assert.Equal(t, "th2-codec", groups[1].Type)
	require.Len(t, groups[1].Boxes, 2)
	assert.Equal(t, "codec-fix", groups[1].Boxes[0].Name)
	assert.Equal(t, "codec-itch", groups[1].Boxes[1].Name)
	assert.Equal(t, "th2-conn", groups[2].Type)
}

func TestRegistry_Search(t *testing.T) {
	r := newLoaded()

	tests := []struct {
		pattern string
		want    []string
	}{
		{"", []string{"codec-fix", "conn-fix", "codec-itch", "estore"}},
		{"FIX", []string{"codec-fix", "conn-fix"}},
		{"codec-*", []string{"codec-fix", "codec-itch"}},
		{"*-{fix,itch}", []string{"codec-fix", "conn-fix", "codec-itch"}},
		{"[", nil},
	}

	for _, tt := range tests {
		t.Run(tt.pattern, func(t *testing.T) {
			var names []string
			for _, b := range r.Search(tt.pattern) {
				names = append(names, b.Name)
			}
			assert.Equal(t, tt.want, names)
		})
	}
}

func TestRegistry_Dictionaries(t *testing.T) {
	r := newLoaded()
	assert.False(t, r.PutDictionary(&models.Dictionary{Name: "fix50", Kind: models.KindDictionary, Spec: models.DictionarySpec{Data: "<x/>"}}))
	d, ok := r.Dictionary("fix50")
	require.True(t, ok)
	assert.Equal(t, "<x/>", d.Spec.Data)

	assert.True(t, r.ReplaceDictionary("fix50", &models.Dictionary{Name: "fix44", Kind: models.KindDictionary}))
	_, ok = r.Dictionary("fix50")
	assert.False(t, ok)
	_, ok = r.RemoveDictionary("fix44")
	assert.True(t, ok)
	assert.Empty(t, r.Dictionaries())
}
