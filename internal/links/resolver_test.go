package links

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"evalgo.org/schemaeditor/models"
)

func box(name string, pins ...string) *models.Box {
	b := &models.Box{Name: name, Kind: models.KindBox, Spec: models.BoxSpec{Type: "th2-act"}}
	for _, p := range pins {
		b.Spec.Pins = append(b.Spec.Pins, models.Pin{Name: p, ConnectionType: models.ConnectionMQ})
	}
	return b
}

func link(name, fromBox, fromPin, toBox, toPin string) models.ExtendedLink {
	return models.ToExtended(models.Link{
		Name: name,
		From: &models.LinkEndpoint{Box: fromBox, Pin: fromPin},
		To:   &models.LinkEndpoint{Box: toBox, Pin: toPin},
	}, models.ConnectionMQ)
}

func TestResolve_FromDirection(t *testing.T) {
	boxes := []*models.Box{
		box("conn", "out", "in"),
		box("codec-b", "in"),
		box("codec-a", "in", "out"),
		box("estore", "in"),
	}
	all := []models.ExtendedLink{
		link("l1", "conn", "out", "codec-b", "in"),
		link("l2", "conn", "out", "codec-a", "in"),
		link("l3", "codec-a", "out", "estore", "in"),
		link("l4", "conn", "out", "codec-a", "in"),
	}

	tree := Resolve(boxes[0], models.BoxesByName(boxes), all, models.DirectionFrom, DefaultMaxDepth)

	require.Len(t, tree.Pins, 1)
	assert.Equal(t, "out", tree.Pins[0].Pin)
	require.Len(t, tree.Pins[0].Boxes, 2)
	assert.Equal(t, "codec-a", tree.Pins[0].Boxes[0].Box, "neighbors sorted by name")
	assert.Equal(t, "codec-b", tree.Pins[0].Boxes[1].Box)

	nested := tree.Pins[0].Boxes[0].Pins
	require.Len(t, nested, 1)
	assert.Equal(t, "out", nested[0].Pin)
	require.Len(t, nested[0].Boxes, 1)
	assert.Equal(t, "estore", nested[0].Boxes[0].Box)
	assert.Empty(t, nested[0].Boxes[0].Pins, "depth bound reached")
	assert.Equal(t, 2, tree.MaxDepth())
}

func TestResolve_ToDirection(t *testing.T) {
	boxes := []*models.Box{box("a", "out"), box("b", "in")}
	all := []models.ExtendedLink{link("l1", "a", "out", "b", "in")}
	index := models.BoxesByName(boxes)

	tree := Resolve(index["b"], index, all, models.DirectionTo, DefaultMaxDepth)
	require.Len(t, tree.Pins, 1)
	assert.Equal(t, "in", tree.Pins[0].Pin)
	assert.Equal(t, "a", tree.Pins[0].Boxes[0].Box)

	empty := Resolve(index["b"], index, all, models.DirectionFrom, DefaultMaxDepth)
	assert.Empty(t, empty.Pins)
}

func TestResolve_IgnoresMissingBoxesAndPins(t *testing.T) {
	boxes := []*models.Box{box("a", "out"), box("b", "in")}
	all := []models.ExtendedLink{
		link("to-ghost", "a", "out", "ghost", "in"),
		link("lost-pin", "a", "removed", "b", "in"),
		{Name: "half", From: &models.ExtendedEndpoint{Box: "a", Pin: "out"}},
	}

	tree := Resolve(boxes[0], models.BoxesByName(boxes), all, models.DirectionFrom, DefaultMaxDepth)
	assert.Empty(t, tree.Pins)
	assert.NotNil(t, tree.Pins)
}

func TestResolve_CycleTerminates(t *testing.T) {
	boxes := []*models.Box{box("a", "out", "in"), box("b", "out", "in")}
	all := []models.ExtendedLink{
		link("ab", "a", "out", "b", "in"),
		link("ba", "b", "out", "a", "in"),
	}
	index := models.BoxesByName(boxes)

	for _, d := range []models.Direction{models.DirectionFrom, models.DirectionTo} {
		tree := Resolve(index["a"], index, all, d, 2)
		assert.Equal(t, 2, tree.MaxDepth(), "direction %s", d)
		assert.ElementsMatch(t, []string{"a", "b"}, tree.BoxNames())
	}
}

func TestResolve_NeverReturnsUnknownBoxes(t *testing.T) {
	boxes := []*models.Box{box("a", "p"), box("b", "p"), box("c", "p")}
	index := models.BoxesByName(boxes)
	all := []models.ExtendedLink{
		link("1", "a", "p", "b", "p"),
		link("2", "b", "p", "c", "p"),
		link("3", "c", "p", "x", "p"),
		link("4", "y", "p", "a", "p"),
		link("5", "c", "p", "a", "p"),
	}

	for _, root := range boxes {
		for _, d := range []models.Direction{models.DirectionFrom, models.DirectionTo} {
			for depth := 0; depth <= 4; depth++ {
				tree := Resolve(root, index, all, d, depth)
				for _, name := range tree.BoxNames() {
					assert.Contains(t, index, name)
				}
				assert.LessOrEqual(t, tree.MaxDepth(), depth)
			}
		}
	}
}

func TestResolve_IsDeterministic(t *testing.T) {
	boxes := []*models.Box{box("a", "p"), box("b", "p"), box("c", "p")}
	index := models.BoxesByName(boxes)
	all := []models.ExtendedLink{
		link("1", "a", "p", "c", "p"),
		link("2", "a", "p", "b", "p"),
	}
	reversed := []models.ExtendedLink{all[1], all[0]}

	assert.Equal(t,
		Resolve(index["a"], index, all, models.DirectionFrom, 2),
		Resolve(index["a"], index, reversed, models.DirectionFrom, 2),
	)
}

func TestResolve_NilRoot(t *testing.T) {
	tree := Resolve(nil, nil, nil, models.DirectionTo, 2)
	assert.Equal(t, "", tree.Root)
	assert.Empty(t, tree.Pins)
}

func TestMergePin_UnionsBoxes(t *testing.T) {
	pins := []PinConnections{{Pin: "p", Boxes: []BoxConnections{{Box: "b"}}}}
	pins = mergePin(pins, PinConnections{Pin: "p", Boxes: []BoxConnections{{Box: "a"}, {Box: "b"}}})

	require.Len(t, pins, 1)
	require.Len(t, pins[0].Boxes, 2)
	assert.Equal(t, "a", pins[0].Boxes[0].Box)
	assert.Equal(t, "b", pins[0].Boxes[1].Box)
}

func TestFindInvalidLinks(t *testing.T) {
	boxes := []*models.Box{box("a", "out"), box("b", "in")}
	all := []models.ExtendedLink{
		link("ok", "a", "out", "b", "in"),
		link("lost-box", "a", "out", "gone", "in"),
		link("lost-pin", "a", "renamed", "b", "in"),
		link("both", "gone", "x", "b", "missing"),
	}

	invalid := FindInvalidLinks(all, models.BoxesByName(boxes))
	require.Len(t, invalid, 3)

	assert.Equal(t, "lost-box", invalid[0].Link.Name)
	assert.Equal(t, []LostBox{{Direction: models.DirectionTo, Box: "gone"}}, invalid[0].LostBoxes)

	assert.Equal(t, "lost-pin", invalid[1].Link.Name)
	assert.Equal(t, []LostPin{{Direction: models.DirectionFrom, Box: "a", Pin: "renamed"}}, invalid[1].LostPins)

	assert.Equal(t, "both", invalid[2].Link.Name)
	assert.Len(t, invalid[2].LostBoxes, 1)
	assert.Len(t, invalid[2].LostPins, 1)
}

func TestLinksOfBox(t *testing.T) {
	all := []models.ExtendedLink{
		link("1", "a", "p", "b", "p"),
		link("2", "b", "p", "c", "p"),
		link("3", "c", "p", "d", "p"),
	}
	got := LinksOfBox(all, "b")
	require.Len(t, got, 2)
	assert.Equal(t, "1", got[0].Name)
	assert.Equal(t, "2", got[1].Name)
}
