// Package links derives connection topology from the flat list of link
// definitions of a schema.
//
// All functions in this package are pure: for the same boxes and links they
// return the same result, which lets callers memoize them against the
// versions of their inputs.
package links

import (
	"sort"

	"evalgo.org/schemaeditor/models"
)

// DefaultMaxDepth is the number of box levels resolved around a selection.
const DefaultMaxDepth = 2

// PinConnections lists the boxes reachable through one pin of a box.
type PinConnections struct {
	Pin            string                `json:"pin"`
	ConnectionType models.ConnectionType `json:"connectionType"`
	Boxes          []BoxConnections      `json:"boxes"`
}

// BoxConnections is a neighbor box and the connections resolved from it one
// level deeper.
type BoxConnections struct {
	Box   string           `json:"box"`
	Kind  models.Kind      `json:"kind"`
	Type  string           `json:"type,omitempty"`
	Pins  []PinConnections `json:"pins,omitempty"`
	Depth int              `json:"depth"`
}

// Tree is the resolved neighborhood of a root box in one direction.
type Tree struct {
	Root      string           `json:"root"`
	Direction models.Direction `json:"direction"`
	Pins      []PinConnections `json:"pins"`
}

// Resolve computes the bounded-depth tree of boxes connected to root.
//
// With direction "from", links whose from-endpoint is on root are followed to
// their to-endpoint box, and vice versa. Links whose far endpoint names a box
// missing from boxesByName are ignored. A missing root yields an empty tree.
func Resolve(root *models.Box, boxesByName map[string]*models.Box, all []models.ExtendedLink, direction models.Direction, maxDepth int) Tree {
	tree := Tree{Direction: direction, Pins: []PinConnections{}}
	if root == nil {
		return tree
	}
	tree.Root = root.Name
	if pins := resolvePins(root, boxesByName, all, direction, 0, maxDepth); pins != nil {
		tree.Pins = pins
	}
	return tree
}

func resolvePins(root *models.Box, boxesByName map[string]*models.Box, all []models.ExtendedLink, direction models.Direction, depth, maxDepth int) []PinConnections {
	if depth >= maxDepth {
		return nil
	}
	opposite := direction.Opposite()

	// pin name -> links anchored on that pin of root
	byPin := make(map[string][]models.ExtendedLink)
	for _, l := range all {
		near, far := l.Endpoint(direction), l.Endpoint(opposite)
		if near == nil || far == nil || near.Box != root.Name {
			continue
		}
		if _, ok := boxesByName[far.Box]; !ok {
			continue
		}
		byPin[near.Pin] = append(byPin[near.Pin], l)
	}

	var result []PinConnections
	for _, pin := range root.Spec.Pins {
		pinLinks, ok := byPin[pin.Name]
		if !ok {
			continue
		}

		seen := make(map[string]bool)
		var neighbors []*models.Box
		for _, l := range pinLinks {
			name := l.Endpoint(opposite).Box
			if seen[name] {
				continue
			}
			seen[name] = true
			neighbors = append(neighbors, boxesByName[name])
		}
		sort.Slice(neighbors, func(i, j int) bool { return neighbors[i].Name < neighbors[j].Name })

		boxes := make([]BoxConnections, 0, len(neighbors))
		for _, n := range neighbors {
			boxes = append(boxes, BoxConnections{
				Box:   n.Name,
				Kind:  n.Kind,
				Type:  n.Spec.Type,
				Pins:  resolvePins(n, boxesByName, all, direction, depth+1, maxDepth),
				Depth: depth + 1,
			})
		}

		result = mergePin(result, PinConnections{
			Pin:            pin.Name,
			ConnectionType: pin.ConnectionType,
			Boxes:          boxes,
		})
	}

	out := result[:0]
	for _, p := range result {
		if len(p.Boxes) > 0 {
			out = append(out, p)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Pin < out[j].Pin })
	return out
}

// mergePin adds p to pins, unioning its boxes into an existing entry with the
// same pin name instead of duplicating it.
func mergePin(pins []PinConnections, p PinConnections) []PinConnections {
	for i := range pins {
		if pins[i].Pin != p.Pin {
			continue
		}
		seen := make(map[string]bool, len(pins[i].Boxes))
		for _, b := range pins[i].Boxes {
			seen[b.Box] = true
		}
		for _, b := range p.Boxes {
			if !seen[b.Box] {
				seen[b.Box] = true
				pins[i].Boxes = append(pins[i].Boxes, b)
			}
		}
		sort.Slice(pins[i].Boxes, func(a, b int) bool { return pins[i].Boxes[a].Box < pins[i].Boxes[b].Box })
		return pins
	}
	return append(pins, p)
}

// BoxNames returns every box name that appears anywhere in the tree.
func (t Tree) BoxNames() []string {
	seen := make(map[string]bool)
	var walk func(pins []PinConnections)
	walk = func(pins []PinConnections) {
		for _, p := range pins {
			for _, b := range p.Boxes {
				seen[b.Box] = true
				walk(b.Pins)
			}
		}
	}
	walk(t.Pins)

	names := make([]string, 0, len(seen))
	for n := range seen {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// MaxDepth returns the deepest box level present in the tree.
func (t Tree) MaxDepth() int {
	var deepest int
	var walk func(pins []PinConnections)
	walk = func(pins []PinConnections) {
		for _, p := range pins {
			for _, b := range p.Boxes {
				if b.Depth > deepest {
					deepest = b.Depth
				}
				walk(b.Pins)
			}
		}
	}
	walk(t.Pins)
	return deepest
}
