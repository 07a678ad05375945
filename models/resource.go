package models

import (
	"encoding/json"
	"fmt"
)

// Entity is implemented by every resource document the backend stores.
// Concrete types are *Box, *Dictionary, *LinkDefinition and *GenericResource.
type Entity interface {
	EntityName() string
	EntityKind() Kind
}

// Resource is the wire envelope of an entity: a kind-tagged document.
type Resource struct {
	Kind       Kind            `json:"kind"`
	Name       string          `json:"name"`
	SourceHash string          `json:"sourceHash,omitempty"`
	Spec       json.RawMessage `json:"spec,omitempty"`
}

// GenericResource carries documents of kinds the editor does not model.
// Its spec is kept verbatim so it can be written back untouched.
type GenericResource struct {
	Name string          `json:"name"`
	Kind Kind            `json:"kind"`
	Spec json.RawMessage `json:"spec,omitempty"`
}

func (g *GenericResource) EntityName() string { return g.Name }
func (g *GenericResource) EntityKind() Kind   { return g.Kind }

// IsBox reports whether e is a box.
func IsBox(e Entity) bool {
	_, ok := e.(*Box)
	return ok
}

// IsDictionary reports whether e is a dictionary.
func IsDictionary(e Entity) bool {
	_, ok := e.(*Dictionary)
	return ok
}

// IsLinkDefinition reports whether e is a link definition document.
func IsLinkDefinition(e Entity) bool {
	_, ok := e.(*LinkDefinition)
	return ok
}

// DecodeResource turns a wire resource into its tagged entity variant.
func DecodeResource(r Resource) (Entity, error) {
	spec := r.Spec
	if len(spec) == 0 {
		spec = json.RawMessage("{}")
	}

	switch {
	case IsBoxKind(r.Kind):
		box := &Box{Name: r.Name, Kind: r.Kind}
		if err := json.Unmarshal(spec, &box.Spec); err != nil {
			return nil, fmt.Errorf("decode box %s: %w", r.Name, err)
		}
		return box, nil
	case r.Kind == KindDictionary:
		dict := &Dictionary{Name: r.Name, Kind: r.Kind}
		if err := json.Unmarshal(spec, &dict.Spec); err != nil {
			return nil, fmt.Errorf("decode dictionary %s: %w", r.Name, err)
		}
		return dict, nil
	case r.Kind == KindLink:
		def := &LinkDefinition{Name: r.Name, Kind: r.Kind}
		if err := json.Unmarshal(spec, &def.Spec); err != nil {
			return nil, fmt.Errorf("decode link definition %s: %w", r.Name, err)
		}
		return def, nil
	default:
		return &GenericResource{Name: r.Name, Kind: r.Kind, Spec: append(json.RawMessage(nil), r.Spec...)}, nil
	}
}

// EncodeEntity converts an entity back into its wire envelope.
func EncodeEntity(e Entity) (Resource, error) {
	var spec any
	switch v := e.(type) {
	case *Box:
		spec = v.Spec
	case *Dictionary:
		spec = v.Spec
	case *LinkDefinition:
		spec = v.Spec
	case *GenericResource:
		return Resource{Kind: v.Kind, Name: v.Name, Spec: v.Spec}, nil
	default:
		return Resource{}, fmt.Errorf("unsupported entity type %T", e)
	}

	data, err := json.Marshal(spec)
	if err != nil {
		return Resource{}, fmt.Errorf("encode %s: %w", e.EntityName(), err)
	}
	return Resource{Kind: e.EntityKind(), Name: e.EntityName(), Spec: data}, nil
}

// CloneEntity returns a deep copy of e.
func CloneEntity(e Entity) Entity {
	switch v := e.(type) {
	case *Box:
		return v.Clone()
	case *Dictionary:
		return v.Clone()
	case *LinkDefinition:
		return v.Clone()
	case *GenericResource:
		c := *v
		c.Spec = append(json.RawMessage(nil), v.Spec...)
		return &c
	default:
		return e
	}
}

// Schema is the decoded state of a schema, split by entity variant.
type Schema struct {
	Boxes           []*Box
	Dictionaries    []*Dictionary
	LinkDefinitions []*LinkDefinition
	Other           []*GenericResource
}

// SplitEntities sorts entities into their variant lists.
func SplitEntities(entities []Entity) Schema {
	var s Schema
	for _, e := range entities {
		switch v := e.(type) {
		case *Box:
			s.Boxes = append(s.Boxes, v)
		case *Dictionary:
			s.Dictionaries = append(s.Dictionaries, v)
		case *LinkDefinition:
			s.LinkDefinitions = append(s.LinkDefinitions, v)
		case *GenericResource:
			s.Other = append(s.Other, v)
		}
	}
	return s
}
