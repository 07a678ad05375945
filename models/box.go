package models

// Box represents a service instance in a schema.
//
// A box is identified by its name, which is unique within a schema. Its pins
// are the typed connection points that links attach to.
//
// Example JSON representation:
//
//	{
//	  "kind": "Th2Box",
//	  "name": "codec-fix",
//	  "spec": {
//	    "type": "th2-codec",
//	    "image-name": "ghcr.io/example/codec-fix",
//	    "image-version": "3.1.0",
//	    "pins": [
//	      {"name": "in_codec_encode", "connection-type": "mq", "attributes": ["encoder_in", "subscribe"]}
//	    ]
//	  }
//	}
type Box struct {
	// Name is the box name (required, DNS-compatible, unique within the schema)
	Name string `json:"name" validate:"required,hostname_rfc1123"`

	// Kind is the box category tag
	Kind Kind `json:"kind" validate:"required"`

	// Spec holds the box configuration
	Spec BoxSpec `json:"spec"`
}

// BoxSpec is the configuration body of a box.
type BoxSpec struct {
	// Type is the free-form box subtype (e.g. th2-codec, th2-conn)
	Type string `json:"type,omitempty"`

	// ImageName is the container image the box runs
	ImageName string `json:"image-name,omitempty"`

	// ImageVersion is the container image tag
	ImageVersion string `json:"image-version,omitempty"`

	// NodePort is the optional exposed node port
	NodePort *int `json:"node-port,omitempty" validate:"omitempty,min=1,max=65535"`

	// Pins are the connection points of the box, name-unique within the box
	Pins []Pin `json:"pins,omitempty" validate:"unique=Name,dive"`

	// CustomConfig is opaque box configuration
	CustomConfig map[string]any `json:"custom-config,omitempty"`

	// ExtendedSettings is opaque deployment configuration
	ExtendedSettings map[string]any `json:"extended-settings,omitempty"`
}

// Pin is a typed connection point embedded in a box.
type Pin struct {
	// Name is the pin name, unique within its box
	Name string `json:"name" validate:"required"`

	// ConnectionType is the transport of the pin (mq or grpc)
	ConnectionType ConnectionType `json:"connection-type" validate:"required,oneof=mq grpc"`

	// Attributes are routing attributes (e.g. subscribe, publish, parsed)
	Attributes []string `json:"attributes,omitempty"`

	// Filters are opaque message filters
	Filters []map[string]any `json:"filters,omitempty"`
}

func (b *Box) EntityName() string { return b.Name }
func (b *Box) EntityKind() Kind   { return b.Kind }

// Pin returns the pin with the given name.
func (b *Box) Pin(name string) (Pin, bool) {
	for _, p := range b.Spec.Pins {
		if p.Name == name {
			return p, true
		}
	}
	return Pin{}, false
}

// HasPin reports whether the box declares a pin with the given name.
func (b *Box) HasPin(name string) bool {
	_, ok := b.Pin(name)
	return ok
}

// Clone returns a deep copy of the box suitable for editing.
func (b *Box) Clone() *Box {
	if b == nil {
		return nil
	}
	c := *b
	if b.Spec.NodePort != nil {
		port := *b.Spec.NodePort
		c.Spec.NodePort = &port
	}
	if b.Spec.Pins != nil {
		c.Spec.Pins = make([]Pin, len(b.Spec.Pins))
		for i, p := range b.Spec.Pins {
			c.Spec.Pins[i] = p
			if p.Attributes != nil {
				c.Spec.Pins[i].Attributes = append([]string(nil), p.Attributes...)
			}
			if p.Filters != nil {
				c.Spec.Pins[i].Filters = make([]map[string]any, len(p.Filters))
				for j, f := range p.Filters {
					c.Spec.Pins[i].Filters[j] = cloneMap(f)
				}
			}
		}
	}
	c.Spec.CustomConfig = cloneMap(b.Spec.CustomConfig)
	c.Spec.ExtendedSettings = cloneMap(b.Spec.ExtendedSettings)
	return &c
}

// BoxesByName indexes boxes by name. Later duplicates win.
func BoxesByName(boxes []*Box) map[string]*Box {
	index := make(map[string]*Box, len(boxes))
	for _, b := range boxes {
		index[b.Name] = b
	}
	return index
}
