package models

// EditorLinksName is the link definition document that holds every link the
// editor creates. User-authored link documents are never rewritten to add links.
const EditorLinksName = "editor-generated-links"

// LinkEndpoint is one side of a persisted link.
type LinkEndpoint struct {
	Box          string `json:"box"`
	Pin          string `json:"pin"`
	Strategy     string `json:"strategy,omitempty"`
	ServiceClass string `json:"service-class,omitempty"`
}

// Link is a directed connection between two pins, in the form the backend
// persists it. A link with a missing endpoint only exists while being edited.
type Link struct {
	Name string        `json:"name"`
	From *LinkEndpoint `json:"from,omitempty"`
	To   *LinkEndpoint `json:"to,omitempty"`
}

// ExtendedEndpoint is a link endpoint stamped with its connection type.
type ExtendedEndpoint struct {
	Box            string         `json:"box"`
	Pin            string         `json:"pin"`
	ConnectionType ConnectionType `json:"connectionType"`
	Strategy       string         `json:"strategy,omitempty"`
	ServiceClass   string         `json:"service-class,omitempty"`
}

// ExtendedLink is a link that knows which router bucket it belongs to.
type ExtendedLink struct {
	Name string            `json:"name"`
	From *ExtendedEndpoint `json:"from,omitempty"`
	To   *ExtendedEndpoint `json:"to,omitempty"`
}

// Endpoint returns the endpoint on the given side of the link.
func (l ExtendedLink) Endpoint(d Direction) *ExtendedEndpoint {
	if d == DirectionFrom {
		return l.From
	}
	return l.To
}

// ConnectionType returns the connection type of the link, taken from the
// first present endpoint.
func (l ExtendedLink) ConnectionType() ConnectionType {
	if l.From != nil && l.From.ConnectionType != "" {
		return l.From.ConnectionType
	}
	if l.To != nil {
		return l.To.ConnectionType
	}
	return ""
}

// Clone returns a deep copy of the link.
func (l ExtendedLink) Clone() ExtendedLink {
	if l.From != nil {
		from := *l.From
		l.From = &from
	}
	if l.To != nil {
		to := *l.To
		l.To = &to
	}
	return l
}

// BoxesRelation holds links partitioned by router.
type BoxesRelation struct {
	RouterMQ   []Link `json:"router-mq"`
	RouterGRPC []Link `json:"router-grpc"`
}

// Bucket returns the link slice for a connection type.
func (r *BoxesRelation) Bucket(ct ConnectionType) *[]Link {
	if ct == ConnectionGRPC {
		return &r.RouterGRPC
	}
	return &r.RouterMQ
}

// LinkDefinitionSpec is the body of a link definition document.
type LinkDefinitionSpec struct {
	BoxesRelation             *BoxesRelation            `json:"boxes-relation,omitempty"`
	DictionariesRelation      []DictionaryRelation      `json:"dictionaries-relation,omitempty"`
	MultiDictionariesRelation []MultiDictionaryRelation `json:"multi-dictionaries-relation,omitempty"`
}

// LinkDefinition is a container document holding links and dictionary
// relations. Links are not stored on their own.
type LinkDefinition struct {
	Name string             `json:"name"`
	Kind Kind               `json:"kind"`
	Spec LinkDefinitionSpec `json:"spec"`
}

func (d *LinkDefinition) EntityName() string { return d.Name }
func (d *LinkDefinition) EntityKind() Kind   { return d.Kind }

// NewLinkDefinition returns an empty link definition document.
func NewLinkDefinition(name string) *LinkDefinition {
	return &LinkDefinition{
		Name: name,
		Kind: KindLink,
		Spec: LinkDefinitionSpec{
			BoxesRelation: &BoxesRelation{
				RouterMQ:   []Link{},
				RouterGRPC: []Link{},
			},
		},
	}
}

// ExtendedLinks returns every link in the document tagged with the
// connection type of the bucket it lives in.
func (d *LinkDefinition) ExtendedLinks() []ExtendedLink {
	if d.Spec.BoxesRelation == nil {
		return nil
	}
	rel := d.Spec.BoxesRelation
	out := make([]ExtendedLink, 0, len(rel.RouterMQ)+len(rel.RouterGRPC))
	for _, l := range rel.RouterMQ {
		out = append(out, ToExtended(l, ConnectionMQ))
	}
	for _, l := range rel.RouterGRPC {
		out = append(out, ToExtended(l, ConnectionGRPC))
	}
	return out
}

// IndexOfLink returns the position of the named link in the bucket for ct,
// or -1.
func (d *LinkDefinition) IndexOfLink(ct ConnectionType, name string) int {
	if d.Spec.BoxesRelation == nil {
		return -1
	}
	for i, l := range *d.Spec.BoxesRelation.Bucket(ct) {
		if l.Name == name {
			return i
		}
	}
	return -1
}

// IsEmpty reports whether the document holds neither links nor relations.
func (d *LinkDefinition) IsEmpty() bool {
	rel := d.Spec.BoxesRelation
	if rel != nil && (len(rel.RouterMQ) > 0 || len(rel.RouterGRPC) > 0) {
		return false
	}
	return len(d.Spec.DictionariesRelation) == 0 && len(d.Spec.MultiDictionariesRelation) == 0
}

// Clone returns a deep copy of the document.
func (d *LinkDefinition) Clone() *LinkDefinition {
	if d == nil {
		return nil
	}
	c := &LinkDefinition{Name: d.Name, Kind: d.Kind}
	if d.Spec.BoxesRelation != nil {
		c.Spec.BoxesRelation = &BoxesRelation{
			RouterMQ:   cloneLinks(d.Spec.BoxesRelation.RouterMQ),
			RouterGRPC: cloneLinks(d.Spec.BoxesRelation.RouterGRPC),
		}
	}
	if d.Spec.DictionariesRelation != nil {
		c.Spec.DictionariesRelation = append([]DictionaryRelation(nil), d.Spec.DictionariesRelation...)
	}
	if d.Spec.MultiDictionariesRelation != nil {
		c.Spec.MultiDictionariesRelation = make([]MultiDictionaryRelation, len(d.Spec.MultiDictionariesRelation))
		for i, r := range d.Spec.MultiDictionariesRelation {
			c.Spec.MultiDictionariesRelation[i] = r.Clone()
		}
	}
	return c
}

func cloneLinks(links []Link) []Link {
	if links == nil {
		return nil
	}
	out := make([]Link, len(links))
	for i, l := range links {
		out[i] = Link{Name: l.Name}
		if l.From != nil {
			from := *l.From
			out[i].From = &from
		}
		if l.To != nil {
			to := *l.To
			out[i].To = &to
		}
	}
	return out
}
