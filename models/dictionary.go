package models

// Dictionary is a shared configuration document referenced by boxes.
// Relations to boxes are kept in relation records, never on the dictionary.
type Dictionary struct {
	Name string         `json:"name" validate:"required,hostname_rfc1123"`
	Kind Kind           `json:"kind" validate:"required"`
	Spec DictionarySpec `json:"spec"`
}

// DictionarySpec holds the dictionary payload.
type DictionarySpec struct {
	// Data is the opaque XML text of the dictionary
	Data string `json:"data"`
}

func (d *Dictionary) EntityName() string { return d.Name }
func (d *Dictionary) EntityKind() Kind   { return d.Kind }

// Clone returns a copy of the dictionary.
func (d *Dictionary) Clone() *Dictionary {
	if d == nil {
		return nil
	}
	c := *d
	return &c
}

// DictionaryRelation is the legacy one box to one dictionary relation.
type DictionaryRelation struct {
	Name       string        `json:"name"`
	Box        string        `json:"box"`
	Dictionary DictionaryRef `json:"dictionary"`
}

// DictionaryRef names a dictionary in a legacy relation.
type DictionaryRef struct {
	Name string `json:"name"`
	Type string `json:"type,omitempty"`
}

// MultiDictionaryRelation links one box to many dictionaries.
type MultiDictionaryRelation struct {
	Name         string            `json:"name"`
	Box          string            `json:"box"`
	Dictionaries []DictionaryAlias `json:"dictionaries"`
}

// DictionaryAlias names a dictionary and the alias the box uses for it.
type DictionaryAlias struct {
	Name  string `json:"name"`
	Alias string `json:"alias,omitempty"`
}

// Clone returns a deep copy of the relation.
func (r MultiDictionaryRelation) Clone() MultiDictionaryRelation {
	r.Dictionaries = append([]DictionaryAlias(nil), r.Dictionaries...)
	return r
}

// Has reports whether the relation references the named dictionary.
func (r MultiDictionaryRelation) Has(dictionary string) bool {
	for _, d := range r.Dictionaries {
		if d.Name == dictionary {
			return true
		}
	}
	return false
}
