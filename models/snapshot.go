package models

// ObjectType is the kind of entity a history snapshot describes.
type ObjectType string

const (
	ObjectBox        ObjectType = "box"
	ObjectLink       ObjectType = "link"
	ObjectDictionary ObjectType = "dictionary"
)

// SnapshotOperation is the structural edit a snapshot records.
type SnapshotOperation string

const (
	SnapshotAdd    SnapshotOperation = "add"
	SnapshotRemove SnapshotOperation = "remove"
	SnapshotChange SnapshotOperation = "change"
)

// Snapshot records one structural edit so it can be reviewed or reverted.
type Snapshot struct {
	Object     string            `json:"object"`
	Type       ObjectType        `json:"type"`
	Operation  SnapshotOperation `json:"operation"`
	ChangeList []Change          `json:"changeList"`
}

// Change holds the before and after values of an edited object. A nil From
// means the object was created, a nil To means it was removed.
type Change struct {
	Object string `json:"object"`
	From   any    `json:"from"`
	To     any    `json:"to"`
}

// NewSnapshot builds a single-change snapshot.
func NewSnapshot(object string, typ ObjectType, op SnapshotOperation, from, to any) Snapshot {
	return Snapshot{
		Object:    object,
		Type:      typ,
		Operation: op,
		ChangeList: []Change{
			{Object: object, From: from, To: to},
		},
	}
}
