package models

// Kind is the tag the backend uses to distinguish resource documents.
type Kind string

const (
	KindBox          Kind = "Th2Box"
	KindCoreBox      Kind = "Th2CoreBox"
	KindEstore       Kind = "Th2Estore"
	KindMstore       Kind = "Th2Mstore"
	KindDictionary   Kind = "Th2Dictionary"
	KindLink         Kind = "Th2Link"
	KindSettingsFile Kind = "SettingsFile"
)

// boxKinds lists every kind that decodes into a Box.
var boxKinds = map[Kind]bool{
	KindBox:     true,
	KindCoreBox: true,
	KindEstore:  true,
	KindMstore:  true,
}

// IsBoxKind reports whether documents of kind k describe a box.
func IsBoxKind(k Kind) bool {
	return boxKinds[k]
}

// ConnectionType is the transport a pin speaks.
type ConnectionType string

const (
	ConnectionMQ   ConnectionType = "mq"
	ConnectionGRPC ConnectionType = "grpc"
)

// Valid reports whether c is one of the known connection types.
func (c ConnectionType) Valid() bool {
	return c == ConnectionMQ || c == ConnectionGRPC
}

// Direction selects which endpoint of a link is anchored at the root box
// during resolution.
type Direction string

const (
	DirectionTo   Direction = "to"
	DirectionFrom Direction = "from"
)

// Opposite returns the other direction.
func (d Direction) Opposite() Direction {
	if d == DirectionTo {
		return DirectionFrom
	}
	return DirectionTo
}

// Valid reports whether d is "to" or "from".
func (d Direction) Valid() bool {
	return d == DirectionTo || d == DirectionFrom
}
