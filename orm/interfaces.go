package orm

// Persistent is implemented by anything that can be serialized to bytes and
// restored from them. Models back this with an amino codec.
type Persistent interface {
	Marshal() ([]byte, error)
	Unmarshal([]byte) error
}

// CloneableData is an intelligent Value that can be embedded in a simple
// object to handle much of the details.
//
// Object values must be able to validate and clone themselves.
type CloneableData interface {
	Persistent
	Validate() error
	Copy() CloneableData
}

// Object is what is stored in the bucket. Key is joined with the prefix to
// set the full key. Value is the data stored.
type Object interface {
	// Validate returns error if the object is not in a valid
	// state to save to the db (eg. field missing, out of range, ...)
	Validate() error

	Key() []byte
	Value() CloneableData
	SetKey([]byte)

	// Clone returns an independent copy of this object
	Clone() Object
}

// Cloneable is a prototype of an object that can make new instances of
// itself. Used by a Bucket to parse stored data.
type Cloneable interface {
	Clone() Object
}
