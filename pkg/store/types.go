package store

// MaxTableSize bounds the bucket count accepted by NewTable.
const MaxTableSize = 1 << 24

// IntKeySize is the width of a fixed-width integer key (a C int).
// Keys of exactly this length are hashed by value, all others as text.
const IntKeySize = 4

// TableConfig holds configuration for the chained hash table
type TableConfig struct {
	Size int // Number of buckets, fixed for the lifetime of the table
}

// Errors
var (
	ErrInvalidTableSize = &KVError{"invalid table size"}
)

// KVError represents a key-value store error
type KVError struct {
	Message string
}

func (e *KVError) Error() string {
	return e.Message
}
