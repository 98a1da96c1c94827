package db

// StorageType selects the keyspace representation an FT index covers.
type StorageType string

// StorageHash indexes flat Redis hashes.
const StorageHash StorageType = "HASH"

// VectorAlgo selects the vector index algorithm.
type VectorAlgo string

// Vector index algorithms. FLAT is exact (deterministic ordering),
// HNSW is approximate.
const (
	VectorFlat VectorAlgo = "FLAT"
	VectorHNSW VectorAlgo = "HNSW"
)

// Distance selects the vector distance metric.
type Distance string

// Vector distance metrics.
const (
	DistanceL2     Distance = "L2"
	DistanceCosine Distance = "COSINE"
)

// FieldType is an FT schema field type.
type FieldType string

// FT schema field types.
const (
	IndexFieldTag     FieldType = "TAG"
	IndexFieldNumeric FieldType = "NUMERIC"
	IndexFieldVector  FieldType = "VECTOR"
)

// IndexField is one FT schema field definition.
type IndexField struct {
	Name string
	Type FieldType

	// Vector field attributes.
	VectorDim       int
	VectorAlgo      VectorAlgo
	VectorDistance  Distance
	VectorBlockSize int
}

// IndexDefinition describes an FT index to create.
type IndexDefinition struct {
	Name        string
	StorageType StorageType
	Prefixes    []string
	Fields      []IndexField
}
