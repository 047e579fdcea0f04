package domain

// Neighbor is one nearest-neighbor hit: a position in the index and its squared L2 distance.
type Neighbor struct {
	Position int
	Distance float32
}

// VectorIndex is an immutable nearest-neighbor index over fixed-width vectors.
// Search returns at most min(k, Len()) neighbors in non-decreasing distance order.
type VectorIndex interface {
	Search(query []float32, k int) ([]Neighbor, error)
	Len() int
	Dim() int
	MarshalBinary() ([]byte, error)
}
