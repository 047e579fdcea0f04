// Package flat implements an exact nearest-neighbor index under squared Euclidean distance.
//
// The index stores vectors contiguously in insertion order, so position i of the index
// corresponds to the i-th added vector. Ties in distance keep insertion order; callers
// must not attach meaning to the order of equidistant results.
package flat

import (
	"cmp"
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"slices"
	"sync"

	"github.com/kailas-cloud/eccnrag/internal/domain"
)

var magic = [4]byte{'E', 'F', 'L', 'T'}

const formatVersion uint32 = 1

// headerSize is magic + version + dim + count.
const headerSize = 16

// ErrNonFinite is returned for vectors holding NaN or Inf components.
var ErrNonFinite = errors.New("flat: non-finite vector component")

// Compile-time check: Index implements domain.VectorIndex.
var _ domain.VectorIndex = (*Index)(nil)

// Index is an exact L2 index. Add is meant for the build phase; once published the index
// is only searched, and Search is safe for concurrent use.
type Index struct {
	mu   sync.RWMutex
	dim  int
	n    int
	data []float32
}

// New creates an empty index for vectors of width dim.
func New(dim int) (*Index, error) {
	if dim <= 0 {
		return nil, fmt.Errorf("flat: dimension must be positive, got %d", dim)
	}
	return &Index{dim: dim}, nil
}

// Add appends vectors in order. All vectors must have the index width.
func (x *Index) Add(vectors ...[]float32) error {
	for i, v := range vectors {
		if len(v) != x.dim {
			return fmt.Errorf("flat: vector %d has width %d, index width %d: %w",
				i, len(v), x.dim, domain.ErrDimensionMismatch)
		}
		if !finite(v) {
			return fmt.Errorf("vector %d: %w", i, ErrNonFinite)
		}
	}

	x.mu.Lock()
	defer x.mu.Unlock()
	x.data = slices.Grow(x.data, len(vectors)*x.dim)
	for _, v := range vectors {
		x.data = append(x.data, v...)
	}
	x.n += len(vectors)
	return nil
}

// Search returns the k nearest vectors to query, at most min(k, Len()), in non-decreasing distance.
func (x *Index) Search(query []float32, k int) ([]domain.Neighbor, error) {
	if len(query) != x.dim {
		return nil, fmt.Errorf("flat: query width %d, index width %d: %w",
			len(query), x.dim, domain.ErrDimensionMismatch)
	}
	if !finite(query) {
		return nil, fmt.Errorf("query: %w", ErrNonFinite)
	}

	x.mu.RLock()
	defer x.mu.RUnlock()

	if k <= 0 || x.n == 0 {
		return []domain.Neighbor{}, nil
	}
	if k > x.n {
		k = x.n
	}

	all := make([]domain.Neighbor, x.n)
	for i := 0; i < x.n; i++ {
		all[i] = domain.Neighbor{
			Position: i,
			Distance: squaredL2(query, x.data[i*x.dim:(i+1)*x.dim]),
		}
	}
	slices.SortStableFunc(all, func(a, b domain.Neighbor) int {
		return cmp.Compare(a.Distance, b.Distance)
	})
	return all[:k:k], nil
}

// Len returns the number of stored vectors.
func (x *Index) Len() int {
	x.mu.RLock()
	defer x.mu.RUnlock()
	return x.n
}

// Dim returns the vector width.
func (x *Index) Dim() int { return x.dim }

// Vector returns a copy of the vector at position i.
func (x *Index) Vector(i int) ([]float32, bool) {
	x.mu.RLock()
	defer x.mu.RUnlock()
	if i < 0 || i >= x.n {
		return nil, false
	}
	return slices.Clone(x.data[i*x.dim : (i+1)*x.dim]), true
}

// MarshalBinary encodes: magic, version(uint32), dim(uint32), n(uint32), then n*dim float32,
// all little-endian.
func (x *Index) MarshalBinary() ([]byte, error) {
	x.mu.RLock()
	defer x.mu.RUnlock()

	out := make([]byte, headerSize+4*len(x.data))
	copy(out[0:4], magic[:])
	binary.LittleEndian.PutUint32(out[4:8], formatVersion)
	binary.LittleEndian.PutUint32(out[8:12], uint32(x.dim))
	binary.LittleEndian.PutUint32(out[12:16], uint32(x.n))
	off := headerSize
	for _, f := range x.data {
		binary.LittleEndian.PutUint32(out[off:], math.Float32bits(f))
		off += 4
	}
	return out, nil
}

// UnmarshalBinary restores the index from MarshalBinary output.
func (x *Index) UnmarshalBinary(data []byte) error {
	if len(data) < headerSize {
		return errors.New("flat: truncated header")
	}
	if [4]byte(data[0:4]) != magic {
		return errors.New("flat: bad magic")
	}
	if v := binary.LittleEndian.Uint32(data[4:8]); v != formatVersion {
		return fmt.Errorf("flat: unsupported format version %d", v)
	}
	dim := binary.LittleEndian.Uint32(data[8:12])
	n := binary.LittleEndian.Uint32(data[12:16])
	if dim == 0 {
		return errors.New("flat: invalid dimension 0")
	}
	// uint32*uint32 fits in uint64, so the size check cannot overflow.
	payload := uint64(len(data) - headerSize)
	if want := uint64(dim) * uint64(n); payload%4 != 0 || payload/4 != want {
		return fmt.Errorf("flat: payload is %d bytes, header declares %d values", payload, want)
	}

	vals := make([]float32, payload/4)
	off := headerSize
	for i := range vals {
		vals[i] = math.Float32frombits(binary.LittleEndian.Uint32(data[off:]))
		off += 4
	}
	if !finite(vals) {
		return ErrNonFinite
	}

	x.mu.Lock()
	defer x.mu.Unlock()
	x.dim, x.n, x.data = int(dim), int(n), vals
	return nil
}

// Decode is a convenience wrapper around UnmarshalBinary.
func Decode(data []byte) (*Index, error) {
	x := &Index{}
	if err := x.UnmarshalBinary(data); err != nil {
		return nil, err
	}
	return x, nil
}

func finite(v []float32) bool {
	for _, f := range v {
		if math.IsNaN(float64(f)) || math.IsInf(float64(f), 0) {
			return false
		}
	}
	return true
}

func squaredL2(a, b []float32) float32 {
	var sum float32
	for i := range a {
		d := a[i] - b[i]
		sum += d * d
	}
	return sum
}
