package flat

import (
	"encoding/binary"
	"errors"
	"math"
	"math/rand/v2"
	"testing"

	"github.com/kailas-cloud/eccnrag/internal/domain"
)

func mustIndex(t *testing.T, dim int, vecs ...[]float32) *Index {
	t.Helper()
	x, err := New(dim)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := x.Add(vecs...); err != nil {
		t.Fatalf("Add: %v", err)
	}
	return x
}

func TestNew_InvalidDim(t *testing.T) {
	if _, err := New(0); err == nil {
		t.Fatal("expected error for zero dimension")
	}
}

func TestSearch_Nearest(t *testing.T) {
	x := mustIndex(t, 2,
		[]float32{0, 0},
		[]float32{10, 10},
		[]float32{1, 1},
	)

	hits, err := x.Search([]float32{0.9, 0.9}, 2)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(hits) != 2 {
		t.Fatalf("expected 2 hits, got %d", len(hits))
	}
	if hits[0].Position != 2 || hits[1].Position != 0 {
		t.Errorf("positions = %d, %d; want 2, 0", hits[0].Position, hits[1].Position)
	}
	// (0.1^2)*2
	if d := hits[0].Distance; d < 0.0199 || d > 0.0201 {
		t.Errorf("distance = %v, want ~0.02", d)
	}
}

func TestSearch_KLargerThanCorpus(t *testing.T) {
	x := mustIndex(t, 1, []float32{1}, []float32{2}, []float32{3})

	hits, err := x.Search([]float32{0}, 10)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(hits) != 3 {
		t.Errorf("expected all 3 vectors, got %d", len(hits))
	}
}

func TestSearch_EmptyAndZeroK(t *testing.T) {
	x := mustIndex(t, 3)
	hits, err := x.Search([]float32{1, 2, 3}, 5)
	if err != nil || len(hits) != 0 {
		t.Errorf("empty index: hits=%v err=%v", hits, err)
	}

	x = mustIndex(t, 1, []float32{1})
	hits, err = x.Search([]float32{1}, 0)
	if err != nil || len(hits) != 0 {
		t.Errorf("k=0: hits=%v err=%v", hits, err)
	}
}

func TestSearch_DimensionMismatch(t *testing.T) {
	x := mustIndex(t, 2, []float32{1, 1})
	if _, err := x.Search([]float32{1, 2, 3}, 1); !errors.Is(err, domain.ErrDimensionMismatch) {
		t.Fatalf("expected ErrDimensionMismatch, got %v", err)
	}
}

func TestAdd_DimensionMismatch(t *testing.T) {
	x := mustIndex(t, 2)
	if err := x.Add([]float32{1, 2}, []float32{1}); !errors.Is(err, domain.ErrDimensionMismatch) {
		t.Fatalf("expected ErrDimensionMismatch, got %v", err)
	}
	if x.Len() != 0 {
		t.Errorf("failed Add must not partially apply, Len() = %d", x.Len())
	}
}

func TestSearch_BoundedAndOrdered(t *testing.T) {
	r := rand.New(rand.NewPCG(1, 2))
	const dim, n = 8, 200
	x := mustIndex(t, dim)
	for i := 0; i < n; i++ {
		v := make([]float32, dim)
		for j := range v {
			v[j] = r.Float32()
		}
		if err := x.Add(v); err != nil {
			t.Fatalf("Add: %v", err)
		}
	}

	for _, k := range []int{1, 5, 50, n, n + 10} {
		q := make([]float32, dim)
		for j := range q {
			q[j] = r.Float32()
		}
		hits, err := x.Search(q, k)
		if err != nil {
			t.Fatalf("Search: %v", err)
		}
		if want := min(k, n); len(hits) != want {
			t.Errorf("k=%d: got %d hits, want %d", k, len(hits), want)
		}
		for i := 1; i < len(hits); i++ {
			if hits[i].Distance < hits[i-1].Distance {
				t.Fatalf("k=%d: hits not ordered at %d", k, i)
			}
		}
	}
}

func TestMarshalRoundTrip_SameResults(t *testing.T) {
	x := mustIndex(t, 3,
		[]float32{0.1, 0.2, 0.3},
		[]float32{-1, 0, 1},
		[]float32{5, 5, 5},
	)
	data, err := x.MarshalBinary()
	if err != nil {
		t.Fatalf("MarshalBinary: %v", err)
	}
	y, err := Decode(data)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if y.Len() != 3 || y.Dim() != 3 {
		t.Fatalf("Len=%d Dim=%d", y.Len(), y.Dim())
	}

	q := []float32{0, 0.1, 0.5}
	a, _ := x.Search(q, 3)
	b, _ := y.Search(q, 3)
	for i := range a {
		if a[i] != b[i] {
			t.Errorf("hit %d differs: %+v vs %+v", i, a[i], b[i])
		}
	}
}

func TestUnmarshal_Corrupt(t *testing.T) {
	x := mustIndex(t, 2, []float32{1, 2})
	data, _ := x.MarshalBinary()

	tests := map[string][]byte{
		"short":     data[:8],
		"bad magic": append([]byte("XXXX"), data[4:]...),
		"truncated": data[:len(data)-2],
	}
	for name, d := range tests {
		t.Run(name, func(t *testing.T) {
			if _, err := Decode(d); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func header(dim, n uint32) []byte {
	b := make([]byte, headerSize)
	copy(b, magic[:])
	binary.LittleEndian.PutUint32(b[4:8], formatVersion)
	binary.LittleEndian.PutUint32(b[8:12], dim)
	binary.LittleEndian.PutUint32(b[12:16], n)
	return b
}

func TestUnmarshal_HeaderSizeMismatch(t *testing.T) {
	tests := []struct {
		name string
		data []byte
	}{
		{"huge dim and count", header(1<<31, 1<<31)},
		{"max dim and count", header(math.MaxUint32, math.MaxUint32)},
		{"count overflows payload", append(header(2, 1<<30), make([]byte, 8)...)},
		{"zero dim", header(0, 0)},
		{"odd payload", append(header(1, 1), 0, 0, 0)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			x, err := Decode(tt.data)
			if err == nil {
				t.Fatalf("expected error, got index with %d vectors", x.Len())
			}
		})
	}
}

func TestUnmarshal_EmptyIndex(t *testing.T) {
	x, err := Decode(header(4, 0))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if x.Len() != 0 || x.Dim() != 4 {
		t.Errorf("len=%d dim=%d, want 0 and 4", x.Len(), x.Dim())
	}
}

func TestAdd_RejectsNonFinite(t *testing.T) {
	x := mustIndex(t, 2, []float32{1, 1})
	nan := float32(math.NaN())
	inf := float32(math.Inf(1))

	for _, v := range [][]float32{{nan, 0}, {0, inf}} {
		if err := x.Add(v); !errors.Is(err, ErrNonFinite) {
			t.Errorf("Add(%v) err = %v, want ErrNonFinite", v, err)
		}
	}
	if x.Len() != 1 {
		t.Errorf("len = %d, rejected vectors must not be stored", x.Len())
	}
	if _, err := x.Search([]float32{nan, 0}, 1); !errors.Is(err, ErrNonFinite) {
		t.Errorf("Search with NaN query err = %v, want ErrNonFinite", err)
	}
}

func TestUnmarshal_RejectsNonFinite(t *testing.T) {
	data := append(header(1, 2), make([]byte, 8)...)
	binary.LittleEndian.PutUint32(data[headerSize:], math.Float32bits(1))
	binary.LittleEndian.PutUint32(data[headerSize+4:], math.Float32bits(float32(math.NaN())))

	if _, err := Decode(data); !errors.Is(err, ErrNonFinite) {
		t.Errorf("err = %v, want ErrNonFinite", err)
	}
}

func TestVector_Copy(t *testing.T) {
	x := mustIndex(t, 2, []float32{1, 2})
	v, ok := x.Vector(0)
	if !ok || v[0] != 1 || v[1] != 2 {
		t.Fatalf("Vector(0) = %v, %v", v, ok)
	}
	v[0] = 99
	w, _ := x.Vector(0)
	if w[0] != 1 {
		t.Error("Vector must return a copy")
	}
	if _, ok := x.Vector(1); ok {
		t.Error("out of range must report false")
	}
}
