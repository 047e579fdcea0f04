// Package artifact persists an index snapshot as two coupled files in one directory:
// the binary vector index and the JSON metadata with the ordered documents.
//
// Both files carry the build id; metadata also records the document count and the
// SHA-256 of the index file. Load refuses pairs that do not agree.
package artifact

import (
	"bytes"
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/kailas-cloud/eccnrag/internal/db/flat"
	"github.com/kailas-cloud/eccnrag/internal/domain"
	"github.com/kailas-cloud/eccnrag/internal/domain/document"
	"github.com/kailas-cloud/eccnrag/internal/domain/snapshot"
)

// File names inside the artifact directory.
const (
	IndexFile    = "eccn.index"
	MetadataFile = "eccn_metadata.json"
)

var indexMagic = [4]byte{'E', 'C', 'I', 'X'}

const indexVersion uint16 = 1

type manifestJSON struct {
	BuildID     string    `json:"build_id"`
	Model       string    `json:"model"`
	Dimensions  int       `json:"dimensions"`
	Count       int       `json:"count"`
	BuiltAt     time.Time `json:"built_at"`
	IndexSHA256 string    `json:"index_sha256"`
}

type documentJSON struct {
	Code string `json:"code"`
	Text string `json:"text"`
}

type metadataJSON struct {
	Manifest  manifestJSON   `json:"manifest"`
	Documents []documentJSON `json:"documents"`
}

// Store reads and writes artifact pairs under a directory.
type Store struct {
	dir string
}

// NewStore creates a store rooted at dir.
func NewStore(dir string) *Store {
	return &Store{dir: dir}
}

// Dir returns the artifact directory.
func (s *Store) Dir() string { return s.dir }

// Save writes the snapshot. Each file goes to a temp file in the same directory first
// and is renamed into place, index before metadata.
func (s *Store) Save(snap *snapshot.Snapshot) error {
	if snap == nil {
		return errors.New("artifact: nil snapshot")
	}
	m := snap.Manifest()
	if m.BuildID == "" {
		return errors.New("artifact: manifest has no build id")
	}
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("create artifact dir: %w", err)
	}

	payload, err := snap.Index().MarshalBinary()
	if err != nil {
		return fmt.Errorf("encode index: %w", err)
	}
	indexBytes := encodeIndexFile(m.BuildID, payload)
	sum := sha256.Sum256(indexBytes)

	meta := metadataJSON{
		Manifest: manifestJSON{
			BuildID:     m.BuildID,
			Model:       m.Model,
			Dimensions:  m.Dimensions,
			Count:       m.Count,
			BuiltAt:     m.BuiltAt.UTC(),
			IndexSHA256: hex.EncodeToString(sum[:]),
		},
		Documents: make([]documentJSON, 0, snap.Len()),
	}
	for _, d := range snap.Documents() {
		meta.Documents = append(meta.Documents, documentJSON{Code: d.Code(), Text: d.Text()})
	}
	metaBytes, err := json.MarshalIndent(meta, "", "  ")
	if err != nil {
		return fmt.Errorf("encode metadata: %w", err)
	}

	if err := writeAtomic(filepath.Join(s.dir, IndexFile), indexBytes); err != nil {
		return err
	}
	return writeAtomic(filepath.Join(s.dir, MetadataFile), metaBytes)
}

// Load reads and verifies the pair. A missing file yields an error wrapping os.ErrNotExist;
// a pair from different builds yields domain.ErrArtifactMismatch.
func (s *Store) Load() (*snapshot.Snapshot, error) {
	indexBytes, err := os.ReadFile(filepath.Join(s.dir, IndexFile))
	if err != nil {
		return nil, fmt.Errorf("read index: %w", err)
	}
	metaBytes, err := os.ReadFile(filepath.Join(s.dir, MetadataFile))
	if err != nil {
		return nil, fmt.Errorf("read metadata: %w", err)
	}

	var meta metadataJSON
	if err := json.Unmarshal(metaBytes, &meta); err != nil {
		return nil, fmt.Errorf("decode metadata: %w", err)
	}

	buildID, payload, err := decodeIndexFile(indexBytes)
	if err != nil {
		return nil, err
	}
	if buildID != meta.Manifest.BuildID {
		return nil, fmt.Errorf("index build %q, metadata build %q: %w",
			buildID, meta.Manifest.BuildID, domain.ErrArtifactMismatch)
	}
	sum := sha256.Sum256(indexBytes)
	if got := hex.EncodeToString(sum[:]); got != meta.Manifest.IndexSHA256 {
		return nil, fmt.Errorf("index checksum %s, metadata records %s: %w",
			got, meta.Manifest.IndexSHA256, domain.ErrArtifactMismatch)
	}
	if meta.Manifest.Count != len(meta.Documents) {
		return nil, fmt.Errorf("manifest count %d, %d documents: %w",
			meta.Manifest.Count, len(meta.Documents), domain.ErrArtifactMismatch)
	}

	idx, err := flat.Decode(payload)
	if err != nil {
		return nil, fmt.Errorf("decode index: %w", err)
	}
	if meta.Manifest.Dimensions != 0 && idx.Dim() != meta.Manifest.Dimensions {
		return nil, fmt.Errorf("index width %d, manifest %d: %w",
			idx.Dim(), meta.Manifest.Dimensions, domain.ErrArtifactMismatch)
	}

	docs := make([]document.Document, len(meta.Documents))
	for i, d := range meta.Documents {
		docs[i] = document.Reconstruct(d.Code, d.Text)
	}

	return snapshot.New(snapshot.Manifest{
		BuildID: meta.Manifest.BuildID,
		Model:   meta.Manifest.Model,
		BuiltAt: meta.Manifest.BuiltAt,
	}, docs, idx)
}

// Exists reports whether both files are present.
func (s *Store) Exists() bool {
	for _, name := range []string{IndexFile, MetadataFile} {
		if _, err := os.Stat(filepath.Join(s.dir, name)); err != nil {
			return false
		}
	}
	return true
}

// encodeIndexFile prefixes payload with magic, version and the build id.
func encodeIndexFile(buildID string, payload []byte) []byte {
	var buf bytes.Buffer
	buf.Grow(8 + len(buildID) + len(payload))
	buf.Write(indexMagic[:])
	_ = binary.Write(&buf, binary.LittleEndian, indexVersion)
	_ = binary.Write(&buf, binary.LittleEndian, uint16(len(buildID)))
	buf.WriteString(buildID)
	buf.Write(payload)
	return buf.Bytes()
}

func decodeIndexFile(data []byte) (string, []byte, error) {
	if len(data) < 8 || [4]byte(data[0:4]) != indexMagic {
		return "", nil, errors.New("index file: bad header")
	}
	if v := binary.LittleEndian.Uint16(data[4:6]); v != indexVersion {
		return "", nil, fmt.Errorf("index file: unsupported version %d", v)
	}
	n := int(binary.LittleEndian.Uint16(data[6:8]))
	if len(data) < 8+n {
		return "", nil, errors.New("index file: truncated build id")
	}
	return string(data[8 : 8+n]), data[8+n:], nil
}

func writeAtomic(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp for %s: %w", filepath.Base(path), err)
	}
	tmpName := tmp.Name()
	defer func() { _ = os.Remove(tmpName) }()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("write %s: %w", filepath.Base(path), err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("sync %s: %w", filepath.Base(path), err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close %s: %w", filepath.Base(path), err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("rename %s: %w", filepath.Base(path), err)
	}
	return nil
}
