package embedding

import (
	"context"
	"encoding/binary"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/wangsibothunder/retrieval-hotness/internal/filelock"
	"github.com/wangsibothunder/retrieval-hotness/internal/rerrors"
	"github.com/wangsibothunder/retrieval-hotness/internal/vecmath"
)

// blobMagic identifies an embeddings blob (spec.md §6): "EMB1".
const blobMagic = "EMB1"
const blobVersion = uint32(1)

// DefaultChunkSize is the default number of texts embedded per call to
// the Embedder collaborator (spec.md §4.1).
const DefaultChunkSize = 512

// Matrix is a read-only view over an (N, D) embedding matrix. Row i is
// E[i*D : (i+1)*D].
type Matrix struct {
	N    int
	D    int
	Data []float32
}

// Row returns row i as a slice into the underlying matrix (not a copy).
func (m *Matrix) Row(i int) []float32 {
	return m.Data[i*m.D : (i+1)*m.D]
}

// Store is a content-addressed cache of a dense (N, D) embedding matrix
// keyed by (corpus-id, model-id). It persists as a single binary blob and
// is loaded read-only (spec.md §4.1).
type Store struct {
	dir       string
	chunkSize int

	mu    sync.Mutex
	cache *lru.Cache[string, *Matrix]
}

// Option configures a Store.
type Option func(*Store)

// WithChunkSize overrides DefaultChunkSize.
func WithChunkSize(n int) Option {
	return func(s *Store) {
		if n > 0 {
			s.chunkSize = n
		}
	}
}

// NewStore creates a Store persisting blobs under dir. A small in-process
// LRU keeps recently loaded matrices warm across repeated GetOrBuild
// calls for the same key within one process lifetime.
func NewStore(dir string, opts ...Option) (*Store, error) {
	cache, err := lru.New[string, *Matrix](8)
	if err != nil {
		return nil, fmt.Errorf("embedding store: new cache: %w", err)
	}
	s := &Store{dir: dir, chunkSize: DefaultChunkSize, cache: cache}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

func (s *Store) blobPath(corpusID, modelID string) string {
	return filepath.Join(s.dir, fmt.Sprintf("%s__%s.emb", sanitize(corpusID), sanitize(modelID)))
}

func sanitize(s string) string {
	out := make([]rune, 0, len(s))
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			out = append(out, r)
		default:
			out = append(out, '_')
		}
	}
	return string(out)
}

func cacheKey(corpusID, modelID string) string { return corpusID + "\x00" + modelID }

// GetOrBuild returns the embedding matrix for (corpusID, modelID). If a
// persisted blob exists it is loaded and validated; otherwise texts are
// embedded in chunks via embedder, accumulated, persisted atomically, and
// returned. Row i corresponds to texts[i] (spec.md §4.1).
func (s *Store) GetOrBuild(ctx context.Context, corpusID, modelID string, texts []string, embedder Embedder) (*Matrix, error) {
	key := cacheKey(corpusID, modelID)

	s.mu.Lock()
	if m, ok := s.cache.Get(key); ok {
		s.mu.Unlock()
		return m, nil
	}
	s.mu.Unlock()

	path := s.blobPath(corpusID, modelID)
	if m, err := s.load(path); err == nil {
		s.mu.Lock()
		s.cache.Add(key, m)
		s.mu.Unlock()
		return m, nil
	} else if !os.IsNotExist(err) {
		return nil, err
	}

	m, err := s.build(ctx, texts, embedder)
	if err != nil {
		return nil, err
	}
	if err := s.persist(path, m); err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.cache.Add(key, m)
	s.mu.Unlock()
	return m, nil
}

func (s *Store) build(ctx context.Context, texts []string, embedder Embedder) (*Matrix, error) {
	d := embedder.Dimensions()
	n := len(texts)
	data := make([]float32, n*d)

	chunk := s.chunkSize
	if chunk <= 0 {
		chunk = DefaultChunkSize
	}

	for start := 0; start < n; start += chunk {
		if err := ctx.Err(); err != nil {
			return nil, rerrors.Cancelled()
		}
		end := min(start+chunk, n)
		rows, err := embedder.Embed(ctx, texts[start:end])
		if err != nil {
			return nil, rerrors.EmbedderFailure("embedding build batch failed", err)
		}
		if len(rows) != end-start {
			return nil, rerrors.EmbedderFailure(
				fmt.Sprintf("embedder returned %d rows for %d inputs", len(rows), end-start), nil)
		}
		for i, row := range rows {
			if len(row) != d {
				return nil, rerrors.DimensionMismatch(d, len(row))
			}
			if !vecmath.Finite(row) {
				return nil, rerrors.EmbedderFailure("embedder returned non-finite values", nil)
			}
			copy(data[(start+i)*d:(start+i+1)*d], row)
		}
	}

	return &Matrix{N: n, D: d, Data: data}, nil
}

// persist writes the matrix atomically: write-temp-then-rename, so a
// failure during build or write leaves no partial file (spec.md §4.1).
// A cross-process file lock serializes concurrent builders of the same
// (corpus-id, model-id) blob.
func (s *Store) persist(path string, m *Matrix) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return rerrors.IoFailure("create embedding store directory", err)
	}

	lock := filelock.New(path)
	if err := lock.Lock(); err != nil {
		return rerrors.IoFailure("acquire embedding store lock", err)
	}
	defer lock.Unlock()

	tmp := path + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return rerrors.IoFailure("create temp embeddings file", err)
	}

	if err := writeBlob(f, m); err != nil {
		f.Close()
		os.Remove(tmp)
		return rerrors.IoFailure("write embeddings blob", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return rerrors.IoFailure("close embeddings blob", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return rerrors.IoFailure("rename embeddings blob into place", err)
	}
	return nil
}

func writeBlob(w io.Writer, m *Matrix) error {
	if _, err := w.Write([]byte(blobMagic)); err != nil {
		return err
	}
	if err := binary.Write(w, binary.LittleEndian, blobVersion); err != nil {
		return err
	}
	if err := binary.Write(w, binary.LittleEndian, uint64(m.N)); err != nil {
		return err
	}
	if err := binary.Write(w, binary.LittleEndian, uint32(m.D)); err != nil {
		return err
	}
	if err := binary.Write(w, binary.LittleEndian, uint8(0)); err != nil { // dtype: f32
		return err
	}
	return binary.Write(w, binary.LittleEndian, m.Data)
}

// load reads and validates a persisted blob. Every row's L2 norm must be
// within vecmath.MaxNormEpsilon of 1, or CorruptEmbeddings is returned
// (spec.md §4.1, scenario 3).
func (s *Store) load(path string) (*Matrix, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	magic := make([]byte, len(blobMagic))
	if _, err := io.ReadFull(f, magic); err != nil {
		return nil, rerrors.CorruptEmbeddings("short read on magic", err)
	}
	if string(magic) != blobMagic {
		return nil, rerrors.CorruptEmbeddings("bad magic", nil)
	}

	var version uint32
	if err := binary.Read(f, binary.LittleEndian, &version); err != nil {
		return nil, rerrors.CorruptEmbeddings("short read on version", err)
	}
	if version != blobVersion {
		return nil, rerrors.CorruptEmbeddings(fmt.Sprintf("unsupported version %d", version), nil)
	}

	var n uint64
	if err := binary.Read(f, binary.LittleEndian, &n); err != nil {
		return nil, rerrors.CorruptEmbeddings("short read on n", err)
	}
	var d uint32
	if err := binary.Read(f, binary.LittleEndian, &d); err != nil {
		return nil, rerrors.CorruptEmbeddings("short read on d", err)
	}
	var dtype uint8
	if err := binary.Read(f, binary.LittleEndian, &dtype); err != nil {
		return nil, rerrors.CorruptEmbeddings("short read on dtype", err)
	}

	data := make([]float32, n*uint64(d))
	if err := binary.Read(f, binary.LittleEndian, data); err != nil {
		return nil, rerrors.CorruptEmbeddings("short read on matrix data", err)
	}

	m := &Matrix{N: int(n), D: int(d), Data: data}
	for i := 0; i < m.N; i++ {
		norm := vecmath.Norm(m.Row(i))
		if diff := norm - 1; diff < -vecmath.MaxNormEpsilon || diff > vecmath.MaxNormEpsilon {
			return nil, rerrors.CorruptEmbeddings(
				fmt.Sprintf("row %d has norm %.6f, want 1±%g", i, norm, vecmath.MaxNormEpsilon), nil)
		}
	}

	slog.Debug("embedding_store_loaded", slog.String("path", path), slog.Int("n", m.N), slog.Int("d", m.D))
	return m, nil
}
