package hnsw

import (
	"encoding/binary"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/wangsibothunder/retrieval-hotness/internal/filelock"
	"github.com/wangsibothunder/retrieval-hotness/internal/rerrors"
)

// indexMagic identifies a persisted index blob (spec.md §6): "HNSW".
const indexMagic = "HNSW"
const indexVersion = uint32(1)

// emptySlot is the sentinel written into a neighbor slot that has no
// occupant, so every node's block at a layer has a fixed width of
// maxConns(layer) slots addressable by doc id without a second offsets
// lookup (spec.md §6: "neighbors u32 with sentinel 0xFFFFFFFF for empty
// slots").
const emptySlot = uint32(0xFFFFFFFF)

// Save persists the index atomically (write-temp-then-rename) as a
// fixed header, a per-node layer array, and one fixed-width neighbor
// block per layer per node (spec.md §6, §9).
func (ix *Index) Save(path string) error {
	ix.mu.RLock()
	defer ix.mu.RUnlock()

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return rerrors.IoFailure("create index directory", err)
	}

	lock := filelock.New(path)
	if err := lock.Lock(); err != nil {
		return rerrors.IoFailure("acquire index lock", err)
	}
	defer lock.Unlock()

	tmp := path + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return rerrors.IoFailure("create temp index file", err)
	}

	if err := ix.writeBlob(f); err != nil {
		f.Close()
		os.Remove(tmp)
		return rerrors.IoFailure("write index blob", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return rerrors.IoFailure("close index blob", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return rerrors.IoFailure("rename index blob into place", err)
	}
	return nil
}

func (ix *Index) writeBlob(w io.Writer) error {
	n := len(ix.nodes)

	if _, err := w.Write([]byte(indexMagic)); err != nil {
		return err
	}
	if err := binary.Write(w, binary.LittleEndian, indexVersion); err != nil {
		return err
	}
	if err := binary.Write(w, binary.LittleEndian, uint64(n)); err != nil {
		return err
	}
	if err := binary.Write(w, binary.LittleEndian, uint32(ix.dim)); err != nil {
		return err
	}
	if err := binary.Write(w, binary.LittleEndian, uint32(ix.cfg.M)); err != nil {
		return err
	}
	lmax := ix.maxLayer
	if lmax < 0 {
		lmax = 0
	}
	if err := binary.Write(w, binary.LittleEndian, uint32(lmax)); err != nil {
		return err
	}
	entry := int64(ix.entry)
	if err := binary.Write(w, binary.LittleEndian, uint64(entry)); err != nil {
		return err
	}

	layers := make([]uint32, n)
	for i, nd := range ix.nodes {
		layers[i] = uint32(nd.layer)
	}
	if err := binary.Write(w, binary.LittleEndian, layers); err != nil {
		return err
	}

	vectors := make([]float32, n*ix.dim)
	for i, nd := range ix.nodes {
		copy(vectors[i*ix.dim:(i+1)*ix.dim], nd.vector)
	}
	if err := binary.Write(w, binary.LittleEndian, vectors); err != nil {
		return err
	}

	for l := 0; l <= ix.maxLayer; l++ {
		capacity := ix.cfg.maxConns(l)

		offsets := make([]uint64, n+1)
		for i := 0; i <= n; i++ {
			offsets[i] = uint64(i) * uint64(capacity)
		}
		if err := binary.Write(w, binary.LittleEndian, offsets); err != nil {
			return err
		}

		block := make([]uint32, n*capacity)
		for i := range block {
			block[i] = emptySlot
		}
		for i, nd := range ix.nodes {
			if l > nd.layer {
				continue
			}
			for j, nb := range nd.neighbors[l] {
				if j >= capacity {
					break
				}
				block[i*capacity+j] = uint32(nb)
			}
		}
		if err := binary.Write(w, binary.LittleEndian, block); err != nil {
			return err
		}
	}

	return nil
}

// Load reads a persisted index blob built by Save. The returned Index
// is fully queryable; it is not rebuilt or re-inserted, only replayed
// from its stored layer and neighbor arrays.
func Load(path string) (*Index, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	magic := make([]byte, len(indexMagic))
	if _, err := io.ReadFull(f, magic); err != nil {
		return nil, rerrors.IndexCorrupt("short read on magic", err)
	}
	if string(magic) != indexMagic {
		return nil, rerrors.IndexCorrupt("bad magic", nil)
	}

	var version uint32
	if err := binary.Read(f, binary.LittleEndian, &version); err != nil {
		return nil, rerrors.IndexCorrupt("short read on version", err)
	}
	if version != indexVersion {
		return nil, rerrors.IndexCorrupt(fmt.Sprintf("unsupported version %d", version), nil)
	}

	var n uint64
	if err := binary.Read(f, binary.LittleEndian, &n); err != nil {
		return nil, rerrors.IndexCorrupt("short read on n", err)
	}
	var d, m, lmax uint32
	if err := binary.Read(f, binary.LittleEndian, &d); err != nil {
		return nil, rerrors.IndexCorrupt("short read on d", err)
	}
	if err := binary.Read(f, binary.LittleEndian, &m); err != nil {
		return nil, rerrors.IndexCorrupt("short read on m", err)
	}
	if err := binary.Read(f, binary.LittleEndian, &lmax); err != nil {
		return nil, rerrors.IndexCorrupt("short read on lmax", err)
	}
	var entry uint64
	if err := binary.Read(f, binary.LittleEndian, &entry); err != nil {
		return nil, rerrors.IndexCorrupt("short read on entry", err)
	}

	nInt := int(n)

	layers := make([]uint32, nInt)
	if err := binary.Read(f, binary.LittleEndian, layers); err != nil {
		return nil, rerrors.IndexCorrupt("short read on layer array", err)
	}

	vectors := make([]float32, nInt*int(d))
	if err := binary.Read(f, binary.LittleEndian, vectors); err != nil {
		return nil, rerrors.IndexCorrupt("short read on vectors", err)
	}

	nodes := make([]*node, nInt)
	for i := range nodes {
		nodes[i] = &node{
			vector:    vectors[i*int(d) : (i+1)*int(d)],
			layer:     int(layers[i]),
			neighbors: make([][]int, int(layers[i])+1),
		}
	}

	for l := 0; l <= int(lmax); l++ {
		capacity := Config{M: int(m)}.maxConns(l)

		offsets := make([]uint64, nInt+1)
		if err := binary.Read(f, binary.LittleEndian, offsets); err != nil {
			return nil, rerrors.IndexCorrupt(fmt.Sprintf("short read on layer %d offsets", l), err)
		}

		block := make([]uint32, nInt*capacity)
		if err := binary.Read(f, binary.LittleEndian, block); err != nil {
			return nil, rerrors.IndexCorrupt(fmt.Sprintf("short read on layer %d neighbor block", l), err)
		}

		for i, nd := range nodes {
			if l > nd.layer {
				continue
			}
			row := block[i*capacity : (i+1)*capacity]
			neighbors := make([]int, 0, capacity)
			for _, v := range row {
				if v == emptySlot {
					continue
				}
				if int(v) >= nInt {
					return nil, rerrors.IndexCorrupt(
						fmt.Sprintf("neighbor id %d out of range [0,%d)", v, nInt), nil)
				}
				neighbors = append(neighbors, int(v))
			}
			nd.neighbors[l] = neighbors
		}
	}

	entryID := int(entry)
	if nInt == 0 {
		entryID = -1
	} else if entryID < 0 || entryID >= nInt {
		return nil, rerrors.IndexCorrupt(fmt.Sprintf("entry point %d out of range [0,%d)", entryID, nInt), nil)
	}

	return &Index{
		cfg:      Config{M: int(m), EfConstruction: DefaultEfConstruction, EfSearch: DefaultEfSearch}.withDefaults(),
		dim:      int(d),
		nodes:    nodes,
		entry:    entryID,
		maxLayer: int(lmax),
	}, nil
}
