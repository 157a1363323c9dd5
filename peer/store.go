package peer

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"tarun-kavipurapu/p2p-share/pkg/protocol"
)

// ErrMissingChunk means the requested file or chunk index is not held here.
var ErrMissingChunk = errors.New("missing chunk")

// Store keeps whole files in memory as ordered chunk sets, keyed by base
// filename. Nothing is persisted.
type Store struct {
	mu    sync.RWMutex
	files map[string][][]byte
}

func NewStore() *Store {
	return &Store{files: make(map[string][][]byte)}
}

// SplitChunks cuts data into protocol.ChunkSize slices; the last one holds
// the remainder. The slices alias data.
func SplitChunks(data []byte) [][]byte {
	chunks := make([][]byte, 0, protocol.NumChunks(len(data)))
	for off := 0; off < len(data); off += protocol.ChunkSize {
		end := off + protocol.ChunkSize
		if end > len(data) {
			end = len(data)
		}
		chunks = append(chunks, data[off:end])
	}
	return chunks
}

// LoadFile reads path fully, chunks it and stores it under its base name.
func (s *Store) LoadFile(path string) (name string, numChunks int, err error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", 0, fmt.Errorf("failed to read file: %w", err)
	}
	name = filepath.Base(path)
	chunks := SplitChunks(data)
	s.Put(name, chunks)
	return name, len(chunks), nil
}

func (s *Store) Put(name string, chunks [][]byte) {
	s.mu.Lock()
	s.files[name] = chunks
	s.mu.Unlock()
}

// Chunk returns chunk id of name, or ErrMissingChunk.
func (s *Store) Chunk(name string, id int) ([]byte, error) {
	s.mu.RLock()
	chunks, ok := s.files[name]
	s.mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("%w: file %q not held", ErrMissingChunk, name)
	}
	if id < 0 || id >= len(chunks) {
		return nil, fmt.Errorf("%w: %q has %d chunks, asked for %d", ErrMissingChunk, name, len(chunks), id)
	}
	return chunks[id], nil
}

// Files lists held filenames with their chunk counts, sorted by name.
func (s *Store) Files() []StoredFile {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]StoredFile, 0, len(s.files))
	for name, chunks := range s.files {
		size := 0
		for _, c := range chunks {
			size += len(c)
		}
		out = append(out, StoredFile{Name: name, NumChunks: len(chunks), Size: size})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

type StoredFile struct {
	Name      string
	NumChunks int
	Size      int
}
