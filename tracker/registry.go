package tracker

// fileRecord holds the sharers of one filename in announcement order and the
// chunk count of the most recent share.
type fileRecord struct {
	peers     map[string]string // peer_id -> address
	order     []string          // peer ids, first share first
	numChunks int
}

// Registry maps filenames to their sharing peers. It is not safe for
// concurrent use; Tracker serialises access.
type Registry struct {
	files map[string]*fileRecord
}

func NewRegistry() *Registry {
	return &Registry{files: make(map[string]*fileRecord)}
}

// Share inserts or overwrites peerID under filename. numChunks replaces the
// count for every sharer of the file, even if it disagrees with theirs.
func (r *Registry) Share(filename, peerID, peerAddr string, numChunks int) {
	rec, ok := r.files[filename]
	if !ok {
		rec = &fileRecord{peers: make(map[string]string)}
		r.files[filename] = rec
	}
	if _, exists := rec.peers[peerID]; !exists {
		rec.order = append(rec.order, peerID)
	}
	rec.peers[peerID] = peerAddr
	rec.numChunks = numChunks
}

// Lookup returns the sharer addresses and chunk count of filename. ok is
// false if the file was never shared or has no sharers left.
func (r *Registry) Lookup(filename string) (addrs []string, numChunks int, ok bool) {
	rec, exists := r.files[filename]
	if !exists || len(rec.peers) == 0 {
		return nil, 0, false
	}
	addrs = make([]string, 0, len(rec.order))
	for _, id := range rec.order {
		addrs = append(addrs, rec.peers[id])
	}
	return addrs, rec.numChunks, true
}

// RemovePeer drops peerID from every file. Emptied records are kept.
func (r *Registry) RemovePeer(peerID string) {
	for _, rec := range r.files {
		if _, ok := rec.peers[peerID]; !ok {
			continue
		}
		delete(rec.peers, peerID)
		for i, id := range rec.order {
			if id == peerID {
				rec.order = append(rec.order[:i], rec.order[i+1:]...)
				break
			}
		}
	}
}

// FileInfo is a read-only view of one record for operator output.
type FileInfo struct {
	Filename  string
	NumChunks int
	Peers     map[string]string
}

// Files snapshots every record, including emptied ones.
func (r *Registry) Files() []FileInfo {
	out := make([]FileInfo, 0, len(r.files))
	for name, rec := range r.files {
		peers := make(map[string]string, len(rec.peers))
		for id, addr := range rec.peers {
			peers[id] = addr
		}
		out = append(out, FileInfo{Filename: name, NumChunks: rec.numChunks, Peers: peers})
	}
	return out
}
