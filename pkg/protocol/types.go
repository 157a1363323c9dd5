package protocol

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
)

const (
	// ChunkSize is the fixed size of every chunk except possibly the last.
	ChunkSize = 1024
	// MaxDatagramSize bounds a single control datagram on the receive side.
	MaxDatagramSize = 1024

	DefaultTrackerAddr = "127.0.0.1:6771"
	DefaultListenPort  = 52611

	// DownloadPrefix is prepended to the name of every assembled download.
	DownloadPrefix = "downloaded_"
)

// Command selects the tracker handler for a control message.
type Command string

const (
	CommandShare Command = "share"
	CommandGet   Command = "get"
	CommandAlive Command = "alive"
)

// Raw (non-JSON) tracker replies.
const (
	ReplyOK       = "OK"
	ReplyNotFound = "File not found"
)

var ErrBadChunkRequest = errors.New("malformed chunk request")

// ControlMessage is the single JSON datagram shape understood by the tracker.
// Which fields are meaningful depends on Command.
type ControlMessage struct {
	Command     Command `json:"command"`
	Filename    string  `json:"filename,omitempty"`
	PeerID      string  `json:"peer_id,omitempty"`
	PeerAddress string  `json:"peer_address,omitempty"`
	NumChunks   int     `json:"num_chunks,omitempty"`
}

// GetResponse is the tracker's JSON answer to a successful get.
type GetResponse struct {
	Peers     []string `json:"peers"`
	NumChunks int      `json:"num_chunks"`
}

func NewShare(filename, peerID, peerAddr string, numChunks int) ControlMessage {
	return ControlMessage{
		Command:     CommandShare,
		Filename:    filename,
		PeerID:      peerID,
		PeerAddress: peerAddr,
		NumChunks:   numChunks,
	}
}

func NewGet(filename, peerID, peerAddr string) ControlMessage {
	return ControlMessage{
		Command:     CommandGet,
		Filename:    filename,
		PeerID:      peerID,
		PeerAddress: peerAddr,
	}
}

func NewAlive(peerID string) ControlMessage {
	return ControlMessage{Command: CommandAlive, PeerID: peerID}
}

func (m ControlMessage) Encode() ([]byte, error) {
	return json.Marshal(m)
}

func DecodeControl(data []byte) (ControlMessage, error) {
	var m ControlMessage
	if err := json.Unmarshal(data, &m); err != nil {
		return ControlMessage{}, fmt.Errorf("decode control message: %w", err)
	}
	return m, nil
}

// DecodeGetReply interprets a reply to a get. found is false when the
// tracker answered with the literal not-found string.
func DecodeGetReply(data []byte) (resp GetResponse, found bool, err error) {
	if string(data) == ReplyNotFound {
		return GetResponse{}, false, nil
	}
	if err := json.Unmarshal(data, &resp); err != nil {
		return GetResponse{}, false, fmt.Errorf("decode get reply %q: %w", data, err)
	}
	return resp, true, nil
}

// ChunkRequest asks a peer for one chunk of a file.
type ChunkRequest struct {
	Filename string
	ChunkID  int
}

// String renders the plaintext wire form "<filename>,<chunk_id>".
func (r ChunkRequest) String() string {
	return r.Filename + "," + strconv.Itoa(r.ChunkID)
}

// ParseChunkRequest splits on the last comma so filenames may contain commas.
func ParseChunkRequest(data []byte) (ChunkRequest, error) {
	s := strings.TrimRight(string(data), "\r\n")
	i := strings.LastIndexByte(s, ',')
	if i <= 0 {
		return ChunkRequest{}, fmt.Errorf("%w: %q", ErrBadChunkRequest, s)
	}
	id, err := strconv.Atoi(strings.TrimSpace(s[i+1:]))
	if err != nil {
		return ChunkRequest{}, fmt.Errorf("%w: %q", ErrBadChunkRequest, s)
	}
	return ChunkRequest{Filename: s[:i], ChunkID: id}, nil
}

// NumChunks returns ceil(size/ChunkSize).
func NumChunks(size int) int {
	return (size + ChunkSize - 1) / ChunkSize
}
