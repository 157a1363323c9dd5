package peer

import (
	"context"
	"errors"
	"fmt"

	"tarun-kavipurapu/p2p-share/pkg/protocol"
	"tarun-kavipurapu/p2p-share/pkg/transport/udp"
)

// ErrFileNotFound is the tracker's "File not found" answer to a get.
var ErrFileNotFound = errors.New(protocol.ReplyNotFound)

// ControlClient talks to the tracker with one-shot UDP datagrams.
type ControlClient struct {
	trackerAddr string
	peerID      string
	peerAddr    string
}

func NewControlClient(trackerAddr, peerID, peerAddr string) *ControlClient {
	return &ControlClient{
		trackerAddr: trackerAddr,
		peerID:      peerID,
		peerAddr:    peerAddr,
	}
}

// SendShare announces a file. The tracker's "OK" is not awaited; an error
// means only that the datagram could not be sent.
func (c *ControlClient) SendShare(filename string, numChunks int) error {
	return c.send(protocol.NewShare(filename, c.peerID, c.peerAddr, numChunks))
}

// SendAlive is a fire-and-forget heartbeat.
func (c *ControlClient) SendAlive() error {
	return c.send(protocol.NewAlive(c.peerID))
}

// SendGet asks the tracker who holds filename and blocks for the single
// reply. Only ctx bounds the wait.
func (c *ControlClient) SendGet(ctx context.Context, filename string) (protocol.GetResponse, error) {
	payload, err := protocol.NewGet(filename, c.peerID, c.peerAddr).Encode()
	if err != nil {
		return protocol.GetResponse{}, err
	}

	reply, err := udp.Exchange(ctx, c.trackerAddr, payload)
	if err != nil {
		return protocol.GetResponse{}, fmt.Errorf("get %s from tracker: %w", filename, err)
	}

	resp, found, err := protocol.DecodeGetReply(reply)
	if err != nil {
		return protocol.GetResponse{}, err
	}
	if !found {
		return protocol.GetResponse{}, ErrFileNotFound
	}
	return resp, nil
}

func (c *ControlClient) send(msg protocol.ControlMessage) error {
	payload, err := msg.Encode()
	if err != nil {
		return err
	}
	return udp.Send(c.trackerAddr, payload)
}
