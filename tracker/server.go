package tracker

import (
	"encoding/json"
	"fmt"
	"net"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"tarun-kavipurapu/p2p-share/pkg/discovery"
	"tarun-kavipurapu/p2p-share/pkg/logger"
	"tarun-kavipurapu/p2p-share/pkg/protocol"
	"tarun-kavipurapu/p2p-share/pkg/transport/udp"
)

type Config struct {
	Addr       string
	StaleAfter time.Duration
	// Advertise announces the tracker over mDNS so peers can find it.
	Advertise bool
}

func DefaultConfig() Config {
	return Config{
		Addr:       protocol.DefaultTrackerAddr,
		StaleAfter: DefaultStaleAfter,
	}
}

// Server answers share/get/alive datagrams on a single UDP socket.
type Server struct {
	*Tracker
	cfg        Config
	Transport  *udp.UDPTransport
	advertiser *discovery.Advertiser
	quitCh     chan struct{}
	stopOnce   sync.Once
}

func NewServer(cfg Config, opts ...Option) *Server {
	opts = append([]Option{WithStaleAfter(cfg.StaleAfter)}, opts...)
	trans := udp.NewUDPTransport(cfg.Addr)

	s := &Server{
		Tracker:    New(opts...),
		cfg:        cfg,
		Transport:  trans,
		advertiser: discovery.NewAdvertiser(),
		quitCh:     make(chan struct{}),
	}
	trans.SetHandler(s.handleDatagram)
	return s
}

// Start binds the socket and serves in the background.
func (s *Server) Start() error {
	logger.Sugar.Infof("[Tracker] [%s] starting tracker...", s.Transport.Addr())

	if err := s.Transport.ListenAndAccept(); err != nil {
		return fmt.Errorf("listen %s: %w", s.cfg.Addr, err)
	}
	s.afterListen()
	return nil
}

// Serve uses an already bound socket.
func (s *Server) Serve(conn net.PacketConn) error {
	if err := s.Transport.Serve(conn); err != nil {
		return err
	}
	s.afterListen()
	return nil
}

func (s *Server) afterListen() {
	logger.Sugar.Infof("[Tracker] listening on %s", s.Transport.Addr())
	if !s.cfg.Advertise {
		return
	}

	_, portStr, err := net.SplitHostPort(s.Transport.Addr())
	if err != nil {
		logger.Sugar.Errorf("[Tracker] failed to parse address: %v", err)
		return
	}
	port, err := strconv.Atoi(portStr)
	if err != nil || port <= 0 {
		return
	}
	meta := map[string]string{
		"version": "1.0.0",
		"type":    "tracker",
	}
	if err := s.advertiser.Start("p2p-tracker", port, meta); err != nil {
		logger.Sugar.Errorf("[Tracker] failed to start mDNS advertisement: %v", err)
	} else {
		logger.Sugar.Infof("[Tracker] mDNS advertisement started on port %d", port)
	}
}

// Run starts the server and blocks until Stop.
func (s *Server) Run() error {
	if err := s.Start(); err != nil {
		return err
	}
	<-s.quitCh
	return nil
}

func (s *Server) Addr() string {
	return s.Transport.Addr()
}

func (s *Server) handleDatagram(payload []byte, from net.Addr) {
	msg, err := protocol.DecodeControl(payload)
	if err != nil {
		logger.Sugar.Debugf("[Tracker] dropping malformed datagram: from=%s err=%v", from, err)
		return
	}

	switch msg.Command {
	case protocol.CommandShare:
		s.Share(msg.Filename, msg.PeerID, msg.PeerAddress, msg.NumChunks)
		s.reply(from, []byte(protocol.ReplyOK))

	case protocol.CommandGet:
		addrs, numChunks, err := s.Get(msg.Filename, msg.PeerID)
		if err != nil {
			logger.Sugar.Infof("[Tracker] get %s from %s: not found", msg.Filename, msg.PeerID)
			s.reply(from, []byte(protocol.ReplyNotFound))
			return
		}
		resp, err := json.Marshal(protocol.GetResponse{Peers: addrs, NumChunks: numChunks})
		if err != nil {
			logger.Sugar.Errorf("[Tracker] encode get response: %v", err)
			return
		}
		s.reply(from, resp)

	case protocol.CommandAlive:
		// Heartbeats are frequent; keep them quiet unless debugging.
		s.Touch(msg.PeerID)
		logger.Sugar.Debugf("[Tracker] alive from %s", msg.PeerID)

	default:
		logger.Sugar.Debugf("[Tracker] ignoring unknown command %q from %s", msg.Command, from)
	}
}

func (s *Server) reply(to net.Addr, b []byte) {
	if err := s.Transport.WriteTo(b, to); err != nil {
		logger.Sugar.Errorf("[Tracker] reply to %s failed: %v", to, err)
	}
}

func (s *Server) GetStatus() string {
	files := s.Files()
	sort.Slice(files, func(i, j int) bool { return files[i].Filename < files[j].Filename })

	var b strings.Builder
	fmt.Fprintf(&b, "Tracker Running on: %s\n", s.Transport.Addr())
	fmt.Fprintf(&b, "Known Peers: %d\n", s.KnownPeers())
	fmt.Fprintf(&b, "Registered Files: %d\n", len(files))
	for _, f := range files {
		fmt.Fprintf(&b, " - File: %s Chunks: %d Sharers: %d\n", f.Filename, f.NumChunks, len(f.Peers))
	}
	return b.String()
}

func (s *Server) Stop() error {
	s.stopOnce.Do(func() {
		s.advertiser.Stop()
		close(s.quitCh)
	})
	return s.Transport.Close()
}
