// Package tcpserver accepts newline-delimited log lines over TCP, for
// shippers that forward access logs instead of writing them locally.
package tcpserver

import (
	"bufio"
	"context"
	"errors"
	"log"
	"net"
	"strings"
	"sync"

	"github.com/tinytelemetry/httop/internal/model"
)

const (
	// DefaultAddr is used when no listen address is given.
	DefaultAddr = "127.0.0.1:5140"

	// DefaultLineChannelSize is the default buffer size for the incoming log line channel.
	DefaultLineChannelSize = 100_000

	// DefaultMaxLineSize is the default maximum size (in bytes) of a single log line.
	DefaultMaxLineSize = 1024 * 1024 // 1MB
)

// ServerConfig holds tunable parameters for the TCP server.
type ServerConfig struct {
	LineChannelSize int
	MaxLineSize     int
}

// Server listens for newline-delimited log lines over TCP.
type Server struct {
	listener    net.Listener
	addr        string
	lineChan    chan model.IngestEnvelope
	maxLineSize int
	ctx         context.Context
	cancel      context.CancelFunc
	wg          sync.WaitGroup
	stopOnce    sync.Once

	connMu sync.Mutex
	conns  map[net.Conn]struct{}
}

// NewServer creates a new TCP server. An empty addr means DefaultAddr.
func NewServer(addr string, conf ...ServerConfig) *Server {
	if addr == "" {
		addr = DefaultAddr
	}
	lineChannelSize := DefaultLineChannelSize
	maxLineSize := DefaultMaxLineSize
	if len(conf) > 0 {
		if conf[0].LineChannelSize > 0 {
			lineChannelSize = conf[0].LineChannelSize
		}
		if conf[0].MaxLineSize > 0 {
			maxLineSize = conf[0].MaxLineSize
		}
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Server{
		addr:        addr,
		lineChan:    make(chan model.IngestEnvelope, lineChannelSize),
		maxLineSize: maxLineSize,
		ctx:         ctx,
		cancel:      cancel,
		conns:       make(map[net.Conn]struct{}),
	}
}

// Start begins accepting TCP connections.
func (s *Server) Start() error {
	listener, err := net.Listen("tcp", s.addr)
	if err != nil {
		return err
	}
	s.listener = listener

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		for {
			conn, err := listener.Accept()
			if err != nil {
				if s.ctx.Err() != nil || errors.Is(err, net.ErrClosed) {
					return
				}
				log.Printf("tcpserver: accept error: %v", err)
				continue
			}
			if !s.track(conn) {
				_ = conn.Close()
				return
			}
			s.wg.Add(1)
			go s.handleConnection(conn)
		}
	}()

	return nil
}

// track registers conn so Stop can unblock its reader. It returns false
// once the server is stopping.
func (s *Server) track(conn net.Conn) bool {
	s.connMu.Lock()
	defer s.connMu.Unlock()
	if s.ctx.Err() != nil {
		return false
	}
	s.conns[conn] = struct{}{}
	return true
}

func (s *Server) untrack(conn net.Conn) {
	s.connMu.Lock()
	delete(s.conns, conn)
	s.connMu.Unlock()
}

func (s *Server) handleConnection(conn net.Conn) {
	defer s.wg.Done()
	defer s.untrack(conn)
	defer conn.Close()

	source := "tcp:" + conn.RemoteAddr().String()
	scanner := bufio.NewScanner(conn)
	scanner.Buffer(make([]byte, 0, 64*1024), s.maxLineSize)

	for scanner.Scan() {
		if s.ctx.Err() != nil {
			return
		}
		select {
		case s.lineChan <- model.IngestEnvelope{Source: source, Line: strings.TrimSpace(scanner.Text())}:
		case <-s.ctx.Done():
			return
		}
	}
	if err := scanner.Err(); err != nil && s.ctx.Err() == nil {
		if errors.Is(err, bufio.ErrTooLong) {
			log.Printf("tcpserver: dropped connection %s due to line exceeding max size (%d bytes)", conn.RemoteAddr(), s.maxLineSize)
			return
		}
		log.Printf("tcpserver: scanner error from %s: %v", conn.RemoteAddr(), err)
	}
}

// Stop closes the listener and every open connection, waits for the
// handlers, then closes Lines. Safe to call more than once.
func (s *Server) Stop() error {
	s.stopOnce.Do(func() {
		s.connMu.Lock()
		s.cancel()
		for conn := range s.conns {
			_ = conn.Close()
		}
		s.connMu.Unlock()

		if s.listener != nil {
			_ = s.listener.Close()
		}
		s.wg.Wait()
		close(s.lineChan)
	})
	return nil
}

// Lines returns the channel of received log lines.
func (s *Server) Lines() <-chan model.IngestEnvelope {
	return s.lineChan
}

// Addr returns the active listen address.
// Before Start, it returns the configured address.
func (s *Server) Addr() string {
	if s.listener != nil {
		return s.listener.Addr().String()
	}
	return s.addr
}
