package ipc

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"os"
	"sync"
	"time"

	"github.com/1broseidon/tilewm/internal/runtimepath"
)

// ErrBusy is reported when the daemon dropped a command or did not answer
// in time.
var ErrBusy = errors.New("daemon busy")

// Submitter hands a command to the dispatcher. Submit must not block; it
// reports false when the command was dropped.
type Submitter interface {
	SubmitCommand(req *Request, reply chan<- *Response) bool
}

// Server handles IPC requests from clients
type Server struct {
	socketPath   string
	listener     net.Listener
	submitter    Submitter
	replyTimeout time.Duration
	logger       *slog.Logger
	shuttingDown bool
	shutdownMu   sync.Mutex
}

// NewServer creates a new IPC server on the runtime socket path.
func NewServer(submitter Submitter, replyTimeout time.Duration, logger *slog.Logger) (*Server, error) {
	socketPath, err := runtimepath.SocketPath()
	if err != nil {
		return nil, fmt.Errorf("failed to resolve IPC socket path: %w", err)
	}
	return NewServerAt(socketPath, submitter, replyTimeout, logger), nil
}

// NewServerAt creates a server listening on an explicit socket path.
func NewServerAt(socketPath string, submitter Submitter, replyTimeout time.Duration, logger *slog.Logger) *Server {
	if replyTimeout <= 0 {
		replyTimeout = 5 * time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}

	// Remove existing socket if present
	os.Remove(socketPath)

	return &Server{
		socketPath:   socketPath,
		submitter:    submitter,
		replyTimeout: replyTimeout,
		logger:       logger,
	}
}

// Start begins listening for IPC connections
func (s *Server) Start() error {
	listener, err := net.Listen("unix", s.socketPath)
	if err != nil {
		return fmt.Errorf("failed to create IPC socket: %w", err)
	}
	s.listener = listener

	if err := os.Chmod(s.socketPath, 0600); err != nil {
		listener.Close()
		return fmt.Errorf("failed to set socket permissions: %w", err)
	}

	s.logger.Info("IPC server listening", "socket", s.socketPath)

	go s.acceptLoop()

	return nil
}

func (s *Server) acceptLoop() {
	for {
		conn, err := s.listener.Accept()
		if err != nil {
			s.shutdownMu.Lock()
			if s.shuttingDown {
				s.shutdownMu.Unlock()
				return
			}
			s.shutdownMu.Unlock()
			s.logger.Warn("IPC accept error", "error", err)
			continue
		}

		go s.handleConnection(conn)
	}
}

func (s *Server) handleConnection(conn net.Conn) {
	defer conn.Close()

	reader := bufio.NewReader(conn)

	// One JSON request per line.
	data, err := reader.ReadBytes('\n')
	if err != nil && err != io.EOF {
		s.logger.Warn("IPC read error", "error", err)
		return
	}

	req, err := ParseRequest(data)
	if err != nil {
		s.send(conn, NewErrorResponse(fmt.Sprintf("Invalid request: %v", err)))
		return
	}

	s.send(conn, s.handleCommand(req))
}

// handleCommand submits the request to the dispatcher and waits for its
// reply.
func (s *Server) handleCommand(req *Request) *Response {
	reply := make(chan *Response, 1)
	if !s.submitter.SubmitCommand(req, reply) {
		return NewErrorResponse(ErrBusy.Error())
	}

	timer := time.NewTimer(s.replyTimeout)
	defer timer.Stop()

	select {
	case resp := <-reply:
		if resp == nil {
			resp, _ = NewOKResponse(nil)
		}
		return resp
	case <-timer.C:
		s.logger.Warn("IPC command timed out", "command", req.Command)
		return NewErrorResponse(ErrBusy.Error())
	}
}

func (s *Server) send(conn net.Conn, resp *Response) {
	data, err := resp.Marshal()
	if err != nil {
		s.logger.Error("failed to marshal response", "error", err)
		return
	}
	data = append(data, '\n')
	if _, err := conn.Write(data); err != nil {
		s.logger.Warn("failed to send response", "error", err)
	}
}

// Stop gracefully shuts down the IPC server
func (s *Server) Stop() {
	s.shutdownMu.Lock()
	s.shuttingDown = true
	s.shutdownMu.Unlock()

	if s.listener != nil {
		s.listener.Close()
	}
	os.Remove(s.socketPath)
}
