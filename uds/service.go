// Package uds serves line-based admin commands on a unix domain socket.
//
//	$ nc -U run/admin.sock
//	pending
//	status 0b6f...
//	quit
package uds

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"os"
	"slices"
	"strings"
	"sync"

	"github.com/rs/zerolog"

	"github.com/zeptools/gw-docs/svc"
)

const maxLine = 64 << 10

type Service struct {
	Ctx        context.Context    // Service Context
	cancel     context.CancelFunc // Service Context CancelFunc
	state      int                // internal service state
	done       chan error         // Shutdown Error Channel
	SocketPath string
	CmdMap     map[string]CmdHnd
	listener   net.Listener
	conns      sync.WaitGroup
	log        zerolog.Logger
}

// Ensure uds.Service implements svc.Service
var _ svc.Service = (*Service)(nil)

func (s *Service) Name() string {
	return "UDSService"
}

func NewService(parentCtx context.Context, sockPath string, cmdMap map[string]CmdHnd, log zerolog.Logger) *Service {
	svcCtx, svcCancel := context.WithCancel(parentCtx)
	return &Service{
		Ctx:        svcCtx,
		cancel:     svcCancel,
		state:      svc.StateREADY,
		done:       make(chan error, 1),
		SocketPath: sockPath,
		CmdMap:     cmdMap,
		log:        log.With().Str("service", "uds").Logger(),
	}
}

// Start binds the socket, owner-only, and accepts in the background.
func (s *Service) Start() error {
	if s.state != svc.StateREADY {
		return fmt.Errorf("cannot start. not ready")
	}
	// a stale socket from a crashed run blocks the bind
	_ = os.Remove(s.SocketPath)
	ln, err := net.Listen("unix", s.SocketPath)
	if err != nil {
		return fmt.Errorf("listen %s: %w", s.SocketPath, err)
	}
	if err = os.Chmod(s.SocketPath, 0o600); err != nil {
		_ = ln.Close()
		_ = os.Remove(s.SocketPath)
		return fmt.Errorf("chmod %s: %w", s.SocketPath, err)
	}
	s.listener = ln
	s.state = svc.StateRUNNING
	go s.closeOnDone()
	go s.acceptLoop()
	s.log.Info().Str("path", s.SocketPath).Msg("[INFO][UDS] listening")
	return nil
}

func (s *Service) Stop() {
	s.cancel()
	s.state = svc.StateSTOPPED
	s.log.Info().Msg("[INFO][UDS] service stopped")
}

func (s *Service) Done() <-chan error {
	return s.done
}

func (s *Service) closeOnDone() {
	<-s.Ctx.Done()
	if err := s.listener.Close(); err != nil && !errors.Is(err, net.ErrClosed) {
		s.log.Error().Err(err).Msg("[ERROR][UDS] closing listener")
	}
	if err := os.Remove(s.SocketPath); err != nil && !errors.Is(err, os.ErrNotExist) {
		s.log.Error().Err(err).Msg("[ERROR][UDS] removing socket file")
	}
}

// acceptLoop reports on Done once the listener is closed and every
// connection has finished.
func (s *Service) acceptLoop() {
	for {
		conn, err := s.listener.Accept()
		if errors.Is(err, net.ErrClosed) {
			s.conns.Wait()
			s.done <- nil
			return
		}
		if err != nil {
			s.log.Error().Err(err).Msg("[ERROR][UDS] accept failed")
			continue
		}
		s.conns.Add(1)
		go func() {
			defer s.conns.Done()
			s.serve(conn)
		}()
	}
}

func (s *Service) serve(conn net.Conn) {
	stop := context.AfterFunc(s.Ctx, func() { _ = conn.Close() })
	defer stop()
	defer conn.Close()

	sc := bufio.NewScanner(conn)
	sc.Buffer(make([]byte, 0, 4096), maxLine)
	for sc.Scan() {
		args := strings.Fields(sc.Text())
		if len(args) == 0 {
			continue
		}
		if !s.dispatch(args, conn) {
			return
		}
	}
	if err := sc.Err(); err != nil && !errors.Is(err, net.ErrClosed) {
		s.log.Error().Err(err).Msg("[ERROR][UDS] read failed")
	}
}

// dispatch runs one command line and reports whether to keep reading.
func (s *Service) dispatch(args []string, w io.Writer) bool {
	name := args[0]
	switch name {
	case "quit", "exit":
		return false
	case "help":
		s.help(w)
		return true
	}
	h, ok := s.CmdMap[name]
	if !ok {
		_, _ = fmt.Fprintf(w, "unknown command: %s\n", name)
		return true
	}
	s.log.Info().Strs("args", args).Msg("[INFO][UDS] command")
	if err := h.call(s.Ctx, args[1:], w); err != nil {
		_, _ = fmt.Fprintf(w, "error: %v\n", err)
		if h.Usage != "" {
			_, _ = fmt.Fprintf(w, "usage: %s\n", h.Usage)
		}
	}
	return true
}

func (s *Service) help(w io.Writer) {
	names := make([]string, 0, len(s.CmdMap))
	for k := range s.CmdMap {
		names = append(names, k)
	}
	slices.Sort(names)
	_, _ = fmt.Fprintln(w, "")
	for _, k := range names {
		label := k
		if u := s.CmdMap[k].Usage; u != "" {
			label = u
		}
		_, _ = fmt.Fprintf(w, "%-36s %s\n", label, s.CmdMap[k].Desc)
	}
	_, _ = fmt.Fprintln(w, "")
}
