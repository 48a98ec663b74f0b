// Package web serves the document engine over HTTP.
package web

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/zeptools/gw-docs/svc"
)

const shutdownTimeout = 10 * time.Second

type Service struct {
	Ctx    context.Context    // Service Context
	cancel context.CancelFunc // Service Context CancelFunc
	state  int                // internal service state
	done   chan error         // Shutdown Error Channel
	Server *http.Server
	ln     net.Listener
	log    zerolog.Logger
}

// Ensure Service implements svc.Service
var _ svc.Service = (*Service)(nil)

func NewService(parentCtx context.Context, addr string, router http.Handler, log zerolog.Logger) *Service {
	svcCtx, svcCancel := context.WithCancel(parentCtx)
	return &Service{
		Ctx:    svcCtx,
		cancel: svcCancel,
		state:  svc.StateREADY,
		done:   make(chan error, 1),
		Server: &http.Server{
			Addr:              addr,
			Handler:           router,
			ReadHeaderTimeout: 10 * time.Second,
			BaseContext:       func(net.Listener) context.Context { return svcCtx },
		},
		log: log.With().Str("service", "web").Logger(),
	}
}

func (s *Service) Name() string {
	return "WebService"
}

// Addr is the bound address once started; useful with ":0".
func (s *Service) Addr() string {
	if s.ln == nil {
		return s.Server.Addr
	}
	return s.ln.Addr().String()
}

// Start binds the listener synchronously so a bad address fails here, then
// serves in the background until Stop or the parent context ends.
func (s *Service) Start() error {
	if s.state == svc.StateRUNNING {
		return fmt.Errorf("already started")
	}
	if s.state != svc.StateREADY {
		return fmt.Errorf("cannot start. not ready")
	}
	ln, err := net.Listen("tcp", s.Server.Addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", s.Server.Addr, err)
	}
	s.ln = ln
	s.state = svc.StateRUNNING

	serveErr := make(chan error, 1)
	go func() {
		s.log.Info().Str("addr", ln.Addr().String()).Msg("[INFO][Web] listening")
		if err := s.Server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
			return
		}
		serveErr <- nil
	}()

	go func() {
		select {
		case err := <-serveErr:
			s.done <- err
		case <-s.Ctx.Done():
			// requests already being processed get shutdownTimeout to finish
			ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			err := s.Server.Shutdown(ctx)
			if err != nil {
				s.log.Error().Err(err).Msg("[ERROR][Web] shutdown")
			}
			<-serveErr
			s.log.Info().Msg("[INFO][Web] shutdown complete")
			s.done <- err
		}
	}()
	return nil
}

func (s *Service) Stop() {
	if s.state != svc.StateRUNNING {
		s.log.Error().Msg("[ERROR][Web] cannot stop. not running")
		return
	}
	s.cancel()
	s.state = svc.StateSTOPPED
}

func (s *Service) Done() <-chan error {
	return s.done
}
