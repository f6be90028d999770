// Package server exposes the trading core to out-of-process strategies
// over a Unix domain socket carrying fixed-size command and response
// frames.
package server

import (
	"context"
	"io"
	"net"
	"sync"

	"github.com/yanun0323/errors"
	"github.com/yanun0323/logs"

	"main/internal/bus"
	"main/internal/codec"
	"main/internal/obs"
	"main/pkg/uds"
)

// Server accepts strategy connections, feeds their command frames into
// the bus queue, and streams their order responses back.
type Server struct {
	listener *uds.Server
	queue    *bus.Queue
	fanout   *bus.Fanout
	metrics  *obs.Metrics

	mu    sync.Mutex
	conns map[*net.UnixConn]struct{}
}

func New(socketPath string, queue *bus.Queue, fanout *bus.Fanout, metrics *obs.Metrics) (*Server, error) {
	listener, err := uds.NewServer(socketPath)
	if err != nil {
		return nil, errors.Wrap(err, "strategy server")
	}
	return &Server{
		listener: listener,
		queue:    queue,
		fanout:   fanout,
		metrics:  metrics,
		conns:    make(map[*net.UnixConn]struct{}),
	}, nil
}

// Run accepts connections until the context is done. Each connection is
// served by its own reader goroutine; a response writer is attached once
// the connection's strategy id is known from its first frame.
func (s *Server) Run(ctx context.Context) error {
	if err := s.listener.Listen(); err != nil {
		return errors.Wrap(err, "listen strategy socket")
	}
	logs.Infof("strategy server listening on %s", s.listener.Path())

	go func() {
		<-ctx.Done()
		_ = s.listener.Close()
		s.closeAll()
	}()

	for {
		conn, err := s.listener.Accept()
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return errors.Wrap(err, "accept strategy connection")
		}
		s.track(conn)
		go s.serve(ctx, conn)
	}
}

func (s *Server) track(conn *net.UnixConn) {
	s.mu.Lock()
	s.conns[conn] = struct{}{}
	s.mu.Unlock()
}

func (s *Server) untrack(conn *net.UnixConn) {
	s.mu.Lock()
	delete(s.conns, conn)
	s.mu.Unlock()
}

func (s *Server) closeAll() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for conn := range s.conns {
		_ = conn.Close()
	}
}

func (s *Server) serve(ctx context.Context, conn *net.UnixConn) {
	defer func() {
		s.untrack(conn)
		_ = conn.Close()
	}()

	writerStarted := make(map[string]struct{})
	frame := make([]byte, codec.CommandFrameSize)

	for {
		if _, err := io.ReadFull(conn, frame); err != nil {
			if err != io.EOF && ctx.Err() == nil {
				logs.Warnf("strategy connection read failed: %v", err)
			}
			return
		}

		// The queue owns the frame after publish; hand over a copy.
		buf := make([]byte, codec.CommandFrameSize)
		copy(buf, frame)
		if err := s.queue.TryPublish(bus.Frame{Data: buf}); err != nil {
			if errors.Is(err, bus.ErrQueueClosed) {
				s.metrics.IncQueueClosed()
				logs.Warnf("command refused, queue closed: %v", err)
				return
			}
			s.metrics.IncQueueDrop()
			logs.Warnf("command dropped: %v", err)
			continue
		}

		cmd, ok := codec.DecodeCommand(frame)
		if !ok || cmd.StrategyID == "" {
			continue
		}
		if _, started := writerStarted[cmd.StrategyID]; !started {
			writerStarted[cmd.StrategyID] = struct{}{}
			go s.writeResponses(ctx, conn, cmd.StrategyID)
		}
	}
}

func (s *Server) writeResponses(ctx context.Context, conn *net.UnixConn, strategyID string) {
	responses := s.fanout.Subscribe(strategyID)
	for {
		select {
		case <-ctx.Done():
			return
		case frame := <-responses:
			if _, err := conn.Write(frame); err != nil {
				logs.Warnf("response write failed, detaching. strategy: %s, err: %v",
					strategyID, err)
				return
			}
		}
	}
}
