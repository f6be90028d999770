package server

import (
	"context"
	"io"
	"path/filepath"
	"testing"
	"time"

	"main/internal/bus"
	"main/internal/codec"
	"main/internal/obs"
	"main/internal/schema"
	"main/pkg/uds"
)

func TestServerCommandAndResponseFlow(t *testing.T) {
	socket := filepath.Join(t.TempDir(), "trader.sock")
	queue := bus.NewQueue(16)
	fanout := bus.NewFanout(16)

	srv, err := New(socket, queue, fanout, obs.NewMetrics())
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan struct{})
	go func() {
		_ = srv.Run(ctx)
		close(done)
	}()

	// The listener binds asynchronously; retry the dial briefly.
	client, err := uds.NewClient(socket)
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	conn, err := dialRetry(client)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	cmd := schema.TraderCommand{
		Magic:      schema.TradingCmdMagic,
		Type:       schema.CmdNewOrder,
		StrategyID: "alpha",
		OrderReq:   schema.OrderReq{ClientOrderID: 1, TickerID: 1, Volume: 10, Price: 5},
	}
	if _, err := conn.Write(codec.EncodeCommand(nil, cmd)); err != nil {
		t.Fatalf("write command: %v", err)
	}

	// The frame must surface on the command queue.
	frames := make(chan bus.Frame, 1)
	go queue.Run(ctx, func(f bus.Frame) { frames <- f })

	select {
	case f := <-frames:
		decoded, ok := codec.DecodeCommand(f.Data)
		if !ok || decoded.StrategyID != "alpha" {
			t.Fatalf("unexpected frame: %+v", decoded)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("command never reached the queue")
	}

	// Publishing a response for the strategy reaches the connection.
	rsp := schema.OrderResponse{ClientOrderID: 1, OrderID: 99, Completed: true}
	deadline := time.Now().Add(2 * time.Second)
	go func() {
		// The response writer attaches after the first frame; keep
		// publishing until the client reads one or the test times out.
		for time.Now().Before(deadline) {
			fanout.Publish("alpha", codec.EncodeResponse(nil, rsp))
			time.Sleep(10 * time.Millisecond)
		}
	}()

	_ = conn.SetReadDeadline(deadline)
	buf := make([]byte, codec.ResponseFrameSize)
	if _, err := io.ReadFull(conn, buf); err != nil {
		t.Fatalf("read response: %v", err)
	}
	decoded, ok := codec.DecodeResponse(buf)
	if !ok || decoded.OrderID != 99 || !decoded.Completed {
		t.Fatalf("unexpected response: %+v", decoded)
	}

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("server did not stop on context cancellation")
	}
}

func TestServerCountsClosedQueueSeparately(t *testing.T) {
	socket := filepath.Join(t.TempDir(), "trader.sock")
	queue := bus.NewQueue(16)
	fanout := bus.NewFanout(16)
	metrics := obs.NewMetrics()

	srv, err := New(socket, queue, fanout, metrics)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = srv.Run(ctx) }()

	client, err := uds.NewClient(socket)
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	conn, err := dialRetry(client)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	queue.Close()

	cmd := schema.TraderCommand{
		Magic:      schema.TradingCmdMagic,
		Type:       schema.CmdNewOrder,
		StrategyID: "alpha",
		OrderReq:   schema.OrderReq{ClientOrderID: 1, TickerID: 1, Volume: 10, Price: 5},
	}
	if _, err := conn.Write(codec.EncodeCommand(nil, cmd)); err != nil {
		t.Fatalf("write command: %v", err)
	}

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		snap := metrics.Snapshot()
		if snap.QueueClosed > 0 {
			if snap.QueueDrops != 0 {
				t.Fatalf("closed queue miscounted as a drop: %+v", snap)
			}
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("queue-closed counter never incremented")
}

func dialRetry(client *uds.Client) (conn interface {
	io.ReadWriteCloser
	SetReadDeadline(time.Time) error
}, err error) {
	for i := 0; i < 50; i++ {
		c, dialErr := client.Dial()
		if dialErr == nil {
			return c, nil
		}
		err = dialErr
		time.Sleep(20 * time.Millisecond)
	}
	return nil, err
}
