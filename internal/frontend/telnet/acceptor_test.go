package telnet

import (
	"bufio"
	"context"
	"net"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/cory-johannsen/wheels/internal/config"
)

// echoHandler echoes lines back until "quit" or the context is cancelled.
type echoHandler struct {
	sessions atomic.Int32
}

func (h *echoHandler) HandleSession(ctx context.Context, conn *Conn) error {
	h.sessions.Add(1)
	for {
		line, err := conn.ReadLine()
		if err != nil {
			return err
		}
		if line == "quit" {
			return conn.WriteLine("bye")
		}
		_ = conn.WriteLine("echo: " + line)
	}
}

func startAcceptor(t *testing.T, maxSessions int) (*Acceptor, *echoHandler, chan error) {
	t.Helper()
	handler := &echoHandler{}
	acc := NewAcceptor(config.TelnetConfig{
		Host:         "127.0.0.1",
		Port:         0,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 5 * time.Second,
		MaxSessions:  maxSessions,
	}, handler, zaptest.NewLogger(t))

	errCh := make(chan error, 1)
	go func() { errCh <- acc.ListenAndServe() }()
	require.Eventually(t, func() bool {
		return acc.IsRunning() && acc.Addr() != ""
	}, 2*time.Second, 10*time.Millisecond)
	t.Cleanup(acc.Stop)
	return acc, handler, errCh
}

func dial(t *testing.T, addr string) (net.Conn, *bufio.Reader) {
	t.Helper()
	conn, err := net.DialTimeout("tcp", addr, 2*time.Second)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	return conn, bufio.NewReader(conn)
}

func readLine(t *testing.T, r *bufio.Reader) string {
	t.Helper()
	line, err := r.ReadString('\n')
	require.NoError(t, err)
	return string(FilterIAC([]byte(strings.TrimRight(line, "\r\n"))))
}

func TestAcceptorStartAndStop(t *testing.T) {
	acc, handler, errCh := startAcceptor(t, 0)
	conn, r := dial(t, acc.Addr())

	_, err := conn.Write([]byte("hello\r\n"))
	require.NoError(t, err)
	assert.Equal(t, "echo: hello", readLine(t, r))

	_, _ = conn.Write([]byte("quit\r\n"))
	assert.Equal(t, "bye", readLine(t, r))
	require.Eventually(t, func() bool { return acc.Active() == 0 }, 2*time.Second, 10*time.Millisecond)

	acc.Stop()
	select {
	case err := <-errCh:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("acceptor did not stop in time")
	}
	assert.False(t, acc.IsRunning())
	assert.Equal(t, int32(1), handler.sessions.Load())
}

func TestAcceptorMultipleClients(t *testing.T) {
	acc, handler, _ := startAcceptor(t, 0)

	const numClients = 3
	readers := make([]*bufio.Reader, numClients)
	conns := make([]net.Conn, numClients)
	for i := range numClients {
		conns[i], readers[i] = dial(t, acc.Addr())
		_, _ = conns[i].Write([]byte("ping\r\n"))
		assert.Equal(t, "echo: ping", readLine(t, readers[i]))
	}
	assert.Equal(t, numClients, acc.Active())

	for i := range numClients {
		_, _ = conns[i].Write([]byte("quit\r\n"))
		assert.Equal(t, "bye", readLine(t, readers[i]))
	}
	require.Eventually(t, func() bool { return acc.Active() == 0 }, 2*time.Second, 10*time.Millisecond)
	assert.Equal(t, int32(numClients), handler.sessions.Load())
}

func TestAcceptorRefusesWhenFull(t *testing.T) {
	acc, _, _ := startAcceptor(t, 1)

	first, r1 := dial(t, acc.Addr())
	_, _ = first.Write([]byte("seat\r\n"))
	assert.Equal(t, "echo: seat", readLine(t, r1))

	_, r2 := dial(t, acc.Addr())
	assert.Equal(t, FullMessage, readLine(t, r2))

	assert.Equal(t, 1, acc.Active())
}

func TestAcceptorStopClosesOpenSessions(t *testing.T) {
	acc, _, errCh := startAcceptor(t, 0)
	conn, r := dial(t, acc.Addr())
	_, _ = conn.Write([]byte("stay\r\n"))
	assert.Equal(t, "echo: stay", readLine(t, r))

	stopped := make(chan struct{})
	go func() {
		acc.Stop()
		close(stopped)
	}()
	select {
	case <-stopped:
	case <-time.After(5 * time.Second):
		t.Fatal("Stop blocked on an idle session")
	}
	assert.NoError(t, <-errCh)
	assert.Equal(t, 0, acc.Active())
}
