package tcprpc

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/phuhao00/actormesh/transport"
)

// startTestTransport binds a Transport to a dynamic loopback port and starts
// Serve in the background, mirroring the teacher's startTestRPCServer
// helper (infra/network/rpc_test.go) but against the simpler
// single-envelope protocol this module frames instead of a
// method-name/protobuf pair.
func startTestTransport(t *testing.T, handle func(transport.Envelope)) (*Transport, string, context.CancelFunc) {
	t.Helper()
	tr := New(4)
	require.NoError(t, tr.Listen("localhost:0"))

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		_ = tr.Serve(ctx, handle)
	}()
	time.Sleep(50 * time.Millisecond)
	return tr, tr.listener.Addr().String(), cancel
}

func TestTransportSendDeliversEnvelope(t *testing.T) {
	received := make(chan transport.Envelope, 1)
	server, addr, cancel := startTestTransport(t, func(env transport.Envelope) {
		received <- env
	})
	defer cancel()
	defer server.Close()

	client := New(2)
	defer client.Close()

	env := transport.Envelope{To: "A1", From: "A2", Session: "S1", Body: []byte("hello")}
	require.NoError(t, client.Send(context.Background(), addr, env))

	select {
	case got := <-received:
		assert.Equal(t, env.To, got.To)
		assert.Equal(t, env.From, got.From)
		assert.Equal(t, env.Session, got.Session)
		assert.Equal(t, env.Body, got.Body)
	case <-time.After(time.Second):
		t.Fatal("envelope never arrived")
	}
}

func TestTransportSendReusesPooledConnection(t *testing.T) {
	var count int
	received := make(chan struct{}, 2)
	server, addr, cancel := startTestTransport(t, func(transport.Envelope) {
		count++
		received <- struct{}{}
	})
	defer cancel()
	defer server.Close()

	client := New(2)
	defer client.Close()

	for i := 0; i < 2; i++ {
		require.NoError(t, client.Send(context.Background(), addr, transport.Envelope{To: "A1", Body: []byte("x")}))
		select {
		case <-received:
		case <-time.After(time.Second):
			t.Fatal("envelope never arrived")
		}
	}
	assert.Equal(t, 2, count)
	// The second Send took the first Send's pooled connection instead of
	// dialing a new one, so exactly one idle connection is pooled.
	assert.Len(t, client.pools[addr], 1)
}

func TestTransportSendFailsToUnreachableAddr(t *testing.T) {
	client := New(1)
	client.dialTimeout = 100 * time.Millisecond
	defer client.Close()

	// Bind a free loopback port and close the listener again, so the
	// address has nothing listening on it.
	l, err := net.Listen("tcp", "localhost:0")
	require.NoError(t, err)
	addr := l.Addr().String()
	require.NoError(t, l.Close())

	err = client.Send(context.Background(), addr, transport.Envelope{To: "A1"})
	assert.Error(t, err)
}
