// Package tcprpc implements transport.Transport over a length-prefixed
// framed TCP protocol, adapted from the teacher's infra/network/rpc.go.
// The original frames a method name plus a protobuf payload and pools
// dialed connections per target address via Consul discovery; this version
// keeps the framing and the dial-pool, but frames a single gob-encoded
// transport.Envelope per message instead of a method-name/protobuf pair,
// since remote actor delivery has exactly one "method" (deliver this
// envelope) and no generated protobuf types are available in this module.
package tcprpc

import (
	"bytes"
	"context"
	"encoding/binary"
	"encoding/gob"
	"fmt"
	"io"
	"log"
	"net"
	"sync"
	"time"

	"github.com/phuhao00/actormesh/transport"
)

const defaultDialTimeout = 5 * time.Second

// Transport is a tcprpc.Transport: a listener accepting inbound Envelopes
// and a pool of dialed connections for outbound ones.
type Transport struct {
	listener net.Listener

	mu          sync.Mutex
	pools       map[string]chan net.Conn
	poolSize    int
	dialTimeout time.Duration
}

// New creates a Transport. poolSize bounds the number of idle connections
// kept per remote address, mirroring the teacher's RPCClient pooling.
func New(poolSize int) *Transport {
	if poolSize <= 0 {
		poolSize = 10
	}
	return &Transport{
		pools:       make(map[string]chan net.Conn),
		poolSize:    poolSize,
		dialTimeout: defaultDialTimeout,
	}
}

// Listen binds the Transport's inbound listener to addr. Call before
// Serve.
func (t *Transport) Listen(addr string) error {
	l, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("tcprpc: listen %s: %w", addr, err)
	}
	t.listener = l
	log.Printf("tcprpc: listening on %s", addr)
	return nil
}

// Serve implements transport.Transport.
func (t *Transport) Serve(ctx context.Context, handle func(transport.Envelope)) error {
	if t.listener == nil {
		return fmt.Errorf("tcprpc: Serve called before Listen")
	}
	go func() {
		<-ctx.Done()
		t.listener.Close()
	}()
	for {
		conn, err := t.listener.Accept()
		if err != nil {
			select {
			case <-ctx.Done():
				return nil
			default:
			}
			log.Printf("tcprpc: accept: %v", err)
			return err
		}
		go t.handleConn(conn, handle)
	}
}

func (t *Transport) handleConn(conn net.Conn, handle func(transport.Envelope)) {
	defer conn.Close()
	for {
		env, err := readFrame(conn)
		if err != nil {
			if err != io.EOF {
				log.Printf("tcprpc: read from %s: %v", conn.RemoteAddr(), err)
			}
			return
		}
		handle(env)
	}
}

// Send implements transport.Transport, using a pooled connection to addr.
func (t *Transport) Send(ctx context.Context, addr string, env transport.Envelope) error {
	conn, err := t.getConn(addr)
	if err != nil {
		return err
	}
	if err := writeFrame(conn, env); err != nil {
		conn.Close()
		return fmt.Errorf("tcprpc: send to %s: %w", addr, err)
	}
	t.returnConn(addr, conn)
	return nil
}

func (t *Transport) getConn(addr string) (net.Conn, error) {
	t.mu.Lock()
	pool, ok := t.pools[addr]
	if !ok {
		pool = make(chan net.Conn, t.poolSize)
		t.pools[addr] = pool
	}
	t.mu.Unlock()

	select {
	case conn := <-pool:
		return conn, nil
	default:
		return net.DialTimeout("tcp", addr, t.dialTimeout)
	}
}

func (t *Transport) returnConn(addr string, conn net.Conn) {
	t.mu.Lock()
	pool := t.pools[addr]
	t.mu.Unlock()
	select {
	case pool <- conn:
	default:
		conn.Close()
	}
}

// Close implements transport.Transport.
func (t *Transport) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	for addr, pool := range t.pools {
		close(pool)
		for conn := range pool {
			conn.Close()
		}
		delete(t.pools, addr)
	}
	if t.listener != nil {
		return t.listener.Close()
	}
	return nil
}

// Frame format: TotalLength (int32) | gob-encoded transport.Envelope.
func writeFrame(w io.Writer, env transport.Envelope) error {
	var body bytes.Buffer
	if err := gob.NewEncoder(&body).Encode(&env); err != nil {
		return fmt.Errorf("encode envelope: %w", err)
	}
	if err := binary.Write(w, binary.BigEndian, int32(body.Len())); err != nil {
		return fmt.Errorf("write frame length: %w", err)
	}
	_, err := w.Write(body.Bytes())
	return err
}

func readFrame(r io.Reader) (transport.Envelope, error) {
	var frameLen int32
	if err := binary.Read(r, binary.BigEndian, &frameLen); err != nil {
		return transport.Envelope{}, err
	}
	if frameLen <= 0 {
		return transport.Envelope{}, fmt.Errorf("tcprpc: invalid frame length %d", frameLen)
	}
	data := make([]byte, frameLen)
	if _, err := io.ReadFull(r, data); err != nil {
		return transport.Envelope{}, fmt.Errorf("read frame body: %w", err)
	}
	var env transport.Envelope
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&env); err != nil {
		return transport.Envelope{}, fmt.Errorf("decode envelope: %w", err)
	}
	return env, nil
}
