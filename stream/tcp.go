//go:build !tinygo

package stream

import (
	"errors"
	"net"
	"os"
	"strings"
	"sync"
	"time"
)

// TCP is an Endpoint over a TCP connection. Address is "host:port",
// "tcp://host:port" or, on hosts with multicast, "mdns://_service._tcp" to
// dial the first responder. Reads wait at most ReadTimeout before reporting
// no data.
type TCP struct {
	DialTimeout time.Duration // default 3 s
	ReadTimeout time.Duration // default 10 ms

	mu   sync.Mutex
	conn net.Conn

	rmu sync.Mutex
	wmu sync.Mutex
}

var _ Endpoint = (*TCP)(nil)

// LookupService resolves an mDNS service type to "host:port". Nil on builds
// without multicast support.
var LookupService func(service string, timeout time.Duration) (string, error)

func (t *TCP) Open(address string) error {
	dt := t.DialTimeout
	if dt <= 0 {
		dt = 3 * time.Second
	}
	addr := strings.TrimPrefix(address, "tcp://")
	if svc, ok := strings.CutPrefix(address, "mdns://"); ok {
		if LookupService == nil || svc == "" {
			return connErr("stream.tcp.open", "cannot resolve "+address, nil)
		}
		a, err := LookupService(svc, dt)
		if err != nil {
			return connErr("stream.tcp.open", "no responder for "+address, err)
		}
		addr = a
	}
	host, port, err := net.SplitHostPort(addr)
	if err != nil || port == "" {
		return connErr("stream.tcp.open", "malformed address "+address, err)
	}
	c, err := net.DialTimeout("tcp", net.JoinHostPort(host, port), dt)
	if err != nil {
		return connErr("stream.tcp.open", "unreachable "+address, err)
	}
	t.mu.Lock()
	t.conn = c
	t.mu.Unlock()
	return nil
}

func (t *TCP) current() net.Conn {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.conn
}

func (t *TCP) Write(p []byte) (int, error) {
	c := t.current()
	if c == nil {
		return 0, ErrClosed
	}
	t.wmu.Lock()
	defer t.wmu.Unlock()
	return c.Write(p)
}

func (t *TCP) Read(p []byte) (int, error) {
	c := t.current()
	if c == nil {
		return 0, ErrClosed
	}
	rt := t.ReadTimeout
	if rt <= 0 {
		rt = 10 * time.Millisecond
	}
	t.rmu.Lock()
	defer t.rmu.Unlock()
	_ = c.SetReadDeadline(time.Now().Add(rt))
	n, err := c.Read(p)
	if err != nil && errors.Is(err, os.ErrDeadlineExceeded) {
		return n, nil
	}
	return n, err
}

func (t *TCP) Close() error {
	t.mu.Lock()
	c := t.conn
	t.conn = nil
	t.mu.Unlock()
	if c == nil {
		return nil
	}
	return c.Close()
}
