package stream

import (
	"io"
	"strings"
	"sync"
	"sync/atomic"

	"audiosink-go/x/shmring"
)

// Pipe is one end of an in-process loopback channel. Each direction is an
// SPSC ring; rmu and wmu keep each ring to one reader and one writer at a
// time, so any number of goroutines may share an end. Writes are short when
// the ring is full.
type Pipe struct {
	name string
	tx   *shmring.Ring
	rx   *shmring.Ring
	peer *Pipe

	mu     sync.Mutex
	open   bool
	closed atomic.Bool // set once Close runs; seen by the peer as EOF

	rmu sync.Mutex
	wmu sync.Mutex
}

var _ Endpoint = (*Pipe)(nil)

// NewPipePair returns two connected ends named name. Each end must be opened
// with "pipe://"+name before use. size is the per-direction ring size and is
// rounded up to a power of two (minimum 64).
func NewPipePair(name string, size int) (*Pipe, *Pipe) {
	n := 64
	for n < size {
		n <<= 1
	}
	ab, ba := shmring.New(n), shmring.New(n)
	a := &Pipe{name: name, tx: ab, rx: ba}
	b := &Pipe{name: name, tx: ba, rx: ab}
	a.peer, b.peer = b, a
	return a, b
}

func (p *Pipe) Open(address string) error {
	name, ok := strings.CutPrefix(address, "pipe://")
	if !ok || name == "" || name != p.name {
		return connErr("stream.pipe.open", "no pipe at "+address, nil)
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed.Load() {
		return connErr("stream.pipe.open", "pipe closed", nil)
	}
	p.open = true
	return nil
}

func (p *Pipe) isOpen() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.open
}

func (p *Pipe) Write(b []byte) (int, error) {
	if !p.isOpen() {
		return 0, ErrClosed
	}
	if p.peer.closed.Load() {
		return 0, io.ErrClosedPipe
	}
	p.wmu.Lock()
	defer p.wmu.Unlock()
	return p.tx.TryWriteFrom(b), nil
}

// Read returns io.EOF once the peer has closed and the ring is drained.
func (p *Pipe) Read(b []byte) (int, error) {
	if !p.isOpen() {
		return 0, ErrClosed
	}
	p.rmu.Lock()
	n := p.rx.TryReadInto(b)
	p.rmu.Unlock()
	if n == 0 && p.peer.closed.Load() && p.rx.Available() == 0 {
		return 0, io.EOF
	}
	return n, nil
}

// Readable fires when data arrives on an empty pipe.
func (p *Pipe) Readable() <-chan struct{} { return p.rx.Readable() }

func (p *Pipe) Close() error {
	p.mu.Lock()
	p.open = false
	p.mu.Unlock()
	p.closed.Store(true)
	return nil
}
