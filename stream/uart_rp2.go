//go:build rp2040

package stream

import (
	"context"
	"machine"
	"sync"
	"time"

	uartx "github.com/jangala-dev/tinygo-uartx/uartx"
)

// UART is an Endpoint over an RP2040 hardware UART. Address is "uart0" or
// "uart1"; pins and baud come from the struct fields.
type UART struct {
	TX, RX      machine.Pin
	Baud        uint32        // 0 => uartx default
	ReadTimeout time.Duration // default 5 ms

	mu sync.Mutex
	hw *uartx.UART
}

var _ Endpoint = (*UART)(nil)

func (u *UART) Open(address string) error {
	var hw *uartx.UART
	switch address {
	case "uart0":
		hw = uartx.UART0
	case "uart1":
		hw = uartx.UART1
	default:
		return connErr("stream.uart.open", "unknown uart "+address, nil)
	}
	if err := hw.Configure(uartx.UARTConfig{BaudRate: u.Baud, TX: u.TX, RX: u.RX}); err != nil {
		return connErr("stream.uart.open", "configure "+address, err)
	}
	u.mu.Lock()
	u.hw = hw
	u.mu.Unlock()
	return nil
}

func (u *UART) port() *uartx.UART {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.hw
}

func (u *UART) Write(p []byte) (int, error) {
	hw := u.port()
	if hw == nil {
		return 0, ErrClosed
	}
	return hw.Write(p)
}

func (u *UART) Read(p []byte) (int, error) {
	hw := u.port()
	if hw == nil {
		return 0, ErrClosed
	}
	rt := u.ReadTimeout
	if rt <= 0 {
		rt = 5 * time.Millisecond
	}
	ctx, cancel := context.WithTimeout(context.Background(), rt)
	defer cancel()
	n, err := hw.RecvSomeContext(ctx, p)
	if err == context.DeadlineExceeded {
		return n, nil
	}
	return n, err
}

// Close detaches from the port; the UART peripheral itself stays configured.
func (u *UART) Close() error {
	u.mu.Lock()
	u.hw = nil
	u.mu.Unlock()
	return nil
}
