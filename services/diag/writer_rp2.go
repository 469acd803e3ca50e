// services/diag/writer_rp2.go
//go:build rp2040

package diag

import (
	"io"
	"machine"

	"github.com/jangala-dev/tinygo-uartx/uartx"
)

// defaultWriter configures UART0 on the board-default pins.
func defaultWriter() io.Writer {
	u := uartx.UART0
	_ = u.Configure(uartx.UARTConfig{
		BaudRate: 115200,
		TX:       machine.UART0_TX_PIN,
		RX:       machine.UART0_RX_PIN,
	})
	return u
}
