// services/diag/diag.go
//
// diag mirrors supervisor bus traffic to a console line writer so a
// bench engineer can watch the decision loop. On RP2 builds the writer
// is UART0 (USB CDC is unusable once the supervisor owns the clock
// tree); hosted builds write to stdout.
package diag

import (
	"context"
	"io"

	"powerboot-go/bus"
	"powerboot-go/drivers/ltc4015"
	"powerboot-go/x/conv"
)

type Service struct {
	w io.Writer
}

// New creates the service; a nil writer falls back to the platform
// default (UART0 on RP2, stdout elsewhere).
func New(w io.Writer) *Service {
	if w == nil {
		w = defaultWriter()
	}
	return &Service{w: w}
}

// Start mirrors supervisor/# until ctx is cancelled.
func (s *Service) Start(ctx context.Context, conn *bus.Connection) {
	go s.loop(ctx, conn)
}

func (s *Service) loop(ctx context.Context, conn *bus.Connection) {
	sub := conn.Subscribe(bus.T("supervisor", bus.WildRest))
	defer conn.Unsubscribe(sub)

	for {
		select {
		case <-ctx.Done():
			return
		case m := <-sub.Channel():
			s.line(m)
		}
	}
}

// line renders one message without fmt; buffers are stack-local.
func (s *Service) line(m *bus.Message) {
	var buf [96]byte
	var num [20]byte
	out := append(buf[:0], "[diag] "...)
	out = append(out, m.Topic.String()...)
	out = append(out, ' ')

	switch p := m.Payload.(type) {
	case string:
		out = append(out, p...)
	case uint32:
		out = append(out, conv.Utoa(num[:], uint64(p))...)
		out = append(out, " mV"...)
	case ltc4015.Snapshot:
		out = append(out, "vin="...)
		out = append(out, conv.Itoa(num[:], int64(p.VinMV))...)
		out = append(out, " vsys="...)
		out = append(out, conv.Itoa(num[:], int64(p.VsysMV))...)
		out = append(out, " state="...)
		out = append(out, conv.Utoa(num[:], uint64(p.State))...)
		out = append(out, " status="...)
		out = append(out, conv.Utoa(num[:], uint64(p.Status))...)
	default:
		out = append(out, '?')
	}
	out = append(out, '\n')
	_, _ = s.w.Write(out)
}
