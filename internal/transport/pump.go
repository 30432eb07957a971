package transport

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/go-ctap/ctapd/internal/ctaphid"
)

// Pump owns the frame I/O loop: it reads one frame from a FrameTransport,
// hands it to an Engine, and if the Engine returns a FrameIterator,
// drains and writes every fragment back out. This is the only place
// frame I/O and engine dispatch meet; the engine itself never touches
// a transport.
type Pump struct {
	transport FrameTransport
	engine    *ctaphid.Engine
	logger    *slog.Logger
}

// NewPump builds a Pump over transport and engine. frameSize must match
// between transport and the engine the caller constructed it with.
func NewPump(transport FrameTransport, engine *ctaphid.Engine, logger *slog.Logger) *Pump {
	return &Pump{
		transport: transport,
		engine:    engine,
		logger:    logger.With(slog.String("component", "transport.pump")),
	}
}

// Run reads and dispatches frames until ctx is cancelled or a read
// fails. A write failure also ends the loop and is returned; a single
// malformed or rejected frame never does, since the engine itself
// already turns those into an error reply frame.
func (p *Pump) Run(ctx context.Context) error {
	for {
		if err := ctx.Err(); err != nil {
			return nil
		}

		if err := p.pumpOnce(ctx); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("pump: %w", err)
		}
	}
}

func (p *Pump) pumpOnce(ctx context.Context) error {
	frame, err := p.transport.ReadFrame(ctx)
	if err != nil {
		return fmt.Errorf("read frame: %w", err)
	}

	it := p.engine.Handle(frame)
	if it == nil {
		return nil
	}

	frameSize := p.transport.FrameSize()
	for {
		out, ok := it.Next()
		if !ok {
			return nil
		}

		if len(out) < frameSize {
			padded := make([]byte, frameSize)
			copy(padded, out)
			out = padded
		}

		if err := p.transport.WriteFrame(ctx, out); err != nil {
			return fmt.Errorf("write frame: %w", err)
		}
	}
}
