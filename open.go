package sn

import (
	"context"

	"github.com/gogpu/sn/internal/xproto"
)

// Open dials the X server named by $DISPLAY and wraps it in a fresh
// Display/Runtime pair — the common case for a single-display process.
// Callers that need multiple displays sharing one Runtime should call
// xproto.Connect and NewDisplay directly.
func Open(ctx context.Context, trapPush TrapPush, trapPop TrapPop) (*Display, error) {
	conn, err := xproto.Connect()
	if err != nil {
		return nil, err
	}
	return NewDisplay(ctx, conn, NewRuntime(), trapPush, trapPop)
}
