package axidma

import (
	"errors"
	"fmt"
	"time"
)

var (
	ErrTransfer      = errors.New("DMA error")
	ErrTimeout       = errors.New("timeout waiting for DMA idle")
	ErrInvalidLength = errors.New("invalid transfer length")
)

// StatusError reports a channel that signaled an error or did not become idle
// in time. Err is either ErrTransfer or ErrTimeout.
type StatusError struct {
	Channel Channel
	Reg     uint32 // status register offset
	Status  Status
	Elapsed time.Duration
	Err     error
}

func (e *StatusError) Error() string {
	msg := e.Err.Error()
	if errors.Is(e.Err, ErrTimeout) {
		msg += " after " + e.Elapsed.String()
	}
	return fmt.Sprintf("%s channel: %s: status @ 0x%08x = 0x%08x %s", e.Channel, msg, e.Reg, uint32(e.Status), e.Status)
}

func (e *StatusError) Unwrap() error { return e.Err }
