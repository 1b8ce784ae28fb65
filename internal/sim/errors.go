package sim

import (
	"errors"
	"fmt"
)

var (
	// ErrNilStore indicates a simulator was created without points.
	ErrNilStore = errors.New("sim: nil point store")

	// ErrUnstable indicates a position became NaN or infinite.
	ErrUnstable = errors.New("sim: simulation unstable (non-finite position)")
)

// FrameError wraps an error with the frame it happened on.
type FrameError struct {
	Frame   uint64
	Time    float64
	Wrapped error
}

func (e *FrameError) Error() string {
	return fmt.Sprintf("frame %d (t=%.4g): %v", e.Frame, e.Time, e.Wrapped)
}

func (e *FrameError) Unwrap() error {
	return e.Wrapped
}
