package wire

import (
	"errors"
	"fmt"
)

var (
	ErrTruncated    = errors.New("truncated data")
	ErrBackwardSeek = errors.New("cannot advance backwards")
	ErrOutOfRange   = errors.New("offset before start of buffer")
)

// TruncatedError reports a read that needed more bytes than the buffer had left.
type TruncatedError struct {
	Offset int
	Need   int
	Have   int
}

func (e *TruncatedError) Error() string {
	return fmt.Sprintf("truncated data at offset 0x%X: need %d bytes, have %d", e.Offset, e.Need, e.Have)
}

// Is makes errors.Is(err, ErrTruncated) match any *TruncatedError.
func (e *TruncatedError) Is(target error) bool {
	return target == ErrTruncated
}
