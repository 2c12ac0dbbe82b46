package serverinfo

import (
	"errors"
	"fmt"
)

var (
	ErrMalformed       = errors.New("malformed server info")
	ErrDuplicatePlayer = errors.New("duplicate player")
)

// DecodeError wraps any failure of Decode with the field being read and the
// absolute offset it started at.
type DecodeError struct {
	Err    error
	Field  string
	Offset int
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("malformed server info at offset 0x%X (%s): %v", e.Offset, e.Field, e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

// Is makes errors.Is(err, ErrMalformed) match any *DecodeError.
func (e *DecodeError) Is(target error) bool {
	return target == ErrMalformed
}

// DuplicatePlayerError reports a persona id seen twice in one team.
type DuplicatePlayerError struct {
	PersonaID uint64
	Team      uint8
}

func (e *DuplicatePlayerError) Error() string {
	return fmt.Sprintf("duplicate player %d in team %d", e.PersonaID, e.Team)
}

func (e *DuplicatePlayerError) Is(target error) bool {
	return target == ErrDuplicatePlayer
}
