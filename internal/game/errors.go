package game

import (
	"errors"
	"fmt"
)

var (
	ErrQueryFailed    = errors.New("query failed")
	ErrTimeout        = errors.New("request timeout")
	ErrNotConnected   = errors.New("not connected to server")
	ErrShortChallenge = errors.New("challenge response too short")
)

// QueryError reports the handshake step that failed.
type QueryError struct {
	Err    error
	Stage  string
	GameID uint64
}

func (e *QueryError) Error() string {
	return fmt.Sprintf("query game %d failed at %s: %v", e.GameID, e.Stage, e.Err)
}

func (e *QueryError) Unwrap() error {
	return e.Err
}

// Is makes errors.Is(err, ErrQueryFailed) match any *QueryError.
func (e *QueryError) Is(target error) bool {
	return target == ErrQueryFailed
}
