package expreplay

import "errors"

// ExpReplayError implements errors unique to an experience replay
// buffer.
type ExpReplayError struct {
	Op  string
	Err error
}

// Error satisifes the error interface
func (e *ExpReplayError) Error() string {
	return e.Op + ": " + e.Err.Error()
}

// Unwrap returns the underlying error so that errors.Is can see through
// an ExpReplayError
func (e *ExpReplayError) Unwrap() error {
	return e.Err
}

var errEmptyCache = errors.New("cache empty")

var errBatchTooLarge = errors.New("batch size larger than buffer capacity")

var errInvalidIndex = errors.New("index does not hold a transition")

var errInvalidPriority = errors.New("priorities must be non-negative")

// IsEmptyBuffer returns whether or not an error reports that a
// replay buffer is empty.
func IsEmptyBuffer(err error) bool {
	return errors.Is(err, errEmptyCache)
}

// IsBatchTooLarge returns whether or not an error reports that a batch
// was requested which is larger than the buffer could ever hold.
func IsBatchTooLarge(err error) bool {
	return errors.Is(err, errBatchTooLarge)
}

// IsInvalidIndex returns whether or not an error reports a priority
// update for a slot that does not hold a transition.
func IsInvalidIndex(err error) bool {
	return errors.Is(err, errInvalidIndex)
}

// IsInvalidPriority returns whether or not an error reports a negative
// or NaN priority.
func IsInvalidPriority(err error) bool {
	return errors.Is(err, errInvalidPriority)
}
