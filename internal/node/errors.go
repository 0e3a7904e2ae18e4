package node

import (
	"fmt"

	"github.com/mrz1836/kaswallet/internal/kaspa"
	walleterr "github.com/mrz1836/kaswallet/pkg/errors"
)

// SubmissionError is a rejected or empty transaction submission. It is
// never retried and unwraps to walleterr.ErrInternal.
type SubmissionError struct {
	Reason      string
	Transaction *kaspa.RPCTransaction
}

func (e *SubmissionError) Error() string {
	return fmt.Sprintf("transaction submission failed: %s", e.Reason)
}

// Unwrap returns walleterr.ErrInternal.
func (e *SubmissionError) Unwrap() error {
	return walleterr.ErrInternal
}
