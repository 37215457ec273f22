package faaskeeper

import "github.com/ls-2018/faaskeeper-go/types"

// SessionClosingError, TimeoutError, ProviderError, and OrderingFaultError
// are re-exported at the package root so callers never need to import
// faaskeeper-go/types directly to use errors.Is/errors.As against them.
var SessionClosingError = types.ErrSessionClosing

type (
	TimeoutError       = types.TimeoutError
	ProviderError      = types.ProviderError
	OrderingFaultError = types.OrderingFaultError
)

// IsSessionClosing reports whether err is, or wraps, SessionClosingError.
func IsSessionClosing(err error) bool { return types.IsSessionClosing(err) }
