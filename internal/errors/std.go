package errors

import stderrors "errors"

// Is, As, New and Join re-export the standard library helpers so callers
// importing this package under its own name keep a single errors import.
var (
	Is   = stderrors.Is
	As   = stderrors.As
	New  = stderrors.New
	Join = stderrors.Join
)
