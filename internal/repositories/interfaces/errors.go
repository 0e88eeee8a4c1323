package interfaces

import "fooddash/internal/utils"

// ErrConcurrentWrite is returned by guarded writes whose precondition no longer holds.
var ErrConcurrentWrite = utils.ErrConcurrentWrite
