// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package mongorpc

import (
	"context"
)

// CallFunctionCallback receives the outcome of one remote function
// invocation. On success result holds the raw reply document; an empty
// result with a nil error means the function returned no value. On failure
// err is set and result is empty.
type CallFunctionCallback func(result string, err error)

// FunctionService is the RPC channel the collection facade dispatches
// through: invoke a named function with a JSON argument document, receive a
// JSON reply or an error.
//
// Implementations must invoke complete exactly once per call, on a goroutine
// they control, and must not retain the arguments after completion.
// Cancellation and timeouts are transport concerns; implementations should
// honor ctx, the marshalling layer never consults it.
type FunctionService interface {
	CallFunction(ctx context.Context, name string, argumentsJSON string, complete CallFunctionCallback)
}
