/*
Copyright © 2025 Acronis International GmbH.

Released under MIT license.
*/

package kvcache

import (
	"bytes"
	"errors"
	"fmt"
	"runtime/debug"
)

// ErrCapacityExceeded is returned by Put (and by GetOrLoad after a successful load)
// when the cache is full and the configured eviction policy cannot free a slot.
var ErrCapacityExceeded = errors.New("cache capacity exceeded")

// LoaderError wraps a failure of a value loader invoked by GetOrLoad.
// Every caller waiting on the same population round receives the same LoaderError.
type LoaderError struct {
	Err error
}

func (e *LoaderError) Error() string {
	return fmt.Sprintf("load cache value: %v", e.Err)
}

func (e *LoaderError) Unwrap() error {
	return e.Err
}

// ErrGoexit is returned to the waiters when the goroutine executing a loader calls runtime.Goexit.
var ErrGoexit = errors.New("runtime.Goexit was called")

// PanicError is an error that represents a panic value and stack trace
// captured from a loader invocation.
type PanicError struct {
	Value interface{}
	Stack []byte
}

func (p *PanicError) Error() string {
	return fmt.Sprintf("%v\n\n%s", p.Value, p.Stack)
}

func (p *PanicError) Unwrap() error {
	err, ok := p.Value.(error)
	if !ok {
		return nil
	}
	return err
}

func newPanicError(v interface{}) error {
	stack := debug.Stack()

	// The first line of the stack trace is of the form "goroutine N [status]:"
	// but by the time the panic reaches the waiters the goroutine may no longer
	// exist and its status will have changed. Trim out the misleading line.
	if line := bytes.IndexByte(stack, '\n'); line >= 0 {
		stack = stack[line+1:]
	}
	return &PanicError{Value: v, Stack: stack}
}
