// Copyright (c) 2025 Sonic Operations Ltd
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at soniclabs.com/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

// Package future provides a minimal Future/Promise abstraction on top of Go
// channels. A Future is a placeholder for a value produced by some background
// computation; a Promise is the handle used to provide that value.
//
// The producer side of a Future typically looks as follows:
//
//	promise, future := future.Create[T]()
//	go func() {
//	   promise.Fulfill(someOperation())
//	}()
//	return future
//
// For the common case of running a function in its own goroutine, Spawn
// combines those steps.
package future

// Promise represents the handle used to fulfill a Future.
type Promise[T any] struct {
	C chan<- T
}

// Future represents a placeholder for a value that will be available in the
// future. It can be awaited to retrieve the result once it is fulfilled.
type Future[T any] struct {
	C <-chan T
}

// Create initializes a new Promise and Future pair. The Promise can be used to
// fulfill the Future, while the Future can be awaited to retrieve the result
// once it is available.
func Create[T any]() (Promise[T], Future[T]) {
	ch := make(chan T, 1)
	return Promise[T]{C: ch}, Future[T]{C: ch}
}

// Spawn runs the given function in a new goroutine and returns a Future
// fulfilled with its result.
func Spawn[T any](run func() T) Future[T] {
	promise, future := Create[T]()
	go func() {
		promise.Fulfill(run())
	}()
	return future
}

// Fulfill fulfills the Promise with the given value, making it available to
// any awaiting Future. A Promise must be fulfilled at most once.
func (p Promise[T]) Fulfill(value T) {
	p.C <- value
	close(p.C)
}

// Await blocks until the Future is fulfilled and returns the contained value.
// Futures can only be consumed once.
func (f Future[T]) Await() T {
	return <-f.C
}

// AwaitAll waits for all given futures and returns their values in the order
// of the futures.
func AwaitAll[T any](futures []Future[T]) []T {
	res := make([]T, 0, len(futures))
	for _, f := range futures {
		res = append(res, f.Await())
	}
	return res
}
