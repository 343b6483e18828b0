package loop

import "github.com/mokiat/lacking/util/async"

// Bind forwards the outcome of promise to onSuccess or onError, executed on
// worker rather than on the goroutine that settled the promise.
func Bind[T any](worker Worker, promise async.Promise[T], onSuccess func(T), onError func(error)) {
	promise.OnSuccess(func(value T) {
		worker.Schedule(func() {
			onSuccess(value)
		})
	})
	promise.OnError(func(err error) {
		worker.Schedule(func() {
			onError(err)
		})
	})
}
