package concurrency

import (
	"sync"
	"time"
)

// Each runs job for every item concurrently and waits for all of them. The
// returned slice holds each job's error at the item's index.
func Each[T any](items []T, job func(item T) error) []error {
	errs := make([]error, len(items))

	var wg sync.WaitGroup
	wg.Add(len(items))
	for i, item := range items {
		go func(i int, item T) {
			defer wg.Done()
			errs[i] = job(item)
		}(i, item)
	}
	wg.Wait()

	return errs
}

// Throttled runs job for every item one at a time, waiting interval between
// starts. It stops at the first error.
func Throttled[T any](items []T, interval time.Duration, job func(item T) error) error {
	limiter := time.NewTicker(interval)
	defer limiter.Stop()

	for i, item := range items {
		if i > 0 {
			<-limiter.C
		}
		if err := job(item); err != nil {
			return err
		}
	}
	return nil
}
