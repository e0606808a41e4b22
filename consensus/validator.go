package consensus

import (
	"context"
	"runtime"
)

// checkResult is what a handler sends back for one item.
type checkResult struct {
	index     int
	violation *Violation
}

// batchValidator runs one check function over many independent items
// (proofs or signatures) using multiple goroutines.  Items are handed out
// by index and handlers only read the window, so nothing is shared but the
// channels.
type batchValidator struct {
	validateChan chan int
	quitChan     chan struct{}
	resultChan   chan checkResult
	check        func(int) *Violation
}

// newBatchValidator returns a new instance of batchValidator to be used
// for checking items asynchronously.
func newBatchValidator(check func(int) *Violation) *batchValidator {
	return &batchValidator{
		validateChan: make(chan int),
		quitChan:     make(chan struct{}),
		resultChan:   make(chan checkResult),
		check:        check,
	}
}

// sendResult sends the result of a check on the internal result channel
// while respecting the quit channel.  This allows orderly shutdown when the
// caller gives up early.
func (v *batchValidator) sendResult(result checkResult) {
	select {
	case v.resultChan <- result:
	case <-v.quitChan:
	}
}

// validateHandler consumes item indexes from the internal validate channel
// and returns the result of the check on the internal result channel. It
// must be run as a goroutine.
func (v *batchValidator) validateHandler() {
out:
	for {
		select {
		case i := <-v.validateChan:
			v.sendResult(checkResult{index: i, violation: v.check(i)})

		case <-v.quitChan:
			break out
		}
	}
}

// defaultWorkers limits the number of goroutines based on the number of
// processor cores.  This helps ensure the system stays reasonably
// responsive under heavy load.
func defaultWorkers() int {
	n := runtime.NumCPU() * 3
	if n <= 0 {
		n = 1
	}
	return n
}

// Validate checks numItems items with up to maxWorkers goroutines and
// returns the violation of the lowest failing index, so the answer does
// not depend on scheduling.  Once some item fails no item with a higher
// index is handed out, but everything already in flight is waited for
// since a lower index may still fail.  A cancelled context stops the
// batch and its error is returned instead.
func (v *batchValidator) Validate(ctx context.Context, numItems,
	maxWorkers int) (*Violation, error) {

	if numItems == 0 {
		return nil, nil
	}
	defer close(v.quitChan)

	if maxWorkers <= 0 {
		maxWorkers = defaultWorkers()
	}
	if maxWorkers > numItems {
		maxWorkers = numItems
	}

	// Start up validation handlers that are used to asynchronously
	// check each item.
	for i := 0; i < maxWorkers; i++ {
		go v.validateHandler()
	}

	var first *Violation
	firstIndex := numItems
	currentItem := 0
	processedItems := 0
	for processedItems < currentItem || (currentItem < numItems && first == nil) {
		// Only send items while there are still items that need to
		// be processed and nothing has failed yet.  The select statement
		// will never select a nil channel.
		var validateChan chan int
		if currentItem < numItems && first == nil {
			validateChan = v.validateChan
		}

		select {
		case validateChan <- currentItem:
			currentItem++

		case res := <-v.resultChan:
			processedItems++
			if res.violation != nil && res.index < firstIndex {
				first, firstIndex = res.violation, res.index
			}

		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	return first, nil
}

// runBatch is a convenience wrapper around a one shot batchValidator.
func runBatch(ctx context.Context, numItems, maxWorkers int,
	check func(int) *Violation) (*Violation, error) {

	return newBatchValidator(check).Validate(ctx, numItems, maxWorkers)
}
