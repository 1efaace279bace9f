package service

import "errors"

// Sentinel errors for the settlement workflow. Callers match with
// errors.Is; repositories and services wrap these with context.
var (
	// ErrDuplicateOrder means a revenue record already exists for the
	// order. The unique constraint on order_id is the idempotency
	// boundary; callers must not blindly retry.
	ErrDuplicateOrder = errors.New("revenue record already exists for order")

	// ErrNoEligibleRecords means aggregation found no unpaid records in
	// the window. Non-fatal; callers skip the run.
	ErrNoEligibleRecords = errors.New("no eligible revenue records in window")

	// ErrBatchNotFound means the referenced payment batch does not exist.
	ErrBatchNotFound = errors.New("payment batch not found")

	// ErrInvalidBatchState means the batch is not in a state that allows
	// the requested transition. Processing an already-processed batch
	// lands here, never in double payment.
	ErrInvalidBatchState = errors.New("payment batch is not in a processable state")

	// ErrShopNotFound means the shop does not exist or is inactive.
	ErrShopNotFound = errors.New("shop not found")
)
