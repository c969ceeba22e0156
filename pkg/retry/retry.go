// Package retry implements the retry envelope that wraps every filesystem
// and file-handle operation in exponential backoff with jitter, retriable-error
// classification, and delete-idempotence absorption.
package retry

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"github.com/vfsbridge/s3vfs/pkg/vfserrors"
)

// MaxRetries is the number of retry attempts CallWithRetries makes before
// giving up and returning Aborted.
const MaxRetries = 10

// MaxBackoff is the ceiling on the exponential component of the backoff
// delay, before jitter is added.
const MaxBackoff = 32 * time.Second

// DefaultRetryableKinds is the retriable set for the S3 adapter. Internal
// covers the directory-not-empty signal, which may clear as listings converge
// under eventual consistency. FailedPrecondition is also in the set; within
// this module it is returned only by Append on a closed writable file.
var DefaultRetryableKinds = []vfserrors.Kind{
	vfserrors.Unavailable,
	vfserrors.DeadlineExceeded,
	vfserrors.Unknown,
	vfserrors.FailedPrecondition,
	vfserrors.Internal,
}

// Config parameterizes a Retryer.
type Config struct {
	// InitialDelay is the base of the exponential backoff. Zero disables
	// sleeping between attempts entirely (still bounded by MaxRetries).
	InitialDelay time.Duration

	// RetryableKinds overrides DefaultRetryableKinds when non-nil.
	RetryableKinds []vfserrors.Kind
}

// Retryer wraps a boxed operation in CallWithRetries/DeleteWithRetries
// semantics. The zero value is not usable; construct with New.
type Retryer struct {
	initialDelay time.Duration
	retryable    map[vfserrors.Kind]bool
}

// New constructs a Retryer with the given initial delay and retriable set.
// A nil or empty retryableKinds falls back to DefaultRetryableKinds.
func New(initialDelay time.Duration, retryableKinds []vfserrors.Kind) *Retryer {
	if len(retryableKinds) == 0 {
		retryableKinds = DefaultRetryableKinds
	}
	set := make(map[vfserrors.Kind]bool, len(retryableKinds))
	for _, k := range retryableKinds {
		set[k] = true
	}
	return &Retryer{initialDelay: initialDelay, retryable: set}
}

func (r *Retryer) shouldRetry(err error) bool {
	return r.retryable[vfserrors.KindOf(err)]
}

// backoff computes the sleep duration for the given 0-indexed attempt:
// min(initial << attempt, MaxBackoff) + uniform(0, 1e6) microseconds of jitter.
// The jitter is always added, even once the exponential component has
// saturated at MaxBackoff. A non-positive initial delay yields no sleep.
func (r *Retryer) backoff(attempt int) time.Duration {
	if r.initialDelay <= 0 {
		return 0
	}
	shifted := r.initialDelay << uint(attempt)
	if shifted <= 0 || shifted > MaxBackoff { // overflow also saturates
		shifted = MaxBackoff
	}
	return shifted + jitter()
}

func jitter() time.Duration {
	return time.Duration(rand.Int63n(1_000_000)) * time.Microsecond
}

// CallWithRetries invokes f, retrying while its error classifies as
// retriable, until it succeeds, returns a non-retriable error, or exhausts
// MaxRetries attempts (in which case it returns Aborted wrapping the last
// error). ctx is checked before each attempt and during each backoff sleep;
// a canceled context short-circuits with a DeadlineExceeded error wrapping
// the context's error. DeadlineExceeded is in DefaultRetryableKinds, so it
// is not a distinct kind for cancellation; the envelope stops on
// cancellation because of the context check, not because of the kind.
func CallWithRetries(ctx context.Context, r *Retryer, f func(context.Context) error) error {
	var last error
	for attempt := 0; ; attempt++ {
		if err := ctx.Err(); err != nil {
			return vfserrors.Wrap(vfserrors.DeadlineExceeded, err, "canceled before attempt")
		}

		last = f(ctx)
		if last == nil {
			return nil
		}
		if !r.shouldRetry(last) {
			return last
		}
		if attempt >= MaxRetries {
			return vfserrors.Wrap(vfserrors.Aborted, last,
				fmt.Sprintf("all %d retry attempts failed: %s", MaxRetries, last.Error()))
		}

		delay := r.backoff(attempt)
		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return vfserrors.Wrap(vfserrors.DeadlineExceeded, ctx.Err(), "canceled during backoff")
		case <-timer.C:
		}
	}
}

// DeleteWithRetries is CallWithRetries with one difference: on any attempt
// after the first, a NotFound result is rewritten to success. Delete is
// idempotent under the store's eventual-consistency model, so a NotFound
// observed only after at least one prior attempt means the object was
// already removed by an earlier, apparently-failed try.
func DeleteWithRetries(ctx context.Context, r *Retryer, f func(context.Context) error) error {
	isRetried := false
	var last error
	for attempt := 0; ; attempt++ {
		if err := ctx.Err(); err != nil {
			return vfserrors.Wrap(vfserrors.DeadlineExceeded, err, "canceled before attempt")
		}

		last = f(ctx)
		if last == nil {
			return nil
		}
		if isRetried && vfserrors.IsKind(last, vfserrors.NotFound) {
			return nil
		}
		if !r.shouldRetry(last) {
			return last
		}
		if attempt >= MaxRetries {
			return vfserrors.Wrap(vfserrors.Aborted, last,
				fmt.Sprintf("all %d retry attempts failed: %s", MaxRetries, last.Error()))
		}

		delay := r.backoff(attempt)
		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return vfserrors.Wrap(vfserrors.DeadlineExceeded, ctx.Err(), "canceled during backoff")
		case <-timer.C:
		}
		isRetried = true
	}
}
