// -----------------------------------------------------------------------
// Last Modified: Thursday, 30th July 2026 9:12:00 am
// Modified By: Bob McAllan
// -----------------------------------------------------------------------

package executor

import (
	"sync/atomic"
	"time"
)

// cancelToken implements interfaces.CancelToken. set flips to 1 the moment
// a cancellation request is observed; plugins poll IsSet() at roughly the
// same ~1Hz cadence they report training.step events.
type cancelToken struct {
	set int32
}

func newCancelToken() *cancelToken {
	return &cancelToken{}
}

func (t *cancelToken) IsSet() bool {
	return atomic.LoadInt32(&t.set) == 1
}

func (t *cancelToken) trigger() {
	atomic.StoreInt32(&t.set, 1)
}

// cancelGracePeriod is how long the executor waits for a plugin to return
// after cancellation before forcibly marking the job cancelled, used when
// Processing.CancelGracePeriod does not yield a positive duration.
const cancelGracePeriod = 10 * time.Second
