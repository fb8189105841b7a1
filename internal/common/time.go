package common

import "time"

// NowUnixMilli returns the current time as Unix milliseconds, the
// timestamp shape used on the wire for JobLogEntry.ts and
// TrainingProgressEvent.timestamp.
func NowUnixMilli() int64 {
	return time.Now().UTC().UnixMilli()
}
