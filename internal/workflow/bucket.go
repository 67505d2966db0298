package workflow

import (
	"strings"
	"time"
)

// Bucket is a derived display grouping. Buckets are computed on read and
// never stored.
type Bucket string

const (
	BucketUpcoming  Bucket = "upcoming"
	BucketPipeline  Bucket = "pipeline"
	BucketConfirmed Bucket = "confirmed"
)

// Facts is the slice of a booking the bucket rules look at.
type Facts struct {
	Stage     Stage
	Active    bool
	EventDate time.Time
}

// ParseBucket returns the bucket named by raw. Unknown names yield ok=false.
func ParseBucket(raw string) (Bucket, bool) {
	b := Bucket(strings.ToLower(strings.TrimSpace(raw)))
	switch b {
	case BucketUpcoming, BucketPipeline, BucketConfirmed:
		return b, true
	}
	return b, false
}

// InPipeline reports whether the booking still has work owed before payment.
func InPipeline(s Stage) bool {
	return s.Valid() && s != StagePayment
}

// IsUpcoming reports whether the event is after now and the booking is active.
func IsUpcoming(f Facts, now time.Time) bool {
	return f.Active && !f.EventDate.IsZero() && f.EventDate.After(now)
}

// IsConfirmed reports whether the coarse status flag is active.
func IsConfirmed(f Facts) bool {
	return f.Active
}

// BucketsFor lists every bucket f falls in.
func BucketsFor(f Facts, now time.Time) []Bucket {
	var out []Bucket
	if IsUpcoming(f, now) {
		out = append(out, BucketUpcoming)
	}
	if InPipeline(f.Stage) {
		out = append(out, BucketPipeline)
	}
	if IsConfirmed(f) {
		out = append(out, BucketConfirmed)
	}
	return out
}

// MatchesBucket is the filter predicate. An empty or unknown bucket
// matches everything.
func MatchesBucket(f Facts, b Bucket, now time.Time) bool {
	switch b {
	case BucketUpcoming:
		return IsUpcoming(f, now)
	case BucketPipeline:
		return InPipeline(f.Stage)
	case BucketConfirmed:
		return IsConfirmed(f)
	default:
		return true
	}
}
