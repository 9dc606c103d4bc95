// internal/filters/bounce.go
package filters

const (
	BounceNotPaid    = "Not paid"
	BouncePaidOnTime = "Paid on time"
	Bounce1To5       = "1-5 days late"
	Bounce6To15      = "6-15 days late"
	Bounce15Plus     = "15+ days late"
)

var BounceBuckets = []string{BounceNotPaid, BouncePaidOnTime, Bounce1To5, Bounce6To15, Bounce15Plus}

// CategorizeLastMonthBounce buckets last month's days-late count.
// Zero is checked before the <= 0 branch, so only negative counts are "Paid on time".
func CategorizeLastMonthBounce(days *int) string {
	if days == nil || *days == 0 {
		return BounceNotPaid
	}
	switch d := *days; {
	case d <= 0:
		return BouncePaidOnTime
	case d <= 5:
		return Bounce1To5
	case d <= 15:
		return Bounce6To15
	default:
		return Bounce15Plus
	}
}

// IsBounceBucket reports whether s is one of BounceBuckets.
func IsBounceBucket(s string) bool {
	for _, b := range BounceBuckets {
		if b == s {
			return true
		}
	}
	return false
}
