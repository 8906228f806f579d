package content

import "time"

// SetNowFunc overrides the clock in tests.
func SetNowFunc(f func() time.Time) { nowFunc = f }
