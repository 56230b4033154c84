package repository

import (
	"time"

	"github.com/okian/rks/pkg/metrics"
)

// observe records latency and failure of a store operation started at start.
func observe(op string, start time.Time, err error) {
	metrics.RecordStoreCall(op, float64(time.Since(start).Microseconds())/1000.0, err)
}
