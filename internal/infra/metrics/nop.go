package metrics

import "time"

// Nop discards every metric. Useful in tests.
type Nop struct{}

func NewNop() *Nop {
	return &Nop{}
}

func (*Nop) RecordRotation(_ /* trigger */, _ /* policy */ string, _ /* pairs */ int) {}

func (*Nop) RecordRotationFailure(_ /* trigger */ string) {}

func (*Nop) RecordSweep(_ /* evaluated */, _ /* rotated */, _ /* failed */ int, _ time.Duration) {}
