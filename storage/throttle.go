package storage

// Throttle auto-disables labels that fire often and measure almost nothing;
// such regions cost more in bookkeeping than they return in signal. A label
// is disabled once it has completed at least countLimit laps with a mean
// delta below valueLimit raw units.
//
// The table is owned by one Thread and is lock-free like the rest of the
// hot path.
type Throttle struct {
	countLimit uint64
	valueLimit int64
	entries    map[uint64]*throttleEntry
	disabled   uint64
}

type throttleEntry struct {
	laps     uint64
	total    int64
	disabled bool
}

// NewThrottle returns a throttle with the given gates. Either gate at zero
// disables throttling entirely.
func NewThrottle(countLimit uint64, valueLimit int64) *Throttle {
	if countLimit == 0 || valueLimit <= 0 {
		return nil
	}
	return &Throttle{
		countLimit: countLimit,
		valueLimit: valueLimit,
		entries:    make(map[uint64]*throttleEntry),
	}
}

// Disabled reports whether a label has been auto-disabled. A nil throttle
// never disables anything.
func (t *Throttle) Disabled(label uint64) bool {
	if t == nil {
		return false
	}
	e, ok := t.entries[label]
	return ok && e.disabled
}

// Observe records one completed lap for a label and trips the disable gate
// when the label has proven both hot and cheap.
func (t *Throttle) Observe(label uint64, delta int64) {
	if t == nil {
		return
	}
	e, ok := t.entries[label]
	if !ok {
		e = &throttleEntry{}
		t.entries[label] = e
	}
	if e.disabled {
		return
	}
	e.laps++
	e.total += delta
	if e.laps >= t.countLimit && e.total/int64(e.laps) < t.valueLimit {
		e.disabled = true
		t.disabled++
	}
}

// DisabledLabels reports how many labels the throttle has shut off.
func (t *Throttle) DisabledLabels() uint64 {
	if t == nil {
		return 0
	}
	return t.disabled
}
