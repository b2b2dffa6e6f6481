package component

// Combination operators act componentwise on value, accumulation and laps.
// They are used both when accumulating repeated laps into one instance and
// by the merge engine when collapsing graphs across threads and processes.
//
// Combining mismatched concrete kinds, or combining with an instance that is
// still mid-measurement, is a usage fault: the operation returns an error
// and the receiver's statistics are left untouched.

func (b *base) checkOperand(op string, other Component) error {
	if other == nil || other.Kind() != b.kind {
		return usageErr(op, b.kind, ErrKindMismatch)
	}
	if other.Running() || b.running {
		return usageErr(op, b.kind, ErrCombineRunning)
	}
	return nil
}

// Plus folds another instance into this one. Laps add, so the invariant
// "statistics equal the combination of all laps" holds across the merge.
func (b *base) Plus(other Component) error {
	if err := b.checkOperand("component.Plus", other); err != nil {
		return err
	}
	b.value += other.Value()
	b.accum = b.combine(b.accum, other.Accum())
	b.last = other.Last()
	b.laps += other.Laps()
	b.transient = b.transient || other.Transient()
	return nil
}

// Minus removes another instance's contribution. Lap counts saturate at
// zero rather than underflowing.
func (b *base) Minus(other Component) error {
	if err := b.checkOperand("component.Minus", other); err != nil {
		return err
	}
	b.value -= other.Value()
	b.accum -= other.Accum()
	if other.Laps() >= b.laps {
		b.laps = 0
	} else {
		b.laps -= other.Laps()
	}
	return nil
}

// Multiply scales value and accumulation. Laps are a cardinality, not a
// measurement, so they are left alone.
func (b *base) Multiply(other Component) error {
	if err := b.checkOperand("component.Multiply", other); err != nil {
		return err
	}
	b.value *= other.Value()
	b.accum *= other.Accum()
	return nil
}

// Divide divides value and accumulation, skipping zero divisors so a
// degenerate operand cannot fault the hot path.
func (b *base) Divide(other Component) error {
	if err := b.checkOperand("component.Divide", other); err != nil {
		return err
	}
	if v := other.Value(); v != 0 {
		b.value /= v
	}
	if a := other.Accum(); a != 0 {
		b.accum /= a
	}
	return nil
}
