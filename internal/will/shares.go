package will

// Share selects one side of the primary/secondary percentage pair.
type Share int

const (
	SharePrimary Share = iota
	ShareSecondary
)

func clampPercent(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}

// SetShare sets one side of the pair and, while a secondary beneficiary
// exists, sets the other side to the complement. The pair sums to 100 after
// every call that finds a secondary present. Setting the secondary share with
// no secondary beneficiary is a no-op.
func SetShare(b Beneficiaries, which Share, value float64) Beneficiaries {
	out := b.Clone()
	value = clampPercent(value)
	switch which {
	case SharePrimary:
		out.Primary.Percentage = value
		if out.Secondary != nil {
			out.Secondary.Percentage = 100 - value
		}
	case ShareSecondary:
		if out.Secondary == nil {
			return out
		}
		out.Secondary.Percentage = value
		out.Primary.Percentage = 100 - value
	}
	return out
}

// AddSecondary attaches a secondary beneficiary. The first attachment splits
// the estate 50/50; replacing an existing secondary keeps the current split.
func AddSecondary(b Beneficiaries, secondary Beneficiary) Beneficiaries {
	out := b.Clone()
	if out.Secondary == nil {
		secondary.Percentage = 50
		out.Primary.Percentage = 50
	} else {
		secondary.Percentage = out.Secondary.Percentage
	}
	out.Secondary = &secondary
	return out
}

// RemoveSecondary returns the full share to the primary beneficiary and drops
// the secondary record.
func RemoveSecondary(b Beneficiaries) Beneficiaries {
	out := b.Clone()
	out.Primary.Percentage = 100
	out.Secondary = nil
	return out
}

// SecondaryShare is the secondary percentage, zero when absent.
func (b Beneficiaries) SecondaryShare() float64 {
	if b.Secondary == nil {
		return 0
	}
	return b.Secondary.Percentage
}
