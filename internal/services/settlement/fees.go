package settlement

import "kudipay/internal/utils"

// FeeSchedule models the processor's charge on wallet funding: a
// percentage on every transaction, plus a flat fee from the threshold
// up, optionally capped. The wallet is credited with the net amount.
type FeeSchedule struct {
	Percent          float64
	FlatFee          float64
	FlatFeeThreshold float64
	Cap              float64 // 0 means no cap
}

// DefaultFeeSchedule is the standard local-card schedule: 1.5% + ₦100,
// the flat fee waived under ₦2500, capped at ₦2000.
func DefaultFeeSchedule() FeeSchedule {
	return FeeSchedule{
		Percent:          0.015,
		FlatFee:          100,
		FlatFeeThreshold: 2500,
		Cap:              2000,
	}
}

// Fee returns the processor charge for a gross amount.
func (f FeeSchedule) Fee(gross float64) float64 {
	fee := gross * f.Percent
	if gross >= f.FlatFeeThreshold {
		fee += f.FlatFee
	}
	if f.Cap > 0 && fee > f.Cap {
		fee = f.Cap
	}
	return utils.Round2(fee)
}

// Net returns the amount credited to the wallet after fees.
func (f FeeSchedule) Net(gross float64) float64 {
	return utils.Round2(gross - f.Fee(gross))
}
