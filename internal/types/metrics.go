package types

// ComputeMetrics prices a fixed-rate coupon bond and derives its risk measures
// in a single pass over the coupon dates.
//
// Discounting uses a running factor, 1/(1+y) multiplied in once per period,
// rather than a power per cash flow.
//
// Parameters:
//
//	p:    Validated bond description (see BondParams.Validate).
//
// Returns:
//
//	Price, Macaulay and modified duration (years), convexity, DV01 and the
//	input yield.
func ComputeMetrics(p BondParams) BondMetrics {
	F := p.FaceValue
	n := float64(p.Frequency)
	c := p.CouponRate / n
	y := p.YTM / n
	m := p.Periods()
	CP := F * c

	price := 0.0
	weightedPV := 0.0
	convexitySum := 0.0

	discount := 1.0 / (1.0 + y)
	factor := discount

	for t := 1; t <= m; t++ {
		cf := CP
		if t == m {
			cf += F
		}

		pv := cf * factor
		tf := float64(t)

		price += pv
		weightedPV += tf * pv
		convexitySum += tf * (tf + 1) * pv

		factor *= discount
	}

	macaulay := weightedPV / (price * n)
	modified := macaulay / (1.0 + p.YTM/n)

	return BondMetrics{
		Price:            price,
		MacaulayDuration: macaulay,
		ModifiedDuration: modified,
		Convexity:        convexitySum / (price * n * n * (1.0 + y) * (1.0 + y)),
		DV01:             modified * price * BasisPoint,
		YieldToMaturity:  p.YTM,
	}
}

// PricePercentOfFace is the price quoted per 100 of face value.
func (m BondMetrics) PricePercentOfFace(face float64) float64 {
	return m.Price / face * 100
}

// DurationPriceChange is the first-order price change for a parallel yield
// shift (0.01 for one percent).
func (m BondMetrics) DurationPriceChange(shift float64) float64 {
	return -m.ModifiedDuration * m.Price * shift
}

// ConvexityAdjustment is the second-order correction to DurationPriceChange.
func (m BondMetrics) ConvexityAdjustment(shift float64) float64 {
	return 0.5 * m.Convexity * m.Price * shift * shift
}
