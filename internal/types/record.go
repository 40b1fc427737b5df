package types

// MetricsRecord is one flat output row: a bond's identity, its parameters and
// the computed metrics. It is the parquet and batch-table schema.
type MetricsRecord struct {
	ID               string  `parquet:"id" json:"id"`
	Source           string  `parquet:"source" json:"source"`
	FaceValue        float64 `parquet:"face_value" json:"face_value"`
	CouponRate       float64 `parquet:"coupon_rate" json:"coupon_rate"`
	YTM              float64 `parquet:"ytm" json:"ytm"`
	Years            int32   `parquet:"years" json:"years"`
	Frequency        int32   `parquet:"frequency" json:"frequency"`
	Price            float64 `parquet:"price" json:"price"`
	MacaulayDuration float64 `parquet:"macaulay_duration" json:"macaulay_duration"`
	ModifiedDuration float64 `parquet:"modified_duration" json:"modified_duration"`
	Convexity        float64 `parquet:"convexity" json:"convexity"`
	DV01             float64 `parquet:"dv01" json:"dv01"`
}

func NewMetricsRecord(id, source string, p BondParams, m BondMetrics) MetricsRecord {
	return MetricsRecord{
		ID:               id,
		Source:           source,
		FaceValue:        p.FaceValue,
		CouponRate:       p.CouponRate,
		YTM:              p.YTM,
		Years:            int32(p.Years),
		Frequency:        int32(p.Frequency),
		Price:            m.Price,
		MacaulayDuration: m.MacaulayDuration,
		ModifiedDuration: m.ModifiedDuration,
		Convexity:        m.Convexity,
		DV01:             m.DV01,
	}
}

// Params recovers the engine input the record was computed from.
func (r MetricsRecord) Params() BondParams {
	return BondParams{
		FaceValue:  r.FaceValue,
		CouponRate: r.CouponRate,
		YTM:        r.YTM,
		Years:      int(r.Years),
		Frequency:  Frequency(r.Frequency),
	}
}
