package types

import (
	"fmt"
	"math"
	"time"
)

type BondType string

var (
	UKGilt BondType = "UK Gilt"
)

// Frequency is the number of coupon payments per year.
type Frequency int

const (
	Annual     Frequency = 1
	SemiAnnual Frequency = 2
	Quarterly  Frequency = 4
	Monthly    Frequency = 12
)

var Frequencies = []Frequency{Annual, SemiAnnual, Quarterly, Monthly}

func (f Frequency) Valid() bool {
	switch f {
	case Annual, SemiAnnual, Quarterly, Monthly:
		return true
	}
	return false
}

func (f Frequency) String() string {
	switch f {
	case Annual:
		return "annual"
	case SemiAnnual:
		return "semi-annual"
	case Quarterly:
		return "quarterly"
	case Monthly:
		return "monthly"
	}
	return fmt.Sprintf("%d per year", int(f))
}

const (
	MinYears = 1
	MaxYears = 100

	// BasisPoint is one hundredth of a percent in decimal yield terms.
	BasisPoint = 0.0001
)

// BondParams describes a fixed-rate coupon bond. Rates are annual decimals (0.05 for 5%).
type BondParams struct {
	FaceValue  float64   `json:"face_value"`
	CouponRate float64   `json:"coupon_rate"`
	YTM        float64   `json:"ytm"`
	Years      int       `json:"years"`
	Frequency  Frequency `json:"frequency"`
}

// Periods is the number of coupon dates to maturity.
func (p BondParams) Periods() int {
	return p.Years * int(p.Frequency)
}

// BondMetrics holds the price and risk measures derived from a BondParams.
type BondMetrics struct {
	Price            float64 `json:"price"`
	MacaulayDuration float64 `json:"macaulay_duration"`
	ModifiedDuration float64 `json:"modified_duration"`
	Convexity        float64 `json:"convexity"`
	DV01             float64 `json:"dv01"`
	YieldToMaturity  float64 `json:"yield_to_maturity"`
}

// Gilt is a UK gilt quote as collected from a market data source. Coupon and
// YieldToMaturity are percentages, as quoted.
type Gilt struct {
	Type            BondType
	Source          string
	ISIN            string
	Ticker          string
	Desc            string
	FacePrice       float64
	Coupon          float64
	SettlementDate  time.Time
	MaturityDate    time.Time
	MaturityYears   int
	MaturityDays    int
	CleanPrice      float64
	YieldToMaturity float64
}

func NewUKGilt(source string, settlementDate time.Time) *Gilt {
	return &Gilt{
		Type:           UKGilt,
		FacePrice:      100.0,
		Source:         source,
		SettlementDate: settlementDate,
	}
}

func MaturityYears(settlementDate, maturityDate time.Time) (int, int, error) {
	if maturityDate.Before(settlementDate) {
		return 0, 0, ErrMaturityDateBeforeSettlement
	}

	years := maturityDate.Year() - settlementDate.Year()

	end := time.Date(
		maturityDate.Year(),
		maturityDate.Month(),
		maturityDate.Day(),
		0, 0, 0, 0,
		maturityDate.Location(),
	)

	start := time.Date(
		maturityDate.Year(),
		settlementDate.Month(),
		settlementDate.Day(),
		0, 0, 0, 0,
		maturityDate.Location(),
	)

	if start.After(end) {
		years--
		start = start.AddDate(-1, 0, 0)
	}

	days := int(math.Round(end.Sub(start).Hours() / 24))

	return years, days, nil
}

// Params converts a collected gilt into engine input. Gilts pay semi-annually
// and a part year to maturity counts as a whole year.
func (g *Gilt) Params() (BondParams, error) {
	if g == nil {
		return BondParams{}, ErrNilBond
	}

	if g.MaturityDate.IsZero() {
		return BondParams{}, ErrInvalidMaturityDate
	}

	if g.SettlementDate.IsZero() {
		return BondParams{}, ErrInvalidSettlementDate
	}

	years, days, err := MaturityYears(g.SettlementDate, g.MaturityDate)
	if err != nil {
		return BondParams{}, err
	}

	g.MaturityYears = years
	g.MaturityDays = days

	if days > 0 {
		years++
	}

	p := BondParams{
		FaceValue:  g.FacePrice,
		CouponRate: g.Coupon / 100,
		YTM:        g.YieldToMaturity / 100,
		Years:      years,
		Frequency:  SemiAnnual,
	}

	if err := p.Validate(); err != nil {
		return BondParams{}, err
	}

	return p, nil
}

var (
	ErrNilBond                      = fmt.Errorf("bond is nil")
	ErrMissingSettlementDate        = fmt.Errorf("missing settlement date")
	ErrDataUnavailable              = fmt.Errorf("data unavailable")
	ErrUnsupportedBond              = fmt.Errorf("unsupported bond")
	ErrInvalidTicker                = fmt.Errorf("invalid ticker")
	ErrInvalidCoupon                = fmt.Errorf("invalid coupon")
	ErrInvalidDesc                  = fmt.Errorf("invalid description")
	ErrInvalidMaturityDate          = fmt.Errorf("invalid maturity date")
	ErrInvalidSettlementDate        = fmt.Errorf("invalid settlement date")
	ErrMaturityDateBeforeSettlement = fmt.Errorf("maturity date is before settlement date")
	ErrInvalidCleanPrice            = fmt.Errorf("invalid clean price")
	ErrInvalidYieldToMaturity       = fmt.Errorf("invalid yield to maturity")

	ErrWrongArity      = fmt.Errorf("wrong number of parameters")
	ErrMalformedNumber = fmt.Errorf("malformed number")
	ErrOutOfRange      = fmt.Errorf("out of range")
)
