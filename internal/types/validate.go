package types

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

const (
	FieldFaceValue  = "face value"
	FieldCouponRate = "coupon rate"
	FieldYTM        = "yield to maturity"
	FieldYears      = "years to maturity"
	FieldFrequency  = "frequency"
)

// ParamNames lists the positional parameters accepted by ParseParams, in order.
var ParamNames = []string{"face_value", "coupon_rate", "ytm", "years", "frequency"}

// ValidationError reports which bond parameter was rejected and why. Err is one
// of ErrMalformedNumber or ErrOutOfRange.
type ValidationError struct {
	Field  string
	Value  string
	Reason string
	Err    error
}

func (e *ValidationError) Error() string {
	if e.Value == "" {
		return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
	}
	return fmt.Sprintf("invalid %s %q: %s", e.Field, e.Value, e.Reason)
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

func malformed(field, value, reason string) error {
	return &ValidationError{Field: field, Value: value, Reason: reason, Err: ErrMalformedNumber}
}

func outOfRange(field, value, reason string) error {
	return &ValidationError{Field: field, Value: value, Reason: reason, Err: ErrOutOfRange}
}

// ParseParams parses the five positional bond parameters
// (face_value, coupon_rate, ytm, years, frequency). Each value must be consumed
// in full and fall inside its range; nothing is clamped.
func ParseParams(args []string) (BondParams, error) {
	if len(args) != len(ParamNames) {
		return BondParams{}, fmt.Errorf("%w: expected %d, got %d", ErrWrongArity, len(ParamNames), len(args))
	}

	var (
		p   BondParams
		err error
	)

	if p.FaceValue, err = parseReal(FieldFaceValue, args[0]); err != nil {
		return BondParams{}, err
	}
	if err := checkFaceValue(p.FaceValue, args[0]); err != nil {
		return BondParams{}, err
	}

	if p.CouponRate, err = parseReal(FieldCouponRate, args[1]); err != nil {
		return BondParams{}, err
	}
	if err := checkCouponRate(p.CouponRate, args[1]); err != nil {
		return BondParams{}, err
	}

	if p.YTM, err = parseReal(FieldYTM, args[2]); err != nil {
		return BondParams{}, err
	}
	if err := checkYTM(p.YTM, args[2]); err != nil {
		return BondParams{}, err
	}

	if p.Years, err = parseInt(FieldYears, args[3]); err != nil {
		return BondParams{}, err
	}
	if err := checkYears(p.Years, args[3]); err != nil {
		return BondParams{}, err
	}

	freq, err := parseInt(FieldFrequency, args[4])
	if err != nil {
		return BondParams{}, err
	}
	p.Frequency = Frequency(freq)
	if err := checkFrequency(p.Frequency, args[4]); err != nil {
		return BondParams{}, err
	}

	return p, nil
}

// Validate applies the ParseParams range rules to params built in code.
func (p BondParams) Validate() error {
	if err := checkFaceValue(p.FaceValue, ""); err != nil {
		return err
	}
	if err := checkCouponRate(p.CouponRate, ""); err != nil {
		return err
	}
	if err := checkYTM(p.YTM, ""); err != nil {
		return err
	}
	if err := checkYears(p.Years, ""); err != nil {
		return err
	}
	return checkFrequency(p.Frequency, "")
}

func parseReal(field, s string) (float64, error) {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		if errors.Is(err, strconv.ErrRange) {
			return 0, outOfRange(field, s, "magnitude too large")
		}
		return 0, malformed(field, s, "not a number")
	}
	if v == 0 && nonZeroMantissa(s) {
		return 0, outOfRange(field, s, "magnitude too small")
	}
	return v, nil
}

// nonZeroMantissa reports whether a parsed real had significant digits, so a
// result of exactly zero means it underflowed.
func nonZeroMantissa(s string) bool {
	m := strings.ToLower(strings.TrimLeft(s, "+-"))
	digits := "123456789"
	if strings.HasPrefix(m, "0x") {
		m, _, _ = strings.Cut(m[2:], "p")
		digits += "abcdef"
	} else {
		m, _, _ = strings.Cut(m, "e")
	}
	return strings.ContainsAny(m, digits)
}

func parseInt(field, s string) (int, error) {
	v, err := strconv.Atoi(s)
	if err != nil {
		if errors.Is(err, strconv.ErrRange) {
			return 0, outOfRange(field, s, "magnitude too large")
		}
		return 0, malformed(field, s, "not an integer")
	}
	return v, nil
}

func checkFaceValue(v float64, raw string) error {
	if math.IsNaN(v) || math.IsInf(v, 0) || v <= 0 {
		return outOfRange(FieldFaceValue, display(raw, v), "must be a positive number")
	}
	return nil
}

func checkCouponRate(v float64, raw string) error {
	if math.IsNaN(v) || v < 0 || v > 1 {
		return outOfRange(FieldCouponRate, display(raw, v), "must be between 0 and 1")
	}
	return nil
}

func checkYTM(v float64, raw string) error {
	if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
		return outOfRange(FieldYTM, display(raw, v), "must be a non-negative number")
	}
	return nil
}

func checkYears(v int, raw string) error {
	if v < MinYears || v > MaxYears {
		return outOfRange(FieldYears, displayInt(raw, v), fmt.Sprintf("must be between %d and %d", MinYears, MaxYears))
	}
	return nil
}

func checkFrequency(f Frequency, raw string) error {
	if !f.Valid() {
		return outOfRange(FieldFrequency, displayInt(raw, int(f)), "must be 1, 2, 4, or 12")
	}
	return nil
}

func display(raw string, v float64) string {
	if raw != "" {
		return raw
	}
	return strconv.FormatFloat(v, 'g', -1, 64)
}

func displayInt(raw string, v int) string {
	if raw != "" {
		return raw
	}
	return strconv.Itoa(v)
}
