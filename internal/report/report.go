// Package report renders bond metrics for people (text, table) and tools (json).
package report

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"

	"benritz/bondmetrics/internal/types"
)

// Standing says whether a bond trades above, below or at its face value.
type Standing string

const (
	Premium  Standing = "premium"
	Discount Standing = "discount"
	Par      Standing = "par"
)

// Classify compares price and face value exactly; only an exact match is par.
func Classify(price, face float64) Standing {
	switch {
	case price > face:
		return Premium
	case price < face:
		return Discount
	default:
		return Par
	}
}

type Format string

const (
	FormatText  Format = "text"
	FormatTable Format = "table"
	FormatJSON  Format = "json"
)

var (
	ErrUnknownFormat = fmt.Errorf("unknown report format")
)

func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(s)); f {
	case FormatText, FormatTable, FormatJSON:
		return f, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownFormat, s)
}

// YieldShift is the parallel move used by the interpretation section.
const YieldShift = 0.01

const (
	rule  = "═══════════════════════════════════════════════════════════════"
	thin  = "───────────────────────────────────────────────────────────────"
	title = "                    BOND ANALYSIS REPORT                       "
)

type Renderer struct {
	out     io.Writer
	format  Format
	heading *color.Color
	accent  *color.Color
}

func NewRenderer(out io.Writer, format Format, useColor bool) *Renderer {
	heading := color.New(color.FgCyan, color.Bold)
	accent := color.New(color.FgYellow)
	if !useColor {
		heading.DisableColor()
		accent.DisableColor()
	}
	return &Renderer{out: out, format: format, heading: heading, accent: accent}
}

// Result is the JSON document written for a single bond.
type Result struct {
	Params             types.BondParams  `json:"params"`
	Metrics            types.BondMetrics `json:"metrics"`
	PricePercentOfFace float64           `json:"price_percent_of_face"`
	Standing           Standing          `json:"standing"`
}

func (r *Renderer) Render(p types.BondParams, m types.BondMetrics) error {
	switch r.format {
	case FormatJSON:
		return r.renderJSON(p, m)
	case FormatTable:
		return r.renderTable(p, m)
	case FormatText, "":
		return r.renderText(p, m)
	}
	return fmt.Errorf("%w: %q", ErrUnknownFormat, r.format)
}

func (r *Renderer) renderJSON(p types.BondParams, m types.BondMetrics) error {
	enc := json.NewEncoder(r.out)
	enc.SetIndent("", "  ")
	return enc.Encode(Result{
		Params:             p,
		Metrics:            m,
		PricePercentOfFace: m.PricePercentOfFace(p.FaceValue),
		Standing:           Classify(m.Price, p.FaceValue),
	})
}

func (r *Renderer) renderTable(p types.BondParams, m types.BondMetrics) error {
	table := tablewriter.NewWriter(r.out)
	table.Header("Metric", "Value")

	rows := [][]string{
		{"Face Value", fmt.Sprintf("$%.2f", p.FaceValue)},
		{"Coupon Rate", fmt.Sprintf("%.4f%%", p.CouponRate*100)},
		{"Yield to Maturity", fmt.Sprintf("%.4f%%", p.YTM*100)},
		{"Years to Maturity", fmt.Sprintf("%d", p.Years)},
		{"Payment Frequency", fmt.Sprintf("%d (%s)", int(p.Frequency), p.Frequency)},
		{"Bond Price", fmt.Sprintf("$%.4f", m.Price)},
		{"Price % of Par", fmt.Sprintf("%.4f%%", m.PricePercentOfFace(p.FaceValue))},
		{"Macaulay Duration", fmt.Sprintf("%.4f", m.MacaulayDuration)},
		{"Modified Duration", fmt.Sprintf("%.4f", m.ModifiedDuration)},
		{"Convexity", fmt.Sprintf("%.4f", m.Convexity)},
		{"DV01", fmt.Sprintf("$%.4f", m.DV01)},
		{"Standing", string(Classify(m.Price, p.FaceValue))},
	}

	for _, row := range rows {
		if err := table.Append(row[0], row[1]); err != nil {
			return err
		}
	}

	return table.Render()
}

func (r *Renderer) renderText(p types.BondParams, m types.BondMetrics) error {
	var b strings.Builder

	section := func(name string) {
		b.WriteString(r.heading.Sprint(name))
		b.WriteString("\n" + thin + "\n")
	}

	fmt.Fprintf(&b, "\n%s\n%s\n%s\n\n", rule, r.heading.Sprint(title), rule)

	section("BOND PARAMETERS:")
	fmt.Fprintf(&b, "  Face Value              : $%.2f\n", p.FaceValue)
	fmt.Fprintf(&b, "  Coupon Rate             : %.4f%% (%.4f)\n", p.CouponRate*100, p.CouponRate)
	fmt.Fprintf(&b, "  Yield to Maturity       : %.4f%% (%.4f)\n", p.YTM*100, p.YTM)
	fmt.Fprintf(&b, "  Years to Maturity       : %d years\n", p.Years)
	fmt.Fprintf(&b, "  Payment Frequency       : %d times per year\n", int(p.Frequency))
	fmt.Fprintf(&b, "  Total Payments          : %d\n\n", p.Periods())

	section("PRICING METRICS:")
	fmt.Fprintf(&b, "  Bond Price              : $%.4f\n", m.Price)
	fmt.Fprintf(&b, "  Price as %% of Par       : %.4f%%\n\n", m.PricePercentOfFace(p.FaceValue))

	section("RISK METRICS:")
	fmt.Fprintf(&b, "  Macaulay Duration       : %.4f years\n", m.MacaulayDuration)
	fmt.Fprintf(&b, "  Modified Duration       : %.4f years\n", m.ModifiedDuration)
	fmt.Fprintf(&b, "  Convexity               : %.4f\n", m.Convexity)
	fmt.Fprintf(&b, "  DV01 (Dollar Duration)  : $%.4f\n\n", m.DV01)

	section("INTERPRETATION:")
	fmt.Fprintf(&b, "  • A 1%% yield change implies:\n")
	fmt.Fprintf(&b, "    - Price change (duration): $%.2f (%.2f%%)\n",
		m.DurationPriceChange(YieldShift), -m.ModifiedDuration*YieldShift*100)
	fmt.Fprintf(&b, "    - Convexity adjustment   : $%.2f\n", m.ConvexityAdjustment(YieldShift))
	fmt.Fprintf(&b, "  • Bond is trading at a %s\n", r.accent.Sprint(Classify(m.Price, p.FaceValue)))
	fmt.Fprintf(&b, "%s\n\n", rule)

	_, err := io.WriteString(r.out, b.String())
	return err
}

// RenderBatch writes one table row per computed bond.
func (r *Renderer) RenderBatch(records []types.MetricsRecord) error {
	if r.format == FormatJSON {
		enc := json.NewEncoder(r.out)
		enc.SetIndent("", "  ")
		return enc.Encode(records)
	}

	if len(records) == 0 {
		_, err := fmt.Fprintln(r.out, "no bonds computed")
		return err
	}

	table := tablewriter.NewWriter(r.out)
	table.Header("ID", "Coupon", "YTM", "Years", "Freq", "Price", "Mac Dur", "Mod Dur", "Convexity", "DV01", "Standing")

	for _, rec := range records {
		err := table.Append(
			rec.ID,
			fmt.Sprintf("%.4f%%", rec.CouponRate*100),
			fmt.Sprintf("%.4f%%", rec.YTM*100),
			fmt.Sprintf("%d", rec.Years),
			fmt.Sprintf("%d", rec.Frequency),
			fmt.Sprintf("%.4f", rec.Price),
			fmt.Sprintf("%.4f", rec.MacaulayDuration),
			fmt.Sprintf("%.4f", rec.ModifiedDuration),
			fmt.Sprintf("%.4f", rec.Convexity),
			fmt.Sprintf("%.4f", rec.DV01),
			string(Classify(rec.Price, rec.FaceValue)),
		)
		if err != nil {
			return err
		}
	}

	return table.Render()
}
