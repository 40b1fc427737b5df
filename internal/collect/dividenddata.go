package collect

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/gocolly/colly/v2"

	"benritz/bondmetrics/internal/logging"
	"benritz/bondmetrics/internal/types"
)

var (
	SourceDividendData = "DividendData"
	DividendDataURL    = "https://www.dividenddata.co.uk/uk-gilts-prices-yields.py"
)

type DividendDataCollector struct {
	URL string
}

func NewDividendDataCollector() *DividendDataCollector {
	return &DividendDataCollector{URL: DividendDataURL}
}

func (c *DividendDataCollector) Collect(ctx context.Context, date time.Time) (*CollectedGilts, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	log := logging.WithSource(logging.FromContext(ctx), SourceDividendData)

	x := colly.NewCollector()

	// the page is updated daily, but the data may not be available yet
	const datePrefix = "Last updated: "
	var dataTs time.Time

	x.OnHTML("label", func(e *colly.HTMLElement) {
		text := strings.TrimSpace(e.Text)
		if strings.HasPrefix(text, datePrefix) {
			dataTs, _ = time.Parse("02 Jan 2006", strings.TrimPrefix(text, datePrefix))
		}
	})

	collected := NewCollectedGilts(SourceDividendData, date)

	x.OnHTML("#mainbody tr", func(e *colly.HTMLElement) {
		if cg := c.readGilt(e, date); cg != nil {
			collected.AddGilt(cg)
		}
	})

	log.Debug().Str("url", c.URL).Msg("fetching gilt prices")

	if err := x.Visit(c.URL); err != nil {
		return nil, fmt.Errorf("failed to fetch %s: %w", c.URL, err)
	}

	if dataTs.IsZero() {
		return nil, types.ErrMissingSettlementDate
	}

	y1, m1, d1 := dataTs.Date()
	y2, m2, d2 := date.Date()
	if y1 != y2 || m1 != m2 || d1 != d2 {
		log.Info().Time("updated", dataTs).Msg("prices not yet published for date")
		return nil, types.ErrDataUnavailable
	}

	log.Info().
		Int("gilts", len(collected.Gilts)).
		Int("failures", len(collected.Failures)).
		Msg("collected gilt prices")

	return collected, nil
}

func (c *DividendDataCollector) Source() string {
	return SourceDividendData
}

const (
	DD_COL_TICKER            = 0
	DD_COL_DESC              = 1
	DD_COL_COUPON            = 2
	DD_COL_MATURITY_DATE     = 3
	DD_COL_MATURITY_DURATION = 4
	DD_COL_PRICE             = 5
	DD_COL_MATURITY_YIELD    = 6
)

func parsePercent(s string) (float64, error) {
	return strconv.ParseFloat(strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(s), "%")), 64)
}

// readGilt returns nil for rows that are not gilt quotes (headers). Index-linked
// gilts come back failed with ErrUnsupportedBond.
func (c *DividendDataCollector) readGilt(e *colly.HTMLElement, date time.Time) *CollectedGilt {
	if e.DOM.Find("td").Length() == 0 {
		return nil
	}

	g := types.NewUKGilt(SourceDividendData, date)
	cg := &CollectedGilt{Gilt: g}

	e.ForEach("td", func(col int, el *colly.HTMLElement) {
		text := strings.TrimSpace(el.Text)

		switch col {
		case DD_COL_TICKER:
			g.Ticker = text
			if g.Ticker == "" {
				cg.SetError(types.ErrInvalidTicker)
			}
		case DD_COL_DESC:
			g.Desc = text
			if g.Desc == "" {
				cg.SetError(types.ErrInvalidDesc)
			}
		case DD_COL_COUPON:
			if v, err := parsePercent(text); err == nil {
				g.Coupon = v
			} else {
				cg.SetError(types.ErrInvalidCoupon)
			}
		case DD_COL_MATURITY_DATE:
			if ts, err := time.Parse("02-Jan-2006", text); err == nil {
				g.MaturityDate = ts
			} else {
				cg.SetError(types.ErrInvalidMaturityDate)
			}
		case DD_COL_MATURITY_DURATION:
			// ignore, calculated from maturity date
		case DD_COL_PRICE:
			s := strings.TrimLeft(text, "£Â ")
			if v, err := strconv.ParseFloat(s, 64); err == nil {
				g.CleanPrice = v
			} else {
				cg.SetError(types.ErrInvalidCleanPrice)
			}
		case DD_COL_MATURITY_YIELD:
			if v, err := parsePercent(text); err == nil {
				g.YieldToMaturity = v
			} else {
				cg.SetError(types.ErrInvalidYieldToMaturity)
			}
		}
	})

	if strings.Contains(strings.ToLower(g.Desc), "index-linked") {
		cg.SetError(fmt.Errorf("%w: index-linked", types.ErrUnsupportedBond))
	}

	return cg
}
