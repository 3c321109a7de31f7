package allocation

// DefaultCategory is used when no valuation data is available for a holding.
const DefaultCategory = "Large Growth"

const (
	largeCapThreshold = 10_000_000_000
	midCapThreshold   = 2_000_000_000
)

// Valuation holds the optional inputs of the style box.
type Valuation struct {
	MarketCap *float64
	PE        *float64
	PB        *float64
}

// CategoryStyle maps size and valuation to a Morningstar-like style bucket such as "Mid Value".
// A missing or zero market cap yields "Unknown".
func CategoryStyle(marketCap, pe, pb *float64) string {
	if marketCap == nil || *marketCap <= 0 {
		return "Unknown"
	}

	size := "Small"
	switch {
	case *marketCap >= largeCapThreshold:
		size = "Large"
	case *marketCap >= midCapThreshold:
		size = "Mid"
	}

	return size + " " + valuationStyle(pe, pb)
}

func valuationStyle(pe, pb *float64) string {
	if pe == nil || pb == nil {
		return "Blend"
	}
	switch {
	case *pe > 25 || *pb > 3:
		return "Growth"
	case *pe < 15 && *pb < 2:
		return "Value"
	default:
		return "Blend"
	}
}

// Category returns the style bucket for v, falling back to DefaultCategory when size is unknown.
func Category(v Valuation) string {
	style := CategoryStyle(v.MarketCap, v.PE, v.PB)
	if style == "Unknown" {
		return DefaultCategory
	}
	return style
}
