package loader

import (
	"math"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"
)

var priceStripper = strings.NewReplacer("$", "", ",", "")

// ParsePrice converts currency text such as "$1,200.50" to 1200.50.
// Empty, non-numeric, non-finite, and negative values are rejected.
func ParsePrice(raw string) (float64, error) {
	s := strings.TrimSpace(priceStripper.Replace(raw))
	if s == "" {
		return 0, eris.New("loader: empty price")
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, eris.Wrapf(err, "loader: parse price %q", raw)
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, eris.Errorf("loader: non-finite price %q", raw)
	}
	if v < 0 {
		return 0, eris.Errorf("loader: negative price %q", raw)
	}
	return v, nil
}
