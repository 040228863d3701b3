package station

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/smazurov/weatherhat/internal/hat"
)

// clockText renders HHMM. The separator after the hours blinks: it is lit on
// odd seconds.
func clockText(t time.Time) string {
	if t.Second()%2 == 1 {
		return fmt.Sprintf("%02d.%02d", t.Hour(), t.Minute())
	}
	return fmt.Sprintf("%02d%02d", t.Hour(), t.Minute())
}

// temperatureText renders whole degrees followed by C, e.g. "21C".
func temperatureText(celsius float64) string {
	if math.IsNaN(celsius) {
		return "--C"
	}
	c := math.Round(celsius)
	c = math.Max(-99, math.Min(999, c))
	return fmt.Sprintf("%dC", int(c))
}

// pressureText renders hPa with as many decimals as fit the display:
// 1013.25 becomes "1013", 987.64 becomes "987.6".
func pressureText(hPa float64) string {
	if math.IsNaN(hPa) || math.IsInf(hPa, 0) {
		return "----"
	}
	for decimals := 2; decimals >= 0; decimals-- {
		s := strconv.FormatFloat(hPa, 'f', decimals, 64)
		if positions(s) <= hat.DisplayWidth {
			return s
		}
	}
	return "----"
}

// positions counts display characters; a '.' shares the previous position.
func positions(s string) int {
	return len(s) - strings.Count(s, ".")
}
