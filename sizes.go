package bufsplit

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/anjor/bufsplit/internal/constants"
)

var sizeExpr = regexp.MustCompile(`(?i)^(\d+)(KB|MB|K|M)$`)

// K and M are binary multipliers, KB and MB decimal ones.
var sizeUnits = map[string]int64{
	"K":  1024,
	"M":  1024 * 1024,
	"KB": 1000,
	"MB": 1000 * 1000,
}

// ParseSize converts expressions like "64K" or "10MB" into a byte count.
// A bare number is not a size expression.
func ParseSize(s string) (int64, error) {
	m := sizeExpr.FindStringSubmatch(s)
	if m == nil {
		return 0, fmt.Errorf("%w: '%s' is not of the form <integer>(K|M|KB|MB)", ErrInvalidSizeString, s)
	}

	num, err := strconv.ParseInt(m[1], 10, 64)
	if err != nil || num > constants.MaxSafeInteger {
		return 0, fmt.Errorf("%w: '%s' out of range", ErrInvalidSizeString, s)
	}

	mult := sizeUnits[strings.ToUpper(m[2])]
	if num > constants.MaxSafeInteger/mult {
		return 0, fmt.Errorf("%w: '%s' exceeds %d bytes", ErrInvalidSizeString, s, int64(constants.MaxSafeInteger))
	}

	return num * mult, nil
}
