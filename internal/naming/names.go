package naming

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"syscall"

	"github.com/anjor/bufsplit/internal/constants"
)

var ErrSuffixesExhausted = errors.New("output file suffixes exhausted")

// ErrNameTooLong is returned instead of building names no file system
// accepts. It matches syscall.ENAMETOOLONG.
var ErrNameTooLong = fmt.Errorf("suffix wider than %d characters: %w", constants.MaxSuffixLength, syscall.ENAMETOOLONG)

// Spec describes how output filenames are formed. A zero SuffixLength
// means the width is derived from the amount of names requested.
type Spec struct {
	Prefix           string
	AdditionalSuffix string
	SuffixLength     int

	Numeric      bool
	NumericStart int64

	// Fail instead of keeping only the trailing digits when a numeral is
	// wider than the suffix.
	Strict bool
}

// Generate returns n filenames in order: prefix, suffix, additional suffix.
func Generate(n int, spec Spec) ([]string, error) {
	if n < 0 {
		return nil, fmt.Errorf("negative name count %d", n)
	}

	radix := int64(RadixAlphabetic)
	if spec.Numeric {
		radix = RadixNumeric
		if n > 0 && spec.NumericStart > constants.MaxSafeInteger-int64(n-1) {
			return nil, fmt.Errorf(
				"%w: numeric suffix %d+%d exceeds %d",
				ErrSuffixesExhausted, spec.NumericStart, n-1, int64(constants.MaxSafeInteger),
			)
		}
	}

	width, err := suffixWidth(n, radix, spec.SuffixLength)
	if err != nil {
		return nil, err
	}
	if n > 0 && width > constants.MaxSuffixLength {
		return nil, ErrNameTooLong
	}

	names := make([]string, n)
	var sb strings.Builder
	for i := range names {
		sb.Reset()
		sb.Grow(len(spec.Prefix) + width + len(spec.AdditionalSuffix))
		sb.WriteString(spec.Prefix)
		if spec.Numeric {
			if err := writeNumeric(&sb, spec.NumericStart+int64(i), width, spec.Strict); err != nil {
				return nil, err
			}
		} else {
			writeAlphabetic(&sb, int64(i), width)
		}
		sb.WriteString(spec.AdditionalSuffix)
		names[i] = sb.String()
	}

	return names, nil
}

func suffixWidth(n int, radix int64, requested int) (int, error) {
	needed := SuffixLength(int64(n), radix)

	if requested > 0 {
		if requested < needed {
			return 0, fmt.Errorf(
				"%w: %d pieces need a suffix length of at least %d, got %d",
				ErrSuffixesExhausted, n, needed, requested,
			)
		}
		return requested, nil
	}

	if needed < MinAutoSuffixLength {
		return MinAutoSuffixLength, nil
	}
	return needed, nil
}

// writeNumeric renders num zero-padded to width. Numerals wider than width
// keep only their last width digits unless strict is set.
func writeNumeric(sb *strings.Builder, num int64, width int, strict bool) error {
	digits := strconv.FormatInt(num, 10)

	if len(digits) > width {
		if strict {
			return fmt.Errorf(
				"%w: numeral %s does not fit a suffix length of %d",
				ErrSuffixesExhausted, digits, width,
			)
		}
		digits = digits[len(digits)-width:]
	}

	for pad := width - len(digits); pad > 0; pad-- {
		sb.WriteByte('0')
	}
	sb.WriteString(digits)
	return nil
}

// writeAlphabetic renders idx as a base-26 numeral over a..z, left-padded
// with 'a'. The caller guarantees idx < 26^width.
func writeAlphabetic(sb *strings.Builder, idx int64, width int) {
	suffix := make([]byte, width)
	for pos := width - 1; pos >= 0; pos-- {
		suffix[pos] = byte('a' + idx%RadixAlphabetic)
		idx /= RadixAlphabetic
	}
	sb.Write(suffix)
}
