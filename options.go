package bufsplit

import (
	"encoding/json"
	"fmt"
	"math"
	"reflect"
	"strings"

	"github.com/anjor/bufsplit/internal/constants"
)

// Options is the loosely-typed configuration accepted by Split and
// SplitSync, keyed by the Opt* constants. Keys holding nil are treated as
// absent and unknown keys are ignored.
type Options map[string]interface{}

const (
	OptLines            = "lines"
	OptBytes            = "bytes"
	OptLineBytes        = "line_bytes"
	OptPrefix           = "prefix"
	OptSuffixLength     = "suffix_length"
	OptAdditionalSuffix = "additional_suffix"
	OptNumericSuffixes  = "numeric_suffixes"
)

var modeKeys = []string{OptLines, OptBytes, OptLineBytes}

type ModeKind int

const (
	ModeLines ModeKind = iota + 1
	ModeBytes
	ModeLineBytes
)

func (k ModeKind) String() string {
	switch k {
	case ModeLines:
		return OptLines
	case ModeBytes:
		return OptBytes
	case ModeLineBytes:
		return OptLineBytes
	default:
		return fmt.Sprintf("ModeKind(%d)", int(k))
	}
}

// Mode is the single splitting strategy of a call along with its size
// parameter: lines per piece, bytes per piece, or bytes per line fragment.
type Mode struct {
	Kind  ModeKind
	Count int64
}

func (m Mode) String() string {
	return fmt.Sprintf("%s=%d", m.Kind, m.Count)
}

// Config is the validated form of Options. It only lives for the duration
// of the call that produced it.
type Config struct {
	Mode Mode

	// Pieces are persisted only when a prefix was given, even an empty one.
	HasPrefix bool
	Prefix    string

	// 0 lets the filename generator pick the width.
	SuffixLength int

	NumericSuffixes bool
	NumericStart    int64

	AdditionalSuffix string
}

// ParseOptions validates opts and normalizes it into a Config.
func ParseOptions(opts Options) (*Config, error) {
	if opts == nil {
		return nil, fmt.Errorf("%w: options must be a non-nil map", ErrInvalidOptions)
	}

	var selected []string
	for _, k := range modeKeys {
		if opts[k] != nil {
			selected = append(selected, k)
		}
	}
	switch {
	case len(selected) == 0:
		return nil, fmt.Errorf(
			"%w: no mode selected, one of '%s' is required",
			ErrModeConflict, strings.Join(modeKeys, "', '"),
		)
	case len(selected) > 1:
		return nil, fmt.Errorf(
			"%w: multiple modes selected ('%s'), they are mutually exclusive",
			ErrModeConflict, strings.Join(selected, "', '"),
		)
	}

	cfg := &Config{}

	switch key := selected[0]; key {
	case OptLines:
		n, err := parseCount(key, opts[key], false)
		if err != nil {
			return nil, err
		}
		cfg.Mode = Mode{Kind: ModeLines, Count: n}
	case OptBytes:
		n, err := parseCount(key, opts[key], true)
		if err != nil {
			return nil, err
		}
		cfg.Mode = Mode{Kind: ModeBytes, Count: n}
	case OptLineBytes:
		n, err := parseCount(key, opts[key], true)
		if err != nil {
			return nil, err
		}
		cfg.Mode = Mode{Kind: ModeLineBytes, Count: n}
	}

	// naming options only matter when there is something to name
	if opts[OptPrefix] == nil {
		return cfg, nil
	}

	prefix, isString := opts[OptPrefix].(string)
	if !isString {
		return nil, fmt.Errorf("%w: '%s' must be a string, got %T", ErrInvalidOptions, OptPrefix, opts[OptPrefix])
	}
	cfg.HasPrefix = true
	cfg.Prefix = prefix

	if v := opts[OptSuffixLength]; v != nil {
		n, ok := toInteger(v)
		if !ok || n < 1 || n > constants.MaxSafeInteger {
			return nil, fmt.Errorf("%w: '%s' must be a positive integer, got %v", ErrInvalidSuffixLength, OptSuffixLength, v)
		}
		cfg.SuffixLength = int(n)
	}

	if v := opts[OptNumericSuffixes]; v != nil {
		n, ok := toInteger(v)
		if !ok || n < 0 || n > constants.MaxSafeInteger {
			return nil, fmt.Errorf("%w: '%s' must be a non-negative integer, got %v", ErrInvalidNumericStart, OptNumericSuffixes, v)
		}
		cfg.NumericSuffixes = true
		cfg.NumericStart = n
	}

	if v := opts[OptAdditionalSuffix]; v != nil {
		cfg.AdditionalSuffix = fmt.Sprint(v)
	}

	return cfg, nil
}

func parseCount(key string, v interface{}, sized bool) (int64, error) {
	var n int64

	if s, isString := v.(string); isString {
		if !sized {
			return 0, fmt.Errorf("%w: '%s' must be a number, got string '%s'", ErrInvalidCount, key, s)
		}
		var err error
		if n, err = ParseSize(s); err != nil {
			return 0, fmt.Errorf("'%s': %w", key, err)
		}
	} else {
		var ok bool
		if n, ok = toInteger(v); !ok {
			return 0, fmt.Errorf("%w: '%s' must be a finite number, got %v (%T)", ErrInvalidCount, key, v, v)
		}
	}

	if n < 1 || n > constants.MaxSafeInteger {
		return 0, fmt.Errorf("%w: '%s' out of range [1:%d], got %d", ErrInvalidCount, key, int64(constants.MaxSafeInteger), n)
	}
	return n, nil
}

// toInteger accepts any Go numeric kind (and json.Number), truncating
// fractions toward zero. Values that are not finite or fall outside the
// safe integer range are refused.
func toInteger(v interface{}) (int64, bool) {
	if num, isNum := v.(json.Number); isNum {
		if i, err := num.Int64(); err == nil {
			return toInteger(i)
		}
		f, err := num.Float64()
		if err != nil {
			return 0, false
		}
		return toInteger(f)
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		i := rv.Int()
		if i > constants.MaxSafeInteger || i < -constants.MaxSafeInteger {
			return 0, false
		}
		return i, true
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		u := rv.Uint()
		if u > constants.MaxSafeInteger {
			return 0, false
		}
		return int64(u), true
	case reflect.Float32, reflect.Float64:
		f := math.Trunc(rv.Float())
		if math.IsNaN(f) || f > constants.MaxSafeInteger || f < -constants.MaxSafeInteger {
			return 0, false
		}
		return int64(f), true
	default:
		return 0, false
	}
}
