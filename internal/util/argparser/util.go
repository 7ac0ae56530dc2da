package argparser

import (
	"fmt"
	"reflect"
	"regexp"
	"strconv"

	"github.com/anjor/bufsplit/internal/constants"

	"github.com/pborman/getopt/v2"
)

var maxPlaceholder = regexp.MustCompile(`\bMaxSafe\b`)

// Parse runs getopt over args and then enforces the '[min:max]' value
// specs some options carry as their placeholder name, e.g.
// '--ring-buffer-size=[1:MaxSafe]'. Options left at their default are
// not range checked. Up to maxFreeform non-option arguments are allowed.
func Parse(args []string, optSet *getopt.Set, maxFreeform int) (argErrs []string) {

	if err := optSet.Getopt(args, nil); err != nil {
		argErrs = append(argErrs, err.Error())
	}

	if unexpectedArgs := optSet.Args(); len(unexpectedArgs) > maxFreeform {
		argErrs = append(argErrs, fmt.Sprintf(
			"unexpected free-form parameter(s): %s...",
			unexpectedArgs[maxFreeform],
		))
	}

	// going through the limits when we are already in error is too confusing
	if len(argErrs) > 0 {
		return
	}

	optSet.VisitAll(func(o getopt.Option) {
		if spec := []byte(reflect.ValueOf(o).Elem().FieldByName("name").String()); len(spec) > 0 {

			max := int64(constants.MaxSafeInteger)
			min := -max

			if spec[0] == '[' && spec[len(spec)-1] == ']' {
				spec = maxPlaceholder.ReplaceAll(spec, []byte(fmt.Sprintf("%d", int64(constants.MaxSafeInteger))))

				if _, err := fmt.Sscanf(string(spec), "[%d:]", &min); err != nil {
					if _, err := fmt.Sscanf(string(spec), "[%d:%d]", &min, &max); err != nil {
						argErrs = append(argErrs, fmt.Sprintf("Failed parsing '%s' as '[%%d:%%d]' - %s", spec, err))
						return
					}
				}
			} else {
				// not a spec we recognize
				return
			}

			if !o.Seen() {
				return
			}

			actual, err := strconv.ParseInt(o.Value().String(), 10, 64)
			if err != nil {
				argErrs = append(argErrs, fmt.Sprintf("value for --%s: %s", o.LongName(), err))
				return
			}

			if actual < min || actual > max {
				argErrs = append(argErrs, fmt.Sprintf(
					"value '%d' supplied for --%s out of range [%d:%d]",
					actual,
					o.LongName(),
					min, max,
				))
			}
		}
	})

	return
}
