package text

import (
	"fmt"
	"reflect"
	"sort"
	"strings"
)

// AvailableMapKeys renders the sorted keys of any string-keyed map as a
// quoted, comma separated list.
func AvailableMapKeys(m interface{}) string {
	keys := reflect.ValueOf(m).MapKeys()
	avail := make([]string, 0, len(keys))
	for _, k := range keys {
		avail = append(avail, fmt.Sprintf("'%s'", k.String()))
	}
	sort.Strings(avail)
	return strings.Join(avail, ", ")
}

func Commify(inVal int) string {
	return Commify64(int64(inVal))
}

func Commify64(inVal int64) string {
	inStr := fmt.Sprintf("%d", inVal)

	neg := strings.HasPrefix(inStr, "-")
	if neg {
		inStr = inStr[1:]
	}

	out := make([]byte, 0, len(inStr)+len(inStr)/3+1)
	if neg {
		out = append(out, '-')
	}
	for i := range inStr {
		if i > 0 && (len(inStr)-i)%3 == 0 {
			out = append(out, ',')
		}
		out = append(out, inStr[i])
	}

	return string(out)
}
