package naming

const (
	RadixNumeric    = 10
	RadixAlphabetic = 26

	// Width used when none was requested and fewer symbols would do.
	MinAutoSuffixLength = 2
)

// SuffixLength returns the smallest L such that radix^L >= n. Zero and one
// items need no symbols at all.
func SuffixLength(n, radix int64) int {
	l := 0
	for pow := int64(1); pow < n; pow *= radix {
		l++
	}
	return l
}
