// Package sequence holds the truncation and padding rules shared by the tokenizer implementations.
package sequence

// Truncate returns the first maxLen elements of s. A maxLen < 0 means no limit.
func Truncate[T any](s []T, maxLen int) []T {
	if maxLen < 0 || len(s) <= maxLen {
		return s
	}
	return s[:maxLen]
}

// TruncatePair shortens a and b, one element at a time from the longest of the two
// ("longest first"), until len(a)+len(b) <= maxLen. A maxLen < 0 means no limit.
// Ties remove from a.
func TruncatePair[T any](a, b []T, maxLen int) ([]T, []T) {
	if maxLen < 0 {
		return a, b
	}
	for len(a)+len(b) > maxLen {
		if len(a) >= len(b) {
			a = a[:len(a)-1]
		} else {
			b = b[:len(b)-1]
		}
	}
	return a, b
}

// Pad appends padValue to s until it has length n. It never shortens s.
func Pad[T any](s []T, n int, padValue T) []T {
	for len(s) < n {
		s = append(s, padValue)
	}
	return s
}

// Budget returns how many content positions are left in maxSeqLen after reserving
// `reserved` positions for special tokens. It returns -1 (no limit) if maxSeqLen <= 0,
// and never less than 0 otherwise.
func Budget(maxSeqLen, reserved int) int {
	if maxSeqLen <= 0 {
		return -1
	}
	if maxSeqLen < reserved {
		return 0
	}
	return maxSeqLen - reserved
}
