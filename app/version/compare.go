// Package version implements ordering of loosely structured version strings
// ("1.2.0", "2.0rc1", "1.5b3"), following the comparison rules popularized by
// Sparkle appcasts.
package version

import "strconv"

type charType int

const (
	typeNumber charType = iota
	typePeriod
	typeString
)

func classify(c byte) charType {
	switch {
	case c == '.':
		return typePeriod
	case c >= '0' && c <= '9':
		return typeNumber
	default:
		return typeString
	}
}

// split segments a version string into components: continuous runs of
// characters with the same classification. A period always starts a new
// component, so ".." yields two separator components rather than one run.
// Concatenating the components reproduces the input exactly.
func split(v string) []string {
	if v == "" {
		return nil
	}

	var parts []string
	start := 0
	prev := classify(v[0])

	for i := 1; i < len(v); i++ {
		cur := classify(v[i])
		if cur != prev || prev == typePeriod {
			parts = append(parts, v[start:i])
			start = i
		}
		prev = cur
	}

	return append(parts, v[start:])
}

// Compare returns -1, 0 or +1 ordering a relative to b. The ordering is total
// and defined for every input, including empty strings; no input panics.
//
// Within a component position, string fragments sort below numbers and
// periods ("1.2rc1" < "1.2.0"). When one side runs out of components, a
// trailing string fragment lowers precedence ("1.5" > "1.5b3") while a
// trailing number or period raises it ("1.5.1" > "1.5").
func Compare(a, b string) int {
	partsA := split(a)
	partsB := split(b)

	n := min(len(partsA), len(partsB))
	for i := 0; i < n; i++ {
		pa, pb := partsA[i], partsB[i]
		ta, tb := classify(pa[0]), classify(pb[0])

		if ta == tb {
			switch ta {
			case typeString:
				if pa != pb {
					if pa < pb {
						return -1
					}
					return 1
				}
			case typeNumber:
				na, _ := strconv.Atoi(pa)
				nb, _ := strconv.Atoi(pb)
				if na != nb {
					if na < nb {
						return -1
					}
					return 1
				}
			}
			// periods carry no value
			continue
		}

		// Components of different types: a string fragment sorts below
		// anything else; between a number and a period, the dangling
		// period sorts lower.
		if ta != typeString && tb == typeString {
			return 1
		}
		if ta == typeString && tb != typeString {
			return -1
		}
		if ta == typeNumber {
			return 1
		}
		return -1
	}

	if len(partsA) == len(partsB) {
		return 0
	}

	// One string is a prefix of the other; the first extra component of the
	// longer one decides.
	var missingType charType
	var shorterResult, longerResult int

	if len(partsA) > len(partsB) {
		missingType = classify(partsA[n][0])
		shorterResult, longerResult = -1, 1
	} else {
		missingType = classify(partsB[n][0])
		shorterResult, longerResult = 1, -1
	}

	if missingType == typeString {
		// 1.5 > 1.5b3
		return shorterResult
	}
	// 1.5.1 > 1.5
	return longerResult
}
