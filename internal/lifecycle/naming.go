package lifecycle

import "strconv"

// trailingNumber returns the decimal suffix of name, 0 when there is none.
func trailingNumber(name string) int {
	i := len(name)
	for i > 0 && name[i-1] >= '0' && name[i-1] <= '9' {
		i--
	}
	if i == len(name) {
		return 0
	}
	n, err := strconv.Atoi(name[i:])
	if err != nil {
		return 0
	}
	return n
}

// NextSuffix is one more than the largest trailing number among names.
func NextSuffix(names []string) int {
	highest := 0
	for _, name := range names {
		if n := trailingNumber(name); n > highest {
			highest = n
		}
	}
	return highest + 1
}

// NextInstanceName derives the name of a new instance from the existing ones.
func NextInstanceName(prefix string, names []string) string {
	return prefix + strconv.Itoa(NextSuffix(names))
}
