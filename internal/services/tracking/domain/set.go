package domain

// The reference sets on aggregates are stored as ordered slices with set
// semantics: membership checks before insertion keep link operations
// idempotent, and order is preserved for stable output.

// Contains reports whether value is present in set.
func Contains(set []string, value string) bool {
	for _, member := range set {
		if member == value {
			return true
		}
	}
	return false
}

// AddToSet appends value unless already present.
func AddToSet(set []string, value string) []string {
	if Contains(set, value) {
		return set
	}
	return append(set, value)
}

// RemoveFromSet removes value if present, preserving order.
func RemoveFromSet(set []string, value string) []string {
	for i, member := range set {
		if member == value {
			return append(set[:i:i], set[i+1:]...)
		}
	}
	return set
}

func dedupe(values []string) []string {
	if len(values) == 0 {
		return nil
	}
	out := make([]string, 0, len(values))
	for _, value := range values {
		if value == "" || Contains(out, value) {
			continue
		}
		out = append(out, value)
	}
	return out
}
