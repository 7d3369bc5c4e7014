package docdb

// matches reports whether doc satisfies every entry of filter. filter must
// already be normalized.
func matches(doc Document, filter map[string]any) bool {
	for k, want := range filter {
		got, ok := doc[k]
		if !ok || !strictEqual(got, want) {
			return false
		}
	}
	return true
}

// strictEqual compares JSON scalars by value. Composite values (arrays and
// objects) are never equal, mirroring identity comparison of freshly
// decoded values.
func strictEqual(a, b any) bool {
	switch av := a.(type) {
	case nil:
		return b == nil
	case string:
		bv, ok := b.(string)
		return ok && av == bv
	case float64:
		bv, ok := b.(float64)
		return ok && av == bv
	case bool:
		bv, ok := b.(bool)
		return ok && av == bv
	default:
		return false
	}
}
