package domain

// Cart is the ordered sequence of line items. Order carries no meaning beyond
// display. A well-formed cart holds at most one line per variant key; see
// Normalize for the repair path.
type Cart []LineItem

// Find returns the index of the first line matching key, or -1.
func (c Cart) Find(key VariantKey) int {
	for i, li := range c {
		if li.Key() == key {
			return i
		}
	}
	return -1
}

// Get returns the first line matching key.
func (c Cart) Get(key VariantKey) (LineItem, bool) {
	if i := c.Find(key); i >= 0 {
		return c[i], true
	}
	return LineItem{}, false
}

// TotalItemCount is the sum of quantities across all lines, not the line count.
func (c Cart) TotalItemCount() int {
	total := 0
	for _, li := range c {
		total += li.Quantity
	}
	return total
}

// Keys returns every variant key present, in display order.
func (c Cart) Keys() []VariantKey {
	keys := make([]VariantKey, 0, len(c))
	for _, li := range c {
		keys = append(keys, li.Key())
	}
	return keys
}

// Normalize merges duplicate-key lines into the first occurrence, summing
// quantities with the usual clamp. Duplicates only appear when a foreign or
// older writer produced the stored cart; every local mutation keeps the
// one-line-per-key invariant on its own.
func (c Cart) Normalize() Cart {
	out := make(Cart, 0, len(c))
	seen := make(map[VariantKey]int, len(c))

	for _, li := range c {
		key := li.Key()
		if i, ok := seen[key]; ok {
			out[i].Quantity = ClampQuantity(out[i].Quantity + li.Quantity)
			continue
		}
		seen[key] = len(out)
		out = append(out, li)
	}
	return out
}
