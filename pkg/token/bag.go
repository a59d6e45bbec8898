package token

// Bag is a multiset of token keys.
type Bag map[Key]int

// BagOf counts the keys of a sequence.
func BagOf(seq Sequence) Bag {
	bag := make(Bag, len(seq))

	for _, tok := range seq {
		bag[tok.Key()]++
	}

	return bag
}

// Len returns the total multiplicity.
func (b Bag) Len() int {
	n := 0

	for _, c := range b {
		n += c
	}

	return n
}

// Excess walks seq in order and returns the tokens whose key occurs more
// often in seq than the budget allows. The budget is not modified.
func Excess(seq Sequence, budget Bag) Sequence {
	remaining := make(Bag, len(budget))

	for k, c := range budget {
		remaining[k] = c
	}

	var out Sequence

	for _, tok := range seq {
		key := tok.Key()
		if remaining[key] > 0 {
			remaining[key]--

			continue
		}

		out = append(out, tok)
	}

	return out
}
