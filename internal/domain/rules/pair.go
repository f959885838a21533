package rules

// CanonicalPair orders two user ids so that a < b. A match row is always
// stored under this ordering, which lets the unique index on the pair
// reject a second insert no matter who swiped last.
func CanonicalPair(x, y int64) (int64, int64) {
	if x > y {
		return y, x
	}
	return x, y
}
