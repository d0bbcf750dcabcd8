package pairing

// ForbiddenKey is an unordered pair of member ids, stored sorted.
type ForbiddenKey struct {
	Low  int64
	High int64
}

func NewForbiddenKey(a, b int64) ForbiddenKey {
	if a > b {
		a, b = b, a
	}
	return ForbiddenKey{Low: a, High: b}
}

// ForbiddenSet holds member pairs that should not be paired again. Advisory only.
type ForbiddenSet map[ForbiddenKey]struct{}

// BuildForbiddenSet indexes the members of historical pairs.
func BuildForbiddenSet(pairs []*Pair) ForbiddenSet {
	set := make(ForbiddenSet, len(pairs))
	for _, p := range pairs {
		set.Add(p.MemberAID, p.MemberBID)
	}
	return set
}

func (s ForbiddenSet) Add(a, b int64) {
	s[NewForbiddenKey(a, b)] = struct{}{}
}

func (s ForbiddenSet) Has(a, b int64) bool {
	_, ok := s[NewForbiddenKey(a, b)]
	return ok
}

func (s ForbiddenSet) Clone() ForbiddenSet {
	out := make(ForbiddenSet, len(s))
	for k := range s {
		out[k] = struct{}{}
	}
	return out
}
