package pairing

import (
	"math/rand/v2"
	"sort"
)

// Policy identifies how a cycle's pairs were produced.
type Policy string

const (
	PolicyRandom       Policy = "RANDOM"        // shuffle then pair neighbours
	PolicyBalanced     Policy = "BALANCED"      // most present with least present
	PolicyAvoidRepeats Policy = "AVOID_REPEATS" // balanced, skipping recent pairs when possible
)

// BucketKey partitions members; pairing never crosses buckets.
type BucketKey struct {
	AgeBracketID int64
	Gender       string
}

// Less orders buckets by bracket then gender.
func (k BucketKey) Less(o BucketKey) bool {
	if k.AgeBracketID != o.AgeBracketID {
		return k.AgeBracketID < o.AgeBracketID
	}
	return k.Gender < o.Gender
}

// Candidate is an eligible member with its recent presence count.
type Candidate struct {
	MemberID int64
	Bucket   BucketKey
	Presence int
}

// Assignment is a pair produced by a policy, not yet persisted.
type Assignment struct {
	Bucket  BucketKey
	MemberA int64
	MemberB int64
}

// Solo is an eligible member left without a partner in its bucket.
type Solo struct {
	Bucket   BucketKey
	MemberID int64
}

// Result is the output of a policy over all buckets.
type Result struct {
	Pairs []Assignment
	Solos []Solo
}

// Buckets groups candidates by BucketKey.
type Buckets map[BucketKey][]Candidate

// Partition groups candidates into buckets, keeping input order inside a bucket.
func Partition(candidates []Candidate) Buckets {
	buckets := make(Buckets)
	for _, c := range candidates {
		buckets[c.Bucket] = append(buckets[c.Bucket], c)
	}
	return buckets
}

// Keys returns the bucket keys in a deterministic order.
func (b Buckets) Keys() []BucketKey {
	keys := make([]BucketKey, 0, len(b))
	for k := range b {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i].Less(keys[j]) })
	return keys
}

// FormablePairs returns how many pairs the buckets can yield.
func (b Buckets) FormablePairs() int {
	n := 0
	for _, members := range b {
		n += len(members) / 2
	}
	return n
}

// GenerateRandom shuffles each bucket and pairs neighbours. An odd member out is a solo.
func GenerateRandom(buckets Buckets, rng *rand.Rand) Result {
	var res Result
	for _, key := range buckets.Keys() {
		members := append([]Candidate(nil), buckets[key]...)
		rng.Shuffle(len(members), func(i, j int) {
			members[i], members[j] = members[j], members[i]
		})

		i := 0
		for ; i+1 < len(members); i += 2 {
			res.Pairs = append(res.Pairs, Assignment{Bucket: key, MemberA: members[i].MemberID, MemberB: members[i+1].MemberID})
		}
		if i < len(members) {
			res.Solos = append(res.Solos, Solo{Bucket: key, MemberID: members[i].MemberID})
		}
	}
	return res
}

// RotateBalanced sorts each bucket by presence and pairs rank k with rank n-1-k.
func RotateBalanced(buckets Buckets) Result {
	var res Result
	for _, key := range buckets.Keys() {
		members := sortByPresence(buckets[key])

		lo, hi := 0, len(members)-1
		for lo < hi {
			res.Pairs = append(res.Pairs, Assignment{Bucket: key, MemberA: members[lo].MemberID, MemberB: members[hi].MemberID})
			lo++
			hi--
		}
		if lo == hi {
			res.Solos = append(res.Solos, Solo{Bucket: key, MemberID: members[lo].MemberID})
		}
	}
	return res
}

// RotateAvoidingRepeats pairs the most present remaining member with the least
// present one it was not recently paired with. When every remaining candidate
// is forbidden it falls back to the least present one. forbidden is not modified.
func RotateAvoidingRepeats(buckets Buckets, forbidden ForbiddenSet) Result {
	used := forbidden.Clone()

	var res Result
	for _, key := range buckets.Keys() {
		remaining := sortByPresence(buckets[key])

		for len(remaining) >= 2 {
			a := remaining[0]
			pick := len(remaining) - 1
			for j := len(remaining) - 1; j >= 1; j-- {
				if !used.Has(a.MemberID, remaining[j].MemberID) {
					pick = j
					break
				}
			}
			b := remaining[pick]

			res.Pairs = append(res.Pairs, Assignment{Bucket: key, MemberA: a.MemberID, MemberB: b.MemberID})
			used.Add(a.MemberID, b.MemberID)

			remaining = append(remaining[:pick], remaining[pick+1:]...)
			remaining = remaining[1:]
		}
		if len(remaining) == 1 {
			res.Solos = append(res.Solos, Solo{Bucket: key, MemberID: remaining[0].MemberID})
		}
	}
	return res
}

// sortByPresence returns a copy sorted by presence descending, then member id.
func sortByPresence(members []Candidate) []Candidate {
	out := append([]Candidate(nil), members...)
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Presence != out[j].Presence {
			return out[i].Presence > out[j].Presence
		}
		return out[i].MemberID < out[j].MemberID
	})
	return out
}
