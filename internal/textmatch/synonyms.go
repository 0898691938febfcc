package textmatch

// Synonyms maps tokens to the groups of interchangeable terms they belong to.
type Synonyms struct {
	groups  [][]string
	members map[string][]int
}

// NewSynonyms precomputes group membership. Terms are cleaned with n so they
// compare equal to normalized tokens.
func NewSynonyms(n *Normalizer, groups [][]string) *Synonyms {
	s := &Synonyms{members: make(map[string][]int)}
	for _, group := range groups {
		cleaned := make([]string, 0, len(group))
		for _, term := range group {
			if term = n.Clean(term); term != "" {
				cleaned = append(cleaned, term)
			}
		}
		if len(cleaned) == 0 {
			continue
		}
		idx := len(s.groups)
		s.groups = append(s.groups, cleaned)
		for _, term := range cleaned {
			s.members[term] = append(s.members[term], idx)
		}
	}
	return s
}

// Group returns every term sharing a group with token, token included.
func (s *Synonyms) Group(token string) []string {
	out := []string{token}
	for _, idx := range s.members[token] {
		for _, term := range s.groups[idx] {
			if term != token {
				out = append(out, term)
			}
		}
	}
	return out
}

// Expand returns the union of the groups of all tokens. Tokens without a
// group are included as-is.
func (s *Synonyms) Expand(tokens []string) map[string]struct{} {
	set := make(map[string]struct{}, len(tokens))
	for _, tok := range tokens {
		for _, term := range s.Group(tok) {
			set[term] = struct{}{}
		}
	}
	return set
}
