package corpus

import "strings"

// synonymGroups maps a symptom term to related terms that should match the
// same documents. Expansion is bidirectional: a query for any member of a
// group reaches every other member.
var synonymGroups = map[string][]string{
	"눈곱": {"눈물", "눈물자국", "눈"},
	"설사": {"묽은변", "소화불량", "장염"},
	"구토": {"토", "역류"},
	"기침": {"켁켁", "호흡곤란"},
	"다리": {"절뚝", "파행", "보행"},
	"소변": {"혈뇨", "방광", "요로"},
	"눈":  {"시력", "충혈", "혼탁"},
}

// expandTokens returns the deduplicated union of every token's expansion,
// preserving first-seen order. The resulting set is what documents are
// scored against.
func expandTokens(tokens []string) []string {
	var terms []string
	seen := make(map[string]struct{})
	for _, token := range tokens {
		for _, term := range expand(token) {
			if _, dup := seen[term]; dup {
				continue
			}
			seen[term] = struct{}{}
			terms = append(terms, term)
		}
	}
	return terms
}

// expand returns the token plus every synonym reachable from it. A token
// reaches a group when it contains the group head or the head contains it,
// and likewise for group members.
func expand(token string) []string {
	terms := []string{token}
	seen := map[string]struct{}{token: {}}

	add := func(term string) {
		if _, dup := seen[term]; dup {
			return
		}
		seen[term] = struct{}{}
		terms = append(terms, term)
	}

	for head, members := range synonymGroups {
		matched := overlaps(token, head)
		if !matched {
			for _, member := range members {
				if overlaps(token, member) {
					matched = true
					break
				}
			}
		}
		if !matched {
			continue
		}
		add(head)
		for _, member := range members {
			add(member)
		}
	}
	return terms
}

func overlaps(a, b string) bool {
	return strings.Contains(a, b) || strings.Contains(b, a)
}
