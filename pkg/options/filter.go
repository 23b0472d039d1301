package options

import (
	"sort"
	"strings"
	"unicode"
)

// Filter returns the options matching query. Every whitespace-separated query
// token must be a prefix of some word of the name or of some keyword. Options
// whose name starts with the query rank first; ties keep their input order.
// An empty query returns every option. limit <= 0 means no limit.
func Filter(opts []Option, query string, limit int) []Option {
	tokens := tokenize(query)
	type match struct {
		opt      Option
		idx      int
		isPrefix bool
	}
	matches := make([]match, 0, len(opts))
	q := strings.ToLower(strings.TrimSpace(query))
	for i, opt := range opts {
		if len(tokens) > 0 && !matchesAll(opt, tokens) {
			continue
		}
		matches = append(matches, match{
			opt:      opt,
			idx:      i,
			isPrefix: q != "" && strings.HasPrefix(strings.ToLower(opt.Name), q),
		})
	}

	sort.SliceStable(matches, func(i, j int) bool {
		if matches[i].isPrefix != matches[j].isPrefix {
			return matches[i].isPrefix
		}
		return matches[i].idx < matches[j].idx
	})

	if limit > 0 && len(matches) > limit {
		matches = matches[:limit]
	}
	out := make([]Option, 0, len(matches))
	for _, m := range matches {
		out = append(out, m.opt)
	}
	return out
}

func matchesAll(opt Option, tokens []string) bool {
	words := tokenize(opt.Name)
	for _, keyword := range opt.Keywords {
		words = append(words, tokenize(keyword)...)
	}
	for _, token := range tokens {
		found := false
		for _, word := range words {
			if strings.HasPrefix(word, token) {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

func tokenize(s string) []string {
	return strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}
