package field

import (
	"strconv"
	"strings"
)

// Lookup resolves a dotted path below node. Name segments select live
// children of a Field; numeric segments select rows of a MultiField. An empty
// path returns node itself.
func Lookup(node Node, path string) (Node, bool) {
	path = strings.Trim(strings.TrimSpace(path), ".")
	if node == nil {
		return nil, false
	}
	if path == "" {
		return node, true
	}
	cur := node
	for _, segment := range strings.Split(path, ".") {
		switch typed := cur.(type) {
		case *Field:
			child, ok := typed.Child(segment)
			if !ok {
				return nil, false
			}
			cur = child
		case *MultiField:
			idx, err := strconv.Atoi(segment)
			if err != nil || idx < 0 || idx >= len(typed.rows) {
				return nil, false
			}
			cur = typed.rows[idx].field
		default:
			return nil, false
		}
	}
	return cur, true
}
