package pkg

import (
	"strings"

	"github.com/dzjyyds666/toonq/parse/toon"
)

// Find 按点分路径查找节点，例如 users.0.name。对象的键本身可以包含点，
// 优先匹配最长的键。
func Find(n toon.Node, path string) (toon.Node, bool) {
	if len(path) == 0 {
		return n, true
	}
	return find(n, strings.Split(path, "."))
}

func find(n toon.Node, parts []string) (toon.Node, bool) {
	if len(parts) == 0 {
		return n, true
	}
	if obj, ok := n.(*toon.Object); ok {
		for i := len(parts); i > 0; i-- {
			child, ok := obj.Get(strings.Join(parts[:i], "."))
			if !ok {
				continue
			}
			if found, ok := find(child, parts[i:]); ok {
				return found, true
			}
		}
		return nil, false
	}
	child, ok := toon.Get(n, parts[0])
	if !ok {
		return nil, false
	}
	return find(child, parts[1:])
}
