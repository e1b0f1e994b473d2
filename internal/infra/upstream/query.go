package upstream

import (
	"fmt"
	"net/url"
	"sort"
)

// EncodeQuery flattens a nested parameter object into the bracketed form the
// upstream expects, e.g. filters[price][conditions][$more_than]=5000. Keys
// are emitted in sorted order so encoded queries are deterministic.
func EncodeQuery(params map[string]any) string {
	pairs := flattenPairs("", params)
	values := url.Values{}
	for _, p := range pairs {
		values.Add(p.key, p.value)
	}
	return values.Encode()
}

type pair struct {
	key   string
	value string
}

func flattenPairs(prefix string, value any) []pair {
	switch v := value.(type) {
	case map[string]any:
		keys := make([]string, 0, len(v))
		for k := range v {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		var out []pair
		for _, k := range keys {
			child := k
			if prefix != "" {
				child = fmt.Sprintf("%s[%s]", prefix, k)
			}
			out = append(out, flattenPairs(child, v[k])...)
		}
		return out
	case []any:
		var out []pair
		for i, item := range v {
			out = append(out, flattenPairs(fmt.Sprintf("%s[%d]", prefix, i), item)...)
		}
		return out
	case nil:
		return nil
	default:
		return []pair{{key: prefix, value: fmt.Sprintf("%v", v)}}
	}
}
