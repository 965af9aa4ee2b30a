package mirror

import (
	"path"
	"sort"
)

// Diff returns the remote entries carrying extension ext whose base names
// are absent from the local mirror, sorted for deterministic fetch order.
func Diff(remote []string, local map[string]struct{}, ext string) []string {
	var missing []string
	for _, r := range remote {
		if path.Ext(r) != ext {
			continue
		}
		if _, ok := local[path.Base(r)]; ok {
			continue
		}
		missing = append(missing, r)
	}
	sort.Strings(missing)
	return missing
}
