package catalog

// MergeUnique concatenates the supplied result lists keeping only the first
// occurrence of each track key. When limit is positive the merged slice is
// truncated to that many entries.
func MergeUnique(limit int, lists ...[]Track) []Track {
	seen := make(map[string]struct{})
	var merged []Track
	for _, list := range lists {
		for _, t := range list {
			key := t.Key()
			if _, ok := seen[key]; ok {
				continue
			}
			seen[key] = struct{}{}
			merged = append(merged, t)
		}
	}
	if limit > 0 && len(merged) > limit {
		merged = merged[:limit]
	}
	return merged
}
