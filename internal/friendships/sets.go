package friendships

// intersectCount returns how many distinct ids appear in both a and b,
// ignoring any id listed in exclude.
func intersectCount(a, b []string, exclude ...string) int {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	if len(b) < len(a) {
		a, b = b, a
	}

	set := make(map[string]struct{}, len(a))
	for _, id := range a {
		set[id] = struct{}{}
	}
	for _, id := range exclude {
		delete(set, id)
	}

	count := 0
	for _, id := range b {
		if _, ok := set[id]; ok {
			count++
			delete(set, id)
		}
	}
	return count
}
