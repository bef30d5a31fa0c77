package schema

// Filter selects which tables a parse keeps.
type Filter struct {
	Include map[string]bool
	Exclude map[string]bool
}

// NewFilter builds a Filter from include and exclude name lists.
// Empty names are ignored.
func NewFilter(include, exclude []string) Filter {
	return Filter{
		Include: toSet(include),
		Exclude: toSet(exclude),
	}
}

// Skip reports whether the table named name is filtered out.
func (f Filter) Skip(name string) bool {
	if len(f.Include) > 0 && !f.Include[name] {
		return true
	}
	return len(f.Exclude) > 0 && f.Exclude[name]
}

func toSet(names []string) map[string]bool {
	if len(names) == 0 {
		return nil
	}
	set := make(map[string]bool, len(names))
	for _, n := range names {
		if n != "" {
			set[n] = true
		}
	}
	return set
}
