package labels

import (
	"github.com/jinzhu/inflection"
)

const PluralSuffix = "_plural"

// Mapping is the resolved terminology exposed to presentation code: every
// slot plus a "<slot>_plural" entry.
type Mapping map[string]string

// Slots whose plural form equals the singular.
var invariantPlurals = map[string]struct{}{
	FacultyLabel:          {},
	FacultyQuartersLabel:  {},
	FactionQuartersLabel:  {},
	LeaderQuartersLabel:   {},
	AttendeeQuartersLabel: {},
}

// Pluralize returns the plural form of singular for the given slot.
func Pluralize(key, singular string) string {
	if singular == "" {
		return ""
	}
	if _, ok := invariantPlurals[key]; ok {
		return singular
	}
	return inflection.Plural(singular)
}

// Resolve builds the full mapping for l. A nil l yields the defaults.
func Resolve(l *Labels) Mapping {
	m := make(Mapping, len(keys)*2)
	for _, k := range keys {
		v := defaults[k]
		if l != nil {
			if override := l.Get(k); override != "" {
				v = override
			}
		}
		m[k] = v
		m[k+PluralSuffix] = Pluralize(k, v)
	}
	return m
}

func DefaultMapping() Mapping {
	return Resolve(nil)
}

// Clone returns an independent copy of m.
func (m Mapping) Clone() Mapping {
	if m == nil {
		return nil
	}
	out := make(Mapping, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
