// Package tags turns free-text task input such as "Write report #Work #docs"
// into a task name and a canonical tag list.
//
// A tag list is the cleaned tags joined with " #" and carries no leading '#':
// "work #docs".
package tags

import "strings"

// Separator joins tags inside a tag list.
const Separator = " #"

// Normalize splits raw input into the task name (text before the first '#')
// and its tag list. Tags are trimmed, lowercased, stripped of empties and
// de-duplicated keeping the first occurrence. Empty input yields two empty
// strings; rejecting an empty name is up to the caller.
func Normalize(input string) (name, tagList string) {
	parts := strings.Split(strings.TrimSpace(input), "#")
	name = strings.TrimSpace(parts[0])
	return name, strings.Join(clean(parts[1:]), Separator)
}

// NormalizeTags cleans a tags-only field ("#Work #docs" or "work #docs").
func NormalizeTags(raw string) string {
	if strings.TrimSpace(raw) == "" {
		return ""
	}
	return strings.Join(clean(strings.Split(raw, "#")), Separator)
}

// Split breaks a stored tag list back into individual tags.
func Split(tagList string) []string {
	return clean(strings.Split(tagList, "#"))
}

// Join rebuilds task input from a name and a tag list, the inverse of Normalize.
func Join(name, tagList string) string {
	if strings.TrimSpace(tagList) == "" {
		return name
	}
	return name + " #" + tagList
}

func clean(parts []string) []string {
	seen := make(map[string]bool, len(parts))
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		tag := strings.ToLower(strings.TrimSpace(p))
		if tag == "" || seen[tag] {
			continue
		}
		seen[tag] = true
		out = append(out, tag)
	}
	return out
}
