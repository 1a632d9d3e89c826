package compress

import "strings"

// sampleLimits bounds the members kept from long arrays and objects in data files. A container
// with more members than the limit keeps its first members and a marker for the rest.
type sampleLimits struct {
	arrayMembers  int
	arrayKept     int
	objectMembers int
	objectKept    int
}

var (
	mediumSampleLimits = sampleLimits{arrayMembers: 10, arrayKept: 3, objectMembers: 20, objectKept: 5}
	heavySampleLimits  = sampleLimits{arrayMembers: 3, arrayKept: 1, objectMembers: 5, objectKept: 3}
)

// sampleData shortens every multi-line array and object whose opening bracket ends a line.
// Containers that do not balance are left alone.
func sampleData(lines []line, limits sampleLimits, lang language) []line {
	if !lang.sampled {
		return lines
	}
	result := make([]line, 0, len(lines))
	for index := 0; index < len(lines); {
		current := lines[index]
		opening, isOpener := containerOpening(current, lang)
		if !isOpener {
			result = append(result, current)
			index++
			continue
		}
		closing, balanced := containerEnd(lines, index, lang)
		if !balanced {
			result = append(result, current)
			index++
			continue
		}
		result = append(result, current)
		result = append(result, sampleMembers(lines[index+1:closing], opening, limits, lang)...)
		result = append(result, lines[closing])
		index = closing + 1
	}
	return result
}

func sampleMembers(inner []line, opening byte, limits sampleLimits, lang language) []line {
	members, ok := splitMembers(inner, lang)
	if !ok {
		return inner
	}
	limit, kept := limits.objectMembers, limits.objectKept
	if opening == '[' {
		limit, kept = limits.arrayMembers, limits.arrayKept
	}
	if len(members) > limit {
		var tail []line
		for _, member := range members[kept:] {
			tail = append(tail, member...)
		}
		if marker, collapsed := collapse(tail, reasonDataSample, lang); collapsed {
			result := make([]line, 0, len(inner))
			for _, member := range members[:kept] {
				result = append(result, sampleData(member, limits, lang)...)
			}
			return append(result, marker)
		}
	}
	result := make([]line, 0, len(inner))
	for _, member := range members {
		result = append(result, sampleData(member, limits, lang)...)
	}
	return result
}

// splitMembers groups the lines inside a container into its members. A member starts on every
// non-blank line found at the container's own depth.
func splitMembers(inner []line, lang language) ([][]line, bool) {
	var members [][]line
	depth := 0
	for _, current := range inner {
		if depth == 0 && (len(members) == 0 || !isBlank(current)) {
			members = append(members, nil)
		}
		members[len(members)-1] = append(members[len(members)-1], current)
		depth += containerDelta(current, lang)
		if depth < 0 {
			return nil, false
		}
	}
	return members, depth == 0
}

func containerOpening(current line, lang language) (byte, bool) {
	if current.marker {
		return 0, false
	}
	code := strings.TrimSpace(codeOnly(current.text, lang))
	if code == "" || containerDelta(current, lang) != 1 {
		return 0, false
	}
	last := code[len(code)-1]
	return last, last == '[' || last == '{'
}

func containerEnd(lines []line, start int, lang language) (int, bool) {
	depth := 1
	for index := start + 1; index < len(lines); index++ {
		depth += containerDelta(lines[index], lang)
		if depth == 0 {
			return index, true
		}
		if depth < 0 {
			return 0, false
		}
	}
	return 0, false
}

func containerDelta(current line, lang language) int {
	if current.marker {
		return 0
	}
	code := codeOnly(current.text, lang)
	return delimiterBalance(code, '[', ']') + delimiterBalance(code, '{', '}')
}
