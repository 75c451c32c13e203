package challenge

import (
	"regexp"
	"strings"

	"github.com/srujan4705/Code-Battle/internal/arena"
)

var examplePattern = regexp.MustCompile(`(?i)Example(?:\s+Input)?:\s*([\s\S]*?)\s*Example(?:\s+Output)?:\s*([\s\S]*?)(?:\n\n|$)`)

type section int

const (
	sectionNone section = iota
	sectionTitle
	sectionDescription
	sectionConstraints
	sectionVisible
	sectionHidden
	sectionDifficulty
)

var headings = []struct {
	prefix string
	sec    section
}{
	{"Title:", sectionTitle},
	{"Description:", sectionDescription},
	{"Constraints:", sectionConstraints},
	{"Visible Test Cases:", sectionVisible},
	{"Hidden Test Cases:", sectionHidden},
	{"Difficulty:", sectionDifficulty},
}

// ParseChallenge reads the sectioned text format produced by the generator
// prompt. Missing test cases are synthesized so the result is always gradable.
func ParseChallenge(text string) arena.Challenge {
	var (
		c       arena.Challenge
		cur     = sectionNone
		pending *string
		diff    string
	)
	fields := map[section]*string{
		sectionTitle:       &c.Title,
		sectionDescription: &c.Description,
		sectionConstraints: &c.Constraints,
		sectionDifficulty:  &diff,
	}

	for _, line := range strings.Split(text, "\n") {
		trimmed := strings.TrimSpace(line)
		if sec, rest, ok := heading(trimmed); ok {
			cur = sec
			pending = nil
			if f, ok := fields[sec]; ok {
				*f = rest
			}
			continue
		}
		if trimmed == "" {
			continue
		}

		switch cur {
		case sectionTitle, sectionDescription, sectionConstraints, sectionDifficulty:
			if f := fields[cur]; *f != "" {
				*f += "\n" + trimmed
			}
		case sectionVisible, sectionHidden:
			if in, ok := after(trimmed, "Input:"); ok {
				pending = &in
				continue
			}
			if out, ok := after(trimmed, "Output:"); ok && pending != nil {
				tc := arena.TestCase{Input: *pending, ExpectedOutput: out}
				if cur == sectionVisible {
					c.VisibleTestCases = append(c.VisibleTestCases, tc)
				} else {
					c.HiddenTestCases = append(c.HiddenTestCases, tc)
				}
				pending = nil
			}
		}
	}

	if d, err := arena.ParseDifficulty(diff); err == nil && diff != "" {
		c.Difficulty = d
	}

	if len(c.VisibleTestCases) == 0 {
		tc := arena.TestCase{Input: "sample input", ExpectedOutput: "sample output"}
		if m := examplePattern.FindStringSubmatch(c.Description); m != nil && m[1] != "" && m[2] != "" {
			tc = arena.TestCase{Input: strings.TrimSpace(m[1]), ExpectedOutput: strings.TrimSpace(m[2])}
		}
		c.VisibleTestCases = append(c.VisibleTestCases, tc)
	}

	if len(c.HiddenTestCases) == 0 {
		base := c.VisibleTestCases[0]
		for _, suffix := range []string{" (modified for hidden case 1)", " (modified for hidden case 2)"} {
			c.HiddenTestCases = append(c.HiddenTestCases, arena.TestCase{
				Input:          base.Input + suffix,
				ExpectedOutput: base.ExpectedOutput + suffix,
			})
		}
	}

	return c
}

func heading(line string) (section, string, bool) {
	for _, h := range headings {
		if rest, ok := strings.CutPrefix(line, h.prefix); ok {
			return h.sec, strings.TrimSpace(rest), true
		}
	}
	return sectionNone, "", false
}

// after returns the text following marker anywhere in line, so that list
// prefixes such as "1. Input:" are tolerated.
func after(line, marker string) (string, bool) {
	i := strings.Index(line, marker)
	if i < 0 {
		return "", false
	}
	return strings.TrimSpace(line[i+len(marker):]), true
}
