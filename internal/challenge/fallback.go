package challenge

import "github.com/srujan4705/Code-Battle/internal/arena"

// Fallback is the built-in challenge used when no source can provide one. It
// is the same for every difficulty so that a match can always start.
func Fallback() arena.Challenge {
	return arena.Challenge{
		ID:          "builtin-reverse-string",
		Title:       "Reverse a String",
		Description: "Read a single string from standard input and print it reversed.",
		Constraints: "1 <= length <= 10^5. The input consists of printable ASCII characters.",
		Difficulty:  arena.DifficultyEasy,
		VisibleTestCases: []arena.TestCase{
			{Input: `"hello"`, ExpectedOutput: `"olleh"`},
			{Input: `"world"`, ExpectedOutput: `"dlrow"`},
		},
		HiddenTestCases: []arena.TestCase{
			{Input: `"javascript"`, ExpectedOutput: `"tpircsavaj"`},
			{Input: `"algorithm"`, ExpectedOutput: `"mhtirogla"`},
		},
		ExampleInput:  `"hello"`,
		ExampleOutput: `"olleh"`,
	}
}
