// Package arena defines the core domain types shared by the coordinator.
// It has zero external dependencies.
package arena

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// MaxPlayers is the hard cap on players in a room.
const MaxPlayers = 4

type Difficulty string

const (
	DifficultyEasy   Difficulty = "Easy"
	DifficultyMedium Difficulty = "Medium"
	DifficultyHard   Difficulty = "Hard"
)

// ParseDifficulty accepts any casing of easy, medium or hard. An empty string
// yields Medium.
func ParseDifficulty(s string) (Difficulty, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "":
		return DifficultyMedium, nil
	case "easy":
		return DifficultyEasy, nil
	case "medium":
		return DifficultyMedium, nil
	case "hard":
		return DifficultyHard, nil
	}
	return "", fmt.Errorf("difficulty %q: %w", s, ErrInvalidArgument)
}

type Player struct {
	ConnectionID string `json:"socketId"`
	Username     string `json:"username"`
}

type TestCase struct {
	Input          string `json:"input"`
	ExpectedOutput string `json:"expectedOutput"`
}

// UnmarshalJSON also accepts the catalog's legacy "expected" key.
func (tc *TestCase) UnmarshalJSON(data []byte) error {
	var raw struct {
		Input          string `json:"input"`
		ExpectedOutput string `json:"expectedOutput"`
		Expected       string `json:"expected"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	tc.Input = raw.Input
	tc.ExpectedOutput = raw.ExpectedOutput
	if tc.ExpectedOutput == "" {
		tc.ExpectedOutput = raw.Expected
	}
	return nil
}

type Challenge struct {
	ID               string     `json:"id,omitempty"`
	Title            string     `json:"title"`
	Description      string     `json:"description"`
	Constraints      string     `json:"constraints"`
	Difficulty       Difficulty `json:"difficulty"`
	VisibleTestCases []TestCase `json:"visibleTestCases"`
	HiddenTestCases  []TestCase `json:"hiddenTestCases"`
	ExampleInput     string     `json:"exampleInput,omitempty"`
	ExampleOutput    string     `json:"exampleOutput,omitempty"`
}

// PublicChallenge is the projection of a Challenge that is safe to send to
// players: hidden test cases are reduced to a count.
type PublicChallenge struct {
	ID               string     `json:"id,omitempty"`
	Title            string     `json:"title"`
	Description      string     `json:"description"`
	Constraints      string     `json:"constraints"`
	Difficulty       Difficulty `json:"difficulty"`
	VisibleTestCases []TestCase `json:"visibleTestCases"`
	HiddenTestCount  int        `json:"hiddenTestCount"`
	ExampleInput     string     `json:"exampleInput,omitempty"`
	ExampleOutput    string     `json:"exampleOutput,omitempty"`
}

func (c Challenge) Public() PublicChallenge {
	return PublicChallenge{
		ID:               c.ID,
		Title:            c.Title,
		Description:      c.Description,
		Constraints:      c.Constraints,
		Difficulty:       c.Difficulty,
		VisibleTestCases: append([]TestCase(nil), c.VisibleTestCases...),
		HiddenTestCount:  len(c.HiddenTestCases),
		ExampleInput:     c.ExampleInput,
		ExampleOutput:    c.ExampleOutput,
	}
}

// Clone returns a copy that shares no slices with c.
func (c Challenge) Clone() Challenge {
	c.VisibleTestCases = append([]TestCase(nil), c.VisibleTestCases...)
	c.HiddenTestCases = append([]TestCase(nil), c.HiddenTestCases...)
	return c
}

// TestResult is the outcome of running one test case.
type TestResult struct {
	Input          string `json:"input"`
	ExpectedOutput string `json:"expected"`
	ActualOutput   string `json:"actual"`
	Passed         bool   `json:"passed"`
	ErrorText      string `json:"error,omitempty"`
	ExitStatus     int    `json:"exitStatus"`
	Hidden         bool   `json:"hidden"`
}

// GradeReport aggregates the results of one run or submission, in test case
// order. For submissions the visible results come first.
type GradeReport struct {
	Submission   bool         `json:"isSubmission"`
	VisibleCount int          `json:"visibleCount"`
	HiddenCount  int          `json:"hiddenCount"`
	TotalCount   int          `json:"totalCount"`
	PassedCount  int          `json:"passedCount"`
	Results      []TestResult `json:"results"`
	GradedAt     time.Time    `json:"gradedAt"`
}

// Redacted returns a copy of the report that is safe to send to the player.
// Hidden results keep their outcome and exit status but lose their input,
// expected and actual output, and error details.
func (r GradeReport) Redacted() GradeReport {
	r.Results = append([]TestResult(nil), r.Results...)
	for i, res := range r.Results {
		if !res.Hidden {
			continue
		}
		r.Results[i] = TestResult{
			Passed:     res.Passed,
			ExitStatus: res.ExitStatus,
			ErrorText:  failureClass(res),
			Hidden:     true,
		}
	}
	return r
}

func failureClass(res TestResult) string {
	switch {
	case res.Passed:
		return ""
	case res.ExitStatus == -1:
		return "execution failed"
	case res.ExitStatus != 0:
		return "non-zero exit status"
	default:
		return "wrong answer"
	}
}
