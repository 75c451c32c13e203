package arena_test

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/srujan4705/Code-Battle/internal/arena"
)

func TestParseDifficulty(t *testing.T) {
	tests := []struct {
		in      string
		want    arena.Difficulty
		wantErr bool
	}{
		{in: "", want: arena.DifficultyMedium},
		{in: "easy", want: arena.DifficultyEasy},
		{in: "MEDIUM", want: arena.DifficultyMedium},
		{in: " Hard ", want: arena.DifficultyHard},
		{in: "insane", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := arena.ParseDifficulty(tt.in)
			if tt.wantErr {
				require.True(t, errors.Is(err, arena.ErrInvalidArgument))
				return
			}
			require.NoError(t, err)
			require.Equal(t, tt.want, got)
		})
	}
}

func TestChallengePublicHidesHiddenCases(t *testing.T) {
	c := arena.Challenge{
		Title:            "Echo",
		VisibleTestCases: []arena.TestCase{{Input: "a", ExpectedOutput: "a"}},
		HiddenTestCases:  []arena.TestCase{{Input: "b", ExpectedOutput: "b"}, {Input: "c", ExpectedOutput: "c"}},
	}

	pub := c.Public()
	require.Equal(t, 2, pub.HiddenTestCount)
	require.Len(t, pub.VisibleTestCases, 1)

	data, err := json.Marshal(pub)
	require.NoError(t, err)
	require.NotContains(t, string(data), "hiddenTestCases")
}

func TestTestCaseAcceptsLegacyExpectedKey(t *testing.T) {
	var tc arena.TestCase
	require.NoError(t, json.Unmarshal([]byte(`{"input":"121","expected":"true"}`), &tc))
	require.Equal(t, "true", tc.ExpectedOutput)

	require.NoError(t, json.Unmarshal([]byte(`{"input":"1","expectedOutput":"x","expected":"y"}`), &tc))
	require.Equal(t, "x", tc.ExpectedOutput)
}

func TestGradeReportRedacted(t *testing.T) {
	report := arena.GradeReport{
		Submission: true,
		Results: []arena.TestResult{
			{Input: "a", ExpectedOutput: "a", ActualOutput: "a", Passed: true},
			{Input: "b", ExpectedOutput: "b", ActualOutput: "x", ExitStatus: 0, Hidden: true},
			{Input: "c", ExpectedOutput: "c", ErrorText: "connection reset", ExitStatus: -1, Hidden: true},
			{Input: "d", ExpectedOutput: "d", ErrorText: "Traceback: d", ExitStatus: 1, Hidden: true},
		},
	}

	got := report.Redacted()
	require.Equal(t, report.Results[0], got.Results[0])
	require.Equal(t, []arena.TestResult{
		{Hidden: true, ErrorText: "wrong answer"},
		{Hidden: true, ExitStatus: -1, ErrorText: "execution failed"},
		{Hidden: true, ExitStatus: 1, ErrorText: "non-zero exit status"},
	}, got.Results[1:])
	require.Equal(t, "b", report.Results[1].Input, "original is untouched")
}
