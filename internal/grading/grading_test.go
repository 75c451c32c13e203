package grading_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/srujan4705/Code-Battle/internal/arena"
	"github.com/srujan4705/Code-Battle/internal/executor"
	"github.com/srujan4705/Code-Battle/internal/game"
	"github.com/srujan4705/Code-Battle/internal/grading"
)

// fakeRunner answers from a stdin -> stdout table. Unknown inputs exit 1.
type fakeRunner struct {
	mu      sync.Mutex
	outputs map[string]string
	fail    map[string]error
	stdins  []string
}

func (f *fakeRunner) Execute(ctx context.Context, req executor.Request) (executor.Result, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.stdins = append(f.stdins, req.Stdin)
	if err := f.fail[req.Stdin]; err != nil {
		return executor.Result{}, err
	}
	out, ok := f.outputs[req.Stdin]
	code := 0
	if !ok {
		code = 1
	}
	return executor.Result{Run: executor.Stage{Stdout: out, Code: &code}}, nil
}

type source arena.Challenge

func (s source) Challenge(context.Context, arena.Difficulty) (arena.Challenge, error) {
	return arena.Challenge(s), nil
}

var reverse = arena.Challenge{
	Title: "Reverse",
	VisibleTestCases: []arena.TestCase{
		{Input: `"hello"`, ExpectedOutput: `"olleh"`},
		{Input: "world", ExpectedOutput: "dlrow"},
	},
	HiddenTestCases: []arena.TestCase{
		{Input: "abc", ExpectedOutput: "cba"},
		{Input: "go", ExpectedOutput: "og"},
	},
}

func setup(t *testing.T, runner grading.Runner) (*grading.Pipeline, *game.Registry) {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	reg := game.NewRegistry(logger, source(reverse))
	_, _, err := reg.Enter("abc", "A", "alice", "")
	require.NoError(t, err)
	_, _, err = reg.Enter("abc", "B", "bob", "")
	require.NoError(t, err)
	_, err = reg.StartMatch(context.Background(), "abc", "A")
	require.NoError(t, err)
	return grading.New(runner, reg, logger), reg
}

func scoreOf(t *testing.T, reg *game.Registry, conn string) int {
	t.Helper()
	st, ok := reg.Get("abc")
	require.True(t, ok)
	return st.Match.Scores[conn]
}

func TestGradeScoringExample(t *testing.T) {
	req := require.New(t)
	runner := &fakeRunner{outputs: map[string]string{"hello": "olleh\n"}}
	p, reg := setup(t, runner)
	ctx := context.Background()
	run := grading.Request{RoomID: "abc", ConnID: "A", Language: "python", SourceCode: "print(input()[::-1])"}

	out, err := p.Grade(ctx, run)
	req.NoError(err)
	req.Equal(2, out.Report.TotalCount)
	req.Equal(1, out.Report.PassedCount)
	req.Equal(1, out.Awarded)
	req.Len(out.Events, 1)
	req.Equal([]string{"hello", "world"}, runner.stdins, "enclosing quotes are stripped from input")
	req.Equal(1, scoreOf(t, reg, "A"))

	out, err = p.Grade(ctx, run)
	req.NoError(err)
	req.Zero(out.Awarded)
	req.Empty(out.Events)
	req.Equal(1, scoreOf(t, reg, "A"))

	runner.outputs = map[string]string{"hello": "olleh", "world": "dlrow", "abc": "cba", "go": "og"}
	submit := run
	submit.Submission = true
	out, err = p.Grade(ctx, submit)
	req.NoError(err)
	req.Equal(4, out.Report.TotalCount)
	req.Equal(4, out.Report.PassedCount)
	req.Equal(2, out.Report.VisibleCount)
	req.Equal(2, out.Report.HiddenCount)
	req.Equal([]bool{false, false, true, true}, []bool{
		out.Report.Results[0].Hidden, out.Report.Results[1].Hidden,
		out.Report.Results[2].Hidden, out.Report.Results[3].Hidden,
	})
	req.Equal(20, out.Awarded)
	req.Equal(21, scoreOf(t, reg, "A"))
}

func TestGradeRedactsHiddenResults(t *testing.T) {
	req := require.New(t)
	runner := &fakeRunner{outputs: map[string]string{"hello": "olleh", "world": "dlrow", "abc": "cba"}}
	p, reg := setup(t, runner)

	out, err := p.Grade(context.Background(), grading.Request{
		RoomID: "abc", ConnID: "A", Language: "python", SourceCode: "x", Submission: true,
	})
	req.NoError(err)
	req.Len(out.Report.Results, 4)

	visible := out.Report.Results[1]
	req.Equal("world", visible.Input)
	req.Equal("dlrow", visible.ExpectedOutput)

	req.Equal(arena.TestResult{Passed: true, Hidden: true}, out.Report.Results[2])
	req.Equal(arena.TestResult{ExitStatus: 1, ErrorText: "non-zero exit status", Hidden: true}, out.Report.Results[3])

	req.Equal(10, out.Awarded, "scoring uses the unredacted results")
	req.Equal(10, scoreOf(t, reg, "A"))
}

func TestGradeDispatchFailureContinues(t *testing.T) {
	req := require.New(t)
	runner := &fakeRunner{
		outputs: map[string]string{"world": "dlrow"},
		fail:    map[string]error{"hello": errors.New("connection reset")},
	}
	p, _ := setup(t, runner)

	out, err := p.Grade(context.Background(), grading.Request{
		RoomID: "abc", ConnID: "A", Language: "python", SourceCode: "x",
	})
	req.NoError(err)
	req.Len(out.Report.Results, 2)

	first := out.Report.Results[0]
	req.False(first.Passed)
	req.Equal(-1, first.ExitStatus)
	req.Equal("connection reset", first.ErrorText)

	req.True(out.Report.Results[1].Passed)
	req.Equal(1, out.Awarded, "visible index 1 is credited")
}

func TestGradeNonZeroExitFails(t *testing.T) {
	req := require.New(t)
	code := 1
	runner := &stageRunner{stage: executor.Stage{Stdout: "olleh", Stderr: "Traceback", Code: &code}}
	p, _ := setup(t, runner)

	out, err := p.Grade(context.Background(), grading.Request{
		RoomID: "abc", ConnID: "A", Language: "python", SourceCode: "x",
	})
	req.NoError(err)
	req.False(out.Report.Results[0].Passed)
	req.Equal("Traceback", out.Report.Results[0].ErrorText)
	req.Equal(1, out.Report.Results[0].ExitStatus)
}

func TestGradeCompileError(t *testing.T) {
	req := require.New(t)
	code, zero := 1, 0
	runner := &stageRunner{
		compile: &executor.Stage{Stderr: "syntax error", Code: &code},
		stage:   executor.Stage{Stdout: "olleh", Code: &zero},
	}
	p, _ := setup(t, runner)

	out, err := p.Grade(context.Background(), grading.Request{
		RoomID: "abc", ConnID: "A", Language: "c", SourceCode: "int main(",
	})
	req.NoError(err)
	req.Zero(out.Report.PassedCount)
	req.Equal("syntax error", out.Report.Results[0].ErrorText)
}

type stageRunner struct {
	compile *executor.Stage
	stage   executor.Stage
}

func (s *stageRunner) Execute(context.Context, executor.Request) (executor.Result, error) {
	return executor.Result{Compile: s.compile, Run: s.stage}, nil
}

func TestGradeValidation(t *testing.T) {
	p, _ := setup(t, &fakeRunner{})
	tests := []struct {
		name string
		req  grading.Request
		want error
	}{
		{name: "no language", req: grading.Request{RoomID: "abc", SourceCode: "x"}, want: arena.ErrInvalidArgument},
		{name: "no source", req: grading.Request{RoomID: "abc", Language: "go", SourceCode: " "}, want: arena.ErrInvalidArgument},
		{name: "no room", req: grading.Request{RoomID: "nope", Language: "go", SourceCode: "x"}, want: arena.ErrNoActiveChallenge},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := p.Grade(context.Background(), tt.req)
			require.True(t, errors.Is(err, tt.want), "got %v", err)
		})
	}
}

func TestGradeAfterStopAwardsNothing(t *testing.T) {
	req := require.New(t)
	runner := &fakeRunner{outputs: map[string]string{"hello": "olleh", "world": "dlrow"}}
	p, reg := setup(t, runner)
	_, err := reg.StopMatch("abc", "A")
	req.NoError(err)

	out, err := p.Grade(context.Background(), grading.Request{
		RoomID: "abc", ConnID: "A", Language: "python", SourceCode: "x",
	})
	req.NoError(err)
	req.Equal(2, out.Report.PassedCount)
	req.Zero(out.Awarded)
}

func TestGradeWithoutConnectionDoesNotScore(t *testing.T) {
	runner := &fakeRunner{outputs: map[string]string{"hello": "olleh", "world": "dlrow"}}
	p, reg := setup(t, runner)

	out, err := p.Grade(context.Background(), grading.Request{RoomID: "abc", Language: "python", SourceCode: "x"})
	require.NoError(t, err)
	require.Zero(t, out.Awarded)
	require.Zero(t, scoreOf(t, reg, "A"))
}

func TestPassed(t *testing.T) {
	tests := []struct {
		name     string
		exit     int
		stdout   string
		expected string
		want     bool
	}{
		{name: "exact", stdout: "42", expected: "42", want: true},
		{name: "trailing newline", stdout: "42\n", expected: " 42 ", want: true},
		{name: "quoted expected", stdout: "olleh", expected: `"olleh"`, want: true},
		{name: "single quotes", stdout: "olleh", expected: "'olleh'", want: true},
		{name: "mismatched quotes", stdout: "olleh", expected: `"olleh'`, want: false},
		{name: "non-zero exit", exit: 1, stdout: "42", expected: "42", want: false},
		{name: "different", stdout: "41", expected: "42", want: false},
		{name: "only one pair stripped", stdout: `"x"`, expected: `""x""`, want: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, grading.Passed(tt.exit, tt.stdout, tt.expected))
		})
	}
}
