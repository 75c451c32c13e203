// Package grading runs a player's program against the active challenge and
// feeds the results into the room's score bookkeeping.
package grading

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/srujan4705/Code-Battle/internal/arena"
	"github.com/srujan4705/Code-Battle/internal/executor"
	"github.com/srujan4705/Code-Battle/internal/game"
)

// Runner dispatches one program execution.
type Runner interface {
	Execute(ctx context.Context, req executor.Request) (executor.Result, error)
}

// Board is the part of the registry the pipeline reads from and scores into.
type Board interface {
	ActiveChallenge(roomID string) (arena.Challenge, int, error)
	ApplyGrade(roomID, connID string, round int, report arena.GradeReport) (int, []game.Event)
}

type Request struct {
	RoomID     string
	ConnID     string
	Language   string
	SourceCode string
	Submission bool
}

// Outcome is what the player gets back. Hidden results in Report are
// redacted.
type Outcome struct {
	Report  arena.GradeReport
	Awarded int
	Events  []game.Event
}

type Pipeline struct {
	runner Runner
	board  Board
	logger *slog.Logger
	now    func() time.Time
}

func New(runner Runner, board Board, logger *slog.Logger) *Pipeline {
	return &Pipeline{runner: runner, board: board, logger: logger, now: time.Now}
}

// Grade executes every selected test case in order. A run uses the visible
// cases; a submission uses visible then hidden. Execution failures fail the
// case and grading continues. In-flight executions are not cancelled when
// ctx is.
func (p *Pipeline) Grade(ctx context.Context, req Request) (Outcome, error) {
	if strings.TrimSpace(req.Language) == "" {
		return Outcome{}, fmt.Errorf("language is required: %w", arena.ErrInvalidArgument)
	}
	if strings.TrimSpace(req.SourceCode) == "" {
		return Outcome{}, fmt.Errorf("source code is required: %w", arena.ErrInvalidArgument)
	}

	ch, round, err := p.board.ActiveChallenge(req.RoomID)
	if err != nil {
		return Outcome{}, err
	}

	cases := ch.VisibleTestCases
	report := arena.GradeReport{
		Submission:   req.Submission,
		VisibleCount: len(ch.VisibleTestCases),
	}
	if req.Submission {
		cases = append(cases[:len(cases):len(cases)], ch.HiddenTestCases...)
		report.HiddenCount = len(ch.HiddenTestCases)
	}

	ctx = context.WithoutCancel(ctx)
	report.Results = make([]arena.TestResult, 0, len(cases))
	for i, tc := range cases {
		res := p.runCase(ctx, req, tc)
		res.Hidden = i >= report.VisibleCount
		if res.Passed {
			report.PassedCount++
		}
		report.Results = append(report.Results, res)
	}
	report.TotalCount = len(report.Results)
	report.GradedAt = p.now()

	var out Outcome
	if req.ConnID != "" {
		out.Awarded, out.Events = p.board.ApplyGrade(req.RoomID, req.ConnID, round, report)
	}
	out.Report = report.Redacted()

	p.logger.Info("graded",
		"room", req.RoomID,
		"conn", req.ConnID,
		"language", req.Language,
		"submission", req.Submission,
		"passed", report.PassedCount,
		"total", report.TotalCount,
		"awarded", out.Awarded,
	)
	return out, nil
}

func (p *Pipeline) runCase(ctx context.Context, req Request, tc arena.TestCase) arena.TestResult {
	input := Unquote(tc.Input)
	result := arena.TestResult{
		Input:          input,
		ExpectedOutput: tc.ExpectedOutput,
	}

	res, err := p.runner.Execute(ctx, executor.Request{
		Language: req.Language,
		Version:  "*",
		Files:    []executor.File{{Content: req.SourceCode}},
		Stdin:    input,
	})
	if err != nil {
		p.logger.Warn("execution failed", "room", req.RoomID, "language", req.Language, "error", err)
		result.ErrorText = err.Error()
		result.ExitStatus = -1
		return result
	}

	if res.Compile != nil && res.Compile.ExitCode() != 0 {
		result.ActualOutput = res.Compile.Stdout
		result.ErrorText = firstNonEmpty(res.Compile.Stderr, res.Compile.Output, "compilation failed")
		result.ExitStatus = res.Compile.ExitCode()
		return result
	}

	result.ActualOutput = res.Run.Stdout
	result.ExitStatus = res.Run.ExitCode()
	result.ErrorText = res.Run.Stderr
	if result.ErrorText == "" && res.Run.Signal != nil {
		result.ErrorText = "killed by " + *res.Run.Signal
	}
	result.Passed = Passed(result.ExitStatus, res.Run.Stdout, tc.ExpectedOutput)
	return result
}

// Passed is the pass rule: a clean exit and stdout equal to the expected
// output, both trimmed, with one pair of enclosing quotes removed from the
// expected side.
func Passed(exitStatus int, stdout, expected string) bool {
	return exitStatus == 0 && strings.TrimSpace(stdout) == strings.TrimSpace(Unquote(expected))
}

// Unquote strips one pair of matching enclosing quotes. Anything else is
// returned unchanged.
func Unquote(s string) string {
	t := strings.TrimSpace(s)
	if len(t) >= 2 {
		if q := t[0]; (q == '"' || q == '\'') && t[len(t)-1] == q {
			return t[1 : len(t)-1]
		}
	}
	return s
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
