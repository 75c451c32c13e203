package server

import (
	"context"
	"io"
	"log/slog"
	"net/http/httptest"
	"slices"
	"testing"

	"github.com/srujan4705/Code-Battle/internal/executor"
	"github.com/srujan4705/Code-Battle/internal/game"
	"github.com/srujan4705/Code-Battle/internal/grading"
	"github.com/srujan4705/Code-Battle/internal/ratelimit"
)

// reverser is a code runner whose every program prints stdin reversed.
type reverser struct{}

func (reverser) Execute(_ context.Context, req executor.Request) (executor.Result, error) {
	r := []rune(req.Stdin)
	slices.Reverse(r)
	code := 0
	return executor.Result{Run: executor.Stage{Stdout: string(r) + "\n", Code: &code}}, nil
}

type testEnv struct {
	*httptest.Server
	rooms *game.Registry
}

func newTestEnv(t *testing.T, langs LanguageLister, limiter ratelimit.Limiter) *testEnv {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	rooms := game.NewRegistry(logger, nil)
	if limiter == nil {
		limiter = ratelimit.NewLocal(600, 100)
	}

	s := New(":0", logger, Deps{
		Rooms:     rooms,
		Grader:    grading.New(reverser{}, rooms, logger),
		Limiter:   limiter,
		Languages: langs,
	})
	return &testEnv{Server: httptest.NewServer(s.srv.Handler), rooms: rooms}
}

func newTestServer(t *testing.T, langs LanguageLister) *httptest.Server {
	return newTestEnv(t, langs, nil).Server
}
