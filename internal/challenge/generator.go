package challenge

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"text/template"
	"time"

	"github.com/google/uuid"

	"github.com/srujan4705/Code-Battle/internal/arena"
)

var promptTemplate = template.Must(template.New("prompt").Parse(`You are a coding challenge generator for a competitive programming platform.
Generate a unique coding challenge with the following structure:

1. Title: A concise title for the challenge
2. Description: A clear explanation of the problem
3. Constraints: Any constraints on input/output or performance requirements
4. Visible Test Cases: 2-3 test cases that will be shown to the user (format: input and expected output pairs)
5. Hidden Test Cases: 2-3 additional test cases that will be used for scoring but not shown to the user
6. Difficulty: Easy, Medium, or Hard

The challenge should be appropriate for a {{.Difficulty}} difficulty level and solvable in {{.Language}}.
Programs read the test input from standard input and print the answer to standard output.
Write each test case as an "Input:" line followed by an "Output:" line.
`))

type GeneratorConfig struct {
	URL         string
	APIKey      string
	Model       string
	Language    string
	Temperature float64
	Timeout     time.Duration
}

// Generator authors challenges through an OpenAI-compatible chat completions
// endpoint and parses the reply with ParseChallenge.
type Generator struct {
	cfg    GeneratorConfig
	client *http.Client
}

func NewGenerator(cfg GeneratorConfig, client *http.Client) *Generator {
	if client == nil {
		client = &http.Client{Timeout: cfg.Timeout}
	}
	if cfg.Language == "" {
		cfg.Language = "javascript"
	}
	return &Generator{cfg: cfg, client: client}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Temperature float64       `json:"temperature"`
	Messages    []chatMessage `json:"messages"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error"`
}

func (g *Generator) Challenge(ctx context.Context, difficulty arena.Difficulty) (arena.Challenge, error) {
	var prompt bytes.Buffer
	err := promptTemplate.Execute(&prompt, map[string]string{
		"Difficulty": strings.ToLower(string(difficulty)),
		"Language":   g.cfg.Language,
	})
	if err != nil {
		return arena.Challenge{}, fmt.Errorf("rendering prompt: %w", err)
	}

	body, err := json.Marshal(chatRequest{
		Model:       g.cfg.Model,
		Temperature: g.cfg.Temperature,
		Messages:    []chatMessage{{Role: "user", Content: prompt.String()}},
	})
	if err != nil {
		return arena.Challenge{}, fmt.Errorf("encoding request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.cfg.URL, bytes.NewReader(body))
	if err != nil {
		return arena.Challenge{}, fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+g.cfg.APIKey)

	resp, err := g.client.Do(req)
	if err != nil {
		return arena.Challenge{}, fmt.Errorf("calling generator: %w", err)
	}
	defer resp.Body.Close()

	var out chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return arena.Challenge{}, fmt.Errorf("decoding generator response (status %d): %w", resp.StatusCode, err)
	}
	if resp.StatusCode != http.StatusOK {
		msg := resp.Status
		if out.Error != nil {
			msg = out.Error.Type + ": " + out.Error.Message
		}
		return arena.Challenge{}, fmt.Errorf("generator returned %s", msg)
	}
	if len(out.Choices) == 0 {
		return arena.Challenge{}, errors.New("generator returned no choices")
	}

	c := ParseChallenge(out.Choices[0].Message.Content)
	if c.Title == "" {
		return arena.Challenge{}, errors.New("generator reply has no title")
	}
	if c.Difficulty == "" {
		c.Difficulty = difficulty
	}
	c.ID = "gen-" + uuid.NewString()
	return c, nil
}
