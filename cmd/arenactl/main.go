// Command arenactl inspects a running coordinator and manages the challenge
// database.
//
//	arenactl [-addr URL] rooms
//	arenactl [-addr URL] room <id>
//	arenactl [-addr URL] languages
//	arenactl [-db PATH] challenges
//	arenactl [-db PATH] seed [-force] [file]
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"sort"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/olekukonko/tablewriter"
	"github.com/samber/lo"

	"github.com/srujan4705/Code-Battle/internal/arena"
	"github.com/srujan4705/Code-Battle/internal/challenge"
	"github.com/srujan4705/Code-Battle/internal/database"
	"github.com/srujan4705/Code-Battle/internal/executor"
	"github.com/srujan4705/Code-Battle/internal/game"
	"github.com/srujan4705/Code-Battle/internal/migrations"
)

var errUsage = errors.New("usage: arenactl [-addr URL] [-db PATH] rooms|room <id>|languages|challenges|seed [-force] [file]")

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, os.Args[1:], os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, stdout io.Writer) error {
	fs := flag.NewFlagSet("arenactl", flag.ContinueOnError)
	addr := fs.String("addr", envOr("ARENA_ADDR", "http://localhost:5000"), "coordinator base URL")
	dbPath := fs.String("db", envOr("DB_PATH", "data/challenges.db"), "challenge database path")
	if err := fs.Parse(args); err != nil {
		return err
	}

	rest := fs.Args()
	if len(rest) == 0 {
		return errUsage
	}

	c := &client{base: strings.TrimRight(*addr, "/"), http: &http.Client{Timeout: 10 * time.Second}}

	switch rest[0] {
	case "rooms":
		return c.rooms(ctx, stdout)
	case "room":
		if len(rest) != 2 {
			return errUsage
		}
		return c.room(ctx, stdout, rest[1])
	case "languages":
		return c.languages(ctx, stdout)
	case "challenges":
		return challenges(ctx, stdout, *dbPath)
	case "seed":
		return seed(ctx, stdout, *dbPath, rest[1:])
	default:
		return errUsage
	}
}

type client struct {
	base string
	http *http.Client
}

func (c *client) get(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.base+path, nil)
	if err != nil {
		return err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		var body struct {
			Error string `json:"error"`
		}
		json.NewDecoder(resp.Body).Decode(&body)
		return fmt.Errorf("GET %s: %s: %s", path, resp.Status, body.Error)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func (c *client) rooms(ctx context.Context, w io.Writer) error {
	var rooms []game.RoomSummary
	if err := c.get(ctx, "/api/rooms", &rooms); err != nil {
		return err
	}

	table := newTable(w, "ID", "Name", "Difficulty", "Players", "Match", "Created")
	for _, rm := range rooms {
		table.Append([]string{
			rm.ID,
			rm.Name,
			string(rm.Difficulty),
			strconv.Itoa(rm.PlayerCount),
			lo.Ternary(rm.MatchStarted, "running", "idle"),
			rm.CreatedAt.Format(time.RFC3339),
		})
	}
	table.Render()
	return nil
}

func (c *client) room(ctx context.Context, w io.Writer, id string) error {
	var state game.RoomState
	if err := c.get(ctx, "/api/rooms/"+url.PathEscape(id), &state); err != nil {
		return err
	}

	fmt.Fprintf(w, "%s (%s), %s, round %d\n", state.Name, state.ID, state.Difficulty, state.Match.Round)
	if ch := state.Match.Challenge; ch != nil {
		fmt.Fprintf(w, "challenge: %s\n", ch.Title)
	}

	table := newTable(w, "Connection", "Username", "Score", "Creator", "Code")
	for _, p := range state.Players {
		table.Append([]string{
			p.ConnectionID,
			p.Username,
			strconv.Itoa(state.Match.Scores[p.ConnectionID]),
			lo.Ternary(p.ConnectionID == state.CreatorConnectionID, "yes", ""),
			strconv.Itoa(len(state.Codes[p.ConnectionID])) + " bytes",
		})
	}
	table.Render()
	return nil
}

func (c *client) languages(ctx context.Context, w io.Writer) error {
	var runtimes []executor.Runtime
	if err := c.get(ctx, "/api/languages", &runtimes); err != nil {
		return err
	}
	sort.Slice(runtimes, func(i, j int) bool { return runtimes[i].Language < runtimes[j].Language })

	table := newTable(w, "Language", "Version", "Aliases")
	for _, rt := range runtimes {
		table.Append([]string{rt.Language, rt.Version, strings.Join(rt.Aliases, ", ")})
	}
	table.Render()
	return nil
}

func openStore(ctx context.Context, path string) (*challenge.Store, func() error, error) {
	db, err := database.Open(ctx, path)
	if err != nil {
		return nil, nil, fmt.Errorf("opening %s: %w", path, err)
	}
	if err := migrations.Run(db); err != nil {
		db.Close()
		return nil, nil, fmt.Errorf("running migrations: %w", err)
	}
	return challenge.NewStore(db), db.Close, nil
}

func challenges(ctx context.Context, w io.Writer, dbPath string) error {
	store, closeDB, err := openStore(ctx, dbPath)
	if err != nil {
		return err
	}
	defer closeDB()

	counts, err := store.CountByDifficulty(ctx)
	if err != nil {
		return err
	}

	table := newTable(w, "Difficulty", "Challenges")
	total := 0
	for _, d := range []arena.Difficulty{arena.DifficultyEasy, arena.DifficultyMedium, arena.DifficultyHard} {
		table.Append([]string{string(d), strconv.Itoa(counts[d])})
		total += counts[d]
	}
	table.SetFooter([]string{"Total", strconv.Itoa(total)})
	table.Render()
	return nil
}

func seed(ctx context.Context, w io.Writer, dbPath string, args []string) error {
	fs := flag.NewFlagSet("seed", flag.ContinueOnError)
	force := fs.Bool("force", false, "replace existing challenges")
	if err := fs.Parse(args); err != nil {
		return err
	}

	var (
		cat *challenge.Catalog
		err error
	)
	if fs.NArg() > 0 {
		cat, err = challenge.LoadCatalog(fs.Arg(0))
	} else {
		cat, err = challenge.DefaultCatalog()
	}
	if err != nil {
		return err
	}

	store, closeDB, err := openStore(ctx, dbPath)
	if err != nil {
		return err
	}
	defer closeDB()

	n, err := store.Seed(ctx, cat.All(), *force)
	if err != nil {
		return fmt.Errorf("seeding: %w", err)
	}
	if n == 0 {
		fmt.Fprintln(w, "store already has challenges, use -force to replace them")
		return nil
	}
	fmt.Fprintf(w, "seeded %d challenges\n", n)
	return nil
}

func newTable(w io.Writer, header ...string) *tablewriter.Table {
	table := tablewriter.NewWriter(w)
	table.SetHeader(header)
	table.SetAutoWrapText(false)
	table.SetAutoFormatHeaders(true)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetCenterSeparator("")
	table.SetColumnSeparator("")
	table.SetRowSeparator("")
	table.SetHeaderLine(false)
	table.SetBorder(false)
	table.SetTablePadding("\t")
	return table
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
