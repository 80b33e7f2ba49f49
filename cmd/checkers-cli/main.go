package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/park285/cheese-checkers/internal/obslog"
	"github.com/park285/cheese-checkers/internal/playclient"
	"github.com/park285/cheese-checkers/pkg/checkersdto"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const helpText = `commands:
  r,c r,c      move a piece (e.g. "5,0 4,1")
  sel r,c      select a piece and list its moves
  moves        list all legal moves
  ai [depth]   let the engine move for the side to play
  hint         ask for a suggested move
  undo         take back the last human turn
  reset        start over
  board        print the board
  png FILE     save the rendered board
  quit`

func main() {
	server := flag.String("server", "http://localhost:8080", "checkers server base URL")
	preset := flag.String("preset", "", "difficulty preset for the new session")
	ai := flag.String("ai", "", `AI side: "white", "black" or "none"`)
	join := flag.String("session", "", "join an existing session instead of creating one")
	logFile := flag.String("log", "logs/checkers-cli.log", "log file")
	flag.Parse()

	// log to the file only so logs stay out of the terminal
	logger, closeLog, err := obslog.New(obslog.Options{Level: zapcore.InfoLevel, File: *logFile, Format: "json"})
	if err != nil {
		log.Fatalf("logger init error: %v", err)
	}
	obslog.Set(logger)
	defer func() {
		obslog.Sync()
		_ = closeLog()
	}()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	client := playclient.NewClient(*server, playclient.WithTimeout(15*time.Second))
	if _, err := client.Ping(ctx); err != nil {
		log.Fatalf("server unreachable: %v", err)
	}

	var st *checkersdto.SessionState
	if *join != "" {
		st, err = client.GetSession(ctx, *join)
	} else {
		st, err = client.CreateSession(ctx, checkersdto.CreateSessionRequest{Preset: *preset, AIPlayer: *ai})
	}
	if err != nil {
		log.Fatalf("session error: %v", err)
	}
	id := st.ID
	fmt.Printf("session %s (preset %s)\n", id, st.Preset)
	printState(st)

	watcher := playclient.NewWatcher(client.WatchURL(id), playclient.WithWatchLogger(logger.Named("watch")))
	lastMoves := st.MoveCount
	watcher.OnEvent(func(ev checkersdto.Event) {
		switch ev.Type {
		case "deleted":
			fmt.Println("\nsession deleted by server")
		case "state":
			// only moves made elsewhere (AI turns, auto moves)
			if ev.State != nil && ev.State.MoveCount != lastMoves {
				lastMoves = ev.State.MoveCount
				fmt.Println()
				printState(ev.State)
				fmt.Print("> ")
			}
		}
	})
	watcher.OnStateChange(func(s playclient.WatchState) {
		logger.Info("watch state", zap.String("state", string(s)))
	})
	if err := watcher.Start(ctx); err != nil {
		logger.Warn("watch unavailable", zap.Error(err))
	}
	defer func() {
		cctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = watcher.Close(cctx)
	}()

	lines := make(chan string)
	go func() {
		sc := bufio.NewScanner(os.Stdin)
		for sc.Scan() {
			lines <- sc.Text()
		}
		close(lines)
	}()

	fmt.Println(helpText)
	fmt.Print("> ")
	for {
		select {
		case <-ctx.Done():
			return
		case <-watcher.Done():
			return
		case line, ok := <-lines:
			if !ok {
				return
			}
			quit, err := runCommand(ctx, client, id, strings.TrimSpace(line))
			if err != nil {
				fmt.Println("error:", describe(err))
			}
			if quit {
				return
			}
			fmt.Print("> ")
		}
	}
}

func runCommand(ctx context.Context, c *playclient.Client, id, line string) (bool, error) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return false, nil
	}
	switch fields[0] {
	case "quit", "exit", "q":
		return true, nil
	case "help", "?":
		fmt.Println(helpText)
		return false, nil
	case "board":
		st, err := c.GetSession(ctx, id)
		if err != nil {
			return false, err
		}
		printState(st)
	case "moves":
		res, err := c.LegalMoves(ctx, id)
		if err != nil {
			return false, err
		}
		printMoves(res)
	case "sel":
		if len(fields) != 2 {
			return false, errors.New("usage: sel r,c")
		}
		p, err := parsePosition(fields[1])
		if err != nil {
			return false, err
		}
		res, err := c.Select(ctx, id, checkersdto.SelectRequest{Row: p.Row, Col: p.Col})
		if err != nil {
			return false, err
		}
		printMoves(res)
	case "ai":
		depth := 0
		if len(fields) > 1 {
			n, err := strconv.Atoi(fields[1])
			if err != nil {
				return false, fmt.Errorf("bad depth %q", fields[1])
			}
			depth = n
		}
		res, err := c.AIMove(ctx, id, depth)
		if err != nil {
			return false, err
		}
		fmt.Printf("engine played %d move(s)\n", res.Played)
		printState(res.State)
	case "hint":
		res, err := c.Hint(ctx, id)
		if err != nil {
			return false, err
		}
		if !res.Found || res.Move == nil {
			fmt.Println("no hint available")
		} else {
			fmt.Println("hint:", formatMove(*res.Move))
		}
	case "undo":
		st, err := c.Undo(ctx, id)
		if err != nil {
			return false, err
		}
		printState(st)
	case "reset":
		st, err := c.Reset(ctx, id)
		if err != nil {
			return false, err
		}
		printState(st)
	case "png":
		if len(fields) != 2 {
			return false, errors.New("usage: png FILE")
		}
		raw, err := c.BoardPNG(ctx, id, false)
		if err != nil {
			return false, err
		}
		if err := os.WriteFile(fields[1], raw, 0o644); err != nil {
			return false, err
		}
		fmt.Printf("wrote %d bytes to %s\n", len(raw), fields[1])
	default:
		mv, err := parseMove(fields)
		if err != nil {
			return false, err
		}
		st, err := c.MakeMove(ctx, id, mv)
		if err != nil {
			return false, err
		}
		printState(st)
	}
	return false, nil
}

// parseMove reads "r,c r,c"; the server fills captures in.
func parseMove(fields []string) (checkersdto.Move, error) {
	if len(fields) != 2 {
		return checkersdto.Move{}, fmt.Errorf("unknown command %q (try help)", strings.Join(fields, " "))
	}
	from, err := parsePosition(fields[0])
	if err != nil {
		return checkersdto.Move{}, err
	}
	to, err := parsePosition(fields[1])
	if err != nil {
		return checkersdto.Move{}, err
	}
	return checkersdto.Move{From: from, To: to}, nil
}

func parsePosition(s string) (checkersdto.Position, error) {
	r, c, ok := strings.Cut(s, ",")
	if !ok {
		return checkersdto.Position{}, fmt.Errorf("bad square %q, want row,col", s)
	}
	row, err := strconv.Atoi(strings.TrimSpace(r))
	if err != nil {
		return checkersdto.Position{}, fmt.Errorf("bad row in %q", s)
	}
	col, err := strconv.Atoi(strings.TrimSpace(c))
	if err != nil {
		return checkersdto.Position{}, fmt.Errorf("bad column in %q", s)
	}
	return checkersdto.Position{Row: row, Col: col}, nil
}

func formatMove(m checkersdto.Move) string {
	sep := "-"
	if len(m.Captures) > 0 {
		sep = "x"
	}
	return fmt.Sprintf("%d,%d%s%d,%d", m.From.Row, m.From.Col, sep, m.To.Row, m.To.Col)
}

func printMoves(res *checkersdto.MovesResponse) {
	if len(res.Moves) == 0 {
		fmt.Println("no legal moves")
		return
	}
	parts := make([]string, 0, len(res.Moves))
	for _, m := range res.Moves {
		parts = append(parts, formatMove(m))
	}
	fmt.Printf("%s to move: %s\n", res.Turn, strings.Join(parts, "  "))
}

func printState(st *checkersdto.SessionState) {
	if st == nil {
		return
	}
	for _, row := range st.Rows {
		fmt.Println(row)
	}
	fmt.Printf("W %d : B %d  %s\n", st.Material.White, st.Material.Black, st.Status)
}

func describe(err error) string {
	var apiErr *playclient.APIError
	if errors.As(err, &apiErr) && apiErr.Message != "" {
		return apiErr.Message
	}
	return err.Error()
}
