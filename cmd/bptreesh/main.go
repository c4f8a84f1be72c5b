// Command bptreesh is an interactive readline front end over the same
// insert/find/delete verbs the batch harness (cmd/bptreeidx) replays from
// a script, with history-backed editing for manual exploration.
package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/chzyer/readline"

	"github.com/bptidx/bptreeidx/internal/bptree"
	"github.com/bptidx/bptreeidx/internal/config"
)

func defaultHistoryPath() string {
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		return ".bptreesh_history"
	}
	return filepath.Join(home, ".bptreesh_history")
}

func main() {
	dataFile := flag.String("data", "", "backing data file (overrides config pager.data_file)")
	configPath := flag.String("config", "", "optional YAML config file")
	slots := flag.Int("slots", 0, "page slot count for a newly created data file (overrides config)")
	histPath := flag.String("history", defaultHistoryPath(), "history file path")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, "bptreesh:", err)
		os.Exit(1)
	}
	slog.SetLogLoggerLevel(config.ParseLevel(cfg.Log.Level))

	path := cfg.Pager.DataFile
	if *dataFile != "" {
		path = *dataFile
	}
	n := cfg.Pager.Slots
	if *slots != 0 {
		n = *slots
	}

	tree, err := bptree.Open(path, n)
	if err != nil {
		fmt.Fprintln(os.Stderr, "bptreesh:", err)
		os.Exit(1)
	}
	defer func() {
		if err := tree.Close(); err != nil {
			fmt.Fprintln(os.Stderr, "bptreesh: close:", err)
		}
	}()

	rl, err := readline.NewEx(&readline.Config{
		Prompt:          "bpt> ",
		HistoryFile:     *histPath,
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
	})
	if err != nil {
		fmt.Fprintln(os.Stderr, "bptreesh: readline:", err)
		os.Exit(1)
	}
	defer rl.Close()

	fmt.Printf("bptreesh: open %s (slots=%d)\n", path, tree.Slots())
	fmt.Println("commands: insert <key> <val> | find <key> | delete <key> <val> | quit")

	for {
		line, err := rl.Readline()
		if err == readline.ErrInterrupt {
			continue
		}
		if err != nil {
			return
		}
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if line == "quit" || line == "exit" || line == "\\q" {
			return
		}
		if err := dispatch(tree, line); err != nil {
			fmt.Println("error:", err)
		}
	}
}

func dispatch(tree *bptree.Tree, line string) error {
	fields := strings.Fields(line)
	switch fields[0] {
	case "insert":
		if len(fields) != 3 {
			return fmt.Errorf("usage: insert <key> <val>")
		}
		val, err := strconv.ParseInt(fields[2], 10, 32)
		if err != nil {
			return fmt.Errorf("bad payload %q: %w", fields[2], err)
		}
		return tree.Insert(fields[1], int32(val))
	case "find":
		if len(fields) != 2 {
			return fmt.Errorf("usage: find <key>")
		}
		vals, err := tree.FindAll(fields[1])
		if err != nil {
			return err
		}
		if len(vals) == 0 {
			fmt.Println("null")
			return nil
		}
		for _, v := range vals {
			fmt.Printf("%d ", v)
		}
		fmt.Println()
		return nil
	case "delete":
		if len(fields) != 3 {
			return fmt.Errorf("usage: delete <key> <val>")
		}
		val, err := strconv.ParseInt(fields[2], 10, 32)
		if err != nil {
			return fmt.Errorf("bad payload %q: %w", fields[2], err)
		}
		return tree.Erase(fields[1], int32(val))
	default:
		return fmt.Errorf("unknown command %q", fields[0])
	}
}
