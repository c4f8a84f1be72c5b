// Command bptreeidx is the batch text-protocol harness for the index: it
// reads an operation count followed by that many whitespace-separated
// insert/find/delete commands from stdin and writes find results to
// stdout, one line per find.
package main

import (
	"bufio"
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/bptidx/bptreeidx/internal/bptree"
	"github.com/bptidx/bptreeidx/internal/config"
)

func main() {
	dataFile := flag.String("data", "", "backing data file (overrides config pager.data_file)")
	configPath := flag.String("config", "", "optional YAML config file")
	slots := flag.Int("slots", 0, "page slot count for a newly created data file (overrides config)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, "bptreeidx:", err)
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
		fmt.Fprintln(os.Stderr, "bptreeidx:", err)
		os.Exit(1)
	}
	defer func() {
		if err := tree.Close(); err != nil {
			fmt.Fprintln(os.Stderr, "bptreeidx: close:", err)
			os.Exit(1)
		}
	}()

	if err := run(tree, os.Stdin, os.Stdout); err != nil {
		fmt.Fprintln(os.Stderr, "bptreeidx:", err)
		os.Exit(1)
	}
}

func run(tree *bptree.Tree, in *os.File, out *os.File) error {
	r := bufio.NewReaderSize(in, 1<<20)
	w := bufio.NewWriterSize(out, 1<<20)
	defer w.Flush()

	var q int
	if _, err := fmt.Fscan(r, &q); err != nil {
		return nil
	}

	for i := 0; i < q; i++ {
		var op string
		if _, err := fmt.Fscan(r, &op); err != nil {
			return fmt.Errorf("read op %d: %w", i, err)
		}
		switch op {
		case "insert":
			var key string
			var val int32
			if _, err := fmt.Fscan(r, &key, &val); err != nil {
				return fmt.Errorf("read insert args: %w", err)
			}
			if err := tree.Insert(key, val); err != nil {
				return fmt.Errorf("insert %q %d: %w", key, val, err)
			}
		case "find":
			var key string
			if _, err := fmt.Fscan(r, &key); err != nil {
				return fmt.Errorf("read find arg: %w", err)
			}
			vals, err := tree.FindAll(key)
			if err != nil {
				return fmt.Errorf("find %q: %w", key, err)
			}
			if len(vals) == 0 {
				fmt.Fprintln(w, "null")
				continue
			}
			for _, v := range vals {
				fmt.Fprintf(w, "%d ", v)
			}
			fmt.Fprintln(w)
		case "delete":
			var key string
			var val int32
			if _, err := fmt.Fscan(r, &key, &val); err != nil {
				return fmt.Errorf("read delete args: %w", err)
			}
			if err := tree.Erase(key, val); err != nil && err != bptree.ErrNotFound {
				return fmt.Errorf("delete %q %d: %w", key, val, err)
			}
		default:
			return fmt.Errorf("unknown op %q", op)
		}
	}
	return nil
}
