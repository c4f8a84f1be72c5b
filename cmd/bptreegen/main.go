// Command bptreegen reproduces the randomized insert/find/delete workload
// generator: it writes a q-prefixed batch of commands to stdout in the
// same format cmd/bptreeidx consumes, for building test fixtures.
package main

import (
	"bufio"
	"flag"
	"fmt"
	"math/rand"
	"os"
	"time"
)

type genConfig struct {
	totalOps           int
	uniqueKeys         int
	keyLenMin          int
	keyLenMax          int
	pInsert            float64
	pDelete            float64
	pFind              float64
	existingDeleteRate float64
	seed               int64
}

const alphabet = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// generator mirrors the original's per-key value bucket bookkeeping: it
// remembers which payloads are currently "live" for each key so deletes
// can target an existing entry and inserts avoid emitting a (key, value)
// pair that's already present.
type generator struct {
	cfg      genConfig
	rng      *rand.Rand
	keyPool  []string
	state    map[string]map[int32]struct{}
	keyOrder []string
}

func newGenerator(cfg genConfig) *generator {
	return &generator{
		cfg:   cfg,
		rng:   rand.New(rand.NewSource(cfg.seed)),
		state: make(map[string]map[int32]struct{}),
	}
}

func (g *generator) randomKey() string {
	n := g.cfg.keyLenMin
	if g.cfg.keyLenMax > g.cfg.keyLenMin {
		n += g.rng.Intn(g.cfg.keyLenMax - g.cfg.keyLenMin + 1)
	}
	b := make([]byte, n)
	for i := range b {
		b[i] = alphabet[g.rng.Intn(len(alphabet))]
	}
	return string(b)
}

func (g *generator) pickOrMakeKey(favorNew bool) string {
	canMakeNew := len(g.keyPool) < g.cfg.uniqueKeys
	makeNew := favorNew && canMakeNew && g.rng.Float64() < 0.65
	if !makeNew && len(g.keyPool) > 0 {
		return g.keyPool[g.rng.Intn(len(g.keyPool))]
	}
	key := g.randomKey()
	if len(g.keyPool) < g.cfg.uniqueKeys {
		g.keyPool = append(g.keyPool, key)
	}
	return key
}

func (g *generator) pickExistingKey() string {
	idx := g.rng.Intn(len(g.keyOrder))
	return g.keyOrder[idx]
}

func (g *generator) emitInsert(w *bufio.Writer) {
	key := g.pickOrMakeKey(true)
	val := int32(g.rng.Int63() - (1 << 31))
	bucket := g.state[key]
	if bucket == nil {
		bucket = make(map[int32]struct{})
		g.state[key] = bucket
		g.keyOrder = append(g.keyOrder, key)
	}
	for attempt := 0; attempt < 8 && len(bucket) > 0; attempt++ {
		if _, dup := bucket[val]; !dup {
			break
		}
		val = int32(g.rng.Int63() - (1 << 31))
	}
	for {
		if _, dup := bucket[val]; !dup {
			break
		}
		val = int32(g.rng.Int63() - (1 << 31))
	}
	bucket[val] = struct{}{}
	fmt.Fprintf(w, "insert %s %d\n", key, val)
}

func (g *generator) removeFromOrder(key string) {
	for i, k := range g.keyOrder {
		if k == key {
			g.keyOrder = append(g.keyOrder[:i], g.keyOrder[i+1:]...)
			return
		}
	}
}

func (g *generator) emitDelete(w *bufio.Writer) {
	hitExisting := g.rng.Float64() < g.cfg.existingDeleteRate && len(g.keyOrder) > 0
	var key string
	val := int32(g.rng.Int63() - (1 << 31))

	if hitExisting {
		key = g.pickExistingKey()
		bucket := g.state[key]
		if len(bucket) > 0 {
			n := g.rng.Intn(len(bucket))
			i := 0
			for v := range bucket {
				if i == n {
					val = v
					break
				}
				i++
			}
			delete(bucket, val)
			if len(bucket) == 0 {
				delete(g.state, key)
				g.removeFromOrder(key)
			}
		}
	} else {
		key = g.pickOrMakeKey(false)
	}
	fmt.Fprintf(w, "delete %s %d\n", key, val)
}

func (g *generator) emitFind(w *bufio.Writer) {
	var key string
	if len(g.keyOrder) > 0 && g.rng.Float64() < 0.6 {
		key = g.pickExistingKey()
	} else {
		key = g.pickOrMakeKey(false)
	}
	fmt.Fprintf(w, "find %s\n", key)
}

func (g *generator) run(w *bufio.Writer) {
	for i := 0; i < g.cfg.totalOps; i++ {
		p := g.rng.Float64()
		switch {
		case p < g.cfg.pInsert:
			g.emitInsert(w)
		case p < g.cfg.pInsert+g.cfg.pDelete:
			g.emitDelete(w)
		default:
			g.emitFind(w)
		}
	}
}

func main() {
	var cfg genConfig
	flag.IntVar(&cfg.totalOps, "ops", 1000, "total operations")
	flag.IntVar(&cfg.uniqueKeys, "keys", 100, "max distinct keys")
	flag.IntVar(&cfg.keyLenMin, "min-len", 4, "min key length")
	flag.IntVar(&cfg.keyLenMax, "max-len", 12, "max key length")
	flag.Float64Var(&cfg.pInsert, "p-insert", 0.45, "insert probability")
	flag.Float64Var(&cfg.pDelete, "p-delete", 0.25, "delete probability")
	flag.Float64Var(&cfg.pFind, "p-find", 0.30, "find probability")
	flag.Float64Var(&cfg.existingDeleteRate, "existing-delete", 0.7, "chance delete targets an existing entry")
	seed := flag.Int64("seed", 0, "RNG seed (default: time based)")
	flag.Parse()

	sum := cfg.pInsert + cfg.pDelete + cfg.pFind
	if sum <= 0 {
		fmt.Fprintln(os.Stderr, "bptreegen: probabilities must sum to a positive value")
		os.Exit(1)
	}
	cfg.pInsert /= sum
	cfg.pDelete /= sum
	cfg.pFind /= sum
	if cfg.keyLenMin < 1 {
		cfg.keyLenMin = 1
	}
	if cfg.keyLenMax < cfg.keyLenMin {
		cfg.keyLenMax = cfg.keyLenMin
	}
	if cfg.uniqueKeys < 1 {
		cfg.uniqueKeys = 1
	}
	if cfg.totalOps < 1 {
		cfg.totalOps = 1
	}
	if cfg.existingDeleteRate < 0 {
		cfg.existingDeleteRate = 0
	}
	if cfg.existingDeleteRate > 1 {
		cfg.existingDeleteRate = 1
	}
	cfg.seed = *seed
	if cfg.seed == 0 {
		cfg.seed = time.Now().UnixNano()
	}

	g := newGenerator(cfg)
	w := bufio.NewWriterSize(os.Stdout, 1<<20)
	defer w.Flush()
	fmt.Fprintln(w, cfg.totalOps)
	g.run(w)
}
