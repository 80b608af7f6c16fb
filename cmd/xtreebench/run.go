package main

import (
	"fmt"
	randv2 "math/rand/v2"
	"os"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/samber/lo"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/benz9527/xtree/lib/infra"
	"github.com/benz9527/xtree/lib/slice"
	"github.com/benz9527/xtree/lib/tree"
)

type runParams struct {
	capacity int
	rounds   int
	seed     uint64
}

// result is one store at one payload width, averaged over rounds.
type result struct {
	store     string
	width     string
	slotBytes uintptr
	insert    time.Duration
	search    time.Duration
	remove    time.Duration
}

func newRunCommand(logger *zap.Logger) *cobra.Command {
	params := &runParams{}
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the comparison and print a result table",
		RunE: func(_ *cobra.Command, _ []string) error {
			return runBench(logger, params)
		},
	}
	cmd.Flags().IntVar(&params.capacity, "capacity", 1<<16, "keys per round (also the arena capacity)")
	cmd.Flags().IntVar(&params.rounds, "rounds", 3, "rounds to average over")
	cmd.Flags().Uint64Var(&params.seed, "seed", 0, "key generator seed, 0 for a random one")
	return cmd
}

type record128 struct {
	id  uint64
	aux uint64
}

type span384 struct {
	base    uint64
	limit   uint64
	flags   uint64
	owner   uint64
	backing uint64
	cookie  uint64
}

func runBench(logger *zap.Logger, params *runParams) error {
	if params.capacity <= 0 || params.rounds <= 0 {
		return fmt.Errorf("capacity and rounds must be positive, got %d/%d", params.capacity, params.rounds)
	}
	seed := params.seed
	if seed == 0 {
		seed = randv2.Uint64()
	}
	logger.Info("starting ordered store comparison",
		zap.String("keys", humanize.Comma(int64(params.capacity))),
		zap.Int("rounds", params.rounds),
		zap.Uint64("seed", seed),
	)

	rng := randv2.New(randv2.NewPCG(seed, seed))
	keys := distinctKeys(rng, params.capacity)

	results := make([]result, 0, 9)
	results = append(results, measureWidth(params.rounds, keys, "32-bit",
		func(data uint32) uint32 { return data },
		func(k uint64) uint32 { return uint32(k) },
		func(k uint64) uint32 { return uint32(k) })...)
	results = append(results, measureWidth(params.rounds, keys, "128-bit",
		func(data record128) uint64 { return data.id },
		func(k uint64) uint64 { return k },
		func(k uint64) record128 { return record128{id: k, aux: ^k} })...)
	results = append(results, measureWidth(params.rounds, keys, "384-bit",
		func(data span384) uint64 { return data.base },
		func(k uint64) uint64 { return k },
		func(k uint64) span384 {
			return span384{base: k, limit: k + 0xfff, flags: 0x3, owner: k >> 8, backing: k >> 16, cookie: ^k}
		})...)

	renderResults(results, params.capacity)

	slowest := lo.MaxBy(results, func(a, b result) bool { return a.insert > b.insert })
	logger.Info("done",
		zap.String("slowest insert", slowest.store+" @ "+slowest.width),
		zap.Duration("cost", slowest.insert),
	)
	return nil
}

func distinctKeys(rng *randv2.Rand, n int) []uint64 {
	// Distinct in the low 32 bits too, so the 32-bit projection keeps
	// the key set collision free.
	low := make(map[uint32]struct{}, n)
	keys := make([]uint64, 0, n)
	for len(keys) < n {
		k := rng.Uint64()
		if _, dup := low[uint32(k)]; dup {
			continue
		}
		low[uint32(k)] = struct{}{}
		keys = append(keys, k)
	}
	return keys
}

// orderedStore is the common surface the three measured structures
// expose, bridged by small adapters below.
type orderedStore[K infra.OrderedKey, D any] interface {
	Insert(data D) error
	Search(key K) (D, bool)
	Remove(key K) (D, error)
}

type sliceStore[K infra.OrderedKey, D any] struct {
	*slice.SortedSlice[K, D]
}

func (s sliceStore[K, D]) Insert(data D) error     { return s.Add(data) }
func (s sliceStore[K, D]) Search(key K) (D, bool)  { return s.SearchWithKey(key) }
func (s sliceStore[K, D]) Remove(key K) (D, error) { return s.RemoveWithKey(key) }

func measureWidth[K infra.OrderedKey, D any](
	rounds int,
	raw []uint64,
	width string,
	keyFn infra.SortKeyFunc[K, D],
	projKey func(k uint64) K,
	projData func(k uint64) D,
) []result {
	keys := lo.Map(raw, func(k uint64, _ int) K { return projKey(k) })
	payloads := lo.Map(raw, func(k uint64, _ int) D { return projData(k) })
	capacity := len(raw)

	stores := []struct {
		name      string
		slotBytes uintptr
		build     func() orderedStore[K, D]
	}{
		{
			name:      "rbtree",
			slotBytes: tree.RBNodeSlotSize[K, D](),
			build:     func() orderedStore[K, D] { return tree.NewRBTree[K, D](capacity, keyFn) },
		},
		{
			name:      "bst",
			slotBytes: tree.BSTNodeSlotSize[K, D](),
			build:     func() orderedStore[K, D] { return tree.NewBST[K, D](capacity, keyFn) },
		},
		{
			name:  "sorted-slice",
			build: func() orderedStore[K, D] { return sliceStore[K, D]{slice.NewSortedSlice[K, D](capacity, keyFn)} },
		},
	}

	results := make([]result, 0, len(stores))
	for _, st := range stores {
		res := result{store: st.name, width: width, slotBytes: st.slotBytes}
		for r := 0; r < rounds; r++ {
			s := st.build()

			start := time.Now()
			for _, p := range payloads {
				if err := s.Insert(p); err != nil {
					fmt.Fprintf(os.Stderr, "Error: %s insert: %v\n", st.name, err)
					os.Exit(1)
				}
			}
			res.insert += time.Since(start)

			start = time.Now()
			for _, k := range keys {
				if _, found := s.Search(k); !found {
					fmt.Fprintf(os.Stderr, "Error: %s lost a key\n", st.name)
					os.Exit(1)
				}
			}
			res.search += time.Since(start)

			start = time.Now()
			for _, k := range keys {
				if _, err := s.Remove(k); err != nil {
					fmt.Fprintf(os.Stderr, "Error: %s remove: %v\n", st.name, err)
					os.Exit(1)
				}
			}
			res.remove += time.Since(start)
		}
		res.insert /= time.Duration(rounds)
		res.search /= time.Duration(rounds)
		res.remove /= time.Duration(rounds)
		results = append(results, res)
	}
	return results
}

func renderResults(results []result, capacity int) {
	tbl := table.NewWriter()
	tbl.SetOutputMirror(os.Stdout)
	tbl.SetStyle(table.StyleLight)
	tbl.AppendHeader(table.Row{"store", "width", "arena", "insert", "search", "remove"})

	for _, res := range results {
		arena := "-"
		if res.slotBytes > 0 {
			arena = humanize.IBytes(uint64(res.slotBytes) * uint64(capacity))
		}
		tbl.AppendRow(table.Row{
			res.store, res.width, arena,
			perOp(res.insert, capacity), perOp(res.search, capacity), perOp(res.remove, capacity),
		})
	}
	tbl.Render()
}

func perOp(total time.Duration, n int) string {
	return fmt.Sprintf("%s (%v/op)", total.Round(time.Microsecond), (total / time.Duration(n)).Round(time.Nanosecond))
}
