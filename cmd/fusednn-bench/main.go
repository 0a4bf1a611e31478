// fusednn-bench measures MinL2 throughput on synthetic data.
//
// It runs the fused nearest-neighbor kernel -reps times over a random
// m x k query set and n x k candidate set, then prints a small report with
// the average time per run and the achieved multiply-add throughput.
package main

import (
	"flag"
	"fmt"
	"math/rand"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	lgtable "github.com/charmbracelet/lipgloss/table"
	"github.com/dustin/go-humanize"
	"github.com/schollz/progressbar/v3"
	"github.com/x448/float16"
	"k8s.io/klog/v2"

	"github.com/gomlx/fusednn"
	"github.com/gomlx/fusednn/gemm"
)

var (
	flagM     = flag.Int("m", 4096, "Number of query rows.")
	flagN     = flag.Int("n", 4096, "Number of candidate rows.")
	flagK     = flag.Int("k", 128, "Row dimension (features).")
	flagReps  = flag.Int("reps", 20, "Number of timed repetitions.")
	flagDType = flag.String("dtype", "float32", "Element type: float32, float64 or float16.")
	flagTile  = flag.String("tile", "", "Tile shape as MxNxK, e.g. 64x64x64. Empty uses the default.")
	flagUnits = flag.Int("units", 0, "Execution units. 0 uses one unit per tile row.")
	flagSeed  = flag.Int64("seed", 42, "Random seed for the synthetic data.")
)

func main() {
	klog.InitFlags(nil)
	flag.Parse()
	if len(flag.Args()) > 0 {
		klog.Errorf("Unexpected arguments %v. See 'fusednn-bench -help'.", flag.Args())
		os.Exit(1)
	}

	opts, err := parseOptions()
	if err != nil {
		klog.Errorf("%v. See 'fusednn-bench -help'.", err)
		os.Exit(1)
	}

	var avg time.Duration
	switch *flagDType {
	case "float32":
		avg, err = run[float32](opts)
	case "float64":
		avg, err = run[float64](opts)
	case "float16":
		avg, err = runFloat16(opts)
	default:
		klog.Errorf("Unknown -dtype %q, must be float32, float64 or float16.", *flagDType)
		os.Exit(1)
	}
	if err != nil {
		klog.Errorf("Benchmark failed: %v", err)
		os.Exit(1)
	}
	report(avg)
}

func parseOptions() ([]fusednn.Option, error) {
	var opts []fusednn.Option
	if *flagTile != "" {
		dims := strings.Split(*flagTile, "x")
		if len(dims) != 3 {
			return nil, fmt.Errorf("invalid -tile %q, expected MxNxK", *flagTile)
		}
		var shape [3]int
		for i, s := range dims {
			v, err := strconv.Atoi(s)
			if err != nil || v <= 0 {
				return nil, fmt.Errorf("invalid -tile %q, expected positive MxNxK", *flagTile)
			}
			shape[i] = v
		}
		opts = append(opts, fusednn.WithTileShape(shape[0], shape[1], shape[2]))
	}
	if *flagUnits > 0 {
		opts = append(opts, fusednn.WithUnits(*flagUnits))
	}
	return opts, nil
}

func run[V float32 | float64](opts []fusednn.Option) (time.Duration, error) {
	m, n, k := *flagM, *flagN, *flagK
	rng := rand.New(rand.NewSource(*flagSeed))
	x := make([]V, m*k)
	y := make([]V, n*k)
	for i := range x {
		x[i] = V(rng.Float64()*2 - 1)
	}
	for i := range y {
		y[i] = V(rng.Float64()*2 - 1)
	}
	return timeRuns(func() error {
		_, err := fusednn.MinL2(x, y, m, n, k, opts...)
		return err
	})
}

func runFloat16(opts []fusednn.Option) (time.Duration, error) {
	m, n, k := *flagM, *flagN, *flagK
	rng := rand.New(rand.NewSource(*flagSeed))
	x32 := make([]float32, m*k)
	y32 := make([]float32, n*k)
	for i := range x32 {
		x32[i] = rng.Float32()*2 - 1
	}
	for i := range y32 {
		y32[i] = rng.Float32()*2 - 1
	}
	x := make([]float16.Float16, len(x32))
	y := make([]float16.Float16, len(y32))
	gemm.FromFloat32(x, x32)
	gemm.FromFloat32(y, y32)
	return timeRuns(func() error {
		_, err := fusednn.MinL2Float16(x, y, m, n, k, opts...)
		return err
	})
}

func timeRuns(once func() error) (time.Duration, error) {
	// One untimed warm-up to stabilize the buffer pools.
	if err := once(); err != nil {
		return 0, err
	}
	bar := progressbar.NewOptions(*flagReps,
		progressbar.OptionSetDescription("Benchmarking"),
		progressbar.OptionShowIts(),
		progressbar.OptionSetItsString("runs"),
		progressbar.OptionSetTheme(progressbar.ThemeASCII),
	)
	start := time.Now()
	for range *flagReps {
		if err := once(); err != nil {
			return 0, err
		}
		_ = bar.Add(1)
	}
	_ = bar.Finish()
	fmt.Println()
	return time.Since(start) / time.Duration(*flagReps), nil
}

var (
	headerRowStyle = lipgloss.NewStyle().Reverse(true).
			Padding(0, 2, 0, 2).Align(lipgloss.Center)
	rowStyle = lipgloss.NewStyle().PaddingLeft(1).PaddingRight(1)
)

func report(avg time.Duration) {
	m, n, k := *flagM, *flagN, *flagK
	elemSize := 4
	switch *flagDType {
	case "float64":
		elemSize = 8
	case "float16":
		elemSize = 2
	}
	operandBytes := uint64((m*k + n*k) * elemSize)
	numOps := int64(m) * int64(n) * int64(k) * 2
	gOpsPerSecond := float64(numOps) / avg.Seconds() / 1e9

	table := lgtable.New().
		Border(lipgloss.NormalBorder()).
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == 0 {
				return headerRowStyle
			}
			return rowStyle
		}).
		Headers("Metric", "Value").
		Row("problem", fmt.Sprintf("%d x %d x %d (%s)", m, n, k, *flagDType)).
		Row("operand data", humanize.Bytes(operandBytes)).
		Row("ops/run", humanize.Comma(numOps)).
		Row("time/run", avg.Round(time.Microsecond).String()).
		Row("GOps/sec", fmt.Sprintf("%.1f", gOpsPerSecond))
	fmt.Println(table.Render())
}
