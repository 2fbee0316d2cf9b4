package stats

import (
	"fmt"
	"io"
	"math"
	"strings"
	"text/tabwriter"

	"gonum.org/v1/gonum/stat"
)

// GeometricMeans returns the geometric mean of each column over rows.
// Values are clamped to at least 1 first; non-finite values are left out.
func GeometricMeans(rows []Row) []float64 {
	means := make([]float64, len(Columns))
	for col := range Columns {
		vals := make([]float64, 0, len(rows))
		for _, r := range rows {
			v := r.Values()[col]
			if math.IsInf(v, 0) || math.IsNaN(v) {
				continue
			}
			vals = append(vals, math.Max(1, v))
		}
		if len(vals) == 0 {
			means[col] = math.NaN()
			continue
		}
		means[col] = stat.GeometricMean(vals, nil)
	}
	return means
}

// WriteTable writes rows as an aligned text table with a header and a
// closing geometric-mean row.
func WriteTable(w io.Writer, rows []Row) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', tabwriter.AlignRight)

	fmt.Fprintf(tw, "instance\t%s\t\n", strings.Join(Columns, "\t"))
	for _, r := range rows {
		fmt.Fprintf(tw, "%s\t%s\t\n", r.Instance, joinValues(r.Values()))
	}
	fmt.Fprintf(tw, "gmean\t%s\t\n", joinValues(GeometricMeans(rows)))
	return tw.Flush()
}

// Cells returns the table as string cells: one row per instance followed by
// the geometric-mean row.
func Cells(rows []Row) [][]string {
	out := make([][]string, 0, len(rows)+1)
	for _, r := range rows {
		out = append(out, append([]string{r.Instance}, formatAll(r.Values())...))
	}
	return append(out, append([]string{"gmean"}, formatAll(GeometricMeans(rows))...))
}

func formatAll(vals []float64) []string {
	out := make([]string, len(vals))
	for i, v := range vals {
		out[i] = FormatValue(v)
	}
	return out
}

func joinValues(vals []float64) string {
	return strings.Join(formatAll(vals), "\t")
}
