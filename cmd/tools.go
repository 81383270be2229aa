package cmd

import (
	"math/rand/v2"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/emrgen/notebook/internal/csvimport"
	"github.com/emrgen/notebook/internal/rowset"
	"github.com/emrgen/notebook/internal/stats"
	"github.com/emrgen/notebook/internal/svg"
	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

func renderRowSet(rs rowset.RowSet) {
	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader(rs.Headers)
	table.SetAutoFormatHeaders(false)
	for _, row := range rs.Rows {
		line := make([]string, len(rs.Headers))
		for i, h := range rs.Headers {
			line[i] = rowset.Format(row[h])
		}
		table.Append(line)
	}
	table.Render()
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

func csvCmd() *cobra.Command {
	var file string
	var experiment bool

	var required = []string{"file"}

	command := &cobra.Command{
		Use:   "csv",
		Short: "ingest a csv file and print its rows",
		Run: func(cmd *cobra.Command, args []string) {
			if checkMissingFlags(cmd, required) {
				return
			}

			res, err := csvimport.IngestFile(file, csvimport.Options{})
			if err != nil {
				logrus.Error(err)
				return
			}
			if len(res.Headers) == 0 {
				color.Yellow("no header row in %s", file)
				return
			}

			if !experiment {
				renderRowSet(res.KeyedRows())
				return
			}

			table := tablewriter.NewWriter(os.Stdout)
			table.SetHeader([]string{"ID", "Time", "Temp", "Pressure", "Outlier"})
			for _, r := range csvimport.ToExperiment(res.RowSet) {
				table.Append([]string{strconv.Itoa(r.ID), formatFloat(r.Time), formatFloat(r.Temp), formatFloat(r.Pressure), r.Outlier})
			}
			table.Render()
		},
	}

	command.Flags().StringVarP(&file, "file", "f", "", "csv file (required)")
	command.Flags().BoolVarP(&experiment, "experiment", "e", false, "map rows onto time, temp and pressure readings")

	return command
}

func svgCmd() *cobra.Command {
	var file string
	var synthesize bool
	var seed uint64

	var required = []string{"file"}

	command := &cobra.Command{
		Use:   "svg",
		Short: "analyze an svg chart",
		Run: func(cmd *cobra.Command, args []string) {
			if checkMissingFlags(cmd, required) {
				return
			}

			data, err := os.ReadFile(file)
			if err != nil {
				logrus.Error(err)
				return
			}

			a := svg.Analyze(string(data))
			printField("X axis", a.XLabel())
			printField("Y axis", a.YLabel())
			printField("Legends", strings.Join(a.Legends, ", "))
			printField("Series", strconv.Itoa(a.SeriesCount))
			printField("Points", strconv.Itoa(len(a.DataPoints)))

			if !synthesize {
				return
			}

			if !cmd.Flag("seed").Changed {
				seed = uint64(time.Now().UnixNano())
			}
			ex := svg.Synthesize(a, rand.New(rand.NewPCG(seed, 0)))
			renderRowSet(ex.RowSet)
			if ex.Synthesized {
				color.Yellow("synthesized columns: %s", strings.Join(ex.SynthesizedColumns, ", "))
			}
		},
	}

	command.Flags().StringVarP(&file, "file", "f", "", "svg file (required)")
	command.Flags().BoolVarP(&synthesize, "synthesize", "s", false, "print the importable table")
	command.Flags().Uint64Var(&seed, "seed", 0, "seed for synthesized values")

	return command
}

func statsCmd() *cobra.Command {
	var file string
	var column string

	var required = []string{"file", "column"}

	command := &cobra.Command{
		Use:   "stats",
		Short: "summarize a numeric column of a csv file",
		Run: func(cmd *cobra.Command, args []string) {
			if checkMissingFlags(cmd, required) {
				return
			}

			res, err := csvimport.IngestFile(file, csvimport.Options{})
			if err != nil {
				logrus.Error(err)
				return
			}

			s := stats.Compute(res.RowSet.Numbers(column))
			if s == nil {
				color.Yellow("no numeric values in column %q", column)
				return
			}

			table := tablewriter.NewWriter(os.Stdout)
			table.SetHeader([]string{"Count", "Sum", "Mean", "Median", "Mode", "Min", "Max", "Std Dev"})
			table.Append([]string{
				strconv.Itoa(s.Count),
				formatFloat(s.Sum),
				formatFloat(s.Mean),
				formatFloat(s.Median),
				formatFloat(s.Mode),
				formatFloat(s.Min),
				formatFloat(s.Max),
				strconv.FormatFloat(s.StandardDeviation, 'f', 4, 64),
			})
			table.Render()
		},
	}

	command.Flags().StringVarP(&file, "file", "f", "", "csv file (required)")
	command.Flags().StringVarP(&column, "column", "c", "", "column name (required)")

	return command
}
