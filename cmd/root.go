package cmd

import (
	"os"

	"github.com/spf13/cobra"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "notebook",
	Short: "lab notebook service and data tools",
	Example: `notebook serve
notebook project create -n <name> -o <owner>
notebook project list -o <owner>
notebook project get -p <project-id>
notebook project import -p <project-id> -f <file.csv>
notebook csv -f <file.csv> --experiment
notebook svg -f <chart.svg> --synthesize
notebook stats -f <file.csv> -c <column>`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(dbCmd)
	rootCmd.AddCommand(contextCommand)
	rootCmd.AddCommand(projectCmd)
	rootCmd.AddCommand(csvCmd())
	rootCmd.AddCommand(svgCmd())
	rootCmd.AddCommand(statsCmd())
	rootCmd.SetHelpCommand(&cobra.Command{Use: "no-help", Hidden: true})

	rootCmd.CompletionOptions.HiddenDefaultCmd = true
	cobra.EnableCommandSorting = false
}
