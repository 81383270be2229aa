package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/emrgen/notebook"
	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var projectCmd = &cobra.Command{
	Use:   "project",
	Short: "project commands",
}

func init() {
	bindContextFlags(projectCmd)
	projectCmd.SetHelpCommand(&cobra.Command{Use: "no-help", Hidden: true})
	projectCmd.AddCommand(createProjectCmd())
	projectCmd.AddCommand(listProjectsCmd())
	projectCmd.AddCommand(getProjectCmd())
	projectCmd.AddCommand(updateTitleCmd())
	projectCmd.AddCommand(deleteProjectCmd())
	projectCmd.AddCommand(listBackupsCmd())
	projectCmd.AddCommand(importCSVCmd())
}

func createProjectCmd() *cobra.Command {
	var name string
	var owner string

	command := &cobra.Command{
		Use:     "create",
		Short:   "create a project",
		Example: "notebook project create -n <name> -o <owner>",
		Run: func(cmd *cobra.Command, args []string) {
			if owner == "" {
				owner = readContext().Owner
			}

			client := notebook.NewClient(serverAddr())
			p, err := client.CreateProject(context.Background(), name, owner)
			if err != nil {
				logrus.Error(err)
				return
			}

			logrus.Infof("project created with id: %s", p.ID)
		},
	}

	command.Flags().StringVarP(&name, "name", "n", "", "name of the project")
	command.Flags().StringVarP(&owner, "owner", "o", "", "owner of the project")

	command.Flags().SortFlags = false

	return command
}

func listProjectsCmd() *cobra.Command {
	var owner string

	command := &cobra.Command{
		Use:   "list",
		Short: "list projects",
		Run: func(cmd *cobra.Command, args []string) {
			if owner == "" {
				owner = readContext().Owner
			}

			client := notebook.NewClient(serverAddr())
			projects, err := client.ListProjects(context.Background(), owner)
			if err != nil {
				logrus.Error(err)
				return
			}

			table := tablewriter.NewWriter(os.Stdout)
			table.SetHeader([]string{"ID", "Name", "Status", "Version", "Updated"})
			for _, p := range projects {
				table.Append([]string{p.ID, p.Name, p.Status, strconv.FormatInt(p.Version, 10), p.UpdatedAt.Format("2006-01-02 15:04")})
			}
			table.Render()
		},
	}

	command.Flags().StringVarP(&owner, "owner", "o", "", "owner of the projects")

	return command
}

func getProjectCmd() *cobra.Command {
	var projectID string
	var showContent bool

	var required = []string{"project-id"}

	command := &cobra.Command{
		Use:   "get",
		Short: "get a project and its derived tables",
		Run: func(cmd *cobra.Command, args []string) {
			if checkMissingFlags(cmd, required) {
				return
			}

			ctx := context.Background()
			client := notebook.NewClient(serverAddr())
			p, err := client.GetProject(ctx, projectID)
			if err != nil {
				logrus.Error(err)
				return
			}

			printField("ID", p.ID)
			printField("Name", p.Name)
			printField("Version", strconv.FormatInt(p.Version, 10))

			snap, err := client.Snapshot(ctx, projectID)
			if err != nil {
				logrus.Error(err)
				return
			}

			table := tablewriter.NewWriter(os.Stdout)
			table.SetHeader([]string{"Table ID", "Name", "Columns", "Rows"})
			for _, t := range snap.Tables {
				table.Append([]string{t.ID, t.Name, strings.Join(t.Headers, ", "), strconv.Itoa(t.Rows)})
			}
			table.Render()

			if len(snap.Summaries) > 0 {
				table := tablewriter.NewWriter(os.Stdout)
				table.SetHeader([]string{"Table", "Column", "Summary"})
				for _, s := range snap.Summaries {
					table.Append([]string{s.Binding.TableName, s.Binding.ColumnName, s.Text})
				}
				table.Render()
			}

			if showContent {
				printField("Content", p.Content)
			}
		},
	}

	command.Flags().StringVarP(&projectID, "project-id", "p", "", "project id (required)")
	command.Flags().BoolVarP(&showContent, "content", "c", false, "print the document html")

	return command
}

func updateTitleCmd() *cobra.Command {
	var projectID string
	var name string

	var required = []string{"project-id", "name"}

	command := &cobra.Command{
		Use:   "title",
		Short: "rename a project",
		Run: func(cmd *cobra.Command, args []string) {
			if checkMissingFlags(cmd, required) {
				return
			}

			client := notebook.NewClient(serverAddr())
			if err := client.UpdateTitle(context.Background(), projectID, name); err != nil {
				logrus.Error(err)
				return
			}

			logrus.Infof("project %s renamed", projectID)
		},
	}

	command.Flags().StringVarP(&projectID, "project-id", "p", "", "project id (required)")
	command.Flags().StringVarP(&name, "name", "n", "", "new name (required)")

	return command
}

func deleteProjectCmd() *cobra.Command {
	var projectID string

	var required = []string{"project-id"}

	command := &cobra.Command{
		Use:   "delete",
		Short: "delete a project",
		Run: func(cmd *cobra.Command, args []string) {
			if checkMissingFlags(cmd, required) {
				return
			}

			client := notebook.NewClient(serverAddr())
			if err := client.DeleteProject(context.Background(), projectID); err != nil {
				logrus.Error(err)
				return
			}

			logrus.Infof("project %s deleted", projectID)
		},
	}

	command.Flags().StringVarP(&projectID, "project-id", "p", "", "project id (required)")

	return command
}

func listBackupsCmd() *cobra.Command {
	var projectID string

	var required = []string{"project-id"}

	command := &cobra.Command{
		Use:   "backups",
		Short: "list the backups of a project",
		Run: func(cmd *cobra.Command, args []string) {
			if checkMissingFlags(cmd, required) {
				return
			}

			client := notebook.NewClient(serverAddr())
			backups, err := client.ListBackups(context.Background(), projectID)
			if err != nil {
				logrus.Error(err)
				return
			}

			table := tablewriter.NewWriter(os.Stdout)
			table.SetHeader([]string{"Version", "Name", "Created"})
			for _, b := range backups {
				table.Append([]string{strconv.FormatInt(b.Version, 10), b.Name, b.CreatedAt.Format("2006-01-02 15:04:05")})
			}
			table.Render()
		},
	}

	command.Flags().StringVarP(&projectID, "project-id", "p", "", "project id (required)")

	return command
}

func importCSVCmd() *cobra.Command {
	var projectID string
	var file string
	var name string

	var required = []string{"project-id", "file"}

	command := &cobra.Command{
		Use:   "import",
		Short: "append a csv file to a project as a table",
		Run: func(cmd *cobra.Command, args []string) {
			if checkMissingFlags(cmd, required) {
				return
			}

			f, err := os.Open(file)
			if err != nil {
				logrus.Error(err)
				return
			}
			defer f.Close()

			if name == "" {
				name = strings.TrimSuffix(filepath.Base(file), filepath.Ext(file))
			}

			client := notebook.NewClient(serverAddr())
			if err := client.ImportCSV(context.Background(), projectID, name, f); err != nil {
				logrus.Error(err)
				return
			}

			logrus.Infof("imported %s into project %s", file, projectID)
		},
	}

	command.Flags().StringVarP(&projectID, "project-id", "p", "", "project id (required)")
	command.Flags().StringVarP(&file, "file", "f", "", "csv file (required)")
	command.Flags().StringVarP(&name, "name", "n", "", "table name, defaults to the file name")

	return command
}

func printField(label, value string) {
	color.Set(color.FgCyan)
	fmt.Print(label)
	color.Unset()
	fmt.Printf(": %s\n", value)
}

// checkMissingFlags checks if the required flags are set and returns true if any is missing
func checkMissingFlags(cmd *cobra.Command, flags []string) bool {
	var missingFlags []string
	var providedFlags []string
	for _, required := range flags {
		if !cmd.Flag(required).Changed {
			missingFlags = append(missingFlags, required)
		} else {
			value := cmd.Flag(required).Value.String()
			providedFlags = append(providedFlags, fmt.Sprintf("--%s=%s", required, value))
		}
	}

	if len(missingFlags) > 0 {
		var msg string
		for _, f := range missingFlags {
			msg += fmt.Sprintf("--%s ", f)
		}

		color.Red("missing: %s\n", msg)
		if len(providedFlags) > 0 {
			provided := strings.Join(providedFlags, " ")
			color.Green("provide: %s\n", provided)
		}

		cmd.Println("")
		return true
	}

	return false
}
