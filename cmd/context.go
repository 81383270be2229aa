package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const (
	contextDir      = ".tmp"
	contextFileName = "notebook"
	defaultAddr     = "4020"
)

// Addr overrides the server address of the saved context.
var Addr string

var contextCommand = &cobra.Command{
	Use:   "context",
	Short: "context commands",
}

func init() {
	contextCommand.AddCommand(setContextCommand())
	contextCommand.AddCommand(currentContextCommand())
	contextCommand.AddCommand(resetContextCommand())
}

// Context is the saved cli state.
type Context struct {
	Addr  string `mapstructure:"addr"`
	Owner string `mapstructure:"owner"`
}

// saves the context info to ./.tmp/notebook.yml
func setContextCommand() *cobra.Command {
	var ctx Context
	command := &cobra.Command{
		Use:   "set",
		Short: "set context",
		Run: func(cmd *cobra.Command, args []string) {
			if ctx.Addr == "" && ctx.Owner == "" {
				color.Red(`missing: --addr or --owner`)
				return
			}

			current := readContext()
			if ctx.Addr != "" {
				current.Addr = ctx.Addr
			}
			if ctx.Owner != "" {
				current.Owner = ctx.Owner
			}

			if err := writeContext(current); err != nil {
				color.Red("error writing context: %v", err)
				return
			}
			color.Green("context saved")
		},
	}

	command.Flags().StringVarP(&ctx.Addr, "addr", "a", "", "server port or url")
	command.Flags().StringVarP(&ctx.Owner, "owner", "o", "", "default project owner")

	return command
}

func currentContextCommand() *cobra.Command {
	command := &cobra.Command{
		Use:   "current",
		Short: "current context",
		Run: func(cmd *cobra.Command, args []string) {
			ctx := readContext()
			printField("Addr", serverAddr())
			printField("Owner", ctx.Owner)
		},
	}

	return command
}

func resetContextCommand() *cobra.Command {
	command := &cobra.Command{
		Use:   "reset",
		Short: "reset context",
		Run: func(cmd *cobra.Command, args []string) {
			if err := writeContext(Context{}); err != nil {
				color.Red("error writing context: %v", err)
				return
			}
			color.Green("context reset")
		},
	}

	return command
}

func contextViper() *viper.Viper {
	v := viper.New()
	v.SetConfigName(contextFileName)
	v.AddConfigPath(contextDir)
	v.SetConfigType("yml")
	return v
}

func writeContext(ctx Context) error {
	if err := os.MkdirAll(contextDir, 0o755); err != nil {
		return err
	}

	v := contextViper()
	v.Set("context.addr", ctx.Addr)
	v.Set("context.owner", ctx.Owner)
	return v.WriteConfigAs(filepath.Join(contextDir, contextFileName+".yml"))
}

func readContext() Context {
	var ctx Context

	v := contextViper()
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			fmt.Println("error reading context file: ", err)
		}
		return ctx
	}

	if err := v.UnmarshalKey("context", &ctx); err != nil {
		fmt.Println("error unmarshalling context file: ", err)
	}

	return ctx
}

// serverAddr resolves the server address from the flag, the saved context
// or the default port, in that order.
func serverAddr() string {
	if Addr != "" {
		return Addr
	}
	if ctx := readContext(); ctx.Addr != "" {
		return ctx.Addr
	}
	return defaultAddr
}

func bindContextFlags(command *cobra.Command) {
	command.PersistentFlags().StringVarP(&Addr, "addr", "a", "", "server port or url")
}
