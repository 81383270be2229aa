package cmd

import (
	"github.com/emrgen/notebook/internal/config"
	"github.com/emrgen/notebook/internal/model"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var dbCmd = &cobra.Command{
	Use:   "db",
	Short: "db commands",
}

func init() {
	dbCmd.AddCommand(Migrate())
}

func Migrate() *cobra.Command {
	command := &cobra.Command{
		Use:   "migrate",
		Short: "Migrate the database",
		Run: func(cmd *cobra.Command, args []string) {
			cfg := config.LoadConfig()
			db := config.GetDb(cfg)
			if err := model.Migrate(db); err != nil {
				logrus.Fatalf("error migrating %s database: %v", cfg.DB.Driver, err)
			}
			logrus.Infof("%s database migrated", cfg.DB.Driver)
		},
	}

	return command
}
