package cmd

import (
	"github.com/emrgen/redline/internal/config"
	"github.com/emrgen/redline/internal/model"
	"github.com/fatih/color"
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
			db := config.GetDb(config.LoadConfig())
			if err := model.Migrate(db); err != nil {
				logrus.Fatalf("error migrating database: %v", err)
			}
			color.Green("database migrated")
		},
	}

	return command
}
