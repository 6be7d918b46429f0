package cmd

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"time"

	"github.com/emrgen/redline"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const (
	configFileName = "context"
	defaultServer  = "http://localhost:8030"
	requestTimeout = 30 * time.Second
)

var contextCommand = &cobra.Command{
	Use:   "context",
	Short: "context commands",
}

func init() {
	contextCommand.AddCommand(setContextCommand())
	contextCommand.AddCommand(currentContextCommand())
	contextCommand.AddCommand(resetContextCommand())
}

// Context is the identity and server the CLI talks to.
type Context struct {
	Server   string `mapstructure:"server"`
	UserID   string `mapstructure:"user_id"`
	UserName string `mapstructure:"user_name"`
}

func configDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".redline"
	}
	return filepath.Join(home, ".config", "redline")
}

func contextViper() *viper.Viper {
	v := viper.New()
	v.SetConfigName(configFileName)
	v.SetConfigType("yml")
	v.AddConfigPath(configDir())
	v.SetDefault("context.server", defaultServer)
	return v
}

// saves the context info to the config file in ~/.config/redline
func setContextCommand() *cobra.Command {
	var userID, userName, server string

	command := &cobra.Command{
		Use:   "set",
		Short: "set context",
		Run: func(cmd *cobra.Command, args []string) {
			if userID == "" {
				color.Red(`missing: --user`)
				return
			}
			if userName == "" {
				userName = userID
			}
			if err := writeContext(Context{Server: server, UserID: userID, UserName: userName}); err != nil {
				color.Red("error writing context: %v", err)
				return
			}
			color.Green("context saved")
		},
	}

	command.Flags().StringVarP(&userID, "user", "u", "", "user id")
	command.Flags().StringVarP(&userName, "name", "n", "", "display name")
	command.Flags().StringVarP(&server, "server", "s", defaultServer, "server address")

	return command
}

func currentContextCommand() *cobra.Command {
	command := &cobra.Command{
		Use:   "current",
		Short: "current context",
		Run: func(cmd *cobra.Command, args []string) {
			ctx := readContext()
			printField("Server", ctx.Server)
			printField("User", ctx.UserID)
			printField("Name", ctx.UserName)
		},
	}

	return command
}

func resetContextCommand() *cobra.Command {
	command := &cobra.Command{
		Use:   "reset",
		Short: "reset context",
		Run: func(cmd *cobra.Command, args []string) {
			err := os.Remove(filepath.Join(configDir(), configFileName+".yml"))
			if err != nil && !errors.Is(err, os.ErrNotExist) {
				color.Red("error resetting context: %v", err)
				return
			}
			color.Green("context reset")
		},
	}

	return command
}

func writeContext(c Context) error {
	if err := os.MkdirAll(configDir(), 0o755); err != nil {
		return err
	}
	v := contextViper()
	v.Set("context.server", c.Server)
	v.Set("context.user_id", c.UserID)
	v.Set("context.user_name", c.UserName)
	return v.WriteConfigAs(filepath.Join(configDir(), configFileName+".yml"))
}

func readContext() Context {
	v := contextViper()
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			color.Yellow("error reading context: %v", err)
		}
	}

	var ctx Context
	if err := v.UnmarshalKey("context", &ctx); err != nil {
		color.Yellow("error reading context: %v", err)
	}
	if ctx.Server == "" {
		ctx.Server = defaultServer
	}
	return ctx
}

// newClient returns a client acting as the context user, with a request
// context bounded by requestTimeout.
func newClient() (*redline.Client, context.Context, context.CancelFunc) {
	c := readContext()
	ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
	return redline.NewClient(c.Server, c.UserID, c.UserName), ctx, cancel
}
