package cmd

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

func printField(label, value string) {
	color.Set(color.FgCyan)
	fmt.Print(label)
	color.Unset()
	fmt.Printf(": %s\n", value)
}

// checkMissingFlags reports the required flags that are not set and returns
// true when any is missing.
func checkMissingFlags(cmd *cobra.Command, flags []string) bool {
	var missingFlags []string
	var providedFlags []string
	for _, required := range flags {
		if !cmd.Flag(required).Changed {
			missingFlags = append(missingFlags, "--"+required)
		} else {
			value := cmd.Flag(required).Value.String()
			providedFlags = append(providedFlags, fmt.Sprintf("--%s=%s", required, value))
		}
	}

	if len(missingFlags) == 0 {
		return false
	}

	color.Red("missing: %s\n", strings.Join(missingFlags, " "))
	if len(providedFlags) > 0 {
		color.Green("provide: %s\n", strings.Join(providedFlags, " "))
	}
	cmd.Println("")
	_ = cmd.Usage()
	return true
}

func fail(err error) {
	color.Red("error: %v", err)
	os.Exit(1)
}

func shortTime(t time.Time) string {
	return t.Format("2006-01-02 15:04:05")
}
