package cmd

import (
	"fmt"

	"github.com/playsync/playsync/icon"
	"github.com/playsync/playsync/util"
	"github.com/playsync/playsync/where"
	"github.com/samber/lo"
	"github.com/samber/mo"
	"github.com/spf13/cobra"
)

// clearTarget defines a filesystem resource eligible for cleanup.
type clearTarget struct {
	name      string
	argLong   string
	argShort  mo.Option[string]
	locations []func() string
}

var clearTargets = []clearTarget{
	{"stored positions", "positions", mo.Some("p"), []func() string{where.Positions, where.PositionsDB}},
	{"logs", "logs", mo.Some("l"), []func() string{where.Logs}},
	{"player sockets", "temp", mo.None[string](), []func() string{where.Temp}},
}

func init() {
	rootCmd.AddCommand(clearCmd)

	for _, target := range clearTargets {
		help := fmt.Sprintf("clear %s", target.name)
		if short, ok := target.argShort.Get(); ok {
			clearCmd.Flags().BoolP(target.argLong, short, false, help)
		} else {
			clearCmd.Flags().Bool(target.argLong, false, help)
		}
	}
}

// clearCmd removes stored positions, logs and stale player sockets.
var clearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Clear stored positions, logs or stale player sockets",
	Run: func(cmd *cobra.Command, args []string) {
		var anyCleared bool

		for _, target := range clearTargets {
			if !lo.Must(cmd.Flags().GetBool(target.argLong)) {
				continue
			}
			anyCleared = true

			for _, location := range target.locations {
				// missing files are already clear
				_ = util.Delete(location())
			}
			fmt.Printf("%s %s cleared\n", icon.Get(icon.Success), util.Capitalize(target.name))
		}

		if !anyCleared {
			handleErr(cmd.Help())
		}
	},
}
