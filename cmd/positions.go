package cmd

import (
	"encoding/json"
	"os"

	"github.com/playsync/playsync/color"
	"github.com/playsync/playsync/icon"
	"github.com/playsync/playsync/playback"
	"github.com/playsync/playsync/position"
	"github.com/playsync/playsync/style"
	"github.com/playsync/playsync/util"
	"github.com/samber/lo"
	"github.com/spf13/cobra"
	"golang.org/x/exp/slices"
)

func init() {
	rootCmd.AddCommand(positionsCmd)
	positionsCmd.Flags().BoolP("json", "j", false, "Format the output as a JSON object")
	positionsCmd.Flags().StringSliceP("delete", "d", []string{}, "Forget the stored positions of the given sources")
	positionsCmd.SetOut(os.Stdout)
}

// positionsCmd lists or forgets stored playback positions.
var positionsCmd = &cobra.Command{
	Use:   "positions",
	Short: "List the stored playback positions",
	Run: func(cmd *cobra.Command, args []string) {
		store, err := position.FromConfig()
		handleErr(err)
		defer store.Close()

		if forget := lo.Must(cmd.Flags().GetStringSlice("delete")); len(forget) > 0 {
			for _, id := range forget {
				handleErr(store.Delete(id))
			}
			cmd.Printf("%s forgot %s\n", style.Fg(color.Green)(icon.Get(icon.Success)), util.Quantify(len(forget), "position", "positions"))
			return
		}

		positions, err := store.List()
		handleErr(err)

		if lo.Must(cmd.Flags().GetBool("json")) {
			lo.Must0(json.NewEncoder(cmd.OutOrStdout()).Encode(positions))
			return
		}

		if len(positions) == 0 {
			cmd.Println(style.Faint("No stored positions"))
			return
		}

		ids := lo.Keys(positions)
		slices.Sort(ids)
		for _, id := range ids {
			cmd.Printf("%s %s\n", style.Fg(color.Yellow)(playback.FormatTime(positions[id])), id)
		}
	},
}
