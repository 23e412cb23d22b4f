// Package cmd implements the command-line interface for playsync.
package cmd

import (
	"fmt"
	"os"
	"strings"

	cc "github.com/ivanpirog/coloredcobra"
	"github.com/playsync/playsync/color"
	"github.com/playsync/playsync/constant"
	"github.com/playsync/playsync/icon"
	"github.com/playsync/playsync/key"
	"github.com/playsync/playsync/log"
	"github.com/playsync/playsync/position"
	"github.com/playsync/playsync/style"
	"github.com/samber/lo"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func init() {
	rootCmd.Flags().BoolP("version", "v", false, "Print the application version")

	rootCmd.PersistentFlags().StringP("icons", "I", "", "Set the visual icon variant (e.g., nerd, emoji, squares)")
	lo.Must0(rootCmd.RegisterFlagCompletionFunc("icons", func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		return icon.AvailableVariants(), cobra.ShellCompDirectiveDefault
	}))
	lo.Must0(viper.BindPFlag(key.IconsVariant, rootCmd.PersistentFlags().Lookup("icons")))

	rootCmd.PersistentFlags().StringP("backend", "b", "", "Position store backend (file, sqlite, memory)")
	lo.Must0(rootCmd.RegisterFlagCompletionFunc("backend", func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		return []string{position.BackendFile, position.BackendSqlite, position.BackendMemory}, cobra.ShellCompDirectiveDefault
	}))
	lo.Must0(viper.BindPFlag(key.PositionBackend, rootCmd.PersistentFlags().Lookup("backend")))

	rootCmd.Flags().Bool("native", false, "Hand the stream to mpv directly, without quality selection or error recovery")
	rootCmd.Flags().Float64P("start", "s", -1, "Start position in seconds; -1 resumes from the stored position")
	lo.Must0(viper.BindPFlag(key.EngineStartPosition, rootCmd.Flags().Lookup("start")))
}

// rootCmd plays an HLS stream and keeps its position across runs.
var rootCmd = &cobra.Command{
	Use:   constant.Playsync + " [url]",
	Short: "An HLS stream player that remembers where you stopped",
	Long: constant.AsciiArtLogo + "\n" +
		style.New().Italic(true).Foreground(color.HiRed).Render("    - An HLS stream player that remembers where you stopped"),
	Args:    cobra.MaximumNArgs(1),
	Example: "  playsync https://test-streams.mux.dev/x36xhzz/x36xhzz.m3u8",
	Run: func(cmd *cobra.Command, args []string) {
		if cmd.Flags().Changed("version") {
			versionCmd.Run(versionCmd, args)
			return
		}

		if len(args) == 0 {
			handleErr(cmd.Help())
			return
		}

		CheckDependencies()

		handleErr(play(args[0], lo.Must(cmd.Flags().GetBool("native"))))
	},
}

// Execute initializes child command routing and processes the CLI entry point.
func Execute() {
	if viper.GetBool(key.CliColored) {
		cc.Init(&cc.Config{
			RootCmd:       rootCmd,
			Headings:      cc.HiCyan + cc.Bold + cc.Underline,
			Commands:      cc.HiYellow + cc.Bold,
			Example:       cc.Italic,
			ExecName:      cc.Bold,
			Flags:         cc.Bold,
			FlagsDataType: cc.Italic + cc.HiBlue,
		})
	}

	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func handleErr(err error) {
	if err != nil {
		log.Error(err)
		_, _ = fmt.Fprintf(os.Stderr, "%s %s\n", icon.Get(icon.Fail), strings.Trim(err.Error(), " \n"))
		os.Exit(1)
	}
}
