package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/cbegin/mxlstruct-go"
	"github.com/cbegin/mxlstruct-go/internal/config"
	"github.com/cbegin/mxlstruct-go/internal/msr"
)

var (
	configPath string
	traceFlag  string
	format     string

	rootCmd = &cobra.Command{
		Use:           "mxlstruct",
		Short:         "Reconstruct the repeat and bar structure of MusicXML scores",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	treeCmd = &cobra.Command{
		Use:   "tree [file]",
		Short: "dump the structure tree of every voice as YAML",
		Args:  cobra.ExactArgs(1),
		RunE: runScore(func(w io.Writer, score *msr.Score) error {
			return mxlstruct.WriteTree(w, score)
		}),
	}

	measuresCmd = &cobra.Command{
		Use:   "measures [file]",
		Short: "list every bar in document order",
		Args:  cobra.ExactArgs(1),
		RunE: runScore(func(w io.Writer, score *msr.Score) error {
			return mxlstruct.WriteMeasures(w, score, format)
		}),
	}

	unfoldCmd = &cobra.Command{
		Use:   "unfold [file]",
		Short: "list bar numbers in performance order",
		Args:  cobra.ExactArgs(1),
		RunE: runScore(func(w io.Writer, score *msr.Score) error {
			return mxlstruct.WriteUnfolded(w, score, format)
		}),
	}

	checkCmd = &cobra.Command{
		Use:   "check [file]",
		Short: "re-verify the structural invariants of every voice",
		Args:  cobra.ExactArgs(1),
		RunE: runScore(func(w io.Writer, score *msr.Score) error {
			return mxlstruct.WriteCheck(w, score)
		}),
	}
)

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "path to a YAML configuration file")
	rootCmd.PersistentFlags().StringVar(&traceFlag, "trace", "", "comma-separated trace categories (voices,segments,measures,repeats,rest-measures,measures-repeats,clone or all)")
	rootCmd.PersistentFlags().StringVar(&format, "format", "", "output format: text|yaml (default from config)")
	rootCmd.AddCommand(treeCmd, measuresCmd, unfoldCmd, checkCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "mxlstruct: %v\n", err)
		os.Exit(1)
	}
}

func loadConfig() (*config.Config, error) {
	if err := config.LoadDotEnv(); err != nil {
		return nil, err
	}
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	if traceFlag != "" {
		cfg.Trace.Categories = strings.Split(traceFlag, ",")
		cfg.Log.Level = "debug"
	}
	if format != "" {
		cfg.Output.Format = format
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	format = cfg.Output.Format
	return cfg, nil
}

func runScore(write func(io.Writer, *msr.Score) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		res, err := mxlstruct.NewTranslator(mxlstruct.WithConfig(cfg, cmd.ErrOrStderr())).TranslateFile(args[0])
		if err != nil {
			return err
		}
		if err := mxlstruct.WriteWarnings(cmd.ErrOrStderr(), res.Warnings); err != nil {
			return err
		}
		return write(cmd.OutOrStdout(), res.Score)
	}
}
