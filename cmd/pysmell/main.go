package main

import (
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/pysmell/pysmell/app"
	"github.com/pysmell/pysmell/domain"
	"github.com/pysmell/pysmell/internal/version"
)

type analyzeFlags struct {
	configPath string
	smellType  string
	outputPath string
	exportPath string
	debug      bool
}

var flags analyzeFlags

var rootCmd = &cobra.Command{
	Use:   "pysmell <project_dir>",
	Short: "A Python code smell analyzer",
	Long: `pysmell statically analyzes a Python project and reports code smells,
structural smells based on object-oriented metrics, and architectural
smells derived from the module dependency graph.

Findings never fail the run: the exit code is 0 whether or not smells
were detected, and non-zero only for fatal errors.`,
	Version: version.Short(),
	Args:    cobra.ExactArgs(1),
	RunE:    runAnalyze,

	SilenceUsage:  true,
	SilenceErrors: true,
}

func addAnalyzeFlags(fs *pflag.FlagSet) {
	fs.StringVarP(&flags.configPath, "config", "c", "", "Path to the configuration file")
	fs.StringVarP(&flags.smellType, "type", "t", "all", "Smell category to analyze (code|architectural|structural|all)")
	fs.StringVarP(&flags.outputPath, "output", "o", "", "Write the text report to a file (a CSV report is written next to it)")
	fs.StringVar(&flags.exportPath, "export", "", "Write the assembled project model as JSON")
	fs.BoolVar(&flags.debug, "debug", false, "Enable debug logging")
}

func init() {
	addAnalyzeFlags(rootCmd.Flags())
	rootCmd.AddCommand(NewInitCmd())
	rootCmd.AddCommand(NewVersionCmd())
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	log := newLogger(flags.debug)

	smellType, err := domain.ParseSmellType(flags.smellType)
	if err != nil {
		return err
	}

	req := domain.AnalyzeRequest{
		ProjectPath: args[0],
		ConfigPath:  flags.configPath,
		Type:        smellType,
		OutputPath:  flags.outputPath,
		ExportPath:  flags.exportPath,
		Debug:       flags.debug,
	}

	resp, err := app.NewAnalyzeUseCase(log).Execute(cmd.Context(), req)
	if err != nil {
		return err
	}
	log.Debugf("analysis finished: %d modules, %d classes, %d smells",
		resp.ModuleCount, resp.ClassCount, len(resp.Smells))
	return nil
}

func newLogger(debug bool) *logrus.Logger {
	log := logrus.New()
	log.SetOutput(os.Stderr)
	if debug {
		log.SetLevel(logrus.DebugLevel)
	} else {
		log.SetLevel(logrus.WarnLevel)
	}
	return log
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
