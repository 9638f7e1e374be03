package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/openge/bpipe/internal/logger"
	"github.com/openge/bpipe/pkgs/engine"
)

// Build-time variables - can be set via ldflags
var (
	Version   string = "dev"
	BuildTime string = "unknown"
	GitCommit string = "unknown"
)

// Global flags
var (
	inputFile string
	planFile  string
	debug     bool
	logFormat string
	shell     string
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "bpipe",
	Short: "Run genomics pipelines described in the bpipe DSL",
	Long: `bpipe parses pipeline-description scripts that declare named stages and
compose them with serial (+) and parallel ([,]) operators, validates the
composition against the script's variables, and runs the resolved shell
commands.`,
	SilenceUsage: true,
}

var checkCmd = &cobra.Command{
	Use:   "check <script>",
	Short: "Parse and validate a pipeline script without running it",
	Long: `Parse the script, bind variables, and resolve every stage reference into
concrete commands. Nothing is executed. With --emit-plan the resolved
commands are written as a plan file for audit.`,
	Args: cobra.ExactArgs(1),
	RunE: checkCommand,
}

var runCmd = &cobra.Command{
	Use:   "run <script>",
	Short: "Check a pipeline script and execute it",
	Long: `Validate the script as check does, then execute the composition tree:
serial stages short-circuit on failure, parallel branches run concurrently
and are joined before the pipeline continues.`,
	Args: cobra.ExactArgs(1),
	RunE: runCommand,
}

var printCmd = &cobra.Command{
	Use:   "print <script>",
	Short: "Print a script's composition tree",
	Args:  cobra.ExactArgs(1),
	RunE:  printCommand,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("bpipe %s\n", Version)
		fmt.Printf("Built: %s\n", BuildTime)
		fmt.Printf("Commit: %s\n", GitCommit)
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "Enable debug output")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "human", "Log format: human or json")
	rootCmd.PersistentFlags().StringVar(&shell, "shell", "sh", "Shell used to run stage commands")

	checkCmd.Flags().StringVarP(&inputFile, "input", "i", "", "Starting filename bound to the input variable")
	checkCmd.Flags().StringVar(&planFile, "emit-plan", "", "Write the resolved plan to this file")
	runCmd.Flags().StringVarP(&inputFile, "input", "i", "", "Starting filename bound to the input variable")

	_ = viper.BindPFlag("debug", rootCmd.PersistentFlags().Lookup("debug"))
	_ = viper.BindPFlag("log-format", rootCmd.PersistentFlags().Lookup("log-format"))
	_ = viper.BindPFlag("shell", rootCmd.PersistentFlags().Lookup("shell"))

	rootCmd.AddCommand(checkCmd)
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(printCmd)
	rootCmd.AddCommand(versionCmd)
}

// initConfig layers an optional .bpipe.yaml and BPIPE_* environment
// variables under the flags.
func initConfig() {
	viper.SetConfigName(".bpipe")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	if home, err := os.UserHomeDir(); err == nil {
		viper.AddConfigPath(home)
	}
	viper.SetEnvPrefix("BPIPE")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		debug = viper.GetBool("debug")
		logFormat = viper.GetString("log-format")
		shell = viper.GetString("shell")
	}
}

// loadPipeline builds a Pipeline for the given script path with the
// configured logger and runner.
func loadPipeline(path string) (*engine.Pipeline, error) {
	log, err := logger.New(logger.Config{Debug: debug, Format: logFormat})
	if err != nil {
		return nil, err
	}

	return engine.Load(path,
		engine.WithLogger(log),
		engine.WithRunner(&engine.ShellRunner{
			Shell:  viper.GetString("shell"),
			Stdout: os.Stdout,
			Stderr: os.Stderr,
			Stdin:  os.Stdin,
		}),
	)
}

func checkCommand(cmd *cobra.Command, args []string) error {
	p, err := loadPipeline(args[0])
	if err != nil {
		return err
	}

	if err := p.Check(inputFile); err != nil {
		return fmt.Errorf("check failed: %w", err)
	}

	if planFile != "" {
		resolved, err := p.Plan()
		if err != nil {
			return err
		}
		f, err := os.Create(planFile)
		if err != nil {
			return fmt.Errorf("creating plan file: %w", err)
		}
		defer f.Close()
		if err := resolved.Encode(f); err != nil {
			return err
		}
	}

	fmt.Fprintf(os.Stderr, "Script %s checked successfully.\n", args[0])
	return nil
}

func runCommand(cmd *cobra.Command, args []string) error {
	p, err := loadPipeline(args[0])
	if err != nil {
		return err
	}

	if err := p.Check(inputFile); err != nil {
		return fmt.Errorf("check failed: %w", err)
	}
	return p.Execute(cmd.Context())
}

func printCommand(cmd *cobra.Command, args []string) error {
	p, err := loadPipeline(args[0])
	if err != nil {
		return err
	}
	return p.Print(os.Stdout)
}
