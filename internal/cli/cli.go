package cli

import (
	"context"
	"io"
	"os"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"

	"github.com/pfrederiksen/fixture-calendar/internal/config"
	"github.com/pfrederiksen/fixture-calendar/internal/logger"
	"github.com/pfrederiksen/fixture-calendar/internal/pipeline"
)

const (
	ExitSuccess = 0
	ExitError   = 1
)

// options holds flag values for one command tree
type options struct {
	team      string
	url       string
	apiURL    string
	input     string
	output    string
	stateFile string
	format    string
	force     bool
	verbose   bool

	cfg *config.Config
	log *logger.Logger
}

// NewRootCmd creates the root command writing results to out
func NewRootCmd(out io.Writer) *cobra.Command {
	opts := &options{}

	cmd := &cobra.Command{
		Use:   "fixture-calendar",
		Short: "Publish a team's fixtures as an iCalendar file",
		Long: `Fetches a league fixture list, extracts the matches of one team and
writes them as calendar events with a Monday reminder. The calendar and the
state file are only rewritten when the fixtures changed since the last run.`,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: opts.setup,
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.runPublish(cmd.Context(), out)
		},
	}

	pf := cmd.PersistentFlags()
	pf.StringVar(&opts.team, "team", "", "Team name (env: TEAM_NAME)")
	pf.StringVar(&opts.url, "url", "", "Fixtures page URL (env: FIXTURES_URL)")
	pf.StringVar(&opts.apiURL, "api-url", "", "Structured fixtures API URL (env: FIXTURES_API_URL)")
	pf.StringVar(&opts.input, "input", "", "Read the page (or .json API document) from a local file instead of fetching")
	pf.StringVar(&opts.format, "format", "text", "Output format: text or json")
	pf.BoolVar(&opts.verbose, "verbose", false, "Enable verbose logging")

	cmd.Flags().StringVar(&opts.output, "output", "", "Calendar output path (env: OUTPUT_ICS)")
	cmd.Flags().StringVar(&opts.stateFile, "state-file", "", "Fingerprint state file (env: STATE_FILE)")
	cmd.Flags().BoolVar(&opts.force, "force", false, "Rewrite the calendar even when nothing changed")

	cmd.AddCommand(newListCmd(opts, out))

	return cmd
}

// setup loads the configuration, applies flag overrides and installs the logger
func (o *options) setup(cmd *cobra.Command, _ []string) error {
	if _, err := o.outputFormat(); err != nil {
		return err
	}

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	if o.team != "" {
		cfg.Team = o.team
	}
	if o.url != "" {
		cfg.SourceURL = o.url
	}
	if o.apiURL != "" {
		cfg.APIURL = o.apiURL
	}
	if o.output != "" {
		cfg.OutputPath = o.output
	}
	if o.stateFile != "" {
		cfg.StatePath = o.stateFile
	}
	cfg.InputFile = o.input
	cfg.Force = o.force
	if o.verbose {
		cfg.LogLevel = "debug"
	}

	if err := cfg.Validate(); err != nil {
		return err
	}

	level := cfg.LoggerLevel()
	if cfg.LogFile != "" {
		o.log = logger.NewFile(level, cfg.LogFile)
	} else {
		o.log = logger.New(level, cmd.ErrOrStderr())
	}
	logger.SetDefault(o.log)

	logger.Debug("Configuration loaded", logger.Fields{
		"team":     cfg.Team,
		"source":   cfg.SourceURL,
		"api":      cfg.APIURL != "",
		"input":    cfg.InputFile,
		"output":   cfg.OutputPath,
		"state":    cfg.StatePath,
		"timezone": cfg.TimeZone,
	})

	o.cfg = cfg
	return nil
}

func (o *options) outputFormat() (OutputFormat, error) {
	format := OutputFormat(strings.ToLower(o.format))
	if format != FormatText && format != FormatJSON {
		return "", errors.Newf("invalid format: %s (must be 'text' or 'json')", o.format)
	}
	return format, nil
}

// runPublish runs one cycle and reports its outcome
func (o *options) runPublish(ctx context.Context, out io.Writer) error {
	p, err := pipeline.New(o.cfg)
	if err != nil {
		return err
	}

	report, err := p.Run(ctx)
	if err != nil {
		return errors.Wrap(err, "publishing calendar")
	}

	format, _ := o.outputFormat()
	return WriteReport(out, report, format)
}

// Run executes the CLI with args and returns the process exit code
func Run(args []string, out io.Writer) int {
	cmd := NewRootCmd(out)
	cmd.SetArgs(args)

	err := cmd.ExecuteContext(context.Background())
	defer func() {
		_ = logger.Default().Sync()
	}()

	if err != nil {
		logger.Error("Run failed", logger.Fields{
			"command": cmd.Name(),
		}, err)
		return ExitError
	}
	return ExitSuccess
}

// Execute runs the CLI with the process arguments and exits
func Execute() {
	os.Exit(Run(os.Args[1:], os.Stdout))
}
