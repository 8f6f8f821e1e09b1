package main

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/optimode/leadscout"
	"github.com/optimode/leadscout/export"
	"github.com/optimode/leadscout/internal/fetch"
	"github.com/optimode/leadscout/pattern"
	"github.com/optimode/leadscout/search"
)

var logLevel string

const legalNotice = `leadscout queries public search results and mail infrastructure on your
behalf. Before continuing, confirm that:

  * your use complies with the terms of service of the search surface and
    any pattern API you configured,
  * you have a legitimate business reason to contact the people found,
  * you will honor applicable anti-spam and data-protection law (CAN-SPAM,
    GDPR, and local equivalents).

SMTP probing, when enabled, opens connections to third-party mail servers.
Excessive probing can get your IP blocklisted.`

// rootCmd is the single leadscout command; there are no subcommands.
var rootCmd = &cobra.Command{
	Use:   "leadscout",
	Short: "Discover and validate outreach contacts at a company",
	Long: `leadscout collects likely HR/recruiting contacts for a company, infers the
company's email address pattern, and validates generated addresses through
syntax, MX and optional SMTP checks.`,
	SilenceUsage: true,
	PreRun: func(cmd *cobra.Command, args []string) {
		if err := viper.BindPFlags(cmd.Flags()); err != nil {
			log.WithError(err).Fatal("could not bind `root` flags")
		}
	},
	RunE: runDiscovery,
}

// Execute runs the root command. Called by main.main().
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func runDiscovery(cmd *cobra.Command, args []string) error {
	company := viper.GetString("company")
	domain := viper.GetString("domain")
	if company == "" || domain == "" {
		return fmt.Errorf("--company and --domain are required")
	}
	if viper.GetString("search-url") == "" {
		return fmt.Errorf("--search-url is required")
	}

	if !viper.GetBool("skip-notice") {
		if !confirmNotice(cmd.InOrStdin(), cmd.OutOrStdout()) {
			log.Info("aborted at legal notice")
			return nil
		}
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	d := leadscout.New().
		WithSearcher(&search.HTTPSearcher{
			Endpoint: viper.GetString("search-url"),
			APIKey:   viper.GetString("search-api-key"),
		}).
		WithSearchOptions(leadscout.SearchOptions{
			MaxResults:    viper.GetInt("max-results"),
			TitleKeywords: viper.GetStringSlice("titles"),
		}).
		WithLimits(leadscout.LimitOptions{
			CallBudget: viper.GetInt("call-budget"),
			Workers:    viper.GetInt("workers"),
			Policy: fetch.Policy{
				MaxRetries: viper.GetInt("max-retries"),
				Timeout:    viper.GetDuration("timeout"),
			},
		}).
		WithMXFallbackToA(viper.GetBool("mx-fallback-a"))

	if key := viper.GetString("hunter-api-key"); key != "" {
		d = d.WithPatternAPI(pattern.NewHunterClient(key))
	}
	if viper.GetBool("validate-smtp") {
		d = d.WithSMTP(leadscout.SMTPOptions{
			Enabled:    true,
			HeloDomain: viper.GetString("helo-domain"),
			MailFrom:   viper.GetString("mail-from"),
		})
	}

	started := time.Now()
	report, err := d.Run(ctx, company, domain)
	if report != nil {
		for _, w := range report.Warnings {
			log.Warn(w)
		}
	}
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "%s (pattern %s/%s, %s)\n",
		report.Summary(), report.Pattern.Template, report.Pattern.Confidence,
		time.Since(started).Round(time.Millisecond))

	if viper.GetBool("no-export") {
		return nil
	}
	output := viper.GetString("output")
	if err := export.WriteFile(output, report); err != nil {
		return err
	}
	fmt.Fprintf(out, "wrote %d contacts to %s\n", len(report.Results), output)
	return nil
}

// confirmNotice prints the legal notice and waits for explicit consent.
func confirmNotice(in io.Reader, out io.Writer) bool {
	fmt.Fprintln(out, legalNotice)
	fmt.Fprint(out, "\nType 'yes' to continue: ")

	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && line == "" {
		return false
	}
	answer := strings.ToLower(strings.TrimSpace(line))
	return answer == "yes" || answer == "y"
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&logLevel, "log", "info", "Set the log level. Valid values: panic, fatal, error, warn, info, debug, trace")

	// run target
	rootCmd.Flags().String("company", "", "Company name to search for")
	rootCmd.Flags().String("domain", "", "Company email domain, e.g. acme.com")
	rootCmd.Flags().Int("max-results", 10, "Maximum unique candidates to collect")
	rootCmd.Flags().StringSlice("titles", nil, "Keep only candidates whose title contains one of these keywords")

	// collaborators
	rootCmd.Flags().String("search-url", "", "SERP-proxy endpoint used for candidate search, also read from LEADSCOUT_SEARCH_URL")
	rootCmd.Flags().String("search-api-key", "", "API key for the search endpoint, also read from LEADSCOUT_SEARCH_API_KEY")
	rootCmd.Flags().String("hunter-api-key", "", "Hunter-style pattern API key, also read from LEADSCOUT_HUNTER_API_KEY")

	// validation
	rootCmd.Flags().Bool("validate-smtp", false, "Probe mailboxes over SMTP (slower; see notice)")
	rootCmd.Flags().String("helo-domain", "", "Fully qualified domain announced in EHLO when probing")
	rootCmd.Flags().String("mail-from", "", "Sender address used in MAIL FROM when probing")
	rootCmd.Flags().Bool("mx-fallback-a", false, "Accept an A record as an implicit mail exchanger")

	// limits
	rootCmd.Flags().Int("call-budget", 0, "Cap on total external calls per run, 0 for unlimited")
	rootCmd.Flags().Int("workers", 4, "Validation worker pool size")
	rootCmd.Flags().Int("max-retries", 2, "Retries per external call on transient failure")
	rootCmd.Flags().Duration("timeout", 10*time.Second, "Per-attempt timeout for external calls")

	// output
	rootCmd.Flags().String("output", export.DefaultFilename, "CSV output path")
	rootCmd.Flags().Bool("no-export", false, "Skip writing the CSV file")
	rootCmd.Flags().Bool("skip-notice", false, "Skip the interactive legal notice")

	rootCmd.PersistentPreRun = func(cmd *cobra.Command, args []string) {
		formatter := new(log.TextFormatter)
		formatter.DisableTimestamp = true
		log.SetFormatter(formatter)

		lvl, err := log.ParseLevel(logLevel)
		if err != nil {
			log.WithFields(log.Fields{"level": logLevel, "err": err}).Errorf("couldn't parse `log` config, defaulting to `info`")
			lvl = log.InfoLevel
		}
		log.SetLevel(lvl)
	}
}

// initConfig reads matching LEADSCOUT_* environment variables.
func initConfig() {
	viper.SetEnvPrefix("LEADSCOUT")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()
}
