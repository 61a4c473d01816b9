package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/briandowns/spinner"
	"github.com/charmbracelet/log"
	"github.com/joho/godotenv"

	"github.com/Nmcnevin/Lead-System/internal/output"
	"github.com/Nmcnevin/Lead-System/internal/pipeline"
	"github.com/Nmcnevin/Lead-System/pkg/leads"
)

var version = "1.0.0"

// errorLogWindow caps how many trailing log entries are shown on failure.
const errorLogWindow = 15

// flags holds all parsed CLI options.
type flags struct {
	keyword  string
	location string
	num      int
	enrich   bool
	verifyMX bool
	rate     float64
	headful  bool
	output   string

	silent  bool
	verbose bool
	noColor bool

	showHelp    bool
	showVersion bool
}

func main() {
	f := parseFlags()

	if f.showVersion {
		fmt.Printf("leadgen v%s\n", version)
		os.Exit(0)
	}
	if f.showHelp || f.keyword == "" {
		printUsage()
		if f.keyword == "" && !f.showHelp {
			os.Exit(1)
		}
		os.Exit(0)
	}

	// Local .env overrides are optional.
	_ = godotenv.Load()

	logger := log.NewWithOptions(os.Stderr, log.Options{
		ReportTimestamp: true,
		Prefix:          "leadgen",
	})
	if f.verbose {
		logger.SetLevel(log.DebugLevel)
	} else if f.silent {
		logger.SetLevel(log.ErrorLevel)
	}

	cfg := buildConfig(f)
	runner := pipeline.New(cfg, logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if !f.silent {
		printBanner(f)
	}

	sink, stopSink := progressSink(f)
	start := time.Now()
	res := runner.Run(ctx, pipeline.Request{
		Keyword:        f.keyword,
		Location:       f.location,
		MaxResults:     f.num,
		EnrichContacts: f.enrich,
	}, sink)
	stopSink()
	elapsed := time.Since(start)

	if res.Err != nil {
		fmt.Fprintf(os.Stderr, "\n  %s %v\n", clr(f, "red", "ERROR:"), res.Err)
		printErrorLog(res.Errors)
		os.Exit(1)
	}

	printSummary(f, res, elapsed)

	if len(res.Records) > 0 {
		path := f.output
		if path == "" {
			path = output.DefaultFilename(time.Now())
		}
		if err := output.NewCSVWriter().WriteFile(path, res.Records); err != nil {
			fatal(f, "write csv: %v", err)
		}
		if !f.silent {
			fmt.Printf("    Output: %s\n\n", clr(f, "green", path))
		}
	}
}

// progressSink returns the run's status callback. Outside silent mode a
// spinner renders each status update in place.
func progressSink(f *flags) (leads.ProgressSink, func()) {
	if f.silent {
		return nil, func() {}
	}
	spin := spinner.New(spinner.CharSets[9], 100*time.Millisecond)
	spin.Suffix = " Starting..."
	spin.Start()
	sink := func(status string) {
		spin.Suffix = " " + status
	}
	return sink, spin.Stop
}

func printSummary(f *flags, res pipeline.Result, elapsed time.Duration) {
	if f.silent {
		return
	}
	s := res.Stats
	fmt.Println()
	fmt.Printf("  %s\n", strings.Repeat("─", 50))
	if len(res.Records) == 0 {
		fmt.Printf("  %s No leads extracted. Try different keywords.\n\n", clr(f, "yellow", "!"))
		return
	}
	fmt.Printf("  %s Extracted %s leads in %s\n",
		clr(f, "green", "✓"),
		clr(f, "cyan", fmt.Sprintf("%d", len(res.Records))),
		fmtDur(elapsed),
	)
	fmt.Printf("    Found: %d  Extracted: %d  Enriched: %d  Errors: %d\n",
		s.Found, s.Extracted, s.Enriched, s.Errors)
}

func printErrorLog(entries []leads.ErrorLogEntry) {
	if len(entries) == 0 {
		return
	}
	if len(entries) > errorLogWindow {
		entries = entries[len(entries)-errorLogWindow:]
	}
	fmt.Fprintln(os.Stderr)
	for _, e := range entries {
		fmt.Fprintf(os.Stderr, "  [%s] %s: %s\n", e.Time.Format("15:04:05"), e.Kind, e.Message)
	}
}

func buildConfig(f *flags) *pipeline.Config {
	cfg := pipeline.DefaultConfig()
	cfg.Session.Headless = !f.headful
	cfg.Enrich.VerifyMX = f.verifyMX
	cfg.Enrich.RatePerSecond = f.rate
	if ua := strings.TrimSpace(os.Getenv("LEADGEN_USER_AGENT")); ua != "" {
		cfg.Session.UserAgent = ua
	}
	if v := strings.TrimSpace(os.Getenv("LEADGEN_HEADLESS")); v == "false" || v == "0" {
		cfg.Session.Headless = false
	}
	return cfg
}

// ---------- Flag parsing ----------

func parseFlags() *flags {
	f := &flags{
		num:    8,
		enrich: true,
	}

	args := os.Args[1:]
	for i := 0; i < len(args); i++ {
		arg := args[i]
		next := func() string {
			if i+1 < len(args) {
				i++
				return args[i]
			}
			fatal(f, "flag %s requires an argument", arg)
			return ""
		}
		nextInt := func() int {
			v := next()
			var n int
			fmt.Sscanf(v, "%d", &n)
			return n
		}

		switch arg {
		case "-k", "--keyword":
			f.keyword = next()
		case "-l", "--location":
			f.location = next()
		case "-n", "--num":
			f.num = nextInt()
		case "--no-enrich":
			f.enrich = false
		case "--verify-mx":
			f.verifyMX = true
		case "-r", "--rate":
			fmt.Sscanf(next(), "%f", &f.rate)
		case "--headful":
			f.headful = true
		case "-o", "--output":
			f.output = next()
		case "-si", "--silent":
			f.silent = true
		case "-v", "--verbose":
			f.verbose = true
		case "-nc", "--no-color":
			f.noColor = true
		case "-h", "--help":
			f.showHelp = true
		case "-V", "--version":
			f.showVersion = true
		default:
			// Treat bare arg as keyword if none yet
			if !strings.HasPrefix(arg, "-") && f.keyword == "" {
				f.keyword = arg
			} else {
				fmt.Fprintf(os.Stderr, "Unknown flag: %s (use --help for usage)\n", arg)
				os.Exit(1)
			}
		}
	}
	return f
}

// ---------- Help / banner ----------

func printUsage() {
	fmt.Print(`
leadgen - extract business leads from Google Maps

USAGE:
  leadgen -k "Coffee Shop" -l "Springfield"
  leadgen -k "Tesla Dealership" -n 12 --no-enrich

SEARCH:
  -k,  --keyword <string>    business keyword to search (required)
  -l,  --location <string>   location to search in (omit for global search)
  -n,  --num <int>           number of results, 3-15 (default 8)

FEATURES:
       --no-enrich           skip visiting business websites for emails/social
       --verify-mx           drop mined emails whose domain has no MX record
  -r,  --rate <float>        max website fetches per second (default unlimited)
       --headful             run the browser with a visible window

OUTPUT:
  -o,  --output <string>     CSV output path (default leads_<timestamp>.csv)
  -si, --silent              suppress all output except errors
  -v,  --verbose             enable debug logging
  -nc, --no-color            disable colored output

META:
  -h,  --help                show this help message
  -V,  --version             show version

`)
}

func printBanner(f *flags) {
	fmt.Println()
	fmt.Printf("  %s %s\n", clr(f, "cyan", "leadgen"), clr(f, "dim", "v"+version))
	fmt.Printf("  %s %q", clr(f, "dim", "Keyword:"), f.keyword)
	if f.location != "" {
		fmt.Printf("  %s %q", clr(f, "dim", "Location:"), f.location)
	}
	fmt.Printf("  %s %d  %s %v\n\n", clr(f, "dim", "Results:"), f.num, clr(f, "dim", "Enrich:"), f.enrich)
}

// ---------- Utilities ----------

func fmtDur(d time.Duration) string {
	if d < time.Second {
		return fmt.Sprintf("%dms", d.Milliseconds())
	}
	if d < time.Minute {
		return fmt.Sprintf("%.1fs", d.Seconds())
	}
	m := int(d.Minutes())
	s := int(d.Seconds()) % 60
	return fmt.Sprintf("%dm%ds", m, s)
}

func clr(f *flags, color, text string) string {
	if f.noColor {
		return text
	}
	codes := map[string]string{
		"red":    "\033[31m",
		"green":  "\033[32m",
		"yellow": "\033[33m",
		"cyan":   "\033[36m",
		"dim":    "\033[2m",
	}
	c, ok := codes[color]
	if !ok {
		return text
	}
	return c + text + "\033[0m"
}

func fatal(f *flags, format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, "\n  %s %s\n\n", clr(f, "red", "ERROR:"), fmt.Sprintf(format, args...))
	os.Exit(1)
}
