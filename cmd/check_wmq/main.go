package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/common/version"
	"gopkg.in/alecthomas/kingpin.v2"

	"github.com/obsidianstack/wmqprobe/internal/config"
	"github.com/obsidianstack/wmqprobe/internal/health"
	"github.com/obsidianstack/wmqprobe/internal/mq"
	"github.com/obsidianstack/wmqprobe/internal/mqweb"
	"github.com/obsidianstack/wmqprobe/internal/textfile"
)

type options struct {
	host     string
	port     int
	qmgr     string
	channel  string
	user     string
	password string
	envFile  string

	configPath string

	tls                bool
	insecureSkipVerify bool
	certFile           string
	keyFile            string
	caFile             string
	requestTimeout     time.Duration

	textfile string
	logLevel string
}

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr, nil)
	cancel()
	os.Exit(code)
}

// newApp builds the command line. Help and version output go to stdout where
// the scheduler captures plugin output.
func newApp(opts *options, stdout, stderr io.Writer) *kingpin.Application {
	app := kingpin.New(filepath.Base(os.Args[0]), "Check queue depths on a queue manager against warning and critical thresholds.")
	app.Version(version.Print("check_wmq"))
	app.HelpFlag.Short('h')
	app.UsageWriter(stdout)
	app.ErrorWriter(stderr)

	app.Flag("host", "Queue manager host name or IP address.").Short('H').Required().StringVar(&opts.host)
	app.Flag("port", "Queue manager administrative port.").Short('p').Default(fmt.Sprint(mq.DefaultPort)).IntVar(&opts.port)
	app.Flag("qmgr", "Queue manager name.").Short('m').Required().StringVar(&opts.qmgr)
	app.Flag("channel", "Channel name.").Short('C').Required().StringVar(&opts.channel)
	app.Flag("user", "User name. Used only together with a password.").Short('u').Envar(config.EnvUser).StringVar(&opts.user)
	app.Flag("password", "Password. Prefer "+config.EnvPassword+" or --env-file.").Short('P').Envar(config.EnvPassword).StringVar(&opts.password)
	app.Flag("env-file", "dotenv file providing "+config.EnvUser+" and "+config.EnvPassword+".").StringVar(&opts.envFile)

	app.Flag("config", "Queue threshold file (.conf/.ini or .yaml).").Short('c').Default(config.DefaultPath).StringVar(&opts.configPath)

	app.Flag("tls", "Connect over TLS.").BoolVar(&opts.tls)
	app.Flag("insecure-skip-verify", "Do not verify the server certificate.").BoolVar(&opts.insecureSkipVerify)
	app.Flag("cert-file", "Client certificate for mutual TLS.").StringVar(&opts.certFile)
	app.Flag("key-file", "Client key for mutual TLS.").StringVar(&opts.keyFile)
	app.Flag("ca-file", "CA bundle used to verify the server.").StringVar(&opts.caFile)
	app.Flag("request-timeout", "Timeout for each administrative request.").Default(mqweb.DefaultRequestTimeout.String()).DurationVar(&opts.requestTimeout)

	app.Flag("textfile", "Also write the result as a Prometheus textfile to this path.").StringVar(&opts.textfile)
	app.Flag("log-level", "Log level for stderr output.").Default("warn").EnumVar(&opts.logLevel, "debug", "info", "warn", "error")
	return app
}

// run executes one check and returns the plugin exit status. stdout receives
// only the plugin summary; logs go to stderr. A nil dialer selects the mqweb
// transport.
func run(ctx context.Context, args []string, stdout, stderr io.Writer, dialer mq.Dialer) int {
	var opts options
	app := newApp(&opts, stdout, stderr)

	// --help and --version stop here with UNKNOWN instead of exiting
	// from inside kingpin.
	var terminated bool
	app.Terminate(func(int) { terminated = true })
	_, err := app.Parse(args)
	if terminated {
		return health.Unknown.ExitCode()
	}
	if err != nil {
		fmt.Fprintf(stdout, "UNKNOWN: %s\n", oneLine(err.Error()))
		return health.Unknown.ExitCode()
	}

	var level slog.Level
	_ = level.UnmarshalText([]byte(opts.logLevel))
	logger := slog.New(slog.NewJSONHandler(stderr, &slog.HandlerOptions{Level: level})).
		With("run_id", uuid.NewString())
	slog.SetDefault(logger)

	fail := func(msg string, err error) int {
		slog.Error(msg, "err", err)
		fmt.Fprintf(stdout, "UNKNOWN: %s: %s\n", msg, oneLine(err.Error()))
		return health.Unknown.ExitCode()
	}

	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return fail("load queue list", err)
	}
	if cfg.Skipped != nil {
		slog.Warn("skipping malformed queue entries",
			"count", len(cfg.Skipped.Errors), "err", cfg.Skipped.ErrorOrNil())
	}
	slog.Info("queue list loaded", "path", opts.configPath, "queues", len(cfg.Queues))

	creds, err := config.ResolveCredentials(config.Credentials{User: opts.user, Password: opts.password}, opts.envFile)
	if err != nil {
		return fail("resolve credentials", err)
	}

	target := mq.Target{
		Host:         opts.host,
		Port:         opts.port,
		QueueManager: opts.qmgr,
		Channel:      opts.channel,
		User:         creds.User,
		Password:     creds.Password,
		TLS: mq.TLSOptions{
			Enabled:            opts.tls,
			InsecureSkipVerify: opts.insecureSkipVerify,
			CertFile:           opts.certFile,
			KeyFile:            opts.keyFile,
			CAFile:             opts.caFile,
		},
	}
	if dialer == nil {
		dialer = &mqweb.Dialer{RequestTimeout: opts.requestTimeout}
	}

	started := time.Now()
	var report *health.Report
	err = mq.WithSession(ctx, dialer, target, func(s *mq.Session) error {
		report = health.Evaluate(ctx, s, cfg.Queues)
		return nil
	})
	if err != nil {
		slog.Error("check aborted", "qmgr", target.QueueManager, "err", err)
		report = &health.Report{}
		report.Fail(health.Unknown, "UNKNOWN: "+oneLine(err.Error()))
	}

	fmt.Fprintln(stdout, report.String())

	if opts.textfile != "" {
		if err := textfile.Write(opts.textfile, textfile.Run{
			QueueManager: target.QueueManager,
			Report:       report,
			Started:      started,
			Duration:     time.Since(started),
		}); err != nil {
			slog.Warn("textfile export failed", "path", opts.textfile, "err", err)
		}
	}

	slog.Info("check finished",
		"qmgr", target.QueueManager,
		"severity", report.Severity.String(),
		"messages", len(report.Messages),
		"duration", time.Since(started),
	)
	return report.ExitCode()
}

// oneLine folds a multi-line error into a single line for the plugin summary.
func oneLine(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
