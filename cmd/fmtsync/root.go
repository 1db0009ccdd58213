package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/ZebulonRouseFrantzich/fmtsync/internal/binary"
	"github.com/ZebulonRouseFrantzich/fmtsync/internal/config"
	"github.com/ZebulonRouseFrantzich/fmtsync/internal/logging"
	"github.com/ZebulonRouseFrantzich/fmtsync/internal/platform"
	"github.com/ZebulonRouseFrantzich/fmtsync/internal/release"
	"github.com/ZebulonRouseFrantzich/fmtsync/internal/service"
)

// options holds the global flags.
type options struct {
	configPath string
	dataDir    string
	token      string
	yes        bool
	logLevel   string
	logFormat  string
}

// app carries the streams and collaborators shared by all commands.
type app struct {
	opts options

	in     io.Reader
	out    io.Writer
	errOut io.Writer

	logger   *logrus.Logger
	detector platform.Detector
	getenv   func(string) string
}

func newApp(in io.Reader, out, errOut io.Writer) *app {
	logger := logrus.New()
	logger.SetOutput(errOut)

	return &app{
		in:       in,
		out:      out,
		errOut:   errOut,
		logger:   logger,
		detector: platform.NewDetector(),
		getenv:   os.Getenv,
	}
}

func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:   "fmtsync",
		Short: "Keep a code formatter installed, current and ready to run",
		Long: `fmtsync locates the formatter executable to run, installs a private copy
from the upstream release feed when none is available, and keeps the installed
version in line with the configured one.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setupLogging()
		},
	}

	root.SetIn(a.in)
	root.SetOut(a.out)
	root.SetErr(a.errOut)

	flags := root.PersistentFlags()
	flags.StringVar(&a.opts.configPath, "config", "", "settings file (default $FMTSYNC_CONFIG_DIR/fmtsync.lua)")
	flags.StringVar(&a.opts.dataDir, "data-dir", "", "directory for installed executables (default $FMTSYNC_DATA_DIR)")
	flags.StringVar(&a.opts.token, "token", "", "GitHub token for release API requests")
	flags.BoolVarP(&a.opts.yes, "yes", "y", false, "accept every offer without asking")
	flags.StringVar(&a.opts.logLevel, "log-level", "warning", "log level (panic, fatal, error, warning, info, debug, trace)")
	flags.StringVar(&a.opts.logFormat, "log-format", "text", "log format (text or json)")

	root.AddCommand(
		newResolveCmd(a),
		newCheckCmd(a),
		newInstallCmd(a),
		newReinstallCmd(a),
		newReleasesCmd(a),
		newFormatCmd(a),
		newInitCmd(a),
		newVersionCmd(),
	)
	return root
}

func (a *app) setupLogging() error {
	level, err := logrus.ParseLevel(a.opts.logLevel)
	if err != nil {
		return fmt.Errorf("invalid --log-level: %w", err)
	}
	a.logger.SetLevel(level)

	switch a.opts.logFormat {
	case "text":
		a.logger.SetFormatter(&logrus.TextFormatter{DisableTimestamp: true})
	case "json":
		a.logger.SetFormatter(&logrus.JSONFormatter{})
	default:
		return fmt.Errorf("invalid --log-format %q: must be text or json", a.opts.logFormat)
	}
	return nil
}

func (a *app) log() logging.Logger {
	return logging.NewLogrus(a.logger)
}

func (a *app) loadSettings(ctx context.Context) (*config.Settings, error) {
	path, err := a.configPath()
	if err != nil {
		return nil, err
	}
	return config.NewParser(a.detector).WithLogger(a.log()).ParseFile(ctx, path)
}

// stack is a Service together with the release client and binary manager
// it was built from.
type stack struct {
	*service.Service
	client  *release.Client
	manager *binary.Manager
}

// buildService wires settings, credentials, the release client and the
// binary manager into a Service.
func (a *app) buildService(ctx context.Context) (*stack, error) {
	log := a.log()

	settings, err := a.loadSettings(ctx)
	if err != nil {
		return nil, err
	}

	info, err := a.detector.Detect(ctx)
	if err != nil {
		return nil, fmt.Errorf("detect platform: %w", err)
	}

	dataDir, err := a.dataDir()
	if err != nil {
		return nil, err
	}

	ui := newTerminalUI(a.in, a.errOut, a.opts.yes)
	creds := release.NewCredentials(&envSessionProvider{
		flagToken: a.opts.token,
		getenv:    a.getenv,
		prompt:    ui.promptToken,
	})
	go creds.Watch(ctx, sessionChanges(ctx))

	client := release.NewClient(settings.Repository,
		release.WithAPIURL(settings.APIURL),
		release.WithTokenSource(creds),
		release.WithLogger(log),
	)

	manager, err := binary.NewManager(binary.Config{
		StorageDir:  filepath.Join(dataDir, "bin"),
		CacheDir:    a.cacheDir(dataDir),
		Platform:    info,
		Releases:    client,
		KeyringPath: settings.Keyring,
		Logger:      log,
	})
	if err != nil {
		return nil, fmt.Errorf("create binary manager: %w", err)
	}

	log.Debug("service configured",
		"tool", settings.Tool,
		"repository", client.Repository(),
		"storage_dir", manager.StorageDir(),
		"platform", info.OS+"/"+info.Arch)

	svc, err := service.New(service.Config{
		Settings:    settings,
		Installer:   manager,
		Releases:    client,
		Credentials: creds,
		UI:          ui,
		Logger:      log,
	})
	if err != nil {
		return nil, err
	}
	return &stack{Service: svc, client: client, manager: manager}, nil
}

// workDir returns dir, or the process working directory when dir is empty.
func workDir(dir string) (string, error) {
	if dir != "" {
		return filepath.Abs(dir)
	}
	return os.Getwd()
}
