package main

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/unkn0wn-root/restcmd/internal/cmdspec"
	"github.com/unkn0wn-root/restcmd/internal/config"
	"github.com/unkn0wn-root/restcmd/internal/executor"
	"github.com/unkn0wn-root/restcmd/internal/history"
	"github.com/unkn0wn-root/restcmd/internal/manifest"
	"github.com/unkn0wn-root/restcmd/internal/session"
)

var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

const defaultManifest = "restcmd.yaml"

type app struct {
	doc      *manifest.Document
	tree     map[string]*cmdspec.Command
	settings config.Settings
	store    *session.FileStore
	hist     *history.Store
	runner   *executor.Runner

	envFile  string
	timeout  time.Duration
	insecure bool
	follow   bool
	verbose  bool
}

func main() {
	settings, _, err := config.LoadSettings()
	if err != nil {
		fmt.Fprintf(os.Stderr, "restcmd: %s\n", err)
		settings = config.DefaultSettings()
	}

	doc, err := manifest.Load(manifestPath(os.Args[1:]))
	if err != nil {
		fmt.Fprintf(os.Stderr, "restcmd: %s\n", err)
		os.Exit(1)
	}

	tree, err := cmdspec.Group(doc)
	if err != nil {
		fmt.Fprintf(os.Stderr, "restcmd: %s\n", err)
		os.Exit(1)
	}

	a := &app{doc: doc, tree: tree, settings: settings}
	root := a.rootCommand()
	if err := root.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "restcmd: %s\n", err)
		os.Exit(1)
	}
}

// manifestPath resolves --file ahead of cobra because the command tree is
// built from the manifest before Execute parses anything.
func manifestPath(args []string) string {
	for i, arg := range args {
		switch {
		case arg == "--file" || arg == "-f":
			if i+1 < len(args) {
				return args[i+1]
			}
		case len(arg) > len("--file=") && arg[:len("--file=")] == "--file=":
			return arg[len("--file="):]
		case len(arg) > len("-f=") && arg[:len("-f=")] == "-f=":
			return arg[len("-f="):]
		}
	}
	if env := os.Getenv("RESTCMD_FILE"); env != "" {
		return env
	}
	return defaultManifest
}

func (a *app) rootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:           "restcmd",
		Short:         "Run CLI commands generated from a YAML manifest",
		Long:          "restcmd compiles a YAML manifest of named commands into a CLI.\nEach command maps to an HTTP call or a local shell execution, with\n$variable placeholders filled from manifest variables, the persisted\nsession and command arguments.",
		Version:       fmt.Sprintf("%s (commit %s, built %s)", version, commit, date),
		SilenceErrors: true,
		SilenceUsage:  true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.initRunner()
		},
	}

	flags := root.PersistentFlags()
	flags.StringP("file", "f", defaultManifest, "Path to the command manifest")
	flags.StringVar(&a.envFile, "env-file", "", "Dotenv file layered over manifest variables")
	flags.DurationVar(&a.timeout, "timeout", time.Duration(a.settings.Timeout), "Request timeout")
	flags.BoolVar(&a.insecure, "insecure", a.settings.Insecure, "Skip TLS certificate verification")
	flags.BoolVar(&a.follow, "follow", a.settings.FollowRedirects, "Follow redirects")
	flags.BoolVarP(&a.verbose, "verbose", "v", false, "Print request and execution detail")

	a.registerManifest(root)
	root.AddCommand(a.sessionCommand(), a.historyCommand())
	return root
}

func (a *app) initRunner() error {
	if a.runner != nil {
		return nil
	}

	dir := config.Dir()
	a.store = session.NewFileStore(filepath.Join(dir, "session.json"))
	a.hist = history.NewStore(filepath.Join(dir, "history.json"), a.settings.HistoryLimit)

	a.runner = executor.New(a.doc, a.store, executor.Options{
		Timeout:            a.timeout,
		FollowRedirects:    a.follow,
		InsecureSkipVerify: a.insecure,
		Verbose:            a.verbose,
	})
	a.runner.SetHistory(a.hist)

	if a.envFile != "" {
		overlay, err := godotenv.Read(a.envFile)
		if err != nil {
			return fmt.Errorf("read env file %s: %w", a.envFile, err)
		}
		a.runner.SetOverlay(overlay)
	}
	return nil
}
