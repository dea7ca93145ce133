// Package app builds the command-line skeleton shared by guildmaster
// binaries: cobra command, grouped flags, config file loading through viper,
// and the version flag.
package app

import (
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/mverel/guildmaster/pkg/logger"
	"github.com/mverel/guildmaster/pkg/utils/cliflag"
	"github.com/mverel/guildmaster/pkg/version/verflag"
)

// RunFunc is the application's run callback; basename is the binary name.
type RunFunc func(basename string) error

// CliOptions abstracts the option groups an application exposes as flags.
type CliOptions interface {
	Flags() cliflag.NamedFlagSets
	Validate() []error
}

// CompleteableOptions can fill defaults after config binding.
type CompleteableOptions interface {
	Complete() error
}

// App is a configured application instance.
type App struct {
	name        string
	basename    string
	description string
	options     CliOptions
	runFunc     RunFunc
	cmd         *cobra.Command
}

// Option configures an App.
type Option func(*App)

// WithOptions attaches the option groups to read from flags and config.
func WithOptions(opts CliOptions) Option {
	return func(a *App) { a.options = opts }
}

// WithRunFunc sets the application run callback.
func WithRunFunc(run RunFunc) Option {
	return func(a *App) { a.runFunc = run }
}

// WithDescription sets the long description shown in help output.
func WithDescription(desc string) Option {
	return func(a *App) { a.description = desc }
}

// WithDefaultValidArgs rejects any positional arguments.
func WithDefaultValidArgs() Option {
	return func(a *App) {}
}

// NewApp creates an App with the given name, binary basename and options.
func NewApp(name string, basename string, opts ...Option) *App {
	a := &App{
		name:     name,
		basename: basename,
	}
	for _, o := range opts {
		o(a)
	}
	a.buildCommand()
	return a
}

func (a *App) buildCommand() {
	cmd := &cobra.Command{
		Use:           a.basename,
		Short:         a.name,
		Long:          a.description,
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.NoArgs,
	}
	cmd.SetOut(os.Stdout)
	cmd.SetErr(os.Stderr)
	cmd.Flags().SortFlags = false

	if a.options != nil {
		for _, name := range a.options.Flags().Order {
			cmd.Flags().AddFlagSet(a.options.Flags().FlagSets[name])
		}
	}
	verflag.AddFlags(cmd.Flags())
	addConfigFlag(a.basename, cmd.Flags())

	cmd.RunE = a.runCommand
	a.cmd = cmd
}

// Run executes the application and exits non-zero on error.
func (a *App) Run() {
	if err := a.cmd.Execute(); err != nil {
		fmt.Printf("%v %v\n", color.RedString("Error:"), err)
		os.Exit(1)
	}
}

func (a *App) runCommand(cmd *cobra.Command, args []string) error {
	verflag.PrintAndExitIfRequested()

	if a.options != nil {
		if err := bindConfig(a.options); err != nil {
			return err
		}
		if completeable, ok := a.options.(CompleteableOptions); ok {
			if err := completeable.Complete(); err != nil {
				return err
			}
		}
		if errs := a.options.Validate(); len(errs) != 0 {
			for _, err := range errs {
				logger.Error("[App] invalid option: %v", err)
			}
			return fmt.Errorf("%d invalid options", len(errs))
		}
	}

	if a.runFunc != nil {
		return a.runFunc(a.basename)
	}
	return nil
}
