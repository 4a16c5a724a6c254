// Package cli contains the monk commands.
package cli

import (
	"context"
	"io"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/philly/arch-blog/reader/internal/adapters/terminal"
	"github.com/philly/arch-blog/reader/internal/app"
	"github.com/philly/arch-blog/reader/internal/platform/logger"
)

// Initializer builds the application; app.InitializeApp in production.
type Initializer func(ctx context.Context, bootstrapLogger *logger.BootstrapLogger, v *viper.Viper) (*app.App, func(), error)

// Options configures the command tree. Zero values use the process's
// standard streams and app.InitializeApp.
type Options struct {
	In         io.Reader
	Out        io.Writer
	Err        io.Writer
	Initialize Initializer
}

// runtime is the state shared by every command of one invocation.
type runtime struct {
	opts    Options
	viper   *viper.Viper
	verbose bool
	noColor bool

	app     *app.App
	cleanup func()
	printer *terminal.Printer
}

// NewRootCommand creates the monk command tree.
func NewRootCommand(opts Options) *cobra.Command {
	if opts.In == nil {
		opts.In = os.Stdin
	}
	if opts.Out == nil {
		opts.Out = os.Stdout
	}
	if opts.Err == nil {
		opts.Err = os.Stderr
	}
	if opts.Initialize == nil {
		opts.Initialize = app.InitializeApp
	}
	rt := &runtime{opts: opts, viper: app.NewViper()}

	root := &cobra.Command{
		Use:   "monk",
		Short: "Read and write stories on an arch-blog content service",
		Long: `monk is a terminal reader for the arch-blog content service.

Example usage:
  monk list                         # List every story
  monk show 42                      # Read story 42
  monk create --title T --category "go, cli" --description D --content C
  monk browse                       # Interactive reader`,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: rt.start,
	}
	root.SetIn(opts.In)
	root.SetOut(opts.Out)
	root.SetErr(opts.Err)

	root.PersistentFlags().String("api-url", "", "content service base URL (env API_URL)")
	root.PersistentFlags().BoolVarP(&rt.verbose, "verbose", "v", false, "debug logging")
	root.PersistentFlags().BoolVar(&rt.noColor, "no-color", false, "disable colored output")
	_ = rt.viper.BindPFlag(app.KeyAPIURL, root.PersistentFlags().Lookup("api-url"))

	root.AddCommand(
		newListCommand(rt),
		newShowCommand(rt),
		newCreateCommand(rt),
		newBrowseCommand(rt),
	)
	return root
}

// Execute runs monk with the process arguments.
func Execute(ctx context.Context) error {
	root := NewRootCommand(Options{})
	return root.ExecuteContext(ctx)
}

func (rt *runtime) start(cmd *cobra.Command, _ []string) error {
	if rt.verbose {
		rt.viper.Set(app.KeyLogLevel, "debug")
	}

	bootstrap := logger.NewBootstrapLoggerTo(rt.opts.Err, rt.verbose)
	a, cleanup, err := rt.opts.Initialize(cmd.Context(), bootstrap, rt.viper)
	if err != nil {
		return err
	}
	rt.app = a
	rt.cleanup = cleanup
	rt.printer = terminal.NewPrinterTo(rt.opts.Out, rt.opts.Err, !rt.noColor && terminal.ColorsWanted())
	return nil
}

func (rt *runtime) stop() {
	if rt.app != nil {
		rt.app.Close()
		rt.app = nil
	}
	if rt.cleanup != nil {
		rt.cleanup()
		rt.cleanup = nil
	}
}

// run executes fn inside the app lifecycle and tears the app down after.
func (rt *runtime) run(cmd *cobra.Command, fn func(ctx context.Context) error) error {
	defer rt.stop()
	return rt.app.Run(cmd.Context(), fn)
}
