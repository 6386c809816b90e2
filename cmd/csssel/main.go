package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sort"
	"syscall"

	cli "github.com/urfave/cli/v3"
	"go.uber.org/multierr"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/boxesandglue/csssel"
)

type logKey struct{}

func logFromContext(ctx context.Context) *zap.Logger {
	if log, ok := ctx.Value(logKey{}).(*zap.Logger); ok {
		return log
	}
	return zap.NewNop()
}

// newLogger writes human readable messages to stderr, stdout is reserved for
// command output.
func newLogger(debug bool) *zap.Logger {
	ec := zap.NewDevelopmentEncoderConfig()
	ec.EncodeCaller = nil
	ec.TimeKey = zapcore.OmitKey
	ec.EncodeLevel = zapcore.CapitalLevelEncoder
	level := zap.NewAtomicLevelAt(zap.InfoLevel)
	if debug {
		level = zap.NewAtomicLevelAt(zap.DebugLevel)
	}
	core := zapcore.NewCore(zapcore.NewConsoleEncoder(ec), zapcore.Lock(os.Stderr), level)
	return zap.New(core)
}

func initializeAppContext(ctx context.Context, cmd *cli.Command) (context.Context, error) {
	log := newLogger(cmd.Bool("debug"))
	log.Debug("Program started", zap.Strings("args", os.Args))
	return context.WithValue(ctx, logKey{}, log), nil
}

func destroyAppContext(ctx context.Context, cmd *cli.Command) error {
	// Sync of stderr fails on some terminals.
	_ = logFromContext(ctx).Sync()
	return nil
}

func loadSheet(ctx context.Context, cmd *cli.Command) (*csssel.Sheet, error) {
	if cmd.NArg() == 0 {
		return nil, fmt.Errorf("missing DEFINITION argument")
	}
	return csssel.LoadDefinitionFile(cmd.Args().First(), logFromContext(ctx))
}

func render(ctx context.Context, cmd *cli.Command) (err error) {
	sheet, err := loadSheet(ctx, cmd)
	if err != nil {
		return err
	}
	var out io.Writer = cmd.Root().Writer
	if fname := cmd.String("output"); fname != "" {
		f, cerr := os.Create(fname)
		if cerr != nil {
			return fmt.Errorf("unable to create destination file '%s': %w", fname, cerr)
		}
		defer func() {
			err = multierr.Append(err, f.Close())
		}()
		out = f
	}
	if _, err = sheet.WriteTo(out); err != nil {
		return fmt.Errorf("unable to write stylesheet: %w", err)
	}
	logFromContext(ctx).Info("Stylesheet written", zap.Int("rules", len(sheet.Rules)))
	return nil
}

func check(ctx context.Context, cmd *cli.Command) error {
	sheet, err := loadSheet(ctx, cmd)
	if sheet == nil {
		return err
	}
	err = multierr.Append(err, sheet.Validate())
	if err != nil {
		for _, e := range multierr.Errors(err) {
			logFromContext(ctx).Error("Check failed", zap.Error(e))
		}
		return fmt.Errorf("%d problem(s) found", len(multierr.Errors(err)))
	}
	logFromContext(ctx).Info("All selectors are valid", zap.Int("rules", len(sheet.Rules)))
	return nil
}

func apply(ctx context.Context, cmd *cli.Command) error {
	if cmd.NArg() < 2 {
		return fmt.Errorf("need DEFINITION and HTMLFILE arguments")
	}
	sheet, err := loadSheet(ctx, cmd)
	if err != nil {
		return err
	}
	var c *csssel.CSS
	if cmd.Bool("defaults") {
		c = csssel.NewCSSParserWithDefaults(logFromContext(ctx))
	} else {
		c = csssel.NewCSSParser(logFromContext(ctx))
	}
	c.AddSheet(sheet)
	doc, err := c.ProcessHTMLFile(cmd.Args().Get(1))
	if doc == nil {
		return err
	}
	w := cmd.Root().Writer
	for _, n := range doc.Find("*").Nodes {
		props := csssel.ResolveAttributes(n.Attr)
		if len(props) == 0 {
			continue
		}
		keys := make([]string, 0, len(props))
		for k := range props {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		fmt.Fprintf(w, "<%s>\n", n.Data)
		for _, k := range keys {
			fmt.Fprintf(w, "    %s: %s\n", k, props[k])
		}
	}
	return err
}

func newApp() *cli.Command {
	return &cli.Command{
		Name:            "csssel",
		Usage:           "builds stylesheets from selector definitions",
		HideHelpCommand: true,
		Before:          initializeAppContext,
		After:           destroyAppContext,
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "debug", Aliases: []string{"d"}, Usage: "log debug messages"},
		},
		Commands: []*cli.Command{
			{
				Name:      "render",
				Usage:     "Writes the CSS text of a definition",
				Action:    render,
				ArgsUsage: "DEFINITION",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "output", Aliases: []string{"o"}, Usage: "write CSS to `FILE` instead of STDOUT"},
				},
			},
			{
				Name:      "check",
				Usage:     "Validates every selector of a definition",
				Action:    check,
				ArgsUsage: "DEFINITION",
			},
			{
				Name:      "apply",
				Usage:     "Applies a definition to an HTML file and lists the styled elements",
				Action:    apply,
				ArgsUsage: "DEFINITION HTMLFILE",
				Flags: []cli.Flag{
					&cli.BoolFlag{Name: "defaults", Usage: "apply the built-in browser-like stylesheet first"},
				},
			},
		},
	}
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := newApp().Run(ctx, os.Args)
	stop()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Program ended with error: %v\n", err)
		os.Exit(1)
	}
}
