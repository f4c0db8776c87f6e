// bpmigrate loads definition packages, migrates them to the current
// schema, regenerates their classes and writes them back.
//
// Usage:
//
//	bpmigrate [--config file] migrate <pkg>... [--out dir]
//	bpmigrate [--config file] inspect <pkg>
//	bpmigrate [--config file] rename <pkg> <definition> <new-name> [--dest path] [--dry-run]
//	bpmigrate [--config file] gen <pkg>... --out dir
package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"slices"
	"strings"

	"github.com/spf13/pflag"

	"blueprintcore/internal/config"
	"blueprintcore/internal/workspace"
)

func main() {
	if err := run(context.Background(), os.Args[1:], os.Stdout, os.Stderr); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

// env is what every subcommand gets.
type env struct {
	cfg    *config.Config
	logger *slog.Logger
	out    io.Writer
}

func (e env) workspace(ctx context.Context) (*workspace.Workspace, error) {
	return workspace.New(ctx, workspace.Options{Config: e.cfg, Logger: e.logger})
}

type command struct {
	usage string
	run   func(ctx context.Context, e env, args []string) error
}

var commands = map[string]command{
	"migrate": {"migrate <pkg>... [--out dir]", runMigrate},
	"inspect": {"inspect <pkg>", runInspect},
	"rename":  {"rename <pkg> <definition> <new-name> [--dest path] [--dry-run]", runRename},
	"gen":     {"gen <pkg>... --out dir", runGen},
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	var configPath string
	flagSet := pflag.NewFlagSet("bpmigrate", pflag.ContinueOnError)
	flagSet.SetOutput(stderr)
	flagSet.SetInterspersed(false)
	flagSet.StringVar(&configPath, "config", "", "path to the YAML config (default: $"+config.EnvVar+")")
	flagSet.BoolP("help", "h", false, "show help")

	if err := flagSet.Parse(args); err != nil {
		if err == pflag.ErrHelp {
			printHelp(stderr, flagSet)
			return nil
		}
		return err
	}
	if help, _ := flagSet.GetBool("help"); help || flagSet.NArg() == 0 {
		printHelp(stderr, flagSet)
		if help {
			return nil
		}
		return fmt.Errorf("missing command")
	}

	name := flagSet.Arg(0)
	cmd, ok := commands[name]
	if !ok {
		return fmt.Errorf("unknown command %q", name)
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	logger := slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: cfg.LogLevel()}))
	return cmd.run(ctx, env{cfg: cfg, logger: logger, out: stdout}, flagSet.Args()[1:])
}

func printHelp(w io.Writer, flagSet *pflag.FlagSet) {
	names := make([]string, 0, len(commands))
	for name := range commands {
		names = append(names, name)
	}
	slices.Sort(names)

	var b strings.Builder
	b.WriteString("Usage: bpmigrate [--config file] <command>\n\nCommands:\n")
	for _, name := range names {
		fmt.Fprintf(&b, "  %s\n", commands[name].usage)
	}
	b.WriteString("\nFlags:\n")
	fmt.Fprint(w, b.String())
	fmt.Fprint(w, flagSet.FlagUsages())
}

// subcommandFlags builds a flag set for a subcommand.
func subcommandFlags(name string) *pflag.FlagSet {
	fs := pflag.NewFlagSet("bpmigrate "+name, pflag.ContinueOnError)
	fs.SetOutput(io.Discard)
	return fs
}
