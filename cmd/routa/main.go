// Command routa is the CLI for the Routa coordination runtime.
//
// Usage:
//
//	routa serve --port 8080
//	routa run "refactor the config loader" --cwd ./project
//	routa validate --config ~/.config/routa/models.yaml
package main

import (
	"fmt"
	"os"
	"runtime/debug"

	"github.com/alecthomas/kong"
	"golang.org/x/term"

	"github.com/routa-ai/routa/pkg/config"
	"github.com/routa-ai/routa/pkg/logger"
)

// CLI defines the command-line interface.
type CLI struct {
	Version  VersionCmd  `cmd:"" help:"Show version information."`
	Serve    ServeCmd    `cmd:"" help:"Start the agent-to-agent server."`
	Run      RunCmd      `cmd:"" help:"Run one request through the orchestrator."`
	Validate ValidateCmd `cmd:"" help:"Validate the model configuration file."`

	Config   string `short:"c" help:"Path to the model config file (default: platform config dir)." type:"path"`
	LogLevel string `help:"Log level (debug, info, warn, error)." default:"info"`
	LogFile  string `help:"Log file path (empty = stderr)."`
	Observe  bool   `help:"Enable tracing (stdout exporter)."`
}

// VersionCmd shows version information.
type VersionCmd struct{}

func (c *VersionCmd) Run() error {
	version := "dev"
	if info, ok := debug.ReadBuildInfo(); ok {
		if info.Main.Version != "(devel)" && info.Main.Version != "" {
			version = info.Main.Version
		}
	}
	fmt.Printf("routa version %s\n", version)
	return nil
}

// configPath resolves the model config location from the flag or the
// platform default.
func (cli *CLI) configPath() (string, error) {
	if cli.Config != "" {
		return cli.Config, nil
	}
	return config.DefaultPath()
}

func printBanner() {
	if !term.IsTerminal(int(os.Stdout.Fd())) {
		return
	}
	fmt.Println("routa · multi-agent coordination runtime")
}

func main() {
	printBanner()

	_ = config.LoadEnvFiles()

	cli := CLI{}
	ctx := kong.Parse(&cli,
		kong.Name("routa"),
		kong.Description("Routa - multi-agent coordination runtime"),
		kong.UsageOnError(),
	)

	level, err := logger.ParseLevel(cli.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Invalid log level: %v\n", err)
		os.Exit(1)
	}

	output := os.Stderr
	var cleanup func()
	if cli.LogFile != "" {
		file, closeFile, err := logger.OpenLogFile(cli.LogFile)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to open log file: %v\n", err)
			os.Exit(1)
		}
		output = file
		cleanup = closeFile
	}
	logger.Init(level, output, "simple")
	if cleanup != nil {
		defer cleanup()
	}

	err = ctx.Run(&cli)
	ctx.FatalIfErrorf(err)
}
