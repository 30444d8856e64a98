package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/alecthomas/kong"

	"github.com/RyanBlaney/sonido-coach/coach"
	"github.com/RyanBlaney/sonido-coach/coach/analyzers"
	"github.com/RyanBlaney/sonido-coach/coach/config"
	"github.com/RyanBlaney/sonido-coach/internal/cli"
	"github.com/RyanBlaney/sonido-coach/logging"
	"github.com/RyanBlaney/sonido-coach/transcode"
)

var (
	version = "0.1.0"
)

// CLI defines the command-line interface
type CLI struct {
	Version bool   `short:"v" help:"Show version information"`
	Config  string `short:"c" type:"existingfile" help:"Path to YAML config file (optional)"`

	Templates string `type:"path" env:"ADVICE_TEMPLATES_PATH" group:"Content" help:"Rule template file"`
	Episodes  string `type:"path" env:"VOICY_EPISODES_PATH" group:"Content" help:"Episode catalogue file"`

	Manual           bool     `group:"Analysis" help:"Use the manual silence threshold and clip level instead of auto-tuning"`
	SilenceThreshold *float64 `name:"silence-threshold" placeholder:"AMP" group:"Analysis" help:"Manual silence threshold"`
	ClipLevel        *float64 `name:"clip-level" placeholder:"AMP" group:"Analysis" help:"Manual clip level"`
	Extractor        string   `placeholder:"KIND" group:"Analysis" help:"Feature extractor: synthetic or acoustic"`
	Seed             int64    `group:"Analysis" help:"Random seed for the synthetic extractor and text choices (0 = clock)"`

	JSON     bool   `group:"Output" help:"Print the full result as JSON instead of Markdown"`
	Export   string `type:"path" placeholder:"DIR" group:"Output" help:"Write a normalised 16-bit WAV copy to DIR"`
	AI       bool   `name:"ai" group:"Output" help:"Append AI feedback from the configured chat endpoint"`
	LogLevel string `default:"warn" enum:"debug,info,warn,error" group:"Output" help:"Log level"`

	File string `arg:"" name:"file" help:"WAV recording to analyse" type:"existingfile" optional:""`
}

func main() {
	cliArgs := &CLI{}
	ctx := kong.Parse(cliArgs,
		kong.Name("sonido-coach"),
		kong.Description("Voice coaching feedback for short speech recordings"),
		kong.UsageOnError(),
		kong.Vars{
			"version": version,
		},
		kong.Help(cli.StyledHelpPrinter(
			cli.EnvVar{Name: config.EnvAPIBase, Help: "Chat-completions base URL for --ai"},
			cli.EnvVar{Name: config.EnvAPIKey, Help: "Bearer token for --ai"},
			cli.EnvVar{Name: config.EnvModelID, Help: "Model name for --ai"},
		)),
	)

	if cliArgs.Version {
		cli.PrintVersion(version)
		os.Exit(0)
	}

	if cliArgs.File == "" {
		cli.PrintError("No input file specified")
		_ = ctx.PrintUsage(false)
		os.Exit(1)
	}

	logging.SetLevel(logging.ParseLevel(cliArgs.LogLevel))

	if err := run(cliArgs); err != nil {
		cli.PrintError(err.Error())
		os.Exit(1)
	}
}

func run(args *CLI) error {
	cfg, err := buildConfig(args)
	if err != nil {
		return err
	}

	analyzer, err := coach.NewAnalyzer(cfg)
	if err != nil {
		return err
	}

	audio, err := transcode.DecodeWAVFile(args.File)
	if err != nil {
		return fmt.Errorf("failed to decode %s: %w", args.File, err)
	}

	buf := analyzers.AudioBuffer{
		Samples:    audio.PCM,
		SampleRate: audio.SampleRate,
		Channels:   audio.Channels,
	}
	result := analyzer.Analyze(buf)

	var aiSection string
	if args.AI {
		timeout := cfg.Enrichment.Timeout + 2*time.Second
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		aiSection = analyzer.Enrich(ctx, result)
		cancel()
	}

	if args.Export != "" {
		path, err := exportWAV(args.Export, buf, cfg.Signal.TargetPeak)
		if err != nil {
			return err
		}
		cli.PrintNote(os.Stderr, "Saved normalised copy to "+path)
	}

	if args.JSON {
		out := struct {
			*coach.AnalysisResult
			AI string `json:"ai,omitempty"`
		}{result, aiSection}
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(out)
	}

	printSummary(args.File, result)
	fmt.Println(result.Markdown())
	if aiSection != "" {
		fmt.Println(aiSection)
	} else if args.AI {
		cli.PrintNote(os.Stderr, "AI feedback unavailable")
	}
	return nil
}

func buildConfig(args *CLI) (*config.AnalysisConfig, error) {
	cfg := config.DefaultAnalysisConfig()
	if args.Config != "" {
		loaded, err := config.LoadFile(args.Config)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}
	cfg.ApplyEnv()

	if args.Templates != "" {
		cfg.TemplatesPath = args.Templates
	}
	if args.Episodes != "" {
		cfg.EpisodesPath = args.Episodes
	}
	if args.Manual {
		cfg.Signal.AutoTune = false
	}
	if args.SilenceThreshold != nil {
		cfg.Signal.SilenceThreshold = *args.SilenceThreshold
	}
	if args.ClipLevel != nil {
		cfg.Signal.ClipLevel = *args.ClipLevel
	}
	if args.Extractor != "" {
		cfg.Extractor.Kind = args.Extractor
	}
	if args.Seed != 0 {
		cfg.Extractor.Seed = args.Seed
	}

	return cfg, cfg.Validate()
}

// exportWAV writes the auto-ranged recording with its original channel
// layout, normalised to targetPeak
func exportWAV(dir string, buf analyzers.AudioBuffer, targetPeak float64) (string, error) {
	ranged := analyzers.AutoRange(buf.Samples)
	path, err := transcode.WriteTempWAV(dir, buf.SampleRate, buf.Channels, targetPeak, ranged)
	if err != nil {
		return "", fmt.Errorf("failed to export WAV: %w", err)
	}
	return path, nil
}

func printSummary(file string, r *coach.AnalysisResult) {
	rows := []cli.KV{
		{Key: "File", Value: file},
		{Key: "Duration", Value: fmt.Sprintf("%.1f s @ %d Hz", r.Duration, r.SampleRate)},
		{Key: "Level", Value: fmt.Sprintf("%.1f dBFS", r.Signal.DBFS)},
		{Key: "Score", Value: cli.ScoreStyle.Render(fmt.Sprintf("%.0f%%", r.Feedback.Score*100))},
	}
	if r.Strongest != "" {
		rows = append(rows, cli.KV{Key: "Strongest", Value: string(r.Strongest)})
	}
	if r.Weakest != "" {
		rows = append(rows, cli.KV{Key: "Weakest", Value: string(r.Weakest)})
	}
	cli.PrintSummary(os.Stdout, "Sonido Coach 🎙", rows)
}
