package commands

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/src-d/enry/v2"

	"github.com/Sumatoshi-tech/editmine/pkg/classify"
	"github.com/Sumatoshi-tech/editmine/pkg/config"
	"github.com/Sumatoshi-tech/editmine/pkg/detector"
	"github.com/Sumatoshi-tech/editmine/pkg/lang"
	"github.com/Sumatoshi-tech/editmine/pkg/observability"
	"github.com/Sumatoshi-tech/editmine/pkg/version"
)

// Output formats.
const (
	formatText  = "text"
	formatTable = "table"
	formatJSON  = "json"
	formatYAML  = "yaml"
)

// stdinPath names standard input in file arguments.
const stdinPath = "-"

// ErrUnknownFormat is returned for an unsupported --format value.
var ErrUnknownFormat = errors.New("unknown output format")

// ErrStdinTwice is returned when both snapshots are read from stdin.
var ErrStdinTwice = errors.New("only one snapshot can be read from stdin")

// ErrBinarySnapshot is returned for a snapshot that is not text.
var ErrBinarySnapshot = errors.New("snapshot is binary")

func loadConfig(opts *globalOptions) (*config.Config, error) {
	return config.Load(opts.configPath)
}

// telemetryConfig maps the loaded settings and global flags to the
// observability configuration of one entry point.
func telemetryConfig(cfg *config.Config, opts *globalOptions, mode observability.AppMode) (observability.Config, error) {
	oc := observability.DefaultConfig()
	oc.ServiceVersion = version.Version
	oc.Mode = mode
	oc.Environment = cfg.Telemetry.Environment
	oc.OTLPEndpoint = cfg.Telemetry.OTLPEndpoint
	oc.OTLPHeaders = observability.ParseOTLPHeaders(cfg.Telemetry.OTLPHeaders)
	oc.OTLPInsecure = cfg.Telemetry.OTLPInsecure
	oc.SampleRatio = cfg.Telemetry.SampleRatio
	oc.LogJSON = cfg.Logging.JSON

	level, err := observability.ParseLogLevel(cfg.Logging.Level)
	if err != nil {
		return oc, fmt.Errorf("logging.level: %w", err)
	}

	switch {
	case opts.verbose:
		level = slog.LevelDebug
		oc.DebugTrace = true
	case opts.quiet:
		level = slog.LevelError
	}

	oc.LogLevel = level

	return oc, nil
}

// snapshotOptions are the flags shared by the commands working on inline
// snapshots.
type snapshotOptions struct {
	language string
	mode     string
	format   string
}

func (so *snapshotOptions) register(cmd *cobra.Command, formats ...string) {
	cmd.Flags().StringVarP(&so.language, "language", "l", "", "language of the snapshots (default: detected from the file name, then config)")

	if len(formats) > 0 {
		cmd.Flags().StringVarP(&so.format, "format", "f", formats[0], "output format: "+strings.Join(formats, ", "))
	}
}

func checkFormat(format string, allowed ...string) error {
	for _, f := range allowed {
		if f == format {
			return nil
		}
	}

	return fmt.Errorf("%w: %q (want one of %s)", ErrUnknownFormat, format, strings.Join(allowed, ", "))
}

// newDetector builds a detector for the snapshot at path with content
// src. The language comes from the flag, else from the file name, else
// from the configuration.
func newDetector(cmd *cobra.Command, opts *globalOptions, so *snapshotOptions, path string, src []byte) (*detector.Detector, *config.Config, error) {
	cfg, err := loadConfig(opts)
	if err != nil {
		return nil, nil, err
	}

	oc, err := telemetryConfig(cfg, opts, observability.ModeCLI)
	if err != nil {
		return nil, nil, err
	}

	l, err := resolveLanguage(cfg, so.language, path, src)
	if err != nil {
		return nil, nil, err
	}

	mode, err := cfg.ParsedMode()
	if err != nil {
		return nil, nil, err
	}

	if so.mode != "" {
		mode, err = classify.ParseMode(so.mode)
		if err != nil {
			return nil, nil, err
		}
	}

	d, err := detector.New(l,
		detector.WithLogger(observability.NewLogger(cmd.ErrOrStderr(), oc)),
		detector.WithMaxTokens(cfg.Limits.MaxTokens),
		detector.WithMode(mode),
	)
	if err != nil {
		return nil, nil, err
	}

	return d, cfg, nil
}

func resolveLanguage(cfg *config.Config, flag, path string, src []byte) (lang.Language, error) {
	if flag != "" {
		return lang.ParseLanguage(flag)
	}

	if path != "" && path != stdinPath {
		if l, err := lang.Detect(path, src); err == nil {
			return l, nil
		}
	}

	return cfg.ParsedLanguage()
}

// readSnapshot reads a file argument; "-" reads stdin.
func readSnapshot(cmd *cobra.Command, path string) ([]byte, error) {
	var (
		data []byte
		err  error
	)

	if path == stdinPath {
		data, err = io.ReadAll(cmd.InOrStdin())
	} else {
		data, err = os.ReadFile(path)
	}

	if err != nil {
		return nil, fmt.Errorf("read snapshot %s: %w", path, err)
	}

	if enry.IsBinary(data) {
		return nil, fmt.Errorf("%w: %s", ErrBinarySnapshot, path)
	}

	return data, nil
}

// readPair reads the before and after snapshots.
func readPair(cmd *cobra.Command, args []string) (string, string, error) {
	if args[0] == stdinPath && args[1] == stdinPath {
		return "", "", ErrStdinTwice
	}

	before, err := readSnapshot(cmd, args[0])
	if err != nil {
		return "", "", err
	}

	after, err := readSnapshot(cmd, args[1])
	if err != nil {
		return "", "", err
	}

	return string(before), string(after), nil
}
