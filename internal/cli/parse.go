package cli

import (
	"errors"
	"flag"
	"fmt"
	"strings"
	"time"

	"mangograb/internal/app"
	"mangograb/internal/config"
)

type ExitError struct {
	Code int
	Err  error
}

func (e ExitError) Error() string {
	if e.Err != nil {
		return e.Err.Error()
	}
	return "error"
}

type Result struct {
	Options    app.Options
	LogFile    string
	Verbose    bool
	InitConfig bool
}

func ParseArgs(args []string) (Result, error) {
	parsed, err := parseFlags(args)
	if err != nil {
		return Result{}, ExitError{Code: 2, Err: err}
	}
	if parsed.initConfig {
		return Result{InitConfig: true}, nil
	}

	cfg, err := loadConfig(parsed.configStr)
	if err != nil {
		return Result{}, err
	}
	applyConfigDefaults(&parsed, cfg)

	return buildResult(parsed)
}

type parsedFlags struct {
	query           string
	mangaURL        string
	chapters        stringFlag
	configStr       string
	initConfig      bool
	downloadDir     stringFlag
	format          stringFlag
	deleteImages    boolFlag
	browserWorkers  intFlag
	downloadWorkers intFlag
	timeout         intFlag
	retries         intFlag
	settle          intFlag
	headless        boolFlag
	userAgent       stringFlag
	logFile         stringFlag
	verbose         bool
}

func parseFlags(args []string) (parsedFlags, error) {
	fs := flag.NewFlagSet("mangograb", flag.ContinueOnError)
	parsed := parsedFlags{}

	fs.StringVar(&parsed.query, "query", "", "Search the catalog by title")
	fs.StringVar(&parsed.mangaURL, "url", "", "Series page URL (skips search)")
	parsed.chapters.Value = "all"
	fs.Var(&parsed.chapters, "chapters", `Chapter selection: "all", "12", "3-7" or "1,4,9-11"`)
	fs.StringVar(&parsed.configStr, "config", "", "Path to JSON config file")
	fs.BoolVar(&parsed.initConfig, "init-config", false, "Interactive config wizard")
	fs.Var(&parsed.downloadDir, "download-dir", "Directory series are saved under (default: downloads)")
	parsed.format.Value = app.FormatImages
	fs.Var(&parsed.format, "format", "Output format: images|cbz")
	fs.Var(&parsed.deleteImages, "delete-images", "Remove image directories after cbz conversion")
	parsed.browserWorkers.Value = 2
	fs.Var(&parsed.browserWorkers, "browser-workers", "Concurrent browser sessions for page resolution")
	parsed.downloadWorkers.Value = 5
	fs.Var(&parsed.downloadWorkers, "download-workers", "Concurrent chapter downloads")
	parsed.timeout.Value = 30
	fs.Var(&parsed.timeout, "timeout", "Per-operation timeout seconds")
	parsed.retries.Value = 3
	fs.Var(&parsed.retries, "retries", "Attempts per extraction operation")
	parsed.settle.Value = 7
	fs.Var(&parsed.settle, "settle", "Seconds to wait after page load for lazy content (default 7)")
	parsed.headless.Value = true
	fs.Var(&parsed.headless, "headless", "Hide the browser window")
	fs.Var(&parsed.userAgent, "user-agent", "User-Agent header (default: rotated per run)")
	fs.Var(&parsed.logFile, "log-file", "Also log to this file (rotated)")
	fs.BoolVar(&parsed.verbose, "verbose", false, "Debug logging")

	if err := fs.Parse(args); err != nil {
		return parsed, err
	}
	return parsed, nil
}

func loadConfig(path string) (config.Config, error) {
	if path == "" {
		return config.Config{}, nil
	}
	return config.Load(path)
}

func applyConfigDefaults(parsed *parsedFlags, cfg config.Config) {
	if !parsed.downloadDir.WasSet && cfg.DownloadDir != "" {
		parsed.downloadDir.Value = cfg.DownloadDir
	}
	if !parsed.format.WasSet && cfg.Format != "" {
		parsed.format.Value = cfg.Format
	}
	if !parsed.deleteImages.WasSet && cfg.DeleteImages {
		parsed.deleteImages.Value = true
	}
	if !parsed.browserWorkers.WasSet && cfg.BrowserWorkers > 0 {
		parsed.browserWorkers.Value = cfg.BrowserWorkers
	}
	if !parsed.downloadWorkers.WasSet && cfg.DownloadWorkers > 0 {
		parsed.downloadWorkers.Value = cfg.DownloadWorkers
	}
	if !parsed.timeout.WasSet && cfg.TimeoutSeconds > 0 {
		parsed.timeout.Value = cfg.TimeoutSeconds
	}
	if !parsed.retries.WasSet && cfg.RetryCount > 0 {
		parsed.retries.Value = cfg.RetryCount
	}
	if !parsed.settle.WasSet && cfg.SettleSeconds > 0 {
		parsed.settle.Value = cfg.SettleSeconds
	}
	if !parsed.headless.WasSet && cfg.Headless != nil {
		parsed.headless.Value = *cfg.Headless
	}
	if !parsed.userAgent.WasSet && cfg.UserAgent != "" {
		parsed.userAgent.Value = cfg.UserAgent
	}
	if !parsed.logFile.WasSet && cfg.LogFile != "" {
		parsed.logFile.Value = cfg.LogFile
	}
}

func buildResult(parsed parsedFlags) (Result, error) {
	if parsed.query == "" && parsed.mangaURL == "" {
		return Result{}, ExitError{Code: 2, Err: errors.New("--query or --url is required")}
	}

	format := strings.ToLower(strings.TrimSpace(parsed.format.Value))
	if format != app.FormatImages && format != app.FormatCBZ {
		return Result{}, ExitError{Code: 2, Err: fmt.Errorf("unknown format %q (use images or cbz)", parsed.format.Value)}
	}
	if err := app.ValidateSelection(parsed.chapters.Value); err != nil {
		return Result{}, ExitError{Code: 2, Err: err}
	}

	opts := app.Options{
		Query:           parsed.query,
		MangaURL:        parsed.mangaURL,
		Selection:       parsed.chapters.Value,
		DownloadDir:     parsed.downloadDir.Value,
		Format:          format,
		DeleteImages:    parsed.deleteImages.Value,
		BrowserWorkers:  parsed.browserWorkers.Value,
		DownloadWorkers: parsed.downloadWorkers.Value,
		Timeout:         time.Duration(parsed.timeout.Value) * time.Second,
		Settle:          time.Duration(parsed.settle.Value) * time.Second,
		Retries:         parsed.retries.Value,
		Headless:        parsed.headless.Value,
		UserAgent:       parsed.userAgent.Value,
	}
	return Result{Options: opts, LogFile: parsed.logFile.Value, Verbose: parsed.verbose}, nil
}
