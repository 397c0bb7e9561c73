package cli

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"mangograb/internal/app"
)

func TestParseArgsFlagMode(t *testing.T) {
	res, err := ParseArgs([]string{
		"-query", "solo ascent",
		"-chapters", "3-7",
		"-format", "cbz",
		"-delete-images",
		"-timeout", "20",
		"-download-workers", "8",
	})
	if err != nil {
		t.Fatalf("ParseArgs: %v", err)
	}
	opts := res.Options
	if opts.Query != "solo ascent" || opts.Selection != "3-7" {
		t.Errorf("query/selection = %q/%q", opts.Query, opts.Selection)
	}
	if opts.Format != app.FormatCBZ || !opts.DeleteImages {
		t.Errorf("format = %q delete = %t", opts.Format, opts.DeleteImages)
	}
	if opts.Timeout != 20*time.Second {
		t.Errorf("timeout = %v", opts.Timeout)
	}
	if opts.DownloadWorkers != 8 {
		t.Errorf("download workers = %d", opts.DownloadWorkers)
	}
	if !opts.Headless {
		t.Error("headless should default to true")
	}
	if opts.Settle != 7*time.Second {
		t.Errorf("settle = %v, want the 7s default", opts.Settle)
	}
}

func TestParseArgsSettleOverride(t *testing.T) {
	res, err := ParseArgs([]string{"-query", "solo", "-settle", "2"})
	if err != nil {
		t.Fatalf("ParseArgs: %v", err)
	}
	if res.Options.Settle != 2*time.Second {
		t.Errorf("settle = %v, want 2s", res.Options.Settle)
	}
}

func TestParseArgsRequiresTarget(t *testing.T) {
	_, err := ParseArgs([]string{"-chapters", "all"})
	var exitErr ExitError
	if !errors.As(err, &exitErr) || exitErr.Code != 2 {
		t.Fatalf("err = %v, want ExitError code 2", err)
	}
}

func TestParseArgsRejectsBadSelection(t *testing.T) {
	_, err := ParseArgs([]string{"-query", "x", "-chapters", "abc"})
	var exitErr ExitError
	if !errors.As(err, &exitErr) {
		t.Fatalf("err = %v, want ExitError", err)
	}
}

func TestParseArgsRejectsBadFormat(t *testing.T) {
	_, err := ParseArgs([]string{"-query", "x", "-format", "pdf"})
	var exitErr ExitError
	if !errors.As(err, &exitErr) {
		t.Fatalf("err = %v, want ExitError", err)
	}
}

func TestParseArgsConfigMerge(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.json")
	body := `{
  "download_dir": "library",
  "timeout_seconds": 60,
  "download_workers": 12,
  "headless": false,
  "format": "cbz"
}`
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatal(err)
	}

	// Flags beat the config file; unset fields inherit from it.
	res, err := ParseArgs([]string{"-query", "solo", "-config", path, "-timeout", "15"})
	if err != nil {
		t.Fatalf("ParseArgs: %v", err)
	}
	opts := res.Options
	if opts.Timeout != 15*time.Second {
		t.Errorf("timeout = %v, flag should win", opts.Timeout)
	}
	if opts.DownloadDir != "library" {
		t.Errorf("download dir = %q, config should apply", opts.DownloadDir)
	}
	if opts.DownloadWorkers != 12 {
		t.Errorf("download workers = %d, config should apply", opts.DownloadWorkers)
	}
	if opts.Headless {
		t.Error("config headless=false should apply")
	}
	if opts.Format != app.FormatCBZ {
		t.Errorf("format = %q, config should apply", opts.Format)
	}
}

func TestParseArgsInitConfig(t *testing.T) {
	res, err := ParseArgs([]string{"-init-config"})
	if err != nil {
		t.Fatalf("ParseArgs: %v", err)
	}
	if !res.InitConfig {
		t.Error("init-config not detected")
	}
}
