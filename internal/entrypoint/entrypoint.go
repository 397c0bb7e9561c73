package entrypoint

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"

	"mangograb/internal/app"
	"mangograb/internal/archive"
	"mangograb/internal/cli"
	"mangograb/internal/logging"
)

func Execute(args []string) (int, error) {
	if len(args) > 1 && args[1] == "convert" {
		return runConvert(args[2:])
	}

	// No arguments: interactive session, prompting for everything.
	if len(args) == 1 {
		logging.Setup("", false)
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
		defer stop()
		return 0, app.Run(ctx, app.Options{Headless: true}, cli.NewPrompter())
	}

	res, err := cli.ParseArgs(args[1:])
	if err != nil {
		var exitErr cli.ExitError
		if errors.As(err, &exitErr) {
			return exitErr.Code, exitErr.Err
		}
		return 1, err
	}

	if res.InitConfig {
		return 0, cli.RunConfigWizard()
	}

	logging.Setup(res.LogFile, res.Verbose)
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	return 0, app.Run(ctx, res.Options, nil)
}

// runConvert packs the Chapter_* directories of an already downloaded
// series into CBZ archives.
func runConvert(args []string) (int, error) {
	fs := flag.NewFlagSet("convert", flag.ContinueOnError)
	deleteImages := fs.Bool("delete-images", false, "Remove image directories after conversion")
	if err := fs.Parse(args); err != nil {
		return 2, err
	}
	if fs.NArg() != 1 {
		return 2, errors.New("usage: mangograb convert [-delete-images] <series-dir>")
	}
	seriesDir := fs.Arg(0)

	entries, err := os.ReadDir(seriesDir)
	if err != nil {
		return 1, err
	}

	converted := 0
	for _, entry := range entries {
		if !entry.IsDir() || !strings.HasPrefix(entry.Name(), "Chapter_") {
			continue
		}
		cbzPath, err := archive.ChapterCBZ(filepath.Join(seriesDir, entry.Name()), *deleteImages)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Warning: %s: %v\n", entry.Name(), err)
			continue
		}
		fmt.Printf("Wrote: %s\n", cbzPath)
		converted++
	}
	if converted == 0 {
		return 1, fmt.Errorf("no chapter directories found in %s", seriesDir)
	}
	return 0, nil
}
