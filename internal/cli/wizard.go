package cli

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/charmbracelet/huh"

	"mangograb/internal/app"
	"mangograb/internal/config"
	"mangograb/internal/models"
)

// Prompter implements app.Prompter with terminal forms.
type Prompter struct{}

func NewPrompter() *Prompter {
	printBanner()
	return &Prompter{}
}

func printBanner() {
	fmt.Print(`
  _ __ ___   __ _ _ __   __ _  ___   __ _ _ __ __ _| |__
 | '_ ` + "`" + ` _ \ / _` + "`" + ` | '_ \ / _` + "`" + ` |/ _ \ / _` + "`" + ` | '__/ _` + "`" + ` | '_ \
 | | | | | | (_| | | | | (_| | (_) | (_| | | | (_| | |_) |
 |_| |_| |_|\__,_|_| |_|\__, |\___/ \__, |_|  \__,_|_.__/
                        |___/       |___/
`)
}

func (p *Prompter) Query() (string, error) {
	var query string
	err := huh.NewInput().
		Title("Search").
		Description("Manga title to look for.").
		Value(&query).
		Validate(func(s string) error {
			if strings.TrimSpace(s) == "" {
				return errors.New("a search query is required")
			}
			return nil
		}).
		Run()
	return strings.TrimSpace(query), err
}

func (p *Prompter) MangaChoice(hits []models.SearchHit) (models.SearchHit, error) {
	opts := make([]huh.Option[int], 0, len(hits))
	for i, hit := range hits {
		label := hit.Manga.Title
		if hit.Manga.Author != "" {
			label += " — " + hit.Manga.Author
		}
		if hit.Manga.TotalChapters > 0 {
			label += fmt.Sprintf(" (%d ch)", hit.Manga.TotalChapters)
		}
		opts = append(opts, huh.NewOption(label, i))
	}

	var choice int
	form := huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[int]().
				Title("Pick a series").
				Options(opts...).
				Value(&choice),
		),
	).WithTheme(huh.ThemeDracula())
	if err := form.Run(); err != nil {
		return models.SearchHit{}, err
	}
	return hits[choice], nil
}

func (p *Prompter) ChapterSelection(chapters []*models.Chapter) (string, error) {
	selection := "all"
	err := huh.NewInput().
		Title(fmt.Sprintf("Chapters (%d available)", len(chapters))).
		Description(`"all", a number ("12"), a range ("3-7"), or a mix ("1,4,9-11").`).
		Value(&selection).
		Validate(app.ValidateSelection).
		Run()
	return selection, err
}

func (p *Prompter) Output(format string, deleteImages bool) (string, bool, error) {
	if format == "" {
		format = app.FormatImages
	}
	form := huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Output format").
				Options(
					huh.NewOption("Loose page images", app.FormatImages),
					huh.NewOption("CBZ archives", app.FormatCBZ),
				).
				Value(&format),
			huh.NewConfirm().
				Title("Delete images after CBZ conversion?").
				Value(&deleteImages),
		),
	).WithTheme(huh.ThemeDracula())
	if err := form.Run(); err != nil {
		return "", false, err
	}
	if format != app.FormatCBZ {
		deleteImages = false
	}
	return format, deleteImages, nil
}

// RunConfigWizard collects defaults interactively and writes them as a
// JSON config file.
func RunConfigWizard() error {
	state := struct {
		downloadDir     string
		browserWorkers  string
		downloadWorkers string
		timeout         string
		retries         string
		format          string
		headless        bool
		deleteImages    bool
		logFile         string
		path            string
	}{
		downloadDir:     "downloads",
		browserWorkers:  "2",
		downloadWorkers: "5",
		timeout:         "30",
		retries:         "3",
		format:          app.FormatImages,
		headless:        true,
		path:            "mangograb.json",
	}

	form := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().Title("Download dir").Value(&state.downloadDir),
			huh.NewInput().Title("Browser workers").Value(&state.browserWorkers).Validate(validateIntString(1, 16)),
			huh.NewInput().Title("Download workers").Value(&state.downloadWorkers).Validate(validateIntString(1, 64)),
			huh.NewInput().Title("Timeout (seconds)").Value(&state.timeout).Validate(validateIntString(1, 3600)),
			huh.NewInput().Title("Retries").Value(&state.retries).Validate(validateIntString(1, 10)),
		).Title("Acquisition"),
		huh.NewGroup(
			huh.NewSelect[string]().Title("Format").Value(&state.format).Options(
				huh.NewOption("images", app.FormatImages),
				huh.NewOption("cbz", app.FormatCBZ),
			),
			huh.NewConfirm().Title("Delete images after CBZ conversion?").Value(&state.deleteImages),
			huh.NewConfirm().Title("Headless browser?").Value(&state.headless),
			huh.NewInput().Title("Log file (optional)").Value(&state.logFile),
			huh.NewInput().Title("Save as").Value(&state.path).Validate(func(s string) error {
				if strings.TrimSpace(s) == "" {
					return errors.New("filename cannot be empty")
				}
				return nil
			}),
		).Title("Output"),
	).WithTheme(huh.ThemeDracula())
	if err := form.Run(); err != nil {
		return err
	}

	cfg := config.Config{
		DownloadDir:     strings.TrimSpace(state.downloadDir),
		BrowserWorkers:  mustInt(state.browserWorkers),
		DownloadWorkers: mustInt(state.downloadWorkers),
		TimeoutSeconds:  mustInt(state.timeout),
		RetryCount:      mustInt(state.retries),
		Headless:        &state.headless,
		LogFile:         strings.TrimSpace(state.logFile),
		Format:          state.format,
		DeleteImages:    state.deleteImages,
	}
	data, err := config.Marshal(cfg)
	if err != nil {
		return err
	}
	path := strings.TrimSpace(state.path)
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return err
	}
	fmt.Printf("Wrote config: %s\n", path)
	return nil
}

func validateIntString(minVal, maxVal int) func(string) error {
	return func(s string) error {
		v, err := strconv.Atoi(strings.TrimSpace(s))
		if err != nil {
			return errors.New("must be an integer")
		}
		if v < minVal || v > maxVal {
			return fmt.Errorf("must be between %d and %d", minVal, maxVal)
		}
		return nil
	}
}

func mustInt(s string) int {
	v, _ := strconv.Atoi(strings.TrimSpace(s))
	return v
}
