package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"
	"go.uber.org/zap"

	"github.com/yamaru/welllog-tool/internal/config"
	"github.com/yamaru/welllog-tool/internal/diag"
)

// recordEntry is one row of the browser: a one-line label for the list and
// the rendered details for the right pane.
type recordEntry struct {
	Title   string
	Details string
}

type WellLogApp struct {
	app         *tview.Application
	recordList  *tview.List
	detailsText *tview.TextView
	entries     []recordEntry
}

func main() {
	cfg, err := config.NewConfig()
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}
	if cfg.File == "" {
		fmt.Printf("Usage: %s -file <well log file> [-format dlis|lis]\n", os.Args[0])
		os.Exit(1)
	}

	logger, err := zap.NewProduction()
	if err != nil {
		fmt.Printf("Error creating logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()
	diag.SetSink(diag.NewZapSink(logger))
	if level, err := diag.ParseSeverity(cfg.EscapeLevel); err == nil {
		diag.SetEscapeLevel(level)
	}

	// Load the record entries up front; the UI itself never touches the file.
	var entries []recordEntry
	switch cfg.Format {
	case "lis":
		entries, err = loadLisEntries(cfg)
	default:
		entries, err = loadDlisEntries(cfg)
	}
	if err != nil {
		fmt.Printf("Error loading %s: %v\n", cfg.File, err)
		os.Exit(1)
	}
	if len(entries) == 0 {
		fmt.Printf("No records found in %s\n", cfg.File)
		os.Exit(1)
	}

	app := NewWellLogApp(entries)
	if err := app.Run(); err != nil {
		fmt.Printf("Error running application: %v\n", err)
		os.Exit(1)
	}
}

func NewWellLogApp(entries []recordEntry) *WellLogApp {
	app := &WellLogApp{entries: entries}

	app.app = tview.NewApplication()

	// Record list (left pane)
	app.recordList = tview.NewList()
	app.recordList.SetBorder(true)
	app.recordList.SetTitle(" Records ")
	app.recordList.ShowSecondaryText(false)

	// Details text view (right pane)
	app.detailsText = tview.NewTextView()
	app.detailsText.SetBorder(true)
	app.detailsText.SetTitle(" Record Details ")
	app.detailsText.SetDynamicColors(true)
	app.detailsText.SetScrollable(true)

	for i, entry := range entries {
		listItem := fmt.Sprintf("%-10s %s", fmt.Sprintf("Record %d", i+1), entry.Title)
		app.recordList.AddItem(listItem, "", 0, nil)
	}

	// Selection change handler (automatic update on arrow key selection)
	app.recordList.SetChangedFunc(func(index int, mainText string, secondaryText string, shortcut rune) {
		if index < len(app.entries) {
			app.showRecordDetails(index)
		}
	})

	navigate := func(event *tcell.EventKey, focusNext tview.Primitive) *tcell.EventKey {
		switch event.Key() {
		case tcell.KeyUp:
			current := app.recordList.GetCurrentItem()
			if current > 0 {
				app.recordList.SetCurrentItem(current - 1)
			}
			return nil
		case tcell.KeyDown:
			current := app.recordList.GetCurrentItem()
			if current < len(app.entries)-1 {
				app.recordList.SetCurrentItem(current + 1)
			}
			return nil
		case tcell.KeyTab, tcell.KeyEnter:
			app.app.SetFocus(focusNext)
			return nil
		case tcell.KeyEscape:
			app.app.Stop()
			return nil
		}
		return event
	}
	app.recordList.SetInputCapture(func(event *tcell.EventKey) *tcell.EventKey {
		return navigate(event, app.detailsText)
	})
	app.detailsText.SetInputCapture(func(event *tcell.EventKey) *tcell.EventKey {
		return navigate(event, app.recordList)
	})

	return app
}

func (app *WellLogApp) showRecordDetails(index int) {
	app.detailsText.SetText(app.entries[index].Details)
	app.detailsText.ScrollToBeginning()
}

func (app *WellLogApp) Run() error {
	flex := tview.NewFlex().
		AddItem(app.recordList, 0, 1, true).
		AddItem(app.detailsText, 0, 2, false)

	app.showRecordDetails(0)

	return app.app.SetRoot(flex, true).Run()
}

// indent joins detail lines the way the details pane renders them.
func indent(lines []string) string {
	return strings.Join(lines, "\n")
}
