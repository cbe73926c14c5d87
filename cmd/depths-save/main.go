// Package main - depths-save
// Save slot maintenance: show, export, import and reset a Quiet Depths save
// without running the server. Export and import go through a file or the
// system clipboard.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/atotto/clipboard"
	"github.com/dustin/go-humanize"

	"github.com/MRamiBalles/QuietDepths/internal/config"
	"github.com/MRamiBalles/QuietDepths/internal/domain/catalog"
	"github.com/MRamiBalles/QuietDepths/internal/domain/economy"
	"github.com/MRamiBalles/QuietDepths/internal/engine"
	"github.com/MRamiBalles/QuietDepths/internal/infra/storage"
)

const usage = `usage: depths-save [flags] <show|export|import|reset>

  show     print a summary of the stored save
  export   write the save to -file, or the clipboard with -clipboard
  import   read a save from -file, or the clipboard with -clipboard
  reset    delete the stored save and its journal
`

func main() {
	if err := run(os.Args[1:], os.Stdout); err != nil {
		fmt.Fprintln(os.Stderr, "depths-save:", err)
		os.Exit(1)
	}
}

func run(args []string, out io.Writer) error {
	cfg := config.FromEnv()

	fs := flag.NewFlagSet("depths-save", flag.ContinueOnError)
	fs.SetOutput(out)
	fs.Usage = func() { fmt.Fprint(out, usage); fs.PrintDefaults() }
	dbPath := fs.String("db", cfg.DBPath, "SQLite database path")
	slot := fs.String("slot", cfg.SaveSlot, "Save slot name")
	file := fs.String("file", "", "File to export to or import from")
	useClipboard := fs.Bool("clipboard", false, "Use the system clipboard instead of a file")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		fs.Usage()
		return errors.New("expected exactly one command")
	}

	db, err := storage.InitSQLite(*dbPath)
	if err != nil {
		return err
	}
	defer db.Close()
	repo := storage.NewSQLiteSaveRepository(db)
	cat := catalog.Default()
	ctx := context.Background()

	switch cmd := fs.Arg(0); cmd {
	case "show":
		blob, err := repo.Load(ctx, *slot)
		if err != nil {
			return err
		}
		st, err := engine.Decode(blob, cat, time.Now())
		if err != nil {
			return err
		}
		printSummary(out, st, len(blob))
		return nil

	case "export":
		blob, err := repo.Load(ctx, *slot)
		if err != nil {
			return err
		}
		switch {
		case *useClipboard:
			if err := clipboard.WriteAll(string(blob)); err != nil {
				return fmt.Errorf("failed to write clipboard: %w", err)
			}
			fmt.Fprintf(out, "Copied %s save to the clipboard\n", humanize.Bytes(uint64(len(blob))))
		case *file != "":
			if err := os.WriteFile(*file, blob, 0644); err != nil {
				return err
			}
			fmt.Fprintf(out, "Wrote %s save to %s\n", humanize.Bytes(uint64(len(blob))), *file)
		default:
			fmt.Fprintln(out, string(blob))
		}
		return nil

	case "import":
		var blob []byte
		switch {
		case *useClipboard:
			text, err := clipboard.ReadAll()
			if err != nil {
				return fmt.Errorf("failed to read clipboard: %w", err)
			}
			blob = []byte(text)
		case *file != "":
			blob, err = os.ReadFile(*file)
			if err != nil {
				return err
			}
		default:
			return errors.New("import needs -file or -clipboard")
		}
		st, err := engine.Decode(blob, cat, time.Now())
		if err != nil {
			return err
		}
		if err := repo.Save(ctx, *slot, blob); err != nil {
			return err
		}
		fmt.Fprintln(out, "Imported save:")
		printSummary(out, st, len(blob))
		return nil

	case "reset":
		if err := repo.Delete(ctx, *slot); err != nil {
			return err
		}
		if err := storage.NewSQLiteJournalRepository(db).Purge(ctx); err != nil {
			return err
		}
		fmt.Fprintf(out, "Slot %q and journal cleared\n", *slot)
		return nil

	default:
		fs.Usage()
		return fmt.Errorf("unknown command %q", cmd)
	}
}

func printSummary(out io.Writer, st economy.State, size int) {
	fmt.Fprintf(out, "  size:        %s\n", humanize.Bytes(uint64(size)))
	for _, cur := range economy.Currencies {
		fmt.Fprintf(out, "  %-12s %s\n", cur+":", humanize.Comma(st.Balance(cur)))
	}
	fmt.Fprintf(out, "  zone:        %d of %d unlocked\n", st.CurrentZoneIndex+1, st.ZonesUnlocked())
	fmt.Fprintf(out, "  casts:       %s\n", humanize.Comma(st.Stats.TotalActions))
	fmt.Fprintf(out, "  lifetime:    %s fish\n", humanize.Comma(st.Stats.TotalResourceGained))
	fmt.Fprintf(out, "  awards:      %d\n", len(st.Achievements))
	last := time.UnixMilli(st.Stats.LastObservedTime)
	fmt.Fprintf(out, "  last seen:   %s\n", humanize.Time(last))
}
