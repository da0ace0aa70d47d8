package main

import (
	"fmt"
	"log"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/spf13/pflag"

	"github.com/conorfennell/studylib/internal/config"
	"github.com/conorfennell/studylib/internal/domain"
	"github.com/conorfennell/studylib/internal/share"
	"github.com/conorfennell/studylib/internal/storage"
	"github.com/conorfennell/studylib/internal/transfer"
	"github.com/conorfennell/studylib/internal/tree"
)

func main() {
	// 1. Define and parse command-line flags.
	flags := pflag.NewFlagSet("studylib", pflag.ExitOnError)
	configPath := flags.String("config", "studylib.yaml", "Path to the YAML configuration file")
	flags.String("db_path", "", "Path to the sqlite database file")
	flags.String("share_repo", "", "Git URL of the shared library repository")

	exportID := flags.String("export", "", "Export the library with this id")
	out := flags.String("out", "library.json", "Destination file for --export")
	ids := flags.StringSlice("ids", nil, "Item ids to export (default: everything)")
	importFile := flags.String("import", "", "Import an exported library JSON file")
	into := flags.String("into", "", "Merge the import into this existing library")
	includeProgress := flags.Bool("include-progress", true, "Carry progress through export/import")
	includeDocs := flags.Bool("include-docs", false, "Carry document files through export/import")
	shareSync := flags.Bool("share-sync", false, "Pull the share repository and import its libraries")
	cacheDir := flags.String("cache-dir", "share-cache", "Local cache directory for the share repository")
	list := flags.Bool("list", false, "List the stored libraries")

	if err := flags.Parse(os.Args[1:]); err != nil {
		log.Fatalf("Failed to parse flags: %v", err)
	}

	// 2. Load configuration and open the database.
	cfg, err := config.Load(*configPath, flags)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	db, err := storage.Open(cfg.DatabasePath)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer db.Close()
	slog.Info("Database opened", "path", cfg.DatabasePath)

	app, err := db.LoadAppData()
	if err != nil {
		log.Fatalf("Failed to load app data: %v", err)
	}

	saver := storage.NewSaver(db, func(err error) {
		if err != nil {
			slog.Error("Save failed; in-memory state remains authoritative", "error", err)
		}
	})

	// 3. Run the requested command.
	switch {
	case *list:
		listLibraries(app)
	case *exportID != "":
		if err := exportLibrary(app, db, *exportID, *ids, *out, *includeProgress, *includeDocs); err != nil {
			log.Fatalf("Export failed: %v", err)
		}
	case *importFile != "":
		app, err = importLibrary(app, db, *importFile, *into, *includeProgress, *includeDocs)
		if err != nil {
			log.Fatalf("Import failed: %v", err)
		}
		saver.Save(app)
	case *shareSync:
		if cfg.ShareRepo == "" {
			log.Fatalf("No share repository configured; set share_repo")
		}
		app, err = share.Pull(app, cfg.ShareRepo, *cacheDir, db, share.Options{
			IncludeProgress:  *includeProgress,
			IncludeDocuments: *includeDocs,
			IntoLibraryID:    *into,
		}, time.Now())
		if err != nil {
			log.Fatalf("Share sync failed: %v", err)
		}
		saver.Save(app)
	default:
		flags.Usage()
	}

	// 4. Wait for any pending durable write before exiting.
	saver.Flush()
}

func listLibraries(app domain.AppData) {
	if len(app.Libraries) == 0 {
		fmt.Println("No libraries stored.")
		return
	}
	for id, lib := range app.Libraries {
		marker := " "
		if id == app.ActiveLibraryID {
			marker = "*"
		}
		fmt.Printf("%s %s  %q  (%d items, %d questions in SRS)\n",
			marker, id, lib.Name, len(tree.Flatten(lib.Items)), len(lib.SrsEntries))
	}
}

func exportLibrary(app domain.AppData, db *storage.DB, libraryID string, ids []string, out string, includeProgress, includeDocs bool) error {
	lib, ok := app.Libraries[libraryID]
	if !ok {
		return fmt.Errorf("library %q: %w", libraryID, domain.ErrNotFound)
	}

	selected := domain.NewIDSet(ids...)
	if len(selected) == 0 {
		for _, item := range lib.Items {
			selected.Add(item.ItemID())
		}
	}

	doc, err := transfer.Export(lib, selected, includeProgress, includeDocs, db)
	if err != nil {
		return err
	}
	data, err := transfer.Encode(doc)
	if err != nil {
		return err
	}
	if err := os.WriteFile(out, data, 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", out, err)
	}
	slog.Info("Library exported", "library", libraryID, "file", out)
	return nil
}

func importLibrary(app domain.AppData, db *storage.DB, path, into string, includeProgress, includeDocs bool) (domain.AppData, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return app, fmt.Errorf("failed to read %s: %w", path, err)
	}
	doc, err := transfer.Decode(data)
	if err != nil {
		return app, err
	}

	if into != "" {
		target, ok := app.Libraries[into]
		if !ok {
			return app, fmt.Errorf("library %q: %w", into, domain.ErrNotFound)
		}
		merged, err := transfer.ImportInto(target, doc, includeProgress, includeDocs, db, time.Now())
		if err != nil {
			return app, err
		}
		app.Libraries[into] = merged
		slog.Info("Library merged", "into", into, "from", path)
		return app, nil
	}

	lib, err := transfer.ImportAsNew(doc, includeProgress, includeDocs, db, time.Now())
	if err != nil {
		return app, err
	}
	app.Libraries[lib.ID] = lib
	if app.ActiveLibraryID == "" {
		app.ActiveLibraryID = lib.ID
	}
	slog.Info("Library imported", "id", lib.ID, "name", lib.Name,
		"items", strings.Join(itemNames(lib.Items), ", "))
	return app, nil
}

func itemNames(items domain.Items) []string {
	names := make([]string, 0, len(items))
	for _, item := range items {
		names = append(names, item.DisplayName())
	}
	return names
}
