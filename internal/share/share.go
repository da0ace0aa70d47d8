// Package share pulls a git repository of exported library documents and
// imports them into the application state.
package share

import (
	"fmt"
	"io/fs"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/conorfennell/studylib/internal/domain"
	"github.com/conorfennell/studylib/internal/gitsource"
	"github.com/conorfennell/studylib/internal/transfer"
)

// Options controls how pulled libraries are imported.
type Options struct {
	// IncludeProgress carries the exported progress collections through
	// the import.
	IncludeProgress bool
	// IncludeDocuments writes embedded document payloads into the asset
	// store.
	IncludeDocuments bool
	// IntoLibraryID, when set, merges every pulled library into this
	// existing library instead of creating new ones.
	IntoLibraryID string
}

// Pull syncs the share repository into cacheDir and imports every exported
// library JSON file found in it. Malformed documents are skipped with a
// warning; a later valid document still imports. The returned AppData is a
// new snapshot; the input is not mutated.
func Pull(app domain.AppData, repoURL, cacheDir string, assets transfer.AssetWriter, opts Options, now time.Time) (domain.AppData, error) {
	localPath, err := repoLocalPath(cacheDir, repoURL)
	if err != nil {
		return app, err
	}
	if err := gitsource.Sync(repoURL, localPath); err != nil {
		return app, err
	}

	out := domain.AppData{
		Libraries:       make(map[string]domain.LibraryData, len(app.Libraries)),
		ActiveLibraryID: app.ActiveLibraryID,
	}
	for id, lib := range app.Libraries {
		out.Libraries[id] = lib
	}

	imported, skipped := 0, 0
	walkErr := filepath.WalkDir(localPath, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.HasSuffix(strings.ToLower(d.Name()), ".json") {
			return nil
		}

		data, err := os.ReadFile(path)
		if err != nil {
			slog.Warn("Failed to read exported library", "path", path, "error", err)
			skipped++
			return nil
		}
		doc, err := transfer.Decode(data)
		if err != nil {
			slog.Warn("Skipping invalid export", "path", path, "error", err)
			skipped++
			return nil
		}

		if opts.IntoLibraryID != "" {
			target, ok := out.Libraries[opts.IntoLibraryID]
			if !ok {
				return fmt.Errorf("merge target library %q: %w", opts.IntoLibraryID, domain.ErrNotFound)
			}
			merged, err := transfer.ImportInto(target, doc, opts.IncludeProgress, opts.IncludeDocuments, assets, now)
			if err != nil {
				slog.Warn("Skipping export that failed to merge", "path", path, "error", err)
				skipped++
				return nil
			}
			out.Libraries[opts.IntoLibraryID] = merged
			imported++
			return nil
		}

		if _, exists := out.Libraries[doc.ID]; exists {
			// Already pulled on an earlier sync.
			skipped++
			return nil
		}
		lib, err := transfer.ImportAsNew(doc, opts.IncludeProgress, opts.IncludeDocuments, assets, now)
		if err != nil {
			slog.Warn("Skipping export that failed to import", "path", path, "error", err)
			skipped++
			return nil
		}
		// Keep the exporter's id so a later sync recognizes the library.
		lib.ID = doc.ID
		out.Libraries[lib.ID] = lib
		imported++
		return nil
	})
	if walkErr != nil {
		return app, fmt.Errorf("walking share repo at %s: %w", localPath, walkErr)
	}

	slog.Info("Share sync complete", "repo", repoURL, "imported", imported, "skipped", skipped)
	return out, nil
}

// repoLocalPath derives a stable cache directory for the repository URL.
func repoLocalPath(cacheDir, repoURL string) (string, error) {
	parsed, err := url.Parse(repoURL)
	if err == nil && (parsed.Scheme == "https" || parsed.Scheme == "http") {
		sanitized := strings.TrimSuffix(parsed.Path, ".git")
		return filepath.Join(cacheDir, parsed.Host, sanitized), nil
	}
	// scp-like syntax: git@host:user/repo.git
	if strings.Contains(repoURL, "@") {
		parts := strings.SplitN(repoURL, ":", 2)
		if len(parts) == 2 {
			hostAndUser := strings.SplitN(parts[0], "@", 2)
			if len(hostAndUser) == 2 {
				repoPath := strings.TrimSuffix(parts[1], ".git")
				return filepath.Join(cacheDir, hostAndUser[1], repoPath), nil
			}
		}
	}
	return "", fmt.Errorf("could not parse share repo URL: %s", repoURL)
}
