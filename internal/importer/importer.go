// Package importer loads markdown decks from local directories and git
// repositories.
package importer

import (
	"context"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/conorfennell/knolstudy/internal/apperr"
	"github.com/conorfennell/knolstudy/internal/domain"
	"github.com/conorfennell/knolstudy/internal/gitsource"
	"github.com/conorfennell/knolstudy/internal/parser"
	"github.com/conorfennell/knolstudy/internal/storage"
	"github.com/conorfennell/knolstudy/internal/study"
)

// Store persists the sources imported into decks.
type Store interface {
	InsertSource(ctx context.Context, source *storage.Source) error
	FindSource(ctx context.Context, deckID, path string) (*storage.Source, error)
	ListSources(ctx context.Context, ownerID string) ([]*storage.Source, error)
	UpdateSourceLastScanned(ctx context.Context, sourceID string, now time.Time) error
}

// FetchFunc brings the checkout of a git repository up to date.
type FetchFunc func(ctx context.Context, repoURL, localPath string) error

// Result summarizes one import.
type Result struct {
	Source  *storage.Source
	Parsed  int
	Added   int
	Skipped int // already present in the deck
	Errors  []error
}

// Importer adds the cards found in markdown sources to decks.
type Importer struct {
	study    *study.Service
	store    Store
	reposDir string
	fetch    FetchFunc
	now      func() time.Time

	// confined importers only read local sources below localRoot.
	confined  bool
	localRoot string
}

// New creates an importer cloning git sources below reposDir.
func New(svc *study.Service, store Store, reposDir string) *Importer {
	return &Importer{
		study:    svc,
		store:    store,
		reposDir: reposDir,
		fetch: func(ctx context.Context, repoURL, localPath string) error {
			return gitsource.Sync(ctx, repoURL, localPath, io.Discard)
		},
		now: time.Now,
	}
}

// Confine returns a copy of im that only accepts local directories below
// localRoot and does not follow symlinks while scanning them. An empty
// localRoot rejects every local source, leaving git URLs only.
func (im *Importer) Confine(localRoot string) *Importer {
	confined := *im
	confined.confined = true
	confined.localRoot = localRoot
	return &confined
}

// Import adds every card found at location to a deck of ownerID and
// registers location as a source of that deck. Location is a directory or a
// git URL. Cards whose text is already in the deck are skipped, so importing
// again only adds what changed.
func (im *Importer) Import(ctx context.Context, ownerID, deckID, location string) (*Result, error) {
	if _, err := im.study.GetDeck(ctx, study.DeckRequest{OwnerID: ownerID, DeckID: deckID}); err != nil {
		return nil, err
	}

	kind := storage.SourceLocal
	if gitsource.IsURL(location) {
		kind = storage.SourceGit
	} else {
		abs, err := filepath.Abs(location)
		if err != nil {
			return nil, apperr.InvalidInput("invalid source path", err)
		}
		location = abs
		if err := im.checkLocal(location); err != nil {
			return nil, err
		}
	}

	source, err := im.store.FindSource(ctx, deckID, location)
	if err != nil {
		return nil, apperr.Internal("failed to look up source", err)
	}
	if source == nil {
		source = &storage.Source{ID: uuid.NewString(), DeckID: deckID, Path: location, Kind: kind}
		if err := im.store.InsertSource(ctx, source); err != nil {
			return nil, apperr.Internal("failed to register source", err)
		}
	}
	return im.scan(ctx, ownerID, source)
}

// Sync re-imports every source of ownerID. A failing source is logged and
// does not stop the others.
func (im *Importer) Sync(ctx context.Context, ownerID string) ([]*Result, error) {
	slog.Info("starting sync", "owner", ownerID)
	sources, err := im.store.ListSources(ctx, ownerID)
	if err != nil {
		return nil, apperr.Internal("failed to list sources", err)
	}
	if len(sources) == 0 {
		slog.Info("no sources configured")
		return nil, nil
	}

	results := make([]*Result, 0, len(sources))
	for _, source := range sources {
		result, err := im.scan(ctx, ownerID, source)
		if err != nil {
			slog.Error("failed to sync source", "source_id", source.ID, "path", source.Path, "error", err)
			continue
		}
		results = append(results, result)
	}
	slog.Info("sync complete", "sources", len(sources), "synced", len(results))
	return results, nil
}

// Sources lists the sources of ownerID.
func (im *Importer) Sources(ctx context.Context, ownerID string) ([]*storage.Source, error) {
	sources, err := im.store.ListSources(ctx, ownerID)
	if err != nil {
		return nil, apperr.Internal("failed to list sources", err)
	}
	return sources, nil
}

func (im *Importer) scan(ctx context.Context, ownerID string, source *storage.Source) (*Result, error) {
	dir := source.Path
	if source.Kind == storage.SourceGit {
		localPath, err := gitsource.LocalPath(im.reposDir, source.Path)
		if err != nil {
			return nil, apperr.InvalidInput("invalid git source", err)
		}
		if err := im.fetch(ctx, source.Path, localPath); err != nil {
			return nil, apperr.Internal("failed to fetch git source", err)
		}
		dir = localPath
	}

	if source.Kind == storage.SourceLocal {
		if err := im.checkLocal(dir); err != nil {
			return nil, err
		}
	}

	info, err := os.Stat(dir)
	if err != nil {
		return nil, apperr.InvalidInput("source is not readable", err)
	}
	if !info.IsDir() {
		return nil, apperr.InvalidInput("source is not a directory", nil)
	}

	result := &Result{Source: source}
	walkErr := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if d.Name() == ".git" {
				return filepath.SkipDir
			}
			return nil
		}
		if im.confined && d.Type()&fs.ModeSymlink != 0 {
			return nil
		}
		if !strings.HasSuffix(strings.ToLower(d.Name()), ".md") {
			return nil
		}

		contents, parseErrs, err := parser.ParseFile(path)
		if err != nil {
			result.Errors = append(result.Errors, err)
			return nil
		}
		for _, parseErr := range parseErrs {
			result.Errors = append(result.Errors, errors.Wrapf(parseErr, "parsing %s", path))
		}
		for _, content := range contents {
			result.Parsed++
			if err := im.add(ctx, ownerID, source.DeckID, content); err != nil {
				if apperr.CodeOf(err) == apperr.CodeConflict {
					result.Skipped++
					continue
				}
				result.Errors = append(result.Errors, errors.Wrapf(err, "adding card from %s", path))
				continue
			}
			result.Added++
		}
		return nil
	})
	if walkErr != nil {
		return nil, apperr.Internal("failed to walk source", walkErr)
	}

	if err := im.store.UpdateSourceLastScanned(ctx, source.ID, im.now()); err != nil {
		slog.Warn("failed to update last scanned for source", "source_id", source.ID, "error", err)
	}

	slog.Info("import complete",
		"path", source.Path,
		"parsed_cards", result.Parsed,
		"added", result.Added,
		"skipped", result.Skipped,
		"errors", len(result.Errors),
	)
	return result, nil
}

// checkLocal rejects local directories a confined importer may not read.
func (im *Importer) checkLocal(dir string) error {
	if !im.confined {
		return nil
	}
	if im.localRoot == "" {
		return apperr.InvalidInput("local sources are not accepted, use a git URL", nil)
	}
	root, err := filepath.Abs(im.localRoot)
	if err != nil {
		return apperr.Internal("invalid local root", err)
	}
	if resolved, err := filepath.EvalSymlinks(root); err == nil {
		root = resolved
	}
	if resolved, err := filepath.EvalSymlinks(dir); err == nil {
		dir = resolved
	}
	rel, err := filepath.Rel(root, dir)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return apperr.InvalidInput("source must be below "+im.localRoot, err)
	}
	return nil
}

func (im *Importer) add(ctx context.Context, ownerID, deckID string, content domain.CardContent) error {
	_, err := im.study.AddCard(ctx, study.AddCardRequest{
		OwnerID: ownerID,
		DeckID:  deckID,
		Front:   content.Front,
		Back:    content.Back,
		Context: content.Context,
	})
	return err
}
