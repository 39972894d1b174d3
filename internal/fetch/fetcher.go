package fetch

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"golang.org/x/sync/errgroup"

	"github.com/nao1215/ifacetool/internal/cache"
	"github.com/nao1215/ifacetool/internal/model"
)

// Workspace file names inside a snap directory.
const (
	IdentityFile = ".snap.json"
	MetadataFile = "snap.yaml"
	RevisionFile = "revision"
)

// Store is the part of the store client the Fetcher uses.
type Store interface {
	SnapInfo(ctx context.Context, name string) (*model.SnapRef, error)
	RevisionMetadata(ctx context.Context, name string, rev model.Revision) (int, string, error)
}

// IdentityCache persists identities across workspaces.
type IdentityCache interface {
	Get(ctx context.Context, name string) (*cache.Entry, error)
	Put(ctx context.Context, ref model.SnapRef) error
}

// DeclFetcher downloads snap-declarations into the workspace.
type DeclFetcher interface {
	FetchDecls(ctx context.Context, names []string) error
}

// Fetcher fills a workspace with snap identities and metadata.
type Fetcher struct {
	workDir     string
	store       Store
	cache       IdentityCache
	decls       DeclFetcher
	extract     ExtractFunc
	concurrency int
	logger      *slog.Logger
}

// Option configures a Fetcher.
type Option func(*Fetcher)

// WithCache sets the identity cache. Without one only the workspace and
// the store are consulted.
func WithCache(c IdentityCache) Option {
	return func(f *Fetcher) {
		f.cache = c
	}
}

// WithDeclFetcher sets what downloads snap-declarations.
func WithDeclFetcher(d DeclFetcher) Option {
	return func(f *Fetcher) {
		f.decls = d
	}
}

// WithConcurrency sets how many snaps are fetched at once. Default is 4.
func WithConcurrency(n int) Option {
	return func(f *Fetcher) {
		if n > 0 {
			f.concurrency = n
		}
	}
}

// WithExtractor replaces unsquashfs for reading local .snap archives.
func WithExtractor(fn ExtractFunc) Option {
	return func(f *Fetcher) {
		f.extract = fn
	}
}

// WithLogger sets a custom logger.
func WithLogger(logger *slog.Logger) Option {
	return func(f *Fetcher) {
		f.logger = logger
	}
}

// NewFetcher creates a Fetcher writing into workDir.
func NewFetcher(workDir string, store Store, opts ...Option) *Fetcher {
	f := &Fetcher{
		workDir:     workDir,
		store:       store,
		extract:     Unsquashfs,
		concurrency: 4,
	}
	for _, opt := range opts {
		opt(f)
	}
	if f.logger == nil {
		f.logger = slog.Default()
	}
	return f
}

// snapDir returns the workspace directory of name.
func (f *Fetcher) snapDir(name string) string {
	return filepath.Join(f.workDir, name)
}

// SnapIDs returns the identity of name, looking in the workspace, then the
// cache, then the store. The identity is written back to both.
func (f *Fetcher) SnapIDs(ctx context.Context, name string) (*model.SnapRef, error) {
	if name == "" {
		return nil, model.ErrEmptySnapName
	}

	ref, err := f.readIdentity(name)
	if err == nil {
		f.logger.Debug("identity from workspace", "snap", name)
		f.remember(ctx, *ref)
		return ref, nil
	}
	if !errors.Is(err, os.ErrNotExist) {
		return nil, err
	}

	if f.cache != nil {
		entry, err := f.cache.Get(ctx, name)
		switch {
		case err == nil:
			f.logger.Debug("identity from cache", "snap", name, "fetched_at", entry.FetchedAt)
			ref := entry.SnapRef
			if err := f.writeIdentity(ref); err != nil {
				return nil, err
			}
			return &ref, nil
		case !errors.Is(err, cache.ErrNotFound):
			f.logger.Warn("identity cache lookup failed", "snap", name, "error", err)
		}
	}

	ref, err = f.store.SnapInfo(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve %s: %w", name, err)
	}
	f.logger.Debug("identity from store", "snap", name, "snap_id", ref.SnapID)

	if err := f.writeIdentity(*ref); err != nil {
		return nil, err
	}
	f.remember(ctx, *ref)
	return ref, nil
}

// remember stores ref in the cache. Failures only cost a store round trip
// later, so they are logged and ignored.
func (f *Fetcher) remember(ctx context.Context, ref model.SnapRef) {
	if f.cache == nil || ref.PublisherID == LocalPublisherID {
		return
	}
	if err := f.cache.Put(ctx, ref); err != nil {
		f.logger.Warn("failed to cache identity", "snap", ref.SnapName, "error", err)
	}
}

func (f *Fetcher) readIdentity(name string) (*model.SnapRef, error) {
	data, err := os.ReadFile(filepath.Join(f.snapDir(name), IdentityFile)) //nolint:gosec // workspace path
	if err != nil {
		return nil, err
	}
	var ref model.SnapRef
	if err := json.Unmarshal(data, &ref); err != nil {
		return nil, fmt.Errorf("invalid %s for %s: %w", IdentityFile, name, err)
	}
	if ref.SnapName == "" {
		ref.SnapName = name
	}
	return &ref, nil
}

func (f *Fetcher) writeIdentity(ref model.SnapRef) error {
	data, err := json.MarshalIndent(ref, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode identity of %s: %w", ref.SnapName, err)
	}
	return f.writeFile(ref.SnapName, IdentityFile, append(data, '\n'))
}

func (f *Fetcher) writeFile(name, file string, data []byte) error {
	dir := f.snapDir(name)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return fmt.Errorf("failed to create %s: %w", dir, err)
	}
	path := filepath.Join(dir, file)
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}

// Result describes one fetched snap.
type Result struct {
	// Name is the snap name.
	Name string

	// SnapID is the store or synthetic snap-id.
	SnapID string

	// Revision is the revision number or local path, empty when metadata
	// was not fetched.
	Revision string

	// Size is the size of the written snap.yaml in bytes.
	Size int64

	// Local is set for snaps read from a local file.
	Local bool
}

// HumanSize returns Size in human-readable form.
func (r Result) HumanSize() string {
	if r.Revision == "" {
		return "-"
	}
	return humanize.Bytes(uint64(r.Size)) //nolint:gosec // sizes are never negative
}

// FetchMetadata writes snap.yaml and the revision file of s.
func (f *Fetcher) FetchMetadata(ctx context.Context, s model.SnapAtRev) (*Result, error) {
	if s.Revision.Kind() == model.RevisionLocal {
		return f.fetchLocal(ctx, s, true)
	}

	rev, snapYAML, err := f.store.RevisionMetadata(ctx, s.Name, s.Revision)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch metadata of %s: %w", s, err)
	}
	if err := f.writeFile(s.Name, MetadataFile, []byte(snapYAML)); err != nil {
		return nil, err
	}
	revision := strconv.Itoa(rev)
	if err := f.writeFile(s.Name, RevisionFile, []byte(revision+"\n")); err != nil {
		return nil, err
	}

	return &Result{Name: s.Name, Revision: revision, Size: int64(len(snapYAML))}, nil
}

// fetchLocal writes the synthetic identity of a local snap and, with meta
// set, its snap.yaml and revision file.
func (f *Fetcher) fetchLocal(ctx context.Context, s model.SnapAtRev, meta bool) (*Result, error) {
	path := s.Revision.Path()
	id, err := localSnapID(path)
	if err != nil {
		return nil, err
	}
	ref := model.SnapRef{SnapName: s.Name, SnapID: id, PublisherID: LocalPublisherID}
	if err := f.writeIdentity(ref); err != nil {
		return nil, err
	}

	res := &Result{Name: s.Name, SnapID: id, Local: true}
	if !meta {
		return res, nil
	}

	data, err := readSnapYAML(ctx, path, f.extract)
	if err != nil {
		return nil, err
	}
	if err := f.writeFile(s.Name, MetadataFile, data); err != nil {
		return nil, err
	}
	if err := f.writeFile(s.Name, RevisionFile, []byte(path+"\n")); err != nil {
		return nil, err
	}
	res.Revision = path
	res.Size = int64(len(data))
	return res, nil
}

// Options selects what Fetch downloads.
type Options struct {
	// Meta fetches snap.yaml and the revision file.
	Meta bool

	// Decls runs the engine's fetch-decls op for all snaps.
	Decls bool
}

// Fetch resolves and fetches snaps concurrently, then fetches their
// snap-declarations. Results are in the order of snaps, with repeated
// names dropped. The first failure cancels the remaining work.
func (f *Fetcher) Fetch(ctx context.Context, snaps []model.SnapAtRev, opts Options) ([]Result, error) {
	if opts.Decls && f.decls == nil {
		return nil, errors.New("fetching snap-declarations needs the engine")
	}

	unique := make([]model.SnapAtRev, 0, len(snaps))
	seen := make(map[string]bool, len(snaps))
	for _, s := range snaps {
		if seen[s.Name] {
			f.logger.Warn("snap given more than once, keeping the first", "snap", s.Name, "ignored", s.String())
			continue
		}
		seen[s.Name] = true
		unique = append(unique, s)
	}

	f.logger.Info("fetching snaps", "total", len(unique), "concurrency", f.concurrency, "meta", opts.Meta, "decls", opts.Decls)
	start := time.Now()

	results := make([]Result, len(unique))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(f.concurrency)

	for i, s := range unique {
		g.Go(func() error {
			select {
			case <-gctx.Done():
				return gctx.Err()
			default:
			}

			res, err := f.fetchOne(gctx, s, opts.Meta)
			if err != nil {
				return err
			}
			results[i] = *res
			f.logger.Debug("fetched snap", "snap", s.Name, "revision", res.Revision, "size", res.HumanSize())
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	if opts.Decls {
		names := make([]string, len(unique))
		for i, s := range unique {
			names[i] = s.Name
		}
		if err := f.decls.FetchDecls(ctx, names); err != nil {
			return nil, fmt.Errorf("failed to fetch snap-declarations: %w", err)
		}
	}

	f.logger.Info("fetch complete", "total", len(unique), "elapsed", time.Since(start))
	return results, nil
}

func (f *Fetcher) fetchOne(ctx context.Context, s model.SnapAtRev, meta bool) (*Result, error) {
	if s.Revision.Kind() == model.RevisionLocal {
		return f.fetchLocal(ctx, s, meta)
	}

	ref, err := f.SnapIDs(ctx, s.Name)
	if err != nil {
		return nil, err
	}
	if !meta {
		return &Result{Name: s.Name, SnapID: ref.SnapID}, nil
	}

	res, err := f.FetchMetadata(ctx, s)
	if err != nil {
		return nil, err
	}
	res.SnapID = ref.SnapID
	return res, nil
}

// Prepare makes sure every name has an identity in the workspace, as the
// engine needs one for each snap it simulates.
func (f *Fetcher) Prepare(ctx context.Context, names []string) error {
	for _, name := range names {
		if _, err := f.SnapIDs(ctx, name); err != nil {
			return err
		}
	}
	return nil
}

// Summary renders results as aligned "name revision size" lines.
func Summary(results []Result) string {
	width := 0
	for _, r := range results {
		width = max(width, len(r.Name))
	}

	var b strings.Builder
	for _, r := range results {
		rev := r.Revision
		if rev == "" {
			rev = "-"
		}
		fmt.Fprintf(&b, "%-*s  %s  %s\n", width, r.Name, rev, r.HumanSize())
	}
	return b.String()
}
