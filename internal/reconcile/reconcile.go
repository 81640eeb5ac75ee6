// Package reconcile cross-references an owner's object-store contents with the
// records that point at them, and deletes the objects nothing points at.
//
// Two reference sources count: upload records (by key) and link screenshots
// (by public URL, mapped back to a key). An object under the owner's prefix
// that neither source mentions is an orphan.
package reconcile

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"golang.org/x/sync/errgroup"

	"github.com/templui/linkstash/internal/chunk"
	"github.com/templui/linkstash/internal/logger"
	"github.com/templui/linkstash/internal/repository"
	"github.com/templui/linkstash/internal/storage"
)

// DeleteChunkSize is the batch-delete limit of the object store.
const DeleteChunkSize = storage.MaxDeleteBatch

const (
	codeOutsidePrefix = "OutsidePrefix"
	codeBatchFailed   = "BatchFailed"
)

var (
	scansTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "linkstash_reconcile_scans_total",
		Help: "Number of storage scans run",
	})

	orphansFound = promauto.NewCounter(prometheus.CounterOpts{
		Name: "linkstash_reconcile_orphans_found_total",
		Help: "Orphaned objects found by storage scans",
	})

	objectsDeleted = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "linkstash_reconcile_objects_total",
		Help: "Objects processed by orphan cleanup, by outcome",
	}, []string{"outcome"})

	scanDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "linkstash_reconcile_scan_duration_seconds",
		Help:    "Duration of storage scans",
		Buckets: []float64{0.1, 0.5, 1, 5, 10, 30, 60},
	})
)

// References are the owner's records that can point at stored objects.
// *repository.Repository satisfies it.
type References interface {
	Scope() repository.Scope
	UploadKeys(ctx context.Context) ([]string, error)
	ScreenshotURLs(ctx context.Context) ([]string, error)
}

type ClassifiedObject struct {
	storage.Object
	IsReferenced bool   `json:"isReferenced"`
	URL          string `json:"url"`
}

type Summary struct {
	TotalFiles  int   `json:"totalFiles"`
	TotalSize   int64 `json:"totalSize"`
	OrphanFiles int   `json:"orphanFiles"`
	OrphanSize  int64 `json:"orphanSize"`
}

type Report struct {
	Prefix    string             `json:"prefix"`
	ScannedAt time.Time          `json:"scannedAt"`
	Objects   []ClassifiedObject `json:"objects"`
	Summary   Summary            `json:"summary"`
}

// DeleteResult accounts for every requested key:
// Requested = Deleted + Failed + Skipped.
type DeleteResult struct {
	Requested int                `json:"requested"`
	Deleted   int                `json:"deleted"`
	Failed    int                `json:"failed"`
	Skipped   int                `json:"skipped"`
	Errors    []storage.KeyError `json:"errors"`
}

// KeyFromURL maps a public URL back to its object key. URLs that do not start
// with publicBase belong to no object in this store.
func KeyFromURL(publicBase, url string) (string, bool) {
	base := strings.TrimSuffix(publicBase, "/")
	if base == "" {
		return "", false
	}
	rest, ok := strings.CutPrefix(url, base+"/")
	if !ok {
		return "", false
	}
	if i := strings.IndexAny(rest, "?#"); i >= 0 {
		rest = rest[:i]
	}
	if rest == "" {
		return "", false
	}
	return rest, true
}

// Classify marks each object referenced when its key is in either key set.
func Classify(objects []storage.Object, uploadKeys, screenshotKeys []string, urlFor func(string) string) []ClassifiedObject {
	referenced := make(map[string]struct{}, len(uploadKeys)+len(screenshotKeys))
	for _, k := range uploadKeys {
		referenced[k] = struct{}{}
	}
	for _, k := range screenshotKeys {
		referenced[k] = struct{}{}
	}

	out := make([]ClassifiedObject, 0, len(objects))
	for _, obj := range objects {
		_, ok := referenced[obj.Key]
		c := ClassifiedObject{Object: obj, IsReferenced: ok}
		if urlFor != nil {
			c.URL = urlFor(obj.Key)
		}
		out = append(out, c)
	}
	return out
}

func Summarize(objects []ClassifiedObject) Summary {
	var s Summary
	for _, obj := range objects {
		s.TotalFiles++
		s.TotalSize += obj.Size
		if !obj.IsReferenced {
			s.OrphanFiles++
			s.OrphanSize += obj.Size
		}
	}
	return s
}

// Reconciler works on a single owner's prefix.
type Reconciler struct {
	refs   References
	store  storage.ObjectStore
	prefix string
	logger *slog.Logger
	now    func() time.Time
}

func New(refs References, store storage.ObjectStore) *Reconciler {
	scope := refs.Scope()
	return &Reconciler{
		refs:   refs,
		store:  store,
		prefix: scope.ObjectPrefix(),
		logger: logger.For("reconcile").With(slog.String("owner", scope.OwnerID())),
		now:    time.Now,
	}
}

// Scan lists the owner's objects and classifies them. The two reference
// sources and the listing are fetched concurrently.
func (r *Reconciler) Scan(ctx context.Context) (*Report, error) {
	start := time.Now()

	var (
		uploadKeys     []string
		screenshotURLs []string
		objects        []storage.Object
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		uploadKeys, err = r.refs.UploadKeys(gctx)
		if err != nil {
			return fmt.Errorf("load upload keys: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		screenshotURLs, err = r.refs.ScreenshotURLs(gctx)
		if err != nil {
			return fmt.Errorf("load screenshot urls: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		objects, err = r.store.List(gctx, r.prefix)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	base := r.store.PublicBase()
	screenshotKeys := make([]string, 0, len(screenshotURLs))
	for _, u := range screenshotURLs {
		if key, ok := KeyFromURL(base, u); ok {
			screenshotKeys = append(screenshotKeys, key)
		}
	}

	classified := Classify(objects, uploadKeys, screenshotKeys, r.store.PublicURL)
	summary := Summarize(classified)

	scansTotal.Inc()
	orphansFound.Add(float64(summary.OrphanFiles))
	scanDuration.Observe(time.Since(start).Seconds())

	r.logger.InfoContext(ctx, "storage scan completed",
		slog.Int("objects", summary.TotalFiles),
		slog.Int("orphans", summary.OrphanFiles),
		slog.Int64("orphan_bytes", summary.OrphanSize),
		slog.Duration("duration", time.Since(start)),
	)

	return &Report{
		Prefix:    r.prefix,
		ScannedAt: r.now().UTC(),
		Objects:   classified,
		Summary:   summary,
	}, nil
}

// Orphans returns the keys of every object Scan classifies as unreferenced.
func (r *Reconciler) Orphans(ctx context.Context) ([]string, error) {
	report, err := r.Scan(ctx)
	if err != nil {
		return nil, err
	}
	keys := []string{}
	for _, obj := range report.Objects {
		if !obj.IsReferenced {
			keys = append(keys, obj.Key)
		}
	}
	return keys, nil
}

// Delete removes exactly the given keys, DeleteChunkSize per call. Keys
// outside the owner's prefix are skipped. A failed chunk does not undo
// earlier chunks and does not stop later ones; its keys are counted as
// failed. The error return is only set when ctx ends the run early.
func (r *Reconciler) Delete(ctx context.Context, keys []string) (*DeleteResult, error) {
	keys = chunk.Unique(keys)
	result := &DeleteResult{Requested: len(keys), Errors: []storage.KeyError{}}
	if len(keys) == 0 {
		return result, nil
	}

	scope := r.refs.Scope()
	owned := make([]string, 0, len(keys))
	for _, k := range keys {
		if !scope.Owns(k) {
			result.Skipped++
			result.Errors = append(result.Errors, storage.KeyError{
				Key:     k,
				Code:    codeOutsidePrefix,
				Message: "key is outside the owner's prefix",
			})
			continue
		}
		owned = append(owned, k)
	}

	chunks := chunk.Split(owned, DeleteChunkSize)
	for i, part := range chunks {
		if err := ctx.Err(); err != nil {
			for _, rest := range chunks[i:] {
				result.Failed += len(rest)
			}
			r.record(result)
			return result, err
		}

		keyErrs, err := r.store.DeleteBatch(ctx, part)
		if err != nil {
			r.logger.WarnContext(ctx, "batch delete failed",
				slog.Int("chunk", i),
				slog.Int("keys", len(part)),
				slog.String("error", err.Error()),
			)
			result.Failed += len(part)
			for _, k := range part {
				result.Errors = append(result.Errors, storage.KeyError{
					Key:     k,
					Code:    codeBatchFailed,
					Message: "batch delete call failed",
				})
			}
			continue
		}

		result.Failed += len(keyErrs)
		result.Errors = append(result.Errors, keyErrs...)
		result.Deleted += len(part) - len(keyErrs)
	}

	r.record(result)
	r.logger.InfoContext(ctx, "orphan cleanup completed",
		slog.Int("requested", result.Requested),
		slog.Int("deleted", result.Deleted),
		slog.Int("failed", result.Failed),
		slog.Int("skipped", result.Skipped),
	)
	return result, nil
}

func (r *Reconciler) record(res *DeleteResult) {
	objectsDeleted.WithLabelValues("deleted").Add(float64(res.Deleted))
	objectsDeleted.WithLabelValues("failed").Add(float64(res.Failed))
	objectsDeleted.WithLabelValues("skipped").Add(float64(res.Skipped))
}
