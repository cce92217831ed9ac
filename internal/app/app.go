package app

import (
	"context"
	"fmt"
	"time"

	"pubtagger/internal/config"
	"pubtagger/internal/models"

	"github.com/rs/zerolog"
)

// ArticleStore is the slice of the article collection the job needs.
// *db.MongoDB satisfies it.
type ArticleStore interface {
	DeleteByDomains(ctx context.Context, domains []string) (int64, error)
	TagDomain(ctx context.Context, domain, pub, tag string) (matched, modified int64, err error)
	CountByDomains(ctx context.Context, domains []string) (int64, error)
	CountUntagged(ctx context.Context, domain, pub, tag string) (int64, error)
	CountByPub(ctx context.Context, pub string) (int64, error)
}

type Options struct {
	// DryRun replaces every write with the equivalent count.
	DryRun bool
	// Report counts articles per shortname once tagging is done.
	Report bool
}

// TaggingJob purges blacklisted publications, then stamps each mapped
// domain's articles with a publication shortname and category tag.
type TaggingJob struct {
	store ArticleStore
	table *config.Table
	log   zerolog.Logger
	opts  Options
}

func NewTaggingJob(store ArticleStore, table *config.Table, log zerolog.Logger, opts Options) *TaggingJob {
	return &TaggingJob{store: store, table: table, log: log, opts: opts}
}

// Run executes purge then augment. The first store error aborts the run;
// whatever was already written stays written.
func (j *TaggingJob) Run(ctx context.Context) (*models.RunSummary, error) {
	started := time.Now()
	summary := &models.RunSummary{DryRun: j.opts.DryRun}

	for _, w := range j.table.Lint() {
		j.log.Warn().Msg(w)
	}

	if j.opts.DryRun {
		j.log.Info().Msg("dry run, no documents will be changed")
	}

	purge, err := j.purge(ctx)
	if err != nil {
		return summary, err
	}
	summary.Purge = purge

	for _, a := range j.table.Augment.Entries() {
		if err := ctx.Err(); err != nil {
			return summary, fmt.Errorf("stopped before %s: %w", a.Domain, err)
		}
		res, err := j.augment(ctx, a)
		if err != nil {
			return summary, err
		}
		summary.Augments = append(summary.Augments, res)
	}

	if j.opts.Report {
		pubs, err := j.report(ctx)
		if err != nil {
			return summary, err
		}
		summary.Publications = pubs
	}

	summary.Elapsed = time.Since(started)
	j.log.Info().
		Int64("deleted", summary.Purge.Deleted).
		Int("domains", len(summary.Augments)).
		Int64("matched", summary.Touched()).
		Dur("elapsed", summary.Elapsed).
		Bool("dry_run", summary.DryRun).
		Msg("tagging finished")

	return summary, nil
}

func (j *TaggingJob) purge(ctx context.Context) (models.PurgeResult, error) {
	res := models.PurgeResult{Domains: j.table.Blacklist}
	j.log.Info().Strs("domains", res.Domains).Msg("removing registration pages etc")

	var err error
	if j.opts.DryRun {
		res.Deleted, err = j.store.CountByDomains(ctx, res.Domains)
	} else {
		res.Deleted, err = j.store.DeleteByDomains(ctx, res.Domains)
	}
	if err != nil {
		return res, fmt.Errorf("purge: %w", err)
	}

	j.log.Info().Int64("deleted", res.Deleted).Msg("purged blacklisted articles")
	return res, nil
}

func (j *TaggingJob) augment(ctx context.Context, a models.Augment) (models.AugmentResult, error) {
	res := models.AugmentResult{Augment: a}

	var err error
	if j.opts.DryRun {
		res.Matched, err = j.store.CountByDomains(ctx, []string{a.Domain})
		if err == nil {
			res.Modified, err = j.store.CountUntagged(ctx, a.Domain, a.Shortname, a.Tag)
		}
	} else {
		res.Matched, res.Modified, err = j.store.TagDomain(ctx, a.Domain, a.Shortname, a.Tag)
	}
	if err != nil {
		return res, fmt.Errorf("augment %s: %w", a.Domain, err)
	}

	j.log.Info().
		Str("domain", a.Domain).
		Str("shortname", a.Shortname).
		Str("tag", a.Tag).
		Int64("matched", res.Matched).
		Int64("modified", res.Modified).
		Msg("tagged")
	return res, nil
}

// report counts articles for each distinct shortname in mapping order.
func (j *TaggingJob) report(ctx context.Context) ([]models.PublicationCount, error) {
	seen := make(map[string]bool)
	var out []models.PublicationCount
	for _, a := range j.table.Augment.Entries() {
		if seen[a.Shortname] {
			continue
		}
		seen[a.Shortname] = true

		n, err := j.store.CountByPub(ctx, a.Shortname)
		if err != nil {
			return out, fmt.Errorf("report %s: %w", a.Shortname, err)
		}
		j.log.Info().Str("pub", a.Shortname).Int64("articles", n).Msg("publication")
		out = append(out, models.PublicationCount{Pub: a.Shortname, Articles: n})
	}
	return out, nil
}
