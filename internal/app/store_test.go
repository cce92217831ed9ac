package app

import (
	"context"
	"errors"
	"slices"

	"pubtagger/internal/models"
)

var errUnreachable = errors.New("server selection error: connection refused")

// memStore applies $in deletes, $set and $addToSet to documents in memory.
type memStore struct {
	docs  []models.Article
	calls []string

	// failOn makes the named call fail; "tag:<domain>" targets one domain.
	failOn string
}

func newMemStore(docs ...models.Article) *memStore {
	return &memStore{docs: docs}
}

func (s *memStore) fail(call string) error {
	s.calls = append(s.calls, call)
	if s.failOn == call {
		return errUnreachable
	}
	return nil
}

func (s *memStore) DeleteByDomains(_ context.Context, domains []string) (int64, error) {
	if err := s.fail("delete"); err != nil {
		return 0, err
	}
	kept := s.docs[:0]
	var n int64
	for _, d := range s.docs {
		if slices.Contains(domains, d.Publication.Domain) {
			n++
			continue
		}
		kept = append(kept, d)
	}
	s.docs = kept
	return n, nil
}

func (s *memStore) TagDomain(_ context.Context, domain, pub, tag string) (int64, int64, error) {
	if err := s.fail("tag:" + domain); err != nil {
		return 0, 0, err
	}
	var matched, modified int64
	for i := range s.docs {
		d := &s.docs[i]
		if d.Publication.Domain != domain {
			continue
		}
		matched++
		changed := d.Pub != pub
		d.Pub = pub
		if !slices.Contains(d.Tags, tag) {
			d.Tags = append(d.Tags, tag)
			changed = true
		}
		if changed {
			modified++
		}
	}
	return matched, modified, nil
}

func (s *memStore) CountByDomains(_ context.Context, domains []string) (int64, error) {
	if err := s.fail("count"); err != nil {
		return 0, err
	}
	var n int64
	for _, d := range s.docs {
		if slices.Contains(domains, d.Publication.Domain) {
			n++
		}
	}
	return n, nil
}

func (s *memStore) CountUntagged(_ context.Context, domain, pub, tag string) (int64, error) {
	if err := s.fail("untagged"); err != nil {
		return 0, err
	}
	var n int64
	for _, d := range s.docs {
		if d.Publication.Domain == domain && (d.Pub != pub || !slices.Contains(d.Tags, tag)) {
			n++
		}
	}
	return n, nil
}

func (s *memStore) CountByPub(_ context.Context, pub string) (int64, error) {
	if err := s.fail("pub:" + pub); err != nil {
		return 0, err
	}
	var n int64
	for _, d := range s.docs {
		if d.Pub == pub {
			n++
		}
	}
	return n, nil
}

func (s *memStore) find(id string) (models.Article, bool) {
	for _, d := range s.docs {
		if d.ID == id {
			return d, true
		}
	}
	return models.Article{}, false
}

func (s *memStore) snapshot() []models.Article {
	out := make([]models.Article, len(s.docs))
	for i, d := range s.docs {
		d.Tags = slices.Clone(d.Tags)
		out[i] = d
	}
	return out
}

func article(id, domain string) models.Article {
	return models.Article{ID: id, Publication: models.Publication{Domain: domain}}
}
