package marketplace

import (
	"context"

	pkgerrors "github.com/rafacastellanos/listkeeper-backend/pkg/errors"
)

const defaultPageSize = 100

// Snapshot lazily walks the paginated external snapshot, producing one item
// at a time so very large catalogs never need to be materialized in full.
type Snapshot struct {
	source   CatalogSource
	pageSize int

	token string
	done  bool
	buf   []SnapshotItem
	idx   int
}

// NewSnapshot builds a lazy pager over the source's current listings.
func NewSnapshot(source CatalogSource, pageSize int) *Snapshot {
	if pageSize <= 0 {
		pageSize = defaultPageSize
	}
	return &Snapshot{source: source, pageSize: pageSize}
}

// Next returns the next snapshot item, fetching pages on demand. The second
// return value is false once the snapshot is exhausted. A fetch error ends
// the walk; the caller must treat it as a run-level failure, not a per-item
// one, because the remainder of the snapshot is unknown.
func (s *Snapshot) Next(ctx context.Context) (SnapshotItem, bool, error) {
	for s.idx >= len(s.buf) {
		if s.done {
			return SnapshotItem{}, false, nil
		}
		if err := s.fetchPage(ctx); err != nil {
			return SnapshotItem{}, false, err
		}
	}
	item := s.buf[s.idx]
	s.idx++
	return item, true, nil
}

func (s *Snapshot) fetchPage(ctx context.Context) error {
	page, err := s.source.FetchListingsPage(ctx, s.token, s.pageSize)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "fetch listings page")
	}
	s.buf = page.Items
	s.idx = 0
	s.token = page.NextToken
	if s.token == "" {
		s.done = true
	}
	return nil
}
