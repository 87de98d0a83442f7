package marketplace

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/rafacastellanos/listkeeper-backend/pkg/enums"
	pkgerrors "github.com/rafacastellanos/listkeeper-backend/pkg/errors"
)

type pagedSource struct {
	pages    [][]SnapshotItem
	requests []string
	failAt   int // 1-based request index that fails; 0 means never
}

func (p *pagedSource) Marketplace() enums.MarketplaceType { return enums.MarketplaceSquare }

func (p *pagedSource) FetchListingsPage(_ context.Context, pageToken string, _ int) (Page, error) {
	p.requests = append(p.requests, pageToken)
	if p.failAt > 0 && len(p.requests) == p.failAt {
		return Page{}, errors.New("upstream 503")
	}

	idx := 0
	if pageToken != "" {
		idx = int(pageToken[0] - '0')
	}
	if idx >= len(p.pages) {
		return Page{}, nil
	}
	page := Page{Items: p.pages[idx]}
	if idx+1 < len(p.pages) {
		page.NextToken = string(rune('0' + idx + 1))
	}
	return page, nil
}

func (p *pagedSource) FetchStock(context.Context, string) (int, error) { return 0, nil }

func (p *pagedSource) WritePrice(context.Context, string, decimal.Decimal) error { return nil }

func snapItem(id string) SnapshotItem {
	return SnapshotItem{ExternalID: id, Title: id, Price: decimal.New(1, 0), Status: enums.ListingStatusActive}
}

func TestSnapshotWalksAllPagesLazily(t *testing.T) {
	source := &pagedSource{pages: [][]SnapshotItem{
		{snapItem("a"), snapItem("b")},
		{snapItem("c")},
	}}
	snapshot := NewSnapshot(source, 2)

	var got []string
	for {
		item, ok, err := snapshot.Next(context.Background())
		if err != nil {
			t.Fatalf("Next: %v", err)
		}
		if !ok {
			break
		}
		got = append(got, item.ExternalID)

		// Pages are fetched on demand, not all up front.
		if len(got) == 1 && len(source.requests) != 1 {
			t.Fatalf("fetched %d pages after first item", len(source.requests))
		}
	}

	if len(got) != 3 || got[0] != "a" || got[2] != "c" {
		t.Fatalf("items = %v", got)
	}
	if len(source.requests) != 2 {
		t.Fatalf("page fetches = %d", len(source.requests))
	}
}

func TestSnapshotEmptySource(t *testing.T) {
	snapshot := NewSnapshot(&pagedSource{}, 10)

	_, ok, err := snapshot.Next(context.Background())
	if err != nil {
		t.Fatalf("Next: %v", err)
	}
	if ok {
		t.Fatal("expected exhausted snapshot")
	}
}

func TestSnapshotFetchErrorSurfacesAsDependency(t *testing.T) {
	source := &pagedSource{
		pages:  [][]SnapshotItem{{snapItem("a")}, {snapItem("b")}},
		failAt: 2,
	}
	snapshot := NewSnapshot(source, 1)

	if _, ok, err := snapshot.Next(context.Background()); err != nil || !ok {
		t.Fatalf("first Next: ok=%v err=%v", ok, err)
	}

	_, _, err := snapshot.Next(context.Background())
	if err == nil {
		t.Fatal("expected fetch error")
	}
	domainErr := pkgerrors.As(err)
	if domainErr == nil || domainErr.Code() != pkgerrors.CodeDependency {
		t.Fatalf("error = %v", err)
	}
}
