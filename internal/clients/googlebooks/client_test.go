package googlebooks

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/yungbote/smart-advisor-backend/internal/logger"
)

func TestLookup_ForwardsTitleAndAuthor(t *testing.T) {
	var gotTitle, gotAuthor string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotTitle = r.URL.Query().Get("title")
		gotAuthor = r.URL.Query().Get("author")
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"cover":"https://img.example/c.jpg","year":1969,"rating":4.1}`))
	}))
	defer srv.Close()

	c := NewClientWithConfig(logger.NewNop(), srv.URL, srv.Client())
	res := c.Lookup(context.Background(), "The Left Hand of Darkness", "Ursula K. Le Guin")
	if res.Status != StatusOK {
		t.Fatalf("expected StatusOK, got %v (err=%v)", res.Status, res.Err)
	}
	if gotTitle != "The Left Hand of Darkness" || gotAuthor != "Ursula K. Le Guin" {
		t.Fatalf("query params not forwarded: title=%q author=%q", gotTitle, gotAuthor)
	}
	if res.Match.CoverURL != "https://img.example/c.jpg" || res.Match.Year != 1969 || res.Match.Rating != 4.1 {
		t.Fatalf("unexpected match: %+v", res.Match)
	}
}

func TestLookup_OmitsEmptyAuthor(t *testing.T) {
	var hasAuthor bool
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hasAuthor = r.URL.Query().Has("author")
		_, _ = w.Write([]byte(`{"cover":"x","year":2000,"rating":3}`))
	}))
	defer srv.Close()

	c := NewClientWithConfig(logger.NewNop(), srv.URL, srv.Client())
	if res := c.Lookup(context.Background(), "Some Title", ""); res.Status != StatusOK {
		t.Fatalf("expected StatusOK, got %v", res.Status)
	}
	if hasAuthor {
		t.Fatalf("empty author must not be sent as a query param")
	}
}

func TestLookup_FailureVariants(t *testing.T) {
	missSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer missSrv.Close()
	c := NewClientWithConfig(logger.NewNop(), missSrv.URL, missSrv.Client())
	if res := c.Lookup(context.Background(), "x", ""); res.Status != StatusMiss {
		t.Fatalf("expected StatusMiss on 404, got %v", res.Status)
	}

	errSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer errSrv.Close()
	c = NewClientWithConfig(logger.NewNop(), errSrv.URL, errSrv.Client())
	if res := c.Lookup(context.Background(), "x", ""); res.Status != StatusError || res.Err == nil {
		t.Fatalf("expected StatusError on 502, got %v (err=%v)", res.Status, res.Err)
	}
}
