package cache

import (
	"strings"
	"testing"

	"github.com/savorly/dish-search/internal/models"
)

func TestHashString(t *testing.T) {
	h1 := hashString("test")
	h2 := hashString("test")
	if h1 != h2 {
		t.Errorf("hashString not deterministic: %q != %q", h1, h2)
	}

	h3 := hashString("other")
	if h1 == h3 {
		t.Error("different inputs should produce different hashes")
	}

	if h1 == "" {
		t.Error("hash should not be empty")
	}

	if hashString("") == "" {
		t.Error("hash of empty string should not be empty")
	}
}

func TestBuildSearchKeyEmbedsUser(t *testing.T) {
	reqA := &models.SearchRequest{Query: "vegan pizza", UserID: "alice", Page: 1, PageSize: 10}
	reqB := &models.SearchRequest{Query: "vegan pizza", UserID: "bob", Page: 1, PageSize: 10}

	if buildSearchKey(reqA) == buildSearchKey(reqB) {
		t.Error("same query for different users must produce different keys")
	}
}

func TestBuildSearchKeyAnonymous(t *testing.T) {
	req := &models.SearchRequest{Query: "ramen", Page: 1, PageSize: 10}
	key := buildSearchKey(req)
	if !strings.HasPrefix(key, "sr:u:anon:") {
		t.Errorf("anonymous key = %q, want sr:u:anon: prefix", key)
	}
}

func TestBuildSearchKeyVariesWithPagination(t *testing.T) {
	base := &models.SearchRequest{Query: "ramen", UserID: "u1", Page: 1, PageSize: 10}
	paged := &models.SearchRequest{Query: "ramen", UserID: "u1", Page: 2, PageSize: 10}
	sized := &models.SearchRequest{Query: "ramen", UserID: "u1", Page: 1, PageSize: 20}

	if buildSearchKey(base) == buildSearchKey(paged) {
		t.Error("page must change the key")
	}
	if buildSearchKey(base) == buildSearchKey(sized) {
		t.Error("page size must change the key")
	}
}

func TestStaleKeyDistinctFromFreshKey(t *testing.T) {
	req := &models.SearchRequest{Query: "sushi", UserID: "u1", Page: 1, PageSize: 10}
	if buildSearchKey(req) == buildStaleKey(req) {
		t.Error("fresh and stale keys must differ")
	}
	if !strings.HasPrefix(buildStaleKey(req), "sr:stale:u:") {
		t.Errorf("stale key = %q", buildStaleKey(req))
	}
}

func TestUserKeyComponentAvoidsRawSeparators(t *testing.T) {
	got := userKeyComponent("weird:user*id")
	if strings.ContainsAny(got, ":*") {
		t.Errorf("key component %q contains separator or glob characters", got)
	}
}
