// Package registry enforces the one-keyword-per-page / one-page-per-keyword
// rule for a user's focus keywords. Keys are matched case-insensitively;
// the original casing is preserved for display.
package registry

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/serptrack/serptrack/internal/store"
)

var ErrKeywordTaken = errors.New("keyword already assigned to another page")

type Registry struct {
	byKeyword map[string]store.KeywordAssignment // lowercase keyword -> assignment
	byPage    map[string]string                  // page URL -> lowercase keyword
}

func New() *Registry {
	return &Registry{
		byKeyword: make(map[string]store.KeywordAssignment),
		byPage:    make(map[string]string),
	}
}

// FromAssignments rebuilds a registry from a persisted set. Later entries
// win on conflict, matching whole-set replacement semantics.
func FromAssignments(set []store.KeywordAssignment) *Registry {
	r := New()
	for _, a := range set {
		r.clearPage(a.PageURL)
		r.clearKeyword(a.Keyword)
		r.put(a)
	}
	return r
}

// Assign binds keyword to pageURL. It fails if the keyword is already
// bound to a different page; reassigning the same page replaces its
// previous keyword.
func (r *Registry) Assign(keyword, pageURL string) error {
	key := strings.ToLower(keyword)
	if existing, ok := r.byKeyword[key]; ok && existing.PageURL != pageURL {
		return fmt.Errorf("%w: %q is assigned to %s", ErrKeywordTaken, existing.Keyword, existing.PageURL)
	}

	r.clearPage(pageURL)
	r.put(store.KeywordAssignment{Keyword: keyword, PageURL: pageURL})
	return nil
}

// ClearPage removes whatever keyword is assigned to pageURL.
func (r *Registry) ClearPage(pageURL string) {
	r.clearPage(pageURL)
}

// KeywordFor returns the keyword assigned to a page, original casing.
func (r *Registry) KeywordFor(pageURL string) (string, bool) {
	key, ok := r.byPage[pageURL]
	if !ok {
		return "", false
	}
	return r.byKeyword[key].Keyword, true
}

// PageFor returns the page a keyword is assigned to.
func (r *Registry) PageFor(keyword string) (string, bool) {
	a, ok := r.byKeyword[strings.ToLower(keyword)]
	if !ok {
		return "", false
	}
	return a.PageURL, true
}

// Assignments returns the full set sorted by keyword, ready for a
// whole-set replacement write.
func (r *Registry) Assignments() []store.KeywordAssignment {
	set := make([]store.KeywordAssignment, 0, len(r.byKeyword))
	for _, a := range r.byKeyword {
		set = append(set, a)
	}
	sort.Slice(set, func(i, j int) bool {
		return strings.ToLower(set[i].Keyword) < strings.ToLower(set[j].Keyword)
	})
	return set
}

func (r *Registry) Len() int {
	return len(r.byKeyword)
}

func (r *Registry) put(a store.KeywordAssignment) {
	key := strings.ToLower(a.Keyword)
	r.byKeyword[key] = a
	r.byPage[a.PageURL] = key
}

func (r *Registry) clearPage(pageURL string) {
	if key, ok := r.byPage[pageURL]; ok {
		delete(r.byKeyword, key)
		delete(r.byPage, pageURL)
	}
}

func (r *Registry) clearKeyword(keyword string) {
	key := strings.ToLower(keyword)
	if a, ok := r.byKeyword[key]; ok {
		delete(r.byPage, a.PageURL)
		delete(r.byKeyword, key)
	}
}
