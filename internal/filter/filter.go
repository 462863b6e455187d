// Package filter decides which installed Steam apps are auxiliary packages
// (runtimes, tools, soundtracks, servers) that should not get a launcher.
package filter

import (
	"strings"

	"github.com/blackwell-systems/steamdesk/internal/steam"
	"golang.org/x/text/cases"
)

// Reason identifies which criterion caused a skip.
type Reason int

const (
	ReasonNone Reason = iota
	ReasonIgnoredAppID
	ReasonKeyword
)

func (r Reason) String() string {
	switch r {
	case ReasonIgnoredAppID:
		return "ignored app id"
	case ReasonKeyword:
		return "keyword"
	default:
		return "none"
	}
}

// Decision is the outcome of classifying one record.
type Decision struct {
	Skip    bool
	Reason  Reason
	Keyword string // the configured keyword that matched, for ReasonKeyword
}

type keyword struct {
	raw    string
	folded string
}

// Filter holds an immutable set of skip criteria. The zero value keeps
// everything. A Filter is safe for concurrent use.
type Filter struct {
	keywords []keyword
	appIDs   map[string]struct{}
}

// New builds a Filter. Keywords match as case-insensitive substrings of the
// app name; app ids match exactly. Blank entries are dropped so that an
// empty keyword cannot match every name.
func New(keywords, appIDs []string) *Filter {
	f := &Filter{appIDs: make(map[string]struct{}, len(appIDs))}
	for _, k := range keywords {
		k = strings.TrimSpace(k)
		if k == "" {
			continue
		}
		f.keywords = append(f.keywords, keyword{raw: k, folded: fold(k)})
	}
	for _, id := range appIDs {
		id = strings.TrimSpace(id)
		if id == "" {
			continue
		}
		f.appIDs[id] = struct{}{}
	}
	return f
}

// Classify reports whether rec should be skipped and why. The app id check
// runs first so a record matching both criteria reports ReasonIgnoredAppID.
func (f *Filter) Classify(rec steam.PackageRecord) Decision {
	if _, ok := f.appIDs[rec.AppID]; ok {
		return Decision{Skip: true, Reason: ReasonIgnoredAppID}
	}

	if len(f.keywords) > 0 {
		name := fold(rec.Name)
		for _, k := range f.keywords {
			if strings.Contains(name, k.folded) {
				return Decision{Skip: true, Reason: ReasonKeyword, Keyword: k.raw}
			}
		}
	}

	return Decision{}
}

// ShouldSkip is Classify reduced to its boolean outcome.
func (f *Filter) ShouldSkip(rec steam.PackageRecord) bool {
	return f.Classify(rec).Skip
}

// fold applies Unicode case folding. A new Caser is used per call because
// cases.Caser is stateful and not safe for concurrent use.
func fold(s string) string {
	return cases.Fold().String(s)
}
