package tasks

import (
	"errors"
	"fmt"
	"time"

	"github.com/desertthunder/wpx/internal/models"
)

// Kind names a class of entity moved by a run.
type Kind string

const (
	KindAuthors Kind = "authors"
	KindTags    Kind = "tags"
	KindPosts   Kind = "posts"
)

// AllKinds lists every kind in dependency order: posts reference authors and tags.
var AllKinds = []Kind{KindAuthors, KindTags, KindPosts}

// ParseKind validates a kind name given on the command line.
func ParseKind(s string) (Kind, error) {
	for _, k := range AllKinds {
		if string(k) == s {
			return k, nil
		}
	}
	return "", fmt.Errorf("unknown kind %q (want authors, tags or posts)", s)
}

func (k Kind) rank() int {
	for i, c := range AllKinds {
		if c == k {
			return i
		}
	}
	return len(AllKinds)
}

// State is the lifecycle position of one entity within a run.
type State int

const (
	StateFetched State = iota
	StateAssetResolved
	StateTransformed
	StateSubmitted
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateFetched:
		return "fetched"
	case StateAssetResolved:
		return "asset_resolved"
	case StateTransformed:
		return "transformed"
	case StateSubmitted:
		return "submitted"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Outcome is the terminal record of one entity's unit of work.
type Outcome struct {
	Kind      Kind             `json:"kind"`
	SourceID  int64            `json:"source_id"`
	Label     string           `json:"label"`
	State     State            `json:"state"`
	Reference models.Reference `json:"reference"`
	// AssetPath is where the primary image is expected on the destination.
	AssetPath      string `json:"asset_path,omitempty"`
	AssetError     string `json:"asset_error,omitempty"`
	InlineFailures int    `json:"inline_failures,omitempty"`
	Error          string `json:"error,omitempty"`

	Err error `json:"-"`
}

// Failed reports whether the entity was not created.
func (o Outcome) Failed() bool { return o.State == StateFailed }

func (o *Outcome) fail(err error) {
	o.State = StateFailed
	o.Err = err
	o.Error = err.Error()
}

// KindReport aggregates the outcomes for one kind.
type KindReport struct {
	Kind          Kind      `json:"kind"`
	Total         int       `json:"total"`
	Submitted     int       `json:"submitted"`
	Failed        int       `json:"failed"`
	AssetFailures int       `json:"asset_failures"`
	Outcomes      []Outcome `json:"outcomes"`
	FetchError    string    `json:"fetch_error,omitempty"`
	StartedAt     time.Time `json:"started_at"`
	FinishedAt    time.Time `json:"finished_at"`

	fetchErr error
}

// FetchErr returns the error that prevented the kind from being read, if any.
func (r *KindReport) FetchErr() error { return r.fetchErr }

func (r *KindReport) Duration() time.Duration { return r.FinishedAt.Sub(r.StartedAt) }

// Failures returns the outcomes that did not reach the destination.
func (r *KindReport) Failures() []Outcome {
	var out []Outcome
	for _, o := range r.Outcomes {
		if o.Failed() {
			out = append(out, o)
		}
	}
	return out
}

func (r *KindReport) setFetchError(err error) {
	r.fetchErr = err
	r.FetchError = err.Error()
}

// tally recomputes the counters from the outcomes.
func (r *KindReport) tally() {
	r.Total = len(r.Outcomes)
	r.Submitted, r.Failed, r.AssetFailures = 0, 0, 0
	for _, o := range r.Outcomes {
		switch o.State {
		case StateSubmitted:
			r.Submitted++
		case StateFailed:
			r.Failed++
		}
		if o.AssetError != "" {
			r.AssetFailures++
		}
	}
}

// RunReport is the aggregate result of one invocation.
type RunReport struct {
	ID         string        `json:"id"`
	Kinds      []*KindReport `json:"kinds"`
	StartedAt  time.Time     `json:"started_at"`
	FinishedAt time.Time     `json:"finished_at"`
}

func (r *RunReport) Duration() time.Duration { return r.FinishedAt.Sub(r.StartedAt) }

// Kind returns the report for k, or nil when k was not part of the run.
func (r *RunReport) Kind(k Kind) *KindReport {
	for _, kr := range r.Kinds {
		if kr.Kind == k {
			return kr
		}
	}
	return nil
}

// Failures returns every failed outcome across kinds, in run order.
func (r *RunReport) Failures() []Outcome {
	var out []Outcome
	for _, kr := range r.Kinds {
		out = append(out, kr.Failures()...)
	}
	return out
}

// Totals sums the per-kind counters.
func (r *RunReport) Totals() (total, submitted, failed, assetFailures int) {
	for _, kr := range r.Kinds {
		total += kr.Total
		submitted += kr.Submitted
		failed += kr.Failed
		assetFailures += kr.AssetFailures
	}
	return
}

// FetchErr joins the fetch errors of every kind, or returns nil.
func (r *RunReport) FetchErr() error {
	var errs []error
	for _, kr := range r.Kinds {
		if kr.fetchErr != nil {
			errs = append(errs, kr.fetchErr)
		}
	}
	return errors.Join(errs...)
}
