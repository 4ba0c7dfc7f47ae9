// Package identify turns a plant photo into an enriched identification:
// recognition first, then care details looked up term by term.
package identify

import (
	"context"
	"strings"
	"time"

	"github.com/iliyamo/floradex/internal/logging"
	"github.com/iliyamo/floradex/internal/metrics"
	"github.com/iliyamo/floradex/internal/model"
)

// MaxAlternatives is the number of ranked candidates kept on a result.
const MaxAlternatives = 3

// Identifier recognizes the species in a photo.  Candidates come back
// sorted by confidence, highest first.
type Identifier interface {
	Identify(ctx context.Context, image []byte, filename string) ([]model.Candidate, error)
}

// CareSource resolves a plant name to care details.  A record with
// IsDefault set means the source had nothing specific.
type CareSource interface {
	CareByName(ctx context.Context, name string) (model.CareInfo, error)
	Default(name string) model.CareInfo
}

// Recorder receives one observation per run.
type Recorder interface {
	ObserveIdentification(outcome string, termsTried int, elapsed time.Duration)
}

// Pipeline runs identification requests.  It holds no per-request state
// and may be shared.
type Pipeline struct {
	identifier Identifier
	care       CareSource
	log        *logging.Logger
	recorder   Recorder
}

// Option customises a Pipeline.
type Option func(*Pipeline)

// WithLogger sets the logger used for skipped care lookups.
func WithLogger(l *logging.Logger) Option { return func(p *Pipeline) { p.log = l } }

// WithRecorder reports every run to r.
func WithRecorder(r Recorder) Option { return func(p *Pipeline) { p.recorder = r } }

// New wires a pipeline from its two collaborators.
func New(identifier Identifier, care CareSource, opts ...Option) *Pipeline {
	p := &Pipeline{identifier: identifier, care: care, log: logging.Nop()}
	for _, o := range opts {
		o(p)
	}
	return p
}

// Run identifies image and enriches the best candidate with care
// details.  Only recognition failures are returned, as
// *IdentificationError; care lookups that fail are logged and skipped,
// and the default record is used when no term matches.
func (p *Pipeline) Run(ctx context.Context, image []byte, filename string) (model.IdentificationResult, error) {
	start := time.Now()

	candidates, err := p.identifier.Identify(ctx, image, filename)
	if err == nil && len(candidates) == 0 {
		err = ErrNoCandidates
	}
	if err != nil {
		p.log.Warn("identification failed", "error", err)
		p.observe(metrics.OutcomeFailed, 0, start)
		return model.IdentificationResult{}, &IdentificationError{Err: err}
	}

	primary := candidates[0]
	terms := SearchTerms(primary)

	var (
		care    model.CareInfo
		matched string
		tried   []string
		found   bool
	)
	for _, term := range terms {
		tried = append(tried, term)
		rec, err := p.care.CareByName(ctx, term)
		if err != nil {
			p.log.Warn("care lookup failed", "term", term, "error", err)
			continue
		}
		if rec.IsDefault {
			p.log.Debug("no care details for term", "term", term)
			continue
		}
		care, matched, found = rec, term, true
		if rec.MatchedQuery != "" {
			matched = rec.MatchedQuery
		}
		break
	}

	outcome := metrics.OutcomeMatched
	if !found {
		care = p.care.Default(primary.Name)
		matched = primary.Name
		outcome = metrics.OutcomeDefault
	}
	p.observe(outcome, len(tried), start)
	p.log.Info("plant identified",
		"name", primary.Name,
		"confidence", primary.Confidence,
		"terms_tried", len(tried),
		"matched", matched,
		"default_care", !found)

	alternatives := candidates
	if len(alternatives) > MaxAlternatives {
		alternatives = alternatives[:MaxAlternatives]
	}
	if tried == nil {
		tried = []string{}
	}
	return model.IdentificationResult{
		Name:              primary.Name,
		ScientificName:    primary.ScientificName,
		Confidence:        primary.Confidence,
		Alternatives:      append([]model.Candidate(nil), alternatives...),
		SearchTerms:       tried,
		SearchTermMatched: matched,
		CareInfo:          care,
	}, nil
}

// SearchTerms lists the names tried against the care source: common
// names in service order, then the display name, the scientific name
// and the genus.  Blanks and repeats are dropped.
func SearchTerms(c model.Candidate) []string {
	var terms []string
	seen := map[string]bool{}
	add := func(s string) {
		s = strings.TrimSpace(s)
		if s == "" || seen[s] {
			return
		}
		seen[s] = true
		terms = append(terms, s)
	}
	for _, n := range c.CommonNames {
		add(n)
	}
	add(c.Name)
	add(c.ScientificName)
	add(c.Genus)
	return terms
}

func (p *Pipeline) observe(outcome string, tried int, start time.Time) {
	if p.recorder != nil {
		p.recorder.ObserveIdentification(outcome, tried, time.Since(start))
	}
}
