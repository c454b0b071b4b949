// Package merge aggregates student vocabulary repositories into the single
// hub document that drives audio synchronization. Repositories are fetched
// concurrently but always combined in configured order, so the merged
// output never depends on response timing.
package merge

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"sori/internal/logging"
	"sori/internal/services"
	"sori/internal/vocab"
)

// Stats summarizes a completed merge.
type Stats struct {
	ReposConfigured int
	ReposFetched    int
	ReposSkipped    []string

	Subjects int
	Times    int
	Places   int
	Objects  int
	Verbs    int

	DescribeSubjects int
	Adjectives       int
	Adverbs          int

	Categories int
	Cards      int

	IntroTopics int
	IntroNouns  int

	QuizSituations int

	Elapsed time.Duration
}

// Merger fetches and combines student vocabularies.
type Merger struct {
	fetcher     Fetcher
	repos       []string
	concurrency int
	logger      *slog.Logger
}

// New constructs a Merger over the configured repositories.
func New(fetcher Fetcher, repos []string, concurrency int, logger *slog.Logger) (*Merger, error) {
	if fetcher == nil {
		return nil, errors.New("fetcher required")
	}
	if len(repos) == 0 {
		return nil, errors.New("at least one repository required")
	}
	if concurrency <= 0 {
		concurrency = 1
	}
	return &Merger{
		fetcher:     fetcher,
		repos:       append([]string(nil), repos...),
		concurrency: concurrency,
		logger:      logging.NewComponentLogger(logger, "merge"),
	}, nil
}

// Run fetches every repository and combines the results. A repository
// that yields nothing is skipped with a warning; the merge fails only
// when no repository yields a document or the context is cancelled.
func (m *Merger) Run(ctx context.Context) (*vocab.Document, *Stats, error) {
	start := time.Now()
	stats := &Stats{ReposConfigured: len(m.repos)}
	docs := make([]*vocab.Document, len(m.repos))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(m.concurrency)
	for i, repo := range m.repos {
		i, repo := i, repo
		g.Go(func() error {
			doc, err := m.fetcher.Fetch(gctx, repo)
			if err != nil {
				if gctx.Err() != nil {
					return gctx.Err()
				}
				logging.WarnWithContext(m.logger, "repository skipped", "merge_repo_skipped",
					logging.String("repo", repo),
					logging.Error(err),
					logging.String(logging.FieldImpact, "its vocabulary is absent from this merge"))
				return nil
			}
			docs[i] = doc
			m.logger.Info("repository fetched",
				logging.String("repo", repo),
				logging.String("student", doc.Student))
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}

	for i, doc := range docs {
		if doc == nil {
			stats.ReposSkipped = append(stats.ReposSkipped, m.repos[i])
			continue
		}
		stats.ReposFetched++
	}
	if stats.ReposFetched == 0 {
		return nil, nil, services.Wrap(services.ErrNotFound, "merge", "fetch",
			"no repository yielded a vocabulary document", nil)
	}

	merged := Combine(docs)
	stats.fill(merged)
	stats.Elapsed = time.Since(start)
	m.logger.Info("merge complete",
		logging.Int("repos_fetched", stats.ReposFetched),
		logging.Int("repos_skipped", len(stats.ReposSkipped)),
		logging.Int("verbs", stats.Verbs),
		logging.Int("flashcards", stats.Cards),
		logging.Duration("elapsed", stats.Elapsed))
	return merged, stats, nil
}

func (s *Stats) fill(doc *vocab.Document) {
	s.Subjects = len(doc.Action.Subjects)
	s.Times = len(doc.Action.Times)
	s.Places = len(doc.Action.Places)
	s.Objects = len(doc.Action.Objects)
	s.Verbs = len(doc.Action.Verbs)

	s.DescribeSubjects = len(doc.Describe.Subjects)
	s.Adjectives = len(doc.Describe.Adjectives)
	s.Adverbs = len(doc.Describe.Adverbs)

	s.Categories = len(doc.Flashcards.Categories)
	for _, category := range doc.Flashcards.Categories {
		s.Cards += len(category.Cards)
	}

	if doc.Intro != nil {
		s.IntroTopics = len(doc.Intro.Topics)
		s.IntroNouns = len(doc.Intro.Nouns)
	}
	if doc.Quiz != nil {
		s.QuizSituations = len(doc.Quiz.Situations)
	}
}
