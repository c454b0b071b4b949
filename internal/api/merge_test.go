package api

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"sori/internal/ledger"
	"sori/internal/services"
	"sori/internal/vocab"
)

type scriptedFetcher struct {
	docs map[string]*vocab.Document
}

func (f *scriptedFetcher) Fetch(_ context.Context, repo string) (*vocab.Document, error) {
	doc, ok := f.docs[repo]
	if !ok {
		return nil, fmt.Errorf("repo %s unavailable", repo)
	}
	return doc, nil
}

func TestMergeWritesHubDocument(t *testing.T) {
	cfg := newTestConfig(t)
	cfg.Merge.Repos = []string{"korean-practice-agata", "korean-practice-jaida"}
	fetcher := &scriptedFetcher{docs: map[string]*vocab.Document{
		"korean-practice-agata": {Action: &vocab.Action{Objects: []vocab.Item{{"kr": "책", "en": "book"}}}},
		"korean-practice-jaida": {Action: &vocab.Action{Objects: []vocab.Item{{"kr": "물", "en": "water"}}}},
	}}

	res, err := Merge(context.Background(), MergeRequest{Config: cfg, Fetcher: fetcher})
	if err != nil {
		t.Fatalf("Merge returned error: %v", err)
	}
	if !res.Written || res.OutputPath != cfg.VocabPath() {
		t.Fatalf("unexpected result: %+v", res)
	}
	if res.Stats.ReposFetched != 2 || res.Stats.Objects != 2 {
		t.Fatalf("unexpected stats: %+v", res.Stats)
	}
	// each object contributes its plain and particle form
	if res.Texts != 4 {
		t.Fatalf("Texts = %d, want 4", res.Texts)
	}

	doc, err := vocab.LoadDocument(cfg.VocabPath())
	if err != nil {
		t.Fatalf("merged document unreadable: %v", err)
	}
	if len(doc.Action.Objects) != 2 || doc.Action.Objects[0].Str("kr") != "책" {
		t.Fatalf("unexpected merged objects: %+v", doc.Action.Objects)
	}

	data, err := os.ReadFile(cfg.VocabPath())
	if err != nil {
		t.Fatal(err)
	}
	if len(data) == 0 || data[len(data)-1] != '\n' {
		t.Fatal("merged document should end with a newline")
	}

	runs := recentRuns(t, cfg, 1)
	if len(runs) != 1 {
		t.Fatalf("ledger runs = %d, want 1", len(runs))
	}
	run := runs[0]
	if run.Kind != ledger.KindMerge || run.Planned != 2 || run.Generated != 2 || run.Failed != 0 {
		t.Fatalf("unexpected ledger run: %+v", run)
	}
}

func TestMergeSkipsFailedRepos(t *testing.T) {
	cfg := newTestConfig(t)
	cfg.Merge.Repos = []string{"korean-practice-agata", "korean-practice-missing"}
	fetcher := &scriptedFetcher{docs: map[string]*vocab.Document{
		"korean-practice-agata": {Action: &vocab.Action{Objects: []vocab.Item{{"kr": "책"}}}},
	}}

	res, err := Merge(context.Background(), MergeRequest{Config: cfg, Fetcher: fetcher})
	if err != nil {
		t.Fatalf("Merge returned error: %v", err)
	}
	if res.Stats.ReposFetched != 1 || len(res.Stats.ReposSkipped) != 1 {
		t.Fatalf("unexpected stats: %+v", res.Stats)
	}
	if res.Stats.ReposSkipped[0] != "korean-practice-missing" {
		t.Fatalf("skipped = %v", res.Stats.ReposSkipped)
	}
	if !res.Written {
		t.Fatal("partial fetch should still write the document")
	}

	runs := recentRuns(t, cfg, 1)
	if len(runs) != 1 || runs[0].Failed != 1 {
		t.Fatalf("unexpected ledger run: %+v", runs)
	}
}

func TestMergeDryRunWritesNothing(t *testing.T) {
	cfg := newTestConfig(t)
	cfg.Merge.Repos = []string{"korean-practice-agata"}
	fetcher := &scriptedFetcher{docs: map[string]*vocab.Document{
		"korean-practice-agata": {Action: &vocab.Action{Objects: []vocab.Item{{"kr": "책"}}}},
	}}

	res, err := Merge(context.Background(), MergeRequest{Config: cfg, Fetcher: fetcher, DryRun: true})
	if err != nil {
		t.Fatalf("Merge returned error: %v", err)
	}
	if res.Written {
		t.Fatal("dry run must not write")
	}
	if res.Stats == nil || res.Stats.ReposFetched != 1 {
		t.Fatalf("dry run should still report stats: %+v", res.Stats)
	}
	if _, err := os.Stat(cfg.VocabPath()); !errors.Is(err, os.ErrNotExist) {
		t.Fatal("dry run must not create the vocabulary document")
	}
}

func TestMergeCustomOutputPath(t *testing.T) {
	cfg := newTestConfig(t)
	cfg.Merge.Repos = []string{"korean-practice-agata"}
	fetcher := &scriptedFetcher{docs: map[string]*vocab.Document{
		"korean-practice-agata": {Action: &vocab.Action{Objects: []vocab.Item{{"kr": "책"}}}},
	}}
	out := filepath.Join(t.TempDir(), "merged", "vocab.json")

	res, err := Merge(context.Background(), MergeRequest{Config: cfg, Fetcher: fetcher, OutputPath: out})
	if err != nil {
		t.Fatalf("Merge returned error: %v", err)
	}
	if res.OutputPath != out {
		t.Fatalf("OutputPath = %q, want %q", res.OutputPath, out)
	}
	if _, err := os.Stat(out); err != nil {
		t.Fatalf("merged document missing: %v", err)
	}
	if _, err := os.Stat(cfg.VocabPath()); !errors.Is(err, os.ErrNotExist) {
		t.Fatal("configured vocabulary path must stay untouched")
	}
}

func TestMergeAllReposFailIsFatal(t *testing.T) {
	cfg := newTestConfig(t)
	cfg.Merge.Repos = []string{"korean-practice-a", "korean-practice-b"}

	_, err := Merge(context.Background(), MergeRequest{Config: cfg, Fetcher: &scriptedFetcher{}})
	if err == nil {
		t.Fatal("expected error when every repo fails")
	}
	runs := recentRuns(t, cfg, 1)
	if len(runs) != 1 || runs[0].Error == "" {
		t.Fatalf("expected a recorded failure, got %+v", runs)
	}
}

func TestMergeNoReposConfigured(t *testing.T) {
	cfg := newTestConfig(t)

	_, err := Merge(context.Background(), MergeRequest{Config: cfg, Fetcher: &scriptedFetcher{}})
	if !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("err = %v, want configuration error", err)
	}
}

func TestMergeRequiresConfig(t *testing.T) {
	if _, err := Merge(context.Background(), MergeRequest{}); err == nil {
		t.Fatal("expected error for missing config")
	}
}
