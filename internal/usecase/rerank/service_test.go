package rerank

import (
	"context"
	"errors"
	"testing"

	"github.com/kailas-cloud/docdex/internal/domain"
)

type mockScorer struct {
	scores []float64
	err    error

	gotQuery string
	gotDocs  []string
	calls    int
}

func (m *mockScorer) Score(_ context.Context, query string, documents []string) ([]float64, error) {
	m.calls++
	m.gotQuery = query
	m.gotDocs = documents
	if m.err != nil {
		return nil, m.err
	}
	return m.scores, nil
}

func candidates(texts ...string) []domain.ScoredChunk {
	out := make([]domain.ScoredChunk, len(texts))
	for i, t := range texts {
		out[i] = domain.ScoredChunk{Chunk: domain.Chunk{DocumentID: "doc.pdf", Index: i, Text: t}}
	}
	return out
}

func TestRerank_OrdersByScoreDescending(t *testing.T) {
	scorer := &mockScorer{scores: []float64{0.1, 0.9, 0.5}}
	svc := New(scorer)

	got, err := svc.Rerank(context.Background(), "query", candidates("a", "b", "c"), 3)
	if err != nil {
		t.Fatalf("Rerank() error = %v", err)
	}

	wantOrder := []string{"b", "c", "a"}
	if len(got) != len(wantOrder) {
		t.Fatalf("Rerank() returned %d chunks, want %d", len(got), len(wantOrder))
	}
	for i, want := range wantOrder {
		if got[i].Chunk.Text != want {
			t.Errorf("result[%d].Text = %q, want %q", i, got[i].Chunk.Text, want)
		}
	}
	if got[0].Score != 0.9 {
		t.Errorf("result[0].Score = %v, want 0.9", got[0].Score)
	}
}

func TestRerank_EqualScoresKeepRetrievalOrder(t *testing.T) {
	scorer := &mockScorer{scores: []float64{0.5, 0.5, 0.5}}
	svc := New(scorer)

	got, err := svc.Rerank(context.Background(), "query", candidates("first", "second", "third"), 3)
	if err != nil {
		t.Fatalf("Rerank() error = %v", err)
	}

	wantOrder := []string{"first", "second", "third"}
	for i, want := range wantOrder {
		if got[i].Chunk.Text != want {
			t.Errorf("result[%d].Text = %q, want %q", i, got[i].Chunk.Text, want)
		}
	}
}

func TestRerank_TopKCapsAtCandidateCount(t *testing.T) {
	scorer := &mockScorer{scores: []float64{0.2, 0.8}}
	svc := New(scorer)

	got, err := svc.Rerank(context.Background(), "query", candidates("a", "b"), 6)
	if err != nil {
		t.Fatalf("Rerank() error = %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("Rerank() returned %d chunks, want 2", len(got))
	}
}

func TestRerank_TopKTruncates(t *testing.T) {
	scorer := &mockScorer{scores: []float64{0.3, 0.9, 0.6, 0.1}}
	svc := New(scorer)

	got, err := svc.Rerank(context.Background(), "query", candidates("a", "b", "c", "d"), 2)
	if err != nil {
		t.Fatalf("Rerank() error = %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("Rerank() returned %d chunks, want 2", len(got))
	}
	if got[0].Chunk.Text != "b" || got[1].Chunk.Text != "c" {
		t.Errorf("top-2 = [%q, %q], want [b, c]", got[0].Chunk.Text, got[1].Chunk.Text)
	}
}

func TestRerank_EmptyCandidates(t *testing.T) {
	scorer := &mockScorer{}
	svc := New(scorer)

	got, err := svc.Rerank(context.Background(), "query", nil, 6)
	if err != nil {
		t.Fatalf("Rerank() error = %v", err)
	}
	if got != nil {
		t.Errorf("Rerank() = %v, want nil", got)
	}
	if scorer.calls != 0 {
		t.Errorf("scorer called %d times, want 0", scorer.calls)
	}
}

func TestRerank_ScorerError(t *testing.T) {
	scoreErr := errors.New("rerank service unavailable")
	scorer := &mockScorer{err: scoreErr}
	svc := New(scorer)

	_, err := svc.Rerank(context.Background(), "query", candidates("a"), 1)
	if !errors.Is(err, scoreErr) {
		t.Fatalf("Rerank() error = %v, want wrapping %v", err, scoreErr)
	}
}

func TestRerank_PassesQueryAndTexts(t *testing.T) {
	scorer := &mockScorer{scores: []float64{0.1, 0.2}}
	svc := New(scorer)

	_, err := svc.Rerank(context.Background(), "what is raft?", candidates("x", "y"), 2)
	if err != nil {
		t.Fatalf("Rerank() error = %v", err)
	}
	if scorer.gotQuery != "what is raft?" {
		t.Errorf("scorer query = %q, want %q", scorer.gotQuery, "what is raft?")
	}
	if len(scorer.gotDocs) != 2 || scorer.gotDocs[0] != "x" || scorer.gotDocs[1] != "y" {
		t.Errorf("scorer documents = %v, want [x y]", scorer.gotDocs)
	}
}
