package training

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/antzucaro/matchr"

	"github.com/valuenable/veena/internal/prompt"
	"github.com/valuenable/veena/internal/transcript"
	"github.com/valuenable/veena/pkg/provider/llm"
)

const (
	// maxInsightItems caps each list in the generated insights block.
	maxInsightItems = 10

	// defaultSimilarity is the normalized Levenshtein similarity above
	// which two customer questions count as duplicates.
	defaultSimilarity = 0.85
)

// Service processes uploaded transcripts and feeds the distilled insights
// into the live persona.
type Service struct {
	store   Store
	model   llm.Provider
	persona *prompt.Persona

	similarity float64
	llmTimeout time.Duration
}

// Option is a functional option for [New].
type Option func(*Service)

// WithSimilarityThreshold overrides the near-duplicate question threshold.
// Values are normalized Levenshtein similarity in (0, 1]; default 0.85.
func WithSimilarityThreshold(t float64) Option {
	return func(s *Service) { s.similarity = t }
}

// WithLLMTimeout bounds each analysis completion call. Defaults to 2 minutes;
// full call transcripts are long and extraction is slow.
func WithLLMTimeout(d time.Duration) Option {
	return func(s *Service) { s.llmTimeout = d }
}

// New creates a training [Service].
func New(store Store, model llm.Provider, persona *prompt.Persona, opts ...Option) *Service {
	s := &Service{
		store:      store,
		model:      model,
		persona:    persona,
		similarity: defaultSimilarity,
		llmTimeout: 2 * time.Minute,
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Submit stores a new call transcript after light cleanup that preserves the
// conversation's back-and-forth. The filename identifies the source
// recording. An effectively empty transcript is rejected.
func (s *Service) Submit(ctx context.Context, filename, raw string) (Transcript, error) {
	content := transcript.PreserveFlow(raw)
	if strings.TrimSpace(content) == "" {
		return Transcript{}, fmt.Errorf("training: submit %q: empty transcript", filename)
	}

	t, err := s.store.Add(ctx, Transcript{
		Filename: filename,
		Content:  content,
		Status:   StatusCompleted,
	})
	if err != nil {
		return Transcript{}, fmt.Errorf("training: submit %q: %w", filename, err)
	}
	return t, nil
}

// Analyze runs the extraction prompt over one stored transcript and scores
// the result.
func (s *Service) Analyze(ctx context.Context, id int) (*Report, error) {
	t, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("training: analyze %d: %w", id, err)
	}
	return s.analyzeTranscript(ctx, t)
}

// ProcessAll analyzes every completed transcript. Transcripts whose analysis
// fails are logged and skipped rather than failing the batch.
func (s *Service) ProcessAll(ctx context.Context) ([]Report, error) {
	transcripts, err := s.store.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("training: process all: %w", err)
	}

	var reports []Report
	for _, t := range transcripts {
		if t.Status != StatusCompleted || t.Content == "" {
			continue
		}
		r, err := s.analyzeTranscript(ctx, t)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			slog.Warn("training: skipping transcript", "id", t.ID, "filename", t.Filename, "err", err)
			continue
		}
		reports = append(reports, *r)
		slog.Info("training: processed transcript", "filename", t.Filename, "quality", r.QualityScore)
	}
	return reports, nil
}

// Refresh re-analyzes all transcripts, rebuilds the insights block, and
// swaps it into the persona. Returns the applied insights, or the empty
// string when no usable transcript exists (the persona is left unchanged).
func (s *Service) Refresh(ctx context.Context) (string, error) {
	reports, err := s.ProcessAll(ctx)
	if err != nil {
		return "", err
	}

	insights := s.buildInsights(reports)
	if insights == "" {
		slog.Info("training: no usable training data, persona unchanged")
		return "", nil
	}
	s.persona.UpdateInsights(insights)
	slog.Info("training: persona updated with training insights",
		"reports", len(reports))
	return insights, nil
}

func (s *Service) analyzeTranscript(ctx context.Context, t Transcript) (*Report, error) {
	actx, cancel := context.WithTimeout(ctx, s.llmTimeout)
	defer cancel()

	a, err := analyze(actx, s.model, t.Content)
	if err != nil {
		return nil, err
	}

	return &Report{
		TranscriptID: t.ID,
		Filename:     t.Filename,
		Analysis:     a,
		QualityScore: qualityScore(a, t.Content),
		Usable:       usableForTraining(a, t.Content),
		ProcessedAt:  time.Now(),
	}, nil
}

// buildInsights renders the usable reports into the insights block appended
// to the persona system prompt. Near-duplicate customer questions are folded
// together before the cap is applied.
func (s *Service) buildInsights(reports []Report) string {
	var usable []Report
	for _, r := range reports {
		if r.Usable {
			usable = append(usable, r)
		}
	}
	if len(usable) == 0 {
		return ""
	}

	var questions, responses, insights []string
	scoreTotal := 0
	for _, r := range usable {
		questions = append(questions, r.Analysis.CustomerQuestions...)
		responses = append(responses, r.Analysis.AgentResponses...)
		insights = append(insights, r.Analysis.KeyInsights...)
		scoreTotal += r.QualityScore
	}
	questions = s.dedupeSimilar(questions)

	var b strings.Builder
	b.WriteString("TRAINING DATA INSIGHTS FOR VEENA AI ASSISTANT:\n\n")
	b.WriteString("COMMON CUSTOMER QUESTIONS:\n")
	writeNumbered(&b, questions)
	b.WriteString("\nEFFECTIVE AGENT RESPONSES:\n")
	writeNumbered(&b, responses)
	b.WriteString("\nKEY INSIGHTS:\n")
	writeNumbered(&b, insights)
	fmt.Fprintf(&b, "\nTRAINING SUMMARY:\n")
	fmt.Fprintf(&b, "- Analyzed %d training calls\n", len(usable))
	fmt.Fprintf(&b, "- Average quality score: %d%%\n", scoreTotal/len(usable))
	b.WriteString("- Generated training insights for improved customer interactions\n\n")
	b.WriteString("Use these insights to provide more natural, empathetic, and effective responses to customers.")
	return b.String()
}

// dedupeSimilar keeps the first of each cluster of near-duplicate questions,
// measured by Levenshtein distance normalized over the longer string.
func (s *Service) dedupeSimilar(items []string) []string {
	var kept []string
	for _, candidate := range items {
		duplicate := false
		for _, k := range kept {
			if similarity(candidate, k) >= s.similarity {
				duplicate = true
				break
			}
		}
		if !duplicate {
			kept = append(kept, candidate)
		}
	}
	return kept
}

func similarity(a, b string) float64 {
	a = strings.ToLower(strings.TrimSpace(a))
	b = strings.ToLower(strings.TrimSpace(b))
	if a == b {
		return 1
	}
	longest := max(len([]rune(a)), len([]rune(b)))
	if longest == 0 {
		return 1
	}
	dist := matchr.Levenshtein(a, b)
	return 1 - float64(dist)/float64(longest)
}

func writeNumbered(b *strings.Builder, items []string) {
	if len(items) > maxInsightItems {
		items = items[:maxInsightItems]
	}
	for i, item := range items {
		fmt.Fprintf(b, "%d. %s\n", i+1, item)
	}
}
