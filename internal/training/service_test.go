package training

import (
	"context"
	"strings"
	"testing"

	"github.com/valuenable/veena/internal/prompt"
	"github.com/valuenable/veena/pkg/provider/llm"
	llmmock "github.com/valuenable/veena/pkg/provider/llm/mock"
)

const sampleTranscript = `Agent: Hello sir, this is Veena from ValuEnable Life Insurance.
Customer: Hello, why do I need to pay the premium again?
Agent: Your premium of one lakh rupees keeps the policy active and protects your family.
Customer: Can I pay online?
Agent: Yes sir, you can pay via net banking or UPI. Thank you for your time.`

const sampleAnalysisJSON = `{
  "customerQuestions": ["Why do I need to pay the premium again?", "Can I pay online?"],
  "agentResponses": ["Explained the premium keeps the policy active", "Offered net banking and UPI"],
  "conversationFlow": ["greeting", "premium objection", "payment discussion", "closure"],
  "keyInsights": ["Customer responds well to family protection framing"],
  "suggestedImprovements": ["Offer the payment link earlier"]
}`

func newTestService(t *testing.T) (*Service, *llmmock.Provider, *prompt.Persona) {
	t.Helper()
	model := &llmmock.Provider{
		Response: &llm.Response{Text: sampleAnalysisJSON, FinishReason: "stop"},
	}
	persona := prompt.NewPersona()
	svc := New(NewMemStore(), model, persona)
	return svc, model, persona
}

func TestSubmit(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	tr, err := svc.Submit(ctx, "call-001.wav", sampleTranscript)
	if err != nil {
		t.Fatalf("Submit() error = %v", err)
	}
	if tr.ID == 0 {
		t.Error("ID not assigned")
	}
	if tr.Status != StatusCompleted {
		t.Errorf("Status = %q, want %q", tr.Status, StatusCompleted)
	}
	if !strings.Contains(tr.Content, "Why do I need to pay the premium again?") {
		t.Errorf("Content lost conversation lines: %q", tr.Content)
	}

	if _, err := svc.Submit(ctx, "empty.wav", "   \n  "); err == nil {
		t.Error("Submit() accepted an empty transcript")
	}
}

func TestAnalyzeUsesJSONMode(t *testing.T) {
	svc, model, _ := newTestService(t)
	ctx := context.Background()

	tr, err := svc.Submit(ctx, "call-001.wav", sampleTranscript)
	if err != nil {
		t.Fatalf("Submit() error = %v", err)
	}
	report, err := svc.Analyze(ctx, tr.ID)
	if err != nil {
		t.Fatalf("Analyze() error = %v", err)
	}

	if len(model.Calls) != 1 {
		t.Fatalf("len(Calls) = %d, want 1", len(model.Calls))
	}
	req := model.Calls[0].Req
	if !req.ForceJSON {
		t.Error("analysis request did not force JSON mode")
	}
	if req.Temperature != 0.3 {
		t.Errorf("Temperature = %v, want 0.3", req.Temperature)
	}
	if !strings.Contains(req.User, "FULL TRANSCRIPTION:") || !strings.Contains(req.User, "Can I pay online?") {
		t.Error("analysis prompt missing the transcript")
	}
	if !strings.Contains(req.System, "insurance training analyst") {
		t.Error("analysis system prompt missing analyst role")
	}

	if len(report.Analysis.CustomerQuestions) != 2 {
		t.Errorf("CustomerQuestions = %v", report.Analysis.CustomerQuestions)
	}
	if !report.Usable {
		t.Error("Usable = false for a valid transcript")
	}
	if report.QualityScore <= 0 {
		t.Errorf("QualityScore = %d, want > 0", report.QualityScore)
	}
}

func TestAnalyzeUnknownTranscript(t *testing.T) {
	svc, _, _ := newTestService(t)
	if _, err := svc.Analyze(context.Background(), 99); err == nil {
		t.Error("Analyze() error = nil for unknown ID")
	}
}

func TestProcessAllSkipsFailures(t *testing.T) {
	svc, model, _ := newTestService(t)
	ctx := context.Background()

	if _, err := svc.Submit(ctx, "good.wav", sampleTranscript); err != nil {
		t.Fatalf("Submit() error = %v", err)
	}
	// A completion that is not valid JSON fails analysis for every entry.
	model.Response = &llm.Response{Text: "not json", FinishReason: "stop"}

	reports, err := svc.ProcessAll(ctx)
	if err != nil {
		t.Fatalf("ProcessAll() error = %v", err)
	}
	if len(reports) != 0 {
		t.Errorf("len(reports) = %d, want 0", len(reports))
	}
}

func TestRefreshUpdatesPersona(t *testing.T) {
	svc, _, persona := newTestService(t)
	ctx := context.Background()

	before := persona.Current().System()
	if strings.Contains(before, "TRAINING INSIGHTS") {
		t.Fatal("persona already carries insights")
	}

	if _, err := svc.Submit(ctx, "call-001.wav", sampleTranscript); err != nil {
		t.Fatalf("Submit() error = %v", err)
	}
	insights, err := svc.Refresh(ctx)
	if err != nil {
		t.Fatalf("Refresh() error = %v", err)
	}
	if !strings.Contains(insights, "COMMON CUSTOMER QUESTIONS:") {
		t.Errorf("insights = %q", insights)
	}
	if !strings.Contains(insights, "Analyzed 1 training calls") {
		t.Errorf("insights missing summary: %q", insights)
	}

	after := persona.Current().System()
	if !strings.Contains(after, "TRAINING INSIGHTS") {
		t.Error("persona system prompt missing insights block")
	}
	if !strings.Contains(after, "Why do I need to pay the premium again?") {
		t.Error("persona system prompt missing extracted question")
	}
}

func TestRefreshWithoutUsableData(t *testing.T) {
	svc, _, persona := newTestService(t)

	insights, err := svc.Refresh(context.Background())
	if err != nil {
		t.Fatalf("Refresh() error = %v", err)
	}
	if insights != "" {
		t.Errorf("insights = %q, want empty", insights)
	}
	if strings.Contains(persona.Current().System(), "TRAINING INSIGHTS") {
		t.Error("persona updated despite no usable data")
	}
}

func TestDedupeSimilarQuestions(t *testing.T) {
	svc, _, _ := newTestService(t)

	got := svc.dedupeSimilar([]string{
		"Why do I need to pay the premium?",
		"Why do I need to pay the premium??",
		"why do i need to pay the premium?",
		"How do I file a claim?",
	})
	if len(got) != 2 {
		t.Fatalf("dedupeSimilar() = %v, want 2 entries", got)
	}
	if got[0] != "Why do I need to pay the premium?" || got[1] != "How do I file a claim?" {
		t.Errorf("dedupeSimilar() = %v", got)
	}
}
