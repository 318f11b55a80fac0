package prompt

import (
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/valuenable/veena/internal/conversation"
	"github.com/valuenable/veena/internal/knowledge"
)

func TestSnapshotSystemWithoutInsights(t *testing.T) {
	t.Parallel()

	p := NewPersona()
	sys := p.Current().System()
	if !strings.Contains(sys, `You are "Veena,"`) {
		t.Error("system prompt missing persona introduction")
	}
	if strings.Contains(sys, "TRAINING INSIGHTS") {
		t.Error("system prompt carries insights section before any update")
	}
}

func TestUpdateInsightsSwapsSnapshot(t *testing.T) {
	t.Parallel()

	p := NewPersona()
	before := p.Current()

	p.UpdateInsights("Customers respond well to payment link offers.")

	after := p.Current()
	if before == after {
		t.Fatal("snapshot pointer not replaced")
	}
	if !strings.HasSuffix(after.System(), "TRAINING INSIGHTS:\nCustomers respond well to payment link offers.") {
		t.Errorf("insights not appended: %q", after.System())
	}
	// The old snapshot is untouched.
	if strings.Contains(before.System(), "TRAINING INSIGHTS") {
		t.Error("previous snapshot mutated")
	}
}

func TestUpdateInsightsConcurrentReaders(t *testing.T) {
	t.Parallel()

	p := NewPersona()
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			p.UpdateInsights(fmt.Sprintf("insight %d", n))
			_ = p.Current().System()
		}(i)
	}
	wg.Wait()

	if !strings.Contains(p.Current().System(), "TRAINING INSIGHTS:") {
		t.Error("no insights present after updates")
	}
}

func TestAssembleKnowledgeBlock(t *testing.T) {
	t.Parallel()

	entries := []knowledge.Entry{
		{ID: 1, Question: "What is the premium?", Answer: "₹100,000 yearly."},
		{ID: 2, Question: "How to pay?", Answer: "Online, cheque, or cash."},
		{ID: 1, Question: "What is the premium?", Answer: "duplicate entry"},
	}

	payload := NewPersona().Assemble("how do I pay", entries, nil)

	want := "Q: What is the premium?\nA: ₹100,000 yearly.\n\nQ: How to pay?\nA: Online, cheque, or cash."
	if !strings.Contains(payload.User, want) {
		t.Errorf("knowledge block missing or wrong:\n%s", payload.User)
	}
	if strings.Contains(payload.User, "duplicate entry") {
		t.Error("duplicate ID not removed")
	}
}

func TestAssembleCapsKnowledgeAtFive(t *testing.T) {
	t.Parallel()

	var entries []knowledge.Entry
	for i := 1; i <= 8; i++ {
		entries = append(entries, knowledge.Entry{
			ID:       i,
			Question: fmt.Sprintf("question %d", i),
			Answer:   fmt.Sprintf("answer %d", i),
		})
	}

	payload := NewPersona().Assemble("anything", entries, nil)
	if got := strings.Count(payload.User, "\nA: "); got != 5 {
		t.Errorf("got %d Q/A pairs, want 5", got)
	}
	if strings.Contains(payload.User, "question 6") {
		t.Error("entry beyond the cap included")
	}
}

func TestAssembleHistoryWindow(t *testing.T) {
	t.Parallel()

	var history []conversation.Turn
	for i := 0; i < 10; i++ {
		typ := conversation.TurnUser
		if i%2 == 1 {
			typ = conversation.TurnAI
		}
		history = append(history, conversation.Turn{Type: typ, Content: fmt.Sprintf("message %d", i)})
	}

	payload := NewPersona().Assemble("anything", nil, history)

	if strings.Contains(payload.User, "message 3") {
		t.Error("turn outside the six-turn window included")
	}
	for i := 4; i < 10; i++ {
		if !strings.Contains(payload.User, fmt.Sprintf("message %d", i)) {
			t.Errorf("turn %d missing from context", i)
		}
	}
	// Oldest first.
	if strings.Index(payload.User, "message 4") > strings.Index(payload.User, "message 9") {
		t.Error("history not rendered oldest first")
	}
	if !strings.Contains(payload.User, "user: message 4") || !strings.Contains(payload.User, "ai: message 5") {
		t.Errorf("turns not rendered as type-prefixed lines:\n%s", payload.User)
	}
}

func TestAssembleEmptyBlocks(t *testing.T) {
	t.Parallel()

	payload := NewPersona().Assemble("What is my premium?", nil, nil)

	if !strings.Contains(payload.User, "KNOWLEDGE BASE:\n\n") {
		t.Error("empty knowledge block malformed")
	}
	if !strings.Contains(payload.User, `USER QUESTION: "What is my premium?"`) {
		t.Error("user question missing")
	}
	if payload.System == "" {
		t.Error("system prompt empty")
	}
}
