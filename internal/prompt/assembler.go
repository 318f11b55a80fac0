package prompt

import (
	"fmt"
	"strings"

	"github.com/valuenable/veena/internal/conversation"
	"github.com/valuenable/veena/internal/knowledge"
)

const (
	// maxKnowledgeEntries bounds the knowledge block of a prompt.
	maxKnowledgeEntries = 5
	// maxHistoryTurns bounds the conversation context window.
	maxHistoryTurns = 6
)

// Payload is a fully assembled generation request.
type Payload struct {
	System string
	User   string
}

// Assemble merges ranked knowledge entries and recent conversation turns
// with the user's question into a [Payload] under the current persona
// snapshot.
//
// Entries are deduplicated by ID keeping the first occurrence, then capped
// at five. History is capped at the last six turns, rendered oldest first.
// Empty knowledge or history simply produce empty blocks.
func (p *Persona) Assemble(query string, entries []knowledge.Entry, history []conversation.Turn) Payload {
	return Payload{
		System: p.Current().System(),
		User:   userPrompt(query, knowledgeBlock(entries), historyBlock(history)),
	}
}

// knowledgeBlock renders deduplicated entries as Q/A pairs separated by
// blank lines.
func knowledgeBlock(entries []knowledge.Entry) string {
	seen := make(map[int]struct{}, len(entries))
	var pairs []string
	for _, e := range entries {
		if _, dup := seen[e.ID]; dup {
			continue
		}
		seen[e.ID] = struct{}{}
		pairs = append(pairs, fmt.Sprintf("Q: %s\nA: %s", e.Question, e.Answer))
		if len(pairs) >= maxKnowledgeEntries {
			break
		}
	}
	return strings.Join(pairs, "\n\n")
}

// historyBlock renders the last turns as "{type}: {content}" lines, oldest
// first.
func historyBlock(history []conversation.Turn) string {
	if len(history) > maxHistoryTurns {
		history = history[len(history)-maxHistoryTurns:]
	}
	lines := make([]string, len(history))
	for i, t := range history {
		lines[i] = fmt.Sprintf("%s: %s", t.Type, t.Content)
	}
	return strings.Join(lines, "\n")
}

func userPrompt(query, knowledgeText, context string) string {
	return fmt.Sprintf(`You are Veena, an insurance agent for ValuEnable Life Insurance. Use the following knowledge base information to answer the user's question:

KNOWLEDGE BASE:
%s

CONVERSATION CONTEXT:
%s

USER QUESTION: "%s"

IMPORTANT INSTRUCTIONS:
- If the user asks about premium payments, policy details, or insurance information, ALWAYS use the specific information from the knowledge base above
- For policy queries, refer to the actual policy details: Premium Amount: ₹100,000 yearly, Sum Assured: ₹10,00,000, Premium paid till date: ₹4,00,000
- If the user asks about premiums paid, tell them the exact amount from the knowledge base
- Always be helpful and use the available policy information rather than saying you don't have access to it
- Follow the conversation flow and keep responses under 35 words
- End with a question to keep the conversation flowing

Respond as Veena with the specific information available in the knowledge base.`, knowledgeText, context, query)
}
