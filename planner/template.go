package planner

import (
	"fmt"
	"strings"
	"sync"

	"github.com/pkoukk/tiktoken-go"

	"github.com/secondbrain/engine/contracts"
)

// defaultMaxCandidateChars is MAX_CANDIDATE_CHARS from the synthesis
// contract: the budget each candidate's content is truncated to before it
// is woven into a deterministic template response.
const defaultMaxCandidateChars = 2000

// candidateTruncator token-accurately truncates candidate content, grounded
// on the teacher's tiktoken tokenizer wrapper: lazily initialized, shared
// across calls, falling back to a rune-length cutoff if the encoding can't
// be loaded rather than failing the response.
type candidateTruncator struct {
	maxChars int
	once     sync.Once
	enc      *tiktoken.Tiktoken
}

func newCandidateTruncator(maxChars int) *candidateTruncator {
	if maxChars <= 0 {
		maxChars = defaultMaxCandidateChars
	}
	return &candidateTruncator{maxChars: maxChars}
}

func (c *candidateTruncator) init() {
	c.once.Do(func() {
		enc, err := tiktoken.GetEncoding("cl100k_base")
		if err == nil {
			c.enc = enc
		}
	})
}

// truncate bounds text to roughly maxChars characters' worth of tokens. If
// the tokenizer failed to initialize, it falls back to a plain rune-length
// cutoff so candidate formatting never blocks on tokenizer availability.
func (c *candidateTruncator) truncate(text string) string {
	c.init()
	if c.enc == nil {
		return truncateRunes(text, c.maxChars)
	}

	tokens := c.enc.Encode(text, nil, nil)
	// Roughly 4 chars/token for English text; convert the char budget into
	// a token budget before decoding back, rather than decoding the whole
	// text and cutting on runes (which can split multi-byte tokens).
	tokenBudget := c.maxChars / 4
	if tokenBudget <= 0 || len(tokens) <= tokenBudget {
		return text
	}
	return c.enc.Decode(tokens[:tokenBudget]) + "..."
}

func truncateRunes(text string, max int) string {
	runes := []rune(text)
	if len(runes) <= max {
		return text
	}
	return string(runes[:max]) + "..."
}

// deterministicProceed formats the proceed branch's fallback template when
// no LLMPort is configured or the LLM call failed.
func deterministicProceed(candidates []contracts.Candidate, topConfidence float64, truncator *candidateTruncator) string {
	n := len(candidates)
	if n > 3 {
		n = 3
	}
	var b strings.Builder
	fmt.Fprintf(&b, "Based on %d retrieved context(s) (top confidence %.2f):", len(candidates), topConfidence)
	for i := 0; i < n; i++ {
		fmt.Fprintf(&b, " [%d] %s", i+1, truncator.truncate(candidates[i].Content))
	}
	return b.String()
}

func lowConfidenceResponse(candidates []contracts.Candidate, truncator *candidateTruncator) string {
	n := len(candidates)
	if n > 3 {
		n = 3
	}
	var b strings.Builder
	b.WriteString("I found some possibly related notes, but confidence is low:")
	for i := 0; i < n; i++ {
		fmt.Fprintf(&b, " [%d] %s", i+1, truncator.truncate(candidates[i].Content))
	}
	b.WriteString(" Could you clarify or rephrase your question?")
	return b.String()
}

const emptyResponse = "I couldn't find anything in your notes related to that. Try rephrasing, or add more detail to your question."

func errorResponse(providersAttempted []string, sanitizedReasons []string) string {
	var b strings.Builder
	b.WriteString("I ran into trouble retrieving context")
	if len(providersAttempted) > 0 {
		fmt.Fprintf(&b, " from: %s", strings.Join(providersAttempted, ", "))
	}
	if len(sanitizedReasons) > 0 {
		fmt.Fprintf(&b, " (%s)", strings.Join(sanitizedReasons, "; "))
	}
	b.WriteString(". Please try again shortly.")
	return b.String()
}

const escalateResponse = "I'm not confident enough in what I found to answer directly. I can re-run this in accurate mode, or you can escalate to a human channel if this is urgent."
