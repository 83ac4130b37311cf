package pipeline

import (
	"context"
	"errors"
	"strings"

	"DocChat/backend/go/internal/rag_service/rag/errs"
	"DocChat/backend/go/internal/rag_service/rag/interfaces"
	"DocChat/backend/go/internal/rag_service/rag/schema"
	"DocChat/backend/go/pkg/logger"
)

// ContextSeparator separates chunk texts in the prompt's context block.
const ContextSeparator = "\n\n---\n\n"

// QAPipeline is responsible for generating an answer based on a query and retrieved chunks.
type QAPipeline struct {
	llm      interfaces.LLM
	fallback string
	log      *logger.Logger
}

// NewQAPipeline creates a new QAPipeline. fallback is the exact sentence the model must
// reply with when the context does not answer the question.
func NewQAPipeline(llm interfaces.LLM, fallback string, log *logger.Logger) *QAPipeline {
	return &QAPipeline{llm: llm, fallback: fallback, log: log}
}

// Run builds the grounded prompt and calls the model once, even when rc is empty, so the
// model decides the fallback the same way for empty and irrelevant context.
func (p *QAPipeline) Run(ctx context.Context, query string, rc schema.RetrievedContext) (string, error) {
	prompt := p.buildPrompt(query, rc)

	p.log.WithField("chunks", len(rc)).Debug("sending prompt to LLM")
	answer, err := p.llm.Generate(ctx, prompt)
	if err != nil {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		return "", errs.E(errs.KindGeneration, "answer", err)
	}

	answer = strings.TrimSpace(answer)
	if answer == "" {
		return "", errs.E(errs.KindGeneration, "answer", errors.New("model returned an empty answer"))
	}
	return answer, nil
}

// buildPrompt constructs the instruction prompt from a query and its retrieved context.
func (p *QAPipeline) buildPrompt(query string, rc schema.RetrievedContext) string {
	var sb strings.Builder

	sb.WriteString("You answer questions about the user's documents.\n")
	sb.WriteString("Use only the information in the context below. Do not use prior knowledge and do not make anything up.\n")
	sb.WriteString("If the context does not contain the answer, reply with exactly this sentence and nothing else:\n")
	sb.WriteString(p.fallback)
	sb.WriteString("\n\nContext:\n")
	sb.WriteString(strings.Join(rc.Texts(), ContextSeparator))
	sb.WriteString("\n\nQuestion: ")
	sb.WriteString(strings.TrimSpace(query))
	sb.WriteString("\nAnswer:")

	return sb.String()
}
