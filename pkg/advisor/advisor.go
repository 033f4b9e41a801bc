// Package advisor generates short narrative portfolio advice with Gemini.
// It is a read-only consumer of ledger aggregates: any failure degrades to a
// fixed apology string and never affects the ledger.
package advisor

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"
	"google.golang.org/genai"

	"github.com/ferrazfsfs-collab/emprestimo/pkg/ledger"
)

const defaultModel = "gemini-2.5-flash"

// FallbackMessage is returned whenever the analysis cannot be produced.
const FallbackMessage = "The portfolio analysis is unavailable right now. Please try again later."

// Advisor asks Gemini for practical advice on the loan portfolio.
type Advisor struct {
	client *genai.Client
	model  string
	log    *zap.Logger
}

// New creates an Advisor. A nil client is allowed and makes every analysis
// return FallbackMessage, so the rest of the application runs without an
// API key.
func New(client *genai.Client, log *zap.Logger) *Advisor {
	if log == nil {
		log = zap.NewNop()
	}
	return &Advisor{client: client, model: defaultModel, log: log}
}

// AnalyzePortfolio returns free-text advice for the given portfolio
// statistics. It never returns an error; failures degrade to
// FallbackMessage.
func (a *Advisor) AnalyzePortfolio(ctx context.Context, stats ledger.PortfolioStats) string {
	if a.client == nil {
		return FallbackMessage
	}

	chat, err := a.client.Chats.Create(ctx, a.model, nil, nil)
	if err != nil {
		a.log.Warn("advisor chat creation failed", zap.Error(err))
		return FallbackMessage
	}

	resp, err := chat.Send(ctx, &genai.Part{Text: buildPrompt(stats)})
	if err != nil {
		a.log.Warn("advisor request failed", zap.Error(err))
		return FallbackMessage
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil || len(resp.Candidates[0].Content.Parts) == 0 {
		a.log.Warn("advisor returned an empty response")
		return FallbackMessage
	}
	return resp.Candidates[0].Content.Parts[0].Text
}

func buildPrompt(stats ledger.PortfolioStats) string {
	var b strings.Builder
	b.WriteString("As a financial consultant specialized in microcredit, analyze this loan portfolio and give the manager 3 short, practical tips:\n")
	fmt.Fprintf(&b, "- Total loans: %d\n", stats.Total)
	fmt.Fprintf(&b, "- Pending: %d\n", stats.Pending)
	fmt.Fprintf(&b, "- Late: %d\n", stats.Late)
	fmt.Fprintf(&b, "- Paid: %d\n", stats.Paid)
	fmt.Fprintf(&b, "- Outstanding amount: %s\n", stats.Outstanding.StringFixed(2))
	fmt.Fprintf(&b, "- Delinquency rate: %.1f%%\n", stats.DelinquencyRate())
	b.WriteString("\nAnswer in a motivating and professional tone.")
	return b.String()
}
