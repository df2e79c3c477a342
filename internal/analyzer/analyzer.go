// Package analyzer runs one upload-and-question cycle: ingest the CSV,
// compose the prompt, ask the completion endpoint. It holds no state between
// calls, so each call is a full re-run.
package analyzer

import (
	"context"
	"fmt"
	"io"

	"github.com/apex/log"

	"github.com/KaramelBytes/csvask/internal/ai"
	"github.com/KaramelBytes/csvask/internal/prompt"
	"github.com/KaramelBytes/csvask/internal/table"
	"github.com/KaramelBytes/csvask/internal/utils"
)

// Fault classifies how a run ended.
type Fault int

const (
	FaultNone Fault = iota
	// FaultIngest means the upload could not be parsed.
	FaultIngest
	// FaultCompletion means the completion endpoint call failed.
	FaultCompletion
)

func (f Fault) String() string {
	switch f {
	case FaultNone:
		return "none"
	case FaultIngest:
		return "ingest"
	case FaultCompletion:
		return "completion"
	default:
		return fmt.Sprintf("fault(%d)", int(f))
	}
}

// CompletionBanner prefixes every completion fault shown to a user.
const CompletionBanner = "Error communicating with Azure OpenAI"

// Outcome is the result of one run. Exactly one of Answer and Err is set
// once a question has been asked.
type Outcome struct {
	Table    *table.Table
	Question string
	Prompt   string
	Answer   string
	Usage    ai.Usage
	Fault    Fault
	Err      error
}

// Asked reports whether the run reached the completion step.
func (o *Outcome) Asked() bool { return o.Prompt != "" }

// ErrorMessage returns the user-facing error text, or "" when the run succeeded.
func (o *Outcome) ErrorMessage() string {
	switch o.Fault {
	case FaultCompletion:
		return fmt.Sprintf("%s: %v", CompletionBanner, o.Err)
	case FaultIngest:
		return o.Err.Error()
	default:
		return ""
	}
}

// Service wires the table ingester, prompt composer, and completion client.
type Service struct {
	completer ai.Completer
	model     string
	logger    log.Interface
}

// Option customizes a Service.
type Option func(*Service)

// WithModel names the model used for context-window diagnostics.
func WithModel(model string) Option {
	return func(s *Service) { s.model = model }
}

// WithLogger replaces the default apex logger.
func WithLogger(l log.Interface) Option {
	return func(s *Service) { s.logger = l }
}

// New returns a Service that sends questions to c.
func New(c ai.Completer, opts ...Option) *Service {
	s := &Service{completer: c, model: ai.DefaultModel, logger: log.Log}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Ingest parses an upload. A parse failure is reported as FaultIngest.
func (s *Service) Ingest(r io.Reader) *Outcome {
	t, err := table.Parse(r)
	if err != nil {
		s.logger.WithError(err).Warn("ingest failed")
		return &Outcome{Fault: FaultIngest, Err: err}
	}
	s.logger.WithFields(log.Fields{"rows": t.NumRows(), "cols": t.NumCols()}).Debug("ingested table")
	return &Outcome{Table: t}
}

// Ask ingests r and, when question is non-empty, asks it about the whole table.
func (s *Service) Ask(ctx context.Context, r io.Reader, question string) *Outcome {
	out := s.Ingest(r)
	if out.Fault != FaultNone {
		return out
	}
	return s.AskTable(ctx, out.Table, question)
}

// AskTable asks question about an already ingested table.
func (s *Service) AskTable(ctx context.Context, t *table.Table, question string) *Outcome {
	out := &Outcome{Table: t, Question: question}
	if question == "" {
		return out
	}
	p, err := prompt.FromTable(t, question)
	if err != nil {
		out.Fault = FaultIngest
		out.Err = err
		return out
	}
	out.Prompt = p

	est := utils.CountTokens(p)
	entry := s.logger.WithFields(log.Fields{"model": s.model, "prompt_tokens_est": est, "rows": t.NumRows()})
	if ai.ExceedsContext(s.model, est) {
		entry.Warn("prompt likely exceeds the model context window")
	}
	entry.Info("asking completion endpoint")

	c, err := s.completer.Complete(ctx, p)
	if err != nil {
		entry.WithError(err).Error("completion failed")
		out.Fault = FaultCompletion
		out.Err = err
		return out
	}
	out.Answer = c.Text
	out.Usage = c.Usage
	entry.WithFields(log.Fields{
		"total_tokens": c.Usage.TotalTokens,
		"response_id":  c.ID,
		"request_id":   c.RequestID,
	}).Info("answered")
	return out
}
