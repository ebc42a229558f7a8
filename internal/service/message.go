package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/inside-thenga/thenga/internal/config"
	"github.com/inside-thenga/thenga/internal/language"
	"github.com/inside-thenga/thenga/internal/llm"
	"github.com/inside-thenga/thenga/internal/model"
	"github.com/inside-thenga/thenga/pkg/logger"
	"github.com/inside-thenga/thenga/pkg/metrics"
	"github.com/inside-thenga/thenga/pkg/tracing"
)

// ErrEmptyMessage is returned when the chat message is missing or blank.
var ErrEmptyMessage = errors.New("no message provided")

// Translator translates text, returning the input unchanged on failure.
type Translator interface {
	Translate(ctx context.Context, text, target, source string) (string, string)
}

// Completer asks the LLM for a reply to English text.
type Completer interface {
	Complete(ctx context.Context, message string) (string, error)
}

// TranslationPolicy decides how a chat turn is routed through translation.
type TranslationPolicy struct {
	// PivotLanguage is the language the LLM is spoken to in.
	PivotLanguage string
	// ReplyLanguage is the language every reply is translated into.
	ReplyLanguage string
	// TranslateLabels lists the input labels translated to the pivot language.
	TranslateLabels []language.Label
	// InputSourceLanguage is the source code used for that input translation.
	InputSourceLanguage  string
	SuggestedTTSLanguage string
	// FailureReply is returned to the user when the LLM fails.
	FailureReply string
}

// DefaultPolicy routes Malayalam and Manglish through English and always replies
// in Malayalam.
func DefaultPolicy() TranslationPolicy {
	return TranslationPolicy{
		PivotLanguage:        language.CodeEnglish,
		ReplyLanguage:        language.CodeMalayalam,
		TranslateLabels:      []language.Label{language.Malayalam, language.Manglish},
		InputSourceLanguage:  language.CodeMalayalam,
		SuggestedTTSLanguage: language.CodeMalayalam,
		FailureReply:         "ക്ഷമിക്കണം, ഇപ്പോൾ മറുപടി നൽകാൻ കഴിയുന്നില്ല.",
	}
}

// PolicyFromConfig builds a policy, keeping defaults for blank fields.
func PolicyFromConfig(c config.PolicyConfig) (TranslationPolicy, error) {
	p := DefaultPolicy()
	if c.PivotLanguage != "" {
		p.PivotLanguage = c.PivotLanguage
	}
	if c.ReplyLanguage != "" {
		p.ReplyLanguage = c.ReplyLanguage
	}
	if c.InputSourceLanguage != "" {
		p.InputSourceLanguage = c.InputSourceLanguage
	}
	if c.SuggestedTTSLanguage != "" {
		p.SuggestedTTSLanguage = c.SuggestedTTSLanguage
	}
	if c.FailureReply != "" {
		p.FailureReply = c.FailureReply
	}
	if c.TranslateLabels != nil {
		p.TranslateLabels = nil
		for _, s := range c.TranslateLabels {
			label, ok := language.ParseLabel(s)
			if !ok {
				return TranslationPolicy{}, fmt.Errorf("unknown language label %q in translation policy", s)
			}
			p.TranslateLabels = append(p.TranslateLabels, label)
		}
	}
	return p, nil
}

func (p TranslationPolicy) translatesInput(label language.Label) bool {
	for _, l := range p.TranslateLabels {
		if l == label {
			return true
		}
	}
	return false
}

// ChatService runs one chat turn: classify, translate in, complete, translate out.
type ChatService struct {
	history    *ConversationLog
	translator Translator
	llm        Completer
	policy     TranslationPolicy
	logger     *logger.Logger
}

// NewChatService creates a new chat service.
func NewChatService(
	history *ConversationLog,
	translator Translator,
	completer Completer,
	policy TranslationPolicy,
	log *logger.Logger,
) *ChatService {
	return &ChatService{
		history:    history,
		translator: translator,
		llm:        completer,
		policy:     policy,
		logger:     log.Component("chat"),
	}
}

// Policy returns the active translation policy.
func (s *ChatService) Policy() TranslationPolicy {
	return s.policy
}

// Chat processes a user message. When the LLM fails the returned response still
// carries the failure reply and the partial workflow, and the error is the
// *llm.CompletionError.
func (s *ChatService) Chat(ctx context.Context, message string) (*model.ChatResponse, error) {
	if strings.TrimSpace(message) == "" {
		return nil, ErrEmptyMessage
	}

	label := language.Classify(message)
	metrics.LanguageDetections.WithLabelValues(string(label)).Inc()
	ctx, span := tracing.Start(ctx, "chat",
		attribute.String("chat.detected_language", string(label)),
	)

	s.logger.Info("chat message",
		zap.String("detected_language", string(label)),
		zap.Int("length", len(message)),
	)

	pivot := message
	if s.policy.translatesInput(label) {
		pivot, _ = s.translator.Translate(ctx, message, s.policy.PivotLanguage, s.policy.InputSourceLanguage)
		s.logger.Debug("translated input", zap.String("pivot", pivot))
	}

	user := model.UserMessage{Message: message, Language: string(label)}
	if pivot != message {
		translated := pivot
		user.TranslatedToEnglish = &translated
	}
	s.history.Append(user)

	resp := &model.ChatResponse{
		DetectedLanguage:     string(label),
		SuggestedTTSLanguage: s.policy.SuggestedTTSLanguage,
		TranslationWorkflow: model.TranslationWorkflow{
			OriginalMessage:  message,
			DetectedLanguage: string(label),
			EnglishForLLM:    pivot,
		},
	}

	english, err := s.llm.Complete(ctx, pivot)
	if err != nil {
		var cerr *llm.CompletionError
		if !errors.As(err, &cerr) {
			cerr = &llm.CompletionError{Kind: llm.ErrorKindNetwork, Detail: err.Error(), Err: err}
		}
		tracing.End(span, cerr)
		s.logger.Error("llm completion failed",
			zap.String("kind", string(cerr.Kind)),
			zap.Error(cerr),
		)
		resp.Reply = s.policy.FailureReply
		resp.Error = cerr.Error()
		resp.ErrorKind = string(cerr.Kind)
		return resp, cerr
	}

	reply, _ := s.translator.Translate(ctx, english, s.policy.ReplyLanguage, s.policy.PivotLanguage)

	s.history.Append(model.BotReply{
		Message:         reply,
		Language:        s.policy.ReplyLanguage,
		OriginalEnglish: english,
	})

	resp.Reply = reply
	resp.TranslationWorkflow.LLMEnglishResponse = english
	resp.TranslationWorkflow.FinalMalayalamResponse = reply

	tracing.End(span, nil)
	return resp, nil
}
