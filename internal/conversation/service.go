package conversation

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/callgenie/saathi-backend/pkg/ai"
	"github.com/callgenie/saathi-backend/pkg/logger"
	"github.com/callgenie/saathi-backend/pkg/postgres"
)

// ErrUserNotFound marks an unknown caller, distinct from upstream or
// transport failures.
var ErrUserNotFound = errors.New("user not found")

// historyLimit is how many past exchanges feed the prompt.
const historyLimit = 5

// Service composes the user store with the response generator: look up
// the caller, load recent history, generate a SAATHI reply.
type Service struct {
	store     postgres.Store
	responder ai.Responder
	logger    *zap.Logger
}

func NewService(store postgres.Store, responder ai.Responder, log *zap.Logger) *Service {
	if log == nil {
		log = logger.Log
	}
	return &Service{
		store:     store,
		responder: responder,
		logger:    log,
	}
}

// Result is a generated reply plus the resolved caller identity.
type Result struct {
	Reply  string
	UserID string
}

// Generate resolves the caller by phone number, loads their recent
// exchanges, and produces a reply. It does not persist; callers log the
// exchange with Log so a write failure never loses the reply.
func (s *Service) Generate(ctx context.Context, message, phoneNumber string, mode ai.Mode) (*Result, error) {
	user, err := s.store.GetUserByPhone(ctx, phoneNumber)
	if err != nil {
		if errors.Is(err, postgres.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	turns := s.loadHistory(ctx, user.ID)

	result, err := s.responder.GenerateResponse(ctx, &ai.ResponseRequest{
		Message:   message,
		UserName:  user.Name,
		UserPhone: phoneNumber,
		History:   turns,
		Mode:      mode,
	})
	if err != nil {
		return nil, err
	}

	return &Result{Reply: result.Reply, UserID: user.ID}, nil
}

// Log appends the exchange to conversation_logs and returns the new row
// id. Callers treat a failure as a warning, not an abort.
func (s *Service) Log(ctx context.Context, entry *postgres.ConversationLog) (string, error) {
	if err := s.store.LogConversation(ctx, entry); err != nil {
		return "", err
	}
	return entry.ID, nil
}

// loadHistory fetches the recent exchanges, most recent first. A read
// failure degrades to an empty history rather than failing the reply.
func (s *Service) loadHistory(ctx context.Context, userID string) []ai.Turn {
	logs, err := s.store.GetHistory(ctx, userID, historyLimit, 0)
	if err != nil {
		s.logger.Warn("Failed to load conversation history",
			zap.String("user_id", userID),
			zap.Error(err),
		)
		return nil
	}

	turns := make([]ai.Turn, 0, len(logs))
	for _, l := range logs {
		turns = append(turns, ai.Turn{UserMessage: l.UserMessage, Reply: l.AIResponse})
	}
	return turns
}
