package conversation

import (
	"context"
	"errors"
	"testing"

	"go.uber.org/zap"

	"github.com/callgenie/saathi-backend/pkg/ai"
	"github.com/callgenie/saathi-backend/pkg/postgres"
)

type stubStore struct {
	postgres.Store

	user       *postgres.User
	userErr    error
	history    []postgres.ConversationLog
	historyErr error
	logErr     error
	logged     []postgres.ConversationLog
}

func (s *stubStore) GetUserByPhone(ctx context.Context, phone string) (*postgres.User, error) {
	if s.userErr != nil {
		return nil, s.userErr
	}
	return s.user, nil
}

func (s *stubStore) GetHistory(ctx context.Context, userID string, limit, offset int) ([]postgres.ConversationLog, error) {
	if s.historyErr != nil {
		return nil, s.historyErr
	}
	return s.history, nil
}

func (s *stubStore) LogConversation(ctx context.Context, log *postgres.ConversationLog) error {
	if s.logErr != nil {
		return s.logErr
	}
	log.ID = "row-42"
	s.logged = append(s.logged, *log)
	return nil
}

type stubResponder struct {
	reply   string
	err     error
	lastReq *ai.ResponseRequest
}

func (s *stubResponder) GenerateResponse(ctx context.Context, req *ai.ResponseRequest) (*ai.ResponseResult, error) {
	s.lastReq = req
	if s.err != nil {
		return nil, s.err
	}
	return &ai.ResponseResult{Reply: s.reply}, nil
}

func (s *stubResponder) IsAvailable() bool { return true }

func TestGenerate(t *testing.T) {
	store := &stubStore{
		user: &postgres.User{ID: "user-1", Name: "Asha"},
		history: []postgres.ConversationLog{
			{UserMessage: "second", AIResponse: "reply two"},
			{UserMessage: "first", AIResponse: "reply one"},
		},
	}
	responder := &stubResponder{reply: "Hello Asha"}
	svc := NewService(store, responder, zap.NewNop())

	result, err := svc.Generate(context.Background(), "hi", "+911234567890", ai.ModeVoice)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if result.Reply != "Hello Asha" || result.UserID != "user-1" {
		t.Errorf("result = %+v", result)
	}

	req := responder.lastReq
	if req.UserName != "Asha" || req.UserPhone != "+911234567890" {
		t.Errorf("caller context = %q/%q", req.UserName, req.UserPhone)
	}
	if req.Mode != ai.ModeVoice {
		t.Errorf("mode = %v", req.Mode)
	}
	if len(req.History) != 2 || req.History[0].UserMessage != "second" {
		t.Errorf("history = %+v, want store order preserved", req.History)
	}

	// Generate never persists; that is Log's job.
	if len(store.logged) != 0 {
		t.Errorf("Generate wrote %d log rows", len(store.logged))
	}
}

func TestGenerate_UnknownCaller(t *testing.T) {
	store := &stubStore{userErr: postgres.ErrNotFound}
	svc := NewService(store, &stubResponder{}, zap.NewNop())

	_, err := svc.Generate(context.Background(), "hi", "+910000000000", ai.ModeVoice)
	if !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("err = %v, want ErrUserNotFound", err)
	}
}

func TestGenerate_StoreFailurePassesThrough(t *testing.T) {
	storeErr := errors.New("connection reset")
	store := &stubStore{userErr: storeErr}
	svc := NewService(store, &stubResponder{}, zap.NewNop())

	_, err := svc.Generate(context.Background(), "hi", "+911234567890", ai.ModeVoice)
	if !errors.Is(err, storeErr) {
		t.Fatalf("err = %v, want store error", err)
	}
	if errors.Is(err, ErrUserNotFound) {
		t.Fatal("transport failure mapped to unknown user")
	}
}

func TestGenerate_HistoryFailureDegrades(t *testing.T) {
	store := &stubStore{
		user:       &postgres.User{ID: "user-1", Name: "Asha"},
		historyErr: errors.New("timeout"),
	}
	responder := &stubResponder{reply: "ok"}
	svc := NewService(store, responder, zap.NewNop())

	result, err := svc.Generate(context.Background(), "hi", "+911234567890", ai.ModeVoice)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if result.Reply != "ok" {
		t.Errorf("reply = %q", result.Reply)
	}
	if len(responder.lastReq.History) != 0 {
		t.Errorf("history = %+v, want empty after load failure", responder.lastReq.History)
	}
}

func TestLog(t *testing.T) {
	store := &stubStore{}
	svc := NewService(store, &stubResponder{}, zap.NewNop())

	id, err := svc.Log(context.Background(), &postgres.ConversationLog{
		UserID:      "user-1",
		UserMessage: "hi",
		AIResponse:  "hello",
	})
	if err != nil {
		t.Fatalf("Log: %v", err)
	}
	if id != "row-42" {
		t.Errorf("id = %q", id)
	}

	store.logErr = errors.New("insert failed")
	if _, err := svc.Log(context.Background(), &postgres.ConversationLog{}); err == nil {
		t.Fatal("expected error")
	}
}
