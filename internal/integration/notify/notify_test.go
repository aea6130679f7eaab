package notify

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/Freeeeeet/advisor_scheduler/internal/model"
	"github.com/Freeeeeet/advisor_scheduler/internal/service"
	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func sampleData() service.NotificationData {
	moscow, _ := time.LoadLocation("Europe/Moscow")
	start := time.Date(2025, 3, 3, 9, 0, 0, 0, time.UTC)
	return service.NotificationData{
		MeetingID:      uuid.New(),
		MeetingName:    "Intro call",
		AdvisorName:    "Anna",
		AdvisorEmail:   "anna@example.com",
		ClientEmail:    "client@example.com",
		ClientLinkedIn: "https://linkedin.com/in/client",
		Start:          start,
		End:            start.Add(30 * time.Minute),
		Location:       moscow,
		Answers: []service.QuestionAnswer{
			{Question: "Your goals?", Answer: "Retire early", Augmented: "Works in banking for 10 years"},
		},
	}
}

func TestRenderTextForAdvisor(t *testing.T) {
	text := renderText(service.RecipientAdvisor, sampleData())

	assert.Contains(t, text, "New meeting booked")
	assert.Contains(t, text, "Intro call")
	assert.Contains(t, text, "12:00")
	assert.Contains(t, text, "Retire early")
	assert.Contains(t, text, "Works in banking for 10 years")
}

func TestRenderForClientHidesContext(t *testing.T) {
	data := sampleData()

	text := renderText(service.RecipientClient, data)
	assert.Contains(t, text, "Meeting confirmed")
	assert.Contains(t, text, "Retire early")
	assert.NotContains(t, text, "Works in banking")

	html, err := renderHTML(service.RecipientClient, data)
	require.NoError(t, err)
	assert.NotContains(t, html, "Works in banking")

	assert.Equal(t, "Works in banking for 10 years", data.Answers[0].Augmented)
}

func TestRenderHTMLEscapes(t *testing.T) {
	data := sampleData()
	data.Answers[0].Answer = "<script>alert(1)</script>"

	html, err := renderHTML(service.RecipientAdvisor, data)
	require.NoError(t, err)
	assert.NotContains(t, html, "<script>")
	assert.Contains(t, html, "&lt;script&gt;")
}

func TestEmailNotifier(t *testing.T) {
	var payload map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/v3/mail/send", r.URL.Path)
		assert.Equal(t, "Bearer sg-key", r.Header.Get("Authorization"))

		body, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		require.NoError(t, json.Unmarshal(body, &payload))

		w.WriteHeader(http.StatusAccepted)
	}))
	defer srv.Close()

	n := NewEmailNotifier("sg-key", srv.URL, "noreply@example.com", "Advisor Schedule", zap.NewNop())

	err := n.Notify(context.Background(), service.Recipient{
		Role:  service.RecipientAdvisor,
		Email: "anna@example.com",
	}, sampleData())
	require.NoError(t, err)

	assert.Equal(t, "New meeting booked: Intro call with client@example.com", payload["subject"])
	from := payload["from"].(map[string]any)
	assert.Equal(t, "noreply@example.com", from["email"])
}

func TestEmailNotifierFailures(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"errors":[{"message":"bad key"}]}`))
	}))
	defer srv.Close()

	n := NewEmailNotifier("bad", srv.URL, "noreply@example.com", "", zap.NewNop())

	err := n.Notify(context.Background(), service.Recipient{Role: service.RecipientClient, Email: "c@example.com"}, sampleData())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "401")

	err = n.Notify(context.Background(), service.Recipient{Role: service.RecipientClient}, sampleData())
	assert.ErrorIs(t, err, ErrNoAddress)
}

type fakeSender struct {
	sent []*bot.SendMessageParams
	err  error
}

func (f *fakeSender) SendMessage(_ context.Context, params *bot.SendMessageParams) (*models.Message, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.sent = append(f.sent, params)
	return &models.Message{}, nil
}

type fakeAdvisors map[uuid.UUID]*model.Advisor

func (f fakeAdvisors) GetByID(_ context.Context, id uuid.UUID) (*model.Advisor, error) {
	return f[id], nil
}

func TestTelegramNotifier(t *testing.T) {
	chatID := int64(777)
	bound := &model.Advisor{ID: uuid.New(), TelegramChatID: &chatID}
	unbound := &model.Advisor{ID: uuid.New()}
	advisors := fakeAdvisors{bound.ID: bound, unbound.ID: unbound}

	sender := &fakeSender{}
	n := NewTelegramNotifier(sender, advisors, zap.NewNop())
	ctx := context.Background()

	require.NoError(t, n.Notify(ctx, service.Recipient{Role: service.RecipientAdvisor, AdvisorID: bound.ID}, sampleData()))
	require.NoError(t, n.Notify(ctx, service.Recipient{Role: service.RecipientAdvisor, AdvisorID: unbound.ID}, sampleData()))
	require.NoError(t, n.Notify(ctx, service.Recipient{Role: service.RecipientClient, AdvisorID: bound.ID}, sampleData()))

	require.Len(t, sender.sent, 1)
	assert.Equal(t, chatID, sender.sent[0].ChatID)
	assert.Contains(t, sender.sent[0].Text, "Intro call")
}

type recordingNotifier struct {
	calls int
	err   error
}

func (r *recordingNotifier) Notify(context.Context, service.Recipient, service.NotificationData) error {
	r.calls++
	return r.err
}

func TestFanoutContinuesAfterFailure(t *testing.T) {
	errEmail := errors.New("email down")
	failing := &recordingNotifier{err: errEmail}
	ok := &recordingNotifier{}

	err := Fanout{failing, nil, ok}.Notify(context.Background(), service.Recipient{}, sampleData())

	assert.ErrorIs(t, err, errEmail)
	assert.Equal(t, 1, failing.calls)
	assert.Equal(t, 1, ok.calls)

	assert.NoError(t, Fanout{ok}.Notify(context.Background(), service.Recipient{}, sampleData()))
}
