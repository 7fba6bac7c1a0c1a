package triage

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/ticket-desk/internal/domain"
	"github.com/spec-kit/ticket-desk/internal/observability"
)

type stubClassifier struct {
	out   RawOutput
	err   error
	calls int
	wait  bool
}

func (s *stubClassifier) Classify(ctx context.Context, draft Draft) (RawOutput, error) {
	s.calls++
	if s.wait {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	return s.out, s.err
}

func timeline(t domain.RequestedTimeline) *domain.RequestedTimeline { return &t }

func TestParseOutput(t *testing.T) {
	plain := `{"assignedTeam":"Security","priority":"HIGH"}`
	out, err := ParseOutput(plain)
	require.NoError(t, err)
	assert.Equal(t, "Security", out["assignedTeam"])

	fenced := "```json\n{\"assignedTeam\":\"HR\",\"priority\":\"LOW\"}\n```"
	out, err = ParseOutput(fenced)
	require.NoError(t, err)
	assert.Equal(t, "HR", out["assignedTeam"])

	bare := "```\n{\"priority\":\"MEDIUM\"}\n```"
	out, err = ParseOutput(bare)
	require.NoError(t, err)
	assert.Equal(t, "MEDIUM", out["priority"])

	for _, bad := range []string{"", "sure! here you go", "```json\nnot json\n```", "[1,2]", "null"} {
		_, err := ParseOutput(bad)
		assert.ErrorIs(t, err, ErrUnparseable, "input %q", bad)
	}
}

func TestNormalize_Defaults(t *testing.T) {
	res := Normalize(RawOutput{})
	assert.Equal(t, domain.DefaultTeam, res.AssignedTeam)
	assert.Equal(t, domain.TicketPriorityMedium, res.Priority)
	assert.Nil(t, res.Summary.Problem)
	assert.Nil(t, res.Summary.Impact)
	assert.Nil(t, res.Summary.RequestedAction)
	assert.Empty(t, res.KnowledgeSuggestions)
	assert.NotNil(t, res.KnowledgeSuggestions)
	assert.False(t, res.Fallback)
}

func TestNormalize_InvalidShapes(t *testing.T) {
	res := Normalize(RawOutput{
		"assignedTeam":         42,
		"priority":             "CRITICAL",
		"summary":              "not an object",
		"knowledgeSuggestions": "nope",
	})
	assert.Equal(t, domain.DefaultTeam, res.AssignedTeam)
	assert.Equal(t, domain.TicketPriorityMedium, res.Priority)
	assert.Nil(t, res.Summary.Problem)
	assert.Empty(t, res.KnowledgeSuggestions)
}

func TestNormalize_FullAnswer(t *testing.T) {
	raw, err := ParseOutput(`{
		"assignedTeam": " Network / Infrastructure ",
		"priority": "high",
		"summary": {"problem": "VPN drops", "impact": "", "requestedAction": "Fix tunnel"},
		"knowledgeSuggestions": [
			{"title": "Reset VPN client", "reason": "common fix"},
			"junk",
			{"reason": "no title"},
			{"title": "Check MFA", "reason": "token expiry"},
			{"title": "Third", "reason": "dropped"}
		]
	}`)
	require.NoError(t, err)

	res := Normalize(raw)
	assert.Equal(t, "Network / Infrastructure", res.AssignedTeam)
	assert.Equal(t, domain.TicketPriorityHigh, res.Priority)
	require.NotNil(t, res.Summary.Problem)
	assert.Equal(t, "VPN drops", *res.Summary.Problem)
	assert.Nil(t, res.Summary.Impact)
	require.NotNil(t, res.Summary.RequestedAction)
	assert.Equal(t, []domain.KnowledgeSuggestion{
		{Title: "Reset VPN client", Reason: "common fix"},
		{Title: "Check MFA", Reason: "token expiry"},
	}, res.KnowledgeSuggestions)
}

func TestFallback(t *testing.T) {
	assert.Equal(t, domain.TicketPriorityMedium, Fallback(Draft{}).Priority)
	assert.Equal(t, domain.TicketPriorityHigh, Fallback(Draft{IsBlocking: true}).Priority)
	assert.Equal(t, domain.TicketPriorityHigh, Fallback(Draft{RequestedTimeline: timeline(domain.TimelineASAP)}).Priority)
	assert.Equal(t, domain.TicketPriorityMedium, Fallback(Draft{RequestedTimeline: timeline(domain.TimelineToday)}).Priority)

	res := Fallback(Draft{})
	assert.Equal(t, domain.DefaultTeam, res.AssignedTeam)
	assert.True(t, res.Fallback)
	assert.Empty(t, res.KnowledgeSuggestions)
}

func TestAdapter_UsesClassifierOnce(t *testing.T) {
	stub := &stubClassifier{out: RawOutput{"assignedTeam": "Finance", "priority": "LOW"}}
	metrics := observability.NewMetrics()
	res := NewAdapter(stub, time.Second, nil, metrics).Triage(context.Background(), Draft{Title: "invoice"})

	assert.Equal(t, 1, stub.calls)
	assert.Equal(t, "Finance", res.AssignedTeam)
	assert.Equal(t, domain.TicketPriorityLow, res.Priority)
	assert.False(t, res.Fallback)
	assert.Equal(t, int64(1), metrics.Snapshot()["counters"]["triage_classified"])
}

func TestAdapter_FailureFallsBack(t *testing.T) {
	stub := &stubClassifier{err: errors.New("connection refused")}
	res := NewAdapter(stub, time.Second, nil, nil).Triage(context.Background(), Draft{IsBlocking: true})

	assert.Equal(t, 1, stub.calls)
	assert.True(t, res.Fallback)
	assert.Equal(t, domain.TicketPriorityHigh, res.Priority)
	assert.Equal(t, domain.DefaultTeam, res.AssignedTeam)
}

func TestAdapter_TimeoutFallsBack(t *testing.T) {
	stub := &stubClassifier{wait: true}
	start := time.Now()
	res := NewAdapter(stub, 20*time.Millisecond, nil, nil).Triage(context.Background(), Draft{})

	assert.Less(t, time.Since(start), 2*time.Second)
	assert.True(t, res.Fallback)
	assert.Equal(t, domain.TicketPriorityMedium, res.Priority)
}

func TestAdapter_NilClassifier(t *testing.T) {
	res := NewAdapter(nil, 0, nil, nil).Triage(context.Background(), Draft{})
	assert.True(t, res.Fallback)
}

func TestBuildPrompt(t *testing.T) {
	system := "Payroll"
	prompt := BuildPrompt(Draft{
		Title:             "Cannot run payroll",
		Description:       "Export fails",
		AffectedSystem:    &system,
		IsBlocking:        true,
		RequestedTimeline: timeline(domain.TimelineASAP),
	})
	assert.Contains(t, prompt, "Title: Cannot run payroll")
	assert.Contains(t, prompt, "Affected system: Payroll")
	assert.Contains(t, prompt, "Blocking: true")
	assert.Contains(t, prompt, "Requested timeline: ASAP")
	assert.Contains(t, prompt, "Requester department: none")
	assert.Contains(t, prompt, "HIGH, MEDIUM, LOW")
}
