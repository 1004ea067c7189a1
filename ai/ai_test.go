package ai

import (
	"context"
	"errors"
	"testing"

	"github.com/harperreed/leadgen/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/genai"
)

type fakeGen struct {
	model string
	out   string
	err   error
	calls int
	last  Request
}

func (f *fakeGen) Model() string { return f.model }

func (f *fakeGen) Generate(_ context.Context, req Request) (string, error) {
	f.calls++
	f.last = req
	return f.out, f.err
}

func TestChainFallsBackOnOrdinaryErrors(t *testing.T) {
	a := &fakeGen{model: "m1", err: errors.New("503 overloaded")}
	b := &fakeGen{model: "m2", out: `{"ok":true}`}
	c := &fakeGen{model: "m3", out: "unused"}

	out, err := NewChain([]Generator{a, b, c}).Generate(context.Background(), Request{Prompt: "hi"})
	require.NoError(t, err)
	assert.Equal(t, `{"ok":true}`, out)
	assert.Equal(t, 1, a.calls)
	assert.Equal(t, 1, b.calls)
	assert.Zero(t, c.calls)
}

func TestChainStopsOnAuthError(t *testing.T) {
	a := &fakeGen{model: "m1", err: classify(genai.APIError{Code: 403, Message: "API key invalid"})}
	b := &fakeGen{model: "m2", out: "never"}

	_, err := NewChain([]Generator{a, b}).Generate(context.Background(), Request{})
	assert.ErrorIs(t, err, ErrAuth)
	assert.Zero(t, b.calls)
}

func TestClassifyAuthCodes(t *testing.T) {
	assert.ErrorIs(t, classify(genai.APIError{Code: 401}), ErrAuth)
	assert.ErrorIs(t, classify(genai.APIError{Code: 403}), ErrAuth)
	assert.NotErrorIs(t, classify(genai.APIError{Code: 429}), ErrAuth)
	assert.NotErrorIs(t, classify(errors.New("boom")), ErrAuth)
}

func TestChainExhaustedListsEveryAttempt(t *testing.T) {
	gens := []Generator{
		&fakeGen{model: "m1", err: errors.New("quota")},
		&fakeGen{model: "m2", err: errors.New("not found")},
	}

	_, err := NewChain(gens).Generate(context.Background(), Request{})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrExhausted)

	var exhausted *ExhaustedError
	require.ErrorAs(t, err, &exhausted)
	require.Len(t, exhausted.Attempts, 2)
	assert.Contains(t, err.Error(), "m1: quota")
	assert.Contains(t, err.Error(), "m2: not found")
}

func TestChainWithoutModels(t *testing.T) {
	_, err := NewChain(nil).Generate(context.Background(), Request{})
	assert.ErrorIs(t, err, ErrNoModels)
}

func TestExtractContact(t *testing.T) {
	gen := &fakeGen{model: "m", out: `{"first_name":" Léa ","last_name":"Martin","company":"Acme","email":"lea@acme.fr"}`}

	c, err := NewAssistant(gen).ExtractContact(context.Background(), "Léa Martin - Acme - lea@acme.fr")
	require.NoError(t, err)
	assert.Equal(t, "Léa", c.FirstName)
	assert.Equal(t, "lea@acme.fr", c.Email)
	assert.Equal(t, models.CategoryProspect, c.Category)
	assert.Equal(t, contactSchema, gen.last.Schema)

	_, err = NewAssistant(gen).ExtractContact(context.Background(), "   ")
	assert.Error(t, err)
}

func TestScoreContactClamps(t *testing.T) {
	gen := &fakeGen{model: "m", out: `{"score":130,"reason":"perfect fit"}`}

	s, err := NewAssistant(gen).ScoreContact(context.Background(), models.Contact{FirstName: "A"})
	require.NoError(t, err)
	assert.Equal(t, Score{Score: 100, Reason: "perfect fit"}, s)
}

func TestGenerateTemplate(t *testing.T) {
	gen := &fakeGen{model: "m", out: `{"subject":"Invitation","body":"Bonjour {{Prénom}}"}`}

	tpl, err := NewAssistant(gen).GenerateTemplate(context.Background(), models.GoalEvent, "salon annuel")
	require.NoError(t, err)
	assert.Equal(t, "Invitation", tpl.Subject)
	assert.Contains(t, gen.last.Prompt, "Event")

	gen.out = `{"subject":"x","body":""}`
	_, err = NewAssistant(gen).GenerateTemplate(context.Background(), models.GoalEvent, "")
	assert.ErrorIs(t, err, ErrEmptyResponse)
}

func TestAssistantPropagatesChainErrors(t *testing.T) {
	chain := NewChain([]Generator{&fakeGen{model: "m", err: errors.New("down")}})

	_, err := NewAssistant(chain).ScoreContact(context.Background(), models.Contact{})
	assert.ErrorIs(t, err, ErrExhausted)
}
