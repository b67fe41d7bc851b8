package llm

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/tmc/langchaingo/llms"
	"jo3qma.com/autosniper/internal/domain/model"
)

// stubModel は決まった応答を返す llms.Model です
type stubModel struct {
	content  string
	err      error
	messages []llms.MessageContent
}

func (s *stubModel) GenerateContent(ctx context.Context, messages []llms.MessageContent, options ...llms.CallOption) (*llms.ContentResponse, error) {
	s.messages = messages
	if s.err != nil {
		return nil, s.err
	}
	return &llms.ContentResponse{
		Choices: []*llms.ContentChoice{{Content: s.content}},
	}, nil
}

func (s *stubModel) Call(ctx context.Context, prompt string, options ...llms.CallOption) (string, error) {
	return s.content, s.err
}

func testListing() *model.Listing {
	return &model.Listing{
		URL: "https://www.grays.com/lot/1",
		Details: model.Details{
			Year:             "2015",
			Make:             "Toyota",
			Model:            "Corolla",
			OdometerReading:  "123,456",
			OdometerUnit:     "km",
			GeneralCondition: "Minor scratches",
		},
	}
}

func TestOracle_Estimate_parsesSurroundedJSON(t *testing.T) {
	t.Parallel()

	m := &stubModel{content: "Sure! Here is my analysis:\n```json\n{\n\"resale_estimate\": \"$12,000\",\n\"max_bid\": \"$9,000\",\n\"profit_margin_percent\": 25,\n\"verdict\": \"Good\"\n}\n```\nGood luck."}

	got, err := NewOracle(m).Estimate(context.Background(), testListing())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := &model.Verdict{
		URL:                 "https://www.grays.com/lot/1",
		ResaleEstimate:      "$12,000",
		MaxBid:              "$9,000",
		ProfitMarginPercent: "25",
		Label:               "Good",
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("verdict mismatch (-want +got):\n%s", diff)
	}

	if len(m.messages) != 2 {
		t.Fatalf("messages got %d, want 2", len(m.messages))
	}
	prompt := m.messages[1].Parts[0].(llms.TextContent).Text
	for _, want := range []string{"title: 2015 Toyota Corolla", "odometer: 123,456 km", "general_condition: Minor scratches"} {
		if !strings.Contains(prompt, want) {
			t.Errorf("prompt %q should contain %q", prompt, want)
		}
	}
}

func TestOracle_Estimate_malformedResponses(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		content string
		reason  string
	}{
		{
			name:    "no json",
			content: "I cannot estimate this vehicle.",
			reason:  "no JSON found",
		},
		{
			name:    "broken json",
			content: `{"resale_estimate": "$12,000",`,
			reason:  "no JSON found",
		},
		{
			name:    "invalid json",
			content: `{"resale_estimate": $12,000}`,
			reason:  "JSON parse failed",
		},
		{
			name:    "missing field",
			content: `{"resale_estimate": "$12,000", "max_bid": "$9,000", "verdict": "Good"}`,
			reason:  `missing field "profit_margin_percent"`,
		},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			_, err := NewOracle(&stubModel{content: tc.content}).Estimate(context.Background(), testListing())
			var malformed *model.OracleResponseError
			if !errors.As(err, &malformed) {
				t.Fatalf("got error %v, want *model.OracleResponseError", err)
			}
			if !strings.Contains(malformed.Reason, tc.reason) {
				t.Errorf("Reason got %q, want to contain %q", malformed.Reason, tc.reason)
			}
			if malformed.Raw != strings.TrimSpace(tc.content) {
				t.Errorf("Raw got %q, want %q", malformed.Raw, tc.content)
			}
		})
	}
}

func TestOracle_Estimate_transportErrorIsWrapped(t *testing.T) {
	t.Parallel()

	transportErr := errors.New("429 too many requests")
	_, err := NewOracle(&stubModel{err: transportErr}).Estimate(context.Background(), testListing())
	if !errors.Is(err, transportErr) {
		t.Fatalf("got error %v, want %v", err, transportErr)
	}
	var malformed *model.OracleResponseError
	if errors.As(err, &malformed) {
		t.Errorf("transport errors should not be reported as malformed responses")
	}
}

func TestNewOpenAIOracle_requiresAPIKey(t *testing.T) {
	t.Parallel()

	if _, err := NewOpenAIOracle("", ""); err == nil {
		t.Fatal("expected error for empty API key")
	}
}
