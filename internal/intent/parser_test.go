package intent

import (
	"context"
	"errors"
	"testing"

	"ChainDrip/internal/chain"
	xerrors "ChainDrip/internal/errors"
	"ChainDrip/internal/llm"
)

type stubLLM struct {
	content string
	err     error
	lastReq llm.Request
}

func (s *stubLLM) Interpret(ctx context.Context, req llm.Request) (*llm.Response, error) {
	s.lastReq = req
	if s.err != nil {
		return nil, s.err
	}
	return &llm.Response{Content: s.content}, nil
}

var testNetworks = []chain.Summary{
	{Name: "sepolia", Symbol: "ETH", Amount: "0.01"},
	{Name: "polygon", Symbol: "POL", Amount: "0.02"},
}

const validRecipient = "0x2d6DA915F00dcA50b06a60fca010949382f4e0e8"

func TestParseWellFormedResponse(t *testing.T) {
	stub := &stubLLM{content: `{"to":"` + validRecipient + `","networks":[{"name":"sepolia","amount":"0.01","symbol":"ETH"}],"explanation":"one drip on sepolia"}`}
	parser := NewParser(stub)

	parsed, err := parser.Parse(context.Background(), "send test tokens to "+validRecipient+" on sepolia", testNetworks)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if parsed.Recipient != validRecipient {
		t.Fatalf("unexpected recipient: %s", parsed.Recipient)
	}
	if len(parsed.Requests) != 1 || parsed.Requests[0].Network != "sepolia" || parsed.Requests[0].Amount != "0.01" {
		t.Fatalf("unexpected requests: %+v", parsed.Requests)
	}
	if len(parsed.Warnings) != 0 {
		t.Fatalf("expected no warnings, got %v", parsed.Warnings)
	}
	if len(stub.lastReq.Networks) != 2 {
		t.Fatalf("network catalog not forwarded to model: %+v", stub.lastReq.Networks)
	}
}

func TestParseFencedJSON(t *testing.T) {
	stub := &stubLLM{content: "Sure, here you go:\n```json\n" +
		`{"to":"` + validRecipient + `","networks":[{"name":"polygon"}],"explanation":"ok"}` +
		"\n```"}
	parser := NewParser(stub)

	parsed, err := parser.Parse(context.Background(), "polygon drip "+validRecipient, testNetworks)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(parsed.Requests) != 1 || parsed.Requests[0].Amount != "0.02" || parsed.Requests[0].Symbol != "POL" {
		t.Fatalf("catalog defaults not applied: %+v", parsed.Requests)
	}
}

func TestParseUnderstandingFailure(t *testing.T) {
	stub := &stubLLM{content: `{"error":"no recipient address found"}`}
	parser := NewParser(stub)

	parsed, err := parser.Parse(context.Background(), "gimme tokens", testNetworks)
	if err == nil {
		t.Fatalf("expected error, got %+v", parsed)
	}
	if !xerrors.IsCode(err, xerrors.CodeUnderstanding) {
		t.Fatalf("expected UNDERSTANDING_FAILURE, got %v", err)
	}
	if parsed != nil {
		t.Fatalf("no partial intent may escape, got %+v", parsed)
	}
}

func TestParseRejectsNonHexRecipient(t *testing.T) {
	stub := &stubLLM{content: `{"to":"0xZZZZZZZZZZZZZZZZZZZZZZZZZZZZZZZZZZZZZZZZ","networks":[{"name":"sepolia","amount":"0.01","symbol":"ETH"}],"explanation":"ok"}`}
	parser := NewParser(stub)

	_, err := parser.Parse(context.Background(), "send to 0xZZZZ on sepolia", testNetworks)
	if !xerrors.IsCode(err, xerrors.CodeMalformedResponse) {
		t.Fatalf("expected MALFORMED_RESPONSE, got %v", err)
	}
}

func TestParseRejectsMissingFields(t *testing.T) {
	cases := []struct {
		name    string
		content string
	}{
		{name: "missing recipient", content: `{"networks":[{"name":"sepolia"}],"explanation":"ok"}`},
		{name: "missing networks", content: `{"to":"` + validRecipient + `","explanation":"ok"}`},
		{name: "empty network name", content: `{"to":"` + validRecipient + `","networks":[{"name":""}],"explanation":"ok"}`},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			parser := NewParser(&stubLLM{content: tc.content})
			_, err := parser.Parse(context.Background(), "whatever", testNetworks)
			if !xerrors.IsCode(err, xerrors.CodeMalformedResponse) {
				t.Fatalf("expected MALFORMED_RESPONSE, got %v", err)
			}
		})
	}
}

func TestParseFallbackExtractor(t *testing.T) {
	stub := &stubLLM{content: "to: " + validRecipient + "\namount: 0.5\nexplanation: manual reply"}
	parser := NewParser(stub)

	parsed, err := parser.Parse(context.Background(), "send tokens to "+validRecipient+" on sepolia", testNetworks)
	if err != nil {
		t.Fatalf("fallback should have rescued the reply: %v", err)
	}
	if parsed.Recipient != validRecipient {
		t.Fatalf("unexpected recipient: %s", parsed.Recipient)
	}
	if len(parsed.Requests) != 1 || parsed.Requests[0].Network != "sepolia" || parsed.Requests[0].Amount != "0.5" {
		t.Fatalf("unexpected requests: %+v", parsed.Requests)
	}
	if parsed.Explanation != "manual reply" {
		t.Fatalf("unexpected explanation: %q", parsed.Explanation)
	}
}

func TestParseMalformedWhenFallbackFails(t *testing.T) {
	stub := &stubLLM{content: "I sent the tokens, trust me"}
	parser := NewParser(stub)

	_, err := parser.Parse(context.Background(), "send tokens to somebody on sepolia", testNetworks)
	if !xerrors.IsCode(err, xerrors.CodeMalformedResponse) {
		t.Fatalf("expected MALFORMED_RESPONSE, got %v", err)
	}
}

func TestParseLLMFailure(t *testing.T) {
	parser := NewParser(&stubLLM{err: errors.New("connection refused")})

	_, err := parser.Parse(context.Background(), "send tokens", testNetworks)
	if !xerrors.IsCode(err, xerrors.CodeLLMFailure) {
		t.Fatalf("expected LLM_FAILURE, got %v", err)
	}
}

func TestParseEmptyInput(t *testing.T) {
	parser := NewParser(&stubLLM{content: "{}"})

	_, err := parser.Parse(context.Background(), "   ", testNetworks)
	if !xerrors.IsCode(err, xerrors.CodeUnderstanding) {
		t.Fatalf("expected UNDERSTANDING_FAILURE, got %v", err)
	}
}

func TestValidAddress(t *testing.T) {
	cases := []struct {
		address string
		want    bool
	}{
		{address: validRecipient, want: true},
		{address: "0x" + "a" + validRecipient[3:], want: true},
		{address: validRecipient[2:], want: false},
		{address: "0x123", want: false},
		{address: validRecipient + "ff", want: false},
		{address: "", want: false},
	}
	for _, tc := range cases {
		if got := ValidAddress(tc.address); got != tc.want {
			t.Fatalf("ValidAddress(%q) = %v, want %v", tc.address, got, tc.want)
		}
	}
}
