package session

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"ChainDrip/internal/chain"
	xerrors "ChainDrip/internal/errors"
	"ChainDrip/internal/faucet"
)

// scriptedHandler replays outcomes and errors in call order.
type scriptedHandler struct {
	outcomes []*faucet.Outcome
	errs     []error
	inputs   []string
}

func (h *scriptedHandler) Handle(ctx context.Context, rawText string) (*faucet.Outcome, error) {
	idx := len(h.inputs)
	h.inputs = append(h.inputs, rawText)
	var outcome *faucet.Outcome
	var err error
	if idx < len(h.outcomes) {
		outcome = h.outcomes[idx]
	}
	if idx < len(h.errs) {
		err = h.errs[idx]
	}
	return outcome, err
}

func TestRunExitCommand(t *testing.T) {
	handler := &scriptedHandler{}
	out := &bytes.Buffer{}
	sess := New(handler, strings.NewReader("exit\n"), out)

	if err := sess.Run(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(handler.inputs) != 0 {
		t.Fatalf("exit must not reach the handler, got %v", handler.inputs)
	}
}

func TestRunEndsOnEOF(t *testing.T) {
	handler := &scriptedHandler{}
	sess := New(handler, strings.NewReader(""), &bytes.Buffer{})

	if err := sess.Run(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestRunSkipsBlankLines(t *testing.T) {
	handler := &scriptedHandler{
		outcomes: []*faucet.Outcome{{RequestID: "r1", Recipient: "0xabc", Results: nil}},
	}
	input := "\n   \nsend tokens please\nquit\n"
	sess := New(handler, strings.NewReader(input), &bytes.Buffer{})

	if err := sess.Run(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(handler.inputs) != 1 || handler.inputs[0] != "send tokens please" {
		t.Fatalf("unexpected handler inputs: %v", handler.inputs)
	}
}

func TestRunContinuesAfterRequestError(t *testing.T) {
	handler := &scriptedHandler{
		errs: []error{
			xerrors.New(xerrors.CodeUnderstanding, "缺少收款地址"),
			nil,
		},
		outcomes: []*faucet.Outcome{
			nil,
			{
				RequestID: "r2",
				Recipient: "0xabc",
				Results: []faucet.DispatchResult{
					{Network: "sepolia", Amount: "0.01", Symbol: "ETH", TxHash: "0x11", Status: chain.StatusSuccess},
				},
			},
		},
	}
	out := &bytes.Buffer{}
	input := "first try\nsecond try\nexit\n"
	sess := New(handler, strings.NewReader(input), out)

	if err := sess.Run(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(handler.inputs) != 2 {
		t.Fatalf("loop must survive request errors, handled %v", handler.inputs)
	}
	printed := out.String()
	if !strings.Contains(printed, "无法理解该请求") {
		t.Fatalf("understanding failure must be reported: %s", printed)
	}
	if !strings.Contains(printed, "[sepolia]") || !strings.Contains(printed, "已确认") {
		t.Fatalf("successful drip must be printed: %s", printed)
	}
}

func TestRunPrintsWarningsAndFailures(t *testing.T) {
	handler := &scriptedHandler{
		outcomes: []*faucet.Outcome{
			{
				RequestID:   "r1",
				Recipient:   "0xabc",
				Explanation: "在两个网络上发放",
				Warnings:    []string{"已纠正网络名拼写"},
				Results: []faucet.DispatchResult{
					{Network: "foo", Error: "网络 foo 未注册"},
					{Network: "sepolia", Amount: "0.01", Symbol: "ETH", TxHash: "0x11", Status: chain.StatusSuccess},
				},
			},
		},
	}
	out := &bytes.Buffer{}
	sess := New(handler, strings.NewReader("drip on foo and sepolia\nexit\n"), out)

	if err := sess.Run(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	printed := out.String()
	for _, want := range []string{"在两个网络上发放", "提示: 已纠正网络名拼写", "[foo] 发放失败", "[sepolia] 已发放"} {
		if !strings.Contains(printed, want) {
			t.Fatalf("output missing %q: %s", want, printed)
		}
	}
}

func TestRunStopsOnContextCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	sess := New(&scriptedHandler{}, strings.NewReader("anything\n"), &bytes.Buffer{})
	if err := sess.Run(ctx); err == nil {
		t.Fatal("expected context error")
	}
}
