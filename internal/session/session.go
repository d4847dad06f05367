package session

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"ChainDrip/internal/chain"
	xerrors "ChainDrip/internal/errors"
	"ChainDrip/internal/faucet"
	"ChainDrip/pkg/logger"
)

// Handler 处理一行用户输入。由 faucet.Service 实现，测试中可替换。
type Handler interface {
	Handle(ctx context.Context, rawText string) (*faucet.Outcome, error)
}

// Session 是面向命令行的交互循环：读取一行，跑完整条流水线，
// 打印结果，回到等待输入的状态。请求级错误只打印，循环本身
// 永远不会因此退出。
type Session struct {
	handler Handler
	in      io.Reader
	out     io.Writer
}

// New 创建会话循环。
func New(handler Handler, in io.Reader, out io.Writer) *Session {
	return &Session{handler: handler, in: in, out: out}
}

// Run 逐行处理输入，直到输入流结束、用户退出或上下文取消。
// 一行输入会被处理到底（包括全部网络的发放与确认）之后才读取
// 下一行，不存在并发中的会话。
func (s *Session) Run(ctx context.Context) error {
	scanner := bufio.NewScanner(s.in)
	scanner.Buffer(make([]byte, 0, 4096), 64*1024)

	s.printf("请输入领取请求，例如: send test tokens to 0x... on sepolia (输入 exit 退出)\n")

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		s.printf("> ")
		if !scanner.Scan() {
			if err := scanner.Err(); err != nil {
				return fmt.Errorf("读取输入失败: %w", err)
			}
			return nil
		}

		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if line == "exit" || line == "quit" {
			s.printf("再见。\n")
			return nil
		}

		outcome, err := s.handler.Handle(ctx, line)
		if err != nil {
			s.printError(err)
			continue
		}
		s.printOutcome(outcome)
	}
}

// printError 把请求级错误转成用户可读的提示，会话继续。
func (s *Session) printError(err error) {
	switch xerrors.CodeOf(err) {
	case xerrors.CodeUnderstanding:
		s.printf("无法理解该请求: %s\n", messageOf(err))
	case xerrors.CodeMalformedResponse:
		s.printf("抽取结果不完整，请换一种说法再试: %s\n", messageOf(err))
	case xerrors.CodeTimeout:
		s.printf("处理超时: %s\n", messageOf(err))
	default:
		s.printf("处理失败: %v\n", err)
	}
	logger.Named("session").Warn("请求处理失败", "code", xerrors.CodeOf(err), "error", err)
}

func (s *Session) printOutcome(outcome *faucet.Outcome) {
	if outcome == nil {
		return
	}
	if outcome.Explanation != "" {
		s.printf("%s\n", outcome.Explanation)
	}
	for _, warning := range outcome.Warnings {
		s.printf("提示: %s\n", warning)
	}
	for _, result := range outcome.Results {
		if result.Error != "" && result.TxHash == "" {
			s.printf("[%s] 发放失败: %s\n", result.Network, result.Error)
			continue
		}
		s.printf("[%s] 已发放 %s %s, 交易 %s, 状态: %s\n",
			result.Network, result.Amount, result.Symbol, result.TxHash, statusText(result.Status))
		if result.Error != "" {
			s.printf("[%s] 注意: %s\n", result.Network, result.Error)
		}
	}
}

func statusText(status chain.TxStatus) string {
	switch status {
	case chain.StatusSuccess:
		return "已确认"
	case chain.StatusFailed:
		return "执行失败"
	case chain.StatusPending:
		return "等待确认"
	default:
		return "未知"
	}
}

func messageOf(err error) string {
	if e, ok := xerrors.From(err); ok {
		return e.Message()
	}
	return err.Error()
}

func (s *Session) printf(format string, args ...any) {
	fmt.Fprintf(s.out, format, args...)
}
