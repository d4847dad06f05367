package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"ChainDrip/internal/chain/registry"
	xerrors "ChainDrip/internal/errors"
	"ChainDrip/internal/observability/metrics"
	"ChainDrip/internal/session"
)

// Server 暴露 REST 接口，让水龙头可以同时作为 Web 服务使用。
// 处理流水线与命令行会话完全相同。
type Server struct {
	addr     string
	handler  session.Handler
	registry *registry.Registry
}

// NewServer 构造 API 服务实例。
func NewServer(addr string, handler session.Handler, reg *registry.Registry) *Server {
	return &Server{addr: addr, handler: handler, registry: reg}
}

// Start 启动 HTTP 服务，直到上下文取消或出现错误。
func (s *Server) Start(ctx context.Context) error {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/v1/drips", s.handleDrips)
	mux.HandleFunc("/api/v1/networks", s.handleNetworks)
	mux.HandleFunc("/healthz", s.handleHealth)
	mux.Handle("/metrics", metrics.Handler())

	server := &http.Server{
		Addr:              s.addr,
		Handler:           withContext(ctx, mux),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
		return ctx.Err()
	case err := <-errCh:
		return err
	}
}

// dripRequest 是 POST /api/v1/drips 的请求体。
type dripRequest struct {
	Text string `json:"text"`
}

// handleDrips 处理一次完整的领取请求。
func (s *Server) handleDrips(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.replyError(w, r, http.StatusMethodNotAllowed, "仅支持 POST")
		return
	}
	if s.handler == nil {
		s.replyError(w, r, http.StatusServiceUnavailable, "服务未初始化")
		return
	}

	var req dripRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.replyError(w, r, http.StatusBadRequest, "请求体解析失败")
		return
	}

	outcome, err := s.handler.Handle(r.Context(), req.Text)
	if err != nil {
		s.replyError(w, r, statusFor(err), err.Error())
		return
	}

	s.replyJSON(w, r, http.StatusOK, outcome)
}

// handleNetworks 返回当前目录中的网络及发放策略。
func (s *Server) handleNetworks(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.replyError(w, r, http.StatusMethodNotAllowed, "仅支持 GET")
		return
	}

	type networkView struct {
		Name    string `json:"name"`
		ChainID uint64 `json:"chain_id"`
		Symbol  string `json:"symbol"`
		Amount  string `json:"amount"`
	}

	views := make([]networkView, 0)
	if s.registry != nil {
		for _, name := range s.registry.Names() {
			network, ok := s.registry.Lookup(name)
			if !ok {
				continue
			}
			def := network.Definition
			views = append(views, networkView{
				Name:    def.Name,
				ChainID: def.ChainID,
				Symbol:  def.Faucet.Symbol,
				Amount:  def.Faucet.Amount,
			})
		}
	}
	s.replyJSON(w, r, http.StatusOK, views)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.replyJSON(w, r, http.StatusOK, map[string]string{"status": "ok"})
}

// statusFor 将请求级错误码映射到 HTTP 状态码。
func statusFor(err error) int {
	switch xerrors.CodeOf(err) {
	case xerrors.CodeUnderstanding:
		return http.StatusUnprocessableEntity
	case xerrors.CodeMalformedResponse:
		return http.StatusBadGateway
	case xerrors.CodeTimeout:
		return http.StatusGatewayTimeout
	case xerrors.CodeInitializationFailure:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) replyJSON(w http.ResponseWriter, r *http.Request, status int, body any) {
	metrics.ObserveHTTPRequest(r.URL.Path, r.Method, status)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func (s *Server) replyError(w http.ResponseWriter, r *http.Request, status int, message string) {
	metrics.ObserveHTTPRequest(r.URL.Path, r.Method, status)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": message})
}

// withContext 确保请求处理能够感知根上下文取消。
func withContext(ctx context.Context, handler http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-ctx.Done():
			http.Error(w, "服务已关闭", http.StatusServiceUnavailable)
			return
		default:
		}
		handler.ServeHTTP(w, r)
	})
}
