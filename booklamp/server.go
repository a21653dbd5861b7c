package booklamp

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/mengeric/booklamp-jobs-go/client"
	"github.com/mengeric/booklamp-jobs-go/logging"
	"github.com/mengeric/booklamp-jobs-go/metrics"
	"github.com/mengeric/booklamp-jobs-go/scheduler"
)

// Server 任务服务主对象：提供 /api/jobs 接口与后台清理。
// 说明：Start(ctx) 启动 HTTP Server（监听 Options.ListenAddr）与清理任务，
// ctx 结束时优雅关闭并取消仍在运行的处理器。
type Server struct {
	opt     Options
	store   JobStore
	queue   *Queue
	janitor *scheduler.Janitor

	base   context.Context
	cancel context.CancelFunc

	srv    *http.Server
	addrMu sync.RWMutex
	addr   string
}

// NewServer 创建 Server；未显式传入存储时使用内置内存存储。
func NewServer(opts ...Option) *Server {
	cfg := &serverConfig{}
	for _, fn := range opts {
		fn(cfg)
	}
	cfg.opt.withDefaults()
	if cfg.store == nil {
		cfg.store = newDefaultMemStore()
	}
	base, cancel := context.WithCancel(context.Background())
	s := &Server{opt: cfg.opt, store: cfg.store, base: base, cancel: cancel}
	s.queue = NewQueue(base, cfg.store)
	s.janitor = scheduler.NewJanitor(cfg.store, cfg.opt.JobRetention, cfg.opt.JanitorEvery)
	return s
}

// Queue 返回任务队列（供宿主直接提交任务）。
func (s *Server) Queue() *Queue { return s.queue }

// Handler 返回路由，便于挂载到宿主 mux 或 httptest。
// 端点：GET /api/jobs/{id}、POST /api/jobs、GET /api/system
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/jobs/{id}", s.handleGetJob)
	mux.HandleFunc("POST /api/jobs", s.handleSubmitJob)
	mux.HandleFunc("GET /api/system", s.handleSystem)
	return mux
}

// Start 启动监听与后台清理，监听失败时返回错误。
func (s *Server) Start(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.opt.ListenAddr)
	if err != nil {
		logging.L().Errorf(ctx, "listen failed: addr=%s err=%v", s.opt.ListenAddr, err)
		return err
	}
	s.addrMu.Lock()
	s.addr = ln.Addr().String()
	s.addrMu.Unlock()
	s.srv = &http.Server{Handler: s.Handler(), ReadHeaderTimeout: 10 * time.Second}
	go func() {
		<-ctx.Done()
		s.cancel()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.srv.Shutdown(shutdownCtx)
	}()
	go func() {
		if err := s.srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logging.L().Error(ctx, "serve failed", "err", err)
		}
	}()
	s.janitor.Start(ctx)
	logging.L().Info(ctx, "job server started", "addr", s.Addr())
	return nil
}

// Addr 返回实际监听地址（用于测试或 :0 随机端口场景）。
func (s *Server) Addr() string { s.addrMu.RLock(); defer s.addrMu.RUnlock(); return s.addr }

// handleGetJob 查询任务状态，未知任务返回 404。
func (s *Server) handleGetJob(rw http.ResponseWriter, r *http.Request) {
	job, err := s.queue.Get(r.Context(), r.PathValue("id"))
	if errors.Is(err, client.ErrJobNotFound) {
		writeErr(rw, http.StatusNotFound, err)
		return
	}
	if err != nil {
		writeErr(rw, http.StatusInternalServerError, err)
		return
	}
	writeJSON(rw, http.StatusOK, job)
}

// handleSubmitJob 提交任务，返回 202 与任务 ID。
func (s *Server) handleSubmitJob(rw http.ResponseWriter, r *http.Request) {
	var req client.SubmitJobReq
	if err := json.NewDecoder(io.LimitReader(r.Body, 8<<20)).Decode(&req); err != nil {
		writeErr(rw, http.StatusBadRequest, err)
		return
	}
	if req.FunctionName == "" {
		writeErr(rw, http.StatusBadRequest, errors.New("function_name is required"))
		return
	}
	id, err := s.queue.Submit(r.Context(), req.FunctionName, []byte(req.Params))
	if err != nil {
		writeErr(rw, http.StatusInternalServerError, err)
		return
	}
	writeJSON(rw, http.StatusAccepted, client.SubmitJobResp{ID: id})
}

func (s *Server) handleSystem(rw http.ResponseWriter, r *http.Request) {
	writeJSON(rw, http.StatusOK, metrics.Collect(r.Context()))
}

// writeErr/JSON 公共返回工具。
func writeErr(w http.ResponseWriter, code int, err error) {
	writeJSON(w, code, client.ErrorResp{Success: false, Message: err.Error()})
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}
