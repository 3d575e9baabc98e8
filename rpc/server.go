// Package rpc exposes the engine over HTTP: a submit endpoint used by the
// sequential command driver plus read-only query routes for indexers and
// operators.
package rpc

import (
	"encoding/binary"
	"encoding/hex"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"sync"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"certledger/core"
	"certledger/core/certificate"
	"certledger/core/events"
	"certledger/core/ledger"
	"certledger/core/types"
	"certledger/observability/metrics"
)

// Server serialises command execution: the engine requires strictly
// sequential application, so every submit holds the mutex.
type Server struct {
	engine   *core.Engine
	recorder *events.Recorder
	logger   *slog.Logger
	mu       sync.Mutex
}

// NewServer wires the engine behind the HTTP surface. When a recorder is
// provided it is drained after every command and the emitted events are
// returned to the submitter.
func NewServer(engine *core.Engine, recorder *events.Recorder, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{engine: engine, recorder: recorder, logger: logger}
}

// Router assembles the HTTP routes with request-id tagging and per-client
// rate limiting.
func (s *Server) Router(limiter *RateLimiter) http.Handler {
	r := chi.NewRouter()
	r.Use(RequestID)
	if limiter != nil {
		r.Use(limiter.Middleware)
	}

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Handle("/metrics", promhttp.Handler())

	r.Post("/v1/commands", s.handleSubmit)
	r.Post("/v1/settlement/flush", s.handleSettlementFlush)
	r.Get("/v1/state", s.handleState)
	r.Get("/v1/account/{identity}", s.handleAccount)
	r.Get("/v1/certificate/{id}", s.handleCertificate)
	r.Get("/v1/product/{id}", s.handleProduct)
	return r
}

type submitRequest struct {
	// Caller is the hex-encoded 32-byte public key of the submitter.
	Caller string   `json:"caller"`
	Nonce  uint64   `json:"nonce"`
	Opcode uint64   `json:"opcode"`
	Params []uint64 `json:"params"`
}

type submitResponse struct {
	TxID   uint64         `json:"txId"`
	Code   uint32         `json:"code"`
	Tag    string         `json:"tag,omitempty"`
	Events []*types.Event `json:"events,omitempty"`
	// Wire carries the same events in the host's tagged u64 record stream,
	// hex-encoded, for indexers that consume the binary form.
	Wire string `json:"wire,omitempty"`
}

func (s *Server) handleSubmit(w http.ResponseWriter, r *http.Request) {
	var req submitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	caller, err := decodeCallerKey(req.Caller)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	env := core.Envelope{
		Nonce:  req.Nonce,
		Opcode: core.Opcode(req.Opcode),
		Params: req.Params,
	}

	s.mu.Lock()
	intentsBefore := s.engine.SettlementSize()
	receipt, execErr := s.engine.Execute(caller, env)
	intentsAfter := s.engine.SettlementSize()
	var emitted []*types.Event
	var wire string
	if s.recorder != nil {
		batch := s.recorder.Drain()
		for _, e := range batch {
			if attributed, ok := e.(interface{ Event() *types.Event }); ok {
				emitted = append(emitted, attributed.Event())
			}
		}
		if len(batch) > 0 {
			wire = hex.EncodeToString(events.EncodeWire(batch))
		}
	}
	s.mu.Unlock()

	m := metrics.Engine()
	m.ObserveCommand(strconv.FormatUint(req.Opcode, 10), execErr == nil)
	for i := intentsBefore; i < intentsAfter; i++ {
		m.ObserveSettlementIntent()
	}
	if execErr != nil {
		m.ObserveFailure(core.ErrorCategory(execErr))
		s.logger.Info("command rejected",
			slog.String("requestId", RequestIDFromContext(r.Context())),
			slog.Uint64("opcode", req.Opcode),
			slog.String("tag", receipt.Tag),
			slog.Any("error", execErr))
	} else if snapshot, err := s.engine.Snapshot(); err == nil {
		m.SetTick(snapshot.Counter)
	}

	writeJSON(w, http.StatusOK, submitResponse{
		TxID:   receipt.TxID,
		Code:   receipt.Code,
		Tag:    receipt.Tag,
		Events: emitted,
		Wire:   wire,
	})
}

type flushResponse struct {
	Intents int `json:"intents"`
	// Payload is the drained settlement batch in the host transfer
	// encoding, hex-encoded. Empty when no intents were pending.
	Payload string `json:"payload,omitempty"`
}

// handleSettlementFlush drains the pending settlement intents and hands the
// encoded batch to the external transfer executor. Draining is destructive,
// so the route is a POST.
func (s *Server) handleSettlementFlush(w http.ResponseWriter, _ *http.Request) {
	s.mu.Lock()
	pending := s.engine.SettlementSize()
	payload := s.engine.FlushSettlement()
	s.mu.Unlock()

	writeJSON(w, http.StatusOK, flushResponse{
		Intents: pending,
		Payload: hex.EncodeToString(payload),
	})
}

func (s *Server) handleState(w http.ResponseWriter, _ *http.Request) {
	snapshot, err := s.engine.Snapshot()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "state unavailable")
		return
	}
	writeJSON(w, http.StatusOK, snapshot)
}

func (s *Server) handleAccount(w http.ResponseWriter, r *http.Request) {
	id, err := decodeIdentity(chi.URLParam(r, "identity"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid identity")
		return
	}
	state, err := s.engine.PlayerState(id)
	if err != nil {
		if errors.Is(err, ledger.ErrNotFound) {
			writeError(w, http.StatusNotFound, "account not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "state unavailable")
		return
	}
	writeJSON(w, http.StatusOK, state)
}

func (s *Server) handleCertificate(w http.ResponseWriter, r *http.Request) {
	certID, err := strconv.ParseUint(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid certificate id")
		return
	}
	view, err := s.engine.CertificateView(certID)
	if err != nil {
		if errors.Is(err, certificate.ErrNotFound) {
			writeError(w, http.StatusNotFound, "certificate not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "state unavailable")
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (s *Server) handleProduct(w http.ResponseWriter, r *http.Request) {
	productID, err := strconv.ParseUint(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid product id")
		return
	}
	product, err := s.engine.ProductTypeView(productID)
	if err != nil {
		if errors.Is(err, certificate.ErrProductNotFound) {
			writeError(w, http.StatusNotFound, "product type not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "state unavailable")
		return
	}
	writeJSON(w, http.StatusOK, product)
}

func decodeCallerKey(value string) ([4]uint64, error) {
	var key [4]uint64
	raw, err := hex.DecodeString(strings.TrimPrefix(strings.TrimSpace(value), "0x"))
	if err != nil || len(raw) != 32 {
		return key, errors.New("caller must be a hex-encoded 32-byte key")
	}
	for i := range key {
		key[i] = binary.BigEndian.Uint64(raw[8*i:])
	}
	return key, nil
}

func decodeIdentity(value string) (ledger.Identity, error) {
	var id ledger.Identity
	raw, err := hex.DecodeString(strings.TrimPrefix(strings.TrimSpace(value), "0x"))
	if err != nil || len(raw) != 16 {
		return id, errors.New("identity must be hex-encoded 16 bytes")
	}
	id[0] = binary.BigEndian.Uint64(raw[:8])
	id[1] = binary.BigEndian.Uint64(raw[8:])
	return id, nil
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
