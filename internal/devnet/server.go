package devnet

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/spacemeshos/smh-collector/internal/ledger"
)

// maxBodySize is the maximum allowed request body size (1 MB).
const maxBodySize = 1 << 20

// gRPC status codes used in gateway error bodies.
const (
	codeInvalidArgument    = 3
	codeFailedPrecondition = 9
	codeInternal           = 13
)

// Server exposes a Ledger over the node's HTTP gateway paths.
type Server struct {
	addr   string
	ledger *Ledger
	server *http.Server
	logger zerolog.Logger
	ln     net.Listener
}

// NewServer creates a server for l listening on addr.
func NewServer(addr string, l *Ledger) *Server {
	s := &Server{
		addr:   addr,
		ledger: l,
		logger: l.logger,
	}

	mux := http.NewServeMux()
	mux.HandleFunc(ledger.PathAccountList, s.handleAccountList)
	mux.HandleFunc(ledger.PathSubmitTransaction, s.handleSubmit)
	mux.HandleFunc(ledger.PathTransactionList, s.handleTransactionList)

	s.server = &http.Server{
		Handler:      mux,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
	}
	return s
}

// Handler returns the HTTP handler, for use with httptest.
func (s *Server) Handler() http.Handler {
	return s.server.Handler
}

// Start begins listening and serving in a background goroutine.
// It returns immediately after the listener is bound.
func (s *Server) Start() error {
	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return fmt.Errorf("devnet listen: %w", err)
	}
	s.ln = ln

	go func() {
		if err := s.server.Serve(ln); err != nil && err != http.ErrServerClosed {
			s.logger.Error().Err(err).Msg("Devnet server error")
		}
	}()

	return nil
}

// Addr returns the listener address (useful when bound to :0).
func (s *Server) Addr() string {
	if s.ln != nil {
		return s.ln.Addr().String()
	}
	return s.addr
}

// URL returns the base URL clients should use.
func (s *Server) URL() string {
	return "http://" + s.Addr()
}

// Stop gracefully shuts down the server.
func (s *Server) Stop() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.server.Shutdown(ctx)
}

type accountListRequest struct {
	Addresses []string `json:"addresses"`
	Limit     int      `json:"limit"`
}

type wireSnapshot struct {
	Counter ledger.Decimal `json:"counter"`
	Balance ledger.Decimal `json:"balance"`
}

type wireAccount struct {
	Address   string       `json:"address"`
	Current   wireSnapshot `json:"current"`
	Projected wireSnapshot `json:"projected"`
}

type submitRequest struct {
	Transaction string `json:"transaction"`
}

type txListRequest struct {
	TxID []string `json:"txid"`
}

func (s *Server) handleAccountList(w http.ResponseWriter, r *http.Request) {
	var req accountListRequest
	if !s.decode(w, r, &req) {
		return
	}
	if len(req.Addresses) > ledger.MaxPerCall {
		writeError(w, http.StatusBadRequest, codeInvalidArgument, "too many addresses")
		return
	}
	states, err := s.ledger.Accounts(req.Addresses)
	if err != nil {
		writeError(w, http.StatusBadRequest, codeInvalidArgument, err.Error())
		return
	}
	accounts := make([]wireAccount, 0, len(states))
	for _, st := range states {
		accounts = append(accounts, wireAccount{
			Address: st.Address,
			Current: wireSnapshot{
				Counter: ledger.Decimal(fmt.Sprint(st.Current.Counter)),
				Balance: ledger.Decimal(st.Current.Balance.String()),
			},
			Projected: wireSnapshot{
				Counter: ledger.Decimal(fmt.Sprint(st.Projected.Counter)),
				Balance: ledger.Decimal(st.Projected.Balance.String()),
			},
		})
	}
	writeJSON(w, map[string]interface{}{"accounts": accounts})
}

func (s *Server) handleSubmit(w http.ResponseWriter, r *http.Request) {
	var req submitRequest
	if !s.decode(w, r, &req) {
		return
	}
	raw, err := base64.StdEncoding.DecodeString(req.Transaction)
	if err != nil {
		writeError(w, http.StatusBadRequest, codeInvalidArgument, "transaction: "+err.Error())
		return
	}
	id, err := s.ledger.Submit(raw)
	if err != nil {
		code := codeFailedPrecondition
		if errors.Is(err, ErrMalformed) {
			code = codeInvalidArgument
		}
		writeError(w, http.StatusBadRequest, code, err.Error())
		return
	}
	writeJSON(w, map[string]string{"txId": id})
}

func (s *Server) handleTransactionList(w http.ResponseWriter, r *http.Request) {
	var req txListRequest
	if !s.decode(w, r, &req) {
		return
	}
	if len(req.TxID) > ledger.MaxPerCall {
		writeError(w, http.StatusBadRequest, codeInvalidArgument, "too many ids")
		return
	}
	writeJSON(w, map[string]interface{}{"transactions": s.ledger.Lookup(req.TxID)})
}

// decode reads a JSON POST body into v. It writes the error response and
// returns false on failure.
func (s *Server) decode(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, codeInvalidArgument, "method not allowed")
		return false
	}
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodySize))
	if err != nil {
		writeError(w, http.StatusBadRequest, codeInvalidArgument, "read body: "+err.Error())
		return false
	}
	if err := json.Unmarshal(body, v); err != nil {
		writeError(w, http.StatusBadRequest, codeInvalidArgument, "parse body: "+err.Error())
		return false
	}
	s.logger.Debug().Str("path", r.URL.Path).Msg("Devnet request")
	return true
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	data, err := json.Marshal(v)
	if err != nil {
		writeError(w, http.StatusInternalServerError, codeInternal, err.Error())
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Write(data)
}

func writeError(w http.ResponseWriter, status, code int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	data, _ := json.Marshal(map[string]interface{}{"code": code, "message": msg})
	w.Write(data)
}
