// Package reporter serves the mirrored state over HTTP and accepts
// caller-submitted transfers for later verification.
package reporter

import (
	"context"
	"errors"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/TEENet-io/bridge-mirror/common"
	"github.com/TEENet-io/bridge-mirror/state"
	"github.com/TEENet-io/bridge-mirror/tokens"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	logger "github.com/sirupsen/logrus"
)

const (
	ROUTE_HEALTH        = "/health"
	ROUTE_INBOUND       = "/transactions/inbound"
	ROUTE_OUTBOUND      = "/transactions/outbound"
	ROUTE_TRANSACTIONS  = "/transactions"
	ROUTE_SEARCH        = "/transactions/search"
	ROUTE_BRIDGE_PAIRS  = "/bridge_pairs"
	ROUTE_EVM_TOKENS    = "/tokens/evm"
	ROUTE_LEDGER_TOKENS = "/tokens/ledger"
	ROUTE_SOURCES       = "/sources"
	ROUTE_DEX           = "/dex"
	ROUTE_METRICS       = "/metrics"
)

const shutdownTimeout = 5 * time.Second

type HttpReporter struct {
	serverIP   string // listen ip
	serverPort string // listen port

	st  *state.State
	now func() time.Time
}

func NewHttpReporter(serverIP string, serverPort string, st *state.State) *HttpReporter {
	return &HttpReporter{
		serverIP:   serverIP,
		serverPort: serverPort,
		st:         st,
		now:        time.Now,
	}
}

// Hook up routes & handlers
func (h *HttpReporter) SetupRouter() *gin.Engine {
	registerValidators()
	router := gin.Default()

	router.GET(ROUTE_HEALTH, Health)

	router.POST(ROUTE_INBOUND, h.RecordInbound)
	router.POST(ROUTE_OUTBOUND, h.RecordOutbound)
	router.GET(ROUTE_TRANSACTIONS, h.Transactions)
	router.GET(ROUTE_SEARCH, h.Search)

	router.GET(ROUTE_BRIDGE_PAIRS, h.BridgePairs)
	router.GET(ROUTE_EVM_TOKENS, h.EvmTokens)
	router.PUT(ROUTE_EVM_TOKENS+"/:chain_id/:address/price", h.SetEvmTokenPrice)
	router.GET(ROUTE_LEDGER_TOKENS, h.LedgerTokens)
	router.PUT(ROUTE_LEDGER_TOKENS+"/:ledger_id/price", h.SetLedgerTokenPrice)
	router.DELETE(ROUTE_LEDGER_TOKENS+"/:ledger_id", h.InvalidateLedgerToken)

	router.GET(ROUTE_SOURCES, h.Sources)
	router.GET(ROUTE_DEX+"/:principal", h.DexActions)

	router.GET(ROUTE_METRICS, gin.WrapH(promhttp.Handler()))

	return router
}

// Run serves until ctx is done.
func (h *HttpReporter) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:    net.JoinHostPort(h.serverIP, h.serverPort),
		Handler: h.SetupRouter(),
	}

	errCh := make(chan error, 1)
	go func() {
		logger.WithField("addr", srv.Addr).Info("http reporter listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		return ctx.Err()
	}
}

func Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func errorStatus(err error) int {
	switch {
	case errors.Is(err, state.ErrDuplicateRecord):
		return http.StatusConflict
	case errors.Is(err, common.ErrUnsupportedChain), errors.Is(err, state.ErrUnsupportedToken):
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

func (h *HttpReporter) fail(c *gin.Context, err error) {
	status := errorStatus(err)
	if status == http.StatusInternalServerError {
		logger.WithFields(logger.Fields{
			"route": c.FullPath(),
			"err":   err,
		}).Error("request failed")
	}
	c.JSON(status, gin.H{"error": err.Error()})
}

func (h *HttpReporter) timestamp() uint64 {
	return uint64(h.now().UnixNano())
}

func (h *HttpReporter) RecordInbound(c *gin.Context) {
	var req InboundRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	rec := req.toRecord(h.timestamp())
	err := h.st.Mutate(c.Request.Context(), func(tx *state.StateTx) error {
		return tx.ClaimInbound(rec)
	})
	if err != nil {
		h.fail(c, err)
		return
	}
	logger.WithFields(logger.Fields{
		"chain":   rec.ChainId.Name(),
		"tx_hash": common.Shorten(rec.TransactionHash.Hex(), 6),
	}).Info("recorded unverified inbound")
	c.JSON(http.StatusCreated, gin.H{"data": rec})
}

func (h *HttpReporter) RecordOutbound(c *gin.Context) {
	var req OutboundRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	rec := req.toRecord(h.timestamp())
	err := h.st.Mutate(c.Request.Context(), func(tx *state.StateTx) error {
		return tx.ClaimOutbound(rec)
	})
	if err != nil {
		h.fail(c, err)
		return
	}
	logger.WithFields(logger.Fields{
		"chain":      rec.ChainId.Name(),
		"burn_index": rec.NativeLedgerBurnIndex,
	}).Info("recorded unverified outbound")
	c.JSON(http.StatusCreated, gin.H{"data": rec})
}

// Transactions lists the transfers of an EVM address or a principal.
func (h *HttpReporter) Transactions(c *gin.Context) {
	address := c.Query("address")
	principal := c.Query("principal")
	if address == "" && principal == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Either address or principal must be provided"})
		return
	}

	var p state.Participant
	if address != "" {
		addr, err := common.ParseEvmAddress(address)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		p.Address = &addr
	}
	if principal != "" {
		pr, err := common.ParsePrincipal(principal)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		p.Principal = &pr
	}

	var txs *state.Transactions
	err := h.st.Read(c.Request.Context(), func(tx *state.StateTx) error {
		var err error
		txs, err = tx.TransactionsByParticipant(p)
		return err
	})
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": txs})
}

// Search takes a transaction hash or a ledger block index.
func (h *HttpReporter) Search(c *gin.Context) {
	q := strings.TrimSpace(c.Query("q"))
	if q == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "q must be provided"})
		return
	}

	var txs *state.Transactions
	err := h.st.Read(c.Request.Context(), func(tx *state.StateTx) error {
		if hash, err := common.ParseTxHash(q); err == nil {
			var err error
			txs, err = tx.SearchByTxHash(hash)
			return err
		}

		idx, err := strconv.ParseUint(q, 10, 64)
		if err != nil {
			return errBadQuery
		}
		txs = &state.Transactions{}
		if txs.Inbound, err = tx.InboundByMintIndex(idx); err != nil {
			return err
		}
		txs.Outbound, err = tx.OutboundByBurnIndex(idx)
		return err
	})
	if errors.Is(err, errBadQuery) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "q must be a transaction hash or a block index"})
		return
	}
	if err != nil {
		h.fail(c, err)
		return
	}
	if len(txs.Inbound) == 0 && len(txs.Outbound) == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "No transaction found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": txs})
}

var errBadQuery = errors.New("bad query")

func (h *HttpReporter) BridgePairs(c *gin.Context) {
	h.list(c, func(tx *state.StateTx) (any, error) { return tx.BridgePairs() })
}

func (h *HttpReporter) EvmTokens(c *gin.Context) {
	h.list(c, func(tx *state.StateTx) (any, error) { return tx.EvmTokens() })
}

func (h *HttpReporter) LedgerTokens(c *gin.Context) {
	h.list(c, func(tx *state.StateTx) (any, error) { return tx.LedgerTokens() })
}

func (h *HttpReporter) Sources(c *gin.Context) {
	h.list(c, func(tx *state.StateTx) (any, error) { return tx.Sources() })
}

func (h *HttpReporter) DexActions(c *gin.Context) {
	p, err := common.ParsePrincipal(c.Param("principal"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	h.list(c, func(tx *state.StateTx) (any, error) { return tx.DexActions(p) })
}

func (h *HttpReporter) list(c *gin.Context, fn func(tx *state.StateTx) (any, error)) {
	var data any
	err := h.st.Read(c.Request.Context(), func(tx *state.StateTx) error {
		var err error
		data, err = fn(tx)
		return err
	})
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": data})
}

func bindPrice(c *gin.Context) (string, bool) {
	var req PriceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return "", false
	}
	price, err := tokens.NormalizeUsdPrice(req.UsdPrice)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return "", false
	}
	return price, true
}

func (h *HttpReporter) SetEvmTokenPrice(c *gin.Context) {
	chain, err := common.ParseChainId(c.Param("chain_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	addr, err := common.ParseEvmAddress(c.Param("address"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	price, ok := bindPrice(c)
	if !ok {
		return
	}

	var token *state.EvmToken
	err = h.st.Mutate(c.Request.Context(), func(tx *state.StateTx) error {
		t, ok, err := tx.GetEvmToken(chain, addr)
		if err != nil || !ok {
			return err
		}
		t.UsdPrice = price
		token = t
		return tx.UpsertEvmToken(t)
	})
	h.priceResult(c, token != nil, token, err)
}

func (h *HttpReporter) SetLedgerTokenPrice(c *gin.Context) {
	id, err := common.ParsePrincipal(c.Param("ledger_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	price, ok := bindPrice(c)
	if !ok {
		return
	}

	var token *state.LedgerToken
	err = h.st.Mutate(c.Request.Context(), func(tx *state.StateTx) error {
		t, ok, err := tx.GetLedgerToken(id)
		if err != nil || !ok {
			return err
		}
		t.UsdPrice = price
		token = t
		return tx.UpsertLedgerToken(t)
	})
	h.priceResult(c, token != nil, token, err)
}

// InvalidateLedgerToken drops stored ledger metadata so the validator
// fetches it again on its next cycle.
func (h *HttpReporter) InvalidateLedgerToken(c *gin.Context) {
	id, err := common.ParsePrincipal(c.Param("ledger_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	found := false
	err = h.st.Mutate(c.Request.Context(), func(tx *state.StateTx) error {
		var err error
		if _, found, err = tx.GetLedgerToken(id); err != nil || !found {
			return err
		}
		return tx.RemoveLedgerToken(id)
	})
	switch {
	case err != nil:
		h.fail(c, err)
	case !found:
		c.JSON(http.StatusNotFound, gin.H{"error": "No token found"})
	default:
		c.Status(http.StatusNoContent)
	}
}

func (h *HttpReporter) priceResult(c *gin.Context, found bool, token any, err error) {
	switch {
	case err != nil:
		h.fail(c, err)
	case !found:
		c.JSON(http.StatusNotFound, gin.H{"error": "No token found"})
	default:
		c.JSON(http.StatusOK, gin.H{"data": token})
	}
}
