package metarelay

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/everFinance/metarelay/gateway"
	"github.com/everFinance/metarelay/schema"
	"github.com/everFinance/metarelay/signer"
)

// AdmissionGate validates incoming intents and inserts the accepted ones into the pending set.
type AdmissionGate struct {
	verifier *signer.Verifier
	nonces   gateway.NonceReader
	pending  *PendingSet
	timeout  time.Duration
}

func NewAdmissionGate(verifier *signer.Verifier, nonces gateway.NonceReader, pending *PendingSet, timeout time.Duration) *AdmissionGate {
	if timeout <= 0 {
		timeout = schema.DefaultRpcTimeout
	}
	return &AdmissionGate{
		verifier: verifier,
		nonces:   nonces,
		pending:  pending,
		timeout:  timeout,
	}
}

// Admit checks structure, signature, on-chain nonce and duplicates, in that order.
// Errors wrap schema.ErrMalformedRequest, schema.ErrTooManyRequests or schema.ErrGatewayUnavailable.
func (a *AdmissionGate) Admit(ctx context.Context, req *schema.TxRequest) (tx *schema.MetaTxWithSig, err error) {
	defer func() {
		metricAdmission(err)
		pendingGauge.Set(float64(a.pending.Len()))
	}()

	tx, err = req.Parse()
	if err != nil {
		return nil, err
	}

	signerAddr, err := a.verifier.Recover(tx.MetaTx, tx.Signature)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", schema.ErrMalformedRequest, err)
	}
	if signerAddr != tx.MetaTx.From {
		return nil, fmt.Errorf("%w: signer mismatch", schema.ErrMalformedRequest)
	}

	nonceCtx, cancel := context.WithTimeout(ctx, a.timeout)
	onChain, err := a.nonces.GetNonce(nonceCtx, tx.MetaTx.From)
	cancel()
	if err != nil {
		log.Error("a.nonces.GetNonce(from)", "err", err, "from", tx.MetaTx.From.Hex())
		return nil, fmt.Errorf("%w: %v", schema.ErrGatewayUnavailable, err)
	}
	if onChain.Cmp(tx.MetaTx.Nonce) != 0 {
		return nil, fmt.Errorf("%w: nonce mismatch", schema.ErrMalformedRequest)
	}

	if err = a.pending.Add(tx); err != nil {
		return nil, err
	}
	log.Info("admit meta tx", "from", tx.MetaTx.From.Hex(), "to", tx.MetaTx.To.Hex(), "nonce", tx.MetaTx.Nonce.String())
	return tx, nil
}

func admissionResult(err error) string {
	switch {
	case err == nil:
		return "accepted"
	case errors.Is(err, schema.ErrMalformedRequest):
		return "malformed"
	case errors.Is(err, schema.ErrTooManyRequests):
		return "too_many_requests"
	case errors.Is(err, schema.ErrGatewayUnavailable):
		return "gateway_unavailable"
	default:
		return "error"
	}
}
