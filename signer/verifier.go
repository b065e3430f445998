package signer

import (
	"crypto/ecdsa"
	"errors"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/signer/core/apitypes"
	"github.com/everFinance/metarelay/schema"
)

var ErrMalformedSignature = errors.New("malformed_signature")

// RecoverSigner returns the address that signed message under domain and types.
// A different domain recovers a different address without failing, so domain must never come from a caller.
func RecoverSigner(domain Domain, types apitypes.Types, primaryType string, message apitypes.TypedDataMessage, sig []byte) (common.Address, error) {
	if len(sig) != crypto.SignatureLength {
		return common.Address{}, fmt.Errorf("%w: length %d", ErrMalformedSignature, len(sig))
	}
	digest, err := HashTypedData(domain, types, primaryType, message)
	if err != nil {
		return common.Address{}, err
	}

	rsv := make([]byte, crypto.SignatureLength)
	copy(rsv, sig)
	v := rsv[crypto.RecoveryIDOffset]
	if v >= 27 {
		v -= 27
	}
	r := new(big.Int).SetBytes(rsv[:32])
	s := new(big.Int).SetBytes(rsv[32:64])
	// homestead rules: s in the lower half order, same as the on-chain ecrecover wrapper
	if !crypto.ValidateSignatureValues(v, r, s, true) {
		return common.Address{}, fmt.Errorf("%w: invalid r, s or v", ErrMalformedSignature)
	}
	rsv[crypto.RecoveryIDOffset] = v

	pub, err := crypto.SigToPub(digest, rsv)
	if err != nil {
		return common.Address{}, fmt.Errorf("%w: %v", ErrMalformedSignature, err)
	}
	return crypto.PubkeyToAddress(*pub), nil
}

// Verifier recovers MetaTx signers under the one domain the relay was deployed with.
type Verifier struct {
	domain Domain
}

func NewVerifier(domain Domain) *Verifier {
	return &Verifier{domain: domain.copy()}
}

func (v *Verifier) Domain() Domain {
	return v.domain.copy()
}

func (v *Verifier) Recover(tx schema.MetaTx, sig []byte) (common.Address, error) {
	return RecoverSigner(v.domain, MetaTxTypes, PrimaryType, MetaTxMessage(tx), sig)
}

// SignMetaTx produces the 65 byte r‖s‖v signature a wallet would return for tx, with v in {27,28}.
func SignMetaTx(key *ecdsa.PrivateKey, domain Domain, tx schema.MetaTx) ([]byte, error) {
	digest, err := HashTypedData(domain, MetaTxTypes, PrimaryType, MetaTxMessage(tx))
	if err != nil {
		return nil, err
	}
	sig, err := crypto.Sign(digest, key)
	if err != nil {
		return nil, fmt.Errorf("failed to sign: %w", err)
	}
	sig[crypto.RecoveryIDOffset] += 27
	return sig, nil
}
