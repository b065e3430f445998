package schema

import (
	"encoding/base64"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
)

// MetaTx is the user intent covered by the typed-data signature.
// Field names match the settlement contract tuple so it can be abi packed as is.
type MetaTx struct {
	From   common.Address
	To     common.Address
	Token  common.Address
	Amount *big.Int
	Nonce  *big.Int
}

// MetaTxWithSig is an admitted intent. It is never mutated after admission.
type MetaTxWithSig struct {
	MetaTx    MetaTx
	Signature []byte
}

type RawMetaTx struct {
	From   string   `json:"from"`
	To     string   `json:"to"`
	Token  string   `json:"token"`
	Amount string   `json:"amount"` // decimal string, uint256
	Nonce  *big.Int `json:"nonce"`  // json number
}

// TxRequest is the body of POST /transaction, also returned by GET /transaction.
type TxRequest struct {
	MetaTx    *RawMetaTx `json:"metaTx"`
	Signature string     `json:"signature"` // 0x hex or std base64
}

// Parse validates the request structure. Every failure wraps ErrMalformedRequest.
func (r *TxRequest) Parse() (*MetaTxWithSig, error) {
	if r == nil || r.MetaTx == nil {
		return nil, malformed("metaTx is null")
	}
	raw := r.MetaTx
	if !IsValidAddress(raw.From) {
		return nil, malformed("invalid from address")
	}
	if !IsValidAddress(raw.To) {
		return nil, malformed("invalid to address")
	}
	if !IsValidAddress(raw.Token) {
		return nil, malformed("invalid token address")
	}
	amount, err := ParseUint256(raw.Amount)
	if err != nil {
		return nil, malformed("invalid amount: " + err.Error())
	}
	if raw.Nonce == nil {
		return nil, malformed("nonce is null")
	}
	if raw.Nonce.Sign() < 0 || raw.Nonce.BitLen() > 256 {
		return nil, malformed("nonce out of range")
	}
	sig, err := DecodeSignature(r.Signature)
	if err != nil {
		return nil, malformed("invalid signature: " + err.Error())
	}

	return &MetaTxWithSig{
		MetaTx: MetaTx{
			From:   common.HexToAddress(raw.From),
			To:     common.HexToAddress(raw.To),
			Token:  common.HexToAddress(raw.Token),
			Amount: amount,
			Nonce:  new(big.Int).Set(raw.Nonce),
		},
		Signature: sig,
	}, nil
}

// ToTxRequest renders an admitted intent in the request wire shape.
func ToTxRequest(tx *MetaTxWithSig) TxRequest {
	return TxRequest{
		MetaTx: &RawMetaTx{
			From:   tx.MetaTx.From.Hex(),
			To:     tx.MetaTx.To.Hex(),
			Token:  tx.MetaTx.Token.Hex(),
			Amount: tx.MetaTx.Amount.String(),
			Nonce:  new(big.Int).Set(tx.MetaTx.Nonce),
		},
		Signature: hexutil.Encode(tx.Signature),
	}
}

func malformed(reason string) error {
	return fmt.Errorf("%w: %s", ErrMalformedRequest, reason)
}

// IsValidAddress accepts 20-byte hex addresses. Mixed case input must carry a valid EIP-55 checksum.
func IsValidAddress(addr string) bool {
	if !common.IsHexAddress(addr) {
		return false
	}
	body := strings.TrimPrefix(strings.TrimPrefix(addr, "0x"), "0X")
	if body == strings.ToLower(body) || body == strings.ToUpper(body) {
		return true
	}
	return common.HexToAddress(addr).Hex()[2:] == body
}

func ParseUint256(s string) (*big.Int, error) {
	if len(s) == 0 {
		return nil, fmt.Errorf("empty value")
	}
	if strings.HasPrefix(s, "+") {
		return nil, fmt.Errorf("explicit sign not allowed")
	}
	v, ok := new(big.Int).SetString(s, 10)
	if !ok {
		return nil, fmt.Errorf("not a decimal integer: %s", s)
	}
	if v.Sign() < 0 {
		return nil, fmt.Errorf("negative value: %s", s)
	}
	if v.BitLen() > 256 {
		return nil, fmt.Errorf("overflows uint256: %s", s)
	}
	return v, nil
}

func DecodeSignature(s string) ([]byte, error) {
	if len(s) == 0 {
		return nil, fmt.Errorf("empty signature")
	}
	if strings.HasPrefix(s, "0x") || strings.HasPrefix(s, "0X") {
		return hexutil.Decode("0x" + s[2:])
	}
	return base64.StdEncoding.DecodeString(s)
}
