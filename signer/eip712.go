package signer

import (
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/math"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/signer/core/apitypes"
	"github.com/everFinance/metarelay/schema"
)

const (
	DomainType  = "EIP712Domain"
	PrimaryType = "MetaTx"
)

// Domain is the EIP-712 domain separator input.
// apitypes rewrites integer values in place while hashing, so ChainId is copied before use.
type Domain struct {
	Name              string
	Version           string
	ChainId           *big.Int
	VerifyingContract common.Address
}

func (d Domain) typedDataDomain() apitypes.TypedDataDomain {
	return apitypes.TypedDataDomain{
		Name:              d.Name,
		Version:           d.Version,
		ChainId:           (*math.HexOrDecimal256)(new(big.Int).Set(d.ChainId)),
		VerifyingContract: d.VerifyingContract.Hex(),
	}
}

func (d Domain) copy() Domain {
	if d.ChainId != nil {
		d.ChainId = new(big.Int).Set(d.ChainId)
	}
	return d
}

// MetaTxTypes is the schema the settlement contract hashes MetaTx with. Field order matters.
var MetaTxTypes = apitypes.Types{
	DomainType: {
		{Name: "name", Type: "string"},
		{Name: "version", Type: "string"},
		{Name: "chainId", Type: "uint256"},
		{Name: "verifyingContract", Type: "address"},
	},
	PrimaryType: {
		{Name: "from", Type: "address"},
		{Name: "to", Type: "address"},
		{Name: "token", Type: "address"},
		{Name: "amount", Type: "uint256"},
		{Name: "nonce", Type: "uint256"},
	},
}

func MetaTxMessage(tx schema.MetaTx) apitypes.TypedDataMessage {
	return apitypes.TypedDataMessage{
		"from":   tx.From.Hex(),
		"to":     tx.To.Hex(),
		"token":  tx.Token.Hex(),
		"amount": new(big.Int).Set(tx.Amount),
		"nonce":  new(big.Int).Set(tx.Nonce),
	}
}

// HashTypedData returns keccak256("\x19\x01" ‖ domainSeparator ‖ hashStruct(message)).
func HashTypedData(domain Domain, types apitypes.Types, primaryType string, message apitypes.TypedDataMessage) ([]byte, error) {
	if domain.ChainId == nil {
		return nil, fmt.Errorf("domain chainId is null")
	}
	typedData := apitypes.TypedData{
		Types:       types,
		PrimaryType: primaryType,
		Domain:      domain.typedDataDomain(),
		Message:     message,
	}
	if _, ok := typedData.Types[DomainType]; !ok {
		typedData.Types = make(apitypes.Types, len(types)+1)
		for k, v := range types {
			typedData.Types[k] = v
		}
		typedData.Types[DomainType] = MetaTxTypes[DomainType]
	}

	dataHash, err := typedData.HashStruct(typedData.PrimaryType, typedData.Message)
	if err != nil {
		return nil, fmt.Errorf("failed to hash struct: %w", err)
	}
	domainSeparator, err := typedData.HashStruct(DomainType, typedData.Domain.Map())
	if err != nil {
		return nil, fmt.Errorf("failed to hash domain: %w", err)
	}

	rawData := make([]byte, 0, 2+len(domainSeparator)+len(dataHash))
	rawData = append(rawData, 0x19, 0x01)
	rawData = append(rawData, domainSeparator...)
	rawData = append(rawData, dataHash...)
	return crypto.Keccak256(rawData), nil
}
