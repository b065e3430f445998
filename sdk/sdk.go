package sdk

import (
	"crypto/ecdsa"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/everFinance/metarelay/schema"
	"github.com/everFinance/metarelay/signer"
)

// SDK signs intents for one account and submits them through a relayer.
type SDK struct {
	Cli    *RelayerCli
	key    *ecdsa.PrivateKey
	Owner  common.Address
	domain *signer.Domain
}

func NewSDK(relayerUrl string, key *ecdsa.PrivateKey) *SDK {
	return &SDK{
		Cli:   New(relayerUrl),
		key:   key,
		Owner: crypto.PubkeyToAddress(key.PublicKey),
	}
}

// Domain returns the relayer's signing domain, fetched once from /info.
func (s *SDK) Domain() (signer.Domain, error) {
	if s.domain != nil {
		return *s.domain, nil
	}
	info, err := s.Cli.GetInfo()
	if err != nil {
		return signer.Domain{}, err
	}
	if info.Domain.ChainId == nil || !common.IsHexAddress(info.Domain.VerifyingContract) {
		return signer.Domain{}, fmt.Errorf("invalid relayer domain: %+v", info.Domain)
	}
	s.domain = &signer.Domain{
		Name:              info.Domain.Name,
		Version:           info.Domain.Version,
		ChainId:           info.Domain.ChainId,
		VerifyingContract: common.HexToAddress(info.Domain.VerifyingContract),
	}
	return *s.domain, nil
}

// Sign builds the signed request without sending it.
func (s *SDK) Sign(token, to common.Address, amount, nonce *big.Int) (schema.TxRequest, error) {
	domain, err := s.Domain()
	if err != nil {
		return schema.TxRequest{}, err
	}
	tx := schema.MetaTx{
		From:   s.Owner,
		To:     to,
		Token:  token,
		Amount: amount,
		Nonce:  nonce,
	}
	sig, err := signer.SignMetaTx(s.key, domain, tx)
	if err != nil {
		return schema.TxRequest{}, err
	}
	return schema.ToTxRequest(&schema.MetaTxWithSig{MetaTx: tx, Signature: sig}), nil
}

// Send signs a transfer with the caller supplied nonce, which must equal the on-chain counter.
func (s *SDK) Send(token, to common.Address, amount, nonce *big.Int) (schema.TxRequest, error) {
	req, err := s.Sign(token, to, amount, nonce)
	if err != nil {
		return req, err
	}
	return req, s.Cli.SubmitTx(req)
}
