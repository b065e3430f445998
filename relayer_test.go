package metarelay

import (
	"context"
	"crypto/ecdsa"
	"errors"
	"math/big"
	"sync"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/everFinance/metarelay/gateway"
	"github.com/everFinance/metarelay/schema"
	"github.com/everFinance/metarelay/signer"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	testContract = common.HexToAddress("0xcbEAF3BDe82155F56486Fb5a1072cb8baAf547cc")
	testToken    = common.HexToAddress("0x5FbDB2315678afecb367f032d93F642f64180aa3")
	testRelayer  = common.HexToAddress("0x3C44CdDdB6a900fa2b585dd299e03d12FA4293BC")
	testDomain   = signer.Domain{
		Name:              schema.DefaultDomainName,
		Version:           schema.DefaultDomainVersion,
		ChainId:           big.NewInt(31337),
		VerifyingContract: testContract,
	}
)

type fakeGateway struct {
	mu sync.Mutex

	nonces     map[common.Address]*big.Int
	nonceErr   error
	nonceBlock bool
	submitErr  error
	submitted  [][]*schema.MetaTxWithSig
	gasLimits  []uint64
	receipts   map[common.Hash]*gateway.Receipt
	receiptErr error
	panicOnce  bool
}

func newFakeGateway() *fakeGateway {
	return &fakeGateway{
		nonces:   make(map[common.Address]*big.Int),
		receipts: make(map[common.Hash]*gateway.Receipt),
	}
}

func (f *fakeGateway) GetNonce(ctx context.Context, from common.Address) (*big.Int, error) {
	f.mu.Lock()
	block, err := f.nonceBlock, f.nonceErr
	nonce, ok := f.nonces[from]
	f.mu.Unlock()
	if block {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	if err != nil {
		return nil, err
	}
	if !ok {
		return big.NewInt(0), nil
	}
	return new(big.Int).Set(nonce), nil
}

func (f *fakeGateway) SubmitBatch(ctx context.Context, txs []*schema.MetaTxWithSig, gasLimit uint64) (common.Hash, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.panicOnce {
		f.panicOnce = false
		panic("rpc client crashed")
	}
	f.submitted = append(f.submitted, txs)
	f.gasLimits = append(f.gasLimits, gasLimit)
	if f.submitErr != nil {
		return common.Hash{}, f.submitErr
	}
	return crypto.Keccak256Hash(big.NewInt(int64(len(f.submitted))).Bytes()), nil
}

func (f *fakeGateway) GetReceipt(ctx context.Context, hash common.Hash) (*gateway.Receipt, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.receiptErr != nil {
		return nil, f.receiptErr
	}
	r, ok := f.receipts[hash]
	if !ok {
		return nil, gateway.ErrReceiptNotFound
	}
	return r, nil
}

func (f *fakeGateway) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.submitted)
}

type fakeWriter struct {
	mu   sync.Mutex
	msgs [][]byte
	err  error
}

func (w *fakeWriter) Write(body []byte) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.err != nil {
		return w.err
	}
	w.msgs = append(w.msgs, body)
	return nil
}

func (w *fakeWriter) Close() {}

func testConfig() schema.Config {
	return schema.Config{
		ChainId:         31337,
		Contract:        testContract.Hex(),
		RelayerInterval: time.Hour,
		RpcTimeout:      time.Second,
	}
}

func testRelayerWith(t *testing.T, gw *fakeGateway, wdb *Wdb, kw EventWriter) *Relayer {
	r, err := newRelayer(testConfig(), gw, testRelayer, wdb, kw)
	require.NoError(t, err)
	return r
}

func testSqliteDb(t *testing.T) *Wdb {
	wdb, err := NewSqliteDb(t.TempDir())
	require.NoError(t, err)
	require.NoError(t, wdb.Migrate())
	t.Cleanup(wdb.Close)
	return wdb
}

type testAccount struct {
	key  *ecdsa.PrivateKey
	addr common.Address
}

func newAccount() testAccount {
	key, _ := crypto.GenerateKey()
	return testAccount{key: key, addr: crypto.PubkeyToAddress(key.PublicKey)}
}

func (a testAccount) metaTx(to common.Address, nonce int64) schema.MetaTx {
	return schema.MetaTx{
		From:   a.addr,
		To:     to,
		Token:  testToken,
		Amount: big.NewInt(1000),
		Nonce:  big.NewInt(nonce),
	}
}

// signedRequest signs signed but sends declared, so a mismatch can be simulated.
func (a testAccount) signedRequest(t *testing.T, signed, declared schema.MetaTx) *schema.TxRequest {
	sig, err := signer.SignMetaTx(a.key, testDomain, signed)
	require.NoError(t, err)
	req := schema.ToTxRequest(&schema.MetaTxWithSig{MetaTx: declared, Signature: sig})
	return &req
}

func (a testAccount) request(t *testing.T, to common.Address, nonce int64) *schema.TxRequest {
	tx := a.metaTx(to, nonce)
	return a.signedRequest(t, tx, tx)
}

var errNetwork = errors.New("dial tcp: connection refused")

func TestNewRelayer_InvalidLimiter(t *testing.T) {
	cfg := testConfig()
	cfg.Limiter = schema.Limiter{Limit: 10, Period: "fortnight"}
	_, err := newRelayer(cfg, newFakeGateway(), testRelayer, nil, nil)
	assert.Error(t, err)

	cfg.Limiter.Period = "M"
	r, err := newRelayer(cfg, newFakeGateway(), testRelayer, nil, nil)
	require.NoError(t, err)
	assert.NotNil(t, r.engine)
}
