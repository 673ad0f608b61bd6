package client

import (
	"errors"
	"math/big"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	qt "github.com/frankban/quicktest"
	"github.com/gnosisguild/enclave-aggregator/aggregator"
	"github.com/gnosisguild/enclave-aggregator/api"
	"github.com/gnosisguild/enclave-aggregator/circuits/testutil"
	"github.com/gnosisguild/enclave-aggregator/config"
	"github.com/gnosisguild/enclave-aggregator/layout"
	"github.com/gnosisguild/enclave-aggregator/proofsys"
	"github.com/gnosisguild/enclave-aggregator/storage"
	"github.com/gnosisguild/enclave-aggregator/types"
	"go.vocdoni.io/dvote/db/metadb"
)

func TestClient(t *testing.T) {
	c := qt.New(t)

	base, err := testutil.SetupBase(1)
	c.Assert(err, qt.IsNil)
	keys := proofsys.NewGroth16()
	c.Assert(keys.Register(proofsys.KeyID{Family: layout.DKGPk, Circuit: layout.BaseCircuit}, proofsys.ModeZK, base.VK), qt.IsNil)
	cfg := config.Default()
	cfg.NProofs = map[layout.Family]int{layout.DKGPk: 1}
	agg, err := aggregator.New(storage.New(metadb.NewTest(t)), cfg, keys)
	c.Assert(err, qt.IsNil)
	a, err := api.NewRouter(agg)
	c.Assert(err, qt.IsNil)
	srv := httptest.NewServer(a.Router())
	defer srv.Close()

	cli, err := New(srv.URL, WithRetries(1), WithTimeout(time.Minute))
	c.Assert(err, qt.IsNil)

	layouts, err := cli.Layouts()
	c.Assert(err, qt.IsNil)
	c.Assert(layouts.Layouts, qt.HasLen, 1)

	e3ID := &types.E3ID{ChainID: 1, Enclave: common.HexToAddress("0x01"), Index: 9}
	inputs := testutil.Inputs(42)
	proof, err := base.Prove(inputs)
	c.Assert(err, qt.IsNil)
	res, err := cli.Wrap(e3ID, &api.WrapRequest{
		Family: layout.DKGPk,
		Proofs: []*api.BaseProof{{Proof: proof, PublicInputs: []*types.BigInt{types.BigIntFromMath(inputs[0])}}},
	})
	c.Assert(err, qt.IsNil)
	c.Assert(res.Output.Family, qt.Equals, layout.DKGPk)

	outputs, err := cli.Outputs(e3ID, layout.DKGPk)
	c.Assert(err, qt.IsNil)
	c.Assert(outputs, qt.HasLen, 1)

	root, err := cli.Root(e3ID, layout.DKGPk)
	c.Assert(err, qt.IsNil)
	c.Assert(root.Values[0].MathBigInt().Cmp(res.Output.Values[0].MathBigInt()), qt.Equals, 0)

	rp, err := cli.RegistryProof(e3ID, layout.DKGPk, 0)
	c.Assert(err, qt.IsNil)
	ok, err := storage.CheckRegistryProof(rp, outputs[0])
	c.Assert(err, qt.IsNil)
	c.Assert(ok, qt.IsTrue)

	// errors come back with their code
	_, err = cli.Wrap(e3ID, &api.WrapRequest{
		Family: layout.DKGPk,
		Proofs: []*api.BaseProof{{Proof: proof, PublicInputs: []*types.BigInt{types.BigIntFromMath(big.NewInt(43))}}},
	})
	c.Assert(errors.Is(err, api.ErrProofVerification), qt.IsTrue, qt.Commentf("%v", err))
}

func TestClientUnreachable(t *testing.T) {
	c := qt.New(t)

	srv := httptest.NewServer(nil)
	host := srv.URL
	srv.Close()

	start := time.Now()
	_, err := New(host, WithRetries(2), WithTimeout(time.Second))
	c.Assert(err, qt.ErrorMatches, ".*after 2 attempts.*")
	// one delay between the two attempts
	c.Assert(time.Since(start) >= retryDelay, qt.IsTrue)

	// zero retries still sends the request once
	_, err = New(host, WithRetries(0))
	c.Assert(err, qt.ErrorMatches, ".*after 1 attempts.*")
}
