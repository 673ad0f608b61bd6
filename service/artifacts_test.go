package service

import (
	"crypto/sha256"
	"encoding/hex"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	qt "github.com/frankban/quicktest"
	"github.com/gnosisguild/enclave-aggregator/artifacts"
	"github.com/gnosisguild/enclave-aggregator/circuits/testutil"
	"github.com/gnosisguild/enclave-aggregator/config"
	"github.com/gnosisguild/enclave-aggregator/layout"
	"github.com/gnosisguild/enclave-aggregator/proofsys"
)

func TestLoadVerifyingKeys(t *testing.T) {
	c := qt.New(t)
	baseDir := artifacts.BaseDir
	artifacts.BaseDir = t.TempDir()
	t.Cleanup(func() { artifacts.BaseDir = baseDir })

	base, err := testutil.SetupBase(4)
	c.Assert(err, qt.IsNil)
	vk, err := base.VerifyingKeyBytes()
	c.Assert(err, qt.IsNil)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write(vk)
	}))
	defer srv.Close()
	sum := sha256.Sum256(vk)

	cfg := config.Default()
	cfg.Artifacts = []config.Artifact{
		{Family: layout.ThresholdUserDataEncryption, Circuit: layout.Ct0Circuit, Mode: "nonzk", URL: srv.URL, Hash: hex.EncodeToString(sum[:])},
	}
	keys := proofsys.NewGroth16()
	c.Assert(LoadVerifyingKeys(cfg, keys, time.Minute), qt.IsNil)

	id := proofsys.KeyID{Family: layout.ThresholdUserDataEncryption, Circuit: layout.Ct0Circuit}
	width, err := keys.Width(id)
	c.Assert(err, qt.IsNil)
	c.Assert(width, qt.Equals, 4)
	_, mode, err := keys.VerifyingKey(id)
	c.Assert(err, qt.IsNil)
	c.Assert(mode, qt.Equals, proofsys.ModeNonZK)

	// the key is now cached
	_, err = os.Stat(artifacts.BaseDir + "/" + hex.EncodeToString(sum[:]))
	c.Assert(err, qt.IsNil)

	cfg.Artifacts[0].Hash = hex.EncodeToString(make([]byte, sha256.Size))
	cfg.Artifacts[0].URL = ""
	c.Assert(LoadVerifyingKeys(cfg, proofsys.NewGroth16(), time.Minute), qt.ErrorIs, artifacts.ErrNotCached)
}
