package service

import (
	"context"
	"fmt"
	"time"

	"github.com/gnosisguild/enclave-aggregator/artifacts"
	"github.com/gnosisguild/enclave-aggregator/config"
	"github.com/gnosisguild/enclave-aggregator/log"
	"github.com/gnosisguild/enclave-aggregator/proofsys"
	"golang.org/x/sync/errgroup"
)

// LoadVerifyingKeys loads every verifying key artifact of the configuration
// concurrently, downloading the ones not cached, and registers them in the
// keyring with their verification mode.
func LoadVerifyingKeys(cfg *config.Config, keys *proofsys.Groth16, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	g, ctx := errgroup.WithContext(ctx)
	for _, a := range cfg.Artifacts {
		g.Go(func() error {
			id := proofsys.KeyID{Family: a.Family, Circuit: a.Circuit}
			mode, err := proofsys.ParseMode(a.Mode)
			if err != nil {
				return fmt.Errorf("%s: %w", id, err)
			}
			artifact, err := artifacts.New(a.URL, a.Hash)
			if err != nil {
				return fmt.Errorf("%s: %w", id, err)
			}
			if err := artifact.Load(ctx); err != nil {
				return fmt.Errorf("%s: cannot load verifying key: %w", id, err)
			}
			if err := keys.RegisterBytes(id, mode, artifact.Content); err != nil {
				return fmt.Errorf("%s: %w", id, err)
			}
			log.Infow("verifying key registered", "key", id.String(), "mode", mode.String(), "hash", artifact.Hash.String())
			return nil
		})
	}
	return g.Wait()
}
