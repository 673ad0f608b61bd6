package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/consensys/gnark/backend/groth16"
	"github.com/consensys/gnark/frontend"
	flag "github.com/spf13/pflag"
	"go.vocdoni.io/dvote/db"
	"go.vocdoni.io/dvote/db/metadb"

	"github.com/gnosisguild/enclave-aggregator/aggregator"
	"github.com/gnosisguild/enclave-aggregator/api"
	"github.com/gnosisguild/enclave-aggregator/artifacts"
	"github.com/gnosisguild/enclave-aggregator/circuits"
	"github.com/gnosisguild/enclave-aggregator/circuits/userdata"
	wrappercircuit "github.com/gnosisguild/enclave-aggregator/circuits/wrapper"
	"github.com/gnosisguild/enclave-aggregator/config"
	"github.com/gnosisguild/enclave-aggregator/layout"
	"github.com/gnosisguild/enclave-aggregator/log"
	"github.com/gnosisguild/enclave-aggregator/proofsys"
	"github.com/gnosisguild/enclave-aggregator/service"
	"github.com/gnosisguild/enclave-aggregator/storage"
	"github.com/gnosisguild/enclave-aggregator/wrapper"
)

const usage = `usage: enclave-aggregator <command> [flags]

commands:
  serve     start the aggregation API
  layouts   print the resolved public input layouts
  compile   compile and set up the wrapper circuit of a family
  prove     wrap base proofs and prove them with the compiled wrapper circuit
`

func main() {
	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}
	var err error
	switch os.Args[1] {
	case "serve":
		err = serve(os.Args[2:])
	case "layouts":
		err = layouts(os.Args[2:])
	case "compile":
		err = compile(os.Args[2:])
	case "prove":
		err = prove(os.Args[2:])
	default:
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}
	if err != nil {
		log.Fatal(err)
	}
}

// loadConfig parses the common flags and returns the configuration with the
// flags applied over the file and environment.
func loadConfig(fs *flag.FlagSet, args []string) (*config.Config, error) {
	path := fs.String("config", "", "path to the YAML configuration file")
	logLevel := fs.String("log.level", "", "log level (debug, info, warn, error)")
	artifactsDir := fs.String("artifacts.dir", "", "verifying key cache directory")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	cfg, err := config.Load(*path)
	if err != nil {
		return nil, err
	}
	if *logLevel != "" {
		cfg.Log.Level = *logLevel
	}
	if *artifactsDir != "" {
		cfg.ArtifactsDir = *artifactsDir
	}
	log.Init(cfg.Log.Level, cfg.Log.Output, nil)
	if cfg.ArtifactsDir != "" {
		artifacts.BaseDir = cfg.ArtifactsDir
	}
	return cfg, nil
}

func loadKeys(cfg *config.Config, timeout time.Duration) (*proofsys.Groth16, error) {
	keys := proofsys.NewGroth16()
	if err := service.LoadVerifyingKeys(cfg, keys, timeout); err != nil {
		return nil, fmt.Errorf("cannot load verifying keys: %w", err)
	}
	return keys, nil
}

func serve(args []string) error {
	fs := flag.NewFlagSet("serve", flag.ExitOnError)
	host := fs.String("host", "", "API listen host, overrides the configuration")
	port := fs.Int("port", 0, "API listen port, overrides the configuration")
	datadir := fs.String("datadir", "", "database directory, overrides the configuration")
	timeout := fs.Duration("download.timeout", 10*time.Minute, "verifying key download timeout")
	cfg, err := loadConfig(fs, args)
	if err != nil {
		return err
	}
	if *host != "" {
		cfg.API.Host = *host
	}
	if *port != 0 {
		cfg.API.Port = *port
	}
	if *datadir != "" {
		cfg.Storage.Datadir = *datadir
	}

	keys, err := loadKeys(cfg, *timeout)
	if err != nil {
		return err
	}
	database, err := metadb.New(db.TypePebble, filepath.Join(cfg.Storage.Datadir, "db"))
	if err != nil {
		return fmt.Errorf("cannot open database: %w", err)
	}
	stg := storage.New(database)
	defer stg.Close()

	agg, err := aggregator.New(stg, cfg, keys)
	if err != nil {
		return err
	}
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()
	apiService := service.NewAPI(agg, cfg.API.Host, cfg.API.Port)
	if err := apiService.Start(ctx); err != nil {
		return err
	}
	defer apiService.Stop()
	log.Infow("aggregator running", "params", agg.Params().String(), "families", len(agg.Layouts()))
	<-ctx.Done()
	log.Info("shutting down")
	return nil
}

func layouts(args []string) error {
	fs := flag.NewFlagSet("layouts", flag.ExitOnError)
	asJSON := fs.Bool("json", false, "print the layouts as JSON")
	cfg, err := loadConfig(fs, args)
	if err != nil {
		return err
	}
	var resolved []*layout.Layout
	for _, family := range cfg.Families() {
		lc, err := cfg.Layout(family)
		if err != nil {
			return err
		}
		l, err := lc.Resolve()
		if err != nil {
			return err
		}
		resolved = append(resolved, l)
	}
	if *asJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(resolved)
	}
	fmt.Printf("params: %s\n", cfg.Params)
	for _, l := range resolved {
		widths := make([]string, len(l.Slots))
		for i, s := range l.Slots {
			widths[i] = fmt.Sprintf("%s:%d", s.Circuit, s.Width)
		}
		fmt.Printf("%-40s proofs=%-3d inputs=%-8d slots=[%s]\n",
			l.Family, l.NProofs(), l.TotalInputs(), strings.Join(widths, " "))
	}
	return nil
}

func compile(args []string) error {
	fs := flag.NewFlagSet("compile", flag.ExitOnError)
	family := fs.String("family", string(layout.DKGPk), "family of the wrapper circuit")
	out := fs.String("out", "build", "output directory")
	setup := fs.Bool("setup", true, "run the groth16 setup and write the keys")
	timeout := fs.Duration("download.timeout", 10*time.Minute, "verifying key download timeout")
	cfg, err := loadConfig(fs, args)
	if err != nil {
		return err
	}
	lc, err := cfg.Layout(layout.Family(*family))
	if err != nil {
		return err
	}
	l, err := lc.Resolve()
	if err != nil {
		return err
	}
	keys, err := loadKeys(cfg, *timeout)
	if err != nil {
		return err
	}
	placeholder, err := placeholderFor(l, keys)
	if err != nil {
		return err
	}

	startTime := time.Now()
	ccs, err := circuits.Compile(placeholder)
	if err != nil {
		return err
	}
	log.Infow("wrapper circuit compiled",
		"family", *family,
		"constraints", ccs.GetNbConstraints(),
		"took", time.Since(startTime).String())

	name := strings.ReplaceAll(*family, "/", "_")
	if err := os.MkdirAll(*out, 0o755); err != nil {
		return err
	}
	ccsPath := filepath.Join(*out, name+".ccs")
	if err := circuits.StoreConstraintSystem(ccs, ccsPath); err != nil {
		return err
	}
	if err := cacheArtifact("circuit definition", ccsPath); err != nil {
		return err
	}
	if !*setup {
		return nil
	}
	pk, vk, err := groth16.Setup(ccs)
	if err != nil {
		return fmt.Errorf("groth16 setup: %w", err)
	}
	pkPath := filepath.Join(*out, name+".pk")
	if err := circuits.StoreProvingKey(pk, pkPath); err != nil {
		return err
	}
	if err := cacheArtifact("proving key", pkPath); err != nil {
		return err
	}
	return circuits.StoreVerificationKey(vk, filepath.Join(*out, name+".vk"))
}

// cacheArtifact copies a written file into the artifact cache and logs its
// hash, which prove takes to find it.
func cacheArtifact(kind, path string) error {
	content, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	a, err := artifacts.FromContent(content)
	if err != nil {
		return fmt.Errorf("cannot cache %s: %w", kind, err)
	}
	log.Infow("artifact cached", "kind", kind, "hash", a.Hash.String(), "dir", artifacts.BaseDir)
	return nil
}

func prove(args []string) error {
	fs := flag.NewFlagSet("prove", flag.ExitOnError)
	family := fs.String("family", string(layout.DKGPk), "family of the wrapper circuit")
	input := fs.String("input", "", "JSON file with the base proofs, as sent to the wrap endpoint")
	ccsHash := fs.String("ccs", "", "sha256 of the compiled wrapper circuit")
	ccsURL := fs.String("ccs.url", "", "download URL of the compiled wrapper circuit")
	pkHash := fs.String("pk", "", "sha256 of the wrapper proving key")
	pkURL := fs.String("pk.url", "", "download URL of the wrapper proving key")
	out := fs.String("out", "wrapper.proof", "output file of the wrapper proof")
	timeout := fs.Duration("download.timeout", 10*time.Minute, "artifact download timeout")
	cfg, err := loadConfig(fs, args)
	if err != nil {
		return err
	}
	if *input == "" || *ccsHash == "" || *pkHash == "" {
		return fmt.Errorf("--input, --ccs and --pk are required")
	}
	lc, err := cfg.Layout(layout.Family(*family))
	if err != nil {
		return err
	}
	l, err := lc.Resolve()
	if err != nil {
		return err
	}
	keys, err := loadKeys(cfg, *timeout)
	if err != nil {
		return err
	}

	raw, err := os.ReadFile(*input)
	if err != nil {
		return err
	}
	req := &api.WrapRequest{}
	if err := json.Unmarshal(raw, req); err != nil {
		return fmt.Errorf("cannot decode %s: %w", *input, err)
	}
	proofs := make([]*proofsys.BaseProof, len(req.Proofs))
	for i, p := range req.Proofs {
		proofs[i] = p.BaseProof()
	}
	w, err := wrapper.New(l, keys)
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()
	output, err := w.Wrap(ctx, proofs)
	if err != nil {
		return err
	}
	assignment, err := assignmentFor(l, proofs, output)
	if err != nil {
		return err
	}

	ccsArtifact, err := artifacts.New(*ccsURL, *ccsHash)
	if err != nil {
		return err
	}
	pkArtifact, err := artifacts.New(*pkURL, *pkHash)
	if err != nil {
		return err
	}
	startTime := time.Now()
	proof, err := circuits.ProveWithArtifacts(ctx, artifacts.NewCircuitArtifacts(ccsArtifact, pkArtifact, nil), assignment)
	if err != nil {
		return err
	}
	fd, err := os.Create(*out)
	if err != nil {
		return err
	}
	defer fd.Close()
	if _, err := proof.WriteTo(fd); err != nil {
		return fmt.Errorf("cannot write proof: %w", err)
	}
	values := make([]string, len(output.Values()))
	for i, v := range output.Values() {
		values[i] = v.String()
	}
	log.Infow("wrapper proof generated",
		"family", *family,
		"output", strings.Join(values, ","),
		"path", *out,
		"took", time.Since(startTime).String())
	return nil
}

func assignmentFor(l *layout.Layout, proofs []*proofsys.BaseProof, out wrapper.Output) (frontend.Circuit, error) {
	if l.Family == layout.ThresholdUserDataEncryption {
		c, err := userdata.Assignment(proofs, out)
		if err != nil {
			return nil, err
		}
		return c, nil
	}
	c, err := wrappercircuit.Assignment(proofs, out)
	if err != nil {
		return nil, err
	}
	return c, nil
}

func placeholderFor(l *layout.Layout, keys circuits.KeySource) (frontend.Circuit, error) {
	if l.Family == layout.ThresholdUserDataEncryption {
		c, err := userdata.Placeholder(l, keys)
		if err != nil {
			return nil, err
		}
		return c, nil
	}
	c, err := wrappercircuit.Placeholder(l, keys)
	if err != nil {
		return nil, err
	}
	return c, nil
}
