// Command verifyd runs the dental insurance verification agent as an
// interactive text session: the agent plays the dental office calling an
// insurance line, caller utterances come in on stdin, and agent replies go
// out on stdout. The text transport stands in for the telephony audio layer.
package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	"github.com/karienad/dental-insurance-ai-agent/internal/config"
	"github.com/karienad/dental-insurance-ai-agent/internal/correction"
	"github.com/karienad/dental-insurance-ai-agent/internal/correction/index"
	"github.com/karienad/dental-insurance-ai-agent/internal/correction/index/memindex"
	"github.com/karienad/dental-insurance-ai-agent/internal/correction/index/pgindex"
	"github.com/karienad/dental-insurance-ai-agent/internal/flow"
	"github.com/karienad/dental-insurance-ai-agent/internal/observe"
	"github.com/karienad/dental-insurance-ai-agent/internal/patient"
	"github.com/karienad/dental-insurance-ai-agent/internal/report"
	"github.com/karienad/dental-insurance-ai-agent/internal/session"
	"github.com/karienad/dental-insurance-ai-agent/internal/verification/extract"
	"github.com/karienad/dental-insurance-ai-agent/pkg/provider/embeddings"
	oaembed "github.com/karienad/dental-insurance-ai-agent/pkg/provider/embeddings/openai"
	"github.com/karienad/dental-insurance-ai-agent/pkg/provider/llm"
	"github.com/karienad/dental-insurance-ai-agent/pkg/provider/llm/anyllm"
	oaillm "github.com/karienad/dental-insurance-ai-agent/pkg/provider/llm/openai"
)

func main() {
	os.Exit(run())
}

func run() int {
	configPath := flag.String("config", "configs/example.yaml", "path to the YAML configuration file")
	flag.Parse()

	// API keys commonly live in a local .env during development.
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		fmt.Fprintf(os.Stderr, "verifyd: load .env: %v\n", err)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			fmt.Fprintf(os.Stderr, "verifyd: config file %q not found, copy configs/example.yaml to get started\n", *configPath)
		} else {
			fmt.Fprintf(os.Stderr, "verifyd: %v\n", err)
		}
		return 1
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: cfg.Server.LogLevel.SlogLevel(),
	}))
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdownMetrics, err := observe.InitProvider(ctx, observe.ProviderConfig{ServiceName: "verifyd"})
	if err != nil {
		slog.Error("failed to initialise metrics", "err", err)
		return 1
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownMetrics(shutdownCtx); err != nil {
			slog.Warn("metrics shutdown failed", "err", err)
		}
	}()

	oracle, err := buildOracle(cfg)
	if err != nil {
		slog.Error("failed to build LLM provider", "err", err)
		return 1
	}

	idx, closeIndex, err := buildIndex(ctx, cfg)
	if err != nil {
		slog.Error("failed to build correction index", "err", err)
		return 1
	}
	defer closeIndex()

	writers, closeWriters, err := buildWriters(ctx, cfg)
	if err != nil {
		slog.Error("failed to build summary writers", "err", err)
		return 1
	}
	defer closeWriters()

	p := buildPatient(cfg)
	slog.Info("patient record ready",
		"name", p.FullName(),
		"dob", p.DateOfBirth,
		"member_number", p.MemberNumber,
		"insurance", p.InsuranceProvider,
	)

	var pipeOpts []correction.Option
	if cfg.Correction.Threshold > 0 {
		pipeOpts = append(pipeOpts, correction.WithThreshold(cfg.Correction.Threshold))
	}
	pipeOpts = append(pipeOpts, correction.WithConfirmation(cfg.Correction.ConfirmLowConfidence))
	pipeline := correction.New(idx, oracle, pipeOpts...)

	manager := flow.NewManager(p, oracle)
	office := cfg.OfficeName
	if office == "" {
		office = "the dental office"
	}
	runner := session.New(newSessionID(), p, manager, pipeline,
		session.WithOfficeName(office),
		session.WithWriters(writers...),
	)

	g, ctx := errgroup.WithContext(ctx)

	if addr := cfg.Server.MetricsAddr; addr != "" {
		srv := &http.Server{Addr: addr, Handler: metricsMux()}
		g.Go(func() error {
			slog.Info("metrics endpoint listening", "addr", addr)
			if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		})
		g.Go(func() error {
			<-ctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		})
	}

	g.Go(func() error {
		return converse(ctx, runner)
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		slog.Error("verifyd exited with error", "err", err)
		return 1
	}
	return 0
}

// converse runs the stdin/stdout turn loop until the session ends, stdin
// closes, or ctx is cancelled.
func converse(ctx context.Context, runner *session.Runner) error {
	fmt.Println(runner.Greeting())

	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(os.Stdin)
		for scanner.Scan() {
			lines <- scanner.Text()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			// Treat an interrupt like "quit": persist what we have.
			runner.HandleTurn(context.Background(), session.QuitCommand)
			return ctx.Err()
		case line, ok := <-lines:
			if !ok {
				runner.HandleTurn(context.Background(), session.QuitCommand)
				return nil
			}
			reply := runner.HandleTurn(ctx, line)
			fmt.Println(reply.Message)
			if reply.Done {
				return nil
			}
		}
	}
}

func buildOracle(cfg *config.Config) (*extract.Extractor, error) {
	entry := cfg.Providers.LLM
	apiKey := entry.APIKey
	if apiKey == "" {
		apiKey = os.Getenv("OPENAI_API_KEY")
	}

	var (
		provider llm.Provider
		err      error
	)
	if entry.Name == "openai" {
		var opts []oaillm.Option
		if entry.BaseURL != "" {
			opts = append(opts, oaillm.WithBaseURL(entry.BaseURL))
		}
		provider, err = oaillm.New(apiKey, entry.Model, opts...)
	} else {
		provider, err = anyllm.New(entry.Name, entry.Model)
	}
	if err != nil {
		return nil, err
	}
	return extract.New(provider), nil
}

// buildIndex returns the configured correction index. A missing lookup path
// with the memory backend yields an empty index rather than an error, so the
// agent still runs with correction disabled.
func buildIndex(ctx context.Context, cfg *config.Config) (index.Index, func(), error) {
	noop := func() {}

	if cfg.Correction.Backend == config.IndexPostgres {
		embedder, err := buildEmbedder(cfg)
		if err != nil {
			return nil, noop, err
		}
		idx, err := pgindex.New(ctx, cfg.Storage.PostgresDSN, embedder)
		if err != nil {
			return nil, noop, err
		}
		if err := idx.Migrate(ctx); err != nil {
			idx.Close()
			return nil, noop, err
		}
		if cfg.Correction.LookupPath != "" {
			entries, err := index.LoadCSV(cfg.Correction.LookupPath)
			if err != nil {
				idx.Close()
				return nil, noop, err
			}
			if err := idx.Seed(ctx, entries); err != nil {
				idx.Close()
				return nil, noop, err
			}
		}
		return idx, idx.Close, nil
	}

	if cfg.Correction.LookupPath == "" {
		return memindex.New(nil), noop, nil
	}
	entries, err := index.LoadCSV(cfg.Correction.LookupPath)
	if err != nil {
		return nil, noop, err
	}
	slog.Info("correction lookup table loaded",
		"path", cfg.Correction.LookupPath,
		"entries", len(entries),
	)
	return memindex.New(entries), noop, nil
}

func buildEmbedder(cfg *config.Config) (embeddings.Provider, error) {
	entry := cfg.Providers.Embeddings
	apiKey := entry.APIKey
	if apiKey == "" {
		apiKey = os.Getenv("OPENAI_API_KEY")
	}
	var opts []oaembed.Option
	if entry.BaseURL != "" {
		opts = append(opts, oaembed.WithBaseURL(entry.BaseURL))
	}
	return oaembed.New(apiKey, entry.Model, opts...)
}

func buildWriters(ctx context.Context, cfg *config.Config) ([]report.Writer, func(), error) {
	resultsPath := cfg.Storage.ResultsPath
	if resultsPath == "" {
		resultsPath = "verification_results.json"
	}
	writers := []report.Writer{&report.FileWriter{Path: resultsPath}}
	closeAll := func() {}

	if cfg.Storage.PostgresDSN != "" {
		pw, err := report.NewPostgresWriter(ctx, cfg.Storage.PostgresDSN)
		if err != nil {
			return nil, closeAll, err
		}
		if err := pw.Migrate(ctx); err != nil {
			pw.Close()
			return nil, closeAll, err
		}
		writers = append(writers, pw)
		closeAll = pw.Close
	}
	return writers, closeAll, nil
}

func buildPatient(cfg *config.Config) patient.Patient {
	if p := cfg.Patient; p != nil {
		return patient.Patient{
			FirstName:         p.FirstName,
			LastName:          p.LastName,
			DateOfBirth:       p.DateOfBirth,
			MemberNumber:      p.MemberNumber,
			GroupNumber:       p.GroupNumber,
			InsuranceProvider: p.InsuranceProvider,
		}
	}
	return patient.Sample(rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64())))
}

func metricsMux() *http.ServeMux {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	return mux
}

func newSessionID() string {
	return fmt.Sprintf("session-%d", time.Now().UnixNano())
}
