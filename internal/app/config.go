package service

import (
	"github.com/okian/interviewer/internal/adapters/llm"
	"github.com/okian/interviewer/internal/adapters/search"
	"github.com/okian/interviewer/internal/config"
	"github.com/okian/interviewer/internal/domain/analysis"
)

// NewFromConfig translates cfg into service options. The analyzer and the
// searcher stay unset when their capability is off. Options in extra are
// applied last.
func NewFromConfig(cfg *config.Config, extra ...Option) (*Service, error) {
	opts := []Option{
		WithOutputDir(cfg.OutputDir),
		WithWorkerCount(cfg.AnalysisWorkers),
		WithQueueSize(cfg.AnalysisQueueSize),
		WithDedupeSize(cfg.DedupeSize),
		WithGracePeriod(cfg.GracePeriod()),
		WithConclusionMessage(cfg.ConclusionMessage),
		WithAnalysisTimeout(cfg.AnalysisTimeout()),
		WithSearchTimeout(cfg.SearchTimeout()),
	}

	analyzer, err := newAnalyzer(cfg)
	if err != nil {
		return nil, err
	}
	if analyzer != nil {
		name := cfg.AnalysisModel
		if name == "" {
			name = llm.DefaultModel(llm.Provider(cfg.Provider()))
		}
		opts = append(opts, WithAnalyzer(analyzer), WithAnalysisModel(name))
	}

	if cfg.SearchEnabled() {
		opts = append(opts, WithSearcher(search.NewTavilyClient(cfg.TavilyAPIKey, cfg.SearchEndpoint, cfg.SearchTimeout())))
	}
	return New(append(opts, extra...)...), nil
}

func newAnalyzer(cfg *config.Config) (analysis.Analyzer, error) {
	if !cfg.AnalysisEnabled() {
		return nil, nil
	}
	var opts []llm.Option
	if cfg.AnalysisEndpoint != "" {
		opts = append(opts, llm.WithEndpoint(cfg.AnalysisEndpoint))
	}
	client, err := llm.New(llm.Provider(cfg.Provider()), cfg.AnalysisAPIKey(), opts...)
	if err != nil {
		return nil, err
	}
	return client, nil
}
