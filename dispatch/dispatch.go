package dispatch

import (
	"runtime"
	"sync"

	"github.com/coregx/grepcore/backend"
	"github.com/coregx/grepcore/literalsearch"
	"github.com/coregx/grepcore/matchset"
	"github.com/coregx/grepcore/regexcompile"
	"github.com/coregx/grepcore/regexengine"
)

// Decide chooses which backend should execute a single-pattern search.
// Hard rules short-circuit to CPU before any score is computed:
//
//   - multiPattern: a union search runs each pattern independently on the
//     host; only one engine instance services all patterns, which the
//     GPU kernels are not shaped for.
//   - textSize outside [cfg.MinGPUSize, cfg.MaxGPUSize].
//   - opts.Perl: patterns compiled by the external PCRE adapter have no
//     packed-NFA form for the GPU kernels to execute (see DESIGN.md).
//
// Otherwise the workload is scored (Score plus cfg.GPUBias, which already
// carries any hardware-tier adjustment from ApplyHardwareTier) and routed
// to GPU when the score is non-negative, CPU otherwise.
func Decide(pattern []byte, opts matchset.SearchOptions, textSize uint64, multiPattern bool, cfg Config) Backend {
	if multiPattern {
		return BackendCPU
	}
	if textSize < cfg.MinGPUSize || textSize > cfg.MaxGPUSize {
		return BackendCPU
	}
	if opts.Perl {
		return BackendCPU
	}

	score := Score(pattern, opts, textSize, cfg) + cfg.GPUBias
	if score < 0 {
		return BackendCPU
	}
	if runtime.GOOS == "darwin" {
		return BackendMetal
	}
	return BackendVulkan
}

// Request bundles a single search's inputs, including whether it is one
// leg of a multi-pattern union (matchset.UnionPatterns), which forces CPU
// per the Decide hard rule.
type Request struct {
	Text         []byte
	Pattern      []byte
	Options      matchset.SearchOptions
	MultiPattern bool
}

// Dispatcher owns the lazily-initialized GPU backend and routes Search
// calls to CPU or GPU per Decide, falling back to CPU whenever the GPU
// backend fails to initialize or errors mid-search. A GPU failure at
// runtime (after init) falls back to CPU for that request and logs a
// warning; it never crashes the process.
type Dispatcher struct {
	cfg    Config
	logger Logger

	gpuOnce sync.Once
	gpu     backend.GPU
	gpuErr  error
}

// NewDispatcher builds a Dispatcher from cfg, applying opts in order.
func NewDispatcher(cfg Config, opts ...Option) *Dispatcher {
	d := &Dispatcher{cfg: cfg, logger: noopLogger{}}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Close releases the GPU backend, if one was ever constructed.
func (d *Dispatcher) Close() error {
	if d.gpu != nil {
		return d.gpu.Close()
	}
	return nil
}

// gpuBackend lazily constructs and probes the platform GPU backend exactly
// once, folding its capability tier into d.cfg.GPUBias on first success.
func (d *Dispatcher) gpuBackend() (backend.GPU, error) {
	d.gpuOnce.Do(func() {
		d.gpu, d.gpuErr = newPlatformGPUBackend()
		if d.gpuErr != nil {
			d.logger.Warnf("dispatch: %s backend unavailable: %v", platformGPUName, d.gpuErr)
			return
		}
		ApplyHardwareTier(&d.cfg, d.gpu.Capabilities())
		d.logger.Debugf("dispatch: %s backend ready, tier=%s, gpu_bias=%d",
			d.gpu.Name(), ClassifyTier(d.gpu.Capabilities()), d.cfg.GPUBias)
	})
	return d.gpu, d.gpuErr
}

// Search executes req, choosing CPU or GPU per Decide and falling back to
// CPU on any GPU initialization or runtime error.
func (d *Dispatcher) Search(req Request) (matchset.SearchResult, error) {
	chosen := Decide(req.Pattern, req.Options, uint64(len(req.Text)), req.MultiPattern, d.cfg)
	d.logger.Debugf("dispatch: chose %s for pattern len=%d text_len=%d", chosen, len(req.Pattern), len(req.Text))

	if chosen != BackendCPU {
		gpu, err := d.gpuBackend()
		if err == nil {
			result, err := d.searchGPU(gpu, req)
			if err == nil {
				return result, nil
			}
			d.logger.Warnf("dispatch: %s search failed, falling back to cpu: %v", gpu.Name(), err)
		}
	}

	return d.searchCPU(req)
}

func (d *Dispatcher) searchGPU(gpu backend.GPU, req Request) (matchset.SearchResult, error) {
	if req.Options.FixedString {
		return gpu.SearchLiteral(req.Text, req.Pattern, req.Options)
	}
	n, err := regexcompile.Compile(string(req.Pattern), regexcompile.Options{
		Extended:        req.Options.Extended,
		CaseInsensitive: req.Options.CaseInsensitive,
	})
	if err != nil {
		return matchset.SearchResult{}, err
	}
	return gpu.SearchRegex(req.Text, regexcompile.Pack(n), req.Options)
}

func (d *Dispatcher) searchCPU(req Request) (matchset.SearchResult, error) {
	if req.Options.FixedString {
		eng, err := literalsearch.Compile(req.Pattern, req.Options.CaseInsensitive, req.Options.WordBoundary)
		if err != nil {
			return matchset.SearchResult{}, err
		}
		return eng.Search(req.Text, req.Options.InvertMatch), nil
	}

	eng, err := regexengine.Compile(req.Pattern, req.Options)
	if err != nil {
		return matchset.SearchResult{}, err
	}
	return eng.Search(req.Text), nil
}
