package preflight

import (
	"context"

	"streamscout/internal/config"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string
	Passed bool
	Detail string
}

// RunAll executes every applicable check for cfg.
func RunAll(ctx context.Context, cfg *config.Config) []Result {
	if cfg == nil {
		return nil
	}

	results := []Result{
		CheckDirectoryAccess("State directory", cfg.Server.StateDir),
		CheckDirectoryAccess("Log directory", cfg.Logging.Dir),
	}
	if cfg.History.Enabled {
		results = append(results, CheckFileWritable("History database", cfg.History.Path))
	}
	results = append(results,
		CheckTMDB(ctx, cfg.TMDB.BaseURL, cfg.TMDB.APIKey),
		CheckBrowser(cfg.Sniffer.BrowserBin),
	)
	return results
}

// Failed returns the results that did not pass.
func Failed(results []Result) []Result {
	var failed []Result
	for _, r := range results {
		if !r.Passed {
			failed = append(failed, r)
		}
	}
	return failed
}
