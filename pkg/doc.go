// Package pkg holds the libraries behind warren, a dungeon layout arranger.
//
// # Overview
//
// A layout is described by a tree of arms. Each arm is a chain of rooms drawn
// from template pools and ends either in a reward or in a fork that feeds
// its child arms. The packages are organized by stage:
//
//  1. [rng], [geom] - Seeded randomness and grid geometry
//  2. [builder], [oracle] - Room templates, pools and the placement oracle
//  3. [arm], [arrange] - The normalized arm tree and the backtracking search
//  4. [config], [layout] - Configuration files in, trimmed layouts out
//  5. [render] - ASCII, SVG, DOT, PNG and PDF output
//  6. [pipeline], [cache], [store] - Orchestration, caching and persistence
//  7. [server], [observability] - The HTTP API and its hooks
//
// # Architecture
//
// The data flow through warren:
//
//	config file (TOML, YAML, JSON)
//	         ↓
//	    [config] package (pools resolved, arm spec validated)
//	         ↓
//	    [arm] package (lengths drawn, pools shuffled, tree linked)
//	         ↓
//	    [arrange] package (backtracking placement against the oracle)
//	         ↓
//	    [layout] package (trimmed, translated, serializable)
//	         ↓
//	    [render] package (ASCII/SVG/DOT/PNG/PDF)
//
// # Quick Start
//
//	cfg, err := config.Load("crypt.toml")
//	if err != nil {
//	    return err
//	}
//	runner := pipeline.NewRunner(cache.NewNullCache(), nil, logger)
//	result, err := runner.Execute(ctx, cfg, pipeline.Options{Formats: []string{"svg"}})
//	if err != nil {
//	    return err
//	}
//	os.WriteFile("crypt.svg", result.Artifacts["svg"], 0o644)
package pkg
