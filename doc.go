// FILE: lixenwraith/layered/doc.go

// Package layered provides hierarchical configuration access over an
// ordered chain of providers: command-line arguments, environment
// variables, hot-reloading JSON/YAML/TOML files, and mutable in-memory
// maps, composed with first-match-wins precedence.
//
// Every provider serves immutable snapshots that are swapped atomically
// on reload, so reads never block behind file I/O and multi-key reads
// against one snapshot are mutually consistent. Watch subscriptions
// deliver the current value first and then change-driven updates; a
// composed stream recomputes on every upstream emission and may re-emit
// an unchanged answer when a shadowed layer changes. Subscriptions are
// torn down by cancelling the subscription context.
//
// Most applications use the Builder:
//
//	reader, err := layered.NewBuilder().
//		WithArgs(os.Args[1:]).
//		WithEnvPrefix("APP_").
//		WithFile("config.toml").
//		WithDefaults(map[string]any{"server.port": 8080}).
//		Build()
//
// and read through the typed accessors, Scan, or Watch.
package layered
