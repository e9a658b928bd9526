// Package config defines the layout engine's settings and loads them from
// TOML or YAML files.
//
// Every field has a default ([Default]); files only need to name what they
// change. After decoding, [ApplyEnv] applies NODEFORMAT_* environment
// overrides and [Config.Validate] checks ranges with struct tags.
//
//	cfg, err := config.Load("layout.toml")
//	if err != nil {
//	    return err
//	}
//	engine := layout.NewEngine(cfg, sizes)
//
// # Formatter Selection
//
// Different graph types want different algorithms. [Config.FormatterFor]
// maps a graph's type to a [FormatterKind], falling back to DefaultFormatter.
package config
