// Package optionrows serves the option rows behind reference selectors over
// HTTP. Each named source is exposed at its own path and answers with a JSON
// envelope {"data": [...]}, filtered by the q and limit query parameters.
//
// Rows come from a Catalog, usually an *options.Resolver, so remote and
// static sources are served the same way. LoadDir builds a resolver from a
// directory of JSON or YAML row files.
package optionrows
