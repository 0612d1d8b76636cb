// Package catalogs provides the embedded utility resolution tables for the
// supported CSS utility frameworks.
package catalogs

import _ "embed"

// TailwindYAML is the bundled Tailwind utility table, embedded at build time.
//
//go:embed tailwind.yaml
var TailwindYAML []byte

// BootstrapYAML is the bundled Bootstrap utility table, embedded at build time.
//
//go:embed bootstrap.yaml
var BootstrapYAML []byte
