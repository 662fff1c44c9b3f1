// Package config defines the format-agnostic authoring model of an experiment,
// along with the Loader interface that front ends implement.
//
// The `config.Model` is the single input of the `topology` package. Times are kept
// in seconds here; conversion into grid ticks happens in `topology`. Concrete
// loaders, such as the HCL one, live in separate packages.
package config
