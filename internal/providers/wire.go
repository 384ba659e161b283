// Package providers aggregates all infrastructure-layer implementations
// (claims, directory) into a single Wire provider set.
package providers

import (
	"github.com/google/wire"

	"github.com/otterscale/otterscale-gateway/internal/providers/claims"
	"github.com/otterscale/otterscale-gateway/internal/providers/directory"
)

// ProviderSet is the Wire provider set for all external adapters.
var ProviderSet = wire.NewSet(
	claims.ProviderSet,
	directory.ProviderSet,
)
