package claims

import (
	"github.com/google/wire"

	"github.com/otterscale/otterscale-gateway/internal/core"
)

// ProviderSet is the Wire provider set for claim extraction.
var ProviderSet = wire.NewSet(
	NewExtractor,
	wire.Bind(new(core.ClaimsExtractor), new(*Extractor)),
)
