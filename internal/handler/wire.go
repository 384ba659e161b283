package handler

import (
	"github.com/google/wire"
)

// ProviderSet is the Wire provider set for upstream routing.
var ProviderSet = wire.NewSet(NewProxy)
