package middleware

import "github.com/google/wire"

// ProviderSet is the Wire provider set for HTTP middleware.
var ProviderSet = wire.NewSet(NewReconcile)
