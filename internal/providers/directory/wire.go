package directory

import "github.com/google/wire"

// ProviderSet is the Wire provider set for the user directory.
var ProviderSet = wire.NewSet(NewUserDirectory)
