package postgresstorage

import (
	"github.com/geo-mart/ABPedSim/internal/storage"
)

// Compile-time interface check. Connection behavior is covered by the
// embedded GORM backend's tests; New itself needs a reachable server.
var _ storage.Backend = (*Backend)(nil)
