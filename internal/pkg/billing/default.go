package billing

import (
	"sync"

	"github.com/vidscribe/VidScribe/internal/pkg/database"
)

var (
	defaultService *Service
	defaultOnce    sync.Once
)

// DefaultService returns the process-wide billing service backed by the
// global DB handle.
func DefaultService() *Service {
	defaultOnce.Do(func() {
		defaultService = NewServiceFromDB(database.GetDB())
	})
	return defaultService
}
