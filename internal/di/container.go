// Package di provides dependency injection configuration for the BookHaven
// server.
package di

import (
	"github.com/samber/do/v2"

	"github.com/bookhaven/bookhaven-server/internal/config"
	"github.com/bookhaven/bookhaven-server/internal/di/providers"
	"github.com/bookhaven/bookhaven-server/internal/logger"
	"github.com/bookhaven/bookhaven-server/internal/notify"
	"github.com/bookhaven/bookhaven-server/internal/service"
	"github.com/bookhaven/bookhaven-server/internal/validation"
)

// NewContainer creates and configures the DI container with all providers.
func NewContainer() *do.RootScope {
	injector := do.New()

	// Core infrastructure
	do.Provide(injector, providers.ProvideConfig)
	do.Provide(injector, providers.ProvideLogger)
	do.Provide(injector, providers.ProvideValidator)
	do.Provide(injector, providers.ProvideSender)

	// Storage and search
	do.Provide(injector, providers.ProvideStore)
	do.Provide(injector, providers.ProvideSearchIndex)
	do.Provide(injector, providers.ProvideSearchService)

	// Business services
	do.Provide(injector, providers.ProvideUserService)
	do.Provide(injector, providers.ProvideCatalogService)
	do.Provide(injector, providers.ProvideCartService)
	do.Provide(injector, providers.ProvideOrderService)
	do.Provide(injector, providers.ProvideHistoryService)

	// Workers
	do.Provide(injector, providers.ProvideImporter)
	do.Provide(injector, providers.ProvideOverdueSweeper)

	// Server
	do.Provide(injector, providers.ProvideHTTPServer)

	return injector
}

// Bootstrap initializes all services and returns the HTTP server handle for
// lifecycle management. Invocations run in dependency order, so this also
// starts the importer and the overdue sweep.
func Bootstrap(injector *do.RootScope) (*providers.HTTPServerHandle, error) {
	if _, err := do.Invoke[*config.Config](injector); err != nil {
		return nil, err
	}
	_ = do.MustInvoke[*logger.Logger](injector)
	_ = do.MustInvoke[*validation.Validator](injector)
	_ = do.MustInvoke[notify.Sender](injector)

	_ = do.MustInvoke[*providers.StoreHandle](injector)
	_ = do.MustInvoke[*providers.SearchIndexHandle](injector)
	_ = do.MustInvoke[*service.SearchService](injector)

	_ = do.MustInvoke[*service.UserService](injector)
	_ = do.MustInvoke[*service.CatalogService](injector)
	_ = do.MustInvoke[*service.CartService](injector)
	_ = do.MustInvoke[*service.OrderService](injector)
	_ = do.MustInvoke[*service.HistoryService](injector)

	_ = do.MustInvoke[*providers.ImporterHandle](injector)
	_ = do.MustInvoke[*providers.SweeperHandle](injector)

	server := do.MustInvoke[*providers.HTTPServerHandle](injector)

	// The index is rebuilt from the catalog at every boot; imports that
	// landed while the server was down become searchable immediately.
	providers.ReindexAtStartup(injector)

	return server, nil
}
