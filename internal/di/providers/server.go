package providers

import (
	"context"
	"net/http"

	"github.com/samber/do/v2"

	"github.com/bookhaven/bookhaven-server/internal/api"
	"github.com/bookhaven/bookhaven-server/internal/config"
	"github.com/bookhaven/bookhaven-server/internal/logger"
	"github.com/bookhaven/bookhaven-server/internal/notify"
	"github.com/bookhaven/bookhaven-server/internal/service"
)

// HTTPServerHandle wraps http.Server with Shutdownable.
type HTTPServerHandle struct {
	*http.Server
	api *api.Server
}

// Shutdown implements do.Shutdownable.
func (h *HTTPServerHandle) Shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	err := h.Server.Shutdown(ctx)
	h.api.Close()
	return err
}

// ProvideHTTPServer provides the HTTP server with the API mounted.
func ProvideHTTPServer(i do.Injector) (*HTTPServerHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)
	storeHandle := do.MustInvoke[*StoreHandle](i)

	apiServer := api.NewServer(api.Options{
		Config:  cfg,
		Logger:  log.Logger,
		Store:   storeHandle.Store,
		Catalog: do.MustInvoke[*service.CatalogService](i),
		Carts:   do.MustInvoke[*service.CartService](i),
		Orders:  do.MustInvoke[*service.OrderService](i),
		History: do.MustInvoke[*service.HistoryService](i),
		Users:   do.MustInvoke[*service.UserService](i),
		Search:  do.MustInvoke[*service.SearchService](i),
		Sender:  do.MustInvoke[notify.Sender](i),
	})

	server := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      apiServer,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	return &HTTPServerHandle{Server: server, api: apiServer}, nil
}
