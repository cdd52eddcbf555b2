package providers

import (
	"time"

	"github.com/samber/do/v2"

	"github.com/bookhaven/bookhaven-server/internal/config"
	"github.com/bookhaven/bookhaven-server/internal/logger"
	"github.com/bookhaven/bookhaven-server/internal/notify"
	"github.com/bookhaven/bookhaven-server/internal/service"
	"github.com/bookhaven/bookhaven-server/internal/validation"
)

// ProvideValidator provides the request validator.
func ProvideValidator(i do.Injector) (*validation.Validator, error) {
	return validation.New(), nil
}

// ProvideSender provides the notification sender: SMTP when configured,
// log-only otherwise.
func ProvideSender(i do.Injector) (notify.Sender, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	if cfg.Mail.Host == "" {
		log.Info("No SMTP host configured, notifications go to the log")
		return notify.NewLogSender(log.Logger), nil
	}

	log.Info("SMTP sender configured", "host", cfg.Mail.Host, "from", cfg.Mail.From)
	return notify.NewSMTPSender(notify.SMTPOptions{
		Host:     cfg.Mail.Host,
		Port:     cfg.Mail.Port,
		Username: cfg.Mail.Username,
		Password: cfg.Mail.Password,
		From:     cfg.Mail.From,
		Logger:   log.Logger,
	}), nil
}

// ProvideUserService provides the user service.
func ProvideUserService(i do.Injector) (*service.UserService, error) {
	storeHandle := do.MustInvoke[*StoreHandle](i)
	log := do.MustInvoke[*logger.Logger](i)
	return service.NewUserService(storeHandle.Store, log.Logger), nil
}

// ProvideCatalogService provides the catalog service.
func ProvideCatalogService(i do.Injector) (*service.CatalogService, error) {
	storeHandle := do.MustInvoke[*StoreHandle](i)
	v := do.MustInvoke[*validation.Validator](i)
	log := do.MustInvoke[*logger.Logger](i)
	return service.NewCatalogService(storeHandle.Store, v, log.Logger), nil
}

// ProvideCartService provides the cart service.
func ProvideCartService(i do.Injector) (*service.CartService, error) {
	storeHandle := do.MustInvoke[*StoreHandle](i)
	log := do.MustInvoke[*logger.Logger](i)
	return service.NewCartService(storeHandle.Store, log.Logger), nil
}

// ProvideOrderService provides the order service.
func ProvideOrderService(i do.Injector) (*service.OrderService, error) {
	cfg := do.MustInvoke[*config.Config](i)
	storeHandle := do.MustInvoke[*StoreHandle](i)
	users := do.MustInvoke[*service.UserService](i)
	v := do.MustInvoke[*validation.Validator](i)
	sender := do.MustInvoke[notify.Sender](i)
	log := do.MustInvoke[*logger.Logger](i)

	loanPeriod := time.Duration(cfg.Loans.LoanDays) * 24 * time.Hour
	return service.NewOrderService(storeHandle.Store, users, v, sender, loanPeriod, log.Logger), nil
}

// ProvideHistoryService provides the reconciliation view service.
func ProvideHistoryService(i do.Injector) (*service.HistoryService, error) {
	storeHandle := do.MustInvoke[*StoreHandle](i)
	log := do.MustInvoke[*logger.Logger](i)
	return service.NewHistoryService(storeHandle.Store, log.Logger), nil
}
