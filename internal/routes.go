package internal

import (
	"net/http"

	"trwlexporter/internal/controllers"
	"trwlexporter/internal/providers"
	"trwlexporter/internal/structures"
)

func InitRoutes(metricsController *controllers.MetricsController, accountsController *controllers.AccountsController, conf *structures.Config) providers.RouterProviderInterface {
	routers := providers.NewRouterProvider()

	routers.Get("/metrics", http.HandlerFunc(metricsController.Scrape))
	routers.Get("/accounts", http.HandlerFunc(accountsController.GetAccounts))
	routers.Get("/account", http.HandlerFunc(accountsController.GetAccount))
	routers.Get("/", http.RedirectHandler("/metrics", http.StatusPermanentRedirect))
	return routers
}
