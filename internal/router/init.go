package router

import (
	"time"

	"github.com/oksasatya/member-registry/internal/application"
	"github.com/oksasatya/member-registry/internal/container"
	repo "github.com/oksasatya/member-registry/internal/domain/repository"
	"github.com/oksasatya/member-registry/internal/infrastructure/cache"
	pginfra "github.com/oksasatya/member-registry/internal/infrastructure/postgres"
	"github.com/oksasatya/member-registry/internal/infrastructure/search"
	"github.com/oksasatya/member-registry/internal/infrastructure/storage"
	handlers "github.com/oksasatya/member-registry/internal/interface/http"
	"github.com/oksasatya/member-registry/internal/interface/middleware"
	"github.com/oksasatya/member-registry/internal/router/modules"
	mailtpl "github.com/oksasatya/member-registry/pkg/mailer/templates"
)

type RegistrantModuleDeps struct {
	Repo    repo.RegistrantRepository
	Service *application.RegistrantService
	Handler *handlers.RegistrantHandler
}

// BuildRegistrantService assembles the service from the container. Optional
// collaborators are attached only when their client was configured.
func BuildRegistrantService() (*application.RegistrantService, repo.RegistrantRepository) {
	cfg := container.GetConfig()
	calc := container.GetCalculator()
	r := pginfra.NewRegistrantRepository(container.GetPGPool(), calc.Dates().Location())

	svc := application.NewRegistrantService(r, calc, container.GetLogger())
	svc.StrictDates = cfg.StrictDates
	svc.RenewalHorizon = cfg.RenewalHorizonDays
	svc.Brand = mailtpl.Brand{
		CompanyName:    cfg.CompanyName,
		CompanyAddress: cfg.CompanyAddress,
		AppName:        cfg.AppName,
		LogoURL:        cfg.LogoURL,
		SupportURL:     cfg.SupportURL,
		PrivacyURL:     cfg.PrivacyURL,
		UnsubscribeURL: cfg.UnsubscribeURL,
		RenewURL:       cfg.RenewURL,
	}
	if rdb := container.GetRedis(); rdb != nil {
		svc.Options = cache.NewFilterOptions(rdb, cfg.FilterCacheTTL)
	}
	if es := container.GetES(); es != nil && cfg.ESRegistrantsIndex != "" {
		svc.Index = search.NewRegistrantIndex(es, cfg.ESRegistrantsIndex)
	}
	if pub := container.GetRabbitPub(); pub != nil {
		svc.Jobs = pub
	}
	if gcs := container.GetGCS(); gcs != nil && cfg.GCSBucket != "" {
		svc.Photos = storage.NewPhotoStore(gcs, cfg.GCSBucket)
	}
	return svc, r
}

func buildRegistrantDeps() RegistrantModuleDeps {
	svc, r := BuildRegistrantService()
	return RegistrantModuleDeps{
		Repo:    r,
		Service: svc,
		Handler: handlers.NewRegistrantHandler(svc, container.GetLogger()),
	}
}

// InitModules initializes all application modules and registers them with the router registry
// This function should be called once during application startup to wire up all modules
func InitModules(r *Registry) {
	cfg := container.GetConfig()
	rdb := container.GetRedis()
	deps := buildRegistrantDeps()

	gate := middleware.WriteGate(middleware.GateConfig{
		APIKey:     cfg.APIKey,
		APIKeyHash: cfg.APIKeyHash,
		JWT:        container.GetJWT(),
	})
	writeLimiter := middleware.RateLimit(rdb, cfg.RateLimitPerMinute, time.Minute, middleware.KeyByActor(), nil)
	storeCheck := middleware.StoreAvailable(deps.Service, cfg.DBPingTimeout, container.GetLogger())

	r.Add(modules.NewRegistrantModule(deps.Handler, storeCheck, gate, writeLimiter))

	if cfg.DebugMetricsEnabled {
		debugLimiter := middleware.RateLimit(rdb, 120, time.Minute, middleware.KeyByIPAndPath(), middleware.AllowPrivateIP())
		r.Add(modules.NewDebugModule(debugLimiter))
	}
}
