package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/joho/godotenv"

	"github.com/oksasatya/member-registry/config"
	"github.com/oksasatya/member-registry/internal/application"
	"github.com/oksasatya/member-registry/internal/container"
	"github.com/oksasatya/member-registry/internal/domain/membership"
	pginfra "github.com/oksasatya/member-registry/internal/infrastructure/postgres"
	"github.com/oksasatya/member-registry/internal/router"
	"github.com/oksasatya/member-registry/pkg/helpers"
)

// samples cover every plan, both date notations and one lapsed membership.
var samples = []map[string]any{
	{"regNo": "DEMO0001", "plan": "entry", "regDate": time.Now().Format("2006-01-02"), "name": "Asha Kulkarni", "gender": "female", "city": "Pune", "state": "Maharashtra", "religion": "Hindu", "education": "B.Com"},
	{"regNo": "DEMO0002", "plan": "silver", "regDate": time.Now().AddDate(0, 0, -115).Format("02/01/2006"), "name": "Ravi Shetty", "gender": "male", "city": "Mangaluru", "state": "Karnataka", "religion": "Hindu", "occupation": "Engineer"},
	{"regNo": "DEMO0003", "plan": "gold", "regDate": "2023-01-15", "name": "Meera Nair", "gender": "female", "city": "Kochi", "state": "Kerala", "maritalStatus": "never married"},
	{"regNo": "DEMO0004", "plan": "platinum", "name": "Imran Sheikh", "gender": "male", "city": "Hyderabad", "state": "Telangana", "religion": "Muslim"},
}

func main() {
	_ = godotenv.Load()
	cfg := config.Load()
	logger := helpers.NewLogger(cfg.AppName+"-seed", cfg.Env)

	loc, err := cfg.Location()
	if err != nil {
		log.Fatalf("invalid APP_TIMEZONE %q: %v", cfg.AppTimezone, err)
	}
	rules, err := membership.LoadRules(cfg.PlanRulesFile)
	if err != nil {
		log.Fatalf("plan rules: %v", err)
	}

	ctx := context.Background()
	pool, err := pginfra.NewPool(ctx, cfg.PostgresDSN(), cfg.DBMaxConns, cfg.DBMinConns, cfg.DBMaxConnLife, cfg.DBPingTimeout)
	if err != nil {
		log.Fatalf("failed to connect to postgres: %v", err)
	}
	defer pool.Close()

	container.SetConfig(cfg)
	container.SetLogger(logger)
	container.SetPGPool(pool)
	container.SetCalculator(membership.NewCalculator(rules, membership.NewDates(time.Now, loc)))
	svc, _ := router.BuildRegistrantService()

	for _, s := range samples {
		rec, err := svc.Create(ctx, s, "seed")
		switch {
		case errors.Is(err, application.ErrConflict):
			fmt.Printf("exists: %v\n", s["regNo"])
		case err != nil:
			log.Fatalf("failed to seed %v: %v", s["regNo"], err)
		default:
			fmt.Printf("seeded: %s plan=%s expires=%s status=%s\n", rec.RegNo, rec.Plan, rec.ExpiryDate.Format("2006-01-02"), rec.Status)
		}
	}
}
