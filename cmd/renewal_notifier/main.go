package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"

	"github.com/oksasatya/member-registry/config"
	"github.com/oksasatya/member-registry/internal/container"
	"github.com/oksasatya/member-registry/internal/domain/membership"
	pginfra "github.com/oksasatya/member-registry/internal/infrastructure/postgres"
	"github.com/oksasatya/member-registry/internal/metrics"
	"github.com/oksasatya/member-registry/internal/router"
	"github.com/oksasatya/member-registry/pkg/helpers"
)

// renewal_notifier enqueues renewal reminder emails on RENEWAL_CRON, or once
// with -once.
func main() {
	once := flag.Bool("once", false, "queue reminders once and exit")
	days := flag.Int("days", -1, "horizon in days (default RENEWAL_HORIZON_DAYS)")
	flag.Parse()

	_ = godotenv.Load()
	cfg := config.Load()
	logger := helpers.NewLogger(cfg.AppName+"-renewal-notifier", cfg.Env)
	metrics.MustRegister()

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

	pub, err := helpers.NewRabbitPublisher(cfg.RabbitMQURL, cfg.RabbitMQEmailQueue)
	if err != nil {
		log.Fatalf("rabbitmq: %v", err)
	}
	defer pub.Close()

	container.SetConfig(cfg)
	container.SetLogger(logger)
	container.SetPGPool(pool)
	container.SetRabbitPub(pub)
	container.SetCalculator(membership.NewCalculator(rules, membership.NewDates(time.Now, loc)))
	svc, _ := router.BuildRegistrantService()

	horizon := cfg.RenewalHorizonDays
	if *days >= 0 {
		horizon = *days
	}
	run := func() {
		c, cancel := context.WithTimeout(ctx, 5*time.Minute)
		defer cancel()
		n, err := svc.QueueRenewalReminders(c, horizon)
		if err != nil {
			helpers.LogError(logger, "renewal reminders failed", err, nil)
			return
		}
		logger.WithField("queued", n).WithField("days", horizon).Info("renewal reminders queued")
	}

	if *once {
		run()
		return
	}

	sched := cron.New(cron.WithLocation(loc))
	if _, err := sched.AddFunc(cfg.RenewalCron, run); err != nil {
		log.Fatalf("invalid RENEWAL_CRON %q: %v", cfg.RenewalCron, err)
	}
	sched.Start()
	logger.WithField("schedule", cfg.RenewalCron).Info("renewal notifier started")

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop
	<-sched.Stop().Done()
	logger.Info("renewal notifier stopped")
}
