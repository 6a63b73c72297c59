package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"os/signal"
	"sort"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"trackpro-client/internal/config"
	"trackpro-client/internal/pkg/apiclient"
	"trackpro-client/internal/pkg/background"
	"trackpro-client/internal/pkg/kvstore"
	"trackpro-client/internal/pkg/logger"
	"trackpro-client/internal/pkg/session"
	"trackpro-client/internal/queries"
	"trackpro-client/internal/query"
	accountsvc "trackpro-client/internal/service/account"
	activitysvc "trackpro-client/internal/service/activity"
	adminsvc "trackpro-client/internal/service/admin"
	"trackpro-client/internal/service/auth"
	communitysvc "trackpro-client/internal/service/community"
	messagingsvc "trackpro-client/internal/service/messaging"
	notificationsvc "trackpro-client/internal/service/notification"
	profilesvc "trackpro-client/internal/service/profile"
	subscriptionsvc "trackpro-client/internal/service/subscription"
)

// Detached work such as the server side logout gets this long to finish.
const backgroundTimeout = 10 * time.Second

var errUsage = errors.New("usage")

type command struct {
	summary string
	run     func(ctx context.Context, c *cli, args []string) error
}

var commands = map[string]command{
	"login":           {"sign in", runLogin},
	"logout":          {"sign out", runLogout},
	"register":        {"create an account (pending admin approval)", runRegister},
	"whoami":          {"show the signed-in user", runWhoami},
	"forgot-password": {"mail a password reset link", runForgotPassword},
	"reset-password":  {"set a new password with a reset token", runResetPassword},
	"activities":      {"list your activities", runActivities},
	"activity":        {"show one activity: activity <id>", runActivity},
	"upload":          {"upload a GPX file: upload [-sport cycling] <file>", runUpload},
	"feed":            {"show the community feed", runFeed},
	"post":            {"post to the community: post <text>", runPost},
	"inbox":           {"list conversations, or read one: inbox [-follow] [<id>]", runInbox},
	"send":            {"send a message: send -to <user id> <text>", runSend},
	"notifications":   {"list notifications", runNotifications},
	"subscription":    {"show your subscription", runSubscription},
	"profile":         {"show or edit your athlete profile", runProfile},
	"watch":           {"poll unread counts and subscription until interrupted", runWatch},
	"admin":           {"admin tools: users|approve|reject|subscriptions|subscribe", runAdmin},
}

func main() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Printf("failed to read .env: %v", err)
	}

	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}
	cmd, ok := commands[os.Args[1]]
	if !ok {
		fmt.Fprintf(os.Stderr, "unknown command %q\n\n", os.Args[1])
		usage()
		os.Exit(2)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	lg, err := logger.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		log.Fatalf("failed to build logger: %v", err)
	}
	defer lg.Sync() //nolint:errcheck

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	c, cleanup, err := newCLI(ctx, cfg, lg)
	if err != nil {
		lg.Fatal("failed to start", zap.Error(err))
	}

	err = cmd.run(ctx, c, os.Args[2:])
	cleanup()
	if err != nil {
		if !errors.Is(err, errUsage) {
			fmt.Fprintln(os.Stderr, "error:", describe(err))
		}
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, "usage: trackpro <command> [flags] [args]")
	fmt.Fprintln(os.Stderr)
	names := make([]string, 0, len(commands))
	for name := range commands {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Fprintf(os.Stderr, "  %-16s %s\n", name, commands[name].summary)
	}
}

// newCLI wires storage, transport, services and the query layer.
func newCLI(ctx context.Context, cfg config.AppConfig, lg *zap.Logger) (*cli, func(), error) {
	kv, err := kvstore.Open(cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("open local store: %w", err)
	}

	tokens := session.NewTokenStore(kv)
	api := apiclient.New(apiclient.Config{
		BaseURL:   cfg.APIBase,
		Timeout:   cfg.HTTPTimeout,
		RateLimit: cfg.RateLimit,
		RateBurst: cfg.RateBurst,
	}, tokens, lg)
	runner := background.NewRunner(backgroundTimeout, lg)

	authService := auth.NewAuthService(api, tokens, session.NewUserCache(kv, lg), runner, lg)
	controller := auth.StartController(ctx, authService, lg)
	accountService := accountsvc.NewAccountService(api, lg)

	q := queries.New(queries.Services{
		Account:       accountService,
		Activities:    activitysvc.NewActivityService(api, lg),
		Admin:         adminsvc.NewAdminService(api, lg),
		Community:     communitysvc.NewCommunityService(api, lg),
		Messaging:     messagingsvc.NewMessagingService(api, lg),
		Notifications: notificationsvc.NewNotificationService(api, lg),
		Profiles:      profilesvc.NewProfileService(kv, accountService, runner, lg),
		Subscriptions: subscriptionsvc.NewSubscriptionService(api, lg),
	}, controller, query.NewCache(lg), lg)

	cleanup := func() {
		runner.Wait()
		if err := kv.Close(); err != nil {
			lg.Warn("failed to close local store", zap.Error(err))
		}
	}

	return &cli{
		auth:    authService,
		session: controller,
		q:       q,
		out:     os.Stdout,
		in:      os.Stdin,
		logger:  lg,
	}, cleanup, nil
}
