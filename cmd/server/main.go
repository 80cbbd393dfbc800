package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"runtime/debug"
	"syscall"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill-redisstream/pkg/redisstream"
	"github.com/common-nighthawk/go-figure"
	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/ospass/ospass-server/auth"
	"github.com/ospass/ospass-server/authcode"
	"github.com/ospass/ospass-server/cardcrypto"
	"github.com/ospass/ospass-server/challenge"
	"github.com/ospass/ospass-server/events"
	"github.com/ospass/ospass-server/instrumentation"
	"github.com/ospass/ospass-server/internal/config"
	"github.com/ospass/ospass-server/server"
	"github.com/ospass/ospass-server/sessions"
	"github.com/ospass/ospass-server/storage/memstore"
	"github.com/ospass/ospass-server/storage/redisstore"
	"github.com/ospass/ospass-server/storage/sqlstore"
	"github.com/ospass/ospass-server/token"
)

func main() {
	for {
		if err := run(); err != nil {
			log.Error().Err(err).Msg("error running server")
			time.Sleep(1 * time.Second)
		} else {
			break
		}
	}
	log.Info().Msg("server stopped")
}

func run() (returnError error) {
	defer func() {
		if r := recover(); r != nil {
			log.Error().Interface("panic", r).Msg("recovered from panic")
			debug.PrintStack()
			returnError = errors.New("panic recovered")
		}
	}()

	c := config.New()
	devMode := c.GetEnv() == "DEV"
	if devMode {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	}
	displayAppname(c.GetAppName())

	inst, err := instrumentation.New(instrumentation.Config{
		ServiceName: c.GetAppName(),
		Enabled:     !devMode,
	})
	if err != nil {
		return errors.Wrap(err, "create instrumentation")
	}
	defer func() { _ = inst.Shutdown(context.Background()) }()

	sqlStore, err := sqlstore.Open(c.GetSQLitePath())
	if err != nil {
		return errors.Wrap(err, "open sqlite store")
	}
	defer func() { _ = sqlStore.Close() }()

	decoder, err := cardcrypto.NewDecoder(c.GetCardSecretHex(), c.GetCardIVHex())
	if err != nil {
		return errors.Wrap(err, "create card decoder")
	}

	srv, err := buildServer(c, decoder, sqlStore, inst, devMode)
	if err != nil {
		return err
	}

	httpServer := &http.Server{Addr: c.GetPort(), Handler: srv}
	go listenAndServe(httpServer)
	waitForStopSignal()
	return shutdown(httpServer)
}

func buildServer(c config.Config, decoder *cardcrypto.Decoder, sqlStore *sqlstore.Store, inst *instrumentation.Instrumentation, devMode bool) (*server.Server, error) {
	var (
		challengeRepo challenge.Repo
		sessionRepo   sessions.Repo
		codeRepo      authcode.Repo
		refreshRepo   token.RefreshRepo
		revocations   token.RevocationStore
		publisher     events.Publisher
	)

	if devMode {
		challengeRepo = memstore.NewChallengeStore()
		sessionRepo = memstore.NewSessionStore()
		codeRepo = memstore.NewCodeStore()
		refreshRepo = memstore.NewRefreshStore()
		revocations = memstore.NewRevocationStore()
		publisher = events.NopPublisher{}
	} else {
		opts, err := redis.ParseURL(c.GetRedisURL())
		if err != nil {
			return nil, errors.Wrap(err, "parse redis url")
		}
		redisClient := redis.NewClient(opts)

		challengeRepo = redisstore.NewChallengeStore(redisClient)
		sessionRepo = redisstore.NewSessionStore(redisClient)
		codeRepo = redisstore.NewCodeStore(redisClient)
		refreshRepo = redisstore.NewRefreshStore(redisClient)
		revocations = redisstore.NewRevocationStore(redisClient)

		streamPublisher, err := redisstream.NewPublisher(
			redisstream.PublisherConfig{Client: redisClient},
			watermill.NewStdLogger(false, false),
		)
		if err != nil {
			return nil, errors.Wrap(err, "create stream publisher")
		}
		publisher = events.NewWatermillPublisher(streamPublisher)
	}

	memberRepo := sqlstore.NewMemberRepo(sqlStore)
	userRepo := sqlstore.NewUserRepo(sqlStore)
	clientRepo := sqlstore.NewClientRepo(sqlStore)

	challengeMgr := challenge.NewManager(challengeRepo, c.GetChallengeExpiry())
	sessionMgr := sessions.NewManager(sessionRepo, c.GetSessionExpiry())
	codeMgr := authcode.NewManager(codeRepo, sessionMgr, clientRepo, c.GetAuthCodeExpiry())

	tokenMgr := token.New(
		map[token.Domain]token.Keyring{
			token.DomainWeb: {
				Access:  token.NewHMACSigner(c.GetWebAccessSecret()),
				Refresh: token.NewHMACSigner(c.GetWebRefreshSecret()),
			},
			token.DomainApp: {
				Access:  token.NewHMACSigner(c.GetAppAccessSecret()),
				Refresh: token.NewHMACSigner(c.GetAppRefreshSecret()),
			},
		},
		refreshRepo,
		revocations,
		token.WithAccessExpiry(c.GetAccessTokenExpiry()),
		token.WithRefreshExpiry(token.DomainWeb, c.GetWebRefreshTokenExpiry()),
		token.WithRefreshExpiry(token.DomainApp, c.GetAppRefreshTokenExpiry()),
		token.WithRotationThreshold(c.GetRefreshRotationThreshold()),
		token.WithRevocationCap(c.GetRevocationRetentionCap()),
	)

	verifier, err := auth.NewService(decoder, challengeMgr, auth.Repos{
		Members: memberRepo,
		Users:   userRepo,
	})
	if err != nil {
		return nil, errors.Wrap(err, "create auth service")
	}

	return server.New(c, server.Deps{
		Verifier:   verifier,
		Challenges: challengeMgr,
		Sessions:   sessionMgr,
		Codes:      codeMgr,
		Tokens:     tokenMgr,
		Clients:    clientRepo,
		Users:      userRepo,
		Publisher:  publisher,
		Metrics:    inst.Metrics(),
	})
}

func listenAndServe(server *http.Server) {
	log.Info().Str("addr", server.Addr).Msg("server listening")
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Error().Err(err).Msg("server.ListenAndServe")
	}
}

func waitForStopSignal() {
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop
}

func shutdown(server *http.Server) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		return errors.Wrap(err, "server.Shutdown")
	}
	return nil
}

func displayAppname(appname string) {
	myFigure := figure.NewFigure(appname, "cybermedium", true)
	myFigure.Print()
	fmt.Println()
}
