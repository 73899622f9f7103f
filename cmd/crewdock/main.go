package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"runtime/debug"
	"syscall"
	"time"

	"github.com/common-nighthawk/go-figure"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	crewdock "github.com/crewdock/go-crewdock-client"
	"github.com/crewdock/go-crewdock-client/identity"
	"github.com/crewdock/go-crewdock-client/internal/config"
)

func main() {
	if err := run(); err != nil {
		log.Fatal().Err(err).Msg("crewdock client stopped")
	}
	log.Info().Msg("crewdock client stopped")
}

func run() (returnError error) {
	defer func() {
		if r := recover(); r != nil {
			log.Error().Interface("panic", r).Msg("recovered from panic")
			debug.PrintStack()
			returnError = errors.New("panic recovered")
		}
	}()

	_ = godotenv.Load()
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix

	cfg := config.New()
	displayAppname(cfg.GetAppName())

	client, err := crewdock.NewClient(cfg)
	if err != nil {
		return err
	}
	defer client.Session.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := client.Session.Bootstrap(ctx); err != nil {
		return err
	}

	if id, ok := client.Session.Identity(); ok {
		log.Info().Str("user", id.User.FullName()).Str("role", string(id.Role)).Msg("session restored")
	} else if email := os.Getenv("CREWDOCK_EMAIL"); email != "" {
		role := identity.Role(config.GetEnv("CREWDOCK_ROLE", string(identity.RoleAdmin)))
		if err := client.Session.Login(ctx, role, email, os.Getenv("CREWDOCK_PASSWORD")); err != nil {
			return err
		}
		id, _ := client.Session.Identity()
		log.Info().Str("user", id.User.FullName()).Str("role", string(id.Role)).Msg("logged in")
	} else {
		log.Info().Msg("no session and no credentials in env, staying anonymous")
	}

	// The scheduler keeps the session alive from here; wait for interrupt.
	waitForStopSignal()
	return nil
}

func waitForStopSignal() {
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop
}

func displayAppname(appname string) {
	myFigure := figure.NewFigure(appname, "cybermedium", true)
	myFigure.Print()
	fmt.Println()
}
