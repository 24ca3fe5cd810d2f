package main

import (
	"context"
	"net"
	"net/http"
	"time"

	"github.com/ochinchina/wlreplay/internal/orderstub"
	log "github.com/sirupsen/logrus"
)

// StubCommand serves an in-memory order service to rehearse workloads against
type StubCommand struct {
	Listen string `short:"l" long:"listen" description:"address to listen on" default:"127.0.0.1:14000"`
}

var stubCommand StubCommand

func (sc *StubCommand) Execute(args []string) error {
	listener, err := net.Listen("tcp", sc.Listen)
	if err != nil {
		log.WithFields(log.Fields{log.ErrorKey: err, "addr": sc.Listen}).Error("Failed to listen on address")
		return err
	}
	log.WithFields(log.Fields{"addr": listener.Addr().String()}).Info("Start stub order service")

	server := &http.Server{Handler: orderstub.NewServer()}
	ctx, cancel := signalContext()
	defer cancel()
	go func() {
		<-ctx.Done()
		shutdownCtx, done := context.WithTimeout(context.Background(), 5*time.Second)
		defer done()
		server.Shutdown(shutdownCtx)
	}()

	if err := server.Serve(listener); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

func init() {
	parser.AddCommand("stub",
		"serve a stub order service",
		"Serve an in-memory order service that answers the user, product and order routes.",
		&stubCommand)
}
