package main

import (
	"context"
	"crypto/tls"
	"log"
	"net/http"
	"sync"
	"time"

	"golang.org/x/crypto/acme/autocert"

	"github.com/iCorv/covid-19-data-explorer/explorer"
	"github.com/iCorv/covid-19-data-explorer/sources"
)

// server holds the current data build and swaps it atomically on refresh.
// The pipeline itself is pure - all mutable state lives here.
type server struct {
	mu         sync.RWMutex
	explorer   *explorer.Explorer
	client     *sources.Client
	designated string
}

// current returns the explorer for the latest completed refresh
func (s *server) current() *explorer.Explorer {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.explorer
}

// refresh fetches the source tables and swaps in a fresh build
// a failed refresh leaves the previous build serving
func (s *server) refresh(ctx context.Context) error {
	start := time.Now().UTC()

	in, err := s.client.FetchAll(ctx)
	if err != nil {
		return err
	}

	e, err := explorer.New(in, s.designated)
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.explorer = e
	s.mu.Unlock()

	log.Printf("server: refreshed data in %s", time.Now().UTC().Sub(start))

	return nil
}

// scheduleRefresh schedules a regular data refresh from our sources
func (s *server) scheduleRefresh(interval time.Duration) {
	log.Printf("server: scheduling refresh every %s", interval)

	ScheduleAt(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
		defer cancel()
		err := s.refresh(ctx)
		if err != nil {
			log.Printf("server: scheduled refresh failed:%s", err)
		}
	}, time.Now().UTC().Add(interval), interval)
}

// ScheduleAt schedules execution for a particular time and at intervals thereafter.
// If interval is 0, the function will be called only once.
// Callers should call close(task) before exiting the app or to stop repeating the action.
func ScheduleAt(f func(), t time.Time, i time.Duration) chan struct{} {
	task := make(chan struct{})
	now := time.Now().UTC()

	// Check that t is not in the past, if it is increment it by interval until it is not
	for now.Sub(t) > 0 {
		t = t.Add(i)
	}

	// We ignore the timer returned by AfterFunc - so no cancelling, perhaps rethink this
	tillTime := t.Sub(now)
	time.AfterFunc(tillTime, func() {
		// Call f at the time specified
		go f()

		// If we have an interval, call it again repeatedly after interval
		// stopping if the caller calls stop(task) on returned channel
		if i > 0 {
			ticker := time.NewTicker(i)
			go func() {
				for {
					select {
					case <-ticker.C:
						go f()
					case <-task:
						ticker.Stop()
						return
					}
				}
			}()
		}
	})

	return task // call close(task) to stop executing the task for repeated tasks
}

// StartTLSServer starts a TLS server using lets encrypt
func StartTLSServer(handler http.Handler, domains []string) {
	certManager := &autocert.Manager{
		Prompt:     autocert.AcceptTOS,
		Email:      "",                                 // Email for problems with certs
		HostPolicy: autocert.HostWhitelist(domains...), // Domains to request certs for
		Cache:      autocert.DirCache("secrets"),       // Cache certs in secrets folder
	}

	srv := &http.Server{
		// Set the port in the preferred string format
		Addr: ":443",

		Handler: handler,

		// The default server from net/http has no timeouts - set some limits
		ReadHeaderTimeout: 30 * time.Second,
		ReadTimeout:       60 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       10 * time.Second,

		TLSConfig: &tls.Config{
			GetCertificate: certManager.GetCertificate,
			MinVersion:     tls.VersionTLS12,
		},
	}

	// Handle all :80 traffic using autocert to allow http-01 challenge responses
	go func() {
		http.ListenAndServe(":80", certManager.HTTPHandler(nil))
	}()

	err := srv.ListenAndServeTLS("", "")
	if err != nil {
		log.Printf("error: starting server %s", err)
	}
}
