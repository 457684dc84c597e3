package main

import (
	"flag"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/gorilla/handlers"

	"github.com/app-sre/explorer/internal/test"
)

const readHeaderTimeout = 20 * time.Second

// Serves the fake Datadog API and Splunk HEC used by the test suite, for
// running the CLIs by hand:
//
//	DD_API_KEY=test-api-key DD_APP_KEY=test-app-key \
//	EXPLORER_DATADOG_API_URL=http://localhost:8126 ddexplorer list-metrics
func main() {
	datadogAddr := flag.String("datadog", ":8126", "listen address of the Datadog API")
	splunkAddr := flag.String("splunk", ":8088", "listen address of the Splunk HEC")
	flag.Parse()

	splunk := &http.Server{
		Addr:              *splunkAddr,
		Handler:           handlers.LoggingHandler(os.Stdout, test.NewSplunkHEC().Handler()),
		ReadHeaderTimeout: readHeaderTimeout,
	}
	go func() {
		log.Printf("Starting mock Splunk HEC on %s", *splunkAddr)
		if err := splunk.ListenAndServe(); err != nil {
			log.Fatalf("Splunk HEC server failed: %v", err)
		}
	}()

	datadog := &http.Server{
		Addr:              *datadogAddr,
		Handler:           handlers.LoggingHandler(os.Stdout, test.NewDatadogAPI().Handler()),
		ReadHeaderTimeout: readHeaderTimeout,
	}
	log.Printf("Starting mock Datadog API on %s", *datadogAddr)
	if err := datadog.ListenAndServe(); err != nil {
		log.Fatalf("Datadog API server failed: %v", err)
	}
}
