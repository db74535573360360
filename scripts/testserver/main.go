// Command testserver is a local HTTP target for exercising recurl by hand.
// It returns a configurable status code after an optional artificial delay,
// and can fail a fraction of requests to produce mixed status counts.
//
// Example:
//
//	go run ./scripts/testserver -port 8080 -delay 50ms -fail-rate 0.1
//	recurl -n 100 -p 10 --pretty -- http://localhost:8080/
package main

import (
	"flag"
	"fmt"
	"log"
	"math/rand"
	"net/http"
	"sync/atomic"
	"time"
)

func main() {
	port := flag.Int("port", 8080, "Listening port")
	status := flag.Int("status", 200, "Status code for successful responses")
	failStatus := flag.Int("fail-status", 500, "Status code for injected failures")
	failRate := flag.Float64("fail-rate", 0, "Fraction of requests answered with fail-status (0.0-1.0)")
	delay := flag.Duration("delay", 0, "Artificial delay before responding")
	jitter := flag.Duration("jitter", 0, "Extra random delay, uniform in [0, jitter)")
	flag.Parse()

	if *failRate < 0 || *failRate > 1 {
		log.Fatalf("fail-rate must be between 0.0 and 1.0, got %g", *failRate)
	}

	var served int64
	rnd := rand.New(rand.NewSource(time.Now().UnixNano()))

	http.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		if *delay > 0 {
			time.Sleep(*delay)
		}
		if *jitter > 0 {
			time.Sleep(time.Duration(rnd.Int63n(int64(*jitter))))
		}

		code := *status
		if *failRate > 0 && rnd.Float64() < *failRate {
			code = *failStatus
		}
		w.WriteHeader(code)
		fmt.Fprintf(w, "request %d\n", atomic.AddInt64(&served, 1))
	})

	addr := fmt.Sprintf(":%d", *port)
	log.Printf("test target listening on %s (status=%d, delay=%s, fail-rate=%g)", addr, *status, *delay, *failRate)
	log.Fatal(http.ListenAndServe(addr, nil))
}
