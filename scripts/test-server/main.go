// A throwaway target server for exercising surge locally: fast endpoints,
// fixed-latency endpoints, and endpoints that fail at a configurable rate.
package main

import (
	"flag"
	"fmt"
	"log"
	"net/http"
	"runtime"
	"strconv"
	"sync/atomic"
	"time"
)

func main() {
	addr := flag.String("addr", ":8080", "listen address")
	flag.Parse()

	runtime.GOMAXPROCS(runtime.NumCPU())

	http.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "healthy")
	})

	// Immediate response, minimal overhead.
	http.HandleFunc("/fast", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain")
		fmt.Fprint(w, "OK")
	})

	// /delay/{ms}: sleep the given number of milliseconds before replying.
	http.HandleFunc("/delay/", func(w http.ResponseWriter, r *http.Request) {
		ms, err := strconv.Atoi(r.URL.Path[len("/delay/"):])
		if err != nil || ms < 0 {
			http.Error(w, "bad delay", http.StatusBadRequest)
			return
		}
		time.Sleep(time.Duration(ms) * time.Millisecond)
		fmt.Fprintf(w, "slept %dms", ms)
	})

	// /status/{code}: reply with the given status code.
	http.HandleFunc("/status/", func(w http.ResponseWriter, r *http.Request) {
		code, err := strconv.Atoi(r.URL.Path[len("/status/"):])
		if err != nil || code < 100 || code > 599 {
			http.Error(w, "bad status", http.StatusBadRequest)
			return
		}
		w.WriteHeader(code)
		fmt.Fprintf(w, "status %d", code)
	})

	// /flaky/{n}: every n-th request returns a 503.
	var flakyHits atomic.Int64
	http.HandleFunc("/flaky/", func(w http.ResponseWriter, r *http.Request) {
		n, err := strconv.Atoi(r.URL.Path[len("/flaky/"):])
		if err != nil || n < 1 {
			http.Error(w, "bad ratio", http.StatusBadRequest)
			return
		}
		if flakyHits.Add(1)%int64(n) == 0 {
			w.WriteHeader(http.StatusServiceUnavailable)
			fmt.Fprint(w, "injected failure")
			return
		}
		fmt.Fprint(w, "OK")
	})

	server := &http.Server{
		Addr:              *addr,
		ReadTimeout:       5 * time.Second,
		WriteTimeout:      90 * time.Second,
		IdleTimeout:       120 * time.Second,
		MaxHeaderBytes:    1 << 20,
		ReadHeaderTimeout: 2 * time.Second,
	}

	log.Printf("surge test target listening on %s (%d cores)", *addr, runtime.NumCPU())
	if err := server.ListenAndServe(); err != nil {
		log.Fatal(err)
	}
}
