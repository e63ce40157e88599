// Command faketrwl is a local stand-in for the Traewelling API. It serves
// GET /user/{name}/statuses with paginated synthetic check-ins so the
// exporter can be run end to end without real accounts or tokens.
//
// Usage:
//
//	go run ./tests/faketrwl -addr :18091 -pages 5 -per-page 10 -rate-limit 0.1
//
// Then point the exporter at it:
//
//	upstream:
//	  baseUrl: http://127.0.0.1:18091
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"math/rand"
	"net/http"
	"strconv"
	"strings"
	"sync/atomic"
	"time"
)

var (
	addr      = flag.String("addr", ":18091", "listen address")
	pages     = flag.Int("pages", 5, "pages of history per account")
	perPage   = flag.Int("per-page", 10, "check-ins per page")
	rateLimit = flag.Float64("rate-limit", 0, "fraction of requests answered with 429")
	failRate  = flag.Float64("fail", 0, "fraction of requests answered with 502")
	grow      = flag.Duration("grow", 0, "add one new check-in per account at this interval (0 = static)")
)

var categories = []string{"regional", "suburban", "nationalExpress", "subway", "tram", "bus"}

var lines = []string{"RE 7", "RE 42", "S 1", "ICE 100", "ICE 557", "U 2", "RB 33", "STR 11"}

var stations = []string{
	"Berlin Hbf", "Hamburg Hbf", "Köln Hbf", "München Hbf",
	"Frankfurt (Main) Hbf", "Leipzig Hbf", "Dresden Hbf", "Hannover Hbf",
}

type stopover struct {
	Name               string `json:"name"`
	IsArrivalDelayed   bool   `json:"isArrivalDelayed"`
	IsDepartureDelayed bool   `json:"isDepartureDelayed"`
	Cancelled          bool   `json:"cancelled"`
}

type train struct {
	Trip        int64    `json:"trip"`
	Category    string   `json:"category"`
	Number      string   `json:"number"`
	LineName    string   `json:"lineName"`
	Distance    int64    `json:"distance"`
	Points      int64    `json:"points"`
	Duration    int64    `json:"duration"`
	Speed       float64  `json:"speed"`
	Origin      stopover `json:"origin"`
	Destination stopover `json:"destination"`
}

type status struct {
	ID        int64  `json:"id"`
	CreatedAt string `json:"createdAt"`
	Train     train  `json:"train"`
}

type response struct {
	Data  []status `json:"data"`
	Links struct {
		Next *string `json:"next"`
	} `json:"links"`
}

// extra counts check-ins added after startup, shared by all accounts so a
// running exporter has something new to merge on later cycles.
var extra atomic.Int64

// makeStatus derives a deterministic check-in from its id, so restarting the
// fake server yields the same history and the exporter's dedup kicks in.
func makeStatus(user string, id int64) status {
	rng := rand.New(rand.NewSource(id*31 + int64(len(user))))
	createdAt := time.Now().Add(-time.Duration(id) * time.Hour).Truncate(time.Minute)
	distance := int64(5000 + rng.Intn(300000))
	duration := int64(10 + rng.Intn(240))

	s := status{
		ID:        id,
		CreatedAt: createdAt.Format(time.RFC3339),
		Train: train{
			Trip:     id * 7,
			Category: categories[rng.Intn(len(categories))],
			LineName: lines[rng.Intn(len(lines))],
			Distance: distance,
			Points:   int64(1 + rng.Intn(50)),
			Duration: duration,
			Speed:    float64(distance) / 1000 / (float64(duration) / 60),
			Origin: stopover{
				Name:               stations[rng.Intn(len(stations))],
				IsDepartureDelayed: rng.Float64() < 0.2,
			},
			Destination: stopover{
				Name:             stations[rng.Intn(len(stations))],
				IsArrivalDelayed: rng.Float64() < 0.25,
				Cancelled:        rng.Float64() < 0.05,
			},
		},
	}
	s.Train.Number = s.Train.LineName
	return s
}

// statusID spreads account histories over disjoint id ranges so the exporter
// sees distinct check-ins per account.
func statusID(user string, n int64) int64 {
	var base int64
	for _, r := range user {
		base = base*131 + int64(r)
	}
	if base < 0 {
		base = -base
	}
	return base%1000000*10000 + n
}

func statuses(w http.ResponseWriter, r *http.Request) {
	if *rateLimit > 0 && rand.Float64() < *rateLimit {
		w.Header().Set("Retry-After", "2")
		w.WriteHeader(http.StatusTooManyRequests)
		return
	}
	if *failRate > 0 && rand.Float64() < *failRate {
		w.WriteHeader(http.StatusBadGateway)
		return
	}

	parts := strings.Split(strings.Trim(r.URL.Path, "/"), "/")
	if len(parts) != 3 || parts[0] != "user" || parts[2] != "statuses" {
		http.NotFound(w, r)
		return
	}
	user := parts[1]

	page := 1
	if p := r.URL.Query().Get("page"); p != "" {
		var err error
		page, err = strconv.Atoi(p)
		if err != nil || page < 1 {
			http.Error(w, "bad page", http.StatusBadRequest)
			return
		}
	}

	total := int64(*pages**perPage) + extra.Load()
	// Newest first: page 1 starts at the highest sequence number.
	first := total - int64(page-1)*int64(*perPage)

	var resp response
	resp.Data = []status{}
	for i := int64(0); i < int64(*perPage) && first-i > 0; i++ {
		resp.Data = append(resp.Data, makeStatus(user, statusID(user, first-i)))
	}
	if first-int64(*perPage) > 0 {
		next := fmt.Sprintf("http://%s/user/%s/statuses?page=%d", r.Host, user, page+1)
		resp.Links.Next = &next
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(resp)
}

func main() {
	flag.Parse()

	if *grow > 0 {
		go func() {
			for range time.Tick(*grow) {
				extra.Add(1)
			}
		}()
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/", statuses)

	fmt.Printf("faketrwl listening on %s (%d pages x %d check-ins per account)\n", *addr, *pages, *perPage)
	if *rateLimit > 0 || *failRate > 0 {
		fmt.Printf("injecting failures: %.0f%% 429, %.0f%% 502\n", *rateLimit*100, *failRate*100)
	}
	if err := http.ListenAndServe(*addr, mux); err != nil {
		fmt.Println(err)
	}
}
