package router

import (
	"net/http"

	"tuition/internal/controller"
)

func NewRouter(c *controller.Controller) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /api/ping", c.Ping)
	mux.HandleFunc("POST /api/requests/new", c.NewRequest)
	mux.HandleFunc("GET /api/requests/my", c.MyRequests)
	mux.HandleFunc("GET /api/requests/available", c.AvailableRequests)
	mux.HandleFunc("PUT /api/requests/{requestId}/test/complete", c.CompleteTest)
	mux.HandleFunc("PUT /api/requests/{requestId}/approve", c.ApproveBid)
	mux.HandleFunc("GET /api/requests/{requestId}/match", c.RequestMatch)
	mux.HandleFunc("POST /api/bids/new", c.NewBid)
	mux.HandleFunc("GET /api/bids/{requestId}/list", c.RequestBids)
	mux.HandleFunc("POST /api/matches/{matchId}/invoice", c.GenerateInvoice)
	mux.HandleFunc("POST /api/certificates/new", c.NewCertificate)
	mux.HandleFunc("DELETE /api/certificates/{certificateId}", c.DeleteCertificate)

	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte("page not found"))
	})

	cors := http.NewServeMux()
	cors.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		w.Header().Set("Accept", "*/*")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
		} else {
			mux.ServeHTTP(w, r)
		}
	})

	return cors
}
