package main

import (
	"log"
	"net/http"
)

func main() {
	log.Println("========================================")
	log.Println("🚢 OBN Survey Planning Server")
	log.Println("========================================")

	http.HandleFunc("/planDeviation", corsMiddleware(planDeviationHandler))
	http.HandleFunc("/planSequence", corsMiddleware(planSequenceHandler))
	http.HandleFunc("/health", corsMiddleware(healthHandler))

	log.Println("Server starting on :8080")
	log.Println("")
	log.Println("Endpoints:")
	log.Println("  POST /planDeviation - Route one survey line around exclusion zones")
	log.Println("  POST /planSequence  - Build a timed acquisition sequence")
	log.Println("  GET  /health        - Check server status")
	log.Println("")
	log.Println("CORS enabled for all origins")
	log.Println("========================================")

	if err := http.ListenAndServe(":8080", nil); err != nil {
		log.Fatal(err)
	}
}
