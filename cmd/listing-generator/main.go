package main

import (
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"log"
	"math/rand"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-faker/faker/v4"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// ListingRequest mirrors the create-listing payload the API expects.
type ListingRequest struct {
	Title        string        `json:"title"`
	Purpose      string        `json:"purpose"`
	PropertyType string        `json:"propertyType"`
	Price        float64       `json:"price"`
	Currency     string        `json:"currency"`
	Home         *HomeDetails  `json:"home,omitempty"`
	Car          *CarDetails   `json:"car,omitempty"`
	Images       []string      `json:"images,omitempty"`
}

type HomeDetails struct {
	Bedrooms  int     `json:"bedrooms"`
	Bathrooms int     `json:"bathrooms"`
	AreaSqFt  float64 `json:"area_sq_ft"`
	Furnished bool    `json:"furnished"`
}

type CarDetails struct {
	Make    string `json:"make"`
	Model   string `json:"model"`
	Year    int    `json:"year"`
	Mileage int    `json:"mileage"`
}

func main() {
	targetURL := flag.String("target", "http://localhost:8080/api/property", "Target URL for creating listings")
	rps := flag.Int("rps", 5, "Requests per second")
	secret := flag.String("jwt-secret", "dev-secret", "Shared HS256 secret for minting client tokens")
	flag.Parse()

	log.Printf("Starting generator: target=%s, rps=%d\n", *targetURL, *rps)

	ticker := time.NewTicker(time.Second / time.Duration(*rps))
	defer ticker.Stop()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	for {
		select {
		case <-ticker.C:
			// Each request runs in its own goroutine so a slow server
			// does not stall the ticker.
			go sendRequest(*targetURL, *secret)
		case <-ctx.Done():
			log.Println("Shutting down generator...")
			return
		}
	}
}

func sendRequest(url, secret string) {
	reqData := randomListing()

	body, err := json.Marshal(reqData)
	if err != nil {
		log.Printf("ERROR: failed to marshal request: %v", err)
		return
	}

	req, err := http.NewRequest(http.MethodPost, url, bytes.NewBuffer(body))
	if err != nil {
		log.Printf("ERROR: failed to build request: %v", err)
		return
	}
	req.Header.Set("Content-Type", "application/json")

	token, err := mintClientToken(secret)
	if err != nil {
		log.Printf("ERROR: failed to mint token: %v", err)
		return
	}
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		log.Printf("ERROR: failed to send request: %v", err)
		return
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			log.Printf("Failed to close response body: %v", err)
		}
	}()

	if resp.StatusCode != http.StatusCreated {
		log.Printf("WARN: received non-201 status code: %d", resp.StatusCode)
	} else {
		log.Printf("INFO: listing created, status: %d", resp.StatusCode)
	}
}

func randomListing() ListingRequest {
	if rand.Intn(2) == 0 {
		return ListingRequest{
			Title:        faker.Sentence(),
			Purpose:      pick("SELL", "RENT"),
			PropertyType: "HOME",
			Price:        float64(rand.Intn(90000000)+1000000) / 100.0,
			Currency:     "USD",
			Home: &HomeDetails{
				Bedrooms:  rand.Intn(5) + 1,
				Bathrooms: rand.Intn(3) + 1,
				AreaSqFt:  float64(rand.Intn(300000)+40000) / 100.0,
				Furnished: rand.Intn(2) == 0,
			},
		}
	}
	return ListingRequest{
		Title:        faker.Sentence(),
		Purpose:      pick("SELL", "RENT"),
		PropertyType: "CAR",
		Price:        float64(rand.Intn(5000000)+300000) / 100.0,
		Currency:     "USD",
		Car: &CarDetails{
			Make:    faker.FirstName(),
			Model:   faker.Word(),
			Year:    2010 + rand.Intn(15),
			Mileage: rand.Intn(200000),
		},
	}
}

func pick(options ...string) string {
	return options[rand.Intn(len(options))]
}

// mintClientToken signs a throwaway client identity. Only usable against
// environments sharing the dev secret.
func mintClientToken(secret string) (string, error) {
	claims := jwt.MapClaims{
		"sub":  uuid.New().String(),
		"role": "client",
		"exp":  time.Now().Add(time.Hour).Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}
