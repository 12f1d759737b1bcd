package config

import (
	"os"
	"strconv"
	"time"

	_ "github.com/joho/godotenv/autoload"
)

const (
	growSandboxURL    = "https://sandbox.meshulam.co.il/api/light/server/1.0"
	growProductionURL = "https://secure.meshulam.co.il/api/light/server/1.0"
)

type Config struct {
	ListenAddr string

	// payment gateway
	GatewayBaseURL     string
	GatewayUserID      string
	GatewayAPIKey      string
	GatewayPageCodeURL string
	GatewayTimeout     time.Duration

	// order store
	StoreBaseURL        string
	StoreConsumerKey    string
	StoreConsumerSecret string
	StoreTimeout        time.Duration

	// callback URLs handed to the gateway at session creation
	SuccessURL string
	CancelURL  string
	NotifyURL  string

	WorkerInterval time.Duration
}

func Load() Config {
	gatewayBase := getenv("GROW_API_BASE", "")
	if gatewayBase == "" {
		if getenv("GROW_ENV", "sandbox") == "production" {
			gatewayBase = growProductionURL
		} else {
			gatewayBase = growSandboxURL
		}
	}

	return Config{
		ListenAddr: getenv("LISTEN_ADDR", ":8080"),

		GatewayBaseURL:     gatewayBase,
		GatewayUserID:      os.Getenv("GROW_USER_ID"),
		GatewayAPIKey:      os.Getenv("GROW_API_KEY"),
		GatewayPageCodeURL: os.Getenv("GROW_PAGE_CODE_URL"),
		GatewayTimeout:     getenvDuration("GATEWAY_TIMEOUT", 10*time.Second),

		StoreBaseURL:        os.Getenv("WOO_BASE_URL"),
		StoreConsumerKey:    os.Getenv("WOO_CONSUMER_KEY"),
		StoreConsumerSecret: os.Getenv("WOO_CONSUMER_SECRET"),
		StoreTimeout:        getenvDuration("STORE_TIMEOUT", 15*time.Second),

		SuccessURL: os.Getenv("CHECKOUT_SUCCESS_URL"),
		CancelURL:  os.Getenv("CHECKOUT_CANCEL_URL"),
		NotifyURL:  os.Getenv("CHECKOUT_NOTIFY_URL"),

		WorkerInterval: getenvDuration("WORKER_INTERVAL", 1*time.Minute),
	}
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getenvDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	if d, err := time.ParseDuration(v); err == nil {
		return d
	}
	if secs, err := strconv.Atoi(v); err == nil {
		return time.Duration(secs) * time.Second
	}
	return fallback
}
