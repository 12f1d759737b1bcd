package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"payment-reconciler/internal/domain"
)

// PaymentGateway creates hosted payment sessions. The order id travels
// as custom field cField1 and is echoed back verbatim in the webhook
// notification, which is the only link between the two flows.
type PaymentGateway interface {
	CreatePaymentProcess(ctx context.Context, req *ProcessRequest) (*domain.CheckoutSession, error)
	PageCode(ctx context.Context, method string) (string, error)
}

type ProcessRequest struct {
	OrderID     int64
	Amount      string
	Description string
	Method      string
	FullName    string
	Phone       string
	Email       string
	SuccessURL  string
	CancelURL   string
	NotifyURL   string
}

// Hebrew error strings surfaced to the storefront when a session cannot
// be created. The webhook side never uses these; its caller is the
// gateway itself.
const (
	msgSessionFailed  = "יצירת עסקה נכשלה, נסו שוב מאוחר יותר"
	msgUnknownMethod  = "אמצעי התשלום שנבחר אינו זמין"
	msgGatewayTimeout = "חיבור לספק הסליקה נכשל"
)

type Config struct {
	BaseURL     string // sandbox or production
	UserID      string
	APIKey      string
	PageCodeURL string // remote page-code catalog, optional
	PageCodeTTL time.Duration
	Timeout     time.Duration
}

// defaultPageCodes is the hardcoded fallback used whenever the remote
// catalog cannot be fetched.
var defaultPageCodes = map[string]string{
	"credit-card": "44ddbd2737f2",
	"bit":         "8e2e4b7c91a0",
	"apple-pay":   "c13f09ad55e7",
	"google-pay":  "77b64ce00c2d",
}

type client struct {
	cfg  Config
	http *http.Client

	mu        sync.RWMutex
	pageCodes map[string]string
	fetchedAt time.Time
}

func NewClient(cfg Config) PaymentGateway {
	if cfg.Timeout == 0 {
		cfg.Timeout = 10 * time.Second
	}
	if cfg.PageCodeTTL == 0 {
		cfg.PageCodeTTL = 10 * time.Minute
	}
	return &client{
		cfg:  cfg,
		http: &http.Client{Timeout: cfg.Timeout},
	}
}

type processResponse struct {
	Status int `json:"status"`
	Err    struct {
		ID      int    `json:"id"`
		Message string `json:"message"`
	} `json:"err"`
	Data struct {
		ProcessID    int64  `json:"processId"`
		ProcessToken string `json:"processToken"`
		URL          string `json:"url"`
	} `json:"data"`
}

func (c *client) CreatePaymentProcess(ctx context.Context, req *ProcessRequest) (*domain.CheckoutSession, error) {
	pageCode, err := c.PageCode(ctx, req.Method)
	if err != nil {
		return nil, err
	}

	form := url.Values{}
	form.Set("pageCode", pageCode)
	form.Set("userId", c.cfg.UserID)
	form.Set("apiKey", c.cfg.APIKey)
	form.Set("sum", req.Amount)
	form.Set("description", req.Description)
	form.Set("pageField[fullName]", req.FullName)
	form.Set("pageField[phone]", req.Phone)
	form.Set("pageField[email]", req.Email)
	form.Set("successUrl", req.SuccessURL)
	form.Set("cancelUrl", req.CancelURL)
	form.Set("notifyUrl", req.NotifyURL)
	form.Set("cField1", strconv.FormatInt(req.OrderID, 10))

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.cfg.BaseURL+"/createPaymentProcess", strings.NewReader(form.Encode()))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", msgGatewayTimeout, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", msgGatewayTimeout, err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%s: gateway returned %d", msgSessionFailed, resp.StatusCode)
	}

	var pr processResponse
	if err := json.Unmarshal(body, &pr); err != nil {
		return nil, fmt.Errorf("%s: %w", msgSessionFailed, err)
	}
	if pr.Status != 1 || pr.Data.URL == "" {
		if pr.Err.Message != "" {
			return nil, fmt.Errorf("%s: %s", msgSessionFailed, pr.Err.Message)
		}
		return nil, fmt.Errorf("%s", msgSessionFailed)
	}

	return &domain.CheckoutSession{
		OrderID:      req.OrderID,
		RedirectURL:  pr.Data.URL,
		ProcessID:    pr.Data.ProcessID,
		ProcessToken: pr.Data.ProcessToken,
	}, nil
}

// PageCode resolves a payment-method key to its configured gateway page
// code. The remote catalog is cached for PageCodeTTL; on any fetch
// failure the hardcoded defaults apply.
func (c *client) PageCode(ctx context.Context, method string) (string, error) {
	codes := c.pageCodeCatalog(ctx)
	code, ok := codes[method]
	if !ok {
		return "", fmt.Errorf("%s: %q", msgUnknownMethod, method)
	}
	return code, nil
}

func (c *client) pageCodeCatalog(ctx context.Context) map[string]string {
	c.mu.RLock()
	if c.pageCodes != nil && time.Since(c.fetchedAt) < c.cfg.PageCodeTTL {
		codes := c.pageCodes
		c.mu.RUnlock()
		return codes
	}
	c.mu.RUnlock()

	fetched := c.fetchPageCodes(ctx)

	c.mu.Lock()
	defer c.mu.Unlock()
	if fetched != nil {
		c.pageCodes = fetched
		c.fetchedAt = time.Now()
		return fetched
	}
	// keep a stale catalog over the defaults when we have one
	if c.pageCodes != nil {
		return c.pageCodes
	}
	return defaultPageCodes
}

func (c *client) fetchPageCodes(ctx context.Context) map[string]string {
	if c.cfg.PageCodeURL == "" {
		return nil
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.cfg.PageCodeURL, nil)
	if err != nil {
		return nil
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil
	}
	var codes map[string]string
	if err := json.NewDecoder(resp.Body).Decode(&codes); err != nil || len(codes) == 0 {
		return nil
	}
	return codes
}
