package shipping

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/nguyendm/salemarket-backend/pkg/config"
	"github.com/nguyendm/salemarket-backend/pkg/db/models"
	pkgerrors "github.com/nguyendm/salemarket-backend/pkg/errors"
)

// GHN service parameters applied to every shipment. The carrier account
// is registered for a single service tier and district pair, so these
// are fixed rather than derived per order.
const (
	defaultServiceID      = 53320
	defaultFromDistrictID = 1442
	defaultToDistrictID   = 1443
	defaultToWardCode     = "20314"
	defaultFeeWeight      = 200
	defaultParcelWeight   = 500
	defaultInsuranceValue = 500000
	defaultPaymentTypeID  = 2
	defaultRequiredNote   = "CHOXEMHANG"

	responseBodyReadLimit int64 = 1024
)

var (
	errAPIURLRequired = errors.New("carrier api url is required")
	errTokenRequired  = errors.New("carrier token is required")
	errShopIDRequired = errors.New("carrier shop id is required")
)

// Client talks to the GHN shipping API for fee quotes and shipment
// creation.
type Client struct {
	httpClient *http.Client
	baseURL    string
	token      string
	shopID     string
}

// Option configures optional client behavior.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithBaseURL overrides the configured carrier base URL.
func WithBaseURL(baseURL string) Option {
	return func(c *Client) {
		trimmed := strings.TrimSpace(baseURL)
		if trimmed != "" {
			c.baseURL = trimmed
		}
	}
}

// NewClient builds a GHN client from the carrier configuration.
func NewClient(cfg config.CarrierConfig, opts ...Option) (*Client, error) {
	baseURL := strings.TrimSpace(cfg.APIURL)
	if baseURL == "" {
		return nil, errAPIURLRequired
	}
	token := strings.TrimSpace(cfg.Token)
	if token == "" {
		return nil, errTokenRequired
	}
	shopID := strings.TrimSpace(cfg.ShopID)
	if shopID == "" {
		return nil, errShopIDRequired
	}

	timeout := cfg.RequestTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	client := &Client{
		baseURL:    baseURL,
		token:      token,
		shopID:     shopID,
		httpClient: &http.Client{Timeout: timeout},
	}

	for _, opt := range opts {
		if opt != nil {
			opt(client)
		}
	}

	if client.httpClient == nil {
		client.httpClient = &http.Client{Timeout: timeout}
	}

	return client, nil
}

// ShipmentLine is one order line forwarded to the carrier when a
// shipment is created.
type ShipmentLine struct {
	Name     string `json:"name"`
	Quantity int    `json:"quantity"`
	Price    int    `json:"price"`
}

// CalculateFee quotes the delivery fee for shipping from the given shop
// to the buyer. Errors are dependency-coded so the checkout can abort
// before any database work starts.
func (c *Client) CalculateFee(ctx context.Context, shop *models.Shop, buyer *models.User) (decimal.Decimal, error) {
	if c == nil {
		return decimal.Zero, pkgerrors.New(pkgerrors.CodeDependency, "shipping client not configured")
	}
	if shop == nil || buyer == nil {
		return decimal.Zero, pkgerrors.New(pkgerrors.CodeValidation, "shop and buyer are required for a fee quote")
	}

	payload := map[string]any{
		"from_district_id": defaultFromDistrictID,
		"service_id":       defaultServiceID,
		"to_district_id":   defaultToDistrictID,
		"to_ward_code":     defaultToWardCode,
		"weight":           defaultFeeWeight,
		"insurance_value":  defaultInsuranceValue,
	}

	var apiResp struct {
		Data struct {
			Total *decimal.Decimal `json:"total"`
		} `json:"data"`
	}
	if err := c.post(ctx, "shipping-order/fee", payload, &apiResp); err != nil {
		return decimal.Zero, err
	}
	if apiResp.Data.Total == nil {
		return decimal.Zero, pkgerrors.New(pkgerrors.CodeDependency, "carrier fee response missing total")
	}
	return *apiResp.Data.Total, nil
}

// CreateShippingOrder registers the physical shipment with the carrier
// and returns its tracking code.
func (c *Client) CreateShippingOrder(ctx context.Context, order *models.Order, buyer *models.User, lines []ShipmentLine) (string, error) {
	if c == nil {
		return "", pkgerrors.New(pkgerrors.CodeDependency, "shipping client not configured")
	}
	if order == nil || buyer == nil {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "order and buyer are required to create a shipment")
	}
	if len(lines) == 0 {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "shipment requires at least one line")
	}

	payload := map[string]any{
		"to_name":         buyer.Username,
		"to_ward_code":    defaultToWardCode,
		"to_district_id":  defaultToDistrictID,
		"payment_type_id": defaultPaymentTypeID,
		"required_note":   defaultRequiredNote,
		"items":           lines,
		"weight":          defaultParcelWeight,
	}

	var apiResp struct {
		Data struct {
			OrderCode string `json:"order_code"`
		} `json:"data"`
	}
	if err := c.post(ctx, "shipping-order/create", payload, &apiResp); err != nil {
		return "", err
	}
	if strings.TrimSpace(apiResp.Data.OrderCode) == "" {
		return "", pkgerrors.New(pkgerrors.CodeDependency, "carrier create response missing order code")
	}
	return apiResp.Data.OrderCode, nil
}

func (c *Client) post(ctx context.Context, path string, payload any, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "marshal carrier request")
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.buildURL(path), bytes.NewReader(body))
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "build carrier request")
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Token", c.token)
	httpReq.Header.Set("ShopId", c.shopID)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "execute carrier request")
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, responseBodyReadLimit))
		return pkgerrors.Wrap(pkgerrors.CodeDependency, fmt.Errorf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(msg))), "carrier request failed")
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decode carrier response")
	}
	return nil
}

func (c *Client) buildURL(path string) string {
	return fmt.Sprintf("%s/%s", strings.TrimRight(c.baseURL, "/"), strings.TrimLeft(path, "/"))
}
