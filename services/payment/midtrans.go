// Package payment talks to the Midtrans payment processor.
package payment

import (
	"crypto/sha512"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"
	midtrans "github.com/midtrans/midtrans-go"
	"github.com/midtrans/midtrans-go/coreapi"
	"github.com/midtrans/midtrans-go/snap"
)

// ProviderMidtrans names the processor in PaymentEvent rows.
const ProviderMidtrans = "midtrans"

var ErrGatewayDisabled = errors.New("payment gateway is not configured")

// IntentRequest carries what the processor needs to open a checkout.
type IntentRequest struct {
	OrderID       string
	Amount        int64
	UserID        uint
	CourseID      uint
	CourseTitle   string
	CustomerName  string
	CustomerEmail string
}

type Intent struct {
	OrderID     string `json:"order_id"`
	Token       string `json:"token"`
	RedirectURL string `json:"redirect_url"`
}

// Status is the processor's view of a transaction.
type Status struct {
	OrderID           string
	TransactionID     string
	TransactionStatus string
	FraudStatus       string
	GrossAmount       string
	PaymentType       string
}

// Settled reports whether the processor considers the money captured.
func (s Status) Settled() bool {
	return IsSettled(s.TransactionStatus, s.FraudStatus)
}

// Closed reports whether the transaction can no longer settle.
func (s Status) Closed() bool {
	return IsClosed(s.TransactionStatus)
}

// Gateway is the subset of processor operations the service relies on.
type Gateway interface {
	CreateIntent(req IntentRequest) (*Intent, error)
	CheckStatus(orderID string) (*Status, error)
	VerifySignature(orderID, statusCode, grossAmount, signature string) bool
}

type midtransGateway struct {
	serverKey string
	snap      snap.Client
	core      coreapi.Client
}

// NewMidtrans returns a Gateway backed by Midtrans Snap and Core API.
func NewMidtrans(serverKey string, production bool) (Gateway, error) {
	if strings.TrimSpace(serverKey) == "" {
		return nil, ErrGatewayDisabled
	}
	env := midtrans.Sandbox
	if production {
		env = midtrans.Production
	}
	g := &midtransGateway{serverKey: serverKey}
	g.snap.New(serverKey, env)
	g.core.New(serverKey, env)
	return g, nil
}

func (g *midtransGateway) CreateIntent(req IntentRequest) (*Intent, error) {
	if req.Amount <= 0 {
		return nil, errors.New("invalid amount")
	}
	snapReq := &snap.Request{
		TransactionDetails: midtrans.TransactionDetails{
			OrderID:  req.OrderID,
			GrossAmt: req.Amount,
		},
		CustomerDetail: &midtrans.CustomerDetails{
			FName: req.CustomerName,
			Email: req.CustomerEmail,
		},
		Items: &[]midtrans.ItemDetails{
			{
				ID:       strconv.FormatUint(uint64(req.CourseID), 10),
				Price:    req.Amount,
				Qty:      1,
				Name:     truncate(req.CourseTitle, 50),
				Category: "course",
			},
		},
		CustomField1: strconv.FormatUint(uint64(req.UserID), 10),
		CustomField2: strconv.FormatUint(uint64(req.CourseID), 10),
	}

	resp, mErr := g.snap.CreateTransaction(snapReq)
	if mErr != nil {
		return nil, fmt.Errorf("midtrans create transaction: %w", mErr)
	}
	return &Intent{OrderID: req.OrderID, Token: resp.Token, RedirectURL: resp.RedirectURL}, nil
}

func (g *midtransGateway) CheckStatus(orderID string) (*Status, error) {
	resp, mErr := g.core.CheckTransaction(orderID)
	if mErr != nil {
		return nil, fmt.Errorf("midtrans check transaction: %w", mErr)
	}
	return &Status{
		OrderID:           resp.OrderID,
		TransactionID:     resp.TransactionID,
		TransactionStatus: resp.TransactionStatus,
		FraudStatus:       resp.FraudStatus,
		GrossAmount:       resp.GrossAmount,
		PaymentType:       resp.PaymentType,
	}, nil
}

func (g *midtransGateway) VerifySignature(orderID, statusCode, grossAmount, signature string) bool {
	return VerifySignature(g.serverKey, orderID, statusCode, grossAmount, signature)
}

// Signature computes SHA512(order_id + status_code + gross_amount + server_key).
func Signature(serverKey, orderID, statusCode, grossAmount string) string {
	sum := sha512.Sum512([]byte(orderID + statusCode + grossAmount + serverKey))
	return hex.EncodeToString(sum[:])
}

func VerifySignature(serverKey, orderID, statusCode, grossAmount, signature string) bool {
	if signature == "" || serverKey == "" {
		return false
	}
	want := Signature(serverKey, orderID, statusCode, grossAmount)
	return subtle.ConstantTimeCompare([]byte(want), []byte(strings.ToLower(signature))) == 1
}

// IsSettled maps Midtrans statuses: settlement, or capture accepted by fraud screening.
func IsSettled(transactionStatus, fraudStatus string) bool {
	switch strings.ToLower(transactionStatus) {
	case "settlement":
		return true
	case "capture":
		return strings.EqualFold(fraudStatus, "accept")
	}
	return false
}

// IsClosed reports the terminal Midtrans statuses that never lead to settlement.
func IsClosed(transactionStatus string) bool {
	switch strings.ToLower(transactionStatus) {
	case "expire", "cancel", "deny", "failure":
		return true
	}
	return false
}

// NewOrderID builds an order id that still identifies the pair if custom fields are lost.
func NewOrderID(userID, courseID uint) string {
	return fmt.Sprintf("ENR-%d-%d-%s", courseID, userID, strings.ReplaceAll(uuid.NewString(), "-", "")[:12])
}

// ParseOrderID is the inverse of NewOrderID.
func ParseOrderID(orderID string) (userID, courseID uint, ok bool) {
	parts := strings.Split(orderID, "-")
	if len(parts) != 4 || parts[0] != "ENR" {
		return 0, 0, false
	}
	c, err1 := strconv.ParseUint(parts[1], 10, 64)
	u, err2 := strconv.ParseUint(parts[2], 10, 64)
	if err1 != nil || err2 != nil {
		return 0, 0, false
	}
	return uint(u), uint(c), true
}

// ParseAmount converts a gross_amount string such as "150000.00" to whole units.
func ParseAmount(gross string) int64 {
	f, err := strconv.ParseFloat(strings.TrimSpace(gross), 64)
	if err != nil {
		return 0
	}
	return int64(f + 0.5)
}

func truncate(s string, n int) string {
	if n <= 0 || len(s) <= n {
		return s
	}
	return s[:n]
}
