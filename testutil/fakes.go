package testutil

import (
	"errors"
	"sync"

	"coursehub/services/payment"
)

// FakeGateway is an in-memory payment.Gateway.
type FakeGateway struct {
	mu        sync.Mutex
	ServerKey string
	Intents   []payment.IntentRequest
	Statuses  map[string]*payment.Status
}

func NewFakeGateway(serverKey string) *FakeGateway {
	return &FakeGateway{ServerKey: serverKey, Statuses: map[string]*payment.Status{}}
}

func (g *FakeGateway) CreateIntent(req payment.IntentRequest) (*payment.Intent, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.Intents = append(g.Intents, req)
	return &payment.Intent{
		OrderID:     req.OrderID,
		Token:       "snap-token-" + req.OrderID,
		RedirectURL: "https://app.sandbox.midtrans.com/snap/v2/vtweb/" + req.OrderID,
	}, nil
}

func (g *FakeGateway) CheckStatus(orderID string) (*payment.Status, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	s, ok := g.Statuses[orderID]
	if !ok {
		return nil, errors.New("transaction not found")
	}
	return s, nil
}

func (g *FakeGateway) VerifySignature(orderID, statusCode, grossAmount, signature string) bool {
	return payment.VerifySignature(g.ServerKey, orderID, statusCode, grossAmount, signature)
}

func (g *FakeGateway) SetStatus(s payment.Status) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.Statuses[s.OrderID] = &s
}

// SentMail is one message captured by FakeMailer.
type SentMail struct {
	To      string
	Subject string
}

// FakeMailer records messages; Sent receives each one as it is delivered.
type FakeMailer struct {
	Sent chan SentMail
}

func NewFakeMailer() *FakeMailer {
	return &FakeMailer{Sent: make(chan SentMail, 16)}
}

func (m *FakeMailer) Send(toEmail, _, subject, _ string) error {
	m.Sent <- SentMail{To: toEmail, Subject: subject}
	return nil
}
