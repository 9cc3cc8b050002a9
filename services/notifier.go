package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"text/template"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/yeremiapane/restaurant-ordering/database"
	"github.com/yeremiapane/restaurant-ordering/models"
	"github.com/yeremiapane/restaurant-ordering/utils"
)

// Notifier delivers the order confirmation message to the customer.
type Notifier interface {
	SendConfirmation(ctx context.Context, phone string, order models.Order) error
}

const confirmationTemplate = `Hi {{.Name}}, your order #{{.Ref}} has been confirmed. Total: {{.Total}}.` +
	`{{if .Delivery}} It will be delivered to {{.Address}}.{{else}} Please collect it at the counter.{{end}}` +
	`{{with .ETA}} Estimated time: {{.}}.{{end}}`

// MessageRenderer renders customer-facing notification text.
type MessageRenderer struct {
	tmpl     *template.Template
	currency string
}

func NewMessageRenderer(currencySymbol string) *MessageRenderer {
	return &MessageRenderer{
		tmpl:     template.Must(template.New("confirmation").Parse(confirmationTemplate)),
		currency: currencySymbol,
	}
}

func (r *MessageRenderer) Confirmation(order models.Order) (string, error) {
	data := struct {
		Name     string
		Ref      string
		Total    string
		Delivery bool
		Address  string
		ETA      string
	}{
		Name:     order.CustomerName,
		Ref:      order.ShortID(),
		Total:    utils.FormatCurrency(r.currency, order.GrandTotal),
		Delivery: order.OrderType == models.OrderTypeDelivery,
		Address:  order.Address,
	}
	switch {
	case order.EstimatedDeliveryTime != nil:
		data.ETA = order.EstimatedDeliveryTime.Format("15:04")
	case order.PickupTime != nil:
		data.ETA = order.PickupTime.Format("15:04")
	}

	var buf bytes.Buffer
	if err := r.tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("render confirmation: %w", err)
	}
	return buf.String(), nil
}

// confirmationPayload is the body shared by the webhook and Redis notifiers.
type confirmationPayload struct {
	To      string `json:"to"`
	Message string `json:"message"`
	OrderID string `json:"orderId"`
}

// LogNotifier only logs the message. It is the default for local setups.
type LogNotifier struct {
	Renderer *MessageRenderer
}

func (n *LogNotifier) SendConfirmation(ctx context.Context, phone string, order models.Order) error {
	msg, err := n.Renderer.Confirmation(order)
	if err != nil {
		return err
	}
	utils.Component("notifier").WithFields(logrus.Fields{
		"order_id": order.ID,
		"phone":    phone,
	}).Info(msg)
	return nil
}

// WebhookNotifier posts the message to an SMS/WhatsApp gateway.
type WebhookNotifier struct {
	URL        string
	Token      string
	Renderer   *MessageRenderer
	HTTPClient *http.Client
}

func NewWebhookNotifier(url, token string, renderer *MessageRenderer) *WebhookNotifier {
	return &WebhookNotifier{
		URL:      url,
		Token:    token,
		Renderer: renderer,
		HTTPClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

func (n *WebhookNotifier) SendConfirmation(ctx context.Context, phone string, order models.Order) error {
	msg, err := n.Renderer.Confirmation(order)
	if err != nil {
		return err
	}
	body, err := json.Marshal(confirmationPayload{To: phone, Message: msg, OrderID: order.ID})
	if err != nil {
		return fmt.Errorf("error marshaling notification: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.URL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("error creating request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Content-Type", "application/json")
	if n.Token != "" {
		req.Header.Set("Authorization", "Bearer "+n.Token)
	}

	resp, err := n.HTTPClient.Do(req)
	if err != nil {
		return fmt.Errorf("error sending notification: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("notification gateway returned %d: %s", resp.StatusCode, strings.TrimSpace(string(respBody)))
	}
	return nil
}

// Publisher is the subset of *redis.Client used by RedisNotifier.
type Publisher interface {
	Publish(ctx context.Context, channel string, message interface{}) *redis.IntCmd
}

// RedisNotifier publishes the message for an out-of-process sender.
type RedisNotifier struct {
	Client   Publisher
	Channel  string
	Renderer *MessageRenderer
}

func (n *RedisNotifier) SendConfirmation(ctx context.Context, phone string, order models.Order) error {
	msg, err := n.Renderer.Confirmation(order)
	if err != nil {
		return err
	}
	payload, err := json.Marshal(confirmationPayload{To: phone, Message: msg, OrderID: order.ID})
	if err != nil {
		return err
	}
	if err := n.Client.Publish(ctx, n.Channel, payload).Err(); err != nil {
		return fmt.Errorf("publish to %s: %w", n.Channel, err)
	}
	return nil
}

// RecordingNotifier stores every attempt, failed or not, for the admin console.
type RecordingNotifier struct {
	Next     Notifier
	Store    database.NotificationStore
	Channel  string
	Renderer *MessageRenderer
}

func (n *RecordingNotifier) SendConfirmation(ctx context.Context, phone string, order models.Order) error {
	sendErr := n.Next.SendConfirmation(ctx, phone, order)

	msg, err := n.Renderer.Confirmation(order)
	if err != nil {
		msg = ""
	}
	record := &models.Notification{
		ID:        utils.NewID(),
		OrderID:   order.ID,
		Phone:     phone,
		Channel:   n.Channel,
		Message:   msg,
		CreatedAt: time.Now().UTC(),
	}
	if sendErr != nil {
		errText := sendErr.Error()
		record.Error = &errText
	}
	if err := n.Store.CreateNotification(ctx, record); err != nil {
		utils.ErrorLogger.WithFields(logrus.Fields{
			"component": "notifier",
			"order_id":  order.ID,
		}).Errorf("Failed to record notification: %v", err)
	}
	return sendErr
}

type NotificationService struct {
	store database.NotificationStore
}

func NewNotificationService(store database.NotificationStore) *NotificationService {
	return &NotificationService{store: store}
}

func (s *NotificationService) List(ctx context.Context, limit int) ([]models.Notification, error) {
	list, err := s.store.ListNotifications(ctx, limit)
	return list, storeError(err, "notifications")
}
