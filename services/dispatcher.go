package services

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/yeremiapane/restaurant-ordering/models"
	"github.com/yeremiapane/restaurant-ordering/utils"
)

const defaultNotifyTimeout = 10 * time.Second

// Dispatcher runs notifications after the triggering write has been
// persisted. Sends are detached from the request context and their failures
// are logged, never returned.
type Dispatcher struct {
	notifier Notifier
	timeout  time.Duration
	wg       sync.WaitGroup
}

func NewDispatcher(notifier Notifier) *Dispatcher {
	return &Dispatcher{notifier: notifier, timeout: defaultNotifyTimeout}
}

func (d *Dispatcher) SetTimeout(timeout time.Duration) {
	d.timeout = timeout
}

func (d *Dispatcher) Confirmation(ctx context.Context, order models.Order) {
	if d == nil || d.notifier == nil {
		return
	}
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		log := utils.ErrorLogger.WithFields(logrus.Fields{
			"component": "notifier",
			"order_id":  order.ID,
		})
		defer func() {
			if r := recover(); r != nil {
				log.Errorf("Notifier panicked: %v", r)
			}
		}()

		sendCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), d.timeout)
		defer cancel()
		if err := d.notifier.SendConfirmation(sendCtx, order.CustomerPhone, order); err != nil {
			log.Errorf("Failed to send order confirmation: %v", err)
		}
	}()
}

// Wait blocks until in-flight sends finish.
func (d *Dispatcher) Wait() {
	if d != nil {
		d.wg.Wait()
	}
}
