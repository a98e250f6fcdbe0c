/*
 * MIT License
 *
 * Copyright (c) 2024 Nicolas JUHEL
 *
 * Permission is hereby granted, free of charge, to any person obtaining a copy
 * of this software and associated documentation files (the "Software"), to deal
 * in the Software without restriction, including without limitation the rights
 * to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
 * copies of the Software, and to permit persons to whom the Software is
 * furnished to do so, subject to the following conditions:
 *
 * The above copyright notice and this permission notice shall be included in all
 * copies or substantial portions of the Software.
 *
 * THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
 * IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
 * FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
 * AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
 * LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
 * OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
 * SOFTWARE.
 *
 */

package service

import (
	"encoding/json"

	liberr "github.com/ipcmesh/ipcmesh/errors"
)

// PubSubConfig is the immutable publish/subscribe static configuration
// (spec §3 "Static config").
type PubSubConfig struct {
	MaxSubscribers                    uint64         `json:"maxSubscribers"`
	MaxPublishers                     uint64         `json:"maxPublishers"`
	MaxNodes                          uint64         `json:"maxNodes"`
	PublisherHistorySize               uint64         `json:"publisherHistorySize"`
	SubscriberBufferSize               uint64         `json:"subscriberBufferSize"`
	SubscriberMaxBorrowedSamples        uint64         `json:"subscriberMaxBorrowedSamples"`
	PublisherMaxLoanedSamples           uint64         `json:"publisherMaxLoanedSamples"`
	Overflow                          OverflowPolicy `json:"overflow"`
	SubscriberExpiredConnectionBuffer  uint64         `json:"subscriberExpiredConnectionBuffer"`
	Payload                           TypeDetails    `json:"payload"`
	PayloadVariant                    Variant        `json:"payloadVariant"`
	UserHeader                        TypeDetails    `json:"userHeader"`
}

func (c PubSubConfig) satisfies(req PubSubConfig) error {
	if c.MaxSubscribers < req.MaxSubscribers || c.MaxPublishers < req.MaxPublishers ||
		c.MaxNodes < req.MaxNodes || c.PublisherHistorySize < req.PublisherHistorySize ||
		c.SubscriberBufferSize < req.SubscriberBufferSize ||
		c.SubscriberMaxBorrowedSamples < req.SubscriberMaxBorrowedSamples ||
		c.PublisherMaxLoanedSamples < req.PublisherMaxLoanedSamples ||
		c.SubscriberExpiredConnectionBuffer < req.SubscriberExpiredConnectionBuffer {
		return liberr.KindIncompatibleQualityOfService.Error(errCapTooLow.Error())
	}
	if !c.Payload.equal(req.Payload) || !c.UserHeader.equal(req.UserHeader) {
		return liberr.KindIncompatibleTypes.Error(errTypeMismatch.Error())
	}
	if c.Overflow != req.Overflow || c.PayloadVariant != req.PayloadVariant {
		return liberr.KindIncompatibleAttributes.Error(errFlagMismatch.Error())
	}
	return nil
}

// EventConfig is the immutable event-signaling static configuration.
type EventConfig struct {
	MaxListeners         uint64  `json:"maxListeners"`
	MaxNotifiers         uint64  `json:"maxNotifiers"`
	MaxNodes             uint64  `json:"maxNodes"`
	EventIdMax           uint64  `json:"eventIdMax"`
	NotifierCreatedEvent *uint64 `json:"notifierCreatedEvent,omitempty"`
	NotifierDroppedEvent *uint64 `json:"notifierDroppedEvent,omitempty"`
	NotifierDeadEvent    *uint64 `json:"notifierDeadEvent,omitempty"`
}

func ptrEqual(a, b *uint64) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

func (c EventConfig) satisfies(req EventConfig) error {
	if c.MaxListeners < req.MaxListeners || c.MaxNotifiers < req.MaxNotifiers ||
		c.MaxNodes < req.MaxNodes || c.EventIdMax < req.EventIdMax {
		return liberr.KindIncompatibleQualityOfService.Error(errCapTooLow.Error())
	}
	if !ptrEqual(c.NotifierCreatedEvent, req.NotifierCreatedEvent) ||
		!ptrEqual(c.NotifierDroppedEvent, req.NotifierDroppedEvent) ||
		!ptrEqual(c.NotifierDeadEvent, req.NotifierDeadEvent) {
		return liberr.KindIncompatibleAttributes.Error(errFlagMismatch.Error())
	}
	return nil
}

// RequestResponseConfig is the immutable request/response static
// configuration.
type RequestResponseConfig struct {
	MaxClients       uint64      `json:"maxClients"`
	MaxServers       uint64      `json:"maxServers"`
	MaxNodes         uint64      `json:"maxNodes"`
	ClientBufferSize uint64      `json:"clientBufferSize"`
	ServerBufferSize uint64      `json:"serverBufferSize"`
	Request          TypeDetails `json:"request"`
	Response         TypeDetails `json:"response"`
}

func (c RequestResponseConfig) satisfies(req RequestResponseConfig) error {
	if c.MaxClients < req.MaxClients || c.MaxServers < req.MaxServers ||
		c.MaxNodes < req.MaxNodes || c.ClientBufferSize < req.ClientBufferSize ||
		c.ServerBufferSize < req.ServerBufferSize {
		return liberr.KindIncompatibleQualityOfService.Error(errCapTooLow.Error())
	}
	if !c.Request.equal(req.Request) || !c.Response.equal(req.Response) {
		return liberr.KindIncompatibleTypes.Error(errTypeMismatch.Error())
	}
	return nil
}

// StaticConfig is the immutable, per-pattern configuration sealed the first
// time a service is created; exactly one of PubSub/Event/RequestResponse is
// populated, matching Pattern.
type StaticConfig struct {
	Pattern         Pattern                 `json:"pattern"`
	PubSub          *PubSubConfig           `json:"pubSub,omitempty"`
	Event           *EventConfig            `json:"event,omitempty"`
	RequestResponse *RequestResponseConfig  `json:"requestResponse,omitempty"`
	Attributes      Attributes              `json:"-"`
}

// Satisfies reports whether the receiver (the existing, on-disk service) can
// serve a requester asking for req: every numeric cap must be >= the
// request, every type descriptor must match exactly, every behavior flag
// must match exactly, and every attribute the requester marked as required
// must be present (spec §4.2).
func (c StaticConfig) Satisfies(req StaticConfig, requiredAttrs map[string][]string) error {
	if c.Pattern != req.Pattern {
		return liberr.KindIncompatibleMessagingPattern.Error(errPatternMismatch.Error())
	}

	var err error
	switch c.Pattern {
	case PubSub:
		if c.PubSub == nil || req.PubSub == nil {
			return liberr.KindInvalidConfig.Error()
		}
		err = c.PubSub.satisfies(*req.PubSub)
	case Event:
		if c.Event == nil || req.Event == nil {
			return liberr.KindInvalidConfig.Error()
		}
		err = c.Event.satisfies(*req.Event)
	case RequestResponse:
		if c.RequestResponse == nil || req.RequestResponse == nil {
			return liberr.KindInvalidConfig.Error()
		}
		err = c.RequestResponse.satisfies(*req.RequestResponse)
	default:
		return liberr.KindInvalidConfig.Error()
	}
	if err != nil {
		return err
	}

	if !c.Attributes.satisfies(requiredAttrs) {
		return liberr.KindIncompatibleAttributes.Error(errAttributeMissing.Error())
	}

	return nil
}

// staticConfigWire is the on-disk shape of StaticConfig (spec §6.2): the
// Attributes field is excluded from the default encoding (it holds an
// unexported map), so MarshalJSON/UnmarshalJSON fold it back in under its
// own key.
type staticConfigWire struct {
	Pattern         Pattern                `json:"pattern"`
	PubSub          *PubSubConfig          `json:"pubSub,omitempty"`
	Event           *EventConfig           `json:"event,omitempty"`
	RequestResponse *RequestResponseConfig `json:"requestResponse,omitempty"`
	Attributes      attributesJSON         `json:"attributes,omitempty"`
}

// MarshalJSON renders the static-config-storage file format.
func (c StaticConfig) MarshalJSON() ([]byte, error) {
	return json.Marshal(staticConfigWire{
		Pattern:         c.Pattern,
		PubSub:          c.PubSub,
		Event:           c.Event,
		RequestResponse: c.RequestResponse,
		Attributes:      c.Attributes.toJSON(),
	})
}

// UnmarshalJSON parses the static-config-storage file format.
func (c *StaticConfig) UnmarshalJSON(data []byte) error {
	var w staticConfigWire
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	c.Pattern = w.Pattern
	c.PubSub = w.PubSub
	c.Event = w.Event
	c.RequestResponse = w.RequestResponse
	c.Attributes = attributesFromJSON(w.Attributes)
	return nil
}
