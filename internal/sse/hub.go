package sse

import (
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/GTDGit/catalog_api/internal/models"
)

// EventType defines the SSE event name.
type EventType string

const (
	EventListingStatusChanged EventType = "listing.status_changed"
	EventListingDeleted       EventType = "listing.deleted"
	EventListingWriteRejected EventType = "listing.write_rejected"
)

// ListingEvent is the payload broadcast to vendor dashboards after a write-back attempt.
type ListingEvent struct {
	Event      EventType              `json:"event"`
	ListingID  string                 `json:"listingId"`
	Action     models.MutationAction  `json:"action"`
	Outcome    models.MutationOutcome `json:"outcome"`
	FromStatus *string                `json:"fromStatus,omitempty"`
	ToStatus   *string                `json:"toStatus,omitempty"`
	ActorID    *string                `json:"actorId,omitempty"`
	Error      *string                `json:"error,omitempty"`
	Timestamp  time.Time              `json:"timestamp"`
}

// Client is one open dashboard stream belonging to a vendor.
type Client struct {
	ID       string
	VendorID string
	Events   chan []byte
}

// Hub fans listing events out to the streams of the vendor that caused them.
type Hub struct {
	mu      sync.RWMutex
	vendors map[string]map[string]*Client
	buffer  int
	nextSeq uint64
}

// NewHub creates a hub whose clients buffer up to 64 events each.
func NewHub() *Hub {
	return &Hub{
		vendors: make(map[string]map[string]*Client),
		buffer:  64,
	}
}

// Register opens a stream for vendorID.
func (h *Hub) Register(vendorID string) *Client {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.nextSeq++
	c := &Client{
		ID:       fmt.Sprintf("%s-%d", vendorID, h.nextSeq),
		VendorID: vendorID,
		Events:   make(chan []byte, h.buffer),
	}
	streams, ok := h.vendors[vendorID]
	if !ok {
		streams = make(map[string]*Client)
		h.vendors[vendorID] = streams
	}
	streams[c.ID] = c
	log.Info().Str("client_id", c.ID).Str("vendor_id", vendorID).Int("vendor_streams", len(streams)).Msg("SSE client connected")
	return c
}

// Unregister closes the client's channel and forgets it. Repeated calls are no-ops.
func (h *Hub) Unregister(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	streams := h.vendors[c.VendorID]
	if _, ok := streams[c.ID]; !ok {
		return
	}
	close(c.Events)
	delete(streams, c.ID)
	if len(streams) == 0 {
		delete(h.vendors, c.VendorID)
	}
	log.Info().Str("client_id", c.ID).Str("vendor_id", c.VendorID).Msg("SSE client disconnected")
}

// Publish delivers event to every stream of vendorID without blocking; a full
// stream drops the event.
func (h *Hub) Publish(vendorID string, event *ListingEvent) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	streams := h.vendors[vendorID]
	if len(streams) == 0 {
		return
	}
	data, err := json.Marshal(event)
	if err != nil {
		log.Error().Err(err).Msg("Failed to marshal SSE event")
		return
	}
	for _, c := range streams {
		select {
		case c.Events <- data:
		default:
			log.Warn().Str("client_id", c.ID).Str("event", string(event.Event)).Msg("SSE client buffer full, dropping event")
		}
	}
}

// Streams returns the number of open streams for vendorID.
func (h *Hub) Streams(vendorID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.vendors[vendorID])
}
