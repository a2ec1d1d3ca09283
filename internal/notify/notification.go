package notify

import (
	"errors"
	"fmt"
)

type Category string

const (
	CategorySuccess Category = "success"
	CategoryError   Category = "error"
	CategoryWarning Category = "warning"
	CategoryInfo    Category = "info"
	CategoryOrder   Category = "order"
	CategoryPayment Category = "payment"
	CategoryPickup  Category = "pickup"
	CategoryReward  Category = "reward"
)

func (c Category) Valid() bool {
	switch c {
	case CategorySuccess, CategoryError, CategoryWarning, CategoryInfo,
		CategoryOrder, CategoryPayment, CategoryPickup, CategoryReward:
		return true
	}
	return false
}

var ErrInvalidNotification = errors.New("invalid notification")

// Notification is an in-app message for one user. Link is an optional
// deep link into the storefront.
type Notification struct {
	ID       string            `json:"id"`
	UserID   string            `json:"user_id"`
	Title    string            `json:"title"`
	Message  string            `json:"message"`
	Category Category          `json:"type"`
	Link     string            `json:"link,omitempty"`
	Metadata map[string]string `json:"metadata,omitempty"`
}

// Validate defaults an empty category to info.
func (n *Notification) Validate() error {
	if n.UserID == "" || n.Title == "" || n.Message == "" {
		return fmt.Errorf("%w: recipient, title and message are required", ErrInvalidNotification)
	}
	if n.Category == "" {
		n.Category = CategoryInfo
	}
	if !n.Category.Valid() {
		return fmt.Errorf("%w: unknown category %q", ErrInvalidNotification, n.Category)
	}
	return nil
}

// ShortID is the order reference shown to people.
func ShortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
