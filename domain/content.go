package domain

import "time"

// ContentItem is a personalised fragment rendered into one placeholder.
type ContentItem struct {
	ID      string `json:"id"`
	Content string `json:"content"`
	Styles  string `json:"styles"`
}

// Content is a candidate fragment registered by a customer for a slot.
// An empty Slot makes the candidate eligible for every slot.
type Content struct {
	ID         string    `gorm:"primaryKey;column:content_id" json:"id"`
	CustomerID string    `gorm:"column:customer_id;not null;index:idx_content_customer_slot" json:"customer_id"`
	Slot       string    `gorm:"column:slot;index:idx_content_customer_slot" json:"slot"`
	Body       string    `gorm:"column:body;type:text;not null" json:"content"`
	Styles     string    `gorm:"column:styles;type:text" json:"styles"`
	Score      float64   `gorm:"column:score;not null;default:1" json:"score"`
	CreatedAt  time.Time `gorm:"column:created_at" json:"created_at"`
}

func (Content) TableName() string {
	return "content"
}

// MatchesSlot reports whether the candidate may fill the given slot.
func (c Content) MatchesSlot(slot string) bool {
	return c.Slot == "" || c.Slot == slot
}
