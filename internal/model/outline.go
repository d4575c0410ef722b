// Package model contains the outline documents that outline-diff compares
package model

import (
	"crypto/rand"
	"fmt"
	"time"
)

// Item represents a single node in the outline tree
type Item struct {
	ID       string    `json:"id"`
	Text     string    `json:"text"`
	Children []*Item   `json:"children,omitempty"`
	Metadata *Metadata `json:"metadata,omitempty"`
	Parent   *Item     `json:"-"` // Not persisted
}

// Metadata holds rich information about an item
type Metadata struct {
	Tags       []string          `json:"tags,omitempty"`
	Notes      string            `json:"notes,omitempty"`
	Attributes map[string]string `json:"attributes,omitempty"`
	Created    time.Time         `json:"created"`
	Modified   time.Time         `json:"modified"`
}

// Outline represents the entire outline document
type Outline struct {
	Items []*Item `json:"items"`
	// OriginalFilename is set on backups to the absolute path of the file
	// they were taken from
	OriginalFilename string `json:"original_filename,omitempty"`
}

// NewItem creates a new outline item with a generated ID
func NewItem(text string) *Item {
	now := time.Now()
	return &Item{
		ID:       generateID(),
		Text:     text,
		Children: make([]*Item, 0),
		Metadata: &Metadata{
			Attributes: make(map[string]string),
			Created:    now,
			Modified:   now,
		},
	}
}

// NewOutline creates an empty outline
func NewOutline() *Outline {
	return &Outline{
		Items: make([]*Item, 0),
	}
}

// AddChild adds a child item to this item
func (i *Item) AddChild(child *Item) {
	child.Parent = i
	i.Children = append(i.Children, child)
}

// Tags returns the item's tags, nil when it has no metadata
func (i *Item) Tags() []string {
	if i.Metadata == nil {
		return nil
	}
	return i.Metadata.Tags
}

// Notes returns the item's notes
func (i *Item) Notes() string {
	if i.Metadata == nil {
		return ""
	}
	return i.Metadata.Notes
}

// Attributes returns the item's attributes, nil when it has none
func (i *Item) Attributes() map[string]string {
	if i.Metadata == nil {
		return nil
	}
	return i.Metadata.Attributes
}

// GetAllItems returns all items in the outline (depth-first)
func (o *Outline) GetAllItems() []*Item {
	var items []*Item
	for _, item := range o.Items {
		items = append(items, getAllItemsRecursive(item)...)
	}
	return items
}

func getAllItemsRecursive(item *Item) []*Item {
	items := []*Item{item}
	for _, child := range item.Children {
		items = append(items, getAllItemsRecursive(child)...)
	}
	return items
}

// FindItemByID finds an item by its ID in the outline
func (o *Outline) FindItemByID(id string) *Item {
	for _, item := range o.GetAllItems() {
		if item.ID == id {
			return item
		}
	}
	return nil
}

// Validate checks that no item ID is used twice anywhere in the tree
func (o *Outline) Validate() error {
	seen := make(map[string]struct{})
	for _, item := range o.GetAllItems() {
		if _, dup := seen[item.ID]; dup {
			return fmt.Errorf("duplicate item id %q", item.ID)
		}
		seen[item.ID] = struct{}{}
	}
	return nil
}

func generateID() string {
	return "item_" + time.Now().Format("20060102150405") + "_" + randomString(8)
}

func randomString(length int) string {
	const chars = "abcdefghijklmnopqrstuvwxyz0123456789"
	buf := make([]byte, length)
	_, _ = rand.Read(buf)
	for i := range buf {
		buf[i] = chars[int(buf[i])%len(chars)]
	}
	return string(buf)
}
