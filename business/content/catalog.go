package content

import (
	"context"

	"apeBeacon/domain"
)

// StaticCatalog returns the same fixed catalog for every visitor and slot
// set. It stands in until a customer has content registered.
type StaticCatalog struct {
	items []domain.ContentItem
}

func NewStaticCatalog() *StaticCatalog {
	return &StaticCatalog{items: defaultCatalog()}
}

func (s *StaticCatalog) Select(ctx context.Context, visitor domain.Visitor, slotIDs []string) ([]domain.ContentItem, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	out := make([]domain.ContentItem, len(s.items))
	copy(out, s.items)
	return out, nil
}

func defaultCatalog() []domain.ContentItem {
	return []domain.ContentItem{
		{
			ID:      "W3P0xOxK3rLV",
			Content: `<strong>Ad Number One</strong><br><a href="#">Buy Things!</a>`,
			Styles:  ".ape-W3P0xOxK3rLV {color: red;}",
		},
		{
			ID:      "A9GDeXaib6kZ",
			Content: `<strong>Ad Number Two</strong><br><a href="#">Buy Things!</a>`,
			Styles:  ".ape-A9GDeXaib6kZ {color: green;}",
		},
		{
			ID:      "oXjwYAV0bd9T",
			Content: `<strong>Ad Number Three</strong><br><a href="#">Buy Things!</a>`,
			Styles:  ".ape-oXjwYAV0bd9T {color: blue;}",
		},
		{
			ID:      "nNQQOYbFBbPI",
			Content: `<strong>Ad Number Four</strong><br><a href="#">Buy Things!</a>`,
			Styles:  ".ape-nNQQOYbFBbPI {color: purple;}",
		},
	}
}
