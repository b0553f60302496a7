// Package samples holds the demo listings and advisor requests loaded by the seed command.
package samples

import "github.com/investoriq/investoriq-api/pkg/storage"

// Properties returns sample listings. Ids are assigned by the store at seed time.
func Properties() []storage.Document {
	return []storage.Document{
		{
			"title":       "Craftsman Bungalow",
			"address":     "1 Main St, Columbus, OH",
			"price":       int64(500000),
			"iqScore":     int64(82),
			"dealType":    "Fix & Flip",
			"description": "Three-bed bungalow on a corner lot. Needs kitchen and roof.",
			"images":      []any{"https://images.example.com/main-st-front.jpg"},
			"createdAt":   "2026-01-12T15:04:05Z",
			"userId":      "seed-user",
		},
		{
			"title":       "Brick Duplex",
			"address":     "48 Elm Ave, Dayton, OH",
			"price":       int64(215000),
			"iqScore":     int64(91),
			"dealType":    "BRRRR",
			"description": "Both units leased. Separate meters, new furnace in 2024.",
			"images":      []any{"https://images.example.com/elm-ave-1.jpg", "https://images.example.com/elm-ave-2.jpg"},
			"createdAt":   "2026-02-03T09:30:00Z",
			"userId":      "seed-user",
		},
		{
			"title":       "Ranch With Basement",
			"address":     "77 Oak Ct, Toledo, OH",
			"price":       int64(149900),
			"iqScore":     int64(74),
			"dealType":    "Both",
			"description": "Solid bones, dated finishes. Basement can take a fourth bedroom.",
			"images":      []any{},
			"createdAt":   "2026-03-21T18:45:00Z",
			"userId":      "seed-user",
		},
	}
}

// AdvisorRequests returns sample requests against the seeded listings. propertyIDs
// are the ids the store assigned to Properties(), in order; extra entries are ignored.
func AdvisorRequests(propertyIDs []string) []storage.Document {
	messages := []string{
		"Is the ARV estimate realistic for this street?",
		"Looking for help structuring the refinance.",
	}
	var out []storage.Document
	for i, msg := range messages {
		if i >= len(propertyIDs) {
			break
		}
		out = append(out, storage.Document{
			"propertyId": propertyIDs[i],
			"userId":     "seed-user",
			"message":    msg,
			"createdAt":  "2026-04-01T12:00:00Z",
		})
	}
	return out
}
