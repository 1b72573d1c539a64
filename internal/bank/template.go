package bank

import "encoding/json"

// Template returns a starter question bank in the import format.
func Template() ([]byte, error) {
	data := []map[string]any{
		{
			"id":       1,
			"category": DefaultCategory,
			"question": "Sample Question Text",
			"options": []map[string]any{
				{"text": "Option A", "correct": true, "explanation": "Why this is right"},
				{"text": "Option B", "correct": false, "explanation": "Why this is wrong"},
			},
		},
	}
	return json.MarshalIndent(data, "", "  ")
}
