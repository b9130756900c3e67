package models

// TokenMetadata is what the UI shows for a token. ImageURL is empty when unknown.
type TokenMetadata struct {
	Symbol   string `json:"symbol"`
	ImageURL string `json:"image_url,omitempty"`
	// Source names the strategy that resolved it, "hint" or "placeholder" for fallbacks.
	Source string `json:"source"`
}

const (
	MetadataSourceHint        = "hint"
	MetadataSourcePlaceholder = "placeholder"
)

// PlaceholderSymbol is the deterministic degraded symbol for an unresolved token.
func PlaceholderSymbol(tokenID string) string {
	if len(tokenID) <= 8 {
		return tokenID
	}
	return tokenID[:8] + "..."
}
