package models

// CardRecord is a stored payment card as returned by a card store. The
// service never mutates it; it only decides which fields may be displayed.
type CardRecord struct {
	Ref         string `json:"card_ref"`
	IssuingBank string `json:"issuing_bank"`
	Number      string `json:"number"`
	// ExpiryYYMM is the card expiry as stored, YYMM.
	ExpiryYYMM string `json:"expiry_yymm"`
	// VerificationCode is nil when the store holds no code for the card.
	VerificationCode *string `json:"verification_code,omitempty"`
	HolderName       string  `json:"holder_name"`
}

// CreateCard is the dev request body used to register a card record.
type CreateCard struct {
	Ref              string  `json:"card_ref,omitempty"`
	IssuingBank      string  `json:"issuing_bank"`
	Number           string  `json:"number"`
	Expiry           string  `json:"expiry"`
	VerificationCode *string `json:"verification_code,omitempty"`
	HolderName       string  `json:"holder_name"`
}

// CreatedCard is returned after registering a card. The PAN is masked.
type CreatedCard struct {
	Ref          string `json:"card_ref"`
	MaskedNumber string `json:"masked_number"`
	ExpiryYYMM   string `json:"expiry_yymm"`
}
