package models

import "time"

// Petition is a row of the petitions table.
type Petition struct {
	ID            int64
	Title         string
	Description   string
	AuthorID      int64
	CategoryID    int64
	CreatedDate   time.Time
	ClosingDate   *time.Time
	PhotoFilename *string
}

// IsClosed reports whether the closing date has passed at now.
func (p *Petition) IsClosed(now time.Time) bool {
	return p.ClosingDate != nil && p.ClosingDate.Before(now)
}

// PetitionSummary is one row of the petition listing.
type PetitionSummary struct {
	ID             int64  `json:"petitionId"`
	Title          string `json:"title"`
	Category       string `json:"category"`
	AuthorName     string `json:"authorName"`
	SignatureCount int64  `json:"signatureCount"`
}

// PetitionDetail is the joined single-petition view.
type PetitionDetail struct {
	ID             int64      `json:"petitionId"`
	Title          string     `json:"title"`
	Category       string     `json:"category"`
	AuthorName     string     `json:"authorName"`
	SignatureCount int64      `json:"signatureCount"`
	Description    string     `json:"description"`
	AuthorID       int64      `json:"authorId"`
	AuthorCity     *string    `json:"authorCity"`
	AuthorCountry  *string    `json:"authorCountry"`
	CreatedDate    time.Time  `json:"createdDate"`
	ClosingDate    *time.Time `json:"closingDate"`
}

// PetitionFilter narrows the listing. Nil fields do not filter.
type PetitionFilter struct {
	TitleLike  *string
	CategoryID *int64
	AuthorID   *int64
}

// PetitionUpdate carries coalesced columns: nil keeps the stored value.
type PetitionUpdate struct {
	Title       *string
	Description *string
	CategoryID  *int64
	ClosingDate *time.Time
}

// Signature is one signatory of a petition.
type Signature struct {
	SignatoryID int64     `json:"signatoryId"`
	Name        string    `json:"name"`
	City        *string   `json:"city"`
	Country     *string   `json:"country"`
	SignedDate  time.Time `json:"signedDate"`
}

// Photo is binary content with its MIME type.
type Photo struct {
	Data        []byte
	ContentType string
}

// PetitionSort names a listing order accepted by the sortBy parameter.
type PetitionSort string

const (
	SortSignaturesDesc   PetitionSort = "SIGNATURES_DESC"
	SortSignaturesAsc    PetitionSort = "SIGNATURES_ASC"
	SortAlphabeticalAsc  PetitionSort = "ALPHABETICAL_ASC"
	SortAlphabeticalDesc PetitionSort = "ALPHABETICAL_DESC"
)

// Valid reports whether s is one of the known orders.
func (s PetitionSort) Valid() bool {
	switch s {
	case SortSignaturesDesc, SortSignaturesAsc, SortAlphabeticalAsc, SortAlphabeticalDesc:
		return true
	}
	return false
}
