package model

// Candidate is one species suggestion returned by the recognition
// service, already normalized.  Name prefers the first common name and
// falls back to the scientific name without author.
type Candidate struct {
    Name                 string   `json:"name"`
    ScientificName       string   `json:"scientific_name"`
    ScientificNameAuthor string   `json:"scientific_name_full"`
    Genus                string   `json:"genus"`
    Family               string   `json:"family"`
    CommonNames          []string `json:"common_names"`
    Confidence           float64  `json:"confidence"`
}

// IdentificationResult is produced once per identify request and is
// never stored as such.  Adding it to a collection copies the relevant
// fields into a UserPlant.
type IdentificationResult struct {
    Name              string      `json:"name"`
    ScientificName    string      `json:"scientific_name"`
    Confidence        float64     `json:"confidence"`
    Alternatives      []Candidate `json:"alternatives"`
    SearchTerms       []string    `json:"search_terms"`
    SearchTermMatched string      `json:"search_term_matched"`
    CareInfo          CareInfo    `json:"care_info"`
}
