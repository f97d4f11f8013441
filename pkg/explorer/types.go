// Package explorer is a minimal client for a Blockscout-style block explorer
// API. Only the fields the cache engine depends on are modeled; everything
// else in the upstream payload is ignored.
package explorer

import "time"

// AddressParam is the explorer's representation of an address field.
type AddressParam struct {
	Hash string `json:"hash"`
}

// Fee is the explorer's representation of a transaction fee.
type Fee struct {
	Type  string `json:"type"`
	Value string `json:"value"`
}

// RawTransaction is one upstream record. Status is deliberately untyped: the
// explorer has shipped booleans, numbers and strings for it over time and the
// normalizer owns turning that into a boolean.
type RawTransaction struct {
	Hash        string        `json:"hash"`
	BlockNumber int64         `json:"block_number"`
	Position    int           `json:"position"`
	Timestamp   time.Time     `json:"timestamp"`
	Method      string        `json:"method"`
	To          *AddressParam `json:"to"`
	Fee         *Fee          `json:"fee"`
	Status      any           `json:"status"`
}

// TxPage is one page of the paginated transaction listing. NextPageParams is
// opaque: it is echoed back verbatim as query parameters to fetch the next
// page, and nil on the last page.
type TxPage struct {
	Items          []RawTransaction `json:"items"`
	NextPageParams map[string]any   `json:"next_page_params"`
	TotalCount     *int64           `json:"total_count,omitempty"`
}
