// Package presentation renders engine data for the command line.
package presentation

import (
	"time"

	"github.com/zjrosen/namebridge/internal/correlation"
	"github.com/zjrosen/namebridge/internal/ens"
	"github.com/zjrosen/namebridge/internal/funding"
	"github.com/zjrosen/namebridge/internal/orchestration/handler"
)

// PreviewDTO is a funding dry run.
type PreviewDTO struct {
	Name       string         `json:"name"`
	Available  bool           `json:"available"`
	PriceEth   string         `json:"price_eth,omitempty"`
	Required   string         `json:"required_eth,omitempty"`
	BridgeFee  string         `json:"bridge_fee_eth,omitempty"`
	Outcome    string         `json:"outcome,omitempty"`
	Candidates []CandidateDTO `json:"candidates"`
}

// CandidateDTO is one wallet that can pay, with the path it would use.
type CandidateDTO struct {
	Wallet         string `json:"wallet"`
	Kind           string `json:"kind"`
	Path           string `json:"path"`
	DestinationEth string `json:"destination_eth"`
	SourceEth      string `json:"source_eth"`
	FundingSource  string `json:"funding_source,omitempty"`
	TransferEth    string `json:"transfer_eth,omitempty"`
}

// FromPreview converts a handler.Preview.
func FromPreview(p handler.Preview) PreviewDTO {
	dto := PreviewDTO{
		Name:       ens.DisplayName(p.Label),
		Available:  p.Available,
		Candidates: []CandidateDTO{},
	}
	if !p.Available {
		return dto
	}
	a := p.Analysis
	dto.PriceEth = funding.FormatEther(p.PriceWei)
	dto.Required = funding.FormatEther(a.Required)
	dto.BridgeFee = funding.FormatEther(a.Fee)
	dto.Outcome = a.Outcome.String()
	for _, c := range a.Candidates {
		cd := CandidateDTO{
			Wallet:         c.Wallet.Address.Hex(),
			Kind:           c.Wallet.Kind.String(),
			Path:           c.Path.String(),
			DestinationEth: funding.FormatEther(c.Wallet.Destination),
			SourceEth:      funding.FormatEther(c.Wallet.Source),
		}
		if c.FundingSource != nil {
			cd.FundingSource = c.FundingSource.Address.Hex()
			cd.TransferEth = funding.FormatEther(c.TransferAmount)
		}
		dto.Candidates = append(dto.Candidates, cd)
	}
	return dto
}

// KeyDTO explains a correlation key.
type KeyDTO struct {
	Key       string     `json:"key"`
	Kind      string     `json:"kind"`
	Channel   string     `json:"channel"`
	User      string     `json:"user"`
	Label     string     `json:"label"`
	Testnet   bool       `json:"testnet"`
	CreatedAt *time.Time `json:"created_at,omitempty"`
	// Counterpart is the reveal key of a commit key and vice versa.
	Counterpart string `json:"counterpart,omitempty"`
}

// FromKey converts a parsed correlation key.
func FromKey(k correlation.Key) KeyDTO {
	dto := KeyDTO{
		Key:     k.String(),
		Kind:    k.Kind.String(),
		Channel: k.Channel,
		User:    k.User,
		Label:   k.Label,
		Testnet: k.Kind.Testnet(),
	}
	if k.Kind.Timestamped() {
		at := time.UnixMilli(k.Timestamp).UTC()
		dto.CreatedAt = &at
	}
	if r, ok := k.Reveal(); ok {
		dto.Counterpart = r.String()
	} else if c, ok := k.Commitment(); ok {
		dto.Counterpart = c.String()
	}
	return dto
}

// WalletsDTO lists one user's linked wallets.
type WalletsDTO struct {
	User    string   `json:"user"`
	Wallets []string `json:"wallets"`
}
