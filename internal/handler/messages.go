package handler

import (
	"jo3qma.com/autosniper/internal/domain/model"
	"jo3qma.com/autosniper/internal/usecase"
)

type ListListingsRequest struct {
	Bucket           string `json:"bucket"` // all / active / sold / referred。空なら all
	HideEngineIssues bool   `json:"hide_engine_issues"`
	HideUnregistered bool   `json:"hide_unregistered"`
	VICOnly          bool   `json:"vic_only"`
}

type ListListingsResponse struct {
	Listings []*Listing `json:"listings"`
}

type Listing struct {
	URL             string   `json:"url"`
	Title           string   `json:"title"`
	Status          string   `json:"status"`
	Price           string   `json:"price"`
	Bids            int      `json:"bids"`
	TimeLeftOrSold  string   `json:"time_remaining_or_date_sold"`
	TimeGroup       string   `json:"time_group,omitempty"`
	Location        string   `json:"location"`
	OdometerReading string   `json:"odometer_reading"`
	OdometerUnit    string   `json:"odometer_unit"`
	Transmission    string   `json:"transmission"`
	FuelType        string   `json:"fuel_type"`
	Condition       string   `json:"general_condition"`
	Verdict         *Verdict `json:"verdict,omitempty"`
}

type Verdict struct {
	ResaleEstimate      string `json:"resale_estimate"`
	MaxBid              string `json:"max_bid"`
	ProfitMarginPercent string `json:"profit_margin_percent"`
	Label               string `json:"verdict"`
	Viable              bool   `json:"viable"`
}

type GetSummaryRequest struct{}

type GetSummaryResponse struct {
	Active   int    `json:"active"`
	Sold     int    `json:"sold"`
	Referred int    `json:"referred"`
	Unknown  int    `json:"unknown"`
	Total    int    `json:"total"`
	NoOp     string `json:"no_op,omitempty"`
}

type ListViableRequest struct{}

type ListViableResponse struct {
	Listings []*Listing `json:"listings"`
}

type RefreshListingsRequest struct {
	URLs []string `json:"urls"` // 空なら全件
}

type RefreshListingsResponse struct {
	RunID    string `json:"run_id"`
	Total    int    `json:"total"`
	Targeted int    `json:"targeted"`
	Updated  int    `json:"updated"`
	Failed   int    `json:"failed"`
	Skipped  int    `json:"skipped"`
	NoOp     string `json:"no_op,omitempty"`
}

type PartitionListingsRequest struct{}

type PartitionListingsResponse struct {
	RunID         string `json:"run_id"`
	Total         int    `json:"total"`
	Active        int    `json:"active"`
	Sold          int    `json:"sold"`
	Referred      int    `json:"referred"`
	Unclassified  int    `json:"unclassified"`
	SoldTotal     int    `json:"sold_total"`
	ReferredTotal int    `json:"referred_total"`
	Mirrored      bool   `json:"mirrored"`
	NoOp          string `json:"no_op,omitempty"`
}

type EstimateListingRequest struct {
	URL string `json:"url"`
}

type EstimateListingResponse struct {
	URL     string   `json:"url"`
	Verdict *Verdict `json:"verdict"`
}

func toListing(e *usecase.CatalogEntry) *Listing {
	l := e.Listing
	price, _ := l.Auction.Price.Get()
	timeLeft, _ := l.Auction.TimeLeftOrSold.Get()
	return &Listing{
		URL:             l.URL,
		Title:           l.Title(),
		Status:          l.State.String(),
		Price:           price,
		Bids:            l.Auction.Bids,
		TimeLeftOrSold:  timeLeft,
		TimeGroup:       e.TimeGroup,
		Location:        l.Details.Location,
		OdometerReading: l.Details.OdometerReading,
		OdometerUnit:    l.Details.OdometerUnit,
		Transmission:    l.Details.Transmission,
		FuelType:        l.Details.FuelType,
		Condition:       l.Details.GeneralCondition,
		Verdict:         toVerdict(e.Verdict),
	}
}

func toListings(entries []*usecase.CatalogEntry) []*Listing {
	out := make([]*Listing, 0, len(entries))
	for _, e := range entries {
		out = append(out, toListing(e))
	}
	return out
}

func toVerdict(v *model.Verdict) *Verdict {
	if v == nil {
		return nil
	}
	return &Verdict{
		ResaleEstimate:      v.ResaleEstimate,
		MaxBid:              v.MaxBid,
		ProfitMarginPercent: v.ProfitMarginPercent,
		Label:               v.Label,
		Viable:              v.IsViable(),
	}
}
