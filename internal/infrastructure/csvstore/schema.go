package csvstore

import (
	"strconv"
	"strings"

	"4d63.com/optional"
	"jo3qma.com/autosniper/internal/domain/lifecycle"
	"jo3qma.com/autosniper/internal/domain/model"
)

// ListingColumns は出品データセットの固定列順です
var ListingColumns = []string{
	"year", "make", "model", "variant", "body_type", "no_of_seats", "build_date", "compliance_date",
	"vin", "rego_no", "rego_state", "rego_expiry", "no_of_plates", "no_of_cylinders", "engine_capacity",
	"fuel_type", "transmission", "odometer_reading", "odometer_unit", "exterior_colour", "interior_colour",
	"key", "spare_key", "owners_manual", "service_history", "engine_turns_over", "location",
	"url", "general_condition", "features_list", "bids", "price", "time_remaining_or_date_sold", "status",
}

// VerdictColumns は判定ストアの列順です
var VerdictColumns = []string{"url", "resale_estimate", "max_bid", "profit_margin_percent", "verdict"}

// detailFields は列名と Details のフィールドの対応です
func detailFields(d *model.Details) map[string]*string {
	return map[string]*string{
		"year":              &d.Year,
		"make":              &d.Make,
		"model":             &d.Model,
		"variant":           &d.Variant,
		"body_type":         &d.BodyType,
		"no_of_seats":       &d.NoOfSeats,
		"build_date":        &d.BuildDate,
		"compliance_date":   &d.ComplianceDate,
		"vin":               &d.VIN,
		"rego_no":           &d.RegoNo,
		"rego_state":        &d.RegoState,
		"rego_expiry":       &d.RegoExpiry,
		"no_of_plates":      &d.NoOfPlates,
		"no_of_cylinders":   &d.NoOfCylinders,
		"engine_capacity":   &d.EngineCapacity,
		"fuel_type":         &d.FuelType,
		"transmission":      &d.Transmission,
		"odometer_reading":  &d.OdometerReading,
		"odometer_unit":     &d.OdometerUnit,
		"exterior_colour":   &d.ExteriorColour,
		"interior_colour":   &d.InteriorColour,
		"key":               &d.Key,
		"spare_key":         &d.SpareKey,
		"owners_manual":     &d.OwnersManual,
		"service_history":   &d.ServiceHistory,
		"engine_turns_over": &d.EngineTurnsOver,
		"location":          &d.Location,
		"general_condition": &d.GeneralCondition,
		"features_list":     &d.FeaturesList,
	}
}

// encodeListing は Listing を固定列順のレコードに変換します
// 値がない項目はここで初めてセンチネルに置き換えます
func encodeListing(l *model.Listing) []string {
	details := l.Details
	fields := detailFields(&details)

	record := make([]string, len(ListingColumns))
	for i, col := range ListingColumns {
		switch col {
		case "url":
			record[i] = orUnavailable(l.URL)
		case "bids":
			record[i] = strconv.Itoa(l.Auction.Bids)
		case "price":
			record[i] = optionalOrUnavailable(l.Auction.Price)
		case "time_remaining_or_date_sold":
			record[i] = optionalOrUnavailable(l.Auction.TimeLeftOrSold)
		case "status":
			record[i] = l.State.String()
		default:
			record[i] = orUnavailable(*fields[col])
		}
	}
	return record
}

// decodeListing は列名のインデックスを使ってレコードを Listing に戻します
// 列が欠けている場合は値なしとして扱います（古いデータセットとの互換）
func decodeListing(index map[string]int, record []string) *model.Listing {
	get := func(col string) string {
		i, ok := index[col]
		if !ok || i >= len(record) {
			return ""
		}
		return fromUnavailable(record[i])
	}

	l := &model.Listing{
		URL: model.CleanURL(get("url")),
		Auction: model.Auction{
			Price:          lifecycle.ParsePrice(get("price")),
			Bids:           lifecycle.ParseBids(get("bids")),
			TimeLeftOrSold: toOptional(get("time_remaining_or_date_sold")),
		},
		State: model.ParseState(get("status")),
	}
	for col, field := range detailFields(&l.Details) {
		*field = get(col)
	}
	return l
}

func headerIndex(header []string) map[string]int {
	index := make(map[string]int, len(header))
	for i, h := range header {
		// Excel などが付与するBOMを除去
		h = strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))
		if _, dup := index[h]; !dup {
			index[h] = i
		}
	}
	return index
}

func orUnavailable(s string) string {
	if s == "" {
		return model.Unavailable
	}
	return s
}

func fromUnavailable(s string) string {
	s = strings.TrimSpace(s)
	if s == model.Unavailable {
		return ""
	}
	return s
}

func optionalOrUnavailable(o optional.Optional[string]) string {
	if v, ok := o.Get(); ok && v != "" {
		return v
	}
	return model.Unavailable
}

func toOptional(s string) optional.Optional[string] {
	if s == "" {
		return optional.Empty[string]()
	}
	return optional.Of(s)
}
