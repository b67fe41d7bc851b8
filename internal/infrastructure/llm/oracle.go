// Package llm は langchaingo を使って出品の再販価格を推定する PricingOracle を提供します
package llm

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/Jeffail/gabs/v2"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"
	"github.com/tmc/langchaingo/schema"
	"jo3qma.com/autosniper/internal/domain/model"
	"jo3qma.com/autosniper/internal/domain/repository"
)

// DefaultModel は設定で指定がない場合に使うモデルです
const DefaultModel = "gpt-4"

const temperature = 0.4

const systemPrompt = `You are an automotive resale expert. Given the following car details, estimate the resale value in Victoria, calculate the profit margin, and determine the maximum bid to stay profitable.

Return a JSON like this:
{
"resale_estimate": "$12,000",
"max_bid": "$9,000",
"profit_margin_percent": "25%",
"verdict": "Good"
}`

// 応答の前後に説明文が付いていても JSON ブロックだけを取り出す
var jsonBlockPattern = regexp.MustCompile(`(?s)\{.*\}`)

// verdictFields は応答に必須の項目です
var verdictFields = []string{"resale_estimate", "max_bid", "profit_margin_percent", "verdict"}

type oracle struct {
	model llms.Model
}

// NewOracle は任意の llms.Model を使う PricingOracle を作成します
func NewOracle(m llms.Model) repository.PricingOracle {
	return &oracle{model: m}
}

// NewOpenAIOracle は OpenAI のモデルを使う PricingOracle を作成します
func NewOpenAIOracle(apiKey, modelName string) (repository.PricingOracle, error) {
	if apiKey == "" {
		return nil, errors.New("OpenAI API key required")
	}
	if modelName == "" {
		modelName = DefaultModel
	}
	m, err := openai.New(
		openai.WithToken(apiKey),
		openai.WithModel(modelName),
	)
	if err != nil {
		return nil, fmt.Errorf("create openai model: %w", err)
	}
	return NewOracle(m), nil
}

func (o *oracle) Estimate(ctx context.Context, listing *model.Listing) (*model.Verdict, error) {
	messages := []llms.MessageContent{
		llms.TextParts(schema.ChatMessageTypeSystem, systemPrompt),
		llms.TextParts(schema.ChatMessageTypeHuman, describe(listing)),
	}

	resp, err := o.model.GenerateContent(ctx, messages, llms.WithTemperature(temperature))
	if err != nil {
		return nil, fmt.Errorf("generate verdict: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, &model.OracleResponseError{Reason: "no response choices"}
	}

	v, err := parseVerdict(resp.Choices[0].Content)
	if err != nil {
		return nil, err
	}
	v.URL = listing.URL
	return v, nil
}

// parseVerdict は応答テキストから判定を取り出します
// JSON がない・解釈できない・必須項目が欠けている場合は *model.OracleResponseError を返します
func parseVerdict(raw string) (*model.Verdict, error) {
	raw = strings.TrimSpace(raw)
	block := jsonBlockPattern.FindString(raw)
	if block == "" {
		return nil, &model.OracleResponseError{Reason: "no JSON found in response", Raw: raw}
	}

	parsed, err := gabs.ParseJSON([]byte(block))
	if err != nil {
		return nil, &model.OracleResponseError{Reason: fmt.Sprintf("JSON parse failed: %v", err), Raw: raw}
	}

	values := make(map[string]string, len(verdictFields))
	for _, field := range verdictFields {
		data := parsed.S(field).Data()
		if data == nil {
			return nil, &model.OracleResponseError{Reason: fmt.Sprintf("missing field %q", field), Raw: raw}
		}
		values[field] = strings.TrimSpace(fmt.Sprint(data))
	}

	return &model.Verdict{
		ResaleEstimate:      values["resale_estimate"],
		MaxBid:              values["max_bid"],
		ProfitMarginPercent: values["profit_margin_percent"],
		Label:               values["verdict"],
	}, nil
}

// describe は出品の属性をプロンプト用に列挙します
func describe(l *model.Listing) string {
	d := l.Details
	price, _ := l.Auction.Price.Get()
	timeLeft, _ := l.Auction.TimeLeftOrSold.Get()

	var b strings.Builder
	b.WriteString("Details:\n")
	for _, f := range []struct{ name, value string }{
		{"title", l.Title()},
		{"body_type", d.BodyType},
		{"build_date", d.BuildDate},
		{"engine_capacity", d.EngineCapacity},
		{"no_of_cylinders", d.NoOfCylinders},
		{"fuel_type", d.FuelType},
		{"transmission", d.Transmission},
		{"odometer", strings.TrimSpace(d.OdometerReading + " " + d.OdometerUnit)},
		{"rego_state", d.RegoState},
		{"rego_expiry", d.RegoExpiry},
		{"no_of_plates", d.NoOfPlates},
		{"service_history", d.ServiceHistory},
		{"engine_turns_over", d.EngineTurnsOver},
		{"location", d.Location},
		{"general_condition", d.GeneralCondition},
		{"features", d.FeaturesList},
		{"current_price", price},
		{"bids", fmt.Sprint(l.Auction.Bids)},
		{"time_remaining", timeLeft},
		{"url", l.URL},
	} {
		if f.value == "" {
			continue
		}
		fmt.Fprintf(&b, "%s: %s\n", f.name, f.value)
	}
	return b.String()
}
