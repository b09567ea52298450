package exchange

import (
	"github.com/shopspring/decimal"

	"github.com/ridgecove/futurescore/internal/domain"
	"github.com/ridgecove/futurescore/internal/ports"
)

// SpecFromRaw converts one venue instrument record into a domain.InstrumentSpec.
// The raw field names match this adapter's REST schema (client.go); a
// different venue adapter would need its own converter.
func SpecFromRaw(raw ports.RawSpec) domain.InstrumentSpec {
	return domain.InstrumentSpec{
		SymbolRaw:          rawStr(raw, "symbol"),
		SymbolCCXT:         rawStr(raw, "ccxt_symbol"),
		Base:               rawStr(raw, "underlying"),
		Quote:              rawStr(raw, "quote"),
		ContractSize:       rawDec(raw, "contractSize", decimal.NewFromInt(1)),
		MinSize:            rawDec(raw, "minTradeSize", decimal.Zero),
		SizeStep:           rawDec(raw, "sizeIncrement", decimal.Zero),
		SizeStepSource:     "exchange",
		PriceTick:          rawDecPtr(raw, "tickSize"),
		MaxLeverage:        rawDec(raw, "maxLeverage", decimal.NewFromInt(1)),
		LeverageMode:       leverageModeFromRaw(raw),
		SupportsReduceOnly: true,
	}
}

func leverageModeFromRaw(raw ports.RawSpec) domain.LeverageMode {
	switch rawStr(raw, "leverageMode") {
	case "flexible":
		return domain.LeverageFlexible
	case "fixed":
		return domain.LeverageFixed
	default:
		return domain.LeverageUnknown
	}
}

func rawStr(raw ports.RawSpec, key string) string {
	if v, ok := raw[key].(string); ok {
		return v
	}
	return ""
}

func rawDec(raw ports.RawSpec, key string, def decimal.Decimal) decimal.Decimal {
	switch v := raw[key].(type) {
	case float64:
		return decimal.NewFromFloat(v)
	case string:
		if d, err := decimal.NewFromString(v); err == nil {
			return d
		}
	}
	return def
}

func rawDecPtr(raw ports.RawSpec, key string) *decimal.Decimal {
	if _, ok := raw[key]; !ok {
		return nil
	}
	d := rawDec(raw, key, decimal.Zero)
	return &d
}
