package config

import (
	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
)

type PayoutConfig struct {
	DefaultCurrency string
	MinAmount       decimal.Decimal
	HistoryLimit    int
	MaxHistoryLimit int
}

func LoadPayoutConfig() *PayoutConfig {
	viper.SetDefault("payouts.default_currency", "TRY")
	viper.SetDefault("payouts.min_amount", "1")
	viper.SetDefault("payouts.history_limit", 20)
	viper.SetDefault("payouts.max_history_limit", 100)

	minAmount, err := decimal.NewFromString(viper.GetString("payouts.min_amount"))
	if err != nil {
		minAmount = decimal.NewFromInt(1)
	}

	return &PayoutConfig{
		DefaultCurrency: viper.GetString("payouts.default_currency"),
		MinAmount:       minAmount,
		HistoryLimit:    viper.GetInt("payouts.history_limit"),
		MaxHistoryLimit: viper.GetInt("payouts.max_history_limit"),
	}
}
