package service

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/ledgerline/ledgerline/internal/domain"
)

var settingDefinitions = []domain.SettingDefinition{
	{Key: domain.SettingRegistrationEnabled, Type: domain.SettingTypeBool, Default: "true", Description: "Allow new customer sign-ups"},
	{Key: domain.SettingLoanAPRPrefix + string(domain.CreditBandExcellent), Type: domain.SettingTypeDecimal, Default: "5.99", Description: "Base APR (%) for excellent credit"},
	{Key: domain.SettingLoanAPRPrefix + string(domain.CreditBandGood), Type: domain.SettingTypeDecimal, Default: "8.99", Description: "Base APR (%) for good credit"},
	{Key: domain.SettingLoanAPRPrefix + string(domain.CreditBandFair), Type: domain.SettingTypeDecimal, Default: "12.99", Description: "Base APR (%) for fair credit"},
	{Key: domain.SettingLoanAPRPrefix + string(domain.CreditBandPoor), Type: domain.SettingTypeDecimal, Default: "17.99", Description: "Base APR (%) for poor credit"},
	{Key: domain.SettingCryptoAssets, Type: domain.SettingTypeList, Default: strings.Join(domain.DefaultCryptoAssets, ","), Description: "Tradable crypto assets"},
	{Key: domain.SettingCryptoFeePercent, Type: domain.SettingTypeDecimal, Default: "1.5", Description: "Trading fee (%) on buys and sells"},
	{Key: domain.SettingCryptoPricePrefix + "BTC", Type: domain.SettingTypeDecimal, Default: "65000", Description: "Fallback BTC price"},
	{Key: domain.SettingCryptoPricePrefix + "ETH", Type: domain.SettingTypeDecimal, Default: "3200", Description: "Fallback ETH price"},
	{Key: domain.SettingCryptoPricePrefix + "LTC", Type: domain.SettingTypeDecimal, Default: "80", Description: "Fallback LTC price"},
	{Key: domain.SettingCryptoPricePrefix + "USDT", Type: domain.SettingTypeDecimal, Default: "1", Description: "Fallback USDT price"},
	{Key: domain.SettingDepositMaxImageBytes, Type: domain.SettingTypeInt, Default: "5242880", Description: "Maximum size of a check image"},
	{Key: domain.SettingDepositMaxAmount, Type: domain.SettingTypeDecimal, Default: "10000", Description: "Maximum amount of a single deposit"},
	{Key: domain.SettingDepositDailyLimit, Type: domain.SettingTypeDecimal, Default: "5000", Description: "Rolling 24h deposit limit per customer"},
	{Key: domain.SettingWireFeeDomestic, Type: domain.SettingTypeDecimal, Default: "25", Description: "Domestic wire fee"},
	{Key: domain.SettingWireFeeInternational, Type: domain.SettingTypeDecimal, Default: "45", Description: "International wire fee"},
	{Key: domain.SettingWireMinAmount, Type: domain.SettingTypeDecimal, Default: "10", Description: "Minimum wire amount"},
	{Key: domain.SettingWireMaxAmount, Type: domain.SettingTypeDecimal, Default: "50000", Description: "Maximum amount of a single wire"},
	{Key: domain.SettingWireDailyLimit, Type: domain.SettingTypeDecimal, Default: "100000", Description: "Rolling 24h wire limit per customer"},
	{Key: domain.SettingMaintenanceMode, Type: domain.SettingTypeBool, Default: "false", Description: "Reject customer API calls with 503"},
}

var settingIndex = func() map[string]domain.SettingDefinition {
	m := make(map[string]domain.SettingDefinition, len(settingDefinitions))
	for _, d := range settingDefinitions {
		m[d.Key] = d
	}
	return m
}()

// LookupSetting returns the definition for key. Price keys for assets outside
// the built-in list are accepted as decimals with no default.
func LookupSetting(key string) (domain.SettingDefinition, bool) {
	if d, ok := settingIndex[key]; ok {
		return d, true
	}
	if asset, ok := strings.CutPrefix(key, domain.SettingCryptoPricePrefix); ok && isAssetSymbol(asset) {
		return domain.SettingDefinition{
			Key:         key,
			Type:        domain.SettingTypeDecimal,
			Description: "Fallback " + asset + " price",
		}, true
	}
	return domain.SettingDefinition{}, false
}

// SettingDefinitions returns all built-in definitions sorted by key
func SettingDefinitions() []domain.SettingDefinition {
	out := make([]domain.SettingDefinition, len(settingDefinitions))
	copy(out, settingDefinitions)
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out
}

// NormalizeSetting parses raw against the type of def and returns its canonical form
func NormalizeSetting(def domain.SettingDefinition, raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	switch def.Type {
	case domain.SettingTypeBool:
		b, err := strconv.ParseBool(raw)
		if err != nil {
			return "", fmt.Errorf("%s must be true or false", def.Key)
		}
		return strconv.FormatBool(b), nil
	case domain.SettingTypeInt:
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			return "", fmt.Errorf("%s must be a non-negative integer", def.Key)
		}
		return strconv.Itoa(n), nil
	case domain.SettingTypeDecimal:
		d, err := decimal.NewFromString(raw)
		if err != nil || d.IsNegative() {
			return "", fmt.Errorf("%s must be a non-negative number", def.Key)
		}
		return d.String(), nil
	case domain.SettingTypeList:
		if def.Key == domain.SettingCryptoAssets {
			raw = strings.ToUpper(raw)
		}
		items := splitSettingList(raw)
		if len(items) == 0 {
			return "", fmt.Errorf("%s must contain at least one item", def.Key)
		}
		if def.Key == domain.SettingCryptoAssets {
			for _, it := range items {
				if !isAssetSymbol(it) {
					return "", fmt.Errorf("%s: invalid asset symbol %q", def.Key, it)
				}
			}
		}
		return strings.Join(items, ","), nil
	default:
		return raw, nil
	}
}

func splitSettingList(raw string) []string {
	var out []string
	seen := make(map[string]bool)
	for _, part := range strings.Split(raw, ",") {
		p := strings.TrimSpace(part)
		if p == "" || seen[p] {
			continue
		}
		seen[p] = true
		out = append(out, p)
	}
	return out
}

func isAssetSymbol(s string) bool {
	if len(s) < 2 || len(s) > 10 {
		return false
	}
	for _, c := range s {
		if (c < 'A' || c > 'Z') && (c < '0' || c > '9') {
			return false
		}
	}
	return true
}
