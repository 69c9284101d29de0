package domain

import (
	"time"

	"github.com/google/uuid"
)

// SettingType is the value type of a setting
type SettingType string

const (
	SettingTypeBool    SettingType = "bool"
	SettingTypeInt     SettingType = "int"
	SettingTypeDecimal SettingType = "decimal"
	SettingTypeString  SettingType = "string"
	SettingTypeList    SettingType = "list"
)

// Setting keys
const (
	SettingRegistrationEnabled  = "auth.registration_enabled"
	SettingLoanAPRPrefix        = "loan.apr."
	SettingCryptoAssets         = "crypto.assets"
	SettingCryptoFeePercent     = "crypto.fee_percent"
	SettingCryptoPricePrefix    = "crypto.price."
	SettingDepositMaxImageBytes = "deposit.max_image_bytes"
	SettingDepositMaxAmount     = "deposit.max_amount"
	SettingDepositDailyLimit    = "deposit.daily_limit"
	SettingWireFeeDomestic      = "wire.fee.domestic"
	SettingWireFeeInternational = "wire.fee.international"
	SettingWireMinAmount        = "wire.min_amount"
	SettingWireMaxAmount        = "wire.max_amount"
	SettingWireDailyLimit       = "wire.daily_limit"
	SettingMaintenanceMode      = "system.maintenance_mode"
)

// SettingDefinition describes a known setting
type SettingDefinition struct {
	Key         string      `json:"key"`
	Type        SettingType `json:"type"`
	Default     string      `json:"default"`
	Description string      `json:"description"`
}

// Setting is the effective value of a setting
type Setting struct {
	Key         string      `json:"key"`
	Type        SettingType `json:"type"`
	Value       string      `json:"value"`
	Default     string      `json:"default"`
	Description string      `json:"description,omitempty"`
	IsDefault   bool        `json:"isDefault"`
	UpdatedBy   *uuid.UUID  `json:"updatedBy,omitempty"`
	UpdatedAt   *time.Time  `json:"updatedAt,omitempty"`
}

// StoredSetting is a setting row as persisted
type StoredSetting struct {
	Key       string
	Value     string
	UpdatedBy *uuid.UUID
	UpdatedAt time.Time
}
