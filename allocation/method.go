/*
method.go - Payment method and platform reference data

PURPOSE:
  Immutable reference data supplied by the caller: which payment methods and
  platforms exist. The engine only ever sees the codes; display names are for
  presentation layers.

DEFAULTS:
  DefaultMethods/DefaultPlatforms exist for development and tests. Production
  deployments supply their own sets (served by the API from the store).
*/
package allocation

// MethodCode identifies a payment method (e.g. "CARD").
type MethodCode string

// PlatformCode identifies an optional payment intermediary (e.g. "KAKAOPAY").
type PlatformCode string

// PaymentMethod is a selectable means of payment.
type PaymentMethod struct {
	Code        MethodCode `json:"code"`
	DisplayName string     `json:"display_name"`
}

// Platform is an optional third-party payment intermediary.
type Platform struct {
	Code        PlatformCode `json:"code"`
	DisplayName string       `json:"display_name"`
}

// DefaultMethods returns the development/testing method set.
func DefaultMethods() []PaymentMethod {
	return []PaymentMethod{
		{Code: "CARD", DisplayName: "Card"},
		{Code: "CASH", DisplayName: "Cash"},
		{Code: "TRANSFER", DisplayName: "Bank Transfer"},
		{Code: "POINT", DisplayName: "Points"},
	}
}

// DefaultPlatforms returns the development/testing platform set.
func DefaultPlatforms() []Platform {
	return []Platform{
		{Code: "KAKAOPAY", DisplayName: "KakaoPay"},
		{Code: "NAVERPAY", DisplayName: "NaverPay"},
		{Code: "TOSS", DisplayName: "Toss"},
	}
}
