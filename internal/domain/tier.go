package domain

type TierCode string

const (
	TierDay      TierCode = "DAY"
	TierWeek     TierCode = "WEEK"
	TierMonth    TierCode = "MONTH"
	TierYear     TierCode = "YEAR"
	TierLifetime TierCode = "LIFETIME"
)

// PerpetualYears is the expiry horizon used for perpetual tiers.
// It means "no practical expiry", not an exact contract.
const PerpetualYears = 100

type Tier struct {
	Code         TierCode `json:"code"`
	DisplayName  string   `json:"displayName"`
	Price        int      `json:"price"`
	DurationDays int      `json:"durationDays"`
	Perpetual    bool     `json:"perpetual"`
	KeyPrefix    string   `json:"-"`
}

type PaymentMethod struct {
	ID          string `json:"id"`
	DisplayName string `json:"displayName"`
}

var catalog = []Tier{
	{Code: TierDay, DisplayName: "Day Pass", Price: 15, DurationDays: 1, KeyPrefix: "SNK-D"},
	{Code: TierWeek, DisplayName: "Week Pass", Price: 77, DurationDays: 7, KeyPrefix: "SNK-W"},
	{Code: TierMonth, DisplayName: "Month Pass", Price: 129, DurationDays: 30, KeyPrefix: "SNK-M"},
	{Code: TierYear, DisplayName: "Year Pass", Price: 256, DurationDays: 365, KeyPrefix: "SNK-Y"},
	{Code: TierLifetime, DisplayName: "Lifetime", Price: 532, Perpetual: true, KeyPrefix: "SNK-L"},
}

var paymentMethods = []PaymentMethod{
	{ID: "alipay", DisplayName: "Alipay"},
	{ID: "wechat", DisplayName: "WeChat Pay"},
	{ID: "qqpay", DisplayName: "QQ Pay"},
	{ID: "bank", DisplayName: "Bank Card"},
}

// Tiers returns the catalog in display order.
func Tiers() []Tier {
	out := make([]Tier, len(catalog))
	copy(out, catalog)
	return out
}

func LookupTier(code TierCode) (Tier, error) {
	for _, t := range catalog {
		if t.Code == code {
			return t, nil
		}
	}
	return Tier{}, ErrInvalidTier
}

func PaymentMethods() []PaymentMethod {
	out := make([]PaymentMethod, len(paymentMethods))
	copy(out, paymentMethods)
	return out
}

func IsPaymentMethod(id string) bool {
	for _, m := range paymentMethods {
		if m.ID == id {
			return true
		}
	}
	return false
}
