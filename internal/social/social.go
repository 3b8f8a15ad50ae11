package social

import "errors"

var (
	ErrPayloadInvalid   = errors.New("social login payload invalid")
	ErrIdentityMismatch = errors.New("social identity mismatch")
	ErrExchangeFailed   = errors.New("social exchange failed")
	ErrProviderDisabled = errors.New("social provider disabled")
)

// Identity 提供方换取到的稳定身份
// ProviderUID 在提供方范围内唯一，用于站内找人或建号。
type Identity struct {
	ProviderUID string
	Nickname    string
	Avatar      string
}
