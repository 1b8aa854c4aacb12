package auth

import "net/url"

// DeviceAuthorization holds the initial response from a device authorization request.
// It contains the code to show the user and the parameters needed for polling.
// The value is immutable; it must not be polled after ExpiresIn seconds have
// elapsed since it was issued.
type DeviceAuthorization struct {
	DeviceCode      string
	UserCode        string
	VerificationURI string
	ExpiresIn       int // seconds until the device code expires
	Interval        int // minimum polling interval in seconds
}

// ApprovalURL returns the verification URI with the user code appended as a
// query parameter, so the approval page can pre-fill the code.
func (a DeviceAuthorization) ApprovalURL() string {
	u, err := url.Parse(a.VerificationURI)
	if err != nil {
		return a.VerificationURI
	}
	q := u.Query()
	q.Set("user_code", a.UserCode)
	u.RawQuery = q.Encode()
	return u.String()
}

// TokenResult holds the credentials returned after successful authorization.
type TokenResult struct {
	AccessToken  string
	RefreshToken string
}

// PollStatus classifies the outcome of a single token poll.
type PollStatus int

const (
	// PollPending means the user has not approved the request yet; keep polling.
	PollPending PollStatus = iota
	// PollSuccess means a token was issued; polling stops.
	PollSuccess
	// PollExpired means the device code is no longer usable; polling stops.
	PollExpired
	// PollFatal means an unrecoverable error occurred; polling stops.
	PollFatal
)

// PollOutcome is the result of a single poll attempt against the token endpoint.
// Token is populated only when Status is PollSuccess; Err is populated only
// when Status is PollExpired or PollFatal.
type PollOutcome struct {
	Status PollStatus
	Token  TokenResult
	Err    error
}
