// Package vnpay builds VNPay (v2.1.0) payment links and verifies the
// signatures of the gateway's return and IPN callbacks.
//
// Both directions sign the same canonical string: every vnp_* parameter
// except the hash fields, sorted by key, form-encoded and joined with '&',
// then HMAC-SHA512 with the merchant hash secret, hex encoded.
package vnpay

import (
	"crypto/hmac"
	"crypto/sha512"
	"encoding/hex"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/iliyamo/hotel-booking/internal/config"
)

// Parameter names used by the gateway.
const (
	ParamVersion           = "vnp_Version"
	ParamCommand           = "vnp_Command"
	ParamTmnCode           = "vnp_TmnCode"
	ParamLocale            = "vnp_Locale"
	ParamCurrCode          = "vnp_CurrCode"
	ParamTxnRef            = "vnp_TxnRef"
	ParamOrderInfo         = "vnp_OrderInfo"
	ParamOrderType         = "vnp_OrderType"
	ParamAmount            = "vnp_Amount"
	ParamReturnURL         = "vnp_ReturnUrl"
	ParamIPAddr            = "vnp_IpAddr"
	ParamCreateDate        = "vnp_CreateDate"
	ParamExpireDate        = "vnp_ExpireDate"
	ParamResponseCode      = "vnp_ResponseCode"
	ParamTransactionNo     = "vnp_TransactionNo"
	ParamTransactionStatus = "vnp_TransactionStatus"
	ParamBankCode          = "vnp_BankCode"
	ParamPayDate           = "vnp_PayDate"
	ParamSecureHash        = "vnp_SecureHash"
	ParamSecureHashType    = "vnp_SecureHashType"
)

const (
	version    = "2.1.0"
	dateLayout = "20060102150405"

	// ResponseSuccess is the only response code that means the customer paid.
	ResponseSuccess = "00"

	minAmount = 100
	maxAmount = 999999999900
)

var (
	ErrAmountOutOfRange = errors.New("vnpay: amount out of range")
	ErrMissingConfig    = errors.New("vnpay: incomplete merchant configuration")
	ErrMissingParam     = errors.New("vnpay: missing callback parameter")
)

// Client signs outgoing payment links and incoming callbacks for one
// merchant terminal.
type Client struct {
	cfg config.VNPayConfig
	loc *time.Location
	now func() time.Time
}

// NewClient validates the merchant configuration.  Dates sent to the
// gateway are expressed in Asia/Ho_Chi_Minh.
func NewClient(cfg config.VNPayConfig) (*Client, error) {
	if cfg.TmnCode == "" || cfg.HashSecret == "" || cfg.PayURL == "" {
		return nil, ErrMissingConfig
	}
	if cfg.ExpireIn <= 0 {
		cfg.ExpireIn = 15 * time.Minute
	}
	loc, err := time.LoadLocation("Asia/Ho_Chi_Minh")
	if err != nil {
		loc = time.FixedZone("ICT", 7*60*60)
	}
	return &Client{cfg: cfg, loc: loc, now: time.Now}, nil
}

// BuildPaymentURL returns the gateway URL the customer is redirected to.
// amountCents is in minor units, which is exactly what vnp_Amount expects
// (amount x 100).
func (c *Client) BuildPaymentURL(ipAddr string, amountCents int64, orderInfo, txnRef string) (string, error) {
	if amountCents < minAmount || amountCents > maxAmount {
		return "", fmt.Errorf("%w: %d", ErrAmountOutOfRange, amountCents)
	}
	now := c.now().In(c.loc)
	params := map[string]string{
		ParamVersion:    version,
		ParamCommand:    "pay",
		ParamTmnCode:    c.cfg.TmnCode,
		ParamLocale:     "vn",
		ParamCurrCode:   "VND",
		ParamTxnRef:     txnRef,
		ParamOrderInfo:  strings.TrimSpace(orderInfo),
		ParamOrderType:  "other",
		ParamAmount:     strconv.FormatInt(amountCents, 10),
		ParamReturnURL:  c.cfg.ReturnURL,
		ParamIPAddr:     ipAddr,
		ParamCreateDate: now.Format(dateLayout),
		ParamExpireDate: now.Add(c.cfg.ExpireIn).Format(dateLayout),
	}

	// The query string and the signed data are the same canonical string.
	query := Canonical(params)
	return c.cfg.PayURL + "?" + query + "&" + ParamSecureHash + "=" + c.sign(query), nil
}

// Verify reports whether params carry a valid signature.  The comparison
// is exact and constant time.
func (c *Client) Verify(params map[string]string) bool {
	got := params[ParamSecureHash]
	if got == "" {
		return false
	}
	want := c.Sign(params)
	return hmac.Equal([]byte(want), []byte(got))
}

// Sign computes the signature the gateway would attach to params.
func (c *Client) Sign(params map[string]string) string {
	return c.sign(Canonical(params))
}

func (c *Client) sign(data string) string {
	mac := hmac.New(sha512.New, []byte(c.cfg.HashSecret))
	mac.Write([]byte(data))
	return hex.EncodeToString(mac.Sum(nil))
}

// Canonical returns the string that is signed: vnp_* keys other than the
// hash fields, sorted, form-encoded.  Empty values are skipped the same way
// the gateway skips them.
func Canonical(params map[string]string) string {
	v := url.Values{}
	for k, val := range params {
		if !strings.HasPrefix(k, "vnp_") || k == ParamSecureHash || k == ParamSecureHashType || val == "" {
			continue
		}
		v.Set(k, val)
	}
	return v.Encode()
}
