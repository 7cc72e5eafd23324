package vnpay

import (
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/hotel-booking/internal/config"
)

func testClient(t *testing.T) *Client {
	t.Helper()
	c, err := NewClient(config.VNPayConfig{
		TmnCode:    "TMN01",
		HashSecret: "SECRETKEY",
		PayURL:     "https://sandbox.vnpayment.vn/paymentv2/vpcpay.html",
		ReturnURL:  "http://localhost:3000/v1/bookings/vnpay_return",
		ExpireIn:   15 * time.Minute,
	})
	require.NoError(t, err)
	c.now = func() time.Time { return time.Date(2025, 1, 1, 3, 0, 0, 0, time.UTC) }
	return c
}

func TestNewClient_RequiresCredentials(t *testing.T) {
	_, err := NewClient(config.VNPayConfig{TmnCode: "X"})
	assert.ErrorIs(t, err, ErrMissingConfig)
}

func TestBuildPaymentURL_SignedAndVerifiable(t *testing.T) {
	c := testClient(t)

	raw, err := c.BuildPaymentURL("127.0.0.1", 140000, "Payment-for-invoice-INV-1-42", "42-deadbeef")
	require.NoError(t, err)

	u, err := url.Parse(raw)
	require.NoError(t, err)
	assert.Equal(t, "sandbox.vnpayment.vn", u.Host)

	params := Flatten(u.Query())
	assert.Equal(t, "2.1.0", params[ParamVersion])
	assert.Equal(t, "pay", params[ParamCommand])
	assert.Equal(t, "VND", params[ParamCurrCode])
	assert.Equal(t, "140000", params[ParamAmount])
	assert.Equal(t, "42-deadbeef", params[ParamTxnRef])
	assert.Equal(t, "127.0.0.1", params[ParamIPAddr])
	// 03:00 UTC is 10:00 in Ho Chi Minh City.
	assert.Equal(t, "20250101100000", params[ParamCreateDate])
	assert.Equal(t, "20250101101500", params[ParamExpireDate])

	assert.True(t, c.Verify(params))
}

func TestVerify_TamperedAmountFails(t *testing.T) {
	c := testClient(t)
	params := map[string]string{
		ParamTxnRef:       "42-deadbeef",
		ParamAmount:       "140000",
		ParamResponseCode: "00",
	}
	params[ParamSecureHash] = c.Sign(params)
	require.True(t, c.Verify(params))

	params[ParamAmount] = "100"
	assert.False(t, c.Verify(params))
}

func TestVerify_RejectsMissingOrCaseChangedHash(t *testing.T) {
	c := testClient(t)
	params := map[string]string{ParamTxnRef: "1-aa", ParamResponseCode: "00"}
	assert.False(t, c.Verify(params))

	params[ParamSecureHash] = strings.ToUpper(c.Sign(params))
	assert.False(t, c.Verify(params))
}

func TestVerify_IgnoresHashTypeAndForeignKeys(t *testing.T) {
	c := testClient(t)
	params := map[string]string{ParamTxnRef: "1-aa", ParamResponseCode: "24"}
	params[ParamSecureHash] = c.Sign(params)
	params[ParamSecureHashType] = "HmacSHA512"
	params["utm_source"] = "mail"
	assert.True(t, c.Verify(params))
}

func TestCanonical_SortedAndEncoded(t *testing.T) {
	got := Canonical(map[string]string{
		"vnp_OrderInfo": "a b",
		"vnp_Amount":    "100",
		"vnp_BankCode":  "",
		"other":         "x",
	})
	assert.Equal(t, "vnp_Amount=100&vnp_OrderInfo=a+b", got)
}

func TestBuildPaymentURL_AmountRange(t *testing.T) {
	c := testClient(t)
	_, err := c.BuildPaymentURL("127.0.0.1", 99, "x", "1-aa")
	assert.ErrorIs(t, err, ErrAmountOutOfRange)
	_, err = c.BuildPaymentURL("127.0.0.1", 1000000000000, "x", "1-aa")
	assert.ErrorIs(t, err, ErrAmountOutOfRange)
	_, err = c.BuildPaymentURL("127.0.0.1", 100, "x", "1-aa")
	assert.NoError(t, err)
}

func TestParseCallback(t *testing.T) {
	cb, err := ParseCallback(map[string]string{
		ParamTxnRef:       "42-deadbeef",
		ParamResponseCode: "00",
		ParamAmount:       "140000",
	})
	require.NoError(t, err)
	assert.True(t, cb.Succeeded())
	assert.Equal(t, int64(140000), cb.AmountCents)

	_, err = ParseCallback(map[string]string{ParamResponseCode: "00", ParamAmount: "1"})
	assert.ErrorIs(t, err, ErrMissingParam)

	_, err = ParseCallback(map[string]string{ParamTxnRef: "1-a", ParamResponseCode: "00", ParamAmount: "x"})
	assert.Error(t, err)
}

func TestTxnRefPrefix(t *testing.T) {
	assert.Equal(t, "42", TxnRefPrefix("42-deadbeef"))
	assert.Equal(t, "42", TxnRefPrefix("42"))
	assert.Equal(t, "", TxnRefPrefix("-x"))
}

func TestOrderInfo_StripsDiacritics(t *testing.T) {
	assert.Equal(t, "Payment-for-invoice-INV-1-42", OrderInfo("Payment for invoice INV-1-42"))
	assert.Equal(t, "Thanh-toan-hoa-đon", OrderInfo("Thanh toán hóa đơn"))
	assert.Len(t, OrderInfo(strings.Repeat("a", 300)), 255)
}
