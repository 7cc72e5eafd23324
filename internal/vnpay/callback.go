package vnpay

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
)

// Callback is the typed view of the fields the reconciler relies on.
type Callback struct {
	TxnRef        string
	ResponseCode  string
	AmountCents   int64
	TransactionNo string
	BankCode      string
}

// Succeeded reports whether the gateway says the payment went through.
func (cb Callback) Succeeded() bool { return cb.ResponseCode == ResponseSuccess }

// ParseCallback extracts the fields needed for reconciliation.  It does not
// check the signature; call Client.Verify first.
func ParseCallback(params map[string]string) (Callback, error) {
	cb := Callback{
		TxnRef:        params[ParamTxnRef],
		ResponseCode:  params[ParamResponseCode],
		TransactionNo: params[ParamTransactionNo],
		BankCode:      params[ParamBankCode],
	}
	if cb.TxnRef == "" {
		return cb, fmt.Errorf("%w: %s", ErrMissingParam, ParamTxnRef)
	}
	if cb.ResponseCode == "" {
		return cb, fmt.Errorf("%w: %s", ErrMissingParam, ParamResponseCode)
	}
	raw := params[ParamAmount]
	if raw == "" {
		return cb, fmt.Errorf("%w: %s", ErrMissingParam, ParamAmount)
	}
	amount, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return cb, fmt.Errorf("vnpay: invalid amount %q: %w", raw, err)
	}
	cb.AmountCents = amount
	return cb, nil
}

// Flatten keeps the first value of every query parameter.
func Flatten(q url.Values) map[string]string {
	out := make(map[string]string, len(q))
	for k, vals := range q {
		if len(vals) > 0 {
			out[k] = vals[0]
		}
	}
	return out
}

// TxnRefPrefix returns the part of a transaction reference before the
// first '-'.
func TxnRefPrefix(txnRef string) string {
	if i := strings.IndexByte(txnRef, '-'); i >= 0 {
		return txnRef[:i]
	}
	return txnRef
}
