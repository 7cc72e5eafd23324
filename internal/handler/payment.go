package handler

import (
    "context"
    "net/http"

    "github.com/labstack/echo/v4"
    "go.uber.org/zap"

    "github.com/iliyamo/hotel-booking/internal/service"
    "github.com/iliyamo/hotel-booking/internal/vnpay"
)

// CallbackReconciler is the payment callback reconciler as seen by HTTP.
type CallbackReconciler interface {
    HandleCallback(ctx context.Context, params map[string]string, lang string) service.CallbackResult
}

// PaymentHandler serves the two VNPay callbacks.  Both always answer 200:
// the gateway does not usefully retry on HTTP errors, so failures are
// expressed in the body.
type PaymentHandler struct {
    svc CallbackReconciler
    log *zap.Logger
}

// NewPaymentHandler panics on nil dependencies.
func NewPaymentHandler(svc CallbackReconciler, log *zap.Logger) *PaymentHandler {
    if svc == nil || log == nil {
        panic("nil dependency passed to NewPaymentHandler")
    }
    return &PaymentHandler{svc: svc, log: log}
}

// VNPayReturn handles GET /v1/bookings/vnpay_return, the browser redirect
// after checkout.
func (h *PaymentHandler) VNPayReturn(c echo.Context) error {
    params := vnpay.Flatten(c.QueryParams())
    res := h.svc.HandleCallback(c.Request().Context(), params, requestLang(c))

    switch res.Outcome {
    case service.OutcomeSuccess:
        data := echo.Map{"txnRef": res.TxnRef}
        if res.Invoice != nil {
            data["invoiceCode"] = res.Invoice.InvoiceCode
            data["status"] = res.Invoice.Status
            data["totalAmountCents"] = res.Invoice.TotalAmountCents
            data["paidDate"] = res.Invoice.PaidDate
        }
        return c.JSON(http.StatusOK, envelope{Status: "success", Message: "payment successful", Data: data})
    case service.OutcomeFailed:
        return c.JSON(http.StatusOK, envelope{
            Status: "failed", Message: "payment failed",
            Data: echo.Map{"txnRef": res.TxnRef, "responseCode": res.ResponseCode},
        })
    default:
        // Details stay in the logs.
        return c.JSON(http.StatusOK, envelope{
            Status: "error", Message: "payment could not be verified",
            Data: echo.Map{"txnRef": res.TxnRef, "responseCode": res.ResponseCode},
        })
    }
}

// ReturnThrottled answers a browser return refused by the rate limiter.
// It keeps the 200 envelope of VNPayReturn; the IPN still settles the
// invoice.
func (h *PaymentHandler) ReturnThrottled(c echo.Context) error {
    return c.JSON(http.StatusOK, envelope{
        Status: "error", Code: "TOO_MANY_REQUESTS",
        Message: "too many requests, please retry shortly",
    })
}

// ipnResponse is the body VNPay expects from an IPN endpoint.
type ipnResponse struct {
    RspCode string `json:"RspCode"`
    Message string `json:"Message"`
}

// VNPayIPN handles GET /v1/payments/vnpay/ipn, the server-to-server
// notification.
func (h *PaymentHandler) VNPayIPN(c echo.Context) error {
    params := vnpay.Flatten(c.QueryParams())
    res := h.svc.HandleCallback(c.Request().Context(), params, requestLang(c))
    return c.JSON(http.StatusOK, ipnAnswer(res))
}

func ipnAnswer(res service.CallbackResult) ipnResponse {
    switch res.Outcome {
    case service.OutcomeSuccess, service.OutcomeFailed:
        if res.AlreadySettled {
            return ipnResponse{"02", "Order already confirmed"}
        }
        return ipnResponse{"00", "Confirm Success"}
    }
    switch res.Reason {
    case service.ReasonInvalidSignature:
        return ipnResponse{"97", "Invalid signature"}
    case service.ReasonNotFound:
        return ipnResponse{"01", "Order not found"}
    case service.ReasonAmountMismatch:
        return ipnResponse{"04", "Invalid amount"}
    }
    return ipnResponse{"99", "Unknown error"}
}
