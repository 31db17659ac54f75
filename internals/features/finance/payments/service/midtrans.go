package service

import (
	"crypto/sha512"
	"encoding/hex"
	"fmt"
	"strings"

	midtrans "github.com/midtrans/midtrans-go"
	"github.com/midtrans/midtrans-go/snap"
)

/* =========================================================
   Midtrans Client
========================================================= */

// SnapCreator: subset snap.Client yang dipakai checkout (di-fake di test)
type SnapCreator interface {
	CreateTransaction(req *snap.Request) (*snap.Response, *midtrans.Error)
}

// NewSnapClient dipanggil saat bootstrap app.
// useProduction=true untuk Production, false untuk Sandbox.
func NewSnapClient(serverKey string, useProduction bool) *snap.Client {
	var c snap.Client
	if useProduction {
		c.New(serverKey, midtrans.Production)
	} else {
		c.New(serverKey, midtrans.Sandbox)
	}
	return &c
}

/* =========================================================
   Input helper untuk data customer
========================================================= */

type CustomerInput struct {
	FirstName string
	LastName  string
	Email     string
	Phone     string
	Address   string // optional
	City      string // optional
	Postcode  string // optional
	Country   string // optional, default "IDN"
}

/* =========================================================
   Snap request untuk satu cicilan
========================================================= */

func buildSnapRequest(orderID string, amount int64, itemName string, cust CustomerInput) *snap.Request {
	addr := &midtrans.CustomerAddress{
		FName:       cust.FirstName,
		LName:       cust.LastName,
		Phone:       cust.Phone,
		Address:     cust.Address,
		City:        cust.City,
		Postcode:    cust.Postcode,
		CountryCode: defaultString(cust.Country, "IDN"),
	}

	req := &snap.Request{
		TransactionDetails: midtrans.TransactionDetails{
			OrderID:  orderID,
			GrossAmt: amount,
		},
		CustomerDetail: &midtrans.CustomerDetails{
			FName:    cust.FirstName,
			LName:    cust.LastName,
			Email:    cust.Email,
			Phone:    cust.Phone,
			BillAddr: addr,
			ShipAddr: addr,
		},
		CreditCard:   &snap.CreditCardDetails{Secure: true},
		CustomField1: truncate(itemName, 40),
	}

	req.Items = &[]midtrans.ItemDetails{
		{
			ID:       safe(orderID),
			Price:    amount,
			Qty:      1,
			Name:     truncate(defaultString(itemName, "Cicilan Kursus"), 50),
			Category: "COURSE_FEE",
		},
	}
	return req
}

/* =========================================================
   Order ID & signature
========================================================= */

const orderPrefix = "INST-"

// OrderID: INST-<installment uuid>-<unix>; suffix unix membuat tiap checkout unik di sisi Midtrans
func OrderID(installmentID fmt.Stringer, unix int64) string {
	return fmt.Sprintf("%s%s-%d", orderPrefix, installmentID.String(), unix)
}

// ParseOrderInstallment: ambil string uuid installment dari order id, "" kalau format lain
func ParseOrderInstallment(orderID string) string {
	if !strings.HasPrefix(orderID, orderPrefix) {
		return ""
	}
	rest := strings.TrimPrefix(orderID, orderPrefix)
	// uuid kanonik = 36 karakter, diikuti "-<unix>"
	if len(rest) < 38 || rest[36] != '-' {
		return ""
	}
	return rest[:36]
}

// Signature: SHA512(order_id + status_code + gross_amount + ServerKey)
func Signature(orderID, statusCode, grossAmount, serverKey string) string {
	return sha512sum(orderID + statusCode + grossAmount + serverKey)
}

func sha512sum(s string) string {
	h := sha512.Sum512([]byte(s))
	return hex.EncodeToString(h[:])
}

/* =========================================================
   Utils
========================================================= */

func truncate(s string, n int) string {
	if n <= 0 || len(s) <= n {
		return s
	}
	return s[:n]
}

func defaultString(s string, def string) string {
	if strings.TrimSpace(s) == "" {
		return def
	}
	return s
}

func safe(s string) string {
	if s == "" {
		return "item-1"
	}
	return truncate(s, 50)
}

func strPtr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
