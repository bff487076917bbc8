package invoice

import (
	"bytes"
	"context"
	"fmt"
	"log"
	"net/http"
	"time"

	"solemart/db"
	"solemart/models"
	"solemart/utils"

	"github.com/julienschmidt/httprouter"
	"github.com/phpdave11/gofpdf"
	"go.mongodb.org/mongo-driver/bson"
)

// invoiceTitle must stay within cp1252: the core fonts cannot render
// multi-byte UTF-8 and would print it as mojibake.
const invoiceTitle = "solemart - Order Invoice"

// Build renders the order snapshot as a one-page PDF receipt.
func Build(order models.Order) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 18)
	pdf.Cell(0, 10, invoiceTitle)
	pdf.Ln(14)

	pdf.SetFont("Helvetica", "", 11)
	pdf.Cell(0, 6, "Order: "+order.OrderID)
	pdf.Ln(6)
	pdf.Cell(0, 6, "Placed: "+order.CreatedAt.Format("2006-01-02 15:04"))
	pdf.Ln(6)
	addr := order.ShippingAddress
	pdf.Cell(0, 6, fmt.Sprintf("Ship to: %s, %s %s, %s", addr.Address, addr.City, addr.PostalCode, addr.Country))
	pdf.Ln(6)
	pdf.Cell(0, 6, "Payment method: "+order.PaymentMethod)
	pdf.Ln(10)

	// Items table
	pdf.SetFont("Helvetica", "B", 11)
	pdf.CellFormat(90, 8, "Item", "1", 0, "L", false, 0, "")
	pdf.CellFormat(25, 8, "Qty", "1", 0, "R", false, 0, "")
	pdf.CellFormat(35, 8, "Price", "1", 0, "R", false, 0, "")
	pdf.CellFormat(35, 8, "Subtotal", "1", 0, "R", false, 0, "")
	pdf.Ln(8)

	pdf.SetFont("Helvetica", "", 11)
	for _, it := range order.Items {
		pdf.CellFormat(90, 8, it.Name, "1", 0, "L", false, 0, "")
		pdf.CellFormat(25, 8, fmt.Sprintf("%d", it.Qty), "1", 0, "R", false, 0, "")
		pdf.CellFormat(35, 8, fmt.Sprintf("%.2f", it.Price), "1", 0, "R", false, 0, "")
		pdf.CellFormat(35, 8, fmt.Sprintf("%.2f", it.Price*float64(it.Qty)), "1", 0, "R", false, 0, "")
		pdf.Ln(8)
	}

	pdf.Ln(4)
	writeTotal := func(label string, v float64) {
		pdf.CellFormat(150, 7, label, "", 0, "R", false, 0, "")
		pdf.CellFormat(35, 7, fmt.Sprintf("%.2f", v), "", 0, "R", false, 0, "")
		pdf.Ln(7)
	}
	writeTotal("Items:", order.ItemsPrice)
	writeTotal("Shipping:", order.ShippingPrice)
	writeTotal("Tax:", order.TaxPrice)
	pdf.SetFont("Helvetica", "B", 12)
	writeTotal("Total:", order.TotalPrice)

	pdf.SetFont("Helvetica", "", 10)
	pdf.Ln(4)
	if order.IsPaid && order.PaidAt != nil {
		pdf.Cell(0, 6, "Paid at "+order.PaidAt.Format("2006-01-02 15:04"))
	} else {
		pdf.Cell(0, 6, "Payment pending")
	}
	pdf.Ln(6)
	if order.IsDelivered && order.DeliveredAt != nil {
		pdf.Cell(0, 6, "Delivered at "+order.DeliveredAt.Format("2006-01-02 15:04"))
	} else {
		pdf.Cell(0, 6, "Not yet delivered")
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// OrderInvoice serves the PDF to the order's owner or an admin.
func OrderInvoice(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	var order models.Order
	if err := db.OrderCollection.FindOne(ctx, bson.M{"orderId": ps.ByName("id")}).Decode(&order); err != nil {
		http.Error(w, "Order not found", http.StatusNotFound)
		return
	}

	if order.UserID != utils.GetUserIDFromRequest(r) && !utils.IsAdmin(r) {
		http.Error(w, "Not authorized to view this order", http.StatusForbidden)
		return
	}

	pdfBytes, err := Build(order)
	if err != nil {
		log.Println("OrderInvoice build error:", err)
		http.Error(w, "Could not build invoice", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf("inline; filename=%q", order.OrderID+".pdf"))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(pdfBytes)
}
