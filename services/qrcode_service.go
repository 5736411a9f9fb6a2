package services

import (
	"bytes"
	"fmt"
	"image/png"
	"net/url"

	"github.com/boombuler/barcode"
	"github.com/boombuler/barcode/qr"
	"github.com/go-pdf/fpdf"
	"github.com/mesa-digital/restaurant-app/models"
)

// DefaultQRSize is the edge of generated PNGs in pixels.
const DefaultQRSize = 300

// QRSheetEntry describes the QR code of one table.
type QRSheetEntry struct {
	TableID     uint   `json:"table_id"`
	TableNumber string `json:"table_number"`
	MenuURL     string `json:"menu_url"`
	ImageURL    string `json:"image_url"`
	DownloadURL string `json:"download_url"`
}

// MenuURL is the address a table's QR code points to.
func MenuURL(baseURL string, tenantID uint, tableNumber string) string {
	return fmt.Sprintf("%s/menu/%d?mesa=%s", baseURL, tenantID, url.QueryEscape(tableNumber))
}

// EncodeQRPNG renders content as a square PNG QR code.
func EncodeQRPNG(content string, size int) ([]byte, error) {
	if size <= 0 {
		size = DefaultQRSize
	}
	code, err := qr.Encode(content, qr.M, qr.Auto)
	if err != nil {
		return nil, fmt.Errorf("encode qr: %w", err)
	}
	code, err = barcode.Scale(code, size, size)
	if err != nil {
		return nil, fmt.Errorf("scale qr: %w", err)
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, code); err != nil {
		return nil, fmt.Errorf("encode png: %w", err)
	}
	return buf.Bytes(), nil
}

func BuildQRSheet(baseURL string, tenantID uint, tables []models.Table) []QRSheetEntry {
	entries := make([]QRSheetEntry, 0, len(tables))
	for _, t := range tables {
		image := fmt.Sprintf("%s/qrcode/%d/%s", baseURL, tenantID, url.PathEscape(t.Number))
		entries = append(entries, QRSheetEntry{
			TableID:     t.ID,
			TableNumber: t.Number,
			MenuURL:     MenuURL(baseURL, tenantID, t.Number),
			ImageURL:    image,
			DownloadURL: image + "?download=1",
		})
	}
	return entries
}

const (
	sheetCols    = 3
	sheetRows    = 4
	sheetPerPage = sheetCols * sheetRows
)

// RenderQRSheetPDF lays the QR codes out on A4 pages, twelve per page.
func RenderQRSheetPDF(tenant models.Tenant, entries []QRSheetEntry) ([]byte, error) {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetTitle("QR Codes - "+tenant.Name, true)
	pdf.SetAutoPageBreak(false, 10)
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	header := func() {
		pdf.AddPage()
		pdf.SetFont("Helvetica", "B", 16)
		pdf.CellFormat(0, 10, tr(tenant.Name), "", 1, "C", false, 0, "")
	}
	if len(entries) == 0 {
		header()
	}

	opts := fpdf.ImageOptions{ImageType: "PNG"}
	for i, e := range entries {
		slot := i % sheetPerPage
		if slot == 0 {
			header()
		}
		x := 15 + float64(slot%sheetCols)*62
		y := 25 + float64(slot/sheetCols)*66

		img, err := EncodeQRPNG(e.MenuURL, DefaultQRSize)
		if err != nil {
			return nil, err
		}
		name := fmt.Sprintf("qr-%d", e.TableID)
		pdf.RegisterImageOptionsReader(name, opts, bytes.NewReader(img))
		pdf.ImageOptions(name, x+8, y, 44, 44, false, opts, 0, "")

		pdf.SetXY(x, y+46)
		pdf.SetFont("Helvetica", "B", 12)
		pdf.CellFormat(60, 7, tr("Mesa "+e.TableNumber), "", 0, "C", false, 0, "")
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("render qr sheet: %w", err)
	}
	return buf.Bytes(), nil
}
