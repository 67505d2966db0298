package documents

import (
	"context"
	"fmt"
	"time"

	"github.com/chachabrian/tourbook-backend/internal/dispatch"
	"github.com/chachabrian/tourbook-backend/internal/models"
	"github.com/chachabrian/tourbook-backend/internal/workflow"
)

type renderFunc func(b models.Booking, artist string, now time.Time) ([]byte, string, error)

// Generator renders a PDF for the booking and uploads it when opened.
type Generator struct {
	kind     workflow.DialogKind
	folder   string
	render   renderFunc
	uploader Uploader
	artist   string
	now      func() time.Time
}

func newGenerator(kind workflow.DialogKind, folder string, render renderFunc, uploader Uploader, artist string) *Generator {
	return &Generator{
		kind:     kind,
		folder:   folder,
		render:   render,
		uploader: uploader,
		artist:   safe(artist, "Artist"),
		now:      time.Now,
	}
}

func NewContractGenerator(uploader Uploader, artist string) *Generator {
	return newGenerator(workflow.DialogContractGenerator, "contracts", buildContractPDF, uploader, artist)
}

func NewInvoiceGenerator(uploader Uploader, artist string) *Generator {
	return newGenerator(workflow.DialogInvoiceGenerator, "invoices", buildInvoicePDF, uploader, artist)
}

func NewAssetGenerator(uploader Uploader, artist string) *Generator {
	render := func(b models.Booking, artist string, _ time.Time) ([]byte, string, error) {
		return buildAssetSheetPDF(b, artist)
	}
	return newGenerator(workflow.DialogAssetGenerator, "assets", render, uploader, artist)
}

func (g *Generator) Kind() workflow.DialogKind { return g.kind }

func (g *Generator) Open(ctx context.Context, payload dispatch.Payload) (dispatch.Document, error) {
	data, filename, err := g.render(payload.Booking, g.artist, g.now())
	if err != nil {
		return dispatch.Document{}, fmt.Errorf("render %s: %w", g.kind, err)
	}
	url, err := g.uploader.SaveDocument(ctx, g.folder, filename, pdfContentType, data)
	if err != nil {
		return dispatch.Document{}, fmt.Errorf("upload %s: %w", filename, err)
	}
	return dispatch.Document{
		Kind:     g.kind,
		Title:    payload.Action.Label,
		Filename: filename,
		URL:      url,
	}, nil
}

// All returns the full dialog set for a dispatcher.
func All(uploader Uploader, mailer Mailer, artist string) []dispatch.Dialog {
	return []dispatch.Dialog{
		NewEmailComposer(mailer, artist),
		NewContractGenerator(uploader, artist),
		NewInvoiceGenerator(uploader, artist),
		NewAssetGenerator(uploader, artist),
	}
}
